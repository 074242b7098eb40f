// Package c provides the C code generation profile.
// Generated code is a header and an implementation file; NLA systems call an
// nlaSolve routine the embedding application provides.
package c

import (
	"github.com/leapstack-labs/cellgen/pkg/profile"
)

func init() {
	profile.Register(C)
}

// C is the C profile.
var C = &profile.Profile{
	Name:         "c",
	Description:  "C99 header and implementation",
	HasInterface: true,

	Operators: profile.Operators{
		Eq:  profile.Operator{Text: " == ", Infix: true},
		Neq: profile.Operator{Text: " != ", Infix: true},
		Lt:  profile.Operator{Text: " < ", Infix: true},
		Leq: profile.Operator{Text: " <= ", Infix: true},
		Gt:  profile.Operator{Text: " > ", Infix: true},
		Geq: profile.Operator{Text: " >= ", Infix: true},
		And: profile.Operator{Text: " && ", Infix: true},
		Or:  profile.Operator{Text: " || ", Infix: true},
		Xor: profile.Operator{Text: "xor"},
		Not: profile.Operator{Text: "!", Infix: true},

		Assign:          " = ",
		Plus:            "+",
		Minus:           "-",
		Times:           "*",
		Divide:          "/",
		Power:           "pow",
		SquareRoot:      "sqrt",
		CommonLog:       "log10",
		NaturalLog:      "log",
		Min:             "min",
		Max:             "max",
		Rem:             "fmod",
		ConditionalIf:   "([CONDITION])?[IF_STATEMENT]",
		ConditionalElse: ":[ELSE_STATEMENT]",
	},

	Constants: profile.Constants{
		True:  "1.0",
		False: "0.0",
		E:     "2.71828182845905",
		Pi:    "3.14159265358979",
		Inf:   "INFINITY",
		NaN:   "NAN",
	},

	Functions: map[string]string{
		"abs":     "fabs",
		"ln":      "log",
		"ceiling": "ceil",
	},

	Helpers: map[string]string{
		"xor": "double xor(double x, double y)\n" +
			"{\n" +
			"    return (x != 0.0) ^ (y != 0.0);\n" +
			"}\n",
		"min": "double min(double x, double y)\n" +
			"{\n" +
			"    return (x < y)?x:y;\n" +
			"}\n",
		"max": "double max(double x, double y)\n" +
			"{\n" +
			"    return (x > y)?x:y;\n" +
			"}\n",
		"sec":   reciprocal("sec", "cos"),
		"csc":   reciprocal("csc", "sin"),
		"cot":   reciprocal("cot", "tan"),
		"sech":  reciprocal("sech", "cosh"),
		"csch":  reciprocal("csch", "sinh"),
		"coth":  reciprocal("coth", "tanh"),
		"asec":  inverseReciprocal("asec", "acos"),
		"acsc":  inverseReciprocal("acsc", "asin"),
		"acot":  inverseReciprocal("acot", "atan"),
		"asech": oneOverX("asech", "log(oneOverX+sqrt(oneOverX*oneOverX-1.0))"),
		"acsch": oneOverX("acsch", "log(oneOverX+sqrt(oneOverX*oneOverX+1.0))"),
		"acoth": oneOverX("acoth", "0.5*log((1.0+oneOverX)/(1.0-oneOverX))"),
	},

	Templates: profile.Templates{
		Comment:       "/* [CODE] */\n",
		OriginComment: "The content of this file was generated using [PROFILE_INFORMATION] cellgen [VERSION].",

		InterfaceFileName:      "model.h",
		ImplementationFileName: "model.c",
		Header: profile.Pair{
			Interface: "#pragma once\n" +
				"\n" +
				"#include <stddef.h>\n",
			Implementation: "#include \"[INTERFACE_FILE_NAME]\"\n" +
				"\n" +
				"#include <math.h>\n" +
				"#include <stdlib.h>\n",
		},

		Version: profile.Pair{
			Interface:      "extern const char VERSION[];\n",
			Implementation: "const char VERSION[] = \"[VERSION]\";\n",
		},
		StateCount: profile.Pair{
			Interface:      "extern const size_t STATE_COUNT;\n",
			Implementation: "const size_t STATE_COUNT = [STATE_COUNT];\n",
		},
		VariableCount: profile.Pair{
			Interface:      "extern const size_t VARIABLE_COUNT;\n",
			Implementation: "const size_t VARIABLE_COUNT = [VARIABLE_COUNT];\n",
		},
		ExternalCount: profile.Pair{
			Interface:      "extern const size_t EXTERNAL_COUNT;\n",
			Implementation: "const size_t EXTERNAL_COUNT = [EXTERNAL_COUNT];\n",
		},

		VariableInfoObject: "typedef struct {\n" +
			"    char name[[NAME_SIZE]];\n" +
			"    char units[[UNITS_SIZE]];\n" +
			"    char component[[COMPONENT_SIZE]];\n" +
			"} VariableInfo;\n",
		VariableInfoEntry: "{\"[NAME]\", \"[UNITS]\", \"[COMPONENT]\"}",
		VoiInfo: profile.Pair{
			Interface:      "extern const VariableInfo VOI_INFO;\n",
			Implementation: "const VariableInfo VOI_INFO = [CODE];\n",
		},
		StateInfo: profile.Pair{
			Interface:      "extern const VariableInfo STATE_INFO[];\n",
			Implementation: "const VariableInfo STATE_INFO[] = {\n[CODE]};\n",
		},
		VariableInfo: profile.Pair{
			Interface:      "extern const VariableInfo VARIABLE_INFO[];\n",
			Implementation: "const VariableInfo VARIABLE_INFO[] = {\n[CODE]};\n",
		},
		ExternalInfo: profile.Pair{
			Interface:      "extern const VariableInfo EXTERNAL_INFO[];\n",
			Implementation: "const VariableInfo EXTERNAL_INFO[] = {\n[CODE]};\n",
		},

		ExternalVariableTypeFam: "typedef double (* ExternalVariable)(double *variables, double *externals, size_t index);\n",
		ExternalVariableTypeFdm: "typedef double (* ExternalVariable)(double voi, double *states, double *rates, double *variables, double *externals, size_t index);\n",
		ExternalVariableCallFam: "externalVariable(variables, externals, [INDEX])",
		ExternalVariableCallFdm: "externalVariable(voi, states, rates, variables, externals, [INDEX])",

		RootFindingInfoFam: "typedef struct {\n" +
			"    double *variables;\n" +
			"    double *externals;\n" +
			"} RootFindingInfo;\n",
		RootFindingInfoFdm: "typedef struct {\n" +
			"    double voi;\n" +
			"    double *states;\n" +
			"    double *rates;\n" +
			"    double *variables;\n" +
			"    double *externals;\n" +
			"} RootFindingInfo;\n",
		ExternNlaSolve: "extern void nlaSolve(void (*objectiveFunction)(double *, double *, void *),\n" +
			"                     double *u, size_t n, void *data);\n",
		FindRootCallFam: "findRoot[INDEX](variables, [EXTERNALS]);\n",
		FindRootCallFdm: "findRoot[INDEX](voi, states, rates, variables, [EXTERNALS]);\n",
		FindRootMethodFam: "void findRoot[INDEX](double *variables, double *externals)\n" +
			"{\n" +
			"    RootFindingInfo rfi = { variables, externals };\n" +
			"    double u[[SIZE]];\n" +
			"\n" +
			"[CODE]" +
			"}\n",
		FindRootMethodFdm: "void findRoot[INDEX](double voi, double *states, double *rates, double *variables, double *externals)\n" +
			"{\n" +
			"    RootFindingInfo rfi = { voi, states, rates, variables, externals };\n" +
			"    double u[[SIZE]];\n" +
			"\n" +
			"[CODE]" +
			"}\n",
		NlaSolveCallFam: "nlaSolve(objectiveFunction[INDEX], u, [SIZE], &rfi);\n",
		NlaSolveCallFdm: "nlaSolve(objectiveFunction[INDEX], u, [SIZE], &rfi);\n",
		ObjectiveFunctionFam: "void objectiveFunction[INDEX](double *u, double *f, void *data)\n" +
			"{\n" +
			"    double *variables = ((RootFindingInfo *) data)->variables;\n" +
			"    double *externals = ((RootFindingInfo *) data)->externals;\n" +
			"\n" +
			"[CODE]" +
			"}\n",
		ObjectiveFunctionFdm: "void objectiveFunction[INDEX](double *u, double *f, void *data)\n" +
			"{\n" +
			"    double voi = ((RootFindingInfo *) data)->voi;\n" +
			"    double *states = ((RootFindingInfo *) data)->states;\n" +
			"    double *rates = ((RootFindingInfo *) data)->rates;\n" +
			"    double *variables = ((RootFindingInfo *) data)->variables;\n" +
			"    double *externals = ((RootFindingInfo *) data)->externals;\n" +
			"\n" +
			"[CODE]" +
			"}\n",

		CreateStatesArray:    createArray("States", "STATE_COUNT"),
		CreateVariablesArray: createArray("Variables", "VARIABLE_COUNT"),
		CreateExternalsArray: createArray("Externals", "EXTERNAL_COUNT"),
		DeleteArray: profile.Pair{
			Interface: "void deleteArray(double *array);\n",
			Implementation: "void deleteArray(double *array)\n" +
				"{\n" +
				"    free(array);\n" +
				"}\n",
		},

		InitialiseVariablesFam:   method("void initialiseVariables(double *variables)"),
		InitialiseVariablesFdm:   method("void initialiseVariables(double *states, double *variables)"),
		ComputeComputedConstants: method("void computeComputedConstants(double *variables)"),
		ComputeRatesWoev:         method("void computeRates(double voi, double *states, double *rates, double *variables)"),
		ComputeRatesWev:          method("void computeRates(double voi, double *states, double *rates, double *variables, double *externals, ExternalVariable externalVariable)"),
		ComputeVariablesFamWoev:  method("void computeVariables(double *variables)"),
		ComputeVariablesFamWev:   method("void computeVariables(double *variables, double *externals, ExternalVariable externalVariable)"),
		ComputeVariablesFdmWoev:  method("void computeVariables(double voi, double *states, double *rates, double *variables)"),
		ComputeVariablesFdmWev:   method("void computeVariables(double voi, double *states, double *rates, double *variables, double *externals, ExternalVariable externalVariable)"),
		EmptyMethod:              "",
		LocalVariable:            "double [NAME]",
	},

	Syntax: profile.Syntax{
		Indent:           "    ",
		CommandSeparator: ";",
		OpenArray:        "[",
		CloseArray:       "]",
		Null:             "NULL",
		Voi:              "voi",
		States:           "states",
		Rates:            "rates",
		Variables:        "variables",
		Externals:        "externals",
		U:                "u",
		F:                "f",
	},
}

func method(signature string) profile.Pair {
	return profile.Pair{
		Interface:      signature + ";\n",
		Implementation: signature + "\n{\n[CODE]}\n",
	}
}

func createArray(name, count string) profile.Pair {
	return profile.Pair{
		Interface: "double * create" + name + "Array();\n",
		Implementation: "double * create" + name + "Array()\n" +
			"{\n" +
			"    double *res = (double *) malloc(" + count + "*sizeof(double));\n" +
			"\n" +
			"    for (size_t i = 0; i < " + count + "; ++i) {\n" +
			"        res[i] = NAN;\n" +
			"    }\n" +
			"\n" +
			"    return res;\n" +
			"}\n",
	}
}

func reciprocal(name, of string) string {
	return "double " + name + "(double x)\n" +
		"{\n" +
		"    return 1.0/" + of + "(x);\n" +
		"}\n"
}

func inverseReciprocal(name, of string) string {
	return "double " + name + "(double x)\n" +
		"{\n" +
		"    return " + of + "(1.0/x);\n" +
		"}\n"
}

func oneOverX(name, expr string) string {
	return "double " + name + "(double x)\n" +
		"{\n" +
		"    double oneOverX = 1.0/x;\n" +
		"\n" +
		"    return " + expr + ";\n" +
		"}\n"
}
