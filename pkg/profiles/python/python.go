// Package python provides the Python code generation profile.
package python

import (
	"github.com/leapstack-labs/cellgen/pkg/profile"
)

func init() {
	profile.Register(Python)
}

// Python is the Python 3 profile. Relational and logical operators are
// helper functions returning 1.0 or 0.0 so that they compose with arithmetic.
var Python = &profile.Profile{
	Name:        "python",
	Description: "Python 3 module",

	Operators: profile.Operators{
		Eq:  profile.Operator{Text: "eq_func"},
		Neq: profile.Operator{Text: "neq_func"},
		Lt:  profile.Operator{Text: "lt_func"},
		Leq: profile.Operator{Text: "leq_func"},
		Gt:  profile.Operator{Text: "gt_func"},
		Geq: profile.Operator{Text: "geq_func"},
		And: profile.Operator{Text: "and_func"},
		Or:  profile.Operator{Text: "or_func"},
		Xor: profile.Operator{Text: "xor_func"},
		Not: profile.Operator{Text: "not_func"},

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
		ConditionalIf:   "[IF_STATEMENT] if [CONDITION]",
		ConditionalElse: " else [ELSE_STATEMENT]",
	},

	Constants: profile.Constants{
		True:  "1.0",
		False: "0.0",
		E:     "2.71828182845905",
		Pi:    "3.14159265358979",
		Inf:   "inf",
		NaN:   "nan",
	},

	Functions: map[string]string{
		"abs":     "fabs",
		"ln":      "log",
		"ceiling": "ceil",
	},

	Helpers: map[string]string{
		"eq":  binaryHelper("eq_func", "x == y"),
		"neq": binaryHelper("neq_func", "x != y"),
		"lt":  binaryHelper("lt_func", "x < y"),
		"leq": binaryHelper("leq_func", "x <= y"),
		"gt":  binaryHelper("gt_func", "x > y"),
		"geq": binaryHelper("geq_func", "x >= y"),
		"and": binaryHelper("and_func", "bool(x) & bool(y)"),
		"or":  binaryHelper("or_func", "bool(x) | bool(y)"),
		"xor": binaryHelper("xor_func", "bool(x) ^ bool(y)"),
		"not": "\n" +
			"def not_func(x):\n" +
			"    return 1.0 if not bool(x) else 0.0\n",
		"min": "\n" +
			"def min(x, y):\n" +
			"    return x if x < y else y\n",
		"max": "\n" +
			"def max(x, y):\n" +
			"    return x if x > y else y\n",
		"sec":   unaryHelper("sec", "1.0/cos(x)"),
		"csc":   unaryHelper("csc", "1.0/sin(x)"),
		"cot":   unaryHelper("cot", "1.0/tan(x)"),
		"sech":  unaryHelper("sech", "1.0/cosh(x)"),
		"csch":  unaryHelper("csch", "1.0/sinh(x)"),
		"coth":  unaryHelper("coth", "1.0/tanh(x)"),
		"asec":  unaryHelper("asec", "acos(1.0/x)"),
		"acsc":  unaryHelper("acsc", "asin(1.0/x)"),
		"acot":  unaryHelper("acot", "atan(1.0/x)"),
		"asech": oneOverX("asech", "log(one_over_x+sqrt(one_over_x*one_over_x-1.0))"),
		"acsch": oneOverX("acsch", "log(one_over_x+sqrt(one_over_x*one_over_x+1.0))"),
		"acoth": oneOverX("acoth", "0.5*log((1.0+one_over_x)/(1.0-one_over_x))"),
	},

	Templates: profile.Templates{
		Comment:       "# [CODE]\n",
		OriginComment: "The content of this file was generated using [PROFILE_INFORMATION] cellgen [VERSION].",

		ImplementationFileName: "model.py",
		Header: profile.Pair{
			Implementation: "from math import *\n",
		},

		Version:       profile.Pair{Implementation: "__version__ = \"[VERSION]\"\n"},
		StateCount:    profile.Pair{Implementation: "STATE_COUNT = [STATE_COUNT]\n"},
		VariableCount: profile.Pair{Implementation: "VARIABLE_COUNT = [VARIABLE_COUNT]\n"},
		ExternalCount: profile.Pair{Implementation: "EXTERNAL_COUNT = [EXTERNAL_COUNT]\n"},

		VariableInfoEntry: "{\"name\": \"[NAME]\", \"units\": \"[UNITS]\", \"component\": \"[COMPONENT]\"}",
		VoiInfo:           profile.Pair{Implementation: "VOI_INFO = [CODE]\n"},
		StateInfo:         profile.Pair{Implementation: "STATE_INFO = [\n[CODE]]\n"},
		VariableInfo:      profile.Pair{Implementation: "VARIABLE_INFO = [\n[CODE]]\n"},
		ExternalInfo:      profile.Pair{Implementation: "EXTERNAL_INFO = [\n[CODE]]\n"},

		ExternalVariableCallFam: "external_variable(variables, externals, [INDEX])",
		ExternalVariableCallFdm: "external_variable(voi, states, rates, variables, externals, [INDEX])",

		ExternNlaSolve:  "\nfrom nlasolver import nla_solve\n",
		FindRootCallFam: "find_root_[INDEX](variables, [EXTERNALS])\n",
		FindRootCallFdm: "find_root_[INDEX](voi, states, rates, variables, [EXTERNALS])\n",
		FindRootMethodFam: "\n" +
			"def find_root_[INDEX](variables, externals):\n" +
			"    u = [nan]*[SIZE]\n" +
			"\n" +
			"[CODE]",
		FindRootMethodFdm: "\n" +
			"def find_root_[INDEX](voi, states, rates, variables, externals):\n" +
			"    u = [nan]*[SIZE]\n" +
			"\n" +
			"[CODE]",
		NlaSolveCallFam: "u = nla_solve(objective_function_[INDEX], u, [SIZE], [variables, externals])\n",
		NlaSolveCallFdm: "u = nla_solve(objective_function_[INDEX], u, [SIZE], [voi, states, rates, variables, externals])\n",
		ObjectiveFunctionFam: "\n" +
			"def objective_function_[INDEX](u, f, data):\n" +
			"    variables = data[0]\n" +
			"    externals = data[1]\n" +
			"\n" +
			"[CODE]",
		ObjectiveFunctionFdm: "\n" +
			"def objective_function_[INDEX](u, f, data):\n" +
			"    voi = data[0]\n" +
			"    states = data[1]\n" +
			"    rates = data[2]\n" +
			"    variables = data[3]\n" +
			"    externals = data[4]\n" +
			"\n" +
			"[CODE]",

		CreateStatesArray:    createArray("states", "STATE_COUNT"),
		CreateVariablesArray: createArray("variables", "VARIABLE_COUNT"),
		CreateExternalsArray: createArray("externals", "EXTERNAL_COUNT"),

		InitialiseVariablesFam:   method("initialise_variables(variables)"),
		InitialiseVariablesFdm:   method("initialise_variables(states, variables)"),
		ComputeComputedConstants: method("compute_computed_constants(variables)"),
		ComputeRatesWoev:         method("compute_rates(voi, states, rates, variables)"),
		ComputeRatesWev:          method("compute_rates(voi, states, rates, variables, externals, external_variable)"),
		ComputeVariablesFamWoev:  method("compute_variables(variables)"),
		ComputeVariablesFamWev:   method("compute_variables(variables, externals, external_variable)"),
		ComputeVariablesFdmWoev:  method("compute_variables(voi, states, rates, variables)"),
		ComputeVariablesFdmWev:   method("compute_variables(voi, states, rates, variables, externals, external_variable)"),
		EmptyMethod:              "pass\n",
		LocalVariable:            "[NAME]",
	},

	Syntax: profile.Syntax{
		Indent:     "    ",
		OpenArray:  "[",
		CloseArray: "]",
		Null:       "None",
		Voi:        "voi",
		States:     "states",
		Rates:      "rates",
		Variables:  "variables",
		Externals:  "externals",
		U:          "u",
		F:          "f",
	},
}

func method(signature string) profile.Pair {
	return profile.Pair{Implementation: "\ndef " + signature + ":\n[CODE]"}
}

func createArray(name, count string) profile.Pair {
	return profile.Pair{Implementation: "\n" +
		"def create_" + name + "_array():\n" +
		"    return [nan]*" + count + "\n"}
}

func binaryHelper(name, cond string) string {
	return "\n" +
		"def " + name + "(x, y):\n" +
		"    return 1.0 if " + cond + " else 0.0\n"
}

func unaryHelper(name, expr string) string {
	return "\n" +
		"def " + name + "(x):\n" +
		"    return " + expr + "\n"
}

func oneOverX(name, expr string) string {
	return "\n" +
		"def " + name + "(x):\n" +
		"    one_over_x = 1.0/x\n" +
		"\n" +
		"    return " + expr + "\n"
}
