package generator_test

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/cellgen/internal/testutil"
	"github.com/leapstack-labs/cellgen/pkg/analyser"
	"github.com/leapstack-labs/cellgen/pkg/core"
	"github.com/leapstack-labs/cellgen/pkg/generator"
	"github.com/leapstack-labs/cellgen/pkg/model"
	"github.com/leapstack-labs/cellgen/pkg/parser"
	"github.com/leapstack-labs/cellgen/pkg/profiles/c"
	"github.com/leapstack-labs/cellgen/pkg/profiles/python"
	"github.com/leapstack-labs/cellgen/pkg/tracking"
)

type variable struct {
	name, units, init string
}

func component(t *testing.T, m *model.Model, name string, vars []variable, equations ...string) *model.Component {
	t.Helper()
	comp := m.AddComponent(model.NewComponent(name))
	for _, v := range vars {
		units := v.units
		if units == "" {
			units = "dimensionless"
		}
		comp.AddVariable(v.name, units, v.init)
	}
	for _, src := range equations {
		eq, err := parser.ParseEquation(src)
		require.NoError(t, err, src)
		comp.AddEquation(eq)
	}
	return comp
}

func analyse(t *testing.T, m *model.Model, opts ...analyser.Option) *analyser.Model {
	t.Helper()
	opts = append([]analyser.Option{analyser.WithLogger(testutil.NewTestLogger(t))}, opts...)
	am := analyser.Analyse(context.Background(), m, opts...)
	require.True(t, am.IsValid(), am.Issues())
	return am
}

func generate(t *testing.T, am *analyser.Model, opts ...generator.Option) *generator.Result {
	t.Helper()
	opts = append([]generator.Option{generator.WithLogger(testutil.NewTestLogger(t))}, opts...)
	res, err := generator.Generate(am, c.C, opts...)
	require.NoError(t, err)
	return res
}

func twoStateModel(t *testing.T) *model.Model {
	t.Helper()
	m := model.New("two_states")
	component(t, m, "main",
		[]variable{{name: "t"}, {name: "x", init: "1"}, {name: "y", init: "2"}, {name: "a"}},
		"diff(x, t) = -a",
		"diff(y, t) = a",
		"a = x+y",
	)
	return m
}

// routine returns the body of the routine whose signature starts with
// prefix, or fails.
func routine(t *testing.T, code, prefix string) string {
	t.Helper()
	start := strings.Index(code, prefix)
	require.GreaterOrEqual(t, start, 0, "no %q in\n%s", prefix, code)
	rest := code[start:]
	end := strings.Index(rest, "\n}\n")
	require.GreaterOrEqual(t, end, 0)
	return rest[:end+3]
}

func TestGenerate_TwoStates(t *testing.T) {
	res := generate(t, analyse(t, twoStateModel(t)))

	assert.Equal(t, "c", res.Profile)
	assert.Equal(t, "model.h", res.InterfaceFileName)
	assert.Equal(t, "model.c", res.ImplementationFileName)
	assert.Empty(t, res.Issues)

	want := "void computeRates(double voi, double *states, double *rates, double *variables)\n" +
		"{\n" +
		"    variables[0] = states[0]+states[1];\n" +
		"    rates[0] = -variables[0];\n" +
		"    rates[1] = variables[0];\n" +
		"}\n"
	if diff := cmp.Diff(want, routine(t, res.Implementation, "void computeRates(")); diff != "" {
		t.Errorf("computeRates mismatch (-want +got):\n%s", diff)
	}

	want = "void computeVariables(double voi, double *states, double *rates, double *variables)\n" +
		"{\n" +
		"    variables[0] = states[0]+states[1];\n" +
		"}\n"
	if diff := cmp.Diff(want, routine(t, res.Implementation, "void computeVariables(")); diff != "" {
		t.Errorf("computeVariables mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, "void initialiseVariables(double *states, double *variables)\n"+
		"{\n"+
		"    states[0] = 1.0;\n"+
		"    states[1] = 2.0;\n"+
		"}\n", routine(t, res.Implementation, "void initialiseVariables("))
	assert.Equal(t, "void computeComputedConstants(double *variables)\n{\n}\n",
		routine(t, res.Implementation, "void computeComputedConstants("))

	impl := res.Implementation
	assert.True(t, strings.HasPrefix(impl,
		"/* The content of this file was generated using the c profile of cellgen "+generator.Version+". */\n"))
	assert.Contains(t, impl, "#include \"model.h\"\n")
	assert.Contains(t, impl, "const size_t STATE_COUNT = 2;\n")
	assert.Contains(t, impl, "const size_t VARIABLE_COUNT = 1;\n")
	assert.NotContains(t, impl, "EXTERNAL_COUNT")
	assert.Contains(t, impl, "const VariableInfo VOI_INFO = {\"t\", \"dimensionless\", \"main\"};\n")
	assert.Contains(t, impl, "const VariableInfo STATE_INFO[] = {\n"+
		"    {\"x\", \"dimensionless\", \"main\"},\n"+
		"    {\"y\", \"dimensionless\", \"main\"},\n"+
		"};\n")
	assert.Contains(t, impl, "double * createStatesArray()\n")
	assert.NotContains(t, impl, "nlaSolve")

	iface := res.Interface
	assert.Contains(t, iface, "#pragma once\n")
	assert.Contains(t, iface, "extern const size_t STATE_COUNT;\n")
	assert.Contains(t, iface, "    char name[2];\n")
	assert.Contains(t, iface, "    char units[14];\n")
	assert.Contains(t, iface, "void computeRates(double voi, double *states, double *rates, double *variables);\n")
	assert.NotContains(t, iface, "ExternalVariable")
}

func TestGenerate_Python(t *testing.T) {
	res, err := generator.Generate(analyse(t, twoStateModel(t)), python.Python)
	require.NoError(t, err)

	assert.Empty(t, res.Interface)
	assert.Empty(t, res.InterfaceFileName)
	assert.Equal(t, "model.py", res.ImplementationFileName)

	impl := res.Implementation
	assert.Contains(t, impl, "from math import *\n")
	assert.Contains(t, impl, "STATE_COUNT = 2\n")
	assert.Contains(t, impl, "def compute_rates(voi, states, rates, variables):\n"+
		"    variables[0] = states[0]+states[1]\n"+
		"    rates[0] = -variables[0]\n"+
		"    rates[1] = variables[0]\n")
	assert.Contains(t, impl, "def compute_computed_constants(variables):\n    pass\n")
	assert.Contains(t, impl, "def create_states_array():\n    return [nan]*STATE_COUNT\n")
	assert.NotContains(t, impl, ";")
}

func TestGenerate_Constants(t *testing.T) {
	m := model.New("constants")
	component(t, m, "main",
		[]variable{{name: "a"}, {name: "b"}, {name: "k", init: "3"}},
		"a = 1",
		"b = a+k",
	)
	am := analyse(t, m)

	t.Run("tracked", func(t *testing.T) {
		res := generate(t, am)

		assert.Equal(t, "void initialiseVariables(double *variables)\n"+
			"{\n"+
			"    variables[2] = 3.0;\n"+
			"    variables[0] = 1.0;\n"+
			"}\n", routine(t, res.Implementation, "void initialiseVariables("))
		assert.Equal(t, "void computeComputedConstants(double *variables)\n"+
			"{\n"+
			"    variables[1] = variables[0]+variables[2];\n"+
			"}\n", routine(t, res.Implementation, "void computeComputedConstants("))
		assert.Contains(t, res.Implementation, "void computeVariables(double *variables)\n{\n}\n")
		assert.NotContains(t, res.Implementation, "STATE_COUNT")
		assert.NotContains(t, res.Implementation, "VOI_INFO")
	})

	t.Run("untracked constant", func(t *testing.T) {
		tr := tracking.New()
		tr.UntrackAllConstants(am)
		require.Empty(t, tr.Issues())

		res := generate(t, am, generator.WithTracker(tr))

		assert.Contains(t, res.Implementation, "const size_t VARIABLE_COUNT = 2;\n")
		assert.Equal(t, "void initialiseVariables(double *variables)\n"+
			"{\n"+
			"    variables[0] = 1.0;\n"+
			"}\n", routine(t, res.Implementation, "void initialiseVariables("))
		assert.Equal(t, "void computeComputedConstants(double *variables)\n"+
			"{\n"+
			"    double k = 3.0;\n"+
			"    variables[1] = variables[0]+k;\n"+
			"}\n", routine(t, res.Implementation, "void computeComputedConstants("))
		assert.NotContains(t, res.Implementation, "{\"k\"")
	})

	t.Run("untracked computed constant", func(t *testing.T) {
		tr := tracking.New()
		tr.UntrackAllComputedConstants(am)
		require.Empty(t, tr.Issues())

		res := generate(t, am, generator.WithTracker(tr))

		assert.Contains(t, res.Implementation, "const size_t VARIABLE_COUNT = 1;\n")
		assert.Equal(t, "void initialiseVariables(double *variables)\n"+
			"{\n"+
			"    variables[0] = 3.0;\n"+
			"}\n", routine(t, res.Implementation, "void initialiseVariables("))
		assert.Equal(t, "void computeComputedConstants(double *variables)\n{\n}\n",
			routine(t, res.Implementation, "void computeComputedConstants("))
	})
}

func TestGenerate_UntrackedAlgebraic(t *testing.T) {
	m := model.New("untracked")
	component(t, m, "main",
		[]variable{{name: "t"}, {name: "x", init: "1"}, {name: "a"}, {name: "b"}},
		"diff(x, t) = -a",
		"a = 2*x",
		"b = a+1",
	)
	am := analyse(t, m)

	a, _ := m.Variable("main", "a")
	tr := tracking.New()
	tr.UntrackVariable(am, am.VariableOf(a))
	require.Empty(t, tr.Issues())

	res := generate(t, am, generator.WithTracker(tr))

	rates := routine(t, res.Implementation, "void computeRates(")
	assert.Contains(t, rates, "    double a = 2.0*states[0];\n    rates[0] = -a;\n")

	variables := routine(t, res.Implementation, "void computeVariables(")
	assert.Contains(t, variables, "    double a = 2.0*states[0];\n    variables[0] = a+1.0;\n")
	assert.Contains(t, res.Implementation, "const size_t VARIABLE_COUNT = 1;\n")
}

func TestGenerate_Nla(t *testing.T) {
	m := model.New("nla")
	component(t, m, "main",
		[]variable{{name: "x", init: "0"}, {name: "y", init: "0"}},
		"x+y = 3",
		"x-y = 1",
	)
	am := analyse(t, m)

	res := generate(t, am)
	impl := res.Implementation

	assert.Contains(t, impl, "extern void nlaSolve(")
	assert.Contains(t, impl, "typedef struct {\n    double *variables;\n    double *externals;\n} RootFindingInfo;\n")

	objective := routine(t, impl, "void objectiveFunction0(")
	assert.Regexp(t, `    f\[0\] = variables\[[01]\]\+variables\[[01]\]-3\.0;\n`, objective)
	assert.Regexp(t, `    f\[1\] = variables\[[01]\]-variables\[[01]\]-1\.0;\n`, objective)
	assert.Contains(t, objective, "variables[0] = u[")
	assert.Contains(t, objective, "variables[1] = u[")

	findRoot := routine(t, impl, "void findRoot0(")
	assert.Contains(t, findRoot, "    double u[2];\n")
	assert.Contains(t, findRoot, "    nlaSolve(objectiveFunction0, u, 2, &rfi);\n")

	assert.Contains(t, routine(t, impl, "void computeVariables("), "    findRoot0(variables, NULL);\n")
	initialise := routine(t, impl, "void initialiseVariables(")
	assert.Contains(t, initialise, "    variables[0] = 0.0;\n")
	assert.Contains(t, initialise, "    variables[1] = 0.0;\n")

	py, err := generator.Generate(am, python.Python)
	require.NoError(t, err)
	assert.Contains(t, py.Implementation, "    u = nla_solve(objective_function_0, u, 2, [variables, externals])\n")
	assert.Contains(t, py.Implementation, "    find_root_0(variables, None)\n")
}

func TestGenerate_UninitialisedNla(t *testing.T) {
	m := model.New("nla")
	component(t, m, "main",
		[]variable{{name: "k", init: "3"}, {name: "kc"}, {name: "u"}, {name: "w"}},
		"kc = 2*k",
		"u+w = kc",
		"u-w = 1",
	)
	am := analyse(t, m)
	require.Equal(t, analyser.ModelNLA, am.Type)

	impl := generate(t, am).Implementation
	initialise := routine(t, impl, "void initialiseVariables(")
	assert.Equal(t, 2, strings.Count(initialise, " = 0.0;\n"), initialise)
	assert.Contains(t, initialise, " = 3.0;\n")

	assert.Contains(t, routine(t, impl, "void findRoot0("), "    nlaSolve(objectiveFunction0, u, 2, &rfi);\n")
	assert.Contains(t, routine(t, impl, "void computeVariables("), "    findRoot0(variables, NULL);\n")
}

func TestGenerate_Externals(t *testing.T) {
	m := model.New("externals")
	component(t, m, "main", []variable{{name: "a"}, {name: "b"}}, "a = b+1")
	b, err := m.Variable("main", "b")
	require.NoError(t, err)
	am := analyse(t, m, analyser.WithExternals(analyser.External{Variable: b}))

	res := generate(t, am, generator.WithInterfaceFileName("cell.h"))

	assert.Equal(t, "cell.h", res.InterfaceFileName)
	assert.Contains(t, res.Implementation, "#include \"cell.h\"\n")
	assert.Contains(t, res.Implementation, "const size_t EXTERNAL_COUNT = 1;\n")
	assert.Contains(t, res.Implementation, "double * createExternalsArray()\n")
	assert.Contains(t, res.Interface,
		"typedef double (* ExternalVariable)(double *variables, double *externals, size_t index);\n")

	want := "void computeVariables(double *variables, double *externals, ExternalVariable externalVariable)\n" +
		"{\n" +
		"    externals[0] = externalVariable(variables, externals, 0);\n" +
		"    variables[0] = externals[0]+1.0;\n" +
		"}\n"
	if diff := cmp.Diff(want, routine(t, res.Implementation, "void computeVariables(")); diff != "" {
		t.Errorf("computeVariables mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerate_Helpers(t *testing.T) {
	m := model.New("needs")
	component(t, m, "main",
		[]variable{{name: "x", init: "1"}, {name: "y"}, {name: "z"}},
		"y = sec(x)",
		"z = piecewise(1, x > 0 && !(x > 2), 0)",
	)
	am := analyse(t, m)

	res := generate(t, am)
	assert.Contains(t, res.Implementation, "double sec(double x)\n")
	assert.NotContains(t, res.Implementation, "double csc(double x)")
	assert.NotContains(t, res.Implementation, "double xor(")

	py, err := generator.Generate(am, python.Python)
	require.NoError(t, err)
	for _, def := range []string{"def sec(x):", "def gt_func(x, y):", "def and_func(x, y):", "def not_func(x):"} {
		assert.Contains(t, py.Implementation, def)
	}
	assert.NotContains(t, py.Implementation, "def or_func(")
	assert.Contains(t, py.Implementation, "1.0 if and_func(gt_func(")
}

func TestGenerate_ScaledInitialValue(t *testing.T) {
	m := model.New("scaled")
	m.AddUnits(&model.Units{Name: "millivolt", Items: []model.Unit{{Reference: "volt", Prefix: "milli"}}})
	inner := component(t, m, "inner",
		[]variable{{name: "v", units: "millivolt"}, {name: "w", units: "millivolt"}},
		"w = v")
	outer := component(t, m, "outer", []variable{{name: "v", units: "volt", init: "1"}})
	require.NoError(t, model.Connect(outer.Variables[0], inner.Variables[0]))
	am := analyse(t, m)

	res := generate(t, am)
	initialise := routine(t, res.Implementation, "void initialiseVariables(")

	var value string
	for _, line := range strings.Split(initialise, "\n") {
		if _, rhs, ok := strings.Cut(line, " = "); ok {
			value = strings.TrimSuffix(rhs, ";")
		}
	}
	require.NotEmpty(t, value, initialise)
	f, err := strconv.ParseFloat(value, 64)
	require.NoError(t, err)
	assert.InDelta(t, 1000, f, 1e-9)
}

func TestGenerate_Errors(t *testing.T) {
	t.Run("nil model", func(t *testing.T) {
		res, err := generator.Generate(nil, c.C)
		require.ErrorIs(t, err, generator.ErrInvalidModel)
		require.Len(t, res.Issues, 1)
		assert.Equal(t, core.CodeGeneratorNullModel, res.Issues[0].Code)
	})

	t.Run("invalid model", func(t *testing.T) {
		m := model.New("under")
		component(t, m, "main", []variable{{name: "a"}, {name: "b"}}, "a = b+1")
		am := analyser.Analyse(context.Background(), m)
		require.False(t, am.IsValid())

		res, err := generator.Generate(am, c.C)
		require.Error(t, err)
		assert.True(t, errors.Is(err, generator.ErrInvalidModel))
		assert.NotEmpty(t, res.Issues)
		assert.Empty(t, res.Implementation)
	})

	t.Run("nil profile", func(t *testing.T) {
		_, err := generator.Generate(analyse(t, twoStateModel(t)), nil)
		assert.ErrorIs(t, err, generator.ErrNilProfile)
	})
}
