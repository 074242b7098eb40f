package tracking_test

import (
	"context"
	goparser "go/parser"
	"go/token"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/cellgen/internal/testutil"
	"github.com/leapstack-labs/cellgen/pkg/analyser"
	"github.com/leapstack-labs/cellgen/pkg/core"
	"github.com/leapstack-labs/cellgen/pkg/model"
	"github.com/leapstack-labs/cellgen/pkg/parser"
	"github.com/leapstack-labs/cellgen/pkg/tracking"
)

// fixture is a model with every kind of variable:
//
//	t voi, x state, k and d constants, kc and g computed constants,
//	a algebraic, u and w NLA unknowns, e external depending on g.
type fixture struct {
	m  *analyser.Model
	vs map[string]*analyser.Variable
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	doc := model.New("tracking")
	c := doc.AddComponent(model.NewComponent("main"))
	for _, v := range []struct{ name, init string }{
		{"t", ""}, {"x", "1"}, {"k", "3"}, {"d", "5"}, {"kc", ""},
		{"g", ""}, {"a", ""}, {"u", ""}, {"w", ""}, {"e", ""},
	} {
		c.AddVariable(v.name, "dimensionless", v.init)
	}
	for _, src := range []string{
		"diff(x, t) = -a+e",
		"a = k*x",
		"kc = 2*k",
		"u+w = kc",
		"u-w = 1",
		"g = d*2",
	} {
		c.AddEquation(parser.MustParse(src))
	}
	e, _ := c.Variable("e")
	g, _ := c.Variable("g")

	am := analyser.Analyse(context.Background(), doc,
		analyser.WithLogger(testutil.NewTestLogger(t)),
		analyser.WithExternals(analyser.External{Variable: e, Dependencies: []*model.Variable{g}}),
	)
	require.True(t, am.IsValid(), am.Issues())

	vs := map[string]*analyser.Variable{}
	for _, v := range c.Variables {
		vs[v.Name] = am.VariableOf(v)
		require.NotNil(t, vs[v.Name], v.Name)
	}
	return fixture{m: am, vs: vs}
}

func TestTracker_DefaultsToTracked(t *testing.T) {
	f := newFixture(t)
	tr := tracking.New()

	for name, v := range f.vs {
		assert.True(t, tr.IsTracked(f.m, v), name)
		assert.False(t, tr.IsUntracked(f.m, v), name)
	}
	assert.Equal(t, 7, tr.TrackedVariableCount(f.m))
	assert.Equal(t, 0, tr.UntrackedVariableCount(f.m))
	assert.Equal(t, 2, tr.TrackedConstantCount(f.m))
	assert.Equal(t, 2, tr.TrackedComputedConstantCount(f.m))
	assert.Equal(t, 3, tr.TrackedAlgebraicCount(f.m))
}

func TestTracker_UntrackAndTrack(t *testing.T) {
	f := newFixture(t)
	tr := tracking.New()

	tr.UntrackVariable(f.m, f.vs["k"])
	assert.Empty(t, tr.Issues())
	assert.False(t, tr.IsTracked(f.m, f.vs["k"]))
	assert.Equal(t, 1, tr.UntrackedConstantCount(f.m))
	assert.Equal(t, 1, tr.TrackedConstantCount(f.m))
	assert.Equal(t, 6, tr.TrackedVariableCount(f.m))

	tr.TrackVariable(f.m, f.vs["k"])
	assert.Empty(t, tr.Issues())
	assert.True(t, tr.IsTracked(f.m, f.vs["k"]))
	assert.Equal(t, 7, tr.TrackedVariableCount(f.m))
}

func TestTracker_Rejections(t *testing.T) {
	tests := []struct {
		variable string
		code     core.ReferenceCode
		reason   string
	}{
		{"t", core.CodeGeneratorTrackingVoi, "the variable of integration"},
		{"x", core.CodeGeneratorTrackingState, "a state variable"},
		{"e", core.CodeGeneratorTrackingExternal, "an external variable"},
		{"u", core.CodeGeneratorTrackingNla, "computed using an NLA system"},
		{"w", core.CodeGeneratorTrackingNla, "computed using an NLA system"},
		{"g", core.CodeGeneratorTrackingNeededByExternal, "needed to compute an external variable"},
		{"d", core.CodeGeneratorTrackingNeededByExternal, "needed to compute an external variable"},
	}

	for _, tt := range tests {
		t.Run(tt.variable, func(t *testing.T) {
			f := newFixture(t)
			tr := tracking.New()
			v := f.vs[tt.variable]

			tr.UntrackVariable(f.m, v)
			issues := tr.Issues()
			require.Len(t, issues, 1)
			assert.Equal(t, core.SeverityError, issues[0].Severity)
			assert.Equal(t, tt.code, issues[0].Code)
			assert.Equal(t, "Variable '"+tt.variable+"' in component 'main' is "+tt.reason+" and cannot therefore be untracked.",
				issues[0].Description)
			assert.True(t, tr.IsTracked(f.m, v))
			assert.Equal(t, 7, tr.TrackedVariableCount(f.m))
			assert.Equal(t, 0, tr.UntrackedVariableCount(f.m))

			tr.TrackVariable(f.m, v)
			issues = tr.Issues()
			require.Len(t, issues, 1)
			assert.Equal(t, core.SeverityMessage, issues[0].Severity)
			assert.Equal(t, tt.code, issues[0].Code)
			assert.Contains(t, issues[0].Description, "is therefore always tracked.")
		})
	}
}

func TestTracker_StructuralIssues(t *testing.T) {
	f := newFixture(t)
	other := newFixture(t)
	tr := tracking.New()

	tr.UntrackVariable(f.m, nil)
	require.Len(t, tr.Issues(), 1)
	assert.Equal(t, core.CodeGeneratorNullVariable, tr.Issues()[0].Code)
	assert.Equal(t, "The variable is null.", tr.Issues()[0].Description)

	tr.UntrackVariable(nil, f.vs["k"])
	require.Len(t, tr.Issues(), 1)
	assert.Equal(t, core.CodeGeneratorNullModel, tr.Issues()[0].Code)

	tr.UntrackAllConstants(nil)
	require.Len(t, tr.Issues(), 1)
	assert.Equal(t, "The model is null.", tr.Issues()[0].Description)
	assert.Equal(t, 0, tr.TrackedVariableCount(nil))

	tr.UntrackVariable(f.m, other.vs["k"])
	require.Len(t, tr.Issues(), 1)
	assert.Equal(t, core.CodeGeneratorTrackingVariableNotInModel, tr.Issues()[0].Code)
	assert.True(t, tr.IsTracked(f.m, other.vs["k"]))
}

func TestTracker_UntrackAll(t *testing.T) {
	f := newFixture(t)
	tr := tracking.New()

	tr.UntrackAllVariables(f.m)

	// d, g, u and w cannot be untracked
	assert.Len(t, tr.Issues(), 4)
	assert.Equal(t, 3, tr.UntrackedVariableCount(f.m))
	assert.Equal(t, 4, tr.TrackedVariableCount(f.m))
	for _, name := range []string{"k", "kc", "a"} {
		assert.False(t, tr.IsTracked(f.m, f.vs[name]), name)
	}

	tr.TrackAllComputedConstants(f.m)
	assert.Len(t, tr.Issues(), 1, "only g is rejected")
	assert.True(t, tr.IsTracked(f.m, f.vs["kc"]))
	assert.Equal(t, 2, tr.UntrackedVariableCount(f.m))

	tr.UntrackAllAlgebraic(f.m)
	assert.Len(t, tr.Issues(), 2)
	tr.TrackAllAlgebraic(f.m)
	assert.True(t, tr.IsTracked(f.m, f.vs["a"]))

	tr.TrackAllConstants(f.m)
	assert.Equal(t, 0, tr.UntrackedVariableCount(f.m))
}

func TestTracker_Forget(t *testing.T) {
	f := newFixture(t)
	tr := tracking.New()

	tr.UntrackVariable(f.m, f.vs["k"])
	require.False(t, tr.IsTracked(f.m, f.vs["k"]))

	tr.Forget(f.m)
	assert.True(t, tr.IsTracked(f.m, f.vs["k"]))

	tr.TrackAllConstants(f.m)
	assert.Equal(t, 0, tr.UntrackedConstantCount(f.m))

	tr.UntrackVariable(f.m, f.vs["k"])
	assert.False(t, tr.IsTracked(f.m, f.vs["k"]))
}

func TestTracker_DropsUnreachableModels(t *testing.T) {
	tr := tracking.New()
	func() {
		f := newFixture(t)
		tr.UntrackVariable(f.m, f.vs["k"])
		require.Equal(t, 1, tr.Len())
	}()

	kept := newFixture(t)
	assert.Eventually(t, func() bool {
		runtime.GC()
		tr.UntrackVariable(kept.m, kept.vs["k"])
		return tr.Len() == 1
	}, 5*time.Second, 10*time.Millisecond)
	assert.False(t, tr.IsTracked(kept.m, kept.vs["k"]))
}

func TestTracker_ImportsNoInternalPackages(t *testing.T) {
	files, err := filepath.Glob("*.go")
	require.NoError(t, err)

	fset := token.NewFileSet()
	for _, name := range files {
		if strings.HasSuffix(name, "_test.go") {
			continue
		}
		src, err := os.ReadFile(name)
		require.NoError(t, err)
		f, err := goparser.ParseFile(fset, name, src, goparser.ImportsOnly)
		require.NoError(t, err)
		for _, imp := range f.Imports {
			assert.NotContains(t, imp.Path.Value, "/internal/", name)
		}
	}
}

func TestTracker_Overlay(t *testing.T) {
	var overlay tracking.Overlay = tracking.New()
	f := newFixture(t)
	assert.True(t, overlay.IsTracked(f.m, f.vs["a"]))
	assert.False(t, overlay.IsTracked(nil, f.vs["a"]))
}
