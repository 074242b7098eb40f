package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/cellgen/internal/loader"
	"github.com/leapstack-labs/cellgen/internal/store"
	"github.com/leapstack-labs/cellgen/internal/testutil"
	"github.com/leapstack-labs/cellgen/pkg/analyser"
	"github.com/leapstack-labs/cellgen/pkg/core"
	"github.com/leapstack-labs/cellgen/pkg/model"
	"github.com/leapstack-labs/cellgen/pkg/profile"
	"github.com/leapstack-labs/cellgen/pkg/profiles/c"
	"github.com/leapstack-labs/cellgen/pkg/profiles/python"
)

const twoStatesDoc = `
name: two_states
components:
  - name: main
    variables:
      - {name: t}
      - {name: x, initial: 1}
      - {name: y, initial: 2}
      - {name: a}
    equations:
      - diff(x, t) = -a
      - diff(y, t) = a
      - a = x+y
`

const decayDoc = `
name: decay
components:
  - name: main
    variables:
      - {name: t}
      - {name: x, initial: 1}
      - {name: k, initial: 3}
      - {name: a}
      - {name: e}
    equations:
      - diff(x, t) = -a+e
      - a = k*x
`

const nlaDoc = `
name: nla
components:
  - name: main
    variables:
      - {name: k, initial: 3}
      - {name: kc}
      - {name: u}
      - {name: w}
      - {name: g}
    equations:
      - kc = 2*k
      - u+w = kc
      - u-w = 1
      - g = 2*u
`

const overconstrainedDoc = `
name: broken
components:
  - name: main
    variables:
      - {name: a}
    equations:
      - a = 1
      - a = 2
`

func writeDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func load(t *testing.T, content string) *loader.Source {
	t.Helper()
	src, err := loader.Parse("doc.yaml", []byte(content), loader.FormatYAML)
	require.NoError(t, err)
	return src
}

type recorder struct {
	runs []*store.Run
	err  error
}

func (r *recorder) RecordRun(_ context.Context, run *store.Run) error {
	if r.err != nil {
		return r.err
	}
	r.runs = append(r.runs, run)
	return nil
}

func TestEngine_GenerateAll(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeDoc(t, dir, "two_states.yaml", twoStatesDoc),
		writeDoc(t, dir, "nla.yaml", nlaDoc),
		writeDoc(t, dir, "broken.yaml", overconstrainedDoc),
	}
	rec := &recorder{}
	e := New(Config{
		Profiles:    []*profile.Profile{c.C, python.Python},
		Concurrency: 2,
		Store:       rec,
		Logger:      testutil.NewTestLogger(t),
	})

	outputs, err := e.GenerateAll(context.Background(), paths)
	require.NoError(t, err)
	require.Len(t, outputs, 3)

	assert.Equal(t, "two_states", outputs[0].Source.Model.Name)
	assert.Equal(t, analyser.ModelODE, outputs[0].Model.Type)
	require.Len(t, outputs[0].Results, 2)
	assert.Equal(t, "c", outputs[0].Results[0].Profile)
	assert.Contains(t, outputs[0].Results[0].Implementation, "void computeRates(")
	assert.NotEmpty(t, outputs[0].Results[0].Interface)
	assert.Contains(t, outputs[0].Results[1].Implementation, "def compute_rates(")

	assert.Equal(t, analyser.ModelNLA, outputs[1].Model.Type)
	require.Len(t, outputs[1].Results, 2)

	assert.False(t, outputs[2].Model.IsValid())
	assert.Empty(t, outputs[2].Results)
	assert.True(t, outputs[2].Issues.HasErrors())

	require.Len(t, rec.runs, 3)
	assert.Equal(t, "two_states", rec.runs[0].Model)
	assert.Equal(t, paths[0], rec.runs[0].Path)
	assert.Equal(t, []string{"c", "python"}, rec.runs[0].Profiles)
	assert.Equal(t, 2, rec.runs[0].States)
	assert.Equal(t, 3, rec.runs[0].Equations)
	assert.Empty(t, rec.runs[2].Profiles)
	assert.Equal(t, outputs[2].Model.Type.String(), rec.runs[2].Type)
}

func TestEngine_GenerateAllLoadError(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeDoc(t, dir, "ok.yaml", twoStatesDoc),
		writeDoc(t, dir, "bad.yaml", "components: [{name: main, equations: ['a = (']}]\n"),
	}
	rec := &recorder{}
	e := New(Config{Profiles: []*profile.Profile{c.C}, Store: rec})

	_, err := e.GenerateAll(context.Background(), paths)
	require.Error(t, err)

	var lerr *loader.LoadError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, paths[1], lerr.Path)
	assert.Empty(t, rec.runs, "nothing is recorded when a document fails")
}

func TestEngine_RecordError(t *testing.T) {
	rec := &recorder{err: assert.AnError}
	e := New(Config{Store: rec})

	a, err := e.Analyse(context.Background(), load(t, twoStatesDoc))
	require.NoError(t, err)
	err = e.Record(context.Background(), a)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestEngine_Untrack(t *testing.T) {
	e := New(Config{
		Profiles:  []*profile.Profile{c.C},
		Externals: []string{"main.e"},
		Untrack:   []string{"main.k", "main.x"},
	})

	out, err := e.Generate(context.Background(), load(t, decayDoc))
	require.NoError(t, err)
	require.Len(t, out.Results, 1)

	k := out.Model.VariableOf(mustVariable(t, out.Source.Model, "main", "k"))
	require.NotNil(t, k)
	assert.False(t, out.Tracker.IsTracked(out.Model, k))

	stateIssues := out.Issues.WithCode(core.CodeGeneratorTrackingState)
	require.Len(t, stateIssues, 1)
	assert.Equal(t, core.SeverityError, stateIssues[0].Severity)

	assert.Contains(t, out.Results[0].Implementation, "double k = 3.0;")
	assert.Len(t, out.Model.Externals(), 1)
}

func TestEngine_UntrackSelectors(t *testing.T) {
	tests := []struct {
		selector  string
		untracked int
	}{
		{UntrackConstants, 2},
		{UntrackComputedConstants, 1},
		{UntrackAlgebraic, 1},
		{UntrackAll, 4},
	}
	for _, tt := range tests {
		t.Run(tt.selector, func(t *testing.T) {
			doc := `
components:
  - name: main
    variables:
      - {name: t}
      - {name: x, initial: 1}
      - {name: k, initial: 3}
      - {name: j, initial: 4}
      - {name: kc}
      - {name: a}
    equations:
      - diff(x, t) = -a
      - kc = k*j
      - a = kc*x
`
			e := New(Config{Untrack: []string{tt.selector}})
			a, err := e.Analyse(context.Background(), load(t, doc))
			require.NoError(t, err)
			require.True(t, a.Model.IsValid(), "issues: %v", a.Issues)
			assert.Equal(t, tt.untracked, a.Tracker.UntrackedVariableCount(a.Model))
		})
	}
}

func TestEngine_ConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"unknown untrack path", Config{Externals: []string{"main.e"}, Untrack: []string{"main.nope"}}},
		{"unknown external", Config{Externals: []string{"other.e"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg).Analyse(context.Background(), load(t, decayDoc))
			assert.ErrorIs(t, err, model.ErrNotFound)
		})
	}
}

func TestEngine_WithSQLiteStore(t *testing.T) {
	s := store.NewSQLiteStore(testutil.NewTestLogger(t))
	require.NoError(t, s.Open(filepath.Join(t.TempDir(), "history.db")))
	defer s.Close()
	require.NoError(t, s.Migrate())

	dir := t.TempDir()
	path := writeDoc(t, dir, "two_states.yaml", twoStatesDoc)
	e := New(Config{Profiles: []*profile.Profile{c.C}, Store: s})

	_, err := e.GenerateAll(context.Background(), []string{path})
	require.NoError(t, err)

	latest, err := s.LatestRun(context.Background(), path)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "ode", latest.Type)
	assert.Equal(t, []string{"c"}, latest.Profiles)
}

func mustVariable(t *testing.T, m *model.Model, component, name string) *model.Variable {
	t.Helper()
	v, err := m.Variable(component, name)
	require.NoError(t, err)
	return v
}
