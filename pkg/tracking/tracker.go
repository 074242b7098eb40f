// Package tracking decides which analysed variables generated code keeps in
// its arrays. Every variable is tracked by default. An untracked variable is
// emitted as a local temporary in each routine that needs it.
//
// Only constants, computed constants and algebraic variables can be
// untracked, and only when no NLA system computes them and no external
// variable needs them. Rejected requests leave the tracking state unchanged
// and record one issue naming the reason.
package tracking

import (
	"fmt"
	"slices"
	"sync"
	"weak"

	"github.com/leapstack-labs/cellgen/pkg/analyser"
	"github.com/leapstack-labs/cellgen/pkg/core"
)

// Overlay reports whether a variable keeps its array slot in generated code.
type Overlay interface {
	IsTracked(m *analyser.Model, v *analyser.Variable) bool
}

// modelKey identifies a model without keeping it reachable. Entries of a
// model the garbage collector reclaimed are dropped by the next sweep.
type modelKey = weak.Pointer[analyser.Model]

// Tracker records tracking flags per analysed model. It is safe for
// concurrent use.
type Tracker struct {
	mu      sync.RWMutex
	tracked map[modelKey]map[int]bool
	// needed caches, per model, the arena ids of variables that external
	// equations depend on
	needed    map[modelKey]map[int]bool
	forgotten map[modelKey]bool
	issues    core.Issues
}

// New creates a Tracker.
func New() *Tracker {
	return &Tracker{
		tracked:   make(map[modelKey]map[int]bool),
		needed:    make(map[modelKey]map[int]bool),
		forgotten: make(map[modelKey]bool),
	}
}

var _ Overlay = (*Tracker)(nil)

// Issues returns the issues of the last request.
func (t *Tracker) Issues() core.Issues {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.issues)
}

// Forget drops every entry of m. Later requests about m are ignored until it
// is tracked again.
func (t *Tracker) Forget(m *analyser.Model) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.forgotten[weak.Make(m)] = true
}

// Len returns the number of models with tracking entries.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.tracked)
}

// IsTracked reports whether v is tracked. Variables that cannot be untracked
// are always tracked.
func (t *Tracker) IsTracked(m *analyser.Model, v *analyser.Variable) bool {
	if m == nil || v == nil {
		return false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	key := weak.Make(m)
	flags, ok := t.tracked[key]
	if !ok || t.forgotten[key] {
		return true
	}
	tracked, ok := flags[v.ID()]
	return !ok || tracked
}

// IsUntracked reports whether v is untracked.
func (t *Tracker) IsUntracked(m *analyser.Model, v *analyser.Variable) bool {
	if m == nil || v == nil {
		return false
	}
	return !t.IsTracked(m, v)
}

// TrackVariable tracks v.
func (t *Tracker) TrackVariable(m *analyser.Model, v *analyser.Variable) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.issues = nil
	t.cleanupExpiredEntries()
	t.track(m, v, true)
}

// UntrackVariable untracks v.
func (t *Tracker) UntrackVariable(m *analyser.Model, v *analyser.Variable) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.issues = nil
	t.cleanupExpiredEntries()
	t.track(m, v, false)
}

// TrackAllConstants tracks every constant of m.
func (t *Tracker) TrackAllConstants(m *analyser.Model) { t.trackAll(m, constants, true) }

// UntrackAllConstants untracks every constant of m.
func (t *Tracker) UntrackAllConstants(m *analyser.Model) { t.trackAll(m, constants, false) }

// TrackAllComputedConstants tracks every computed constant of m.
func (t *Tracker) TrackAllComputedConstants(m *analyser.Model) {
	t.trackAll(m, computedConstants, true)
}

// UntrackAllComputedConstants untracks every computed constant of m.
func (t *Tracker) UntrackAllComputedConstants(m *analyser.Model) {
	t.trackAll(m, computedConstants, false)
}

// TrackAllAlgebraic tracks every algebraic variable of m.
func (t *Tracker) TrackAllAlgebraic(m *analyser.Model) { t.trackAll(m, algebraic, true) }

// UntrackAllAlgebraic untracks every algebraic variable of m.
func (t *Tracker) UntrackAllAlgebraic(m *analyser.Model) { t.trackAll(m, algebraic, false) }

// TrackAllVariables tracks every trackable variable of m.
func (t *Tracker) TrackAllVariables(m *analyser.Model) { t.trackAll(m, trackable, true) }

// UntrackAllVariables untracks every trackable variable of m.
func (t *Tracker) UntrackAllVariables(m *analyser.Model) { t.trackAll(m, trackable, false) }

// TrackedConstantCount returns the number of tracked constants of m.
func (t *Tracker) TrackedConstantCount(m *analyser.Model) int { return t.count(m, constants, true) }

// UntrackedConstantCount returns the number of untracked constants of m.
func (t *Tracker) UntrackedConstantCount(m *analyser.Model) int {
	return t.count(m, constants, false)
}

// TrackedComputedConstantCount returns the number of tracked computed constants of m.
func (t *Tracker) TrackedComputedConstantCount(m *analyser.Model) int {
	return t.count(m, computedConstants, true)
}

// UntrackedComputedConstantCount returns the number of untracked computed constants of m.
func (t *Tracker) UntrackedComputedConstantCount(m *analyser.Model) int {
	return t.count(m, computedConstants, false)
}

// TrackedAlgebraicCount returns the number of tracked algebraic variables of m.
func (t *Tracker) TrackedAlgebraicCount(m *analyser.Model) int { return t.count(m, algebraic, true) }

// UntrackedAlgebraicCount returns the number of untracked algebraic variables of m.
func (t *Tracker) UntrackedAlgebraicCount(m *analyser.Model) int {
	return t.count(m, algebraic, false)
}

// TrackedVariableCount returns the number of tracked trackable variables of m.
func (t *Tracker) TrackedVariableCount(m *analyser.Model) int { return t.count(m, trackable, true) }

// UntrackedVariableCount returns the number of untracked trackable variables of m.
func (t *Tracker) UntrackedVariableCount(m *analyser.Model) int {
	return t.count(m, trackable, false)
}

type selection func(m *analyser.Model) []*analyser.Variable

func constants(m *analyser.Model) []*analyser.Variable         { return m.Constants() }
func computedConstants(m *analyser.Model) []*analyser.Variable { return m.ComputedConstants() }
func algebraic(m *analyser.Model) []*analyser.Variable         { return m.Algebraic() }

func trackable(m *analyser.Model) []*analyser.Variable {
	return slices.Concat(m.Constants(), m.ComputedConstants(), m.Algebraic())
}

func (t *Tracker) trackAll(m *analyser.Model, sel selection, tracked bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.issues = nil
	if m == nil {
		t.addIssue(core.Issue{
			Severity:    core.SeverityError,
			Code:        core.CodeGeneratorNullModel,
			Description: "The model is null.",
			Item:        core.Item{Kind: core.ItemModel},
		})
		return
	}
	t.cleanupExpiredEntries()
	for _, v := range sel(m) {
		t.track(m, v, tracked)
	}
}

// count counts the variables of sel in the requested state. Variables that
// cannot be untracked count as tracked.
func (t *Tracker) count(m *analyser.Model, sel selection, tracked bool) int {
	if m == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, v := range sel(m) {
		if _, ok := t.untrackable(m, v); ok {
			if tracked {
				n++
			}
			continue
		}
		if t.flag(m, v) == tracked {
			n++
		}
	}
	return n
}

func (t *Tracker) flag(m *analyser.Model, v *analyser.Variable) bool {
	key := weak.Make(m)
	if t.forgotten[key] {
		return true
	}
	tracked, ok := t.tracked[key][v.ID()]
	return !ok || tracked
}

// track applies one request. The caller holds the lock.
func (t *Tracker) track(m *analyser.Model, v *analyser.Variable, tracked bool) {
	switch {
	case m == nil:
		t.addIssue(core.Issue{
			Severity:    core.SeverityError,
			Code:        core.CodeGeneratorNullModel,
			Description: "The model is null.",
			Item:        core.Item{Kind: core.ItemModel},
		})
		return
	case v == nil:
		t.addIssue(core.Issue{
			Severity:    core.SeverityError,
			Code:        core.CodeGeneratorNullVariable,
			Description: "The variable is null.",
			Item:        core.Item{Kind: core.ItemVariable},
		})
		return
	case m.Variable(v.ID()) != v:
		t.addIssue(core.Issue{
			Severity:    core.SeverityError,
			Code:        core.CodeGeneratorTrackingVariableNotInModel,
			Description: fmt.Sprintf("Variable '%s' in component '%s' does not belong to the model.", v.Variable.Name, componentName(v)),
			Item:        item(v),
		})
		return
	}

	if r, ok := t.untrackable(m, v); ok {
		t.addReasonIssue(v, r, tracked)
		return
	}

	key := weak.Make(m)
	if t.forgotten[key] {
		delete(t.forgotten, key)
		delete(t.tracked, key)
	}
	if t.tracked[key] == nil {
		t.tracked[key] = make(map[int]bool)
	}
	t.tracked[key][v.ID()] = tracked
}

// reason explains why a variable is always tracked.
type reason struct {
	what string
	code core.ReferenceCode
}

var (
	reasonVoi      = reason{"the variable of integration", core.CodeGeneratorTrackingVoi}
	reasonState    = reason{"a state variable", core.CodeGeneratorTrackingState}
	reasonExternal = reason{"an external variable", core.CodeGeneratorTrackingExternal}
	reasonNla      = reason{"computed using an NLA system", core.CodeGeneratorTrackingNla}
	reasonNeeded   = reason{"needed to compute an external variable", core.CodeGeneratorTrackingNeededByExternal}
)

func (t *Tracker) untrackable(m *analyser.Model, v *analyser.Variable) (reason, bool) {
	switch v.Type {
	case analyser.VariableVoi:
		return reasonVoi, true
	case analyser.VariableState:
		return reasonState, true
	case analyser.VariableExternal:
		return reasonExternal, true
	}
	for _, e := range m.EquationsOf(v) {
		if e.Type == analyser.EquationNLA {
			return reasonNla, true
		}
	}
	if t.neededByExternals(m)[v.ID()] {
		return reasonNeeded, true
	}
	return reason{}, false
}

// neededByExternals returns the variables read, directly or through other
// equations, by the equations of external variables.
func (t *Tracker) neededByExternals(m *analyser.Model) map[int]bool {
	key := weak.Make(m)
	if needed, ok := t.needed[key]; ok {
		return needed
	}

	needed := make(map[int]bool)
	visited := make(map[int]bool)
	var queue []*analyser.Equation
	for _, e := range m.Equations() {
		if e.Type == analyser.EquationExternal {
			visited[e.ID()] = true
			queue = append(queue, e)
		}
	}
	for len(queue) > 0 {
		e := queue[0]
		queue = queue[1:]
		for _, in := range m.Inputs(e) {
			switch in.Type {
			case analyser.VariableConstant, analyser.VariableComputedConstant, analyser.VariableAlgebraic:
				needed[in.ID()] = true
			}
		}
		for _, dep := range m.Dependencies(e) {
			if !visited[dep.ID()] {
				visited[dep.ID()] = true
				queue = append(queue, dep)
			}
		}
	}
	t.needed[key] = needed
	return needed
}

// cleanupExpiredEntries drops the entries of forgotten models and of models
// that are no longer reachable.
func (t *Tracker) cleanupExpiredEntries() {
	for key := range t.forgotten {
		delete(t.tracked, key)
		delete(t.needed, key)
		delete(t.forgotten, key)
	}
	for key := range t.tracked {
		if key.Value() == nil {
			delete(t.tracked, key)
		}
	}
	for key := range t.needed {
		if key.Value() == nil {
			delete(t.needed, key)
		}
	}
}

func (t *Tracker) addReasonIssue(v *analyser.Variable, r reason, tracked bool) {
	outcome, severity := "cannot therefore be untracked", core.SeverityError
	if tracked {
		outcome, severity = "is therefore always tracked", core.SeverityMessage
	}
	t.addIssue(core.Issue{
		Severity: severity,
		Code:     r.code,
		Description: fmt.Sprintf("Variable '%s' in component '%s' is %s and %s.",
			v.Variable.Name, componentName(v), r.what, outcome),
		Item: item(v),
	})
}

func (t *Tracker) addIssue(i core.Issue) {
	t.issues = append(t.issues, i)
}

func componentName(v *analyser.Variable) string {
	if c := v.Variable.Component(); c != nil {
		return c.Name
	}
	return ""
}

func item(v *analyser.Variable) core.Item {
	return core.Item{Kind: core.ItemVariable, Component: componentName(v), Name: v.Variable.Name, Ref: v}
}
