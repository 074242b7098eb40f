package generator

import (
	"github.com/leapstack-labs/cellgen/pkg/analyser"
)

// phase identifies a generated routine.
type phase int

const (
	phaseInitialise phase = iota
	phaseComputedConstants
	phaseRates
	phaseVariables
	phaseObjective
)

var phaseNames = [...]string{
	phaseInitialise:        "initialise_variables",
	phaseComputedConstants: "compute_computed_constants",
	phaseRates:             "compute_rates",
	phaseVariables:         "compute_variables",
	phaseObjective:         "objective_function",
}

func (p phase) String() string { return phaseNames[p] }

// step is one emitted statement group: an equation, a whole NLA system
// (represented by its first equation) or the local copy of an untracked
// constant.
type step struct {
	equation *analyser.Equation
	constant *analyser.Variable
	local    bool
}

// plan holds the emission order of every routine.
type plan struct {
	initialise        []step
	computedConstants []step
	rates             []step
	variables         []step
	// objectives holds the locals each NLA objective function needs, by
	// system index.
	objectives [][]step
}

// orderer computes a plan. Equations are emitted after the equations they
// depend on; what a routine can read without recomputing it depends on the
// routine.
type orderer struct {
	m       *analyser.Model
	tracked func(v *analyser.Variable) bool
	inRates map[int]bool
}

func newPlan(m *analyser.Model, tracked func(v *analyser.Variable) bool) *plan {
	o := &orderer{m: m, tracked: tracked, inRates: map[int]bool{}}
	p := &plan{}

	s := o.sequence(phaseInitialise)
	for _, e := range m.Equations() {
		if e.Type == analyser.EquationTrueConstant && !o.isLocal(e) {
			s.add(e)
		}
	}
	for _, v := range m.States() {
		s.needInitialiser(v)
	}
	p.initialise = s.steps

	s = o.sequence(phaseComputedConstants)
	for _, e := range m.Equations() {
		if e.Type == analyser.EquationVariableBasedConstant && !o.isLocal(e) {
			s.add(e)
		}
	}
	p.computedConstants = s.steps

	if m.Voi() != nil {
		s = o.sequence(phaseRates)
		for _, e := range m.Equations() {
			if e.Type == analyser.EquationODE {
				s.add(e)
			}
		}
		for _, st := range s.steps {
			if st.equation != nil && !st.local {
				o.inRates[st.equation.ID()] = true
				for _, sibling := range m.NlaSiblings(st.equation) {
					o.inRates[sibling.ID()] = true
				}
			}
		}
		p.rates = s.steps
	}

	s = o.sequence(phaseVariables)
	for _, e := range m.Equations() {
		switch e.Type {
		case analyser.EquationAlgebraic, analyser.EquationNLA, analyser.EquationExternal:
		default:
			continue
		}
		if o.isLocal(e) || (o.inRates[e.ID()] && !computedAgain(e)) {
			continue
		}
		s.add(e)
	}
	p.variables = s.steps

	for _, system := range m.NlaSystems() {
		s = o.sequence(phaseObjective)
		for _, e := range system {
			s.done[e.ID()] = true
		}
		for _, e := range system {
			for _, v := range m.Inputs(e) {
				s.need(v)
			}
		}
		p.objectives = append(p.objectives, s.steps)
	}
	return p
}

// computedAgain reports whether an equation already computed by computeRates
// must be computed again by computeVariables.
func computedAgain(e *analyser.Equation) bool {
	return e.Type == analyser.EquationExternal || e.StateRateBased
}

// isLocal reports whether e computes an untracked variable, which lives in a
// local temporary of each routine that needs it.
func (o *orderer) isLocal(e *analyser.Equation) bool {
	switch e.Type {
	case analyser.EquationTrueConstant, analyser.EquationVariableBasedConstant, analyser.EquationAlgebraic:
	default:
		return false
	}
	for _, v := range o.m.ComputedVariables(e) {
		if !o.tracked(v) {
			return true
		}
	}
	return false
}

type sequence struct {
	o         *orderer
	phase     phase
	done      map[int]bool
	constants map[int]bool
	steps     []step
}

func (o *orderer) sequence(ph phase) *sequence {
	return &sequence{o: o, phase: ph, done: map[int]bool{}, constants: map[int]bool{}}
}

// add appends e after whatever it reads that is not available yet. An NLA
// equation brings its whole system with it.
func (s *sequence) add(e *analyser.Equation) {
	if s.done[e.ID()] {
		return
	}
	system := append([]*analyser.Equation{e}, s.o.m.NlaSiblings(e)...)
	for _, member := range system {
		s.done[member.ID()] = true
	}
	for _, member := range system {
		for _, v := range s.o.m.Inputs(member) {
			s.need(v)
		}
	}
	s.steps = append(s.steps, step{equation: e, local: s.o.isLocal(e)})
}

// need makes the value of v readable by the routine.
func (s *sequence) need(v *analyser.Variable) {
	switch v.Type {
	case analyser.VariableVoi, analyser.VariableState:
		return
	case analyser.VariableConstant:
		if !s.o.tracked(v) && !s.constants[v.ID()] {
			s.constants[v.ID()] = true
			s.steps = append(s.steps, step{constant: v, local: true})
		}
		return
	}
	for _, e := range s.o.m.EquationsOf(v) {
		if !s.available(e) {
			s.add(e)
		}
	}
}

// needInitialiser makes the variable initialising state v readable.
func (s *sequence) needInitialiser(v *analyser.Variable) {
	if v.Initialising == nil {
		return
	}
	doc, ok := v.Initialising.InitialisingVariable()
	if !ok {
		return
	}
	if iv := s.o.m.VariableOf(doc); iv != nil {
		s.need(iv)
	}
}

// available reports whether the value computed by e can be read by the
// routine without computing it there.
func (s *sequence) available(e *analyser.Equation) bool {
	if s.o.isLocal(e) {
		return false
	}
	switch e.Type {
	case analyser.EquationODE:
		// states are inputs and rates are read after computeRates
		return true
	case analyser.EquationTrueConstant:
		return s.phase != phaseInitialise
	case analyser.EquationVariableBasedConstant:
		return s.phase > phaseComputedConstants
	}
	switch s.phase {
	case phaseVariables:
		return s.o.inRates[e.ID()] && !computedAgain(e)
	case phaseObjective:
		return true
	}
	return false
}
