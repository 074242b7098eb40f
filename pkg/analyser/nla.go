package analyser

import (
	"context"
	"slices"

	"github.com/leapstack-labs/cellgen/pkg/core"
)

// resolveNlaSystems peels external unknowns off NLA equations, drops the
// equations left without unknowns and groups the remaining NLA equations
// into systems. Two equations belong to the same system when they share an
// unknown, directly or through other equations of the system.
func (a *analyser) resolveNlaSystems(ctx context.Context) {
	var peeled []*internalVariable
	var added []*internalEquation

	kept := a.equations[:0:0]
	for _, e := range a.equations {
		if e.typ == eqNLA {
			for _, u := range e.unknowns {
				if u.external && !slices.Contains(peeled, u) {
					peeled = append(peeled, u)
					added = append(added, newDummyEquation(u))
				}
			}
			e.unknowns = slices.DeleteFunc(e.unknowns, func(u *internalVariable) bool { return u.external })
		}
		if len(e.unknowns) == 0 {
			continue
		}
		kept = append(kept, e)
	}
	a.equations = append(kept, added...)

	var nla []*internalEquation
	for _, e := range a.equations {
		if e.typ == eqNLA {
			nla = append(nla, e)
		}
	}

	groups := newUnionFind(len(nla))
	owner := map[*internalVariable]int{}
	for i, e := range nla {
		for _, u := range e.unknowns {
			if j, ok := owner[u]; ok {
				groups.union(i, j)
			} else {
				owner[u] = i
			}
		}
	}

	systems := map[int]int{}
	for i, e := range nla {
		root := groups.find(i)
		index, ok := systems[root]
		if !ok {
			index = len(systems)
			systems[root] = index
		}
		e.nlaIndex = index
	}
	for _, e := range nla {
		e.siblings = nil
		for _, other := range nla {
			if other != e && other.nlaIndex == e.nlaIndex {
				e.siblings = append(e.siblings, other)
			}
		}
	}

	a.cfg.logger.DebugContext(ctx, "nla systems",
		"equations", len(nla),
		"systems", len(systems),
		"external_equations", len(added))
}

// requalifyConstants turns variable-based constant equations that use an
// NLA-computed variable into algebraic equations. While propagating, such a
// variable was only known to have an initial value.
func (a *analyser) requalifyConstants() {
	for _, e := range a.equations {
		if e.typ != eqVariableBasedConstant {
			continue
		}
		unknown := e.unknowns[0]
		for _, v := range e.allVariables {
			if v == unknown {
				continue
			}
			switch v.typ {
			case varConstant, varComputedTrueConstant, varComputedVariableBasedConstant:
				continue
			}
			unknown.typ = varAlgebraic
			e.typ = eqAlgebraic
			break
		}
	}
}

// checkNlaSystems marks as overconstrained the unknowns of every NLA system
// that has more equations than unknowns.
func (a *analyser) checkNlaSystems() {
	systems := map[int][]*internalEquation{}
	var order []int
	for _, e := range a.equations {
		if e.typ != eqNLA {
			continue
		}
		if _, ok := systems[e.nlaIndex]; !ok {
			order = append(order, e.nlaIndex)
		}
		systems[e.nlaIndex] = append(systems[e.nlaIndex], e)
	}

	var reported []*internalVariable
	for _, index := range order {
		equations := systems[index]
		var unknowns []*internalVariable
		for _, e := range equations {
			for _, u := range e.unknowns {
				if !slices.Contains(unknowns, u) {
					unknowns = append(unknowns, u)
				}
			}
		}
		if len(equations) <= len(unknowns) {
			continue
		}
		for _, u := range unknowns {
			if slices.Contains(reported, u) {
				continue
			}
			reported = append(reported, u)
			u.typ = varOverconstrained
			a.addInvalidVariableIssue(u, core.CodeAnalyserVariableComputedMoreThanOnce)
		}
	}

	if len(reported) == 0 {
		return
	}
	switch a.result.Type {
	case ModelUnderconstrained, ModelUnsuitablyConstrained:
		a.result.Type = ModelUnsuitablyConstrained
	default:
		a.result.Type = ModelOverconstrained
	}
}

// unionFind is a disjoint-set forest over equation positions.
type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	return &unionFind{parent: parent}
}

func (u *unionFind) find(i int) int {
	for u.parent[i] != i {
		u.parent[i] = u.parent[u.parent[i]]
		i = u.parent[i]
	}
	return i
}

func (u *unionFind) union(i, j int) {
	ri, rj := u.find(i), u.find(j)
	if ri == rj {
		return
	}
	// the earlier equation stays the root
	if rj < ri {
		ri, rj = rj, ri
	}
	u.parent[rj] = ri
}
