package engine

import (
	"fmt"

	"github.com/leapstack-labs/cellgen/internal/dag"
	"github.com/leapstack-labs/cellgen/pkg/analyser"
)

// Levels groups the equations of a valid model into execution levels: every
// equation depends only on equations of earlier levels. An NLA system is
// placed as a whole. Dependencies on ODEs are ignored since states are
// inputs of every routine.
func Levels(m *analyser.Model) ([][]*analyser.Equation, error) {
	// representative of each equation: the lowest id of its NLA system
	rep := make(map[int]int, len(m.Equations()))
	members := map[int][]*analyser.Equation{}
	for _, e := range m.Equations() {
		id := e.ID()
		for _, s := range m.NlaSiblings(e) {
			id = min(id, s.ID())
		}
		rep[e.ID()] = id
		members[id] = append(members[id], e)
	}

	g := dag.NewGraph[int, []*analyser.Equation]()
	for id, group := range members {
		g.AddNode(id, group)
	}
	for _, e := range m.Equations() {
		for _, dep := range m.Dependencies(e) {
			if dep.Type == analyser.EquationODE {
				continue
			}
			from, to := rep[dep.ID()], rep[e.ID()]
			if from == to {
				continue
			}
			if err := g.AddEdge(from, to); err != nil {
				return nil, err
			}
		}
	}

	ids, err := g.GetExecutionLevels()
	if err != nil {
		return nil, fmt.Errorf("ordering equations of %s: %w", m.Source().Name, err)
	}
	levels := make([][]*analyser.Equation, len(ids))
	for i, level := range ids {
		for _, id := range level {
			levels[i] = append(levels[i], members[id]...)
		}
	}
	return levels, nil
}
