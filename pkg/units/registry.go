package units

import (
	"errors"
	"fmt"
	"math"

	"github.com/leapstack-labs/cellgen/pkg/core"
	"github.com/leapstack-labs/cellgen/pkg/model"
)

// Sentinel errors returned by Resolve.
var (
	ErrUnknownUnits  = errors.New("unknown units")
	ErrCircularUnits = errors.New("circular units definition")
	ErrInvalidPrefix = errors.New("invalid prefix")
)

// Registry resolves units names against the standard table and the user
// definitions of a model. It is not safe for concurrent use.
type Registry struct {
	user  map[string]*model.Units
	cache map[string]Dimension
}

// NewRegistry creates a registry for the units defined in m. A nil model
// yields a registry of standard units only.
func NewRegistry(m *model.Model) *Registry {
	r := &Registry{user: map[string]*model.Units{}, cache: map[string]Dimension{}}
	if m != nil {
		for _, u := range m.Units {
			r.user[u.Name] = u
		}
	}
	return r
}

// Resolve reduces a units name to its dimension. The empty name is dimensionless.
func (r *Registry) Resolve(name string) (Dimension, error) {
	return r.resolve(name, map[string]bool{})
}

func (r *Registry) resolve(name string, visiting map[string]bool) (Dimension, error) {
	if name == "" {
		name = Dimensionless
	}
	if d, ok := r.cache[name]; ok {
		return d, nil
	}
	if visiting[name] {
		return Dimension{}, fmt.Errorf("%w: %s", ErrCircularUnits, name)
	}

	var d Dimension
	if u, ok := r.user[name]; ok {
		visiting[name] = true
		defer delete(visiting, name)

		if u.IsBase() && !IsStandard(name) {
			d = Dimension{Exponents: map[string]float64{name: 1}}
		} else {
			d = Dimension{Exponents: map[string]float64{}}
			for _, item := range u.Items {
				ref, err := r.resolve(item.Reference, visiting)
				if err != nil {
					return Dimension{}, fmt.Errorf("units %q: %w", name, err)
				}
				prefix, ok := prefixPower(item.Prefix)
				if !ok {
					return Dimension{}, fmt.Errorf("units %q: %w: %s", name, ErrInvalidPrefix, item.Prefix)
				}
				ref.Multiplier += math.Log10(item.EffectiveMultiplier()) + prefix
				d = d.Mul(ref.Pow(item.EffectiveExponent()))
			}
		}
	} else if s, ok := standardUnits[name]; ok {
		d = Dimension{Exponents: make(map[string]float64, len(s.exponents)), Multiplier: s.multiplier}
		for k, v := range s.exponents {
			d.Exponents[k] = v
		}
	} else {
		return Dimension{}, fmt.Errorf("%w: %s", ErrUnknownUnits, name)
	}

	d = d.normalise()
	r.cache[name] = d
	return d, nil
}

// ScalingFactor returns the factor converting a value expressed in from into
// the same value expressed in to. ok is false when either name does not
// resolve or the dimensions differ.
func (r *Registry) ScalingFactor(from, to string) (factor float64, ok bool) {
	f, err := r.Resolve(from)
	if err != nil {
		return 0, false
	}
	t, err := r.Resolve(to)
	if err != nil {
		return 0, false
	}
	if !f.Equivalent(t) {
		return 0, false
	}
	return math.Pow(10, f.Multiplier-t.Multiplier), true
}

// Validate reports every units reference of the model that does not resolve.
func (r *Registry) Validate(m *model.Model) core.Issues {
	var issues core.Issues
	if m == nil {
		return issues
	}
	for _, u := range m.Units {
		if _, err := r.Resolve(u.Name); err != nil {
			issues = append(issues, core.Issue{
				Severity:    core.SeverityError,
				Code:        core.CodeModelUnitsUndefined,
				Description: fmt.Sprintf("Units '%s' cannot be resolved: %v.", u.Name, err),
				Item:        core.Item{Kind: core.ItemUnits, Name: u.Name, Ref: u},
			})
		}
	}
	for _, c := range m.AllComponents() {
		for _, v := range c.Variables {
			if _, err := r.Resolve(v.Units); err != nil {
				issues = append(issues, core.Issue{
					Severity:    core.SeverityError,
					Code:        core.CodeModelUnitsUndefined,
					Description: fmt.Sprintf("Variable '%s' in component '%s' has units '%s', which cannot be resolved.", v.Name, c.Name, v.Units),
					Item:        core.Item{Kind: core.ItemVariable, Component: c.Name, Name: v.Name, Ref: v},
				})
			}
		}
	}
	return issues
}
