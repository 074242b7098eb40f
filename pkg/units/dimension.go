package units

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Dimension is a normalised unit: the exponent of every irreducible unit and
// the log10 of the aggregate multiplier.
type Dimension struct {
	Exponents  map[string]float64
	Multiplier float64
}

// Mul returns d*o.
func (d Dimension) Mul(o Dimension) Dimension {
	return d.combine(o, 1)
}

// Div returns d/o.
func (d Dimension) Div(o Dimension) Dimension {
	return d.combine(o, -1)
}

func (d Dimension) combine(o Dimension, sign float64) Dimension {
	out := Dimension{Exponents: make(map[string]float64, len(d.Exponents)+len(o.Exponents)), Multiplier: d.Multiplier + sign*o.Multiplier}
	for k, v := range d.Exponents {
		out.Exponents[k] = v
	}
	for k, v := range o.Exponents {
		out.Exponents[k] += sign * v
	}
	return out.normalise()
}

// Pow returns d raised to p.
func (d Dimension) Pow(p float64) Dimension {
	out := Dimension{Exponents: make(map[string]float64, len(d.Exponents)), Multiplier: d.Multiplier * p}
	for k, v := range d.Exponents {
		out.Exponents[k] = v * p
	}
	return out.normalise()
}

func (d Dimension) normalise() Dimension {
	for k, v := range d.Exponents {
		if k == Dimensionless || nearlyEqual(v, 0) {
			delete(d.Exponents, k)
		}
	}
	return d
}

// IsDimensionless reports whether no exponent remains.
func (d Dimension) IsDimensionless() bool {
	return len(d.normalise().Exponents) == 0
}

// Equivalent reports whether d and o have the same exponents, ignoring the multiplier.
func (d Dimension) Equivalent(o Dimension) bool {
	a, b := d.normalise().Exponents, o.normalise().Exponents
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		w, ok := b[k]
		if !ok || !nearlyEqual(v, w) {
			return false
		}
	}
	return true
}

// Equal reports whether d and o are equivalent and share the multiplier.
func (d Dimension) Equal(o Dimension) bool {
	return d.Equivalent(o) && nearlyEqual(d.Multiplier, o.Multiplier)
}

// String renders the dimension as "10^m x unit^e.unit^e".
func (d Dimension) String() string {
	s := d.Base()
	if !nearlyEqual(d.Multiplier, 0) {
		s = fmt.Sprintf("10^%s x %s", strconv.FormatFloat(d.Multiplier, 'g', -1, 64), s)
	}
	return s
}

// Base renders the exponents only, as "unit^e.unit^e". Equivalent
// dimensions have the same base.
func (d Dimension) Base() string {
	keys := make([]string, 0, len(d.Exponents))
	for k := range d.normalise().Exponents {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		e := d.Exponents[k]
		if nearlyEqual(e, 1) {
			parts = append(parts, k)
		} else {
			parts = append(parts, k+"^"+strconv.FormatFloat(e, 'g', -1, 64))
		}
	}
	if len(parts) == 0 {
		return Dimensionless
	}
	return strings.Join(parts, ".")
}

func nearlyEqual(a, b float64) bool {
	const epsilon = 1e-9
	if a == b {
		return true
	}
	return math.Abs(a-b) <= epsilon*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}
