package model

// Units is a named units definition. A definition without items whose name
// is not a standard unit declares a new base unit.
type Units struct {
	Name  string
	Items []Unit
}

// Unit is one factor of a units definition: (Multiplier * Prefix * Reference)^Exponent.
type Unit struct {
	Reference string
	// Prefix is an SI prefix name (milli, kilo, ...) or an integer power of ten.
	Prefix string
	// Exponent defaults to 1 when zero.
	Exponent float64
	// Multiplier defaults to 1 when zero.
	Multiplier float64
}

// EffectiveExponent returns the exponent with the default applied.
func (u Unit) EffectiveExponent() float64 {
	if u.Exponent == 0 {
		return 1
	}
	return u.Exponent
}

// EffectiveMultiplier returns the multiplier with the default applied.
func (u Unit) EffectiveMultiplier() float64 {
	if u.Multiplier == 0 {
		return 1
	}
	return u.Multiplier
}

// IsBase reports whether the definition declares a base unit.
func (u *Units) IsBase() bool { return len(u.Items) == 0 }
