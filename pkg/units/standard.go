package units

import "strconv"

// Dimensionless is the name of the dimensionless unit.
const Dimensionless = "dimensionless"

// baseUnits are the SI base units every standard unit reduces to.
var baseUnits = []string{"ampere", "candela", "kelvin", "kilogram", "metre", "mole", "second"}

type standardUnit struct {
	exponents  map[string]float64
	multiplier float64
}

func si(multiplier float64, pairs ...any) standardUnit {
	u := standardUnit{exponents: map[string]float64{}, multiplier: multiplier}
	for i := 0; i+1 < len(pairs); i += 2 {
		u.exponents[pairs[i].(string)] = float64(pairs[i+1].(int))
	}
	return u
}

// standardUnits is the built-in units table.
var standardUnits = map[string]standardUnit{
	"ampere":        si(0, "ampere", 1),
	"becquerel":     si(0, "second", -1),
	"candela":       si(0, "candela", 1),
	"celsius":       si(0, "kelvin", 1),
	"coulomb":       si(0, "ampere", 1, "second", 1),
	"dimensionless": si(0),
	"farad":         si(0, "ampere", 2, "kilogram", -1, "metre", -2, "second", 4),
	"gram":          si(-3, "kilogram", 1),
	"gray":          si(0, "metre", 2, "second", -2),
	"henry":         si(0, "ampere", -2, "kilogram", 1, "metre", 2, "second", -2),
	"hertz":         si(0, "second", -1),
	"joule":         si(0, "kilogram", 1, "metre", 2, "second", -2),
	"katal":         si(0, "mole", 1, "second", -1),
	"kelvin":        si(0, "kelvin", 1),
	"kilogram":      si(0, "kilogram", 1),
	"litre":         si(-3, "metre", 3),
	"liter":         si(-3, "metre", 3),
	"lumen":         si(0, "candela", 1),
	"lux":           si(0, "candela", 1, "metre", -2),
	"metre":         si(0, "metre", 1),
	"meter":         si(0, "metre", 1),
	"mole":          si(0, "mole", 1),
	"newton":        si(0, "kilogram", 1, "metre", 1, "second", -2),
	"ohm":           si(0, "ampere", -2, "kilogram", 1, "metre", 2, "second", -3),
	"pascal":        si(0, "kilogram", 1, "metre", -1, "second", -2),
	"radian":        si(0),
	"second":        si(0, "second", 1),
	"siemens":       si(0, "ampere", 2, "kilogram", -1, "metre", -2, "second", 3),
	"sievert":       si(0, "metre", 2, "second", -2),
	"steradian":     si(0),
	"tesla":         si(0, "ampere", -1, "kilogram", 1, "second", -2),
	"volt":          si(0, "ampere", -1, "kilogram", 1, "metre", 2, "second", -3),
	"watt":          si(0, "kilogram", 1, "metre", 2, "second", -3),
	"weber":         si(0, "ampere", -1, "kilogram", 1, "metre", 2, "second", -2),
}

// IsStandard reports whether name is a built-in unit.
func IsStandard(name string) bool {
	_, ok := standardUnits[name]
	return ok
}

var prefixes = map[string]float64{
	"yotta": 24,
	"zetta": 21,
	"exa":   18,
	"peta":  15,
	"tera":  12,
	"giga":  9,
	"mega":  6,
	"kilo":  3,
	"hecto": 2,
	"deca":  1,
	"deka":  1,
	"deci":  -1,
	"centi": -2,
	"milli": -3,
	"micro": -6,
	"nano":  -9,
	"pico":  -12,
	"femto": -15,
	"atto":  -18,
	"zepto": -21,
	"yocto": -24,
}

// prefixPower returns the power of ten of an SI prefix name or integer prefix.
func prefixPower(prefix string) (float64, bool) {
	if prefix == "" {
		return 0, true
	}
	if p, ok := prefixes[prefix]; ok {
		return p, true
	}
	n, err := strconv.Atoi(prefix)
	if err != nil {
		return 0, false
	}
	return float64(n), true
}
