// Package units implements the unit algebra: it reduces any units name to a
// dimension (exponents per base unit plus a log10 multiplier), computes
// scaling factors between equivalent units and checks the units
// consistency of equations.
package units
