package analyser

// ModelType is the overall classification of an analysed model.
type ModelType int

// Model types.
const (
	ModelUnknown ModelType = iota
	ModelInvalid
	ModelAlgebraic
	ModelODE
	ModelNLA
	ModelDAE
	ModelUnderconstrained
	ModelOverconstrained
	ModelUnsuitablyConstrained
)

var modelTypeNames = [...]string{
	ModelUnknown:               "unknown",
	ModelInvalid:               "invalid",
	ModelAlgebraic:             "algebraic",
	ModelODE:                   "ode",
	ModelNLA:                   "nla",
	ModelDAE:                   "dae",
	ModelUnderconstrained:      "underconstrained",
	ModelOverconstrained:       "overconstrained",
	ModelUnsuitablyConstrained: "unsuitably_constrained",
}

// String returns the string representation of the model type.
func (t ModelType) String() string {
	if int(t) < len(modelTypeNames) {
		return modelTypeNames[t]
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (t ModelType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// VariableType is the classification of an analysed variable.
type VariableType int

// Variable types.
const (
	VariableVoi VariableType = iota
	VariableState
	VariableConstant
	VariableComputedConstant
	VariableAlgebraic
	VariableExternal
)

var variableTypeNames = [...]string{
	VariableVoi:              "variable_of_integration",
	VariableState:            "state",
	VariableConstant:         "constant",
	VariableComputedConstant: "computed_constant",
	VariableAlgebraic:        "algebraic",
	VariableExternal:         "external",
}

// String returns the string representation of the variable type.
func (t VariableType) String() string {
	if int(t) < len(variableTypeNames) {
		return variableTypeNames[t]
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (t VariableType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// EquationType is the classification of an analysed equation.
type EquationType int

// Equation types.
const (
	// EquationTrueConstant computes a constant from literals only.
	EquationTrueConstant EquationType = iota
	// EquationVariableBasedConstant computes a constant from other constants.
	EquationVariableBasedConstant
	EquationODE
	EquationNLA
	EquationAlgebraic
	// EquationExternal stands for a value supplied by the external-variable callback.
	EquationExternal
)

var equationTypeNames = [...]string{
	EquationTrueConstant:          "true_constant",
	EquationVariableBasedConstant: "variable_based_constant",
	EquationODE:                   "ode",
	EquationNLA:                   "nla",
	EquationAlgebraic:             "algebraic",
	EquationExternal:              "external",
}

// String returns the string representation of the equation type.
func (t EquationType) String() string {
	if int(t) < len(equationTypeNames) {
		return equationTypeNames[t]
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (t EquationType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// IsConstant reports whether the equation computes a constant.
func (t EquationType) IsConstant() bool {
	return t == EquationTrueConstant || t == EquationVariableBasedConstant
}
