package ast

// BinaryOp is the operator of a Binary node.
type BinaryOp int

// Binary operators.
const (
	OpEq BinaryOp = iota
	OpNeq
	OpLt
	OpLeq
	OpGt
	OpGeq
	OpAnd
	OpOr
	OpXor
	OpPlus
	OpMinus
	OpTimes
	OpDivide
	OpPower
	OpRem
	OpMin
	OpMax
)

var binaryNames = [...]string{
	OpEq:     "eq",
	OpNeq:    "neq",
	OpLt:     "lt",
	OpLeq:    "leq",
	OpGt:     "gt",
	OpGeq:    "geq",
	OpAnd:    "and",
	OpOr:     "or",
	OpXor:    "xor",
	OpPlus:   "plus",
	OpMinus:  "minus",
	OpTimes:  "times",
	OpDivide: "divide",
	OpPower:  "power",
	OpRem:    "rem",
	OpMin:    "min",
	OpMax:    "max",
}

// String returns the MathML-style name of the operator.
func (op BinaryOp) String() string {
	if int(op) < len(binaryNames) {
		return binaryNames[op]
	}
	return "unknown"
}

// IsRelational reports whether op is eq, neq, lt, leq, gt or geq.
func (op BinaryOp) IsRelational() bool {
	return op >= OpEq && op <= OpGeq
}

// IsLogical reports whether op is and, or or xor.
func (op BinaryOp) IsLogical() bool {
	return op == OpAnd || op == OpOr || op == OpXor
}

// UnaryOp is the operator of a Unary node.
type UnaryOp int

// Unary operators.
const (
	OpNeg UnaryOp = iota
	OpPos
	OpNot
)

// String returns the MathML-style name of the operator.
func (op UnaryOp) String() string {
	switch op {
	case OpNeg:
		return "minus"
	case OpPos:
		return "plus"
	case OpNot:
		return "not"
	default:
		return "unknown"
	}
}

// Function is the function applied by a Func node.
type Function int

// Functions.
const (
	FnAbs Function = iota
	FnExp
	FnLn
	FnFloor
	FnCeiling
	FnSin
	FnCos
	FnTan
	FnSec
	FnCsc
	FnCot
	FnSinh
	FnCosh
	FnTanh
	FnSech
	FnCsch
	FnCoth
	FnAsin
	FnAcos
	FnAtan
	FnAsec
	FnAcsc
	FnAcot
	FnAsinh
	FnAcosh
	FnAtanh
	FnAsech
	FnAcsch
	FnAcoth
)

var functionNames = [...]string{
	FnAbs:     "abs",
	FnExp:     "exp",
	FnLn:      "ln",
	FnFloor:   "floor",
	FnCeiling: "ceiling",
	FnSin:     "sin",
	FnCos:     "cos",
	FnTan:     "tan",
	FnSec:     "sec",
	FnCsc:     "csc",
	FnCot:     "cot",
	FnSinh:    "sinh",
	FnCosh:    "cosh",
	FnTanh:    "tanh",
	FnSech:    "sech",
	FnCsch:    "csch",
	FnCoth:    "coth",
	FnAsin:    "asin",
	FnAcos:    "acos",
	FnAtan:    "atan",
	FnAsec:    "asec",
	FnAcsc:    "acsc",
	FnAcot:    "acot",
	FnAsinh:   "asinh",
	FnAcosh:   "acosh",
	FnAtanh:   "atanh",
	FnAsech:   "asech",
	FnAcsch:   "acsch",
	FnAcoth:   "acoth",
}

// String returns the name of the function.
func (f Function) String() string {
	if int(f) < len(functionNames) {
		return functionNames[f]
	}
	return "unknown"
}

// IsTrigonometric reports whether f belongs to the trigonometric, hyperbolic
// or inverse family.
func (f Function) IsTrigonometric() bool {
	return f >= FnSin && f <= FnAcoth
}

// LookupFunction returns the function with the given name.
func LookupFunction(name string) (Function, bool) {
	for i, n := range functionNames {
		if n == name {
			return Function(i), true
		}
	}
	return 0, false
}

// ConstantKind identifies a Constant node.
type ConstantKind int

// Constants.
const (
	ConstTrue ConstantKind = iota
	ConstFalse
	ConstE
	ConstPi
	ConstInf
	ConstNaN
)

// String returns the notation name of the constant.
func (k ConstantKind) String() string {
	switch k {
	case ConstTrue:
		return "true"
	case ConstFalse:
		return "false"
	case ConstE:
		return "e"
	case ConstPi:
		return "pi"
	case ConstInf:
		return "inf"
	case ConstNaN:
		return "nan"
	default:
		return "unknown"
	}
}
