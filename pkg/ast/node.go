package ast

// Node is an equation syntax tree node.
type Node interface {
	node()
}

// Assign is the top-level equality of an equation: Left = Right.
type Assign struct {
	Left  Node
	Right Node
}

// Binary applies a two-operand operator.
type Binary struct {
	Op    BinaryOp
	Left  Node
	Right Node
}

// Unary applies a one-operand operator.
type Unary struct {
	Op      UnaryOp
	Operand Node
}

// Func applies a one-argument function.
type Func struct {
	Fn  Function
	Arg Node
}

// Root is the Degree-th root of Radicand. A nil Degree is a square root.
type Root struct {
	Radicand Node
	Degree   Node
}

// Log is the logarithm of Arg. A nil Base is the common (base 10) logarithm.
type Log struct {
	Arg  Node
	Base Node
}

// Diff is the derivative of Var with respect to BVar. A nil Degree is 1.
type Diff struct {
	Var    *Ref
	BVar   *Ref
	Degree Node
}

// Piece is one branch of a Piecewise node.
type Piece struct {
	Value Node
	Cond  Node
}

// Piecewise selects the value of the first piece whose condition holds,
// otherwise Otherwise. A nil Otherwise evaluates to NaN.
type Piecewise struct {
	Pieces    []Piece
	Otherwise Node
}

// Ref references a variable of the component owning the equation.
type Ref struct {
	Name string
}

// Number is a numeric literal. An empty Units means dimensionless.
type Number struct {
	Value string
	Units string
}

// Constant is a named mathematical or logical constant.
type Constant struct {
	Kind ConstantKind
}

func (*Assign) node()    {}
func (*Binary) node()    {}
func (*Unary) node()     {}
func (*Func) node()      {}
func (*Root) node()      {}
func (*Log) node()       {}
func (*Diff) node()      {}
func (*Piecewise) node() {}
func (*Ref) node()       {}
func (*Number) node()    {}
func (*Constant) node()  {}
