// Package profile describes target languages for code generation.
//
// A Profile is pure data: the spellings of operators and functions, helper
// function definitions and the templates of every emitted construct.
// Templates use bracketed placeholders such as [CODE] or [INDEX] which the
// generator substitutes. Builtin profiles live in pkg/profiles and register
// themselves in init().
package profile

import (
	"maps"
)

// Operator is the spelling of a relational or logical operator. When Infix is
// false the target has no such operator and Text names a helper function
// called with the operands as arguments.
type Operator struct {
	Text  string `mapstructure:"text"`
	Infix bool   `mapstructure:"infix"`
}

// Operators spells the operators of the target language.
type Operators struct {
	Eq  Operator `mapstructure:"eq"`
	Neq Operator `mapstructure:"neq"`
	Lt  Operator `mapstructure:"lt"`
	Leq Operator `mapstructure:"leq"`
	Gt  Operator `mapstructure:"gt"`
	Geq Operator `mapstructure:"geq"`
	And Operator `mapstructure:"and"`
	Or  Operator `mapstructure:"or"`
	Xor Operator `mapstructure:"xor"`
	Not Operator `mapstructure:"not"`

	Assign string `mapstructure:"assign"`
	Plus   string `mapstructure:"plus"`
	Minus  string `mapstructure:"minus"`
	Times  string `mapstructure:"times"`
	Divide string `mapstructure:"divide"`

	// Power is an infix operator when HasPowerOperator, a function otherwise.
	Power            string `mapstructure:"power"`
	HasPowerOperator bool   `mapstructure:"has_power_operator"`
	SquareRoot       string `mapstructure:"square_root"`
	// Square, when set, is a function used for x^2.
	Square          string `mapstructure:"square"`
	CommonLog       string `mapstructure:"common_log"`
	NaturalLog      string `mapstructure:"natural_log"`
	Min             string `mapstructure:"min"`
	Max             string `mapstructure:"max"`
	Rem             string `mapstructure:"rem"`
	ConditionalIf   string `mapstructure:"conditional_if"`
	ConditionalElse string `mapstructure:"conditional_else"`
}

// Constants spells the named constants.
type Constants struct {
	True  string `mapstructure:"true"`
	False string `mapstructure:"false"`
	E     string `mapstructure:"e"`
	Pi    string `mapstructure:"pi"`
	Inf   string `mapstructure:"inf"`
	NaN   string `mapstructure:"nan"`
}

// Pair holds the interface and implementation variants of a construct. An
// empty Interface means the construct has no declaration.
type Pair struct {
	Interface      string `mapstructure:"interface"`
	Implementation string `mapstructure:"implementation"`
}

// Templates are the emitted constructs. Fam variants apply to algebraic
// models, Fdm variants to models with a variable of integration. Wev variants
// take the external variable callback.
type Templates struct {
	Comment       string `mapstructure:"comment"`
	OriginComment string `mapstructure:"origin_comment"`

	InterfaceFileName      string `mapstructure:"interface_file_name"`
	ImplementationFileName string `mapstructure:"implementation_file_name"`
	Header                 Pair   `mapstructure:"header"`

	Version       Pair `mapstructure:"version"`
	StateCount    Pair `mapstructure:"state_count"`
	VariableCount Pair `mapstructure:"variable_count"`
	ExternalCount Pair `mapstructure:"external_count"`

	VariableInfoObject string `mapstructure:"variable_info_object"`
	VariableInfoEntry  string `mapstructure:"variable_info_entry"`
	VoiInfo            Pair   `mapstructure:"voi_info"`
	StateInfo          Pair   `mapstructure:"state_info"`
	VariableInfo       Pair   `mapstructure:"variable_info"`
	ExternalInfo       Pair   `mapstructure:"external_info"`

	ExternalVariableTypeFam string `mapstructure:"external_variable_type_fam"`
	ExternalVariableTypeFdm string `mapstructure:"external_variable_type_fdm"`
	ExternalVariableCallFam string `mapstructure:"external_variable_call_fam"`
	ExternalVariableCallFdm string `mapstructure:"external_variable_call_fdm"`

	RootFindingInfoFam   string `mapstructure:"root_finding_info_fam"`
	RootFindingInfoFdm   string `mapstructure:"root_finding_info_fdm"`
	ExternNlaSolve       string `mapstructure:"extern_nla_solve"`
	FindRootCallFam      string `mapstructure:"find_root_call_fam"`
	FindRootCallFdm      string `mapstructure:"find_root_call_fdm"`
	FindRootMethodFam    string `mapstructure:"find_root_method_fam"`
	FindRootMethodFdm    string `mapstructure:"find_root_method_fdm"`
	NlaSolveCallFam      string `mapstructure:"nla_solve_call_fam"`
	NlaSolveCallFdm      string `mapstructure:"nla_solve_call_fdm"`
	ObjectiveFunctionFam string `mapstructure:"objective_function_fam"`
	ObjectiveFunctionFdm string `mapstructure:"objective_function_fdm"`

	CreateStatesArray    Pair `mapstructure:"create_states_array"`
	CreateVariablesArray Pair `mapstructure:"create_variables_array"`
	CreateExternalsArray Pair `mapstructure:"create_externals_array"`
	DeleteArray          Pair `mapstructure:"delete_array"`

	InitialiseVariablesFam   Pair   `mapstructure:"initialise_variables_fam"`
	InitialiseVariablesFdm   Pair   `mapstructure:"initialise_variables_fdm"`
	ComputeComputedConstants Pair   `mapstructure:"compute_computed_constants"`
	ComputeRatesWoev         Pair   `mapstructure:"compute_rates_woev"`
	ComputeRatesWev          Pair   `mapstructure:"compute_rates_wev"`
	ComputeVariablesFamWoev  Pair   `mapstructure:"compute_variables_fam_woev"`
	ComputeVariablesFamWev   Pair   `mapstructure:"compute_variables_fam_wev"`
	ComputeVariablesFdmWoev  Pair   `mapstructure:"compute_variables_fdm_woev"`
	ComputeVariablesFdmWev   Pair   `mapstructure:"compute_variables_fdm_wev"`
	EmptyMethod              string `mapstructure:"empty_method"`
	LocalVariable            string `mapstructure:"local_variable"`
}

// Syntax holds the lexical details of the target language.
type Syntax struct {
	Indent           string `mapstructure:"indent"`
	CommandSeparator string `mapstructure:"command_separator"`
	OpenArray        string `mapstructure:"open_array"`
	CloseArray       string `mapstructure:"close_array"`
	Null             string `mapstructure:"null"`
	Voi              string `mapstructure:"voi"`
	States           string `mapstructure:"states"`
	Rates            string `mapstructure:"rates"`
	Variables        string `mapstructure:"variables"`
	Externals        string `mapstructure:"externals"`
	U                string `mapstructure:"u"`
	F                string `mapstructure:"f"`
}

// Profile describes one target language.
type Profile struct {
	Name         string `mapstructure:"name"`
	Description  string `mapstructure:"description"`
	HasInterface bool   `mapstructure:"has_interface"`

	Operators Operators `mapstructure:"operators"`
	Constants Constants `mapstructure:"constants"`
	// Functions maps one-argument function names of the equation notation
	// (abs, ln, sec...) to the target spelling. Missing names are emitted
	// unchanged.
	Functions map[string]string `mapstructure:"functions"`
	// Helpers holds definitions emitted when a model needs them, keyed by
	// the notation name of the operator or function (xor, min, sec...).
	Helpers   map[string]string `mapstructure:"helpers"`
	Templates Templates         `mapstructure:"templates"`
	Syntax    Syntax            `mapstructure:"syntax"`
}

// Clone returns a deep copy of p.
func (p *Profile) Clone() *Profile {
	c := *p
	c.Functions = maps.Clone(p.Functions)
	c.Helpers = maps.Clone(p.Helpers)
	if c.Functions == nil {
		c.Functions = map[string]string{}
	}
	if c.Helpers == nil {
		c.Helpers = map[string]string{}
	}
	return &c
}

// Function returns the target spelling of a notation function name.
func (p *Profile) Function(name string) string {
	if s, ok := p.Functions[name]; ok {
		return s
	}
	return name
}
