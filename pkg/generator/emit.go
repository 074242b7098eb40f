package generator

import (
	"context"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/leapstack-labs/cellgen/pkg/analyser"
	"github.com/leapstack-labs/cellgen/pkg/ast"
	"github.com/leapstack-labs/cellgen/pkg/model"
	"github.com/leapstack-labs/cellgen/pkg/profile"
)

// emitter renders one model with one profile.
type emitter struct {
	m    *analyser.Model
	prof *profile.Profile
	tmpl *profile.Templates
	syn  *profile.Syntax
	cfg  config

	fdm       bool
	externals bool
	// stored lists the tracked members of the variables array; slots maps
	// their arena id to their position in it.
	stored []*analyser.Variable
	slots  map[int]int
	locals map[int]string
	plan   *plan
}

func newEmitter(m *analyser.Model, p *profile.Profile, cfg config) *emitter {
	g := &emitter{
		m:         m,
		prof:      p,
		tmpl:      &p.Templates,
		syn:       &p.Syntax,
		cfg:       cfg,
		fdm:       m.Voi() != nil,
		externals: m.HasExternalVariables(),
		slots:     map[int]int{},
		locals:    map[int]string{},
	}

	var untracked []*analyser.Variable
	for _, v := range m.Variables() {
		if g.tracked(v) {
			g.slots[v.ID()] = len(g.stored)
			g.stored = append(g.stored, v)
		} else {
			untracked = append(untracked, v)
		}
	}
	g.nameLocals(untracked)
	g.plan = newPlan(m, g.tracked)

	ctx := context.Background()
	for _, r := range []struct {
		ph    phase
		steps []step
	}{
		{phaseInitialise, g.plan.initialise},
		{phaseComputedConstants, g.plan.computedConstants},
		{phaseRates, g.plan.rates},
		{phaseVariables, g.plan.variables},
	} {
		cfg.logger.DebugContext(ctx, "equations emitted",
			"profile", p.Name,
			"routine", r.ph.String(),
			"steps", len(r.steps))
	}
	return g
}

func (g *emitter) tracked(v *analyser.Variable) bool {
	if g.cfg.tracker == nil {
		return true
	}
	return g.cfg.tracker.IsTracked(g.m, v)
}

// nameLocals names the temporaries of untracked variables. Names clashing
// with another temporary or with the routine parameters are qualified with
// the component name.
func (g *emitter) nameLocals(vs []*analyser.Variable) {
	reserved := map[string]bool{
		g.syn.Voi: true, g.syn.States: true, g.syn.Rates: true,
		g.syn.Variables: true, g.syn.Externals: true, g.syn.U: true, g.syn.F: true,
		"data": true, "rfi": true,
	}
	count := map[string]int{}
	for _, v := range vs {
		count[v.Variable.Name]++
	}
	for _, v := range vs {
		name := v.Variable.Name
		if count[name] > 1 || reserved[name] {
			name = componentName(v.Variable) + "_" + name
		}
		g.locals[v.ID()] = name
	}
}

// =============================================================================
// Files
// =============================================================================

// side selects the interface or implementation variant of a template.
type side int

const (
	sideInterface side = iota
	sideImplementation
)

func (s side) of(p profile.Pair) string {
	if s == sideInterface {
		return p.Interface
	}
	return p.Implementation
}

// file collects the sections of a generated file, separated by blank lines.
type file struct {
	sections []string
}

func (f *file) add(sections ...string) {
	for _, s := range sections {
		if s != "" {
			f.sections = append(f.sections, s)
		}
	}
}

func (f *file) String() string { return strings.Join(f.sections, "\n") }

func (g *emitter) iface() string {
	f := &file{}
	t := g.tmpl
	f.add(g.origin(), g.replace(t.Header.Interface))
	f.add(g.replace(t.Version.Interface))
	f.add(g.counts(sideInterface))
	f.add(g.variableInfoObject())
	f.add(g.infos(sideInterface))
	f.add(g.arrays(sideInterface)...)
	if g.externals {
		f.add(g.externalVariableType())
	}
	f.add(g.methods(sideInterface)...)
	return f.String()
}

func (g *emitter) implementation() string {
	f := &file{}
	t := g.tmpl
	f.add(g.origin(), g.replace(t.Header.Implementation))
	f.add(g.replace(t.Version.Implementation))
	f.add(g.counts(sideImplementation))
	if !g.prof.HasInterface {
		f.add(g.variableInfoObject())
	}
	f.add(g.infos(sideImplementation))
	f.add(g.helpers()...)
	f.add(g.arrays(sideImplementation)...)
	if g.externals && !g.prof.HasInterface {
		f.add(g.externalVariableType())
	}
	f.add(g.nlaSystems()...)
	f.add(g.methods(sideImplementation)...)
	return f.String()
}

func (g *emitter) origin() string {
	if g.tmpl.Comment == "" || g.tmpl.OriginComment == "" {
		return ""
	}
	return replace(g.tmpl.Comment, "[CODE]", replace(g.tmpl.OriginComment,
		"[PROFILE_INFORMATION]", "the "+g.prof.Name+" profile of",
		"[VERSION]", Version))
}

// replace fills the placeholders every template may use.
func (g *emitter) replace(template string) string {
	if template == "" {
		return ""
	}
	return replace(template,
		"[VERSION]", Version,
		"[INTERFACE_FILE_NAME]", g.cfg.interfaceFileName,
		"[STATE_COUNT]", strconv.Itoa(len(g.m.States())),
		"[VARIABLE_COUNT]", strconv.Itoa(len(g.stored)),
		"[EXTERNAL_COUNT]", strconv.Itoa(len(g.m.Externals())))
}

func (g *emitter) counts(s side) string {
	t := g.tmpl
	var b strings.Builder
	if g.fdm {
		b.WriteString(g.replace(s.of(t.StateCount)))
	}
	b.WriteString(g.replace(s.of(t.VariableCount)))
	if g.externals {
		b.WriteString(g.replace(s.of(t.ExternalCount)))
	}
	return b.String()
}

// =============================================================================
// Variable information
// =============================================================================

func (g *emitter) infoVariables() []*analyser.Variable {
	vs := slices.Clone(g.m.States())
	vs = append(vs, g.stored...)
	vs = append(vs, g.m.Externals()...)
	if voi := g.m.Voi(); voi != nil {
		vs = append(vs, voi)
	}
	return vs
}

func (g *emitter) variableInfoObject() string {
	if g.tmpl.VariableInfoObject == "" {
		return ""
	}
	name, units, component := 0, 0, 0
	for _, v := range g.infoVariables() {
		name = max(name, len(v.Variable.Name))
		units = max(units, len(v.Variable.Units))
		component = max(component, len(componentName(v.Variable)))
	}
	return replace(g.tmpl.VariableInfoObject,
		"[NAME_SIZE]", strconv.Itoa(name+1),
		"[UNITS_SIZE]", strconv.Itoa(units+1),
		"[COMPONENT_SIZE]", strconv.Itoa(component+1))
}

func (g *emitter) infoEntry(v *analyser.Variable) string {
	return replace(g.tmpl.VariableInfoEntry,
		"[NAME]", v.Variable.Name,
		"[UNITS]", v.Variable.Units,
		"[COMPONENT]", componentName(v.Variable))
}

func (g *emitter) infoTable(template string, vs []*analyser.Variable) string {
	if template == "" {
		return ""
	}
	var b strings.Builder
	for _, v := range vs {
		b.WriteString(g.syn.Indent + g.infoEntry(v) + ",\n")
	}
	return replace(template, "[CODE]", b.String())
}

func (g *emitter) infos(s side) string {
	t := g.tmpl
	var b strings.Builder
	if g.fdm {
		if voi := s.of(t.VoiInfo); voi != "" {
			b.WriteString(replace(voi, "[CODE]", g.infoEntry(g.m.Voi())))
		}
		b.WriteString(g.infoTable(s.of(t.StateInfo), g.m.States()))
	}
	b.WriteString(g.infoTable(s.of(t.VariableInfo), g.stored))
	if g.externals {
		b.WriteString(g.infoTable(s.of(t.ExternalInfo), g.m.Externals()))
	}
	return b.String()
}

// =============================================================================
// Helpers and arrays
// =============================================================================

// helpers returns the definitions of the helper functions the model uses.
func (g *emitter) helpers() []string {
	var keys []string
	pr := &printer{prof: g.prof}
	for _, op := range []ast.BinaryOp{
		ast.OpEq, ast.OpNeq, ast.OpLt, ast.OpLeq, ast.OpGt, ast.OpGeq,
		ast.OpAnd, ast.OpOr, ast.OpXor,
	} {
		if g.m.NeedsOperator(op) && !pr.logical(op).Infix {
			keys = append(keys, op.String())
		}
	}
	if g.m.NeedsNot() && !g.prof.Operators.Not.Infix {
		keys = append(keys, "not")
	}
	for _, op := range []ast.BinaryOp{ast.OpMin, ast.OpMax} {
		if g.m.NeedsOperator(op) {
			keys = append(keys, op.String())
		}
	}
	for fn := ast.FnAbs; fn <= ast.FnAcoth; fn++ {
		if g.m.NeedsFunction(fn) {
			keys = append(keys, fn.String())
		}
	}

	var out []string
	for _, k := range keys {
		if h, ok := g.prof.Helpers[k]; ok {
			out = append(out, h)
		}
	}
	return out
}

func (g *emitter) arrays(s side) []string {
	t := g.tmpl
	var parts []string
	if g.fdm {
		parts = append(parts, s.of(t.CreateStatesArray))
	}
	parts = append(parts, s.of(t.CreateVariablesArray))
	if g.externals {
		parts = append(parts, s.of(t.CreateExternalsArray))
	}
	parts = append(parts, s.of(t.DeleteArray))
	return group(s, parts)
}

// group keeps declarations together and separates definitions.
func group(s side, parts []string) []string {
	if s == sideInterface {
		return []string{strings.Join(parts, "")}
	}
	return parts
}

func (g *emitter) externalVariableType() string {
	if g.fdm {
		return g.tmpl.ExternalVariableTypeFdm
	}
	return g.tmpl.ExternalVariableTypeFam
}

// =============================================================================
// NLA systems
// =============================================================================

func (g *emitter) nlaSystems() []string {
	systems := g.m.NlaSystems()
	if len(systems) == 0 {
		return nil
	}
	t := g.tmpl
	rootFindingInfo, objective, findRoot, solve := t.RootFindingInfoFam, t.ObjectiveFunctionFam, t.FindRootMethodFam, t.NlaSolveCallFam
	if g.fdm {
		rootFindingInfo, objective, findRoot, solve = t.RootFindingInfoFdm, t.ObjectiveFunctionFdm, t.FindRootMethodFdm, t.NlaSolveCallFdm
	}

	out := []string{rootFindingInfo, t.ExternNlaSolve}
	for i, system := range systems {
		unknowns := g.unknowns(system)
		index, size := strconv.Itoa(i), strconv.Itoa(len(unknowns))

		var body []string
		for j, v := range unknowns {
			body = append(body, g.statement(g.access(v), g.u(j)))
		}
		body = append(body, "")
		if i < len(g.plan.objectives) {
			for _, st := range g.plan.objectives[i] {
				body = append(body, g.stepLines(st)...)
			}
		}
		for j, e := range system {
			pr := g.printer(e.Component)
			body = append(body, g.statement(g.array(g.syn.F, j), pr.print(e.Ast)))
		}
		out = append(out, replace(objective, "[INDEX]", index, "[CODE]", g.body(body)))

		body = body[:0]
		for j, v := range unknowns {
			body = append(body, g.statement(g.u(j), g.access(v)))
		}
		body = append(body, "", strings.TrimSuffix(replace(solve, "[INDEX]", index, "[SIZE]", size), "\n"), "")
		for j, v := range unknowns {
			body = append(body, g.statement(g.access(v), g.u(j)))
		}
		out = append(out, replace(findRoot, "[INDEX]", index, "[SIZE]", size, "[CODE]", g.body(body)))
	}
	return out
}

// unknowns returns the variables an NLA system solves for.
func (g *emitter) unknowns(system []*analyser.Equation) []*analyser.Variable {
	var out []*analyser.Variable
	for _, e := range system {
		for _, v := range g.m.ComputedVariables(e) {
			if !slices.Contains(out, v) {
				out = append(out, v)
			}
		}
	}
	return out
}

// =============================================================================
// Routines
// =============================================================================

func (g *emitter) methods(s side) []string {
	t := g.tmpl
	initialise := t.InitialiseVariablesFam
	variables := t.ComputeVariablesFamWoev
	switch {
	case g.fdm && g.externals:
		initialise, variables = t.InitialiseVariablesFdm, t.ComputeVariablesFdmWev
	case g.fdm:
		initialise, variables = t.InitialiseVariablesFdm, t.ComputeVariablesFdmWoev
	case g.externals:
		variables = t.ComputeVariablesFamWev
	}

	out := []string{
		g.method(s.of(initialise), g.initialiseLines()),
		g.method(s.of(t.ComputeComputedConstants), g.lines(g.plan.computedConstants)),
	}
	if g.fdm {
		rates := t.ComputeRatesWoev
		if g.externals {
			rates = t.ComputeRatesWev
		}
		out = append(out, g.method(s.of(rates), g.lines(g.plan.rates)))
	}
	out = append(out, g.method(s.of(variables), g.lines(g.plan.variables)))
	return group(s, out)
}

// method fills a routine template. Declarations have no [CODE] placeholder
// and are returned unchanged.
func (g *emitter) method(template string, lines []string) string {
	if template == "" {
		return ""
	}
	if len(lines) == 0 && g.tmpl.EmptyMethod != "" {
		return replace(template, "[CODE]", g.syn.Indent+g.tmpl.EmptyMethod)
	}
	return replace(template, "[CODE]", g.body(lines))
}

func (g *emitter) body(lines []string) string {
	var b strings.Builder
	for _, l := range lines {
		if l != "" {
			b.WriteString(g.syn.Indent)
			b.WriteString(l)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// initialiseLines sets constants and NLA guesses, computes true constants,
// then sets the states.
func (g *emitter) initialiseLines() []string {
	var lines []string
	for _, v := range g.stored {
		if v.Type == analyser.VariableConstant || g.isNlaUnknown(v) {
			lines = append(lines, g.statement(g.access(v), g.initialValue(v)))
		}
	}
	lines = append(lines, g.lines(g.plan.initialise)...)
	for _, v := range g.m.States() {
		lines = append(lines, g.statement(g.access(v), g.initialValue(v)))
	}
	return lines
}

func (g *emitter) isNlaUnknown(v *analyser.Variable) bool {
	for _, e := range g.m.EquationsOf(v) {
		if e.Type == analyser.EquationNLA {
			return true
		}
	}
	return false
}

func (g *emitter) lines(steps []step) []string {
	var out []string
	for _, st := range steps {
		out = append(out, g.stepLines(st)...)
	}
	return out
}

func (g *emitter) stepLines(st step) []string {
	if st.constant != nil {
		return []string{g.statement(g.declare(st.constant), g.initialValue(st.constant))}
	}

	e := st.equation
	switch e.Type {
	case analyser.EquationNLA:
		call := g.tmpl.FindRootCallFam
		if g.fdm {
			call = g.tmpl.FindRootCallFdm
		}
		externals := g.syn.Null
		if g.externals {
			externals = g.syn.Externals
		}
		return []string{strings.TrimSuffix(replace(call,
			"[INDEX]", strconv.Itoa(e.NlaSystemIndex),
			"[EXTERNALS]", externals), "\n")}

	case analyser.EquationExternal:
		call := g.tmpl.ExternalVariableCallFam
		if g.fdm {
			call = g.tmpl.ExternalVariableCallFdm
		}
		var out []string
		for _, v := range g.m.ComputedVariables(e) {
			out = append(out, g.statement(g.access(v), replace(call, "[INDEX]", strconv.Itoa(v.Index))))
		}
		return out
	}

	assign, ok := e.Ast.(*ast.Assign)
	if !ok {
		return nil
	}
	pr := g.printer(e.Component)
	lhs := pr.print(assign.Left)
	if st.local {
		if vs := g.m.ComputedVariables(e); len(vs) > 0 {
			lhs = g.declare(vs[0])
		}
	}
	return []string{g.statement(lhs, pr.print(assign.Right))}
}

func (g *emitter) statement(lhs, rhs string) string {
	return lhs + g.prof.Operators.Assign + rhs + g.syn.CommandSeparator
}

func (g *emitter) declare(v *analyser.Variable) string {
	return replace(g.tmpl.LocalVariable, "[NAME]", g.locals[v.ID()])
}

// =============================================================================
// Variable access
// =============================================================================

func (g *emitter) array(name string, i int) string {
	return name + g.syn.OpenArray + strconv.Itoa(i) + g.syn.CloseArray
}

func (g *emitter) u(i int) string { return g.array(g.syn.U, i) }

// access returns the expression holding the value of v.
func (g *emitter) access(v *analyser.Variable) string {
	switch v.Type {
	case analyser.VariableVoi:
		return g.syn.Voi
	case analyser.VariableState:
		return g.array(g.syn.States, v.Index)
	case analyser.VariableExternal:
		return g.array(g.syn.Externals, v.Index)
	}
	if name, ok := g.locals[v.ID()]; ok {
		return name
	}
	return g.array(g.syn.Variables, g.slots[v.ID()])
}

// printer returns an expression printer resolving names in component c.
func (g *emitter) printer(c *model.Component) *printer {
	resolve := func(r *ast.Ref) *analyser.Variable {
		if c == nil || r == nil {
			return nil
		}
		doc, ok := c.Variable(r.Name)
		if !ok {
			return nil
		}
		return g.m.VariableOf(doc)
	}
	return &printer{
		prof: g.prof,
		ref: func(r *ast.Ref) string {
			if v := resolve(r); v != nil {
				return g.access(v)
			}
			return r.Name
		},
		rate: func(d *ast.Diff) string {
			if v := resolve(d.Var); v != nil && v.Type == analyser.VariableState {
				return g.array(g.syn.Rates, v.Index)
			}
			return g.array(g.syn.Rates, 0)
		},
	}
}

// initialValue returns the value v starts with, converted to the units of
// the variable holding it.
func (g *emitter) initialValue(v *analyser.Variable) string {
	init := v.Initialising
	if init == nil {
		return formatNumber("0")
	}
	factor := g.m.ScalingFactor(init)
	if f, ok := init.NumericInitialValue(); ok {
		if factor == 1 {
			return formatNumber(init.InitialValue)
		}
		return formatFloat(f / factor)
	}

	doc, ok := init.InitialisingVariable()
	if !ok {
		return formatNumber("0")
	}
	iv := g.m.VariableOf(doc)
	if iv == nil {
		return doc.Name
	}
	code := g.access(iv)
	if scale := g.m.ScalingFactor(doc) / factor; math.Abs(scale-1) > 1e-12 {
		return formatFloat(scale) + g.prof.Operators.Times + code
	}
	return code
}

func formatFloat(f float64) string {
	return formatNumber(strconv.FormatFloat(f, 'g', -1, 64))
}

func componentName(v *model.Variable) string {
	if c := v.Component(); c != nil {
		return c.Name
	}
	return ""
}
