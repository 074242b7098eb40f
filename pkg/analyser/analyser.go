package analyser

import (
	"context"
	"log/slog"

	"github.com/leapstack-labs/cellgen/pkg/core"
	"github.com/leapstack-labs/cellgen/pkg/model"
	"github.com/leapstack-labs/cellgen/pkg/units"
)

// analyser holds the working graph of a single Analyse call.
type analyser struct {
	cfg      config
	src      *model.Model
	registry *units.Registry
	result   *Model

	variables []*internalVariable
	equations []*internalEquation
	classes   map[*model.Variable]*internalVariable

	voi          *model.Variable
	rejectedVois []*internalVariable

	stateIndex    int
	variableIndex int
}

// Analyse classifies the variables and equations of m. It never fails:
// problems are reported as issues of the returned model, whose type tells
// whether code can be generated from it. Analyse does not modify m.
func Analyse(ctx context.Context, m *model.Model, opts ...Option) *Model {
	cfg := config{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&cfg)
	}

	a := &analyser{
		cfg:           cfg,
		src:           m,
		result:        newModel(m),
		classes:       map[*model.Variable]*internalVariable{},
		stateIndex:    -1,
		variableIndex: -1,
	}
	if m == nil {
		a.addIssue(core.Issue{
			Severity:    core.SeverityError,
			Code:        core.CodeAnalyserNullModel,
			Description: "The model is null.",
			Item:        core.Item{Kind: core.ItemModel},
		})
		return a.result
	}

	a.run(ctx)

	cfg.logger.DebugContext(ctx, "model analysed",
		"model", m.Name,
		"type", a.result.Type.String(),
		"states", len(a.result.states),
		"variables", len(a.result.variables),
		"equations", len(a.result.equations),
		"issues", len(a.result.issues))

	return a.result
}

func (a *analyser) run(ctx context.Context) {
	a.registry = units.NewRegistry(a.src)
	a.result.registry = a.registry
	a.addIssues(model.Validate(a.src))
	a.addIssues(a.registry.Validate(a.src))
	if a.hasErrors() {
		a.result.Type = ModelInvalid
		return
	}

	for _, c := range a.src.Components {
		a.analyseComponent(c)
	}
	for _, c := range a.src.Components {
		a.analyseComponentVariables(c)
	}
	if a.hasErrors() {
		a.result.Type = ModelInvalid
		return
	}

	primaries, requested := a.markExternals()

	for _, e := range a.equations {
		a.analyseEquationAst(e)
	}
	if a.hasErrors() {
		a.result.Type = ModelInvalid
		return
	}

	a.checkExternals(primaries, requested)
	a.checkUnits()

	a.propagate(ctx)
	a.checkVariables()

	a.resolveNlaSystems(ctx)
	a.requalifyConstants()
	a.checkNlaSystems()

	if a.result.Type == ModelUnknown {
		a.result.Type = a.modelType()
	}

	a.assemble()
}

// modelType classifies a model whose equations were all resolved.
func (a *analyser) modelType() ModelType {
	hasNla := false
	for _, e := range a.equations {
		if e.typ != eqNLA {
			continue
		}
		for _, u := range e.unknowns {
			if !u.external {
				hasNla = true
			}
		}
	}

	switch {
	case a.voi != nil && hasNla:
		return ModelDAE
	case a.voi != nil:
		return ModelODE
	case len(a.variables) == 0:
		return ModelUnknown
	case hasNla:
		return ModelNLA
	default:
		return ModelAlgebraic
	}
}

func (a *analyser) addIssue(issue core.Issue) {
	a.result.issues = append(a.result.issues, issue)
}

func (a *analyser) addIssues(issues core.Issues) {
	a.result.issues = append(a.result.issues, issues...)
}

func (a *analyser) hasErrors() bool {
	return a.result.issues.HasErrors()
}
