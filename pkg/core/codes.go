package core

// ReferenceCode is the machine-readable identifier of an issue.
type ReferenceCode string

// Analyser reference codes.
const (
	CodeAnalyserNullModel                       ReferenceCode = "analyser-null-model"
	CodeAnalyserEquationNotEqualityStatement    ReferenceCode = "analyser-equation-not-equality-statement"
	CodeAnalyserVariableInitialisedMoreThanOnce ReferenceCode = "analyser-variable-initialised-more-than-once"
	CodeAnalyserVariableNonConstantInit         ReferenceCode = "analyser-variable-non-constant-initialisation"
	CodeAnalyserVoiInitialised                  ReferenceCode = "analyser-voi-initialised"
	CodeAnalyserVoiSeveral                      ReferenceCode = "analyser-voi-several"
	CodeAnalyserOdeNotFirstOrder                ReferenceCode = "analyser-ode-not-first-order"
	CodeAnalyserVariableUnused                  ReferenceCode = "analyser-variable-unused"
	CodeAnalyserStateNotInitialised             ReferenceCode = "analyser-state-not-initialised"
	CodeAnalyserVariableComputedMoreThanOnce    ReferenceCode = "analyser-variable-computed-more-than-once"
	CodeAnalyserExternalVariableDifferentModel  ReferenceCode = "analyser-external-variable-different-model"
	CodeAnalyserExternalVariableVoi             ReferenceCode = "analyser-external-variable-voi"
	CodeAnalyserExternalVariableUsePrimary      ReferenceCode = "analyser-external-variable-use-primary-variable"
	CodeAnalyserUnits                           ReferenceCode = "analyser-units"
)

// Document reference codes.
const (
	CodeModelUnitsUndefined    ReferenceCode = "model-units-undefined"
	CodeModelVariableUndefined ReferenceCode = "model-variable-undefined"
	CodeModelDuplicateName     ReferenceCode = "model-duplicate-name"
)

// Generator and tracking reference codes.
const (
	CodeGeneratorNullModel                  ReferenceCode = "generator-null-model"
	CodeGeneratorNullVariable               ReferenceCode = "generator-null-variable"
	CodeGeneratorTrackingVoi                ReferenceCode = "generator-tracking-voi"
	CodeGeneratorTrackingState              ReferenceCode = "generator-tracking-state"
	CodeGeneratorTrackingExternal           ReferenceCode = "generator-tracking-external"
	CodeGeneratorTrackingNla                ReferenceCode = "generator-tracking-nla"
	CodeGeneratorTrackingNeededByExternal   ReferenceCode = "generator-tracking-needed-by-external"
	CodeGeneratorTrackingVariableNotInModel ReferenceCode = "generator-tracking-variable-not-in-model"
)
