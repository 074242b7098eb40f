// Package analyser classifies the variables and equations of a model.
//
// Analyse builds one working node per equivalence class of variables and one
// per equation, then runs a fixpoint propagation that resolves every
// equation with a single isolated unknown. Equations that cannot be isolated
// are grouped into nonlinear (NLA) systems. The outcome is frozen into an
// immutable Model: an arena of variables and equations whose relations are
// integer indices, so dependency cycles inside NLA systems need no back
// pointers.
package analyser
