// Package model is the in-memory document object graph consumed by the
// analyser: a tree of components holding variables and equations, named
// units definitions, and equivalence links between variables.
package model
