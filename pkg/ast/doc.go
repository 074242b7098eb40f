// Package ast defines the equation syntax tree.
//
// Node is a sealed sum type: the concrete kinds are Assign, Binary, Unary,
// Func, Root, Log, Diff, Piecewise, Ref, Number and Constant. Consumers
// dispatch with Accept and a Visitor, so adding a kind forces every consumer
// to handle it before the module compiles again.
package ast
