// Package core defines the shared language of the cellgen system.
//
// This package contains:
//   - Diagnostic entities (Severity, Issue, Item, ReferenceCode)
//   - The reference codes reported by the analyser, generator and tracker
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
