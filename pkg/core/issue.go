package core

import "fmt"

// =============================================================================
// Issue
// =============================================================================

// ItemKind identifies the kind of model entity an issue refers to.
type ItemKind int

// Item kinds.
const (
	ItemModel ItemKind = iota
	ItemComponent
	ItemVariable
	ItemEquation
	ItemUnits
)

// String returns the string representation of the item kind.
func (k ItemKind) String() string {
	switch k {
	case ItemModel:
		return "model"
	case ItemComponent:
		return "component"
	case ItemVariable:
		return "variable"
	case ItemEquation:
		return "equation"
	case ItemUnits:
		return "units"
	default:
		return "unknown"
	}
}

// ParseItemKind converts a string to an ItemKind value.
func ParseItemKind(s string) (ItemKind, bool) {
	for k := ItemModel; k <= ItemUnits; k++ {
		if k.String() == s {
			return k, true
		}
	}
	return ItemModel, false
}

// MarshalText implements encoding.TextMarshaler.
func (k ItemKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *ItemKind) UnmarshalText(text []byte) error {
	v, ok := ParseItemKind(string(text))
	if !ok {
		return fmt.Errorf("unknown item kind %q", text)
	}
	*k = v
	return nil
}

// Item is the model entity an issue is about.
// Ref carries the entity itself for in-process consumers and is never serialised.
type Item struct {
	Kind      ItemKind `json:"kind"`
	Component string   `json:"component,omitempty"`
	Name      string   `json:"name,omitempty"`
	Ref       any      `json:"-"`
}

// String renders the item as component.name, or just the name at model level.
func (i Item) String() string {
	switch {
	case i.Component != "" && i.Name != "":
		return i.Component + "." + i.Name
	case i.Component != "":
		return i.Component
	default:
		return i.Name
	}
}

// Issue is a single diagnostic produced while analysing, generating or tracking.
type Issue struct {
	Severity    Severity      `json:"severity"`
	Code        ReferenceCode `json:"code"`
	Description string        `json:"description"`
	Item        Item          `json:"item"`
}

// Error implements the error interface so an issue can be returned as-is.
func (i Issue) Error() string {
	return fmt.Sprintf("%s [%s]: %s", i.Severity, i.Code, i.Description)
}

// Issues is an ordered list of issues.
type Issues []Issue

// Count returns the number of issues with the given severity.
func (is Issues) Count(s Severity) int {
	n := 0
	for _, i := range is {
		if i.Severity == s {
			n++
		}
	}
	return n
}

// HasErrors reports whether any issue is error-level.
func (is Issues) HasErrors() bool {
	return is.Count(SeverityError) > 0
}

// WithCode returns the issues carrying the given reference code.
func (is Issues) WithCode(code ReferenceCode) Issues {
	var out Issues
	for _, i := range is {
		if i.Code == code {
			out = append(out, i)
		}
	}
	return out
}
