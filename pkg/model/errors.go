package model

import "errors"

// ErrNotFound is returned when a component or variable path does not resolve.
var ErrNotFound = errors.New("not found")
