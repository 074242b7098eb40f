package profile

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/go-viper/mapstructure/v2"
)

// Profile registry
var (
	profilesMu sync.RWMutex
	profiles   = make(map[string]*Profile)
)

// ErrProfileNotFound is returned when no profile is registered under a name.
var ErrProfileNotFound = errors.New("profile not found")

// Register registers a profile in the global registry.
// Called by builtin profiles in their init() functions.
func Register(p *Profile) {
	profilesMu.Lock()
	defer profilesMu.Unlock()
	profiles[strings.ToLower(p.Name)] = p
}

// Get returns a copy of the profile registered under name.
func Get(name string) (*Profile, error) {
	profilesMu.RLock()
	defer profilesMu.RUnlock()
	p, ok := profiles[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrProfileNotFound, name)
	}
	return p.Clone(), nil
}

// List returns all registered profile names (sorted).
func List() []string {
	profilesMu.RLock()
	defer profilesMu.RUnlock()
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Overrides are partial profile settings keyed like the mapstructure tags of
// Profile, as read from a configuration file:
//
//	profiles:
//	  c:
//	    operators:
//	      min: fmin
//	    templates:
//	      interface_file_name: cell.h
type Overrides map[string]any

// Apply returns a copy of p with the overrides decoded on top of it. Unknown
// keys are an error. Functions and helpers are merged key by key.
func (p *Profile) Apply(o Overrides) (*Profile, error) {
	c := p.Clone()
	if len(o) == 0 {
		return c, nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           c,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return nil, fmt.Errorf("creating decoder: %w", err)
	}
	if err := dec.Decode(map[string]any(o)); err != nil {
		return nil, fmt.Errorf("applying %s profile overrides: %w", p.Name, err)
	}
	return c, nil
}

// Resolve looks up a registered profile and applies its overrides.
func Resolve(name string, o Overrides) (*Profile, error) {
	p, err := Get(name)
	if err != nil {
		return nil, err
	}
	return p.Apply(o)
}
