package loader

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/cellgen/pkg/analyser"
	"github.com/leapstack-labs/cellgen/pkg/model"
	"github.com/leapstack-labs/cellgen/pkg/parser"
)

// document is the format-independent form of a model file. Duplicate names
// are left to model.Validate; only what cannot be represented is an error.
type document struct {
	Name        string          `yaml:"name"`
	Units       []unitsDoc      `yaml:"units"`
	Components  []componentDoc  `yaml:"components"`
	Connections []connectionDoc `yaml:"connections"`
	Externals   []externalDoc   `yaml:"externals"`
}

type unitsDoc struct {
	Name  string    `yaml:"name"`
	Items []unitDoc `yaml:"items"`
}

type unitDoc struct {
	Reference  string  `yaml:"reference"`
	Prefix     string  `yaml:"prefix"`
	Exponent   float64 `yaml:"exponent"`
	Multiplier float64 `yaml:"multiplier"`
}

type componentDoc struct {
	Name       string         `yaml:"name"`
	Variables  []variableDoc  `yaml:"variables"`
	Equations  []string       `yaml:"equations"`
	Components []componentDoc `yaml:"components"`
}

type variableDoc struct {
	Name  string `yaml:"name"`
	Units string `yaml:"units"`
	// Initial is a number literal or the name of a variable of the same
	// component.
	Initial string `yaml:"initial"`
}

type connectionDoc struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

type externalDoc struct {
	Variable     string   `yaml:"variable"`
	Dependencies []string `yaml:"dependencies"`
}

// applyDefaults names an unnamed model after its file.
func (d *document) applyDefaults(filename string) {
	if d.Name == "" {
		base := filepath.Base(filename)
		d.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
}

func (d *document) build() (*model.Model, []analyser.External, error) {
	m := model.New(d.Name)

	for i, u := range d.Units {
		if u.Name == "" {
			return nil, nil, fmt.Errorf("units definition %d has no name", i+1)
		}
		def := &model.Units{Name: u.Name}
		for _, item := range u.Items {
			if item.Reference == "" {
				return nil, nil, fmt.Errorf("units %q: item without reference", u.Name)
			}
			def.Items = append(def.Items, model.Unit{
				Reference:  item.Reference,
				Prefix:     item.Prefix,
				Exponent:   item.Exponent,
				Multiplier: item.Multiplier,
			})
		}
		m.AddUnits(def)
	}

	for _, cd := range d.Components {
		c, err := cd.build()
		if err != nil {
			return nil, nil, err
		}
		m.AddComponent(c)
	}

	for _, conn := range d.Connections {
		a, err := ResolveVariable(m, conn.From)
		if err != nil {
			return nil, nil, fmt.Errorf("connection %s-%s: %w", conn.From, conn.To, err)
		}
		b, err := ResolveVariable(m, conn.To)
		if err != nil {
			return nil, nil, fmt.Errorf("connection %s-%s: %w", conn.From, conn.To, err)
		}
		if err := model.Connect(a, b); err != nil {
			return nil, nil, err
		}
	}

	externals := make([]analyser.External, 0, len(d.Externals))
	for _, ed := range d.Externals {
		v, err := ResolveVariable(m, ed.Variable)
		if err != nil {
			return nil, nil, fmt.Errorf("external variable: %w", err)
		}
		ext := analyser.External{Variable: v}
		for _, dep := range ed.Dependencies {
			dv, err := ResolveVariable(m, dep)
			if err != nil {
				return nil, nil, fmt.Errorf("external variable %s: dependency: %w", ed.Variable, err)
			}
			ext.Dependencies = append(ext.Dependencies, dv)
		}
		externals = append(externals, ext)
	}
	return m, externals, nil
}

func (cd componentDoc) build() (*model.Component, error) {
	if cd.Name == "" {
		return nil, fmt.Errorf("component without name")
	}
	c := model.NewComponent(cd.Name)
	for _, vd := range cd.Variables {
		if vd.Name == "" {
			return nil, fmt.Errorf("component %q: variable without name", cd.Name)
		}
		c.AddVariable(vd.Name, vd.Units, strings.TrimSpace(vd.Initial))
	}
	for i, text := range cd.Equations {
		eq, err := parser.ParseEquation(text)
		if err != nil {
			return nil, fmt.Errorf("component %q, equation %d: %w", cd.Name, i+1, err)
		}
		c.AddEquation(eq)
	}
	for _, child := range cd.Components {
		cc, err := child.build()
		if err != nil {
			return nil, err
		}
		c.AddComponent(cc)
	}
	return c, nil
}

// ResolveVariable looks up a "component.variable" path in m.
func ResolveVariable(m *model.Model, path string) (*model.Variable, error) {
	component, name, ok := strings.Cut(path, ".")
	if !ok || component == "" || name == "" {
		return nil, fmt.Errorf("invalid variable path %q, expected component.variable", path)
	}
	return m.Variable(component, name)
}
