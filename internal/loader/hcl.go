package loader

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// hclDocument is the HCL shape of a document. Blocks carry their name as a
// label.
type hclDocument struct {
	Name        string           `hcl:"name,optional"`
	Units       []*hclUnits      `hcl:"units,block"`
	Components  []*hclComponent  `hcl:"component,block"`
	Connections []*hclConnection `hcl:"connection,block"`
	Externals   []*hclExternal   `hcl:"external,block"`
}

type hclUnits struct {
	Name  string     `hcl:"name,label"`
	Items []*hclUnit `hcl:"unit,block"`
}

type hclUnit struct {
	Reference  string         `hcl:"reference,attr"`
	Prefix     hcl.Expression `hcl:"prefix,optional"`
	Exponent   float64        `hcl:"exponent,optional"`
	Multiplier float64        `hcl:"multiplier,optional"`
}

type hclComponent struct {
	Name       string          `hcl:"name,label"`
	Variables  []*hclVariable  `hcl:"variable,block"`
	Equations  []string        `hcl:"equations,optional"`
	Components []*hclComponent `hcl:"component,block"`
}

type hclVariable struct {
	Name    string         `hcl:"name,label"`
	Units   string         `hcl:"units,optional"`
	Initial hcl.Expression `hcl:"initial,optional"`
}

type hclConnection struct {
	From string `hcl:"from,attr"`
	To   string `hcl:"to,attr"`
}

type hclExternal struct {
	Variable     string   `hcl:"variable,label"`
	Dependencies []string `hcl:"dependencies,optional"`
}

// decodeHCL parses and decodes an HCL document.
func decodeHCL(filename string, data []byte) (*document, error) {
	file, diags := hclparse.NewParser().ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL: %w", diags)
	}

	var raw hclDocument
	if diags := gohcl.DecodeBody(file.Body, nil, &raw); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %w", diags)
	}

	doc := &document{Name: raw.Name}
	for _, u := range raw.Units {
		ud := unitsDoc{Name: u.Name}
		for _, item := range u.Items {
			prefix, diags := scalarText(item.Prefix)
			if diags.HasErrors() {
				return nil, fmt.Errorf("units %q: prefix: %w", u.Name, diags)
			}
			ud.Items = append(ud.Items, unitDoc{
				Reference:  item.Reference,
				Prefix:     prefix,
				Exponent:   item.Exponent,
				Multiplier: item.Multiplier,
			})
		}
		doc.Units = append(doc.Units, ud)
	}
	for _, c := range raw.Components {
		cd, err := c.document()
		if err != nil {
			return nil, err
		}
		doc.Components = append(doc.Components, cd)
	}
	for _, c := range raw.Connections {
		doc.Connections = append(doc.Connections, connectionDoc{From: c.From, To: c.To})
	}
	for _, e := range raw.Externals {
		doc.Externals = append(doc.Externals, externalDoc{Variable: e.Variable, Dependencies: e.Dependencies})
	}
	return doc, nil
}

func (c *hclComponent) document() (componentDoc, error) {
	cd := componentDoc{Name: c.Name, Equations: c.Equations}
	for _, v := range c.Variables {
		initial, diags := scalarText(v.Initial)
		if diags.HasErrors() {
			return cd, fmt.Errorf("component %q, variable %q: initial: %w", c.Name, v.Name, diags)
		}
		cd.Variables = append(cd.Variables, variableDoc{Name: v.Name, Units: v.Units, Initial: initial})
	}
	for _, child := range c.Components {
		ccd, err := child.document()
		if err != nil {
			return cd, err
		}
		cd.Components = append(cd.Components, ccd)
	}
	return cd, nil
}

// scalarText renders an attribute holding a number, a string or a bare
// identifier. A missing attribute yields "".
func scalarText(expr hcl.Expression) (string, hcl.Diagnostics) {
	if expr == nil {
		return "", nil
	}
	if kw := hcl.ExprAsKeyword(expr); kw != "" {
		return kw, nil
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return "", diags
	}
	if val.IsNull() {
		return "", nil
	}
	switch val.Type() {
	case cty.Number:
		return val.AsBigFloat().Text('g', -1), nil
	case cty.String:
		return val.AsString(), nil
	}
	return "", hcl.Diagnostics{{
		Severity: hcl.DiagError,
		Summary:  "Invalid value",
		Detail:   fmt.Sprintf("Expected a number, a string or a variable name, got %s.", val.Type().FriendlyName()),
		Subject:  expr.Range().Ptr(),
	}}
}
