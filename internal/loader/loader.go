// Package loader reads model documents from disk.
//
// A document declares units, a tree of components with their variables and
// equations, connections between variables and the variables supplied by the
// external-variable callback. Two formats describe the same document and are
// chosen by file extension: YAML (.yaml, .yml) and HCL (.hcl).
//
// YAML:
//
//	name: two_states
//	components:
//	  - name: main
//	    variables:
//	      - {name: t, units: second}
//	      - {name: x, units: dimensionless, initial: 1}
//	    equations:
//	      - diff(x, t) = -x
//
// HCL:
//
//	name = "two_states"
//	component "main" {
//	  variable "t" { units = "second" }
//	  variable "x" {
//	    units   = "dimensionless"
//	    initial = 1
//	  }
//	  equations = ["diff(x, t) = -x"]
//	}
package loader

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/cellgen/pkg/analyser"
	"github.com/leapstack-labs/cellgen/pkg/model"
)

// ErrUnsupportedFormat is returned for files whose extension names no format.
var ErrUnsupportedFormat = errors.New("unsupported model format")

// Format is a document syntax.
type Format int

// Document formats.
const (
	FormatYAML Format = iota
	FormatHCL
)

func (f Format) String() string {
	switch f {
	case FormatYAML:
		return "yaml"
	case FormatHCL:
		return "hcl"
	default:
		return "unknown"
	}
}

// FormatOf returns the format of a file from its extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".hcl":
		return FormatHCL, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
}

// IsModelFile reports whether path has a model document extension.
func IsModelFile(path string) bool {
	_, err := FormatOf(path)
	return err == nil
}

// Source is a loaded document.
type Source struct {
	Path   string
	Format Format
	// Hash identifies the file content.
	Hash      string
	Model     *model.Model
	Externals []analyser.External
}

// LoadError reports a document that cannot be loaded.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Load reads and builds the document at path.
func Load(path string) (*Source, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	src, err := Parse(path, data, format)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return src, nil
}

// Parse builds a document from data. The file name is used for diagnostics
// and as the default model name.
func Parse(filename string, data []byte, format Format) (*Source, error) {
	var (
		doc *document
		err error
	)
	switch format {
	case FormatYAML:
		doc, err = decodeYAML(data)
	case FormatHCL:
		doc, err = decodeHCL(filename, data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}
	doc.applyDefaults(filename)

	m, externals, err := doc.build()
	if err != nil {
		return nil, err
	}
	return &Source{
		Path:      filename,
		Format:    format,
		Hash:      computeHash(data),
		Model:     m,
		Externals: externals,
	}, nil
}

// Discover returns the model documents under root, in lexical order.
func Discover(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{root}, nil
	}
	var paths []string
	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if IsModelFile(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discovering models in %s: %w", root, err)
	}
	return paths, nil
}

// computeHash generates a SHA256 hash of content.
func computeHash(content []byte) string {
	h := sha256.Sum256(content)
	return hex.EncodeToString(h[:8])
}
