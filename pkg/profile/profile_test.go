package profile_test

import (
	"testing"

	"github.com/leapstack-labs/cellgen/pkg/profile"
	_ "github.com/leapstack-labs/cellgen/pkg/profiles/c"
	_ "github.com/leapstack-labs/cellgen/pkg/profiles/python"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{"c", "python"}, profile.List())

	p, err := profile.Get("C")
	require.NoError(t, err)
	assert.Equal(t, "c", p.Name)
	assert.True(t, p.HasInterface)

	_, err = profile.Get("fortran")
	require.ErrorIs(t, err, profile.ErrProfileNotFound)
	assert.Contains(t, err.Error(), `"fortran"`)
}

func TestGet_ReturnsCopy(t *testing.T) {
	p, err := profile.Get("python")
	require.NoError(t, err)
	p.Operators.Min = "minimum"
	p.Functions["abs"] = "abs"

	again, err := profile.Get("python")
	require.NoError(t, err)
	assert.Equal(t, "min", again.Operators.Min)
	assert.Equal(t, "fabs", again.Functions["abs"])
}

func TestFunction(t *testing.T) {
	p, err := profile.Get("c")
	require.NoError(t, err)
	assert.Equal(t, "fabs", p.Function("abs"))
	assert.Equal(t, "sin", p.Function("sin"))
}

func TestApply(t *testing.T) {
	tests := []struct {
		name    string
		in      profile.Overrides
		check   func(t *testing.T, p *profile.Profile)
		wantErr string
	}{
		{
			name: "nested fields",
			in: profile.Overrides{
				"operators": map[string]any{
					"min": "fmin",
					"xor": map[string]any{"text": " ^ ", "infix": true},
				},
				"templates": map[string]any{"interface_file_name": "cell.h"},
			},
			check: func(t *testing.T, p *profile.Profile) {
				assert.Equal(t, "fmin", p.Operators.Min)
				assert.Equal(t, profile.Operator{Text: " ^ ", Infix: true}, p.Operators.Xor)
				assert.Equal(t, "cell.h", p.Templates.InterfaceFileName)
				// untouched fields keep their values
				assert.Equal(t, "fmod", p.Operators.Rem)
				assert.Equal(t, "NAN", p.Constants.NaN)
			},
		},
		{
			name: "maps are merged",
			in:   profile.Overrides{"functions": map[string]any{"exp": "expf"}},
			check: func(t *testing.T, p *profile.Profile) {
				assert.Equal(t, "expf", p.Function("exp"))
				assert.Equal(t, "fabs", p.Function("abs"))
			},
		},
		{
			name: "weakly typed values",
			in:   profile.Overrides{"has_interface": "false"},
			check: func(t *testing.T, p *profile.Profile) {
				assert.False(t, p.HasInterface)
			},
		},
		{
			name:    "unknown key",
			in:      profile.Overrides{"operatorz": map[string]any{}},
			wantErr: "operatorz",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := profile.Resolve("c", tt.in)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, p)
		})
	}

	// the registered profile is never modified
	p, err := profile.Get("c")
	require.NoError(t, err)
	assert.Equal(t, "min", p.Operators.Min)
	assert.Equal(t, "model.h", p.Templates.InterfaceFileName)
	assert.Equal(t, "exp", p.Function("exp"))
}
