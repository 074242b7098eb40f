package output

import (
	"bytes"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/cellgen/pkg/core"
)

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

func TestEffectiveMode(t *testing.T) {
	tests := []struct {
		mode  Mode
		isTTY bool
		want  Mode
	}{
		{ModeAuto, true, ModeText},
		{ModeAuto, false, ModeMarkdown},
		{"", false, ModeMarkdown},
		{ModeJSON, true, ModeJSON},
		{ModeText, false, ModeText},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			r := NewRendererWithTTY(&bytes.Buffer{}, &bytes.Buffer{}, tt.isTTY, tt.mode)
			assert.Equal(t, tt.want, r.EffectiveMode())
		})
	}
}

func TestNewRenderer_BufferIsNotATerminal(t *testing.T) {
	r := NewRenderer(&bytes.Buffer{}, &bytes.Buffer{}, ModeAuto)
	assert.False(t, r.IsTTY())
	assert.Equal(t, ModeMarkdown, r.EffectiveMode())
}

func TestTable(t *testing.T) {
	header := []string{"Variable", "Type"}
	rows := [][]string{{"main.x", "state"}, {"main.a", "algebraic"}}

	t.Run("markdown", func(t *testing.T) {
		var out bytes.Buffer
		r := NewRendererWithTTY(&out, &bytes.Buffer{}, false, ModeMarkdown)
		r.Table(header, rows)

		assert.Contains(t, out.String(), "| Variable | Type |")
		assert.Contains(t, out.String(), "| main.x | state |")
	})

	t.Run("text", func(t *testing.T) {
		var out bytes.Buffer
		r := NewRendererWithTTY(&out, &bytes.Buffer{}, false, ModeText)
		r.Table(header, rows)

		assert.Contains(t, out.String(), "main.a")
		assert.Contains(t, out.String(), "┌")
	})
}

func TestNonTTYHasNoANSI(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRendererWithTTY(&out, &errOut, false, ModeText)

	r.Header(1, "Analysis")
	r.Success("done")
	r.Warning("careful")
	r.Error("failed")
	r.Println(r.Styles().Severity(core.SeverityError).Render("x"))

	assert.False(t, ansiPattern.MatchString(out.String()), "stdout: %q", out.String())
	assert.False(t, ansiPattern.MatchString(errOut.String()), "stderr: %q", errOut.String())
	assert.Contains(t, errOut.String(), "Warning: careful")
	assert.Contains(t, errOut.String(), "Error: failed")
	assert.Contains(t, out.String(), "✓ done")
}

func TestHeader_Markdown(t *testing.T) {
	var out bytes.Buffer
	r := NewRendererWithTTY(&out, &bytes.Buffer{}, false, ModeAuto)
	r.Header(2, "Equations")
	assert.Equal(t, "## Equations\n\n", out.String())
}

func TestJSON(t *testing.T) {
	var out bytes.Buffer
	r := NewRendererWithTTY(&out, &bytes.Buffer{}, false, ModeJSON)
	require.NoError(t, r.JSON(map[string]any{"type": "ode"}))
	assert.JSONEq(t, `{"type": "ode"}`, out.String())
	assert.Contains(t, out.String(), "\n  \"type\"")
}

func TestSeverityStyles(t *testing.T) {
	s := NewRendererWithTTY(&bytes.Buffer{}, &bytes.Buffer{}, false, ModeText).Styles()
	assert.Equal(t, s.Error, s.Severity(core.SeverityError))
	assert.Equal(t, s.Warning, s.Severity(core.SeverityWarning))
	assert.Equal(t, s.Info, s.Severity(core.SeverityMessage))
	assert.Equal(t, s.Muted, s.Severity(core.SeverityHint))
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "### Level 1", FormatHeader(3, "Level 1"))
	assert.Equal(t, "# Top", FormatHeader(0, "Top"))
	assert.Equal(t, "- **Type**: ode", FormatKeyValue("Type", "ode"))
}
