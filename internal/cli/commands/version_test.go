package commands

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/cellgen/pkg/generator"
)

func TestVersionCommand(t *testing.T) {
	tests := []struct {
		version string
		want    string
	}{
		{"0.1.0", "cellgen v0.1.0\n"},
		{"dev", "cellgen vdev\n"},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			cmd := NewVersionCommand(tt.version)
			buf := new(bytes.Buffer)
			cmd.SetOut(buf)

			require.NoError(t, cmd.Execute())
			assert.Equal(t, tt.want+"Generated code version: "+generator.Version+"\n", buf.String())
		})
	}
}
