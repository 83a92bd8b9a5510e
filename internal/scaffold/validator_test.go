package scaffold

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yazin123/nesa/internal/config"
)

func TestCheckExisting(t *testing.T) {
	tests := []struct {
		name     string
		files    []string
		wantErr  bool
		contains []string
	}{
		{name: "clean directory", wantErr: false},
		{name: "nesa.yml exists", files: []string{config.DefaultFile}, wantErr: true, contains: []string{"Found existing: nesa.yml", "nesa init --force"}},
		{name: "both exist", files: []string{config.DefaultFile, EnvExampleFile}, wantErr: true, contains: []string{"Found existing files:", "  - .env.example"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdirForTest(t, t.TempDir())
			for _, f := range tt.files {
				require.NoError(t, os.WriteFile(f, []byte("x"), 0644))
			}

			err := CheckExisting()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, c := range tt.contains {
				assert.Contains(t, err.Error(), c)
			}
		})
	}
}
