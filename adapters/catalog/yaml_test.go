package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kenobase/domain/core"
	"kenobase/domain/ecosystem"
	apperrors "kenobase/internal/errors"
)

func TestParse(t *testing.T) {
	c, err := Parse([]byte(`
games:
  KENO: {pool_max: 70, draw_size: 20, cadence: daily}
  POWERBALL: {pool_max: 69, draw_size: 5}
controls: [POWERBALL]
`))
	require.NoError(t, err)

	keno, ok := c.Lookup("KENO")
	require.True(t, ok)
	assert.Equal(t, ecosystem.GameSpec{PoolMax: 70, DrawSize: 20, Cadence: "daily"}, keno)
	assert.True(t, c.IsControl("POWERBALL"))
	assert.False(t, c.IsControl("KENO"))
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown field", "games:\n  KENO: {pool_mx: 70}\n"},
		{"negative pool", "games:\n  KENO: {pool_max: -1, draw_size: 20}\n"},
		{"empty control", "controls: ['']\n"},
		{"malformed", "games: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}

	_, err := Parse([]byte("games:\n  KENO: {pool_max: -1}\n"))
	assert.True(t, errors.Is(err, core.ErrInvalidCatalog))
}

func TestLoadFile(t *testing.T) {
	t.Run("empty path yields default", func(t *testing.T) {
		c, err := LoadFile("")
		require.NoError(t, err)
		assert.Equal(t, ecosystem.DefaultCatalog(), *c)
	})

	t.Run("round trip through Encode", func(t *testing.T) {
		data, err := Encode(ecosystem.DefaultCatalog())
		require.NoError(t, err)
		path := filepath.Join(t.TempDir(), "catalog.yaml")
		require.NoError(t, os.WriteFile(path, data, 0o644))

		c, err := LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, ecosystem.DefaultCatalog(), *c)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Equal(t, apperrors.CodeCatalogInvalid, apperrors.GetCode(err))
	})
}
