package vocab

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsLowercase(t *testing.T) {
	v := Default()
	lists := map[string][]string{
		"ai_disclosure": v.AIDisclosure,
		"forbidden":     v.Forbidden,
		"metabolic":     v.Metabolic,
		"ehr_vendors":   v.EHRVendors,
		"foreign_pops":  v.ForeignPOPs,
	}
	for name, terms := range lists {
		require.NotEmpty(t, terms, name)
		for _, term := range terms {
			assert.Equal(t, strings.ToLower(term), term, "%s term %q", name, term)
		}
	}
}

func TestLoadFile(t *testing.T) {
	t.Run("empty path returns defaults", func(t *testing.T) {
		v, err := LoadFile("")
		require.NoError(t, err)
		assert.Equal(t, Default(), v)
	})

	t.Run("overlay replaces only listed sets", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "vocab.yaml")
		content := "forbidden:\n  - Credit Score\n  - Social Credit\n  - credit score\nmetabolic: []\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		v, err := LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"credit score", "social credit"}, v.Forbidden)
		assert.Equal(t, Default().Metabolic, v.Metabolic)
		assert.Equal(t, Default().AIDisclosure, v.AIDisclosure)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("forbidden: [unterminated"), 0o600))
		_, err := LoadFile(path)
		assert.Error(t, err)
	})
}
