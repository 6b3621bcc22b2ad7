package words

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKeepsCaseAndSkipsNoise(t *testing.T) {
	in := `# comment
apple

  Banana
jazz2
ice cream
Éclair
`
	got, skipped, err := Parse(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []string{"apple", "Banana", "Éclair"}, got)
	assert.Equal(t, 2, skipped)
}

func TestParseEmpty(t *testing.T) {
	_, _, err := Parse(strings.NewReader("# nothing\n123\n"))
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestLoadEmbeddedDefault(t *testing.T) {
	got, skipped, err := Load("")
	require.NoError(t, err)
	assert.Len(t, got, 20)
	assert.Zero(t, skipped)
	assert.Contains(t, got, "apple")
	assert.Contains(t, got, "treasure")
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.txt")
	require.NoError(t, os.WriteFile(path, []byte("go\nrust\n"), 0o600))

	got, _, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "rust"}, got)

	_, _, err = Load(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestInitAndList(t *testing.T) {
	require.NoError(t, Init(""))
	n, skipped := Stats()
	assert.Equal(t, 20, n)
	assert.Zero(t, skipped)

	all := List()
	require.Len(t, all, n)
	all[0] = "mutated"
	assert.NotEqual(t, "mutated", List()[0], "List returns a copy")
}
