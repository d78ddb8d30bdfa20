package index

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSnapshotRoundTrip(t *testing.T) {
	t.Parallel()

	ix := New()
	ix.AddDocument(1, []Field{
		{Name: "title", Tokens: []string{"fox"}, Boost: 2.0},
		{Name: "body", Tokens: []string{"quick", "brown", "fox"}, Boost: 1.0},
	})
	ix.AddDocument(2, bodyField("lazy", "dog"))

	path := filepath.Join(t.TempDir(), "index.json")
	require.NoError(t, ix.Save(path))

	restored := New()
	require.NoError(t, restored.Load(path))

	require.Equal(t, ix.DocumentCount(), restored.DocumentCount())
	require.Equal(t, ix.TermCount(), restored.TermCount())
	require.Equal(t, ix.Lookup("fox"), restored.Lookup("fox"))
	require.Equal(t, ix.DocumentFrequency("lazy"), restored.DocumentFrequency("lazy"))
}

func TestLoadCorruptFileLeavesEmptyIndex(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "index.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	ix := New()
	ix.AddDocument(1, bodyField("stale"))
	err := ix.Load(path)
	require.Error(t, err)
	require.Equal(t, 0, ix.DocumentCount(), "corrupt snapshot falls back to an empty index")
	require.Nil(t, ix.Lookup("stale"))
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	ix := New()
	err := ix.Load(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	require.Equal(t, 0, ix.DocumentCount())
}

func TestSaveCreatesParentDirs(t *testing.T) {
	t.Parallel()

	ix := New()
	ix.AddDocument(1, bodyField("hello"))
	path := filepath.Join(t.TempDir(), "nested", "dir", "index.json")
	require.NoError(t, ix.Save(path))

	restored := New()
	require.NoError(t, restored.Load(path))
	require.Equal(t, 1, restored.DocumentCount())
}
