package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscover_Directory(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.yaml", "a.yml", "notes.txt", "sub/c.yaml"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	}

	files, err := Discover(dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.yml"),
		filepath.Join(dir, "b.yaml"),
		filepath.Join(dir, "sub", "c.yaml"),
	}, files)
}

func TestDiscover_Filter(t *testing.T) {
	files, err := Discover("testdata/scenarios", "feed")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join("testdata", "scenarios", "feed_by_kind.yaml"),
		filepath.Join("testdata", "scenarios", "feed_union.yaml"),
	}, files)
}

func TestDiscover_File(t *testing.T) {
	files, err := Discover("testdata/scenarios/dashboard.yaml", "ignored")
	require.NoError(t, err)
	assert.Equal(t, []string{"testdata/scenarios/dashboard.yaml"}, files)
}

func TestDiscover_NotFound(t *testing.T) {
	_, err := Discover("testdata/nope", "")
	require.Error(t, err)

	var nf *ScenarioNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, `scenario path "testdata/nope" does not exist`, err.Error())
}
