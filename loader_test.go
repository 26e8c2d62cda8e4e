package mdhavers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeModule(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestLoaderDetectsCircularImport(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "a.braw", `fetch "b"`)
	writeModule(t, dir, "b.braw", `fetch "a"`)
	entry := writeModule(t, dir, "main.braw", `fetch "a"`)

	interp := New()
	err := interp.RunFile(entry)
	require.Error(t, err)
	var cyc *CircularImport
	require.ErrorAs(t, err, &cyc)
	assert.Contains(t, cyc.Path, "a.braw")
	assert.Contains(t, cyc.Path, "b.braw")
}

func TestLoaderMergesExportsWithoutAlias(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "greet.braw", `ken greeting = "hullo"
dae shout() { gie greeting }`)
	entry := writeModule(t, dir, "main.braw", `fetch "greet"
blether greeting
blether shout()`)

	interp := New()
	require.NoError(t, interp.RunFile(entry))
	assert.Equal(t, "hullo\nhullo\n", interp.Output())
}

func TestLoaderAliasesExportsAsSortedDict(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "mathy.braw", `ken zed = 1
ken alpha = 2`)
	entry := writeModule(t, dir, "main.braw", `fetch "mathy" tae m
blether keys(m)`)

	interp := New()
	require.NoError(t, interp.RunFile(entry))
	assert.Equal(t, "[\"alpha\", \"zed\"]\n", interp.Output())
}

func TestLoaderCachesModuleAcrossMultipleFetches(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "counter.braw", `ken n = atomic_new(0)
atomic_add(n, 1)`)
	entry := writeModule(t, dir, "main.braw", `fetch "counter" tae c1
fetch "counter" tae c2
blether atomic_load(c1["n"])
blether atomic_load(c2["n"])`)

	interp := New()
	require.NoError(t, interp.RunFile(entry))
	// both aliases observe the same run of counter.braw, not two independent ones
	assert.Equal(t, "1\n1\n", interp.Output())
}

func TestLoaderMissingModuleIsRuntimeError(t *testing.T) {
	dir := t.TempDir()
	entry := writeModule(t, dir, "main.braw", `fetch "does_not_exist"`)

	interp := New()
	err := interp.RunFile(entry)
	require.Error(t, err)
}

// A nested fetch resolves relative to the importing module's own
// directory, not the root program's directory: pkg/outer.braw's
// `fetch "sibling"` must find pkg/sibling.braw, a file that does not
// exist anywhere under the root directory itself.
func TestLoaderNestedFetchResolvesAgainstImportingFileDir(t *testing.T) {
	root := t.TempDir()
	pkg := filepath.Join(root, "pkg")
	require.NoError(t, os.Mkdir(pkg, 0o755))

	writeModule(t, pkg, "sibling.braw", `ken value = "from sibling"`)
	writeModule(t, pkg, "outer.braw", `fetch "sibling"
ken relayed = value`)
	entry := writeModule(t, root, "main.braw", `fetch "pkg/outer"
blether relayed`)

	interp := New()
	require.NoError(t, interp.RunFile(entry))
	assert.Equal(t, "from sibling\n", interp.Output())
}
