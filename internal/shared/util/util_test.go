package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePatternPath(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"":                      "",
		".":                     "",
		"  ./Assets/Scripts  ":  "Assets/Scripts",
		"Assets/../Packages":    "Packages",
		`Assets\Scripts\Npc.cs`: "Assets/Scripts/Npc.cs",
	}
	for input, want := range cases {
		assert.Equal(t, want, NormalizePatternPath(input), "input %q", input)
	}
}

func TestSortedStringKeys(t *testing.T) {
	t.Parallel()

	keys := SortedStringKeys(map[string]bool{"output.path": true, "input.paths": true, "manifest.format": false})
	assert.Equal(t, []string{"input.paths", "manifest.format", "output.path"}, keys)
	assert.Empty(t, SortedStringKeys(map[string]int{}))
}

func TestWriteWithDirs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	bin := filepath.Join(dir, "Generated", "actions.json")
	require.NoError(t, WriteFileWithDirs(bin, []byte("[]"), 0o644))
	got, err := os.ReadFile(bin)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(got))

	src := filepath.Join(dir, "Assets", "Generated", "ActionRegistration.cs")
	require.NoError(t, WriteStringWithDirs(src, "// generated\n", 0o644))
	got, err = os.ReadFile(src)
	require.NoError(t, err)
	assert.Equal(t, "// generated\n", string(got))

	require.NoError(t, WriteStringWithDirs(src, "// replaced\n", 0o644))
	got, err = os.ReadFile(src)
	require.NoError(t, err)
	assert.Equal(t, "// replaced\n", string(got))
}

func TestGetHeapAllocMB(t *testing.T) {
	t.Parallel()

	buf := make([]byte, 4<<20)
	buf[len(buf)-1] = 1
	assert.GreaterOrEqual(t, GetHeapAllocMB(), uint64(1))
	assert.Equal(t, byte(1), buf[len(buf)-1])
}
