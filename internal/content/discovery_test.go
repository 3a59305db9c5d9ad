package content

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDiscover_FindsMarkdownAndAssets(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "index.md", "# Home")
	writeFile(t, dir, "posts/hello.md", "# Hello")
	writeFile(t, dir, "posts/diagram.png", "png-bytes")
	writeFile(t, dir, "posts/notes.xyz", "ignored")

	docs, err := Discover(dir)
	require.NoError(t, err)
	require.Len(t, docs, 3)

	byRel := map[string]Document{}
	for _, d := range docs {
		byRel[d.RelativePath] = d
	}

	require.Equal(t, "", byRel["index.md"].Section)
	require.Equal(t, "posts", byRel["posts/hello.md"].Section)
	require.Equal(t, "hello", byRel["posts/hello.md"].Name)
	require.False(t, byRel["posts/hello.md"].IsAsset)
	require.True(t, byRel["posts/diagram.png"].IsAsset)
	require.Equal(t, []byte("# Hello"), byRel["posts/hello.md"].Content)
}

func TestDiscover_SortedByRelativePath(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "z.md", "z")
	writeFile(t, dir, "a.md", "a")
	writeFile(t, dir, "posts/m.md", "m")

	docs, err := Discover(dir)
	require.NoError(t, err)
	require.Equal(t, "a.md", docs[0].RelativePath)
	require.Equal(t, "posts/m.md", docs[1].RelativePath)
	require.Equal(t, "z.md", docs[2].RelativePath)
}

func TestDiscover_SkipsHiddenAndUnderscoreDirs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ok.md", "ok")
	writeFile(t, dir, ".git/config.md", "no")
	writeFile(t, dir, "_drafts/wip.md", "no")
	writeFile(t, dir, "posts/.hidden.md", "no")

	docs, err := Discover(dir)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, "ok.md", docs[0].RelativePath)
}

func TestDiscover_MissingDirectory_ReturnsError(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}
