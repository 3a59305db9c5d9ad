package site

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/content"
)

func testConfig(t *testing.T, contentDir string) *config.Config {
	t.Helper()
	cfg := &config.Config{
		BaseURL: "https://example.com/",
		Title:   "Test Site",
		Content: config.ContentConfig{Directory: contentDir, StaticDir: filepath.Join(contentDir, "..", "static")},
	}
	cfg.ApplyDefaults()
	cfg.Content.Directory = contentDir
	return cfg
}

func writeDoc(t *testing.T, contentDir, rel, content string) {
	t.Helper()
	path := filepath.Join(contentDir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func runBuild(t *testing.T, cfg *config.Config, outDir string) *Report {
	t.Helper()
	report, err := NewBuilder(cfg, outDir).Build(context.Background())
	require.NoError(t, err)
	return report
}

func readOutput(t *testing.T, outDir, rel string) string {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join(outDir, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(raw)
}

func TestBuild_RendersOneHTMLArtifactPerDocument(t *testing.T) {
	dir := t.TempDir()
	contentDir := filepath.Join(dir, "content")
	writeDoc(t, contentDir, "posts/first.md", "---\ntitle: First\ndate: 2024-01-01\n---\nbody one\n")
	writeDoc(t, contentDir, "posts/second.md", "---\ntitle: Second\ndate: 2024-01-02\n---\nbody two\n")

	outDir := filepath.Join(dir, "public")
	report := runBuild(t, testConfig(t, contentDir), outDir)

	require.Equal(t, 2, report.PagesRendered)
	require.FileExists(t, filepath.Join(outDir, "posts", "first", "index.html"))
	require.FileExists(t, filepath.Join(outDir, "posts", "second", "index.html"))
}

func TestBuild_HeadingRendersToH1(t *testing.T) {
	dir := t.TempDir()
	contentDir := filepath.Join(dir, "content")
	writeDoc(t, contentDir, "hello.md", "---\ntitle: Hello\ndraft: false\n---\n# Hi\n")

	outDir := filepath.Join(dir, "public")
	runBuild(t, testConfig(t, contentDir), outDir)

	html := readOutput(t, outDir, "hello/index.html")
	require.Contains(t, html, `<h1 id="hi">Hi</h1>`)
}

func TestBuild_DraftsExcludedFromAllOutputs(t *testing.T) {
	dir := t.TempDir()
	contentDir := filepath.Join(dir, "content")
	writeDoc(t, contentDir, "posts/published.md", "---\ntitle: Published\ndate: 2024-01-01\n---\nok\n")
	writeDoc(t, contentDir, "posts/secret.md", "---\ntitle: Secret\ndate: 2024-01-02\ndraft: true\n---\nhidden\n")

	outDir := filepath.Join(dir, "public")
	report := runBuild(t, testConfig(t, contentDir), outDir)

	require.Equal(t, 1, report.PagesRendered)
	require.Equal(t, 1, report.DraftsSkipped)
	require.NoFileExists(t, filepath.Join(outDir, "posts", "secret", "index.html"))

	home := readOutput(t, outDir, "index.html")
	require.NotContains(t, home, "Secret")

	feed := readOutput(t, outDir, "index.xml")
	require.NotContains(t, feed, "Secret")
	require.Contains(t, feed, "Published")

	index := readOutput(t, outDir, "index.json")
	require.NotContains(t, index, "Secret")
}

func TestBuild_BuildDraftsIncludesDrafts(t *testing.T) {
	dir := t.TempDir()
	contentDir := filepath.Join(dir, "content")
	writeDoc(t, contentDir, "posts/secret.md", "---\ntitle: Secret\ndraft: true\n---\nhidden\n")

	cfg := testConfig(t, contentDir)
	cfg.BuildDrafts = true

	outDir := filepath.Join(dir, "public")
	report := runBuild(t, cfg, outDir)

	require.Equal(t, 1, report.PagesRendered)
	require.FileExists(t, filepath.Join(outDir, "posts", "secret", "index.html"))
	require.Contains(t, readOutput(t, outDir, "index.html"), "Secret")
}

func TestBuild_Idempotent_ByteIdenticalOutput(t *testing.T) {
	dir := t.TempDir()
	contentDir := filepath.Join(dir, "content")
	writeDoc(t, contentDir, "_index.md", "---\ntitle: Welcome\n---\nintro\n")
	writeDoc(t, contentDir, "posts/a.md", "---\ntitle: A\ndate: 2024-02-01\ntags: [go]\n---\n# A\n")
	writeDoc(t, contentDir, "posts/b.md", "---\ntitle: B\ndate: 2024-02-02\n---\n# B\n")

	cfg := testConfig(t, contentDir)
	outDir := filepath.Join(dir, "public")

	runBuild(t, cfg, outDir)
	first := snapshotTree(t, outDir)

	runBuild(t, cfg, outDir)
	second := snapshotTree(t, outDir)

	require.Equal(t, first, second)
}

func snapshotTree(t *testing.T, root string) map[string]string {
	t.Helper()
	out := map[string]string{}
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, path)
		out[rel] = string(raw)
		return nil
	})
	require.NoError(t, err)
	return out
}

func TestBuild_MenuEntriesInWeightOrder(t *testing.T) {
	dir := t.TempDir()
	contentDir := filepath.Join(dir, "content")
	writeDoc(t, contentDir, "hello.md", "---\ntitle: Hello\n---\nhi\n")

	cfg := testConfig(t, contentDir)
	cfg.Menu = []config.MenuEntry{
		{Name: "Last", URL: "/last/", Weight: 30},
		{Name: "First", URL: "/", Weight: 10},
		{Name: "Middle", URL: "/mid/", Weight: 20},
	}

	outDir := filepath.Join(dir, "public")
	runBuild(t, cfg, outDir)

	html := readOutput(t, outDir, "index.html")
	first := indexOf(t, html, "First")
	middle := indexOf(t, html, "Middle")
	last := indexOf(t, html, "Last")
	require.Less(t, first, middle)
	require.Less(t, middle, last)
}

func indexOf(t *testing.T, haystack, needle string) int {
	t.Helper()
	idx := strings.Index(haystack, needle)
	require.GreaterOrEqual(t, idx, 0, "expected %q in output", needle)
	return idx
}

func TestBuild_MalformedFrontMatter_FailsWithConfigError(t *testing.T) {
	dir := t.TempDir()
	contentDir := filepath.Join(dir, "content")
	writeDoc(t, contentDir, "posts/broken.md", "---\ntitle: Broken\n# no closing delimiter\n")

	outDir := filepath.Join(dir, "public")
	_, err := NewBuilder(testConfig(t, contentDir), outDir).Build(context.Background())
	require.Error(t, err)

	var ce *config.ConfigError
	require.True(t, errors.As(err, &ce))
	require.Equal(t, "posts/broken.md", ce.File)
	require.ErrorIs(t, err, ErrTransform)
}

func TestBuild_PermalinkCollision_GetsDeterministicSuffix(t *testing.T) {
	dir := t.TempDir()
	contentDir := filepath.Join(dir, "content")
	writeDoc(t, contentDir, "posts/a.md", "---\ntitle: Same\nslug: same\n---\none\n")
	writeDoc(t, contentDir, "posts/b.md", "---\ntitle: Same\nslug: same\n---\ntwo\n")

	outDir := filepath.Join(dir, "public")
	report := runBuild(t, testConfig(t, contentDir), outDir)

	require.Equal(t, 2, report.PagesRendered)
	require.FileExists(t, filepath.Join(outDir, "posts", "same", "index.html"))
	require.FileExists(t, filepath.Join(outDir, "posts", "same-2", "index.html"))
}

func TestBuild_SectionAndTaxonomyPages(t *testing.T) {
	dir := t.TempDir()
	contentDir := filepath.Join(dir, "content")
	writeDoc(t, contentDir, "posts/_index.md", "---\ntitle: All Posts\n---\nsection intro\n")
	writeDoc(t, contentDir, "posts/a.md", "---\ntitle: A\ndate: 2024-02-01\ntags: [Go Talks]\n---\na\n")

	outDir := filepath.Join(dir, "public")
	runBuild(t, testConfig(t, contentDir), outDir)

	section := readOutput(t, outDir, "posts/index.html")
	require.Contains(t, section, "All Posts")
	require.Contains(t, section, "section intro")

	terms := readOutput(t, outDir, "tags/index.html")
	require.Contains(t, terms, "Go Talks")

	term := readOutput(t, outDir, "tags/go-talks/index.html")
	require.Contains(t, term, ">A</a>")
}

func TestBuild_HomeListingNewestFirst(t *testing.T) {
	dir := t.TempDir()
	contentDir := filepath.Join(dir, "content")
	writeDoc(t, contentDir, "posts/old.md", "---\ntitle: Oldest\ndate: 2023-01-01\n---\nx\n")
	writeDoc(t, contentDir, "posts/new.md", "---\ntitle: Newest\ndate: 2024-01-01\n---\nx\n")

	outDir := filepath.Join(dir, "public")
	runBuild(t, testConfig(t, contentDir), outDir)

	home := readOutput(t, outDir, "index.html")
	require.Less(t, indexOf(t, home, "Newest"), indexOf(t, home, "Oldest"))
}

func TestBuild_MarkdownPassthroughForPageKind(t *testing.T) {
	dir := t.TempDir()
	contentDir := filepath.Join(dir, "content")
	source := "---\ntitle: Hello\n---\nbody\n"
	writeDoc(t, contentDir, "hello.md", source)

	cfg := testConfig(t, contentDir)
	cfg.Outputs[config.KindPage] = []string{config.FormatHTML, config.FormatMarkdown}

	outDir := filepath.Join(dir, "public")
	runBuild(t, cfg, outDir)

	require.Equal(t, source, readOutput(t, outDir, "hello/index.md"))
}

func TestBuild_ContextCancellation_ReturnsCanceledStageError(t *testing.T) {
	dir := t.TempDir()
	contentDir := filepath.Join(dir, "content")
	writeDoc(t, contentDir, "hello.md", "---\ntitle: Hello\n---\nhi\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := NewBuilder(testConfig(t, contentDir), filepath.Join(dir, "public")).Build(ctx)
	require.Error(t, err)

	var se *StageError
	require.True(t, errors.As(err, &se))
	require.Equal(t, StageErrorCanceled, se.Kind)
	require.Equal(t, OutcomeCanceled, report.Outcome)
}

func TestBuild_CopiesContentAssetsAndStaticFiles(t *testing.T) {
	dir := t.TempDir()
	contentDir := filepath.Join(dir, "content")
	writeDoc(t, contentDir, "posts/a.md", "---\ntitle: A\n---\n![d](/posts/diagram.png)\n")
	writeDoc(t, contentDir, "posts/diagram.png", "png-bytes")

	staticDir := filepath.Join(dir, "static")
	require.NoError(t, os.MkdirAll(staticDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(staticDir, "robots.txt"), []byte("User-agent: *\n"), 0o644))

	cfg := testConfig(t, contentDir)
	cfg.Content.StaticDir = staticDir

	outDir := filepath.Join(dir, "public")
	runBuild(t, cfg, outDir)

	require.Equal(t, "png-bytes", readOutput(t, outDir, "posts/diagram.png"))
	require.Equal(t, "User-agent: *\n", readOutput(t, outDir, "robots.txt"))
}

type sourceRecordingVerifier struct {
	docs []content.Document
}

func (v *sourceRecordingVerifier) Verify(context.Context, []Artifact) []string { return nil }
func (v *sourceRecordingVerifier) SetSources(docs []content.Document)          { v.docs = docs }

func TestBuild_FeedsSourceDocumentsToVerifier(t *testing.T) {
	dir := t.TempDir()
	contentDir := filepath.Join(dir, "content")
	writeDoc(t, contentDir, "posts/a.md", "---\ntitle: A\n---\n[gone](/missing/)\n")

	verifier := &sourceRecordingVerifier{}
	_, err := NewBuilder(testConfig(t, contentDir), filepath.Join(dir, "public")).
		WithVerifier(verifier).
		Build(context.Background())
	require.NoError(t, err)

	require.Len(t, verifier.docs, 1)
	require.Equal(t, "posts/a.md", verifier.docs[0].RelativePath)
}
