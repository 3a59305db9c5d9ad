package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "site.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, "baseURL: https://example.com/\ntitle: Test Site\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "Test Site", cfg.Title)
	require.Equal(t, "en-us", cfg.LanguageCode)
	require.Equal(t, "content", cfg.Content.Directory)
	require.Equal(t, "public", cfg.Output.Directory)
	require.True(t, cfg.Output.Clean)
	require.Equal(t, []string{FormatHTML, FormatRSS, FormatJSON}, cfg.Outputs.For(KindHome))
	require.Equal(t, []string{FormatHTML}, cfg.Outputs.For(KindPage))
	require.Equal(t, 1313, cfg.Serve.Port)
}

func TestLoad_MissingFile_ReturnsConfigError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)

	var ce *ConfigError
	require.True(t, errors.As(err, &ce))
}

func TestLoad_UnknownOutputFormat_ReturnsConfigError(t *testing.T) {
	path := writeConfig(t, `
baseURL: https://example.com/
title: Test
outputs:
  home: [HTML, AMP]
`)

	_, err := Load(path)
	require.Error(t, err)

	var ce *ConfigError
	require.True(t, errors.As(err, &ce))
	require.Equal(t, "outputs.home", ce.Field)
	require.Contains(t, ce.Error(), "AMP")
}

func TestLoad_UnknownPageKind_ReturnsConfigError(t *testing.T) {
	path := writeConfig(t, `
baseURL: https://example.com/
outputs:
  homepage: [HTML]
`)

	_, err := Load(path)
	var ce *ConfigError
	require.True(t, errors.As(err, &ce))
	require.Equal(t, "outputs.homepage", ce.Field)
}

func TestLoad_ExpandsEnvironmentVariables(t *testing.T) {
	t.Setenv("SITE_BASE_URL", "https://env.example.com/")
	path := writeConfig(t, "baseURL: ${SITE_BASE_URL}\ntitle: Env Site\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "https://env.example.com/", cfg.BaseURL)
}

func TestLoad_MenuEntryWithoutURL_ReturnsConfigError(t *testing.T) {
	path := writeConfig(t, `
baseURL: https://example.com/
menu:
  - name: Broken
    weight: 5
`)

	_, err := Load(path)
	var ce *ConfigError
	require.True(t, errors.As(err, &ce))
	require.Equal(t, "menu[0].url", ce.Field)
}

func TestSortedMenu_AscendingWeight(t *testing.T) {
	cfg := &Config{Menu: []MenuEntry{
		{Name: "About", URL: "/about/", Weight: 30},
		{Name: "Home", URL: "/", Weight: 10},
		{Name: "Posts", URL: "/posts/", Weight: 20},
	}}

	sorted := cfg.SortedMenu()
	require.Equal(t, []string{"Home", "Posts", "About"}, []string{sorted[0].Name, sorted[1].Name, sorted[2].Name})
	// original untouched
	require.Equal(t, "About", cfg.Menu[0].Name)
}

func TestOutputsHas_CaseInsensitive(t *testing.T) {
	o := Outputs{KindHome: {"html", "rss"}}
	require.True(t, o.Has(KindHome, FormatRSS))
	require.False(t, o.Has(KindHome, FormatJSON))
	// unset kinds fall back to HTML only
	require.True(t, o.Has(KindPage, FormatHTML))
	require.False(t, o.Has(KindPage, FormatRSS))
}

func TestInit_RefusesOverwriteWithoutForce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "site.yaml")

	require.NoError(t, Init(path, false))
	require.Error(t, Init(path, false))
	require.NoError(t, Init(path, true))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "My Site", cfg.Title)
	require.Len(t, cfg.Menu, 2)
}

func TestValidate_RebuildInterval(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()

	cfg.Serve.RebuildInterval = "not-a-duration"
	err := cfg.Validate()
	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, "serve.rebuild_interval", cerr.Field)

	cfg.Serve.RebuildInterval = "10m"
	require.NoError(t, cfg.Validate())
	require.Equal(t, 10*time.Minute, cfg.Serve.RebuildIntervalDuration())

	cfg.Serve.RebuildInterval = ""
	require.Zero(t, cfg.Serve.RebuildIntervalDuration())
}
