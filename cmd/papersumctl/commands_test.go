package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"papersum/internal/api"
)

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("PAPERSUM_CONFIG_FILE", "")
	t.Setenv("PAPERSUM_SQLITE_PATH", filepath.Join(dir, "history.db"))
	t.Setenv("PAPERSUM_SCRATCH_ROOT", filepath.Join(dir, "scratch"))
	t.Setenv("PAPERSUM_STORE_DRIVER", "sqlite")
	t.Setenv("PAPERSUM_CACHE_DRIVER", "none")
	t.Setenv("PAPERSUM_LLM_PROVIDERS", "mock")
	t.Setenv("PAPERSUM_JWT_SECRET", "cli-secret")
	t.Setenv("PAPERSUM_LOG_LEVEL", "error")
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSummarizeFileThenHistory(t *testing.T) {
	dir := setupEnv(t)
	input := filepath.Join(dir, "paper.txt")
	body := "Sparse Widget Routing\n" + strings.Repeat("Sparse widgets route messages between layers efficiently. ", 6)
	require.NoError(t, os.WriteFile(input, []byte(body), 0o644))

	out, err := run(t, "summarize", "--file", input, "--user", "3")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "# Sparse Widget Routing"))

	out, err = run(t, "history", "--user", "3")
	require.NoError(t, err)
	require.Contains(t, out, "Sparse Widget Routing")

	out, err = run(t, "history", "--user", "4")
	require.NoError(t, err)
	require.Contains(t, out, "No summaries found.")
}

func TestSummarizeWritesOutFile(t *testing.T) {
	dir := setupEnv(t)
	dst := filepath.Join(dir, "out", "summary.md")
	text := "Graph Widgets\n" + strings.Repeat("Graph widgets are evaluated on many benchmarks. ", 5)

	_, err := run(t, "summarize", "--text", text, "-o", dst)
	require.NoError(t, err)
	b, err := os.ReadFile(dst)
	require.NoError(t, err)
	require.Contains(t, string(b), "**Keywords:**")
}

func TestSummarizeRejectsShortText(t *testing.T) {
	setupEnv(t)
	_, err := run(t, "summarize", "--text", "tiny")
	require.Error(t, err)
	require.Contains(t, err.Error(), "too short")
}

func TestSummarizeProviderFlag(t *testing.T) {
	setupEnv(t)
	text := "Graph Widgets\n" + strings.Repeat("Graph widgets are evaluated on many benchmarks. ", 5)

	out, err := run(t, "summarize", "--text", text, "--provider", "mock")
	require.NoError(t, err)
	require.Contains(t, out, "# Graph Widgets")

	_, err = run(t, "summarize", "--text", text, "--provider", "openai")
	require.Error(t, err)
	require.Contains(t, err.Error(), `provider "openai" is not configured`)
}

func TestSummarizeRequiresAnInput(t *testing.T) {
	setupEnv(t)
	_, err := run(t, "summarize")
	require.Error(t, err)
}

func TestTokenRoundTrip(t *testing.T) {
	setupEnv(t)
	out, err := run(t, "token", "--user", "12")
	require.NoError(t, err)

	claims, err := api.ParseToken(strings.TrimSpace(out), "cli-secret")
	require.NoError(t, err)
	require.Equal(t, int64(12), claims.UserID)
}

func TestMigrate(t *testing.T) {
	setupEnv(t)
	out, err := run(t, "migrate")
	require.NoError(t, err)
	require.Contains(t, out, "up to date")
}
