package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yockii/ai_report/pkg/config"
)

const report = "# Title\n\nHello **world**.\n"

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	config.Set("log.filename", filepath.Join(t.TempDir(), "logs", "reportctl.log"))

	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestGenerateStreamsAndExports(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, report)
	}))
	defer srv.Close()
	out := t.TempDir()

	stdout, stderr, err := execute(t, "generate", "--backend", srv.URL, "-p", "2025-kw04", "-l", "en", "-f", "md,txt", "-o", out)
	require.NoError(t, err, stderr)
	assert.Equal(t, report+"\n", stdout)

	md, err := os.ReadFile(filepath.Join(out, "ai-report-2025-kw04-en.md"))
	require.NoError(t, err)
	assert.Equal(t, report, string(md))

	txt, err := os.ReadFile(filepath.Join(out, "ai-report-2025-kw04-en.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Title\n\nHello world.", string(txt))

	_, err = os.Stat(filepath.Join(out, "ai-report-2025-kw04-en.docx"))
	assert.True(t, os.IsNotExist(err))
}

func TestGenerateBackendFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "No data available for this period", http.StatusNotFound)
	}))
	defer srv.Close()
	out := t.TempDir()

	_, _, err := execute(t, "generate", "--backend", srv.URL, "-p", "2025-kw04", "-o", out)
	require.Error(t, err)

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestConvert(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "report.md")
	require.NoError(t, os.WriteFile(in, []byte(report), 0644))

	_, stderr, err := execute(t, "convert", in, "-p", "2025-kw04", "-l", "de", "-f", "json,html", "-o", dir)
	require.NoError(t, err)
	assert.Contains(t, stderr, "ai-report-2025-kw04-de.json")

	html, err := os.ReadFile(filepath.Join(dir, "ai-report-2025-kw04-de.html"))
	require.NoError(t, err)
	assert.Contains(t, string(html), "<h1>Title</h1>")
	assert.Contains(t, string(html), "KI-Wochenbericht — 2025-kw04")
}

func TestConvertValidation(t *testing.T) {
	_, _, err := execute(t, "convert", "missing.md", "-p", "2025-kw04")
	assert.Error(t, err)

	_, _, err = execute(t, "convert", "missing.md")
	assert.ErrorContains(t, err, "--period")

	_, _, err = execute(t, "convert", "missing.md", "-p", "2025-kw04", "-f", "pdf")
	assert.Error(t, err)
}

func TestCLIWritesNoLogFileByDefault(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer func() { _ = os.Chdir(wd) }()

	require.NoError(t, os.WriteFile("report.md", []byte(report), 0644))
	config.Set("log.filename", "")

	cmd := newRootCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"convert", "report.md", "-p", "2025-kw04", "-f", "md"})
	require.NoError(t, cmd.Execute())

	_, err = os.Stat(filepath.Join(dir, "logs"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "ai-report-2025-kw04-de.md"))
	assert.NoError(t, err)
}
