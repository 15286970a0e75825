package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	assert.Equal(t, "ai-report", GetString("report.file_prefix"))
	assert.Equal(t, 120*time.Second, GetSeconds("backend.timeout"))
	assert.Equal(t, "AI Weekly Report", GetStringMapString("report.titles")["en"])
	assert.Contains(t, GetStringSlice("report.languages"), "de")
	assert.Equal(t, ":8080", GetServerAddress())
	assert.NoError(t, Validate())
}

func TestInitReadsFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte("report:\n  file_prefix: weekly\n"), 0644))

	require.NoError(t, Init(file))
	assert.Equal(t, "weekly", GetString("report.file_prefix"))
	Set("report.file_prefix", "ai-report")
}
