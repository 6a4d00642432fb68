package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docassist/internal/config"
)

func run(args ...string) (string, error) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docassist", "config.yaml")

	out, err := run("config", "init", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default().Pipeline(), cfg.Pipeline())

	_, err = run("config", "init", "--config", path)
	assert.Error(t, err)

	_, err = run("config", "init", "--config", path, "--force")
	assert.NoError(t, err)
}

func TestAsk_RequiresQuestion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.yaml")
	_, err := run("ask", "--config", path)
	assert.EqualError(t, err, "a question or --summary is required")
}

func TestAsk_MissingAPIKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := config.Default()
	cfg.Embedder.OpenAI.APIKeyEnv = "DOCASSIST_TEST_UNSET_KEY"
	require.NoError(t, config.Save(path, cfg))
	require.NoError(t, os.Unsetenv("DOCASSIST_TEST_UNSET_KEY"))

	_, err := run("ask", "what?", "--config", path)
	assert.ErrorContains(t, err, "embedder init failed")
}

func TestReadUploads(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.pdf")
	require.NoError(t, os.WriteFile(p, []byte("%PDF"), 0o644))

	uploads, err := readUploads([]string{p})
	require.NoError(t, err)
	require.Len(t, uploads, 1)
	assert.Equal(t, "a.pdf", uploads[0].Filename)
	assert.Equal(t, []byte("%PDF"), uploads[0].Data)

	_, err = readUploads([]string{filepath.Join(dir, "missing.pdf")})
	assert.Error(t, err)
}
