package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	p := cfg.Pipeline()
	assert.Equal(t, "gpt-3.5-turbo", p.Model)
	assert.InDelta(t, 0.1, p.Temperature, 1e-9)
	assert.Equal(t, 1024, p.ChunkSize)
	assert.Equal(t, 20, p.ChunkOverlap)
	assert.Equal(t, 5, p.TopK)
	assert.Equal(t, 4, cfg.Retrieval.Workers)
	assert.Equal(t, 3, cfg.Completion.OpenAI.MaxAttempts)
	assert.Equal(t, 30*time.Second, cfg.Embedder.OpenAI.Timeout())
	assert.Equal(t, time.Hour, cfg.Server.SessionTTL())
	assert.Equal(t, 1000, cfg.Server.MaxSessions)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_PartialFileKeepsExplicitValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
completion:
  model: gpt-4o-mini
  temperature: 0
chunker:
  chunk_size: 512
  chunk_overlap: 64
retrieval:
  top_k: 3
embedder:
  openai:
    base_url: http://localhost:11434/v1
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	p := cfg.Pipeline()
	assert.Equal(t, "gpt-4o-mini", p.Model)
	assert.Zero(t, p.Temperature)
	assert.Equal(t, 512, p.ChunkSize)
	assert.Equal(t, 64, p.ChunkOverlap)
	assert.Equal(t, 3, p.TopK)
	assert.Equal(t, "http://localhost:11434/v1", cfg.Embedder.OpenAI.BaseURL)
	assert.Equal(t, "OPENAI_API_KEY", cfg.Embedder.OpenAI.APIKeyEnv)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chunker: [oops"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Chunker.ChunkOverlap = cfg.Chunker.ChunkSize
	assert.Error(t, cfg.Validate())

	cfg = Default()
	hot := 3.0
	cfg.Completion.Temperature = &hot
	assert.Error(t, cfg.Validate())
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Retrieval.TopK = 8

	require.NoError(t, Save(path, cfg))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, loaded.Retrieval.TopK)
	assert.Equal(t, cfg.Storage.UploadURL, loaded.Storage.UploadURL)
}
