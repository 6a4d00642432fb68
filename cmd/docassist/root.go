package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"docassist/internal/config"
	"docassist/internal/log"
	"docassist/internal/openai"
	"docassist/internal/service"
	"docassist/internal/storage"
)

type app struct {
	cfgPath string
	cfg     *config.AppConfig
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:          "docassist",
		Short:        "Ask questions about your PDF documents",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}
	root.PersistentFlags().StringVar(&a.cfgPath, "config", "", "path to YAML config file (default ./config.yaml, then ~/.config/docassist/config.yaml)")
	root.AddCommand(newServeCmd(a), newTUICmd(a), newAskCmd(a), newConfigCmd(a))
	return root
}

// load reads .env and the config file, then configures logging.
func (a *app) load() error {
	_ = godotenv.Load()

	var err error
	if a.cfgPath == "" {
		var path string
		a.cfg, path, err = config.LoadDefault()
		if err == nil {
			a.cfgPath = path
		}
	} else {
		a.cfg, err = config.Load(a.cfgPath)
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := a.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", a.cfgPath, err)
	}
	if err := log.Init(a.cfg.Log.Level, a.cfg.Log.Development); err != nil {
		return err
	}
	log.Debug("config loaded", "path", a.cfgPath)
	return nil
}

// options builds the shared session dependencies from the config.
func (a *app) options() (service.Options, error) {
	cfg := a.cfg
	if cfg.Embedder.Type != "openai" {
		return service.Options{}, fmt.Errorf("unknown embedder: %s", cfg.Embedder.Type)
	}
	if cfg.Completion.Type != "openai" {
		return service.Options{}, fmt.Errorf("unknown completion backend: %s", cfg.Completion.Type)
	}

	embedClient, err := newClient(cfg.Embedder.OpenAI)
	if err != nil {
		return service.Options{}, fmt.Errorf("embedder init failed: %w", err)
	}
	chatClient, err := newClient(cfg.Completion.OpenAI)
	if err != nil {
		return service.Options{}, fmt.Errorf("completion init failed: %w", err)
	}

	uploads := storage.NewUploads(cfg.Storage.UploadURL)
	return service.Options{
		Embedder:  openai.NewEmbedder(embedClient, cfg.Embedder.Model),
		Completer: openai.NewCompleter(chatClient),
		Files: func(sessionID string) service.FileStore {
			return uploads.Sub(sessionID)
		},
		Pipeline:  cfg.Pipeline(),
		Retrieval: cfg.Retrieval,
		BatchSize: cfg.Embedder.BatchSize,
	}, nil
}

func newClient(c *config.OpenAIConfig) (*openai.Client, error) {
	if c == nil {
		return nil, fmt.Errorf("openai config missing")
	}
	return openai.NewClient(openai.Config{
		BaseURL:           c.BaseURL,
		APIKeyEnv:         c.APIKeyEnv,
		Timeout:           c.Timeout(),
		MaxAttempts:       c.MaxAttempts,
		RequestsPerSecond: c.RequestsPerSecond,
	})
}

// readUploads reads local files as uploads named by their base name.
func readUploads(paths []string) ([]service.Upload, error) {
	uploads := make([]service.Upload, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, service.Upload{Filename: filepath.Base(p), Data: data})
	}
	return uploads, nil
}
