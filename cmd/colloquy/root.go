package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/colloquy-ai/colloquy/agent"
	"github.com/colloquy-ai/colloquy/config"
	"github.com/colloquy-ai/colloquy/coref"
	"github.com/colloquy-ai/colloquy/docindex"
	"github.com/colloquy-ai/colloquy/observability"
	"github.com/colloquy-ai/colloquy/orchestrator"
	"github.com/colloquy-ai/colloquy/session"
	"github.com/colloquy-ai/colloquy/store"
	"github.com/colloquy-ai/colloquy/tools"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "colloquy",
		Short:         "Session-scoped conversational agent over local models",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("config", "", "path to config file")

	root.AddCommand(newServeCmd())
	root.AddCommand(newChatCmd())
	root.AddCommand(newSessionsCmd())

	return root
}

// loadConfig resolves the -config flag against the search paths. No file
// found anywhere means pure defaults.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	explicit, _ := cmd.Flags().GetString("config")
	path, err := config.FindConfig(explicit)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func newLogger(cfg *config.Config) (*slog.Logger, error) {
	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: config.ReplaceLogLevelNames,
	})
	return slog.New(handler), nil
}

// app is the wired object graph shared by serve and chat.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	sessions session.Log
	indexer  *docindex.Indexer
	orch     *orchestrator.Orchestrator
}

func buildApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	sessions := session.NewFileLog(cfg.Storage.SessionsDir)
	blobs := store.NewFileStore(cfg.Storage.DataDir)

	engine := agent.NewOllama(agent.OllamaConfig{
		BaseURL: cfg.Ollama.BaseURL,
		Model:   cfg.Ollama.ChatModel,
		Timeout: config.Duration(cfg.Ollama.ChatTimeoutSec),
	})
	embedder := docindex.NewOllamaEmbedder(
		cfg.Ollama.BaseURL,
		cfg.Ollama.EmbedModel,
		config.Duration(cfg.Ollama.EmbedTimeoutSec),
	)
	indexer := docindex.NewIndexer(blobs, embedder, cfg.Index.ChunkSize, cfg.Index.ChunkOverlap)

	registry, err := tools.NewRegistry(
		tools.NewWikipedia(tools.NewWikipediaClient("", 0)),
		tools.NewCalculator(),
	)
	if err != nil {
		return nil, err
	}
	docQA := tools.NewDocumentQA(indexer, embedder, engine, cfg.Index.TopK)
	registry.AddSessionFactory(docQA.Factory())

	var recognizer coref.Recognizer
	if cfg.Recognizer.BaseURL != "" {
		recognizer = coref.NewHTTPRecognizer(cfg.Recognizer.BaseURL, config.Duration(cfg.Recognizer.TimeoutSec))
	}
	resolver := coref.NewResolver(recognizer)

	orch := orchestrator.New(
		orchestrator.Config{
			SystemPrompt:   cfg.Conversation.SystemPrompt,
			MaxAttempts:    cfg.Conversation.MaxAttempts,
			MaxIterations:  cfg.Conversation.MaxIterations,
			AttemptTimeout: config.Duration(cfg.Conversation.AttemptTimeoutSec),
			ToolTimeout:    config.Duration(cfg.Conversation.ToolTimeoutSec),
		},
		engine, sessions, registry, resolver,
		orchestrator.WithObserver(observability.NewSlogObserver(logger)),
	)

	return &app{
		cfg:      cfg,
		logger:   logger,
		sessions: sessions,
		indexer:  indexer,
		orch:     orch,
	}, nil
}
