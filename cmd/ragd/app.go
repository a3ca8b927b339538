package main

import (
	"errors"
	"fmt"
	"io/fs"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ragd/internal/config"
	"github.com/fyrsmithlabs/ragd/internal/document"
	"github.com/fyrsmithlabs/ragd/internal/embeddings"
	"github.com/fyrsmithlabs/ragd/internal/generation"
	"github.com/fyrsmithlabs/ragd/internal/ingest"
	"github.com/fyrsmithlabs/ragd/internal/logging"
	"github.com/fyrsmithlabs/ragd/internal/orchestrator"
	"github.com/fyrsmithlabs/ragd/internal/vectorstore"
)

// app holds the wired components shared by the CLI commands.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	index    *vectorstore.Index
	embedder *embeddings.Service
}

// newApp loads configuration, builds the logger, and opens the index.
// A missing index file yields a fresh empty index so ingest can run on a
// clean machine.
func newApp() (*app, error) {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, err
	}

	index, err := vectorstore.Load(cfg.Index.Path, logger)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		index, err = vectorstore.New(vectorstore.Config{
			Dimension: cfg.Index.Dimension,
			Path:      cfg.Index.Path,
		}, logger)
		if err != nil {
			return nil, err
		}
	}

	if index.Dimension() != cfg.Index.Dimension {
		return nil, fmt.Errorf("persisted index dimension %d does not match configured dimension %d; re-run ingest after removing %s",
			index.Dimension(), cfg.Index.Dimension, cfg.Index.Path)
	}

	embedder, err := embeddings.NewService(embeddings.Config{
		BaseURL:   cfg.Embeddings.BaseURL,
		Model:     cfg.Embeddings.Model,
		Dimension: cfg.Index.Dimension,
	}, logger)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		index:    index,
		embedder: embedder,
	}, nil
}

// close flushes buffered log entries.
func (a *app) close() {
	_ = a.logger.Sync()
}

// newPipeline builds the ingestion pipeline over the configured
// knowledge base.
func (a *app) newPipeline(force bool) (*ingest.Pipeline, error) {
	source, err := document.NewFSSource(document.FSConfig{
		Root: a.cfg.KnowledgeBase.Root,
		Glob: a.cfg.KnowledgeBase.Glob,
	}, a.logger)
	if err != nil {
		return nil, err
	}

	return ingest.NewPipeline(ingest.Config{
		ChunkSize:    a.cfg.Chunking.Size,
		ChunkOverlap: a.cfg.Chunking.Overlap,
		ManifestPath: a.cfg.Index.Path + ".manifest.json",
		Force:        force,
	}, source, a.embedder, a.index, a.logger)
}

// newOrchestrator builds the query orchestrator.
func (a *app) newOrchestrator() (*orchestrator.Orchestrator, error) {
	generator, err := generation.NewClient(generation.Config{
		BaseURL:     a.cfg.Generation.BaseURL,
		Model:       a.cfg.Generation.Model,
		APIKey:      a.cfg.Generation.APIKey.Value(),
		MaxTokens:   a.cfg.Generation.MaxTokens,
		Temperature: a.cfg.Generation.Temperature,
		RateLimit:   a.cfg.Generation.RateLimit,
		Burst:       a.cfg.Generation.Burst,
	}, a.logger)
	if err != nil {
		return nil, err
	}

	return orchestrator.New(orchestrator.Config{
		TopK:            a.cfg.Retrieval.TopK,
		ContextBudget:   a.cfg.Retrieval.ContextBudget,
		HistoryBudget:   a.cfg.Retrieval.HistoryBudget,
		SystemPrompt:    a.cfg.Retrieval.SystemPrompt,
		ProviderTimeout: a.cfg.Retrieval.ProviderTimeout.Duration(),
	}, a.index, a.embedder, generator, a.logger)
}
