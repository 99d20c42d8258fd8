package service

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/doctalk/doctalk/embeddings"
	openaiembed "github.com/doctalk/doctalk/embeddings/openai"
	"github.com/doctalk/doctalk/ingest"
	"github.com/doctalk/doctalk/llm"
	openaichat "github.com/doctalk/doctalk/llm/openai"
	"github.com/doctalk/doctalk/matching"
	"github.com/doctalk/doctalk/qa"
	"github.com/doctalk/doctalk/registry"
	"github.com/doctalk/doctalk/schema"
	"github.com/doctalk/doctalk/store"
)

// Option configures the Service.
type Option func(*Service)

// WithEmbedder overrides the default OpenAI embedder. The model identifier
// names the embedding space and keys the snapshot namespace, so vectors from
// different embedders never load into one index.
func WithEmbedder(embedder embeddings.Embedder, model string) Option {
	return func(s *Service) {
		s.embedder = embedder
		s.embedderModel = model
	}
}

// WithCompleter overrides the default OpenAI completer.
func WithCompleter(completer llm.Completer) Option {
	return func(s *Service) { s.completer = completer }
}

// WithLogger sets the logger used by ingestion and store operations.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// Service exposes reusable operations for indexing, answering, status, and
// reset.
type Service struct {
	cfg           *Config
	embedder      embeddings.Embedder
	embedderModel string
	completer     llm.Completer
	processor     *ingest.Processor
	store         *store.Manager
	registry      *registry.Registry
	answerer      *qa.System
	logger        *slog.Logger
}

// Status summarizes the current state of the document store.
type Status struct {
	DocumentCount int               `json:"documentCount"`
	Sources       []registry.Source `json:"sources"`
}

// New builds a Service from config, loading any persisted index.
func New(ctx context.Context, cfg *Config, opts ...Option) (*Service, error) {
	s := &Service{cfg: cfg, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	if s.embedder == nil {
		if cfg.OpenAI.APIKey == "" {
			return nil, fmt.Errorf("openai api key is required (config apiKey/apiKeySecret or OPENAI_API_KEY)")
		}
		s.embedder = &openaiembed.Embedder{C: openaiembed.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.EmbeddingModel)}
		s.embedderModel = cfg.OpenAI.EmbeddingModel
	}
	if s.embedderModel == "" {
		return nil, fmt.Errorf("embedder model identifier is required")
	}
	if s.completer == nil && cfg.OpenAI.APIKey != "" {
		s.completer = openaichat.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.ChatModel)
	}
	manager, err := store.NewManager(cfg.Store.BaseURL, s.embedderModel, s.embedder,
		store.WithTopK(cfg.Retrieval.TopK))
	if err != nil {
		return nil, err
	}
	s.store = manager
	state, err := manager.Load(ctx)
	switch state {
	case store.Loaded:
		s.logger.Info("loaded persisted index", "documents", manager.Count())
	case store.LoadCorrupt:
		s.logger.Warn("persisted index is corrupt, starting empty", "error", err)
	}
	reg, err := registry.Open(ctx, cfg.Registry.DSN)
	if err != nil {
		return nil, fmt.Errorf("open source registry: %w", err)
	}
	s.registry = reg
	s.processor = ingest.New(cfg.Chunking.Size, cfg.Chunking.Overlap,
		ingest.WithLogger(s.logger),
		ingest.WithFetchTimeout(time.Duration(cfg.Web.FetchTimeoutSeconds)*time.Second),
		ingest.WithExtensions(cfg.Ingest.Extensions...))
	if s.completer != nil {
		s.answerer = qa.New(manager, s.completer,
			qa.WithTopK(cfg.Retrieval.TopK),
			qa.WithHistoryWindow(cfg.Retrieval.HistoryWindow))
	}
	return s, nil
}

// Close releases the source registry.
func (s *Service) Close() error {
	if s.registry != nil {
		return s.registry.Close()
	}
	return nil
}

// IndexFile ingests one document file and persists the updated index.
// It returns the number of chunks added.
func (s *Service) IndexFile(ctx context.Context, location string) (int, error) {
	docs, err := s.processor.ProcessFile(ctx, location)
	if err != nil {
		return 0, err
	}
	return len(docs), s.commit(ctx, docs, "file", location, filepath.Base(location))
}

// IndexURL fetches a web page, ingests it and persists the updated index.
func (s *Service) IndexURL(ctx context.Context, pageURL string) (int, error) {
	docs, err := s.processor.ProcessURL(ctx, pageURL)
	if err != nil {
		return 0, err
	}
	return len(docs), s.commit(ctx, docs, "web", pageURL, pageURL)
}

// IndexDirectory ingests all supported files under location, honoring the
// configured include/exclude filters, and persists the updated index.
func (s *Service) IndexDirectory(ctx context.Context, location string) (int, error) {
	filter := matching.New(
		matching.WithInclusions(s.cfg.Filter.Include...),
		matching.WithExclusions(s.cfg.Filter.Exclude...),
		matching.WithMaxFileSize(s.cfg.Filter.MaxSizeBytes))
	docs, err := s.processor.ProcessDirectory(ctx, location, filter)
	if err != nil {
		return 0, err
	}
	return len(docs), s.commit(ctx, docs, "directory", location, filepath.Base(location))
}

// commit adds chunks to the store, persists the index and records the
// source.
func (s *Service) commit(ctx context.Context, docs []schema.Document, kind, source, name string) error {
	if len(docs) == 0 {
		return nil
	}
	if err := s.store.Add(ctx, docs); err != nil {
		return err
	}
	if err := s.store.Persist(ctx); err != nil {
		return err
	}
	id, err := ingest.SourceID(source)
	if err != nil {
		return err
	}
	return s.registry.Record(ctx, registry.Source{
		ID:         id,
		Kind:       kind,
		Name:       name,
		ChunkCount: len(docs),
		IngestedAt: time.Now().UTC(),
	})
}

// Ask answers a single question with the configured language.
func (s *Service) Ask(ctx context.Context, question string) (*qa.Response, error) {
	if s.answerer == nil {
		return nil, fmt.Errorf("chat model unavailable: openai api key is required")
	}
	return s.answerer.Ask(ctx, question, s.language())
}

// Chat answers a question in the context of prior turns.
func (s *Service) Chat(ctx context.Context, question string, history []qa.Turn) (*qa.Response, error) {
	if s.answerer == nil {
		return nil, fmt.Errorf("chat model unavailable: openai api key is required")
	}
	return s.answerer.ChatWithHistory(ctx, question, history, s.language())
}

// Status reports the document count and the registered sources.
func (s *Service) Status(ctx context.Context) (*Status, error) {
	sources, err := s.registry.List(ctx)
	if err != nil {
		return nil, err
	}
	return &Status{DocumentCount: s.store.Count(), Sources: sources}, nil
}

// Reset deletes the persisted index and clears the source registry.
func (s *Service) Reset(ctx context.Context) error {
	if err := s.store.Delete(ctx); err != nil {
		return err
	}
	return s.registry.Clear(ctx)
}

func (s *Service) language() qa.Language {
	if s.cfg.Language == "chinese" {
		return qa.Chinese
	}
	return qa.English
}
