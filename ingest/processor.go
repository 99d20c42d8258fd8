package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/doctalk/doctalk/chunker"
	"github.com/doctalk/doctalk/extractor"
	"github.com/doctalk/doctalk/matching"
	"github.com/doctalk/doctalk/schema"
	"github.com/minio/highwayhash"
	"github.com/viant/afs"
)

// Processor turns document sources into chunked, metadata-carrying documents
// ready for the vector store.
type Processor struct {
	fs        afs.Service
	extractor *extractor.Service
	chunker   *chunker.Chunker
	fetcher   *extractor.WebFetcher
	logger    *slog.Logger
}

// Option configures the Processor.
type Option func(*Processor)

// WithLogger sets the logger used to report chunking degradations.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithFetchTimeout bounds web page fetches.
func WithFetchTimeout(timeout time.Duration) Option {
	return func(p *Processor) { p.fetcher = extractor.NewWebFetcher(timeout) }
}

// WithExtensions restricts ingestion to the given file extensions.
func WithExtensions(extensions ...string) Option {
	return func(p *Processor) { p.extractor.Restrict(extensions) }
}

// New creates a Processor with the given chunk size and overlap.
func New(chunkSize, chunkOverlap int, opts ...Option) *Processor {
	p := &Processor{
		fs:        afs.New(),
		extractor: extractor.New(),
		chunker:   chunker.New(chunkSize, chunkOverlap),
		fetcher:   extractor.NewWebFetcher(0),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SupportedExtensions returns the file extensions the processor can ingest.
func (p *Processor) SupportedExtensions() []string {
	return p.extractor.SupportedExtensions()
}

// ProcessFile extracts and chunks a file, returning one document per chunk.
func (p *Processor) ProcessFile(ctx context.Context, location string) ([]schema.Document, error) {
	text, err := p.extractor.ExtractFile(ctx, location)
	if err != nil {
		return nil, err
	}
	metadata := map[string]interface{}{
		schema.SourceKey:   location,
		schema.FileTypeKey: strings.ToLower(filepath.Ext(location)),
		schema.FileNameKey: filepath.Base(location),
	}
	return p.chunk(location, text, metadata), nil
}

// ProcessBytes extracts and chunks in-memory file content, dispatching on the
// location's extension.
func (p *Processor) ProcessBytes(location string, data []byte) ([]schema.Document, error) {
	text, err := p.extractor.ExtractBytes(location, data)
	if err != nil {
		return nil, err
	}
	metadata := map[string]interface{}{
		schema.SourceKey:   location,
		schema.FileTypeKey: strings.ToLower(filepath.Ext(location)),
		schema.FileNameKey: filepath.Base(location),
	}
	return p.chunk(location, text, metadata), nil
}

// ProcessURL fetches and chunks a web page.
func (p *Processor) ProcessURL(ctx context.Context, pageURL string) ([]schema.Document, error) {
	page, err := p.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	metadata := map[string]interface{}{
		schema.SourceKey:   pageURL,
		schema.FileTypeKey: schema.WebPageType,
		schema.TitleKey:    page.Title,
	}
	return p.chunk(pageURL, page.Text, metadata), nil
}

// ProcessDirectory lists a directory and ingests every supported file the
// filter admits. Unsupported files are skipped, not failed.
func (p *Processor) ProcessDirectory(ctx context.Context, location string, filter *matching.Filter) ([]schema.Document, error) {
	if filter == nil {
		filter = matching.New()
	}
	objects, err := p.fs.List(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", location, err)
	}
	var docs []schema.Document
	for _, object := range objects {
		if object.IsDir() {
			continue
		}
		if !p.extractor.Supported(object.URL()) {
			continue
		}
		if filter.IsExcluded(object.URL(), int(object.Size())) {
			continue
		}
		fileDocs, err := p.ProcessFile(ctx, object.URL())
		if err != nil {
			p.logger.Warn("skipping file", "location", object.URL(), "error", err)
			continue
		}
		docs = append(docs, fileDocs...)
	}
	return docs, nil
}

// chunk splits text and wraps every chunk with per-chunk metadata; the
// emission order defines the chunk id sequence.
func (p *Processor) chunk(source, text string, metadata map[string]interface{}) []schema.Document {
	result := p.chunker.Split(text)
	for _, degradation := range result.Degradations {
		p.logger.Warn("chunking strategy degraded",
			"source", source,
			"strategy", degradation.Strategy,
			"reason", degradation.Reason)
	}
	docs := make([]schema.Document, 0, len(result.Chunks))
	for i, chunk := range result.Chunks {
		doc := schema.New(chunk, metadata)
		doc.Metadata[schema.ChunkIDKey] = i
		docs = append(docs, doc)
	}
	return docs
}

var hashKey = []byte("0123456789ABCDEF0123456789ABCDEF")

// SourceID derives a stable identifier for a source path or URL.
func SourceID(source string) (string, error) {
	h, err := highwayhash.New64(hashKey)
	if err != nil {
		return "", err
	}
	if _, err = h.Write([]byte(source)); err != nil {
		return "", err
	}
	return strconv.FormatUint(h.Sum64(), 10), nil
}
