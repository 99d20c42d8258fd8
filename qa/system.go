package qa

import (
	"context"
	"errors"
	"fmt"

	"github.com/doctalk/doctalk/llm"
	"github.com/doctalk/doctalk/schema"
	"github.com/doctalk/doctalk/store"
)

// ErrNoDocumentsAvailable indicates a question arrived before any documents
// were ingested; distinct from a search that finds nothing.
var ErrNoDocumentsAvailable = errors.New("no documents available, ingest documents first")

// sourceClipChars bounds cited chunk content for display.
const sourceClipChars = 200

// SourceRef summarizes one cited chunk.
type SourceRef struct {
	Content  string                 `json:"content"`
	Metadata map[string]interface{} `json:"metadata"`
}

// Response is the orchestrator's result. Capability failures during
// retrieval or completion are folded into the response (apology answer,
// empty sources, Error set) so callers never handle exceptions on the common
// failure path.
type Response struct {
	Question string      `json:"question"`
	Answer   string      `json:"answer"`
	Sources  []SourceRef `json:"source_documents"`
	Error    string      `json:"error,omitempty"`
}

// System answers questions over the document store.
type System struct {
	store         *store.Manager
	completer     llm.Completer
	topK          int
	historyWindow int
}

// Option configures the System.
type Option func(*System)

// WithTopK sets how many chunks are retrieved per question.
func WithTopK(k int) Option {
	return func(s *System) {
		if k > 0 {
			s.topK = k
		}
	}
}

// WithHistoryWindow sets how many recent turns fold into the next prompt.
func WithHistoryWindow(window int) Option {
	return func(s *System) {
		if window > 0 {
			s.historyWindow = window
		}
	}
}

// New creates a question-answering system over the given store.
func New(manager *store.Manager, completer llm.Completer, opts ...Option) *System {
	s := &System{
		store:         manager,
		completer:     completer,
		topK:          store.DefaultTopK,
		historyWindow: DefaultHistoryWindow,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ask answers a single question without history.
func (s *System) Ask(ctx context.Context, question string, language Language) (*Response, error) {
	return s.ChatWithHistory(ctx, question, nil, language)
}

// ChatWithHistory answers a question in the context of recent turns. It
// fails fast with ErrNoDocumentsAvailable when the store is uninitialized;
// any later retrieval or completion failure is returned as a well-formed
// soft-failure Response with a nil error.
func (s *System) ChatWithHistory(ctx context.Context, question string, history []Turn, language Language) (*Response, error) {
	if !s.store.Initialized() {
		return nil, ErrNoDocumentsAvailable
	}
	augmented := foldHistory(language, question, history, s.historyWindow)

	docs, err := s.store.SimilaritySearchWithScores(ctx, augmented, s.topK)
	if err != nil {
		return s.softFailure(question, language, fmt.Errorf("retrieve context: %w", err)), nil
	}
	contexts := make([]string, len(docs))
	for i := range docs {
		contexts[i] = docs[i].PageContent
	}
	prompt := buildPrompt(language, contexts, augmented)

	answer, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		return s.softFailure(question, language, fmt.Errorf("complete answer: %w", err)), nil
	}
	return &Response{
		Question: question,
		Answer:   answer,
		Sources:  cite(docs),
	}, nil
}

// RelevantDocuments exposes raw retrieval for the presentation layer.
func (s *System) RelevantDocuments(ctx context.Context, query string, k int) ([]schema.Document, error) {
	return s.store.SimilaritySearchWithScores(ctx, query, k)
}

func (s *System) softFailure(question string, language Language, err error) *Response {
	return &Response{
		Question: question,
		Answer:   apology(language, err),
		Sources:  []SourceRef{},
		Error:    err.Error(),
	}
}

func cite(docs []schema.Document) []SourceRef {
	sources := make([]SourceRef, 0, len(docs))
	for _, doc := range docs {
		sources = append(sources, SourceRef{
			Content:  clipContent(doc.PageContent, sourceClipChars),
			Metadata: doc.Metadata,
		})
	}
	return sources
}
