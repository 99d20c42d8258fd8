package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/doctalk/doctalk/embeddings"
	"github.com/doctalk/doctalk/schema"
	"github.com/doctalk/doctalk/vectordb"
	"github.com/minio/highwayhash"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
)

var (
	// ErrNoDocuments indicates create was called with no documents.
	ErrNoDocuments = errors.New("no documents provided to create vector store")
	// ErrNotInitialized indicates an operation that requires a populated
	// store ran before any documents were ingested or loaded.
	ErrNotInitialized = errors.New("vector store not initialized")
)

// LoadState is the tri-state outcome of loading a persisted store.
type LoadState int

const (
	// LoadNotFound means no persisted store exists; a normal first-run state.
	LoadNotFound LoadState = iota
	// Loaded means the persisted store was restored.
	Loaded
	// LoadCorrupt means persisted state exists but could not be restored.
	LoadCorrupt
)

// String returns the state name.
func (s LoadState) String() string {
	switch s {
	case Loaded:
		return "loaded"
	case LoadCorrupt:
		return "corrupt"
	default:
		return "not found"
	}
}

var hashKey = []byte("0123456789ABCDEF0123456789ABCDEF")

// manifest describes a persisted index snapshot.
type manifest struct {
	Count    int       `json:"count"`
	Model    string    `json:"model"`
	SavedAt  time.Time `json:"savedAt"`
	Revision int       `json:"revision"`
}

// DefaultTopK is the default similarity search result count.
const DefaultTopK = 4

// Manager owns the vector store lifecycle: creation, incremental addition,
// persistence, reload, similarity query and reset.
type Manager struct {
	fs        afs.Service
	baseURL   string
	namespace string
	model     string
	embedder  embeddings.Embedder
	topK      int
	index     *vectordb.Index
}

// Option configures the Manager.
type Option func(*Manager)

// WithTopK sets the default similarity search result count.
func WithTopK(k int) Option {
	return func(m *Manager) {
		if k > 0 {
			m.topK = k
		}
	}
}

// NewManager creates a store manager persisting under baseURL. The snapshot
// namespace is derived from the embedding model identifier so switching
// models never mixes incompatible vectors.
func NewManager(baseURL, model string, embedder embeddings.Embedder, opts ...Option) (*Manager, error) {
	namespace, err := Namespace(model)
	if err != nil {
		return nil, err
	}
	m := &Manager{
		fs:        afs.New(),
		baseURL:   baseURL,
		namespace: namespace,
		model:     model,
		embedder:  embedder,
		topK:      DefaultTopK,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Namespace derives a stable snapshot namespace from the embedding model
// identifier.
func Namespace(model string) (string, error) {
	h, err := highwayhash.New64(hashKey)
	if err != nil {
		return "", err
	}
	if _, err = h.Write([]byte(model)); err != nil {
		return "", err
	}
	return strconv.FormatUint(h.Sum64(), 10), nil
}

// Initialized reports whether the store holds an index.
func (m *Manager) Initialized() bool {
	return m.index != nil
}

// Count returns the number of stored chunks, 0 when uninitialized.
func (m *Manager) Count() int {
	if m.index == nil {
		return 0
	}
	return m.index.Count()
}

// Create builds a fresh index from documents, embedding each at insertion
// time. It fails with ErrNoDocuments on empty input and leaves no store
// created.
func (m *Manager) Create(ctx context.Context, docs []schema.Document) error {
	if len(docs) == 0 {
		return ErrNoDocuments
	}
	index := vectordb.NewIndex()
	if err := m.embedInto(ctx, index, docs); err != nil {
		return err
	}
	m.index = index
	return nil
}

// Add appends documents to the store, lazily creating it when absent. Empty
// input is a no-op.
func (m *Manager) Add(ctx context.Context, docs []schema.Document) error {
	if len(docs) == 0 {
		return nil
	}
	if m.index == nil {
		return m.Create(ctx, docs)
	}
	return m.embedInto(ctx, m.index, docs)
}

func (m *Manager) embedInto(ctx context.Context, index *vectordb.Index, docs []schema.Document) error {
	texts := make([]string, len(docs))
	for i := range docs {
		texts[i] = docs[i].PageContent
	}
	vectors, err := m.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed %d documents: %w", len(docs), err)
	}
	if len(vectors) != len(docs) {
		return fmt.Errorf("embedder returned %d vectors for %d documents", len(vectors), len(docs))
	}
	for i := range docs {
		index.Add(docs[i], vectors[i])
	}
	return nil
}

// Persist writes the index snapshot and manifest under the configured
// directory, overwriting any previous snapshot.
func (m *Manager) Persist(ctx context.Context) error {
	if m.index == nil {
		return fmt.Errorf("persist: %w", ErrNotInitialized)
	}
	unlock, err := acquireLock(m.baseURL)
	if err != nil {
		return fmt.Errorf("persist: %w", err)
	}
	defer unlock()

	treeBuf := new(bytes.Buffer)
	dataBuf := new(bytes.Buffer)
	if err := m.index.Encode(treeBuf, dataBuf); err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	if err := m.upload(ctx, m.assetURL(".tre"), treeBuf); err != nil {
		return err
	}
	if err := m.upload(ctx, m.assetURL(".dat"), dataBuf); err != nil {
		return err
	}
	meta, err := json.Marshal(manifest{
		Count:    m.index.Count(),
		Model:    m.model,
		SavedAt:  time.Now().UTC(),
		Revision: 1,
	})
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	return m.upload(ctx, m.manifestURL(), bytes.NewReader(meta))
}

func (m *Manager) upload(ctx context.Context, URL string, reader io.Reader) error {
	if ok, _ := m.fs.Exists(ctx, URL); ok {
		_ = m.fs.Delete(ctx, URL)
	}
	if err := m.fs.Upload(ctx, URL, file.DefaultFileOsMode, reader); err != nil {
		return fmt.Errorf("upload %s: %w", URL, err)
	}
	return nil
}

// Load restores the store from its persisted snapshot. Absence of a prior
// snapshot is reported as LoadNotFound, deserialization failure as
// LoadCorrupt with the underlying error; neither is propagated as a hard
// failure and the in-memory state is left untouched on failure.
func (m *Manager) Load(ctx context.Context) (state LoadState, err error) {
	manifestURL := m.manifestURL()
	if ok, _ := m.fs.Exists(ctx, manifestURL); !ok {
		return LoadNotFound, nil
	}
	defer func() {
		// Corrupt snapshots can panic inside binary decoding; soften to a
		// LoadCorrupt result.
		if r := recover(); r != nil {
			state, err = LoadCorrupt, fmt.Errorf("decode snapshot: %v", r)
		}
	}()
	data, err := m.fs.DownloadWithURL(ctx, manifestURL)
	if err != nil {
		return LoadCorrupt, fmt.Errorf("read manifest: %w", err)
	}
	var meta manifest
	if err := json.Unmarshal(data, &meta); err != nil {
		return LoadCorrupt, fmt.Errorf("decode manifest: %w", err)
	}
	treeReader, err := m.fs.OpenURL(ctx, m.assetURL(".tre"))
	if err != nil {
		return LoadCorrupt, fmt.Errorf("open tree snapshot: %w", err)
	}
	defer treeReader.Close()
	dataReader, err := m.fs.OpenURL(ctx, m.assetURL(".dat"))
	if err != nil {
		return LoadCorrupt, fmt.Errorf("open value snapshot: %w", err)
	}
	defer dataReader.Close()

	index := vectordb.NewIndex()
	if err := index.Decode(treeReader, dataReader, meta.Count); err != nil {
		return LoadCorrupt, fmt.Errorf("decode snapshot: %w", err)
	}
	m.index = index
	return Loaded, nil
}

// SimilaritySearch returns the k most similar chunks for the query; k <= 0
// applies the configured default.
func (m *Manager) SimilaritySearch(ctx context.Context, query string, k int) ([]schema.Document, error) {
	docs, err := m.SimilaritySearchWithScores(ctx, query, k)
	if err != nil {
		return nil, err
	}
	for i := range docs {
		docs[i].Score = 0
	}
	return docs, nil
}

// SimilaritySearchWithScores returns the k most similar chunks with their
// cosine similarity scores (1 - cosine distance, the underlying index's own
// semantics).
func (m *Manager) SimilaritySearchWithScores(ctx context.Context, query string, k int) ([]schema.Document, error) {
	if m.index == nil {
		return nil, fmt.Errorf("similarity search: %w", ErrNotInitialized)
	}
	if k <= 0 {
		k = m.topK
	}
	return m.index.SearchCached(query, func() ([]float32, error) {
		vector, err := m.embedder.EmbedQuery(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("embed query: %w", err)
		}
		return vector, nil
	}, k)
}

// Delete removes the persisted snapshot (when present) and resets the
// in-memory state to uninitialized.
func (m *Manager) Delete(ctx context.Context) error {
	if ok, _ := m.fs.Exists(ctx, m.baseURL); ok {
		if err := m.fs.Delete(ctx, m.baseURL); err != nil {
			return fmt.Errorf("delete %s: %w", m.baseURL, err)
		}
	}
	m.index = nil
	return nil
}

func (m *Manager) assetURL(ext string) string {
	return url.Join(m.baseURL, "index_"+m.namespace+ext)
}

func (m *Manager) manifestURL() string {
	return url.Join(m.baseURL, "index_"+m.namespace+".json")
}
