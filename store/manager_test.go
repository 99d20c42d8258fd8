package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/doctalk/doctalk/embeddings"
	"github.com/doctalk/doctalk/schema"
)

func testDocs() []schema.Document {
	return []schema.Document{
		schema.New("the quick brown fox jumps over the lazy dog", map[string]interface{}{
			schema.SourceKey: "animals.txt", schema.FileNameKey: "animals.txt", schema.ChunkIDKey: 0,
		}),
		schema.New("vector indexes answer nearest neighbor queries", map[string]interface{}{
			schema.SourceKey: "indexes.txt", schema.FileNameKey: "indexes.txt", schema.ChunkIDKey: 0,
		}),
		schema.New("persisted snapshots survive process restarts", map[string]interface{}{
			schema.SourceKey: "snapshots.txt", schema.FileNameKey: "snapshots.txt", schema.ChunkIDKey: 0,
		}),
	}
}

func newTestManager(t *testing.T, dir string) *Manager {
	t.Helper()
	m, err := NewManager(dir, "simple-64", embeddings.NewSimpleEmbedder(64), WithTopK(4))
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func TestCreateEmptyFails(t *testing.T) {
	m := newTestManager(t, t.TempDir())
	err := m.Create(context.Background(), nil)
	if !errors.Is(err, ErrNoDocuments) {
		t.Fatalf("expected ErrNoDocuments, got %v", err)
	}
	if m.Initialized() {
		t.Fatalf("failed create must not leave a store behind")
	}
	if m.Count() != 0 {
		t.Fatalf("expected count 0, got %d", m.Count())
	}
}

func TestAddEmptyIsNoop(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, t.TempDir())
	if err := m.Add(ctx, nil); err != nil {
		t.Fatalf("add empty: %v", err)
	}
	if m.Count() != 0 {
		t.Fatalf("expected count 0 after empty add, got %d", m.Count())
	}
	if err := m.Add(ctx, testDocs()); err != nil {
		t.Fatalf("add: %v", err)
	}
	count := m.Count()
	if err := m.Add(ctx, nil); err != nil {
		t.Fatalf("add empty: %v", err)
	}
	if m.Count() != count {
		t.Fatalf("empty add changed count from %d to %d", count, m.Count())
	}
}

func TestAddCreatesLazily(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, t.TempDir())
	if err := m.Add(ctx, testDocs()); err != nil {
		t.Fatalf("lazy create via add: %v", err)
	}
	if m.Count() != 3 {
		t.Fatalf("expected 3 chunks, got %d", m.Count())
	}
}

func TestPersistUninitialized(t *testing.T) {
	m := newTestManager(t, t.TempDir())
	if err := m.Persist(context.Background()); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
}

func TestSearchUninitialized(t *testing.T) {
	m := newTestManager(t, t.TempDir())
	_, err := m.SimilaritySearch(context.Background(), "anything", 0)
	if !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
}

func TestPersistLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	m := newTestManager(t, dir)
	if err := m.Create(ctx, testDocs()); err != nil {
		t.Fatalf("create: %v", err)
	}
	wantCount := m.Count()
	if err := m.Persist(ctx); err != nil {
		t.Fatalf("persist: %v", err)
	}

	fresh := newTestManager(t, dir)
	state, err := fresh.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if state != Loaded {
		t.Fatalf("expected Loaded, got %v", state)
	}
	if fresh.Count() != wantCount {
		t.Fatalf("expected count %d after reload, got %d", wantCount, fresh.Count())
	}

	docs, err := fresh.SimilaritySearchWithScores(ctx, "the quick brown fox jumps over the lazy dog", 3)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	found := false
	for _, doc := range docs {
		if doc.MetaString(schema.FileNameKey) == "animals.txt" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected known phrase chunk among top results, got %+v", docs)
	}
}

func TestLoadNotFound(t *testing.T) {
	m := newTestManager(t, t.TempDir())
	state, err := m.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if state != LoadNotFound {
		t.Fatalf("expected LoadNotFound, got %v", state)
	}
	if m.Initialized() {
		t.Fatalf("not-found load must not initialize the store")
	}
}

func TestLoadCorrupt(t *testing.T) {
	ctx := context.Background()
	namespace, err := Namespace("simple-64")
	if err != nil {
		t.Fatalf("namespace: %v", err)
	}
	testCases := []struct {
		description string
		asset       string
	}{
		{description: "garbled tree snapshot", asset: "index_" + namespace + ".tre"},
		{description: "garbled value snapshot", asset: "index_" + namespace + ".dat"},
		{description: "garbled manifest", asset: "index_" + namespace + ".json"},
	}
	for _, testCase := range testCases {
		dir := t.TempDir()
		m := newTestManager(t, dir)
		if err := m.Create(ctx, testDocs()); err != nil {
			t.Fatalf("%v: create: %v", testCase.description, err)
		}
		if err := m.Persist(ctx); err != nil {
			t.Fatalf("%v: persist: %v", testCase.description, err)
		}
		garbage := []byte("{not a snapshot")
		if err := os.WriteFile(filepath.Join(dir, testCase.asset), garbage, 0o644); err != nil {
			t.Fatalf("%v: overwrite snapshot: %v", testCase.description, err)
		}
		fresh := newTestManager(t, dir)
		state, err := fresh.Load(ctx)
		if state != LoadCorrupt {
			t.Fatalf("%v: expected LoadCorrupt, got %v", testCase.description, state)
		}
		if err == nil {
			t.Fatalf("%v: expected load error", testCase.description)
		}
		if fresh.Initialized() {
			t.Fatalf("%v: corrupt load must not initialize the store", testCase.description)
		}
		if fresh.Count() != 0 {
			t.Fatalf("%v: expected count 0 after corrupt load, got %d", testCase.description, fresh.Count())
		}
	}
}

func TestDeleteResets(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	m := newTestManager(t, dir)
	if err := m.Create(ctx, testDocs()); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := m.Persist(ctx); err != nil {
		t.Fatalf("persist: %v", err)
	}
	if err := m.Delete(ctx); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if m.Count() != 0 {
		t.Fatalf("expected count 0 after delete, got %d", m.Count())
	}
	state, err := m.Load(ctx)
	if err != nil {
		t.Fatalf("load after delete: %v", err)
	}
	if state != LoadNotFound {
		t.Fatalf("expected LoadNotFound after delete, got %v", state)
	}
}

func TestDefaultTopK(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, t.TempDir())
	if err := m.Create(ctx, testDocs()); err != nil {
		t.Fatalf("create: %v", err)
	}
	docs, err := m.SimilaritySearch(ctx, "neighbors", 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(docs) == 0 {
		t.Fatalf("expected results with default k")
	}
	for _, doc := range docs {
		if doc.Score != 0 {
			t.Fatalf("unscored search must zero scores, got %v", doc.Score)
		}
	}
}
