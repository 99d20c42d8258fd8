package vectordb

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/doctalk/doctalk/embeddings"
	"github.com/doctalk/doctalk/schema"
	"github.com/viant/bintly"
	"github.com/viant/gds/tree/cover"
)

func embedText(t *testing.T, embedder *embeddings.SimpleEmbedder, text string) []float32 {
	t.Helper()
	vector, err := embedder.EmbedQuery(context.Background(), text)
	if err != nil {
		t.Fatalf("embed %q: %v", text, err)
	}
	return vector
}

func seedIndex(t *testing.T, texts []string) (*Index, *embeddings.SimpleEmbedder) {
	t.Helper()
	embedder := embeddings.NewSimpleEmbedder(64)
	index := NewIndex()
	for i, text := range texts {
		doc := schema.New(text, map[string]interface{}{schema.ChunkIDKey: i})
		index.Add(doc, embedText(t, embedder, text))
	}
	return index, embedder
}

func TestIndexSearchReturnsNearest(t *testing.T) {
	texts := []string{
		"expense reports are due by the fifth",
		"the vpn requires two factor authentication",
		"the cafeteria closes at three",
	}
	index, embedder := seedIndex(t, texts)
	if index.Count() != len(texts) {
		t.Fatalf("expected count %d, got %d", len(texts), index.Count())
	}
	docs := index.Search(embedText(t, embedder, texts[1]), 1)
	if len(docs) != 1 {
		t.Fatalf("expected 1 result, got %d", len(docs))
	}
	if docs[0].PageContent != texts[1] {
		t.Fatalf("expected exact match first, got %q", docs[0].PageContent)
	}
	if docs[0].Score < 0.999 {
		t.Fatalf("identical vector should score ~1, got %v", docs[0].Score)
	}
}

func TestIndexSearchDeduplicates(t *testing.T) {
	embedder := embeddings.NewSimpleEmbedder(64)
	index := NewIndex()
	vector := embedText(t, embedder, "duplicate chunk")
	for i := 0; i < 3; i++ {
		index.Add(schema.New("duplicate chunk", map[string]interface{}{schema.ChunkIDKey: i}), vector)
	}
	index.Add(schema.New("another chunk", nil), embedText(t, embedder, "another chunk"))
	docs := index.Search(vector, 3)
	seen := map[string]int{}
	for _, doc := range docs {
		seen[doc.PageContent]++
	}
	if seen["duplicate chunk"] != 1 {
		t.Fatalf("expected duplicate content collapsed, got %v", seen)
	}
}

func TestIndexEncodeDecodeRoundTrip(t *testing.T) {
	texts := []string{
		"alpha content",
		"beta content",
		"gamma content",
	}
	index, embedder := seedIndex(t, texts)

	var treeBuf, dataBuf bytes.Buffer
	if err := index.Encode(&treeBuf, &dataBuf); err != nil {
		t.Fatalf("encode: %v", err)
	}
	restored := NewIndex()
	if err := restored.Decode(&treeBuf, &dataBuf, index.Count()); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if restored.Count() != len(texts) {
		t.Fatalf("expected count %d after decode, got %d", len(texts), restored.Count())
	}
	docs := restored.Search(embedText(t, embedder, "beta content"), 1)
	if len(docs) != 1 || docs[0].PageContent != "beta content" {
		t.Fatalf("expected restored index to find content, got %+v", docs)
	}
}

func TestSearchCachedSkipsEmbedOnHit(t *testing.T) {
	index, embedder := seedIndex(t, []string{"cached content"})
	calls := 0
	embed := func() ([]float32, error) {
		calls++
		return embedder.EmbedQuery(context.Background(), "cached content")
	}
	for i := 0; i < 2; i++ {
		docs, err := index.SearchCached("cached content", embed, 1)
		if err != nil {
			t.Fatalf("search cached: %v", err)
		}
		if len(docs) != 1 {
			t.Fatalf("expected 1 result, got %d", len(docs))
		}
	}
	if calls != 1 {
		t.Fatalf("expected a single embed call, got %d", calls)
	}
}

func TestQueryCacheEvictsOldest(t *testing.T) {
	cache := newQueryCache(2)
	for i := 0; i < 3; i++ {
		cache.Put(fmt.Sprintf("q%d", i), cover.NewPoint(float32(i)))
	}
	if _, found := cache.Get("q0"); found {
		t.Fatalf("expected oldest entry evicted")
	}
	for _, key := range []string{"q1", "q2"} {
		if _, found := cache.Get(key); !found {
			t.Fatalf("expected %s retained", key)
		}
	}
}

func TestDocumentCodecRoundTrip(t *testing.T) {
	doc := Document(schema.New("chunk body", map[string]interface{}{
		schema.SourceKey:   "guide.pdf",
		schema.FileNameKey: "guide.pdf",
		schema.ChunkIDKey:  2,
	}))
	var clone Document
	data, err := bintly.Marshal(&doc)
	if err != nil {
		t.Fatalf("encode document: %v", err)
	}
	if err := bintly.Unmarshal(data, &clone); err != nil {
		t.Fatalf("decode document: %v", err)
	}
	if clone.PageContent != doc.PageContent {
		t.Fatalf("content mismatch: %q", clone.PageContent)
	}
	if clone.Metadata[schema.SourceKey] != "guide.pdf" {
		t.Fatalf("metadata mismatch: %+v", clone.Metadata)
	}
	if got := clone.Metadata[schema.ChunkIDKey]; got != 2 {
		t.Fatalf("chunk id mismatch: %v", got)
	}
}
