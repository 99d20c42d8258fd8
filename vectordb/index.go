package vectordb

import (
	"io"
	"sync"

	"github.com/doctalk/doctalk/schema"
	"github.com/viant/gds/tree/cover"
)

// Index wraps the cover-tree similarity index with document values and a
// query-vector cache. Reported scores are cosine similarity (1 - cosine
// distance) as returned by the tree; no other normalization is applied.
type Index struct {
	tree  *cover.Tree[*Document]
	cache *queryCache
	count int
	mu    sync.RWMutex
}

// NewIndex creates an empty cosine-distance index.
func NewIndex() *Index {
	return &Index{
		tree:  cover.NewTree[*Document](1.3, cover.DistanceFunctionCosine),
		cache: newQueryCache(100),
	}
}

// Add inserts a document with its embedding vector.
func (x *Index) Add(doc schema.Document, vector []float32) {
	stored := Document(doc)
	point := cover.NewPoint(vector...)
	x.mu.Lock()
	x.tree.Insert(&stored, point)
	x.count++
	x.mu.Unlock()
}

// Count returns the total number of stored entries.
func (x *Index) Count() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.count
}

// Search returns up to k nearest documents for the query vector, deduplicated
// by content when k > 1, each scored with 1 - cosine distance.
func (x *Index) Search(vector []float32, k int) []schema.Document {
	point := cover.NewPoint(vector...)
	return x.searchWithPoint(point, k)
}

// SearchCached looks up a cached query vector by key before falling back to
// embed, then searches.
func (x *Index) SearchCached(key string, embed func() ([]float32, error), k int) ([]schema.Document, error) {
	if point, ok := x.cache.Get(key); ok {
		return x.searchWithPoint(point, k), nil
	}
	vector, err := embed()
	if err != nil {
		return nil, err
	}
	point := cover.NewPoint(vector...)
	x.cache.Put(key, point)
	return x.searchWithPoint(point, k), nil
}

func (x *Index) searchWithPoint(point *cover.Point, k int) []schema.Document {
	x.mu.RLock()
	defer x.mu.RUnlock()
	docs := make([]schema.Document, 0, k)
	unique := make(map[string]bool)
	neighbors := x.tree.KNearestNeighbors(point, k)
	for _, neighbor := range neighbors {
		if len(docs) >= k {
			break
		}
		doc := x.tree.Value(neighbor.Point)
		if doc == nil {
			continue
		}
		if k > 1 {
			if unique[doc.PageContent] {
				continue
			}
			unique[doc.PageContent] = true
		}
		ret := *doc
		ret.Score = 1 - neighbor.Distance
		docs = append(docs, schema.Document(ret))
	}
	return docs
}

// Encode writes the tree topology and document values to the given writers.
func (x *Index) Encode(treeWriter, dataWriter io.Writer) error {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if err := x.tree.EncodeTree(treeWriter); err != nil {
		return err
	}
	return x.tree.EncodeValues(dataWriter)
}

// Decode restores the tree topology and document values from the given
// readers. The entry count is not part of the tree encoding and is supplied
// by the caller from its manifest.
func (x *Index) Decode(treeReader, dataReader io.Reader, count int) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if err := x.tree.DecodeTree(treeReader); err != nil {
		return err
	}
	if err := x.tree.DecodeValues(dataReader); err != nil {
		return err
	}
	x.count = count
	return nil
}
