package schema

// Metadata keys shared across ingestion, storage and retrieval.
const (
	SourceKey   = "source"
	FileTypeKey = "fileType"
	FileNameKey = "fileName"
	TitleKey    = "title"
	ChunkIDKey  = "chunkId"
)

// WebPageType is the value recorded under FileTypeKey for web inputs.
const WebPageType = "web_page"

// Document represents a text chunk with metadata and an optional score.
// It is the unit of storage and retrieval across this repository.
type Document struct {
	PageContent string                 `json:"page_content"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	// Score is populated by similarity search. It is the cosine similarity
	// reported by the underlying index (1 - cosine distance); no other
	// normalization is guaranteed.
	Score float32 `json:"score,omitempty"`
}

// New creates a document with a copy of the supplied metadata.
func New(content string, metadata map[string]interface{}) Document {
	meta := make(map[string]interface{}, len(metadata))
	for k, v := range metadata {
		meta[k] = v
	}
	return Document{PageContent: content, Metadata: meta}
}

// MetaString returns a string metadata value or "" when absent.
func (d *Document) MetaString(key string) string {
	if value, ok := d.Metadata[key]; ok {
		text, _ := value.(string)
		return text
	}
	return ""
}

// MetaInt returns an int metadata value or -1 when absent.
func (d *Document) MetaInt(key string) int {
	switch value := d.Metadata[key].(type) {
	case int:
		return value
	case float64:
		return int(value)
	}
	return -1
}

// SourceName returns the display name of the originating source: the file
// name for file inputs, the page title for web inputs.
func (d *Document) SourceName() string {
	if name := d.MetaString(FileNameKey); name != "" {
		return name
	}
	if title := d.MetaString(TitleKey); title != "" {
		return title
	}
	return d.MetaString(SourceKey)
}
