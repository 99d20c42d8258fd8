package extractor

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/viant/afs"
)

// ErrNoTextContent indicates a source yielded no text after extraction and
// cleanup.
var ErrNoTextContent = errors.New("no text content")

// UnsupportedTypeError indicates a file extension no extraction strategy
// handles.
type UnsupportedTypeError struct {
	Extension string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported file type: %s", e.Extension)
}

// extractFn converts raw file bytes into plain text.
type extractFn func(data []byte) (string, error)

// Service converts raw documents into plain text, dispatching on the file
// extension for file sources.
type Service struct {
	fs         afs.Service
	byExt      map[string]extractFn
	extensions []string
}

// New creates an extraction service with the built-in strategies registered.
func New() *Service {
	s := &Service{
		fs:    afs.New(),
		byExt: map[string]extractFn{},
	}
	s.register(".pdf", extractPDF)
	s.register(".docx", extractDOCX)
	s.register(".txt", extractPlain)
	s.register(".md", extractPlain)
	s.register(".html", extractHTMLFile)
	s.register(".xlsx", extractExcel)
	s.register(".xls", extractXLS)
	return s
}

func (s *Service) register(ext string, fn extractFn) {
	s.byExt[ext] = fn
	s.extensions = append(s.extensions, ext)
}

// Restrict narrows the registered strategies to the given extensions.
// Unknown extensions are ignored; an empty list leaves the registry as is.
func (s *Service) Restrict(extensions []string) {
	if len(extensions) == 0 {
		return
	}
	allowed := map[string]bool{}
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		allowed[ext] = true
	}
	byExt := map[string]extractFn{}
	var kept []string
	for _, ext := range s.extensions {
		if allowed[ext] {
			byExt[ext] = s.byExt[ext]
			kept = append(kept, ext)
		}
	}
	s.byExt = byExt
	s.extensions = kept
}

// SupportedExtensions returns the registered file extensions.
func (s *Service) SupportedExtensions() []string {
	out := make([]string, len(s.extensions))
	copy(out, s.extensions)
	return out
}

// Supported reports whether the location's extension has a registered
// extraction strategy.
func (s *Service) Supported(location string) bool {
	_, ok := s.byExt[strings.ToLower(filepath.Ext(location))]
	return ok
}

// ExtractFile reads a file and returns its plain-text content.
func (s *Service) ExtractFile(ctx context.Context, location string) (string, error) {
	ext := strings.ToLower(filepath.Ext(location))
	if _, ok := s.byExt[ext]; !ok {
		return "", &UnsupportedTypeError{Extension: ext}
	}
	data, err := s.fs.DownloadWithURL(ctx, location)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", location, err)
	}
	return s.ExtractBytes(location, data)
}

// ExtractBytes extracts plain text from in-memory file content, dispatching
// on the location's extension.
func (s *Service) ExtractBytes(location string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(location))
	fn, ok := s.byExt[ext]
	if !ok {
		return "", &UnsupportedTypeError{Extension: ext}
	}
	text, err := fn(data)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", location, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("extract %s: %w", location, ErrNoTextContent)
	}
	return text, nil
}

func extractPlain(data []byte) (string, error) {
	return string(data), nil
}
