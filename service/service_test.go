package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/doctalk/doctalk/embeddings"
)

type cannedCompleter struct{ answer string }

func (c *cannedCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	return c.answer, nil
}

func testService(t *testing.T) *Service {
	t.Helper()
	dir := t.TempDir()
	return testServiceAt(t, dir, "simple-64")
}

func testServiceAt(t *testing.T, dir, model string) *Service {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Store.BaseURL = filepath.Join(dir, "index")
	cfg.Registry.DSN = filepath.Join(dir, "registry.db")
	cfg.OpenAI.APIKey = "unused"
	svc, err := New(context.Background(), cfg,
		WithEmbedder(embeddings.NewSimpleEmbedder(64), model),
		WithCompleter(&cannedCompleter{answer: "The handbook covers expenses."}))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func TestIndexFileAndAsk(t *testing.T) {
	svc := testService(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "handbook.txt")
	content := "Expense reports are due by the fifth of each month.\n\nThe VPN requires two factor authentication."
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	chunks, err := svc.IndexFile(context.Background(), path)
	if err != nil {
		t.Fatalf("index file: %v", err)
	}
	if chunks == 0 {
		t.Fatalf("expected chunks to be indexed")
	}
	resp, err := svc.Ask(context.Background(), "when are expense reports due?")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if !strings.Contains(resp.Answer, "expenses") {
		t.Fatalf("unexpected answer: %q", resp.Answer)
	}

	status, err := svc.Status(context.Background())
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.DocumentCount != chunks {
		t.Fatalf("expected %d documents, got %d", chunks, status.DocumentCount)
	}
	if len(status.Sources) != 1 || status.Sources[0].Name != "handbook.txt" {
		t.Fatalf("unexpected sources: %+v", status.Sources)
	}
	if status.Sources[0].Kind != "file" {
		t.Fatalf("unexpected source kind: %q", status.Sources[0].Kind)
	}
}

func TestAskBeforeIndexing(t *testing.T) {
	svc := testService(t)
	if _, err := svc.Ask(context.Background(), "anything?"); err == nil {
		t.Fatalf("expected error before any documents are indexed")
	}
}

func TestEmbedderModelIsolatesNamespace(t *testing.T) {
	dir := t.TempDir()
	svc := testServiceAt(t, dir, "model-a")
	docs := t.TempDir()
	path := filepath.Join(docs, "guide.txt")
	if err := os.WriteFile(path, []byte("badges are issued by the front desk"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := svc.IndexFile(context.Background(), path); err != nil {
		t.Fatalf("index file: %v", err)
	}
	if err := svc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	other := testServiceAt(t, dir, "model-b")
	status, err := other.Status(context.Background())
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.DocumentCount != 0 {
		t.Fatalf("expected no documents under a different model namespace, got %d", status.DocumentCount)
	}
	if err := other.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	again := testServiceAt(t, dir, "model-a")
	status, err = again.Status(context.Background())
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.DocumentCount == 0 {
		t.Fatalf("expected documents to survive under the original model namespace")
	}
}

func TestResetClearsStoreAndRegistry(t *testing.T) {
	svc := testService(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("the onboarding guide covers account setup"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := svc.IndexFile(context.Background(), path); err != nil {
		t.Fatalf("index file: %v", err)
	}
	if err := svc.Reset(context.Background()); err != nil {
		t.Fatalf("reset: %v", err)
	}
	status, err := svc.Status(context.Background())
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.DocumentCount != 0 || len(status.Sources) != 0 {
		t.Fatalf("expected empty store after reset, got %+v", status)
	}
}
