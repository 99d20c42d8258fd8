package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/gops/agent"

	"github.com/doctalk/doctalk/embeddings"
	openaiembed "github.com/doctalk/doctalk/embeddings/openai"
	"github.com/doctalk/doctalk/qa"
	"github.com/doctalk/doctalk/service"

	_ "github.com/viant/afsc/gs"
	_ "github.com/viant/afsc/s3"
)

func main() {
	startGops()
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "index":
		indexCmd(os.Args[2:])
	case "ask":
		askCmd(os.Args[2:])
	case "chat":
		chatCmd(os.Args[2:])
	case "status":
		statusCmd(os.Args[2:])
	case "reset":
		resetCmd(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: doctalk <command> [options]")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  index   Ingest a file, directory, or web page into the document store")
	fmt.Fprintln(os.Stderr, "  ask     Answer a single question over the indexed documents")
	fmt.Fprintln(os.Stderr, "  chat    Interactive question answering with conversation history")
	fmt.Fprintln(os.Stderr, "  status  Show document count and ingested sources")
	fmt.Fprintln(os.Stderr, "  reset   Delete the persisted index and clear the source registry")
}

func indexCmd(args []string) {
	flags := flag.NewFlagSet("index", flag.ExitOnError)
	configPath := flags.String("config", "", "config yaml (optional)")
	source := flags.String("source", "", "file path, directory, or http(s) URL (required)")
	embedderName := flags.String("embedder", "openai", "embedder: openai|simple")
	verbose := flags.Bool("v", false, "verbose logging")
	flags.Parse(args)

	if *source == "" {
		log.Fatalf("index: --source is required")
	}
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	svc := newService(ctx, *configPath, *embedderName, *verbose)
	defer func() { _ = svc.Close() }()

	var chunks int
	var err error
	switch {
	case isWebURL(*source):
		chunks, err = svc.IndexURL(ctx, *source)
	case isDirectory(*source):
		chunks, err = svc.IndexDirectory(ctx, *source)
	default:
		chunks, err = svc.IndexFile(ctx, *source)
	}
	if err != nil {
		log.Fatalf("index: %v", err)
	}
	fmt.Printf("indexed %d chunks from %s\n", chunks, *source)
}

func askCmd(args []string) {
	flags := flag.NewFlagSet("ask", flag.ExitOnError)
	configPath := flags.String("config", "", "config yaml (optional)")
	question := flags.String("q", "", "question to answer (required)")
	showSources := flags.Bool("sources", false, "print cited sources")
	flags.Parse(args)

	if *question == "" {
		log.Fatalf("ask: --q is required")
	}
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	svc := newService(ctx, *configPath, "openai", false)
	defer func() { _ = svc.Close() }()

	resp, err := svc.Ask(ctx, *question)
	if err != nil {
		log.Fatalf("ask: %v", err)
	}
	printResponse(resp, *showSources)
}

func chatCmd(args []string) {
	flags := flag.NewFlagSet("chat", flag.ExitOnError)
	configPath := flags.String("config", "", "config yaml (optional)")
	showSources := flags.Bool("sources", false, "print cited sources")
	flags.Parse(args)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	svc := newService(ctx, *configPath, "openai", false)
	defer func() { _ = svc.Close() }()

	fmt.Println("doctalk chat; empty line or Ctrl-D to exit")
	var history []qa.Turn
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			break
		}
		resp, err := svc.Chat(ctx, question, history)
		if err != nil {
			fmt.Fprintf(os.Stderr, "chat: %v\n", err)
			continue
		}
		printResponse(resp, *showSources)
		history = append(history, qa.Turn{Question: question, Answer: resp.Answer})
	}
}

func statusCmd(args []string) {
	flags := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := flags.String("config", "", "config yaml (optional)")
	embedderName := flags.String("embedder", "openai", "embedder the store was indexed with: openai|simple")
	flags.Parse(args)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	svc := newReadOnlyService(ctx, *configPath, *embedderName)
	defer func() { _ = svc.Close() }()

	status, err := svc.Status(ctx)
	if err != nil {
		log.Fatalf("status: %v", err)
	}
	fmt.Printf("documents: %d\n", status.DocumentCount)
	for _, src := range status.Sources {
		fmt.Printf("  %-9s %-40s chunks=%d ingested=%s\n",
			src.Kind, src.Name, src.ChunkCount, src.IngestedAt.Format("2006-01-02 15:04"))
	}
}

func resetCmd(args []string) {
	flags := flag.NewFlagSet("reset", flag.ExitOnError)
	configPath := flags.String("config", "", "config yaml (optional)")
	embedderName := flags.String("embedder", "openai", "embedder the store was indexed with: openai|simple")
	flags.Parse(args)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	svc := newReadOnlyService(ctx, *configPath, *embedderName)
	defer func() { _ = svc.Close() }()

	if err := svc.Reset(ctx); err != nil {
		log.Fatalf("reset: %v", err)
	}
	fmt.Println("document store cleared")
}

func newService(ctx context.Context, configPath, embedderName string, verbose bool) *service.Service {
	cfg := loadConfig(ctx, configPath)
	opts := []service.Option{service.WithLogger(newLogger(verbose))}
	if emb, model := selectEmbedder(embedderName, cfg); emb != nil {
		opts = append(opts, service.WithEmbedder(emb, model))
	}
	svc, err := service.New(ctx, cfg, opts...)
	if err != nil {
		log.Fatalf("service init: %v", err)
	}
	return svc
}

// newReadOnlyService builds a service for commands that never embed (status,
// reset). A placeholder embedder is used, keyed to the namespace of the
// embedder the store was indexed with so the snapshot is found.
func newReadOnlyService(ctx context.Context, configPath, embedderName string) *service.Service {
	cfg := loadConfig(ctx, configPath)
	svc, err := service.New(ctx, cfg,
		service.WithLogger(newLogger(false)),
		service.WithEmbedder(embeddings.NewSimpleEmbedder(64), namespaceModel(embedderName, cfg)))
	if err != nil {
		log.Fatalf("service init: %v", err)
	}
	return svc
}

func loadConfig(ctx context.Context, configPath string) *service.Config {
	cfg, err := service.LoadConfig(ctx, configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// namespaceModel mirrors selectEmbedder's model identifiers for commands
// that address an existing snapshot without embedding.
func namespaceModel(name string, cfg *service.Config) string {
	if strings.ToLower(strings.TrimSpace(name)) == "simple" {
		return "simple-64"
	}
	return cfg.OpenAI.EmbeddingModel
}

// selectEmbedder resolves an embedder together with the model identifier
// that keys its snapshot namespace; simple and openai vectors must never
// land in the same index.
func selectEmbedder(name string, cfg *service.Config) (embeddings.Embedder, string) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "simple":
		return embeddings.NewSimpleEmbedder(64), "simple-64"
	case "openai":
		if cfg.OpenAI.APIKey == "" {
			return nil, ""
		}
		return &openaiembed.Embedder{C: openaiembed.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.EmbeddingModel)}, cfg.OpenAI.EmbeddingModel
	default:
		return nil, ""
	}
}

func printResponse(resp *qa.Response, showSources bool) {
	fmt.Println(resp.Answer)
	if resp.Error != "" {
		fmt.Fprintf(os.Stderr, "warning: %s\n", resp.Error)
	}
	if !showSources {
		return
	}
	for i, src := range resp.Sources {
		name, _ := src.Metadata["fileName"].(string)
		if name == "" {
			name, _ = src.Metadata["source"].(string)
		}
		fmt.Printf("[%d] %s: %s\n", i+1, name, src.Content)
	}
}

func isWebURL(source string) bool {
	u, err := url.Parse(source)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https")
}

func isDirectory(source string) bool {
	info, err := os.Stat(source)
	return err == nil && info.IsDir()
}

func startGops() {
	if err := agent.Listen(agent.Options{ShutdownCleanup: true}); err != nil {
		log.Printf("gops: %v", err)
	}
}
