package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/mangrove-labs/sortd/internal/capture"
	"github.com/mangrove-labs/sortd/internal/chat"
	"github.com/mangrove-labs/sortd/internal/classify"
	"github.com/mangrove-labs/sortd/internal/config"
	"github.com/mangrove-labs/sortd/internal/dedup"
	"github.com/mangrove-labs/sortd/internal/digest"
	"github.com/mangrove-labs/sortd/internal/filer"
	"github.com/mangrove-labs/sortd/internal/ledger"
	"github.com/mangrove-labs/sortd/internal/llm"
	"github.com/mangrove-labs/sortd/internal/server"
	"github.com/mangrove-labs/sortd/internal/taskstore"
)

func main() {
	collectionsPath := flag.String("collections", "", "Path to collections mapping file (default: $SORTD_COLLECTIONS_FILE)")
	flag.Parse()

	if *collectionsPath != "" {
		os.Setenv("SORTD_COLLECTIONS_FILE", *collectionsPath)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Hot reload for file-backed collection mappings.
	if watcher := config.NewCollectionsWatcher(cfg.Collections); watcher != nil {
		if err := watcher.Start(); err != nil {
			log.Fatalf("Failed to start collections watcher: %v", err)
		}
		defer watcher.Stop()
	}

	llmClient := llm.NewAnthropicClient(llm.AnthropicConfig{
		APIKey: cfg.LLM.AnthropicAPIKey,
		Model:  cfg.LLM.AnthropicModel,
	})
	classifier := classify.NewClassifier(llmClient)

	store := taskstore.NewClient(taskstore.Config{
		APIToken: cfg.TaskStore.APIToken,
		BaseURL:  cfg.TaskStore.BaseURL,
	})

	if err := os.MkdirAll(filepath.Dir(cfg.Ledger.IndexPath), 0o700); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}
	index, err := ledger.OpenIndex(cfg.Ledger.IndexPath)
	if err != nil {
		// The index is an optimization; the ledger scan still works.
		log.Printf("Correlation index unavailable, falling back to scans: %v", err)
		index = nil
	} else {
		defer index.Close()
	}

	chatClient := chat.NewClient(chat.Config{BotToken: cfg.Chat.BotToken})
	verifier := chat.NewVerifier(cfg.Chat.SigningSecret)

	inboxLedger := ledger.New(store, cfg.Collections.InboxLogID(), index)
	recordFiler := filer.New(store, cfg.Collections)
	window := dedup.NewWindow(dedup.DefaultSize)

	processor := capture.NewProcessor(classifier, recordFiler, inboxLedger, chatClient, window)
	digests := digest.NewGenerator(store, llmClient, chatClient, cfg.Collections, cfg.Chat.UserID)

	srv := server.New(cfg, verifier, processor, digests, llmClient)
	addr, err := srv.Start(ctx)
	if err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
	log.Printf("sortd listening on http://%s", addr)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down gracefully...")
	cancel()
}
