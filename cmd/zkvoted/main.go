package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/metadb"

	"github.com/promisethread/zkvote/census"
	"github.com/promisethread/zkvote/log"
	"github.com/promisethread/zkvote/service"
	"github.com/promisethread/zkvote/snark"
	"github.com/promisethread/zkvote/storage"
)

func main() {
	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logging
	log.Init(cfg.Log.Level, cfg.Log.Output, nil)
	log.Infow("starting zkvoted", "version", Version)

	// Validate configuration
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize storage database
	log.Infow("initializing storage", "datadir", cfg.Datadir, "type", db.TypePebble)
	storagedb, err := metadb.New(db.TypePebble, cfg.Datadir)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	stg, err := storage.New(storagedb)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer stg.Close()

	// Build and publish a fresh anonymity set when a registry snapshot is
	// provided; otherwise the previously published set (if any) stays active.
	if cfg.Census.Registry != "" {
		set, err := publishRegistry(stg, cfg.Census.Registry, cfg.Census.Depth)
		if err != nil {
			log.Fatalf("Failed to publish anonymity set: %v", err)
		}
		log.Infow("anonymity set published",
			"epoch", set.Epoch.String(), "root", set.Root.String(), "size", set.Size)
	} else if _, err := stg.Census().Current(); errors.Is(err, census.ErrNoPublishedSet) {
		log.Warn("no anonymity set published, proof verification will reject every root")
	}

	// Load the verifying key and create the proof verifier
	backend, err := snark.LoadGroth16Backend(cfg.Snark.Vkey)
	if err != nil {
		log.Fatalf("Failed to load verifying key: %v", err)
	}
	verifier := snark.NewVerifier(backend, stg.Census())

	// Start API service
	log.Infow("starting API service", "host", cfg.API.Host, "port", cfg.API.Port)
	apiService := service.NewAPI(stg, verifier, cfg.API.Host, cfg.API.Port)
	if err := apiService.Start(ctx); err != nil {
		log.Fatalf("Failed to start API service: %v", err)
	}
	defer apiService.Stop()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh
	log.Infow("received signal, shutting down", "signal", sig.String())
}

// publishRegistry reads a registry snapshot JSON file and publishes the
// anonymity set built from it. The snapshot file holds the voter secrets, so
// it must never live in the datadir.
func publishRegistry(stg *storage.Storage, path string, depth int) (*census.PublishedSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry snapshot %s: %w", path, err)
	}
	var entries []census.RegistryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse registry snapshot: %w", err)
	}
	return stg.Census().BuildAndPublish(entries, depth)
}
