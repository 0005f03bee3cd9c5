package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"screening-service/internal/config"
	"screening-service/internal/logger"
	"screening-service/internal/services"
)

// Batch ingestion of the reference corpus. Each file in the ground-truth
// directory becomes one source, tagged by its base name without
// extension (e.g. job_description.pdf -> source "job_description").
func main() {
	dir := flag.String("dir", "./docs_ground_truth", "directory containing reference documents (.pdf or .txt)")
	flag.Parse()

	cfg := config.Load()

	log, err := logger.New(cfg.Server.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	geminiService, err := services.NewGeminiService(cfg.Gemini.APIKey, log)
	if err != nil {
		log.Fatal("failed to initialize gemini", zap.Error(err))
	}

	vectorIndex, err := services.NewQdrantIndex(
		cfg.Qdrant.URL,
		cfg.Qdrant.APIKey,
		cfg.Qdrant.Collection,
		geminiService,
		log,
	)
	if err != nil {
		log.Fatal("failed to initialize qdrant", zap.Error(err))
	}

	ctx := context.Background()
	if err := vectorIndex.EnsureCollection(ctx); err != nil {
		log.Fatal("failed to ensure qdrant collection", zap.Error(err))
	}

	ingestion := services.NewIngestionService(
		services.NewTextChunker(),
		vectorIndex,
		services.NewPDFParserService(),
		log,
	)

	entries, err := os.ReadDir(*dir)
	if err != nil {
		log.Fatal("failed to read documents directory", zap.String("dir", *dir), zap.Error(err))
	}

	ingested := 0
	failed := 0

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".pdf" && ext != ".txt" {
			continue
		}

		path := filepath.Join(*dir, name)
		sourceName := strings.TrimSuffix(name, filepath.Ext(name))

		if !services.SourceCategory(sourceName).Valid() {
			log.Warn("source is not one of the retrieval categories; its chunks will never be retrieved",
				zap.String("source", sourceName))
		}

		data, err := os.ReadFile(path)
		if err != nil {
			log.Error("failed to read file", zap.String("path", path), zap.Error(err))
			failed++
			continue
		}

		chunks, err := ingestion.IngestDocument(ctx, data, name, sourceName)
		if err != nil {
			log.Error("failed to ingest document", zap.String("source", sourceName), zap.Error(err))
			failed++
			continue
		}

		log.Info("ingested document", zap.String("source", sourceName), zap.Int("chunks", chunks))
		ingested++
	}

	log.Info("ingestion finished", zap.Int("ingested", ingested), zap.Int("failed", failed))
	if failed > 0 {
		os.Exit(1)
	}
}
