package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"ivyx/readiness-api/internal/config"
	"ivyx/readiness-api/internal/repositories"
	"ivyx/readiness-api/internal/services"
)

// Bulk-loads admissions reference PDFs into the vector store:
//
//	go run ./scripts/ingest_documents.go -dir ./reference_docs -type guide
func main() {
	dir := flag.String("dir", "./reference_docs", "directory containing reference PDFs")
	docType := flag.String("type", "guide", "document type stored with every chunk")
	flag.Parse()

	log.Println("🚀 Starting reference ingestion...")

	cfg := config.Load()
	if !cfg.ReferencesEnabled() {
		log.Fatal("❌ QDRANT_URL and GEMINI_API_KEY are required for ingestion")
	}

	ctx := context.Background()

	gemini, err := services.NewGeminiService(cfg.LLM.Gemini.APIKey, cfg.LLM.Gemini.Model, cfg.LLM.Gemini.EmbedModel, cfg.LLM.Timeout)
	if err != nil {
		log.Fatalf("❌ Failed to initialize Gemini: %v", err)
	}

	qdrantService, err := services.NewQdrantService(cfg.Qdrant.URL, cfg.Qdrant.APIKey, cfg.Qdrant.Collection, cfg.Qdrant.VectorSize)
	if err != nil {
		log.Fatalf("❌ Failed to initialize Qdrant: %v", err)
	}
	defer qdrantService.Close()

	if err := qdrantService.InitCollection(ctx); err != nil {
		log.Fatalf("❌ Failed to initialize collection: %v", err)
	}

	var docRepo repositories.DocumentRepository
	if cfg.Database.Driver == config.StoreDriverMemory {
		docRepo = repositories.NewMemoryDocumentRepository()
	} else {
		db, err := config.InitDatabase(cfg)
		if err != nil {
			log.Fatalf("❌ Failed to initialize database: %v", err)
		}
		defer config.CloseDatabase(db)
		docRepo = repositories.NewDocumentRepository(db)
	}

	storage := services.NewStorageService(cfg.Storage.UploadPath)
	if err := storage.EnsureUploadDir(); err != nil {
		log.Fatalf("❌ Failed to create upload directory: %v", err)
	}

	library := services.NewReferenceLibrary(
		storage,
		services.NewPDFParserService(),
		services.NewTextChunker(),
		gemini,
		qdrantService,
		docRepo,
	)

	paths, err := filepath.Glob(filepath.Join(*dir, "*.pdf"))
	if err != nil {
		log.Fatalf("❌ Failed to list %s: %v", *dir, err)
	}
	if len(paths) == 0 {
		log.Printf("⚠️ No PDF files found in %s", *dir)
		return
	}

	successCount, failCount := 0, 0
	for _, path := range paths {
		log.Printf("📄 Processing: %s", filepath.Base(path))

		if ingestOne(ctx, library, path, *docType) {
			successCount++
		} else {
			failCount++
		}
	}

	log.Println(strings.Repeat("=", 60))
	log.Printf("📊 Ingestion Summary:")
	log.Printf("   ✅ Successful: %d documents", successCount)
	log.Printf("   ❌ Failed: %d documents", failCount)
	log.Println(strings.Repeat("=", 60))

	if failCount > 0 {
		log.Println("⚠️  Some documents failed to ingest. Please check the logs above.")
		os.Exit(1)
	}
}

func ingestOne(ctx context.Context, library services.ReferenceLibrary, path, docType string) bool {
	f, err := os.Open(path)
	if err != nil {
		log.Printf("   ❌ Failed to open: %v", err)
		return false
	}
	defer f.Close()

	doc, err := library.IngestReader(ctx, f, filepath.Base(path), docType)
	if err != nil {
		log.Printf("   ❌ Failed to ingest: %v", err)
		return false
	}

	log.Printf("   ✅ Stored %d chunks as %s", doc.ChunkCount, doc.ID)
	return true
}
