package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"screening-service/internal/config"
	"screening-service/internal/handlers"
	"screening-service/internal/logger"
	"screening-service/internal/repositories"
	"screening-service/internal/services"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Server.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	db, err := config.InitDatabase(cfg)
	if err != nil {
		log.Fatal("failed to initialize database", zap.Error(err))
	}

	docRepo := repositories.NewDocumentRepository(db)
	evalRepo := repositories.NewEvaluationRepository(db)

	storageService := services.NewStorageService(cfg.Storage.UploadPath)
	if err := storageService.EnsureUploadDir(); err != nil {
		log.Fatal("failed to create upload directory", zap.Error(err))
	}

	pdfParser := services.NewPDFParserService()

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

	if err := vectorIndex.EnsureCollection(context.Background()); err != nil {
		log.Fatal("failed to ensure qdrant collection", zap.Error(err))
	}

	retriever := services.NewContextRetriever(vectorIndex, log)
	llmClient := services.NewStructuredLLMClient(
		geminiService,
		cfg.Worker.RetryMaxAttempts,
		cfg.Worker.RetryDelay,
		log,
	)

	evaluatorService := services.NewEvaluatorService(
		evalRepo,
		docRepo,
		llmClient,
		retriever,
		pdfParser,
		log,
	)

	ingestionService := services.NewIngestionService(
		services.NewTextChunker(),
		vectorIndex,
		pdfParser,
		log,
	)

	worker := services.NewWorker(evalRepo, evaluatorService, cfg.Worker.Concurrency, log)
	worker.Start(context.Background())

	uploadHandler := handlers.NewUploadHandler(docRepo, storageService, cfg.Storage.MaxFileSize)
	evaluateHandler := handlers.NewEvaluationHandler(evalRepo, docRepo, worker)
	resultHandler := handlers.NewResultHandler(evalRepo)
	documentHandler := handlers.NewDocumentHandler(vectorIndex, ingestionService)

	app := fiber.New(fiber.Config{
		AppName:      "AI Screening Service",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		BodyLimit:    int(cfg.Storage.MaxFileSize),
		ErrorHandler: customErrorHandler,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	api := app.Group("/api/v1")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	api.Post("/upload", uploadHandler.HandleUpload)
	api.Post("/evaluate", evaluateHandler.HandleEvaluate)
	api.Get("/result/:id", resultHandler.HandleGetResult)
	api.Get("/documents", documentHandler.HandleListDocuments)
	api.Post("/documents", documentHandler.HandleIngestDocument)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Info("shutting down server")
		worker.Stop()
		if err := app.Shutdown(); err != nil {
			log.Error("server forced to shutdown", zap.Error(err))
		}
	}()

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Info("server starting", zap.String("addr", addr))

	if err := app.Listen(addr); err != nil {
		log.Fatal("failed to start server", zap.Error(err))
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
