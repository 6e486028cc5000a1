package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/calyxlabs/curator/config"
	"github.com/calyxlabs/curator/internal/api/handlers"
	"github.com/calyxlabs/curator/internal/api/middleware"
	"github.com/calyxlabs/curator/internal/api/routes"
	"github.com/calyxlabs/curator/internal/cache"
	"github.com/calyxlabs/curator/internal/logger"
	"github.com/calyxlabs/curator/internal/models"
	"github.com/calyxlabs/curator/internal/providers/embedding"
	"github.com/calyxlabs/curator/internal/providers/processor"
	mongorepo "github.com/calyxlabs/curator/internal/repositories/mongo"
	pgrepo "github.com/calyxlabs/curator/internal/repositories/postgres"
	"github.com/calyxlabs/curator/internal/services"
	"github.com/calyxlabs/curator/internal/storage"
	"github.com/calyxlabs/curator/internal/workers"
)

func main() {
	_ = godotenv.Load()

	lg := logger.New()

	// Init MongoDB
	if err := config.InitMongo(); err != nil {
		log.Fatalf("MongoDB init error: %v", err)
	}
	fmt.Println("MongoDB connected")

	// Init PostgreSQL
	if err := config.InitPostgres(); err != nil {
		log.Fatalf("PostgreSQL init error: %v", err)
	}
	fmt.Println("PostgreSQL connected")

	// Init Redis
	if err := config.InitRedis(); err != nil {
		log.Fatalf("Redis init error: %v", err)
	}
	fmt.Println("Redis connected")

	if err := config.EnsureMongoIndexes(); err != nil {
		log.Fatalf("Mongo index error: %v", err)
	}

	ctx := context.Background()

	// Repositories
	db := config.PostgresDB
	profileRepo := pgrepo.NewProfileRepo(db)
	documentRepo := pgrepo.NewDocumentRepo(db)
	chunkRepo := pgrepo.NewChunkRepo(db)
	vectorRepo := pgrepo.NewVectorRepo(db)
	settingRepo := pgrepo.NewSettingRepo(db)
	jobRepo := mongorepo.NewJobRepo(config.MongoClient.Database(config.MongoDBName()))

	// Object storage
	bucket := os.Getenv("GCS_BUCKET")
	if bucket == "" {
		log.Fatal("GCS_BUCKET environment variable is not set")
	}
	store, err := storage.NewGCSStore(ctx, bucket)
	if err != nil {
		log.Fatalf("GCS init error: %v", err)
	}

	// Embedding providers
	embedders := embedding.Registry{}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		embedders[models.ProviderGemini] = embedding.NewGemini(key)
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		embedders[models.ProviderOpenAI] = embedding.NewOpenAI(key)
	}
	if len(embedders) == 0 {
		log.Fatal("no embedding provider configured: set GEMINI_API_KEY or OPENAI_API_KEY")
	}

	// Document processors
	processors := processor.Registry{}
	if base := os.Getenv("FLOWISE_BASE_URL"); base != "" {
		processors[models.ProcessorFlowise] = processor.NewFlowise(
			base, os.Getenv("FLOWISE_FLOW_ID"), os.Getenv("FLOWISE_API_KEY"))
	}
	if project := os.Getenv("VERTEX_PROJECT_ID"); project != "" {
		vg, verr := processor.NewVertexGemini(ctx, project, os.Getenv("VERTEX_LOCATION"), os.Getenv("VERTEX_MODEL"))
		if verr != nil {
			lg.WithError(verr).Warn("vertex processor unavailable; continuing without it")
		} else {
			processors[models.ProcessorDirectGemini] = vg
		}
	}
	if len(processors) == 0 {
		log.Fatal("no document processor configured: set FLOWISE_BASE_URL or VERTEX_PROJECT_ID")
	}

	// Services
	queue := workers.NewQueue(config.RedisClient)
	notifier := services.NewRedisProgressNotifier(config.RedisClient)
	settingsSvc := services.NewSettingsService(settingRepo, cache.NewRedisCache(config.RedisClient))
	profileSvc := services.NewProfileService(profileRepo, lg)
	documentSvc := services.NewDocumentService(documentRepo, chunkRepo, jobRepo, store, queue, settingsSvc, lg)
	reviewSvc := services.NewReviewService(documentRepo, chunkRepo, vectorRepo, settingsSvc, embedders, notifier, lg)
	searchSvc := services.NewSearchService(vectorRepo, settingsSvc, embedders)

	// Background processing pool
	pool := &workers.ProcessWorkerPool{
		Redis:      config.RedisClient,
		Docs:       documentRepo,
		Chunks:     chunkRepo,
		Jobs:       jobRepo,
		Settings:   settingsSvc,
		Processors: processors,
		Signer:     store,
		Logger:     lg,
	}
	if err := pool.Start(ctx); err != nil {
		log.Fatalf("worker pool error: %v", err)
	}
	fmt.Println("worker pool started")

	// Start Gin server
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(lg))

	routes.RegisterRoutes(r, routes.Deps{
		ProfileSvc: profileSvc,
		Document:   handlers.NewDocumentHandler(documentSvc),
		Chunk:      handlers.NewChunkHandler(reviewSvc),
		Admin:      handlers.NewAdminHandler(settingsSvc, profileSvc, searchSvc),
		Profile:    handlers.NewProfileHandler(profileSvc),
		Search:     handlers.NewSearchHandler(searchSvc),
		Auth:       handlers.NewAuthHandler(),
		WS:         handlers.NewWSHandler(documentSvc, config.RedisClient),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
