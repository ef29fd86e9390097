package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"ehr-backend/internal/documents"
	"ehr-backend/internal/elements"
	"ehr-backend/internal/extract"
	"ehr-backend/internal/llm"
	openai "ehr-backend/internal/llm/openai"
	"ehr-backend/internal/search"
	"ehr-backend/internal/shared/config"
	"ehr-backend/internal/shared/server"
	"ehr-backend/internal/shared/storage/db"
	"ehr-backend/internal/shared/storage/object"
	localstore "ehr-backend/internal/shared/storage/object/local"
	s3store "ehr-backend/internal/shared/storage/object/s3"
)

// App holds the shared dependencies of a running server process.
type App struct {
	Config           config.Config
	Router           *gin.Engine
	DB               *sql.DB
	Store            object.ObjectStore
	Index            *search.Index
	DocumentsRepo    documents.DocumentsRepo
	DocumentsService *documents.Service
	DocumentsHandler *documents.Handler
	SearchHandler    *search.Handler
}

// Build prepares dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var docRepo documents.DocumentsRepo
	if sqlDB != nil {
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		docRepo = &documents.PGRepo{DB: sqlDB}
	} else {
		docRepo = documents.NewMemoryRepo()
	}

	index := search.NewIndex()

	docSvc := &documents.Service{
		Repo:   docRepo,
		Store:  store,
		Index:  index,
		Local:  elements.PDFExtractor{},
		Remote: buildRemoteExtractor(cfg),
		Rules:  extract.RuleExtractor{},
		LLM:    buildLLMExtractor(cfg),
	}

	// The index is a cache over the repo; repopulate it before serving.
	if err := docSvc.RebuildIndex(ctx); err != nil {
		return nil, fmt.Errorf("rebuild search index: %w", err)
	}

	app := &App{
		Config:           cfg,
		DB:               sqlDB,
		Store:            store,
		Index:            index,
		DocumentsRepo:    docRepo,
		DocumentsService: docSvc,
		DocumentsHandler: documents.NewHandler(docSvc),
		SearchHandler:    search.NewHandler(index),
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          cfg,
		DocumentHandler: app.DocumentsHandler,
		SearchHandler:   app.SearchHandler,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildRemoteExtractor(cfg config.Config) elements.Extractor {
	if strings.TrimSpace(cfg.PartitionAPIURL) == "" {
		return nil
	}
	remote, err := elements.NewRemoteExtractor(cfg.PartitionAPIURL, cfg.PartitionAPIKey, 60*time.Second)
	if err != nil {
		log.Printf("bootstrap: partition API unavailable, use_api uploads fall back to local parsing: %v", err)
		return nil
	}
	return remote
}

func buildLLMExtractor(cfg config.Config) extract.Extractor {
	var client llm.Client = llm.PlaceholderClient{}
	if cfg.LLMProvider == "openai" && strings.TrimSpace(cfg.LLMModel) != "" {
		openaiClient, err := openai.NewClient(os.Getenv("OPENAI_API_KEY"), cfg.LLMModel)
		if err != nil {
			log.Printf("bootstrap: llm client unavailable, use_llm uploads fall back to rules: %v", err)
			return nil
		}
		client = openaiClient
	}
	return &extract.LLMExtractor{Client: client, Rules: extract.RuleExtractor{}}
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
