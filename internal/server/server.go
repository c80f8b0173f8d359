package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/openlit/litmine/backend/internal/pubmed"
	"github.com/openlit/litmine/backend/internal/queue"
	mid "github.com/openlit/litmine/backend/internal/server/middleware"
	"github.com/openlit/litmine/backend/internal/storage"
	"github.com/openlit/litmine/backend/internal/util"
	"github.com/openlit/litmine/backend/pkg/ai"
	oll "github.com/openlit/litmine/backend/pkg/ai/ollama"
	oai "github.com/openlit/litmine/backend/pkg/ai/openai"
	"github.com/openlit/litmine/backend/pkg/analysis"
	"github.com/openlit/litmine/backend/pkg/ingest"
	"github.com/openlit/litmine/backend/pkg/logger"
	"github.com/openlit/litmine/backend/pkg/nlp/openie"
	"github.com/openlit/litmine/backend/pkg/nlp/segment"
	"github.com/openlit/litmine/backend/pkg/search"
	dbstore "github.com/openlit/litmine/backend/pkg/store/pgx"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

// NewEmbeddingClient builds the embedding adapter selected by
// AI_ADAPTER. Both adapters serialize their requests, so one instance is
// shared safely across the whole process.
func NewEmbeddingClient() ai.EmbeddingClient {
	adapter := util.GetEnv("AI_ADAPTER")

	switch adapter {
	case "ollama":
		client, err := oll.NewEmbedOllamaClient(oll.NewEmbedOllamaClientParams{
			EmbeddingModel: util.GetEnv("AI_EMBED_MODEL"),
			BaseURL:        util.GetEnv("AI_EMBED_URL"),
			ApiKey:         util.GetEnv("AI_EMBED_KEY"),
			TimeoutMin:     int(util.GetEnvNumeric("AI_TIMEOUT_MIN", 5)),
		})
		if err != nil {
			logger.Fatal("Failed to create Ollama client", "err", err)
		}
		return client
	default:
		return oai.NewEmbedOpenAIClient(oai.NewEmbedOpenAIClientParams{
			EmbeddingModel: util.GetEnv("AI_EMBED_MODEL"),
			EmbeddingURL:   util.GetEnv("AI_EMBED_URL"),
			EmbeddingKey:   util.GetEnv("AI_EMBED_KEY"),
			TimeoutMin:     int(util.GetEnvNumeric("AI_TIMEOUT_MIN", 5)),
		})
	}
}

// NewAnalysisServices builds the store, the analysis engine, the ingest
// orchestrator, and the search service on top of one database pool.
func NewAnalysisServices(conn *pgxpool.Pool, aiClient ai.EmbeddingClient) (
	*dbstore.DBStorage,
	*ingest.Orchestrator,
	*search.Service,
) {
	dbStorage, err := dbstore.NewDBStorage(dbstore.NewDBStorageParams{
		Conn:     conn,
		AiClient: aiClient,
	})
	if err != nil {
		logger.Fatal("Failed to create storage", "err", err)
	}

	segmenter, err := segment.NewClient(segment.NewClientParams{
		BaseURL: util.GetEnv("SEGMENT_URL"),
		Timeout: time.Duration(util.GetEnvNumeric("SEGMENT_TIMEOUT_SEC", 30)) * time.Second,
	})
	if err != nil {
		logger.Fatal("Failed to create segmenter client", "err", err)
	}

	extractor, err := openie.NewClient(openie.NewClientParams{
		BaseURL: util.GetEnv("OPENIE_URL"),
		APIKey:  util.GetEnv("OPENIE_KEY"),
		Timeout: time.Duration(util.GetEnvNumeric("OPENIE_TIMEOUT_SEC", 120)) * time.Second,
	})
	if err != nil {
		logger.Fatal("Failed to create extraction client", "err", err)
	}

	engine, err := analysis.NewEngine(analysis.NewEngineParams{
		Segmenter:  segmenter,
		Extractor:  extractor,
		Embedder:   aiClient,
		MaxRetries: int(util.GetEnvNumeric("NLP_MAX_RETRIES", 3)),
	})
	if err != nil {
		logger.Fatal("Failed to create analysis engine", "err", err)
	}

	metadata := pubmed.NewClient(pubmed.NewClientParams{
		BaseURL: util.GetEnvString("PUBMED_URL", ""),
		ApiKey:  util.GetEnvString("PUBMED_API_KEY", ""),
	})

	orchestrator, err := ingest.NewOrchestrator(ingest.NewOrchestratorParams{
		Articles: dbStorage,
		Facts:    dbStorage,
		Analyzer: engine,
		Metadata: metadata,
	})
	if err != nil {
		logger.Fatal("Failed to create orchestrator", "err", err)
	}

	searchService, err := search.NewService(search.NewServiceParams{
		Embedder: aiClient,
		Facts:    dbStorage,
		Articles: dbStorage,
	})
	if err != nil {
		logger.Fatal("Failed to create search service", "err", err)
	}

	return dbStorage, orchestrator, searchService
}

func Init() {
	e := echo.New()
	e.Validator = &CustomValidator{validator: validator.New()}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := pgxpool.New(ctx, util.GetEnv("DATABASE_URL"))
	if err != nil {
		logger.Fatal("Failed to connect to database", "err", err)
	}
	defer conn.Close()
	conn.Config().AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	que := queue.Init()
	defer que.Close()
	ch, err := que.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}

	queues := []string{queue.ImportQueue, queue.AnalyzeQueue}
	if err := queue.SetupQueues(ch, queues); err != nil {
		logger.Fatal("Failed to set up queues", "err", err)
	}

	s3 := storage.NewS3Client(ctx)

	aiClient := NewEmbeddingClient()
	dbStorage, orchestrator, searchService := NewAnalysisServices(conn, aiClient)

	if err := dbStorage.EnsureSchema(ctx); err != nil {
		logger.Fatal("Failed to prepare schema", "err", err)
	}

	app := &mid.App{
		DBConn:       conn,
		Store:        dbStorage,
		Orchestrator: orchestrator,
		Search:       searchService,
		Queue:        ch,
		S3:           s3,
		AiClient:     aiClient,
		JWTSecret:    []byte(util.GetEnv("JWT_SECRET")),
	}

	e.Use(mid.AppContextMiddleware(app))
	e.Use(echomw.CORS())
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.BodyLimit("50M"))

	RegisterRoutes(e)

	go func() {
		port := util.GetEnv("PORT")
		if port == "" {
			port = "8080"
		}
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}
