package middleware

import (
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rabbitmq/amqp091-go"

	"github.com/openlit/litmine/backend/pkg/ai"
	"github.com/openlit/litmine/backend/pkg/ingest"
	"github.com/openlit/litmine/backend/pkg/search"
	"github.com/openlit/litmine/backend/pkg/store"
)

// AppUser is the authenticated caller. Path is the ownership scope every
// article, run, and search result the caller touches must carry.
type AppUser struct {
	UserID   string
	Username string
	Path     string
}

type App struct {
	DBConn       *pgxpool.Pool
	Store        store.Storage
	Orchestrator *ingest.Orchestrator
	Search       *search.Service
	Queue        *amqp091.Channel
	S3           *s3.Client
	AiClient     ai.EmbeddingClient
	JWTSecret    []byte
}

type AppContext struct {
	echo.Context
	App  *App
	User *AppUser
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app, nil}
			return next(cc)
		}
	}
}
