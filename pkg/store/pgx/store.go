// Package pgx implements the store contracts on PostgreSQL with
// pgvector for similarity search.
package pgx

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/golang-migrate/migrate/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/openlit/litmine/backend/internal/util"
	"github.com/openlit/litmine/backend/pkg/ai"
	"github.com/openlit/litmine/backend/pkg/logger"
)

const insertChunkSize = 500

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// DBStorage implements store.Storage on a pgx connection pool. Embeddings
// for article content are generated through the AI client at write time;
// the client serializes its own requests, so DBStorage issues them freely.
type DBStorage struct {
	conn       pgxIConn
	aiClient   ai.EmbeddingClient
	schemaOnce sync.Once
	schemaErr  error
}

type NewDBStorageParams struct {
	Conn     pgxIConn
	AiClient ai.EmbeddingClient
}

func NewDBStorage(params NewDBStorageParams) (*DBStorage, error) {
	if params.Conn == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	return &DBStorage{
		conn:     params.Conn,
		aiClient: params.AiClient,
	}, nil
}

// EnsureSchema applies all pending migrations. It is safe to call from
// every write path; the work runs once per process and an already
// up-to-date schema is not an error.
func (s *DBStorage) EnsureSchema(_ context.Context) error {
	s.schemaOnce.Do(func() {
		source := util.GetEnvString("MIGRATIONS_URL", "file://migrations")
		m, err := migrate.New(source, util.GetEnv("DATABASE_URL"))
		if err != nil {
			s.schemaErr = fmt.Errorf("failed to open migrations: %w", err)
			return
		}
		defer m.Close()

		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			s.schemaErr = fmt.Errorf("failed to apply migrations: %w", err)
			return
		}
		logger.Info("[Store] Schema is up to date")
	})
	return s.schemaErr
}

func (s *DBStorage) embedContent(ctx context.Context, content string) ([]float32, error) {
	if s.aiClient == nil {
		return nil, nil
	}
	return s.aiClient.GenerateEmbedding(ctx, []byte(content))
}
