// Package store defines the persistence contracts for articles and
// analysis runs.
package store

import (
	"context"
	"errors"

	"github.com/openlit/litmine/backend/pkg/common"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// ArticleFilter narrows article queries. Zero values mean "no filter".
type ArticleFilter struct {
	// Path restricts results to one ownership scope when non-empty.
	Path string
	// Title is matched case-insensitively as a substring.
	Title string
}

// PageRequest selects one page of results. Page is 1-based.
type PageRequest struct {
	Page int
	Size int
}

// ArticleStorage persists scientific articles and their content vectors.
type ArticleStorage interface {
	CreateArticle(ctx context.Context, article *common.Article) (string, error)
	GetArticle(ctx context.Context, publicID string) (*common.Article, error)
	GetArticleByPMCID(ctx context.Context, pmcID string) (*common.Article, error)
	ExistsPMCID(ctx context.Context, pmcID string) (bool, error)
	UpdateArticle(ctx context.Context, article *common.Article) error
	DeleteArticle(ctx context.Context, publicID string) error
	QueryArticles(ctx context.Context, filter ArticleFilter, page PageRequest) ([]common.Article, *common.PageInfo, error)
	SearchArticlesByVector(ctx context.Context, vector []float32, path string, topK, candidates int) ([]common.Article, error)
	CountArticles(ctx context.Context, path string) (int64, error)
}

// SentenceHit is one sentence returned from similarity search, tagged
// with the article it was extracted from.
type SentenceHit struct {
	ArticleID string                  `json:"article_id"`
	Sentence  common.AnalyzedSentence `json:"sentence"`
}

// FactStorage persists analysis runs with their sentences and triplets.
type FactStorage interface {
	IndexRun(ctx context.Context, run *common.AnalysisRun) (string, error)
	GetRunByArticleID(ctx context.Context, articleID string) (*common.AnalysisRun, error)
	GetAllRuns(ctx context.Context, path string) ([]common.AnalysisRun, error)
	GetRunsPage(ctx context.Context, path string, page PageRequest) ([]common.AnalysisRun, *common.PageInfo, error)
	SearchSentencesByVector(ctx context.Context, vector []float32, path string, topK, candidates int) ([]SentenceHit, error)
	CountTriplets(ctx context.Context, path string) (int64, error)
}

// UserStorage persists accounts.
type UserStorage interface {
	CreateUser(ctx context.Context, user *common.User) (string, error)
	GetUserByUsername(ctx context.Context, username string) (*common.User, error)
	CountUsers(ctx context.Context) (int64, error)
}

// Storage bundles the stores behind one schema-managed backend.
type Storage interface {
	ArticleStorage
	FactStorage
	UserStorage
	EnsureSchema(ctx context.Context) error
}
