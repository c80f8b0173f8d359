// Package search answers semantic queries against the stored articles
// and analyzed sentences.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openlit/litmine/backend/pkg/ai"
	"github.com/openlit/litmine/backend/pkg/common"
	"github.com/openlit/litmine/backend/pkg/store"
)

// ErrEmptyQuery is returned when the query text is empty or whitespace.
var ErrEmptyQuery = errors.New("search query must not be empty")

const (
	defaultTopK       = 10
	defaultCandidates = 500
)

// Options tunes one search request. TopK is the number of results
// returned; Candidates bounds the pool the ranking may consider and must
// be at least TopK.
type Options struct {
	TopK       int
	Candidates int
}

func (o Options) withDefaults() Options {
	if o.TopK <= 0 {
		o.TopK = defaultTopK
	}
	if o.Candidates <= 0 {
		o.Candidates = defaultCandidates
	}
	return o
}

func (o Options) validate() error {
	if o.TopK > o.Candidates {
		return fmt.Errorf("topK (%d) must not exceed the candidate pool (%d)", o.TopK, o.Candidates)
	}
	return nil
}

// FactIndex is the sentence-level similarity search the store provides.
type FactIndex interface {
	SearchSentencesByVector(ctx context.Context, vector []float32, path string, topK, candidates int) ([]store.SentenceHit, error)
}

// ArticleIndex is the article-level similarity search the store provides.
type ArticleIndex interface {
	SearchArticlesByVector(ctx context.Context, vector []float32, path string, topK, candidates int) ([]common.Article, error)
}

// Service embeds free-text queries and runs scoped similarity search.
type Service struct {
	embedder ai.EmbeddingClient
	facts    FactIndex
	articles ArticleIndex
}

type NewServiceParams struct {
	Embedder ai.EmbeddingClient
	Facts    FactIndex
	Articles ArticleIndex
}

func NewService(params NewServiceParams) (*Service, error) {
	if params.Embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if params.Facts == nil || params.Articles == nil {
		return nil, fmt.Errorf("fact and article indexes are required")
	}
	return &Service{
		embedder: params.Embedder,
		facts:    params.Facts,
		articles: params.Articles,
	}, nil
}

func (s *Service) embedQuery(ctx context.Context, query string) ([]float32, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	vector, err := s.embedder.GenerateEmbedding(ctx, []byte(query))
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("embedding service returned no vector for query")
	}
	return vector, nil
}

// SearchFacts returns the analyzed sentences closest to the query within
// the given scope. Result vectors are stripped; callers get the sentence
// text, its triplets, and the source article only.
func (s *Service) SearchFacts(ctx context.Context, query, path string, opts Options) ([]store.SentenceHit, error) {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}

	vector, err := s.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	hits, err := s.facts.SearchSentencesByVector(ctx, vector, path, opts.TopK, opts.Candidates)
	if err != nil {
		return nil, fmt.Errorf("fact search failed: %w", err)
	}
	for i := range hits {
		hits[i].Sentence.Vector = nil
	}
	return hits, nil
}

// SearchArticles returns the articles whose content is closest to the
// query within the given scope. Results carry the display fields only,
// the public ID, title, and content.
func (s *Service) SearchArticles(ctx context.Context, query, path string, opts Options) ([]common.Article, error) {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}

	vector, err := s.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	articles, err := s.articles.SearchArticlesByVector(ctx, vector, path, opts.TopK, opts.Candidates)
	if err != nil {
		return nil, fmt.Errorf("article search failed: %w", err)
	}
	results := make([]common.Article, 0, len(articles))
	for _, article := range articles {
		results = append(results, common.Article{
			PublicID: article.PublicID,
			Title:    article.Title,
			Content:  article.Content,
		})
	}
	return results, nil
}
