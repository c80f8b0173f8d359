package search

import (
	"context"
	"errors"
	"testing"

	"github.com/openlit/litmine/backend/pkg/ai"
	"github.com/openlit/litmine/backend/pkg/common"
	"github.com/openlit/litmine/backend/pkg/store"
)

type fakeEmbedder struct {
	calls int
	err   error
}

func (f *fakeEmbedder) GenerateEmbedding(_ context.Context, _ []byte) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []float32{1, 2, 3}, nil
}

func (f *fakeEmbedder) GetMetrics() ai.ModelMetrics { return ai.ModelMetrics{} }
func (f *fakeEmbedder) ResetMetrics()               {}

type fakeIndex struct {
	path       string
	topK       int
	candidates int
	hits       []store.SentenceHit
	articles   []common.Article
}

func (f *fakeIndex) SearchSentencesByVector(_ context.Context, _ []float32, path string, topK, candidates int) ([]store.SentenceHit, error) {
	f.path, f.topK, f.candidates = path, topK, candidates
	return f.hits, nil
}

func (f *fakeIndex) SearchArticlesByVector(_ context.Context, _ []float32, path string, topK, candidates int) ([]common.Article, error) {
	f.path, f.topK, f.candidates = path, topK, candidates
	return f.articles, nil
}

func newTestService(t *testing.T, emb *fakeEmbedder, idx *fakeIndex) *Service {
	t.Helper()
	svc, err := NewService(NewServiceParams{Embedder: emb, Facts: idx, Articles: idx})
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	return svc
}

func TestSearchFactsRejectsEmptyQuery(t *testing.T) {
	emb := &fakeEmbedder{}
	svc := newTestService(t, emb, &fakeIndex{})

	if _, err := svc.SearchFacts(context.Background(), "   ", "user-1", Options{}); !errors.Is(err, ErrEmptyQuery) {
		t.Fatalf("expected ErrEmptyQuery, got %v", err)
	}
	if emb.calls != 0 {
		t.Fatalf("embedder should not run for an empty query, got %d calls", emb.calls)
	}
}

func TestSearchFactsAppliesDefaults(t *testing.T) {
	idx := &fakeIndex{}
	svc := newTestService(t, &fakeEmbedder{}, idx)

	if _, err := svc.SearchFacts(context.Background(), "cancer treatment", "user-1", Options{}); err != nil {
		t.Fatalf("SearchFacts failed: %v", err)
	}
	if idx.topK != defaultTopK {
		t.Fatalf("expected default topK %d, got %d", defaultTopK, idx.topK)
	}
	if idx.candidates != defaultCandidates {
		t.Fatalf("expected default candidates %d, got %d", defaultCandidates, idx.candidates)
	}
	if idx.path != "user-1" {
		t.Fatalf("scope not forwarded, got %q", idx.path)
	}
}

func TestSearchFactsRejectsTopKOverCandidates(t *testing.T) {
	svc := newTestService(t, &fakeEmbedder{}, &fakeIndex{})

	_, err := svc.SearchFacts(context.Background(), "query", "user-1", Options{TopK: 50, Candidates: 10})
	if err == nil {
		t.Fatal("expected topK > candidates to be rejected")
	}
}

func TestSearchFactsStripsVectors(t *testing.T) {
	idx := &fakeIndex{hits: []store.SentenceHit{{
		ArticleID: "art-1",
		Sentence: common.AnalyzedSentence{
			Text:     "A treats B.",
			Vector:   []float32{1, 2, 3},
			Triplets: []common.Triplet{{Subject: "A", Relation: "treats", Object: "B"}},
		},
	}}}
	svc := newTestService(t, &fakeEmbedder{}, idx)

	hits, err := svc.SearchFacts(context.Background(), "query", "user-1", Options{})
	if err != nil {
		t.Fatalf("SearchFacts failed: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
	if hits[0].Sentence.Vector != nil {
		t.Fatal("result vector should be stripped")
	}
	if len(hits[0].Sentence.Triplets) != 1 {
		t.Fatal("triplets should survive projection")
	}
	if hits[0].ArticleID != "art-1" {
		t.Fatalf("unexpected article id: %q", hits[0].ArticleID)
	}
}

func TestSearchArticlesProjectsDisplayFields(t *testing.T) {
	idx := &fakeIndex{articles: []common.Article{{
		PublicID: "art-1",
		Title:    "On B",
		Content:  "full text",
		Journal:  "Nature Medicine",
		Path:     "user-1",
		Vector:   []float32{1, 2, 3},
	}}}
	svc := newTestService(t, &fakeEmbedder{}, idx)

	articles, err := svc.SearchArticles(context.Background(), "query", "user-1", Options{TopK: 5, Candidates: 100})
	if err != nil {
		t.Fatalf("SearchArticles failed: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("expected 1 article, got %d", len(articles))
	}
	if articles[0].PublicID != "art-1" || articles[0].Title != "On B" || articles[0].Content != "full text" {
		t.Fatalf("display fields not preserved: %+v", articles[0])
	}
	if articles[0].Vector != nil || articles[0].Journal != "" {
		t.Fatal("non-display fields should be dropped from article results")
	}
	if idx.topK != 5 || idx.candidates != 100 {
		t.Fatalf("options not forwarded: topK=%d candidates=%d", idx.topK, idx.candidates)
	}
}

func TestSearchFactsFailsWhenEmbeddingFails(t *testing.T) {
	svc := newTestService(t, &fakeEmbedder{err: errors.New("model down")}, &fakeIndex{})

	if _, err := svc.SearchFacts(context.Background(), "query", "user-1", Options{}); err == nil {
		t.Fatal("expected an error when query embedding fails")
	}
}
