package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/openlit/litmine/backend/pkg/analysis"
	"github.com/openlit/litmine/backend/pkg/common"
	"github.com/openlit/litmine/backend/pkg/store"
)

type fakeArticles struct {
	articles map[string]*common.Article
	byPMC    map[string]*common.Article
	created  int
}

func newFakeArticles(articles ...*common.Article) *fakeArticles {
	f := &fakeArticles{
		articles: make(map[string]*common.Article),
		byPMC:    make(map[string]*common.Article),
	}
	for _, a := range articles {
		f.articles[a.PublicID] = a
		if a.PMCID != "" {
			f.byPMC[a.PMCID] = a
		}
	}
	return f
}

func (f *fakeArticles) CreateArticle(_ context.Context, article *common.Article) (string, error) {
	f.created++
	if article.PublicID == "" {
		article.PublicID = fmt.Sprintf("art-%d", f.created)
	}
	f.articles[article.PublicID] = article
	if article.PMCID != "" {
		f.byPMC[article.PMCID] = article
	}
	return article.PublicID, nil
}

func (f *fakeArticles) GetArticle(_ context.Context, publicID string) (*common.Article, error) {
	if a, ok := f.articles[publicID]; ok {
		return a, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeArticles) GetArticleByPMCID(_ context.Context, pmcID string) (*common.Article, error) {
	if a, ok := f.byPMC[pmcID]; ok {
		return a, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeArticles) ExistsPMCID(_ context.Context, pmcID string) (bool, error) {
	_, ok := f.byPMC[pmcID]
	return ok, nil
}

func (f *fakeArticles) UpdateArticle(_ context.Context, _ *common.Article) error { return nil }
func (f *fakeArticles) DeleteArticle(_ context.Context, _ string) error          { return nil }

func (f *fakeArticles) QueryArticles(_ context.Context, filter store.ArticleFilter, page store.PageRequest) ([]common.Article, *common.PageInfo, error) {
	matched := make([]common.Article, 0, len(f.articles))
	for _, a := range f.articles {
		if filter.Path != "" && a.Path != filter.Path {
			continue
		}
		if filter.Title != "" && !strings.Contains(strings.ToLower(a.Title), strings.ToLower(filter.Title)) {
			continue
		}
		matched = append(matched, *a)
	}
	info := common.NewPageInfo(len(matched), page.Size, page.Page)
	start := (page.Page - 1) * page.Size
	if start >= len(matched) {
		return nil, &info, nil
	}
	end := min(start+page.Size, len(matched))
	return matched[start:end], &info, nil
}

func (f *fakeArticles) SearchArticlesByVector(_ context.Context, _ []float32, _ string, _, _ int) ([]common.Article, error) {
	return nil, nil
}

func (f *fakeArticles) CountArticles(_ context.Context, _ string) (int64, error) {
	return int64(len(f.articles)), nil
}

type fakeFacts struct {
	runs    map[string]*common.AnalysisRun
	indexed int
}

func newFakeFacts(runs ...*common.AnalysisRun) *fakeFacts {
	f := &fakeFacts{runs: make(map[string]*common.AnalysisRun)}
	for _, r := range runs {
		f.runs[r.ArticleID] = r
	}
	return f
}

func (f *fakeFacts) IndexRun(_ context.Context, run *common.AnalysisRun) (string, error) {
	f.indexed++
	if run.PublicID == "" {
		run.PublicID = fmt.Sprintf("run-%d", f.indexed)
	}
	f.runs[run.ArticleID] = run
	return run.PublicID, nil
}

func (f *fakeFacts) GetRunByArticleID(_ context.Context, articleID string) (*common.AnalysisRun, error) {
	if r, ok := f.runs[articleID]; ok {
		return r, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeFacts) GetAllRuns(_ context.Context, _ string) ([]common.AnalysisRun, error) {
	return nil, nil
}

func (f *fakeFacts) GetRunsPage(_ context.Context, _ string, _ store.PageRequest) ([]common.AnalysisRun, *common.PageInfo, error) {
	return nil, nil, nil
}

func (f *fakeFacts) SearchSentencesByVector(_ context.Context, _ []float32, _ string, _, _ int) ([]store.SentenceHit, error) {
	return nil, nil
}

func (f *fakeFacts) CountTriplets(_ context.Context, _ string) (int64, error) { return 0, nil }

type fakeAnalyzer struct {
	calls     int
	sentences []common.AnalyzedSentence
	fail      map[string]error
}

func (f *fakeAnalyzer) Analyze(_ context.Context, content string, _ analysis.ResourceHints) ([]common.AnalyzedSentence, error) {
	f.calls++
	if err, ok := f.fail[content]; ok {
		return nil, err
	}
	return f.sentences, nil
}

func newTestOrchestrator(t *testing.T, articles *fakeArticles, facts *fakeFacts, analyzer *fakeAnalyzer) *Orchestrator {
	t.Helper()
	o, err := NewOrchestrator(NewOrchestratorParams{
		Articles: articles,
		Facts:    facts,
		Analyzer: analyzer,
	})
	if err != nil {
		t.Fatalf("NewOrchestrator failed: %v", err)
	}
	return o
}

func TestAnalyzeArticleReusesExistingRun(t *testing.T) {
	article := &common.Article{PublicID: "art-1", Title: "On B", Path: "user-1", Content: "text"}
	existing := &common.AnalysisRun{PublicID: "run-1", ArticleID: "art-1", Path: "user-1"}
	analyzer := &fakeAnalyzer{}

	o := newTestOrchestrator(t, newFakeArticles(article), newFakeFacts(existing), analyzer)

	run, reused, err := o.AnalyzeArticle(context.Background(), "art-1", analysis.ResourceHints{})
	if err != nil {
		t.Fatalf("AnalyzeArticle failed: %v", err)
	}
	if !reused {
		t.Fatal("expected the stored run to be reused")
	}
	if run.PublicID != "run-1" {
		t.Fatalf("unexpected run: %q", run.PublicID)
	}
	if analyzer.calls != 0 {
		t.Fatalf("analyzer should not run when a stored run exists, got %d calls", analyzer.calls)
	}
}

func TestAnalyzeArticlePersistsNewRun(t *testing.T) {
	article := &common.Article{PublicID: "art-1", Title: "On B", Path: "user-1", Content: "A treats B."}
	analyzer := &fakeAnalyzer{sentences: []common.AnalyzedSentence{{
		Text:     "A treats B.",
		Triplets: []common.Triplet{{Subject: "A", Relation: "treats", Object: "B"}},
	}}}
	facts := newFakeFacts()

	o := newTestOrchestrator(t, newFakeArticles(article), facts, analyzer)

	run, reused, err := o.AnalyzeArticle(context.Background(), "art-1", analysis.ResourceHints{})
	if err != nil {
		t.Fatalf("AnalyzeArticle failed: %v", err)
	}
	if reused {
		t.Fatal("expected a fresh analysis, not a reused run")
	}
	if facts.indexed != 1 {
		t.Fatalf("expected one run to be indexed, got %d", facts.indexed)
	}
	if run.ArticleTitle != "On B" || run.Path != "user-1" {
		t.Fatalf("run metadata not carried over: %+v", run)
	}
	if len(run.Sentences) != 1 {
		t.Fatalf("expected 1 sentence, got %d", len(run.Sentences))
	}
}

func TestAnalyzeArticleUnknownArticle(t *testing.T) {
	o := newTestOrchestrator(t, newFakeArticles(), newFakeFacts(), &fakeAnalyzer{})

	if _, _, err := o.AnalyzeArticle(context.Background(), "missing", analysis.ResourceHints{}); err == nil {
		t.Fatal("expected an error for an unknown article")
	}
}

func TestImportArticleSkipsDuplicatePMCID(t *testing.T) {
	existing := &common.Article{PublicID: "art-1", PMCID: "PMC123", Path: "user-1"}
	articles := newFakeArticles(existing)
	o := newTestOrchestrator(t, articles, newFakeFacts(), &fakeAnalyzer{})

	id, created, err := o.ImportArticle(context.Background(), &common.Article{PMCID: "PMC123", Path: "user-1"})
	if err != nil {
		t.Fatalf("ImportArticle failed: %v", err)
	}
	if created {
		t.Fatal("duplicate accession number should not create a new article")
	}
	if id != "art-1" {
		t.Fatalf("expected the existing article id, got %q", id)
	}
	if articles.created != 0 {
		t.Fatalf("no insert should happen for a duplicate, got %d", articles.created)
	}
}

func TestImportArticleCreatesNewArticle(t *testing.T) {
	articles := newFakeArticles()
	o := newTestOrchestrator(t, articles, newFakeFacts(), &fakeAnalyzer{})

	id, created, err := o.ImportArticle(context.Background(), &common.Article{PMCID: "PMC999", Path: "user-1"})
	if err != nil {
		t.Fatalf("ImportArticle failed: %v", err)
	}
	if !created {
		t.Fatal("expected a new article to be created")
	}
	if id == "" {
		t.Fatal("expected a generated article id")
	}
}

func TestImportArticleRequiresPath(t *testing.T) {
	o := newTestOrchestrator(t, newFakeArticles(), newFakeFacts(), &fakeAnalyzer{})

	if _, _, err := o.ImportArticle(context.Background(), &common.Article{PMCID: "PMC1"}); err == nil {
		t.Fatal("expected an error for a missing path")
	}
}

func TestAnalyzeFilteredReusesExistingRun(t *testing.T) {
	article := &common.Article{PublicID: "art-1", Title: "Sick patients", Path: "user-1", Content: "text"}
	other := &common.Article{PublicID: "art-2", Title: "Something else", Path: "user-1", Content: "text"}
	existing := &common.AnalysisRun{PublicID: "run-1", ArticleID: "art-1", Path: "user-1"}
	analyzer := &fakeAnalyzer{}
	facts := newFakeFacts(existing)

	o := newTestOrchestrator(t, newFakeArticles(article, other), facts, analyzer)

	runs, reused, err := o.AnalyzeFiltered(context.Background(),
		store.ArticleFilter{Path: "user-1", Title: "sick"}, analysis.ResourceHints{})
	if err != nil {
		t.Fatalf("AnalyzeFiltered failed: %v", err)
	}
	if !reused {
		t.Fatal("expected the stored run to be reused")
	}
	if len(runs) != 1 || runs[0].PublicID != "run-1" {
		t.Fatalf("expected only the stored run, got %+v", runs)
	}
	if analyzer.calls != 0 {
		t.Fatalf("analyzer should not run when a stored run exists, got %d calls", analyzer.calls)
	}
}

func TestAnalyzeFilteredAnalyzesEveryMatch(t *testing.T) {
	first := &common.Article{PublicID: "art-1", Title: "Sick patients", Path: "user-1", Content: "one"}
	second := &common.Article{PublicID: "art-2", Title: "Sick doctors", Path: "user-1", Content: "two"}
	skipped := &common.Article{PublicID: "art-3", Title: "Healthy mice", Path: "user-1", Content: "three"}
	analyzer := &fakeAnalyzer{sentences: []common.AnalyzedSentence{{
		Text:     "s",
		Triplets: []common.Triplet{{Subject: "a", Relation: "b", Object: "c"}},
	}}}
	facts := newFakeFacts()

	o := newTestOrchestrator(t, newFakeArticles(first, second, skipped), facts, analyzer)

	runs, reused, err := o.AnalyzeFiltered(context.Background(),
		store.ArticleFilter{Path: "user-1", Title: "sick"}, analysis.ResourceHints{})
	if err != nil {
		t.Fatalf("AnalyzeFiltered failed: %v", err)
	}
	if reused {
		t.Fatal("expected fresh analysis, not reuse")
	}
	if len(runs) != 2 || facts.indexed != 2 {
		t.Fatalf("expected runs for both matches, got %d runs and %d indexed", len(runs), facts.indexed)
	}
}

func TestAnalyzeFilteredNoMatches(t *testing.T) {
	o := newTestOrchestrator(t, newFakeArticles(), newFakeFacts(), &fakeAnalyzer{})

	_, _, err := o.AnalyzeFiltered(context.Background(),
		store.ArticleFilter{Path: "user-1", Title: "anything"}, analysis.ResourceHints{})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for an empty candidate set, got %v", err)
	}
}

func TestAnalyzeAllCountsOutcomes(t *testing.T) {
	good := &common.Article{PublicID: "art-1", Path: "user-1", Content: "good text"}
	bad := &common.Article{PublicID: "art-2", Path: "user-1", Content: "bad text"}
	done := &common.Article{PublicID: "art-3", Path: "user-1", Content: "already done"}
	existing := &common.AnalysisRun{PublicID: "run-3", ArticleID: "art-3", Path: "user-1"}

	analyzer := &fakeAnalyzer{
		sentences: []common.AnalyzedSentence{{Text: "s", Triplets: []common.Triplet{{Subject: "a", Relation: "b", Object: "c"}}}},
		fail:      map[string]error{"bad text": errors.New("annotator down")},
	}

	o := newTestOrchestrator(t, newFakeArticles(good, bad, done), newFakeFacts(existing), analyzer)

	summary, err := o.AnalyzeAll(context.Background(), "user-1", analysis.ResourceHints{})
	if err != nil {
		t.Fatalf("AnalyzeAll failed: %v", err)
	}
	if summary.Total != 3 {
		t.Fatalf("expected 3 articles, got %d", summary.Total)
	}
	if summary.Analyzed != 1 || summary.Reused != 1 || summary.Failed != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}
