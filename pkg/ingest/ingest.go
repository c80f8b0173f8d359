// Package ingest coordinates article import and analysis: fetching
// metadata, deduplicating by accession number, and turning stored
// articles into persisted analysis runs.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openlit/litmine/backend/internal/util"
	"github.com/openlit/litmine/backend/pkg/analysis"
	"github.com/openlit/litmine/backend/pkg/common"
	"github.com/openlit/litmine/backend/pkg/logger"
	"github.com/openlit/litmine/backend/pkg/store"
)

// Analyzer runs the sentence analysis pipeline over article content.
type Analyzer interface {
	Analyze(ctx context.Context, content string, hints analysis.ResourceHints) ([]common.AnalyzedSentence, error)
}

// MetadataFetcher resolves a PMC accession number to article metadata.
type MetadataFetcher interface {
	FetchMetadata(ctx context.Context, pmcID string) (*common.Article, error)
}

// Orchestrator ties the stores, the analysis engine, and the metadata
// source together. All of its operations are idempotent at the article
// level: re-importing an accession number is a no-op and re-analyzing an
// article returns the stored run without touching the extractor.
type Orchestrator struct {
	articles store.ArticleStorage
	facts    store.FactStorage
	analyzer Analyzer
	metadata MetadataFetcher
}

type NewOrchestratorParams struct {
	Articles store.ArticleStorage
	Facts    store.FactStorage
	Analyzer Analyzer
	Metadata MetadataFetcher
}

func NewOrchestrator(params NewOrchestratorParams) (*Orchestrator, error) {
	if params.Articles == nil || params.Facts == nil {
		return nil, fmt.Errorf("article and fact storage are required")
	}
	if params.Analyzer == nil {
		return nil, fmt.Errorf("analyzer is required")
	}
	return &Orchestrator{
		articles: params.Articles,
		facts:    params.Facts,
		analyzer: params.Analyzer,
		metadata: params.Metadata,
	}, nil
}

// ImportArticle stores the article unless its accession number is
// already present. Returns the stored article's public ID and whether a
// new row was created.
func (o *Orchestrator) ImportArticle(ctx context.Context, article *common.Article) (string, bool, error) {
	if article == nil {
		return "", false, fmt.Errorf("article is required")
	}
	if strings.TrimSpace(article.Path) == "" {
		return "", false, fmt.Errorf("article path is required")
	}

	if article.PMCID != "" {
		exists, err := o.articles.ExistsPMCID(ctx, article.PMCID)
		if err != nil {
			return "", false, fmt.Errorf("failed to check for duplicate: %w", err)
		}
		if exists {
			existing, err := o.articles.GetArticleByPMCID(ctx, article.PMCID)
			if err != nil {
				return "", false, fmt.Errorf("failed to load duplicate article: %w", err)
			}
			logger.Info("[Ingest] Skipping duplicate article", "pmc_id", article.PMCID)
			return existing.PublicID, false, nil
		}
	}

	id, err := o.articles.CreateArticle(ctx, article)
	if err != nil {
		return "", false, fmt.Errorf("failed to store article: %w", err)
	}
	return id, true, nil
}

// FetchAndImport pulls metadata for the accession number and imports the
// resulting article into the given scope. A non-empty content overrides
// whatever body the metadata source supplied.
func (o *Orchestrator) FetchAndImport(ctx context.Context, pmcID, path, content string) (string, bool, error) {
	if o.metadata == nil {
		return "", false, fmt.Errorf("no metadata source configured")
	}
	article, err := o.metadata.FetchMetadata(ctx, pmcID)
	if err != nil {
		return "", false, fmt.Errorf("failed to fetch metadata for %s: %w", pmcID, err)
	}
	article.Path = path
	if content != "" {
		article.Content = content
	}
	return o.ImportArticle(ctx, article)
}

// AnalyzeArticle produces the analysis run for one article. When a run
// already exists it is returned as-is and the extractor is never called.
// The returned flag reports whether an existing run was reused.
func (o *Orchestrator) AnalyzeArticle(
	ctx context.Context,
	articleID string,
	hints analysis.ResourceHints,
) (*common.AnalysisRun, bool, error) {
	existing, err := o.facts.GetRunByArticleID(ctx, articleID)
	if err == nil {
		logger.Debug("[Ingest] Reusing stored analysis run", "article", articleID, "run", existing.PublicID)
		return existing, true, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, fmt.Errorf("failed to look up existing run: %w", err)
	}

	article, err := o.articles.GetArticle(ctx, articleID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load article %s: %w", articleID, err)
	}

	sentences, err := o.analyzer.Analyze(ctx, article.Content, hints)
	if err != nil {
		return nil, false, fmt.Errorf("failed to analyze article %s: %w", articleID, err)
	}

	run := &common.AnalysisRun{
		ArticleID:    article.PublicID,
		ArticleTitle: article.Title,
		Path:         article.Path,
		Sentences:    sentences,
	}
	if _, err := o.facts.IndexRun(ctx, run); err != nil {
		return nil, false, fmt.Errorf("failed to persist analysis run: %w", err)
	}
	return run, false, nil
}

// AnalyzeFiltered analyzes every article matching the filter. The
// candidate set is capped at one page. When the first match already has
// a stored run, that run is returned alone and nothing is re-analyzed.
func (o *Orchestrator) AnalyzeFiltered(
	ctx context.Context,
	filter store.ArticleFilter,
	hints analysis.ResourceHints,
) ([]*common.AnalysisRun, bool, error) {
	const candidateLimit = 50

	articles, _, err := o.articles.QueryArticles(ctx, filter, store.PageRequest{Page: 1, Size: candidateLimit})
	if err != nil {
		return nil, false, fmt.Errorf("failed to query candidate articles: %w", err)
	}
	if len(articles) == 0 {
		return nil, false, store.ErrNotFound
	}

	existing, err := o.facts.GetRunByArticleID(ctx, articles[0].PublicID)
	if err == nil {
		logger.Debug("[Ingest] Reusing stored analysis run", "article", articles[0].PublicID, "run", existing.PublicID)
		return []*common.AnalysisRun{existing}, true, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, fmt.Errorf("failed to look up existing run: %w", err)
	}

	runs := make([]*common.AnalysisRun, 0, len(articles))
	for _, article := range articles {
		run, _, err := o.AnalyzeArticle(ctx, article.PublicID, hints)
		if err != nil {
			return nil, false, err
		}
		runs = append(runs, run)
	}
	return runs, false, nil
}

// Summary reports the outcome of one batch analysis.
type Summary struct {
	Total    int `json:"total"`
	Analyzed int `json:"analyzed"`
	Reused   int `json:"reused"`
	Failed   int `json:"failed"`
}

// AnalyzeAll walks every article in the scope and makes sure each one
// has an analysis run. A failing article is logged and counted, never
// fatal for the batch. Progress is reported after every article.
func (o *Orchestrator) AnalyzeAll(ctx context.Context, path string, hints analysis.ResourceHints) (*Summary, error) {
	const pageSize = 100

	var ids []string
	for page := 1; ; page++ {
		articles, info, err := o.articles.QueryArticles(ctx,
			store.ArticleFilter{Path: path},
			store.PageRequest{Page: page, Size: pageSize},
		)
		if err != nil {
			return nil, fmt.Errorf("failed to list articles: %w", err)
		}
		for _, article := range articles {
			ids = append(ids, article.PublicID)
		}
		if page >= info.TotalPages || len(articles) == 0 {
			break
		}
	}

	progress := util.NewBatchProgress(len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("batch analysis interrupted: %w", err)
		}

		_, reused, err := o.AnalyzeArticle(ctx, id, hints)
		switch {
		case err != nil:
			progress.Failed++
			logger.Error("[Ingest] Article analysis failed", "article", id, "error", err)
		case reused:
			progress.Reused++
		default:
			progress.Analyzed++
		}
		logger.Info("[Ingest] Batch progress", "status", progress.Describe(), "percent", progress.Percentage())
	}

	return &Summary{
		Total:    progress.Total,
		Analyzed: progress.Analyzed,
		Reused:   progress.Reused,
		Failed:   progress.Failed,
	}, nil
}
