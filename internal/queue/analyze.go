package queue

import (
	"context"
	"encoding/json"

	"github.com/openlit/litmine/backend/pkg/analysis"
	"github.com/openlit/litmine/backend/pkg/ingest"
	"github.com/openlit/litmine/backend/pkg/logger"
	"github.com/openlit/litmine/backend/pkg/store"
)

// QueueAnalyzeMsg asks the worker to analyze one article, the articles
// matching a title filter, or every article in a scope when both
// ArticleID and Title are empty.
type QueueAnalyzeMsg struct {
	ArticleID string `json:"article_id,omitempty"`
	Path      string `json:"path"`
	Title     string `json:"title,omitempty"`
	Threads   int    `json:"threads,omitempty"`
	Memory    string `json:"memory,omitempty"`
}

func ProcessAnalyzeMessage(
	ctx context.Context,
	orchestrator *ingest.Orchestrator,
	msg string,
) error {
	data := new(QueueAnalyzeMsg)
	if err := json.Unmarshal([]byte(msg), data); err != nil {
		return err
	}

	hints := analysis.ResourceHints{
		Threads: data.Threads,
		Memory:  data.Memory,
	}

	if data.ArticleID == "" && data.Title != "" {
		runs, reused, err := orchestrator.AnalyzeFiltered(ctx,
			store.ArticleFilter{Path: data.Path, Title: data.Title}, hints)
		if err != nil {
			return err
		}
		logger.Info("[Queue] Filtered analysis finished",
			"path", data.Path, "title", data.Title, "runs", len(runs), "reused", reused)
		return nil
	}

	if data.ArticleID == "" {
		summary, err := orchestrator.AnalyzeAll(ctx, data.Path, hints)
		if err != nil {
			return err
		}
		logger.Info("[Queue] Batch analysis finished",
			"path", data.Path, "total", summary.Total,
			"analyzed", summary.Analyzed, "reused", summary.Reused, "failed", summary.Failed)
		return nil
	}

	run, reused, err := orchestrator.AnalyzeArticle(ctx, data.ArticleID, hints)
	if err != nil {
		return err
	}
	logger.Info("[Queue] Article analysis finished",
		"article", data.ArticleID, "run", run.PublicID,
		"reused", reused, "triplets", run.TripletCount())
	return nil
}
