package routes

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/openlit/litmine/backend/internal/queue"
	"github.com/openlit/litmine/backend/internal/server/middleware"
	"github.com/openlit/litmine/backend/pkg/analysis"
	"github.com/openlit/litmine/backend/pkg/common"
	"github.com/openlit/litmine/backend/pkg/ingest"
	"github.com/openlit/litmine/backend/pkg/logger"
	"github.com/openlit/litmine/backend/pkg/store"
)

type analyzeBody struct {
	Title   string `json:"title"`
	Threads int    `json:"threads"`
	Memory  string `json:"memory"`
	Async   bool   `json:"async"`
}

// AnalyzeArticleHandler runs fact extraction for one article. When the
// article already has a stored run it is returned untouched. With async
// set, the work is queued for the worker instead.
func AnalyzeArticleHandler(c echo.Context) error {
	type analyzeResponse struct {
		Message string              `json:"message"`
		Run     *common.AnalysisRun `json:"run,omitempty"`
		Reused  bool                `json:"reused"`
	}

	data := new(analyzeBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, analyzeResponse{
			Message: "Invalid request body",
		})
	}

	user := c.(*middleware.AppContext).User
	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()
	id := c.Param("id")

	article, err := app.Store.GetArticle(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, analyzeResponse{
				Message: "Article not found",
			})
		}
		logger.Error("Failed to load article", "err", err)
		return c.JSON(http.StatusInternalServerError, analyzeResponse{
			Message: "Internal server error",
		})
	}
	if article.Path != user.Path {
		return c.JSON(http.StatusNotFound, analyzeResponse{
			Message: "Article not found",
		})
	}

	if data.Async {
		if err := publishAnalyzeMessage(app, queue.QueueAnalyzeMsg{
			ArticleID: id,
			Path:      user.Path,
			Threads:   data.Threads,
			Memory:    data.Memory,
		}); err != nil {
			logger.Error("Failed to queue analysis", "err", err)
			return c.JSON(http.StatusInternalServerError, analyzeResponse{
				Message: "Internal server error",
			})
		}
		return c.JSON(http.StatusAccepted, analyzeResponse{
			Message: "Analysis queued",
		})
	}

	run, reused, err := app.Orchestrator.AnalyzeArticle(ctx, id, analysis.ResourceHints{
		Threads: data.Threads,
		Memory:  data.Memory,
	})
	if err != nil {
		logger.Error("Failed to analyze article", "article", id, "err", err)
		return c.JSON(http.StatusInternalServerError, analyzeResponse{
			Message: "Failed to analyze article",
		})
	}

	return c.JSON(http.StatusOK, analyzeResponse{
		Message: "OK",
		Run:     run,
		Reused:  reused,
	})
}

// AnalyzeAllHandler queues or runs analysis for every article in the
// caller's scope. Articles with stored runs are reused, not recomputed.
func AnalyzeAllHandler(c echo.Context) error {
	type analyzeAllResponse struct {
		Message string                `json:"message"`
		Summary *ingest.Summary       `json:"summary,omitempty"`
		Runs    []*common.AnalysisRun `json:"runs,omitempty"`
		Reused  bool                  `json:"reused,omitempty"`
	}

	data := new(analyzeBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, analyzeAllResponse{
			Message: "Invalid request body",
		})
	}

	user := c.(*middleware.AppContext).User
	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	if data.Async {
		if err := publishAnalyzeMessage(app, queue.QueueAnalyzeMsg{
			Path:    user.Path,
			Title:   data.Title,
			Threads: data.Threads,
			Memory:  data.Memory,
		}); err != nil {
			logger.Error("Failed to queue batch analysis", "err", err)
			return c.JSON(http.StatusInternalServerError, analyzeAllResponse{
				Message: "Internal server error",
			})
		}
		return c.JSON(http.StatusAccepted, analyzeAllResponse{
			Message: "Batch analysis queued",
		})
	}

	hints := analysis.ResourceHints{
		Threads: data.Threads,
		Memory:  data.Memory,
	}

	if data.Title != "" {
		runs, reused, err := app.Orchestrator.AnalyzeFiltered(ctx,
			store.ArticleFilter{Path: user.Path, Title: data.Title}, hints)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return c.JSON(http.StatusNotFound, analyzeAllResponse{
					Message: "No articles match the filter",
				})
			}
			logger.Error("Failed to run filtered analysis", "err", err)
			return c.JSON(http.StatusInternalServerError, analyzeAllResponse{
				Message: "Failed to run filtered analysis",
			})
		}
		return c.JSON(http.StatusOK, analyzeAllResponse{
			Message: "OK",
			Runs:    runs,
			Reused:  reused,
		})
	}

	summary, err := app.Orchestrator.AnalyzeAll(ctx, user.Path, hints)
	if err != nil {
		logger.Error("Failed to run batch analysis", "err", err)
		return c.JSON(http.StatusInternalServerError, analyzeAllResponse{
			Message: "Failed to run batch analysis",
		})
	}

	return c.JSON(http.StatusOK, analyzeAllResponse{
		Message: "OK",
		Summary: summary,
	})
}

func publishAnalyzeMessage(app *middleware.App, msg queue.QueueAnalyzeMsg) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return queue.PublishFIFO(app.Queue, queue.AnalyzeQueue, body)
}
