package routes

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/openlit/litmine/backend/internal/queue"
	"github.com/openlit/litmine/backend/internal/server/middleware"
	"github.com/openlit/litmine/backend/internal/storage"
	"github.com/openlit/litmine/backend/pkg/common"
	"github.com/openlit/litmine/backend/pkg/logger"
)

// CreateArticleHandler imports one article into the caller's scope.
// Articles with a known accession number are deduplicated: a second
// import of the same PMC ID is a no-op that reports the existing row.
// With async set, the import is queued for the worker instead.
func CreateArticleHandler(c echo.Context) error {
	type createArticleBody struct {
		PMCID         string `json:"pmc_id"`
		Title         string `json:"title"`
		Content       string `json:"content"`
		FetchMetadata bool   `json:"fetch_metadata"`
		Async         bool   `json:"async"`
	}

	type createArticleResponse struct {
		Message   string `json:"message"`
		ArticleID string `json:"article_id,omitempty"`
		Created   bool   `json:"created"`
	}

	data := new(createArticleBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, createArticleResponse{
			Message: "Invalid request body",
		})
	}
	if data.PMCID == "" && data.Content == "" {
		return c.JSON(http.StatusBadRequest, createArticleResponse{
			Message: "Either pmc_id or content is required",
		})
	}

	user := c.(*middleware.AppContext).User
	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	if data.Async {
		msg := queue.QueueImportMsg{
			PMCID:         data.PMCID,
			Path:          user.Path,
			Title:         data.Title,
			Content:       data.Content,
			FetchMetadata: data.FetchMetadata,
		}
		body, err := json.Marshal(msg)
		if err != nil {
			logger.Error("Failed to marshal import message", "err", err)
			return c.JSON(http.StatusInternalServerError, createArticleResponse{
				Message: "Internal server error",
			})
		}
		if err := queue.PublishFIFO(app.Queue, queue.ImportQueue, body); err != nil {
			logger.Error("Failed to publish import message", "err", err)
			return c.JSON(http.StatusInternalServerError, createArticleResponse{
				Message: "Internal server error",
			})
		}
		return c.JSON(http.StatusAccepted, createArticleResponse{
			Message: "Import queued",
		})
	}

	var (
		id      string
		created bool
		err     error
	)
	if data.FetchMetadata && data.PMCID != "" {
		id, created, err = app.Orchestrator.FetchAndImport(ctx, data.PMCID, user.Path, data.Content)
	} else {
		article := &common.Article{
			PMCID:   data.PMCID,
			Title:   data.Title,
			Content: data.Content,
			Path:    user.Path,
		}
		id, created, err = app.Orchestrator.ImportArticle(ctx, article)
	}
	if err != nil {
		logger.Error("Failed to import article", "err", err)
		return c.JSON(http.StatusInternalServerError, createArticleResponse{
			Message: "Failed to import article",
		})
	}

	if created && data.Content != "" && app.S3 != nil {
		if _, err := storage.PutArticleText(ctx, app.S3, user.Path, id, data.Content); err != nil {
			logger.Warn("Failed to archive article text", "article", id, "err", err)
		}
	}

	status := http.StatusCreated
	message := "Article imported"
	if !created {
		status = http.StatusOK
		message = "Article already exists"
	}
	return c.JSON(status, createArticleResponse{
		Message:   message,
		ArticleID: id,
		Created:   created,
	})
}

// ImportScopeHandler queues a scan of the caller's object storage
// prefix; the worker imports every stored .txt file as an article.
func ImportScopeHandler(c echo.Context) error {
	type importScopeBody struct {
		FetchMetadata bool `json:"fetch_metadata"`
	}
	type importScopeResponse struct {
		Message string `json:"message"`
	}

	data := new(importScopeBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, importScopeResponse{
			Message: "Invalid request body",
		})
	}

	user := c.(*middleware.AppContext).User
	app := c.(*middleware.AppContext).App

	body, err := json.Marshal(queue.QueueImportMsg{
		Path:          user.Path,
		ScanScope:     true,
		FetchMetadata: data.FetchMetadata,
	})
	if err != nil {
		logger.Error("Failed to marshal scope import message", "err", err)
		return c.JSON(http.StatusInternalServerError, importScopeResponse{
			Message: "Internal server error",
		})
	}
	if err := queue.PublishFIFO(app.Queue, queue.ImportQueue, body); err != nil {
		logger.Error("Failed to publish scope import message", "err", err)
		return c.JSON(http.StatusInternalServerError, importScopeResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusAccepted, importScopeResponse{
		Message: "Scope import queued",
	})
}
