package routes

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/openlit/litmine/backend/internal/server/middleware"
	"github.com/openlit/litmine/backend/internal/storage"
	"github.com/openlit/litmine/backend/pkg/logger"
	"github.com/openlit/litmine/backend/pkg/store"
)

// DeleteArticleHandler removes an article, its archived text, and every
// analysis run derived from it.
func DeleteArticleHandler(c echo.Context) error {
	type deleteArticleResponse struct {
		Message string `json:"message"`
	}

	user := c.(*middleware.AppContext).User
	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()
	id := c.Param("id")

	article, err := app.Store.GetArticle(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, deleteArticleResponse{
				Message: "Article not found",
			})
		}
		logger.Error("Failed to load article", "err", err)
		return c.JSON(http.StatusInternalServerError, deleteArticleResponse{
			Message: "Internal server error",
		})
	}
	if article.Path != user.Path {
		return c.JSON(http.StatusNotFound, deleteArticleResponse{
			Message: "Article not found",
		})
	}

	if err := app.Store.DeleteArticle(ctx, id); err != nil {
		logger.Error("Failed to delete article", "err", err)
		return c.JSON(http.StatusInternalServerError, deleteArticleResponse{
			Message: "Internal server error",
		})
	}

	if app.S3 != nil {
		if err := storage.DeleteArticleText(ctx, app.S3, user.Path, id); err != nil {
			logger.Warn("Failed to delete archived article text", "article", id, "err", err)
		}
	}

	return c.JSON(http.StatusOK, deleteArticleResponse{
		Message: "Article deleted",
	})
}

// DeleteScopeHandler removes every article in the caller's scope along
// with the archived texts. Runs go with their articles through the
// store's cascade.
func DeleteScopeHandler(c echo.Context) error {
	type deleteScopeResponse struct {
		Message string `json:"message"`
		Deleted int    `json:"deleted"`
	}

	user := c.(*middleware.AppContext).User
	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	const pageSize = 100
	var deleted int
	for {
		articles, _, err := app.Store.QueryArticles(ctx,
			store.ArticleFilter{Path: user.Path},
			store.PageRequest{Page: 1, Size: pageSize},
		)
		if err != nil {
			logger.Error("Failed to list scope articles", "err", err)
			return c.JSON(http.StatusInternalServerError, deleteScopeResponse{
				Message: "Internal server error",
			})
		}
		if len(articles) == 0 {
			break
		}
		for _, article := range articles {
			if err := app.Store.DeleteArticle(ctx, article.PublicID); err != nil {
				logger.Error("Failed to delete article", "article", article.PublicID, "err", err)
				return c.JSON(http.StatusInternalServerError, deleteScopeResponse{
					Message: "Internal server error",
					Deleted: deleted,
				})
			}
			deleted++
		}
	}

	if app.S3 != nil {
		if err := storage.DeleteScope(ctx, app.S3, user.Path); err != nil {
			logger.Warn("Failed to delete archived scope texts", "path", user.Path, "err", err)
		}
	}

	return c.JSON(http.StatusOK, deleteScopeResponse{
		Message: "Scope cleared",
		Deleted: deleted,
	})
}
