package routes

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/openlit/litmine/backend/internal/server/middleware"
	"github.com/openlit/litmine/backend/internal/storage"
	"github.com/openlit/litmine/backend/pkg/common"
	"github.com/openlit/litmine/backend/pkg/logger"
	"github.com/openlit/litmine/backend/pkg/store"
)

// GetArticlesHandler lists the caller's articles, optionally filtered by
// a title substring, one page at a time.
func GetArticlesHandler(c echo.Context) error {
	type articlesResponse struct {
		Message  string           `json:"message"`
		Articles []common.Article `json:"articles,omitempty"`
		PageInfo *common.PageInfo `json:"page_info,omitempty"`
	}

	user := c.(*middleware.AppContext).User
	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	title := c.QueryParam("title")

	articles, info, err := app.Store.QueryArticles(ctx,
		store.ArticleFilter{Path: user.Path, Title: title},
		store.PageRequest{Page: page, Size: size},
	)
	if err != nil {
		logger.Error("Failed to query articles", "err", err)
		return c.JSON(http.StatusInternalServerError, articlesResponse{
			Message: "Internal server error",
		})
	}

	for i := range articles {
		articles[i].Vector = nil
		articles[i].Content = ""
	}

	return c.JSON(http.StatusOK, articlesResponse{
		Message:  "OK",
		Articles: articles,
		PageInfo: info,
	})
}

// GetArticleHandler returns one article with its full content.
func GetArticleHandler(c echo.Context) error {
	type articleResponse struct {
		Message string          `json:"message"`
		Article *common.Article `json:"article,omitempty"`
	}

	user := c.(*middleware.AppContext).User
	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	article, err := app.Store.GetArticle(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, articleResponse{
				Message: "Article not found",
			})
		}
		logger.Error("Failed to load article", "err", err)
		return c.JSON(http.StatusInternalServerError, articleResponse{
			Message: "Internal server error",
		})
	}
	if article.Path != user.Path {
		return c.JSON(http.StatusNotFound, articleResponse{
			Message: "Article not found",
		})
	}

	article.Vector = nil
	return c.JSON(http.StatusOK, articleResponse{
		Message: "OK",
		Article: article,
	})
}

// GetArticleDownloadHandler returns a short-lived link for the archived
// full text of one article.
func GetArticleDownloadHandler(c echo.Context) error {
	type downloadResponse struct {
		Message string `json:"message"`
		URL     string `json:"url,omitempty"`
	}

	user := c.(*middleware.AppContext).User
	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()
	id := c.Param("id")

	article, err := app.Store.GetArticle(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, downloadResponse{
				Message: "Article not found",
			})
		}
		logger.Error("Failed to load article", "err", err)
		return c.JSON(http.StatusInternalServerError, downloadResponse{
			Message: "Internal server error",
		})
	}
	if article.Path != user.Path {
		return c.JSON(http.StatusNotFound, downloadResponse{
			Message: "Article not found",
		})
	}

	if app.S3 == nil {
		return c.JSON(http.StatusNotFound, downloadResponse{
			Message: "No archived text for this article",
		})
	}
	link, err := storage.GenerateDownloadLink(ctx, app.S3, user.Path, id)
	if err != nil {
		logger.Error("Failed to generate download link", "article", id, "err", err)
		return c.JSON(http.StatusInternalServerError, downloadResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, downloadResponse{
		Message: "OK",
		URL:     link,
	})
}
