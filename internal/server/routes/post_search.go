package routes

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/openlit/litmine/backend/internal/server/middleware"
	"github.com/openlit/litmine/backend/pkg/common"
	"github.com/openlit/litmine/backend/pkg/logger"
	"github.com/openlit/litmine/backend/pkg/search"
	"github.com/openlit/litmine/backend/pkg/store"
)

type searchBody struct {
	Query      string `json:"query" validate:"required"`
	TopK       int    `json:"top_k"`
	Candidates int    `json:"candidates"`
}

// SearchFactsHandler runs semantic search over the caller's analyzed
// sentences and returns the closest matches with their triplets.
func SearchFactsHandler(c echo.Context) error {
	type searchFactsResponse struct {
		Message string              `json:"message"`
		Hits    []store.SentenceHit `json:"hits,omitempty"`
	}

	data := new(searchBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, searchFactsResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, searchFactsResponse{
			Message: "Invalid request body",
		})
	}

	user := c.(*middleware.AppContext).User
	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	hits, err := app.Search.SearchFacts(ctx, data.Query, user.Path, search.Options{
		TopK:       data.TopK,
		Candidates: data.Candidates,
	})
	if err != nil {
		if errors.Is(err, search.ErrEmptyQuery) {
			return c.JSON(http.StatusBadRequest, searchFactsResponse{
				Message: "Query must not be empty",
			})
		}
		logger.Error("Fact search failed", "err", err)
		return c.JSON(http.StatusInternalServerError, searchFactsResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, searchFactsResponse{
		Message: "OK",
		Hits:    hits,
	})
}

// SearchArticlesHandler runs semantic search over the caller's articles.
func SearchArticlesHandler(c echo.Context) error {
	type searchArticlesResponse struct {
		Message  string           `json:"message"`
		Articles []common.Article `json:"articles,omitempty"`
	}

	data := new(searchBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, searchArticlesResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, searchArticlesResponse{
			Message: "Invalid request body",
		})
	}

	user := c.(*middleware.AppContext).User
	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	articles, err := app.Search.SearchArticles(ctx, data.Query, user.Path, search.Options{
		TopK:       data.TopK,
		Candidates: data.Candidates,
	})
	if err != nil {
		if errors.Is(err, search.ErrEmptyQuery) {
			return c.JSON(http.StatusBadRequest, searchArticlesResponse{
				Message: "Query must not be empty",
			})
		}
		logger.Error("Article search failed", "err", err)
		return c.JSON(http.StatusInternalServerError, searchArticlesResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, searchArticlesResponse{
		Message:  "OK",
		Articles: articles,
	})
}
