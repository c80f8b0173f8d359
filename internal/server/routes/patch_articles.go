package routes

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/openlit/litmine/backend/internal/server/middleware"
	"github.com/openlit/litmine/backend/pkg/logger"
	"github.com/openlit/litmine/backend/pkg/store"
)

// EditArticleHandler updates article metadata and content. The content
// vector is recomputed by the store on every update.
func EditArticleHandler(c echo.Context) error {
	type editArticleBody struct {
		Title    *string `json:"title"`
		Abstract *string `json:"abstract"`
		Content  *string `json:"content"`
		Journal  *string `json:"journal"`
		Year     *string `json:"year"`
	}

	type editArticleResponse struct {
		Message string `json:"message"`
	}

	data := new(editArticleBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, editArticleResponse{
			Message: "Invalid request body",
		})
	}

	user := c.(*middleware.AppContext).User
	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	article, err := app.Store.GetArticle(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, editArticleResponse{
				Message: "Article not found",
			})
		}
		logger.Error("Failed to load article", "err", err)
		return c.JSON(http.StatusInternalServerError, editArticleResponse{
			Message: "Internal server error",
		})
	}
	if article.Path != user.Path {
		return c.JSON(http.StatusNotFound, editArticleResponse{
			Message: "Article not found",
		})
	}

	if data.Title != nil {
		article.Title = *data.Title
	}
	if data.Abstract != nil {
		article.Abstract = *data.Abstract
	}
	if data.Content != nil {
		article.Content = *data.Content
	}
	if data.Journal != nil {
		article.Journal = *data.Journal
	}
	if data.Year != nil {
		article.Year = *data.Year
	}

	if err := app.Store.UpdateArticle(ctx, article); err != nil {
		logger.Error("Failed to update article", "err", err)
		return c.JSON(http.StatusInternalServerError, editArticleResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, editArticleResponse{
		Message: "Article updated",
	})
}
