package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/openlit/litmine/backend/internal/server/middleware"
	"github.com/openlit/litmine/backend/pkg/logger"
)

// GetStatisticsHandler reports index counts: registered users, plus the
// articles and extracted triplets in the caller's scope.
func GetStatisticsHandler(c echo.Context) error {
	type statisticsResponse struct {
		Message  string `json:"message"`
		Users    int64  `json:"users"`
		Articles int64  `json:"articles"`
		Triplets int64  `json:"triplets"`
	}

	user := c.(*middleware.AppContext).User
	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	users, err := app.Store.CountUsers(ctx)
	if err != nil {
		logger.Error("Failed to count users", "err", err)
		return c.JSON(http.StatusInternalServerError, statisticsResponse{
			Message: "Internal server error",
		})
	}

	articles, err := app.Store.CountArticles(ctx, user.Path)
	if err != nil {
		logger.Error("Failed to count articles", "err", err)
		return c.JSON(http.StatusInternalServerError, statisticsResponse{
			Message: "Internal server error",
		})
	}

	triplets, err := app.Store.CountTriplets(ctx, user.Path)
	if err != nil {
		logger.Error("Failed to count triplets", "err", err)
		return c.JSON(http.StatusInternalServerError, statisticsResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, statisticsResponse{
		Message:  "OK",
		Users:    users,
		Articles: articles,
		Triplets: triplets,
	})
}
