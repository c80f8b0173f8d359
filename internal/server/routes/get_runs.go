package routes

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/openlit/litmine/backend/internal/server/middleware"
	"github.com/openlit/litmine/backend/pkg/common"
	"github.com/openlit/litmine/backend/pkg/logger"
	"github.com/openlit/litmine/backend/pkg/store"
)

// GetAllRunsHandler returns every analysis run in the caller's scope.
func GetAllRunsHandler(c echo.Context) error {
	type runsResponse struct {
		Message string               `json:"message"`
		Runs    []common.AnalysisRun `json:"runs,omitempty"`
	}

	user := c.(*middleware.AppContext).User
	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	runs, err := app.Store.GetAllRuns(ctx, user.Path)
	if err != nil {
		logger.Error("Failed to load analysis runs", "err", err)
		return c.JSON(http.StatusInternalServerError, runsResponse{
			Message: "Internal server error",
		})
	}

	stripRunVectors(runs)
	return c.JSON(http.StatusOK, runsResponse{
		Message: "OK",
		Runs:    runs,
	})
}

// GetRunsPageHandler returns one page of the caller's analysis runs.
func GetRunsPageHandler(c echo.Context) error {
	type runsPageResponse struct {
		Message  string               `json:"message"`
		Runs     []common.AnalysisRun `json:"runs,omitempty"`
		PageInfo *common.PageInfo     `json:"page_info,omitempty"`
	}

	user := c.(*middleware.AppContext).User
	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))

	runs, info, err := app.Store.GetRunsPage(ctx, user.Path, store.PageRequest{
		Page: page,
		Size: size,
	})
	if err != nil {
		logger.Error("Failed to load analysis runs", "err", err)
		return c.JSON(http.StatusInternalServerError, runsPageResponse{
			Message: "Internal server error",
		})
	}

	stripRunVectors(runs)
	return c.JSON(http.StatusOK, runsPageResponse{
		Message:  "OK",
		Runs:     runs,
		PageInfo: info,
	})
}

// GetArticleRunHandler returns the stored analysis run for one article.
func GetArticleRunHandler(c echo.Context) error {
	type runResponse struct {
		Message string              `json:"message"`
		Run     *common.AnalysisRun `json:"run,omitempty"`
	}

	user := c.(*middleware.AppContext).User
	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	run, err := app.Store.GetRunByArticleID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, runResponse{
				Message: "No analysis run for this article",
			})
		}
		logger.Error("Failed to load analysis run", "err", err)
		return c.JSON(http.StatusInternalServerError, runResponse{
			Message: "Internal server error",
		})
	}
	if run.Path != user.Path {
		return c.JSON(http.StatusNotFound, runResponse{
			Message: "No analysis run for this article",
		})
	}

	for i := range run.Sentences {
		run.Sentences[i].Vector = nil
	}
	return c.JSON(http.StatusOK, runResponse{
		Message: "OK",
		Run:     run,
	})
}

func stripRunVectors(runs []common.AnalysisRun) {
	for i := range runs {
		for j := range runs[i].Sentences {
			runs[i].Sentences[j].Vector = nil
		}
	}
}
