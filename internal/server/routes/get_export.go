package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/openlit/litmine/backend/internal/server/middleware"
	"github.com/openlit/litmine/backend/pkg/export"
	"github.com/openlit/litmine/backend/pkg/logger"
)

// ExportCSVHandler streams every triplet in the caller's scope as CSV.
func ExportCSVHandler(c echo.Context) error {
	user := c.(*middleware.AppContext).User
	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	runs, err := app.Store.GetAllRuns(ctx, user.Path)
	if err != nil {
		logger.Error("Failed to load analysis runs for export", "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"message": "Internal server error",
		})
	}

	c.Response().Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="facts.csv"`)
	c.Response().WriteHeader(http.StatusOK)

	if err := export.WriteCSV(c.Response(), runs); err != nil {
		logger.Error("Failed to write csv export", "err", err)
		return err
	}
	return nil
}

// ExportSQLHandler streams every triplet in the caller's scope as an SQL
// insert script.
func ExportSQLHandler(c echo.Context) error {
	user := c.(*middleware.AppContext).User
	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	runs, err := app.Store.GetAllRuns(ctx, user.Path)
	if err != nil {
		logger.Error("Failed to load analysis runs for export", "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"message": "Internal server error",
		})
	}

	c.Response().Header().Set(echo.HeaderContentType, "application/sql; charset=utf-8")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="facts.sql"`)
	c.Response().WriteHeader(http.StatusOK)

	if err := export.WriteSQL(c.Response(), runs); err != nil {
		logger.Error("Failed to write sql export", "err", err)
		return err
	}
	return nil
}
