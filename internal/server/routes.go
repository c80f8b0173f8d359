package server

import (
	"github.com/labstack/echo/v4"

	"github.com/openlit/litmine/backend/internal/server/middleware"
	"github.com/openlit/litmine/backend/internal/server/routes"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	// Account routes
	e.POST("/register", routes.RegisterUserHandler)
	e.POST("/login", routes.LoginUserHandler)

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	// Article routes
	apiRoutes.GET("/articles", routes.GetArticlesHandler)
	apiRoutes.POST("/articles", routes.CreateArticleHandler)
	apiRoutes.POST("/articles/import", routes.ImportScopeHandler)
	apiRoutes.GET("/articles/:id", routes.GetArticleHandler)
	apiRoutes.GET("/articles/:id/download", routes.GetArticleDownloadHandler)
	apiRoutes.PATCH("/articles/:id", routes.EditArticleHandler)
	apiRoutes.DELETE("/articles/:id", routes.DeleteArticleHandler)
	apiRoutes.DELETE("/articles", routes.DeleteScopeHandler)

	// Analysis routes
	apiRoutes.POST("/articles/:id/analyze", routes.AnalyzeArticleHandler)
	apiRoutes.GET("/articles/:id/run", routes.GetArticleRunHandler)
	apiRoutes.POST("/analyze", routes.AnalyzeAllHandler)
	apiRoutes.GET("/runs", routes.GetRunsPageHandler)
	apiRoutes.GET("/runs/all", routes.GetAllRunsHandler)

	// Search routes
	apiRoutes.POST("/search/facts", routes.SearchFactsHandler)
	apiRoutes.POST("/search/articles", routes.SearchArticlesHandler)

	// Export routes
	apiRoutes.GET("/export/csv", routes.ExportCSVHandler)
	apiRoutes.GET("/export/sql", routes.ExportSQLHandler)

	// Statistics route
	apiRoutes.GET("/statistics", routes.GetStatisticsHandler)
}
