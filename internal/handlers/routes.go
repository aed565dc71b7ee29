package handlers

import "github.com/labstack/echo/v4"

// Register mounts the pages and the API.
func (h *Handler) Register(e *echo.Echo) {
	e.GET("/health", h.Health)
	e.GET("/login", h.LoginPage)
	e.POST("/login", h.Login)
	e.POST("/logout", h.Logout)

	e.GET("/", h.Index)
	e.GET("/securities/:symbol", h.SecurityPage)
	e.GET("/export.csv", h.Export)

	api := e.Group("/api")
	api.GET("/securities", h.ListSecurities)
	api.POST("/securities", h.CreateSecurity)
	api.GET("/securities/:symbol", h.GetSecurity)
	api.PUT("/securities/:symbol", h.UpdateSecurity)
	api.DELETE("/securities/:symbol", h.DeleteSecurity)
	api.PUT("/securities/:symbol/assumptions", h.UpdateAssumptions)
	api.POST("/securities/:symbol/calculate", h.Calculate)
	api.POST("/securities/:symbol/statements", h.MergeStatements)
	api.POST("/securities/:symbol/statements/import", h.ImportStatements)
	api.GET("/rates", h.GetRate)
	api.PUT("/rates", h.PutRate)
}

// Register mounts the admin ingestion endpoints.
func (h *IngestHandler) Register(e *echo.Echo) {
	admin := e.Group("/admin")
	admin.GET("/ingest/status", h.IngestStatus)
	admin.GET("/ingest/overview/:symbol", h.IngestOverview)
	admin.POST("/ingest/fundamentals", h.IngestFundamentals)
	admin.POST("/ingest/daily", h.IngestDaily)
}
