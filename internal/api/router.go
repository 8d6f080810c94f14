package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourname/macrotracker/internal/auth"
	"github.com/yourname/macrotracker/internal/config"
)

func NewRouter(app App, provider auth.Provider, cfg *config.Config) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(RequestLogger(app.Logger()))
	r.SetHTMLTemplate(pageTemplates())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Session routes
	s := r.Group("/")
	s.Use(auth.SessionMiddleware(provider, cfg, app.Logger()))
	s.GET("/", GetIndex(app))
	s.POST("/", PostIndex(app))
	s.POST("/clear", PostClear(app))
	s.GET("/ws", ServeWS(app))

	api := s.Group("/api")
	api.GET("/summary", GetSummary(app))
	api.POST("/foods", PostFood(app))
	api.DELETE("/totals", DeleteTotals(app))
	api.GET("/goals", GetGoals(app))

	return r
}
