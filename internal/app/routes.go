package app

import (
	"studytodo/internal/config"
	"studytodo/internal/handlers"
	"studytodo/internal/middleware"
	"studytodo/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/swaggo/swag"
)

// Setup registers all routes on the given engine.
func Setup(r *gin.Engine, cfg config.Config, log logrus.FieldLogger, svc *service.TaskService) {
	page := handlers.NewPageHandler(svc, log.WithField("component", "page_handler"))
	registerPageRoutes(r, page)
	r.GET("/info", infoHandler(cfg))
	r.GET("/version", versionHandler(cfg))
	r.GET("/metrics", middleware.MetricsHandler())
	r.GET("/swagger-doc.json", swaggerDocHandler())
	r.GET("/swagger", func(c *gin.Context) { c.Redirect(302, "/swagger/index.html") })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(
		swaggerFiles.Handler,
		ginSwagger.URL("/swagger-doc.json"),
		ginSwagger.DefaultModelsExpandDepth(-1),
	))

	api := r.Group("/api")
	api.GET("/health", healthHandler)

	taskHandler := handlers.NewTaskHandler(svc, log.WithField("component", "task_handler"))
	registerTaskRoutes(api, taskHandler)
}

func infoHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service": "Student Task Tracker",
			"version": cfg.App.Version,
			"env":     cfg.App.Env,
			"store":   cfg.Store.Driver,
			"docs":    "/swagger/index.html",
			"spec":    "/swagger-doc.json",
			"health":  "/api/health",
			"api":     "/api/tasks",
		})
	}
}

// healthHandler godoc
// @Summary  Liveness probe
// @Tags     health
// @Produce  json
// @Success  200 {object} map[string]bool
// @Router   /health [get]
func healthHandler(c *gin.Context) {
	c.JSON(200, gin.H{"ok": true})
}

func versionHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, gin.H{"version": cfg.App.Version})
	}
}

func swaggerDocHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		doc, err := swag.ReadDoc("swagger")
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.Data(200, "application/json; charset=utf-8", []byte(doc))
	}
}

func registerTaskRoutes(api *gin.RouterGroup, h *handlers.TaskHandler) {
	api.GET("/tasks", h.List)
	api.POST("/tasks", h.Create)
	api.DELETE("/tasks", h.ClearCompleted)
	api.GET("/tasks/:id", h.Get)
	api.PATCH("/tasks/:id", h.Update)
	api.DELETE("/tasks/:id", h.Delete)
}

func registerPageRoutes(r *gin.Engine, h *handlers.PageHandler) {
	r.GET("/", h.Index)
	r.POST("/tasks", h.Create)
	r.POST("/tasks/:id/done", h.MarkDone)
	r.POST("/tasks/:id/delete", h.Delete)
	r.POST("/clear-completed", h.ClearCompleted)
}
