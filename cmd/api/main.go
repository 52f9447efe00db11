// @title           Student Task Tracker API
// @version         1.0
// @description     Tasks for coursework: assignments and exams with optional due dates.
// @host            localhost:3000
// @BasePath        /api
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studytodo/internal/app"
	"studytodo/internal/config"
	"studytodo/internal/logger"

	"github.com/gin-gonic/gin"

	_ "studytodo/docs"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("student-tasks", "info").WithError(err).Fatal("config")
	}
	log := logger.New("student-tasks", cfg.App.LogLevel)
	if cfg.App.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	log.WithField("store", cfg.Store.Driver).Info("config loaded, connecting to store")

	application, err := app.New(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("app init")
	}
	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.HTTP.Port,
		Handler:      application.Router(),
		ReadTimeout:  cfg.HTTP.ReadTimeout.Duration(),
		WriteTimeout: cfg.HTTP.WriteTimeout.Duration(),
		IdleTimeout:  cfg.HTTP.IdleTimeout.Duration(),
	}

	go func() {
		log.WithField("addr", server.Addr).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("HTTP server shutdown")
	}

	if err := application.Close(ctx); err != nil {
		log.WithError(err).Error("close resources")
	}
}
