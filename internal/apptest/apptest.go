// Package apptest starts the task API on an in-memory store for tests.
package apptest

import (
	"io"
	"net/http/httptest"
	"testing"

	"studytodo/internal/app"
	"studytodo/internal/config"
	"studytodo/internal/repo"
	"studytodo/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Config is a minimal configuration for the memory store.
func Config() config.Config {
	return config.Config{
		App:   config.AppConfig{Env: "test", Version: "test"},
		Store: config.StoreConfig{Driver: config.DriverMemory},
	}
}

// QuietLogger discards all output.
func QuietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// NewRouter returns the full router over an empty memory store.
func NewRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := QuietLogger()
	svc := service.NewTaskService(repo.NewMemoryTaskRepo(), nil, log)
	return app.NewRouter(Config(), log, svc)
}

// NewServer serves NewRouter until the test ends.
func NewServer(t testing.TB) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewRouter())
	t.Cleanup(srv.Close)
	return srv
}
