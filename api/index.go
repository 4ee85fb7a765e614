package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/acostajs/vanier-custom-keyboard-collective/config"
	"github.com/acostajs/vanier-custom-keyboard-collective/models"
	"github.com/acostajs/vanier-custom-keyboard-collective/routes"
	"github.com/gin-gonic/gin"
)

var (
	router  http.Handler
	initErr error
	once    sync.Once
)

func initApp() {
	once.Do(func() {
		gin.SetMode(gin.ReleaseMode)

		cfg := config.LoadConfig()
		logger := config.NewLogger(cfg.AppEnv)

		engine, _, err := routes.Build(context.Background(), cfg, logger)
		if err != nil {
			logger.Error("serverless init failed", "error", err)
			initErr = err
			return
		}
		router = engine
	})
}

// Handler is the serverless entry point. Connections live for the life of the instance.
func Handler(w http.ResponseWriter, r *http.Request) {
	initApp()
	if initErr != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(models.ErrorResponse{
			Success: false,
			Message: "Service unavailable",
		})
		return
	}
	router.ServeHTTP(w, r)
}
