// Package server exposes the command registry to the front-end over HTTP.
package server

import (
	"drillsargeant/config"
	"drillsargeant/internal/commands"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RouterDeps carries everything BuildRouter wires together.
type RouterDeps struct {
	Registry *commands.Registry
	Events   EventSource // nil when watching is disabled
	Config   *config.Config
	Log      logrus.FieldLogger
}

// SetGinMode maps the configured mode onto gin's global mode.
func SetGinMode(mode string) {
	switch mode {
	case "release", "production":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}
}

// BuildRouter assembles the gin engine.
func BuildRouter(dep RouterDeps) *gin.Engine {
	log := dep.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	cfg := dep.Config
	if cfg == nil {
		cfg = config.Current()
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery())
	r.Use(corsMiddleware(cfg.Server.AllowedOrigins))
	r.Use(RequestIDMiddleware(log))

	h := &Handler{
		registry: dep.Registry,
		events:   dep.Events,
		service:  cfg.App.Name,
		version:  cfg.App.Version,
		log:      log,
	}

	r.GET("/health", h.HealthCheck)
	r.GET("/healthz", h.HealthCheck)

	api := r.Group("/api/v1")
	api.GET("/commands", h.ListCommands)
	api.POST("/invoke/:command", h.Invoke)
	api.GET("/events", h.StreamEvents)

	return r
}
