package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"drillsargeant/internal/commands"
	"drillsargeant/internal/watch"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const maxArgsBytes = 1 << 20

var keepAliveInterval = 15 * time.Second

// EventSource delivers filesystem events to stream handlers.
type EventSource interface {
	Subscribe() (<-chan watch.Event, func())
	Paths() []string
}

// HealthResponse is the body of /health.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	Watched   []string  `json:"watched"`
}

// Handler serves the command registry over HTTP.
type Handler struct {
	registry *commands.Registry
	events   EventSource
	service  string
	version  string
	log      logrus.FieldLogger
}

// Invoke runs the command named in the path with the request body as its
// arguments.
func (h *Handler) Invoke(c *gin.Context) {
	name := c.Param("command")
	log := h.log.WithFields(logrus.Fields{
		"command":    name,
		"request_id": RequestID(c.Request.Context()),
	})

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxArgsBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read request body"})
		return
	}
	if len(body) > maxArgsBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "arguments too large"})
		return
	}

	result, err := h.registry.Invoke(c.Request.Context(), name, json.RawMessage(body))
	switch {
	case errors.Is(err, commands.ErrUnknownCommand):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	case errors.Is(err, commands.ErrInvalidArgs):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		log.WithError(err).Error("Command failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	log.Debug("Command completed")
	c.JSON(http.StatusOK, result)
}

// ListCommands returns the registered command names.
func (h *Handler) ListCommands(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"commands": h.registry.Names()})
}

// HealthCheck reports liveness and the currently watched roots.
func (h *Handler) HealthCheck(c *gin.Context) {
	watched := []string{}
	if h.events != nil {
		watched = h.events.Paths()
	}
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Service:   h.service,
		Version:   h.version,
		Watched:   watched,
	})
}

// StreamEvents forwards monitor events as Server-Sent Events until the
// client disconnects or the monitor closes.
func (h *Handler) StreamEvents(c *gin.Context) {
	if h.events == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "file watching is disabled"})
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	events, cancel := h.events.Subscribe()
	defer cancel()

	fmt.Fprint(c.Writer, ": connected\n\n")
	flusher.Flush()

	ctx := c.Request.Context()
	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fmt.Fprint(c.Writer, ": keep-alive\n\n")
			flusher.Flush()
		case ev, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				h.log.WithError(err).Warn("Could not encode watch event")
				continue
			}
			fmt.Fprintf(c.Writer, "id: %s\nevent: watch\ndata: %s\n\n", ev.ID, data)
			flusher.Flush()
		}
	}
}
