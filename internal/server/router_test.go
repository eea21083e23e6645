package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"drillsargeant/config"
	"drillsargeant/internal/commands"
	"drillsargeant/internal/models"
	"drillsargeant/internal/watch"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T, withMonitor bool) (*gin.Engine, *watch.Monitor) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger, _ := test.NewNullLogger()
	cfg := config.Default()

	deps := RouterDeps{Config: cfg, Log: logger}
	var monitor *watch.Monitor
	if withMonitor {
		monitor = watch.NewMonitor(cfg.Watcher, logger)
		t.Cleanup(func() { _ = monitor.Close() })
		deps.Events = monitor
		deps.Registry = commands.NewRegistry(commands.NewService(monitor, logger))
	} else {
		deps.Registry = commands.NewRegistry(commands.NewService(nil, logger))
	}
	return BuildRouter(deps), monitor
}

func invoke(t *testing.T, router *gin.Engine, command, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoke/"+command, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestInvokeAnalyzeDirectory(t *testing.T) {
	router, _ := setupRouter(t, false)

	for _, body := range []string{`{"path":"/does/not/exist"}`, `{}`, ``} {
		rr := invoke(t, router, commands.AnalyzeDirectory, body)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		var result models.AnalysisResult
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
		assert.Equal(t, 127, result.TotalFiles)
		assert.Equal(t, 89, result.AnalyzedFiles)
		assert.Len(t, result.Issues, 3)
		assert.Equal(t, models.AnalysisSummary{TotalIssues: 3, HighSeverity: 1, MediumSeverity: 1, LowSeverity: 1}, result.Summary)
	}
}

func TestInvokeGetSystemInfo(t *testing.T) {
	router, _ := setupRouter(t, false)

	rr := invoke(t, router, commands.GetSystemInfo, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var info string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &info))
	assert.Contains(t, info, "DrillSargeant Desktop v1.0")
	assert.Contains(t, info, runtime.GOOS)
	assert.Contains(t, info, runtime.GOARCH)
}

func TestInvokeWatchDirectory(t *testing.T) {
	router, monitor := setupRouter(t, true)
	dir := t.TempDir()

	body, err := json.Marshal(commands.PathArgs{Path: dir})
	require.NoError(t, err)

	rr := invoke(t, router, commands.WatchDirectory, string(body))
	require.Equal(t, http.StatusOK, rr.Code)

	var ack string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &ack))
	assert.Equal(t, "Started monitoring: "+dir, ack)
	assert.Equal(t, []string{dir}, monitor.Paths())

	// a path that cannot be watched is still acknowledged
	rr = invoke(t, router, commands.WatchDirectory, `{"path":"X"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &ack))
	assert.Equal(t, "Started monitoring: X", ack)
}

func TestInvokeErrors(t *testing.T) {
	router, _ := setupRouter(t, false)

	rr := invoke(t, router, "format_disk", "{}")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = invoke(t, router, commands.AnalyzeDirectory, `["not", "an", "object"]`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid command arguments")
}

func TestListCommands(t *testing.T) {
	router, _ := setupRouter(t, false)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/commands", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Commands []string `json:"commands"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, []string{"analyze_directory", "get_system_info", "watch_directory"}, body.Commands)
}

func TestHealthCheck(t *testing.T) {
	router, _ := setupRouter(t, false)

	for _, path := range []string{"/health", "/healthz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)

		var response HealthResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
		assert.Equal(t, "healthy", response.Status)
		assert.Equal(t, "DrillSargeant Desktop", response.Service)
		assert.Equal(t, "v1.0", response.Version)
		assert.Empty(t, response.Watched)
	}
}

func TestHealthCheckMethodNotAllowed(t *testing.T) {
	router, _ := setupRouter(t, false)

	req := httptest.NewRequest(http.MethodPost, "/health", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestRequestIDMiddleware(t *testing.T) {
	router, _ := setupRouter(t, false)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Len(t, rr.Header().Get(requestIDHeader), 36)

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, "abc-123", rr.Header().Get(requestIDHeader))
}

func TestCORSPreflight(t *testing.T) {
	router, _ := setupRouter(t, false)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/invoke/get_system_info", nil)
	req.Header.Set("Origin", "tauri://localhost")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "tauri://localhost", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSDefaultOrigins(t *testing.T) {
	origins := config.Default().Server.AllowedOrigins
	require.Contains(t, origins, "tauri://localhost")
	assert.NotPanics(t, func() { corsMiddleware(origins) })
}

func TestCORSRejectsUnlistedOrigin(t *testing.T) {
	router, _ := setupRouter(t, false)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/invoke/get_system_info", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestStreamEventsDisabled(t *testing.T) {
	router, _ := setupRouter(t, false)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/events", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestStreamEvents(t *testing.T) {
	router, monitor := setupRouter(t, true)
	dir := t.TempDir()
	require.NoError(t, monitor.Watch(dir))

	srv := httptest.NewServer(router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, ": connected\n", line)

	target := filepath.Join(dir, "index.ts")
	require.NoError(t, os.WriteFile(target, []byte("export {}\n"), 0644))

	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev watch.Event
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev))
		if ev.Path == target {
			assert.Equal(t, dir, ev.Root)
			return
		}
	}
}
