// Package commands implements the backend commands the front-end invokes by
// name.
package commands

import (
	"context"
	"fmt"
	"runtime"

	"drillsargeant/internal/analysis"
	"drillsargeant/internal/models"

	"github.com/sirupsen/logrus"
)

// Command names as the front-end invokes them.
const (
	// AnalyzeDirectory returns the analysis result for a directory path.
	AnalyzeDirectory = "analyze_directory"

	// GetSystemInfo returns the application banner, platform and architecture.
	GetSystemInfo = "get_system_info"

	// WatchDirectory acknowledges a directory monitoring request.
	WatchDirectory = "watch_directory"
)

const systemInfoBanner = "DrillSargeant Desktop v1.0"

// Watcher registers a directory for change monitoring.
type Watcher interface {
	Watch(path string) error
}

// Service holds the command implementations. None of them return an error;
// the error results exist so every command shares one calling convention.
type Service struct {
	analyzer *analysis.Analyzer
	watcher  Watcher
	log      logrus.FieldLogger
}

// NewService creates a Service. watcher may be nil, in which case
// watch_directory only acknowledges the request.
func NewService(watcher Watcher, log logrus.FieldLogger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		analyzer: analysis.NewAnalyzer(log),
		watcher:  watcher,
		log:      log,
	}
}

// AnalyzeDirectory returns the analysis result for path.
func (s *Service) AnalyzeDirectory(ctx context.Context, path string) (models.AnalysisResult, error) {
	return s.analyzer.Analyze(path), nil
}

// GetSystemInfo reports the host platform and architecture as the Go
// runtime names them.
func (s *Service) GetSystemInfo(ctx context.Context) (string, error) {
	return fmt.Sprintf("%s\nPlatform: %s\nArchitecture: %s",
		systemInfoBanner, runtime.GOOS, runtime.GOARCH), nil
}

// WatchDirectory acknowledges a monitoring request for path. Registration
// with the watcher is best effort and its failure is only logged.
func (s *Service) WatchDirectory(ctx context.Context, path string) (string, error) {
	log := s.log.WithField("path", path)
	log.Info("Setting up file watcher")

	if s.watcher != nil {
		if err := s.watcher.Watch(path); err != nil {
			log.WithError(err).Warn("File watcher not registered")
		}
	}

	return fmt.Sprintf("Started monitoring: %s", path), nil
}
