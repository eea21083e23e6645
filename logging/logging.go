package logging

import (
	"io"
	"os"
	"strings"

	"drillsargeant/config"

	"github.com/sirupsen/logrus"
)

// InitLogger configures the standard logrus logger from
// config.Current().Logging for the long-running server.
func InitLogger() {
	Configure(logrus.StandardLogger(), config.Current().Logging, nil)
	logrus.Info("Logger initialized successfully")
}

// InitCommandLogger configures the standard logger for a one-shot command
// whose stdout carries its result. The "stdout" and "stderr" outputs are
// both sent to console so log lines never mix with the command output.
func InitCommandLogger(console io.Writer) {
	Configure(logrus.StandardLogger(), config.Current().Logging, console)
	logrus.Debug("Logger initialized for command output")
}

// Configure applies level, format and output to logger. A nil console
// means the process's own stdout and stderr. Invalid values fall back to
// info level and stderr.
func Configure(logger *logrus.Logger, cfg config.LoggingConfig, console io.Writer) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		logger.Warnf("Invalid log level '%s', using 'info' instead. Error: %v", cfg.Level, err)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	output, err := resolveOutput(cfg.Output, console)
	if err != nil {
		logger.Warnf("Failed to open log file '%s', using 'stderr' instead. Error: %v", cfg.Output, err)
	}
	logger.SetOutput(output)
}

// resolveOutput maps a logging.output value to a writer. It always returns
// a usable writer, even alongside an error.
func resolveOutput(name string, console io.Writer) (io.Writer, error) {
	var stdout, stderr io.Writer = os.Stdout, os.Stderr
	if console != nil {
		stdout, stderr = console, console
	}

	switch strings.ToLower(name) {
	case "", "stderr":
		return stderr, nil
	case "stdout":
		return stdout, nil
	}

	file, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return stderr, err
	}
	return file, nil
}
