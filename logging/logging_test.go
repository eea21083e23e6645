package logging

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"drillsargeant/config"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigure(t *testing.T) {
	testCases := []struct {
		name    string
		cfg     config.LoggingConfig
		level   logrus.Level
		json    bool
		wantOut *os.File
	}{
		{
			name:    "debug text stdout",
			cfg:     config.LoggingConfig{Level: "debug", Format: "text", Output: "stdout"},
			level:   logrus.DebugLevel,
			wantOut: os.Stdout,
		},
		{
			name:    "json stderr",
			cfg:     config.LoggingConfig{Level: "warn", Format: "JSON", Output: "stderr"},
			level:   logrus.WarnLevel,
			json:    true,
			wantOut: os.Stderr,
		},
		{
			name:    "invalid level falls back to info on stderr",
			cfg:     config.LoggingConfig{Level: "loud"},
			level:   logrus.InfoLevel,
			wantOut: os.Stderr,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			logger := logrus.New()
			Configure(logger, tc.cfg, nil)

			assert.Equal(t, tc.level, logger.GetLevel())
			_, isJSON := logger.Formatter.(*logrus.JSONFormatter)
			assert.Equal(t, tc.json, isJSON)
			assert.Equal(t, tc.wantOut, logger.Out)
		})
	}
}

func TestConfigureFileOutput(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "app.log")

	logger := logrus.New()
	Configure(logger, config.LoggingConfig{Level: "info", Output: logPath}, nil)
	logger.Info("hello from the test")

	if f, ok := logger.Out.(*os.File); ok {
		require.NoError(t, f.Close())
	}

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello from the test")
}

func TestResolveOutputConsole(t *testing.T) {
	var console bytes.Buffer

	for _, name := range []string{"", "stdout", "STDERR"} {
		out, err := resolveOutput(name, &console)
		require.NoError(t, err, name)
		assert.Same(t, &console, out, name)
	}
}

func TestResolveOutputUnopenableFile(t *testing.T) {
	var console bytes.Buffer
	bad := filepath.Join(t.TempDir(), "missing", "app.log")

	out, err := resolveOutput(bad, &console)
	assert.Error(t, err)
	assert.Same(t, &console, out)

	out, err = resolveOutput(bad, nil)
	assert.Error(t, err)
	assert.Equal(t, io.Writer(os.Stderr), out)
}

func TestInitCommandLoggerKeepsStdoutClean(t *testing.T) {
	t.Cleanup(func() {
		config.AppConfig = nil
		logrus.SetOutput(os.Stderr)
	})
	config.AppConfig = config.Default()
	config.AppConfig.Logging.Output = "stdout"

	var console bytes.Buffer
	InitCommandLogger(&console)
	logrus.Info("analysis requested")

	assert.Contains(t, console.String(), "analysis requested")
}
