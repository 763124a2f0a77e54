package common_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	common "github.com/404wolf/livefs/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLogger(t *testing.T) {
	t.Run("Invalid level", func(t *testing.T) {
		_, err := common.SetupLogger("", "loud", true)
		assert.Error(t, err)
	})

	t.Run("File output is JSON", func(t *testing.T) {
		logFile := filepath.Join(t.TempDir(), "livefs.log")
		logger, err := common.SetupLogger(logFile, "info", true)
		require.NoError(t, err)

		logger.Debugw("hidden")
		logger.Infow("Mounted livefs", "mountPoint", "/tmp/x")
		require.NoError(t, logger.Sync())

		data, err := os.ReadFile(logFile)
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		require.Len(t, lines, 1)

		var record map[string]any
		require.NoError(t, json.Unmarshal([]byte(lines[0]), &record))
		assert.Equal(t, "INFO", record["level"])
		assert.Equal(t, "Mounted livefs", record["msg"])
		assert.Equal(t, "/tmp/x", record["mountPoint"])
	})
}

func TestReportError(t *testing.T) {
	message := common.ReportError("Failed to read %s", os.ErrNotExist, "quit")
	assert.Equal(t, "Failed to read quit: file does not exist", message)
}
