package logger

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsolatedLogger_WritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "access.log")
	l := NewIsolatedLogger(path)

	l.Info("HTTP", "request completed", map[string]interface{}{"status": 200})
	l.Debug("HTTP", "dropped below info", nil)
	_ = l.Sync()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []map[string]interface{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		lines = append(lines, entry)
	}

	require.Len(t, lines, 1)
	assert.Equal(t, "INFO", lines[0]["level"])
	assert.Equal(t, "request completed", lines[0]["message"])
	assert.Equal(t, "HTTP", lines[0]["module"])
	assert.Equal(t, path, l.FilePath())
}

func TestNopLogger_AcceptsNilDetails(t *testing.T) {
	l := NewNopLogger()
	assert.NotPanics(t, func() {
		l.Info("TEST", "nothing", nil)
		l.Error("TEST", "nothing", map[string]interface{}{"error": "boom"})
	})
}
