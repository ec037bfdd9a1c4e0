package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	t.Run("console only", func(t *testing.T) {
		logger := NewLogger(Config{Level: "warn", NoColor: true})
		require.NotNil(t, logger)
		assert.Equal(t, zerolog.WarnLevel, logger.GetLevel())
	})

	t.Run("writes the log file", func(t *testing.T) {
		logFile := filepath.Join(t.TempDir(), "nested", "msipkg.log")

		logger := NewLogger(Config{Level: "debug", LogFile: logFile, NoColor: true})
		logger.Debug().Str("package_path", `C:\pkgs\setup.msi`).Msg("reading package")

		data, err := os.ReadFile(logFile)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"message":"reading package"`)
		assert.Contains(t, string(data), `"package_path":"C:\\pkgs\\setup.msi"`)
	})

	t.Run("unwritable log dir falls back to console", func(t *testing.T) {
		logger := NewLogger(Config{Level: "info", LogFile: "/dev/null/msipkg.log", NoColor: true})
		require.NotNil(t, logger)
		logger.Info().Msg("still logs")
	})
}

func TestNoColor(t *testing.T) {
	assert.False(t, NoColor("always"))
	assert.True(t, NoColor("never"))
	assert.True(t, NoColor(" NEVER "))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{" error ", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"verbose", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.input))
		})
	}
}

func TestNewTestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewTestLogger(&buf)

	logger.Info().Str("name", "Widget").Msg("uninstalling package")

	assert.Contains(t, buf.String(), `"name":"Widget"`)
	assert.Contains(t, buf.String(), `"time":`)
}

func TestProgressSafeWriter(t *testing.T) {
	t.Run("clears spinner line first", func(t *testing.T) {
		var buf bytes.Buffer
		writer := newProgressSafeWriter(&buf)

		n, err := writer.Write([]byte("msg\n"))
		assert.NoError(t, err)
		assert.Equal(t, 4, n)
		assert.Equal(t, "\r\033[Kmsg\n", buf.String())
	})

	t.Run("every write is prefixed", func(t *testing.T) {
		var buf bytes.Buffer
		writer := newProgressSafeWriter(&buf)

		_, _ = writer.Write([]byte("line1\n"))
		_, _ = writer.Write([]byte("line2\n"))

		assert.Equal(t, "\r\033[Kline1\n\r\033[Kline2\n", buf.String())
	})

	t.Run("concurrent writes stay whole", func(t *testing.T) {
		var buf bytes.Buffer
		writer := newProgressSafeWriter(&buf)

		var wg sync.WaitGroup
		for range 10 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = writer.Write([]byte("concurrent\n"))
			}()
		}
		wg.Wait()

		assert.Equal(t, 10, strings.Count(buf.String(), "\r\033[Kconcurrent\n"))
	})
}
