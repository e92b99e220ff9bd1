package logging_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/Rust-Bucket/Crate-Index/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("should log JSON entries above the level", func(t *testing.T) {
		t.Parallel()

		buf := new(bytes.Buffer)
		logger, err := logging.New(logging.Options{
			Level: "warn",
			JSON:  true,
			Out:   buf,
		})
		require.NoError(t, err)

		logger.Info("skipped")
		logger.WithField("crate", "serde").Warn("logged")

		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "logged", entry["msg"])
		assert.Equal(t, "serde", entry["crate"])
		assert.Equal(t, "warning", entry["level"])
	})

	t.Run("should write to a file", func(t *testing.T) {
		t.Parallel()

		p := filepath.Join(t.TempDir(), "logs", "index.log")
		logger, err := logging.New(logging.Options{
			FilePath: p,
		})
		require.NoError(t, err)

		logger.Info("hello")

		data, err := os.ReadFile(p)
		require.NoError(t, err)
		assert.Contains(t, string(data), "hello")
	})

	t.Run("invalid level should fail", func(t *testing.T) {
		t.Parallel()

		_, err := logging.New(logging.Options{Level: "loud"})
		require.Error(t, err)
	})
}

func TestDiscard(t *testing.T) {
	t.Parallel()

	logger := logging.Discard()
	assert.NotPanics(t, func() {
		logger.WithField("crate", "serde").Error("nothing")
	})
}
