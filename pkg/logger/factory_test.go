package logger_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romusha/forumauth/pkg/logger"
)

func TestNew_JSONFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(
		logger.WithOutput(&buf),
		logger.WithService("forumauth"),
	)

	log.Info("hello", logger.Email("alice@gmail.com"))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "hello", record["msg"])
	assert.Equal(t, "forumauth", record["service"])
	assert.Equal(t, "alice@gmail.com", record["email"])
}

func TestNew_LevelFiltersDebug(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(logger.WithOutput(&buf), logger.WithLevel(slog.LevelInfo))

	log.Debug("should be dropped")
	assert.Empty(t, buf.String())

	log.Info("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestNew_TextFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(logger.WithOutput(&buf), logger.WithFormat(logger.FormatText))

	log.Info("plain", logger.Component("test"))
	assert.Contains(t, buf.String(), "component=test")
}

func TestWithFormat_PanicsOnInvalid(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		logger.New(logger.WithFormat(logger.Format("xml")))
	})
}

func TestErrorAttr_NilError(t *testing.T) {
	t.Parallel()

	attr := logger.Error(nil)
	assert.Equal(t, slog.Attr{}, attr)
}
