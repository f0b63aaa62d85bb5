package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/dom/impostor-game/internal/logger"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWithWriter_ProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger.InitWithWriter("production", &buf)

	log.Debug().Msg("hidden")
	log.Error().Stack().Err(errors.New("boom")).Str("room_id", "r1").Msg("save failed")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "r1", entry["room_id"])
	assert.Equal(t, "boom", entry["error"])
	assert.NotEmpty(t, entry["stack"])
}

func TestInitWithWriter_DevelopmentIsConsole(t *testing.T) {
	var buf bytes.Buffer
	logger.InitWithWriter("development", &buf)

	log.Debug().Msg("visible")
	assert.Contains(t, buf.String(), "visible")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}
