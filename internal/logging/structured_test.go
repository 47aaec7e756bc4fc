package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventsBelowThresholdAreDropped(t *testing.T) {
	t.Setenv("CCC_LOG_LEVEL", "warn")
	var buf bytes.Buffer
	log := New("store").WithOutput(&buf)

	log.Debug("ignored", nil)
	log.Info("ignored", nil)
	assert.Zero(t, buf.Len())

	log.Warn("kept", nil, nil)
	assert.NotZero(t, buf.Len())
}

func TestEventShape(t *testing.T) {
	t.Setenv("CCC_LOG_LEVEL", "debug")
	t.Setenv("CCC_AGENT", "cl2")
	var buf bytes.Buffer
	log := New("dispatch").WithOutput(&buf).WithSession("migration")

	log.Error("resolve_failed", map[string]any{"input": "se sta"}, errors.New("boom"))

	var event Event
	require.NoError(t, json.Unmarshal(buf.Bytes(), &event))
	assert.Equal(t, LevelError, event.Level)
	assert.Equal(t, "dispatch", event.Component)
	assert.Equal(t, "resolve_failed", event.Event)
	assert.Equal(t, "cl2", event.Agent)
	assert.Equal(t, "migration", event.Session)
	assert.Equal(t, "boom", event.Error)
	assert.Equal(t, "se sta", event.Extra["input"])
}

func TestUnknownThresholdFallsBackToWarn(t *testing.T) {
	t.Setenv("CCC_LOG_LEVEL", "loud")
	var buf bytes.Buffer
	log := New("store").WithOutput(&buf)

	log.Info("ignored", nil)
	assert.Zero(t, buf.Len())
}
