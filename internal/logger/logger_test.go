package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerologAdapterWritesComponentAndFields(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{Level: "debug", JSON: true, Writer: &buf})
	require.NoError(t, err)

	log.Info("Tracker", "frame tracked", map[string]interface{}{"regions": 3})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "Tracker", entry["component"])
	assert.Equal(t, "frame tracked", entry["message"])
	assert.EqualValues(t, 3, entry["regions"])
}

func TestZerologAdapterError(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{Level: "info", JSON: true, Writer: &buf})
	require.NoError(t, err)

	log.Error("Capture", errors.New("device gone"), nil)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "device gone", entry["error"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{Level: "warn", JSON: true, Writer: &buf})
	require.NoError(t, err)

	log.Debug("Pipeline", "hidden", nil)
	log.Info("Pipeline", "hidden", nil)
	assert.Zero(t, buf.Len())

	log.Warning("Pipeline", "shown", nil)
	assert.NotZero(t, buf.Len())
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(Options{Level: "loud"})
	assert.Error(t, err)
}

func TestOrNoOp(t *testing.T) {
	assert.IsType(t, NoOp{}, OrNoOp(nil))

	var buf bytes.Buffer
	z := NewZerolog(&buf, 0)
	assert.Same(t, z, OrNoOp(z))
}
