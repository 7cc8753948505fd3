package tuner

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/quaverlabs/quaver/detect"
	"github.com/quaverlabs/quaver/logging"
)

func init() {
	logging.SetGlobalLogger(&logging.NoOpLogger{})
}

func pitched(freq, confidence float64) detect.Estimate {
	return detect.Estimate{
		Frequency:  freq,
		Pitched:    true,
		Confidence: confidence,
		Timestamp:  time.Now(),
	}
}

func startedMachine(t *testing.T) *Machine {
	t.Helper()
	m := NewMachine(0.5)
	assert.NoError(t, m.Start())
	assert.NoError(t, m.AudioReady())
	return m
}

func TestLifecycle(t *testing.T) {
	assert := assert.New(t)

	m := NewMachine(0.5)
	assert.Equal(Idle, m.State())

	assert.NoError(m.Start())
	assert.Equal(Initializing, m.State())
	assert.Error(m.Start(), "double start is rejected")

	assert.NoError(m.AudioReady())
	assert.Equal(Ready, m.State())

	m.Stop()
	assert.Equal(Idle, m.State())
}

func TestConsumeTogglesListeningAndDetected(t *testing.T) {
	assert := assert.New(t)
	m := startedMachine(t)

	reading := m.Consume(pitched(440.0, 0.9))
	assert.Equal(Detected, m.State())
	assert.True(reading.HasNote)
	assert.Equal("A4", reading.Note)
	assert.InDelta(0.0, reading.Cents, 1.0)

	reading = m.Consume(detect.Estimate{Confidence: 0.1})
	assert.Equal(Listening, m.State())
	assert.False(reading.HasNote)

	reading = m.Consume(pitched(196.0, 0.8))
	assert.Equal(Detected, m.State())
	assert.Equal("G3", reading.Note)
}

func TestLowConfidenceIsListening(t *testing.T) {
	assert := assert.New(t)
	m := startedMachine(t)

	reading := m.Consume(pitched(440.0, 0.3))
	assert.Equal(Listening, m.State())
	assert.False(reading.HasNote)
}

func TestReadingIsOverwrittenEachCycle(t *testing.T) {
	assert := assert.New(t)
	m := startedMachine(t)

	m.Consume(pitched(440.0, 0.9))
	m.Consume(pitched(660.0, 0.9))
	assert.Equal("E5", m.LastReading().Note)
}

func TestErrorIsTerminalUntilRetry(t *testing.T) {
	assert := assert.New(t)
	m := startedMachine(t)

	failure := errors.New("no input device")
	m.Fail(failure)
	assert.Equal(Error, m.State())
	assert.Equal(failure, m.Err())

	// Estimates and stop are ignored while failed.
	reading := m.Consume(pitched(440.0, 0.9))
	assert.False(reading.HasNote)
	m.Stop()
	assert.Equal(Error, m.State())

	assert.NoError(m.Retry())
	assert.Equal(Initializing, m.State())
	assert.NoError(m.Err())
}

func TestConsumeIgnoredBeforeReady(t *testing.T) {
	m := NewMachine(0.5)
	reading := m.Consume(pitched(440.0, 0.9))
	assert.False(t, reading.HasNote)
	assert.Equal(t, Idle, m.State())
}
