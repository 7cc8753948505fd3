package tuner

import (
	"fmt"

	"github.com/quaverlabs/quaver/config"
	"github.com/quaverlabs/quaver/detect"
	"github.com/quaverlabs/quaver/logging"
	"github.com/quaverlabs/quaver/pitch"
)

// State is the tuner lifecycle state.
type State int

const (
	Idle State = iota
	Initializing
	Ready
	Listening
	Detected
	Error
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Initializing:
		return "initializing"
	case Ready:
		return "ready"
	case Listening:
		return "listening"
	case Detected:
		return "detected"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Reading is the transient tuner output, overwritten every detection cycle.
// Note and Cents are only meaningful when HasNote is true.
type Reading struct {
	Note       string  `json:"note"`
	Cents      float64 `json:"cents"`
	HasNote    bool    `json:"has_note"`
	Confidence float64 `json:"confidence"`
}

// Machine is the continuous-tuning consumer of pitch estimates. Unlike the
// practice machine there is no note sequence: the state only reflects whether
// a confident in-range pitch is currently present. No history is kept across
// readings.
type Machine struct {
	state         State
	minConfidence float64
	last          Reading
	lastErr       error
	log           logging.Logger
}

// NewMachine creates an idle tuner. minConfidence gates which estimates count
// as a detected pitch; zero uses the practice default.
func NewMachine(minConfidence float64) *Machine {
	if minConfidence <= 0 {
		minConfidence = config.DefaultPracticeConfig().MinConfidence
	}
	return &Machine{
		minConfidence: minConfidence,
		log:           logging.WithFields(logging.Fields{"component": "tuner"}),
	}
}

// State returns the current lifecycle state.
func (m *Machine) State() State {
	return m.state
}

// LastReading returns the most recent reading.
func (m *Machine) LastReading() Reading {
	return m.last
}

// Err returns the acquisition failure that drove the machine into Error.
func (m *Machine) Err() error {
	return m.lastErr
}

// Start begins audio acquisition setup. Valid from Idle only.
func (m *Machine) Start() error {
	if m.state != Idle {
		return fmt.Errorf("cannot start tuner from state %s", m.state)
	}
	m.state = Initializing
	m.log.Debug("tuner initializing")
	return nil
}

// AudioReady signals that the audio source collaborator is delivering frames.
func (m *Machine) AudioReady() error {
	if m.state != Initializing {
		return fmt.Errorf("audio ready in unexpected state %s", m.state)
	}
	m.state = Ready
	m.log.Debug("tuner ready")
	return nil
}

// Fail records an audio acquisition failure. Error is terminal until Retry.
func (m *Machine) Fail(err error) {
	m.state = Error
	m.lastErr = err
	m.last = Reading{}
	m.log.Error(err, "tuner audio acquisition failed")
}

// Retry re-enters Initializing after a failure. It is the user-initiated
// recovery path; the machine never retries on its own.
func (m *Machine) Retry() error {
	if m.state != Error {
		return fmt.Errorf("cannot retry tuner from state %s", m.state)
	}
	m.state = Initializing
	m.lastErr = nil
	return nil
}

// Stop returns the tuner to Idle from any non-error state.
func (m *Machine) Stop() {
	if m.state == Error {
		return
	}
	m.state = Idle
	m.last = Reading{}
}

// Consume normalizes one pitch estimate into a Reading and publishes it.
// Estimates are ignored unless the tuner has passed initialization.
func (m *Machine) Consume(est detect.Estimate) Reading {
	switch m.state {
	case Ready, Listening, Detected:
	default:
		return Reading{}
	}

	if !est.Pitched || est.Confidence < m.minConfidence {
		m.state = Listening
		m.last = Reading{Confidence: est.Confidence}
		return m.last
	}

	p, err := pitch.FromFrequency(est.Frequency)
	if err != nil {
		// A pitched estimate with an unusable frequency is treated as
		// silence for this cycle.
		m.state = Listening
		m.last = Reading{Confidence: est.Confidence}
		return m.last
	}

	m.state = Detected
	m.last = Reading{
		Note:       p.String(),
		Cents:      p.Cents,
		HasNote:    true,
		Confidence: est.Confidence,
	}
	return m.last
}
