// Package trainer wires the pitch detector to the practice and tuner state
// machines behind a single-threaded, host-driven step function. The external
// driver (UI loop, audio callback) calls ProcessFrame once per captured frame;
// the package holds no scheduling primitive of its own. Frames must be
// delivered in capture order.
package trainer

import (
	"time"

	"github.com/quaverlabs/quaver/config"
	"github.com/quaverlabs/quaver/detect"
	"github.com/quaverlabs/quaver/exercise"
	"github.com/quaverlabs/quaver/logging"
	"github.com/quaverlabs/quaver/practice"
	"github.com/quaverlabs/quaver/session"
	"github.com/quaverlabs/quaver/tuner"
)

// PracticeRunner drives one practice session: detector, sequencer, matching
// machine and analytics aggregator assembled for a single exercise run.
// Starting a new runner discards all prior per-note accumulation state.
type PracticeRunner struct {
	detector *detect.Detector
	machine  *practice.Machine
	seq      *exercise.Sequencer
}

// NewPracticeRunner assembles a session over the exercise with the supplied
// read-only configuration.
func NewPracticeRunner(ex *exercise.Exercise, cfg config.PracticeConfig, detectorParams detect.Params, startedAt time.Time) *PracticeRunner {
	seq := exercise.NewSequencer(ex)
	agg := session.NewAggregator(ex.ID, startedAt)
	return &PracticeRunner{
		detector: detect.NewDetectorWithParams(detectorParams),
		machine:  practice.NewMachine(seq, cfg, agg),
		seq:      seq,
	}
}

// Start begins the session and returns the initial cursor event.
func (r *PracticeRunner) Start(ts time.Time) ([]practice.Event, error) {
	return r.machine.Start(ts)
}

// ProcessFrame runs one detection-and-matching step over a frame of mono
// samples captured at ts and returns the events it produced. An absent or
// empty frame is ordinary silence, not an error.
func (r *PracticeRunner) ProcessFrame(frame []float64, ts time.Time) []practice.Event {
	est := r.detector.Estimate(frame, ts)
	return r.machine.Consume(est)
}

// Pause suspends matching; Resume continues it without losing note progress.
func (r *PracticeRunner) Pause(ts time.Time) error  { return r.machine.Pause(ts) }
func (r *PracticeRunner) Resume(ts time.Time) error { return r.machine.Resume(ts) }

// Skip explicitly passes over the current note without an attempt.
func (r *PracticeRunner) Skip(ts time.Time) ([]practice.Event, error) {
	return r.machine.Skip(ts)
}

// RepeatNote restarts the current note; RepeatMeasure rewinds to the start
// of its measure.
func (r *PracticeRunner) RepeatNote(ts time.Time) { r.machine.RepeatNote(ts) }
func (r *PracticeRunner) RepeatMeasure(ts time.Time) []practice.Event {
	return r.machine.RepeatMeasure(ts)
}

// Abort ends the session early. Stopping is effective immediately: no later
// frame will produce events.
func (r *PracticeRunner) Abort(ts time.Time) []practice.Event {
	return r.machine.Abort(ts)
}

// AudioFailure routes a host acquisition failure into the session (pauses it).
func (r *PracticeRunner) AudioFailure(err error, ts time.Time) {
	r.machine.AudioFailure(err, ts)
}

// State returns the session envelope state.
func (r *PracticeRunner) State() practice.SessionState { return r.machine.State() }

// CursorPosition exposes the sequencer position for the score renderer.
func (r *PracticeRunner) CursorPosition() (current, total int) { return r.seq.Position() }

// Summary returns the sealed session summary once the run has ended.
func (r *PracticeRunner) Summary() (session.Summary, bool) { return r.machine.Summary() }

// TunerRunner drives continuous tuning: detector plus tuner state machine.
type TunerRunner struct {
	detector *detect.Detector
	machine  *tuner.Machine
}

// NewTunerRunner assembles a tuner over a fresh detector.
func NewTunerRunner(detectorParams detect.Params, minConfidence float64) *TunerRunner {
	return &TunerRunner{
		detector: detect.NewDetectorWithParams(detectorParams),
		machine:  tuner.NewMachine(minConfidence),
	}
}

// Start and AudioReady walk the tuner through initialization.
func (r *TunerRunner) Start() error      { return r.machine.Start() }
func (r *TunerRunner) AudioReady() error { return r.machine.AudioReady() }

// ProcessFrame runs one detection step and returns the published reading.
func (r *TunerRunner) ProcessFrame(frame []float64, ts time.Time) tuner.Reading {
	est := r.detector.Estimate(frame, ts)
	return r.machine.Consume(est)
}

// Fail, Retry and Stop mirror the tuner lifecycle operations.
func (r *TunerRunner) Fail(err error) { r.machine.Fail(err) }
func (r *TunerRunner) Retry() error   { return r.machine.Retry() }
func (r *TunerRunner) Stop()          { r.machine.Stop() }

// State returns the tuner lifecycle state.
func (r *TunerRunner) State() tuner.State { return r.machine.State() }

// SetQuiet silences library logging for hosts that render their own feedback.
func SetQuiet() {
	logging.SetGlobalLogger(&logging.NoOpLogger{})
}
