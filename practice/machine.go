package practice

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/quaverlabs/quaver/config"
	"github.com/quaverlabs/quaver/detect"
	"github.com/quaverlabs/quaver/exercise"
	"github.com/quaverlabs/quaver/logging"
	"github.com/quaverlabs/quaver/pitch"
	"github.com/quaverlabs/quaver/session"
)

// SessionState is the session-level envelope of the matching machine.
type SessionState int

const (
	Idle SessionState = iota
	Running
	Paused
	Ended
)

func (s SessionState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Ended:
		return "ended"
	default:
		return "unknown"
	}
}

// NoteState is the per-note matching state.
type NoteState int

const (
	WaitingForNote NoteState = iota
	Listening
)

// EventType identifies the events the machine emits toward the presentation
// collaborator.
type EventType int

const (
	// EventNoteOutcome carries the terminal outcome of one note attempt.
	EventNoteOutcome EventType = iota
	// EventCursorMoved signals that the expected note changed; Prompt names it.
	EventCursorMoved
	// EventSessionEnded signals that the session reached a terminal state.
	EventSessionEnded
)

// Event is one emission of the matching machine. Zen marks events whose
// feedback presentation should be suppressed; matching semantics are
// unchanged.
type Event struct {
	Type      EventType
	NoteIndex int
	Prompt    string
	Outcome   *session.Outcome
	ElapsedMs float64
	Zen       bool
}

// runKind classifies the current consecutive-estimate run against the
// expected note.
type runKind int

const (
	runNone runKind = iota
	runSupport
	runSharp
	runFlat
	runWrong
)

// Machine matches a stream of pitch estimates against the note sequence of
// an exercise. It consumes estimates strictly in capture order, requires a
// debounce run of consecutive consistent estimates before any terminal
// outcome, and emits exactly one outcome event per note attempt.
type Machine struct {
	cfg config.PracticeConfig
	seq *exercise.Sequencer
	agg *session.Aggregator
	log logging.Logger

	state     SessionState
	noteState NoteState

	noteStartedAt time.Time
	pausedAt      time.Time
	pausedTotal   time.Duration

	run      runKind
	runCents []float64

	summary    session.Summary
	hasSummary bool
}

// NewMachine creates a matching machine over the sequencer, recording
// outcomes into the aggregator. The configuration is sanitized once here;
// it is read-only for the lifetime of the session.
func NewMachine(seq *exercise.Sequencer, cfg config.PracticeConfig, agg *session.Aggregator) *Machine {
	return &Machine{
		cfg: cfg.Sanitized(),
		seq: seq,
		agg: agg,
		log: logging.WithFields(logging.Fields{
			"component": "practice",
			"exercise":  seq.Exercise().Name,
		}),
	}
}

// State returns the session envelope state.
func (m *Machine) State() SessionState {
	return m.state
}

// NoteState returns the per-note matching state.
func (m *Machine) NoteState() NoteState {
	return m.noteState
}

// Summary returns the finalized session summary once the machine has ended.
func (m *Machine) Summary() (session.Summary, bool) {
	return m.summary, m.hasSummary
}

// Start begins the session at ts. Only valid from Idle.
func (m *Machine) Start(ts time.Time) ([]Event, error) {
	if m.state != Idle {
		return nil, fmt.Errorf("cannot start practice from state %s", m.state)
	}

	m.state = Running
	m.noteState = WaitingForNote
	m.noteStartedAt = ts
	m.pausedTotal = 0
	m.resetRun()

	m.log.Info("practice session started", logging.Fields{"session": m.agg.ID()})

	if note := m.seq.CurrentNote(); note != nil {
		return []Event{m.cursorEvent(note)}, nil
	}
	return nil, nil
}

// Pause suspends estimate consumption without discarding partial progress on
// the in-flight note.
func (m *Machine) Pause(ts time.Time) error {
	if m.state != Running {
		return fmt.Errorf("cannot pause practice from state %s", m.state)
	}
	m.state = Paused
	m.pausedAt = ts
	m.log.Debug("practice paused")
	return nil
}

// Resume continues a paused session. The time spent paused does not count
// against the note's duration window.
func (m *Machine) Resume(ts time.Time) error {
	if m.state != Paused {
		return fmt.Errorf("cannot resume practice from state %s", m.state)
	}
	m.state = Running
	m.pausedTotal += ts.Sub(m.pausedAt)
	m.log.Debug("practice resumed")
	return nil
}

// Abort ends the session early and seals the analytics log.
func (m *Machine) Abort(ts time.Time) []Event {
	if m.state == Idle || m.state == Ended {
		return nil
	}
	m.state = Ended
	m.summary = m.agg.Finalize(ts, false)
	m.hasSummary = true
	m.log.Info("practice session aborted")
	return []Event{{Type: EventSessionEnded, Zen: m.cfg.ZenMode}}
}

// AudioFailure reacts to the host losing the audio source: a running session
// pauses pending a user-initiated retry, it is never dropped silently.
func (m *Machine) AudioFailure(err error, ts time.Time) {
	m.log.Error(err, "audio acquisition failed during practice")
	if m.state == Running {
		_ = m.Pause(ts)
	}
}

// Skip records an explicit skip of the current note and advances. Skips are
// never inferred; this is the only path that produces a Skipped outcome.
func (m *Machine) Skip(ts time.Time) ([]Event, error) {
	if m.state != Running {
		return nil, fmt.Errorf("cannot skip from state %s", m.state)
	}
	note := m.seq.CurrentNote()
	if note == nil {
		return nil, nil
	}
	elapsed := m.elapsedMs(ts)
	return m.finish(note, session.Outcome{Kind: session.Skipped}, elapsed, ts), nil
}

// RepeatNote discards the partial matching progress on the current note and
// restarts its duration window at ts. The cursor does not move.
func (m *Machine) RepeatNote(ts time.Time) {
	m.seq.RepeatCurrentNote()
	m.restartNote(ts)
}

// RepeatMeasure rewinds the cursor to the start of the current measure and
// restarts matching there.
func (m *Machine) RepeatMeasure(ts time.Time) []Event {
	note := m.seq.RepeatCurrentMeasure()
	m.restartNote(ts)
	if note == nil {
		return nil
	}
	return []Event{m.cursorEvent(note)}
}

// Consume feeds one pitch estimate into the machine and returns any events
// it produced. Estimates are ignored unless the session is Running; pausing
// therefore suspends consumption while keeping the in-flight run.
func (m *Machine) Consume(est detect.Estimate) []Event {
	if m.state != Running {
		return nil
	}
	note := m.seq.CurrentNote()
	if note == nil {
		return nil
	}

	if m.noteState == WaitingForNote {
		m.noteState = Listening
	}

	elapsed := m.elapsedMs(est.Timestamp)
	window := note.DurationMs / m.cfg.TempoFactor

	if note.Rest {
		// A rest completes when its window has passed. Played notes during
		// a rest are not penalized.
		if elapsed >= window {
			return m.finish(note, session.Outcome{Kind: session.Matched}, elapsed, est.Timestamp)
		}
		return nil
	}

	usable := est.Pitched && est.Confidence >= m.cfg.MinConfidence
	if usable {
		kind, cents := m.classify(note, est)
		if kind != m.run {
			m.run = kind
			m.runCents = m.runCents[:0]
		}
		m.runCents = append(m.runCents, cents)

		if len(m.runCents) >= m.cfg.DebounceCount && elapsed <= window {
			return m.finish(note, m.runOutcome(), elapsed, est.Timestamp)
		}
	} else {
		// Silence or a low-confidence blip breaks consecutiveness but is
		// absorbed, never surfaced as feedback.
		m.resetRun()
	}

	if elapsed >= window {
		return m.finish(note, session.Outcome{Kind: session.Timeout}, elapsed, est.Timestamp)
	}

	return nil
}

// classify decides how one usable estimate relates to the expected note.
func (m *Machine) classify(note *exercise.NoteSpec, est detect.Estimate) (runKind, float64) {
	cents := pitch.CentsBetween(note.Pitch, est.Frequency)
	tolerance := m.cfg.ToleranceCents()

	switch {
	case cents >= -tolerance && cents <= tolerance:
		return runSupport, cents
	case cents > tolerance && cents <= 50:
		return runSharp, cents
	case cents < -tolerance && cents >= -50:
		return runFlat, cents
	default:
		return runWrong, cents
	}
}

// runOutcome converts a completed debounce run into its terminal outcome.
func (m *Machine) runOutcome() session.Outcome {
	mean := stat.Mean(m.runCents, nil)
	switch m.run {
	case runSupport:
		return session.Outcome{Kind: session.Matched, AccuracyCents: mean}
	case runSharp:
		return session.Outcome{Kind: session.TooSharp, AccuracyCents: mean}
	case runFlat:
		return session.Outcome{Kind: session.TooFlat, AccuracyCents: mean}
	default:
		return session.Outcome{Kind: session.WrongPitch, AccuracyCents: mean}
	}
}

// finish records the terminal outcome for the note, advances the cursor and
// either arms the next note or ends the session.
func (m *Machine) finish(note *exercise.NoteSpec, outcome session.Outcome, elapsedMs float64, ts time.Time) []Event {
	ev := session.Event{
		NoteIndex:    note.Index,
		MeasureIndex: note.MeasureIndex,
		Outcome:      outcome,
		ElapsedMs:    elapsedMs,
	}
	if err := m.agg.Record(ev); err != nil {
		m.log.Error(err, "failed to record outcome")
	}

	m.log.Debug("note attempt finished", logging.Fields{
		"note":    note.Label(),
		"index":   note.Index,
		"outcome": outcome.Kind.String(),
	})

	events := []Event{{
		Type:      EventNoteOutcome,
		NoteIndex: note.Index,
		Outcome:   &outcome,
		ElapsedMs: elapsedMs,
		Zen:       m.cfg.ZenMode,
	}}

	end := m.seq.Advance()
	m.restartNote(ts)

	if end {
		m.state = Ended
		m.summary = m.agg.Finalize(ts, true)
		m.hasSummary = true
		events = append(events, Event{Type: EventSessionEnded, Zen: m.cfg.ZenMode})
		return events
	}

	events = append(events, m.cursorEvent(m.seq.CurrentNote()))
	return events
}

func (m *Machine) cursorEvent(note *exercise.NoteSpec) Event {
	prompt := "Rest"
	if !note.Rest {
		prompt = "Play " + note.Pitch.String()
	}
	return Event{
		Type:      EventCursorMoved,
		NoteIndex: note.Index,
		Prompt:    prompt,
		Zen:       m.cfg.ZenMode,
	}
}

func (m *Machine) restartNote(ts time.Time) {
	m.noteState = WaitingForNote
	m.noteStartedAt = ts
	m.pausedTotal = 0
	m.resetRun()
}

func (m *Machine) resetRun() {
	m.run = runNone
	m.runCents = m.runCents[:0]
}

func (m *Machine) elapsedMs(ts time.Time) float64 {
	return float64((ts.Sub(m.noteStartedAt) - m.pausedTotal).Milliseconds())
}
