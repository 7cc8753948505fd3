package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/quaverlabs/quaver/logging"
)

// OutcomeKind is the terminal result of one attempt at a note.
type OutcomeKind int

const (
	Matched OutcomeKind = iota
	TooSharp
	TooFlat
	WrongPitch
	Timeout
	Skipped
)

func (k OutcomeKind) String() string {
	switch k {
	case Matched:
		return "matched"
	case TooSharp:
		return "too_sharp"
	case TooFlat:
		return "too_flat"
	case WrongPitch:
		return "wrong_pitch"
	case Timeout:
		return "timeout"
	case Skipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Outcome pairs the result kind with the mean cents deviation of the
// supporting run. AccuracyCents is only meaningful for Matched.
type Outcome struct {
	Kind          OutcomeKind `json:"kind"`
	AccuracyCents float64     `json:"accuracy_cents"`
}

// Event records one terminal outcome in the session log. Exactly one event
// exists per note attempt; the log is append-only and ordered.
type Event struct {
	NoteIndex    int     `json:"note_index"`
	MeasureIndex int     `json:"measure_index"`
	Outcome      Outcome `json:"outcome"`
	ElapsedMs    float64 `json:"elapsed_ms"`
}

// MeasureStats is the per-measure accuracy breakdown.
type MeasureStats struct {
	Measure   int `json:"measure"`
	Attempted int `json:"attempted"`
	Matched   int `json:"matched"`
}

// Summary is the immutable result of a finished practice session, consumed
// by scoring and sharing collaborators.
type Summary struct {
	ID         string    `json:"id"`
	ExerciseID string    `json:"exercise_id"`
	StartedAt  time.Time `json:"started_at"`
	EndedAt    time.Time `json:"ended_at"`
	Completed  bool      `json:"completed"` // false when the session was aborted

	Events []Event `json:"events"`

	Accuracy          float64        `json:"accuracy"` // matched / attempted
	Attempted         int            `json:"attempted"`
	MatchedCount      int            `json:"matched_count"`
	BestStreak        int            `json:"best_streak"`
	MeanAccuracyCents float64        `json:"mean_accuracy_cents"` // over matched notes
	PerMeasure        []MeasureStats `json:"per_measure"`
}

// Aggregator accumulates match outcomes for one practice session. It performs
// no detection or matching logic itself; it only counts what it is told.
type Aggregator struct {
	id         string
	exerciseID string
	startedAt  time.Time

	events []Event
	sealed bool

	streak     int
	bestStreak int
}

// NewAggregator starts the analytics log for a session beginning at startedAt.
func NewAggregator(exerciseID string, startedAt time.Time) *Aggregator {
	return &Aggregator{
		id:         uuid.NewString(),
		exerciseID: exerciseID,
		startedAt:  startedAt,
	}
}

// ID returns the session identifier.
func (a *Aggregator) ID() string {
	return a.id
}

// Record appends one outcome event. Recording into a sealed session is a
// programming error and is rejected.
func (a *Aggregator) Record(ev Event) error {
	if a.sealed {
		return fmt.Errorf("session %s is sealed", a.id)
	}

	a.events = append(a.events, ev)

	if ev.Outcome.Kind == Matched {
		a.streak++
		if a.streak > a.bestStreak {
			a.bestStreak = a.streak
		}
	} else {
		a.streak = 0
	}

	return nil
}

// Accuracy returns the running matched/attempted ratio. Skipped notes are not
// attempts.
func (a *Aggregator) Accuracy() float64 {
	matched, attempted := a.counts()
	if attempted == 0 {
		return 0
	}
	return float64(matched) / float64(attempted)
}

// Streak returns the current run of consecutive matched notes.
func (a *Aggregator) Streak() int {
	return a.streak
}

// BestStreak returns the longest run of consecutive matched notes so far.
func (a *Aggregator) BestStreak() int {
	return a.bestStreak
}

// EventCount returns the number of recorded events.
func (a *Aggregator) EventCount() int {
	return len(a.events)
}

func (a *Aggregator) counts() (matched, attempted int) {
	for _, ev := range a.events {
		if ev.Outcome.Kind == Skipped {
			continue
		}
		attempted++
		if ev.Outcome.Kind == Matched {
			matched++
		}
	}
	return matched, attempted
}

// Finalize seals the session and produces its immutable summary. Completed
// marks whether the exercise ran to its end or was aborted.
func (a *Aggregator) Finalize(endedAt time.Time, completed bool) Summary {
	a.sealed = true

	matched, attempted := a.counts()

	var matchedCents []float64
	perMeasure := make(map[int]*MeasureStats)
	var order []int
	for _, ev := range a.events {
		if ev.Outcome.Kind != Skipped {
			ms, ok := perMeasure[ev.MeasureIndex]
			if !ok {
				ms = &MeasureStats{Measure: ev.MeasureIndex}
				perMeasure[ev.MeasureIndex] = ms
				order = append(order, ev.MeasureIndex)
			}
			ms.Attempted++
			if ev.Outcome.Kind == Matched {
				ms.Matched++
				matchedCents = append(matchedCents, ev.Outcome.AccuracyCents)
			}
		}
	}

	breakdown := make([]MeasureStats, 0, len(order))
	for _, m := range order {
		breakdown = append(breakdown, *perMeasure[m])
	}

	accuracy := 0.0
	if attempted > 0 {
		accuracy = float64(matched) / float64(attempted)
	}

	meanCents := 0.0
	if len(matchedCents) > 0 {
		meanCents = stat.Mean(matchedCents, nil)
	}

	events := make([]Event, len(a.events))
	copy(events, a.events)

	logging.Info("practice session finalized", logging.Fields{
		"session":   a.id,
		"exercise":  a.exerciseID,
		"attempted": attempted,
		"matched":   matched,
		"completed": completed,
	})

	return Summary{
		ID:                a.id,
		ExerciseID:        a.exerciseID,
		StartedAt:         a.startedAt,
		EndedAt:           endedAt,
		Completed:         completed,
		Events:            events,
		Accuracy:          accuracy,
		Attempted:         attempted,
		MatchedCount:      matched,
		BestStreak:        a.bestStreak,
		MeanAccuracyCents: meanCents,
		PerMeasure:        breakdown,
	}
}
