package exercise

import (
	"github.com/quaverlabs/quaver/logging"
)

// Sequencer owns the playback cursor over an exercise's note sequence.
// All cursor movement goes through its operations; the matching state
// machine never touches the index directly.
type Sequencer struct {
	exercise *Exercise
	cursor   int
}

// NewSequencer creates a sequencer positioned at the first note.
func NewSequencer(ex *Exercise) *Sequencer {
	return &Sequencer{exercise: ex}
}

// Exercise returns the exercise this sequencer walks.
func (s *Sequencer) Exercise() *Exercise {
	return s.exercise
}

// CurrentNote returns the note at the cursor, or nil once the cursor has
// moved past the end of the exercise.
func (s *Sequencer) CurrentNote() *NoteSpec {
	if s.cursor >= len(s.exercise.Notes) {
		return nil
	}
	return &s.exercise.Notes[s.cursor]
}

// Position returns the cursor index and the total note count.
func (s *Sequencer) Position() (current, total int) {
	return s.cursor, len(s.exercise.Notes)
}

// Done reports whether the cursor has passed the last note.
func (s *Sequencer) Done() bool {
	return s.cursor >= len(s.exercise.Notes)
}

// Advance moves the cursor to the next note. It returns true exactly when
// the exercise is finished: moving off the last note, or any call made after
// that (the cursor never moves further).
func (s *Sequencer) Advance() (endOfExercise bool) {
	if s.cursor >= len(s.exercise.Notes) {
		return true
	}
	s.cursor++
	if s.cursor >= len(s.exercise.Notes) {
		logging.Debug("sequencer reached end of exercise", logging.Fields{
			"exercise": s.exercise.Name,
		})
		return true
	}
	return false
}

// RepeatCurrentNote leaves the cursor in place. Progress on the in-flight
// note is the matching machine's state; this operation only re-confirms the
// current position and returns it.
func (s *Sequencer) RepeatCurrentNote() *NoteSpec {
	return s.CurrentNote()
}

// RepeatCurrentMeasure rewinds the cursor to the first note of the measure
// the current note belongs to. Past the end it rewinds into the last measure.
func (s *Sequencer) RepeatCurrentMeasure() *NoteSpec {
	idx := s.cursor
	if idx >= len(s.exercise.Notes) {
		idx = len(s.exercise.Notes) - 1
	}
	measure := s.exercise.Notes[idx].MeasureIndex
	for idx > 0 && s.exercise.Notes[idx-1].MeasureIndex == measure {
		idx--
	}
	s.cursor = idx
	return s.CurrentNote()
}

// Reset returns the cursor to the first note.
func (s *Sequencer) Reset() {
	s.cursor = 0
}
