package exercise

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/quaverlabs/quaver/pitch"
)

// NoteSpec is one element of a flattened exercise: a pitch (or rest) with a
// nominal duration and its position in the score. The sequence is immutable
// for the lifetime of a session.
type NoteSpec struct {
	Pitch        pitch.CanonicalPitch `json:"pitch"`
	Rest         bool                 `json:"rest"`
	DurationMs   float64              `json:"duration_ms"`
	MeasureIndex int                  `json:"measure_index"`
	Index        int                  `json:"index"`
}

// Label returns the display name for the note ("G3", or "rest").
func (n NoteSpec) Label() string {
	if n.Rest {
		return "rest"
	}
	return n.Pitch.String()
}

// Exercise is a named, ordered sequence of notes built from structured
// definitions supplied by the exercise data collaborator.
type Exercise struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Notes []NoteSpec `json:"notes"`
}

// NoteDef is the untyped import-boundary form of a note, as it arrives from
// structured exercise definitions. Accidental is deliberately open: exercise
// files encode accidentals as strings or numbers, and the conversion to the
// closed pitch.Accidental happens exactly once, here.
type NoteDef struct {
	Step       string  `json:"step"`
	Accidental any     `json:"accidental,omitempty"`
	Octave     int     `json:"octave"`
	Rest       bool    `json:"rest,omitempty"`
	DurationMs float64 `json:"duration_ms"`
	Measure    int     `json:"measure"`
}

// Build flattens note definitions into an Exercise, normalizing accidentals
// at the boundary. Malformed input surfaces as an error, never a default.
func Build(name string, defs []NoteDef) (*Exercise, error) {
	if len(defs) == 0 {
		return nil, fmt.Errorf("exercise %q has no notes", name)
	}

	notes := make([]NoteSpec, 0, len(defs))
	for i, def := range defs {
		if def.DurationMs <= 0 {
			return nil, fmt.Errorf("exercise %q note %d: duration must be positive, got %v", name, i, def.DurationMs)
		}
		if def.Measure < 0 {
			return nil, fmt.Errorf("exercise %q note %d: negative measure index %d", name, i, def.Measure)
		}

		note := NoteSpec{
			Rest:         def.Rest,
			DurationMs:   def.DurationMs,
			MeasureIndex: def.Measure,
			Index:        i,
		}

		if !def.Rest {
			accidental, err := pitch.NormalizeAccidental(def.Accidental)
			if err != nil {
				return nil, fmt.Errorf("exercise %q note %d: %w", name, i, err)
			}
			p, err := pitch.Parse(fmt.Sprintf("%s%s%d", def.Step, accidental, def.Octave))
			if err != nil {
				return nil, fmt.Errorf("exercise %q note %d: %w", name, i, err)
			}
			note.Pitch = p
		}

		notes = append(notes, note)
	}

	return &Exercise{
		ID:    uuid.NewString(),
		Name:  name,
		Notes: notes,
	}, nil
}

// MustBuild is Build for the built-in fixtures, where the definitions are
// known valid at compile time.
func MustBuild(name string, defs []NoteDef) *Exercise {
	ex, err := Build(name, defs)
	if err != nil {
		panic(err)
	}
	return ex
}
