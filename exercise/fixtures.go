package exercise

// Built-in beginner exercises. Durations assume the exercise's notated tempo;
// the practice configuration's tempo factor rescales them at session start.

const wholeNoteMs = 2000.0

// OpenGString is four whole notes on the open G string, one per measure.
func OpenGString() *Exercise {
	defs := make([]NoteDef, 4)
	for i := range defs {
		defs[i] = NoteDef{Step: "G", Octave: 3, DurationMs: wholeNoteMs, Measure: i}
	}
	return MustBuild("Open G String", defs)
}

// OpenStrings walks the four open strings low to high, with a rest between
// the last two so the player can reset the bow.
func OpenStrings() *Exercise {
	return MustBuild("Open Strings", []NoteDef{
		{Step: "G", Octave: 3, DurationMs: wholeNoteMs, Measure: 0},
		{Step: "D", Octave: 4, DurationMs: wholeNoteMs, Measure: 1},
		{Step: "A", Octave: 4, DurationMs: wholeNoteMs, Measure: 2},
		{Rest: true, DurationMs: wholeNoteMs / 2, Measure: 3},
		{Step: "E", Octave: 5, DurationMs: wholeNoteMs, Measure: 3},
	})
}

// DMajorScale is a one-octave D major scale in half notes, two per measure.
func DMajorScale() *Exercise {
	steps := []NoteDef{
		{Step: "D", Octave: 4},
		{Step: "E", Octave: 4},
		{Step: "F", Accidental: "#", Octave: 4},
		{Step: "G", Octave: 4},
		{Step: "A", Octave: 4},
		{Step: "B", Octave: 4},
		{Step: "C", Accidental: "#", Octave: 5},
		{Step: "D", Octave: 5},
	}
	for i := range steps {
		steps[i].DurationMs = wholeNoteMs / 2
		steps[i].Measure = i / 2
	}
	return MustBuild("D Major Scale", steps)
}
