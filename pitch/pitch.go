package pitch

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Reference tuning: equal temperament anchored at A4.
const (
	ReferenceFrequency = 440.0
	referenceMIDI      = 69
)

// Accidental is the canonical accidental of a pitch: -1 flat, 0 natural, 1 sharp.
// Double accidentals are folded into the single-step form during normalization.
type Accidental int

const (
	Flat    Accidental = -1
	Natural Accidental = 0
	Sharp   Accidental = 1
)

func (a Accidental) String() string {
	switch a {
	case Flat:
		return "b"
	case Sharp:
		return "#"
	default:
		return ""
	}
}

// UnsupportedAccidentalError reports an accidental encoding outside the
// recognized lexical/numeric set.
type UnsupportedAccidentalError struct {
	Input any
}

func (e *UnsupportedAccidentalError) Error() string {
	return fmt.Sprintf("unsupported accidental: %v (%T)", e.Input, e.Input)
}

// InvalidPitchStringError reports a malformed scientific pitch name.
type InvalidPitchStringError struct {
	Text   string
	Reason string
}

func (e *InvalidPitchStringError) Error() string {
	return fmt.Sprintf("invalid pitch %q: %s", e.Text, e.Reason)
}

// NormalizeAccidental converts any of the accidental encodings found in
// exercise definitions into a canonical Accidental. Accepted encodings:
//
//	sharps: "#", "sharp", "##", "double-sharp", 1, 2
//	flats:  "b", "flat", "bb", "double-flat", -1, -2
//	natural: "", "natural", 0, nil
//
// Anything else is an UnsupportedAccidentalError, never a silent default.
func NormalizeAccidental(input any) (Accidental, error) {
	switch v := input.(type) {
	case nil:
		return Natural, nil
	case Accidental:
		switch v {
		case Flat, Natural, Sharp:
			return v, nil
		}
	case string:
		switch v {
		case "#", "sharp", "##", "double-sharp":
			return Sharp, nil
		case "b", "flat", "bb", "double-flat":
			return Flat, nil
		case "", "natural":
			return Natural, nil
		}
	case int:
		return normalizeNumericAccidental(float64(v))
	case float64:
		// JSON decoding surfaces numbers as float64.
		return normalizeNumericAccidental(v)
	}
	return Natural, &UnsupportedAccidentalError{Input: input}
}

func normalizeNumericAccidental(v float64) (Accidental, error) {
	switch v {
	case 1, 2:
		return Sharp, nil
	case -1, -2:
		return Flat, nil
	case 0:
		return Natural, nil
	}
	return Natural, &UnsupportedAccidentalError{Input: v}
}

// CanonicalPitch is the shared pitch vocabulary: step + accidental + octave
// plus the signed cents deviation from that pitch's exact frequency.
// Cents stays within [-50, 50) because frequency conversion always resolves
// to the nearest semitone.
type CanonicalPitch struct {
	Step       string     `json:"step"` // one of C D E F G A B
	Accidental Accidental `json:"accidental"`
	Octave     int        `json:"octave"`
	Cents      float64    `json:"cents"`
}

// Semitone offsets of the natural steps within an octave, C=0.
var stepSemitones = map[string]int{
	"C": 0, "D": 2, "E": 4, "F": 5, "G": 7, "A": 9, "B": 11,
}

// Sharp-preferring spelling for each pitch class, matching how detected
// frequencies are named back to the player.
var pitchClassNames = [12]struct {
	step       string
	accidental Accidental
}{
	{"C", Natural}, {"C", Sharp}, {"D", Natural}, {"D", Sharp},
	{"E", Natural}, {"F", Natural}, {"F", Sharp}, {"G", Natural},
	{"G", Sharp}, {"A", Natural}, {"A", Sharp}, {"B", Natural},
}

// Parse parses a scientific pitch name like "G#4", "Bb3" or "C4".
func Parse(text string) (CanonicalPitch, error) {
	if len(text) < 2 {
		return CanonicalPitch{}, &InvalidPitchStringError{Text: text, Reason: "too short"}
	}

	step := strings.ToUpper(text[:1])
	if _, ok := stepSemitones[step]; !ok {
		return CanonicalPitch{}, &InvalidPitchStringError{Text: text, Reason: "unknown step letter"}
	}

	rest := text[1:]
	accidental := Natural
	switch {
	case strings.HasPrefix(rest, "##"):
		accidental = Sharp
		rest = rest[2:]
	case strings.HasPrefix(rest, "bb"):
		accidental = Flat
		rest = rest[2:]
	case strings.HasPrefix(rest, "#"):
		accidental = Sharp
		rest = rest[1:]
	case strings.HasPrefix(rest, "b"):
		accidental = Flat
		rest = rest[1:]
	}

	octave, err := strconv.Atoi(rest)
	if err != nil {
		return CanonicalPitch{}, &InvalidPitchStringError{Text: text, Reason: "malformed octave"}
	}

	return CanonicalPitch{Step: step, Accidental: accidental, Octave: octave}, nil
}

// FromFrequency resolves a frequency to the nearest equal-tempered pitch and
// the residual deviation in cents. The nearest semitone is chosen with
// banker's rounding so inputs on an exact quarter-tone boundary resolve the
// same way on every call.
func FromFrequency(freqHz float64) (CanonicalPitch, error) {
	if freqHz <= 0 || math.IsNaN(freqHz) || math.IsInf(freqHz, 0) {
		return CanonicalPitch{}, fmt.Errorf("frequency must be a positive finite value, got %v", freqHz)
	}

	semitonesFromA4 := 12.0 * math.Log2(freqHz/ReferenceFrequency)
	nearest := math.RoundToEven(semitonesFromA4)
	cents := (semitonesFromA4 - nearest) * 100.0

	midi := referenceMIDI + int(nearest)
	class := ((midi % 12) + 12) % 12
	name := pitchClassNames[class]

	return CanonicalPitch{
		Step:       name.step,
		Accidental: name.accidental,
		Octave:     midi/12 - 1,
		Cents:      cents,
	}, nil
}

// MIDINumber returns the MIDI note number of the canonical pitch (cents ignored).
func (p CanonicalPitch) MIDINumber() int {
	return (p.Octave+1)*12 + stepSemitones[p.Step] + int(p.Accidental)
}

// Frequency returns the exact frequency of the pitch including its cents
// deviation.
func (p CanonicalPitch) Frequency() float64 {
	semitones := float64(p.MIDINumber()-referenceMIDI) + p.Cents/100.0
	return ReferenceFrequency * math.Pow(2.0, semitones/12.0)
}

// SameNote reports whether two pitches name the same note, comparing by
// pitch class and octave so enharmonic spellings (G#4 vs Ab4) are equal.
func (p CanonicalPitch) SameNote(other CanonicalPitch) bool {
	return p.MIDINumber() == other.MIDINumber()
}

// String renders the pitch in scientific notation, e.g. "G#4". Cents are not
// part of the name.
func (p CanonicalPitch) String() string {
	return fmt.Sprintf("%s%s%d", p.Step, p.Accidental, p.Octave)
}

// CentsBetween returns the signed deviation of freqHz from the exact
// frequency of the reference pitch, in cents. Positive means sharp.
func CentsBetween(reference CanonicalPitch, freqHz float64) float64 {
	base := CanonicalPitch{Step: reference.Step, Accidental: reference.Accidental, Octave: reference.Octave}
	return 1200.0 * math.Log2(freqHz/base.Frequency())
}
