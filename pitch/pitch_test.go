package pitch

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeAccidentalRecognizedSet(t *testing.T) {
	assert := assert.New(t)

	sharps := []any{"#", "sharp", "##", "double-sharp", 1, 2, 1.0, 2.0}
	for _, in := range sharps {
		got, err := NormalizeAccidental(in)
		assert.NoError(err)
		assert.Equal(Sharp, got, "input %v", in)
	}

	flats := []any{"b", "flat", "bb", "double-flat", -1, -2, -1.0, -2.0}
	for _, in := range flats {
		got, err := NormalizeAccidental(in)
		assert.NoError(err)
		assert.Equal(Flat, got, "input %v", in)
	}

	naturals := []any{"", "natural", 0, 0.0, nil}
	for _, in := range naturals {
		got, err := NormalizeAccidental(in)
		assert.NoError(err)
		assert.Equal(Natural, got, "input %v", in)
	}
}

func TestNormalizeAccidentalRejectsUnknownInput(t *testing.T) {
	assert := assert.New(t)

	for _, in := range []any{"x", "sharpish", 3, -3, 0.5, true, []string{"#"}} {
		_, err := NormalizeAccidental(in)
		assert.Error(err, "input %v", in)
		var uerr *UnsupportedAccidentalError
		assert.ErrorAs(err, &uerr)
	}
}

func TestParse(t *testing.T) {
	assert := assert.New(t)

	p, err := Parse("G#4")
	assert.NoError(err)
	assert.Equal(CanonicalPitch{Step: "G", Accidental: Sharp, Octave: 4}, p)

	p, err = Parse("Bb3")
	assert.NoError(err)
	assert.Equal(CanonicalPitch{Step: "B", Accidental: Flat, Octave: 3}, p)

	p, err = Parse("C4")
	assert.NoError(err)
	assert.Equal(CanonicalPitch{Step: "C", Accidental: Natural, Octave: 4}, p)

	for _, bad := range []string{"", "H4", "G", "G#", "C#x", "4C"} {
		_, err := Parse(bad)
		assert.Error(err, "input %q", bad)
		var perr *InvalidPitchStringError
		assert.ErrorAs(err, &perr)
	}
}

func TestFromFrequencyRoundTrip(t *testing.T) {
	assert := assert.New(t)

	cases := []struct {
		freq   float64
		step   string
		acc    Accidental
		octave int
	}{
		{440.0, "A", Natural, 4},
		{466.1638, "A", Sharp, 4},
		{261.6256, "C", Natural, 4},
		{195.9977, "G", Natural, 3},
		{659.2551, "E", Natural, 5},
		{2637.0205, "E", Natural, 7},
	}

	for _, tc := range cases {
		p, err := FromFrequency(tc.freq)
		assert.NoError(err)
		assert.Equal(tc.step, p.Step, "freq %v", tc.freq)
		assert.Equal(tc.acc, p.Accidental, "freq %v", tc.freq)
		assert.Equal(tc.octave, p.Octave, "freq %v", tc.freq)
		assert.InDelta(0.0, p.Cents, 1.0, "freq %v", tc.freq)
	}
}

func TestFromFrequencyRejectsNonPositive(t *testing.T) {
	for _, bad := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, err := FromFrequency(bad)
		assert.Error(t, err, "freq %v", bad)
	}
}

func TestFromFrequencyQuarterToneBoundaryIsDeterministic(t *testing.T) {
	assert := assert.New(t)

	// Exactly halfway between A4 and A#4: 440 * 2^(0.5/12).
	boundary := 440.0 * math.Pow(2.0, 0.5/12.0)

	first, err := FromFrequency(boundary)
	assert.NoError(err)
	for i := 0; i < 50; i++ {
		p, err := FromFrequency(boundary)
		assert.NoError(err)
		assert.Equal(first, p)
	}
}

func TestFrequencyOfCanonicalPitches(t *testing.T) {
	assert := assert.New(t)

	a4 := CanonicalPitch{Step: "A", Octave: 4}
	assert.InDelta(440.0, a4.Frequency(), 1e-9)

	g3 := CanonicalPitch{Step: "G", Octave: 3}
	assert.InDelta(195.9977, g3.Frequency(), 1e-3)

	// Cents shift the frequency off the lattice.
	sharpA4 := CanonicalPitch{Step: "A", Octave: 4, Cents: 50}
	assert.Greater(sharpA4.Frequency(), 440.0)
}

func TestSameNoteIsEnharmonic(t *testing.T) {
	assert := assert.New(t)

	gSharp := CanonicalPitch{Step: "G", Accidental: Sharp, Octave: 4}
	aFlat := CanonicalPitch{Step: "A", Accidental: Flat, Octave: 4}
	assert.True(gSharp.SameNote(aFlat))
	assert.False(gSharp.SameNote(CanonicalPitch{Step: "A", Octave: 4}))
}

func TestParseStringIdempotence(t *testing.T) {
	assert := assert.New(t)

	for _, name := range []string{"G3", "D4", "A4", "E5", "G#4", "Bb3"} {
		p, err := Parse(name)
		assert.NoError(err)
		again, err := Parse(p.String())
		assert.NoError(err)
		assert.Equal(p, again)
	}
}

func TestCentsBetween(t *testing.T) {
	assert := assert.New(t)

	a4 := CanonicalPitch{Step: "A", Octave: 4}
	assert.InDelta(0.0, CentsBetween(a4, 440.0), 1e-9)
	assert.InDelta(100.0, CentsBetween(a4, 440.0*math.Pow(2, 1.0/12.0)), 1e-6)
	assert.Less(CentsBetween(a4, 430.0), 0.0)
}
