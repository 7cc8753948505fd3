package detect

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/quaverlabs/quaver/pitch"
)

const testSampleRate = 44100

func sineFrame(freq float64, n int, amplitude float64) []float64 {
	frame := make([]float64, n)
	for i := range frame {
		frame[i] = amplitude * math.Sin(2.0*math.Pi*freq*float64(i)/testSampleRate)
	}
	return frame
}

func TestEstimateDetectsPureTones(t *testing.T) {
	assert := assert.New(t)
	d := NewDetector(testSampleRate)
	ts := time.Now()

	for _, freq := range []float64{196.0, 293.66, 440.0, 659.26, 1318.51} {
		est := d.Estimate(sineFrame(freq, 2048, 0.5), ts)
		assert.True(est.Pitched, "freq %v", freq)
		assert.InDelta(freq, est.Frequency, freq*0.01, "freq %v", freq)
		assert.Greater(est.Confidence, 0.8, "freq %v", freq)
	}
}

func TestEstimateNamesDetectedPitch(t *testing.T) {
	assert := assert.New(t)
	d := NewDetector(testSampleRate)

	est := d.Estimate(sineFrame(440.0, 2048, 0.5), time.Now())
	assert.True(est.Pitched)

	p, err := pitch.FromFrequency(est.Frequency)
	assert.NoError(err)
	assert.Equal("A4", p.String())
	assert.InDelta(0.0, p.Cents, 5.0)
}

func TestEstimateSilentFrameIsUnpitched(t *testing.T) {
	assert := assert.New(t)
	d := NewDetector(testSampleRate)

	est := d.Estimate(make([]float64, 2048), time.Now())
	assert.False(est.Pitched)
	assert.Zero(est.Frequency)

	est = d.Estimate(sineFrame(440.0, 2048, 0.001), time.Now())
	assert.False(est.Pitched, "sub-threshold amplitude should be silence")
}

func TestEstimateEmptyAndShortFrames(t *testing.T) {
	assert := assert.New(t)
	d := NewDetector(testSampleRate)

	est := d.Estimate(nil, time.Now())
	assert.False(est.Pitched)

	// 128 samples cannot hold one period of G3 at 44.1kHz.
	est = d.Estimate(sineFrame(196.0, 128, 0.5), time.Now())
	assert.False(est.Pitched)
}

func TestEstimateOutOfRangeIsUnpitched(t *testing.T) {
	assert := assert.New(t)
	d := NewDetector(testSampleRate)

	// 100 Hz is below the violin's open G.
	est := d.Estimate(sineFrame(100.0, 4096, 0.5), time.Now())
	assert.False(est.Pitched)
}

func TestEstimateToleratesClippedFrames(t *testing.T) {
	assert := assert.New(t)
	d := NewDetector(testSampleRate)

	frame := sineFrame(440.0, 2048, 2.0)
	for i, v := range frame {
		frame[i] = math.Max(-1.0, math.Min(1.0, v))
	}

	est := d.Estimate(frame, time.Now())
	assert.True(est.Pitched)
	assert.InDelta(440.0, est.Frequency, 5.0)
}

func TestEstimateCarriesTimestamp(t *testing.T) {
	d := NewDetector(testSampleRate)
	ts := time.Unix(1000, 0)

	est := d.Estimate(sineFrame(440.0, 2048, 0.5), ts)
	assert.Equal(t, ts, est.Timestamp)
}

func TestDefaultParamsRange(t *testing.T) {
	p := DefaultParams(testSampleRate)
	assert.InDelta(t, 196.0, p.MinFreq, 0.1)
	assert.InDelta(t, 2637.0, p.MaxFreq, 0.1)
}
