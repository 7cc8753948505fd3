package detect

import (
	"math"
	"time"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/floats"

	"github.com/quaverlabs/quaver/logging"
)

// Violin playable range, open G string up to the E7 region at the top of the
// fingerboard. Frequencies outside this band are treated as non-pitches.
const (
	DefaultMinFreq = 196.0
	DefaultMaxFreq = 2637.0
)

// Estimate is the per-frame output of the detector. Pitched is false when no
// usable pitch was found this frame (silence, noise, out-of-range); the
// frequency is then zero and must be ignored.
type Estimate struct {
	Frequency  float64   `json:"frequency"`  // Fundamental in Hz, 0 when unpitched
	Pitched    bool      `json:"pitched"`    // Whether a pitch was detected
	Confidence float64   `json:"confidence"` // Normalized peak strength (0-1)
	Clarity    float64   `json:"clarity"`    // Peak prominence over the noise floor
	Timestamp  time.Time `json:"-"`          // Capture instant of the source frame
}

// Params contains parameters for per-frame pitch detection
type Params struct {
	SampleRate int `json:"sample_rate"`

	// Frequency range constraints
	MinFreq float64 `json:"min_freq"` // Minimum frequency (Hz)
	MaxFreq float64 `json:"max_freq"` // Maximum frequency (Hz)

	// Quality thresholds
	PeakThreshold float64 `json:"peak_threshold"` // Minimum normalized peak to accept a pitch
	SilenceRMS    float64 `json:"silence_rms"`    // Frames below this RMS are silence
}

// DefaultParams returns detection parameters tuned for violin practice input.
func DefaultParams(sampleRate int) Params {
	return Params{
		SampleRate:    sampleRate,
		MinFreq:       DefaultMinFreq,
		MaxFreq:       DefaultMaxFreq,
		PeakThreshold: 0.80,
		SilenceRMS:    0.01,
	}
}

// Detector estimates the fundamental frequency of single audio frames using
// the normalized autocorrelation (NSDF) of the frame, computed through the
// frequency domain.
//
// References:
// - McLeod, P., Wyvill, G. (2005). "A smarter way to find pitch"
// - Rabiner, L.R. (1977). "On the use of autocorrelation analysis for pitch detection"
//
// The detector keeps no cross-frame state: temporal smoothing and hysteresis
// belong to the consuming state machines, which rely on estimates arriving in
// capture order.
type Detector struct {
	params Params

	// Scratch buffers reused across frames
	padded []float64
	nsdf   []float64
}

// NewDetector creates a detector with default parameters for the sample rate.
func NewDetector(sampleRate int) *Detector {
	return NewDetectorWithParams(DefaultParams(sampleRate))
}

// NewDetectorWithParams creates a detector with custom parameters.
func NewDetectorWithParams(params Params) *Detector {
	if params.MinFreq <= 0 {
		params.MinFreq = DefaultMinFreq
	}
	if params.MaxFreq <= params.MinFreq {
		params.MaxFreq = DefaultMaxFreq
	}
	logging.Debug("pitch detector created", logging.Fields{
		"sample_rate": params.SampleRate,
		"min_freq":    params.MinFreq,
		"max_freq":    params.MaxFreq,
	})
	return &Detector{params: params}
}

// Params returns the active detection parameters.
func (d *Detector) Params() Params {
	return d.params
}

// Estimate analyzes one frame of mono samples captured at ts. Silent frames,
// clipped garbage and frames too short to hold one period of the lowest
// playable note all produce an unpitched estimate, never an error.
func (d *Detector) Estimate(frame []float64, ts time.Time) Estimate {
	unpitched := Estimate{Timestamp: ts}

	if len(frame) == 0 {
		return unpitched
	}

	rms := math.Sqrt(floats.Dot(frame, frame) / float64(len(frame)))
	if rms < d.params.SilenceRMS || math.IsNaN(rms) {
		return unpitched
	}

	minLag := int(float64(d.params.SampleRate) / d.params.MaxFreq)
	maxLag := int(math.Ceil(float64(d.params.SampleRate) / d.params.MinFreq))
	if minLag < 2 {
		minLag = 2
	}
	// The frame must hold at least one full period of the lowest playable
	// note with headroom for the correlation window.
	if maxLag >= len(frame)/2 {
		return unpitched
	}

	nsdf := d.computeNSDF(frame)

	lag, peak := pickPeak(nsdf, minLag, maxLag)
	if lag < 0 || peak < d.params.PeakThreshold {
		return Estimate{Confidence: clampUnit(peak), Timestamp: ts}
	}

	refined := parabolicInterpolation(nsdf, lag)
	frequency := float64(d.params.SampleRate) / refined
	if frequency < d.params.MinFreq || frequency > d.params.MaxFreq {
		return Estimate{Confidence: clampUnit(peak), Timestamp: ts}
	}

	return Estimate{
		Frequency:  frequency,
		Pitched:    true,
		Confidence: clampUnit(peak),
		Clarity:    clarity(nsdf, lag, minLag, maxLag),
		Timestamp:  ts,
	}
}

// computeNSDF computes the normalized square difference function of the frame.
// The raw autocorrelation is obtained through the frequency domain
// (Wiener-Khinchin), then normalized by the running frame energy so the
// result lies in [-1, 1] regardless of signal level.
func (d *Detector) computeNSDF(frame []float64) []float64 {
	n := len(frame)
	fftSize := nextPowerOf2(2 * n)

	if len(d.padded) != fftSize {
		d.padded = make([]float64, fftSize)
	} else {
		for i := range d.padded {
			d.padded[i] = 0
		}
	}
	copy(d.padded, frame)

	spectrum := fft.FFTReal(d.padded)
	for i, c := range spectrum {
		re := real(c)
		im := imag(c)
		spectrum[i] = complex(re*re+im*im, 0)
	}
	inverse := fft.IFFT(spectrum)

	autocorr := make([]float64, n)
	for i := range autocorr {
		autocorr[i] = real(inverse[i])
	}

	// m[tau] = sum(x[j]^2 + x[j+tau]^2) over the overlap, computed
	// incrementally from the total energy.
	if len(d.nsdf) != n {
		d.nsdf = make([]float64, n)
	}
	energy := autocorr[0] // r[0] is the total frame energy
	m := 2.0 * energy
	for tau := 0; tau < n; tau++ {
		if tau > 0 {
			head := frame[tau-1]
			tail := frame[n-tau]
			m -= head*head + tail*tail
		}
		if m > 1e-12 {
			d.nsdf[tau] = 2.0 * autocorr[tau] / m
		} else {
			d.nsdf[tau] = 0
		}
	}

	return d.nsdf
}

// pickPeak finds the strongest local maximum of the NSDF between minLag and
// maxLag, skipping the zero-lag lobe by waiting for the first negative-going
// crossing. Returns lag -1 when no peak exists.
func pickPeak(nsdf []float64, minLag, maxLag int) (int, float64) {
	maxLag = min(maxLag, len(nsdf)-2)

	// Skip past the zero-lag lobe: scan from the first negative-going
	// crossing after lag 0, or from minLag if the lobe dies out earlier.
	firstNeg := 1
	for firstNeg < maxLag && nsdf[firstNeg] > 0 {
		firstNeg++
	}
	start := max(minLag, firstNeg)

	bestLag := -1
	bestVal := 0.0
	for tau := start; tau <= maxLag; tau++ {
		if nsdf[tau] > nsdf[tau-1] && nsdf[tau] >= nsdf[tau+1] && nsdf[tau] > bestVal {
			bestLag = tau
			bestVal = nsdf[tau]
		}
	}

	// Pure periodic signals can keep the NSDF positive across the whole
	// range; fall back to the plain maximum inside the window.
	if bestLag < 0 {
		for tau := minLag; tau <= maxLag; tau++ {
			if nsdf[tau] > bestVal {
				bestLag = tau
				bestVal = nsdf[tau]
			}
		}
	}

	return bestLag, bestVal
}

// parabolicInterpolation refines a peak location to sub-sample accuracy.
func parabolicInterpolation(data []float64, peakIdx int) float64 {
	if peakIdx <= 0 || peakIdx >= len(data)-1 {
		return float64(peakIdx)
	}

	y1 := data[peakIdx-1]
	y2 := data[peakIdx]
	y3 := data[peakIdx+1]

	a := (y1 - 2*y2 + y3) / 2
	b := (y3 - y1) / 2
	if a == 0 {
		return float64(peakIdx)
	}

	return float64(peakIdx) - b/(2*a)
}

// clarity measures how much the chosen peak stands out over the rest of the
// lag window.
func clarity(nsdf []float64, peakIdx, minLag, maxLag int) float64 {
	maxLag = min(maxLag, len(nsdf)-1)

	second := 0.0
	for tau := minLag; tau <= maxLag; tau++ {
		if tau != peakIdx && nsdf[tau] > second {
			second = nsdf[tau]
		}
	}

	peak := nsdf[peakIdx]
	if peak <= 0 {
		return 0
	}
	return clampUnit((peak - second) / peak)
}

func clampUnit(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// nextPowerOf2 returns the next power of 2 greater than or equal to n
func nextPowerOf2(n int) int {
	if n <= 0 {
		return 1
	}
	power := 1
	for power < n {
		power <<= 1
	}
	return power
}
