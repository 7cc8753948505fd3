package config

// FeedbackLevel selects the matching strictness profile. It only changes the
// pitch tolerance; detection itself is unaffected.
type FeedbackLevel string

const (
	LevelBeginner     FeedbackLevel = "beginner"
	LevelIntermediate FeedbackLevel = "intermediate"
	LevelAdvanced     FeedbackLevel = "advanced"
)

// Matching tolerances per feedback level, in cents.
const (
	BeginnerToleranceCents     = 30.0
	IntermediateToleranceCents = 20.0
	AdvancedToleranceCents     = 10.0
)

// PracticeConfig is the read-only configuration a practice session is started
// with. The settings collaborator supplies it once at session start.
type PracticeConfig struct {
	FeedbackLevel FeedbackLevel `json:"feedback_level"`

	// Number of consecutive supporting estimates required before a note is
	// declared matched (or consistently wrong). Rejects transient
	// mis-detections between frames.
	DebounceCount int `json:"debounce_count"`

	// Note duration windows are divided by this factor. 1.0 plays the
	// exercise as notated; values below 1.0 allow more time per note.
	TempoFactor float64 `json:"tempo_factor"`

	// Estimates below this detector confidence never count toward a run.
	MinConfidence float64 `json:"min_confidence"`

	// Zen mode suppresses feedback presentation only; matching semantics
	// are identical. Carried on emitted events as a rendering hint.
	ZenMode bool `json:"zen_mode"`
}

// DefaultPracticeConfig returns the configuration used when the settings
// collaborator supplies nothing.
func DefaultPracticeConfig() PracticeConfig {
	return PracticeConfig{
		FeedbackLevel: LevelIntermediate,
		DebounceCount: 3,
		TempoFactor:   1.0,
		MinConfidence: 0.5,
	}
}

// ToleranceCents resolves the matching tolerance for the active feedback
// level. Unknown levels fall back to the beginner tolerance, the forgiving
// choice.
func (c PracticeConfig) ToleranceCents() float64 {
	switch c.FeedbackLevel {
	case LevelAdvanced:
		return AdvancedToleranceCents
	case LevelIntermediate:
		return IntermediateToleranceCents
	default:
		return BeginnerToleranceCents
	}
}

// Sanitized clamps the configuration into usable bounds: tempo factor in
// [0.25, 2.0], debounce at least 1, confidence in [0, 1].
func (c PracticeConfig) Sanitized() PracticeConfig {
	out := c
	if out.DebounceCount < 1 {
		out.DebounceCount = DefaultPracticeConfig().DebounceCount
	}
	if out.TempoFactor < 0.25 {
		out.TempoFactor = 0.25
	} else if out.TempoFactor > 2.0 {
		out.TempoFactor = 2.0
	}
	if out.MinConfidence < 0 {
		out.MinConfidence = 0
	} else if out.MinConfidence > 1 {
		out.MinConfidence = 1
	}
	return out
}
