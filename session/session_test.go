package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func event(idx, measure int, kind OutcomeKind, cents float64) Event {
	return Event{
		NoteIndex:    idx,
		MeasureIndex: measure,
		Outcome:      Outcome{Kind: kind, AccuracyCents: cents},
		ElapsedMs:    500,
	}
}

func TestAccuracyMatchesIndependentReplay(t *testing.T) {
	assert := assert.New(t)

	agg := NewAggregator("ex-1", time.Now())
	events := []Event{
		event(0, 0, Matched, 2.0),
		event(1, 0, TooSharp, 0),
		event(2, 1, Matched, -3.0),
		event(3, 1, Skipped, 0),
		event(4, 2, Timeout, 0),
		event(5, 2, Matched, 1.0),
	}
	for _, ev := range events {
		assert.NoError(agg.Record(ev))
	}

	// Replay the log independently: skipped notes are not attempts.
	matched, attempted := 0, 0
	for _, ev := range events {
		if ev.Outcome.Kind == Skipped {
			continue
		}
		attempted++
		if ev.Outcome.Kind == Matched {
			matched++
		}
	}

	assert.InDelta(float64(matched)/float64(attempted), agg.Accuracy(), 1e-12)
	assert.Equal(3, matched)
	assert.Equal(5, attempted)
}

func TestStreakTracking(t *testing.T) {
	assert := assert.New(t)

	agg := NewAggregator("ex-1", time.Now())
	kinds := []OutcomeKind{Matched, Matched, WrongPitch, Matched, Matched, Matched, Timeout}
	for i, k := range kinds {
		assert.NoError(agg.Record(event(i, 0, k, 0)))
	}

	assert.Equal(0, agg.Streak())
	assert.Equal(3, agg.BestStreak())
}

func TestFinalizeSummary(t *testing.T) {
	assert := assert.New(t)

	started := time.Unix(1000, 0)
	ended := started.Add(30 * time.Second)

	agg := NewAggregator("ex-1", started)
	assert.NoError(agg.Record(event(0, 0, Matched, 4.0)))
	assert.NoError(agg.Record(event(1, 0, Matched, -2.0)))
	assert.NoError(agg.Record(event(2, 1, WrongPitch, 0)))

	summary := agg.Finalize(ended, true)

	assert.Equal("ex-1", summary.ExerciseID)
	assert.Equal(agg.ID(), summary.ID)
	assert.True(summary.Completed)
	assert.Equal(started, summary.StartedAt)
	assert.Equal(ended, summary.EndedAt)
	assert.Len(summary.Events, 3)
	assert.Equal(2, summary.MatchedCount)
	assert.Equal(3, summary.Attempted)
	assert.InDelta(2.0/3.0, summary.Accuracy, 1e-12)
	assert.InDelta(1.0, summary.MeanAccuracyCents, 1e-12)
	assert.Equal(2, summary.BestStreak)

	assert.Len(summary.PerMeasure, 2)
	assert.Equal(MeasureStats{Measure: 0, Attempted: 2, Matched: 2}, summary.PerMeasure[0])
	assert.Equal(MeasureStats{Measure: 1, Attempted: 1, Matched: 0}, summary.PerMeasure[1])
}

func TestRecordAfterFinalizeIsRejected(t *testing.T) {
	assert := assert.New(t)

	agg := NewAggregator("ex-1", time.Now())
	assert.NoError(agg.Record(event(0, 0, Matched, 0)))
	agg.Finalize(time.Now(), false)

	err := agg.Record(event(1, 0, Matched, 0))
	assert.Error(err)
	assert.Equal(1, agg.EventCount())
}

func TestEmptySessionAccuracy(t *testing.T) {
	agg := NewAggregator("ex-1", time.Now())
	assert.Zero(t, agg.Accuracy())

	summary := agg.Finalize(time.Now(), false)
	assert.Zero(t, summary.Accuracy)
	assert.Empty(t, summary.PerMeasure)
}
