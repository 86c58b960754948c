package rhythm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tylerforesthauser/pianist-sub000/model"
)

// onsetsEvery builds count single notes spaced period beats apart.
func onsetsEvery(period float64, count int) []model.NoteEvent {
	notes := make([]model.NoteEvent, count)
	for i := range notes {
		notes[i] = model.NoteEvent{
			StartBeat:    float64(i) * period,
			DurationBeat: 0.5,
			Pitches:      []uint8{60},
		}
	}
	return notes
}

func TestHalfNotePulse(t *testing.T) {
	profile := NewProfiler().Profile(onsetsEvery(2.0, 16))

	if assert.NotNil(t, profile) {
		assert.Equal(t, 2.0, profile.PeriodBeats)
		assert.Greater(t, profile.Strength, 0.5)
	}
}

func TestQuarterNotePulse(t *testing.T) {
	profile := NewProfiler().Profile(onsetsEvery(1.0, 16))

	if assert.NotNil(t, profile) {
		assert.Equal(t, 1.0, profile.PeriodBeats)
	}
}

func TestTooShortForProfile(t *testing.T) {
	assert.Nil(t, NewProfiler().Profile(onsetsEvery(0.25, 3)))
}

func TestUniformDensityHasNoPeriod(t *testing.T) {
	// One onset in every bin leaves nothing periodic after the mean is
	// removed.
	assert.Nil(t, NewProfiler().Profile(onsetsEvery(0.25, 16)))
}

func TestEmptyInput(t *testing.T) {
	assert.Nil(t, NewProfiler().Profile(nil))
}

func TestZeroResolutionFallsBackToDefault(t *testing.T) {
	p := NewProfilerWithParams(Params{ResolutionBeats: 0, MinPeriodBeats: 0.5})

	profile := p.Profile(onsetsEvery(2.0, 16))

	if assert.NotNil(t, profile) {
		assert.Equal(t, 2.0, profile.PeriodBeats)
	}
}
