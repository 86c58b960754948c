package engine

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tylerforesthauser/pianist-sub000/logging"
	"github.com/tylerforesthauser/pianist-sub000/model"
)

func TestMain(m *testing.M) {
	logging.SetGlobalLogger(nil)
	os.Exit(m.Run())
}

// twoPhraseComposition builds a small two-phrase piece: a four-note
// melodic figure stated at beat 0 and restated a fifth higher at beat
// 8, over a C-G, C-G-C accompaniment. transpose shifts every pitch.
func twoPhraseComposition(transpose int) *model.Composition {
	shift := func(p int) uint8 { return uint8(p + transpose) }

	melody := model.Track{Name: "melody"}
	for i, p := range []int{60, 62, 64, 65} {
		melody.Events = append(melody.Events, model.NoteEvent{
			StartBeat: float64(i), DurationBeat: 1, Pitches: []uint8{shift(p)}, Velocity: 90,
		})
	}
	for i, p := range []int{67, 69, 71, 72} {
		melody.Events = append(melody.Events, model.NoteEvent{
			StartBeat: float64(8 + i), DurationBeat: 1, Pitches: []uint8{shift(p)}, Velocity: 90,
		})
	}

	chord := func(start, dur float64, pitches ...int) model.NoteEvent {
		shifted := make([]uint8, len(pitches))
		for i, p := range pitches {
			shifted[i] = shift(p)
		}
		return model.NoteEvent{StartBeat: start, DurationBeat: dur, Pitches: shifted, Velocity: 70}
	}
	accomp := model.Track{Name: "accompaniment", Events: []model.Event{
		chord(0, 3, 60, 64, 67),
		chord(3, 1, 55, 59, 62),
		chord(8, 2, 60, 64, 67),
		chord(10, 1, 55, 59, 62),
		chord(11, 1, 60, 64, 67),
	}}

	return &model.Composition{
		Title:         "study",
		TempoBPM:      100,
		TimeSignature: model.TimeSignature{Numerator: 4, Denominator: 4},
		Tracks:        []model.Track{melody, accomp},
	}
}

func TestValidation(t *testing.T) {
	a := NewAnalyzer(nil)

	cases := []struct {
		name string
		comp *model.Composition
	}{
		{"nil composition", nil},
		{"no tracks", &model.Composition{}},
		{"no notes", &model.Composition{Tracks: []model.Track{
			{Events: []model.Event{model.SectionMarker{StartBeat: 0, Label: "A"}}},
		}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			analysis, err := a.Analyze(tc.comp)
			assert.Nil(t, analysis)
			assert.ErrorIs(t, err, ErrInvalidComposition)
		})
	}
}

func TestTwoPhraseAnalysis(t *testing.T) {
	analysis, err := NewAnalyzer(nil).Analyze(twoPhraseComposition(0))
	require.NoError(t, err)
	require.NotNil(t, analysis)

	assert := assert.New(t)

	if assert.Len(analysis.Motifs, 1) {
		m := analysis.Motifs[0]
		assert.Equal([]int{2, 2, 1}, m.Intervals)
		if assert.Len(m.Occurrences, 2) {
			assert.Equal(0.0, m.Occurrences[0].StartBeat)
			assert.Equal(0, m.Occurrences[0].TranspositionOffset)
			assert.Equal(8.0, m.Occurrences[1].StartBeat)
			assert.Equal(7, m.Occurrences[1].TranspositionOffset)
		}
	}

	if assert.Len(analysis.Phrases, 2) {
		assert.Equal(model.Phrase{StartBeat: 0, EndBeat: 4}, analysis.Phrases[0])
		assert.Equal(model.Phrase{StartBeat: 8, EndBeat: 12}, analysis.Phrases[1])
	}

	if assert.NotNil(analysis.Key) {
		assert.Equal("C major", analysis.Key.Name())
	}

	roots := make([]int, len(analysis.Chords))
	for i, c := range analysis.Chords {
		roots[i] = c.Root
	}
	assert.Equal([]int{0, 7, 0, 9, 7, 0}, roots)

	if assert.Len(analysis.Cadences, 2) {
		assert.Equal(model.CadenceHalf, analysis.Cadences[0].Kind)
		assert.Equal(3.0, analysis.Cadences[0].AtBeat)
		assert.Equal(model.CadenceAuthentic, analysis.Cadences[1].Kind)
		assert.Equal(11.0, analysis.Cadences[1].AtBeat)
	}
}

func TestTranspositionInvariance(t *testing.T) {
	a := NewAnalyzer(nil)

	base, err := a.Analyze(twoPhraseComposition(0))
	require.NoError(t, err)
	up, err := a.Analyze(twoPhraseComposition(3))
	require.NoError(t, err)

	assert := assert.New(t)

	// Intervalic structure is unchanged under transposition.
	assert.Equal(base.Motifs, up.Motifs)
	assert.Equal(base.Phrases, up.Phrases)

	// Absolute pitch content shifts with the transposition.
	require.NotNil(t, up.Key)
	assert.Equal((base.Key.Tonic+3)%12, up.Key.Tonic)
	assert.Equal(base.Key.Mode, up.Key.Mode)

	require.Equal(t, len(base.Chords), len(up.Chords))
	for i := range base.Chords {
		assert.Equal((base.Chords[i].Root+3)%12, up.Chords[i].Root)
		assert.Equal(base.Chords[i].Quality, up.Chords[i].Quality)
	}
	assert.Equal(base.Cadences, up.Cadences)
}

func TestAnalysisIsDeterministic(t *testing.T) {
	a := NewAnalyzer(nil)
	comp := twoPhraseComposition(0)

	first, err := a.Analyze(comp)
	require.NoError(t, err)
	second, err := a.Analyze(comp)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestAnalyzeWithPreparedContext(t *testing.T) {
	a := NewAnalyzer(nil)
	comp := twoPhraseComposition(0)
	ctx := NewAnalysisContext(comp)

	direct, err := a.Analyze(comp)
	require.NoError(t, err)
	prepared, err := a.AnalyzeWithContext(comp, ctx)
	require.NoError(t, err)

	assert.Equal(t, direct, prepared)
}

func TestSingleChordIsDegraded(t *testing.T) {
	comp := &model.Composition{Tracks: []model.Track{{Events: []model.Event{
		model.NoteEvent{StartBeat: 0, DurationBeat: 1, Pitches: []uint8{60, 64, 67}},
	}}}}

	analysis, err := NewAnalyzer(nil).Analyze(comp)
	require.NoError(t, err)

	assert.True(t, analysis.HasIssue(model.IssueDegradedQuality))
}

func TestLongScaleCompletes(t *testing.T) {
	// A long stream of eighth-note scales exercises every stage on a
	// realistically sized input.
	analysis, err := NewAnalyzer(nil).Analyze(scaleComposition(1024))
	require.NoError(t, err)
	require.NotNil(t, analysis)

	assert.NotEmpty(t, analysis.Motifs)
	assert.NotNil(t, analysis.Key)
}

// scaleComposition builds n eighth notes of cycling scale degrees in
// one unbroken stream.
func scaleComposition(n int) *model.Composition {
	degrees := []int{0, 2, 4, 5, 7, 9, 11, 12}
	track := model.Track{Name: "scale"}
	for i := 0; i < n; i++ {
		track.Events = append(track.Events, model.NoteEvent{
			StartBeat: float64(i) * 0.5, DurationBeat: 0.5,
			Pitches: []uint8{uint8(60 + degrees[i%len(degrees)])}, Velocity: 80,
		})
	}
	return &model.Composition{Title: "scaling", Tracks: []model.Track{track}}
}

func TestScalingIsNearLinear(t *testing.T) {
	if testing.Short() {
		t.Skip("timing-sensitive")
	}
	a := NewAnalyzer(nil)

	measure := func(n int) time.Duration {
		comp := scaleComposition(n)
		start := time.Now()
		_, err := a.Analyze(comp)
		require.NoError(t, err)
		return time.Since(start)
	}
	measure(1000) // warm up

	small := measure(1000)
	large := measure(4000)

	// Quadratic growth would put the ratio near 16; allow wide margin
	// for scheduler noise on short runs.
	limit := 10*small + 50*time.Millisecond
	assert.Less(t, large, limit, "4x input took %v vs %v for 1x", large, small)
}

func TestNilConfigUsesDefaults(t *testing.T) {
	a := NewAnalyzer(nil)
	assert.Equal(t, DefaultConfig(), a.config)
}
