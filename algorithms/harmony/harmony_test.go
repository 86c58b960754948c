package harmony

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tylerforesthauser/pianist-sub000/model"
)

// triad builds one block chord sounding for a quarter note.
func triad(startBeat float64, pitches ...uint8) model.NoteEvent {
	return model.NoteEvent{
		StartBeat:    startBeat,
		DurationBeat: 1.0,
		Pitches:      pitches,
		Velocity:     80,
	}
}

var (
	cMajor = []uint8{60, 64, 67} // C E G
	fMajor = []uint8{53, 57, 60} // F A C
	gMajor = []uint8{55, 59, 62} // G B D
	aMinor = []uint8{57, 60, 64} // A C E
)

func TestKnownProgression(t *testing.T) {
	// Root-position C, F, G, C at beats 0..3 must yield exactly four
	// chords, a C major key, and an authentic cadence into the final
	// tonic.
	notes := []model.NoteEvent{
		triad(0, cMajor...),
		triad(1, fMajor...),
		triad(2, gMajor...),
		triad(3, cMajor...),
	}
	phrases := []model.Phrase{{StartBeat: 0, EndBeat: 4}}

	res := NewAnalyzer().Analyze(notes, phrases)

	assert := assert.New(t)
	assert.Len(res.Chords, 4)
	roots := []int{}
	for _, c := range res.Chords {
		roots = append(roots, c.Root)
		assert.Equal(model.QualityMajor, c.Quality)
	}
	assert.Equal([]int{0, 5, 7, 0}, roots)

	if assert.NotNil(res.Key) {
		assert.Equal(0, res.Key.Tonic)
		assert.Equal(model.ModeMajor, res.Key.Mode)
	}

	assert.Equal([]string{"I", "IV", "V", "I"}, []string{
		res.Chords[0].RomanNumeral,
		res.Chords[1].RomanNumeral,
		res.Chords[2].RomanNumeral,
		res.Chords[3].RomanNumeral,
	})

	if assert.Len(res.Cadences, 1) {
		assert.Equal(model.CadenceAuthentic, res.Cadences[0].Kind)
		assert.Equal(3.0, res.Cadences[0].AtBeat)
	}
}

func TestAdjacentIdenticalSlicesMerge(t *testing.T) {
	notes := []model.NoteEvent{
		triad(0, cMajor...),
		triad(1, cMajor...),
	}

	res := NewAnalyzer().Analyze(notes, nil)

	assert := assert.New(t)
	assert.Len(res.Chords, 1)
	assert.Equal(0.0, res.Chords[0].StartBeat)
	assert.Equal(2.0, res.Chords[0].DurationBeat)
}

func TestSparseSlicesAreOmitted(t *testing.T) {
	// A lone pitch carries no triadic evidence, so no chord is
	// guessed for it.
	notes := []model.NoteEvent{
		{StartBeat: 0, DurationBeat: 1, Pitches: []uint8{60}},
	}

	res := NewAnalyzer().Analyze(notes, nil)
	assert.Empty(t, res.Chords)
}

func TestHalfCadence(t *testing.T) {
	notes := []model.NoteEvent{
		triad(0, cMajor...),
		triad(1, fMajor...),
		triad(2, cMajor...),
		triad(3, gMajor...),
	}
	phrases := []model.Phrase{{StartBeat: 0, EndBeat: 4}}

	res := NewAnalyzer().Analyze(notes, phrases)

	if assert.Len(t, res.Cadences, 1) {
		assert.Equal(t, model.CadenceHalf, res.Cadences[0].Kind)
	}
}

func TestPlagalCadence(t *testing.T) {
	notes := []model.NoteEvent{
		triad(0, cMajor...),
		triad(1, gMajor...),
		triad(2, cMajor...),
		triad(3, fMajor...),
		triad(4, cMajor...),
	}
	phrases := []model.Phrase{{StartBeat: 0, EndBeat: 5}}

	res := NewAnalyzer().Analyze(notes, phrases)

	if assert.Len(t, res.Cadences, 1) {
		assert.Equal(t, model.CadencePlagal, res.Cadences[0].Kind)
		assert.Equal(t, 4.0, res.Cadences[0].AtBeat)
	}
}

func TestDeceptiveCadence(t *testing.T) {
	notes := []model.NoteEvent{
		triad(0, cMajor...),
		triad(1, fMajor...),
		triad(2, gMajor...),
		triad(3, aMinor...),
	}
	phrases := []model.Phrase{{StartBeat: 0, EndBeat: 4}}

	res := NewAnalyzer().Analyze(notes, phrases)

	if assert.Len(t, res.Cadences, 1) {
		assert.Equal(t, model.CadenceDeceptive, res.Cadences[0].Kind)
	}
}

func TestSeventhChordDetection(t *testing.T) {
	notes := []model.NoteEvent{
		triad(0, 55, 59, 62, 65), // G B D F
	}

	res := NewAnalyzer().Analyze(notes, nil)

	if assert.Len(t, res.Chords, 1) {
		assert.Equal(t, 7, res.Chords[0].Root)
		assert.Equal(t, model.QualityDominant7, res.Chords[0].Quality)
	}
}

func TestChromaticClusterYieldsNoKey(t *testing.T) {
	// Every pitch class weighted equally correlates with nothing.
	notes := make([]model.NoteEvent, 12)
	for i := range notes {
		notes[i] = model.NoteEvent{
			StartBeat:    float64(i),
			DurationBeat: 1,
			Pitches:      []uint8{uint8(60 + i)},
		}
	}

	res := NewAnalyzer().Analyze(notes, nil)

	assert.Nil(t, res.Key)
	assert.Empty(t, res.Cadences)
}

func TestRomanNumerals(t *testing.T) {
	cMajorKey := model.Key{Tonic: 0, Mode: model.ModeMajor}
	aMinorKey := model.Key{Tonic: 9, Mode: model.ModeMinor}

	cases := []struct {
		name    string
		root    int
		quality model.ChordQuality
		key     model.Key
		want    string
	}{
		{"dominant in major", 7, model.QualityMajor, cMajorKey, "V"},
		{"supertonic minor", 2, model.QualityMinor, cMajorKey, "ii"},
		{"leading tone diminished", 11, model.QualityDiminished, cMajorKey, "vii°"},
		{"dominant seventh", 7, model.QualityDominant7, cMajorKey, "V7"},
		{"tonic minor", 9, model.QualityMinor, aMinorKey, "i"},
		{"submediant in minor", 5, model.QualityMajor, aMinorKey, "VI"},
		{"subtonic in minor", 7, model.QualityMajor, aMinorKey, "VII"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, RomanNumeral(tc.root, tc.quality, tc.key))
		})
	}
}

func TestEmptyStream(t *testing.T) {
	res := NewAnalyzer().Analyze(nil, nil)
	assert.Empty(t, res.Chords)
	assert.Nil(t, res.Key)
}
