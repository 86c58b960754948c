// Package harmony slices the merged note stream into vertical
// sonorities, matches them against a fixed chord template library,
// estimates a global key by profile correlation, and detects cadences
// at phrase boundaries.
package harmony

import (
	"sort"

	"github.com/tylerforesthauser/pianist-sub000/model"
)

// beatEpsilon absorbs floating-point jitter when comparing slice
// boundaries coming from different tracks.
const beatEpsilon = 1e-6

// Params contains the heuristic constants of harmonic analysis.
type Params struct {
	// MinMatchScore is the minimum normalized template score for a
	// slice to yield a Chord. Slices below it are omitted rather than
	// guessed at.
	MinMatchScore float64 `json:"min_match_score"`

	// MinSlicePitchClasses is the smallest pitch-class set worth
	// matching. Single sustained pitches carry no triadic evidence.
	MinSlicePitchClasses int `json:"min_slice_pitch_classes"`

	// KeyProfile selects the correlation profile: "krumhansl" or
	// "temperley".
	KeyProfile string `json:"key_profile"`

	// MinKeyConfidence is the minimum profile correlation for a key to
	// be reported. Below it the key is nil and roman numerals stay
	// empty.
	MinKeyConfidence float64 `json:"min_key_confidence"`
}

// DefaultParams returns sensible defaults for harmonic analysis.
func DefaultParams() Params {
	return Params{
		MinMatchScore:        0.5,
		MinSlicePitchClasses: 2,
		KeyProfile:           ProfileKrumhansl,
		MinKeyConfidence:     0.5,
	}
}

// Result contains the full harmonic reading of a composition.
type Result struct {
	Chords   []model.Chord   `json:"chords"`
	Key      *model.Key      `json:"key,omitempty"`
	Cadences []model.Cadence `json:"cadences"`
}

// template is one entry of the fixed chord library, expressed as
// semitone intervals above the root.
type template struct {
	quality   model.ChordQuality
	intervals []int
}

// The library covers the four triad qualities and their common seventh
// extensions. Triads come first so that equal scores resolve to the
// simpler reading.
var templates = []template{
	{model.QualityMajor, []int{0, 4, 7}},
	{model.QualityMinor, []int{0, 3, 7}},
	{model.QualityDiminished, []int{0, 3, 6}},
	{model.QualityAugmented, []int{0, 4, 8}},
	{model.QualityMajor7, []int{0, 4, 7, 11}},
	{model.QualityMinor7, []int{0, 3, 7, 10}},
	{model.QualityDominant7, []int{0, 4, 7, 10}},
	{model.QualityDiminished7, []int{0, 3, 6, 9}},
	{model.QualityHalfDiminished7, []int{0, 3, 6, 10}},
}

// Analyzer performs chord, key and cadence analysis.
type Analyzer struct {
	params Params
}

// NewAnalyzer creates an analyzer with default parameters.
func NewAnalyzer() *Analyzer {
	return NewAnalyzerWithParams(DefaultParams())
}

// NewAnalyzerWithParams creates an analyzer with custom parameters.
func NewAnalyzerWithParams(params Params) *Analyzer {
	return &Analyzer{params: params}
}

// Analyze runs the complete harmonic pass over the merged,
// time-ordered note stream. Phrases are only needed for cadence
// placement; passing none simply yields no cadences.
func (a *Analyzer) Analyze(notes []model.NoteEvent, phrases []model.Phrase) Result {
	res := Result{Chords: []model.Chord{}, Cadences: []model.Cadence{}}
	if len(notes) == 0 {
		return res
	}

	slices := buildSlices(notes)
	for _, sl := range slices {
		if chord, ok := a.matchSlice(sl); ok {
			res.Chords = mergeChord(res.Chords, chord)
		}
	}

	res.Key = a.estimateKey(notes)
	if res.Key != nil {
		for i := range res.Chords {
			res.Chords[i].RomanNumeral = RomanNumeral(res.Chords[i].Root, res.Chords[i].Quality, *res.Key)
		}
		res.Cadences = a.detectCadences(res.Chords, phrases, *res.Key)
	}
	return res
}

// slice is the set of pitches sounding between two adjacent
// onset/offset boundaries.
type slice struct {
	startBeat    float64
	durationBeat float64
	pitchClasses []int
	bassClass    int
}

// edge is a note-on or note-off crossing used by the boundary sweep.
type edge struct {
	beat  float64
	pitch uint8
	on    bool
}

// buildSlices sweeps all note edges once, snapshotting the active
// pitch set between each pair of adjacent boundaries. The sweep keeps
// the whole pass near-linear in the number of notes.
func buildSlices(notes []model.NoteEvent) []slice {
	edges := make([]edge, 0, 2*len(notes))
	for _, n := range notes {
		for _, p := range n.Pitches {
			edges = append(edges, edge{beat: n.StartBeat, pitch: p, on: true})
			edges = append(edges, edge{beat: n.End(), pitch: p, on: false})
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].beat != edges[j].beat {
			return edges[i].beat < edges[j].beat
		}
		// Note-offs apply before note-ons at the same boundary.
		return !edges[i].on && edges[j].on
	})

	var slices []slice
	active := make(map[uint8]int)
	i := 0
	for i < len(edges) {
		t0 := edges[i].beat
		for i < len(edges) && edges[i].beat-t0 < beatEpsilon {
			if edges[i].on {
				active[edges[i].pitch]++
			} else if active[edges[i].pitch] > 1 {
				active[edges[i].pitch]--
			} else {
				delete(active, edges[i].pitch)
			}
			i++
		}
		if len(active) == 0 || i >= len(edges) {
			continue
		}
		t1 := edges[i].beat
		slices = append(slices, snapshot(active, t0, t1-t0))
	}
	return slices
}

func snapshot(active map[uint8]int, start, duration float64) slice {
	lowest := uint8(127)
	classes := make(map[int]bool, len(active))
	for p := range active {
		classes[int(p)%12] = true
		if p < lowest {
			lowest = p
		}
	}
	pcs := make([]int, 0, len(classes))
	for pc := range classes {
		pcs = append(pcs, pc)
	}
	sort.Ints(pcs)
	return slice{
		startBeat:    start,
		durationBeat: duration,
		pitchClasses: pcs,
		bassClass:    int(lowest) % 12,
	}
}

// matchSlice scores the slice against every template at every root.
// Scoring favors templates whose pitch classes are a superset of the
// slice and whose implied bass matches the lowest sounding pitch; ties
// resolve to root-position interpretations through the bass bonus.
func (a *Analyzer) matchSlice(sl slice) (model.Chord, bool) {
	if len(sl.pitchClasses) < a.params.MinSlicePitchClasses {
		return model.Chord{}, false
	}

	inSlice := [12]bool{}
	for _, pc := range sl.pitchClasses {
		inSlice[pc] = true
	}

	bestScore := 0.0
	bestRoot := -1
	var bestQuality model.ChordQuality

	for _, tmpl := range templates {
		for root := 0; root < 12; root++ {
			score := a.scoreTemplate(inSlice, len(sl.pitchClasses), tmpl, root, sl.bassClass)
			if score > bestScore {
				bestScore = score
				bestRoot = root
				bestQuality = tmpl.quality
			}
		}
	}

	if bestRoot < 0 || bestScore < a.params.MinMatchScore {
		return model.Chord{}, false
	}
	return model.Chord{
		StartBeat:    sl.startBeat,
		DurationBeat: sl.durationBeat,
		PitchClasses: sl.pitchClasses,
		Root:         bestRoot,
		Quality:      bestQuality,
	}, true
}

// scoreTemplate returns a normalized score in [0, 1] for one
// root/quality interpretation of a slice. Slice pitches outside the
// template cost twice what absent template tones do, so a superset
// template beats a partial one.
func (a *Analyzer) scoreTemplate(inSlice [12]bool, sliceSize int, tmpl template, root, bass int) float64 {
	inTemplate := [12]bool{}
	for _, iv := range tmpl.intervals {
		inTemplate[(root+iv)%12] = true
	}

	matched, extra := 0, 0
	for pc := 0; pc < 12; pc++ {
		if inSlice[pc] && inTemplate[pc] {
			matched++
		} else if inSlice[pc] {
			extra++
		}
	}
	if matched < 2 {
		return 0
	}
	missing := len(tmpl.intervals) - matched

	score := float64(2*matched) - float64(2*extra) - 0.5*float64(missing)
	if bass == root {
		score += 1.0
	} else if inTemplate[bass] {
		score += 0.25
	}

	max := float64(2*sliceSize) + 1.0
	if score < 0 {
		return 0
	}
	return score / max
}

// mergeChord appends a chord, folding it into the previous one when
// both carry an identical root and quality across adjacent slices.
func mergeChord(chords []model.Chord, chord model.Chord) []model.Chord {
	if len(chords) > 0 {
		prev := &chords[len(chords)-1]
		contiguous := chord.StartBeat-prev.End() < beatEpsilon
		if contiguous && prev.Root == chord.Root && prev.Quality == chord.Quality {
			prev.DurationBeat = chord.End() - prev.StartBeat
			prev.PitchClasses = unionClasses(prev.PitchClasses, chord.PitchClasses)
			return chords
		}
	}
	return append(chords, chord)
}

func unionClasses(a, b []int) []int {
	seen := [12]bool{}
	for _, pc := range a {
		seen[pc] = true
	}
	for _, pc := range b {
		seen[pc] = true
	}
	out := make([]int, 0, 12)
	for pc := 0; pc < 12; pc++ {
		if seen[pc] {
			out = append(out, pc)
		}
	}
	return out
}
