// Package motif finds recurring pitch-interval cells in monophonic
// melodic lines. Detection is transposition-invariant by construction:
// windows are keyed by relative intervals, so a transposed repeat
// hashes to the same canonical key as its reference.
package motif

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/tylerforesthauser/pianist-sub000/model"
)

// Params contains the heuristic constants of motif detection. All of
// them are deliberate configuration, not embedded constants.
type Params struct {
	// MinLen and MaxLen bound candidate window lengths in notes. A
	// window of n notes carries n-1 interval tokens.
	MinLen int `json:"min_len"`
	MaxLen int `json:"max_len"`

	// RestGapBeats is the silence between one note's end and the next
	// note's start that breaks a line into independent runs.
	RestGapBeats float64 `json:"rest_gap_beats"`

	// RhythmQuantum quantizes duration ratios between consecutive
	// notes, so minor performance jitter does not split otherwise
	// identical rhythmic shapes.
	RhythmQuantum float64 `json:"rhythm_quantum"`
}

// DefaultParams returns sensible defaults for motif detection.
func DefaultParams() Params {
	return Params{
		MinLen:        3,
		MaxLen:        8,
		RestGapBeats:  0.25,
		RhythmQuantum: 0.25,
	}
}

// Result contains the detected motifs plus the material measure the
// caller needs to decide whether an empty result is noteworthy.
type Result struct {
	Motifs []model.Motif `json:"motifs"`
	// LongestLine is the note count of the longest input line. An
	// empty motif list is only reported as incomplete analysis when
	// the material was long enough to plausibly contain repeats.
	LongestLine int `json:"longest_line"`
}

// Detector finds recurring interval cells across melodic lines.
type Detector struct {
	params Params
}

// NewDetector creates a detector with default parameters.
func NewDetector() *Detector {
	return NewDetectorWithParams(DefaultParams())
}

// NewDetectorWithParams creates a detector with custom parameters.
func NewDetectorWithParams(params Params) *Detector {
	if params.MinLen < 2 {
		params.MinLen = 2
	}
	if params.MaxLen < params.MinLen {
		params.MaxLen = params.MinLen
	}
	return &Detector{params: params}
}

// token is one step between consecutive sounding notes of a run.
type token struct {
	interval int // signed semitone delta
	ratio    int // quantized duration ratio, in RhythmQuantum steps
}

// run is a rest-free stretch of one melodic line. Windows index into
// the notes slice; no per-window copies are made.
type run struct {
	notes  []model.MelodicNote
	tokens []token
}

// occurrence locates one candidate window.
type occurrence struct {
	run   int
	start int // note index within the run
}

// candidate groups all windows sharing one canonical key.
type candidate struct {
	key    string
	length int // window length in notes
	occs   []occurrence
	score  int
}

// Detect finds all motifs with at least two occurrences across the
// given lines. Overlapping candidates are resolved greedily by score
// (length times occurrence count), ties broken by earliest start.
func (d *Detector) Detect(lines []model.MelodicLine) Result {
	res := Result{Motifs: []model.Motif{}}
	runs := d.buildRuns(lines, &res)
	if len(runs) == 0 {
		return res
	}

	candidates := d.collectCandidates(runs)

	// Highest score first; ties go to the earliest reference
	// occurrence, then to the canonical key for determinism.
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.score != b.score {
			return a.score > b.score
		}
		sa := runs[a.occs[0].run].notes[a.occs[0].start].StartBeat
		sb := runs[b.occs[0].run].notes[b.occs[0].start].StartBeat
		if sa != sb {
			return sa < sb
		}
		return a.key < b.key
	})

	claimed := make([][]bool, len(runs))
	for i, r := range runs {
		claimed[i] = make([]bool, len(r.notes))
	}

	for _, cand := range candidates {
		kept := cand.occs[:0:0]
		var tentative []occurrence
		for _, occ := range cand.occs {
			if !d.free(claimed[occ.run], occ.start, cand.length) {
				continue
			}
			if overlapsAny(tentative, occ, cand.length) {
				continue
			}
			kept = append(kept, occ)
			tentative = append(tentative, occ)
		}
		if len(kept) < 2 {
			continue
		}
		for _, occ := range kept {
			for n := occ.start; n < occ.start+cand.length; n++ {
				claimed[occ.run][n] = true
			}
		}
		res.Motifs = append(res.Motifs, d.buildMotif(runs, kept, cand.length))
	}

	// Chronological output order.
	sort.Slice(res.Motifs, func(i, j int) bool {
		return res.Motifs[i].Occurrences[0].StartBeat < res.Motifs[j].Occurrences[0].StartBeat
	})
	return res
}

// buildRuns splits each line at rests into independent token runs.
func (d *Detector) buildRuns(lines []model.MelodicLine, res *Result) []run {
	var runs []run
	for _, line := range lines {
		if len(line) > res.LongestLine {
			res.LongestLine = len(line)
		}
		start := 0
		for i := 1; i <= len(line); i++ {
			if i < len(line) && line[i].StartBeat-line[i-1].End() <= d.params.RestGapBeats {
				continue
			}
			if i-start >= d.params.MinLen {
				runs = append(runs, d.newRun(line[start:i]))
			}
			start = i
		}
	}
	return runs
}

func (d *Detector) newRun(notes []model.MelodicNote) run {
	tokens := make([]token, len(notes)-1)
	for i := 1; i < len(notes); i++ {
		tokens[i-1] = token{
			interval: int(notes[i].Pitch) - int(notes[i-1].Pitch),
			ratio:    d.quantizeRatio(notes[i].DurationBeat, notes[i-1].DurationBeat),
		}
	}
	return run{notes: notes, tokens: tokens}
}

func (d *Detector) quantizeRatio(next, cur float64) int {
	if cur <= 0 || d.params.RhythmQuantum <= 0 {
		return 0
	}
	return int(math.Round(next / cur / d.params.RhythmQuantum))
}

// collectCandidates slides every window length across every run and
// buckets windows by canonical key. Keys of different window lengths
// cannot collide because they encode a different token count.
func (d *Detector) collectCandidates(runs []run) []candidate {
	buckets := make(map[string][]occurrence)
	for length := d.params.MinLen; length <= d.params.MaxLen; length++ {
		for ri, r := range runs {
			for i := 0; i+length <= len(r.notes); i++ {
				key := canonicalKey(r.tokens[i : i+length-1])
				buckets[key] = append(buckets[key], occurrence{run: ri, start: i})
			}
		}
	}

	var candidates []candidate
	for key, occs := range buckets {
		if len(occs) < 2 {
			continue
		}
		// A window of n notes serializes n-1 pipe-separated tokens.
		length := strings.Count(key, "|") + 2
		candidates = append(candidates, candidate{
			key:    key,
			length: length,
			occs:   occs,
			score:  length * len(occs),
		})
	}
	return candidates
}

// canonicalKey serializes a token window. The key uses only relative
// intervals and ratios, never absolute pitch.
func canonicalKey(tokens []token) string {
	var b strings.Builder
	for i, t := range tokens {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(strconv.Itoa(t.interval))
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(t.ratio))
	}
	return b.String()
}

// overlapsAny reports whether occ's note span intersects an already
// accepted occurrence of the same candidate in the same run.
func overlapsAny(accepted []occurrence, occ occurrence, length int) bool {
	for _, a := range accepted {
		if a.run == occ.run && occ.start < a.start+length && a.start < occ.start+length {
			return true
		}
	}
	return false
}

func (d *Detector) free(claimed []bool, start, length int) bool {
	for n := start; n < start+length; n++ {
		if claimed[n] {
			return false
		}
	}
	return true
}

// buildMotif turns surviving occurrences into an immutable Motif. The
// earliest occurrence is the reference: its offset is zero and every
// other offset is measured against its first pitch.
func (d *Detector) buildMotif(runs []run, occs []occurrence, length int) model.Motif {
	sort.Slice(occs, func(i, j int) bool {
		a := runs[occs[i].run].notes[occs[i].start].StartBeat
		b := runs[occs[j].run].notes[occs[j].start].StartBeat
		return a < b
	})

	ref := occs[0]
	refNotes := runs[ref.run].notes[ref.start : ref.start+length]

	intervals := make([]int, length-1)
	for i := 1; i < length; i++ {
		intervals[i-1] = int(refNotes[i].Pitch) - int(refNotes[i-1].Pitch)
	}

	occurrences := make([]model.MotifOccurrence, len(occs))
	for i, occ := range occs {
		first := runs[occ.run].notes[occ.start]
		occurrences[i] = model.MotifOccurrence{
			StartBeat:           first.StartBeat,
			TranspositionOffset: int(first.Pitch) - int(refNotes[0].Pitch),
		}
	}

	return model.Motif{Intervals: intervals, Occurrences: occurrences}
}
