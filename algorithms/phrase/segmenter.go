// Package phrase splits a merged note-event stream into contiguous,
// non-overlapping phrase spans. Boundaries come from rests longer than
// a configured threshold and from explicit section markers; undersized
// phrases are merged into a neighbor afterwards.
package phrase

import (
	"sort"

	"github.com/tylerforesthauser/pianist-sub000/model"
)

// Params contains the segmentation thresholds.
type Params struct {
	// RestThresholdBeats is the silence between a note's end and the
	// next note's start that forces a phrase boundary. The default is
	// one quarter-note duration.
	RestThresholdBeats float64 `json:"rest_threshold_beats"`

	// MinPhraseBeats is the minimum phrase length. Shorter phrases are
	// merged into the following phrase, or the preceding one when they
	// are last.
	MinPhraseBeats float64 `json:"min_phrase_beats"`
}

// DefaultParams returns sensible defaults for phrase segmentation.
func DefaultParams() Params {
	return Params{
		RestThresholdBeats: 1.0,
		MinPhraseBeats:     2.0,
	}
}

// Segmenter produces phrase spans from note streams.
type Segmenter struct {
	params Params
}

// NewSegmenter creates a segmenter with default parameters.
func NewSegmenter() *Segmenter {
	return NewSegmenterWithParams(DefaultParams())
}

// NewSegmenterWithParams creates a segmenter with custom parameters.
func NewSegmenterWithParams(params Params) *Segmenter {
	return &Segmenter{params: params}
}

// Segment splits the time-ordered note stream into phrases. Markers
// always force a boundary regardless of gap size. A piece with no gaps
// and no markers yields a single phrase, which is a valid outcome.
func (s *Segmenter) Segment(notes []model.NoteEvent, markers []model.SectionMarker) []model.Phrase {
	if len(notes) == 0 {
		return []model.Phrase{}
	}

	phrases := s.splitAtRests(notes)
	phrases = s.splitAtMarkers(phrases, markers)
	return s.mergeShort(phrases)
}

// splitAtRests walks the stream once, closing a phrase whenever the
// silence before the next onset exceeds the rest threshold. The phrase
// end tracks the furthest note-off seen so far, so overlapping voices
// cannot produce a false gap.
func (s *Segmenter) splitAtRests(notes []model.NoteEvent) []model.Phrase {
	var phrases []model.Phrase
	start := notes[0].StartBeat
	end := notes[0].End()

	for _, n := range notes[1:] {
		if n.StartBeat-end > s.params.RestThresholdBeats {
			phrases = append(phrases, model.Phrase{StartBeat: start, EndBeat: end})
			start = n.StartBeat
			end = n.End()
			continue
		}
		if n.End() > end {
			end = n.End()
		}
	}
	return append(phrases, model.Phrase{StartBeat: start, EndBeat: end})
}

// splitAtMarkers cuts phrases at every marker beat that falls strictly
// inside a phrase.
func (s *Segmenter) splitAtMarkers(phrases []model.Phrase, markers []model.SectionMarker) []model.Phrase {
	if len(markers) == 0 {
		return phrases
	}

	cuts := make([]float64, 0, len(markers))
	for _, m := range markers {
		cuts = append(cuts, m.StartBeat)
	}
	sort.Float64s(cuts)

	var out []model.Phrase
	for _, p := range phrases {
		for _, cut := range cuts {
			if cut > p.StartBeat && cut < p.EndBeat {
				out = append(out, model.Phrase{StartBeat: p.StartBeat, EndBeat: cut})
				p.StartBeat = cut
			}
		}
		out = append(out, p)
	}
	return out
}

// mergeShort folds phrases shorter than MinPhraseBeats into their
// neighbor, preferring the following phrase. The last phrase merges
// backwards instead. Repeats until stable.
func (s *Segmenter) mergeShort(phrases []model.Phrase) []model.Phrase {
	for {
		merged := false
		for i := 0; i < len(phrases); i++ {
			if phrases[i].Duration() >= s.params.MinPhraseBeats || len(phrases) == 1 {
				continue
			}
			if i < len(phrases)-1 {
				phrases[i+1].StartBeat = phrases[i].StartBeat
				phrases = append(phrases[:i], phrases[i+1:]...)
			} else {
				phrases[i-1].EndBeat = phrases[i].EndBeat
				phrases = phrases[:i]
			}
			merged = true
			break
		}
		if !merged {
			return phrases
		}
	}
}
