package engine

import (
	"sort"

	"github.com/tylerforesthauser/pianist-sub000/model"
)

// AnalysisContext holds the derived views of a Composition that more
// than one stage consumes: the merged note stream, the per-track
// melodic lines, and the explicit markers. Callers analyzing the same
// composition repeatedly can build it once and pass it back in rather
// than have every call recompute the projections.
type AnalysisContext struct {
	// Notes is every NoteEvent of every track, ordered by start beat.
	Notes []model.NoteEvent

	// Lines holds one monophonic melodic line per track, projected by
	// taking the top sounding voice.
	Lines []model.MelodicLine

	// Markers is every SectionMarker of every track, ordered by beat.
	Markers []model.SectionMarker
}

// NewAnalysisContext projects the composition into the shared views.
// The composition itself is never modified.
func NewAnalysisContext(comp *model.Composition) *AnalysisContext {
	ctx := &AnalysisContext{}
	for _, track := range comp.Tracks {
		var trackNotes []model.NoteEvent
		for _, ev := range track.Events {
			switch e := ev.(type) {
			case model.NoteEvent:
				trackNotes = append(trackNotes, e)
			case model.SectionMarker:
				ctx.Markers = append(ctx.Markers, e)
			}
		}
		if line := projectTopVoice(trackNotes); len(line) > 0 {
			ctx.Lines = append(ctx.Lines, line)
		}
		ctx.Notes = append(ctx.Notes, trackNotes...)
	}

	sort.SliceStable(ctx.Notes, func(i, j int) bool {
		return ctx.Notes[i].StartBeat < ctx.Notes[j].StartBeat
	})
	sort.SliceStable(ctx.Markers, func(i, j int) bool {
		return ctx.Markers[i].StartBeat < ctx.Markers[j].StartBeat
	})
	return ctx
}

// projectTopVoice reduces one track to a monophonic line by keeping
// the highest pitch at each onset. Notes at the same onset collapse to
// their top pitch; staggered voices keep their own onsets.
func projectTopVoice(notes []model.NoteEvent) model.MelodicLine {
	var line model.MelodicLine
	for _, n := range notes {
		if len(n.Pitches) == 0 {
			continue
		}
		top := n.Pitches[0]
		for _, p := range n.Pitches[1:] {
			if p > top {
				top = p
			}
		}
		mn := model.MelodicNote{StartBeat: n.StartBeat, DurationBeat: n.DurationBeat, Pitch: top}

		if len(line) > 0 && sameOnset(line[len(line)-1].StartBeat, mn.StartBeat) {
			if mn.Pitch > line[len(line)-1].Pitch {
				line[len(line)-1] = mn
			}
			continue
		}
		line = append(line, mn)
	}
	return line
}

func sameOnset(a, b float64) bool {
	const eps = 1e-6
	return b-a < eps && a-b < eps
}
