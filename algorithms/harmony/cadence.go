package harmony

import "github.com/tylerforesthauser/pianist-sub000/model"

// Scale-degree offsets in semitones used by cadence detection.
const (
	degreeTonic       = 0
	degreeSubdominant = 5
	degreeDominant    = 7
	degreeSubmediant  = 9 // vi in major
	degreeMinorSixth  = 8 // VI in minor, the deceptive target there
)

// detectCadences inspects the final chord pair of every phrase.
// V->I is authentic, IV->I plagal, V->vi (or the relative-minor
// equivalent V->VI) deceptive, and a phrase ending on V alone is a
// half cadence. Any other ending yields no record, which is not an
// error: most phrases simply do not cadence.
func (a *Analyzer) detectCadences(chords []model.Chord, phrases []model.Phrase, key model.Key) []model.Cadence {
	cadences := []model.Cadence{}
	idx := 0
	for _, p := range phrases {
		// Chords and phrases are both chronological, so one forward
		// sweep over the chord list covers every phrase.
		for idx < len(chords) && chords[idx].StartBeat < p.EndBeat {
			idx++
		}
		final, penult, ok := phraseFinalPair(chords, idx, p)
		if !ok {
			continue
		}

		finalDeg := degreeOf(final.Root, key)
		if penult != nil {
			penultDeg := degreeOf(penult.Root, key)
			switch {
			case penultDeg == degreeDominant && finalDeg == degreeTonic:
				cadences = append(cadences, model.Cadence{AtBeat: final.StartBeat, Kind: model.CadenceAuthentic})
				continue
			case penultDeg == degreeSubdominant && finalDeg == degreeTonic:
				cadences = append(cadences, model.Cadence{AtBeat: final.StartBeat, Kind: model.CadencePlagal})
				continue
			case penultDeg == degreeDominant && finalDeg == deceptiveTarget(key):
				cadences = append(cadences, model.Cadence{AtBeat: final.StartBeat, Kind: model.CadenceDeceptive})
				continue
			}
		}
		if finalDeg == degreeDominant {
			cadences = append(cadences, model.Cadence{AtBeat: final.StartBeat, Kind: model.CadenceHalf})
		}
	}
	return cadences
}

// phraseFinalPair returns the last chord beginning inside the phrase
// and the chord before it, when that one also begins inside. end is
// the index of the first chord at or past the phrase end.
func phraseFinalPair(chords []model.Chord, end int, p model.Phrase) (final, penult *model.Chord, ok bool) {
	lastIdx := end - 1
	if lastIdx < 0 || chords[lastIdx].StartBeat < p.StartBeat {
		return nil, nil, false
	}
	final = &chords[lastIdx]
	if lastIdx > 0 && chords[lastIdx-1].StartBeat >= p.StartBeat {
		penult = &chords[lastIdx-1]
	}
	return final, penult, true
}

func degreeOf(root int, key model.Key) int {
	return ((root-key.Tonic)%12 + 12) % 12
}

func deceptiveTarget(key model.Key) int {
	if key.Mode == model.ModeMinor {
		return degreeMinorSixth
	}
	return degreeSubmediant
}
