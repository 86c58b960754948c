package harmony

import (
	"gonum.org/v1/gonum/stat"

	"github.com/tylerforesthauser/pianist-sub000/model"
)

// Supported key-correlation profiles.
const (
	ProfileKrumhansl = "krumhansl"
	ProfileTemperley = "temperley"
)

// keyProfile holds one pair of major/minor reference profiles indexed
// by scale degree in semitones.
type keyProfile struct {
	major []float64
	minor []float64
}

// Krumhansl-Schmuckler profiles, empirically derived from listener
// ratings; Temperley's are corpus-based. Which profile wins on real
// material is an open question, so the choice is configuration.
var keyProfiles = map[string]keyProfile{
	ProfileKrumhansl: {
		major: []float64{6.35, 2.23, 3.48, 2.33, 4.38, 4.09, 2.52, 5.19, 2.39, 3.66, 2.29, 2.88},
		minor: []float64{6.33, 2.68, 3.52, 5.38, 2.60, 3.53, 2.54, 4.75, 3.98, 2.69, 3.34, 3.17},
	},
	ProfileTemperley: {
		major: []float64{5.0, 2.0, 3.5, 2.0, 4.5, 4.0, 2.0, 4.5, 2.0, 3.5, 1.5, 4.0},
		minor: []float64{5.0, 2.0, 3.5, 4.5, 2.0, 4.0, 2.0, 4.5, 3.5, 2.0, 1.5, 4.0},
	},
}

// estimateKey correlates the duration-weighted pitch-class histogram
// of the whole piece against the configured profile at all 24
// tonic/mode rotations. A best correlation under MinKeyConfidence
// yields no key at all rather than a misleading one.
func (a *Analyzer) estimateKey(notes []model.NoteEvent) *model.Key {
	profile, ok := keyProfiles[a.params.KeyProfile]
	if !ok {
		profile = keyProfiles[ProfileKrumhansl]
	}

	hist := pitchClassHistogram(notes)
	total := 0.0
	for _, w := range hist {
		total += w
	}
	if total == 0 {
		return nil
	}

	best := model.Key{Confidence: -2}
	for tonic := 0; tonic < 12; tonic++ {
		if c := correlateAtTonic(hist, profile.major, tonic); c > best.Confidence {
			best = model.Key{Tonic: tonic, Mode: model.ModeMajor, Confidence: c}
		}
		if c := correlateAtTonic(hist, profile.minor, tonic); c > best.Confidence {
			best = model.Key{Tonic: tonic, Mode: model.ModeMinor, Confidence: c}
		}
	}

	if best.Confidence < a.params.MinKeyConfidence {
		return nil
	}
	return &best
}

// pitchClassHistogram accumulates sounding duration per pitch class.
func pitchClassHistogram(notes []model.NoteEvent) []float64 {
	hist := make([]float64, 12)
	for _, n := range notes {
		for _, p := range n.Pitches {
			hist[int(p)%12] += n.DurationBeat
		}
	}
	return hist
}

// correlateAtTonic computes the Pearson correlation between the
// histogram and the profile rotated so its first degree lands on the
// candidate tonic.
func correlateAtTonic(hist, profile []float64, tonic int) float64 {
	rotated := make([]float64, 12)
	for degree := 0; degree < 12; degree++ {
		rotated[(tonic+degree)%12] = profile[degree]
	}
	return stat.Correlation(hist, rotated, nil)
}
