package harmony

import "github.com/tylerforesthauser/pianist-sub000/model"

// Degree names indexed by semitone offset from the tonic. The minor
// table spells the natural-minor degrees (III, VI, VII) without
// accidentals.
var (
	majorDegrees = [12]string{"I", "bII", "II", "bIII", "III", "IV", "#IV", "V", "bVI", "VI", "bVII", "VII"}
	minorDegrees = [12]string{"I", "bII", "II", "III", "#III", "IV", "#IV", "V", "VI", "#VI", "VII", "#VII"}
)

// RomanNumeral labels a chord root and quality relative to a key:
// scale-degree numeral, lowercase for minor-family qualities, plus the
// usual quality suffix.
func RomanNumeral(root int, quality model.ChordQuality, key model.Key) string {
	offset := ((root-key.Tonic)%12 + 12) % 12

	var degree string
	if key.Mode == model.ModeMinor {
		degree = minorDegrees[offset]
	} else {
		degree = majorDegrees[offset]
	}

	switch quality {
	case model.QualityMinor:
		return lower(degree)
	case model.QualityMinor7:
		return lower(degree) + "7"
	case model.QualityDiminished:
		return lower(degree) + "°"
	case model.QualityDiminished7:
		return lower(degree) + "°7"
	case model.QualityHalfDiminished7:
		return lower(degree) + "ø7"
	case model.QualityAugmented:
		return degree + "+"
	case model.QualityDominant7:
		return degree + "7"
	case model.QualityMajor7:
		return degree + "maj7"
	default:
		return degree
	}
}

// lower lowercases the numeral letters while leaving accidentals be.
func lower(degree string) string {
	out := make([]byte, len(degree))
	for i := 0; i < len(degree); i++ {
		c := degree[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}
