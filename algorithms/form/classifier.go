// Package form matches a composition's section structure against a
// fixed table of large-scale form templates. Sections come from
// explicit markers when they partition the timeline, and from phrase
// similarity clustering otherwise.
package form

import (
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/tylerforesthauser/pianist-sub000/model"
)

// Params contains the clustering and matching thresholds.
type Params struct {
	// SimilarityThreshold is the minimum chord-sequence correlation
	// for two phrases to be considered the same material.
	SimilarityThreshold float64 `json:"similarity_threshold"`

	// MarkerStartTolerance is how far (in beats) the first marker may
	// sit past the start of the active span and still count as a
	// contiguous partition of the timeline.
	MarkerStartTolerance float64 `json:"marker_start_tolerance"`
}

// DefaultParams returns sensible defaults for form classification.
func DefaultParams() Params {
	return Params{
		SimilarityThreshold:  0.8,
		MarkerStartTolerance: 1.0,
	}
}

// Classifier infers the overall form of a composition.
type Classifier struct {
	params Params
}

// NewClassifier creates a classifier with default parameters.
func NewClassifier() *Classifier {
	return NewClassifierWithParams(DefaultParams())
}

// NewClassifierWithParams creates a classifier with custom parameters.
func NewClassifierWithParams(params Params) *Classifier {
	return &Classifier{params: params}
}

// section is one contiguous lettered region of the piece.
type section struct {
	startBeat float64
	letter    string
	label     string // original marker label, empty when inferred
}

// Classify produces one FormClassification. An unclassified result is
// a valid outcome, not an error.
func (c *Classifier) Classify(phrases []model.Phrase, motifs []model.Motif, chords []model.Chord, markers []model.SectionMarker) model.FormClassification {
	sections := c.sectionsFromMarkers(markers, phrases)
	if sections == nil {
		sections = c.sectionsFromPhrases(phrases, motifs, chords)
	}
	if len(sections) == 0 {
		return model.FormClassification{Label: model.FormUnclassified, SectionBoundaries: []model.SectionBoundary{}}
	}

	boundaries := make([]model.SectionBoundary, len(sections))
	for i, s := range sections {
		boundaries[i] = model.SectionBoundary{StartBeat: s.startBeat, Letter: s.letter}
	}
	return model.FormClassification{
		Label:             matchTemplate(sections),
		SectionBoundaries: boundaries,
	}
}

// sectionsFromMarkers uses explicit marker labels directly, provided
// the markers partition the timeline contiguously: strictly increasing
// beats, starting at (or near) the start of the active span. Returns
// nil when markers are absent or unusable.
func (c *Classifier) sectionsFromMarkers(markers []model.SectionMarker, phrases []model.Phrase) []section {
	if len(markers) < 2 {
		return nil
	}

	sorted := make([]model.SectionMarker, len(markers))
	copy(sorted, markers)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].StartBeat < sorted[j].StartBeat })

	for i := 1; i < len(sorted); i++ {
		if sorted[i].StartBeat <= sorted[i-1].StartBeat {
			return nil
		}
	}
	if len(phrases) > 0 && sorted[0].StartBeat > phrases[0].StartBeat+c.params.MarkerStartTolerance {
		return nil
	}

	letters := map[string]string{}
	sections := make([]section, len(sorted))
	for i, m := range sorted {
		label := strings.ToLower(strings.TrimSpace(m.Label))
		letter, ok := letters[label]
		if !ok {
			letter = nextLetter(len(letters))
			letters[label] = letter
		}
		sections[i] = section{startBeat: m.StartBeat, letter: letter, label: label}
	}
	return sections
}

// sectionsFromPhrases clusters phrases by similarity and collapses
// consecutive phrases of the same cluster into one section.
func (c *Classifier) sectionsFromPhrases(phrases []model.Phrase, motifs []model.Motif, chords []model.Chord) []section {
	if len(phrases) == 0 {
		return nil
	}

	clusters := c.clusterPhrases(phrases, motifs, chords)

	var sections []section
	for i, cl := range clusters {
		letter := nextLetter(cl)
		if i > 0 && sections[len(sections)-1].letter == letter {
			continue
		}
		sections = append(sections, section{startBeat: phrases[i].StartBeat, letter: letter})
	}
	return sections
}

// clusterPhrases assigns each phrase the cluster of the first earlier
// phrase it is similar to, or a fresh cluster. Cluster numbers follow
// order of first appearance.
func (c *Classifier) clusterPhrases(phrases []model.Phrase, motifs []model.Motif, chords []model.Chord) []int {
	clusters := make([]int, len(phrases))
	representatives := []int{} // phrase index that opened each cluster
	for i := range phrases {
		assigned := -1
		for cl, rep := range representatives {
			if c.similar(phrases[rep], phrases[i], motifs, chords) {
				assigned = cl
				break
			}
		}
		if assigned < 0 {
			assigned = len(representatives)
			representatives = append(representatives, i)
		}
		clusters[i] = assigned
	}
	return clusters
}

// similar reports whether two phrases present the same material: a
// shared motif occurrence, or chord root sequences correlating above
// the configured threshold.
func (c *Classifier) similar(a, b model.Phrase, motifs []model.Motif, chords []model.Chord) bool {
	for _, m := range motifs {
		inA, inB := false, false
		for _, occ := range m.Occurrences {
			if a.Contains(occ.StartBeat) {
				inA = true
			}
			if b.Contains(occ.StartBeat) {
				inB = true
			}
		}
		if inA && inB {
			return true
		}
	}
	return c.chordCorrelation(a, b, chords) >= c.params.SimilarityThreshold
}

// chordCorrelation compares the root sequences of the chords beginning
// inside each phrase, truncated to the shorter sequence.
func (c *Classifier) chordCorrelation(a, b model.Phrase, chords []model.Chord) float64 {
	ra := rootSequence(a, chords)
	rb := rootSequence(b, chords)
	n := len(ra)
	if len(rb) < n {
		n = len(rb)
	}
	if n < 2 {
		return 0
	}
	ra, rb = ra[:n], rb[:n]
	if floatsEqual(ra, rb) {
		return 1
	}
	corr := stat.Correlation(ra, rb, nil)
	if math.IsNaN(corr) {
		return 0
	}
	return corr
}

func rootSequence(p model.Phrase, chords []model.Chord) []float64 {
	var roots []float64
	for _, ch := range chords {
		if p.Contains(ch.StartBeat) {
			roots = append(roots, float64(ch.Root))
		}
	}
	return roots
}

func floatsEqual(a, b []float64) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// nextLetter maps cluster ordinals to section letters A, B, C, ...
func nextLetter(n int) string {
	if n < 26 {
		return string(rune('A' + n))
	}
	return string(rune('A'+n/26-1)) + string(rune('A'+n%26))
}

// matchTemplate compares the section sequence against the fixed form
// table. Sonata and theme-and-variations are recognized from marker
// labels by convention; the letter patterns cover the rest.
func matchTemplate(sections []section) model.FormLabel {
	if label, ok := matchLabeled(sections); ok {
		return label
	}

	var seq strings.Builder
	for _, s := range sections {
		seq.WriteString(s.letter)
	}
	switch seq.String() {
	case "AB":
		return model.FormBinary
	case "ABA":
		return model.FormTernary
	case "ABACA", "ABACABA":
		return model.FormRondo
	}

	if isThemeAndVariations(sections) {
		return model.FormThemeAndVariations
	}
	return model.FormUnclassified
}

// matchLabeled recognizes the conventionally named sonata and
// theme-and-variations layouts from explicit marker labels.
func matchLabeled(sections []section) (model.FormLabel, bool) {
	if len(sections) == 3 &&
		strings.Contains(sections[0].label, "exposition") &&
		strings.Contains(sections[1].label, "development") &&
		strings.Contains(sections[2].label, "recapitulation") {
		return model.FormSonata, true
	}

	if len(sections) >= 4 && strings.Contains(sections[0].label, "theme") {
		variations := 0
		for _, s := range sections[1:] {
			if strings.Contains(s.label, "var") {
				variations++
			}
		}
		if variations >= 3 {
			return model.FormThemeAndVariations, true
		}
	}
	return model.FormUnclassified, false
}

// isThemeAndVariations recognizes the inferred layout: an opening
// section followed by at least three sections of distinct material.
func isThemeAndVariations(sections []section) bool {
	if len(sections) < 4 {
		return false
	}
	seen := map[string]bool{}
	for _, s := range sections {
		if seen[s.letter] {
			return false
		}
		seen[s.letter] = true
	}
	return true
}
