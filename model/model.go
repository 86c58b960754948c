// Package model defines the shared data structures of the analysis
// engine: the note-event composition it consumes and the structural
// analysis it produces. The package carries no behavior beyond small
// accessors; every analysis stage treats these values as read-only.
package model

// Event is the tagged variant stored on a Track. Only NoteEvent and
// SectionMarker are consumed by the analysis engine; PedalEvent and
// TempoEvent pass through untouched.
type Event interface {
	// Start returns the event's position in beats from the start of
	// the composition.
	Start() float64
}

// NoteEvent is one or more pitches sounding together for a duration.
type NoteEvent struct {
	StartBeat    float64 `json:"start_beat"`
	DurationBeat float64 `json:"duration_beat"` // always > 0
	Pitches      []uint8 `json:"pitches"`       // MIDI pitches 0-127, no duplicates
	Velocity     uint8   `json:"velocity"`
}

func (e NoteEvent) Start() float64 { return e.StartBeat }

// End returns the beat at which the note stops sounding.
func (e NoteEvent) End() float64 { return e.StartBeat + e.DurationBeat }

// PedalEvent is a sustain pedal state change. Passed through unanalyzed.
type PedalEvent struct {
	StartBeat float64 `json:"start_beat"`
	Down      bool    `json:"down"`
}

func (e PedalEvent) Start() float64 { return e.StartBeat }

// TempoEvent is a mid-piece tempo change. Passed through unanalyzed.
type TempoEvent struct {
	StartBeat float64 `json:"start_beat"`
	BPM       float64 `json:"bpm"`
}

func (e TempoEvent) Start() float64 { return e.StartBeat }

// SectionMarker is an explicit, authored section label.
type SectionMarker struct {
	StartBeat float64 `json:"start_beat"`
	Label     string  `json:"label"`
}

func (e SectionMarker) Start() float64 { return e.StartBeat }

// Track is an ordered sequence of events, non-decreasing by start beat.
// Owned exclusively by its Composition.
type Track struct {
	Name   string  `json:"name"`
	Events []Event `json:"events"`
}

// TimeSignature is the notated meter of the composition.
type TimeSignature struct {
	Numerator   int `json:"numerator"`
	Denominator int `json:"denominator"`
}

// Composition is a complete, already-assembled piece. The analysis
// engine assumes it satisfies the data model invariants (validated by
// the supplier, not here) and never mutates it.
type Composition struct {
	Title         string        `json:"title"`
	TempoBPM      float64       `json:"tempo_bpm"`
	TimeSignature TimeSignature `json:"time_signature"`
	Tracks        []Track       `json:"tracks"`
}

// MelodicNote is one sounding note of a monophonic line projected from
// a track (top voice when the track is polyphonic).
type MelodicNote struct {
	StartBeat    float64 `json:"start_beat"`
	DurationBeat float64 `json:"duration_beat"`
	Pitch        uint8   `json:"pitch"`
}

// End returns the beat at which the note stops sounding.
func (n MelodicNote) End() float64 { return n.StartBeat + n.DurationBeat }

// MelodicLine is a monophonic pitch line in beat order.
type MelodicLine []MelodicNote

// MotifOccurrence is one appearance of a motif.
type MotifOccurrence struct {
	StartBeat float64 `json:"start_beat"`
	// TranspositionOffset is the signed semitone distance from the
	// first (reference) occurrence of the motif.
	TranspositionOffset int `json:"transposition_offset"`
}

// Motif is a recurring pitch-interval cell. Immutable once produced:
// the detector never revisits a Motif after emitting it.
type Motif struct {
	// Intervals are signed semitone deltas between consecutive notes,
	// so a motif spanning n notes has n-1 intervals.
	Intervals   []int             `json:"intervals"`
	Occurrences []MotifOccurrence `json:"occurrences"` // always >= 2
}

// Phrase is a contiguous span bounded by rests or explicit markers.
// Phrases produced by the segmenter never overlap.
type Phrase struct {
	StartBeat float64 `json:"start_beat"`
	EndBeat   float64 `json:"end_beat"`
}

// Duration returns the phrase length in beats.
func (p Phrase) Duration() float64 { return p.EndBeat - p.StartBeat }

// Contains reports whether the given beat falls inside the phrase.
func (p Phrase) Contains(beat float64) bool {
	return beat >= p.StartBeat && beat < p.EndBeat
}

// ChordQuality is the quality of a matched chord template.
type ChordQuality int

const (
	QualityMajor ChordQuality = iota
	QualityMinor
	QualityDiminished
	QualityAugmented
	QualityMajor7
	QualityMinor7
	QualityDominant7
	QualityDiminished7
	QualityHalfDiminished7
)

func (q ChordQuality) String() string {
	switch q {
	case QualityMajor:
		return "major"
	case QualityMinor:
		return "minor"
	case QualityDiminished:
		return "diminished"
	case QualityAugmented:
		return "augmented"
	case QualityMajor7:
		return "major7"
	case QualityMinor7:
		return "minor7"
	case QualityDominant7:
		return "dominant7"
	case QualityDiminished7:
		return "diminished7"
	case QualityHalfDiminished7:
		return "half-diminished7"
	default:
		return "unknown"
	}
}

// Chord is a labeled vertical sonority spanning a time slice.
type Chord struct {
	StartBeat    float64      `json:"start_beat"`
	DurationBeat float64      `json:"duration_beat"`
	PitchClasses []int        `json:"pitch_classes"` // sorted, 0-11, no duplicates
	Root         int          `json:"root"`          // 0=C .. 11=B
	Quality      ChordQuality `json:"quality"`
	// RomanNumeral is empty when no confident key was established.
	RomanNumeral string `json:"roman_numeral,omitempty"`
}

// End returns the beat at which the chord stops sounding.
func (c Chord) End() float64 { return c.StartBeat + c.DurationBeat }

// CadenceKind classifies a harmonic closing gesture.
type CadenceKind string

const (
	CadenceAuthentic CadenceKind = "authentic"
	CadenceHalf      CadenceKind = "half"
	CadencePlagal    CadenceKind = "plagal"
	CadenceDeceptive CadenceKind = "deceptive"
)

// Cadence is a closing gesture detected at a phrase boundary.
type Cadence struct {
	AtBeat float64     `json:"at_beat"`
	Kind   CadenceKind `json:"kind"`
}

// KeyMode is major or minor.
type KeyMode int

const (
	ModeMajor KeyMode = iota
	ModeMinor
)

func (m KeyMode) String() string {
	if m == ModeMinor {
		return "minor"
	}
	return "major"
}

var pitchClassNames = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// PitchClassName returns the note name of a pitch class (0=C .. 11=B).
func PitchClassName(pc int) string {
	return pitchClassNames[((pc%12)+12)%12]
}

// Key is an estimated tonic and mode.
type Key struct {
	Tonic int     `json:"tonic"` // 0=C .. 11=B
	Mode  KeyMode `json:"mode"`
	// Confidence is the profile correlation that selected this key.
	Confidence float64 `json:"confidence"`
}

// Name returns a human-readable key name, e.g. "G minor".
func (k Key) Name() string {
	return PitchClassName(k.Tonic) + " " + k.Mode.String()
}

// FormLabel is the large-scale section pattern of the piece.
type FormLabel string

const (
	FormBinary             FormLabel = "binary"
	FormTernary            FormLabel = "ternary"
	FormRondo              FormLabel = "rondo"
	FormSonata             FormLabel = "sonata"
	FormThemeAndVariations FormLabel = "theme_and_variations"
	FormUnclassified       FormLabel = "unclassified"
)

// SectionBoundary marks the start of one lettered section.
type SectionBoundary struct {
	StartBeat float64 `json:"start_beat"`
	Letter    string  `json:"letter"`
}

// FormClassification is the matched form template, or unclassified.
type FormClassification struct {
	Label             FormLabel         `json:"label"`
	SectionBoundaries []SectionBoundary `json:"section_boundaries"`
}

// RhythmProfile is the dominant onset periodicity of the piece.
type RhythmProfile struct {
	PeriodBeats float64 `json:"period_beats"`
	// Strength is the autocorrelation at the dominant period,
	// normalized to the zero-lag value (0-1).
	Strength float64 `json:"strength"`
}

// IssueCode classifies a non-fatal analysis condition.
type IssueCode string

const (
	// IssueAnalysisIncomplete means a stage ran but could not produce a
	// confident result; the corresponding field is left empty.
	IssueAnalysisIncomplete IssueCode = "analysis_incomplete"
	// IssueDegradedQuality means a stage produced a low-confidence
	// result against a configured threshold.
	IssueDegradedQuality IssueCode = "degraded_quality"
)

// Issue is one non-fatal condition recorded on an Analysis.
type Issue struct {
	Code   IssueCode `json:"code"`
	Stage  string    `json:"stage"`
	Detail string    `json:"detail"`
}

// Analysis aggregates the outputs of every stage. It is a pure value
// created fresh per invocation; callers must treat it as immutable.
type Analysis struct {
	Motifs   []Motif            `json:"motifs"`
	Phrases  []Phrase           `json:"phrases"`
	Chords   []Chord            `json:"chords"`
	Cadences []Cadence          `json:"cadences"`
	Key      *Key               `json:"key,omitempty"`
	Form     FormClassification `json:"form"`
	Rhythm   *RhythmProfile     `json:"rhythm,omitempty"`
	Issues   []Issue            `json:"issues,omitempty"`
}

// HasIssue reports whether an issue with the given code was recorded.
func (a *Analysis) HasIssue(code IssueCode) bool {
	for _, issue := range a.Issues {
		if issue.Code == code {
			return true
		}
	}
	return false
}
