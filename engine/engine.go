// Package engine orchestrates the structural analysis of a
// composition: motif detection, phrase segmentation, harmonic
// analysis, rhythm profiling, and form classification, aggregated into
// a single Analysis value.
//
// The engine is pure and deterministic: every stage is a function of
// the composition and the config, no stage mutates shared state, and
// the only fatal condition is a malformed composition. Everything else
// degrades to partial results plus issue codes, because absence of a
// structural feature is information, not failure.
package engine

import (
	"errors"
	"fmt"

	"github.com/tylerforesthauser/pianist-sub000/algorithms/form"
	"github.com/tylerforesthauser/pianist-sub000/algorithms/harmony"
	"github.com/tylerforesthauser/pianist-sub000/algorithms/motif"
	"github.com/tylerforesthauser/pianist-sub000/algorithms/phrase"
	"github.com/tylerforesthauser/pianist-sub000/algorithms/rhythm"
	"github.com/tylerforesthauser/pianist-sub000/logging"
	"github.com/tylerforesthauser/pianist-sub000/model"
)

// ErrInvalidComposition is returned when the composition cannot be
// analyzed at all: no tracks, or no note events anywhere. The engine
// refuses to run rather than return a misleading empty Analysis.
var ErrInvalidComposition = errors.New("invalid composition")

// Analyzer runs the full analysis pipeline.
type Analyzer struct {
	config    *Config
	motifs    *motif.Detector
	segmenter *phrase.Segmenter
	harmonic  *harmony.Analyzer
	profiler  *rhythm.Profiler
	forms     *form.Classifier
	logger    logging.Logger
}

// NewAnalyzer creates an analyzer. A nil config selects the defaults.
func NewAnalyzer(config *Config) *Analyzer {
	if config == nil {
		config = DefaultConfig()
	}
	return &Analyzer{
		config:    config,
		motifs:    motif.NewDetectorWithParams(config.Motif),
		segmenter: phrase.NewSegmenterWithParams(config.Phrase),
		harmonic:  harmony.NewAnalyzerWithParams(config.Harmony),
		profiler:  rhythm.NewProfilerWithParams(config.Rhythm),
		forms:     form.NewClassifierWithParams(config.Form),
		logger: logging.WithFields(logging.Fields{
			"component": "analysis_engine",
		}),
	}
}

// Analyze runs every stage against the composition and aggregates one
// Analysis. The composition is treated as read-only throughout.
func (a *Analyzer) Analyze(comp *model.Composition) (*model.Analysis, error) {
	if err := validate(comp); err != nil {
		return nil, err
	}
	return a.AnalyzeWithContext(comp, NewAnalysisContext(comp))
}

// AnalyzeWithContext is Analyze with a caller-prepared context, for
// callers that analyze the same composition more than once and want to
// reuse the projections.
func (a *Analyzer) AnalyzeWithContext(comp *model.Composition, ctx *AnalysisContext) (*model.Analysis, error) {
	if err := validate(comp); err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = NewAnalysisContext(comp)
	}

	a.logger.Debug("starting analysis", logging.Fields{
		"title":  comp.Title,
		"tracks": len(comp.Tracks),
		"notes":  len(ctx.Notes),
	})

	analysis := &model.Analysis{}

	// Motif detection, phrase segmentation, harmonic analysis and
	// rhythm profiling are mutually independent; they run in sequence
	// here but share nothing beyond the read-only context.
	motifRes := a.motifs.Detect(ctx.Lines)
	analysis.Motifs = motifRes.Motifs

	analysis.Phrases = a.segmenter.Segment(ctx.Notes, ctx.Markers)

	harmonicRes := a.harmonic.Analyze(ctx.Notes, analysis.Phrases)
	analysis.Chords = harmonicRes.Chords
	analysis.Key = harmonicRes.Key
	analysis.Cadences = harmonicRes.Cadences

	analysis.Rhythm = a.profiler.Profile(ctx.Notes)

	// Form classification consumes the other stages' outputs.
	analysis.Form = a.forms.Classify(analysis.Phrases, analysis.Motifs, analysis.Chords, ctx.Markers)

	a.collectIssues(analysis, motifRes, len(ctx.Notes))

	a.logger.Info("analysis complete", logging.Fields{
		"motifs":  len(analysis.Motifs),
		"phrases": len(analysis.Phrases),
		"chords":  len(analysis.Chords),
		"form":    analysis.Form.Label,
		"issues":  len(analysis.Issues),
	})
	return analysis, nil
}

// validate enforces the input invariant: at least one track holding at
// least one note event.
func validate(comp *model.Composition) error {
	if comp == nil {
		return fmt.Errorf("%w: nil composition", ErrInvalidComposition)
	}
	if len(comp.Tracks) == 0 {
		return fmt.Errorf("%w: no tracks", ErrInvalidComposition)
	}
	for _, track := range comp.Tracks {
		for _, ev := range track.Events {
			if _, ok := ev.(model.NoteEvent); ok {
				return nil
			}
		}
	}
	return fmt.Errorf("%w: no note events in any track", ErrInvalidComposition)
}

// collectIssues records the non-fatal conditions of this run in a
// fixed stage order so identical runs report identical issue lists.
func (a *Analyzer) collectIssues(analysis *model.Analysis, motifRes motif.Result, noteCount int) {
	add := func(code model.IssueCode, stage, detail string) {
		analysis.Issues = append(analysis.Issues, model.Issue{Code: code, Stage: stage, Detail: detail})
		a.logger.Warn("analysis issue", logging.Fields{
			"code":   code,
			"stage":  stage,
			"detail": detail,
		})
	}

	if len(analysis.Motifs) == 0 && motifRes.LongestLine >= a.config.Motif.MinLen*2 {
		add(model.IssueAnalysisIncomplete, "motif", "no recurring material despite sufficient notes")
	}
	if len(analysis.Chords) < 2 {
		add(model.IssueDegradedQuality, "harmony", "fewer than 2 chords detected")
	}
	if analysis.Key == nil {
		add(model.IssueAnalysisIncomplete, "harmony", "key undetermined")
	}
	if analysis.Rhythm == nil && noteCount >= 16 {
		add(model.IssueAnalysisIncomplete, "rhythm", "no dominant onset periodicity")
	}
	if analysis.Form.Label == model.FormUnclassified {
		add(model.IssueAnalysisIncomplete, "form", "no form template matched")
	}
}
