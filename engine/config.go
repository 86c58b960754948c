package engine

import (
	"github.com/tylerforesthauser/pianist-sub000/algorithms/form"
	"github.com/tylerforesthauser/pianist-sub000/algorithms/harmony"
	"github.com/tylerforesthauser/pianist-sub000/algorithms/motif"
	"github.com/tylerforesthauser/pianist-sub000/algorithms/phrase"
	"github.com/tylerforesthauser/pianist-sub000/algorithms/rhythm"
)

// Config aggregates the per-stage parameters. Every heuristic constant
// of the engine lives here; identical input and config always produce
// an identical Analysis.
type Config struct {
	Motif   motif.Params   `json:"motif"`
	Phrase  phrase.Params  `json:"phrase"`
	Harmony harmony.Params `json:"harmony"`
	Form    form.Params    `json:"form"`
	Rhythm  rhythm.Params  `json:"rhythm"`
}

// DefaultConfig returns the default parameters of every stage.
func DefaultConfig() *Config {
	return &Config{
		Motif:   motif.DefaultParams(),
		Phrase:  phrase.DefaultParams(),
		Harmony: harmony.DefaultParams(),
		Form:    form.DefaultParams(),
		Rhythm:  rhythm.DefaultParams(),
	}
}
