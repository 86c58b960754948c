// Package rhythm measures the dominant onset periodicity of a
// composition. It samples note onsets into a fixed-resolution density
// series and autocorrelates it through the FFT, which keeps the pass
// near-linear even for long pieces.
package rhythm

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"github.com/tylerforesthauser/pianist-sub000/model"
)

// Params contains the sampling constants of the rhythm profile.
type Params struct {
	// ResolutionBeats is the bin width of the onset-density series.
	ResolutionBeats float64 `json:"resolution_beats"`

	// MinPeriodBeats is the shortest periodicity worth reporting;
	// anything below it is onset granularity, not rhythm.
	MinPeriodBeats float64 `json:"min_period_beats"`
}

// DefaultParams returns sensible defaults for rhythm profiling.
func DefaultParams() Params {
	return Params{
		ResolutionBeats: 0.25,
		MinPeriodBeats:  0.5,
	}
}

// Profiler computes onset-periodicity profiles.
type Profiler struct {
	params Params
}

// NewProfiler creates a profiler with default parameters.
func NewProfiler() *Profiler {
	return NewProfilerWithParams(DefaultParams())
}

// NewProfilerWithParams creates a profiler with custom parameters.
func NewProfilerWithParams(params Params) *Profiler {
	if params.ResolutionBeats <= 0 {
		params.ResolutionBeats = DefaultParams().ResolutionBeats
	}
	return &Profiler{params: params}
}

// Profile returns the dominant onset period, or nil when the material
// is too short or too irregular for one.
func (p *Profiler) Profile(notes []model.NoteEvent) *model.RhythmProfile {
	series := p.onsetDensity(notes)
	if len(series) < 4 {
		return nil
	}

	corr := autocorrelate(series)
	if corr[0] <= 0 {
		return nil
	}

	minLag := int(math.Ceil(p.params.MinPeriodBeats / p.params.ResolutionBeats))
	if minLag < 1 {
		minLag = 1
	}
	maxLag := len(series) / 2

	bestLag, bestVal := 0, 0.0
	for lag := minLag; lag <= maxLag; lag++ {
		if corr[lag] > bestVal {
			bestLag, bestVal = lag, corr[lag]
		}
	}
	if bestLag == 0 {
		return nil
	}

	return &model.RhythmProfile{
		PeriodBeats: float64(bestLag) * p.params.ResolutionBeats,
		Strength:    bestVal / corr[0],
	}
}

// onsetDensity counts note onsets per resolution bin across the active
// span, mean-removed so a uniform density carries no periodicity.
func (p *Profiler) onsetDensity(notes []model.NoteEvent) []float64 {
	if len(notes) == 0 {
		return nil
	}
	first := notes[0].StartBeat
	last := first
	for _, n := range notes {
		if n.StartBeat > last {
			last = n.StartBeat
		}
	}

	bins := int((last-first)/p.params.ResolutionBeats) + 1
	series := make([]float64, bins)
	for _, n := range notes {
		idx := int((n.StartBeat - first) / p.params.ResolutionBeats)
		series[idx]++
	}

	mean := 0.0
	for _, v := range series {
		mean += v
	}
	mean /= float64(bins)
	for i := range series {
		series[i] -= mean
	}
	return series
}

// autocorrelate computes the autocorrelation by the Wiener-Khinchin
// route: zero-pad to double length, forward FFT, power spectrum,
// inverse FFT.
func autocorrelate(series []float64) []float64 {
	padded := make([]float64, 2*len(series))
	copy(padded, series)

	spectrum := fft.FFTReal(padded)
	for i, c := range spectrum {
		spectrum[i] = c * cmplx.Conj(c)
	}
	inverse := fft.IFFT(spectrum)

	corr := make([]float64, len(series))
	for i := range corr {
		corr[i] = real(inverse[i])
	}
	return corr
}
