// Package midifile decodes Standard MIDI Files into the engine's
// composition model. It is the supplier side of the engine contract:
// all file I/O and format handling stops here, and the engine receives
// a validated Composition value.
package midifile

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"

	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/tylerforesthauser/pianist-sub000/model"
)

// ErrUnsupportedTimeFormat is returned for SMPTE-timed files; only
// metric (ticks-per-quarter) timing maps onto beats.
var ErrUnsupportedTimeFormat = errors.New("unsupported MIDI time format, expected metric ticks")

// Read loads and decodes a MIDI file from disk.
func Read(path string) (comp *model.Composition, err error) {
	// The SMF parser can panic on malformed input.
	// https://github.com/gomidi/midi/issues/20
	defer func() {
		if r, ok := recover().(string); ok {
			err = errors.New(r)
		}
	}()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading midi file: %w", err)
	}

	s, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing midi file: %w", err)
	}

	return Decode(s, path)
}

// Decode converts a parsed SMF into a Composition. Ticks become beats
// by dividing through the file's ticks-per-quarter resolution.
func Decode(s *smf.SMF, title string) (*model.Composition, error) {
	metric, ok := s.TimeFormat.(smf.MetricTicks)
	if !ok {
		return nil, ErrUnsupportedTimeFormat
	}
	ticksPerQuarter := float64(metric)

	comp := &model.Composition{
		Title:         title,
		TempoBPM:      120.0,
		TimeSignature: model.TimeSignature{Numerator: 4, Denominator: 4},
	}

	tempoSeen := false
	for _, events := range s.Tracks {
		track := decodeTrack(events, ticksPerQuarter, comp, &tempoSeen)
		if len(track.Events) > 0 {
			comp.Tracks = append(comp.Tracks, track)
		}
	}
	return comp, nil
}

// pendingNote is a sounding note awaiting its note-off.
type pendingNote struct {
	startTick int64
	velocity  uint8
}

func decodeTrack(events smf.Track, ticksPerQuarter float64, comp *model.Composition, tempoSeen *bool) model.Track {
	var track model.Track
	pending := make(map[uint8]pendingNote)
	var absTicks int64

	toBeat := func(ticks int64) float64 { return float64(ticks) / ticksPerQuarter }

	closeNote := func(key uint8, endTick int64) {
		p, ok := pending[key]
		if !ok || endTick <= p.startTick {
			return
		}
		delete(pending, key)
		track.Events = append(track.Events, model.NoteEvent{
			StartBeat:    toBeat(p.startTick),
			DurationBeat: toBeat(endTick - p.startTick),
			Pitches:      []uint8{key},
			Velocity:     p.velocity,
		})
	}

	for _, event := range events {
		absTicks += int64(event.Delta)
		msg := event.Message

		var channel, key, velocity, controller, value uint8
		var bpm float64
		var text string
		var num, denom uint8

		switch {
		case msg.GetNoteOn(&channel, &key, &velocity):
			// Note-off is often encoded as note-on with velocity 0.
			if velocity == 0 {
				closeNote(key, absTicks)
				continue
			}
			closeNote(key, absTicks)
			pending[key] = pendingNote{startTick: absTicks, velocity: velocity}

		case msg.GetNoteOff(&channel, &key, &velocity):
			closeNote(key, absTicks)

		case msg.GetControlChange(&channel, &controller, &value):
			if controller == 64 { // sustain pedal
				track.Events = append(track.Events, model.PedalEvent{
					StartBeat: toBeat(absTicks),
					Down:      value >= 64,
				})
			}

		case msg.GetMetaTempo(&bpm):
			if !*tempoSeen {
				comp.TempoBPM = bpm
				*tempoSeen = true
			} else {
				track.Events = append(track.Events, model.TempoEvent{
					StartBeat: toBeat(absTicks),
					BPM:       bpm,
				})
			}

		case msg.GetMetaMarker(&text):
			track.Events = append(track.Events, model.SectionMarker{
				StartBeat: toBeat(absTicks),
				Label:     text,
			})

		case msg.GetMetaTrackName(&text):
			track.Name = text

		case msg.GetMetaMeter(&num, &denom):
			comp.TimeSignature = model.TimeSignature{Numerator: int(num), Denominator: int(denom)}
		}
	}

	// Close anything still sounding at end of track.
	for _, key := range sortedPendingKeys(pending) {
		closeNote(key, absTicks)
	}

	sort.SliceStable(track.Events, func(i, j int) bool {
		return track.Events[i].Start() < track.Events[j].Start()
	})
	return track
}

// sortedPendingKeys keeps the close order deterministic; map iteration
// order is not.
func sortedPendingKeys(pending map[uint8]pendingNote) []uint8 {
	keys := make([]uint8, 0, len(pending))
	for k := range pending {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
