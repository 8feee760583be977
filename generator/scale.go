package generator

import (
	"fmt"
	"slices"
	"time"

	"neo-midi/config"
)

// scales maps a key letter to one octave of its major scale
var scales = map[string][8]uint8{
	"C": {60, 62, 64, 65, 67, 69, 71, 72},
	"D": {62, 64, 66, 67, 69, 71, 73, 74},
	"E": {64, 66, 68, 69, 71, 73, 75, 76},
	"F": {65, 67, 69, 70, 72, 74, 76, 77},
	"G": {67, 69, 71, 72, 74, 76, 78, 79},
	"A": {69, 71, 73, 74, 76, 78, 80, 81},
	"B": {71, 73, 75, 76, 78, 80, 82, 83},
}

// Scale returns the notes for key, or false if the key is unknown
func Scale(key string) ([]uint8, bool) {
	s, ok := scales[key]
	if !ok {
		return nil, false
	}
	return s[:], true
}

// BeatDuration is the length of one beat at tempo bpm
func BeatDuration(tempo int) time.Duration {
	return time.Minute / time.Duration(tempo)
}

// Params is everything the loop needs, already validated
type Params struct {
	Notes       []uint8
	MinVelocity uint8
	MaxVelocity uint8
	Tempo       int
}

// NewParams validates s and resolves its scale. The scale is narrowed to
// the notes inside [MinMIDINote, MaxMIDINote].
func NewParams(s config.Settings) (Params, error) {
	if err := s.Validate(); err != nil {
		return Params{}, err
	}

	scale, _ := Scale(s.Key)
	notes := slices.DeleteFunc(slices.Clone(scale), func(n uint8) bool {
		return int(n) < s.MinMIDINote || int(n) > s.MaxMIDINote
	})
	if len(notes) == 0 {
		return Params{}, &config.ValidationError{
			Field:  "midi_note",
			Reason: fmt.Sprintf("range %d-%d contains no note of key %s", s.MinMIDINote, s.MaxMIDINote, s.Key),
		}
	}

	return Params{
		Notes:       notes,
		MinVelocity: uint8(s.MinMIDIVelocity),
		MaxVelocity: uint8(s.MaxMIDIVelocity),
		Tempo:       s.Tempo,
	}, nil
}
