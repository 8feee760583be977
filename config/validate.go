package config

import (
	"fmt"
	"slices"
)

// Keys lists the musical keys the generator knows about
var Keys = []string{"C", "D", "E", "F", "G", "A", "B"}

// APINames lists the selectable data sources, in dropdown order
var APINames = []string{
	"Near-Earth Object (NEO)",
	"Mars Rover Photos",
	"Astronomy Picture of the Day (APOD)",
}

// ValidationError reports a settings field that cannot drive generation
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validate checks ranges and enums. The API key is not checked here;
// an empty key is a start-time failure, not a settings one.
func (s Settings) Validate() error {
	if !slices.Contains(APINames, s.SelectedAPI) {
		return &ValidationError{Field: "selected_api", Reason: fmt.Sprintf("unknown API %q", s.SelectedAPI)}
	}
	if !slices.Contains(Keys, s.Key) {
		return &ValidationError{Field: "key", Reason: fmt.Sprintf("unknown key %q", s.Key)}
	}
	if err := checkRange("midi_note", s.MinMIDINote, s.MaxMIDINote); err != nil {
		return err
	}
	if err := checkRange("midi_velocity", s.MinMIDIVelocity, s.MaxMIDIVelocity); err != nil {
		return err
	}
	if s.Tempo <= 0 {
		return &ValidationError{Field: "tempo", Reason: fmt.Sprintf("must be positive, got %d", s.Tempo)}
	}
	return nil
}

func checkRange(name string, lo, hi int) error {
	if lo < 0 || lo > 127 {
		return &ValidationError{Field: "min_" + name, Reason: fmt.Sprintf("%d outside 0-127", lo)}
	}
	if hi < 0 || hi > 127 {
		return &ValidationError{Field: "max_" + name, Reason: fmt.Sprintf("%d outside 0-127", hi)}
	}
	if lo > hi {
		return &ValidationError{Field: name, Reason: fmt.Sprintf("min %d greater than max %d", lo, hi)}
	}
	return nil
}
