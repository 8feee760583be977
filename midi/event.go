package midi

import "fmt"

// MIDI message types
const (
	NoteOn  uint8 = 0x90
	NoteOff uint8 = 0x80
)

// Event is one note message sent to a sink
type Event struct {
	Type     uint8 // NoteOn, NoteOff
	Note     uint8
	Velocity uint8
}

func (e Event) String() string {
	if e.Type == NoteOn {
		return fmt.Sprintf("Note On: %d, Velocity: %d", e.Note, e.Velocity)
	}
	return fmt.Sprintf("Note Off: %d", e.Note)
}

// noteNames for readable pitch labels
var noteNames = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteName converts MIDI note to readable name (e.g., "C4", "F#3")
func NoteName(note uint8) string {
	octave := int(note)/12 - 1
	return fmt.Sprintf("%s%d", noteNames[note%12], octave)
}
