package generator

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"neo-midi/midi"
)

// Loop emits random notes from a scale until its context is cancelled
type Loop struct {
	Rand  *rand.Rand
	Sleep func(time.Duration)
	// Emit is called after each event reaches the sink
	Emit func(midi.Event)
}

// NewLoop returns a loop with a time-seeded source and a real sleep
func NewLoop(emit func(midi.Event)) *Loop {
	seed := uint64(time.Now().UnixNano())
	return &Loop{
		Rand:  rand.New(rand.NewPCG(seed, seed>>1|1)),
		Sleep: time.Sleep,
		Emit:  emit,
	}
}

// Next picks the note, velocity and sounding time for one iteration
func (l *Loop) Next(p Params) (note, velocity uint8, d time.Duration) {
	note = p.Notes[l.Rand.IntN(len(p.Notes))]
	velocity = p.MinVelocity + uint8(l.Rand.IntN(int(p.MaxVelocity)-int(p.MinVelocity)+1))
	d = time.Duration(float64(BeatDuration(p.Tempo)) * (0.5 + l.Rand.Float64()))
	return note, velocity, d
}

// Run sends note-on/note-off pairs to sink. Cancellation is observed only
// between notes: a note that has started always gets its note-off.
// A sink error ends the loop and is returned; the caller owns the sink.
func (l *Loop) Run(ctx context.Context, sink midi.Sink, p Params) error {
	for ctx.Err() == nil {
		note, velocity, d := l.Next(p)

		if err := sink.NoteOn(note, velocity); err != nil {
			return fmt.Errorf("note on %d: %w", note, err)
		}
		l.emit(midi.Event{Type: midi.NoteOn, Note: note, Velocity: velocity})

		l.Sleep(d)

		if err := sink.NoteOff(note); err != nil {
			return fmt.Errorf("note off %d: %w", note, err)
		}
		l.emit(midi.Event{Type: midi.NoteOff, Note: note})
	}
	return nil
}

func (l *Loop) emit(e midi.Event) {
	if l.Emit != nil {
		l.Emit(e)
	}
}
