package midi

import (
	"errors"
	"fmt"
	"sync"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"neo-midi/debug"
)

// recordTicks is the resolution of recorded files
const recordTicks = smf.MetricTicks(960)

type stampedEvent struct {
	at  time.Duration
	evt Event
}

// Recorder passes events through to another sink and writes everything it
// saw to a Standard MIDI File when closed
type Recorder struct {
	inner Sink
	path  string
	tempo int
	now   func() time.Time

	mu     sync.Mutex
	start  time.Time
	events []stampedEvent
}

// NewRecorder wraps inner; tempo is written as the file's tempo
func NewRecorder(inner Sink, path string, tempo int) *Recorder {
	return &Recorder{
		inner: inner,
		path:  path,
		tempo: tempo,
		now:   time.Now,
	}
}

func (r *Recorder) record(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := r.now()
	if r.start.IsZero() {
		r.start = t
	}
	r.events = append(r.events, stampedEvent{at: t.Sub(r.start), evt: e})
}

func (r *Recorder) NoteOn(note, velocity uint8) error {
	if err := r.inner.NoteOn(note, velocity); err != nil {
		return err
	}
	r.record(Event{Type: NoteOn, Note: note, Velocity: velocity})
	return nil
}

func (r *Recorder) NoteOff(note uint8) error {
	if err := r.inner.NoteOff(note); err != nil {
		return err
	}
	r.record(Event{Type: NoteOff, Note: note})
	return nil
}

// Close closes the wrapped sink, then writes the file
func (r *Recorder) Close() error {
	closeErr := r.inner.Close()
	writeErr := r.write()
	return errors.Join(closeErr, writeErr)
}

func (r *Recorder) write() error {
	r.mu.Lock()
	events := r.events
	r.mu.Unlock()

	sm := smf.New()
	sm.TimeFormat = recordTicks

	var track smf.Track
	track.Add(0, smf.MetaMeter(4, 4))
	track.Add(0, smf.MetaTempo(float64(r.tempo)))

	var last uint32
	for _, se := range events {
		abs := recordTicks.Ticks(float64(r.tempo), se.at)
		delta := abs - last
		if abs < last {
			delta = 0
		}
		last = max(abs, last)

		var msg gomidi.Message
		if se.evt.Type == NoteOn {
			msg = gomidi.NoteOn(0, se.evt.Note, se.evt.Velocity)
		} else {
			msg = gomidi.NoteOff(0, se.evt.Note)
		}
		track.Add(delta, msg)
	}
	track.Close(0)

	if err := sm.Add(track); err != nil {
		return fmt.Errorf("add track: %w", err)
	}
	if err := sm.WriteFile(r.path); err != nil {
		return fmt.Errorf("write %s: %w", r.path, err)
	}
	debug.Log("record", "wrote %d events to %s", len(events), r.path)
	return nil
}
