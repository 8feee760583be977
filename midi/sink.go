package midi

import (
	"context"
	"errors"
	"fmt"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver

	"neo-midi/debug"
)

var (
	// ErrPortNotFound is returned when no output port has the requested name
	ErrPortNotFound = errors.New("midi output port not found")
	// ErrScanTimeout is returned when the driver does not answer a port scan
	ErrScanTimeout = errors.New("midi port scan timed out")
)

// scanTimeout guards against CoreMIDI hanging on enumeration
const scanTimeout = 3 * time.Second

// Sink receives note events. Implementations are used from one goroutine.
type Sink interface {
	NoteOn(note, velocity uint8) error
	NoteOff(note uint8) error
	Close() error
}

// Opener opens a sink by port name
type Opener interface {
	Open(name string) (Sink, error)
}

// OpenerFunc adapts a function to Opener
type OpenerFunc func(name string) (Sink, error)

func (f OpenerFunc) Open(name string) (Sink, error) {
	return f(name)
}

// OutPorts lists output port names, giving up after scanTimeout
func OutPorts(ctx context.Context) ([]string, error) {
	ch := make(chan []string, 1)
	go func() {
		var names []string
		for _, p := range gomidi.GetOutPorts() {
			names = append(names, p.String())
		}
		ch <- names
	}()

	select {
	case names := <-ch:
		return names, nil
	case <-time.After(scanTimeout):
		// CoreMIDI is hung - user needs to run: sudo killall coreaudiod midiserver
		return nil, ErrScanTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// PortOpener opens hardware or virtual ports through the registered driver
type PortOpener struct {
	Channel uint8
}

// Open finds the output port with the exact name and opens it.
// An empty name selects the first available port.
func (o PortOpener) Open(name string) (Sink, error) {
	outs := gomidi.GetOutPorts()

	var out drivers.Out
	for _, p := range outs {
		if name == "" || p.String() == name {
			out = p
			break
		}
	}
	if out == nil {
		if name == "" {
			return nil, fmt.Errorf("%w: no ports available", ErrPortNotFound)
		}
		return nil, fmt.Errorf("%w: %q", ErrPortNotFound, name)
	}

	send, err := gomidi.SendTo(out)
	if err != nil {
		return nil, fmt.Errorf("open output %q: %w", out.String(), err)
	}
	debug.Log("midi", "opened output %q", out.String())

	return &portSink{out: out, send: send, channel: o.Channel}, nil
}

type portSink struct {
	out     drivers.Out
	send    func(msg gomidi.Message) error
	channel uint8
}

func (s *portSink) NoteOn(note, velocity uint8) error {
	return s.send(gomidi.NoteOn(s.channel, note, velocity))
}

func (s *portSink) NoteOff(note uint8) error {
	return s.send(gomidi.NoteOff(s.channel, note))
}

func (s *portSink) Close() error {
	debug.Log("midi", "closing output %q", s.out.String())
	return s.out.Close()
}

// CloseDriver releases the registered driver; call once at exit
func CloseDriver() {
	gomidi.CloseDriver()
}
