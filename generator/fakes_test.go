package generator

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"neo-midi/midi"
	"neo-midi/nasa"
)

type fakeFetcher struct {
	mu    sync.Mutex
	calls []nasa.Request
	err   error
	block chan struct{} // if set, Fetch waits on it or ctx
}

func (f *fakeFetcher) Fetch(ctx context.Context, r nasa.Request) error {
	f.mu.Lock()
	f.calls = append(f.calls, r)
	f.mu.Unlock()

	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.err
}

func (f *fakeFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeSink struct {
	mu     sync.Mutex
	events []midi.Event
	closed bool
	failAt int // 1-based call index that fails; 0 never fails
	calls  int
}

var errSinkWrite = errors.New("sink write failed")

func (s *fakeSink) send(e midi.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.failAt > 0 && s.calls == s.failAt {
		return errSinkWrite
	}
	s.events = append(s.events, e)
	return nil
}

func (s *fakeSink) NoteOn(note, velocity uint8) error {
	return s.send(midi.Event{Type: midi.NoteOn, Note: note, Velocity: velocity})
}

func (s *fakeSink) NoteOff(note uint8) error {
	return s.send(midi.Event{Type: midi.NoteOff, Note: note})
}

func (s *fakeSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeSink) Events() []midi.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]midi.Event(nil), s.events...)
}

func (s *fakeSink) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type fakeOpener struct {
	mu     sync.Mutex
	sink   *fakeSink
	err    error
	opened []string
}

func (o *fakeOpener) Open(name string) (midi.Sink, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.opened = append(o.opened, name)
	if o.err != nil {
		return nil, o.err
	}
	return o.sink, nil
}

func (o *fakeOpener) Opened() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.opened...)
}

// fastLoop plays real-time-independent notes, pausing 1ms per note
func fastLoop(emit func(midi.Event)) *Loop {
	return &Loop{
		Rand:  rand.New(rand.NewPCG(7, 11)),
		Sleep: func(time.Duration) { time.Sleep(time.Millisecond) },
		Emit:  emit,
	}
}
