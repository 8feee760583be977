package generator

import (
	"context"
	"errors"
	"sync"

	"neo-midi/config"
	"neo-midi/debug"
	"neo-midi/midi"
	"neo-midi/nasa"
)

var (
	// ErrBusy is returned by Start while a worker is active
	ErrBusy = errors.New("generation already running")
	// ErrMissingAPIKey is returned by Start when no API key is set
	ErrMissingAPIKey = errors.New("NASA API key is required")
	// ErrNotRunning is returned by Stop when no worker is active
	ErrNotRunning = errors.New("generation not running")
)

// State is the lifecycle position of a Session
type State int

const (
	Idle State = iota
	Fetching
	Generating
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Fetching:
		return "fetching"
	case Generating:
		return "generating"
	}
	return "unknown"
}

// Fetcher gates generation on an external data fetch
type Fetcher interface {
	Fetch(ctx context.Context, r nasa.Request) error
}

// Option configures a Session
type Option func(*Session)

// WithLoopFactory replaces how each run builds its Loop
func WithLoopFactory(f func(emit func(midi.Event)) *Loop) Option {
	return func(s *Session) {
		s.newLoop = f
	}
}

// WithErrorHook is called with every error that ends a run
func WithErrorHook(hook func(error)) Option {
	return func(s *Session) {
		s.onError = hook
	}
}

// WithSinkWrapper decorates the sink after it is opened
func WithSinkWrapper(wrap func(midi.Sink, Params) midi.Sink) Option {
	return func(s *Session) {
		s.wrapSink = wrap
	}
}

// Session owns at most one generation worker and its start/stop lifecycle
type Session struct {
	fetcher Fetcher
	opener  midi.Opener
	journal *Journal

	newLoop  func(emit func(midi.Event)) *Loop
	onError  func(error)
	wrapSink func(midi.Sink, Params) midi.Sink

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSession wires a session to its collaborators
func NewSession(fetcher Fetcher, opener midi.Opener, journal *Journal, opts ...Option) *Session {
	s := &Session{
		fetcher: fetcher,
		opener:  opener,
		journal: journal,
		newLoop: NewLoop,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current lifecycle state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start validates settings and spawns the worker. On any error no worker
// is started and the session stays Idle.
func (s *Session) Start(settings config.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Idle {
		s.journal.Printf("Error: MIDI generation is already running.")
		return ErrBusy
	}
	if settings.APIKey == "" {
		s.journal.Printf("Error: NASA API Key is required.")
		return ErrMissingAPIKey
	}
	params, err := NewParams(settings)
	if err != nil {
		s.journal.Printf("Error: %v", err)
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	s.state = Fetching
	debug.Log("session", "state -> %s", Fetching)

	go s.run(ctx, settings, params, s.done)
	return nil
}

// Stop signals the worker and blocks until it has finished its current note
func (s *Session) Stop() error {
	s.mu.Lock()
	if s.state == Idle {
		s.mu.Unlock()
		return ErrNotRunning
	}
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	s.journal.Printf("Stop signal sent. Waiting for MIDI generation to halt...")
	cancel()
	<-done
	s.journal.Printf("MIDI generation worker has stopped.")
	return nil
}

// Wait blocks until the active worker, if any, exits
func (s *Session) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	if st == Idle && s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()
	debug.Log("session", "state -> %s", st)
	s.journal.notify()
}

func (s *Session) fail(err error) {
	debug.Error("session", err, "run failed")
	if s.onError != nil {
		s.onError(err)
	}
}

func (s *Session) run(ctx context.Context, settings config.Settings, params Params, done chan struct{}) {
	defer close(done)
	defer s.setState(Idle)

	s.journal.Printf("Fetching data from %s...", settings.SelectedAPI)
	err := s.fetcher.Fetch(ctx, nasa.Request{
		API:       settings.SelectedAPI,
		APIKey:    settings.APIKey,
		StartDate: settings.StartDate,
		EndDate:   settings.EndDate,
	})
	// A stop during the fetch ends the run before any port is opened
	if ctx.Err() != nil {
		s.journal.Printf("Stopped before MIDI generation began.")
		return
	}
	if err != nil {
		s.journal.Printf("Error fetching data from NASA API: %v", err)
		s.journal.Printf("No data fetched. Exiting MIDI generation.")
		s.fail(err)
		return
	}

	sink, err := s.opener.Open(settings.SelectedMIDIPort)
	if err != nil {
		s.journal.Printf("Error connecting to MIDI port: %v", err)
		s.fail(err)
		return
	}
	if s.wrapSink != nil {
		sink = s.wrapSink(sink, params)
	}
	s.journal.Printf("Connected to MIDI port: %s", portLabel(settings.SelectedMIDIPort))

	s.setState(Generating)
	s.journal.Printf("Generating MIDI notes...")

	loop := s.newLoop(func(e midi.Event) {
		s.journal.Printf("%s", e)
	})
	if err := loop.Run(ctx, sink, params); err != nil {
		s.journal.Printf("Error during MIDI generation: %v", err)
		s.fail(err)
	}

	if err := sink.Close(); err != nil {
		s.journal.Printf("Error closing MIDI port: %v", err)
		debug.Error("session", err, "close sink")
	}
	s.journal.Printf("MIDI generation stopped. MIDI port closed.")
}

func portLabel(name string) string {
	if name == "" {
		return "(first available)"
	}
	return name
}
