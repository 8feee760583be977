package midi

import (
	"context"
	"slices"
	"sync"
	"time"

	"neo-midi/debug"
)

// PortsChanged is emitted when the set of output ports differs from the last scan
type PortsChanged struct {
	Ports []string
}

// PortWatcher handles hot-plug detection of MIDI output ports
type PortWatcher struct {
	ports    []string
	mu       sync.RWMutex
	events   chan PortsChanged
	pollRate time.Duration
	list     func(ctx context.Context) ([]string, error)
}

// NewPortWatcher creates a watcher backed by the registered driver
func NewPortWatcher() *PortWatcher {
	return newPortWatcher(OutPorts, time.Second)
}

func newPortWatcher(list func(ctx context.Context) ([]string, error), pollRate time.Duration) *PortWatcher {
	return &PortWatcher{
		events:   make(chan PortsChanged, 16),
		pollRate: pollRate,
		list:     list,
	}
}

// Events returns a channel of port list changes
func (pw *PortWatcher) Events() <-chan PortsChanged {
	return pw.events
}

// Ports returns a snapshot of the last scan
func (pw *PortWatcher) Ports() []string {
	pw.mu.RLock()
	defer pw.mu.RUnlock()
	return slices.Clone(pw.ports)
}

// Run starts the polling loop (blocking - run in goroutine)
func (pw *PortWatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(pw.pollRate)
	defer ticker.Stop()

	// Initial scan
	pw.scan(ctx)

	for {
		select {
		case <-ctx.Done():
			close(pw.events)
			return
		case <-ticker.C:
			pw.scan(ctx)
		}
	}
}

func (pw *PortWatcher) scan(ctx context.Context) {
	ports, err := pw.list(ctx)
	if err != nil {
		// skip this scan, keep the previous list
		debug.Log("ports", "scan failed: %v", err)
		return
	}

	pw.mu.Lock()
	changed := !slices.Equal(pw.ports, ports)
	if changed {
		pw.ports = slices.Clone(ports)
	}
	pw.mu.Unlock()

	if !changed {
		debug.LogEvery(60, "ports", "no change, %d outputs", len(ports))
		return
	}

	debug.Log("ports", "outputs now %v", ports)
	select {
	case pw.events <- PortsChanged{Ports: slices.Clone(ports)}:
	case <-ctx.Done():
	}
}
