// Package netwatch provides a poll-based network reachability monitor.
//
// The monitor probes connectivity on a fixed interval and emits discrete
// online/offline transition events over a channel. Consumers subscribe to
// transitions rather than observing a level, so a flapping link produces a
// bounded stream of edges instead of repeated identical states.
package netwatch

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"
)

// DefaultInterval is the probe interval used when none is configured.
const DefaultInterval = 15 * time.Second

// Prober reports whether the network currently looks reachable.
type Prober func(ctx context.Context) bool

// TCPProber returns a Prober that dials the given address with a timeout.
// addr should be host:port of the sync remote (or any reliable endpoint).
func TCPProber(addr string, timeout time.Duration) Prober {
	return func(ctx context.Context) bool {
		d := net.Dialer{Timeout: timeout}
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			return false
		}
		conn.Close()
		return true
	}
}

// Transition is a single connectivity edge.
type Transition struct {
	// Online is the new connectivity state.
	Online bool

	// At is when the transition was observed.
	At time.Time
}

// Monitor polls a Prober and emits Transition events on state changes.
type Monitor struct {
	prober   Prober
	interval time.Duration

	events chan Transition
	done   chan struct{}
	wg     sync.WaitGroup

	mu      sync.Mutex
	running bool
	online  bool
}

// New creates a Monitor. The monitor must be started with Start() before
// it will emit events. A zero interval uses DefaultInterval.
func New(prober Prober, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Monitor{
		prober:   prober,
		interval: interval,
		events:   make(chan Transition, 8),
		done:     make(chan struct{}),
	}
}

// Start performs an initial probe to establish the baseline state and
// begins polling in the background.
func (m *Monitor) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return fmt.Errorf("monitor already running")
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.interval)
	m.online = m.prober(ctx)
	cancel()

	m.running = true
	m.wg.Add(1)
	go m.poll()

	return nil
}

// Stop stops polling and closes the events channel. It blocks until the
// polling goroutine has exited. Stopping a stopped monitor is a no-op.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	m.mu.Unlock()

	close(m.done)
	m.wg.Wait()
	close(m.events)
}

// Events returns the channel emitting connectivity transitions.
// The channel is closed when the monitor is stopped.
func (m *Monitor) Events() <-chan Transition {
	return m.events
}

// Online returns the most recently observed connectivity state.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

func (m *Monitor) poll() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), m.interval)
			online := m.prober(ctx)
			cancel()

			m.mu.Lock()
			changed := online != m.online
			m.online = online
			m.mu.Unlock()

			if !changed {
				continue
			}

			select {
			case m.events <- Transition{Online: online, At: time.Now()}:
			case <-m.done:
				return
			}
		}
	}
}
