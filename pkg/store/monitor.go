package store

import (
	"context"
	"log"
	"sync"
	"time"
)

// Monitor periodically verifies the handle, reconnecting when it is
// Disconnected or Degraded. OnReconnect runs whenever the store becomes
// reachable again, whether through a new generation or a Degraded connection
// that recovered, and on every healthy round while backlog reports work left.
type Monitor struct {
	handle      *Handle
	interval    time.Duration
	onReconnect func(ctx context.Context)
	backlog     func() bool

	backgroundWg sync.WaitGroup
	stopChan     chan struct{}
	stopOnce     sync.Once
	lastGen      uint64
	healthy      bool
}

// NewMonitor creates a monitor. It does nothing until Start. backlog may be
// nil.
func NewMonitor(handle *Handle, interval time.Duration, onReconnect func(ctx context.Context), backlog func() bool) *Monitor {
	return &Monitor{
		handle:      handle,
		interval:    interval,
		onReconnect: onReconnect,
		backlog:     backlog,
		stopChan:    make(chan struct{}),
		lastGen:     handle.Generation(),
		healthy:     handle.State() == Connected,
	}
}

// Start launches the background worker. A zero interval disables it.
func (m *Monitor) Start() {
	if m.interval <= 0 {
		return
	}

	m.backgroundWg.Add(1)
	go func() {
		defer m.backgroundWg.Done()
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				m.Check(context.Background())
			case <-m.stopChan:
				return
			}
		}
	}()
}

// Stop stops the worker and waits for an in-flight check to finish.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopChan)
	})
	m.backgroundWg.Wait()
}

// Check runs one verification round.
func (m *Monitor) Check(ctx context.Context) {
	state := m.handle.State()
	if state != Connected {
		m.healthy = false
	}
	switch state {
	case Connected:
		if err := m.handle.Ping(ctx); err != nil {
			log.Printf("WARN: Store health check failed: %v", err)
		}
	case Connecting:
		// Someone else is already connecting.
	default:
		if err := m.handle.EnsureConnected(ctx); err != nil {
			log.Printf("WARN: Store reconnect failed: %v", err)
		}
	}

	gen := m.handle.Generation()
	if m.handle.State() != Connected {
		m.healthy = false
		return
	}

	notify := false
	switch {
	case gen != m.lastGen:
		log.Printf("INFO: Store generation advanced to %d", gen)
		notify = true
	case !m.healthy:
		log.Printf("INFO: Store recovered on generation %d", gen)
		notify = true
	case m.backlog != nil && m.backlog():
		notify = true
	}
	m.lastGen = gen
	m.healthy = true
	if notify && m.onReconnect != nil {
		m.onReconnect(ctx)
	}
}
