/*
 * Copyright (c) 2019 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package runqueue

import (
	"runtime"
	"sync"

	"github.com/inventario/credvault/log"
)

// RunQueue executes posted functions one at a time, in posting order.
type RunQueue struct {
	name    string
	mu      sync.Mutex
	queue   []func()
	running bool
	stopped bool
	stopCb  func()
}

// New returns an initialized run queue.
func New(name string) *RunQueue {
	return &RunQueue{name: name}
}

// Run pushes a new operation function into the queue.
// Functions pushed after Stop are discarded.
func (m *RunQueue) Run(fn func()) {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.queue = append(m.queue, fn)
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.mu.Unlock()

	go m.process()
}

// Stop signals the queue to stop running.
//
// stopCb is invoked once every previously scheduled function has been executed, or
// immediately if the queue is idle.
func (m *RunQueue) Stop(stopCb func()) {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	if m.running {
		m.stopCb = stopCb
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	if stopCb != nil {
		stopCb()
	}
}

func (m *RunQueue) process() {
	for {
		m.mu.Lock()
		if len(m.queue) == 0 {
			m.running = false
			cb := m.stopCb
			m.stopCb = nil
			m.mu.Unlock()

			if cb != nil {
				cb()
			}
			return
		}
		fn := m.queue[0]
		m.queue[0] = nil
		m.queue = m.queue[1:]
		m.mu.Unlock()

		m.run(fn)
	}
}

func (m *RunQueue) run(fn func()) {
	defer func() {
		if err := recover(); err != nil {
			m.logStackTrace(err)
		}
	}()
	fn()
}

func (m *RunQueue) logStackTrace(err interface{}) {
	stackSlice := make([]byte, 4096)
	s := runtime.Stack(stackSlice, false)

	log.Errorf("runqueue '%s' panicked with error: %v\n%s", m.name, err, stackSlice[0:s])
}
