package natstransport

import (
	"context"
	"sync"
)

// mailbox is an unbounded FIFO of payloads from one source rank.
//
// put never blocks, so a source whose payloads are not being read cannot
// stall delivery from the other ranks on the shared subscription goroutine.
type mailbox struct {
	mu     sync.Mutex
	queue  [][]byte
	signal chan struct{} // capacity 1, set while queue may be non-empty
	warnAt int
	warned bool
}

func newMailbox(capacity int) *mailbox {
	return &mailbox{
		queue:  make([][]byte, 0, capacity),
		signal: make(chan struct{}, 1),
		warnAt: capacity,
	}
}

// put appends payload and reports whether the backlog just reached warnAt.
func (m *mailbox) put(payload []byte) (backlogged bool) {
	m.mu.Lock()
	m.queue = append(m.queue, payload)
	if len(m.queue) >= m.warnAt && !m.warned {
		m.warned = true
		backlogged = true
	}
	m.mu.Unlock()

	m.notify()

	return backlogged
}

// take removes the oldest payload, waiting until one arrives, done is closed,
// or ctx ends.
func (m *mailbox) take(ctx context.Context, done <-chan struct{}) ([]byte, bool, error) {
	for {
		if payload, ok := m.pop(); ok {
			return payload, true, nil
		}

		select {
		case <-m.signal:
		case <-done:
			return nil, false, nil
		case <-ctx.Done():
			return nil, false, ctx.Err()
		}
	}
}

func (m *mailbox) pop() ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.queue) == 0 {
		return nil, false
	}

	payload := m.queue[0]
	m.queue[0] = nil
	m.queue = m.queue[1:]
	if len(m.queue) == 0 {
		m.warned = false
	} else {
		// Another receiver of the same source may be parked on signal.
		m.notify()
	}

	return payload, true
}

func (m *mailbox) pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.queue)
}

func (m *mailbox) notify() {
	select {
	case m.signal <- struct{}{}:
	default:
	}
}
