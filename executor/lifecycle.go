// Package executor drives the approve and swap transaction flows through an
// explicit lifecycle: idle → submitting → pending → confirming → confirmed,
// with failed reachable from submitting and pending.
package executor

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/RaghavSood/swapdesk/tracker"
)

// State is a transaction lifecycle state.
type State int

const (
	StateIdle State = iota
	StateSubmitting
	StatePending
	StateConfirming
	StateConfirmed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StatePending:
		return "pending"
	case StateConfirming:
		return "confirming"
	case StateConfirmed:
		return "confirmed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Snapshot is a point-in-time view of a lifecycle, safe to read from any
// goroutine.
type Snapshot struct {
	State  State
	TxHash string
	Err    string
}

// Loading reports whether the transaction is anywhere between submission and
// confirmation.
func (s Snapshot) Loading() bool {
	return s.State == StateSubmitting || s.State == StatePending || s.State == StateConfirming
}

func (s Snapshot) Confirming() bool { return s.State == StateConfirming }
func (s Snapshot) Confirmed() bool  { return s.State == StateConfirmed }

// Watcher observes a submitted transaction until its receipt lands.
// tracker.Tracker satisfies it.
type Watcher interface {
	Watch(hash common.Hash, desc string, cb func(tracker.Outcome))
}

// machine is the mutable lifecycle owned by a single executor.
type machine struct {
	mu    sync.Mutex
	state State
	hash  common.Hash
	err   string
}

func (m *machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := Snapshot{State: m.state, Err: m.err}
	if m.hash != (common.Hash{}) {
		snap.TxHash = m.hash.Hex()
	}
	return snap
}

func (m *machine) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = StateIdle
	m.hash = common.Hash{}
	m.err = ""
}

func (m *machine) toSubmitting() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = StateSubmitting
	m.hash = common.Hash{}
	m.err = ""
}

func (m *machine) toPending(hash common.Hash) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = StatePending
	m.hash = hash
}

func (m *machine) toConfirming() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StatePending {
		m.state = StateConfirming
	}
}

func (m *machine) toConfirmed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = StateConfirmed
}

func (m *machine) fail(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = StateFailed
	m.err = reason
}

// setError records an error without a state transition, used for
// precondition violations that never submit a transaction.
func (m *machine) setError(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = reason
}
