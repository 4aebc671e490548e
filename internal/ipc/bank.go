package ipc

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Primitive indices.
const (
	MutexIndex      = 0
	CookPoolIndex   = 1
	WaiterIndexBase = 2
)

// Bank is the fixed set of synchronization primitives shared by a session:
// one mutex guarding the whole region, one cook-pool signal, one signal per
// waiter and one per possible customer id.
//
// The bank also counts outstanding work: every tracked post adds a token and
// every handled wake returns one, so the launcher can tell when nothing is
// left in flight.
type Bank struct {
	numWaiters   int
	maxCustomers int
	signals      []*Signal
	removed      chan struct{}
	removeOnce   sync.Once
	outstanding  atomic.Int64
}

func NewBank(numWaiters, maxCustomers int) *Bank {
	b := &Bank{
		numWaiters:   numWaiters,
		maxCustomers: maxCustomers,
		removed:      make(chan struct{}),
	}
	total := WaiterIndexBase + numWaiters + maxCustomers
	b.signals = make([]*Signal, total)
	b.signals[MutexIndex] = newSignal(1, b.removed)
	for i := 1; i < total; i++ {
		b.signals[i] = newSignal(0, b.removed)
	}
	return b
}

func (b *Bank) Len() int {
	return len(b.signals)
}

func (b *Bank) WaiterIndex(w int) int {
	return WaiterIndexBase + w
}

func (b *Bank) CustomerIndex(id int) int {
	return WaiterIndexBase + b.numWaiters + id
}

func (b *Bank) Signal(index int) (*Signal, error) {
	if index < 0 || index >= len(b.signals) {
		return nil, fmt.Errorf("ipc: primitive index %d out of range [0,%d)", index, len(b.signals))
	}
	return b.signals[index], nil
}

// Acquire takes the global mutex.
func (b *Bank) Acquire() error {
	if err := b.signals[MutexIndex].Wait(); err != nil {
		return fmt.Errorf("acquire mutex: %w", err)
	}
	return nil
}

// Release gives the global mutex back.
func (b *Bank) Release() error {
	if err := b.signals[MutexIndex].Post(); err != nil {
		return fmt.Errorf("release mutex: %w", err)
	}
	return nil
}

// Post signals the primitive at index and records one unit of outstanding
// work for whoever consumes it.
func (b *Bank) Post(index int) error {
	s, err := b.Signal(index)
	if err != nil {
		return err
	}
	b.outstanding.Add(1)
	tracked, err := s.post()
	if !tracked {
		b.outstanding.Add(-1)
	}
	if err != nil {
		return fmt.Errorf("post %d: %w", index, err)
	}
	return nil
}

// Retire is called by an actor that leaves for good while others may still
// post to its private signal. Posts already waiting there and any later ones
// stop counting as outstanding work.
func (b *Bank) Retire(index int) error {
	s, err := b.Signal(index)
	if err != nil {
		return err
	}
	b.outstanding.Add(-int64(s.retire()))
	return nil
}

func (b *Bank) Wait(index int) error {
	s, err := b.Signal(index)
	if err != nil {
		return err
	}
	if err := s.Wait(); err != nil {
		return fmt.Errorf("wait %d: %w", index, err)
	}
	return nil
}

// Track records work that was started without a post.
func (b *Bank) Track() {
	b.outstanding.Add(1)
}

// Done returns one unit of outstanding work.
func (b *Bank) Done() {
	b.outstanding.Add(-1)
}

func (b *Bank) Outstanding() int64 {
	return b.outstanding.Load()
}

// CloseCustomers force-releases every customer signal.
func (b *Bank) CloseCustomers() {
	for id := 0; id < b.maxCustomers; id++ {
		b.signals[b.CustomerIndex(id)].Close()
	}
}

// Remove destroys the bank. Blocked and future operations fail with
// ErrRemoved.
func (b *Bank) Remove() {
	b.removeOnce.Do(func() { close(b.removed) })
}

func (b *Bank) Removed() bool {
	select {
	case <-b.removed:
		return true
	default:
		return false
	}
}
