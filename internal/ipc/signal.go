package ipc

import (
	"errors"
	"sync"
)

var (
	// ErrRemoved is returned by every primitive operation once the bank has
	// been removed.
	ErrRemoved = errors.New("ipc: primitive bank removed")
	// ErrSignalClosed is returned by Wait when the signal was force-released
	// with no post left to consume.
	ErrSignalClosed = errors.New("ipc: signal closed")
)

// Signal is a counting semaphore. Post never blocks; Wait blocks until a post
// is available and consumes exactly one.
type Signal struct {
	mu        sync.Mutex
	count     int
	wake      chan struct{}
	closed    chan struct{}
	closeOnce sync.Once
	removed   <-chan struct{}
	retired   bool
}

func newSignal(initial int, removed <-chan struct{}) *Signal {
	return &Signal{
		count:   initial,
		wake:    make(chan struct{}, 1),
		closed:  make(chan struct{}),
		removed: removed,
	}
}

func (s *Signal) Post() error {
	_, err := s.post()
	return err
}

// post reports whether the post still counts as outstanding work, which it
// does not once the owner has retired.
func (s *Signal) post() (bool, error) {
	select {
	case <-s.removed:
		return false, ErrRemoved
	default:
	}
	s.mu.Lock()
	s.count++
	tracked := !s.retired
	s.mu.Unlock()
	s.notify()
	return tracked, nil
}

// retire marks that nobody will wait here again and returns the posts left
// unconsumed.
func (s *Signal) retire() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retired = true
	return s.count
}

func (s *Signal) Wait() error {
	for {
		select {
		case <-s.removed:
			return ErrRemoved
		default:
		}
		if s.take() {
			return nil
		}
		select {
		case <-s.wake:
		case <-s.removed:
			return ErrRemoved
		case <-s.closed:
			if s.take() {
				return nil
			}
			return ErrSignalClosed
		}
	}
}

// Close force-releases current and future waiters once no posts remain.
func (s *Signal) Close() {
	s.closeOnce.Do(func() { close(s.closed) })
}

// Value returns the number of posts not yet consumed.
func (s *Signal) Value() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

func (s *Signal) take() bool {
	s.mu.Lock()
	if s.count == 0 {
		s.mu.Unlock()
		return false
	}
	s.count--
	more := s.count > 0
	s.mu.Unlock()
	// pass the wakeup on so a second waiter on a shared signal is not stranded
	if more {
		s.notify()
	}
	return true
}

func (s *Signal) notify() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}
