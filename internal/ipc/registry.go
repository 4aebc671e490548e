package ipc

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrNoSegment     = errors.New("ipc: no segment for key")
	ErrSegmentExists = errors.New("ipc: segment already exists for key")
)

// Key derives the identifier every actor uses to find the shared segment.
func Key(path string, projID int) string {
	return fmt.Sprintf("%s:%d", path, projID)
}

// Segment is a shared region together with its primitive bank.
type Segment struct {
	Key    string
	Layout Layout
	Region *Region
	Bank   *Bank
}

// Registry hands out segments by key. Creating is reserved to the launcher;
// everyone else attaches.
type Registry struct {
	mu       sync.Mutex
	segments map[string]*Segment
}

var DefaultRegistry = NewRegistry()

func NewRegistry() *Registry {
	return &Registry{segments: make(map[string]*Segment)}
}

func (r *Registry) Create(key string, layout Layout, maxCustomers int) (*Segment, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	if maxCustomers <= 0 {
		return nil, fmt.Errorf("ipc: max customers must be positive, got %d", maxCustomers)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.segments[key]; ok {
		return nil, fmt.Errorf("%w: %s", ErrSegmentExists, key)
	}
	seg := &Segment{
		Key:    key,
		Layout: layout,
		Region: NewRegion(layout.Words),
		Bank:   NewBank(layout.NumWaiters, maxCustomers),
	}
	r.segments[key] = seg
	return seg, nil
}

func (r *Registry) Attach(key string) (*Segment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seg, ok := r.segments[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSegment, key)
	}
	return seg, nil
}

// Remove destroys the segment for key, faulting every actor still attached.
// Removing a missing key is a no-op.
func (r *Registry) Remove(key string) {
	r.mu.Lock()
	seg, ok := r.segments[key]
	delete(r.segments, key)
	r.mu.Unlock()
	if ok {
		seg.Bank.Remove()
	}
}
