package ipc

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayout_Offsets(t *testing.T) {
	l := DefaultLayout()
	require.NoError(t, l.Validate())

	testCases := []struct {
		name string
		got  int
		want int
	}{
		{"waiter 0 front", l.WaiterFront(0), 100},
		{"waiter 0 rear", l.WaiterRear(0), 101},
		{"waiter 0 food ready", l.WaiterFoodReady(0), 102},
		{"waiter 0 pending", l.WaiterPending(0), 103},
		{"waiter 0 first slot", l.WaiterSlot(0, 0), 104},
		{"waiter 2 front", l.WaiterFront(2), 500},
		{"waiter 4 pending", l.WaiterPending(4), 903},
		{"cook front", l.CookFront(), 1100},
		{"cook rear", l.CookRear(), 1101},
		{"cook first slot", l.CookSlot(0), 1102},
		{"cook second slot", l.CookSlot(1), 1105},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.got)
		})
	}
}

func TestLayout_Spill(t *testing.T) {
	l := DefaultLayout()
	assert.Equal(t, 4, l.Spill())
	assert.Equal(t, 100, l.WaiterCapacity())
	assert.Equal(t, 98, l.WaiterUsableSlots())
	// the last usable slot still ends inside the area
	assert.Less(t, l.WaiterSlot(0, l.WaiterUsableSlots()-1)+1, l.WaiterFront(1))
	assert.True(t, l.WaiterSlotFits(0, 97))
	assert.False(t, l.WaiterSlotFits(0, 98))
	assert.False(t, l.WaiterSlotFits(4, 99))

	l.WaiterAreaSize = 204
	l.CookQueueStart = 1120
	assert.Equal(t, 0, l.Spill())
	assert.Equal(t, 100, l.WaiterUsableSlots())
	assert.True(t, l.WaiterSlotFits(4, 99))
	assert.NoError(t, l.Validate())
}

func TestLayout_Validate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(l *Layout)
	}{
		{"no waiters", func(l *Layout) { l.NumWaiters = 0 }},
		{"tiny queue", func(l *Layout) { l.QueueSize = 1 }},
		{"waiters overrun cook queue", func(l *Layout) { l.NumWaiters = 6 }},
		{"cook queue overruns region", func(l *Layout) { l.Words = 1200 }},
		{"waiter area over fixed cells", func(l *Layout) { l.WaiterAreaStart = 2 }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			l := DefaultLayout()
			tc.mutate(&l)
			assert.ErrorIs(t, l.Validate(), ErrInvalidLayout)
		})
	}
}

func TestSignal_PostBeforeWait(t *testing.T) {
	b := NewBank(1, 1)
	s, err := b.Signal(CookPoolIndex)
	require.NoError(t, err)

	require.NoError(t, s.Post())
	require.NoError(t, s.Post())
	assert.Equal(t, 2, s.Value())
	require.NoError(t, s.Wait())
	require.NoError(t, s.Wait())
	assert.Equal(t, 0, s.Value())
}

func TestSignal_SharedWaitersAllWake(t *testing.T) {
	b := NewBank(1, 1)
	s, err := b.Signal(CookPoolIndex)
	require.NoError(t, err)

	const waiters = 4
	var wg sync.WaitGroup
	woke := make(chan struct{}, waiters)
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.Wait() == nil {
				woke <- struct{}{}
			}
		}()
	}
	for i := 0; i < waiters; i++ {
		require.NoError(t, s.Post())
	}
	wg.Wait()
	assert.Len(t, woke, waiters)
}

func TestSignal_Close(t *testing.T) {
	b := NewBank(1, 2)
	s, err := b.Signal(b.CustomerIndex(1))
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- s.Wait() }()
	s.Close()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrSignalClosed)
	case <-time.After(time.Second):
		t.Fatal("waiter not released by Close")
	}

	// a pending post still wins over the close
	require.NoError(t, s.Post())
	assert.NoError(t, s.Wait())
}

func TestBank_RemoveFaultsWaiters(t *testing.T) {
	b := NewBank(2, 3)
	done := make(chan error, 1)
	go func() { done <- b.Wait(b.WaiterIndex(1)) }()
	b.Remove()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrRemoved)
	case <-time.After(time.Second):
		t.Fatal("waiter not faulted by Remove")
	}
	assert.True(t, b.Removed())
	assert.ErrorIs(t, b.Acquire(), ErrRemoved)
	assert.ErrorIs(t, b.Post(CookPoolIndex), ErrRemoved)
	assert.Equal(t, int64(0), b.Outstanding())
}

func TestBank_Indices(t *testing.T) {
	b := NewBank(5, 200)
	assert.Equal(t, 2+5+200, b.Len())
	assert.Equal(t, 2, b.WaiterIndex(0))
	assert.Equal(t, 6, b.WaiterIndex(4))
	assert.Equal(t, 7, b.CustomerIndex(0))
	_, err := b.Signal(b.Len())
	assert.Error(t, err)
}

func TestBank_MutexExcludes(t *testing.T) {
	b := NewBank(1, 1)
	r := NewRegion(1)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, b.Acquire())
			v := r.Load(0)
			r.Store(0, v+1)
			assert.NoError(t, b.Release())
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(50), r.Load(0))
}

func TestBank_Outstanding(t *testing.T) {
	b := NewBank(1, 1)
	b.Track()
	require.NoError(t, b.Post(b.WaiterIndex(0)))
	assert.Equal(t, int64(2), b.Outstanding())
	require.NoError(t, b.Wait(b.WaiterIndex(0)))
	b.Done()
	b.Done()
	assert.Equal(t, int64(0), b.Outstanding())
}

func TestBank_Retire(t *testing.T) {
	b := NewBank(2, 1)
	require.NoError(t, b.Post(b.WaiterIndex(0)))
	require.NoError(t, b.Post(b.WaiterIndex(0)))
	require.NoError(t, b.Post(b.WaiterIndex(1)))
	assert.Equal(t, int64(3), b.Outstanding())

	require.NoError(t, b.Retire(b.WaiterIndex(0)))
	assert.Equal(t, int64(1), b.Outstanding())

	// later posts to a retired signal are delivered but not tracked
	require.NoError(t, b.Post(b.WaiterIndex(0)))
	assert.Equal(t, int64(1), b.Outstanding())
	s, err := b.Signal(b.WaiterIndex(0))
	require.NoError(t, err)
	assert.Equal(t, 3, s.Value())
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	key := Key("/tmp", 42)
	assert.Equal(t, "/tmp:42", key)

	_, err := r.Attach(key)
	assert.ErrorIs(t, err, ErrNoSegment)

	seg, err := r.Create(key, DefaultLayout(), 200)
	require.NoError(t, err)
	assert.Equal(t, 2000, seg.Region.Len())

	_, err = r.Create(key, DefaultLayout(), 200)
	assert.ErrorIs(t, err, ErrSegmentExists)

	attached, err := r.Attach(key)
	require.NoError(t, err)
	assert.Same(t, seg, attached)

	r.Remove(key)
	assert.True(t, seg.Bank.Removed())
	_, err = r.Attach(key)
	assert.ErrorIs(t, err, ErrNoSegment)
}
