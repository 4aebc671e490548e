package ipc

import (
	"errors"
	"fmt"
)

// Fixed cells at the start of the region.
const (
	ClockCell       = 0
	TablesCell      = 1
	CursorCell      = 2
	PendingCookCell = 3
	// ClosingCookCell holds the id of the cook that claimed the closing cascade,
	// or NoValue. Words 4..99 are not used by the published layout.
	ClosingCookCell = 4
)

// NoValue marks an empty food-ready slot or an unclaimed closing cook.
const NoValue int64 = -1

const (
	waiterHeaderWords = 4
	waiterSlotWords   = 2
	cookHeaderWords   = 2
	cookSlotWords     = 3
)

var ErrInvalidLayout = errors.New("invalid region layout")

// Layout describes where every shared field lives in the region. All actors
// attached to the same key must agree on it word for word.
type Layout struct {
	Words           int
	NumWaiters      int
	QueueSize       int
	WaiterAreaStart int
	WaiterAreaSize  int
	CookQueueStart  int
}

func DefaultLayout() Layout {
	return Layout{
		Words:           2000,
		NumWaiters:      5,
		QueueSize:       100,
		WaiterAreaStart: 100,
		WaiterAreaSize:  200,
		CookQueueStart:  1100,
	}
}

func (l Layout) WaiterArea(w int) int {
	return l.WaiterAreaStart + w*l.WaiterAreaSize
}

func (l Layout) WaiterFront(w int) int { return l.WaiterArea(w) }
func (l Layout) WaiterRear(w int) int { return l.WaiterArea(w) + 1 }
func (l Layout) WaiterFoodReady(w int) int { return l.WaiterArea(w) + 2 }
func (l Layout) WaiterPending(w int) int { return l.WaiterArea(w) + 3 }
func (l Layout) WaiterQueueStart(w int) int { return l.WaiterArea(w) + waiterHeaderWords }
func (l Layout) WaiterSlot(w, slot int) int { return l.WaiterQueueStart(w) + slot*waiterSlotWords }
func (l Layout) CookFront() int { return l.CookQueueStart }
func (l Layout) CookRear() int { return l.CookQueueStart + 1 }
func (l Layout) CookQueueData() int { return l.CookQueueStart + cookHeaderWords }
func (l Layout) CookSlot(slot int) int { return l.CookQueueData() + slot*cookSlotWords }
func (l Layout) CookCapacity() int { return l.QueueSize }
func (l Layout) waiterAreaEnd(w int) int { return l.WaiterArea(w) + l.WaiterAreaSize }
func (l Layout) waiterQueueWords(slots int) int { return waiterHeaderWords + slots*waiterSlotWords }

// WaiterCapacity is the ring modulus of a waiter queue.
func (l Layout) WaiterCapacity() int { return l.QueueSize }

// WaiterUsableSlots counts the leading queue slots that lie inside a waiter's
// own area. Later slots overlap the next area.
func (l Layout) WaiterUsableSlots() int {
	fit := (l.WaiterAreaSize - waiterHeaderWords) / waiterSlotWords
	return min(l.QueueSize, fit)
}

// WaiterSlotFits reports whether every word of slot lies inside waiter w's area.
func (l Layout) WaiterSlotFits(w, slot int) bool {
	return l.WaiterSlot(w, slot)+waiterSlotWords <= l.waiterAreaEnd(w)
}

// Spill reports how many words a waiter queue holding QueueSize slots would
// write past the end of its own area. Zero means the areas do not overlap.
func (l Layout) Spill() int {
	return max(0, l.waiterQueueWords(l.QueueSize)-l.WaiterAreaSize)
}

// Validate rejects layouts whose areas cannot coexist in the region.
func (l Layout) Validate() error {
	switch {
	case l.NumWaiters <= 0:
		return fmt.Errorf("%w: num waiters %d", ErrInvalidLayout, l.NumWaiters)
	case l.QueueSize < 2:
		return fmt.Errorf("%w: queue size %d", ErrInvalidLayout, l.QueueSize)
	case l.WaiterAreaStart <= ClosingCookCell:
		return fmt.Errorf("%w: waiter area starts at %d, inside the fixed cells", ErrInvalidLayout, l.WaiterAreaStart)
	case l.WaiterUsableSlots() < 2:
		return fmt.Errorf("%w: waiter area of %d words holds no queue", ErrInvalidLayout, l.WaiterAreaSize)
	}
	if end := l.waiterAreaEnd(l.NumWaiters - 1); end > l.CookQueueStart {
		return fmt.Errorf("%w: waiter areas end at %d, past cook queue start %d", ErrInvalidLayout, end, l.CookQueueStart)
	}
	if end := l.CookSlot(l.CookCapacity()); end > l.Words {
		return fmt.Errorf("%w: cook queue ends at %d, region has %d words", ErrInvalidLayout, end, l.Words)
	}
	return nil
}

// Field is one row of the layout table.
type Field struct {
	Offset int
	Name   string
}

// Fields lists the layout contract in offset order.
func (l Layout) Fields() []Field {
	fields := []Field{
		{ClockCell, "SimulationClock"},
		{TablesCell, "TableCapacity"},
		{CursorCell, "WaiterAssignmentCursor"},
		{PendingCookCell, "GlobalPendingOrderCount"},
		{ClosingCookCell, "ClosingCook"},
	}
	for w := 0; w < l.NumWaiters; w++ {
		fields = append(fields,
			Field{l.WaiterFront(w), fmt.Sprintf("WaiterState[%d].front", w)},
			Field{l.WaiterRear(w), fmt.Sprintf("WaiterState[%d].rear", w)},
			Field{l.WaiterFoodReady(w), fmt.Sprintf("WaiterState[%d].foodReadySlot", w)},
			Field{l.WaiterPending(w), fmt.Sprintf("WaiterState[%d].pendingOrders", w)},
			Field{l.WaiterQueueStart(w), fmt.Sprintf("WaiterState[%d].queue (%d slots x %d words, %d inside the area)", w, l.WaiterCapacity(), waiterSlotWords, l.WaiterUsableSlots())},
		)
	}
	return append(fields,
		Field{l.CookFront(), "CookQueue.front"},
		Field{l.CookRear(), "CookQueue.rear"},
		Field{l.CookQueueData(), fmt.Sprintf("CookQueue.data (%d slots x %d words)", l.CookCapacity(), cookSlotWords)},
	)
}
