package simulator

import (
	"errors"
	"fmt"

	"github.com/chrisdamba/dinesim/internal/ipc"
	"github.com/chrisdamba/dinesim/internal/models"
)

var (
	ErrQueueFull     = errors.New("queue full")
	ErrTableOverflow = errors.New("table capacity overflow")
)

// Rules are the session parameters the store enforces.
type Rules struct {
	MaxTables int64
	CloseAt   int64
}

// Seating is the answer to a customer asking for a table.
type Seating struct {
	Outcome string // models.EventSeated, EventRejectedClosed or EventRejectedNoTable
	Waiter  int
	Clock   int64
	Tables  int64
}

type CookRequest struct {
	WaiterID   int
	CustomerID int
	PartySize  int64
}

type WaiterAction int

const (
	WaiterIdle WaiterAction = iota
	WaiterClose
	WaiterServe
	WaiterTake
)

// WaiterDecision is what a waiter does after one wake. Drain is set once the
// closing cascade has run, so the waiter has to keep waking itself to empty
// its own queue.
type WaiterDecision struct {
	Action     WaiterAction
	CustomerID int
	PartySize  int64
	Clock      int64
	Drain      bool
}

type CookAction int

const (
	CookIdle CookAction = iota
	CookClose
	CookPrepare
)

// CookDecision is what a cook does after one wake. Last is set for the one
// cook that claimed the closing cascade.
type CookDecision struct {
	Action  CookAction
	Last    bool
	Request CookRequest
	Clock   int64
}

// Store is the only way to touch the shared region. Every exported method is
// a single critical section under the bank mutex.
type Store struct {
	region *ipc.Region
	layout ipc.Layout
	bank   *ipc.Bank
	rules  Rules
}

func NewStore(seg *ipc.Segment, rules Rules) *Store {
	return &Store{
		region: seg.Region,
		layout: seg.Layout,
		bank:   seg.Bank,
		rules:  rules,
	}
}

func (s *Store) critical(fn func() error) error {
	if err := s.bank.Acquire(); err != nil {
		return err
	}
	fnErr := fn()
	if err := s.bank.Release(); err != nil {
		return errors.Join(fnErr, err)
	}
	return fnErr
}

// Seed writes the opening state: clock 0, every table free, cursor on the
// first waiter, all queues empty.
func (s *Store) Seed() error {
	return s.critical(func() error {
		s.region.Store(ipc.ClockCell, 0)
		s.region.Store(ipc.TablesCell, s.rules.MaxTables)
		s.region.Store(ipc.CursorCell, 0)
		s.region.Store(ipc.PendingCookCell, 0)
		s.region.Store(ipc.ClosingCookCell, ipc.NoValue)
		for w := 0; w < s.layout.NumWaiters; w++ {
			s.region.Store(s.layout.WaiterFront(w), 0)
			s.region.Store(s.layout.WaiterRear(w), 0)
			s.region.Store(s.layout.WaiterFoodReady(w), ipc.NoValue)
			s.region.Store(s.layout.WaiterPending(w), 0)
		}
		s.region.Store(s.layout.CookFront(), 0)
		s.region.Store(s.layout.CookRear(), 0)
		return nil
	})
}

func (s *Store) Now() (int64, error) {
	var now int64
	err := s.critical(func() error {
		now = s.region.Load(ipc.ClockCell)
		return nil
	})
	return now, err
}

// MergeClock raises the clock to t if t is later, and returns the clock.
func (s *Store) MergeClock(t int64) (int64, error) {
	var now int64
	err := s.critical(func() error {
		now = s.mergeClockLocked(t)
		return nil
	})
	return now, err
}

func (s *Store) mergeClockLocked(t int64) int64 {
	now := s.region.Load(ipc.ClockCell)
	if t > now {
		s.region.Store(ipc.ClockCell, t)
		return t
	}
	return now
}

func (s *Store) Seat(a models.Arrival) (Seating, error) {
	st := Seating{Waiter: -1}
	err := s.critical(func() error {
		st.Clock = s.mergeClockLocked(a.ArrivalTime)
		st.Tables = s.region.Load(ipc.TablesCell)
		if st.Clock >= s.rules.CloseAt {
			st.Outcome = models.EventRejectedClosed
			return nil
		}
		if st.Tables <= 0 {
			st.Outcome = models.EventRejectedNoTable
			return nil
		}
		w := int(s.region.Load(ipc.CursorCell))
		if err := s.pushWaiterLocked(w, a.CustomerID, a.PartySize); err != nil {
			return err
		}
		st.Tables--
		s.region.Store(ipc.TablesCell, st.Tables)
		s.region.Store(ipc.CursorCell, int64((w+1)%s.layout.NumWaiters))
		st.Waiter = w
		st.Outcome = models.EventSeated
		return nil
	})
	return st, err
}

// ReleaseTable frees one table and returns the free table count and clock.
func (s *Store) ReleaseTable() (tables, clock int64, err error) {
	err = s.critical(func() error {
		tables = s.region.Load(ipc.TablesCell)
		clock = s.region.Load(ipc.ClockCell)
		if tables >= s.rules.MaxTables {
			return fmt.Errorf("%w: %d of %d tables already free", ErrTableOverflow, tables, s.rules.MaxTables)
		}
		tables++
		s.region.Store(ipc.TablesCell, tables)
		return nil
	})
	return tables, clock, err
}

// WaiterDispatch evaluates, in priority order, what waiter w does on a wake:
// close, serve a ready dish, take the next order, or nothing.
func (s *Store) WaiterDispatch(w int) (WaiterDecision, error) {
	var d WaiterDecision
	err := s.critical(func() error {
		d.Clock = s.region.Load(ipc.ClockCell)
		pending := s.region.Load(s.layout.WaiterPending(w))
		closed := d.Clock >= s.rules.CloseAt
		if closed && pending == 0 {
			d.Action = WaiterClose
			return nil
		}
		d.Drain = closed && s.region.Load(ipc.ClosingCookCell) != ipc.NoValue
		if ready := s.region.Load(s.layout.WaiterFoodReady(w)); ready != ipc.NoValue {
			s.region.Store(s.layout.WaiterFoodReady(w), ipc.NoValue)
			d.Action = WaiterServe
			d.CustomerID = int(ready)
			return nil
		}
		if pending > 0 {
			id, size := s.popWaiterLocked(w)
			d.Action = WaiterTake
			d.CustomerID = id
			d.PartySize = size
			return nil
		}
		d.Action = WaiterIdle
		return nil
	})
	return d, err
}

// SubmitCookRequest appends a cooking request to the shared cook queue and
// returns the clock.
func (s *Store) SubmitCookRequest(req CookRequest) (int64, error) {
	var now int64
	err := s.critical(func() error {
		now = s.region.Load(ipc.ClockCell)
		capacity := int64(s.layout.CookCapacity())
		front := s.region.Load(s.layout.CookFront())
		rear := s.region.Load(s.layout.CookRear())
		if occupancy(front, rear, capacity) >= capacity-1 {
			return fmt.Errorf("%w: cook queue holds %d requests", ErrQueueFull, capacity-1)
		}
		slot := s.layout.CookSlot(int(rear))
		s.region.Store(slot, int64(req.WaiterID))
		s.region.Store(slot+1, int64(req.CustomerID))
		s.region.Store(slot+2, req.PartySize)
		s.region.Store(s.layout.CookRear(), (rear+1)%capacity)
		s.region.Add(ipc.PendingCookCell, 1)
		return nil
	})
	return now, err
}

// CookDispatch evaluates what cook id does on a wake. The first cook to see
// the closing condition claims the cascade.
func (s *Store) CookDispatch(id int) (CookDecision, error) {
	var d CookDecision
	err := s.critical(func() error {
		d.Clock = s.region.Load(ipc.ClockCell)
		if d.Clock >= s.rules.CloseAt && s.region.Load(ipc.PendingCookCell) == 0 {
			d.Action = CookClose
			if s.region.Load(ipc.ClosingCookCell) == ipc.NoValue {
				s.region.Store(ipc.ClosingCookCell, int64(id))
				d.Last = true
			}
			return nil
		}
		capacity := int64(s.layout.CookCapacity())
		front := s.region.Load(s.layout.CookFront())
		if front == s.region.Load(s.layout.CookRear()) {
			d.Action = CookIdle
			return nil
		}
		slot := s.layout.CookSlot(int(front))
		d.Request = CookRequest{
			WaiterID:   int(s.region.Load(slot)),
			CustomerID: int(s.region.Load(slot + 1)),
			PartySize:  s.region.Load(slot + 2),
		}
		s.region.Store(s.layout.CookFront(), (front+1)%capacity)
		s.region.Add(ipc.PendingCookCell, -1)
		d.Action = CookPrepare
		return nil
	})
	return d, err
}

// MarkFoodReady puts customerID in waiter w's single food-ready slot. If the
// slot was still occupied the previous customer id is returned as displaced,
// otherwise displaced is ipc.NoValue.
func (s *Store) MarkFoodReady(w, customerID int) (displaced, clock int64, err error) {
	err = s.critical(func() error {
		clock = s.region.Load(ipc.ClockCell)
		displaced = s.region.Load(s.layout.WaiterFoodReady(w))
		s.region.Store(s.layout.WaiterFoodReady(w), int64(customerID))
		return nil
	})
	return displaced, clock, err
}

// Snapshot copies the shared state into r under the mutex.
func (s *Store) Snapshot(r *models.Report) error {
	return s.critical(func() error {
		s.fill(r)
		return nil
	})
}

// fill reads the region without the mutex. Only for reports taken once the
// actors are gone or the segment has been removed.
func (s *Store) fill(r *models.Report) {
	r.Clock = s.region.Load(ipc.ClockCell)
	r.Tables = s.region.Load(ipc.TablesCell)
	r.Cursor = s.region.Load(ipc.CursorCell)
	r.PendingCook = s.region.Load(ipc.PendingCookCell)
	r.ClosingCook = s.region.Load(ipc.ClosingCookCell)
	r.CookFront = s.region.Load(s.layout.CookFront())
	r.CookRear = s.region.Load(s.layout.CookRear())
	r.Waiters = make([]models.WaiterReport, s.layout.NumWaiters)
	for w := range r.Waiters {
		r.Waiters[w] = models.WaiterReport{
			ID:            w,
			Name:          models.WaiterName(w),
			Front:         s.region.Load(s.layout.WaiterFront(w)),
			Rear:          s.region.Load(s.layout.WaiterRear(w)),
			FoodReady:     s.region.Load(s.layout.WaiterFoodReady(w)),
			PendingOrders: s.region.Load(s.layout.WaiterPending(w)),
		}
	}
}

func (s *Store) pushWaiterLocked(w, customerID int, partySize int64) error {
	capacity := int64(s.layout.WaiterCapacity())
	pending := s.region.Load(s.layout.WaiterPending(w))
	if pending >= capacity-1 {
		return fmt.Errorf("%w: waiter %s holds %d orders", ErrQueueFull, models.WaiterName(w), pending)
	}
	rear := s.region.Load(s.layout.WaiterRear(w))
	if !s.layout.WaiterSlotFits(w, int(rear)) {
		return fmt.Errorf("%w: slot %d of waiter %s would overrun the next area", ErrQueueFull, rear, models.WaiterName(w))
	}
	slot := s.layout.WaiterSlot(w, int(rear))
	s.region.Store(slot, int64(customerID))
	s.region.Store(slot+1, partySize)
	s.region.Store(s.layout.WaiterRear(w), (rear+1)%capacity)
	s.region.Add(s.layout.WaiterPending(w), 1)
	return nil
}

func (s *Store) popWaiterLocked(w int) (int, int64) {
	capacity := int64(s.layout.WaiterCapacity())
	front := s.region.Load(s.layout.WaiterFront(w))
	slot := s.layout.WaiterSlot(w, int(front))
	id := int(s.region.Load(slot))
	size := s.region.Load(slot + 1)
	s.region.Store(s.layout.WaiterFront(w), (front+1)%capacity)
	s.region.Add(s.layout.WaiterPending(w), -1)
	return id, size
}

func occupancy(front, rear, capacity int64) int64 {
	return ((rear-front)%capacity + capacity) % capacity
}
