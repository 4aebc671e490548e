package simulator

import (
	"errors"
	"fmt"

	"github.com/chrisdamba/dinesim/internal/ipc"
	"github.com/chrisdamba/dinesim/internal/models"
	log "github.com/sirupsen/logrus"
)

type Customer struct {
	*actor
	arrival models.Arrival
	log     *log.Entry
}

func newCustomer(a models.Arrival, env *actor) *Customer {
	return &Customer{
		actor:   env,
		arrival: a,
		log:     env.log.WithField("customer", a.CustomerID),
	}
}

// Run plays one visit. The feeder's work token is returned once the customer
// is seated or turned away; a served customer holds the waiter's token until
// it leaves.
func (c *Customer) Run() (models.CustomerOutcome, error) {
	a := c.arrival
	out := models.CustomerOutcome{
		CustomerID:  a.CustomerID,
		ArrivalTime: a.ArrivalTime,
		PartySize:   a.PartySize,
		Waiter:      -1,
	}

	c.emit(models.EventArrived, a.ArrivalTime)
	seating, err := c.store.Seat(a)
	if err != nil {
		c.bank.Done()
		return out, fmt.Errorf("customer %d seating: %w", a.CustomerID, err)
	}

	switch seating.Outcome {
	case models.EventRejectedClosed:
		c.log.Printf("Customer %d arrived at %d after closing and left", a.CustomerID, seating.Clock)
		c.emitTables(models.EventRejectedClosed, seating.Clock, seating.Tables)
		out.Outcome = models.OutcomeRejectedClosed
		out.LeftAt = seating.Clock
		c.bank.Done()
		return out, nil
	case models.EventRejectedNoTable:
		c.log.Printf("Customer %d found no free table at %d and left", a.CustomerID, seating.Clock)
		c.emitTables(models.EventRejectedNoTable, seating.Clock, seating.Tables)
		out.Outcome = models.OutcomeRejectedNoTable
		out.LeftAt = seating.Clock
		c.bank.Done()
		return out, nil
	}

	out.Waiter = seating.Waiter
	c.log.Printf("Customer %d occupied a table at %d (%d remaining), waiter %s",
		a.CustomerID, seating.Clock, seating.Tables, models.WaiterName(seating.Waiter))
	ev := c.event(models.EventSeated, seating.Clock)
	ev.WaiterID = int64(seating.Waiter)
	ev.Tables = seating.Tables
	c.emitter.Emit(ev)

	if err := c.bank.Post(c.bank.WaiterIndex(seating.Waiter)); err != nil {
		c.bank.Done()
		return out, fmt.Errorf("customer %d calling waiter: %w", a.CustomerID, err)
	}
	c.bank.Done()

	if err := c.bank.Wait(c.bank.CustomerIndex(a.CustomerID)); err != nil {
		if errors.Is(err, ipc.ErrSignalClosed) {
			return c.abandon(out)
		}
		return out, fmt.Errorf("customer %d waiting for food: %w", a.CustomerID, err)
	}
	defer c.bank.Done()

	now, err := c.clock.Now()
	if err != nil {
		return out, err
	}
	c.log.Printf("Customer %d was served at %d", a.CustomerID, now)
	c.emit(models.EventServed, now)

	if _, err := c.clock.Advance(c.cfg.EatMinutes); err != nil {
		return out, fmt.Errorf("customer %d eating: %w", a.CustomerID, err)
	}
	tables, clock, err := c.store.ReleaseTable()
	if err != nil {
		return out, fmt.Errorf("customer %d leaving: %w", a.CustomerID, err)
	}
	c.log.Printf("Customer %d finished eating and left at %d (%d tables free)", a.CustomerID, clock, tables)
	c.emitTables(models.EventDeparted, clock, tables)
	out.Outcome = models.OutcomeDeparted
	out.LeftAt = clock
	return out, nil
}

// abandon is the exit for a customer still waiting when every waiter and cook
// has gone home.
func (c *Customer) abandon(out models.CustomerOutcome) (models.CustomerOutcome, error) {
	tables, clock, err := c.store.ReleaseTable()
	if err != nil {
		return out, fmt.Errorf("customer %d leaving: %w", out.CustomerID, err)
	}
	c.log.Warnf("Customer %d was never served, restaurant closed", out.CustomerID)
	c.emitTables(models.EventAbandoned, clock, tables)
	out.Outcome = models.OutcomeAbandoned
	out.LeftAt = clock
	return out, nil
}

func (c *Customer) event(eventType string, ts int64) models.Event {
	ev := models.NewEvent(eventType, ts)
	ev.Actor = fmt.Sprintf("customer-%d", c.arrival.CustomerID)
	ev.CustomerID = int64(c.arrival.CustomerID)
	ev.PartySize = c.arrival.PartySize
	return ev
}

func (c *Customer) emit(eventType string, ts int64) {
	c.emitter.Emit(c.event(eventType, ts))
}

func (c *Customer) emitTables(eventType string, ts, tables int64) {
	ev := c.event(eventType, ts)
	ev.Tables = tables
	c.emitter.Emit(ev)
}
