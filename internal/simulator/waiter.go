package simulator

import (
	"fmt"

	"github.com/chrisdamba/dinesim/internal/ipc"
	"github.com/chrisdamba/dinesim/internal/models"
	log "github.com/sirupsen/logrus"
)

type Waiter struct {
	*actor
	id   int
	name string
	log  *log.Entry
}

func newWaiter(id int, env *actor) *Waiter {
	name := models.WaiterName(id)
	return &Waiter{
		actor: env,
		id:    id,
		name:  name,
		log:   env.log.WithField("waiter", name),
	}
}

// Run serves wakes until the restaurant is closed and the waiter's own queue
// is empty. Each handled wake returns one work token.
func (w *Waiter) Run() error {
	w.log.Printf("Waiter %s started", w.name)
	self := w.bank.WaiterIndex(w.id)
	for {
		if err := w.bank.Wait(self); err != nil {
			return fmt.Errorf("waiter %s: %w", w.name, err)
		}
		d, err := w.store.WaiterDispatch(w.id)
		if err != nil {
			return fmt.Errorf("waiter %s: %w", w.name, err)
		}

		switch d.Action {
		case WaiterClose:
			w.bank.Done()
			// food for customers that will be abandoned may still arrive here
			if err := w.bank.Retire(self); err != nil {
				return fmt.Errorf("waiter %s: %w", w.name, err)
			}
			w.log.Printf("Waiter %s finished at %d", w.name, d.Clock)
			w.emitter.Emit(w.event(models.EventWaiterClosed, d.Clock))
			return nil
		case WaiterServe:
			if err := w.serve(d); err != nil {
				return err
			}
		case WaiterTake:
			if err := w.take(d); err != nil {
				return err
			}
		case WaiterIdle:
			w.log.Debugf("Waiter %s woke with nothing to do", w.name)
		}

		if d.Drain {
			// cooks are gone; keep waking ourselves until the queue is empty
			if err := w.bank.Post(self); err != nil {
				return fmt.Errorf("waiter %s: %w", w.name, err)
			}
		}
		w.bank.Done()
	}
}

func (w *Waiter) serve(d WaiterDecision) error {
	w.log.Printf("Waiter %s serving food to customer %d at %d", w.name, d.CustomerID, d.Clock)
	ev := w.event(models.EventFoodServed, d.Clock)
	ev.CustomerID = int64(d.CustomerID)
	w.emitter.Emit(ev)
	if err := w.bank.Post(w.bank.CustomerIndex(d.CustomerID)); err != nil {
		return fmt.Errorf("waiter %s serving customer %d: %w", w.name, d.CustomerID, err)
	}
	return nil
}

func (w *Waiter) take(d WaiterDecision) error {
	w.log.Printf("Waiter %s taking order of customer %d (party of %d) at %d", w.name, d.CustomerID, d.PartySize, d.Clock)
	ev := w.event(models.EventOrderTaken, d.Clock)
	ev.CustomerID = int64(d.CustomerID)
	ev.PartySize = d.PartySize
	w.emitter.Emit(ev)

	if _, err := w.clock.Advance(w.cfg.OrderMinutes); err != nil {
		return fmt.Errorf("waiter %s taking order: %w", w.name, err)
	}
	now, err := w.store.SubmitCookRequest(CookRequest{
		WaiterID:   w.id,
		CustomerID: d.CustomerID,
		PartySize:  d.PartySize,
	})
	if err != nil {
		return fmt.Errorf("waiter %s submitting order: %w", w.name, err)
	}
	w.log.Printf("Waiter %s submitted order of customer %d to the kitchen at %d", w.name, d.CustomerID, now)
	ev = w.event(models.EventOrderSubmitted, now)
	ev.CustomerID = int64(d.CustomerID)
	ev.PartySize = d.PartySize
	w.emitter.Emit(ev)

	if err := w.bank.Post(ipc.CookPoolIndex); err != nil {
		return fmt.Errorf("waiter %s calling cooks: %w", w.name, err)
	}
	return nil
}

func (w *Waiter) event(eventType string, ts int64) models.Event {
	ev := models.NewEvent(eventType, ts)
	ev.Actor = "waiter-" + w.name
	ev.WaiterID = int64(w.id)
	return ev
}
