package simulator

import (
	"fmt"

	"github.com/chrisdamba/dinesim/internal/ipc"
	"github.com/chrisdamba/dinesim/internal/models"
	log "github.com/sirupsen/logrus"
)

type Cook struct {
	*actor
	id   int
	name string
	log  *log.Entry
}

func newCook(id int, env *actor) *Cook {
	name := models.CookName(id)
	return &Cook{
		actor: env,
		id:    id,
		name:  name,
		log:   env.log.WithField("cook", name),
	}
}

func (c *Cook) Run() error {
	c.log.Printf("Cook %s started", c.name)
	for {
		if err := c.bank.Wait(ipc.CookPoolIndex); err != nil {
			return fmt.Errorf("cook %s: %w", c.name, err)
		}
		d, err := c.store.CookDispatch(c.id)
		if err != nil {
			return fmt.Errorf("cook %s: %w", c.name, err)
		}

		switch d.Action {
		case CookClose:
			c.bank.Done()
			if d.Last {
				if err := c.cascade(d.Clock); err != nil {
					return err
				}
			}
			c.log.Printf("Cook %s finished at %d", c.name, d.Clock)
			c.emitter.Emit(c.event(models.EventCookClosed, d.Clock))
			return nil
		case CookPrepare:
			if err := c.prepare(d); err != nil {
				return err
			}
		case CookIdle:
			c.log.Debugf("Cook %s woke with nothing to do", c.name)
		}
		c.bank.Done()
	}
}

func (c *Cook) prepare(d CookDecision) error {
	r := d.Request
	waiter := models.WaiterName(r.WaiterID)
	c.log.Printf("Cook %s preparing food for customer %d (party of %d) from waiter %s at %d",
		c.name, r.CustomerID, r.PartySize, waiter, d.Clock)
	c.emitter.Emit(c.requestEvent(models.EventCookingStarted, d.Clock, r))

	if _, err := c.clock.Advance(r.PartySize * c.cfg.CookMinutesPerGuest); err != nil {
		return fmt.Errorf("cook %s cooking: %w", c.name, err)
	}
	displaced, now, err := c.store.MarkFoodReady(r.WaiterID, r.CustomerID)
	if err != nil {
		return fmt.Errorf("cook %s: %w", c.name, err)
	}
	if displaced != ipc.NoValue {
		c.log.Warnf("Cook %s replaced the unserved dish of customer %d at waiter %s", c.name, displaced, waiter)
		lost := c.requestEvent(models.EventFoodReadyOverwritten, now, r)
		lost.CustomerID = displaced
		c.emitter.Emit(lost)
		c.tally.lose(int(displaced))
	}
	c.log.Printf("Cook %s finished food for customer %d at %d", c.name, r.CustomerID, now)
	c.emitter.Emit(c.requestEvent(models.EventFoodReady, now, r))

	if err := c.bank.Post(c.bank.WaiterIndex(r.WaiterID)); err != nil {
		return fmt.Errorf("cook %s calling waiter %s: %w", c.name, waiter, err)
	}
	return nil
}

// cascade wakes every waiter once so each can notice the restaurant closed.
func (c *Cook) cascade(clock int64) error {
	c.log.Printf("Cook %s is the last cook, waking all waiters", c.name)
	c.emitter.Emit(c.event(models.EventClosingCascade, clock))
	for w := 0; w < c.cfg.NumWaiters; w++ {
		if err := c.bank.Post(c.bank.WaiterIndex(w)); err != nil {
			return fmt.Errorf("cook %s waking waiter %s: %w", c.name, models.WaiterName(w), err)
		}
	}
	return nil
}

func (c *Cook) event(eventType string, ts int64) models.Event {
	ev := models.NewEvent(eventType, ts)
	ev.Actor = "cook-" + c.name
	ev.CookID = int64(c.id)
	return ev
}

func (c *Cook) requestEvent(eventType string, ts int64, r CookRequest) models.Event {
	ev := c.event(eventType, ts)
	ev.WaiterID = int64(r.WaiterID)
	ev.CustomerID = int64(r.CustomerID)
	ev.PartySize = r.PartySize
	return ev
}
