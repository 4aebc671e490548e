package simulator

import (
	"encoding/json"
	"sync"

	"github.com/chrisdamba/dinesim/internal/models"
	"github.com/chrisdamba/dinesim/internal/output"
	log "github.com/sirupsen/logrus"
)

// Emitter serializes events from every actor onto one destination. A nil
// destination drops events.
type Emitter struct {
	mu        sync.Mutex
	dest      output.Destination
	sessionID string
	failures  int
}

func NewEmitter(dest output.Destination, sessionID string) *Emitter {
	return &Emitter{dest: dest, sessionID: sessionID}
}

// Emit never fails the caller; a destination error is logged and counted.
func (e *Emitter) Emit(ev models.Event) {
	if e == nil || e.dest == nil {
		return
	}
	ev.SessionID = e.sessionID
	msg, err := json.Marshal(ev)
	if err != nil {
		log.WithError(err).Warnf("encoding %s event", ev.EventType)
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.dest.WriteMessage(ev.Topic(), msg); err != nil {
		e.failures++
		log.WithError(err).WithField("topic", ev.Topic()).Warn("failed to write event")
	}
}

// Failures returns how many events the destination rejected.
func (e *Emitter) Failures() int {
	if e == nil {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.failures
}
