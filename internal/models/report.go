package models

import "time"

// WaiterReport is the state of one waiter area at the end of a session.
type WaiterReport struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	Front         int64  `json:"front"`
	Rear          int64  `json:"rear"`
	FoodReady     int64  `json:"foodReady"`
	PendingOrders int64  `json:"pendingOrders"`
}

// CustomerOutcome records how one customer left.
type CustomerOutcome struct {
	CustomerID  int    `json:"customerId"`
	ArrivalTime int64  `json:"arrivalTime"`
	PartySize   int64  `json:"partySize"`
	Waiter      int    `json:"waiter"`
	Outcome     string `json:"outcome"`
	LeftAt      int64  `json:"leftAt"`
}

// Report is the final state report of a session.
type Report struct {
	SessionID       string            `json:"sessionId"`
	StartedAt       time.Time         `json:"startedAt"`
	FinishedAt      time.Time         `json:"finishedAt"`
	Clock           int64             `json:"clock"`
	Tables          int64             `json:"tables"`
	Cursor          int64             `json:"cursor"`
	PendingCook     int64             `json:"pendingCook"`
	ClosingCook     int64             `json:"closingCook"`
	CookFront       int64             `json:"cookFront"`
	CookRear        int64             `json:"cookRear"`
	Waiters         []WaiterReport    `json:"waiters"`
	Departed        int               `json:"departed"`
	RejectedClosed  int               `json:"rejectedClosed"`
	RejectedNoTable int               `json:"rejectedNoTable"`
	Abandoned       int               `json:"abandoned"`
	LostDishes      []int             `json:"lostDishes"`
	Outcomes        []CustomerOutcome `json:"outcomes"`
	DroppedEvents   int               `json:"droppedEvents"`
	Error           string            `json:"error,omitempty"`
}

// Count tallies the outcomes into the per-outcome counters.
func (r *Report) Count() {
	r.Departed, r.RejectedClosed, r.RejectedNoTable, r.Abandoned = 0, 0, 0, 0
	for _, o := range r.Outcomes {
		switch o.Outcome {
		case OutcomeDeparted:
			r.Departed++
		case OutcomeRejectedClosed:
			r.RejectedClosed++
		case OutcomeRejectedNoTable:
			r.RejectedNoTable++
		case OutcomeAbandoned:
			r.Abandoned++
		}
	}
}
