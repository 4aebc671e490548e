package models

// Event is one transition observed during a session. Timestamp is the
// simulated clock in minutes after opening.
type Event struct {
	SessionID  string `json:"sessionId" parquet:"name=sessionId,type=BYTE_ARRAY,convertedtype=UTF8"`
	Timestamp  int64  `json:"timestamp" parquet:"name=timestamp,type=INT64"`
	EventType  string `json:"eventType" parquet:"name=eventType,type=BYTE_ARRAY,convertedtype=UTF8"`
	Actor      string `json:"actor" parquet:"name=actor,type=BYTE_ARRAY,convertedtype=UTF8"`
	CustomerID int64  `json:"customerId" parquet:"name=customerId,type=INT64"`
	WaiterID   int64  `json:"waiterId" parquet:"name=waiterId,type=INT64"`
	CookID     int64  `json:"cookId" parquet:"name=cookId,type=INT64"`
	PartySize  int64  `json:"partySize" parquet:"name=partySize,type=INT64"`
	Tables     int64  `json:"tables" parquet:"name=tables,type=INT64"`
}

// Topic returns the output topic the event belongs to.
func (e Event) Topic() string {
	switch e.EventType {
	case EventArrived, EventRejectedClosed, EventRejectedNoTable, EventSeated,
		EventServed, EventDeparted, EventAbandoned:
		return TopicCustomer
	case EventOrderTaken, EventOrderSubmitted, EventFoodServed, EventWaiterClosed:
		return TopicWaiter
	case EventCookingStarted, EventFoodReady, EventFoodReadyOverwritten,
		EventCookClosed, EventClosingCascade:
		return TopicCook
	default:
		return TopicSession
	}
}

// NewEvent returns an event with every id field unset (-1).
func NewEvent(eventType string, timestamp int64) Event {
	return Event{
		Timestamp:  timestamp,
		EventType:  eventType,
		CustomerID: -1,
		WaiterID:   -1,
		CookID:     -1,
		PartySize:  -1,
		Tables:     -1,
	}
}
