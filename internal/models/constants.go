package models

const (
	OutcomeDeparted        = "departed"
	OutcomeRejectedClosed  = "rejected_closed"
	OutcomeRejectedNoTable = "rejected_no_table"
	OutcomeAbandoned       = "abandoned"

	TopicCustomer = "customer_events"
	TopicWaiter   = "waiter_events"
	TopicCook     = "cook_events"
	TopicSession  = "session_events"

	EventArrived         = "arrived"
	EventRejectedClosed  = "rejected_closed"
	EventRejectedNoTable = "rejected_no_table"
	EventSeated          = "seated"
	EventServed          = "served"
	EventDeparted        = "departed"
	EventAbandoned       = "abandoned"

	EventOrderTaken     = "order_taken"
	EventOrderSubmitted = "order_submitted"
	EventFoodServed     = "food_served"
	EventWaiterClosed   = "waiter_closed"

	EventCookingStarted       = "cooking_started"
	EventFoodReady            = "food_ready"
	EventFoodReadyOverwritten = "food_ready_overwritten"
	EventCookClosed           = "cook_closed"
	EventClosingCascade       = "closing_cascade"

	EventSessionStarted  = "session_started"
	EventClosingBell     = "closing_bell"
	EventSessionFinished = "session_finished"
)

// WaiterName returns the display letter of waiter w, starting at U.
func WaiterName(w int) string {
	return string(rune('U' + w))
}

// CookName returns the display letter of cook c, starting at C.
func CookName(c int) string {
	return string(rune('C' + c))
}
