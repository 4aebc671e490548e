package models

import "fmt"

// ArrivalSentinel terminates an arrival list.
const ArrivalSentinel = -1

// Arrival is one customer record: who arrives, when, and with how many guests.
type Arrival struct {
	CustomerID  int   `json:"customerId"`
	ArrivalTime int64 `json:"arrivalTime"`
	PartySize   int64 `json:"partySize"`
}

func (a Arrival) String() string {
	return fmt.Sprintf("%d %d %d", a.CustomerID, a.ArrivalTime, a.PartySize)
}
