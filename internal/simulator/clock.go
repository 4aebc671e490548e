package simulator

import "time"

// Clock advances the shared simulated clock. The wall-clock pause only paces
// the simulation; the shared value moves by merge-by-maximum, never by sum.
type Clock struct {
	store *Store
	scale time.Duration
	pause func(time.Duration)
}

func NewClock(store *Store, scale time.Duration) *Clock {
	return &Clock{store: store, scale: scale, pause: time.Sleep}
}

// Advance records that an event lasting minutes has finished and returns the
// clock after the merge.
func (c *Clock) Advance(minutes int64) (int64, error) {
	captured, err := c.store.Now()
	if err != nil {
		return 0, err
	}
	if minutes > 0 && c.scale > 0 {
		c.pause(time.Duration(minutes) * c.scale)
	}
	return c.store.MergeClock(captured + minutes)
}

func (c *Clock) Now() (int64, error) {
	return c.store.Now()
}
