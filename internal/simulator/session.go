package simulator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/chrisdamba/dinesim/internal/arrivals"
	"github.com/chrisdamba/dinesim/internal/ipc"
	"github.com/chrisdamba/dinesim/internal/models"
	"github.com/chrisdamba/dinesim/internal/output"
	"github.com/lucsky/cuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ArrivalSource yields arrivals in feed order and io.EOF once the feed ends.
type ArrivalSource interface {
	Next() (models.Arrival, error)
}

// actor is what every participant holds after attaching to the segment.
type actor struct {
	cfg     *models.Config
	store   *Store
	clock   *Clock
	bank    *ipc.Bank
	emitter *Emitter
	tally   *tally
	log     *log.Entry
}

// tally collects what only the actors know: how each customer left and which
// dishes were overwritten.
type tally struct {
	mu       sync.Mutex
	outcomes []models.CustomerOutcome
	lost     []int
}

func (t *tally) record(o models.CustomerOutcome) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.outcomes = append(t.outcomes, o)
}

func (t *tally) lose(customerID int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lost = append(t.lost, customerID)
}

func (t *tally) fill(r *models.Report) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r.Outcomes = append([]models.CustomerOutcome(nil), t.outcomes...)
	sort.Slice(r.Outcomes, func(i, j int) bool {
		return r.Outcomes[i].CustomerID < r.Outcomes[j].CustomerID
	})
	r.LostDishes = append([]int(nil), t.lost...)
	r.Count()
}

// Session owns one run of the restaurant: it creates the shared segment,
// starts the staff, feeds customers and tears everything down.
type Session struct {
	ID       string
	cfg      *models.Config
	registry *ipc.Registry
	key      string
	seg      *ipc.Segment
	store    *Store
	emitter  *Emitter
	tally    *tally
	log      *log.Entry

	abortOnce sync.Once
	mu        sync.Mutex
	fatal     error
}

type Option func(*Session)

func WithRegistry(r *ipc.Registry) Option {
	return func(s *Session) { s.registry = r }
}

func WithDestination(dest output.Destination) Option {
	return func(s *Session) { s.emitter = NewEmitter(dest, s.ID) }
}

func WithID(id string) Option {
	return func(s *Session) { s.ID = id }
}

// LayoutFor builds the shared-region layout described by cfg.
func LayoutFor(cfg *models.Config) ipc.Layout {
	return cfg.Layout()
}

// NewSession creates and seeds the shared segment. It fails if a segment
// already exists under the configured key.
func NewSession(cfg *models.Config, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Session{
		ID:       cuid.New(),
		cfg:      cfg,
		registry: ipc.DefaultRegistry,
		key:      ipc.Key(cfg.IPCPath, cfg.IPCProjID),
		tally:    &tally{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.emitter == nil {
		s.emitter = NewEmitter(nil, s.ID)
	}
	s.emitter.sessionID = s.ID
	s.log = log.WithField("session", s.ID)

	layout := LayoutFor(cfg)
	seg, err := s.registry.Create(s.key, layout, cfg.MaxCustomers)
	if err != nil {
		return nil, fmt.Errorf("creating shared segment: %w", err)
	}
	if spill := layout.Spill(); spill > 0 {
		s.log.Warnf("a full queue of %d slots would spill %d words into the next waiter area; a waiter reaching slot %d fails the session",
			layout.QueueSize, spill, layout.WaiterUsableSlots())
	}
	s.seg = seg
	s.store = NewStore(seg, s.rules())
	if err := s.store.Seed(); err != nil {
		s.registry.Remove(s.key)
		return nil, fmt.Errorf("seeding shared state: %w", err)
	}
	return s, nil
}

func (s *Session) rules() Rules {
	return Rules{MaxTables: int64(s.cfg.MaxTables), CloseAt: s.cfg.CloseAt}
}

// attach gives a new actor its own view of the segment, found by key.
func (s *Session) attach() (*actor, error) {
	seg, err := s.registry.Attach(s.key)
	if err != nil {
		return nil, fmt.Errorf("attaching to shared segment: %w", err)
	}
	store := NewStore(seg, s.rules())
	return &actor{
		cfg:     s.cfg,
		store:   store,
		clock:   NewClock(store, s.cfg.MinuteScale),
		bank:    seg.Bank,
		emitter: s.emitter,
		tally:   s.tally,
		log:     s.log,
	}, nil
}

// Now reads the shared clock.
func (s *Session) Now() (int64, error) {
	return s.store.Now()
}

// Run plays the session to the end and returns the final report. On the first
// fatal error or when ctx is cancelled the segment is removed, every actor is
// faulted, and Run returns that error together with a best-effort report.
func (s *Session) Run(ctx context.Context, src ArrivalSource) (*models.Report, error) {
	started := time.Now()
	s.log.Printf("Session %s started under key %s", s.ID, s.key)
	s.emitter.Emit(models.NewEvent(models.EventSessionStarted, 0))

	stop := context.AfterFunc(ctx, func() {
		s.abort(fmt.Errorf("session interrupted: %w", context.Cause(ctx)))
	})
	defer stop()

	var cooks, waiters, customers errgroup.Group
	for i := 0; i < s.cfg.NumCooks; i++ {
		env, err := s.attach()
		if err != nil {
			s.abort(err)
			break
		}
		c := newCook(i, env)
		cooks.Go(func() error { return s.guard(c.Run()) })
	}
	for i := 0; i < s.cfg.NumWaiters; i++ {
		env, err := s.attach()
		if err != nil {
			s.abort(err)
			break
		}
		w := newWaiter(i, env)
		waiters.Go(func() error { return s.guard(w.Run()) })
	}

	if err := s.feed(ctx, src, &customers); err != nil {
		s.abort(err)
	} else {
		s.ringClosingBell()
	}

	_ = cooks.Wait()
	s.log.Print("All cooks have finished")
	_ = waiters.Wait()
	s.log.Print("All waiters have finished")
	s.seg.Bank.CloseCustomers()
	_ = customers.Wait()

	report := s.report(started)
	s.emitter.Emit(models.NewEvent(models.EventSessionFinished, report.Clock))
	report.DroppedEvents = s.emitter.Failures()
	s.registry.Remove(s.key)

	if err := s.err(); err != nil {
		report.Error = err.Error()
		return report, err
	}
	s.log.Printf("Session %s completed: %d departed, %d turned away after closing, %d turned away for lack of tables, %d abandoned",
		s.ID, report.Departed, report.RejectedClosed, report.RejectedNoTable, report.Abandoned)
	return report, nil
}

// feed launches one customer per arrival, pacing them by the gap between
// consecutive arrival times.
func (s *Session) feed(ctx context.Context, src ArrivalSource, customers *errgroup.Group) error {
	seen := make(map[int]bool)
	var prev int64
	for {
		a, err := src.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading arrivals: %w", err)
		}
		if err := arrivals.Validate(a, s.cfg.MaxCustomers); err != nil {
			return err
		}
		if seen[a.CustomerID] {
			return fmt.Errorf("%w: duplicate customer %d", arrivals.ErrInvalidRecord, a.CustomerID)
		}
		seen[a.CustomerID] = true

		if gap := a.ArrivalTime - prev; gap > 0 && s.cfg.MinuteScale > 0 {
			if err := s.sleep(ctx, time.Duration(gap)*s.cfg.MinuteScale); err != nil {
				return err
			}
		}
		prev = a.ArrivalTime
		if err := s.err(); err != nil {
			return err
		}

		env, err := s.attach()
		if err != nil {
			return err
		}
		s.seg.Bank.Track()
		c := newCustomer(a, env)
		customers.Go(func() error {
			out, err := c.Run()
			if err != nil {
				return s.guard(err)
			}
			s.tally.record(out)
			return nil
		})
	}
}

func (s *Session) sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("session interrupted: %w", context.Cause(ctx))
	}
}

// ringClosingBell waits until no work is in flight, then moves the clock to
// closing time and wakes every cook so the closing cascade can start.
func (s *Session) ringClosingBell() {
	bank := s.seg.Bank
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()
	for bank.Outstanding() > 0 {
		<-ticker.C
		if bank.Removed() {
			return
		}
	}

	now, err := s.store.MergeClock(s.cfg.CloseAt)
	if err != nil {
		s.abort(err)
		return
	}
	s.log.Printf("Closing bell at %d", now)
	s.emitter.Emit(models.NewEvent(models.EventClosingBell, now))
	for i := 0; i < s.cfg.NumCooks; i++ {
		if err := bank.Post(ipc.CookPoolIndex); err != nil {
			s.abort(err)
			return
		}
	}
}

// report is taken after every actor has exited, so it reads the region
// directly. After an abort the bank is gone and this is best effort.
func (s *Session) report(started time.Time) *models.Report {
	r := &models.Report{
		SessionID:  s.ID,
		StartedAt:  started,
		FinishedAt: time.Now(),
	}
	s.store.fill(r)
	s.tally.fill(r)
	return r
}

// guard turns an actor failure into a session abort.
func (s *Session) guard(err error) error {
	if err != nil {
		s.abort(err)
	}
	return err
}

// abort keeps the first fatal error and removes the segment, which faults
// every actor still blocked on it.
func (s *Session) abort(err error) {
	s.abortOnce.Do(func() {
		s.mu.Lock()
		s.fatal = err
		s.mu.Unlock()
		s.log.WithError(err).Error("Session aborted")
		s.registry.Remove(s.key)
	})
}

func (s *Session) err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fatal
}
