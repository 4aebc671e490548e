package factories

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/chrisdamba/dinesim/internal/models"
	"github.com/jaswdr/faker"
)

// late arrivals turn up within this many minutes after closing
const lateWindow = 30

// ArrivalFactory produces synthetic customer arrivals for a session.
type ArrivalFactory struct {
	fake         faker.Faker
	pattern      ArrivalPattern
	sizes        []int64
	closeAt      int64
	maxCustomers int
}

func NewArrivalFactory(cfg *models.Config) (*ArrivalFactory, error) {
	pattern, err := LookupPattern(cfg.ArrivalPattern)
	if err != nil {
		return nil, err
	}
	sizes := make([]int64, 0, len(pattern.PartySizes))
	for size := range pattern.PartySizes {
		sizes = append(sizes, size)
	}
	sort.Slice(sizes, func(i, j int) bool { return sizes[i] < sizes[j] })

	return &ArrivalFactory{
		fake:         faker.NewWithSeed(rand.NewSource(cfg.Seed)),
		pattern:      pattern,
		sizes:        sizes,
		closeAt:      cfg.CloseAt,
		maxCustomers: cfg.MaxCustomers,
	}, nil
}

// CreateArrival returns an arrival for id following the factory's pattern.
func (af *ArrivalFactory) CreateArrival(id int) models.Arrival {
	return models.Arrival{
		CustomerID:  id,
		ArrivalTime: af.arrivalTime(),
		PartySize:   af.partySize(),
	}
}

func (af *ArrivalFactory) arrivalTime() int64 {
	r := af.fake.Float64(4, 0, 1)
	switch {
	case r < af.pattern.LateShare:
		return af.fake.Int64Between(af.closeAt, af.closeAt+lateWindow)
	case r < af.pattern.LateShare+af.pattern.RushShare:
		start := int64(af.pattern.RushStart * float64(af.closeAt))
		end := int64(af.pattern.RushEnd * float64(af.closeAt))
		return af.fake.Int64Between(start, max(start, end-1))
	default:
		return af.fake.Int64Between(0, af.closeAt-1)
	}
}

func (af *ArrivalFactory) partySize() int64 {
	r := af.fake.Float64(4, 0, 1)
	var cumulative float64
	for _, size := range af.sizes {
		cumulative += af.pattern.PartySizes[size]
		if r <= cumulative {
			return size
		}
	}
	return af.sizes[len(af.sizes)-1]
}

// Generate returns n arrivals in arrival order. Customer ids follow the same
// order, starting at 0.
func (af *ArrivalFactory) Generate(n int) ([]models.Arrival, error) {
	if n < 0 || n > af.maxCustomers {
		return nil, fmt.Errorf("cannot generate %d customers, limit is %d", n, af.maxCustomers)
	}
	queue := models.NewArrivalQueue()
	for i := 0; i < n; i++ {
		queue.Enqueue(af.CreateArrival(i))
	}
	list := queue.Drain()
	for i := range list {
		list[i].CustomerID = i
	}
	return list, nil
}
