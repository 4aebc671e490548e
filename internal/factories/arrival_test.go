package factories

import (
	"testing"

	"github.com/chrisdamba/dinesim/internal/arrivals"
	"github.com/chrisdamba/dinesim/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFactory(t *testing.T, pattern string) (*ArrivalFactory, *models.Config) {
	t.Helper()
	cfg := models.DefaultConfig()
	cfg.ArrivalPattern = pattern
	af, err := NewArrivalFactory(cfg)
	require.NoError(t, err)
	return af, cfg
}

func TestArrivalFactory_Generate(t *testing.T) {
	for name, pattern := range ArrivalPatterns {
		t.Run(name, func(t *testing.T) {
			af, cfg := newFactory(t, name)
			list, err := af.Generate(150)
			require.NoError(t, err)
			require.Len(t, list, 150)

			for i, a := range list {
				assert.Equal(t, i, a.CustomerID)
				assert.NoError(t, arrivals.Validate(a, cfg.MaxCustomers))
				assert.Contains(t, pattern.PartySizes, a.PartySize)
				assert.LessOrEqual(t, a.ArrivalTime, cfg.CloseAt+lateWindow)
				if i > 0 {
					assert.LessOrEqual(t, list[i-1].ArrivalTime, a.ArrivalTime)
				}
			}
		})
	}
}

func TestArrivalFactory_RushIsBusier(t *testing.T) {
	af, cfg := newFactory(t, "lunch")
	list, err := af.Generate(cfg.MaxCustomers)
	require.NoError(t, err)

	start := int64(af.pattern.RushStart * float64(cfg.CloseAt))
	end := int64(af.pattern.RushEnd * float64(cfg.CloseAt))
	var inRush int
	for _, a := range list {
		if a.ArrivalTime >= start && a.ArrivalTime < end {
			inRush++
		}
	}
	// the window is a quarter of the shift but takes well over half the customers
	assert.Greater(t, inRush, len(list)/2)
}

func TestArrivalFactory_SeedIsReproducible(t *testing.T) {
	first, err := mustFactory(t).Generate(40)
	require.NoError(t, err)
	second, err := mustFactory(t).Generate(40)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func mustFactory(t *testing.T) *ArrivalFactory {
	af, _ := newFactory(t, "dinner")
	return af
}

func TestArrivalFactory_Limits(t *testing.T) {
	af, cfg := newFactory(t, "steady")
	_, err := af.Generate(cfg.MaxCustomers + 1)
	assert.Error(t, err)

	cfg.ArrivalPattern = "brunch"
	_, err = NewArrivalFactory(cfg)
	assert.Error(t, err)
}
