package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/chrisdamba/dinesim/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a real server only when DINESIM_TEST_DATABASE_URL is set.
func TestSessionRepository(t *testing.T) {
	url := os.Getenv("DINESIM_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("DINESIM_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := Connect(ctx, url)
	require.NoError(t, err)
	defer pool.Close()

	repo := NewSessionRepository(pool)
	require.NoError(t, repo.EnsureSchema(ctx))
	require.NoError(t, repo.DeleteAll(ctx))

	report := &models.Report{
		SessionID:  "ckt0session",
		StartedAt:  time.Now().Add(-time.Minute),
		FinishedAt: time.Now(),
		Clock:      180,
		Tables:     10,
		LostDishes: []int{4},
		Outcomes: []models.CustomerOutcome{
			{CustomerID: 0, ArrivalTime: 5, PartySize: 2, Waiter: 0, Outcome: models.OutcomeDeparted, LeftAt: 41},
			{CustomerID: 1, ArrivalTime: 190, PartySize: 1, Waiter: -1, Outcome: models.OutcomeRejectedClosed, LeftAt: 190},
		},
	}
	report.Count()
	require.NoError(t, repo.Create(ctx, report))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// the same outcome twice violates the primary key
	assert.Error(t, repo.BulkCreateOutcomes(ctx, report.SessionID, report.Outcomes[:1]))
	require.NoError(t, repo.BulkCreateOutcomes(ctx, report.SessionID, []models.CustomerOutcome{
		{CustomerID: 2, ArrivalTime: 200, PartySize: 3, Waiter: -1, Outcome: models.OutcomeRejectedClosed, LeftAt: 200},
	}))

	require.NoError(t, repo.DeleteAll(ctx))
	count, err = repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
