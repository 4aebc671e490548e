package repositories

import (
	"context"

	"github.com/chrisdamba/dinesim/internal/models"
)

// SessionRepository stores finished session reports.
type SessionRepository interface {
	EnsureSchema(ctx context.Context) error
	Create(ctx context.Context, report *models.Report) error
	BulkCreateOutcomes(ctx context.Context, sessionID string, outcomes []models.CustomerOutcome) error
	Count(ctx context.Context) (int, error)
	DeleteAll(ctx context.Context) error
}
