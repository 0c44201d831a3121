package interfaces

import (
	"context"

	"story-graph-server/internal/models"

	"github.com/google/uuid"
)

// UserProgressRepository is the progress half of the Story Graph Store.
//
//go:generate mockery --name UserProgressRepository --output ./mocks --outpkg mocks --case=underscore
type UserProgressRepository interface {
	// Get returns the progress record of a user.
	// Returns models.ErrNotFound if the user has not started a story.
	Get(ctx context.Context, userID uuid.UUID) (*models.UserProgress, error)

	// Upsert creates or updates the progress record using partial-field
	// semantics, see models.ProgressUpdate. Returns models.ErrProgressConflict
	// when ExpectedVersion does not match.
	Upsert(ctx context.Context, userID uuid.UUID, update models.ProgressUpdate) (*models.UserProgress, error)

	// Delete removes the progress record. Deleting absent progress is not an error.
	Delete(ctx context.Context, userID uuid.UUID) error
}
