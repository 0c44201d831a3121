package interfaces

import (
	"context"

	"story-graph-server/internal/models"

	"github.com/google/uuid"
)

// StoryNodeRepository is the node half of the Story Graph Store.
//
//go:generate mockery --name StoryNodeRepository --output ./mocks --outpkg mocks --case=underscore
type StoryNodeRepository interface {
	// FindNode fetches a node by id.
	// Returns models.ErrNotFound if it does not exist.
	FindNode(ctx context.Context, id uuid.UUID) (*models.StoryNode, error)

	// FindChild fetches the node reached from parentID by choiceLabel.
	// Returns models.ErrNotFound if the edge has not been materialized yet.
	FindChild(ctx context.Context, parentID uuid.UUID, choiceLabel string) (*models.StoryNode, error)

	// FindNodesByIDs batch-fetches nodes. Missing ids are skipped, order is not guaranteed.
	FindNodesByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.StoryNode, error)

	// InsertNode creates a node with a fresh id and creation timestamp.
	// If another writer already materialized the same edge, the existing node
	// is returned together with models.ErrEdgeExists.
	InsertNode(ctx context.Context, node models.NewStoryNode) (*models.StoryNode, error)
}
