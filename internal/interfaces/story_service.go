package interfaces

import (
	"context"

	"story-graph-server/internal/models"

	"github.com/google/uuid"
)

// TurnRequest is one turn as submitted by a client.
type TurnRequest struct {
	UserID         uuid.UUID
	PreviousNodeID *uuid.UUID // nil starts a new story
	ChoiceLabel    string     // required when PreviousNodeID is set
	Genre          string     // seed text, root turns only
	GenreID        string     // catalog id, root turns only
}

// TurnResult is what a resolved turn hands back to the client.
type TurnResult struct {
	Node    *models.StoryNode
	Choices []models.Choice
	Title   string
	Reused  bool

	// ProgressErr is set when the node was produced but progress bookkeeping
	// failed. The node is still valid and returned.
	ProgressErr error
}

// StoryView is the caller's story reconstructed in path order.
type StoryView struct {
	Progress *models.UserProgress
	Nodes    []*models.StoryNode
}

// StoryService is the API the HTTP layer depends on.
//
//go:generate mockery --name StoryService --output ./mocks --outpkg mocks --case=underscore
type StoryService interface {
	ResolveTurn(ctx context.Context, req TurnRequest) (*TurnResult, error)
	GetStory(ctx context.Context, userID uuid.UUID) (*StoryView, error)
	RestartStory(ctx context.Context, userID uuid.UUID) error
	ListGenres() []models.Genre
}
