package interfaces

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TurnResolvedEvent is published after a turn produced a node.
type TurnResolvedEvent struct {
	UserID       uuid.UUID  `json:"userId"`
	NodeID       uuid.UUID  `json:"nodeId"`
	ParentNodeID *uuid.UUID `json:"parentNodeId,omitempty"`
	Reused       bool       `json:"reused"`
	Title        string     `json:"title,omitempty"`
	OccurredAt   time.Time  `json:"occurredAt"`
}

// TurnEventPublisher отправляет события о завершённых ходах.
//
//go:generate mockery --name TurnEventPublisher --output ./mocks --outpkg mocks --case=underscore
type TurnEventPublisher interface {
	PublishTurnResolved(ctx context.Context, event TurnResolvedEvent) error
}
