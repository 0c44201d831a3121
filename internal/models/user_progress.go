package models

import (
	"time"

	"github.com/google/uuid"
)

// UserProgress хранит текущую позицию пользователя в дереве истории.
type UserProgress struct {
	UserID        uuid.UUID   `db:"user_id" json:"userId"`
	CurrentNodeID uuid.UUID   `db:"current_node_id" json:"currentNodeId"`
	PathHistory   []uuid.UUID `db:"path_history" json:"pathHistory"`
	SelectedGenre *string     `db:"selected_genre" json:"selectedGenre,omitempty"`
	StoryTitle    *string     `db:"story_title" json:"storyTitle,omitempty"`
	Version       int64       `db:"version" json:"version"`
	CreatedAt     time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time   `db:"updated_at" json:"updatedAt"`
}

// ProgressUpdate carries partial fields for an upsert. A nil field (or an
// empty StoryTitle) leaves the stored value untouched.
type ProgressUpdate struct {
	CurrentNodeID *uuid.UUID
	PathHistory   []uuid.UUID
	SelectedGenre *string
	StoryTitle    *string

	// ExpectedVersion makes the update conditional on the stored version.
	// Nil means unconditional.
	ExpectedVersion *int64
}
