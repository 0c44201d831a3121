package models

import (
	"time"

	"github.com/google/uuid"
)

// RootChoiceLabel is stored as the choice label of every story root.
const RootChoiceLabel = "Start"

// MaxChoicesPerNode bounds the outgoing choices a node may carry.
const MaxChoicesPerNode = 2

// Choice is an outgoing edge of a node that may not be materialized yet.
type Choice struct {
	Label  string `json:"label"`
	Intent string `json:"intent"`
}

// StoryNode is one generated passage. Nodes are immutable once inserted.
type StoryNode struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	Content       string     `db:"content" json:"content"`
	ChapterNumber int        `db:"chapter_number" json:"chapterNumber"`
	PageNumber    int        `db:"page_number" json:"pageNumber"`
	ParentNodeID  *uuid.UUID `db:"parent_node_id" json:"parentNodeId"`
	ChoiceLabel   string     `db:"choice_label" json:"choiceLabel"`
	Choices       []Choice   `db:"choices" json:"choices"`
	CreatedAt     time.Time  `db:"created_at" json:"createdAt"`
}

// IsRoot reports whether the node starts a story.
func (n *StoryNode) IsRoot() bool {
	return n.ParentNodeID == nil
}

// NewStoryNode holds the fields needed to insert a node. ID and CreatedAt are
// assigned by the store.
type NewStoryNode struct {
	Content       string
	ChapterNumber int
	PageNumber    int
	ParentNodeID  *uuid.UUID
	ChoiceLabel   string
	Choices       []Choice
}
