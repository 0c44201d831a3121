package handler

import (
	"story-graph-server/internal/models"
)

// turnRequest - тело POST /story/turns. Все поля опциональны на уровне JSON,
// согласованность проверяется в обработчике и сервисе.
type turnRequest struct {
	UserID         *string `json:"userId"`
	PreviousNodeID *string `json:"previousNodeId"`
	ChoiceLabel    *string `json:"choiceLabel"`
	Genre          *string `json:"genre"`
	GenreID        *string `json:"genreId"`
}

type turnResponse struct {
	Node          *models.StoryNode `json:"node"`
	Choices       []models.Choice   `json:"choices"`
	Title         string            `json:"title,omitempty"`
	Reused        bool              `json:"reused"`
	ProgressSaved bool              `json:"progressSaved"`
}

type storyResponse struct {
	Progress *models.UserProgress `json:"progress"`
	Nodes    []*models.StoryNode  `json:"nodes"`
}

type genresResponse struct {
	Genres []models.Genre `json:"genres"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
