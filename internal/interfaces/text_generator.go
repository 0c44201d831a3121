package interfaces

import "context"

// TextGenerator is the external generation collaborator: prompt in, free-form text out.
//
//go:generate mockery --name TextGenerator --output ./mocks --outpkg mocks --case=underscore
type TextGenerator interface {
	GenerateText(ctx context.Context, userID string, systemPrompt string, userInput string) (string, error)
}
