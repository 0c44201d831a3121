package generation

import (
	"encoding/json"
	"fmt"
	"strings"

	"story-graph-server/internal/models"
)

// StoryOutput is the structured result of one generation.
type StoryOutput struct {
	Content string          `json:"content"`
	Choices []models.Choice `json:"choices"`
	Title   string          `json:"title,omitempty"`
}

// StripCodeFences removes markdown fences around a JSON payload. Applying it
// to its own output changes nothing.
func StripCodeFences(raw string) string {
	s := strings.ReplaceAll(raw, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// ParseStoryOutput decodes and validates generated text. Any violation wraps
// models.ErrGenerationParse. Title is kept only for roots.
func ParseStoryOutput(raw string, isRoot bool) (*StoryOutput, error) {
	cleaned := StripCodeFences(raw)
	if cleaned == "" {
		return nil, fmt.Errorf("%w: empty output", models.ErrGenerationParse)
	}

	var out StoryOutput
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		// Модель иногда добавляет текст вокруг объекта.
		start, end := strings.Index(cleaned, "{"), strings.LastIndex(cleaned, "}")
		if start < 0 || end <= start {
			return nil, fmt.Errorf("%w: %v", models.ErrGenerationParse, err)
		}
		if err2 := json.Unmarshal([]byte(cleaned[start:end+1]), &out); err2 != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrGenerationParse, err)
		}
	}

	out.Content = strings.TrimSpace(out.Content)
	if out.Content == "" {
		return nil, fmt.Errorf("%w: content is missing", models.ErrGenerationParse)
	}
	if len(out.Choices) > models.MaxChoicesPerNode {
		return nil, fmt.Errorf("%w: %d choices, at most %d allowed", models.ErrGenerationParse, len(out.Choices), models.MaxChoicesPerNode)
	}

	seen := make(map[string]struct{}, len(out.Choices))
	for i := range out.Choices {
		out.Choices[i].Label = strings.TrimSpace(out.Choices[i].Label)
		out.Choices[i].Intent = strings.TrimSpace(out.Choices[i].Intent)
		label := out.Choices[i].Label
		if label == "" {
			return nil, fmt.Errorf("%w: choice %d has no label", models.ErrGenerationParse, i)
		}
		if _, dup := seen[label]; dup {
			return nil, fmt.Errorf("%w: duplicate choice label %q", models.ErrGenerationParse, label)
		}
		seen[label] = struct{}{}
	}
	if out.Choices == nil {
		out.Choices = []models.Choice{}
	}

	if isRoot {
		out.Title = strings.TrimSpace(out.Title)
	} else {
		out.Title = ""
	}
	return &out, nil
}
