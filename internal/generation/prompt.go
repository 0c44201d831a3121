package generation

import (
	"fmt"
	"strings"
)

const systemPromptTemplate = `You are a gritty, noir detective story writer.

RULES:
1. Write in the second person ("You walk into the room...").
2. Keep it atmospheric, cynical, and descriptive.
3. Length: Approx 100-150 words.
4. Provide exactly 2 distinct choices.

OUTPUT FORMAT (JSON):
{
  "content": "Story text...",
  "choices": [{ "label": "...", "intent": "..." }, { "label": "...", "intent": "..." }]%s
}`

const rootTitleField = `,
  "title": "Generate a short, punchy title for this specific story (max 5 words)"`

const userInputPrefix = "Generate the next part of the story.\n"

// SystemPrompt returns the instruction block. Only story roots ask for a title.
func SystemPrompt(isRoot bool) string {
	if isRoot {
		return fmt.Sprintf(systemPromptTemplate, rootTitleField)
	}
	return fmt.Sprintf(systemPromptTemplate, "")
}

// RootInput builds the user turn for a new story from its seed.
func RootInput(seed string) string {
	return userInputPrefix + "START OF STORY: " + strings.TrimSpace(seed)
}

// ContinuationInput builds the user turn from the parent passage and the chosen label.
func ContinuationInput(previousContent, choiceLabel string) string {
	var b strings.Builder
	b.WriteString(userInputPrefix)
	fmt.Fprintf(&b, "PREVIOUS SCENE: \"%s\"\n", previousContent)
	fmt.Fprintf(&b, "USER ACTION: The user chose to \"%s\".", choiceLabel)
	return b.String()
}
