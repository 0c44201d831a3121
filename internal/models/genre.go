package models

// Genre is an entry of the story start catalog.
type Genre struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Prompt string `json:"prompt"`
}

// DefaultOpeningLine seeds a root generation when neither a genre seed nor a
// catalog genre is given.
const DefaultOpeningLine = "The detective arrives at the crime scene."

var genreCatalog = []Genre{
	{ID: "noir", Label: "Noir Detective", Prompt: "A gritty, rainy 1940s detective mystery."},
	{ID: "cyberpunk", Label: "Cyberpunk", Prompt: "A neon-soaked futuristic corporate espionage thriller."},
	{ID: "fantasy", Label: "Dark Fantasy", Prompt: "A medieval mystery involving magic and old gods."},
	{ID: "horror", Label: "Cosmic Horror", Prompt: "A Lovecraftian investigation in a small fishing town."},
}

// Genres returns a copy of the catalog in display order.
func Genres() []Genre {
	out := make([]Genre, len(genreCatalog))
	copy(out, genreCatalog)
	return out
}

// FindGenre looks a catalog entry up by id.
func FindGenre(id string) (Genre, bool) {
	for _, g := range genreCatalog {
		if g.ID == id {
			return g, true
		}
	}
	return Genre{}, false
}
