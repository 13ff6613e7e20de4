package models

// Flashcard is a single two-sided card. Hint and Details are AI-derived
// caches filled lazily during study; an empty string means "not cached".
type Flashcard struct {
	ID         string `json:"id"`
	Front      string `json:"front"`
	Back       string `json:"back"`
	FrontImage string `json:"frontImage,omitempty"`
	BackImage  string `json:"backImage,omitempty"`
	Hint       string `json:"hint,omitempty"`
	Details    string `json:"details,omitempty"`
}

// FlashcardPatch carries the fields to overwrite; nil fields are left alone.
type FlashcardPatch struct {
	Front      *string
	Back       *string
	FrontImage *string
	BackImage  *string
	Hint       *string
	Details    *string
}

// Apply returns a copy of c with the non-nil fields of p merged in.
// The id is never patched.
func (c Flashcard) Apply(p FlashcardPatch) Flashcard {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&c.Front, p.Front)
	set(&c.Back, p.Back)
	set(&c.FrontImage, p.FrontImage)
	set(&c.BackImage, p.BackImage)
	set(&c.Hint, p.Hint)
	set(&c.Details, p.Details)
	return c
}

// CardCache holds the AI responses cached for one card.
type CardCache struct {
	Hint    string
	Details string
}

// Cache returns the responses already stored on the card.
func (c Flashcard) Cache() CardCache {
	return CardCache{Hint: c.Hint, Details: c.Details}
}

// IsZero reports whether nothing is cached.
func (c CardCache) IsZero() bool {
	return c.Hint == "" && c.Details == ""
}

// GeneratedCard is one card as returned by the generation endpoint.
type GeneratedCard struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}
