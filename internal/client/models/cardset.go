package models

import (
	"slices"
	"time"
)

// CardSet is a named collection of flashcards. The persistent store owns
// card sets; everything else works on copies. UpdatedAt is never earlier
// than CreatedAt.
type CardSet struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Theme       string      `json:"theme,omitempty"`
	Tags        []string    `json:"tags"`
	Cards       []Flashcard `json:"cards"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
	SourceType  InputType   `json:"sourceType,omitempty"`
	SourceValue string      `json:"sourceValue,omitempty"`
}

// Clone returns a deep copy; tags and cards are fresh slices.
func (s CardSet) Clone() CardSet {
	s.Tags = cloneNonNil(s.Tags)
	s.Cards = cloneNonNil(s.Cards)
	return s
}

// CloneCardSets deep-copies every set into a new slice.
func CloneCardSets(sets []CardSet) []CardSet {
	out := make([]CardSet, len(sets))
	for i, s := range sets {
		out[i] = s.Clone()
	}
	return out
}

func cloneNonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return slices.Clone(in)
}

// CardSetPatch lists the fields of an update; nil fields are unchanged.
// ID and CreatedAt cannot be patched and UpdatedAt is maintained by the
// store.
type CardSetPatch struct {
	Name        *string
	Description *string
	Theme       *string
	Tags        *[]string
	Cards       *[]Flashcard
	SourceType  *InputType
	SourceValue *string
}

// Apply returns a copy of s with p merged in.
func (s CardSet) Apply(p CardSetPatch) CardSet {
	s = s.Clone()
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Description != nil {
		s.Description = *p.Description
	}
	if p.Theme != nil {
		s.Theme = *p.Theme
	}
	if p.Tags != nil {
		s.Tags = cloneNonNil(*p.Tags)
	}
	if p.Cards != nil {
		s.Cards = cloneNonNil(*p.Cards)
	}
	if p.SourceType != nil {
		s.SourceType = *p.SourceType
	}
	if p.SourceValue != nil {
		s.SourceValue = *p.SourceValue
	}
	return s
}

// CardSetFilter narrows a card-set listing. Zero values match everything.
type CardSetFilter struct {
	Theme string
	Tags  []string
}

// LibraryView is one emission of the store's live view.
type LibraryView struct {
	CardSets []CardSet
	Themes   []string
	Tags     []string
	Err      error
}

// Tag is a known tag name.
type Tag struct {
	ID   string
	Name string
}
