// Package models holds the domain types shared by the FlashGenius client:
// flashcards and card sets, generation options and staged input, and the
// values exchanged with the persistent store and the generation service.
package models
