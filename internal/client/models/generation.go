package models

import (
	"fmt"
	"strings"
)

// CardType selects the flashcard format requested from the generator.
type CardType string

const (
	CardTypeTermDefinition   CardType = "term-definition"
	CardTypeQA               CardType = "qa"
	CardTypeImageDescription CardType = "image-description"
)

// ParseCardType validates s as a CardType.
func ParseCardType(s string) (CardType, error) {
	switch t := CardType(strings.TrimSpace(s)); t {
	case CardTypeTermDefinition, CardTypeQA, CardTypeImageDescription:
		return t, nil
	default:
		return "", fmt.Errorf("unknown card type %q", s)
	}
}

// GenerationOptions configures a generation request.
type GenerationOptions struct {
	CardType         CardType `json:"cardType"`
	Language         string   `json:"language"`
	AdditionalPrompt string   `json:"additionalPrompt,omitempty"`
}

// OptionsPatch is a partial GenerationOptions; nil fields are unchanged.
type OptionsPatch struct {
	CardType         *CardType
	Language         *string
	AdditionalPrompt *string
}

// Merge returns a new record with p applied over o.
func (o GenerationOptions) Merge(p OptionsPatch) GenerationOptions {
	if p.CardType != nil {
		o.CardType = *p.CardType
	}
	if p.Language != nil {
		o.Language = *p.Language
	}
	if p.AdditionalPrompt != nil {
		o.AdditionalPrompt = *p.AdditionalPrompt
	}
	return o
}

// InputType tells how a staged input value should be interpreted.
// The zero value means no type has been chosen yet.
type InputType string

const (
	InputNone InputType = ""
	InputFile InputType = "file"
	InputURL  InputType = "url"
	InputText InputType = "text"
)

// ParseInputType validates s as a non-empty InputType.
func ParseInputType(s string) (InputType, error) {
	switch t := InputType(strings.TrimSpace(s)); t {
	case InputFile, InputURL, InputText:
		return t, nil
	default:
		return InputNone, fmt.Errorf("unknown input type %q", s)
	}
}

// InputValue is the staged input: TextInput, MediaInput, or nil for none.
type InputValue interface {
	isInputValue()
}

// TextInput is raw text, or a URL when the input type is InputURL.
type TextInput string

// MediaInput is the content of a user-selected file.
type MediaInput struct {
	Name string
	Data []byte
	MIME string
}

func (TextInput) isInputValue()  {}
func (MediaInput) isInputValue() {}

// IsEmptyInput reports whether v carries nothing to generate from.
func IsEmptyInput(v InputValue) bool {
	switch in := v.(type) {
	case nil:
		return true
	case TextInput:
		return strings.TrimSpace(string(in)) == ""
	case MediaInput:
		return len(in.Data) == 0
	default:
		return true
	}
}

// Payload is a staged input resolved into what the generation endpoint
// accepts: plain text or an inline data URI.
type Payload struct {
	InputType InputType
	Value     string
	Truncated bool
}

// GenerateRequest is the body of a generation call.
type GenerateRequest struct {
	InputType         InputType          `json:"inputType"`
	InputValue        string             `json:"inputValue"`
	GenerationOptions *GenerationOptions `json:"generationOptions,omitempty"`
}
