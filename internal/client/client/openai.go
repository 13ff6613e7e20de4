package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/flashgenius/internal/client/models"
	"github.com/dmitrijs2005/flashgenius/internal/common"
	"github.com/dmitrijs2005/flashgenius/internal/netx"
	"github.com/sashabaranov/go-openai"
)

// maxPageBytes bounds the page text read through the reader proxy.
const maxPageBytes = 8 << 20

// OpenAIConfig configures OpenAIClient.
type OpenAIConfig struct {
	APIKey       string
	Model        string
	BaseURL      string
	ReaderPrefix string
	Timeout      time.Duration
}

// OpenAIClient implements Client directly on the OpenAI chat completions API.
type OpenAIClient struct {
	api          *openai.Client
	model        string
	http         *http.Client
	readerPrefix string
}

func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: openai api key is not configured", common.ErrValidation)
	}
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if cfg.ReaderPrefix == "" {
		cfg.ReaderPrefix = common.ReaderURLPrefix
	}

	hc := &http.Client{Timeout: cfg.Timeout}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	oc.HTTPClient = hc

	return &OpenAIClient{
		api:          openai.NewClientWithConfig(oc),
		model:        cfg.Model,
		http:         hc,
		readerPrefix: cfg.ReaderPrefix,
	}, nil
}

var cardTypeInstructions = map[models.CardType]string{
	models.CardTypeTermDefinition:   "Put a key term on the front and its definition on the back.",
	models.CardTypeQA:               "Put a question on the front and its answer on the back.",
	models.CardTypeImageDescription: "Put a description of a visual element on the front and what it shows on the back.",
}

func cardsPrompt(opts *models.GenerationOptions) string {
	var b strings.Builder
	b.WriteString(`Create study flashcards from the user's material. Reply with a JSON object of the form {"cards":[{"front":"...","back":"..."}]}.`)
	if opts == nil {
		return b.String()
	}
	if in, ok := cardTypeInstructions[opts.CardType]; ok {
		b.WriteString(" " + in)
	}
	if opts.Language != "" {
		fmt.Fprintf(&b, " Write the cards in %s.", opts.Language)
	}
	if opts.AdditionalPrompt != "" {
		b.WriteString(" " + opts.AdditionalPrompt)
	}
	return b.String()
}

func userMessage(value string) (openai.ChatCompletionMessage, error) {
	if !strings.HasPrefix(value, "data:") {
		return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: value}, nil
	}

	mime, _, _ := strings.Cut(strings.TrimPrefix(value, "data:"), ";")
	if !strings.HasPrefix(mime, "image/") {
		return openai.ChatCompletionMessage{}, fmt.Errorf("%w: %s input is not supported by the openai backend", common.ErrContent, mime)
	}
	return openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser,
		MultiContent: []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: "Create flashcards from this image."},
			{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: value, Detail: openai.ImageURLDetailAuto}},
		},
	}, nil
}

func (c *OpenAIClient) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	req.Model = c.model
	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", c.mapError(err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("%w: %w: no response from openai", common.ErrTransport, netx.ErrMalformedResponse)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (c *OpenAIClient) GenerateCards(ctx context.Context, req models.GenerateRequest) ([]models.GeneratedCard, error) {
	user, err := userMessage(req.InputValue)
	if err != nil {
		return nil, err
	}

	out, err := c.complete(ctx, openai.ChatCompletionRequest{
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: cardsPrompt(req.GenerationOptions)},
			user,
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	})
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Cards []models.GeneratedCard `json:"cards"`
	}
	if err := json.Unmarshal([]byte(out), &parsed); err != nil || parsed.Cards == nil {
		return nil, fmt.Errorf("%w: %w: cards reply is not the expected json", common.ErrTransport, netx.ErrMalformedResponse)
	}
	return parsed.Cards, nil
}

func (c *OpenAIClient) ask(ctx context.Context, instruction, front, back string) (string, error) {
	return c.complete(ctx, openai.ChatCompletionRequest{
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: instruction},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("Front: %s\nBack: %s", front, back)},
		},
	})
}

func (c *OpenAIClient) GenerateHint(ctx context.Context, front, back string) (string, error) {
	return c.ask(ctx, "Give a short hint that helps recall the back of this flashcard without revealing it. Answer in the language of the card.", front, back)
}

func (c *OpenAIClient) GenerateDetails(ctx context.Context, front, back string) (string, error) {
	return c.ask(ctx, "Explain the content of this flashcard in more depth, with context and an example. Answer in the language of the card.", front, back)
}

// FetchURLContent reads the page through the reader proxy, which returns it
// as plain text.
func (c *OpenAIClient) FetchURLContent(ctx context.Context, pageURL string) (string, error) {
	h := http.Header{}
	h.Set("Accept", "text/plain")

	page, err := netx.GetText(ctx, c.http, c.readerPrefix+pageURL, h, maxPageBytes)
	if err != nil {
		var se *netx.StatusError
		if errors.As(err, &se) {
			return "", fmt.Errorf("%w: fetching %s: %w", common.ErrContent, pageURL, err)
		}
		return "", fmt.Errorf("%w: %w: %w", common.ErrTransport, ErrUnavailable, err)
	}
	return page, nil
}

func (c *OpenAIClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *OpenAIClient) mapError(err error) error {
	var apiErr *openai.APIError
	var reqErr *openai.RequestError

	status := 0
	switch {
	case errors.Is(err, context.Canceled):
		return err
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	default:
		return fmt.Errorf("%w: %w: %w", common.ErrTransport, ErrUnavailable, err)
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: %w: %w", common.ErrTransport, ErrUnauthorized, err)
	case status == http.StatusTooManyRequests || status >= 500:
		return fmt.Errorf("%w: %w: %w", common.ErrTransport, ErrUnavailable, err)
	default:
		return fmt.Errorf("%w: %w", common.ErrTransport, err)
	}
}
