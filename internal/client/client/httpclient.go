package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/flashgenius/internal/client/models"
	"github.com/dmitrijs2005/flashgenius/internal/common"
	"github.com/dmitrijs2005/flashgenius/internal/netx"
)

// HTTPClient talks to the FlashGenius API over HTTP/JSON.
type HTTPClient struct {
	baseURL string
	http    *http.Client

	mu     sync.Mutex
	tokens *tokenSource
}

// HTTPOption customizes an HTTPClient.
type HTTPOption func(*HTTPClient)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(h *HTTPClient) { h.http = c }
}

// WithSigning attaches a bearer token signed with secret to every request.
func WithSigning(clientID string, secret []byte, ttl time.Duration) HTTPOption {
	return func(h *HTTPClient) {
		h.tokens = &tokenSource{clientID: clientID, secret: secret, ttl: ttl}
	}
}

func NewHTTPClient(baseURL string, timeout time.Duration, opts ...HTTPOption) (*HTTPClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: invalid api base url %q", common.ErrValidation, baseURL)
	}

	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *HTTPClient) header() (http.Header, error) {
	h := http.Header{}
	if c.tokens == nil {
		return h, nil
	}

	c.mu.Lock()
	tok, err := c.tokens.Token()
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	h.Set("Authorization", "Bearer "+tok)
	return h, nil
}

func (c *HTTPClient) post(ctx context.Context, path string, in, out any) error {
	h, err := c.header()
	if err != nil {
		return err
	}
	return c.mapError(netx.PostJSON(ctx, c.http, c.baseURL+path, h, in, out))
}

type cardPrompt struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

func (c *HTTPClient) GenerateCards(ctx context.Context, req models.GenerateRequest) ([]models.GeneratedCard, error) {
	var resp struct {
		Cards []models.GeneratedCard `json:"cards"`
	}
	if err := c.post(ctx, common.PathGenerateCards, req, &resp); err != nil {
		return nil, err
	}
	if resp.Cards == nil {
		return nil, fmt.Errorf("%w: %w: no cards in response", common.ErrTransport, netx.ErrMalformedResponse)
	}
	return resp.Cards, nil
}

func (c *HTTPClient) GenerateHint(ctx context.Context, front, back string) (string, error) {
	var resp struct {
		Hint string `json:"hint"`
	}
	if err := c.post(ctx, common.PathGenerateHint, cardPrompt{front, back}, &resp); err != nil {
		return "", err
	}
	return nonEmpty(resp.Hint, "hint")
}

func (c *HTTPClient) GenerateDetails(ctx context.Context, front, back string) (string, error) {
	var resp struct {
		Details string `json:"details"`
	}
	if err := c.post(ctx, common.PathGenerateDetails, cardPrompt{front, back}, &resp); err != nil {
		return "", err
	}
	return nonEmpty(resp.Details, "details")
}

func (c *HTTPClient) FetchURLContent(ctx context.Context, pageURL string) (string, error) {
	h, err := c.header()
	if err != nil {
		return "", err
	}

	var resp struct {
		Content string `json:"content"`
	}
	endpoint := c.baseURL + common.PathFetchURLContent + "?" + url.Values{"url": {pageURL}}.Encode()
	if err := c.mapError(netx.GetJSON(ctx, c.http, endpoint, h, &resp)); err != nil {
		return "", err
	}
	return resp.Content, nil
}

func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func nonEmpty(v, field string) (string, error) {
	if strings.TrimSpace(v) == "" {
		return "", fmt.Errorf("%w: %w: empty %s", common.ErrTransport, netx.ErrMalformedResponse, field)
	}
	return v, nil
}

func (c *HTTPClient) mapError(err error) error {
	if err == nil {
		return nil
	}

	var se *netx.StatusError
	var ne net.Error
	switch {
	case errors.Is(err, context.Canceled):
		return err
	case errors.As(err, &se):
		switch se.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %w: %s", common.ErrTransport, ErrUnauthorized, se.Message)
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return fmt.Errorf("%w: %w: %w", common.ErrTransport, ErrUnavailable, err)
		default:
			return fmt.Errorf("%w: %w", common.ErrTransport, err)
		}
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &ne):
		return fmt.Errorf("%w: %w: %w", common.ErrTransport, ErrUnavailable, err)
	default:
		return fmt.Errorf("%w: %w", common.ErrTransport, err)
	}
}
