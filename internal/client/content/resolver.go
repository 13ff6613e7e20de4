package content

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/flashgenius/internal/client/models"
	"github.com/dmitrijs2005/flashgenius/internal/common"
	"github.com/dmitrijs2005/flashgenius/internal/filex"
)

// URLFetcher returns the readable text of a web page.
type URLFetcher interface {
	FetchURLContent(ctx context.Context, pageURL string) (string, error)
}

// Resolver resolves staged input into a generation payload.
type Resolver struct {
	urls        URLFetcher
	maxChars    int
	maxFileSize int64
}

func NewResolver(urls URLFetcher, maxChars int, maxFileSize int64) *Resolver {
	if maxChars <= 0 {
		maxChars = common.MaxInputChars
	}
	if maxFileSize <= 0 {
		maxFileSize = common.MaxFileSizeBytes
	}
	return &Resolver{urls: urls, maxChars: maxChars, maxFileSize: maxFileSize}
}

// Resolve produces the payload for v interpreted as t.
//
// Text and fetched page content are sent as text. Text files are sent as a
// file whose value is their text; images and PDFs are sent as a file whose
// value is a base64 data URI. Every text value is capped at the configured
// number of characters.
func (r *Resolver) Resolve(ctx context.Context, t models.InputType, v models.InputValue) (models.Payload, error) {
	switch t {
	case models.InputText:
		s, ok := v.(models.TextInput)
		if !ok {
			return models.Payload{}, fmt.Errorf("%w: text input expects text", common.ErrValidation)
		}
		return r.text(models.InputText, string(s)), nil

	case models.InputURL:
		s, ok := v.(models.TextInput)
		if !ok {
			return models.Payload{}, fmt.Errorf("%w: url input expects a url", common.ErrValidation)
		}
		return r.resolveURL(ctx, strings.TrimSpace(string(s)))

	case models.InputFile:
		m, ok := v.(models.MediaInput)
		if !ok {
			return models.Payload{}, fmt.Errorf("%w: file input expects file content", common.ErrValidation)
		}
		return r.resolveFile(m)

	default:
		return models.Payload{}, fmt.Errorf("%w: unknown input type %q", common.ErrValidation, t)
	}
}

func (r *Resolver) text(t models.InputType, s string) models.Payload {
	s, cut := Truncate(s, r.maxChars)
	return models.Payload{InputType: t, Value: s, Truncated: cut}
}

func (r *Resolver) resolveURL(ctx context.Context, raw string) (models.Payload, error) {
	if err := ValidateURL(raw); err != nil {
		return models.Payload{}, err
	}
	if r.urls == nil {
		return models.Payload{}, fmt.Errorf("%w: url content fetching is not configured", common.ErrContent)
	}

	page, err := r.urls.FetchURLContent(ctx, raw)
	if err != nil {
		return models.Payload{}, err
	}
	if strings.TrimSpace(page) == "" {
		return models.Payload{}, fmt.Errorf("%w: no readable content at %s", common.ErrContent, raw)
	}
	return r.text(models.InputText, page), nil
}

func (r *Resolver) resolveFile(m models.MediaInput) (models.Payload, error) {
	if int64(len(m.Data)) > r.maxFileSize {
		return models.Payload{}, fmt.Errorf("%w: %s: %w", common.ErrValidation, m.Name, filex.ErrTooLarge)
	}

	mime := m.MIME
	if mime == "" {
		var err error
		if mime, err = DetectMIME(m.Name, m.Data); err != nil {
			return models.Payload{}, err
		}
	}

	if IsText(mime) {
		if !utf8.Valid(m.Data) {
			return models.Payload{}, fmt.Errorf("%w: %s is not valid UTF-8 text", common.ErrContent, m.Name)
		}
		return r.text(models.InputFile, string(m.Data)), nil
	}

	return models.Payload{InputType: models.InputFile, Value: DataURI(mime, m.Data)}, nil
}

// DataURI encodes data as a base64 data URI.
func DataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ValidateURL accepts absolute http and https URLs only.
func ValidateURL(raw string) error {
	u, err := url.ParseRequestURI(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q is not a valid http(s) url", common.ErrValidation, raw)
	}
	return nil
}
