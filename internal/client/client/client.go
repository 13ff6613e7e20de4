package client

import (
	"context"

	"github.com/dmitrijs2005/flashgenius/internal/client/models"
)

// Client is the contract of the generation service.
type Client interface {
	Close() error
	GenerateCards(ctx context.Context, req models.GenerateRequest) ([]models.GeneratedCard, error)
	GenerateHint(ctx context.Context, front, back string) (string, error)
	GenerateDetails(ctx context.Context, front, back string) (string, error)
	FetchURLContent(ctx context.Context, pageURL string) (string, error)
}
