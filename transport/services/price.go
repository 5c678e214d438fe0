package services

import "context"

// PriceService quotes coin prices
type PriceService interface {
	// GetPrice returns a message stating the USD price of coinID
	GetPrice(ctx context.Context, coinID string) (string, error)
}
