package services

import (
	"context"

	"github.com/jrife/tokenbook/favorites"
	"github.com/jrife/tokenbook/identity"
)

// FavoritesService manages each caller's favorite tokens.
// The caller is always named explicitly.
type FavoritesService interface {
	// SaveFavorite appends token to the caller's favorites
	SaveFavorite(ctx context.Context, caller identity.Principal, token favorites.Token) (string, error)
	// RemoveFavorite removes every token matching symbol
	// case-insensitively from the caller's favorites
	RemoveFavorite(ctx context.Context, caller identity.Principal, symbol string) (string, error)
	// ListFavorites returns the caller's favorites in insertion order
	ListFavorites(ctx context.Context, caller identity.Principal) ([]favorites.Token, error)
}
