package clients

import (
	"context"

	"github.com/jrife/tokenbook/favorites"
)

// TokenbookClient describes the interface
// for public clients of a tokenbook node.
// In other words, this interface describes
// all operations a user of tokenbook may
// want to perform. The caller's identity
// is bound to the client.
type TokenbookClient interface {
	GetPrice(ctx context.Context, coinID string) (string, error)
	SaveFavorite(ctx context.Context, token favorites.Token) (string, error)
	RemoveFavorite(ctx context.Context, symbol string) (string, error)
	ListFavorites(ctx context.Context) ([]favorites.Token, error)
}
