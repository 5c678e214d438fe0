package transport

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jrife/tokenbook/errs"
	"github.com/jrife/tokenbook/favorites"
	"github.com/jrife/tokenbook/identity"
)

var _ TokenbookServer = (*FakeServer)(nil)

// FakeServer is an in-memory TokenbookServer for exercising
// frontends. Prices maps lower-cased coin ids to USD prices.
type FakeServer struct {
	mu        sync.Mutex
	favorites map[identity.Principal][]favorites.Token
	Prices    map[string]string
}

// NewFakeServer creates an empty FakeServer
func NewFakeServer() *FakeServer {
	return &FakeServer{
		favorites: map[identity.Principal][]favorites.Token{},
		Prices:    map[string]string{},
	}
}

// GetPrice implements TokenbookServer.GetPrice
func (server *FakeServer) GetPrice(ctx context.Context, coinID string) (string, error) {
	server.mu.Lock()
	defer server.mu.Unlock()

	coin := strings.ToLower(coinID)

	if coin == "" {
		return "", errs.Upstream("Failed to get coin price")
	}

	usd, ok := server.Prices[coin]

	if !ok {
		return "", errs.NotFound("Coin not found")
	}

	return fmt.Sprintf("The price of %s is $%s", coin, usd), nil
}

// SaveFavorite implements TokenbookServer.SaveFavorite
func (server *FakeServer) SaveFavorite(ctx context.Context, caller identity.Principal, token favorites.Token) (string, error) {
	if err := token.Validate(); err != nil {
		return "", err
	}

	server.mu.Lock()
	defer server.mu.Unlock()

	server.favorites[caller] = append(server.favorites[caller], token)

	return fmt.Sprintf("Token %s added to favorites", token.Name), nil
}

// RemoveFavorite implements TokenbookServer.RemoveFavorite
func (server *FakeServer) RemoveFavorite(ctx context.Context, caller identity.Principal, symbol string) (string, error) {
	server.mu.Lock()
	defer server.mu.Unlock()

	tokens, ok := server.favorites[caller]

	if !ok {
		return "", errs.NotFound(favorites.MessageNoFavorites)
	}

	var name string
	kept := []favorites.Token{}

	for _, token := range tokens {
		if token.Matches(symbol) {
			if name == "" {
				name = token.Name
			}

			continue
		}

		kept = append(kept, token)
	}

	if len(kept) == len(tokens) {
		return "", errs.NotFound(favorites.MessageTokenNotFound)
	}

	server.favorites[caller] = kept

	return fmt.Sprintf("Token %s removed from favorites", name), nil
}

// ListFavorites implements TokenbookServer.ListFavorites
func (server *FakeServer) ListFavorites(ctx context.Context, caller identity.Principal) ([]favorites.Token, error) {
	server.mu.Lock()
	defer server.mu.Unlock()

	tokens, ok := server.favorites[caller]

	if !ok {
		return nil, errs.NotFound(favorites.MessageNoFavorites)
	}

	return append([]favorites.Token{}, tokens...), nil
}
