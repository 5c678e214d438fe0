package clients

import (
	"context"

	"github.com/jrife/tokenbook/errs"
	"github.com/jrife/tokenbook/favorites"
	"github.com/jrife/tokenbook/transport/tokenbookpb"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

var _ TokenbookClient = (*GRPCClient)(nil)

// ErrUnauthenticated is returned when the server rejects
// the client's bearer token
var ErrUnauthenticated = errs.New("unauthenticated", "unauthenticated")

// GRPCClient is a TokenbookClient for the gRPC frontend
type GRPCClient struct {
	client tokenbookpb.TokenbookClient
	token  string
}

// NewGRPCClient creates a client that authenticates every call
// with the bearer token
func NewGRPCClient(conn grpc.ClientConnInterface, token string) *GRPCClient {
	return &GRPCClient{client: tokenbookpb.NewTokenbookClient(conn), token: token}
}

func (c *GRPCClient) outgoing(ctx context.Context) context.Context {
	if c.token == "" {
		return ctx
	}

	return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+c.token)
}

// GetPrice implements TokenbookClient.GetPrice
func (c *GRPCClient) GetPrice(ctx context.Context, coinID string) (string, error) {
	res, err := c.client.GetPrice(c.outgoing(ctx), &tokenbookpb.GetPriceRequest{CoinID: coinID})

	if err != nil {
		return "", fromStatus(err)
	}

	return res.Message, nil
}

// SaveFavorite implements TokenbookClient.SaveFavorite
func (c *GRPCClient) SaveFavorite(ctx context.Context, token favorites.Token) (string, error) {
	res, err := c.client.SaveFavorite(c.outgoing(ctx), &tokenbookpb.SaveFavoriteRequest{Token: token})

	if err != nil {
		return "", fromStatus(err)
	}

	return res.Message, nil
}

// RemoveFavorite implements TokenbookClient.RemoveFavorite
func (c *GRPCClient) RemoveFavorite(ctx context.Context, symbol string) (string, error) {
	res, err := c.client.RemoveFavorite(c.outgoing(ctx), &tokenbookpb.RemoveFavoriteRequest{Symbol: symbol})

	if err != nil {
		return "", fromStatus(err)
	}

	return res.Message, nil
}

// ListFavorites implements TokenbookClient.ListFavorites
func (c *GRPCClient) ListFavorites(ctx context.Context) ([]favorites.Token, error) {
	res, err := c.client.ListFavorites(c.outgoing(ctx), &tokenbookpb.ListFavoritesRequest{})

	if err != nil {
		return nil, fromStatus(err)
	}

	if res.Favorites == nil {
		return []favorites.Token{}, nil
	}

	return res.Favorites, nil
}

// fromStatus converts a gRPC status back into a classified error
func fromStatus(err error) error {
	s, ok := status.FromError(err)

	if !ok {
		return errs.Internal("call failed", errs.WithCause(err))
	}

	switch s.Code() {
	case codes.InvalidArgument:
		return errs.InvalidInput(s.Message())
	case codes.NotFound:
		return errs.NotFound(s.Message())
	case codes.Unavailable:
		return errs.Upstream(s.Message())
	case codes.Unauthenticated:
		return errs.New(ErrUnauthenticated.Kind, s.Message())
	}

	return errs.Internal(s.Message())
}
