// Package tokenbookpb holds the gRPC service description and
// message types of the tokenbook API. Messages travel as JSON.
package tokenbookpb

import "github.com/jrife/tokenbook/favorites"

type GetPriceRequest struct {
	CoinID string `json:"coin_id"`
}

type SaveFavoriteRequest struct {
	Token favorites.Token `json:"token"`
}

type RemoveFavoriteRequest struct {
	Symbol string `json:"symbol"`
}

type ListFavoritesRequest struct{}

type MessageResponse struct {
	Message string `json:"message"`
}

type ListFavoritesResponse struct {
	Favorites []favorites.Token `json:"favorites"`
}
