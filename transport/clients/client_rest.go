package clients

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"
	"github.com/jrife/tokenbook/errs"
	"github.com/jrife/tokenbook/favorites"
)

// maxResponseBytes bounds response bodies read by RESTClient
const maxResponseBytes = 1 << 20

var _ TokenbookClient = (*RESTClient)(nil)

// RESTClient is a TokenbookClient for the REST frontend
type RESTClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewRESTClient creates a client for the frontend at baseURL. A nil
// httpClient uses http.DefaultClient.
func NewRESTClient(baseURL string, token string, httpClient *http.Client) *RESTClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &RESTClient{baseURL: strings.TrimRight(baseURL, "/"), token: token, client: httpClient}
}

type messageBody struct {
	Message string `json:"message"`
}

type favoritesBody struct {
	Favorites []favorites.Token `json:"favorites"`
}

type errorBody struct {
	Error struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	} `json:"error"`
}

// GetPrice implements TokenbookClient.GetPrice
func (c *RESTClient) GetPrice(ctx context.Context, coinID string) (string, error) {
	var body messageBody

	if err := c.do(ctx, http.MethodGet, "/prices/"+url.PathEscape(coinID), nil, &body); err != nil {
		return "", err
	}

	return body.Message, nil
}

// SaveFavorite implements TokenbookClient.SaveFavorite
func (c *RESTClient) SaveFavorite(ctx context.Context, token favorites.Token) (string, error) {
	var body messageBody

	if err := c.do(ctx, http.MethodPost, "/favorites", token, &body); err != nil {
		return "", err
	}

	return body.Message, nil
}

// RemoveFavorite implements TokenbookClient.RemoveFavorite
func (c *RESTClient) RemoveFavorite(ctx context.Context, symbol string) (string, error) {
	var body messageBody

	if err := c.do(ctx, http.MethodDelete, "/favorites/"+url.PathEscape(symbol), nil, &body); err != nil {
		return "", err
	}

	return body.Message, nil
}

// ListFavorites implements TokenbookClient.ListFavorites
func (c *RESTClient) ListFavorites(ctx context.Context) ([]favorites.Token, error) {
	var body favoritesBody

	if err := c.do(ctx, http.MethodGet, "/favorites", nil, &body); err != nil {
		return nil, err
	}

	if body.Favorites == nil {
		return []favorites.Token{}, nil
	}

	return body.Favorites, nil
}

func (c *RESTClient) do(ctx context.Context, method string, path string, in interface{}, out interface{}) error {
	var reader io.Reader

	if in != nil {
		encoded, err := json.Marshal(in)

		if err != nil {
			return errs.Internal("could not encode request", errs.WithCause(err))
		}

		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)

	if err != nil {
		return errs.Internal("could not build request", errs.WithCause(err))
	}

	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := c.client.Do(req)

	if err != nil {
		return errs.Internal("call failed", errs.WithCause(err))
	}

	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))

	if err != nil {
		return errs.Internal("could not read response", errs.WithCause(err))
	}

	if res.StatusCode != http.StatusOK {
		return fromErrorBody(res.StatusCode, raw)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return errs.Internal("could not decode response", errs.WithCause(err))
	}

	return nil
}

func fromErrorBody(statusCode int, raw []byte) error {
	var body errorBody

	if err := json.Unmarshal(raw, &body); err != nil || body.Error.Kind == "" {
		return errs.Internal(fmt.Sprintf("unexpected status %d", statusCode))
	}

	return errs.New(errs.Kind(body.Error.Kind), body.Error.Message)
}
