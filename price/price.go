// Package price quotes cryptocurrency prices in USD from CoinGecko.
// A fetch is split into a pure request builder and a pure response
// handler so that every replica derives the same quote from the same
// agreed response.
package price

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"
	"github.com/jrife/tokenbook/errs"
	"github.com/jrife/tokenbook/outcall"
	"github.com/jrife/tokenbook/utils/log"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	// DefaultEndpoint is CoinGecko's simple price endpoint
	DefaultEndpoint = "https://api.coingecko.com/api/v3/simple/price"
	// DefaultMaxResponseBytes bounds the upstream response body
	DefaultMaxResponseBytes = 5000
	// DefaultCycles is charged to the outcall budget per fetch
	DefaultCycles = 90_000_000
)

const (
	// MessageFetchFailed is reported for a non-success upstream response
	MessageFetchFailed = "Failed to get coin price"
	// MessageCoinNotFound is reported when the upstream has no price for a coin
	MessageCoinNotFound = "Coin not found"
)

// Quote is the USD price of one coin
type Quote struct {
	CoinID string
	USD    decimal.Decimal
}

// Message renders the quote for callers
func (quote Quote) Message() string {
	return fmt.Sprintf("The price of %s is $%s", quote.CoinID, quote.USD.String())
}

// Outcaller issues a replicated outcall
type Outcaller interface {
	Outcall(ctx context.Context, request outcall.Request) (outcall.Response, error)
}

// Config configures a Fetcher
type Config struct {
	Logger    *zap.Logger
	Outcaller Outcaller
	// Endpoint defaults to DefaultEndpoint
	Endpoint string
	// MaxResponseBytes defaults to DefaultMaxResponseBytes
	MaxResponseBytes uint64
	// Cycles defaults to DefaultCycles
	Cycles uint64
}

// Fetcher fetches quotes through replicated outcalls
type Fetcher struct {
	logger           *zap.Logger
	outcaller        Outcaller
	endpoint         string
	maxResponseBytes uint64
	cycles           uint64
}

// New creates a Fetcher
func New(config Config) (*Fetcher, error) {
	if config.Outcaller == nil {
		return nil, fmt.Errorf("an outcaller is required")
	}

	fetcher := &Fetcher{
		logger:           config.Logger,
		outcaller:        config.Outcaller,
		endpoint:         config.Endpoint,
		maxResponseBytes: config.MaxResponseBytes,
		cycles:           config.Cycles,
	}

	if fetcher.logger == nil {
		fetcher.logger = zap.L()
	}

	if fetcher.endpoint == "" {
		fetcher.endpoint = DefaultEndpoint
	}

	if _, err := url.Parse(fetcher.endpoint); err != nil {
		return nil, fmt.Errorf("invalid price endpoint %q: %s", fetcher.endpoint, err)
	}

	if fetcher.maxResponseBytes == 0 {
		fetcher.maxResponseBytes = DefaultMaxResponseBytes
	}

	if fetcher.cycles == 0 {
		fetcher.cycles = DefaultCycles
	}

	return fetcher, nil
}

// BuildRequest builds the outcall for coinID against the
// default endpoint
func BuildRequest(coinID string) outcall.Request {
	return buildRequest(DefaultEndpoint, coinID, DefaultMaxResponseBytes, DefaultCycles)
}

func buildRequest(endpoint string, coinID string, maxResponseBytes uint64, cycles uint64) outcall.Request {
	coin := url.QueryEscape(strings.ToLower(coinID))

	return outcall.Request{
		URL:              fmt.Sprintf("%s?ids=%s&vs_currencies=usd", endpoint, coin),
		Method:           http.MethodGet,
		Headers:          []outcall.Header{},
		MaxResponseBytes: maxResponseBytes,
		Transform:        &outcall.TransformRef{Function: outcall.TransformHTTPResponse},
		Cycles:           cycles,
	}
}

// HandleResponse extracts the USD price of coinID from
// an agreed upstream response
func HandleResponse(coinID string, response outcall.Response) (Quote, error) {
	if response.Status != http.StatusOK {
		return Quote{}, errs.Upstream(MessageFetchFailed, errs.WithCause(fmt.Errorf("upstream status %d", response.Status)))
	}

	var body map[string]json.RawMessage

	if err := json.Unmarshal(response.Body, &body); err != nil || body == nil {
		return Quote{}, errs.Upstream(MessageFetchFailed, errs.WithCause(fmt.Errorf("malformed upstream body: %v", err)))
	}

	coin := strings.ToLower(coinID)
	rawCoin, ok := body[coin]

	if !ok {
		return Quote{}, errs.NotFound(MessageCoinNotFound)
	}

	var prices map[string]json.RawMessage

	if err := json.Unmarshal(rawCoin, &prices); err != nil {
		return Quote{}, errs.NotFound(MessageCoinNotFound, errs.WithCause(err))
	}

	usd, err := parseNumber(prices["usd"])

	if err != nil {
		return Quote{}, errs.NotFound(MessageCoinNotFound, errs.WithCause(err))
	}

	return Quote{CoinID: coin, USD: usd}, nil
}

func parseNumber(raw json.RawMessage) (decimal.Decimal, error) {
	text := strings.TrimSpace(string(raw))

	if text == "" {
		return decimal.Decimal{}, fmt.Errorf("no usd price")
	}

	if c := text[0]; c != '-' && (c < '0' || c > '9') {
		return decimal.Decimal{}, fmt.Errorf("usd price %s is not a number", text)
	}

	return decimal.NewFromString(text)
}

// FetchPrice builds the request for coinID, issues it as a
// replicated outcall and handles the agreed response. Any
// failure of the outcall itself is an upstream error.
func (fetcher *Fetcher) FetchPrice(ctx context.Context, coinID string) (Quote, error) {
	logger := log.WithContext(ctx, fetcher.logger).With(zap.String("operation", "FetchPrice"), zap.String("coin", coinID))
	logger.Debug("start FetchPrice()")

	request := buildRequest(fetcher.endpoint, coinID, fetcher.maxResponseBytes, fetcher.cycles)
	response, err := fetcher.outcaller.Outcall(ctx, request)

	if err != nil {
		logger.Warn("outcall failed", zap.Error(err))

		var e *errs.Error

		if errors.As(err, &e) {
			return Quote{}, err
		}

		return Quote{}, errs.Upstream(MessageFetchFailed, errs.WithCause(err))
	}

	quote, err := HandleResponse(coinID, response)

	if err != nil {
		logger.Debug("error", zap.Error(err))

		return Quote{}, err
	}

	logger.Debug("return from FetchPrice()", zap.String("usd", quote.USD.String()))

	return quote, nil
}
