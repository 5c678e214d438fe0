// Package service implements the four tokenbook operations on top
// of a host and a price fetcher.
package service

import (
	"context"
	"fmt"

	"github.com/jrife/tokenbook/errs"
	"github.com/jrife/tokenbook/favorites"
	"github.com/jrife/tokenbook/host"
	"github.com/jrife/tokenbook/identity"
	"github.com/jrife/tokenbook/price"
	sm_favorites "github.com/jrife/tokenbook/state_machine/favorites"
	"github.com/jrife/tokenbook/transport"
	"github.com/jrife/tokenbook/utils/log"
	"go.uber.org/zap"
)

// Config configures a Service
type Config struct {
	Logger *zap.Logger
	Host   *host.Host
	Prices *price.Fetcher
}

var _ transport.TokenbookServer = (*Service)(nil)

// Service implements transport.TokenbookServer
type Service struct {
	logger *zap.Logger
	host   *host.Host
	prices *price.Fetcher
}

// New creates a Service
func New(config Config) (*Service, error) {
	if config.Host == nil || config.Prices == nil {
		return nil, fmt.Errorf("service requires a host and a price fetcher")
	}

	service := &Service{logger: config.Logger, host: config.Host, prices: config.Prices}

	if service.logger == nil {
		service.logger = zap.L()
	}

	return service, nil
}

// GetPrice implements services.PriceService.GetPrice
func (service *Service) GetPrice(ctx context.Context, coinID string) (string, error) {
	logger := log.WithContext(ctx, service.logger).With(zap.String("operation", "GetPrice"))
	logger.Debug("start GetPrice()", zap.String("coin", coinID))

	quote, err := service.prices.FetchPrice(ctx, coinID)

	if err != nil {
		logger.Debug("error", zap.Error(err))

		return "", err
	}

	logger.Debug("return from GetPrice()")

	return quote.Message(), nil
}

// SaveFavorite implements services.FavoritesService.SaveFavorite.
// Invalid input is rejected before it reaches the log.
func (service *Service) SaveFavorite(ctx context.Context, caller identity.Principal, token favorites.Token) (string, error) {
	if err := checkCaller(caller); err != nil {
		return "", err
	}

	if err := token.Validate(); err != nil {
		return "", err
	}

	return service.host.Update(ctx, sm_favorites.Save(caller, token))
}

// RemoveFavorite implements services.FavoritesService.RemoveFavorite
func (service *Service) RemoveFavorite(ctx context.Context, caller identity.Principal, symbol string) (string, error) {
	if err := checkCaller(caller); err != nil {
		return "", err
	}

	return service.host.Update(ctx, sm_favorites.Remove(caller, symbol))
}

// ListFavorites implements services.FavoritesService.ListFavorites
func (service *Service) ListFavorites(ctx context.Context, caller identity.Principal) ([]favorites.Token, error) {
	if err := checkCaller(caller); err != nil {
		return nil, err
	}

	return service.host.List(ctx, caller)
}

func checkCaller(caller identity.Principal) error {
	if !caller.Valid() {
		return errs.InvalidInput("caller identity must not be empty")
	}

	return nil
}
