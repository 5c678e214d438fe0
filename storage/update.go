package storage

import (
	"context"

	"github.com/jrife/tokenbook/favorites"
	"github.com/jrife/tokenbook/identity"
	"github.com/jrife/tokenbook/storage/kv"
	"github.com/jrife/tokenbook/utils/log"
	"go.uber.org/zap"
)

var _ Update = (*update)(nil)

type update struct {
	replicaStore *replicaStore
	index        uint64
	logger       *zap.Logger
}

// SaveFavorite implements Update.SaveFavorite
func (update *update) SaveFavorite(ctx context.Context, owner identity.Principal, token favorites.Token) (string, error) {
	logger := log.WithContext(ctx, update.logger).With(zap.String("operation", "SaveFavorite"), zap.String("owner", string(owner)))
	logger.Debug("start SaveFavorite()", zap.String("symbol", token.Symbol))

	var message string

	err := update.replicaStore.applyUpdate(update.index, func(txn kv.Transaction) error {
		var err error

		message, err = favorites.Save(txn, owner, token)

		return err
	})

	if err != nil {
		err = wrapError("could not save favorite", err)

		logger.Debug("error", zap.Error(err))

		return "", err
	}

	logger.Debug("return from SaveFavorite()", zap.String("message", message))

	return message, nil
}

// RemoveFavorite implements Update.RemoveFavorite
func (update *update) RemoveFavorite(ctx context.Context, owner identity.Principal, symbol string) (string, error) {
	logger := log.WithContext(ctx, update.logger).With(zap.String("operation", "RemoveFavorite"), zap.String("owner", string(owner)))
	logger.Debug("start RemoveFavorite()", zap.String("symbol", symbol))

	var message string

	err := update.replicaStore.applyUpdate(update.index, func(txn kv.Transaction) error {
		var err error

		message, err = favorites.Remove(txn, owner, symbol)

		return err
	})

	if err != nil {
		err = wrapError("could not remove favorite", err)

		logger.Debug("error", zap.Error(err))

		return "", err
	}

	logger.Debug("return from RemoveFavorite()", zap.String("message", message))

	return message, nil
}

// Skip implements Update.Skip
func (update *update) Skip(ctx context.Context) error {
	logger := log.WithContext(ctx, update.logger).With(zap.String("operation", "Skip"))
	logger.Debug("start Skip()")

	err := update.replicaStore.applyUpdate(update.index, func(txn kv.Transaction) error {
		return nil
	})

	if err != nil {
		err = wrapError("could not skip update", err)

		logger.Debug("error", zap.Error(err))

		return err
	}

	logger.Debug("return from Skip()")

	return nil
}
