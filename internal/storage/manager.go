// Package storage provides the top-level StorageManager over the
// embedded BadgerHold store.
package storage

import (
	"fmt"

	"github.com/qiuyin/fundwatch/internal/common"
	"github.com/qiuyin/fundwatch/internal/interfaces"
	"github.com/qiuyin/fundwatch/internal/storage/badger"
)

// Manager implements interfaces.StorageManager.
type Manager struct {
	store      *badger.Store
	watchlist  interfaces.WatchlistStore
	fundDetail interfaces.FundDetailStore
	kv         interfaces.KeyValueStore
	logger     *common.Logger
}

// NewManager opens the embedded store and wires the entity stores.
func NewManager(logger *common.Logger, config *common.Config) (*Manager, error) {
	store, err := badger.NewStore(logger, config.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	logger.Info().Str("path", config.Storage.Path).Msg("Storage manager initialized")

	return &Manager{
		store:      store,
		watchlist:  badger.NewWatchlistStorage(store, logger),
		fundDetail: badger.NewFundDetailStorage(store, logger),
		kv:         badger.NewKVStorage(store, logger),
		logger:     logger,
	}, nil
}

func (m *Manager) WatchlistStore() interfaces.WatchlistStore {
	return m.watchlist
}

func (m *Manager) FundDetailStore() interfaces.FundDetailStore {
	return m.fundDetail
}

func (m *Manager) KeyValueStore() interfaces.KeyValueStore {
	return m.kv
}

func (m *Manager) Close() error {
	return m.store.Close()
}

// Ensure Manager implements StorageManager
var _ interfaces.StorageManager = (*Manager)(nil)
