// Package manager pools open graph-store connections for the server layers.
package manager

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/ensworks/prodgraph/pkg/neo"
)

// MaxOpenStores bounds the number of simultaneously open drivers.
const MaxOpenStores = 4

// closeTimeout bounds the driver shutdown triggered by LRU eviction.
const closeTimeout = 10 * time.Second

// StoreManager caches open Neo4j stores keyed by (URI, database). Eviction
// closes the evicted driver.
type StoreManager struct {
	stores *lru.Cache[string, *neo.Neo4jStore]
	mu     sync.Mutex
	log    *zap.Logger
}

// NewStoreManager creates a new StoreManager.
func NewStoreManager(log *zap.Logger) *StoreManager {
	if log == nil {
		log = zap.NewNop()
	}

	// Eviction callback closes stores that fall out of the cache.
	cache, _ := lru.NewWithEvict[string, *neo.Neo4jStore](MaxOpenStores, func(key string, value *neo.Neo4jStore) {
		ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		if err := value.Close(ctx); err != nil {
			log.Warn("failed to close evicted store", zap.String("store", key), zap.Error(err))
		}
	})

	return &StoreManager{stores: cache, log: log}
}

func storeKey(cfg neo.Config) string {
	return cfg.URI + "|" + cfg.Database
}

// GetStore returns an open store for the given connection settings, opening
// and caching one if necessary. Get updates recency.
func (sm *StoreManager) GetStore(ctx context.Context, cfg neo.Config) (*neo.Neo4jStore, error) {
	key := storeKey(cfg)
	if s, ok := sm.stores.Get(key); ok {
		return s, nil
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	// Double-check under lock
	if s, ok := sm.stores.Get(key); ok {
		return s, nil
	}

	s, err := neo.NewNeo4jStore(ctx, cfg, sm.log)
	if err != nil {
		return nil, err
	}

	sm.stores.Add(key, s)
	return s, nil
}

// CloseAll shuts down every cached store.
func (sm *StoreManager) CloseAll() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.stores.Purge()
}
