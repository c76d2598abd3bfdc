package database

import (
	"fmt"
	"sync"
	"time"
)

// storePool holds the process-wide store instance so every request reuses
// the same connection pool instead of dialing per call.
type storePool struct {
	instance StoreInterface
	config   StoreConfig
	mu       sync.RWMutex
	lastUsed time.Time
}

var (
	globalPool *storePool
	poolMutex  sync.Mutex
)

// GetStore returns the shared store, creating it on first use or when the
// configuration changed.
func GetStore(config StoreConfig) StoreInterface {
	poolMutex.Lock()
	defer poolMutex.Unlock()

	if globalPool == nil || shouldRecreate(globalPool, config) {
		fmt.Printf("Creating new store connection\n")

		if globalPool != nil && globalPool.instance != nil {
			globalPool.instance.Close()
		}

		globalPool = &storePool{
			instance: NewStore(config),
			config:   config,
			lastUsed: time.Now(),
		}
	} else {
		globalPool.mu.Lock()
		globalPool.lastUsed = time.Now()
		globalPool.mu.Unlock()
	}

	return globalPool.instance
}

func shouldRecreate(pool *storePool, newConfig StoreConfig) bool {
	if pool == nil || pool.instance == nil {
		return true
	}
	return pool.config != newConfig
}

// GetConnectionStats exposes pool state for the debug endpoint
func GetConnectionStats() map[string]interface{} {
	poolMutex.Lock()
	defer poolMutex.Unlock()

	if globalPool == nil {
		return map[string]interface{}{"initialized": false}
	}

	globalPool.mu.RLock()
	defer globalPool.mu.RUnlock()
	return map[string]interface{}{
		"initialized": true,
		"last_used":   globalPool.lastUsed.Format(time.RFC3339),
		"memory":      globalPool.config.UseMemoryStore || globalPool.config.PostgresDSN == "",
	}
}
