package repository

import (
	"time"
)

// CacheRepository defines cache and distributed-lock operations.
type CacheRepository interface {
	Set(key string, value interface{}, expiration time.Duration) error
	Get(key string) (string, error)
	Delete(key string) error
	Increment(key string) (int64, error)
	SetJSON(key string, value interface{}, expiration time.Duration) error
	GetJSON(key string, dest interface{}) error
	Exists(key string) (bool, error)
	// SetNX sets the key only if it does not exist; used as a best-effort
	// mutual-exclusion lock (sweep leader, per-contest deletion).
	SetNX(key string, value interface{}, expiration time.Duration) (bool, error)
}
