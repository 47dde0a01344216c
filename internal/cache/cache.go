package cache

import "time"

// Cache - хранилище с TTL. Реализации должны быть безопасны для конкурентного доступа.
type Cache[V any] interface {
	Get(key string) (V, bool)
	Set(key string, value V, ttl time.Duration)
	Delete(key string)
}
