// Package cachefactory instancia el backend de cache según config.
package cachefactory

import (
	"github.com/cashdesk/cashdesk/internal/cache"
	"github.com/cashdesk/cashdesk/internal/cache/memory"
	"github.com/cashdesk/cashdesk/internal/cache/redis"
)

// New construye el Client según cfg.Kind; cualquier valor desconocido cae
// al backend memory (comportamiento seguro para dev).
func New(cfg cache.Config) cache.Client {
	switch cfg.Kind {
	case "redis":
		return redis.New(cfg.Addr, cfg.DB, cfg.Prefix)
	default:
		return memory.New(cfg.Prefix, cfg.TTL)
	}
}
