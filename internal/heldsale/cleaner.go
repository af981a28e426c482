package heldsale

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/cashdesk/cashdesk/internal/observability/logger"
)

var (
	cleanupMetricsOnce sync.Once

	cleanupRunsTotal    *prometheus.CounterVec
	cleanupDeletedTotal prometheus.Counter
)

func registerCleanupMetrics() {
	cleanupMetricsOnce.Do(func() {
		cleanupRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "held_sale_cleanup_runs_total",
			Help: "Corridas del cleaner de held sales por resultado",
		}, []string{"result"}) // result: ok|error
		cleanupDeletedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "held_sale_cleanup_deleted_total",
			Help: "Held sales expiradas purgadas",
		})
		prometheus.MustRegister(cleanupRunsTotal, cleanupDeletedTotal)
	})
}

// Cleaner corre CleanupExpired en un ticker. Es seguro correrlo junto al
// tráfico normal de hold/retrieve: solo borra filas que matchean su propio
// predicado de expiración.
type Cleaner struct {
	svc      *Service
	interval time.Duration
}

func NewCleaner(svc *Service, interval time.Duration) *Cleaner {
	if interval <= 0 {
		interval = time.Hour
	}
	registerCleanupMetrics()
	return &Cleaner{svc: svc, interval: interval}
}

// Run bloquea hasta que el contexto se cancele. Una corrida fallida se
// loguea y se reintenta en el próximo tick.
func (c *Cleaner) Run(ctx context.Context) error {
	log := logger.Named("heldsale.cleaner")
	log.Info("cleaner started",
		zap.Duration("interval", c.interval),
		zap.Duration("retention", c.svc.Retention()))

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("cleaner stopped")
			return ctx.Err()
		case <-ticker.C:
			n, err := c.svc.CleanupExpired(ctx)
			if err != nil {
				cleanupRunsTotal.WithLabelValues("error").Inc()
				log.Error("cleanup run failed", zap.Error(err))
				continue
			}
			cleanupRunsTotal.WithLabelValues("ok").Inc()
			cleanupDeletedTotal.Add(float64(n))
		}
	}
}
