package database

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

type poolMetric struct {
	desc  *prometheus.Desc
	kind  prometheus.ValueType
	value func(*pgxpool.Stat) float64
}

// PoolStatsCollector exports pgxpool statistics as Prometheus metrics.
type PoolStatsCollector struct {
	stat    func() *pgxpool.Stat
	service string
	metrics []poolMetric
}

// NewPoolStatsCollector creates a collector over pool. A nil pool yields a
// collector that describes its metrics but collects nothing.
func NewPoolStatsCollector(pool *pgxpool.Pool, service string) *PoolStatsCollector {
	c := &PoolStatsCollector{service: service}
	if pool != nil {
		c.stat = pool.Stat
	}

	gauge := func(name, help string, v func(*pgxpool.Stat) float64) {
		c.metrics = append(c.metrics, poolMetric{
			desc:  prometheus.NewDesc(name, help, []string{"service"}, nil),
			kind:  prometheus.GaugeValue,
			value: v,
		})
	}
	counter := func(name, help string, v func(*pgxpool.Stat) float64) {
		c.metrics = append(c.metrics, poolMetric{
			desc:  prometheus.NewDesc(name, help, []string{"service"}, nil),
			kind:  prometheus.CounterValue,
			value: v,
		})
	}

	gauge("db_pool_acquired_connections", "Number of currently acquired connections",
		func(s *pgxpool.Stat) float64 { return float64(s.AcquiredConns()) })
	gauge("db_pool_idle_connections", "Number of currently idle connections",
		func(s *pgxpool.Stat) float64 { return float64(s.IdleConns()) })
	gauge("db_pool_total_connections", "Total number of connections in the pool",
		func(s *pgxpool.Stat) float64 { return float64(s.TotalConns()) })
	gauge("db_pool_max_connections", "Maximum number of connections allowed",
		func(s *pgxpool.Stat) float64 { return float64(s.MaxConns()) })
	counter("db_pool_acquire_count_total", "Total number of connection acquires",
		func(s *pgxpool.Stat) float64 { return float64(s.AcquireCount()) })
	counter("db_pool_acquire_duration_seconds_total", "Total time spent acquiring connections",
		func(s *pgxpool.Stat) float64 { return s.AcquireDuration().Seconds() })
	counter("db_pool_empty_acquire_count_total", "Acquires that had to wait for a connection",
		func(s *pgxpool.Stat) float64 { return float64(s.EmptyAcquireCount()) })
	counter("db_pool_canceled_acquire_count_total", "Acquires canceled by their context",
		func(s *pgxpool.Stat) float64 { return float64(s.CanceledAcquireCount()) })

	return c
}

// Describe implements prometheus.Collector.
func (c *PoolStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, m := range c.metrics {
		ch <- m.desc
	}
}

// Collect implements prometheus.Collector.
func (c *PoolStatsCollector) Collect(ch chan<- prometheus.Metric) {
	if c.stat == nil {
		return
	}
	stat := c.stat()
	for _, m := range c.metrics {
		ch <- prometheus.MustNewConstMetric(m.desc, m.kind, m.value(stat), c.service)
	}
}

// RegisterPoolMetrics registers a pool collector with reg.
func RegisterPoolMetrics(reg prometheus.Registerer, pool *pgxpool.Pool, service string) error {
	return reg.Register(NewPoolStatsCollector(pool, service))
}
