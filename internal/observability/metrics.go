package observability

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/officechat-backend/internal/platform/logger"
)

const DefaultScrapeInterval = 10 * time.Second

// Metrics holds every collector the service exports. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	apiRequests     *prometheus.CounterVec
	apiLatency      *prometheus.HistogramVec
	apiInflight     prometheus.Gauge
	chatOps         *prometheus.CounterVec
	eventsPublished *prometheus.CounterVec
	activeStreams   prometheus.Gauge
	droppedFrames   prometheus.Counter
	notifications   *prometheus.CounterVec
	pgStats         *prometheus.GaugeVec
	redisUp         prometheus.Gauge
	redisPing       prometheus.Gauge
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "officechat_api_requests_total",
			Help: "Total API requests by method/route/status.",
		}, []string{"method", "route", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "officechat_api_request_duration_seconds",
			Help:    "API request latency in seconds by method/route/status.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"method", "route", "status"}),
		apiInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "officechat_api_inflight_requests",
			Help: "In-flight API requests.",
		}),
		chatOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "officechat_chat_operations_total",
			Help: "Chat and presence operations by op/result.",
		}, []string{"op", "result"}),
		eventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "officechat_events_published_total",
			Help: "Broadcast events published by type.",
		}, []string{"type"}),
		activeStreams: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "officechat_active_streams",
			Help: "Connected event stream clients.",
		}),
		droppedFrames: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "officechat_stream_dropped_frames_total",
			Help: "Publications dropped because a client buffer was full.",
		}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "officechat_notifications_total",
			Help: "Notification deliveries by result.",
		}, []string{"result"}),
		pgStats: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "officechat_db_pool",
			Help: "Database connection pool stats.",
		}, []string{"stat"}),
		redisUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "officechat_redis_up",
			Help: "1 when the last redis ping succeeded.",
		}),
		redisPing: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "officechat_redis_ping_seconds",
			Help: "Latency of the last successful redis ping.",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.apiRequests,
		m.apiLatency,
		m.apiInflight,
		m.chatOps,
		m.eventsPublished,
		m.activeStreams,
		m.droppedFrames,
		m.notifications,
		m.pgStats,
		m.redisUp,
		m.redisPing,
	)
	return m
}

// Handler serves the prometheus exposition format. A nil receiver serves 404.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route, status).Observe(dur.Seconds())
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

// ObserveChatOp records one chat operation. result is "ok" or an error code.
func (m *Metrics) ObserveChatOp(op, result string) {
	if m == nil {
		return
	}
	m.chatOps.WithLabelValues(op, result).Inc()
}

func (m *Metrics) IncEventPublished(eventType string) {
	if m == nil {
		return
	}
	m.eventsPublished.WithLabelValues(eventType).Inc()
}

func (m *Metrics) StreamOpened() {
	if m == nil {
		return
	}
	m.activeStreams.Inc()
}

func (m *Metrics) StreamClosed(dropped int64) {
	if m == nil {
		return
	}
	m.activeStreams.Dec()
	if dropped > 0 {
		m.droppedFrames.Add(float64(dropped))
	}
}

func (m *Metrics) AddNotifications(delivered, failed int) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues("delivered").Add(float64(delivered))
	m.notifications.WithLabelValues("failed").Add(float64(failed))
}

func (m *Metrics) StartPostgresCollector(ctx context.Context, log *logger.Logger, db *gorm.DB, interval time.Duration) {
	if m == nil || db == nil {
		return
	}
	if interval <= 0 {
		interval = DefaultScrapeInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: db stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.pgStats.WithLabelValues("open_connections").Set(float64(stats.OpenConnections))
				m.pgStats.WithLabelValues("in_use").Set(float64(stats.InUse))
				m.pgStats.WithLabelValues("idle").Set(float64(stats.Idle))
				m.pgStats.WithLabelValues("wait_count").Set(float64(stats.WaitCount))
				m.pgStats.WithLabelValues("wait_duration_seconds").Set(stats.WaitDuration.Seconds())
				m.pgStats.WithLabelValues("max_open_connections").Set(float64(stats.MaxOpenConnections))
			}
		}
	}()
}

// StartRedisCollector pings the shared client on every tick until ctx is done.
func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb goredis.UniversalClient, interval time.Duration) {
	if m == nil || rdb == nil {
		return
	}
	if interval <= 0 {
		interval = DefaultScrapeInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.pingRedis(ctx, log, rdb)
			}
		}
	}()
}

func (m *Metrics) pingRedis(ctx context.Context, log *logger.Logger, rdb goredis.UniversalClient) {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	start := time.Now()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		m.redisUp.Set(0)
		if log != nil && !strings.Contains(err.Error(), "context canceled") {
			log.Warn("metrics: redis ping failed", "error", err)
		}
		return
	}
	m.redisUp.Set(1)
	m.redisPing.Set(time.Since(start).Seconds())
}
