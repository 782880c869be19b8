// Package metrics 提供基于Prometheus的指标收集
//
// 指标分三组：
//   - HTTP：请求总数、耗时、处理中的请求数
//   - 购买业务：提交结果（按失败原因）、提交耗时、赠送/撤销次数
//   - 依赖：缓存命中率、熔断器状态
//
// 命名规范：Counter以_total结尾，Histogram以单位结尾（_seconds）。
// 标签只使用有限取值（method、path模板、reason），不要使用顾客邮箱、购买UUID等高基数字段。
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// HTTPRequestsTotal HTTP请求总数
	// 标签：method、path（路由模板）、status
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration HTTP请求耗时
	HTTPRequestDuration *prometheus.HistogramVec

	// HTTPRequestsInProgress 正在处理的HTTP请求数
	HTTPRequestsInProgress prometheus.Gauge

	// PurchasesTotal 购买提交总数
	// 标签：result（success/failure）、reason（失败时为错误分类，成功时为空）
	PurchasesTotal *prometheus.CounterVec

	// PurchaseDuration 购买事务耗时
	PurchaseDuration prometheus.Histogram

	// PurchaseItemsTotal 成功售出的商品件数
	PurchaseItemsTotal prometheus.Counter

	// GiftTogglesTotal 赠送/撤销次数
	// 标签：action（gift/undo）、result（success/failure）
	GiftTogglesTotal *prometheus.CounterVec

	// CacheLookupsTotal 购买状态缓存查询次数
	// 标签：result（hit/miss/error）
	CacheLookupsTotal *prometheus.CounterVec

	// CircuitBreakerState 熔断器状态（0=CLOSED, 1=OPEN, 2=HALF_OPEN）
	CircuitBreakerState *prometheus.GaugeVec
)

// InitMetrics 注册所有指标到默认Registry
// 可重复调用，只有第一次生效
func InitMetrics() {
	once.Do(func() {
		HTTPRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "HTTP请求总数",
			},
			[]string{"method", "path", "status"},
		)

		HTTPRequestDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP请求耗时（秒）",
				Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10},
			},
			[]string{"method", "path"},
		)

		HTTPRequestsInProgress = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_progress",
				Help: "正在处理的HTTP请求数",
			},
		)

		PurchasesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "purchases_total",
				Help: "购买提交总数",
			},
			[]string{"result", "reason"},
		)

		// 购买事务包含行锁等待，桶上限放宽到10秒
		PurchaseDuration = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "purchase_duration_seconds",
				Help:    "购买事务耗时（秒）",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
			},
		)

		PurchaseItemsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "purchase_items_sold_total",
				Help: "成功售出的商品件数",
			},
		)

		GiftTogglesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "purchase_gift_toggles_total",
				Help: "购买记录赠送/撤销次数",
			},
			[]string{"action", "result"},
		)

		CacheLookupsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "purchase_status_cache_lookups_total",
				Help: "购买状态缓存查询次数",
			},
			[]string{"result"},
		)

		CircuitBreakerState = promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "熔断器状态（0=CLOSED, 1=OPEN, 2=HALF_OPEN）",
			},
			[]string{"name"},
		)
	})
}

// ObserveHTTPRequest 记录一次HTTP请求
func ObserveHTTPRequest(method, path string, status int, elapsed time.Duration) {
	InitMetrics()
	HTTPRequestsTotal.With(prometheus.Labels{
		"method": method,
		"path":   path,
		"status": strconv.Itoa(status),
	}).Inc()
	HTTPRequestDuration.With(prometheus.Labels{
		"method": method,
		"path":   path,
	}).Observe(elapsed.Seconds())
}

// TrackInFlight 处理中请求数+1，返回的函数用于-1
func TrackInFlight() func() {
	InitMetrics()
	HTTPRequestsInProgress.Inc()
	return HTTPRequestsInProgress.Dec
}

// RecordPurchase 记录一次购买提交
// reason为空表示成功
func RecordPurchase(reason string, items int, elapsed time.Duration) {
	InitMetrics()
	PurchaseDuration.Observe(elapsed.Seconds())
	if reason == "" {
		PurchasesTotal.WithLabelValues("success", "").Inc()
		PurchaseItemsTotal.Add(float64(items))
		return
	}
	PurchasesTotal.WithLabelValues("failure", reason).Inc()
}

// RecordGiftToggle 记录一次赠送/撤销
func RecordGiftToggle(action string, success bool) {
	InitMetrics()
	result := "success"
	if !success {
		result = "failure"
	}
	GiftTogglesTotal.WithLabelValues(action, result).Inc()
}

// RecordCacheLookup 记录一次缓存查询（hit/miss/error）
func RecordCacheLookup(result string) {
	InitMetrics()
	CacheLookupsTotal.WithLabelValues(result).Inc()
}

// SetCircuitBreakerState 更新熔断器状态
func SetCircuitBreakerState(name string, state int) {
	InitMetrics()
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}
