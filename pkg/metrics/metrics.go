// Package metrics Prometheus 指标定义
//
// 所有指标注册在独立的 Registry 上，由 /metrics 暴露：
//
//	r.Use(middleware.Metrics())
//	r.GET("/metrics", gin.WrapH(metrics.Handler()))
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "partsshop"

// ==================== HTTP ====================

var (
	// RequestDuration 请求耗时，按方法、路由、状态码
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal 请求总数
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	// RequestInFlight 正在处理的请求数
	RequestInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "Number of HTTP requests currently being served.",
	})
)

// ==================== 业务 ====================

var (
	// FilterResolutions 筛选器解析次数，result: hit | miss | error
	FilterResolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "filter_resolutions_total",
			Help:      "Effective category filter resolutions by cache result.",
		},
		[]string{"result"},
	)

	// OrdersCreated 下单成功数
	OrdersCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "orders",
		Name:      "created_total",
		Help:      "Total orders placed through checkout.",
	})

	// OrdersExpired 超时未付款自动取消数
	OrdersExpired = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "orders",
		Name:      "expired_total",
		Help:      "Total unpaid orders canceled by the expiry task.",
	})

	// TaskDuration 定时任务耗时
	TaskDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "task",
			Name:      "duration_seconds",
			Help:      "Duration of scheduled task runs in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"task", "status"},
	)
)

// Registry 本服务使用的注册表
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(collectors.NewGoCollector())
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	Registry.MustRegister(
		RequestDuration,
		RequestTotal,
		RequestInFlight,
		FilterResolutions,
		OrdersCreated,
		OrdersExpired,
		TaskDuration,
	)
}

// Handler /metrics 处理器
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// ObserveTask 记录一次任务执行
//
//	defer metrics.ObserveTask("order_expire", time.Now(), &err)
func ObserveTask(task string, start time.Time, err *error) {
	status := "success"
	if err != nil && *err != nil {
		status = "failed"
	}
	TaskDuration.WithLabelValues(task, status).Observe(time.Since(start).Seconds())
}
