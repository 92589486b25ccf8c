// Package metrics 提供挂单引擎的 Prometheus 指标
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wyfcoding/dexladder/pkg/logger"
)

const namespace = "ladder"

// Metrics 指标集合
type Metrics struct {
	registry *prometheus.Registry

	// 轮询次数
	TicksTotal prometheus.Counter
	// 单轮耗时
	TickDuration prometheus.Histogram
	// 已提交挂单数
	OrdersSubmitted *prometheus.CounterVec
	// 检测到的成交
	FillsDetected *prometheus.CounterVec
	// 交易对级别错误，按错误类型区分
	PairErrors *prometheus.CounterVec
	// 当前挂单梯级数
	RestingRungs *prometheus.GaugeVec
	// 批次提交结果
	Batches *prometheus.CounterVec
}

// New 创建指标实例，serviceName 作为常量标签
func New(serviceName string) *Metrics {
	labels := prometheus.Labels{"service": serviceName}
	return &Metrics{
		registry: prometheus.NewRegistry(),
		TicksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "ticks_total",
			Help:        "Total polling ticks executed",
			ConstLabels: labels,
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "tick_duration_seconds",
			Help:        "Duration of one polling tick",
			Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			ConstLabels: labels,
		}),
		OrdersSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "orders_submitted_total",
			Help:        "Ladder rungs submitted to the exchange",
			ConstLabels: labels,
		}, []string{"symbol", "side"}),
		FillsDetected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "fills_detected_total",
			Help:        "Rungs detected as filled during reconciliation",
			ConstLabels: labels,
		}, []string{"symbol", "side"}),
		PairErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "pair_errors_total",
			Help:        "Per-pair tick errors by kind",
			ConstLabels: labels,
		}, []string{"symbol", "kind"}),
		RestingRungs: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "resting_rungs",
			Help:        "Rungs held in the ladder state",
			ConstLabels: labels,
		}, []string{"symbol"}),
		Batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "batches_total",
			Help:        "Submission batches by result",
			ConstLabels: labels,
		}, []string{"result"}),
	}
}

// Register 注册所有指标
func (m *Metrics) Register() error {
	collectors := []prometheus.Collector{
		m.TicksTotal,
		m.TickDuration,
		m.OrdersSubmitted,
		m.FillsDetected,
		m.PairErrors,
		m.RestingRungs,
		m.Batches,
		prometheus.NewGoCollector(),
	}
	for _, c := range collectors {
		if err := m.registry.Register(c); err != nil {
			return fmt.Errorf("register metric: %w", err)
		}
	}
	return nil
}

// Handler 返回 /metrics 处理器
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// NewHTTPServer 构建 Prometheus HTTP 服务器，由调用方负责启动与关闭
func (m *Metrics) NewHTTPServer(port int, path string) *http.Server {
	if path == "" {
		path = "/metrics"
	}
	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())
	logger.Info(context.Background(), "Prometheus metrics configured", "port", port, "path", path)
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
