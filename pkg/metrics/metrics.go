// Package metrics 提供监控指标功能.
// 支持Prometheus标准，收集应用和采集管线指标.
//
// Example:
//
//	err := metrics.InitMetrics(config.Metrics)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	metrics.FilesTransferred.WithLabelValues(instrumentName).Inc()
package metrics

import (
	"net/http"
	_ "net/http/pprof" // 自动注册pprof端点

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yeisme/streamweave/pkg/configs"
)

// 全局指标变量.
var (
	// RequestCounter HTTP请求计数器.
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint"},
	)

	// RequestDuration HTTP请求持续时间.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// HarvestRuns 采集运行计数器，按仪器与结果分类.
	HarvestRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harvest_runs_total",
			Help: "Total number of harvest runs",
		},
		[]string{"instrument", "result"},
	)

	// FilesDiscovered 远端发现的文件数.
	FilesDiscovered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harvest_files_discovered_total",
			Help: "Total number of files discovered on instruments",
		},
		[]string{"instrument"},
	)

	// FilesTransferred 成功传输的文件数.
	FilesTransferred = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harvest_files_transferred_total",
			Help: "Total number of files transferred successfully",
		},
		[]string{"instrument"},
	)

	// FilesSkipped 被前置钩子跳过的文件数.
	FilesSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harvest_files_skipped_total",
			Help: "Total number of files skipped by pre-transfer hooks",
		},
		[]string{"instrument"},
	)

	// FilesFailed 传输失败的文件数.
	FilesFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harvest_files_failed_total",
			Help: "Total number of files that failed to transfer",
		},
		[]string{"instrument"},
	)

	// BytesTransferred 成功传输的字节数.
	BytesTransferred = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harvest_bytes_transferred_total",
			Help: "Total bytes transferred from instruments",
		},
		[]string{"instrument"},
	)

	// registry Prometheus注册表.
	registry = prometheus.NewRegistry()
)

// InitMetrics 初始化Metrics.
func InitMetrics(config configs.MetricsConfig) error {
	if !config.Enabled {
		return nil
	}

	// 注册标准收集器
	if config.RuntimeMetrics {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	// 注册自定义指标
	registry.MustRegister(
		RequestCounter, RequestDuration,
		HarvestRuns, FilesDiscovered, FilesTransferred,
		FilesSkipped, FilesFailed, BytesTransferred,
	)

	return nil
}

// StartMetricsServer 启动Metrics HTTP服务器.
func StartMetricsServer(config configs.MetricsConfig, debugEngine *gin.Engine) error {
	if !config.Enabled {
		return nil
	}

	debugEngine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// 如果启用pprof，注册pprof端点
	if config.Pprof {
		debugEngine.GET("/debug/pprof/*any", gin.WrapH(http.DefaultServeMux))
	}

	return nil
}

// GetRegistry 获取Prometheus注册表.
func GetRegistry() *prometheus.Registry {
	return registry
}
