package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BuildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "sql_schema_mcp_build_info",
		Help: "Build information of the SQL schema MCP server",
	}, []string{"version", "commit", "date", "driver"})

	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sql_schema_mcp_requests_total",
		Help: "Total MCP requests handled, by method and outcome.",
	}, []string{"method", "outcome"})
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sql_schema_mcp_request_duration_seconds",
		Help:    "Duration of MCP requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})

	QueryRowsReturned = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sql_schema_mcp_query_rows",
		Help:    "Rows returned per query tool call.",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	})
	RollbackFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sql_schema_mcp_rollback_failures_total",
		Help: "Read-only transactions whose rollback failed; the connection was discarded.",
	})
	GuardRejectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sql_schema_mcp_guard_rejections_total",
		Help: "Statements rejected by the strict-mode guard before execution.",
	})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sql_schema_mcp_http_requests_total",
		Help: "Total HTTP requests served by the streamable HTTP transport.",
	}, []string{"method", "endpoint", "status"})
)
