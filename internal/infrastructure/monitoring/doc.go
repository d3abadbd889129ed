/*
Package monitoring provides Prometheus metrics for the message broker.

# Overview

Each Metrics value owns its own prometheus.Registry, so several brokers (or
tests) can live in one process without colliding on registration.

# Metrics

  - ipc_broker_frames_total{command}: frames dispatched by command
  - ipc_broker_frames_ignored_total{reason}: frames dropped without reply
  - ipc_broker_sessions_active / ipc_broker_sessions_total
  - ipc_broker_queue_depth / ipc_broker_queue_capacity
  - ipc_broker_wait_seconds{op}: time spent blocked in enqueue or dequeue
  - ipc_broker_accept_errors_total
  - ipc_admin_http_requests_total{method,path,status}

# Usage

	metrics := monitoring.NewMetrics()
	metrics.SetQueueCapacity(q.Cap())

	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
*/
package monitoring
