/*
Package monitoring provides Prometheus metrics for the sandbox service.

# Overview

Collectors are registered on an explicit prometheus.Registerer so tests and
embedded services can use private registries.

# Features

- HTTP request metrics (latency, throughput, size)
- Scan outcomes, duration and heuristic score distribution
- Active sessions and admission wait time
- Blocked downloads
- Alert deliveries per channel

# Usage

	registry := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(registry)

	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	timer := monitoring.NewTimer(metrics, "chat")
	// ... deliver alert ...
	timer.Stop("sent")
*/
package monitoring
