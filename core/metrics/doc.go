// Package metrics exposes Prometheus collectors for sync passes.
//
// Collectors are registered on the Registerer passed to New, so tests can use
// a private registry:
//
//	reg := prometheus.NewRegistry()
//	m := metrics.New(reg)
//	m.ObservePass(result, err)
package metrics
