package storage

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var backendOps = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "dedications",
	Name:      "backend_operations_total",
	Help:      "Storage backend operations by backend, operation and outcome.",
}, []string{"backend", "op", "outcome"})

// Observe conta un'operazione sul backend
func Observe(backend, op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	backendOps.WithLabelValues(backend, op, outcome).Inc()
}
