package container

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	renewalTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leasekeeper_renewal_total",
			Help: "Total number of lease renewal attempts",
		},
		[]string{"path", "status"},
	)

	rotationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leasekeeper_rotation_total",
			Help: "Total number of secret rotation attempts",
		},
		[]string{"path", "status"},
	)

	fetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leasekeeper_fetch_total",
			Help: "Total number of initial secret fetches",
		},
		[]string{"path", "status"},
	)

	revocationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leasekeeper_revocation_total",
			Help: "Total number of lease revocation attempts",
		},
		[]string{"status"},
	)

	scheduledSecrets = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "leasekeeper_scheduled_secrets",
			Help: "Current number of secrets with a live scheduled trigger",
		},
	)
)

func recordRenewal(path, status string) {
	renewalTotal.WithLabelValues(normalizeLabel(path), normalizeLabel(status)).Inc()
}

func recordRotation(path, status string) {
	rotationTotal.WithLabelValues(normalizeLabel(path), normalizeLabel(status)).Inc()
}

func recordFetch(path, status string) {
	fetchTotal.WithLabelValues(normalizeLabel(path), normalizeLabel(status)).Inc()
}

func recordRevocation(status string) {
	revocationTotal.WithLabelValues(normalizeLabel(status)).Inc()
}

func normalizeLabel(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "unknown"
	}
	return trimmed
}
