// Package metrics holds the Prometheus collectors of the auth service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry is the collector registry exposed on /api/debug/metrics.
var Registry = prometheus.NewRegistry()

var (
	Signups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stockmaster",
		Subsystem: "auth",
		Name:      "signups_total",
		Help:      "Signup attempts by outcome.",
	}, []string{"outcome"})

	Verifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stockmaster",
		Subsystem: "auth",
		Name:      "verifications_total",
		Help:      "Email verification attempts by outcome.",
	}, []string{"outcome"})

	Logins = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stockmaster",
		Subsystem: "auth",
		Name:      "logins_total",
		Help:      "Login attempts by outcome.",
	}, []string{"outcome"})

	OTPDispatches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stockmaster",
		Subsystem: "auth",
		Name:      "otp_dispatches_total",
		Help:      "Verification code deliveries by result.",
	}, []string{"result"})
)

func init() {
	Registry.MustRegister(
		Signups,
		Verifications,
		Logins,
		OTPDispatches,
		collectors.NewGoCollector(),
	)
}

// Outcome returns "ok" for a nil error and code otherwise.
func Outcome(code string, err error) string {
	if err == nil {
		return "ok"
	}
	if code == "" {
		return "error"
	}
	return code
}
