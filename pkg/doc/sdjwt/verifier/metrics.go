/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verifier

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const outcomeVerified = "Verified"

// Metrics holds Prometheus collectors for presentation verification.
type Metrics struct {
	Verifications       *prometheus.CounterVec
	VerifyDurationMs    prometheus.Histogram
	DisclosuresVerified prometheus.Counter
}

// NewMetrics registers and returns verification metrics collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Verifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sdjwt_verifications_total",
			Help: "Total number of verified presentations by outcome",
		}, []string{"outcome"}),
		VerifyDurationMs: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "sdjwt_verify_duration_ms",
			Help:    "Duration of presentation verification in milliseconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 1000},
		}),
		DisclosuresVerified: factory.NewCounter(prometheus.CounterOpts{
			Name: "sdjwt_disclosures_verified_total",
			Help: "Total number of Disclosures in verified presentations",
		}),
	}
}

func (m *Metrics) observe(outcome string, elapsed time.Duration, disclosures int) {
	m.Verifications.WithLabelValues(outcome).Inc()
	m.VerifyDurationMs.Observe(float64(elapsed.Microseconds()) / 1000) //nolint:gomnd
	m.DisclosuresVerified.Add(float64(disclosures))
}
