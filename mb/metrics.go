package mb

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/thinkgos/gopeblar"
)

type metrics struct {
	requests *prometheus.CounterVec
	errors   *prometheus.CounterVec
	values   *prometheus.GaugeVec
}

func newMetrics() *metrics {
	return &metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "peblar_poll_requests_total",
			Help: "Register reads issued by the poller.",
		}, []string{"register"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "peblar_poll_errors_total",
			Help: "Register reads that failed.",
		}, []string{"register"}),
		values: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "peblar_register_value",
			Help: "Last decoded value of a numeric or boolean register.",
		}, []string{"register"}),
	}
}

func (sf *metrics) mustRegister(r prometheus.Registerer) {
	r.MustRegister(sf.requests, sf.errors, sf.values)
}

// observe sets the value gauge, strings are skipped.
func (sf *metrics) observe(name string, value interface{}) {
	if f, ok := toFloat64(value); ok {
		sf.values.WithLabelValues(name).Set(f)
	}
}

func toFloat64(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case int16:
		return float64(v), true
	case uint16:
		return float64(v), true
	case int32:
		return float64(v), true
	case uint32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case peblar.CurrentLimitSource:
		return float64(v), true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}
