package mb

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Option optional setting
type Option func(p *Poller)

// WithReadyQueueSize ready queue length
func WithReadyQueueSize(size int) Option {
	return func(p *Poller) {
		if size > 0 {
			p.readyQueueSize = size
		}
	}
}

// WitchHandler set handler
func WitchHandler(h Handler) Option {
	return func(p *Poller) {
		if h != nil {
			p.handler = h
		}
	}
}

// WitchRetryRandValue unit ms.
// upper bound of the random delay before a ready request is queued
// again when the ready queue is full.
func WitchRetryRandValue(v int) Option {
	return func(p *Poller) {
		if v > 0 {
			p.randValue = v
		}
	}
}

// WitchPanicHandle panic callback, mostly for debugging
func WitchPanicHandle(f func(interface{})) Option {
	return func(p *Poller) {
		if f != nil {
			p.panicHandle = f
		}
	}
}

// WithRegisterer registers the poller metrics with r.
// It panics if the metrics are already registered.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(p *Poller) {
		if r != nil {
			p.metrics.mustRegister(r)
		}
	}
}
