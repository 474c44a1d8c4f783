package modbus

import (
	"time"
)

// Option client option.
type Option func(c *Client)

// WithUnitID set the unit id every request is addressed to, default 1.
func WithUnitID(id byte) Option {
	return func(c *Client) {
		c.unitID = id
	}
}

// WithTimeout set connect & per request timeout, default DefaultTimeout.
// zero disables the deadline.
func WithTimeout(t time.Duration) Option {
	return func(c *Client) {
		c.timeout = t
	}
}

// WithAutoReconnect set how many times a dropped connection is redialed
// within one request, 0 disables it. At most 6.
func WithAutoReconnect(cnt int) Option {
	return func(c *Client) {
		switch {
		case cnt < 0:
			cnt = 0
		case cnt > autoReconnectMax:
			cnt = autoReconnectMax
		}
		c.autoReconnect = cnt
	}
}

// WithLogProvider set logger provider.
func WithLogProvider(p LogProvider) Option {
	return func(c *Client) {
		c.setLogProvider(p)
	}
}

// WithEnableLogger enable log output.
func WithEnableLogger() Option {
	return func(c *Client) {
		c.LogMode(true)
	}
}
