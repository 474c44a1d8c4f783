package peblar

import "github.com/thinkgos/gopeblar/modbus"

// Option client option
type Option func(c *Client)

// WithLogProvider set logger provider, it shares the modbus LogProvider contract.
func WithLogProvider(p modbus.LogProvider) Option {
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
