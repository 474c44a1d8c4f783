// Package goburrow adapts github.com/goburrow/modbus to peblar.Transport.
package goburrow

import (
	"encoding/binary"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/goburrow/modbus"

	"github.com/thinkgos/gopeblar"
)

// coil values on the wire for WriteSingleCoil
const (
	coilOn  = 0xff00
	coilOff = 0x0000
)

// Transport peblar.Transport over a goburrow TCP handler.
type Transport struct {
	mu      sync.Mutex
	handler *modbus.TCPClientHandler
	client  modbus.Client
}

var _ peblar.Transport = (*Transport)(nil)

// Option configures the underlying TCP handler.
type Option func(h *modbus.TCPClientHandler)

// WithTimeout set connect & read timeout.
func WithTimeout(t time.Duration) Option {
	return func(h *modbus.TCPClientHandler) {
		h.Timeout = t
	}
}

// WithIdleTimeout set the idle time after which the connection is closed.
func WithIdleTimeout(t time.Duration) Option {
	return func(h *modbus.TCPClientHandler) {
		h.IdleTimeout = t
	}
}

// WithLogger set the handler frame logger.
func WithLogger(l *log.Logger) Option {
	return func(h *modbus.TCPClientHandler) {
		h.Logger = l
	}
}

// New returns a Transport for address bound to unitID. It is not connected yet.
func New(address string, unitID byte, opts ...Option) *Transport {
	h := modbus.NewTCPClientHandler(address)
	h.SlaveId = unitID
	for _, opt := range opts {
		opt(h)
	}
	return &Transport{
		handler: h,
		client:  modbus.NewClient(h),
	}
}

// Connect dials the remote.
func (sf *Transport) Connect() error {
	return sf.handler.Connect()
}

// Close closes the connection.
func (sf *Transport) Close() error {
	return sf.handler.Close()
}

// ReadCoils implements peblar.Transport.
func (sf *Transport) ReadCoils(address, quantity uint16) ([]bool, error) {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	b, err := sf.client.ReadCoils(address, quantity)
	if err != nil {
		return nil, err
	}
	return bytesToBools(b, quantity), nil
}

// ReadInputRegisters implements peblar.Transport.
func (sf *Transport) ReadInputRegisters(address, quantity uint16) ([]uint16, error) {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	b, err := sf.client.ReadInputRegisters(address, quantity)
	if err != nil {
		return nil, err
	}
	return bytesToWords(b)
}

// ReadHoldingRegisters implements peblar.Transport.
func (sf *Transport) ReadHoldingRegisters(address, quantity uint16) ([]uint16, error) {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	b, err := sf.client.ReadHoldingRegisters(address, quantity)
	if err != nil {
		return nil, err
	}
	return bytesToWords(b)
}

// WriteSingleCoil implements peblar.Transport.
func (sf *Transport) WriteSingleCoil(address uint16, on bool) error {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	value := uint16(coilOff)
	if on {
		value = coilOn
	}
	_, err := sf.client.WriteSingleCoil(address, value)
	return err
}

// WriteMultipleCoils implements peblar.Transport.
func (sf *Transport) WriteMultipleCoils(address uint16, values []bool) error {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	_, err := sf.client.WriteMultipleCoils(address, uint16(len(values)), boolsToBytes(values))
	return err
}

// WriteSingleRegister implements peblar.Transport.
func (sf *Transport) WriteSingleRegister(address, value uint16) error {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	_, err := sf.client.WriteSingleRegister(address, value)
	return err
}

// WriteMultipleRegisters implements peblar.Transport.
func (sf *Transport) WriteMultipleRegisters(address uint16, values []uint16) error {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	_, err := sf.client.WriteMultipleRegisters(address, uint16(len(values)), wordsToBytes(values))
	return err
}

func bytesToWords(b []byte) ([]uint16, error) {
	if len(b)%2 != 0 {
		return nil, fmt.Errorf("goburrow: odd register byte count '%v'", len(b))
	}
	words := make([]uint16, len(b)/2)
	for i := range words {
		words[i] = binary.BigEndian.Uint16(b[i*2:])
	}
	return words, nil
}

func wordsToBytes(words []uint16) []byte {
	b := make([]byte, len(words)*2)
	for i, w := range words {
		binary.BigEndian.PutUint16(b[i*2:], w)
	}
	return b
}

func bytesToBools(b []byte, quantity uint16) []bool {
	result := make([]bool, 0, quantity)
	for i := 0; i < int(quantity) && i/8 < len(b); i++ {
		result = append(result, b[i/8]&(1<<(uint(i)%8)) != 0)
	}
	return result
}

func boolsToBytes(values []bool) []byte {
	b := make([]byte, (len(values)+7)/8)
	for i, v := range values {
		if v {
			b[i/8] |= 1 << (uint(i) % 8)
		}
	}
	return b
}
