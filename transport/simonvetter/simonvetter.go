// Package simonvetter adapts github.com/simonvetter/modbus to peblar.Transport.
package simonvetter

import (
	"fmt"
	"time"

	"github.com/simonvetter/modbus"

	"github.com/thinkgos/gopeblar"
)

// Transport peblar.Transport over a simonvetter ModbusClient.
type Transport struct {
	client *modbus.ModbusClient
}

var _ peblar.Transport = (*Transport)(nil)

// New returns a Transport for the tcp address host:port bound to unitID.
// A zero timeout keeps the library default.
func New(address string, unitID byte, timeout time.Duration) (*Transport, error) {
	client, err := modbus.NewClient(&modbus.ClientConfiguration{
		URL:     "tcp://" + address,
		Timeout: timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("simonvetter: %w", err)
	}
	if err = client.SetUnitId(unitID); err != nil {
		return nil, fmt.Errorf("simonvetter: %w", err)
	}
	return &Transport{client}, nil
}

// Connect opens the connection.
func (sf *Transport) Connect() error {
	return sf.client.Open()
}

// Close closes the connection.
func (sf *Transport) Close() error {
	return sf.client.Close()
}

// ReadCoils implements peblar.Transport.
func (sf *Transport) ReadCoils(address, quantity uint16) ([]bool, error) {
	return sf.client.ReadCoils(address, quantity)
}

// ReadInputRegisters implements peblar.Transport.
func (sf *Transport) ReadInputRegisters(address, quantity uint16) ([]uint16, error) {
	return sf.client.ReadRegisters(address, quantity, modbus.INPUT_REGISTER)
}

// ReadHoldingRegisters implements peblar.Transport.
func (sf *Transport) ReadHoldingRegisters(address, quantity uint16) ([]uint16, error) {
	return sf.client.ReadRegisters(address, quantity, modbus.HOLDING_REGISTER)
}

// WriteSingleCoil implements peblar.Transport.
func (sf *Transport) WriteSingleCoil(address uint16, on bool) error {
	return sf.client.WriteCoil(address, on)
}

// WriteMultipleCoils implements peblar.Transport.
func (sf *Transport) WriteMultipleCoils(address uint16, values []bool) error {
	return sf.client.WriteCoils(address, values)
}

// WriteSingleRegister implements peblar.Transport.
func (sf *Transport) WriteSingleRegister(address, value uint16) error {
	return sf.client.WriteRegister(address, value)
}

// WriteMultipleRegisters implements peblar.Transport.
func (sf *Transport) WriteMultipleRegisters(address uint16, values []uint16) error {
	return sf.client.WriteRegisters(address, values)
}
