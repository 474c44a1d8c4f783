package peblar

import (
	"github.com/thinkgos/gopeblar/modbus"
)

// Transport the modbus primitives a Client needs. Addresses are absolute
// catalog addresses and go on the wire unchanged.
type Transport interface {
	ReadCoils(address, quantity uint16) ([]bool, error)
	ReadInputRegisters(address, quantity uint16) ([]uint16, error)
	ReadHoldingRegisters(address, quantity uint16) ([]uint16, error)
	WriteSingleCoil(address uint16, on bool) error
	WriteMultipleCoils(address uint16, values []bool) error
	WriteSingleRegister(address, value uint16) error
	WriteMultipleRegisters(address uint16, values []uint16) error
}

// the native client is bound to its unit id and serves as a Transport as is.
var _ Transport = (*modbus.Client)(nil)
