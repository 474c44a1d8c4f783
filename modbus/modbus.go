/*
Package modbus is a small Modbus TCP master bound to one unit id.

A Client speaks the bit and 16-bit access function codes a register map
needs (1, 3, 4, 5, 6, 15, 16) and hands back decoded values: []bool for
coils, []uint16 for registers. Exception responses surface as
*ExceptionError.

	c := modbus.NewClient("192.168.1.10:502", modbus.WithUnitID(1))
	if err := c.Connect(); err != nil {
		return err
	}
	defer c.Close()
	words, err := c.ReadInputRegisters(30000, 4)
*/
package modbus

import (
	"fmt"
	"time"
)

// DefaultTCPPort is the registered modbus TCP port.
const DefaultTCPPort = 502

// DefaultTimeout connect and per request timeout.
const DefaultTimeout = time.Second

// unit id range a read can address, 0 is broadcast.
const (
	AddressMin = 1
	AddressMax = 247
)

// Function codes.
const (
	FuncCodeReadCoils              byte = 0x01
	FuncCodeReadDiscreteInputs     byte = 0x02
	FuncCodeReadHoldingRegisters   byte = 0x03
	FuncCodeReadInputRegisters     byte = 0x04
	FuncCodeWriteSingleCoil        byte = 0x05
	FuncCodeWriteSingleRegister    byte = 0x06
	FuncCodeWriteMultipleCoils     byte = 0x0f
	FuncCodeWriteMultipleRegisters byte = 0x10
)

// exceptionFlag is set in the function code of an exception response.
const exceptionFlag = 0x80

// Quantity limits of one request.
const (
	ReadBitsQuantityMin  = 1
	ReadBitsQuantityMax  = 2000
	WriteBitsQuantityMin = 1
	WriteBitsQuantityMax = 1968
	ReadRegQuantityMin   = 1
	ReadRegQuantityMax   = 125
	WriteRegQuantityMin  = 1
	WriteRegQuantityMax  = 123
)

// Exception codes.
const (
	ExceptionCodeIllegalFunction                    = 1
	ExceptionCodeIllegalDataAddress                 = 2
	ExceptionCodeIllegalDataValue                   = 3
	ExceptionCodeServerDeviceFailure                = 4
	ExceptionCodeAcknowledge                        = 5
	ExceptionCodeServerDeviceBusy                   = 6
	ExceptionCodeNegativeAcknowledge                = 7
	ExceptionCodeMemoryParityError                  = 8
	ExceptionCodeGatewayPathUnavailable             = 10
	ExceptionCodeGatewayTargetDeviceFailedToRespond = 11
)

var exceptionNames = map[byte]string{
	ExceptionCodeIllegalFunction:                    "illegal function",
	ExceptionCodeIllegalDataAddress:                 "illegal data address",
	ExceptionCodeIllegalDataValue:                   "illegal data value",
	ExceptionCodeServerDeviceFailure:                "server device failure",
	ExceptionCodeAcknowledge:                        "acknowledge",
	ExceptionCodeServerDeviceBusy:                   "server device busy",
	ExceptionCodeNegativeAcknowledge:                "negative acknowledge",
	ExceptionCodeMemoryParityError:                  "memory parity error",
	ExceptionCodeGatewayPathUnavailable:             "gateway path unavailable",
	ExceptionCodeGatewayTargetDeviceFailedToRespond: "gateway target device failed to respond",
}

// ExceptionError an exception response from the remote unit.
type ExceptionError struct {
	ExceptionCode byte
}

func (e *ExceptionError) Error() string {
	name, ok := exceptionNames[e.ExceptionCode]
	if !ok {
		name = "unknown"
	}
	return fmt.Sprintf("modbus: exception '%v' (%s)", e.ExceptionCode, name)
}

// LogProvider RFC5424 log message levels only Debug and Error
type LogProvider interface {
	Errorf(format string, v ...interface{})
	Debugf(format string, v ...interface{})
}
