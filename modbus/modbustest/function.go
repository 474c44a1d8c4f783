package modbustest

import (
	"encoding/binary"

	"github.com/thinkgos/gopeblar/modbus"
)

const (
	funcReadMinSize       = 4 // read request data field size
	funcWriteMinSize      = 4 // single write request data field size
	funcWriteMultiMinSize = 5 // multiple write request minimum data field size
)

// FunctionHandler handles the data field of one function code request and
// returns the data field of the response.
type FunctionHandler func(reg *NodeRegister, data []byte) ([]byte, error)

func illegalDataValue() error {
	return &modbus.ExceptionError{ExceptionCode: modbus.ExceptionCodeIllegalDataValue}
}

func defaultFunctions() map[uint8]FunctionHandler {
	return map[uint8]FunctionHandler{
		modbus.FuncCodeReadDiscreteInputs:     funcReadDiscreteInputs,
		modbus.FuncCodeReadCoils:              funcReadCoils,
		modbus.FuncCodeWriteSingleCoil:        funcWriteSingleCoil,
		modbus.FuncCodeWriteMultipleCoils:     funcWriteMultiCoils,
		modbus.FuncCodeReadInputRegisters:     funcReadInputRegisters,
		modbus.FuncCodeReadHoldingRegisters:   funcReadHoldingRegisters,
		modbus.FuncCodeWriteSingleRegister:    funcWriteSingleRegister,
		modbus.FuncCodeWriteMultipleRegisters: funcWriteMultiHoldingRegisters,
	}
}

func readBits(data []byte, read func(address, quantity uint16) ([]byte, error)) ([]byte, error) {
	if len(data) != funcReadMinSize {
		return nil, illegalDataValue()
	}
	address := binary.BigEndian.Uint16(data)
	quantity := binary.BigEndian.Uint16(data[2:])
	if quantity < modbus.ReadBitsQuantityMin || quantity > modbus.ReadBitsQuantityMax {
		return nil, illegalDataValue()
	}
	value, err := read(address, quantity)
	if err != nil {
		return nil, err
	}
	return append([]byte{byte(len(value))}, value...), nil
}

func funcReadDiscreteInputs(reg *NodeRegister, data []byte) ([]byte, error) {
	return readBits(data, reg.ReadDiscretes)
}

func funcReadCoils(reg *NodeRegister, data []byte) ([]byte, error) {
	return readBits(data, reg.ReadCoils)
}

func funcWriteSingleCoil(reg *NodeRegister, data []byte) ([]byte, error) {
	if len(data) != funcWriteMinSize {
		return nil, illegalDataValue()
	}
	address := binary.BigEndian.Uint16(data)
	newValue := binary.BigEndian.Uint16(data[2:])
	if newValue != 0xFF00 && newValue != 0x0000 {
		return nil, illegalDataValue()
	}
	if err := reg.WriteSingleCoil(address, newValue == 0xFF00); err != nil {
		return nil, err
	}
	return data, nil
}

func funcWriteMultiCoils(reg *NodeRegister, data []byte) ([]byte, error) {
	if len(data) < funcWriteMultiMinSize {
		return nil, illegalDataValue()
	}
	address := binary.BigEndian.Uint16(data)
	quantity := binary.BigEndian.Uint16(data[2:])
	byteCnt := data[4]
	if quantity < modbus.WriteBitsQuantityMin || quantity > modbus.WriteBitsQuantityMax ||
		int(byteCnt) != (int(quantity)+7)/8 || len(data[5:]) != int(byteCnt) {
		return nil, illegalDataValue()
	}
	if err := reg.WriteCoils(address, quantity, data[5:]); err != nil {
		return nil, err
	}
	return data[:4], nil
}

func readRegisters(data []byte, read func(address, quantity uint16) ([]byte, error)) ([]byte, error) {
	if len(data) != funcReadMinSize {
		return nil, illegalDataValue()
	}
	address := binary.BigEndian.Uint16(data)
	quantity := binary.BigEndian.Uint16(data[2:])
	if quantity < modbus.ReadRegQuantityMin || quantity > modbus.ReadRegQuantityMax {
		return nil, illegalDataValue()
	}
	value, err := read(address, quantity)
	if err != nil {
		return nil, err
	}
	return append([]byte{byte(quantity * 2)}, value...), nil
}

func funcReadInputRegisters(reg *NodeRegister, data []byte) ([]byte, error) {
	return readRegisters(data, reg.ReadInputsBytes)
}

func funcReadHoldingRegisters(reg *NodeRegister, data []byte) ([]byte, error) {
	return readRegisters(data, reg.ReadHoldingsBytes)
}

func funcWriteSingleRegister(reg *NodeRegister, data []byte) ([]byte, error) {
	if len(data) != funcWriteMinSize {
		return nil, illegalDataValue()
	}
	address := binary.BigEndian.Uint16(data)
	if err := reg.WriteHoldingsBytes(address, 1, data[2:]); err != nil {
		return nil, err
	}
	return data, nil
}

func funcWriteMultiHoldingRegisters(reg *NodeRegister, data []byte) ([]byte, error) {
	if len(data) < funcWriteMultiMinSize {
		return nil, illegalDataValue()
	}
	address := binary.BigEndian.Uint16(data)
	count := binary.BigEndian.Uint16(data[2:])
	byteCnt := data[4]
	if count < modbus.WriteRegQuantityMin || count > modbus.WriteRegQuantityMax ||
		int(byteCnt) != int(count)*2 {
		return nil, illegalDataValue()
	}
	if err := reg.WriteHoldingsBytes(address, count, data[5:]); err != nil {
		return nil, err
	}
	return data[:4], nil
}
