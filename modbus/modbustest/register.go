package modbustest

import (
	"encoding/binary"
	"sync"

	"github.com/thinkgos/gopeblar/modbus"
)

// NodeRegister the register image of one simulated unit, safe for concurrent use.
// Each block starts at an absolute address, so a charger image can place
// its input registers at 30000 and holding registers at 40000.
type NodeRegister struct {
	rw       sync.RWMutex
	slaveID  byte
	coils    bitBlock
	discrete bitBlock
	input    wordBlock
	holding  wordBlock
}

type bitBlock struct {
	start    uint16
	quantity uint16
	bits     []byte
}

type wordBlock struct {
	start uint16
	words []uint16
}

// NewNodeRegister creates the register image of a unit.
func NewNodeRegister(slaveID byte,
	coilsAddrStart, coilsQuantity,
	discreteAddrStart, discreteQuantity,
	inputAddrStart, inputQuantity,
	holdingAddrStart, holdingQuantity uint16) *NodeRegister {
	return &NodeRegister{
		slaveID:  slaveID,
		coils:    bitBlock{coilsAddrStart, coilsQuantity, make([]byte, (int(coilsQuantity)+7)/8)},
		discrete: bitBlock{discreteAddrStart, discreteQuantity, make([]byte, (int(discreteQuantity)+7)/8)},
		input:    wordBlock{inputAddrStart, make([]uint16, inputQuantity)},
		holding:  wordBlock{holdingAddrStart, make([]uint16, holdingQuantity)},
	}
}

// SlaveID returns the unit id.
func (sf *NodeRegister) SlaveID() byte {
	sf.rw.RLock()
	defer sf.rw.RUnlock()
	return sf.slaveID
}

// SetSlaveID changes the unit id.
func (sf *NodeRegister) SetSlaveID(id byte) *NodeRegister {
	sf.rw.Lock()
	sf.slaveID = id
	sf.rw.Unlock()
	return sf
}

// CoilsAddrParam coils start address and quantity
func (sf *NodeRegister) CoilsAddrParam() (start, quantity uint16) {
	return sf.coils.start, sf.coils.quantity
}

// DiscreteAddrParam discrete inputs start address and quantity
func (sf *NodeRegister) DiscreteAddrParam() (start, quantity uint16) {
	return sf.discrete.start, sf.discrete.quantity
}

// InputAddrParam input registers start address and quantity
func (sf *NodeRegister) InputAddrParam() (start, quantity uint16) {
	return sf.input.start, uint16(len(sf.input.words))
}

// HoldingAddrParam holding registers start address and quantity
func (sf *NodeRegister) HoldingAddrParam() (start, quantity uint16) {
	return sf.holding.start, uint16(len(sf.holding.words))
}

func illegalDataAddress() error {
	return &modbus.ExceptionError{ExceptionCode: modbus.ExceptionCodeIllegalDataAddress}
}

// getBits reads nBits (<= 8) from buf starting at bit start.
func getBits(buf []byte, start, nBits uint16) uint8 {
	byteOffset := start / 8
	preBits := start - byteOffset*8

	mask := (uint16(1) << nBits) - 1
	word := uint16(buf[byteOffset])
	if preBits+nBits > 8 {
		word |= uint16(buf[byteOffset+1]) << 8
	}
	word >>= preBits
	return uint8(word & mask)
}

// setBits writes nBits (<= 8) of value into buf starting at bit start.
func setBits(buf []byte, start, nBits uint16, value byte) {
	byteOffset := start / 8
	preBits := start - byteOffset*8
	mask := uint16((1<<nBits)-1) << preBits
	newValue := (uint16(value) << preBits) & mask

	word := uint16(buf[byteOffset])
	if preBits+nBits > 8 {
		word |= uint16(buf[byteOffset+1]) << 8
	}
	word = (word & ^mask) | newValue
	buf[byteOffset] = uint8(word)
	if preBits+nBits > 8 {
		buf[byteOffset+1] = uint8(word >> 8)
	}
}

func (b *bitBlock) contains(address, quantity uint16) bool {
	return address >= b.start && int(address)+int(quantity) <= int(b.start)+int(b.quantity)
}

func (b *bitBlock) read(address, quantity uint16) ([]byte, error) {
	if !b.contains(address, quantity) {
		return nil, illegalDataAddress()
	}
	start := address - b.start
	result := make([]byte, 0, (int(quantity)+7)/8)
	for n := int(quantity); n > 0; n -= 8 {
		num := n
		if num > 8 {
			num = 8
		}
		result = append(result, getBits(b.bits, start, uint16(num)))
		start += 8
	}
	return result, nil
}

func (b *bitBlock) write(address, quantity uint16, valBuf []byte) error {
	if len(valBuf)*8 < int(quantity) || !b.contains(address, quantity) {
		return illegalDataAddress()
	}
	start := address - b.start
	for idx, n := 0, int(quantity); n > 0; idx, n = idx+1, n-8 {
		num := n
		if num > 8 {
			num = 8
		}
		setBits(b.bits, start, uint16(num), valBuf[idx])
		start += 8
	}
	return nil
}

func (w *wordBlock) slice(address, quantity uint16) ([]uint16, bool) {
	if address < w.start || int(address)+int(quantity) > int(w.start)+len(w.words) {
		return nil, false
	}
	start := address - w.start
	return w.words[start : start+quantity], true
}

func (w *wordBlock) readBytes(address, quantity uint16) ([]byte, error) {
	words, ok := w.slice(address, quantity)
	if !ok {
		return nil, illegalDataAddress()
	}
	result := make([]byte, 2*len(words))
	for i, v := range words {
		binary.BigEndian.PutUint16(result[i*2:], v)
	}
	return result, nil
}

func (w *wordBlock) writeBytes(address, quantity uint16, valBuf []byte) error {
	words, ok := w.slice(address, quantity)
	if !ok || len(valBuf) != 2*int(quantity) {
		return illegalDataAddress()
	}
	for i := range words {
		words[i] = binary.BigEndian.Uint16(valBuf[i*2:])
	}
	return nil
}

// WriteCoils writes quantity coils packed LSB first in valBuf.
func (sf *NodeRegister) WriteCoils(address, quantity uint16, valBuf []byte) error {
	sf.rw.Lock()
	defer sf.rw.Unlock()
	return sf.coils.write(address, quantity, valBuf)
}

// WriteSingleCoil writes one coil.
func (sf *NodeRegister) WriteSingleCoil(address uint16, val bool) error {
	var b byte
	if val {
		b = 1
	}
	return sf.WriteCoils(address, 1, []byte{b})
}

// ReadCoils reads quantity coils packed LSB first.
func (sf *NodeRegister) ReadCoils(address, quantity uint16) ([]byte, error) {
	sf.rw.RLock()
	defer sf.rw.RUnlock()
	return sf.coils.read(address, quantity)
}

// ReadSingleCoil reads one coil.
func (sf *NodeRegister) ReadSingleCoil(address uint16) (bool, error) {
	v, err := sf.ReadCoils(address, 1)
	if err != nil {
		return false, err
	}
	return v[0] > 0, nil
}

// WriteDiscretes writes quantity discrete inputs packed LSB first in valBuf.
func (sf *NodeRegister) WriteDiscretes(address, quantity uint16, valBuf []byte) error {
	sf.rw.Lock()
	defer sf.rw.Unlock()
	return sf.discrete.write(address, quantity, valBuf)
}

// ReadDiscretes reads quantity discrete inputs packed LSB first.
func (sf *NodeRegister) ReadDiscretes(address, quantity uint16) ([]byte, error) {
	sf.rw.RLock()
	defer sf.rw.RUnlock()
	return sf.discrete.read(address, quantity)
}

// WriteHoldingsBytes writes big-endian register bytes.
func (sf *NodeRegister) WriteHoldingsBytes(address, quantity uint16, valBuf []byte) error {
	sf.rw.Lock()
	defer sf.rw.Unlock()
	return sf.holding.writeBytes(address, quantity, valBuf)
}

// WriteHoldings writes holding registers.
func (sf *NodeRegister) WriteHoldings(address uint16, valBuf []uint16) error {
	sf.rw.Lock()
	defer sf.rw.Unlock()
	words, ok := sf.holding.slice(address, uint16(len(valBuf)))
	if !ok {
		return illegalDataAddress()
	}
	copy(words, valBuf)
	return nil
}

// ReadHoldingsBytes reads holding registers as big-endian bytes.
func (sf *NodeRegister) ReadHoldingsBytes(address, quantity uint16) ([]byte, error) {
	sf.rw.RLock()
	defer sf.rw.RUnlock()
	return sf.holding.readBytes(address, quantity)
}

// ReadHoldings reads holding registers.
func (sf *NodeRegister) ReadHoldings(address, quantity uint16) ([]uint16, error) {
	sf.rw.RLock()
	defer sf.rw.RUnlock()
	words, ok := sf.holding.slice(address, quantity)
	if !ok {
		return nil, illegalDataAddress()
	}
	return append([]uint16(nil), words...), nil
}

// WriteInputs writes input registers, the way a device updates its telemetry.
func (sf *NodeRegister) WriteInputs(address uint16, valBuf []uint16) error {
	sf.rw.Lock()
	defer sf.rw.Unlock()
	words, ok := sf.input.slice(address, uint16(len(valBuf)))
	if !ok {
		return illegalDataAddress()
	}
	copy(words, valBuf)
	return nil
}

// ReadInputsBytes reads input registers as big-endian bytes.
func (sf *NodeRegister) ReadInputsBytes(address, quantity uint16) ([]byte, error) {
	sf.rw.RLock()
	defer sf.rw.RUnlock()
	return sf.input.readBytes(address, quantity)
}

// ReadInputs reads input registers.
func (sf *NodeRegister) ReadInputs(address, quantity uint16) ([]uint16, error) {
	sf.rw.RLock()
	defer sf.rw.RUnlock()
	words, ok := sf.input.slice(address, quantity)
	if !ok {
		return nil, illegalDataAddress()
	}
	return append([]uint16(nil), words...), nil
}
