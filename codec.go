package peblar

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// Decoder converts the raw words of a register into a typed value.
type Decoder interface {
	Decode(words []uint16) (interface{}, error)
}

// Encoder converts a typed value into raw words.
type Encoder interface {
	Encode(v interface{}) ([]uint16, error)
}

// IntType integer wire format.
type IntType int

// integer wire formats.
const (
	Int16 IntType = iota
	Uint16
	Int32
	Uint32
	Int64
	Uint64
)

// Words words occupied on the wire.
func (t IntType) Words() int {
	switch t {
	case Int16, Uint16:
		return 1
	case Int32, Uint32:
		return 2
	default:
		return 4
	}
}

// Signed reports whether the type is two's complement.
func (t IntType) Signed() bool {
	return t == Int16 || t == Int32 || t == Int64
}

var intTypeName = [...]string{
	Int16:  "INT16",
	Uint16: "UINT16",
	Int32:  "INT32",
	Uint32: "UINT32",
	Int64:  "INT64",
	Uint64: "UINT64",
}

func (t IntType) String() string {
	if t < 0 || int(t) >= len(intTypeName) {
		return fmt.Sprintf("IntType(%d)", int(t))
	}
	return intTypeName[t]
}

// IntCodec big-endian word order integer.
// Decode yields int16, uint16, int32, uint32, int64 or uint64 as per Type.
// Encode accepts any Go integer in the range of Type and emits Words words,
// Type's width when Words is zero.
type IntCodec struct {
	Type  IntType
	Words int
}

// packWords joins the first n words big-endian.
func packWords(words []uint16, n int) uint64 {
	var v uint64
	for _, w := range words[:n] {
		v = v<<16 | uint64(w)
	}
	return v
}

// Decode implements Decoder.
func (c IntCodec) Decode(words []uint16) (interface{}, error) {
	n := c.Type.Words()
	if len(words) < n {
		return nil, decodeFault("%v needs %d words, got %d", c.Type, n, len(words))
	}
	v := packWords(words, n)
	switch c.Type {
	case Int16:
		return int16(v), nil
	case Uint16:
		return uint16(v), nil
	case Int32:
		return int32(v), nil
	case Uint32:
		return uint32(v), nil
	case Int64:
		return int64(v), nil
	default:
		return v, nil
	}
}

// Encode implements Encoder.
func (c IntCodec) Encode(v interface{}) ([]uint16, error) {
	words := c.Words
	if words == 0 {
		words = c.Type.Words()
	}
	bits := uint(16 * c.Type.Words())
	if c.Type.Signed() {
		i, ok := toInt64(v)
		if !ok {
			return nil, encodeFault("%T is not an integer", v)
		}
		if bits < 64 && (i < -(1<<(bits-1)) || i >= 1<<(bits-1)) {
			return nil, encodeFault("%d overflows %v", i, c.Type)
		}
		return EncodeInt(i, words)
	}
	u, ok := toUint64(v)
	if !ok {
		return nil, encodeFault("%v is not a non-negative integer", v)
	}
	if bits < 64 && u >= 1<<bits {
		return nil, encodeFault("%d overflows %v", u, c.Type)
	}
	return EncodeUint(u, words)
}

// EncodeInt serializes value as words*2 big-endian bytes regrouped into
// big-endian words, negative values in two's complement.
func EncodeInt(value int64, words int) ([]uint16, error) {
	if words < 1 || words > 4 {
		return nil, encodeFault("word count %d must be between 1 and 4", words)
	}
	if bits := uint(16 * words); bits < 64 && (value < -(1<<(bits-1)) || value >= 1<<bits) {
		return nil, encodeFault("%d does not fit in %d words", value, words)
	}
	return splitWords(uint64(value), words), nil
}

// EncodeUint same as EncodeInt for unsigned values.
func EncodeUint(value uint64, words int) ([]uint16, error) {
	if words < 1 || words > 4 {
		return nil, encodeFault("word count %d must be between 1 and 4", words)
	}
	if bits := uint(16 * words); bits < 64 && value >= 1<<bits {
		return nil, encodeFault("%d does not fit in %d words", value, words)
	}
	return splitWords(value, words), nil
}

func splitWords(v uint64, words int) []uint16 {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	raw := b[8-2*words:]
	result := make([]uint16, words)
	for i := range result {
		result[i] = binary.BigEndian.Uint16(raw[i*2:])
	}
	return result
}

func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), uint64(n) <= math.MaxInt64
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), n <= math.MaxInt64
	}
	return 0, false
}

func toUint64(v interface{}) (uint64, bool) {
	switch n := v.(type) {
	case uint:
		return uint64(n), true
	case uint8:
		return uint64(n), true
	case uint16:
		return uint64(n), true
	case uint32:
		return uint64(n), true
	case uint64:
		return n, true
	}
	i, ok := toInt64(v)
	return uint64(i), ok && i >= 0
}

// StringCodec ASCII text, two characters per word, high byte first.
// Trailing NUL padding is dropped on decode and added on encode.
type StringCodec struct {
	Words int
}

// Decode implements Decoder.
func (c StringCodec) Decode(words []uint16) (interface{}, error) {
	b := make([]byte, 2*len(words))
	for i, w := range words {
		binary.BigEndian.PutUint16(b[i*2:], w)
	}
	for i, ch := range b {
		if ch > 0x7f {
			return nil, decodeFault("byte 0x%02x at %d is not ASCII", ch, i)
		}
	}
	return strings.TrimRight(string(b), "\x00"), nil
}

// Encode implements Encoder.
func (c StringCodec) Encode(v interface{}) ([]uint16, error) {
	s, ok := v.(string)
	if !ok {
		return nil, encodeFault("%T is not a string", v)
	}
	if len(s) > 2*c.Words {
		return nil, encodeFault("%q longer than %d characters", s, 2*c.Words)
	}
	b := make([]byte, 2*c.Words)
	copy(b, s)
	for i, ch := range b {
		if ch > 0x7f {
			return nil, encodeFault("byte 0x%02x at %d is not ASCII", ch, i)
		}
	}
	result := make([]uint16, c.Words)
	for i := range result {
		result[i] = binary.BigEndian.Uint16(b[i*2:])
	}
	return result, nil
}

// Float32Codec IEEE-754 single precision over two big-endian words.
type Float32Codec struct{}

// Decode implements Decoder.
func (Float32Codec) Decode(words []uint16) (interface{}, error) {
	if len(words) < 2 {
		return nil, decodeFault("FLOAT32 needs 2 words, got %d", len(words))
	}
	return math.Float32frombits(uint32(packWords(words, 2))), nil
}

// Encode implements Encoder.
func (Float32Codec) Encode(v interface{}) ([]uint16, error) {
	var f float32
	switch n := v.(type) {
	case float32:
		f = n
	case float64:
		f = float32(n)
	default:
		return nil, encodeFault("%T is not a float", v)
	}
	return splitWords(uint64(math.Float32bits(f)), 2), nil
}

// BoolCodec a UINT16 that must be 0 or 1.
type BoolCodec struct{}

// Decode implements Decoder.
func (BoolCodec) Decode(words []uint16) (interface{}, error) {
	if len(words) < 1 {
		return nil, decodeFault("boolean needs 1 word, got 0")
	}
	switch words[0] {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	return nil, decodeFault("boolean word %d is neither 0 nor 1", words[0])
}

// Encode implements Encoder, it accepts a bool or the integers 0 and 1.
func (BoolCodec) Encode(v interface{}) ([]uint16, error) {
	if b, ok := v.(bool); ok {
		if b {
			return []uint16{1}, nil
		}
		return []uint16{0}, nil
	}
	if i, ok := toInt64(v); ok && (i == 0 || i == 1) {
		return []uint16{uint16(i)}, nil
	}
	return nil, encodeFault("%v is not a boolean", v)
}

// LimitSourceCodec a UINT16 CurrentLimitSource code.
type LimitSourceCodec struct{}

// Decode implements Decoder.
func (LimitSourceCodec) Decode(words []uint16) (interface{}, error) {
	if len(words) < 1 {
		return nil, decodeFault("current limit source needs 1 word, got 0")
	}
	s := CurrentLimitSource(words[0])
	if !s.Valid() {
		return nil, decodeFault("current limit source code %d out of range", words[0])
	}
	return s, nil
}

// Encode implements Encoder.
func (LimitSourceCodec) Encode(v interface{}) ([]uint16, error) {
	s, ok := v.(CurrentLimitSource)
	if !ok || !s.Valid() {
		return nil, encodeFault("%v is not a current limit source", v)
	}
	return []uint16{uint16(s)}, nil
}
