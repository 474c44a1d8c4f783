package modbustest

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"github.com/thinkgos/gopeblar/modbus"
)

func Test_getBits(t *testing.T) {
	type args struct {
		buf   []byte
		start uint16
		nBits uint16
	}
	tests := []struct {
		name string
		args args
		want uint8
	}{
		{"bits 0-8, 8 bits", args{[]byte{0xaa, 0x5}, 0, 8}, 0xaa},
		{"bits 0-4, 4 bits", args{[]byte{0xaa, 0x55}, 0, 4}, 0x0a},
		{"bits 4-8, 4 bits", args{[]byte{0xaa, 0x55}, 4, 4}, 0x0a},
		{"bits 4-12, 8 bits", args{[]byte{0xaa, 0x55}, 4, 8}, 0x5a},
		{"bits 7-10, 3 bits", args{[]byte{0xaa, 0x55}, 7, 3}, 0x03},
		{"bits 9-16, 7 bits", args{[]byte{0xaa, 0x55}, 9, 7}, 0x2a},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := getBits(tt.args.buf, tt.args.start, tt.args.nBits); got != tt.want {
				t.Errorf("getBits() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func Test_setBits(t *testing.T) {
	type args struct {
		buf   []byte
		start uint16
		nBits uint16
		value byte
	}
	tests := []struct {
		name string
		args args
		want []byte
	}{
		{"bits 0-8, 8 bits", args{[]byte{0x00, 0x00}, 0, 8, 0xaa}, []byte{0xaa, 0x00}},
		{"bits 0-4, 4 bits", args{[]byte{0x00, 0x00}, 0, 4, 0x0a}, []byte{0x0a, 0x00}},
		{"bits 4-12, 8 bits", args{[]byte{0x00, 0x00}, 4, 8, 0xaa}, []byte{0xa0, 0x0a}},
		{"bits 7-10, 3 bits", args{[]byte{0x00, 0x00}, 7, 3, 0x07}, []byte{0x80, 0x03}},
		{"bit 1, 1 bit", args{[]byte{0x00, 0x00}, 1, 1, 0x01}, []byte{0x02, 0x00}},
		{"bits 9-16, 7 bits", args{[]byte{0x00, 0x00}, 9, 7, 0x7f}, []byte{0x00, 0xfe}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBits(tt.args.buf, tt.args.start, tt.args.nBits, tt.args.value)
			if !bytes.Equal(tt.args.buf, tt.want) {
				t.Errorf("setBits() = %#v, want %#v", tt.args.buf, tt.want)
			}
		})
	}
}

func TestNodeRegister_SlaveID(t *testing.T) {
	node := NewNodeRegister(0x01, 0, 0, 0, 0, 0, 0, 0, 0)
	if got := node.SlaveID(); got != 0x01 {
		t.Errorf("NodeRegister.SlaveID() = %v, want %v", got, 0x01)
	}
	if got := node.SetSlaveID(0x02).SlaveID(); got != 0x02 {
		t.Errorf("NodeRegister.SetSlaveID() = %v, want %v", got, 0x02)
	}
}

func TestNodeRegister_coils(t *testing.T) {
	node := NewNodeRegister(1, 0, 16, 10000, 8, 0, 0, 0, 0)

	if err := node.WriteCoils(2, 9, []byte{0xff, 0x01}); err != nil {
		t.Fatalf("NodeRegister.WriteCoils() error = %v", err)
	}
	got, err := node.ReadCoils(0, 16)
	if err != nil {
		t.Fatalf("NodeRegister.ReadCoils() error = %v", err)
	}
	if want := []byte{0xfc, 0x07}; !reflect.DeepEqual(got, want) {
		t.Errorf("NodeRegister.ReadCoils() = %#v, want %#v", got, want)
	}
	if err = node.WriteSingleCoil(2, false); err != nil {
		t.Fatalf("NodeRegister.WriteSingleCoil() error = %v", err)
	}
	if on, _ := node.ReadSingleCoil(2); on {
		t.Errorf("NodeRegister.ReadSingleCoil() = %v, want %v", on, false)
	}

	tests := []struct {
		name string
		err  error
	}{
		{"read past end", func() error { _, err := node.ReadCoils(10, 7); return err }()},
		{"write past end", node.WriteCoils(15, 2, []byte{0x03})},
		{"value shorter than quantity", node.WriteCoils(0, 9, []byte{0xff})},
		{"discrete below start", func() error { _, err := node.ReadDiscretes(9999, 1); return err }()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var e *modbus.ExceptionError
			if !errors.As(tt.err, &e) || e.ExceptionCode != modbus.ExceptionCodeIllegalDataAddress {
				t.Errorf("error = %v, want illegal data address", tt.err)
			}
		})
	}
}

func TestNodeRegister_registers(t *testing.T) {
	node := NewNodeRegister(1, 0, 0, 0, 0, 30000, 4, 40000, 3)

	if err := node.WriteInputs(30002, []uint16{0x1234, 0x5678}); err != nil {
		t.Fatalf("NodeRegister.WriteInputs() error = %v", err)
	}
	got, err := node.ReadInputsBytes(30001, 3)
	if err != nil {
		t.Fatalf("NodeRegister.ReadInputsBytes() error = %v", err)
	}
	if want := []byte{0x00, 0x00, 0x12, 0x34, 0x56, 0x78}; !reflect.DeepEqual(got, want) {
		t.Errorf("NodeRegister.ReadInputsBytes() = %#v, want %#v", got, want)
	}

	if err = node.WriteHoldingsBytes(40000, 2, []byte{0x00, 0x00, 0x00, 0x10}); err != nil {
		t.Fatalf("NodeRegister.WriteHoldingsBytes() error = %v", err)
	}
	if err = node.WriteHoldings(40002, []uint16{1}); err != nil {
		t.Fatalf("NodeRegister.WriteHoldings() error = %v", err)
	}
	words, err := node.ReadHoldings(40000, 3)
	if err != nil {
		t.Fatalf("NodeRegister.ReadHoldings() error = %v", err)
	}
	if want := []uint16{0x0000, 0x0010, 0x0001}; !reflect.DeepEqual(words, want) {
		t.Errorf("NodeRegister.ReadHoldings() = %#v, want %#v", words, want)
	}

	if _, err = node.ReadInputs(30003, 2); err == nil {
		t.Errorf("NodeRegister.ReadInputs() past end error = nil, want error")
	}
	if err = node.WriteHoldingsBytes(40000, 2, []byte{0x00}); err == nil {
		t.Errorf("NodeRegister.WriteHoldingsBytes() short value error = nil, want error")
	}
	if _, err = node.ReadHoldingsBytes(65535, 2); err == nil {
		t.Errorf("NodeRegister.ReadHoldingsBytes() address overflow error = nil, want error")
	}
}

func Benchmark_getBits(b *testing.B) {
	val := []byte{0x00, 0x02, 0x03, 0x04, 0x05}
	for i := 0; i < b.N; i++ {
		getBits(val, 1, 8)
	}
}

func Benchmark_setBits(b *testing.B) {
	val := []byte{0x00, 0x02, 0x03, 0x04, 0x05}
	for i := 0; i < b.N; i++ {
		setBits(val, 12, 8, 0xaa)
	}
}
