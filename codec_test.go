package peblar

import (
	"math"
	"testing"

	"gotest.tools/v3/assert"
)

func TestBoolCodec_Decode(t *testing.T) {
	v, err := BoolCodec{}.Decode([]uint16{0})
	assert.NilError(t, err)
	assert.Equal(t, v, false)

	v, err = BoolCodec{}.Decode([]uint16{1})
	assert.NilError(t, err)
	assert.Equal(t, v, true)

	_, err = BoolCodec{}.Decode([]uint16{2})
	assert.ErrorIs(t, err, ErrDecodeFault)

	_, err = BoolCodec{}.Decode(nil)
	assert.ErrorIs(t, err, ErrDecodeFault)
}

func TestBoolCodec_Encode(t *testing.T) {
	tests := []struct {
		name    string
		value   interface{}
		want    []uint16
		wantErr bool
	}{
		{"true", true, []uint16{1}, false},
		{"false", false, []uint16{0}, false},
		{"integer one", 1, []uint16{1}, false},
		{"uint16 zero", uint16(0), []uint16{0}, false},
		{"integer two", 2, nil, true},
		{"string", "1", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BoolCodec{}.Encode(tt.value)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrEncodeFault)
				return
			}
			assert.NilError(t, err)
			assert.DeepEqual(t, got, tt.want)
		})
	}
}

func TestLimitSourceCodec_Decode(t *testing.T) {
	v, err := LimitSourceCodec{}.Decode([]uint16{13})
	assert.NilError(t, err)
	assert.Equal(t, v, LimitSourceSolarCharging)
	assert.Equal(t, v.(CurrentLimitSource).String(), "SOLAR_CHARGING")

	v, err = LimitSourceCodec{}.Decode([]uint16{18})
	assert.NilError(t, err)
	assert.Equal(t, v, LimitSourceHouseholdPowerLimit)

	_, err = LimitSourceCodec{}.Decode([]uint16{19})
	assert.ErrorIs(t, err, ErrDecodeFault)
}

func TestCurrentLimitSource_String(t *testing.T) {
	assert.Equal(t, LimitSourceUnknown.String(), "UNKNOWN")
	assert.Equal(t, LimitSourceOCPPSmartCharging.String(), "OCPP_SMART_CHARGING")
	assert.Equal(t, CurrentLimitSource(19).String(), "CurrentLimitSource(19)")
	assert.Assert(t, !CurrentLimitSource(19).Valid())
}

func TestIntType_String(t *testing.T) {
	assert.Equal(t, Int16.String(), "INT16")
	assert.Equal(t, Uint64.String(), "UINT64")
	assert.Equal(t, IntType(6).String(), "IntType(6)")
	assert.Equal(t, IntType(-1).String(), "IntType(-1)")
}

func TestIntCodec_Decode(t *testing.T) {
	tests := []struct {
		name  string
		codec IntCodec
		words []uint16
		want  interface{}
	}{
		{"int16 negative", IntCodec{Type: Int16}, []uint16{0xffff}, int16(-1)},
		{"uint16", IntCodec{Type: Uint16}, []uint16{0xffff}, uint16(0xffff)},
		{"int32 high word first", IntCodec{Type: Int32}, []uint16{0x0001, 0x0002}, int32(0x00010002)},
		{"int32 negative", IntCodec{Type: Int32}, []uint16{0xffff, 0xfff6}, int32(-10)},
		{"uint32", IntCodec{Type: Uint32}, []uint16{0x0000, 0x0bb8}, uint32(3000)},
		{"int64", IntCodec{Type: Int64}, []uint16{0x0000, 0x0000, 0x0001, 0x86a0}, int64(100000)},
		{"uint64", IntCodec{Type: Uint64}, []uint16{0xffff, 0xffff, 0xffff, 0xffff}, uint64(math.MaxUint64)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.codec.Decode(tt.words)
			assert.NilError(t, err)
			assert.Equal(t, got, tt.want)
		})
	}

	_, err := IntCodec{Type: Int64}.Decode([]uint16{0, 0})
	assert.ErrorIs(t, err, ErrDecodeFault)
}

func TestIntCodec_Encode(t *testing.T) {
	tests := []struct {
		name    string
		codec   IntCodec
		value   interface{}
		want    []uint16
		wantErr bool
	}{
		{"uint32 from int", IntCodec{Type: Uint32}, 16, []uint16{0x0000, 0x0010}, false},
		{"uint32 max", IntCodec{Type: Uint32}, uint32(math.MaxUint32), []uint16{0xffff, 0xffff}, false},
		{"uint32 overflow", IntCodec{Type: Uint32}, int64(1) << 32, nil, true},
		{"uint32 negative", IntCodec{Type: Uint32}, -1, nil, true},
		{"int16 negative", IntCodec{Type: Int16}, -2, []uint16{0xfffe}, false},
		{"int16 overflow", IntCodec{Type: Int16}, 40000, nil, true},
		{"int32 into 4 words", IntCodec{Type: Int32, Words: 4}, int32(-1), []uint16{0xffff, 0xffff, 0xffff, 0xffff}, false},
		{"uint16 into 1 word", IntCodec{Type: Uint16}, 5, []uint16{0x0005}, false},
		{"not an integer", IntCodec{Type: Uint16}, 1.5, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.codec.Encode(tt.value)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrEncodeFault)
				return
			}
			assert.NilError(t, err)
			assert.DeepEqual(t, got, tt.want)
		})
	}
}

func TestIntCodec_roundTrip(t *testing.T) {
	tests := []struct {
		codec IntCodec
		value interface{}
	}{
		{IntCodec{Type: Int16}, int16(-1234)},
		{IntCodec{Type: Uint16}, uint16(65000)},
		{IntCodec{Type: Int32}, int32(-70000)},
		{IntCodec{Type: Uint32}, uint32(4000000000)},
		{IntCodec{Type: Int64}, int64(math.MinInt64)},
		{IntCodec{Type: Uint64}, uint64(math.MaxUint64)},
	}
	for _, tt := range tests {
		t.Run(tt.codec.Type.String(), func(t *testing.T) {
			words, err := tt.codec.Encode(tt.value)
			assert.NilError(t, err)
			assert.Equal(t, len(words), tt.codec.Type.Words())
			got, err := tt.codec.Decode(words)
			assert.NilError(t, err)
			assert.Equal(t, got, tt.value)
		})
	}
}

func TestEncodeInt(t *testing.T) {
	got, err := EncodeInt(5, 2)
	assert.NilError(t, err)
	assert.DeepEqual(t, got, []uint16{0x0000, 0x0005})

	got, err = EncodeInt(0x12345678, 2)
	assert.NilError(t, err)
	assert.DeepEqual(t, got, []uint16{0x1234, 0x5678})

	got, err = EncodeInt(-1, 1)
	assert.NilError(t, err)
	assert.DeepEqual(t, got, []uint16{0xffff})

	_, err = EncodeInt(0x10000, 1)
	assert.ErrorIs(t, err, ErrEncodeFault)

	_, err = EncodeInt(1, 0)
	assert.ErrorIs(t, err, ErrEncodeFault)

	got, err = EncodeUint(math.MaxUint64, 4)
	assert.NilError(t, err)
	assert.DeepEqual(t, got, []uint16{0xffff, 0xffff, 0xffff, 0xffff})
}

func TestStringCodec(t *testing.T) {
	// "PB-1234" NUL padded to 12 words
	words := []uint16{0x5042, 0x2d31, 0x3233, 0x3400, 0, 0, 0, 0, 0, 0, 0, 0}
	v, err := StringCodec{Words: 12}.Decode(words)
	assert.NilError(t, err)
	assert.Equal(t, v, "PB-1234")

	got, err := StringCodec{Words: 12}.Encode("PB-1234")
	assert.NilError(t, err)
	assert.DeepEqual(t, got, words)

	v, err = StringCodec{Words: 1}.Decode([]uint16{0x4232})
	assert.NilError(t, err)
	assert.Equal(t, v, "B2")

	_, err = StringCodec{Words: 1}.Decode([]uint16{0x8041})
	assert.ErrorIs(t, err, ErrDecodeFault)

	_, err = StringCodec{Words: 1}.Encode("abc")
	assert.ErrorIs(t, err, ErrEncodeFault)
}

func TestFloat32Codec(t *testing.T) {
	v, err := Float32Codec{}.Decode([]uint16{0x4148, 0x0000})
	assert.NilError(t, err)
	assert.Equal(t, v, float32(12.5))

	got, err := Float32Codec{}.Encode(12.5)
	assert.NilError(t, err)
	assert.DeepEqual(t, got, []uint16{0x4148, 0x0000})

	_, err = Float32Codec{}.Decode([]uint16{0x4148})
	assert.ErrorIs(t, err, ErrDecodeFault)
}
