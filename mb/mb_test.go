package mb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"gotest.tools/v3/assert"

	"github.com/thinkgos/gopeblar"
)

// chargerTransport serves fixed input registers, holding reads fail.
type chargerTransport struct {
	inputs map[uint16]uint16
}

func (sf *chargerTransport) ReadCoils(address, quantity uint16) ([]bool, error) {
	return make([]bool, quantity), nil
}

func (sf *chargerTransport) ReadInputRegisters(address, quantity uint16) ([]uint16, error) {
	words := make([]uint16, quantity)
	for i := range words {
		words[i] = sf.inputs[address+uint16(i)]
	}
	return words, nil
}

func (sf *chargerTransport) ReadHoldingRegisters(address, quantity uint16) ([]uint16, error) {
	return nil, errors.New("timeout")
}

func (sf *chargerTransport) WriteSingleCoil(address uint16, on bool) error { return nil }

func (sf *chargerTransport) WriteMultipleCoils(address uint16, values []bool) error { return nil }

func (sf *chargerTransport) WriteSingleRegister(address, value uint16) error { return nil }

func (sf *chargerTransport) WriteMultipleRegisters(address uint16, values []uint16) error {
	return nil
}

type recorder struct {
	values  map[peblar.RegisterID]interface{}
	results []Result
	errs    []error
}

func (sf *recorder) ProcValue(id peblar.RegisterID, value interface{}) {
	sf.values[id] = value
}

func (sf *recorder) ProcResult(err error, result *Result) {
	sf.errs = append(sf.errs, err)
	sf.results = append(sf.results, *result)
}

func newPoller(t *testing.T) (*Poller, *recorder, *prometheus.Registry) {
	t.Helper()
	tr := &chargerTransport{inputs: map[uint16]uint16{
		30015: 0x0bb8, // PowerTotal 3000
		30111: 1,      // LockState
		30112: 7,      // CurrentLimitSource
		30110: 0x4132, // CpState
	}}
	rec := &recorder{values: make(map[peblar.RegisterID]interface{})}
	reg := prometheus.NewRegistry()
	p := New(peblar.NewClient(tr), WitchHandler(rec), WithRegisterer(reg))
	t.Cleanup(func() { _ = p.Close() })
	return p, rec, reg
}

func TestPoller_procRequest(t *testing.T) {
	p, rec, _ := newPoller(t)

	p.procRequest(&Request{Register: peblar.RegPowerTotal})
	p.procRequest(&Request{Register: peblar.RegLockState})
	p.procRequest(&Request{Register: peblar.RegCurrentLimitSource})
	p.procRequest(&Request{Register: peblar.RegCpState})

	assert.Equal(t, rec.values[peblar.RegPowerTotal], int32(3000))
	assert.Equal(t, rec.values[peblar.RegLockState], true)
	assert.Equal(t, rec.values[peblar.RegCurrentLimitSource], peblar.CurrentLimitSource(7))
	assert.Equal(t, rec.values[peblar.RegCpState], "A2")
	assert.Equal(t, len(rec.results), 4)
	for _, err := range rec.errs {
		assert.NilError(t, err)
	}
	assert.DeepEqual(t, rec.results[0], Result{
		Register:  peblar.RegPowerTotal,
		Address:   30014,
		WordCount: 2,
		TxCnt:     1,
	})

	m := p.metrics
	assert.Equal(t, testutil.ToFloat64(m.requests.WithLabelValues("PowerTotal")), float64(1))
	assert.Equal(t, testutil.ToFloat64(m.values.WithLabelValues("PowerTotal")), float64(3000))
	assert.Equal(t, testutil.ToFloat64(m.values.WithLabelValues("LockState")), float64(1))
	assert.Equal(t, testutil.ToFloat64(m.values.WithLabelValues("CurrentLimitSource")), float64(7))
	// strings are not exported as values
	assert.Equal(t, testutil.CollectAndCount(m.values), 3)
}

func TestPoller_procRequestError(t *testing.T) {
	p, rec, _ := newPoller(t)

	req := &Request{Register: peblar.RegModbusCurrentLimit}
	p.procRequest(req)
	p.procRequest(req)

	assert.Equal(t, len(rec.values), 0)
	assert.ErrorIs(t, rec.errs[1], peblar.ErrReadFailed)
	assert.Equal(t, rec.results[1].TxCnt, uint64(2))
	assert.Equal(t, rec.results[1].ErrCnt, uint64(2))
	assert.Equal(t, testutil.ToFloat64(p.metrics.errors.WithLabelValues("ModbusCurrentLimit")), float64(2))
}

func TestPoller_procRequestPanic(t *testing.T) {
	var recovered interface{}
	tr := &chargerTransport{}
	p := New(peblar.NewClient(tr),
		WitchHandler(panicHandler{}),
		WitchPanicHandle(func(v interface{}) { recovered = v }))
	defer p.Close()

	p.procRequest(&Request{Register: peblar.RegUptime})
	assert.Equal(t, recovered, "boom")
}

type panicHandler struct{ NopProc }

func (panicHandler) ProcValue(peblar.RegisterID, interface{}) { panic("boom") }

func TestPoller_AddGatherJob(t *testing.T) {
	p, _, _ := newPoller(t)

	err := p.AddGatherJob(Request{Register: peblar.RegisterID(-1), ScanRate: time.Second})
	assert.ErrorContains(t, err, "invalid register")
	err = p.AddGatherJob(Request{Register: peblar.RegPowerTotal, ScanRate: -time.Second})
	assert.ErrorContains(t, err, "must not be negative")

	assert.NilError(t, p.Close())
	err = p.AddGatherJob(Request{Register: peblar.RegPowerTotal, ScanRate: time.Second})
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, p.Start(), context.Canceled)
}

func Test_toFloat64(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  float64
		ok    bool
	}{
		{"int16", int16(-5), -5, true},
		{"uint64", uint64(1 << 40), 1 << 40, true},
		{"float32", float32(1.5), 1.5, true},
		{"bool false", false, 0, true},
		{"limit source", peblar.LimitSourceSolarCharging, 13, true},
		{"string", "B2", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := toFloat64(tt.value)
			assert.Equal(t, ok, tt.ok)
			assert.Equal(t, got, tt.want)
		})
	}
}
