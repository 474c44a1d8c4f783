package modbus

import (
	"encoding/binary"
	"fmt"
	"net"
	"sync"
	"time"
)

const (
	defaultUnitID        = 1
	defaultAutoReconnect = 1
	autoReconnectMax     = 6
)

// Client modbus TCP master for one unit. Requests are serialised.
type Client struct {
	logger
	address       string
	unitID        byte
	timeout       time.Duration
	autoReconnect int
	dial          func(address string, timeout time.Duration) (net.Conn, error)

	mu   sync.Mutex
	conn net.Conn
	// set by Connect, cleared by Close; a dropped conn is only redialed while open
	open bool
	tid  uint16
	rx   [aduMaxSize]byte
}

// NewClient returns a client for address (host:port). It does not dial.
func NewClient(address string, opts ...Option) *Client {
	c := &Client{
		logger:        newLogger("modbus => "),
		address:       address,
		unitID:        defaultUnitID,
		timeout:       DefaultTimeout,
		autoReconnect: defaultAutoReconnect,
		dial: func(address string, timeout time.Duration) (net.Conn, error) {
			return net.DialTimeout("tcp", address, timeout)
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// UnitID the unit id requests are addressed to.
func (sf *Client) UnitID() byte { return sf.unitID }

// Connect dials the remote, replacing any current connection.
func (sf *Client) Connect() error {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	sf.drop()
	if err := sf.redial(); err != nil {
		return err
	}
	sf.open = true
	return nil
}

// IsConnected reports whether a connection is currently held.
func (sf *Client) IsConnected() bool {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	return sf.conn != nil
}

// Close closes the connection. Requests fail with ErrClosedConnection
// until the next Connect.
func (sf *Client) Close() error {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	sf.open = false
	if sf.conn == nil {
		return nil
	}
	err := sf.conn.Close()
	sf.conn = nil
	return err
}

// caller must hold mu.
func (sf *Client) redial() error {
	conn, err := sf.dial(sf.address, sf.timeout)
	if err != nil {
		return err
	}
	sf.conn = conn
	return nil
}

// drop discards the connection together with anything still in flight on it.
// caller must hold mu.
func (sf *Client) drop() {
	if sf.conn != nil {
		_ = sf.conn.Close()
		sf.conn = nil
	}
}

func (sf *Client) deadline() time.Time {
	if sf.timeout <= 0 {
		return time.Time{}
	}
	return time.Now().Add(sf.timeout)
}

// writeFrame writes adu, redialing at most autoReconnect times.
// caller must hold mu.
func (sf *Client) writeFrame(adu []byte) error {
	if !sf.open {
		return ErrClosedConnection
	}
	if sf.conn == nil && sf.autoReconnect == 0 {
		return ErrClosedConnection
	}

	var err error
	for attempt := 0; attempt <= sf.autoReconnect; attempt++ {
		if sf.conn == nil {
			if err = sf.redial(); err != nil {
				sf.Errorf("dial %s: %v", sf.address, err)
				continue
			}
		}
		if err = sf.conn.SetDeadline(sf.deadline()); err == nil {
			if _, err = sf.conn.Write(adu); err == nil {
				return nil
			}
		}
		sf.Errorf("write %s: %v", sf.address, err)
		sf.drop()
	}
	return err
}

// exchange sends one request and returns the response data after the
// function code. Frames carrying another transaction id are late answers
// to earlier requests and are skipped. A read failure drops the connection.
func (sf *Client) exchange(funcCode byte, data ...byte) ([]byte, error) {
	sf.mu.Lock()
	defer sf.mu.Unlock()

	sf.tid++
	tid := sf.tid
	adu, err := appendADU(make([]byte, 0, mbapSize+1+len(data)), tid, sf.unitID, append([]byte{funcCode}, data...))
	if err != nil {
		return nil, err
	}
	sf.Debugf("sending [% x]", adu)
	if err = sf.writeFrame(adu); err != nil {
		return nil, err
	}

	for {
		head, pdu, err := readADU(sf.conn, sf.rx[:])
		if err != nil {
			sf.drop()
			return nil, err
		}
		sf.Debugf("received [% x]", sf.rx[:mbapSize+len(pdu)])
		if head.tid != tid {
			sf.Debugf("skip response of transaction '%v', waiting for '%v'", head.tid, tid)
			continue
		}
		switch {
		case head.proto != modbusProtoID:
			sf.drop()
			return nil, fmt.Errorf("modbus: response protocol id '%v' does not match request '%v'", head.proto, modbusProtoID)
		case head.unit != sf.unitID:
			return nil, fmt.Errorf("modbus: response unit id '%v' does not match request '%v'", head.unit, sf.unitID)
		}
		rsp, err := parsePDU(funcCode, pdu)
		if err != nil {
			return nil, err
		}
		// rx is reused by the next request
		return append([]byte(nil), rsp...), nil
	}
}

func checkQuantity(what string, quantity, lo, hi int) error {
	if quantity < lo || quantity > hi {
		return fmt.Errorf("modbus: %s quantity '%v' must be between '%v' and '%v'", what, quantity, lo, hi)
	}
	return nil
}

// counted strips the byte count of a read response and checks it.
func counted(rsp []byte, want int) ([]byte, error) {
	if int(rsp[0]) != len(rsp)-1 || int(rsp[0]) != want {
		return nil, fmt.Errorf("modbus: response byte count '%v' with '%v' data bytes, want '%v'", rsp[0], len(rsp)-1, want)
	}
	return rsp[1:], nil
}

// echoed checks a write response repeating address and value or quantity.
func echoed(rsp []byte, address, value uint16) error {
	if len(rsp) != 4 {
		return fmt.Errorf("modbus: write response size '%v', want '4'", len(rsp))
	}
	if a, v := binary.BigEndian.Uint16(rsp), binary.BigEndian.Uint16(rsp[2:]); a != address || v != value {
		return fmt.Errorf("modbus: write response echoes '%v'/'%v', want '%v'/'%v'", a, v, address, value)
	}
	return nil
}

func be16(words ...uint16) []byte {
	b := make([]byte, 0, 2*len(words))
	for _, w := range words {
		b = binary.BigEndian.AppendUint16(b, w)
	}
	return b
}

// ReadCoils reads quantity coils starting at address.
func (sf *Client) ReadCoils(address, quantity uint16) ([]bool, error) {
	if err := checkQuantity("coil", int(quantity), ReadBitsQuantityMin, ReadBitsQuantityMax); err != nil {
		return nil, err
	}
	rsp, err := sf.exchange(FuncCodeReadCoils, be16(address, quantity)...)
	if err != nil {
		return nil, err
	}
	status, err := counted(rsp, (int(quantity)+7)/8)
	if err != nil {
		return nil, err
	}
	bits := make([]bool, quantity)
	for i := range bits {
		bits[i] = status[i/8]>>(i%8)&1 == 1
	}
	return bits, nil
}

// ReadInputRegisters reads quantity input registers starting at address.
func (sf *Client) ReadInputRegisters(address, quantity uint16) ([]uint16, error) {
	return sf.readWords(FuncCodeReadInputRegisters, address, quantity)
}

// ReadHoldingRegisters reads quantity holding registers starting at address.
func (sf *Client) ReadHoldingRegisters(address, quantity uint16) ([]uint16, error) {
	return sf.readWords(FuncCodeReadHoldingRegisters, address, quantity)
}

func (sf *Client) readWords(funcCode byte, address, quantity uint16) ([]uint16, error) {
	if err := checkQuantity("register", int(quantity), ReadRegQuantityMin, ReadRegQuantityMax); err != nil {
		return nil, err
	}
	rsp, err := sf.exchange(funcCode, be16(address, quantity)...)
	if err != nil {
		return nil, err
	}
	b, err := counted(rsp, 2*int(quantity))
	if err != nil {
		return nil, err
	}
	words := make([]uint16, quantity)
	for i := range words {
		words[i] = binary.BigEndian.Uint16(b[2*i:])
	}
	return words, nil
}

// WriteSingleCoil switches the coil at address on or off.
func (sf *Client) WriteSingleCoil(address uint16, on bool) error {
	var value uint16
	if on {
		value = 0xff00
	}
	rsp, err := sf.exchange(FuncCodeWriteSingleCoil, be16(address, value)...)
	if err != nil {
		return err
	}
	return echoed(rsp, address, value)
}

// WriteMultipleCoils writes values to consecutive coils starting at address.
func (sf *Client) WriteMultipleCoils(address uint16, values []bool) error {
	if err := checkQuantity("coil", len(values), WriteBitsQuantityMin, WriteBitsQuantityMax); err != nil {
		return err
	}
	quantity := uint16(len(values))
	status := make([]byte, (len(values)+7)/8)
	for i, v := range values {
		if v {
			status[i/8] |= 1 << (i % 8)
		}
	}
	data := append(be16(address, quantity), byte(len(status)))
	rsp, err := sf.exchange(FuncCodeWriteMultipleCoils, append(data, status...)...)
	if err != nil {
		return err
	}
	return echoed(rsp, address, quantity)
}

// WriteSingleRegister writes value to the holding register at address.
func (sf *Client) WriteSingleRegister(address, value uint16) error {
	rsp, err := sf.exchange(FuncCodeWriteSingleRegister, be16(address, value)...)
	if err != nil {
		return err
	}
	return echoed(rsp, address, value)
}

// WriteMultipleRegisters writes values to consecutive holding registers
// starting at address.
func (sf *Client) WriteMultipleRegisters(address uint16, values []uint16) error {
	if err := checkQuantity("register", len(values), WriteRegQuantityMin, WriteRegQuantityMax); err != nil {
		return err
	}
	quantity := uint16(len(values))
	data := append(be16(address, quantity), byte(2*len(values)))
	rsp, err := sf.exchange(FuncCodeWriteMultipleRegisters, append(data, be16(values...)...)...)
	if err != nil {
		return err
	}
	return echoed(rsp, address, quantity)
}
