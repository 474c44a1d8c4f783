package modbus

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Modbus application protocol (MBAP) header, followed by the PDU:
//
//	transaction id  uint16
//	protocol id     uint16, always 0
//	length          uint16, unit id + PDU bytes
//	unit id         byte
const (
	mbapSize      = 7
	pduMaxSize    = 253
	aduMaxSize    = mbapSize + pduMaxSize
	modbusProtoID = 0
)

type mbap struct {
	tid    uint16
	proto  uint16
	length uint16
	unit   byte
}

// appendADU appends a request frame for pdu, function code first, to dst.
func appendADU(dst []byte, tid uint16, unit byte, pdu []byte) ([]byte, error) {
	if len(pdu) == 0 || len(pdu) > pduMaxSize {
		return dst, fmt.Errorf("modbus: pdu size '%v' must be between '1' and '%v'", len(pdu), pduMaxSize)
	}
	var head [mbapSize]byte
	binary.BigEndian.PutUint16(head[0:], tid)
	binary.BigEndian.PutUint16(head[2:], modbusProtoID)
	binary.BigEndian.PutUint16(head[4:], uint16(len(pdu)+1))
	head[6] = unit
	dst = append(dst, head[:]...)
	return append(dst, pdu...), nil
}

// readADU reads one frame from r into buf, which must hold aduMaxSize
// bytes. The returned pdu aliases buf.
func readADU(r io.Reader, buf []byte) (mbap, []byte, error) {
	if _, err := io.ReadFull(r, buf[:mbapSize]); err != nil {
		return mbap{}, nil, err
	}
	h := mbap{
		tid:    binary.BigEndian.Uint16(buf[0:]),
		proto:  binary.BigEndian.Uint16(buf[2:]),
		length: binary.BigEndian.Uint16(buf[4:]),
		unit:   buf[6],
	}
	// length counts the unit id, which is already read
	n := int(h.length) - 1
	if n < 1 || n > pduMaxSize {
		return h, nil, fmt.Errorf("modbus: frame length '%v' must be between '2' and '%v'", h.length, pduMaxSize+1)
	}
	pdu := buf[mbapSize : mbapSize+n]
	if _, err := io.ReadFull(r, pdu); err != nil {
		return h, nil, err
	}
	return h, pdu, nil
}

// parsePDU checks the response pdu against the request function code and
// returns its data.
func parsePDU(funcCode byte, pdu []byte) ([]byte, error) {
	switch {
	case len(pdu) == 0:
		return nil, fmt.Errorf("modbus: empty response")
	case pdu[0] == funcCode|exceptionFlag:
		e := &ExceptionError{}
		if len(pdu) > 1 {
			e.ExceptionCode = pdu[1]
		}
		return nil, e
	case pdu[0] != funcCode:
		return nil, fmt.Errorf("modbus: response function code '%v' does not match request '%v'", pdu[0], funcCode)
	case len(pdu) == 1:
		return nil, fmt.Errorf("modbus: response data is empty")
	}
	return pdu[1:], nil
}
