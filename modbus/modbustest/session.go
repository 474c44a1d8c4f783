package modbustest

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/thinkgos/gopeblar/modbus"
)

const (
	tcpProtocolIdentifier = 0x0000
	tcpHeaderMbapSize     = 7
	tcpAduMaxSize         = 260
)

// session one client connection
type session struct {
	conn net.Conn
	*Server
}

// running serves frames until the peer closes, an io error or ctx is done.
func (sf *session) running(ctx context.Context) {
	var err error

	sf.debugf("client(%v) -> server(%v) connected", sf.conn.RemoteAddr(), sf.conn.LocalAddr())
	defer func() {
		_ = sf.conn.Close()
		sf.debugf("client(%v) -> server(%v) disconnected, cause by %v", sf.conn.RemoteAddr(), sf.conn.LocalAddr(), err)
	}()

	raw := make([]byte, tcpAduMaxSize)
	for {
		select {
		case <-ctx.Done():
			err = errors.New("server active close")
			return
		default:
		}

		if err = sf.conn.SetReadDeadline(time.Now().Add(sf.readTimeout)); err != nil {
			return
		}
		if _, err = io.ReadFull(sf.conn, raw[:tcpHeaderMbapSize]); err != nil {
			return
		}
		length := int(binary.BigEndian.Uint16(raw[4:])) + tcpHeaderMbapSize - 1
		if length <= tcpHeaderMbapSize || length > tcpAduMaxSize {
			err = fmt.Errorf("modbustest: invalid length in header '%v'", length)
			return
		}
		if _, err = io.ReadFull(sf.conn, raw[tcpHeaderMbapSize:length]); err != nil {
			return
		}
		// a frame of another protocol is dropped
		if binary.BigEndian.Uint16(raw[2:]) != tcpProtocolIdentifier {
			continue
		}
		if err = sf.frameHandler(raw[:length]); err != nil {
			return
		}
	}
}

// frameHandler handles one request adu and writes the response.
func (sf *session) frameHandler(requestAdu []byte) error {
	sf.debugf("RX Raw[% x]", requestAdu)

	slaveID := requestAdu[6]
	funcCode := requestAdu[tcpHeaderMbapSize]
	pduData := requestAdu[tcpHeaderMbapSize+1:]

	node, err := sf.GetNode(slaveID)
	if err != nil { // slave id not exist, ignore it
		return nil
	}
	var rspPduData []byte
	if handle, ok := sf.handler(funcCode); ok {
		rspPduData, err = sf.call(handle, node, pduData)
	} else {
		err = &modbus.ExceptionError{ExceptionCode: modbus.ExceptionCodeIllegalFunction}
	}
	if err != nil {
		var e *modbus.ExceptionError
		if !errors.As(err, &e) {
			e = &modbus.ExceptionError{ExceptionCode: modbus.ExceptionCodeServerDeviceFailure}
		}
		funcCode |= 0x80
		rspPduData = []byte{e.ExceptionCode}
	}

	// transaction id, protocol id and unit id are echoed
	responseAdu := make([]byte, tcpHeaderMbapSize, tcpHeaderMbapSize+1+len(rspPduData))
	copy(responseAdu, requestAdu[:tcpHeaderMbapSize])
	binary.BigEndian.PutUint16(responseAdu[4:], uint16(2+len(rspPduData)))
	responseAdu = append(responseAdu, funcCode)
	responseAdu = append(responseAdu, rspPduData...)

	sf.debugf("TX Raw[% x]", responseAdu)
	if err = sf.conn.SetWriteDeadline(time.Now().Add(sf.writeTimeout)); err != nil {
		return err
	}
	_, err = sf.conn.Write(responseAdu)
	return err
}

// call runs a handler, a panic is answered as a server device failure.
func (sf *session) call(handle FunctionHandler, node *NodeRegister, data []byte) (rsp []byte, err error) {
	defer func() {
		if e := recover(); e != nil {
			sf.errorf("panic happen, %v", e)
			rsp, err = nil, &modbus.ExceptionError{ExceptionCode: modbus.ExceptionCodeServerDeviceFailure}
		}
	}()
	return handle(node, data)
}
