package modbus

import (
	"errors"
)

// ErrClosedConnection use of a connection that is not open
var ErrClosedConnection = errors.New("use of closed connection")
