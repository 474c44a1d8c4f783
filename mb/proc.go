package mb

import (
	"github.com/thinkgos/gopeblar"
)

// Handler receives poll results.
type Handler interface {
	// ProcValue called with the decoded value of a successful read
	ProcValue(id peblar.RegisterID, value interface{})
	// ProcResult called after every read, err is nil on success
	ProcResult(err error, result *Result)
}

// NopProc implement interface Handler
type NopProc struct{}

// ProcValue implement interface Handler
func (NopProc) ProcValue(peblar.RegisterID, interface{}) {}

// ProcResult implement interface Handler
func (NopProc) ProcResult(error, *Result) {}
