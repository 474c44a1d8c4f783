// Package modbustest provides an in-process modbus TCP server holding
// per-unit register images, for exercising clients without hardware.
package modbustest

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/thinkgos/gopeblar/modbus"
)

// TCP Default read & write timeout
const (
	TCPDefaultReadTimeout  = 60 * time.Second
	TCPDefaultWriteTimeout = 1 * time.Second
)

// ErrNodeNotFound no register image for the unit id
var ErrNodeNotFound = errors.New("modbustest: slave id not exist")

// Option server option
type Option func(*Server)

// WithReadTimeout set session read timeout
func WithReadTimeout(t time.Duration) Option {
	return func(sf *Server) {
		sf.readTimeout = t
	}
}

// WithWriteTimeout set session write timeout
func WithWriteTimeout(t time.Duration) Option {
	return func(sf *Server) {
		sf.writeTimeout = t
	}
}

// WithLogProvider set logger provider, nil disables logging.
func WithLogProvider(p modbus.LogProvider) Option {
	return func(sf *Server) {
		sf.log = p
	}
}

// Server modbus tcp server
type Server struct {
	mu           sync.Mutex
	listen       net.Listener
	conns        map[net.Conn]struct{}
	closed       bool
	wg           sync.WaitGroup
	cancel       context.CancelFunc
	readTimeout  time.Duration
	writeTimeout time.Duration

	nodeMu   sync.RWMutex
	node     map[uint8]*NodeRegister
	function map[uint8]FunctionHandler
	log      modbus.LogProvider
}

// NewServer new a modbus tcp server with no nodes.
func NewServer(opts ...Option) *Server {
	sf := &Server{
		conns:        make(map[net.Conn]struct{}),
		readTimeout:  TCPDefaultReadTimeout,
		writeTimeout: TCPDefaultWriteTimeout,
		node:         make(map[uint8]*NodeRegister),
		function:     defaultFunctions(),
	}
	for _, opt := range opts {
		opt(sf)
	}
	return sf
}

// RegisterFunctionHandler register or replace a function code handler.
func (sf *Server) RegisterFunctionHandler(funcCode uint8, function FunctionHandler) {
	sf.nodeMu.Lock()
	sf.function[funcCode] = function
	sf.nodeMu.Unlock()
}

// AddNodes add nodes, a node with the same slave id is replaced.
func (sf *Server) AddNodes(nodes ...*NodeRegister) {
	sf.nodeMu.Lock()
	for _, v := range nodes {
		sf.node[v.SlaveID()] = v
	}
	sf.nodeMu.Unlock()
}

// DeleteNode delete the node of slave id.
func (sf *Server) DeleteNode(slaveID byte) {
	sf.nodeMu.Lock()
	delete(sf.node, slaveID)
	sf.nodeMu.Unlock()
}

// GetNode get the node of slave id.
func (sf *Server) GetNode(slaveID byte) (*NodeRegister, error) {
	sf.nodeMu.RLock()
	defer sf.nodeMu.RUnlock()
	v, ok := sf.node[slaveID]
	if !ok {
		return nil, ErrNodeNotFound
	}
	return v, nil
}

// GetNodeList get all nodes.
func (sf *Server) GetNodeList() []*NodeRegister {
	sf.nodeMu.RLock()
	defer sf.nodeMu.RUnlock()
	list := make([]*NodeRegister, 0, len(sf.node))
	for _, v := range sf.node {
		list = append(list, v)
	}
	return list
}

func (sf *Server) handler(funcCode uint8) (FunctionHandler, bool) {
	sf.nodeMu.RLock()
	defer sf.nodeMu.RUnlock()
	h, ok := sf.function[funcCode]
	return h, ok
}

// ListenAndServe listens on the TCP address and serves until Close.
func (sf *Server) ListenAndServe(addr string) error {
	listen, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return sf.Serve(listen)
}

// Serve accepts connections on listen until Close, it returns nil after Close.
func (sf *Server) Serve(listen net.Listener) error {
	ctx, cancel := context.WithCancel(context.Background())
	sf.mu.Lock()
	if sf.closed {
		sf.mu.Unlock()
		cancel()
		return listen.Close()
	}
	sf.listen = listen
	sf.cancel = cancel
	sf.mu.Unlock()

	sf.debugf("server running on %v", listen.Addr())
	for {
		conn, err := listen.Accept()
		if err != nil {
			sf.mu.Lock()
			closed := sf.closed
			sf.mu.Unlock()
			if closed {
				return nil
			}
			sf.errorf("server stop, %v", err)
			return err
		}
		sf.mu.Lock()
		if sf.closed {
			sf.mu.Unlock()
			_ = conn.Close()
			return nil
		}
		sf.conns[conn] = struct{}{}
		sf.wg.Add(1)
		sf.mu.Unlock()

		go func() {
			defer sf.wg.Done()
			sess := &session{conn, sf}
			sess.running(ctx)
			sf.mu.Lock()
			delete(sf.conns, conn)
			sf.mu.Unlock()
		}()
	}
}

// Close stops the listener and all sessions.
func (sf *Server) Close() error {
	var err error
	sf.mu.Lock()
	sf.closed = true
	if sf.listen != nil {
		err = sf.listen.Close()
		sf.cancel()
		sf.listen = nil
	}
	for conn := range sf.conns {
		_ = conn.Close()
	}
	sf.mu.Unlock()
	sf.wg.Wait()
	return err
}

func (sf *Server) debugf(format string, v ...interface{}) {
	if sf.log != nil {
		sf.log.Debugf(format, v...)
	}
}

func (sf *Server) errorf(format string, v ...interface{}) {
	if sf.log != nil {
		sf.log.Errorf(format, v...)
	}
}
