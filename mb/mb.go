// Package mb polls charger registers at a fixed scan rate through a
// peblar.Client and hands every decoded value to a Handler.
package mb

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/thinkgos/timing/v4"

	"github.com/thinkgos/gopeblar"
)

const (
	// DefaultRandValue unit ms.
	// upper bound of the random delay before a ready request is queued
	// again when the ready queue is full.
	DefaultRandValue = 50
	// DefaultReadyQueuesLength default ready queue length
	DefaultReadyQueuesLength = 256
)

// Poller gathers registers periodically.
type Poller struct {
	client         *peblar.Client
	randValue      int
	readyQueueSize int
	ready          chan *Request
	handler        Handler
	panicHandle    func(err interface{})
	metrics        *metrics
	ctx            context.Context
	cancel         context.CancelFunc
}

// Result the outcome and counters of one gather job.
type Result struct {
	Register  peblar.RegisterID
	Address   uint16
	WordCount uint16
	ScanRate  time.Duration
	TxCnt     uint64 // requests sent
	ErrCnt    uint64 // requests failed
}

// Request a gather job. A zero ScanRate reads the register once.
type Request struct {
	Register peblar.RegisterID
	ScanRate time.Duration
	txCnt    uint64
	errCnt   uint64
	tm       *timing.Timer
}

// New creates a Poller reading through c.
func New(c *peblar.Client, opts ...Option) *Poller {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Poller{
		client:         c,
		randValue:      DefaultRandValue,
		readyQueueSize: DefaultReadyQueuesLength,
		handler:        &NopProc{},
		panicHandle:    func(interface{}) {},
		metrics:        newMetrics(),
		ctx:            ctx,
		cancel:         cancel,
	}

	for _, opt := range opts {
		opt(p)
	}
	p.ready = make(chan *Request, p.readyQueueSize)
	return p
}

// Start runs the read loop. The client's transport must already be connected.
func (sf *Poller) Start() error {
	if err := sf.ctx.Err(); err != nil {
		return err
	}
	go sf.readPoll()
	return nil
}

// Close stops the read loop. Armed jobs fire once more and are dropped.
func (sf *Poller) Close() error {
	sf.cancel()
	return nil
}

// AddGatherJob adds a gather job for a readable register.
func (sf *Poller) AddGatherJob(r Request) error {
	if err := sf.ctx.Err(); err != nil {
		return err
	}
	if !r.Register.Valid() {
		return fmt.Errorf("mb: invalid register '%d'", int(r.Register))
	}
	if !r.Register.Spec().Readable() {
		return fmt.Errorf("mb: register '%v' is not readable", r.Register)
	}
	if r.ScanRate < 0 {
		return fmt.Errorf("mb: scan rate '%v' must not be negative", r.ScanRate)
	}

	req := &Request{
		Register: r.Register,
		ScanRate: r.ScanRate,
		tm:       timing.NewTimer(r.ScanRate),
	}
	req.tm.WithJobFunc(func() {
		select {
		case <-sf.ctx.Done():
			return
		case sf.ready <- req:
		default:
			timing.Add(req.tm, time.Duration(rand.Intn(sf.randValue))*time.Millisecond)
		}
	})
	timing.Add(req.tm, req.ScanRate)
	return nil
}

// read loop
func (sf *Poller) readPoll() {
	for {
		select {
		case <-sf.ctx.Done():
			return
		case req := <-sf.ready:
			sf.procRequest(req)
		}
	}
}

func (sf *Poller) procRequest(req *Request) {
	defer func() {
		if err := recover(); err != nil {
			sf.panicHandle(err)
		}
	}()

	req.txCnt++
	name := req.Register.String()
	sf.metrics.requests.WithLabelValues(name).Inc()
	value, err := sf.client.ReadRegister(req.Register)
	if err != nil {
		req.errCnt++
		sf.metrics.errors.WithLabelValues(name).Inc()
	} else {
		sf.metrics.observe(name, value)
		sf.handler.ProcValue(req.Register, value)
	}

	if req.ScanRate > 0 && req.tm != nil && sf.ctx.Err() == nil {
		timing.Add(req.tm, req.ScanRate)
	}
	spec := req.Register.Spec()
	sf.handler.ProcResult(err, &Result{
		req.Register,
		spec.Address,
		spec.WordCount,
		req.ScanRate,
		req.txCnt,
		req.errCnt,
	})
}
