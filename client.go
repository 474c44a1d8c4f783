package peblar

import (
	"errors"
	"fmt"
	"sync"
)

// Client reads and writes catalog registers over a Transport.
// Calls are serialized, one modbus transaction at a time. No retries.
type Client struct {
	logger
	mu        sync.Mutex
	transport Transport
}

// NewClient creates a Client over t.
func NewClient(t Transport, opts ...Option) *Client {
	c := &Client{
		logger:    newLogger(),
		transport: t,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ReadRegister reads the catalog register id.
func (sf *Client) ReadRegister(id RegisterID) (interface{}, error) {
	if !id.Valid() {
		return nil, &RegisterError{"read", id.String(), 0, ErrUnsupportedOperation}
	}
	return sf.read(id.String(), id.Spec())
}

// WriteRegister writes v to the catalog register id.
func (sf *Client) WriteRegister(id RegisterID, v interface{}) error {
	if !id.Valid() {
		return &RegisterError{"write", id.String(), 0, ErrUnsupportedOperation}
	}
	return sf.write(id.String(), id.Spec(), v)
}

// Read reads spec and returns its decoded value.
func (sf *Client) Read(spec RegisterSpec) (interface{}, error) {
	return sf.read("", spec)
}

// Write encodes v with spec's encoder and writes it.
func (sf *Client) Write(spec RegisterSpec, v interface{}) error {
	return sf.write("", spec, v)
}

// ReadAs reads the register id and asserts its value is a T.
func ReadAs[T any](c *Client, id RegisterID) (T, error) {
	var zero T
	v, err := c.ReadRegister(id)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, &RegisterError{"read", id.String(), id.Spec().Address,
			fmt.Errorf("%w: value is %T, not %T", ErrUnsupportedOperation, v, zero)}
	}
	return t, nil
}

func (sf *Client) read(name string, spec RegisterSpec) (interface{}, error) {
	fail := func(err error) error {
		e := &RegisterError{"read", name, spec.Address, err}
		sf.Errorf("%v", e)
		return e
	}

	if spec.Decoder == nil {
		return nil, fail(fmt.Errorf("%w: register has no decoder", ErrUnsupportedOperation))
	}
	band, err := sf.classify(spec)
	if err != nil {
		return nil, fail(err)
	}

	var words []uint16
	sf.mu.Lock()
	switch band {
	case BandCoil:
		var bits []bool
		if bits, err = sf.transport.ReadCoils(spec.Address, spec.WordCount); err == nil {
			words = boolsToWords(bits)
		}
	case BandInputRegister:
		words, err = sf.transport.ReadInputRegisters(spec.Address, spec.WordCount)
	case BandHoldingRegister:
		words, err = sf.transport.ReadHoldingRegisters(spec.Address, spec.WordCount)
	}
	sf.mu.Unlock()

	switch {
	case err != nil:
		return nil, fail(fmt.Errorf("%w: %w", ErrReadFailed, err))
	case len(words) == 0:
		return nil, fail(fmt.Errorf("%w: no data", ErrReadFailed))
	case len(words) != int(spec.WordCount):
		return nil, fail(fmt.Errorf("%w: got %d words, want %d", ErrReadFailed, len(words), spec.WordCount))
	}
	sf.Debugf("read %d(%d) %v", spec.Address, spec.WordCount, words)

	v, err := spec.Decoder.Decode(words)
	if err != nil {
		if !errors.Is(err, ErrDecodeFault) {
			err = fmt.Errorf("%w: %w", ErrDecodeFault, err)
		}
		return nil, fail(err)
	}
	return v, nil
}

func (sf *Client) write(name string, spec RegisterSpec, v interface{}) error {
	fail := func(err error) error {
		e := &RegisterError{"write", name, spec.Address, err}
		sf.Errorf("%v", e)
		return e
	}

	if spec.Encoder == nil {
		return fail(fmt.Errorf("%w: register has no encoder", ErrUnsupportedOperation))
	}
	if band, err := Classify(spec.Address); err == nil && !band.Writable() {
		return fail(fmt.Errorf("%w: %v is read only", ErrUnsupportedOperation, band))
	}
	band, err := sf.classify(spec)
	if err != nil {
		return fail(err)
	}

	words, err := spec.Encoder.Encode(v)
	if err != nil {
		if !errors.Is(err, ErrEncodeFault) {
			err = fmt.Errorf("%w: %w", ErrEncodeFault, err)
		}
		return fail(err)
	}
	switch {
	case len(words) == 0:
		return fail(fmt.Errorf("%w: encoder produced no words", ErrEncodeFault))
	case len(words) > int(spec.WordCount):
		return fail(fmt.Errorf("%w: %d words do not fit in %d", ErrEncodeFault, len(words), spec.WordCount))
	}
	sf.Debugf("write %d(%d) %v", spec.Address, spec.WordCount, words)

	sf.mu.Lock()
	if spec.WordCount == 1 {
		if band == BandCoil {
			err = sf.transport.WriteSingleCoil(spec.Address, words[0] != 0)
		} else {
			err = sf.transport.WriteSingleRegister(spec.Address, words[0])
		}
	} else {
		// a narrower value keeps its significance, high order words are zero
		padded := make([]uint16, int(spec.WordCount)-len(words), spec.WordCount)
		padded = append(padded, words...)
		if band == BandCoil {
			err = sf.transport.WriteMultipleCoils(spec.Address, wordsToBools(padded))
		} else {
			err = sf.transport.WriteMultipleRegisters(spec.Address, padded)
		}
	}
	sf.mu.Unlock()
	if err != nil {
		return fail(fmt.Errorf("%w: %w", ErrWriteFailed, err))
	}
	return nil
}

// classify the band of spec, discrete inputs are not implemented and
// a multi-word spec must end in the band it starts in.
func (sf *Client) classify(spec RegisterSpec) (Band, error) {
	band, err := Classify(spec.Address)
	switch {
	case err != nil:
		return band, fmt.Errorf("%w: %d", ErrOutOfRange, spec.Address)
	case band == BandDiscreteInput:
		return band, fmt.Errorf("%w: %v band", ErrNotImplemented, band)
	case spec.WordCount == 0:
		return band, fmt.Errorf("%w: word count is zero", ErrUnsupportedOperation)
	case !band.Contains(spec.Address, spec.WordCount):
		return band, fmt.Errorf("%w: %d words from %d leave the %v band",
			ErrOutOfRange, spec.WordCount, spec.Address, band)
	}
	return band, nil
}

func boolsToWords(bits []bool) []uint16 {
	words := make([]uint16, len(bits))
	for i, b := range bits {
		if b {
			words[i] = 1
		}
	}
	return words
}

func wordsToBools(words []uint16) []bool {
	bits := make([]bool, len(words))
	for i, w := range words {
		bits[i] = w != 0
	}
	return bits
}
