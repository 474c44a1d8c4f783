/*
Package peblar provides typed access to the modbus TCP register map of a
Peblar EV charger.

The register catalog maps each RegisterID to a RegisterSpec: absolute
address, word count and the codec between raw 16-bit words and a typed
value. A Client classifies the address into its band, calls the matching
Transport primitive and applies the codec.

	mc := modbus.NewClient("192.168.1.10:502", modbus.WithUnitID(peblar.DefaultUnitID))
	if err := mc.Connect(); err != nil {
		return err
	}
	c := peblar.NewClient(mc)
	power, err := peblar.ReadAs[int32](c, peblar.RegPowerTotal)
*/
package peblar

// DefaultUnitID the unit id the charger answers on.
const DefaultUnitID = 1

// Band register space of an address.
type Band int

// address bands, each [start, start+10000).
const (
	BandCoil Band = iota
	BandDiscreteInput
	BandInputRegister
	BandHoldingRegister
)

const bandWidth = 10000

var bandStart = [...]uint16{
	BandCoil:            0,
	BandDiscreteInput:   10000,
	BandInputRegister:   30000,
	BandHoldingRegister: 40000,
}

var bandName = [...]string{
	BandCoil:            "coil",
	BandDiscreteInput:   "discrete input",
	BandInputRegister:   "input register",
	BandHoldingRegister: "holding register",
}

func (b Band) String() string {
	if b < 0 || int(b) >= len(bandName) {
		return "unknown"
	}
	return bandName[b]
}

// Start first address of the band.
func (b Band) Start() uint16 { return bandStart[b] }

// Contains reports whether count words from address all lie in the band.
func (b Band) Contains(address, count uint16) bool {
	start := int(bandStart[b])
	return int(address) >= start && int(address)+int(count) <= start+bandWidth
}

// Writable reports whether the band accepts writes.
func (b Band) Writable() bool {
	return b == BandCoil || b == BandHoldingRegister
}

// Classify returns the band of address, ErrOutOfRange when it is in none.
func Classify(address uint16) (Band, error) {
	for b := BandCoil; b <= BandHoldingRegister; b++ {
		if b.Contains(address, 1) {
			return b, nil
		}
	}
	return 0, ErrOutOfRange
}
