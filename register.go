package peblar

import "fmt"

// RegisterSpec one register of the catalog. A nil Decoder means the register
// can not be read, a nil Encoder that it can not be written.
type RegisterSpec struct {
	Address   uint16
	WordCount uint16
	Decoder   Decoder
	Encoder   Encoder
}

// Readable reports whether the register has a decoder.
func (s RegisterSpec) Readable() bool { return s.Decoder != nil }

// Writable reports whether the register has an encoder.
func (s RegisterSpec) Writable() bool { return s.Encoder != nil }

// Band band of the register address.
func (s RegisterSpec) Band() (Band, error) { return Classify(s.Address) }

// RegisterID symbolic name of a catalog register.
type RegisterID int

// catalog registers
const (
	// telemetry
	RegEnergyTotal RegisterID = iota
	RegSessionEnergy
	RegPowerPhase1
	RegPowerPhase2
	RegPowerPhase3
	RegPowerTotal
	RegVoltagePhase1
	RegVoltagePhase2
	RegVoltagePhase3
	RegCurrentPhase1
	RegCurrentPhase2
	RegCurrentPhase3

	// config
	RegSerialNumber
	RegProductNumber
	RegFwIdentifier
	RegHwIdentifier
	RegPhaseCount
	RegIndepRelay

	// current control
	RegCurrentLimitSource
	RegCurrentLimitActual
	RegModbusCurrentLimit
	RegForce1Phase

	// diagnostic
	RegWlanSignalStrength
	RegCellSignalStrength
	RegUptime
	RegCpState
	RegLockState
	RegActiveWarning1
	RegActiveWarning2
	RegActiveWarning3
	RegActiveWarning4
	RegActiveWarning5
	RegActiveError1
	RegActiveError2
	RegActiveError3
	RegActiveError4
	RegActiveError5
	RegModbusAPIVersionMajor
	RegModbusAPIVersionMinor

	registerCount int = iota
)

type catalogEntry struct {
	name string
	spec RegisterSpec
}

var (
	int32Codec  = IntCodec{Type: Int32}
	uint16Codec = IntCodec{Type: Uint16}
	uint32Codec = IntCodec{Type: Uint32}
	int64Codec  = IntCodec{Type: Int64}
	idCodec     = StringCodec{Words: 12}
)

func readOnly(address, words uint16, d Decoder) RegisterSpec {
	return RegisterSpec{Address: address, WordCount: words, Decoder: d}
}

// catalog is indexed by RegisterID.
var catalog = [registerCount]catalogEntry{
	RegEnergyTotal:   {"EnergyTotal", readOnly(30000, 4, int64Codec)},
	RegSessionEnergy: {"SessionEnergy", readOnly(30004, 4, int64Codec)},
	RegPowerPhase1:   {"PowerPhase1", readOnly(30008, 2, int32Codec)},
	RegPowerPhase2:   {"PowerPhase2", readOnly(30010, 2, int32Codec)},
	RegPowerPhase3:   {"PowerPhase3", readOnly(30012, 2, int32Codec)},
	RegPowerTotal:    {"PowerTotal", readOnly(30014, 2, int32Codec)},
	RegVoltagePhase1: {"VoltagePhase1", readOnly(30016, 2, int32Codec)},
	RegVoltagePhase2: {"VoltagePhase2", readOnly(30018, 2, int32Codec)},
	RegVoltagePhase3: {"VoltagePhase3", readOnly(30020, 2, int32Codec)},
	RegCurrentPhase1: {"CurrentPhase1", readOnly(30022, 2, int32Codec)},
	RegCurrentPhase2: {"CurrentPhase2", readOnly(30024, 2, int32Codec)},
	RegCurrentPhase3: {"CurrentPhase3", readOnly(30026, 2, int32Codec)},

	RegSerialNumber:  {"SerialNumber", readOnly(30050, 12, idCodec)},
	RegProductNumber: {"ProductNumber", readOnly(30062, 12, idCodec)},
	RegFwIdentifier:  {"FwIdentifier", readOnly(30074, 12, idCodec)},
	// shares its address with ModbusApiVersionMajor on current firmware
	RegHwIdentifier: {"HwIdentifier", readOnly(30122, 1, uint16Codec)},
	RegPhaseCount:   {"PhaseCount", readOnly(30092, 1, uint16Codec)},
	RegIndepRelay:   {"IndepRelay", readOnly(30093, 1, uint16Codec)},

	RegCurrentLimitSource: {"CurrentLimitSource", readOnly(30112, 1, LimitSourceCodec{})},
	RegCurrentLimitActual: {"CurrentLimitActual", readOnly(30113, 2, uint32Codec)},
	RegModbusCurrentLimit: {"ModbusCurrentLimit", RegisterSpec{
		Address: 40000, WordCount: 2, Decoder: uint32Codec, Encoder: uint32Codec,
	}},
	RegForce1Phase: {"Force1Phase", RegisterSpec{
		Address: 40002, WordCount: 1, Decoder: BoolCodec{}, Encoder: BoolCodec{},
	}},

	RegWlanSignalStrength: {"WlanSignalStrength", readOnly(30086, 2, int32Codec)},
	RegCellSignalStrength: {"CellSignalStrength", readOnly(30088, 2, int32Codec)},
	RegUptime:             {"Uptime", readOnly(30090, 2, uint32Codec)},
	RegCpState:            {"CpState", readOnly(30110, 1, StringCodec{Words: 1})},
	RegLockState:          {"LockState", readOnly(30111, 1, BoolCodec{})},
	RegActiveWarning1:     {"ActiveWarning1", readOnly(30100, 1, uint16Codec)},
	RegActiveWarning2:     {"ActiveWarning2", readOnly(30101, 1, uint16Codec)},
	RegActiveWarning3:     {"ActiveWarning3", readOnly(30102, 1, uint16Codec)},
	RegActiveWarning4:     {"ActiveWarning4", readOnly(30103, 1, uint16Codec)},
	RegActiveWarning5:     {"ActiveWarning5", readOnly(30104, 1, uint16Codec)},
	RegActiveError1:       {"ActiveError1", readOnly(30105, 1, uint16Codec)},
	RegActiveError2:       {"ActiveError2", readOnly(30106, 1, uint16Codec)},
	RegActiveError3:       {"ActiveError3", readOnly(30107, 1, uint16Codec)},
	RegActiveError4:       {"ActiveError4", readOnly(30108, 1, uint16Codec)},
	RegActiveError5:       {"ActiveError5", readOnly(30109, 1, uint16Codec)},

	RegModbusAPIVersionMajor: {"ModbusApiVersionMajor", readOnly(30122, 1, uint16Codec)},
	RegModbusAPIVersionMinor: {"ModbusApiVersionMinor", readOnly(30124, 1, uint16Codec)},
}

// Valid reports whether id is in the catalog.
func (id RegisterID) Valid() bool {
	return id >= 0 && int(id) < registerCount
}

// Spec the catalog entry of id. It panics for an id outside the catalog.
func (id RegisterID) Spec() RegisterSpec {
	return catalog[id].spec
}

func (id RegisterID) String() string {
	if !id.Valid() {
		return fmt.Sprintf("RegisterID(%d)", int(id))
	}
	return catalog[id].name
}

// Registers all register ids in catalog order.
func Registers() []RegisterID {
	ids := make([]RegisterID, registerCount)
	for i := range ids {
		ids[i] = RegisterID(i)
	}
	return ids
}

// ParseRegisterID finds the id with the given name, as returned by String.
func ParseRegisterID(name string) (RegisterID, error) {
	for i := range catalog {
		if catalog[i].name == name {
			return RegisterID(i), nil
		}
	}
	return 0, fmt.Errorf("peblar: unknown register %q", name)
}
