package peblar

import "strconv"

// CurrentLimitSource why the charging current is limited right now.
type CurrentLimitSource uint16

// current limit sources as reported by the charger.
const (
	LimitSourceUnknown CurrentLimitSource = iota
	LimitSourceFixedCable
	LimitSourceHighTemperature
	LimitSourceInstallationLimit
	LimitSourceDynamicLoadBalancing
	LimitSourceGroupLoadBalancing
	LimitSourceChargingCable
	LimitSourceOvercurrentProtection
	LimitSourceHardwareLimitation
	LimitSourcePowerFactor
	LimitSourceOCPPSmartCharging
	LimitSourcePhaseImbalance
	LimitSourceLocalScheduledCharging
	LimitSourceSolarCharging
	LimitSourceCurrentLimiter
	LimitSourceLocalRestAPI
	LimitSourceLocalModbusAPI
	LimitSourceExternalPowerLimit
	LimitSourceHouseholdPowerLimit
)

var limitSourceName = [...]string{
	"UNKNOWN",
	"FIXED_CABLE",
	"HIGH_TEMPERATURE",
	"INSTALLATION_LIMIT",
	"DYNAMIC_LOAD_BALANCING",
	"GROUP_LOAD_BALANCING",
	"CHARGING_CABLE",
	"OVERCURRENT_PROTECTION",
	"HARDWARE_LIMITATION",
	"POWER_FACTOR",
	"OCPP_SMART_CHARGING",
	"PHASE_IMBALANCE",
	"LOCAL_SCHEDULED_CHARGING",
	"SOLAR_CHARGING",
	"CURRENT_LIMITER",
	"LOCAL_REST_API",
	"LOCAL_MODBUS_API",
	"EXTERNAL_POWER_LIMIT",
	"HOUSEHOLD_POWER_LIMIT",
}

// Valid reports whether s is one of the known codes.
func (s CurrentLimitSource) Valid() bool {
	return int(s) < len(limitSourceName)
}

func (s CurrentLimitSource) String() string {
	if !s.Valid() {
		return "CurrentLimitSource(" + strconv.Itoa(int(s)) + ")"
	}
	return limitSourceName[s]
}
