package domain

import "fmt"

// ProbeType is the physical connector category of an ACME probe.
type ProbeType string

const (
	ProbeTypeJack ProbeType = "JACK"
	ProbeTypeUSB  ProbeType = "USB"
	ProbeTypeHE10 ProbeType = "HE10"
)

// ProbeInfo holds the static attributes reported by the cape for one slot.
type ProbeInfo struct {
	Type           ProbeType
	ShuntMicroOhm  int
	HasPowerSwitch bool
}

// ProbeState tracks the device lifecycle of a probe abstraction.
type ProbeState int

const (
	StateUnattached ProbeState = iota
	StateAttached
	StateConfigured
	StateCapturing
	StateFailed
)

func (s ProbeState) String() string {
	switch s {
	case StateUnattached:
		return "unattached"
	case StateAttached:
		return "attached"
	case StateConfigured:
		return "configured"
	case StateCapturing:
		return "capturing"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// ProbeAddr identifies a probe by cape host and 1-based slot.
type ProbeAddr struct {
	Host string
	Slot int
	Name string
}

// Label returns the user-assigned name, or the host-slot default when unset.
func (a ProbeAddr) Label() string {
	if a.Name != "" {
		return a.Name
	}
	return fmt.Sprintf("%s-%d", a.Host, a.Slot)
}
