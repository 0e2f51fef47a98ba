// Package device classifies serial device paths into the device families
// this tool knows how to reset and program, and describes devices returned
// by the (external) enumerator.
package device

// Type identifies which reset/bootloader strategy a device needs.
type Type int

const (
	Unknown Type = iota
	RaspBee1
	RaspBee2
	ConBee1
	ConBee2
)

func (t Type) String() string {
	switch t {
	case RaspBee1:
		return "RaspBee-1"
	case RaspBee2:
		return "RaspBee-2"
	case ConBee1:
		return "ConBee-1"
	case ConBee2:
		return "ConBee-2"
	default:
		return "Unknown"
	}
}

// UsesV1Bootloader reports whether devices of this type speak the ASCII
// page-pull bootloader protocol (V1) rather than the framed binary one (V3).
func (t Type) UsesV1Bootloader() bool {
	return t == RaspBee1 || t == ConBee1
}

// Info describes one enumerated device. It is produced by the external
// device enumerator and consumed read-only by the engine.
type Info struct {
	Name       string
	Serial     string
	Path       string
	StablePath string
	Type       Type
}
