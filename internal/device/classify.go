package device

import "strings"

// classifyRule is one (substring, Type) entry, checked in order — first
// match wins, mirroring the original C classifier.
type classifyRule struct {
	substr string
	typ    Type
}

var rules = []classifyRule{
	{"ttyACM", ConBee2},
	{"ConBee_II", ConBee2},
	{"cu.usbmodemDE", ConBee2},
	{"ttyUSB", ConBee1},
	{"usb-FTDI", ConBee1},
	{"cu.usbserial", ConBee1},
	{"ttyAMA", RaspBee1},
	{"ttyS", RaspBee1},
	{"/serial", RaspBee1},
}

// Classify maps a device path string to a Type by substring match, in the
// fixed priority order of spec §4.3. It never inspects the filesystem.
func Classify(devicePath string) Type {
	if devicePath == "" {
		return Unknown
	}
	for _, r := range rules {
		if strings.Contains(devicePath, r.substr) {
			return r.typ
		}
	}
	return Unknown
}

// PromoteRaspBee2 applies the RaspBee-1 -> RaspBee-2 promotion rule of
// spec §4.2 / §8 invariant 7: a RaspBee-1 path paired with an R21-class
// firmware image is actually a RaspBee-2. It returns the (possibly
// promoted) type.
func PromoteRaspBee2(t Type, fwVersionIsR21 bool) Type {
	if t == RaspBee1 && fwVersionIsR21 {
		return RaspBee2
	}
	return t
}
