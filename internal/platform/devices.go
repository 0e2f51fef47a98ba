package platform

import (
	"strings"

	"github.com/sirupsen/logrus"
	"go.bug.st/serial"

	"github.com/senilio/gcfflasher/internal/device"
)

// EnumerateDevices lists serial ports via go.bug.st/serial and classifies
// each one, implementing spec §4.5 "ListDevices"'s external enumerator.
func EnumerateDevices() []device.Info {
	ports, err := serial.GetPortsList()
	if err != nil {
		logrus.Warnf("device enumeration failed: %v", err)
		return nil
	}

	devices := make([]device.Info, 0, len(ports))
	for _, path := range ports {
		t := device.Classify(path)
		if t == device.Unknown {
			continue
		}
		devices = append(devices, device.Info{
			Name:       friendlyName(path),
			Path:       path,
			StablePath: path,
			Type:       t,
		})
	}
	return devices
}

// friendlyName trims a /dev path down to its trailing node name for
// display, matching the compact form the teacher's list output used.
func friendlyName(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}
