package device

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		path string
		want Type
	}{
		{"/dev/ttyACM0", ConBee2},
		{"/dev/serial/by-id/usb-dresden_elektronik_ConBee_II-if00", ConBee2},
		{"/dev/cu.usbmodemDE12345", ConBee2},
		{"/dev/ttyUSB0", ConBee1},
		{"/dev/serial/by-id/usb-FTDI_FT230X-if00", ConBee1},
		{"/dev/cu.usbserial-DN01234", ConBee1},
		{"/dev/ttyAMA0", RaspBee1},
		{"/dev/ttyS0", RaspBee1},
		{"/dev/serial0", RaspBee1},
		{"/dev/nonsense0", Unknown},
		{"", Unknown},
	}
	for _, c := range cases {
		t.Run(c.path, func(t *testing.T) {
			require.Equal(t, c.want, Classify(c.path))
		})
	}
}

func TestClassifyFirstMatchWins(t *testing.T) {
	// contains both a ttyUSB-style hint and a ConBee_II hint; ttyACM/
	// ConBee_II rules are checked before ttyUSB, so ConBee-2 wins.
	require.Equal(t, ConBee2, Classify("/dev/serial/by-id/usb-dresden_elektronik_ConBee_II_and_ttyUSB-if00"))
}

func TestPromoteRaspBee2(t *testing.T) {
	require.Equal(t, RaspBee2, PromoteRaspBee2(RaspBee1, true))
	require.Equal(t, RaspBee1, PromoteRaspBee2(RaspBee1, false))
	require.Equal(t, ConBee1, PromoteRaspBee2(ConBee1, true))
}
