package frame

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSendReceiveRoundTrip(t *testing.T) {
	payloads := [][]byte{
		{0x81, 0x02},
		{0x81, 0x82, 0x01, 0x00, 0x01, 0x00, 0x78, 0x56, 0x34, 0x12},
		{0x0B, 0x03, 0x00, 0x0C, 0x00, 0x05, 0x00, 0x26, 0x02, 0x00, 0x00, 0x00},
		{flag, esc, flag, esc, 0x00, flag},
		{},
		{0xFF},
	}

	for _, p := range payloads {
		wire := Send(p)

		var got [][]byte
		var recv Receiver
		recv.Feed(wire, func(payload []byte) {
			cp := append([]byte(nil), payload...)
			got = append(got, cp)
		})

		require.Len(t, got, 1)
		require.Equal(t, p, got[0])
	}
}

func TestReceiveByteAtATime(t *testing.T) {
	payload := []byte{0x81, 0x04, 0x00, 0x00, 0x00, 0x00, 0x00, 0x10}
	wire := Send(payload)

	var got []byte
	var recv Receiver
	for _, b := range wire {
		recv.Feed([]byte{b}, func(p []byte) {
			got = append([]byte(nil), p...)
		})
	}
	require.Equal(t, payload, got)
}

func TestReceiveDropsBadCRC(t *testing.T) {
	wire := Send([]byte{0x81, 0x02})
	wire[len(wire)-3] ^= 0xFF // corrupt a stuffed CRC byte before the trailing flag

	var calls int
	var recv Receiver
	recv.Feed(wire, func([]byte) { calls++ })
	require.Zero(t, calls)
}

func TestReceiveResynchronizesAfterGarbage(t *testing.T) {
	good := Send([]byte{0x81, 0x02, 0x03})

	garbage := []byte{0x01, 0x02, flag, 0x03, 0x04}
	stream := append(garbage, good...)

	var got [][]byte
	var recv Receiver
	recv.Feed(stream, func(p []byte) {
		got = append(got, append([]byte(nil), p...))
	})
	require.Len(t, got, 1)
	require.Equal(t, []byte{0x81, 0x02, 0x03}, got[0])
}

func TestResetClearsPartialFrame(t *testing.T) {
	var recv Receiver
	recv.Feed([]byte{flag, 0x81, 0x02}, func([]byte) {
		t.Fatal("no complete frame yet")
	})
	recv.Reset()

	wire := Send([]byte{0x81, 0x09})
	var got []byte
	recv.Feed(wire, func(p []byte) { got = append([]byte(nil), p...) })
	require.Equal(t, []byte{0x81, 0x09}, got)
}
