package engine

// rxCapacity is the fixed size of the shared receive buffer (spec §3).
const rxCapacity = 512

// rxOverflowAt is the point at which an ASCII append must drop and reset,
// leaving one byte of headroom for the null terminator (spec §4.6: "drop
// and reset on overflow of 510 chars").
const rxOverflowAt = 510

// rxBuffer is the ASCII accumulator of spec §3: it holds the growing V1/
// bootloader-query text line while the engine is in an ASCII-consuming
// state (see isASCIIState), and also receives a verbatim copy of each
// classified bootloader packet payload via SetBinary, per the frame codec
// upcall of spec §4.1. V3Upload's own outbound scratch buffer is sized
// separately (state_v3.go) rather than sharing this one — see DESIGN.md.
type rxBuffer struct {
	buf [rxCapacity]byte
	wp  int
}

// Reset zeroes the write pointer. Called on every state entry that
// consumes ASCII, and after each V1 page is served.
func (b *rxBuffer) Reset() {
	b.wp = 0
}

// AppendASCII appends data to the accumulator, null-terminating after the
// append. It reports whether the append overflowed rxOverflowAt, in which
// case the buffer has already been reset to empty (invariant 1, spec §8).
func (b *rxBuffer) AppendASCII(data []byte) bool {
	for _, c := range data {
		if b.wp >= rxOverflowAt {
			b.wp = 0
			return true
		}
		b.buf[b.wp] = c
		b.wp++
	}
	b.buf[b.wp] = 0
	return false
}

// SetBinary overwrites the buffer verbatim with a bootloader packet
// payload, per the frame codec upcall of spec §4.1 ("copy payload into the
// rx buffer, set wp to length").
func (b *rxBuffer) SetBinary(data []byte) {
	b.wp = copy(b.buf[:], data)
}

// Bytes returns the buffer contents up to the write pointer.
func (b *rxBuffer) Bytes() []byte {
	return b.buf[:b.wp]
}

// String returns the ASCII contents as a string, matching the
// null-terminated C buffer's text() view.
func (b *rxBuffer) String() string {
	return string(b.buf[:b.wp])
}
