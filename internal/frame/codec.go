// Package frame implements the byte-stuffed, CRC-protected framing used on
// the wire both for the binary V3 bootloader protocol and for the
// application protocol exchanged with running firmware (spec §4.1, §6.3,
// §6.4). Framing is SLIP-style: a flag byte delimits frames and is escaped
// inside the payload, the same shape as other_examples/sparques-hdlc's
// wire codec, but with a 16-bit CRC to match the two CRC bytes spec §4.1
// describes.
package frame

const (
	flag   byte = 0x7E
	esc    byte = 0x7D
	escXor byte = 0x20
)

var crc16Table [256]uint16

func init() {
	const poly = 0x8408 // CRC-16/CCITT, reflected polynomial
	for i := 0; i < 256; i++ {
		crc := uint16(i)
		for b := 0; b < 8; b++ {
			if crc&1 != 0 {
				crc = (crc >> 1) ^ poly
			} else {
				crc >>= 1
			}
		}
		crc16Table[i] = crc
	}
}

// CRC16 computes the CRC-16/CCITT (reflected) checksum used to protect
// framed payloads.
func CRC16(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		crc = (crc >> 8) ^ crc16Table[byte(crc)^b]
	}
	return crc
}

func stuff(in []byte) []byte {
	out := make([]byte, 0, len(in)+4)
	for _, b := range in {
		if b == flag || b == esc {
			out = append(out, esc, b^escXor)
		} else {
			out = append(out, b)
		}
	}
	return out
}

// Send builds a complete on-wire frame for payload: appends its CRC-16
// (little-endian), byte-stuffs the result, and wraps it in flag bytes.
func Send(payload []byte) []byte {
	withCRC := make([]byte, 0, len(payload)+2)
	withCRC = append(withCRC, payload...)
	crc := CRC16(payload)
	withCRC = append(withCRC, byte(crc), byte(crc>>8))

	stuffed := stuff(withCRC)

	out := make([]byte, 0, len(stuffed)+2)
	out = append(out, flag)
	out = append(out, stuffed...)
	out = append(out, flag)
	return out
}

// Receiver is a streaming consumer of framed bytes. It resynchronizes on
// flag boundaries and never blocks: Feed accepts however many bytes are
// available and invokes onPacket once per completed, well-formed frame.
// Malformed frames (bad CRC, too short) are silently dropped.
type Receiver struct {
	inFrame bool
	escaped bool
	buf     []byte
}

// Reset clears any partially-received frame. The engine resets this once
// at construction and never again — the codec must tolerate resync from
// any position in the stream (spec §3).
func (r *Receiver) Reset() {
	r.inFrame = false
	r.escaped = false
	r.buf = r.buf[:0]
}

// Feed consumes data and calls onPacket(payload) once for every complete
// frame found. onPacket must not retain payload's backing array.
func (r *Receiver) Feed(data []byte, onPacket func(payload []byte)) {
	for _, b := range data {
		switch {
		case b == flag:
			if r.inFrame && len(r.buf) > 0 {
				if payload, ok := unwrap(r.buf); ok {
					onPacket(payload)
				}
			}
			r.inFrame = true
			r.escaped = false
			r.buf = r.buf[:0]

		case !r.inFrame:
			// Not synchronized yet; ignore bytes until the next flag.

		case r.escaped:
			r.buf = append(r.buf, b^escXor)
			r.escaped = false

		case b == esc:
			r.escaped = true

		default:
			r.buf = append(r.buf, b)
		}
	}
}

// unwrap validates and strips the trailing CRC-16 from a de-stuffed frame
// body, returning the payload and whether the CRC matched.
func unwrap(body []byte) ([]byte, bool) {
	if len(body) < 2 {
		return nil, false
	}
	payload := body[:len(body)-2]
	want := uint16(body[len(body)-2]) | uint16(body[len(body)-1])<<8
	return payload, CRC16(payload) == want
}
