// Package gcf parses and holds the GCF firmware image container used to
// program Zigbee coprocessor modules.
package gcf

import "encoding/binary"

// PutU32LE appends the little-endian encoding of v to buf.
func PutU32LE(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

// PutU16LE appends the little-endian encoding of v to buf.
func PutU16LE(buf []byte, v uint16) []byte {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	return append(buf, tmp[:]...)
}

// PutU8 appends v to buf.
func PutU8(buf []byte, v uint8) []byte {
	return append(buf, v)
}

// GetU32LE reads a little-endian uint32 from the first 4 bytes of b.
func GetU32LE(b []byte) uint32 {
	return binary.LittleEndian.Uint32(b)
}

// GetU16LE reads a little-endian uint16 from the first 2 bytes of b.
func GetU16LE(b []byte) uint16 {
	return binary.LittleEndian.Uint16(b)
}
