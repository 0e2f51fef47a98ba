package engine

import (
	"time"

	"github.com/senilio/gcfflasher/internal/gcf"
)

// crc32Placeholder is transmitted in place of a real CRC32 in
// FW_UPDATE_REQUEST; the bootloader ignores it (spec §9 open question 2).
var crc32Placeholder = []byte{0xAA, 0xAA, 0xAA, 0xAA}

// v3ScratchCapacity and v3ScratchHeadroom bound the buffer V3Upload
// composes FW_DATA_RESPONSE frames in. The 512-byte rx_ascii_buffer of
// spec §3 is sized for the V1 ASCII protocol only; V3's own chunk size
// (exercised by spec §8 scenario S1's 1024-byte pages) needs more room,
// so V3Upload uses a separate, larger scratch buffer rather than
// literally reusing the ASCII accumulator — see DESIGN.md.
const (
	v3ScratchCapacity = 2048
	v3ScratchHeadroom = 32
)

// stateV3Sync implements spec §4.5 "V3Sync": sends the FW_UPDATE_REQUEST
// and waits for a success response before moving to V3Upload.
func stateV3Sync(e *Engine, ev Event, payload []byte) {
	switch ev {
	case EventAction:
		e.Platform.Sleep(50 * time.Millisecond)
		e.Platform.SetTimeout(1000 * time.Millisecond)

		f := e.file
		req := make([]byte, 0, 15)
		req = append(req, btlMagic, 0x03)
		req = gcf.PutU32LE(req, f.PayloadSize)
		req = gcf.PutU32LE(req, f.TargetAddress)
		req = gcf.PutU8(req, f.FileType)
		req = append(req, crc32Placeholder...)
		e.Platform.Write(frameSend(req))

	case EventRxBtlPkgData:
		if len(payload) >= 3 && payload[1] == fwUpdateResponse {
			if payload[2] == 0x00 {
				e.enterState(StateV3Upload, stateV3Upload)
				e.Platform.SetTimeout(1000 * time.Millisecond)
				return
			}
			e.Platform.Printf(LogWarn, "fw update request rejected: status=%d", payload[2])
			e.retry()
		}

	case EventTimeout:
		e.retry()
	}
}

// stateV3Upload implements spec §4.5 "V3Upload": serves FW_DATA_REQUEST
// packets, composing each FW_DATA_RESPONSE in a scratch buffer sized for
// the V3 chunk protocol (spec §9 "shared rx buffer dual-use").
func stateV3Upload(e *Engine, ev Event, payload []byte) {
	switch ev {
	case EventRxBtlPkgData:
		if len(payload) != 8 || payload[1] != fwDataRequest {
			return
		}
		offset := gcf.GetU32LE(payload[2:6])
		length := gcf.GetU16LE(payload[6:8])
		e.Platform.SetTimeout(5000 * time.Millisecond)
		e.sendFWDataResponse(offset, length)

	case EventTimeout:
		e.retry()
	}
}

// sendFWDataResponse computes the status byte of spec §4.5 V3Upload and
// composes the FW_DATA_RESPONSE frame, trimming length to what is
// actually available when status==0 (invariant 5, spec §8).
func (e *Engine) sendFWDataResponse(offset uint32, length uint16) {
	payloadSize := e.file.PayloadSize

	var status uint8
	switch {
	case uint64(offset)+uint64(length) > uint64(payloadSize):
		status = 1
	case int(length) > v3ScratchCapacity-v3ScratchHeadroom:
		status = 2
	case length == 0:
		status = 3
	default:
		status = 0
		if remaining := payloadSize - offset; uint32(length) > remaining {
			length = uint16(remaining)
		}
	}

	buf := make([]byte, 0, v3ScratchCapacity)
	buf = append(buf, btlMagic, fwDataResponseCmd, status)
	buf = gcf.PutU32LE(buf, offset)
	buf = gcf.PutU16LE(buf, length)
	if status == 0 {
		buf = append(buf, e.file.Payload[offset:offset+uint32(length)]...)
	}

	e.Platform.Write(frameSend(buf))
}
