package engine

import (
	"strings"
	"time"

	"github.com/senilio/gcfflasher/internal/gcf"
)

// v1SyncMagic is the 4-byte magic the client sends to sync with a V1
// bootloader (spec §4.5, §6.3).
var v1SyncMagic = []byte{0x1A, 0x1C, 0xA9, 0xAE}

// v1PageSize is the fixed page size the V1 protocol pulls (spec §4.5
// V1Upload).
const v1PageSize = 256

// stateV1Sync implements spec §4.5 "V1Sync".
func stateV1Sync(e *Engine, ev Event, _ []byte) {
	switch ev {
	case EventAction:
		e.rx.Reset()
		e.Platform.Write(v1SyncMagic)
		e.Platform.SetTimeout(500 * time.Millisecond)

	case EventRxASCII:
		if e.rx.wp > 4 && strings.Contains(e.rx.String(), "READY") {
			e.Platform.ClearTimeout()
			e.enterState(StateV1Header, stateV1Header)
			return
		}
		e.Platform.SetTimeout(10 * time.Millisecond)

	case EventTimeout:
		e.retry()
	}
}

// stateV1Header implements spec §4.5 "V1Header": emits the 10-byte header
// and transitions straight into V1Upload.
func stateV1Header(e *Engine, ev Event, _ []byte) {
	if ev != EventAction {
		return
	}
	e.rx.Reset()

	f := e.file
	header := make([]byte, 0, 10)
	header = gcf.PutU32LE(header, f.PayloadSize)
	header = gcf.PutU32LE(header, f.TargetAddress)
	header = gcf.PutU8(header, f.FileType)
	header = gcf.PutU8(header, f.CRC8)
	e.Platform.Write(header)

	e.enterState(StateV1Upload, stateV1Upload)
}

// stateV1Upload implements spec §4.5 "V1Upload": the bootloader pulls
// pages by sending a 6-byte ASCII request; the client answers with up to
// 256 bytes from the requested page and moves to V1Validate once the
// image is exhausted.
func stateV1Upload(e *Engine, ev Event, _ []byte) {
	switch ev {
	case EventAction:
		e.Platform.SetTimeout(1000 * time.Millisecond)

	case EventRxASCII:
		buf := e.rx.Bytes()
		if len(buf) < 6 || buf[0] != 'G' || buf[5] != ';' {
			return // wait for more bytes
		}
		pageNumber := int(buf[4])<<8 | int(buf[3])

		payload := e.file.Payload
		page := pageNumber * v1PageSize
		end := len(payload)
		if page >= end {
			e.retry()
			return
		}

		remaining := end - page
		size := v1PageSize
		if remaining < size {
			size = remaining
		}

		e.rx.Reset()
		e.Platform.Write(payload[page : page+size])

		if remaining-size == 0 {
			e.enterState(StateV1Validate, stateV1Validate)
			e.Platform.SetTimeout(25600 * time.Millisecond)
			return
		}
		e.Platform.SetTimeout(2000 * time.Millisecond)

	case EventTimeout:
		e.retry()
	}
}

// stateV1Validate implements spec §4.5 "V1Validate": success is detected
// by the ASCII marker "#VALID CRC".
func stateV1Validate(e *Engine, ev Event, _ []byte) {
	switch ev {
	case EventRxASCII:
		if e.rx.wp > 6 && strings.Contains(e.rx.String(), "#VALID CRC") {
			e.shutdown(nil)
			return
		}
		e.Platform.SetTimeout(1000 * time.Millisecond)

	case EventTimeout:
		e.retry()
	}
}
