package engine

import (
	"strings"
	"time"

	"github.com/senilio/gcfflasher/internal/gcf"
)

// V3 command bytes, spec §6.3.
const (
	btlMagic           byte = 0x81
	btlIDResponse      byte = 0x82
	fwUpdateResponse   byte = 0x83
	fwDataRequest      byte = 0x04
	fwDataResponseCmd  byte = 0x84
	bootloaderQueryMax int  = 3
)

// stateBootloaderConnect implements spec §4.5 "BootloaderConnect": on its
// entry ACTION and on every TIMEOUT it tries to open the port, retrying
// every 500ms with no inner retry limit. The retry controller is not
// invoked here; instead each failed attempt checks the outer deadline and
// shuts down with errDeadlineExceeded once it has passed.
func stateBootloaderConnect(e *Engine, ev Event, _ []byte) {
	switch ev {
	case EventAction, EventTimeout:
		if err := e.Platform.Connect(e.devicePath); err != nil {
			e.Platform.Printf(LogDebug, "bootloader connect failed: %v", err)
			if !e.Platform.Now().Before(e.maxTime) {
				e.shutdown(errDeadlineExceeded)
				return
			}
			e.Platform.SetTimeout(500 * time.Millisecond)
			return
		}
		e.enterState(StateBootloaderQuery, stateBootloaderQuery)
	}
}

// stateBootloaderQuery implements spec §4.5 "BootloaderQuery": waits for
// an auto-announcing V1 banner or probes with ASCII "ID" up to 3 times,
// routing to V1Sync or V3Sync depending on what arrives.
func stateBootloaderQuery(e *Engine, ev Event, payload []byte) {
	switch ev {
	case EventAction:
		e.retryCount = 0
		e.rx.Reset()
		e.Platform.SetTimeout(200 * time.Millisecond)

	case EventTimeout:
		if e.retryCount < bootloaderQueryMax {
			e.Platform.Write([]byte("ID"))
			e.Platform.SetTimeout(200 * time.Millisecond)
			e.retryCount++
			return
		}
		e.retry()

	case EventRxASCII:
		text := e.rx.String()
		if e.rx.wp > 52 && strings.HasSuffix(text, "\n") && strings.Contains(text, "Bootloader") {
			e.Platform.ClearTimeout()
			e.enterState(StateV1Sync, stateV1Sync)
		}

	case EventRxBtlPkgData:
		if len(payload) >= 10 && payload[1] == btlIDResponse {
			e.btlVersion = gcf.GetU32LE(payload[2:6])
			e.appCRC = gcf.GetU32LE(payload[6:10])
			e.Platform.Printf(LogInfo, "bootloader v3 id: version=0x%08X appCRC=0x%08X", e.btlVersion, e.appCRC)
			e.enterState(StateV3Sync, stateV3Sync)
		}

	case EventDisconnected:
		e.retry()
	}
}

