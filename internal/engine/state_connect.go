package engine

import "time"

// deviceStatusQuery is the application-protocol device-state query (spec
// §6.4, command 0x07).
var deviceStatusQuery = []byte{0x07}

// stateConnect implements spec §4.5 "Connect": a diagnostic task that
// opens the port and, on success, enters Connected.
func stateConnect(e *Engine, ev Event, _ []byte) {
	switch ev {
	case EventAction:
		if err := e.Platform.Connect(e.devicePath); err != nil {
			e.Platform.Printf(LogError, "connect failed: %v", err)
			e.shutdown(err)
			return
		}
		e.enterState(StateConnected, stateConnected)
	}
}

// stateConnected implements spec §4.5 "Connected": periodically queries
// device status and returns to Init on disconnect.
func stateConnected(e *Engine, ev Event, _ []byte) {
	switch ev {
	case EventAction:
		e.Platform.SetTimeout(1000 * time.Millisecond)

	case EventTimeout:
		e.Platform.Write(frameSend(deviceStatusQuery))
		e.Platform.SetTimeout(10 * time.Second)

	case EventDisconnected:
		e.Platform.SetTimeout(1 * time.Second)
		e.setState(StateInit, stateInit)
	}
}
