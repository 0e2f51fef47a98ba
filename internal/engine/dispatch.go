package engine

// asciiStates is the membership set of spec §3's invariant (i): the rx
// buffer accumulates ASCII text while the engine is in one of these
// states, and is binary-frame scratch otherwise.
var asciiStates = map[StateID]bool{
	StateBootloaderQuery: true,
	StateV1Sync:          true,
	StateV1Header:        true,
	StateV1Upload:        true,
	StateV1Validate:      true,
}

// isASCIIState reports whether the current state consumes ASCII (spec
// §4.6).
func (e *Engine) isASCIIState() bool {
	return asciiStates[e.stateID]
}

// OnBytes is the receive dispatcher of spec §4.6. Every byte the platform
// reads from the serial port is routed here. If the current state
// consumes ASCII, the bytes are appended to the accumulator and a single
// RX_ASCII event is dispatched for the whole arrival; the same bytes are
// then unconditionally fed to the frame codec, which emits its own
// classified events through classifyPacket.
func (e *Engine) OnBytes(data []byte) {
	if e.done || len(data) == 0 {
		return
	}
	if e.isASCIIState() {
		if overflowed := e.rx.AppendASCII(data); overflowed {
			e.Platform.Printf(LogWarn, "rx ascii buffer overflow, resetting")
		}
		e.Dispatch(EventRxASCII, nil)
	}
	e.frameRx.Feed(data, e.classifyPacket)
}
