package engine

// stateProgram implements spec §4.5 "Program". On entry it enters Reset;
// a successful reset moves on to BootloaderConnect, a failed one shuts
// down.
func stateProgram(e *Engine, ev Event, _ []byte) {
	switch ev {
	case EventAction:
		e.Platform.Printf(LogInfo, "resetting %s before programming", e.deviceType)
		e.enterState(StateReset, stateReset)

	case EventResetSuccess:
		e.enterState(StateBootloaderConnect, stateBootloaderConnect)

	case EventResetFailed:
		e.shutdown(errResetFailed)
	}
}
