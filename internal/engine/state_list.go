package engine

// stateListDevices implements spec §4.5 "ListDevices": enumerate, print,
// shut down.
func stateListDevices(e *Engine, ev Event, _ []byte) {
	if ev != EventAction {
		return
	}
	devices := e.Platform.GetDevices()
	for _, d := range devices {
		e.Platform.Printf(LogInfo, "%-20s %-12s %s", d.Name, d.Type, d.Path)
	}
	e.shutdown(nil)
}
