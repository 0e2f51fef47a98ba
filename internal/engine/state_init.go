package engine

import "github.com/senilio/gcfflasher/internal/device"

// stateInit implements spec §4.5 "Init". On PL_STARTED or TIMEOUT it
// re-validates Config; a failure shuts the process down, otherwise it
// (re-)classifies the device type, applies the RaspBee-2 promotion
// (invariant 7, spec §8) and dispatches the task-selected state via a
// synchronous ACTION.
func stateInit(e *Engine, ev Event, _ []byte) {
	switch ev {
	case EventPLStarted, EventTimeout:
		if err := e.Config.Validate(); err != nil {
			e.shutdown(err)
			return
		}
		e.devicePath = e.Config.DevicePath
		e.deviceType = device.Classify(e.devicePath)
		if e.file != nil {
			e.deviceType = device.PromoteRaspBee2(e.deviceType, e.file.PlatformIsR21())
		}
		e.dispatchTask()
	}
}

// dispatchTask enters the state that corresponds to Config.Task.
func (e *Engine) dispatchTask() {
	switch e.Config.Task {
	case TaskReset:
		e.enterState(StateReset, stateReset)
	case TaskProgram:
		e.enterState(StateProgram, stateProgram)
	case TaskConnect:
		e.enterState(StateConnect, stateConnect)
	case TaskList:
		e.enterState(StateListDevices, stateListDevices)
	default:
		e.shutdown(errUnexpectedTask)
	}
}
