package engine

import (
	"time"

	"github.com/senilio/gcfflasher/internal/device"
	"github.com/senilio/gcfflasher/internal/frame"
	"github.com/senilio/gcfflasher/internal/gcf"
)

// frameSend is a thin alias kept local to the engine package so state
// files read as "the engine frames and sends", matching spec vocabulary.
func frameSend(payload []byte) []byte {
	return frame.Send(payload)
}

// appWriteParam is the write-parameter application-protocol command
// (0x0B, spec §6.4). The parameter id sits at payload offset 7 so it
// lines up with where classifyPacket inspects the device's response
// (spec §4.1: "if the parameter byte (offset 7) equals 0x26").
const appWriteParam byte = 0x0B

// watchdogParamID identifies the watchdog-timeout parameter (spec §6.4,
// §4.5, glossary "watchdog reset").
const watchdogParamID byte = 0x26

// watchdogAppFrame builds the write-watchdog-timeout application-protocol
// frame: a write-parameter command with a 2-second timeout value.
// Provoking this write is what makes the radio reboot into its
// bootloader.
func watchdogAppFrame() []byte {
	req := make([]byte, 0, 10)
	req = append(req, appWriteParam, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, watchdogParamID)
	req = gcf.PutU16LE(req, 2000)
	return req
}

// queryFWVersionAppFrame builds the read-firmware-version application
// frame (spec §6.4, command 0x0D).
func queryFWVersionAppFrame() []byte {
	return []byte{0x0D}
}

// stateReset implements the compound "Reset" state of spec §4.5: on entry
// it enters ResetUart; UART_RESET_FAILED branches by device type to the
// FTDI or RaspBee fallback (or pretends success for unknown devices); any
// *_RESET_SUCCESS either shuts down (task Reset) or hands off to Program
// (task Program).
func stateReset(e *Engine, ev Event, payload []byte) {
	switch ev {
	case EventAction:
		e.enterSubstate(SubResetUart, resetUartSubstate)

	case EventUartResetFailed:
		switch e.deviceType {
		case device.ConBee1:
			e.enterSubstate(SubResetFtdi, resetFtdiSubstate)
		case device.RaspBee1, device.RaspBee2:
			e.enterSubstate(SubResetRaspBee, resetRaspBeeSubstate)
		default:
			// Pretend success: nothing more we know how to try.
			e.Platform.SetTimeout(500 * time.Millisecond)
			e.onResetSuccess()
		}

	case EventUartResetSuccess, EventFtdiResetSuccess, EventRaspbeeResetSuccess:
		e.onResetSuccess()

	case EventPkgUartReset, EventDisconnected, EventTimeout:
		// Routed to the active substate below.
		resetSubstateDispatch(e, ev, payload)
	}
}

// resetSubstateDispatch routes events the substates themselves react to.
func resetSubstateDispatch(e *Engine, ev Event, payload []byte) {
	switch e.substateID {
	case SubResetUart:
		resetUartSubstate(e, ev, payload)
	case SubResetFtdi:
		resetFtdiSubstate(e, ev, payload)
	case SubResetRaspBee:
		resetRaspBeeSubstate(e, ev, payload)
	}
}

// onResetSuccess implements the Reset-level branch shared by all three
// success events: shut down for a bare Reset task, or hand a synthetic
// RESET_SUCCESS to Program.
func (e *Engine) onResetSuccess() {
	switch e.Config.Task {
	case TaskReset:
		e.shutdown(nil)
	case TaskProgram:
		// Hand off directly to Program with a synthetic RESET_SUCCESS:
		// the currently active handler is still stateReset, so routing
		// this through Dispatch would deliver RESET_SUCCESS to the state
		// we are leaving rather than the one we are entering.
		e.setState(StateProgram, stateProgram)
		stateProgram(e, EventResetSuccess, nil)
	default:
		e.shutdown(errUnexpectedTask)
	}
}

// resetUartSubstate implements spec §4.5 "ResetUart": provoke a watchdog
// reset over the application protocol and wait for the radio to reboot.
func resetUartSubstate(e *Engine, ev Event, _ []byte) {
	switch ev {
	case EventAction:
		e.Platform.SetTimeout(3000 * time.Millisecond)
		if err := e.Platform.Connect(e.devicePath); err != nil {
			e.Platform.Printf(LogWarn, "reset: connect failed: %v", err)
		}
		e.Platform.Write(frameSend(queryFWVersionAppFrame()))
		e.Platform.Write(frameSend(watchdogAppFrame()))

	case EventPkgUartReset:
		e.Platform.Printf(LogInfo, "watchdog write acknowledged, waiting for reboot")

	case EventDisconnected:
		e.Platform.SetTimeout(500 * time.Millisecond)
		e.Dispatch(EventUartResetSuccess, nil)

	case EventTimeout:
		e.Platform.Disconnect()
		e.Dispatch(EventUartResetFailed, nil)
	}
}

// resetFtdiSubstate implements spec §4.5 "ResetFtdi": FTDI bitbang
// fallback for ConBee-1. Pretends success on failure, matching the
// source's "nothing left to try" policy.
func resetFtdiSubstate(e *Engine, ev Event, _ []byte) {
	if ev != EventAction {
		return
	}
	if err := e.Platform.ResetFTDI(); err != nil {
		e.Platform.Printf(LogWarn, "ftdi reset failed: %v", err)
		e.Platform.SetTimeout(1 * time.Millisecond)
		e.onResetSuccess()
		return
	}
	e.Platform.SetTimeout(1 * time.Millisecond)
	e.Dispatch(EventFtdiResetSuccess, nil)
}

// resetRaspBeeSubstate implements spec §4.5 "ResetRaspBee": GPIO reset
// fallback for RaspBee-1/2. Same pretend-success policy as FTDI.
func resetRaspBeeSubstate(e *Engine, ev Event, _ []byte) {
	if ev != EventAction {
		return
	}
	if err := e.Platform.ResetRaspBee(); err != nil {
		e.Platform.Printf(LogWarn, "raspbee gpio reset failed: %v", err)
		e.Platform.SetTimeout(1 * time.Millisecond)
		e.onResetSuccess()
		return
	}
	e.Platform.SetTimeout(1 * time.Millisecond)
	e.Dispatch(EventRaspbeeResetSuccess, nil)
}
