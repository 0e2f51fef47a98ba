package engine

import (
	"time"

	"github.com/senilio/gcfflasher/internal/device"
	"github.com/senilio/gcfflasher/internal/frame"
	"github.com/senilio/gcfflasher/internal/gcf"
)

// stateFunc is one per-state reaction, bound to the Engine that owns it.
// EventAction is delivered synchronously by enterState to run a state's
// on-entry logic; every other Event is delivered by Dispatch as the
// platform reports it.
type stateFunc func(e *Engine, ev Event, payload []byte)

// Engine is the single per-process state machine instance described by
// spec §3 ("Engine state object"). One process runs exactly one flash job;
// New/Run make that lifetime explicit instead of relying on a process-wide
// singleton (spec §9 "Global singleton").
type Engine struct {
	Platform Platform
	Config   Config

	stateID    StateID
	stateFn    stateFunc
	substateID SubstateID

	retryCount int

	startTime time.Time
	maxTime   time.Time

	deviceType device.Type
	devicePath string

	rx      rxBuffer
	frameRx frame.Receiver

	file *gcf.File

	// btlVersion/appCRC hold the BTL_ID_RESPONSE fields (spec §4.5
	// BootloaderQuery) for logging; the protocol itself does not gate on
	// them beyond routing to V3Sync.
	btlVersion uint32
	appCRC     uint32

	done bool
	err  error
}

// New constructs an Engine bound to platform pf with the given
// already-validated Config. It performs no I/O; Run starts the event loop.
func New(pf Platform, cfg Config) *Engine {
	e := &Engine{
		Platform:   pf,
		Config:     cfg,
		devicePath: cfg.DevicePath,
	}
	if cfg.File != nil {
		e.file = cfg.File
	}
	e.frameRx.Reset()
	return e
}

// Err returns the terminal error, if any, after the engine has shut down.
func (e *Engine) Err() error {
	return e.err
}

// Done reports whether the engine has reached a terminal state.
func (e *Engine) Done() bool {
	return e.done
}

// Run seeds the deadline and delivers the initial PL_STARTED event,
// entering Init. Callers (the concrete platform's event pump) must
// continue delivering events via Dispatch/OnBytes until Done reports true.
func (e *Engine) Run() {
	e.startTime = e.Platform.Now()
	deadline := e.Config.Deadline
	if deadline <= 0 {
		deadline = 10 * time.Second
	}
	e.maxTime = e.startTime.Add(deadline)
	e.setState(StateInit, stateInit)
	e.Dispatch(EventPLStarted, nil)
}

// Dispatch delivers ev (with optional payload) to the current top-level
// state handler. It is the only entry point external drivers use besides
// OnBytes; spec §5 requires the caller to serialize calls (never issue two
// concurrently).
func (e *Engine) Dispatch(ev Event, payload []byte) {
	if e.done {
		return
	}
	e.Platform.Printf(LogDebug, "state=%s substate=%s event=%s", e.stateID, e.substateID, ev)
	e.stateFn(e, ev, payload)
}

// setState switches the active handler without running its entry logic.
// Used by the retry controller, which schedules a timeout instead of
// re-entering synchronously (spec §4.7).
func (e *Engine) setState(id StateID, fn stateFunc) {
	e.stateID = id
	e.stateFn = fn
}

// enterState switches the active handler and immediately runs its
// on-entry logic via a synchronous EventAction, matching spec §4.5's
// state-entry actions and the "at most one synchronous ACTION per
// transition" rule of spec §5.
func (e *Engine) enterState(id StateID, fn stateFunc) {
	e.setState(id, fn)
	fn(e, EventAction, nil)
}

// enterSubstate switches the Reset substate and runs its entry action.
func (e *Engine) enterSubstate(id SubstateID, fn stateFunc) {
	e.substateID = id
	fn(e, EventAction, nil)
}

// shutdown terminates the run. err is nil on success.
func (e *Engine) shutdown(err error) {
	if e.done {
		return
	}
	e.done = true
	e.err = err
	if err != nil {
		e.Platform.Printf(LogError, "shutting down: %v", err)
	} else {
		e.Platform.Printf(LogInfo, "shutting down: success")
	}
	e.Platform.ShutDown(err)
}

// classifyPacket implements the frame codec upcall of spec §4.1: it turns
// a completed, CRC-valid frame payload into an Event.
func (e *Engine) classifyPacket(payload []byte) {
	switch {
	case len(payload) >= 8 && payload[0] == appWriteParam:
		// Application-protocol write-parameter response.
		if payload[7] == watchdogParamID {
			e.Dispatch(EventPkgUartReset, payload)
		}
	case len(payload) >= 1 && payload[0] == btlMagic:
		e.rx.SetBinary(payload)
		e.Dispatch(EventRxBtlPkgData, payload)
	default:
		e.Platform.Printf(LogDebug, "discarding unrecognized packet: % x", payload)
	}
}
