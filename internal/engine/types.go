package engine

import (
	"time"

	"github.com/senilio/gcfflasher/internal/gcf"
)

// Task selects which top-level job the engine performs (spec §3, task field).
type Task int

const (
	TaskNone Task = iota
	TaskReset
	TaskProgram
	TaskList
	TaskConnect
	TaskHelp
)

func (t Task) String() string {
	switch t {
	case TaskReset:
		return "reset"
	case TaskProgram:
		return "program"
	case TaskList:
		return "list"
	case TaskConnect:
		return "connect"
	case TaskHelp:
		return "help"
	default:
		return "none"
	}
}

// StateID tags the current top-level state (spec §4.5). It exists alongside
// the stateFunc dispatch table so the receive dispatcher (§4.6) can test
// state membership cheaply and explicitly, without comparing function
// values, and so log lines can name the state — see DESIGN.md.
type StateID int

const (
	StateVoid StateID = iota
	StateInit
	StateReset
	StateProgram
	StateBootloaderConnect
	StateBootloaderQuery
	StateV1Sync
	StateV1Header
	StateV1Upload
	StateV1Validate
	StateV3Sync
	StateV3Upload
	StateConnect
	StateConnected
	StateListDevices
)

func (s StateID) String() string {
	switch s {
	case StateInit:
		return "Init"
	case StateReset:
		return "Reset"
	case StateProgram:
		return "Program"
	case StateBootloaderConnect:
		return "BootloaderConnect"
	case StateBootloaderQuery:
		return "BootloaderQuery"
	case StateV1Sync:
		return "V1Sync"
	case StateV1Header:
		return "V1Header"
	case StateV1Upload:
		return "V1Upload"
	case StateV1Validate:
		return "V1Validate"
	case StateV3Sync:
		return "V3Sync"
	case StateV3Upload:
		return "V3Upload"
	case StateConnect:
		return "Connect"
	case StateConnected:
		return "Connected"
	case StateListDevices:
		return "ListDevices"
	default:
		return "Void"
	}
}

// SubstateID tags the orthogonal reset substate (spec §4.5, "Reset
// (compound...)").
type SubstateID int

const (
	SubVoid SubstateID = iota
	SubResetUart
	SubResetFtdi
	SubResetRaspBee
)

func (s SubstateID) String() string {
	switch s {
	case SubResetUart:
		return "ResetUart"
	case SubResetFtdi:
		return "ResetFtdi"
	case SubResetRaspBee:
		return "ResetRaspBee"
	default:
		return "Void"
	}
}

// LogLevel mirrors the levels the platform's Printf accepts (spec §6.1
// "print(level, fmt, ...)"). The concrete platform maps these onto its own
// logging library.
type LogLevel int

const (
	LogDebug LogLevel = iota
	LogInfo
	LogWarn
	LogError
)

// Config is the immutable, already-validated command-line configuration the
// engine was constructed with. Init's reaction to PL_STARTED/TIMEOUT
// re-validates it on every retry (spec §4.5 "parse command line... which is
// idempotent") rather than re-reading argv, since that parsing already
// happened once in the cli package before the engine started.
type Config struct {
	Task       Task
	DevicePath string
	File       *gcf.File
	Deadline   time.Duration
}

// Validate re-checks the invariants Init depends on. It is safe to call
// repeatedly (idempotent), matching the source's re-parse-on-retry design.
func (c Config) Validate() error {
	switch c.Task {
	case TaskProgram:
		if c.DevicePath == "" {
			return errDeviceRequired
		}
		if c.File == nil {
			return errFirmwareRequired
		}
	case TaskReset, TaskConnect:
		if c.DevicePath == "" {
			return errDeviceRequired
		}
	case TaskList, TaskHelp, TaskNone:
	}
	return nil
}
