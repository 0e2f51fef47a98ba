package engine

import (
	"time"

	"github.com/senilio/gcfflasher/internal/device"
)

// Platform is the set of side effects the engine issues and the external
// collaborators spec §1 and §6.1 place out of the core's scope: device
// enumeration, serial open/close, GPIO/FTDI reset, file I/O, timer
// scheduling, logging and process shutdown. The engine never touches a
// serial port, timer or GPIO line directly; it only calls this interface
// and reacts to the Events the platform later delivers back via Dispatch
// and OnBytes.
type Platform interface {
	// Connect opens the serial port at path. Once it has succeeded, the
	// platform must later deliver EventDisconnected when the port drops.
	Connect(path string) error
	// Disconnect closes the serial port. It does not itself synthesize
	// EventDisconnected; forced disconnects observed from the wire do.
	Disconnect()
	// Write sends unframed bytes to the serial port.
	Write(data []byte)
	// SetTimeout arms the single active timer, implicitly cancelling any
	// timer set previously. Firing delivers EventTimeout.
	SetTimeout(d time.Duration)
	// ClearTimeout cancels the active timer, if any, without firing it.
	ClearTimeout()
	// Sleep blocks the calling goroutine synchronously.
	Sleep(d time.Duration)
	// Now returns a monotonic wall-clock reading used for deadline math.
	Now() time.Time
	// GetDevices enumerates candidate devices.
	GetDevices() []device.Info
	// ResetFTDI drives the ConBee-1 FTDI chip's bitbang reset fallback.
	ResetFTDI() error
	// ResetRaspBee toggles the RaspBee GPIO reset line.
	ResetRaspBee() error
	// Printf logs a formatted message at the given level.
	Printf(level LogLevel, format string, args ...interface{})
	// ShutDown terminates the platform's event loop. err is nil on
	// success.
	ShutDown(err error)
}
