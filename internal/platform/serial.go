// Package platform provides the concrete implementation of engine.Platform:
// the real serial transport, FTDI/GPIO reset fallbacks and device
// enumeration the engine core is deliberately kept ignorant of (spec §6.1,
// §9 "Global singleton" / "Frame-codec upcall").
package platform

import (
	"time"

	"github.com/sirupsen/logrus"
	"go.bug.st/serial"

	"github.com/senilio/gcfflasher/internal/device"
	"github.com/senilio/gcfflasher/internal/engine"
)

// baudRate is the fixed line speed both bootloader dialects and the
// application protocol run at.
const baudRate = 115200

// readChunk bounds a single non-blocking read from the serial port.
const readChunk = 512

// Serial is the production engine.Platform: a real serial.Port plus the
// single-goroutine event pump spec §5 requires ("the caller must serialize
// calls; never issue two concurrently").
type Serial struct {
	port serial.Port

	rxCh  chan []byte
	errCh chan struct{}
	genCh chan uint64 // discards readers from a previous Connect

	generation uint64

	timer *time.Timer
}

// New constructs an idle Serial platform. Call Run to start pumping events
// into e after e has been built with engine.New.
func New() *Serial {
	return &Serial{
		rxCh:  make(chan []byte, 16),
		errCh: make(chan struct{}, 1),
		genCh: make(chan uint64, 1),
	}
}

// Connect implements engine.Platform. It closes any previously open port
// and starts a fresh reader goroutine tagged with a new generation number,
// so a stale reader from a superseded connection can never deliver bytes
// or a disconnect signal for the wrong session.
func (p *Serial) Connect(path string) error {
	p.closePort()
	p.generation++
	gen := p.generation

	port, err := serial.Open(path, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		return err
	}
	if err := port.SetReadTimeout(100 * time.Millisecond); err != nil {
		port.Close()
		return err
	}
	p.port = port

	go p.readLoop(port, gen)
	return nil
}

func (p *Serial) readLoop(port serial.Port, gen uint64) {
	buf := make([]byte, readChunk)
	for {
		n, err := port.Read(buf)
		if p.generation != gen {
			return // superseded by a later Connect/Disconnect
		}
		if err != nil {
			select {
			case p.errCh <- struct{}{}:
			default:
			}
			return
		}
		if n == 0 {
			continue // read timeout, not a disconnect
		}
		cp := make([]byte, n)
		copy(cp, buf[:n])
		p.rxCh <- cp
	}
}

// Disconnect implements engine.Platform.
func (p *Serial) Disconnect() {
	p.closePort()
}

func (p *Serial) closePort() {
	if p.port == nil {
		return
	}
	p.generation++ // orphan the running reader before it can race a reopen
	p.port.Close()
	p.port = nil
}

// Write implements engine.Platform.
func (p *Serial) Write(data []byte) {
	if p.port == nil {
		return
	}
	if _, err := p.port.Write(data); err != nil {
		logrus.Warnf("serial write failed: %v", err)
	}
}

// SetTimeout implements engine.Platform. Spec §9 "Timeouts as state": only
// one timer is ever live, so arming a new one implicitly cancels the last.
func (p *Serial) SetTimeout(d time.Duration) {
	if p.timer != nil {
		p.timer.Stop()
	}
	p.timer = time.NewTimer(d)
}

// ClearTimeout implements engine.Platform.
func (p *Serial) ClearTimeout() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

// Sleep implements engine.Platform.
func (p *Serial) Sleep(d time.Duration) {
	time.Sleep(d)
}

// Now implements engine.Platform.
func (p *Serial) Now() time.Time {
	return time.Now()
}

// GetDevices implements engine.Platform.
func (p *Serial) GetDevices() []device.Info {
	return EnumerateDevices()
}

// ResetFTDI implements engine.Platform.
func (p *Serial) ResetFTDI() error {
	return ResetFTDI()
}

// ResetRaspBee implements engine.Platform.
func (p *Serial) ResetRaspBee() error {
	return ResetRaspBee()
}

// Printf implements engine.Platform, mapping the engine's level to logrus
// exactly as cli.preRun configures it.
func (p *Serial) Printf(level engine.LogLevel, format string, args ...interface{}) {
	switch level {
	case engine.LogDebug:
		logrus.Debugf(format, args...)
	case engine.LogWarn:
		logrus.Warnf(format, args...)
	case engine.LogError:
		logrus.Errorf(format, args...)
	default:
		logrus.Infof(format, args...)
	}
}

// ShutDown implements engine.Platform: release the port so the process can
// exit cleanly.
func (p *Serial) ShutDown(err error) {
	p.closePort()
	p.ClearTimeout()
}

// Run pumps events into e until it reports Done. It is the single goroutine
// spec §5 requires to serialize Dispatch/OnBytes calls; e.Run must not have
// been called yet.
func (p *Serial) Run(e *engine.Engine) error {
	e.Run()
	for !e.Done() {
		var timerC <-chan time.Time
		if p.timer != nil {
			timerC = p.timer.C
		}
		select {
		case data := <-p.rxCh:
			e.OnBytes(data)
		case <-p.errCh:
			e.Dispatch(engine.EventDisconnected, nil)
		case <-timerC:
			p.timer = nil
			e.Dispatch(engine.EventTimeout, nil)
		}
	}
	return e.Err()
}
