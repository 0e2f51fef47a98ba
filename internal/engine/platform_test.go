package engine

import (
	"time"

	"github.com/senilio/gcfflasher/internal/device"
)

// fakePlatform is a deterministic, in-memory Platform used to drive the
// state machine's logic independent of real hardware, matching spec §9's
// note that the platform is an external collaborator the engine tests
// should not need for real I/O.
type fakePlatform struct {
	now time.Time

	connected   bool
	connectErr  error
	disconnects int

	written [][]byte

	timeoutSet bool
	timeoutAt  time.Time
	timeoutDur time.Duration

	devices []device.Info

	ftdiErr    error
	raspbeeErr error

	shutDown    bool
	shutDownErr error

	sleeps []time.Duration
	logs   []string
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{now: time.Unix(0, 0)}
}

func (p *fakePlatform) Connect(path string) error {
	if p.connectErr != nil {
		return p.connectErr
	}
	p.connected = true
	return nil
}

func (p *fakePlatform) Disconnect() {
	p.connected = false
	p.disconnects++
}

func (p *fakePlatform) Write(data []byte) {
	cp := make([]byte, len(data))
	copy(cp, data)
	p.written = append(p.written, cp)
}

func (p *fakePlatform) SetTimeout(d time.Duration) {
	p.timeoutSet = true
	p.timeoutDur = d
	p.timeoutAt = p.now.Add(d)
}

func (p *fakePlatform) ClearTimeout() {
	p.timeoutSet = false
}

func (p *fakePlatform) Sleep(d time.Duration) {
	p.sleeps = append(p.sleeps, d)
	p.now = p.now.Add(d)
}

func (p *fakePlatform) Now() time.Time {
	return p.now
}

func (p *fakePlatform) GetDevices() []device.Info {
	return p.devices
}

func (p *fakePlatform) ResetFTDI() error {
	return p.ftdiErr
}

func (p *fakePlatform) ResetRaspBee() error {
	return p.raspbeeErr
}

func (p *fakePlatform) Printf(level LogLevel, format string, args ...interface{}) {
	p.logs = append(p.logs, format)
}

func (p *fakePlatform) ShutDown(err error) {
	p.shutDown = true
	p.shutDownErr = err
}

// advance moves the fake clock forward and, if a timer is armed and would
// have fired, delivers EventTimeout to e.
func (p *fakePlatform) advance(e *Engine, d time.Duration) {
	p.now = p.now.Add(d)
	if p.timeoutSet && !p.now.Before(p.timeoutAt) {
		p.timeoutSet = false
		e.Dispatch(EventTimeout, nil)
	}
}

// fireTimeout delivers EventTimeout immediately, as if the armed timer
// fired right now, and jumps the clock to that point.
func (p *fakePlatform) fireTimeout(e *Engine) {
	if !p.timeoutSet {
		return
	}
	p.now = p.timeoutAt
	p.timeoutSet = false
	e.Dispatch(EventTimeout, nil)
}

// lastWritten returns the most recently written buffer, or nil.
func (p *fakePlatform) lastWritten() []byte {
	if len(p.written) == 0 {
		return nil
	}
	return p.written[len(p.written)-1]
}
