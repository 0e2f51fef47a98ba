package engine

import "errors"

var (
	errDeviceRequired   = errors.New("engine: device path is required for this task")
	errFirmwareRequired = errors.New("engine: firmware file is required for programming")
	errDeadlineExceeded = errors.New("engine: deadline exceeded before completion")
	errUnexpectedTask   = errors.New("engine: unexpected task for this state")
	errResetFailed      = errors.New("engine: reset failed")
)
