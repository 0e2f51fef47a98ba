package platform

import (
	"fmt"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// No GPIO library appears anywhere in the retrieval pack (see DESIGN.md),
// so the RaspBee reset line is toggled directly through the Linux GPIO
// character device ioctl ABI (linux/gpio.h), using only the standard
// library's syscall support via golang.org/x/sys/unix.

const (
	raspBeeGPIOChip = "/dev/gpiochip0"
	raspBeeResetPin = 17 // BCM17, the RaspBee reset line on the standard HAT wiring

	gpioMaxNameSize = 32

	gpiohandleRequestIoctl    = 0xc16cb403 // GPIO_GET_LINEHANDLE_IOCTL
	gpiohandleSetLineValues   = 0xc040b409 // GPIOHANDLE_SET_LINE_VALUES_IOCTL
	gpiohandleRequestOutput   = 0x2        // GPIOHANDLE_REQUEST_OUTPUT
)

// gpiohandleRequest mirrors struct gpiohandle_request from linux/gpio.h for
// a single-line request.
type gpiohandleRequest struct {
	lineOffsets   [64]uint32
	flags         uint32
	defaultValues [64]uint8
	consumerLabel [gpioMaxNameSize]byte
	lines         uint32
	fd            int32
}

// gpiohandleData mirrors struct gpiohandle_data.
type gpiohandleData struct {
	values [64]uint8
}

// ResetRaspBee implements the RaspBee reset fallback of spec §4.5
// "ResetRaspBee": request the reset line as an output, drive it low, wait,
// then drive it high again.
func ResetRaspBee() error {
	chip, err := unix.Open(raspBeeGPIOChip, unix.O_RDONLY, 0)
	if err != nil {
		return fmt.Errorf("gpio: open %s: %w", raspBeeGPIOChip, err)
	}
	defer unix.Close(chip)

	req := gpiohandleRequest{
		flags: gpiohandleRequestOutput,
		lines: 1,
	}
	req.lineOffsets[0] = raspBeeResetPin
	req.defaultValues[0] = 1
	copy(req.consumerLabel[:], "gcfflasher")

	if err := ioctl(uintptr(chip), gpiohandleRequestIoctl, uintptr(unsafe.Pointer(&req))); err != nil {
		return fmt.Errorf("gpio: line handle request: %w", err)
	}
	lineFD := int(req.fd)
	defer unix.Close(lineFD)

	low := gpiohandleData{}
	low.values[0] = 0
	if err := ioctl(uintptr(lineFD), gpiohandleSetLineValues, uintptr(unsafe.Pointer(&low))); err != nil {
		return fmt.Errorf("gpio: drive reset low: %w", err)
	}

	time.Sleep(100 * time.Millisecond)

	high := gpiohandleData{}
	high.values[0] = 1
	if err := ioctl(uintptr(lineFD), gpiohandleSetLineValues, uintptr(unsafe.Pointer(&high))); err != nil {
		return fmt.Errorf("gpio: release reset: %w", err)
	}
	return nil
}

func ioctl(fd, request, arg uintptr) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, request, arg)
	if errno != 0 {
		return errno
	}
	return nil
}
