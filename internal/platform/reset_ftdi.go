package platform

import (
	"fmt"
	"time"

	"github.com/google/gousb"
)

// FTDI FT230X vendor/product IDs used by ConBee-1 dongles.
const (
	ftdiVendorID  = 0x0403
	ftdiProductID = 0x6015
)

// FTDI vendor control requests (FTDI application note AN232B-05).
const (
	ftdiReqSetBitMode = 0x0B
	ftdiBitModeReset  = 0x00
	ftdiBitModeBitbang = 0x01
)

// ftdiResetMask drives only the RTS line low during the bitbang pulse; the
// remaining bits stay inputs so the UART's own TX/RX lines are untouched.
const ftdiResetMask = 0x02

// ResetFTDI implements the ConBee-1 reset fallback of spec §4.5
// "ResetFtdi": it opens the FTDI chip directly over USB (bypassing the
// serial port) and bitbangs its RTS line low for a moment to pull the
// coprocessor's reset pin, the same low-level USB control-transfer
// approach grounded in OpenTraceLab-OpenTraceJTAG's CMSIS-DAP transport.
func ResetFTDI() error {
	ctx := gousb.NewContext()
	defer ctx.Close()

	dev, err := ctx.OpenDeviceWithVIDPID(ftdiVendorID, ftdiProductID)
	if err != nil {
		return fmt.Errorf("ftdi: open failed: %w", err)
	}
	if dev == nil {
		return fmt.Errorf("ftdi: no ConBee-1 FTDI chip found")
	}
	defer dev.Close()

	if err := ftdiSetBitMode(dev, ftdiResetMask, ftdiBitModeBitbang); err != nil {
		return err
	}
	time.Sleep(100 * time.Millisecond)
	return ftdiSetBitMode(dev, 0x00, ftdiBitModeReset)
}

// ftdiSetBitMode issues the vendor SET_BITMODE control transfer: wValue
// packs the pin direction mask in the low byte and the bitbang mode in the
// high byte.
func ftdiSetBitMode(dev *gousb.Device, mask, mode byte) error {
	value := uint16(mode)<<8 | uint16(mask)
	_, err := dev.Control(0x40, ftdiReqSetBitMode, value, 0, nil)
	if err != nil {
		return fmt.Errorf("ftdi: set bitmode failed: %w", err)
	}
	return nil
}
