package gcf

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
)

// HeaderSize is the size in bytes of the fixed GCF file header.
const HeaderSize = 14

// Magic is the constant that must appear at offset 0 of a GCF file.
const Magic uint32 = 0xCAFEFEED

// MaxFileSize is the largest GCF image size expected for these devices,
// whose images are a few hundred kilobytes at most. Parse does not check
// it: it accepts content of any length.
const MaxFileSize = 4 * 1024 * 1024

// Platform bits carried in the fw_version, see FWVersionPlatformMask.
const (
	FWVersionPlatformMask uint32 = 0x0000FF00
	FWVersionPlatformAVR  uint32 = 0x00000500
	FWVersionPlatformR21  uint32 = 0x00000700
)

// Parse errors, matching the codes documented in spec §4.2.
var (
	ErrTooSmall  = errors.New("gcf: file smaller than header")
	ErrBadHeader = errors.New("gcf: bad magic or missing firmware version in filename")
	ErrSizeMismatch = errors.New("gcf: payload size does not match file size")
)

// File is a parsed GCF firmware image: header fields plus payload.
type File struct {
	Filename string
	FileSize int

	FWVersion uint32 // parsed from the first "0x..." substring of Filename

	FileType      uint8
	TargetAddress uint32
	PayloadSize   uint32
	CRC8          uint8

	Payload []byte
}

var versionRe = regexp.MustCompile(`0[xX][0-9a-fA-F]+`)

// fwVersionFromName extracts the firmware version encoded in a GCF
// filename, e.g. "ConBee_II_0x26720700.gcf" -> 0x26720700.
func fwVersionFromName(name string) (uint32, error) {
	m := versionRe.FindString(filepath.Base(name))
	if m == "" {
		return 0, ErrBadHeader
	}
	v, err := strconv.ParseUint(m[2:], 16, 32)
	if err != nil {
		return 0, ErrBadHeader
	}
	return uint32(v), nil
}

// Parse decodes raw file content (the full contents of a .gcf file) plus
// its filename into a File. It applies the invariants of spec §3: magic ==
// Magic, and FileSize-HeaderSize == PayloadSize.
func Parse(filename string, content []byte) (*File, error) {
	if len(content) < HeaderSize {
		return nil, ErrTooSmall
	}

	fwVersion, err := fwVersionFromName(filename)
	if err != nil {
		return nil, err
	}

	magic := GetU32LE(content[0:4])
	if magic != Magic {
		return nil, ErrBadHeader
	}

	f := &File{
		Filename:      filename,
		FileSize:      len(content),
		FWVersion:     fwVersion,
		FileType:      content[4],
		TargetAddress: GetU32LE(content[5:9]),
		PayloadSize:   GetU32LE(content[9:13]),
		CRC8:          content[13],
	}

	if int(f.PayloadSize) != len(content)-HeaderSize {
		return nil, ErrSizeMismatch
	}

	f.Payload = content[HeaderSize:]
	return f, nil
}

// PlatformIsR21 reports whether the fw_version bits identify an R21
// (RaspBee-2 class) target, per spec §4.2.
func (f *File) PlatformIsR21() bool {
	return f.FWVersion&FWVersionPlatformMask == FWVersionPlatformR21
}

func (f *File) String() string {
	return fmt.Sprintf("%s (fwVersion=0x%08X, type=%d, target=0x%08X, size=%d)",
		f.Filename, f.FWVersion, f.FileType, f.TargetAddress, f.PayloadSize)
}
