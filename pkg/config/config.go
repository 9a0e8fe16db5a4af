// Package config defines the persisted device settings.
// The record is fixed-size for zero-allocation binary serialization.
// Calibration bounds are deliberately not part of it.
package config

import (
	"encoding/binary"
	"errors"
)

// CurrentVersion is the config format version.
// Bump this when making breaking changes to the config format.
// When firmware boots and finds a different version in flash, the config is wiped.
const CurrentVersion uint16 = 1

// Size is the encoded length of a DeviceConfig.
const Size = 12

// DefaultOutputMax is the top of the joystick axis range.
const DefaultOutputMax uint16 = 2048

// MaxOutputMax is the largest axis maximum a HID descriptor can announce:
// logical extents are signed, so anything above int16 reads as negative.
const MaxOutputMax uint16 = 0x7FFF

// Device flags
const (
	// FlagDiagnostics enables the "raw scaled" text line on USB serial.
	FlagDiagnostics uint32 = 1 << 0
	// FlagCapsLockLED mirrors the host capslock state on the status LED.
	FlagCapsLockLED uint32 = 1 << 1

	DefaultFlags = FlagDiagnostics | FlagCapsLockLED
)

// DeviceConfig holds device-wide settings read once at boot.
// Total size: 12 bytes
// Layout:
//
//	[0-1]:  Version (uint16)
//	[2-5]:  Flags (uint32)
//	[6-7]:  OutputMax (uint16)
//	[8-11]: Reserved for future use
type DeviceConfig struct {
	Version   uint16 // Config format version
	Flags     uint32 // Feature flags
	OutputMax uint16 // Axis logical maximum
	Reserved  uint32
}

// Errors
var (
	ErrInvalidSize      = errors.New("invalid config size")
	ErrInvalidOutputMax = errors.New("output max must be 1..32767")
)

// Default returns the factory settings.
func Default() DeviceConfig {
	return DeviceConfig{
		Version:   CurrentVersion,
		Flags:     DefaultFlags,
		OutputMax: DefaultOutputMax,
	}
}

// Validate checks that the settings can drive the pipeline.
func (d *DeviceConfig) Validate() error {
	if d.OutputMax == 0 || d.OutputMax > MaxOutputMax {
		return ErrInvalidOutputMax
	}
	return nil
}

// Diagnostics reports whether the diagnostic text stream is enabled.
func (d *DeviceConfig) Diagnostics() bool {
	return d.Flags&FlagDiagnostics != 0
}

// CapsLockLED reports whether capslock LED feedback is enabled.
func (d *DeviceConfig) CapsLockLED() bool {
	return d.Flags&FlagCapsLockLED != 0
}

// MarshalBinary implements encoding.BinaryMarshaler for DeviceConfig.
func (d *DeviceConfig) MarshalBinary() ([]byte, error) {
	buf := make([]byte, Size)
	binary.LittleEndian.PutUint16(buf[0:], d.Version)
	binary.LittleEndian.PutUint32(buf[2:], d.Flags)
	binary.LittleEndian.PutUint16(buf[6:], d.OutputMax)
	binary.LittleEndian.PutUint32(buf[8:], d.Reserved)
	return buf, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler for DeviceConfig.
func (d *DeviceConfig) UnmarshalBinary(data []byte) error {
	if len(data) < Size {
		return ErrInvalidSize
	}

	d.Version = binary.LittleEndian.Uint16(data[0:])
	d.Flags = binary.LittleEndian.Uint32(data[2:])
	d.OutputMax = binary.LittleEndian.Uint16(data[6:])
	d.Reserved = binary.LittleEndian.Uint32(data[8:])
	return nil
}
