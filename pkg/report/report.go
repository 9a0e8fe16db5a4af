// Package report builds the joystick input report and decides, once per poll
// interval, whether to send it or to wake a suspended host.
package report

import "encoding/binary"

const (
	// ReportID is the input report ID passed to the transport. The descriptor
	// declares no report IDs, so the payload carries no ID prefix.
	ReportID uint8 = 0x00

	// Size is the payload length of a JoystickReport.
	Size = 2
)

// JoystickReport is the HID input report.
// Layout: [0-1]: ZAxis (uint16, little-endian)
type JoystickReport struct {
	ZAxis uint16
}

// Bytes returns the wire form of the report without allocating.
func (r *JoystickReport) Bytes() [Size]byte {
	var b [Size]byte
	binary.LittleEndian.PutUint16(b[0:], r.ZAxis)
	return b
}

// MarshalBinary implements encoding.BinaryMarshaler for JoystickReport.
func (r *JoystickReport) MarshalBinary() ([]byte, error) {
	b := r.Bytes()
	return b[:], nil
}
