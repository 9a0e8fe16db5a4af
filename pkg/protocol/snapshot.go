package protocol

import "encoding/binary"

// SnapshotSize is the encoded length of a Snapshot.
const SnapshotSize = 14

// Snapshot is the pipeline state at the end of the last loop iteration.
// Layout:
//
//	[0-1]:   Raw (uint16)
//	[2-5]:   Scaled (int32)
//	[6-7]:   Min (uint16)
//	[8-9]:   Max (uint16)
//	[10-11]: LastSent (uint16)
//	[12]:    Link (link.State)
//	[13]:    Outcome (report.Outcome of the last due tick)
type Snapshot struct {
	Raw      uint16
	Scaled   int32
	Min      uint16
	Max      uint16
	LastSent uint16
	Link     uint8
	Outcome  uint8
}

// MarshalBinary implements encoding.BinaryMarshaler for Snapshot.
func (s *Snapshot) MarshalBinary() ([]byte, error) {
	buf := make([]byte, SnapshotSize)
	binary.LittleEndian.PutUint16(buf[0:], s.Raw)
	binary.LittleEndian.PutUint32(buf[2:], uint32(s.Scaled))
	binary.LittleEndian.PutUint16(buf[6:], s.Min)
	binary.LittleEndian.PutUint16(buf[8:], s.Max)
	binary.LittleEndian.PutUint16(buf[10:], s.LastSent)
	buf[12] = s.Link
	buf[13] = s.Outcome
	return buf, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler for Snapshot.
func (s *Snapshot) UnmarshalBinary(data []byte) error {
	if len(data) < SnapshotSize {
		return ErrInvalidFrame
	}

	s.Raw = binary.LittleEndian.Uint16(data[0:])
	s.Scaled = int32(binary.LittleEndian.Uint32(data[2:]))
	s.Min = binary.LittleEndian.Uint16(data[6:])
	s.Max = binary.LittleEndian.Uint16(data[8:])
	s.LastSent = binary.LittleEndian.Uint16(data[10:])
	s.Link = data[12]
	s.Outcome = data[13]
	return nil
}
