// Package protocol implements the binary serial protocol spoken over USB CDC
// between the joystick and the zaxisctl host tool.
//
// Frame format:
//
//	[SYNC:1][CMD:1][LEN:2][PAYLOAD:LEN][CRC:2]
//	- SYNC: 0xAA (frame start marker)
//	- CMD: Command byte
//	- LEN: Payload length (uint16, little-endian)
//	- PAYLOAD: Variable length data
//	- CRC: CRC16-CCITT of [CMD][LEN][PAYLOAD]
//
// Response format is identical, with a status byte in place of CMD.
// The diagnostic text stream shares the port; it never contains SyncByte,
// so readers resynchronise by skipping to the next sync byte.
package protocol

import (
	"encoding/binary"
	"errors"
	"io"
)

const (
	SyncByte = 0xAA

	// HeaderSize is SYNC + CMD + LEN.
	HeaderSize = 4
	// TrailerSize is the CRC.
	TrailerSize = 2
	// MaxPayload bounds the LEN field.
	MaxPayload = 4096
)

var (
	ErrInvalidFrame = errors.New("invalid frame")
	ErrCRCMismatch  = errors.New("CRC mismatch")
)

// Frame is a request from the host.
type Frame struct {
	Cmd     uint8
	Payload []byte
}

// Response is the device's answer to a Frame.
type Response struct {
	Status  uint8
	Payload []byte
}

// ReadFrame reads one request. The first byte must be SyncByte.
func ReadFrame(r io.Reader) (*Frame, error) {
	var sync [1]byte
	if _, err := io.ReadFull(r, sync[:]); err != nil {
		return nil, err
	}
	if sync[0] != SyncByte {
		return nil, ErrInvalidFrame
	}

	cmd, payload, err := readAfterSync(r)
	if err != nil {
		return nil, err
	}
	return &Frame{Cmd: cmd, Payload: payload}, nil
}

// ReadResponse reads one response, discarding whatever precedes the next
// sync byte (diagnostic lines, a half-read earlier reply).
func ReadResponse(r io.Reader) (*Response, error) {
	var b [1]byte
	for b[0] != SyncByte {
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return nil, err
		}
	}

	status, payload, err := readAfterSync(r)
	if err != nil {
		return nil, err
	}
	return &Response{Status: status, Payload: payload}, nil
}

// readAfterSync reads [code][LEN][payload][CRC] and verifies the CRC.
func readAfterSync(r io.Reader) (code uint8, payload []byte, err error) {
	var hdr [3]byte
	if _, err = io.ReadFull(r, hdr[:]); err != nil {
		return 0, nil, err
	}

	n := binary.LittleEndian.Uint16(hdr[1:])
	if n > MaxPayload {
		return 0, nil, ErrInvalidFrame
	}

	// payload and CRC in one read
	body := make([]byte, int(n)+TrailerSize)
	if _, err = io.ReadFull(r, body); err != nil {
		return 0, nil, err
	}

	crc := crc16(crc16(0xFFFF, hdr[:]), body[:n])
	if crc != binary.LittleEndian.Uint16(body[n:]) {
		return 0, nil, ErrCRCMismatch
	}

	if n > 0 {
		payload = body[:n:n]
	}
	return hdr[0], payload, nil
}

// WriteResponse writes a response frame (device side).
func WriteResponse(w io.Writer, resp *Response) error {
	_, err := w.Write(encode(resp.Status, resp.Payload))
	return err
}

// WriteFrame writes a request frame (host side).
func WriteFrame(w io.Writer, frame *Frame) error {
	_, err := w.Write(encode(frame.Cmd, frame.Payload))
	return err
}

// encode builds [SYNC][code][LEN][payload][CRC].
func encode(code uint8, payload []byte) []byte {
	buf := make([]byte, 0, HeaderSize+len(payload)+TrailerSize)
	buf = append(buf, SyncByte, code)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(payload)))
	buf = append(buf, payload...)

	// CRC skips the sync byte
	return binary.LittleEndian.AppendUint16(buf, crc16(0xFFFF, buf[1:]))
}

// crc16 continues a CRC16-CCITT (poly 0x1021, MSB first) over data.
// Start with 0xFFFF.
func crc16(crc uint16, data []byte) uint16 {
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
