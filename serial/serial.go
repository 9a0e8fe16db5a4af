// Package serial runs the device side of the CDC serial port: it assembles
// protocol frames from the byte stream, answers them, and writes the
// diagnostic line stream.
package serial

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/tuffrabit/tinygo-zaxis-rp2040/pkg/protocol"
)

// MaxFramePayload bounds the payload the device accepts in one frame.
const MaxFramePayload = 64

const maxFrame = protocol.HeaderSize + MaxFramePayload + protocol.TrailerSize

// Serialer is the part of machine.Serialer the handler needs.
type Serialer interface {
	io.Writer
	ReadByte() (byte, error)
	Buffered() int
}

// Observer is told about protocol traffic, e.g. the debug display.
type Observer interface {
	FrameReceived(frame *protocol.Frame)
	ResponseSent(resp *protocol.Response)
	FrameError(err error)
}

// Serial assembles frames without blocking the main loop.
type Serial struct {
	port     Serialer
	handler  *protocol.Handler
	observer Observer

	inIndex  int
	inBuffer [maxFrame]byte
}

// NewSerial creates a serial handler. observer may be nil.
func NewSerial(port Serialer, handler *protocol.Handler, observer Observer) *Serial {
	return &Serial{
		port:     port,
		handler:  handler,
		observer: observer,
	}
}

// Poll consumes the bytes already buffered by the port and answers any
// frames they complete. It never waits for more input.
func (s *Serial) Poll() int {
	handled := 0
	for s.port.Buffered() > 0 {
		b, err := s.port.ReadByte()
		if err != nil {
			break
		}
		if s.feed(b) {
			handled++
		}
	}
	return handled
}

// feed adds one byte to the frame being assembled and reports whether it
// completed a frame.
func (s *Serial) feed(b byte) bool {
	if s.inIndex == 0 && b != protocol.SyncByte {
		// Between frames; resync
		return false
	}

	s.inBuffer[s.inIndex] = b
	s.inIndex++

	if s.inIndex < protocol.HeaderSize {
		return false
	}

	length := int(binary.LittleEndian.Uint16(s.inBuffer[2:]))
	if length > MaxFramePayload {
		s.inIndex = 0
		s.report(protocol.ErrInvalidFrame)
		return false
	}

	if s.inIndex < protocol.HeaderSize+length+protocol.TrailerSize {
		return false
	}

	raw := s.inBuffer[:s.inIndex]
	s.inIndex = 0
	s.process(raw)
	return true
}

func (s *Serial) process(raw []byte) {
	frame, err := protocol.ReadFrame(bytes.NewReader(raw))
	if err != nil {
		s.report(err)
		if err == protocol.ErrCRCMismatch {
			s.respond(&protocol.Response{Status: protocol.StatusCRCError})
		}
		return
	}

	if s.observer != nil {
		s.observer.FrameReceived(frame)
	}

	s.respond(s.handler.Handle(frame))
}

func (s *Serial) respond(resp *protocol.Response) {
	if err := protocol.WriteResponse(s.port, resp); err != nil {
		s.report(err)
		return
	}
	if s.observer != nil {
		s.observer.ResponseSent(resp)
	}
}

func (s *Serial) report(err error) {
	if s.observer != nil {
		s.observer.FrameError(err)
	}
}

// WriteDiagnostic writes one "RRRRR SSSSS\n" line with the raw reading and
// the scaled value.
func (s *Serial) WriteDiagnostic(raw uint16, scaled int32) {
	fmt.Fprintf(s.port, "%05d %05d\n", raw, scaled)
}
