//go:build !tinygo || nodebug

// Package display provides a no-op stub when built with the nodebug tag
// or for the host. This saves memory by excluding the SSD1306 driver.
//
// To build without display support, use:
//
//	tinygo build -tags=nodebug -target=pico -o firmware.uf2 .
package display

import "github.com/tuffrabit/tinygo-zaxis-rp2040/pkg/protocol"

// Manager is a no-op stub when nodebug build tag is used.
type Manager struct{}

// NewManager returns nil when nodebug build tag is used.
// Callers treat a nil display as absent.
func NewManager() *Manager {
	return nil
}

// ShowStatus is a no-op in nodebug mode.
func (m *Manager) ShowStatus(now uint32, snap protocol.Snapshot) {}

// ShowMessage is a no-op in nodebug mode.
func (m *Manager) ShowMessage(msg string) {}

// FrameReceived is a no-op in nodebug mode.
func (m *Manager) FrameReceived(frame *protocol.Frame) {}

// ResponseSent is a no-op in nodebug mode.
func (m *Manager) ResponseSent(resp *protocol.Response) {}

// FrameError is a no-op in nodebug mode.
func (m *Manager) FrameError(err error) {}
