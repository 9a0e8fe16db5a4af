//go:build tinygo && !nodebug

// Package display provides SSD1306 OLED display support for debug output.
// The top rows show the live pipeline status (reading, calibration range,
// link state); the bottom rows show serial protocol traffic.
//
// To build without display support (saves RAM and flash), use:
//
//	tinygo build -tags=nodebug -target=pico -o firmware.uf2 .
package display

import (
	"image/color"
	"machine"
	"time"

	"github.com/tuffrabit/tinygo-zaxis-rp2040/pkg/protocol"

	"tinygo.org/x/drivers/ssd1306"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"
)

const (
	// I2C configuration
	i2cAddress = 0x3C
	sclPin     = machine.GPIO1
	sdaPin     = machine.GPIO0

	screenWidth  = 128
	screenHeight = 64
	lineHeight   = 10
	baseline     = 8 // first baseline from the top edge
	rows         = screenHeight / lineHeight

	// Row assignments
	rowStatus    = 0 // 0-2: pipeline status
	rowInBytes   = 3
	rowInParsed  = 4
	rowOutParsed = 5
)

var (
	black = color.RGBA{0, 0, 0, 0}
	white = color.RGBA{255, 255, 255, 255}
)

// Manager handles the SSD1306 display for debug output.
type Manager struct {
	device *ssd1306.Device
	status [3]string
	sched  flushSchedule
}

// NewManager creates and initializes the display manager.
// Returns nil if display initialization fails (non-fatal for debug).
func NewManager() *Manager {
	i2c := machine.I2C0
	if err := i2c.Configure(machine.I2CConfig{
		Frequency: 400000, // 400kHz fast mode
		SCL:       sclPin,
		SDA:       sdaPin,
	}); err != nil {
		println("display: i2c config failed:", err.Error())
		return nil
	}

	// Small delay for bus stabilization
	time.Sleep(10 * time.Millisecond)

	dev := ssd1306.NewI2C(i2c)
	dev.Configure(ssd1306.Config{
		Address: i2cAddress,
		Width:   screenWidth,
		Height:  screenHeight,
	})
	dev.ClearDisplay()

	m := &Manager{device: dev}

	m.drawRow(rowStatus, "Z-Axis Debug")
	m.drawRow(rowStatus+1, "Waiting for USB...")
	m.refresh()

	return m
}

// ShowStatus runs at most once per flushInterval ms: it redraws the status
// rows when they changed and pushes all pending row changes to the panel.
func (m *Manager) ShowStatus(now uint32, snap protocol.Snapshot) {
	if m == nil || !m.sched.tick(now) {
		return
	}

	if status := FormatStatus(snap); status != m.status {
		m.status = status
		for i, s := range status {
			m.drawRow(rowStatus+i, s)
		}
		m.sched.mark()
	}

	if m.sched.take() {
		m.refresh()
	}
}

// ShowMessage writes a message on the last row and pushes it at once. It
// is meant for boot errors, before the loop runs.
func (m *Manager) ShowMessage(msg string) {
	if m == nil {
		return
	}
	m.drawRow(rowOutParsed, truncate(msg, Cols))
	m.refresh()
}

// FrameReceived shows an incoming request frame.
func (m *Manager) FrameReceived(frame *protocol.Frame) {
	if m == nil {
		return
	}
	hex, decoded := FormatIncoming(frame)
	m.drawRow(rowInBytes, truncate("I:"+hex, Cols))
	m.drawRow(rowInParsed, truncate(" "+decoded, Cols))
	m.sched.mark()
}

// ResponseSent shows the response to the last frame.
func (m *Manager) ResponseSent(resp *protocol.Response) {
	if m == nil {
		return
	}
	_, decoded := FormatOutgoing(resp)
	m.drawRow(rowOutParsed, truncate("O:"+decoded, Cols))
	m.sched.mark()
}

// FrameError shows a framing or CRC error.
func (m *Manager) FrameError(err error) {
	if m == nil {
		return
	}
	m.drawRow(rowOutParsed, "ERR:"+FormatError(err))
	m.sched.mark()
}

// drawRow clears a row and writes s into it.
func (m *Manager) drawRow(row int, s string) {
	if row < 0 || row >= rows {
		return
	}
	y := int16(row * lineHeight)
	m.device.FillRectangle(0, y, screenWidth, lineHeight, black)
	tinyfont.WriteLine(m.device, &proggy.TinySZ8pt7b, 0, y+baseline, s, white)
}

// refresh pushes the frame buffer to the panel.
func (m *Manager) refresh() {
	m.device.Display()
}
