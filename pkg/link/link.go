// Package link follows the USB device lifecycle and drives the status LED
// from it.
//
// Blink pattern:
//   - 250 ms  : device not mounted
//   - 1000 ms : device mounted
//   - 2500 ms : device suspended
//   - solid   : host capslock on
package link

import "github.com/tuffrabit/tinygo-zaxis-rp2040/pkg/keyboard"

// Blink intervals in milliseconds.
const (
	BlinkNotMounted uint32 = 250
	BlinkMounted    uint32 = 1000
	BlinkSuspended  uint32 = 2500
)

// State is the USB connection state.
type State uint8

const (
	StateNotMounted State = iota
	StateMounted
	StateSuspended
)

func (s State) String() string {
	switch s {
	case StateNotMounted:
		return "unmounted"
	case StateMounted:
		return "mounted"
	case StateSuspended:
		return "suspended"
	default:
		return "?"
	}
}

// Monitor applies lifecycle events to the link state and blink pattern.
type Monitor struct {
	state        State
	wakeAllowed  bool
	blinker      *Blinker
	led          LED
	capsFeedback bool
}

// NewMonitor creates a monitor in the not-mounted state. When capsFeedback
// is false, keyboard LED reports from the host are ignored.
func NewMonitor(blinker *Blinker, led LED, capsFeedback bool) *Monitor {
	blinker.SetInterval(BlinkNotMounted)
	return &Monitor{
		state:        StateNotMounted,
		blinker:      blinker,
		led:          led,
		capsFeedback: capsFeedback,
	}
}

// Handle applies one event.
func (m *Monitor) Handle(ev Event) {
	switch ev.Kind {
	case KindMounted:
		m.set(StateMounted, BlinkMounted)
	case KindUnmounted:
		m.set(StateNotMounted, BlinkNotMounted)
	case KindSuspended:
		m.wakeAllowed = ev.RemoteWakeupAllowed
		m.set(StateSuspended, BlinkSuspended)
	case KindResumed:
		m.set(StateMounted, BlinkMounted)
	case KindReportReceived:
		m.handleReport(&ev)
	}
}

func (m *Monitor) set(s State, interval uint32) {
	m.state = s
	m.blinker.SetInterval(interval)
}

// handleReport mirrors the host capslock state on the LED.
func (m *Monitor) handleReport(ev *Event) {
	if !m.capsFeedback {
		return
	}
	if ev.ReportType != ReportTypeOutput || ev.ReportID != keyboard.ReportID {
		return
	}
	leds, ok := keyboard.ParseLEDs(ev.Payload())
	if !ok {
		return
	}

	if leds.CapsLockLed() {
		// Capslock on: stop blinking, hold the LED on
		m.blinker.SetInterval(0)
		m.led.Set(true)
	} else {
		m.led.Set(false)
		m.blinker.SetInterval(BlinkMounted)
	}
}

// State returns the current link state.
func (m *Monitor) State() State {
	return m.state
}

// Suspended reports whether the bus is suspended.
func (m *Monitor) Suspended() bool {
	return m.state == StateSuspended
}

// RemoteWakeupAllowed reports the flag carried by the last suspend event.
func (m *Monitor) RemoteWakeupAllowed() bool {
	return m.wakeAllowed
}
