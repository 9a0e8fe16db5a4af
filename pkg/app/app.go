// Package app holds the joystick's application state and runs one
// iteration of the main loop over it.
package app

import (
	"github.com/tuffrabit/tinygo-zaxis-rp2040/pkg/calibration"
	"github.com/tuffrabit/tinygo-zaxis-rp2040/pkg/config"
	"github.com/tuffrabit/tinygo-zaxis-rp2040/pkg/link"
	"github.com/tuffrabit/tinygo-zaxis-rp2040/pkg/protocol"
	"github.com/tuffrabit/tinygo-zaxis-rp2040/pkg/report"
	"github.com/tuffrabit/tinygo-zaxis-rp2040/pkg/sampler"
	"github.com/tuffrabit/tinygo-zaxis-rp2040/serial"
)

// Bus is the USB device controller as seen from the loop.
type Bus interface {
	// Poll passes lifecycle changes seen since the last call to handle.
	// It runs on the loop, so it does not use the interrupt event queue.
	Poll(handle func(link.Event))

	// RemoteWakeup signals resume to a suspended host.
	RemoteWakeup()
}

// StatusView shows the pipeline state, e.g. on the debug display.
// Implementations throttle on their own; ShowStatus is called every step.
type StatusView interface {
	ShowStatus(now uint32, snap protocol.Snapshot)
}

// Peripherals are the board resources the loop drives.
type Peripherals struct {
	ADC    sampler.Converter
	LED    link.LED
	Button report.Button
	HID    report.Transport
	Bus    Bus

	// Events is shared with the USB interrupt handlers.
	Events *link.Queue

	// Status may be nil.
	Status StatusView
}

// Options tune the loop. Zero values select the defaults.
type Options struct {
	Pow      uint8
	Interval uint32
}

// App is the single owner of all mutable loop state.
type App struct {
	adc         sampler.Converter
	pow         uint8
	outMax      int32
	diagnostics bool

	rng        calibration.Range
	events     *link.Queue
	bus        Bus
	blinker    *link.Blinker
	monitor    *link.Monitor
	dispatcher *report.Dispatcher
	serial     *serial.Serial
	status     StatusView

	raw     uint16
	scaled  int32
	outcome report.Outcome
}

// New builds the loop state from the device settings read at boot.
func New(cfg config.DeviceConfig, p Peripherals, opts Options) *App {
	pow := opts.Pow
	if pow == 0 {
		pow = sampler.DefaultPow
	}
	events := p.Events
	if events == nil {
		events = &link.Queue{}
	}

	a := &App{
		adc:         p.ADC,
		pow:         pow,
		outMax:      int32(cfg.OutputMax),
		diagnostics: cfg.Diagnostics(),
		rng:         calibration.NewRange(),
		events:      events,
		bus:         p.Bus,
		status:      p.Status,
	}
	a.blinker = link.NewBlinker(p.LED)
	a.monitor = link.NewMonitor(a.blinker, p.LED, cfg.CapsLockLED())
	a.dispatcher = report.NewDispatcher(a, p.HID, p.Button, opts.Interval)

	return a
}

// SetSerial attaches the CDC serial handler. The handler usually needs the
// App itself as its snapshot source, hence the separate step.
func (a *App) SetSerial(s *serial.Serial) {
	a.serial = s
}

// Events returns the queue USB interrupt handlers push into.
func (a *App) Events() *link.Queue {
	return a.events
}

// Step runs one loop iteration at time now (ms).
func (a *App) Step(now uint32) {
	raw := sampler.Capture(a.adc, a.pow)
	a.rng.Update(raw)
	scaled := a.rng.Scale(raw, a.outMax)
	a.raw, a.scaled = raw, scaled

	if a.diagnostics && a.serial != nil {
		a.serial.WriteDiagnostic(raw, scaled)
	}

	a.bus.Poll(a.monitor.Handle)
	a.events.Drain(a.monitor.Handle)
	a.blinker.Task(now)

	if o := a.dispatcher.Task(now, scaled); o != report.OutcomeIdle {
		a.outcome = o
	}

	if a.serial != nil {
		a.serial.Poll()
	}
	if a.status != nil {
		a.status.ShowStatus(now, a.Snapshot())
	}
}

// Run steps forever, reading the clock before each iteration.
func (a *App) Run(millis func() uint32) {
	for {
		a.Step(millis())
	}
}

// Suspended implements report.Link.
func (a *App) Suspended() bool {
	return a.monitor.Suspended()
}

// RemoteWakeup implements report.Link. The resume signal is only driven
// when the suspend event said the host allows it.
func (a *App) RemoteWakeup() {
	if !a.monitor.RemoteWakeupAllowed() {
		return
	}
	a.bus.RemoteWakeup()
}

// LinkState returns the current USB link state.
func (a *App) LinkState() link.State {
	return a.monitor.State()
}

// BlinkInterval returns the current LED toggle interval in ms.
func (a *App) BlinkInterval() uint32 {
	return a.blinker.Interval()
}

// Range returns the calibration range observed so far.
func (a *App) Range() calibration.Range {
	return a.rng
}

// Snapshot implements protocol.SnapshotSource.
func (a *App) Snapshot() protocol.Snapshot {
	return protocol.Snapshot{
		Raw:      a.raw,
		Scaled:   a.scaled,
		Min:      a.rng.Min,
		Max:      a.rng.Max,
		LastSent: a.dispatcher.LastSent(),
		Link:     uint8(a.LinkState()),
		Outcome:  uint8(a.outcome),
	}
}
