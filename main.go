//go:build tinygo

package main

import (
	"machine"
	"time"

	"github.com/tuffrabit/tinygo-zaxis-rp2040/pkg/app"
	"github.com/tuffrabit/tinygo-zaxis-rp2040/pkg/config"
	"github.com/tuffrabit/tinygo-zaxis-rp2040/pkg/display"
	"github.com/tuffrabit/tinygo-zaxis-rp2040/pkg/joystick"
	"github.com/tuffrabit/tinygo-zaxis-rp2040/pkg/link"
	"github.com/tuffrabit/tinygo-zaxis-rp2040/pkg/protocol"
	"github.com/tuffrabit/tinygo-zaxis-rp2040/pkg/storage"
	"github.com/tuffrabit/tinygo-zaxis-rp2040/serial"
)

// events is filled by the USB interrupt handlers and drained by the loop.
var events link.Queue

func main() {
	configurePins()

	disp := display.NewManager()

	// Settings are read once; a failure falls back to defaults
	cfg := config.Default()
	sm, err := storage.New(machine.Flash, true)
	if err != nil {
		println("storage:", err.Error())
		disp.ShowMessage("flash: " + err.Error())
	} else if cfg, err = sm.LoadOrDefault(); err != nil {
		println("config:", err.Error())
		disp.ShowMessage("cfg: " + err.Error())
	}

	js := joystick.Configure(cfg.OutputMax, &events)

	var (
		status   app.StatusView
		observer serial.Observer
	)
	if disp != nil {
		status, observer = disp, disp
	}

	a := app.New(cfg, app.Peripherals{
		ADC:    newFIFOADC(),
		LED:    ledPin,
		Button: pinButton{pin: buttonPin},
		HID:    js,
		Bus:    &usbLink{hid: js},
		Events: &events,
		Status: status,
	}, app.Options{})

	a.SetSerial(serial.NewSerial(machine.Serial, protocol.NewHandler(sm, a), observer))

	boot := time.Now()
	a.Run(func() uint32 {
		return uint32(time.Since(boot).Milliseconds())
	})
}
