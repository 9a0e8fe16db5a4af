//go:build tinygo

package main

import (
	"device/rp"
	"machine"

	"github.com/tuffrabit/tinygo-zaxis-rp2040/pkg/joystick"
	"github.com/tuffrabit/tinygo-zaxis-rp2040/pkg/link"
)

// Board wiring
const (
	analogPin = machine.ADC0   // GPIO26
	smpsPin   = machine.GPIO23 // high: SMPS PWM mode, less ripple on the ADC
	buttonPin = machine.GPIO15 // to GND, active low
	ledPin    = machine.LED
)

// fifoADC drives the RP2040 ADC in free-running mode through its FIFO.
type fifoADC struct{}

func newFIFOADC() *fifoADC {
	machine.InitADC()
	adc := machine.ADC{Pin: analogPin}
	adc.Configure(machine.ADCConfig{})

	rp.ADC.CS.ReplaceBits(0<<rp.ADC_CS_AINSEL_Pos, rp.ADC_CS_AINSEL_Msk, 0)
	// Full speed: one conversion every 96 ADC clocks
	rp.ADC.DIV.Set(0)
	return &fifoADC{}
}

func (f *fifoADC) Start() {
	rp.ADC.FCS.Set(rp.ADC_FCS_EN | 1<<rp.ADC_FCS_THRESH_Pos)
	rp.ADC.CS.SetBits(rp.ADC_CS_START_MANY)
}

func (f *fifoADC) Next() uint16 {
	for rp.ADC.FCS.HasBits(rp.ADC_FCS_EMPTY) {
	}
	return uint16(rp.ADC.FIFO.Get() & 0xFFF)
}

func (f *fifoADC) Stop() {
	rp.ADC.CS.ClearBits(rp.ADC_CS_START_MANY)
	for !rp.ADC.CS.HasBits(rp.ADC_CS_READY) {
	}
	for !rp.ADC.FCS.HasBits(rp.ADC_FCS_EMPTY) {
		rp.ADC.FIFO.Get()
	}
	rp.ADC.FCS.ClearBits(rp.ADC_FCS_EN)
}

type pinButton struct {
	pin machine.Pin
}

func (b pinButton) Pressed() bool {
	return !b.pin.Get()
}

// usbLink derives lifecycle events from the USB controller state. TinyGo
// has no mount or suspend callbacks, so the loop polls for edges.
type usbLink struct {
	hid   *joystick.Joystick
	edges link.Edges
}

func (u *usbLink) Poll(handle func(link.Event)) {
	mounted := machine.USBDev.InitEndpointComplete
	suspended := rp.USBCTRL_REGS.SIE_STATUS.HasBits(rp.USBCTRL_REGS_SIE_STATUS_SUSPENDED)
	if u.edges.Update(mounted, suspended, u.hid.RemoteWakeupSupported(), handle) {
		// A bus reset drops the pending IN packet without a completion
		u.hid.Reset()
	}
}

func (u *usbLink) RemoteWakeup() {
	rp.USBCTRL_REGS.SIE_CTRL.SetBits(rp.USBCTRL_REGS_SIE_CTRL_RESUME)
}

func configurePins() {
	smpsPin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	smpsPin.High()
	buttonPin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	ledPin.Configure(machine.PinConfig{Mode: machine.PinOutput})
}
