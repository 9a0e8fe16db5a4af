//go:build tinygo

// Package joystick connects the joystick to TinyGo's USB stack: it registers
// the composite descriptor, sends input reports on the HID IN endpoint and
// forwards host output reports to the loop as link events.
//
// The endpoint and setup handlers run in interrupt context. They only touch
// the atomic transmit flag and push into the event queue.
package joystick

import (
	"machine"
	"machine/usb"
	"machine/usb/descriptor"
	"machine/usb/hid"
	"sync/atomic"

	"github.com/tuffrabit/tinygo-zaxis-rp2040/pkg/composite"
	"github.com/tuffrabit/tinygo-zaxis-rp2040/pkg/link"
)

// Joystick implements report.Transport on the HID interrupt IN endpoint.
type Joystick struct {
	events  *link.Queue
	desc    descriptor.Descriptor
	waitTxc atomic.Bool
}

// Configure registers the joystick with the USB stack. outputMax sets the
// logical maximum announced for the Z axis.
func Configure(outputMax uint16, events *link.Queue) *Joystick {
	j := &Joystick{
		events: events,
		desc:   composite.USBDescriptor(outputMax),
	}

	machine.ConfigureUSBEndpoint(j.desc,
		[]usb.EndpointConfig{
			{
				Index:     usb.HID_ENDPOINT_IN,
				IsIn:      true,
				Type:      usb.ENDPOINT_TYPE_INTERRUPT,
				TxHandler: j.txHandler,
			},
			{
				Index:     usb.HID_ENDPOINT_OUT,
				IsIn:      false,
				Type:      usb.ENDPOINT_TYPE_INTERRUPT,
				RxHandler: j.rxHandler,
			},
		},
		[]usb.SetupConfig{
			{
				Index:   usb.HID_INTERFACE,
				Handler: j.setupHandler,
			},
		})

	return j
}

// RemoteWakeupSupported reports whether the device advertises remote wakeup.
func (j *Joystick) RemoteWakeupSupported() bool {
	return composite.RemoteWakeupSupported(j.desc)
}

// Reset forgets a report still waiting for its completion. Call it when
// the device is reset or re-enumerated, which drops the IN packet.
func (j *Joystick) Reset() {
	j.waitTxc.Store(false)
}

// Ready reports whether the device is configured and the previous report
// has been collected by the host.
func (j *Joystick) Ready() bool {
	return machine.USBDev.InitEndpointComplete && !j.waitTxc.Load()
}

// SendReport transmits one input report. The descriptor has no report IDs,
// so id must be 0 and b is sent as is.
func (j *Joystick) SendReport(id uint8, b []byte) bool {
	if id != 0 || !j.Ready() {
		return false
	}
	j.waitTxc.Store(true)
	hid.SendUSBPacket(b)
	return true
}

// txHandler is called by the USB interrupt when the IN transfer completed.
func (j *Joystick) txHandler() {
	j.waitTxc.Store(false)
}

// rxHandler receives output reports sent on the interrupt OUT endpoint.
func (j *Joystick) rxHandler(b []byte) {
	j.push(link.ReportReceived(0, link.ReportTypeOutput, b))
}

// setupHandler answers HID class requests on the control endpoint.
func (j *Joystick) setupHandler(setup usb.Setup) bool {
	if setup.BmRequestType&0x60 != 0x20 {
		// Not a class request
		return false
	}

	switch setup.BRequest {
	case usb.SET_IDLE:
		machine.SendZlp()
		return true

	case usb.SET_REPORT:
		data, err := machine.ReceiveUSBControlPacket()
		if err != nil {
			return false
		}
		n := int(setup.WLength)
		if n > len(data) {
			n = len(data)
		}
		j.push(link.ReportReceived(setup.WValueL, link.ReportType(setup.WValueH), data[:n]))
		machine.SendZlp()
		return true

	case usb.GET_REPORT:
		// No report content is provided; the request stalls
		return false
	}

	return false
}

func (j *Joystick) push(ev link.Event) {
	// A full queue drops the event; the next LED report restates the state
	j.events.Push(ev)
}
