//go:build tinygo

// Package composite provides the USB composite device descriptor that
// combines CDC (Serial) + HID (single-axis joystick with an LED output report).
package composite

import (
	"machine/usb"
	"machine/usb/descriptor"
)

// HIDReportDescriptor describes the joystick. There are no report IDs:
//
//	input:  Z axis, 16 bits, logical 0..outputMax
//	output: 5 keyboard LED bits + 3 bits padding
func HIDReportDescriptor(outputMax uint16) []byte {
	return descriptor.Append([][]byte{
		descriptor.HIDUsagePageGenericDesktop,
		descriptor.HIDUsageDesktopJoystick,
		descriptor.HIDCollectionApplication,
		// Z axis (2 bytes)
		descriptor.HIDUsagePageGenericDesktop,
		descriptor.HIDUsageDesktopZ,
		descriptor.HIDLogicalMinimum(0),
		hidLogicalMaximum16(outputMax),
		descriptor.HIDReportSize(16),
		descriptor.HIDReportCount(1),
		descriptor.HIDInputDataVarAbs,
		// LED output report, mirrored from the keyboard state
		descriptor.HIDUsagePageLED,
		descriptor.HIDUsageMinimum(1),
		descriptor.HIDUsageMaximum(5),
		descriptor.HIDLogicalMinimum(0),
		descriptor.HIDLogicalMaximum(1),
		descriptor.HIDReportSize(1),
		descriptor.HIDReportCount(5),
		descriptor.HIDOutputDataVarAbs,
		descriptor.HIDReportSize(3),
		descriptor.HIDReportCount(1),
		descriptor.HIDOutputConstVarAbs,
		descriptor.HIDCollectionEnd,
	})
}

// USBDescriptor returns the complete descriptor for the composite device.
func USBDescriptor(outputMax uint16) descriptor.Descriptor {
	report := HIDReportDescriptor(outputMax)

	return descriptor.Descriptor{
		Device: descriptor.DeviceCDC.Bytes(),

		Configuration: descriptor.Append([][]byte{
			descriptor.ConfigurationCDCHID.Bytes(),
			// CDC interfaces
			descriptor.InterfaceAssociationCDC.Bytes(),
			descriptor.InterfaceCDCControl.Bytes(),
			descriptor.ClassSpecificCDCHeader.Bytes(),
			descriptor.ClassSpecificCDCACM.Bytes(),
			descriptor.ClassSpecificCDCUnion.Bytes(),
			descriptor.ClassSpecificCDCCallManagement.Bytes(),
			descriptor.EndpointEP1IN.Bytes(),
			descriptor.InterfaceCDCData.Bytes(),
			descriptor.EndpointEP2OUT.Bytes(),
			descriptor.EndpointEP3IN.Bytes(),
			// HID interface
			descriptor.InterfaceHID.Bytes(),
			classHID(len(report)),
			descriptor.EndpointEP4IN.Bytes(),
			descriptor.EndpointEP5OUT.Bytes(),
		}),

		HID: map[uint16][]byte{
			usb.HID_INTERFACE: report,
		},
	}
}

// classHID returns the HID class descriptor patched with the report
// descriptor length.
func classHID(reportLen int) []byte {
	b := descriptor.ClassHID.Bytes()
	b[7] = byte(reportLen)
	b[8] = byte(reportLen >> 8)
	return b
}

// RemoteWakeupSupported reports whether the configuration descriptor
// advertises remote wakeup (bmAttributes bit 5).
func RemoteWakeupSupported(desc descriptor.Descriptor) bool {
	return len(desc.Configuration) > 7 && desc.Configuration[7]&0x20 != 0
}
