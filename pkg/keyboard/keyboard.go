// Package keyboard decodes the boot-keyboard LED output report the host sends
// to mirror its lock-key state.
package keyboard

// ReportID is the output report carrying the LED bitmap. The joystick
// descriptor declares no report IDs, so hosts address it as report 0.
const ReportID uint8 = 0x00

// LED bits of the output report (HID usage page 0x08, usages 1-5).
const (
	LEDNumLock    uint8 = 1 << 0
	LEDCapsLock   uint8 = 1 << 1
	LEDScrollLock uint8 = 1 << 2
	LEDCompose    uint8 = 1 << 3
	LEDKana       uint8 = 1 << 4
)

// LEDs is the LED bitmap byte of an output report.
type LEDs uint8

func (l LEDs) NumLockLed() bool    { return uint8(l)&LEDNumLock != 0 }
func (l LEDs) CapsLockLed() bool   { return uint8(l)&LEDCapsLock != 0 }
func (l LEDs) ScrollLockLed() bool { return uint8(l)&LEDScrollLock != 0 }

// ParseLEDs extracts the LED bitmap from an output report buffer.
// It returns false for an empty buffer.
func ParseLEDs(b []byte) (LEDs, bool) {
	if len(b) < 1 {
		return 0, false
	}
	return LEDs(b[0]), true
}
