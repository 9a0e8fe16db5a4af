package link

// LED is a single on/off indicator. machine.Pin satisfies it.
type LED interface {
	Set(on bool)
}

// Blinker toggles an LED on a fixed interval. An interval of 0 stops
// blinking and leaves the LED as last set.
type Blinker struct {
	led      LED
	interval uint32
	anchor   uint32
	on       bool
}

// NewBlinker returns a blinker with the not-mounted pattern.
func NewBlinker(led LED) *Blinker {
	return &Blinker{
		led:      led,
		interval: BlinkNotMounted,
	}
}

// SetInterval changes the toggle interval in milliseconds.
func (b *Blinker) SetInterval(ms uint32) {
	b.interval = ms
}

// Interval returns the toggle interval in milliseconds.
func (b *Blinker) Interval() uint32 {
	return b.interval
}

// Task toggles the LED when the interval has elapsed since the last toggle.
// Slots missed while blinking was disabled are skipped, not replayed.
func (b *Blinker) Task(now uint32) {
	if b.interval == 0 {
		return
	}
	elapsed := now - b.anchor
	if elapsed < b.interval {
		return
	}
	b.anchor += elapsed - elapsed%b.interval

	b.led.Set(b.on)
	b.on = !b.on
}
