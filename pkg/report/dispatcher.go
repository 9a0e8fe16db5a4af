package report

// DefaultInterval is the poll interval in milliseconds.
const DefaultInterval uint32 = 10

// Link is the USB device state the dispatcher needs.
type Link interface {
	Suspended() bool
	RemoteWakeup()
}

// Transport sends input reports on the HID interrupt IN endpoint.
type Transport interface {
	// Ready reports whether the endpoint can take a report now.
	Ready() bool

	// SendReport transmits b as report id. It returns false if the
	// packet was not accepted.
	SendReport(id uint8, b []byte) bool
}

// Button is the wake button, read once per due tick.
type Button interface {
	Pressed() bool
}

// Outcome describes what a call to Task did.
type Outcome uint8

const (
	OutcomeIdle      Outcome = iota // poll interval not yet elapsed
	OutcomeWoke                     // remote wakeup requested
	OutcomeSent                     // report transmitted
	OutcomeUnchanged                // value equal to last sent, nothing to do
	OutcomeBusy                     // transport not ready or refused the report
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIdle:
		return "idle"
	case OutcomeWoke:
		return "woke"
	case OutcomeSent:
		return "sent"
	case OutcomeUnchanged:
		return "same"
	case OutcomeBusy:
		return "busy"
	default:
		return "?"
	}
}

// Dispatcher rate-limits report emission to one per interval and only sends
// when the axis value changed.
type Dispatcher struct {
	link     Link
	tx       Transport
	button   Button
	interval uint32
	anchor   uint32 // start of the current poll slot, in ms
	last     JoystickReport
}

// NewDispatcher creates a dispatcher polling every interval milliseconds.
// An interval of 0 selects DefaultInterval.
func NewDispatcher(link Link, tx Transport, button Button, interval uint32) *Dispatcher {
	if interval == 0 {
		interval = DefaultInterval
	}
	return &Dispatcher{
		link:     link,
		tx:       tx,
		button:   button,
		interval: interval,
	}
}

// Task runs one dispatcher tick at time now (ms) with the current scaled
// axis value z.
//
// The slot anchor stays on the interval grid. When ticks were missed the
// anchor jumps forward by whole intervals, so at most one report goes out
// per slot and the schedule does not drift.
func (d *Dispatcher) Task(now uint32, z int32) Outcome {
	elapsed := now - d.anchor
	if elapsed < d.interval {
		return OutcomeIdle
	}
	d.anchor += elapsed - elapsed%d.interval

	pressed := d.button.Pressed()

	if d.link.Suspended() && pressed {
		d.link.RemoteWakeup()
		return OutcomeWoke
	}

	if !d.tx.Ready() {
		return OutcomeBusy
	}

	zAxis := uint16(z)
	if zAxis == d.last.ZAxis {
		return OutcomeUnchanged
	}

	next := JoystickReport{ZAxis: zAxis}
	b := next.Bytes()
	if !d.tx.SendReport(ReportID, b[:]) {
		return OutcomeBusy
	}
	d.last = next

	return OutcomeSent
}

// LastSent returns the axis value of the last transmitted report.
func (d *Dispatcher) LastSent() uint16 {
	return d.last.ZAxis
}

// Interval returns the poll interval in milliseconds.
func (d *Dispatcher) Interval() uint32 {
	return d.interval
}
