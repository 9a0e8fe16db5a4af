package report

import (
	"bytes"
	"testing"
)

type fakeLink struct {
	suspended bool
	wakeups   int
}

func (l *fakeLink) Suspended() bool { return l.suspended }
func (l *fakeLink) RemoteWakeup()   { l.wakeups++ }

type fakeTransport struct {
	busy    bool
	refuse  bool
	sent    [][]byte
	ids     []uint8
	readies int
}

func (tx *fakeTransport) Ready() bool {
	tx.readies++
	return !tx.busy
}

func (tx *fakeTransport) SendReport(id uint8, b []byte) bool {
	if tx.refuse {
		return false
	}
	tx.ids = append(tx.ids, id)
	tx.sent = append(tx.sent, append([]byte(nil), b...))
	return true
}

type fakeButton struct {
	pressed bool
	reads   int
}

func (b *fakeButton) Pressed() bool {
	b.reads++
	return b.pressed
}

func newTestDispatcher() (*Dispatcher, *fakeLink, *fakeTransport, *fakeButton) {
	link := &fakeLink{}
	tx := &fakeTransport{}
	btn := &fakeButton{}
	return NewDispatcher(link, tx, btn, 10), link, tx, btn
}

func TestReportBytes(t *testing.T) {
	r := JoystickReport{ZAxis: 0x0800}
	data, err := r.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary failed: %v", err)
	}
	if !bytes.Equal(data, []byte{0x00, 0x08}) {
		t.Errorf("Expected [00 08], got % x", data)
	}
	if len(data) != Size {
		t.Errorf("Expected %d bytes, got %d", Size, len(data))
	}
}

func TestDispatcherWaitsForInterval(t *testing.T) {
	d, _, tx, btn := newTestDispatcher()

	if got := d.Task(10, 500); got != OutcomeSent {
		t.Fatalf("Expected sent, got %v", got)
	}
	for now := uint32(11); now < 20; now++ {
		if got := d.Task(now, int32(now)); got != OutcomeIdle {
			t.Errorf("t=%d: expected idle, got %v", now, got)
		}
	}
	if btn.reads != 1 {
		t.Errorf("Button should only be read on due ticks, got %d reads", btn.reads)
	}
	if got := d.Task(20, 600); got != OutcomeSent {
		t.Errorf("Expected sent at t=20, got %v", got)
	}
	if len(tx.sent) != 2 {
		t.Errorf("Expected 2 reports, got %d", len(tx.sent))
	}
}

func TestDispatcherSuppressesUnchangedValue(t *testing.T) {
	d, _, tx, _ := newTestDispatcher()

	d.Task(10, 1024)
	if got := d.Task(20, 1024); got != OutcomeUnchanged {
		t.Errorf("Expected unchanged, got %v", got)
	}
	if len(tx.sent) != 1 {
		t.Errorf("Expected 1 report, got %d", len(tx.sent))
	}
	if d.LastSent() != 1024 {
		t.Errorf("Expected last sent 1024, got %d", d.LastSent())
	}
}

func TestDispatcherInitialZeroNotSent(t *testing.T) {
	d, _, tx, _ := newTestDispatcher()

	if got := d.Task(10, 0); got != OutcomeUnchanged {
		t.Errorf("Expected unchanged, got %v", got)
	}
	if len(tx.sent) != 0 {
		t.Errorf("Expected no report, got %d", len(tx.sent))
	}
}

func TestDispatcherSendsReportPayload(t *testing.T) {
	d, _, tx, _ := newTestDispatcher()

	d.Task(10, 2048)

	if len(tx.sent) != 1 {
		t.Fatalf("Expected 1 report, got %d", len(tx.sent))
	}
	if tx.ids[0] != ReportID {
		t.Errorf("Expected report ID 0x%02x, got 0x%02x", ReportID, tx.ids[0])
	}
	if !bytes.Equal(tx.sent[0], []byte{0x00, 0x08}) {
		t.Errorf("Expected payload [00 08], got % x", tx.sent[0])
	}
}

func TestDispatcherSuspendedButtonWakes(t *testing.T) {
	d, link, tx, btn := newTestDispatcher()
	link.suspended = true
	btn.pressed = true

	if got := d.Task(10, 777); got != OutcomeWoke {
		t.Errorf("Expected woke, got %v", got)
	}
	if link.wakeups != 1 {
		t.Errorf("Expected 1 wakeup, got %d", link.wakeups)
	}
	if tx.readies != 0 || len(tx.sent) != 0 {
		t.Error("No transmission should be attempted on a wake tick")
	}
}

func TestDispatcherNoWakeUnlessSuspended(t *testing.T) {
	d, link, tx, btn := newTestDispatcher()
	btn.pressed = true

	if got := d.Task(10, 100); got != OutcomeSent {
		t.Errorf("Expected sent, got %v", got)
	}
	if link.wakeups != 0 {
		t.Errorf("Expected no wakeup, got %d", link.wakeups)
	}

	link.suspended = true
	btn.pressed = false
	d.Task(20, 200)
	if link.wakeups != 0 {
		t.Errorf("Expected no wakeup without button, got %d", link.wakeups)
	}
	if len(tx.sent) != 2 {
		t.Errorf("Expected 2 reports, got %d", len(tx.sent))
	}
}

func TestDispatcherBusyTransport(t *testing.T) {
	d, _, tx, _ := newTestDispatcher()
	tx.busy = true

	if got := d.Task(10, 300); got != OutcomeBusy {
		t.Errorf("Expected busy, got %v", got)
	}
	if d.LastSent() != 0 {
		t.Errorf("Last sent should not change, got %d", d.LastSent())
	}

	// The change is superseded by the value current at the next tick.
	tx.busy = false
	d.Task(20, 400)
	if len(tx.sent) != 1 || d.LastSent() != 400 {
		t.Errorf("Expected one report with 400, got %d reports, last %d", len(tx.sent), d.LastSent())
	}
}

func TestDispatcherRefusedReport(t *testing.T) {
	d, _, tx, _ := newTestDispatcher()
	tx.refuse = true

	if got := d.Task(10, 300); got != OutcomeBusy {
		t.Errorf("Expected busy, got %v", got)
	}
	if d.LastSent() != 0 {
		t.Errorf("Last sent should not change, got %d", d.LastSent())
	}
}

func TestDispatcherMissedTicksDoNotBurst(t *testing.T) {
	d, _, tx, _ := newTestDispatcher()

	d.Task(10, 1)
	// Loop stalled for 55ms.
	if got := d.Task(65, 2); got != OutcomeSent {
		t.Fatalf("Expected sent after stall, got %v", got)
	}
	for now := uint32(66); now < 70; now++ {
		if got := d.Task(now, int32(now)); got != OutcomeIdle {
			t.Errorf("t=%d: expected idle after catch-up, got %v", now, got)
		}
	}
	// Schedule stays on the 10ms grid.
	if got := d.Task(70, 3); got != OutcomeSent {
		t.Errorf("Expected sent at t=70, got %v", got)
	}
	if len(tx.sent) != 3 {
		t.Errorf("Expected 3 reports, got %d", len(tx.sent))
	}
}

func TestDispatcherRateLimit(t *testing.T) {
	steps := []uint32{1, 3, 7, 13, 25}

	for _, step := range steps {
		d, _, tx, _ := newTestDispatcher()
		const window = 1000
		z := int32(0)
		for now := uint32(0); now <= window; now += step {
			z++
			d.Task(now, z)
		}
		limit := window/10 + 1
		if len(tx.sent) > limit {
			t.Errorf("step %d: %d reports in %dms, limit %d", step, len(tx.sent), window, limit)
		}
	}
}

func TestDispatcherClockWrap(t *testing.T) {
	d, _, tx, _ := newTestDispatcher()

	start := uint32(0xFFFFFFF0)
	d.Task(start, 1)
	d.Task(start+10, 2)
	d.Task(start+20, 3) // wraps past zero

	if len(tx.sent) != 3 {
		t.Errorf("Expected 3 reports across clock wrap, got %d", len(tx.sent))
	}
}

func TestDispatcherDefaultInterval(t *testing.T) {
	d := NewDispatcher(&fakeLink{}, &fakeTransport{}, &fakeButton{}, 0)
	if d.Interval() != DefaultInterval {
		t.Errorf("Expected interval %d, got %d", DefaultInterval, d.Interval())
	}
}
