package link

// Kind identifies an Event.
type Kind uint8

const (
	KindNone Kind = iota
	KindMounted
	KindUnmounted
	KindSuspended
	KindResumed
	KindReportReceived
)

func (k Kind) String() string {
	switch k {
	case KindMounted:
		return "mounted"
	case KindUnmounted:
		return "unmounted"
	case KindSuspended:
		return "suspended"
	case KindResumed:
		return "resumed"
	case KindReportReceived:
		return "report"
	default:
		return "none"
	}
}

// ReportType is the HID report type (high byte of wValue in GET/SET_REPORT).
type ReportType uint8

const (
	ReportTypeInput   ReportType = 1
	ReportTypeOutput  ReportType = 2
	ReportTypeFeature ReportType = 3
)

// MaxReportLen is the largest host report an Event carries.
const MaxReportLen = 8

// Event is a USB notification raised by the USB stack integration.
// It is a fixed-size value so it can be built in interrupt context without
// allocating. Fields beyond Kind are only meaningful for the kinds noted.
type Event struct {
	Kind Kind

	// KindSuspended
	RemoteWakeupAllowed bool

	// KindReportReceived
	ReportID   uint8
	ReportType ReportType
	Len        uint8
	Data       [MaxReportLen]byte
}

func Mounted() Event   { return Event{Kind: KindMounted} }
func Unmounted() Event { return Event{Kind: KindUnmounted} }
func Resumed() Event   { return Event{Kind: KindResumed} }

func Suspended(remoteWakeupAllowed bool) Event {
	return Event{Kind: KindSuspended, RemoteWakeupAllowed: remoteWakeupAllowed}
}

// ReportReceived wraps a report sent by the host. Data beyond MaxReportLen
// is dropped.
func ReportReceived(id uint8, typ ReportType, b []byte) Event {
	ev := Event{Kind: KindReportReceived, ReportID: id, ReportType: typ}
	ev.Len = uint8(copy(ev.Data[:], b))
	return ev
}

// Payload returns the report bytes of a KindReportReceived event.
func (e *Event) Payload() []byte {
	return e.Data[:e.Len]
}
