package protocol

import (
	"encoding/binary"

	"github.com/tuffrabit/tinygo-zaxis-rp2040/pkg/config"
	"github.com/tuffrabit/tinygo-zaxis-rp2040/pkg/storage"
)

// Command codes (host → device)
const (
	CmdGetDeviceConfig = 0x01
	CmdSetDeviceConfig = 0x02
	CmdGetStorageStats = 0x07
	CmdPing            = 0x08
	CmdFactoryReset    = 0x09
	CmdDiscover        = 0x0A
	CmdGetVersion      = 0x10
	CmdGetStatus       = 0x11
)

// Status codes (device → host)
const (
	StatusOK              = 0x00
	StatusError           = 0x01
	StatusInvalidCmd      = 0x02
	StatusInvalidData     = 0x03
	StatusNotFound        = 0x04
	StatusNoSpace         = 0x05
	StatusVersionMismatch = 0x06
	StatusCRCError        = 0x07
)

const (
	// Firmware version reported by CmdGetVersion
	FirmwareMajor = 0
	FirmwareMinor = 2

	// DiscoverReply identifies this firmware to host tools.
	DiscoverReply = "zaxis"

	storageStatsSize = 13
	versionSize      = 4
)

// SnapshotSource provides the live pipeline state for CmdGetStatus.
type SnapshotSource interface {
	Snapshot() Snapshot
}

// Handler executes commands against the device settings and live state.
type Handler struct {
	store  *storage.Manager
	source SnapshotSource
}

// NewHandler creates a handler. store may be nil when flash could not be
// mounted; settings commands then answer StatusError.
func NewHandler(store *storage.Manager, source SnapshotSource) *Handler {
	return &Handler{store: store, source: source}
}

func reply(payload []byte) *Response {
	return &Response{Status: StatusOK, Payload: payload}
}

func answer(code uint8) *Response {
	return &Response{Status: code}
}

// statusOf maps a settings error to the status byte sent to the host.
func statusOf(err error) uint8 {
	switch err {
	case nil:
		return StatusOK
	case storage.ErrNotFound:
		return StatusNotFound
	case config.ErrInvalidSize, config.ErrInvalidOutputMax:
		return StatusInvalidData
	default:
		return StatusError
	}
}

// Handle executes one command.
func (h *Handler) Handle(frame *Frame) *Response {
	switch frame.Cmd {
	case CmdPing:
		return reply(frame.Payload)
	case CmdDiscover:
		return reply([]byte(DiscoverReply))
	case CmdGetVersion:
		return h.version()
	case CmdGetStatus:
		return h.status()
	case CmdGetDeviceConfig:
		return h.loadConfig()
	case CmdSetDeviceConfig:
		return h.storeConfig(frame.Payload)
	case CmdGetStorageStats:
		return h.storageStats()
	case CmdFactoryReset:
		return h.factoryReset()
	}
	return answer(StatusInvalidCmd)
}

// version: [FirmwareMajor:1][FirmwareMinor:1][ConfigVersion:2]
func (h *Handler) version() *Response {
	b := make([]byte, versionSize)
	b[0], b[1] = FirmwareMajor, FirmwareMinor
	binary.LittleEndian.PutUint16(b[2:], config.CurrentVersion)
	return reply(b)
}

// status: [Snapshot:14]
func (h *Handler) status() *Response {
	if h.source == nil {
		return answer(StatusError)
	}
	snap := h.source.Snapshot()
	b, _ := snap.MarshalBinary()
	return reply(b)
}

func (h *Handler) loadConfig() *Response {
	if h.store == nil {
		return answer(StatusError)
	}
	var cfg config.DeviceConfig
	if err := h.store.LoadDevice(&cfg); err != nil {
		return answer(statusOf(err))
	}
	b, _ := cfg.MarshalBinary()
	return reply(b)
}

// storeConfig saves new settings; they take effect on the next boot.
func (h *Handler) storeConfig(payload []byte) *Response {
	if len(payload) != config.Size {
		return answer(StatusInvalidData)
	}
	var cfg config.DeviceConfig
	if err := cfg.UnmarshalBinary(payload); err != nil {
		return answer(StatusInvalidData)
	}
	if cfg.Version != config.CurrentVersion {
		return answer(StatusVersionMismatch)
	}
	if err := cfg.Validate(); err != nil {
		return answer(statusOf(err))
	}
	if h.store == nil {
		return answer(StatusError)
	}
	return answer(statusOf(h.store.SaveDevice(&cfg)))
}

// storageStats: [Total:4][Used:4][Free:4][HasDevice:1]
func (h *Handler) storageStats() *Response {
	if h.store == nil {
		return answer(StatusError)
	}
	st, err := h.store.GetStats()
	if err != nil {
		return answer(statusOf(err))
	}
	b := make([]byte, storageStatsSize)
	binary.LittleEndian.PutUint32(b[0:], uint32(st.TotalSpace))
	binary.LittleEndian.PutUint32(b[4:], uint32(st.UsedSpace))
	binary.LittleEndian.PutUint32(b[8:], uint32(st.FreeSpace))
	if st.HasDevice {
		b[12] = 1
	}
	return reply(b)
}

func (h *Handler) factoryReset() *Response {
	if h.store == nil {
		return answer(StatusError)
	}
	return answer(statusOf(h.store.ForceWipe()))
}
