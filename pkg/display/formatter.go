package display

import (
	"fmt"

	"github.com/tuffrabit/tinygo-zaxis-rp2040/pkg/link"
	"github.com/tuffrabit/tinygo-zaxis-rp2040/pkg/protocol"
	"github.com/tuffrabit/tinygo-zaxis-rp2040/pkg/report"
)

// Cols is the character width of a display row.
const Cols = 21

// hexPreview is how many payload bytes a traffic row shows.
const hexPreview = 4

var cmdNames = map[uint8]string{
	protocol.CmdGetDeviceConfig: "GetDevCfg",
	protocol.CmdSetDeviceConfig: "SetDevCfg",
	protocol.CmdGetStorageStats: "GetStor",
	protocol.CmdPing:            "Ping",
	protocol.CmdFactoryReset:    "FctRst",
	protocol.CmdDiscover:        "Discvr",
	protocol.CmdGetVersion:      "GetVer",
	protocol.CmdGetStatus:       "GetSts",
}

var statusNames = map[uint8]string{
	protocol.StatusOK:              "OK",
	protocol.StatusError:           "Err",
	protocol.StatusInvalidCmd:      "InvCmd",
	protocol.StatusInvalidData:     "InvData",
	protocol.StatusNotFound:        "NotFnd",
	protocol.StatusNoSpace:         "NoSpace",
	protocol.StatusVersionMismatch: "VerMis",
	protocol.StatusCRCError:        "CRC",
}

// FormatStatus renders a snapshot as three rows: reading, calibration
// range, link state with the last dispatch.
func FormatStatus(snap protocol.Snapshot) [3]string {
	return [3]string{
		fmt.Sprintf("R%04d Z%04d", snap.Raw, snap.Scaled),
		fmt.Sprintf("%04d..%04d", snap.Min, snap.Max),
		fmt.Sprintf("%s %s %04d", link.State(snap.Link), report.Outcome(snap.Outcome), snap.LastSent),
	}
}

// FormatIncoming returns a hex row and a decoded row for a request.
func FormatIncoming(frame *protocol.Frame) (hex, decoded string) {
	return hexRow(frame.Cmd, frame.Payload), decodedRow(cmdNames, "Cmd", frame.Cmd, len(frame.Payload))
}

// FormatOutgoing returns a hex row and a decoded row for a response.
func FormatOutgoing(resp *protocol.Response) (hex, decoded string) {
	return hexRow(resp.Status, resp.Payload), decodedRow(statusNames, "Sts", resp.Status, len(resp.Payload))
}

// FormatError shortens err to fit after an "ERR:" prefix.
func FormatError(err error) string {
	return truncate(err.Error(), Cols-4)
}

func decodedRow(names map[uint8]string, prefix string, code uint8, n int) string {
	name, ok := names[code]
	if !ok {
		name = fmt.Sprintf("%s%02X", prefix, code)
	}
	return fmt.Sprintf("%s[%d]", name, n)
}

// hexRow shows sync, code, length and up to hexPreview payload bytes,
// e.g. "AA 08 0200 0102 ..". The trailing dots stand for the CRC.
func hexRow(code uint8, payload []byte) string {
	n := len(payload)
	row := fmt.Sprintf("%02X %02X %02X%02X ", protocol.SyncByte, code, byte(n), byte(n>>8))

	switch {
	case n > hexPreview:
		row += fmt.Sprintf("%X..", payload[:hexPreview])
	case n > 0:
		row += fmt.Sprintf("%X ", payload)
	}
	return row + ".."
}

func truncate(s string, max int) string {
	switch {
	case len(s) <= max:
		return s
	case max <= 2:
		return s[:max]
	}
	return s[:max-2] + ".."
}
