package main

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/tuffrabit/tinygo-zaxis-rp2040/pkg/config"
	"github.com/tuffrabit/tinygo-zaxis-rp2040/pkg/protocol"
)

var (
	errTimeout  = errors.New("timeout waiting for device")
	errBadReply = errors.New("unexpected reply payload")
)

// StatusError is a non-OK status byte returned by the device.
type StatusError uint8

func (e StatusError) Error() string {
	switch uint8(e) {
	case protocol.StatusError:
		return "device error"
	case protocol.StatusInvalidCmd:
		return "invalid command"
	case protocol.StatusInvalidData:
		return "invalid data"
	case protocol.StatusNotFound:
		return "not found"
	case protocol.StatusNoSpace:
		return "no space"
	case protocol.StatusVersionMismatch:
		return "version mismatch"
	case protocol.StatusCRCError:
		return "CRC error"
	default:
		return fmt.Sprintf("status 0x%02x", uint8(e))
	}
}

// StorageStats is the reply to CmdGetStorageStats.
type StorageStats struct {
	Total     uint32
	Used      uint32
	Free      uint32
	HasConfig bool
}

// Client issues protocol commands over a serial connection.
type Client struct {
	rw io.ReadWriter
}

// NewClient wraps a connection. Reads that return no data are retried
// until timeout elapses.
func NewClient(rw io.ReadWriter, timeout time.Duration) *Client {
	return &Client{rw: &struct {
		io.Reader
		io.Writer
	}{&deadlineReader{r: rw, timeout: timeout}, rw}}
}

func (c *Client) call(cmd uint8, payload []byte) ([]byte, error) {
	if err := protocol.WriteFrame(c.rw, &protocol.Frame{Cmd: cmd, Payload: payload}); err != nil {
		return nil, err
	}
	resp, err := protocol.ReadResponse(c.rw)
	if err != nil {
		return nil, err
	}
	if resp.Status != protocol.StatusOK {
		return nil, StatusError(resp.Status)
	}
	return resp.Payload, nil
}

// Ping sends payload and checks the echo.
func (c *Client) Ping(payload []byte) error {
	reply, err := c.call(protocol.CmdPing, payload)
	if err != nil {
		return err
	}
	if !bytes.Equal(reply, payload) {
		return errBadReply
	}
	return nil
}

// Discover reports whether the device runs this firmware.
func (c *Client) Discover() (bool, error) {
	reply, err := c.call(protocol.CmdDiscover, nil)
	if err != nil {
		return false, err
	}
	return string(reply) == protocol.DiscoverReply, nil
}

// Version returns the firmware version and the config record version.
func (c *Client) Version() (major, minor uint8, cfgVersion uint16, err error) {
	reply, err := c.call(protocol.CmdGetVersion, nil)
	if err != nil {
		return 0, 0, 0, err
	}
	if len(reply) != 4 {
		return 0, 0, 0, errBadReply
	}
	return reply[0], reply[1], binary.LittleEndian.Uint16(reply[2:]), nil
}

// Status returns the live pipeline snapshot.
func (c *Client) Status() (protocol.Snapshot, error) {
	var snap protocol.Snapshot
	reply, err := c.call(protocol.CmdGetStatus, nil)
	if err != nil {
		return snap, err
	}
	err = snap.UnmarshalBinary(reply)
	return snap, err
}

// GetConfig returns the stored device settings.
func (c *Client) GetConfig() (config.DeviceConfig, error) {
	var cfg config.DeviceConfig
	reply, err := c.call(protocol.CmdGetDeviceConfig, nil)
	if err != nil {
		return cfg, err
	}
	err = cfg.UnmarshalBinary(reply)
	return cfg, err
}

// SetConfig stores new device settings. They apply after a reboot.
func (c *Client) SetConfig(cfg config.DeviceConfig) error {
	cfg.Version = config.CurrentVersion
	payload, err := cfg.MarshalBinary()
	if err != nil {
		return err
	}
	_, err = c.call(protocol.CmdSetDeviceConfig, payload)
	return err
}

// Stats returns flash usage.
func (c *Client) Stats() (StorageStats, error) {
	reply, err := c.call(protocol.CmdGetStorageStats, nil)
	if err != nil {
		return StorageStats{}, err
	}
	if len(reply) != 13 {
		return StorageStats{}, errBadReply
	}
	return StorageStats{
		Total:     binary.LittleEndian.Uint32(reply[0:]),
		Used:      binary.LittleEndian.Uint32(reply[4:]),
		Free:      binary.LittleEndian.Uint32(reply[8:]),
		HasConfig: reply[12] != 0,
	}, nil
}

// FactoryReset erases the stored settings.
func (c *Client) FactoryReset() error {
	_, err := c.call(protocol.CmdFactoryReset, nil)
	return err
}

// deadlineReader turns empty reads from a port with a read timeout into
// retries, and gives up after timeout without data.
type deadlineReader struct {
	r       io.Reader
	timeout time.Duration
}

func (d *deadlineReader) Read(p []byte) (int, error) {
	deadline := time.Now().Add(d.timeout)
	for {
		n, err := d.r.Read(p)
		if n > 0 {
			return n, nil
		}
		if err != nil && err != io.EOF {
			return 0, err
		}
		if time.Now().After(deadline) {
			return 0, errTimeout
		}
	}
}
