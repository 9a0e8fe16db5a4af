// Package storage persists the device settings on LittleFS in the RP2040
// flash. Writes go to a temporary file that is renamed over the record, so
// a power cut leaves either the old or the new settings. A complete
// temporary record with no record beside it is promoted at boot.
package storage

import (
	"errors"
	"os"
	"path"
	"strings"

	"github.com/tuffrabit/tinygo-zaxis-rp2040/pkg/config"

	"tinygo.org/x/tinyfs"
	"tinygo.org/x/tinyfs/littlefs"
)

const (
	configDir  = "/config"
	deviceFile = configDir + "/device.bin"
	tempSuffix = ".tmp"

	// deviceFileFootprint estimates the flash taken by the settings record:
	// 12 bytes of data plus LittleFS metadata and the directory entry.
	deviceFileFootprint = 100
)

var (
	ErrNotFound      = errors.New("device config not found")
	ErrInvalidConfig = errors.New("invalid device config data")
)

// Manager owns the mounted filesystem.
type Manager struct {
	fs       *littlefs.LFS
	blockDev tinyfs.BlockDevice
	mounted  bool
}

// Stats describes flash usage.
type Stats struct {
	TotalSpace int64
	UsedSpace  int64
	FreeSpace  int64
	HasDevice  bool
}

// New mounts the filesystem on blockDev, formatting it first when format is
// set and the mount fails. It then drops leftovers of interrupted writes and
// any record written by an incompatible firmware.
func New(blockDev tinyfs.BlockDevice, format bool) (*Manager, error) {
	lfs := littlefs.New(blockDev)
	lfs.Configure(&littlefs.Config{
		CacheSize:     512,
		LookaheadSize: 128,
	})

	if err := mount(lfs, format); err != nil {
		return nil, err
	}

	m := &Manager{fs: lfs, blockDev: blockDev, mounted: true}

	m.recoverTemps()

	var cfg config.DeviceConfig
	if err := m.LoadDevice(&cfg); err == nil && cfg.Version != config.CurrentVersion {
		if err := m.ForceWipe(); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func mount(lfs *littlefs.LFS, format bool) error {
	err := lfs.Mount()
	if err == nil || !format {
		return err
	}
	if err := lfs.Format(); err != nil {
		return err
	}
	return lfs.Mount()
}

// Close unmounts the filesystem.
func (m *Manager) Close() error {
	if !m.mounted {
		return nil
	}
	m.mounted = false
	return m.fs.Unmount()
}

// recoverTemps settles writes cut short by a power loss. A full-size temp
// record whose target is missing is renamed into place; any other temp
// file is removed.
func (m *Manager) recoverTemps() {
	dir, err := m.fs.Open(configDir)
	if err != nil {
		return
	}
	if !dir.IsDir() {
		dir.Close()
		return
	}
	entries, err := dir.Readdir(-1)
	dir.Close()
	if err != nil {
		return
	}

	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), tempSuffix) {
			continue
		}
		tmp := path.Join(configDir, e.Name())
		target := strings.TrimSuffix(tmp, tempSuffix)
		if target == deviceFile && e.Size() == config.Size && !m.exists(target) {
			if m.fs.Rename(tmp, target) == nil {
				continue
			}
		}
		m.fs.Remove(tmp)
	}
}

func (m *Manager) exists(name string) bool {
	_, err := m.fs.Stat(name)
	return err == nil
}

// LoadDevice reads the stored settings into cfg.
func (m *Manager) LoadDevice(cfg *config.DeviceConfig) error {
	f, err := m.fs.Open(deviceFile)
	if isNotExist(err) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	defer f.Close()

	var buf [config.Size]byte
	n, err := f.Read(buf[:])
	if err != nil {
		return err
	}
	if n != config.Size {
		return ErrInvalidConfig
	}
	return cfg.UnmarshalBinary(buf[:])
}

// LoadOrDefault returns the stored settings, or the factory settings when
// none are stored or the stored ones are unusable. The error says why the
// defaults were used; it is nil on first boot.
func (m *Manager) LoadOrDefault() (config.DeviceConfig, error) {
	var cfg config.DeviceConfig
	err := m.LoadDevice(&cfg)
	switch {
	case err == ErrNotFound:
		return config.Default(), nil
	case err != nil:
		return config.Default(), err
	}
	if err := cfg.Validate(); err != nil {
		return config.Default(), err
	}
	return cfg, nil
}

// SaveDevice validates cfg, stamps the current version and stores it.
func (m *Manager) SaveDevice(cfg *config.DeviceConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := m.fs.Mkdir(configDir, 0755); err != nil && !isExist(err) {
		return err
	}

	cfg.Version = config.CurrentVersion
	data, err := cfg.MarshalBinary()
	if err != nil {
		return err
	}
	return m.writeAtomic(deviceFile, data)
}

// GetStats reports flash usage. LittleFS has no free-space query, so usage
// is estimated from what this package stores.
func (m *Manager) GetStats() (*Stats, error) {
	st := &Stats{TotalSpace: m.blockDev.Size()}
	if f, err := m.fs.Open(deviceFile); err == nil {
		f.Close()
		st.HasDevice = true
		st.UsedSpace = deviceFileFootprint
	}
	st.FreeSpace = st.TotalSpace - st.UsedSpace
	return st, nil
}

// ForceWipe erases the stored settings (factory reset). Wiping an empty
// store is not an error.
func (m *Manager) ForceWipe() error {
	if err := m.fs.Remove(deviceFile); err != nil && !isNotExist(err) {
		return err
	}
	return nil
}

// writeAtomic writes data to name via a synced temp file and a rename.
func (m *Manager) writeAtomic(name string, data []byte) (err error) {
	tmp := name + tempSuffix
	m.fs.Remove(tmp)

	f, err := m.fs.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			m.fs.Remove(tmp)
		}
	}()

	if _, err = f.Write(data); err != nil {
		f.Close()
		return err
	}
	if s, ok := f.(interface{ Sync() error }); ok {
		if err = s.Sync(); err != nil {
			f.Close()
			return err
		}
	}
	if err = f.Close(); err != nil {
		return err
	}

	// Replaces name in one metadata commit
	return m.fs.Rename(tmp, name)
}

// isExist also matches LittleFS error text, which os.IsExist misses.
func isExist(err error) bool {
	return err != nil && (os.IsExist(err) || strings.Contains(err.Error(), "already exists"))
}

// isNotExist also matches LittleFS error text, which os.IsNotExist misses.
func isNotExist(err error) bool {
	return err != nil && (os.IsNotExist(err) || strings.Contains(err.Error(), "No directory entry"))
}
