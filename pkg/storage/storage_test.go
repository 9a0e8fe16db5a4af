package storage

import (
	"os"
	"testing"

	"github.com/tuffrabit/tinygo-zaxis-rp2040/pkg/config"

	"tinygo.org/x/tinyfs"
)

func newTestStorage(t *testing.T) (*Manager, *tinyfs.MemBlockDevice) {
	// Memory-backed block device simulating RP2040 flash
	// 256 byte page size, 4096 byte block size, 64 blocks = 256KB
	blockDev := tinyfs.NewMemoryDevice(256, 4096, 64)

	mgr, err := New(blockDev, true)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	return mgr, blockDev
}

// writeRecord stores cfg as-is, skipping validation and version stamping.
func writeRecord(t *testing.T, mgr *Manager, cfg config.DeviceConfig) {
	t.Helper()
	data, _ := cfg.MarshalBinary()
	if err := mgr.fs.Mkdir(configDir, 0755); err != nil && !isExist(err) {
		t.Fatalf("Mkdir failed: %v", err)
	}
	if err := mgr.writeAtomic(deviceFile, data); err != nil {
		t.Fatalf("writeAtomic failed: %v", err)
	}
}

func TestDeviceConfigSaveLoad(t *testing.T) {
	mgr, _ := newTestStorage(t)
	defer mgr.Close()

	original := config.DeviceConfig{
		Flags:     config.FlagCapsLockLED,
		OutputMax: 1023,
	}

	if err := mgr.SaveDevice(&original); err != nil {
		t.Fatalf("SaveDevice failed: %v", err)
	}

	var loaded config.DeviceConfig
	if err := mgr.LoadDevice(&loaded); err != nil {
		t.Fatalf("LoadDevice failed: %v", err)
	}

	if loaded.Version != config.CurrentVersion {
		t.Errorf("Version not set: expected %d, got %d", config.CurrentVersion, loaded.Version)
	}
	if loaded.Flags != original.Flags {
		t.Errorf("Flags: expected 0x%x, got 0x%x", original.Flags, loaded.Flags)
	}
	if loaded.OutputMax != original.OutputMax {
		t.Errorf("OutputMax: expected %d, got %d", original.OutputMax, loaded.OutputMax)
	}
}

func TestDeviceConfigNotFound(t *testing.T) {
	mgr, _ := newTestStorage(t)
	defer mgr.Close()

	var cfg config.DeviceConfig
	if err := mgr.LoadDevice(&cfg); err != ErrNotFound {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestLoadOrDefault(t *testing.T) {
	mgr, _ := newTestStorage(t)
	defer mgr.Close()

	cfg, err := mgr.LoadOrDefault()
	if err != nil {
		t.Fatalf("First boot should not report an error: %v", err)
	}
	if cfg != config.Default() {
		t.Errorf("Expected defaults, got %+v", cfg)
	}

	saved := config.DeviceConfig{Flags: 0, OutputMax: 512}
	if err := mgr.SaveDevice(&saved); err != nil {
		t.Fatalf("SaveDevice failed: %v", err)
	}

	cfg, err = mgr.LoadOrDefault()
	if err != nil {
		t.Fatalf("LoadOrDefault failed: %v", err)
	}
	if cfg.OutputMax != 512 || cfg.Flags != 0 {
		t.Errorf("Expected stored config, got %+v", cfg)
	}
}

func TestLoadOrDefaultRejectsInvalid(t *testing.T) {
	mgr, _ := newTestStorage(t)
	defer mgr.Close()

	writeRecord(t, mgr, config.DeviceConfig{Version: config.CurrentVersion, OutputMax: 0})

	cfg, err := mgr.LoadOrDefault()
	if err != config.ErrInvalidOutputMax {
		t.Errorf("Expected ErrInvalidOutputMax, got %v", err)
	}
	if cfg != config.Default() {
		t.Errorf("Expected defaults, got %+v", cfg)
	}
}

func TestSaveDeviceRejectsInvalid(t *testing.T) {
	mgr, _ := newTestStorage(t)
	defer mgr.Close()

	if err := mgr.SaveDevice(&config.DeviceConfig{OutputMax: 0}); err != config.ErrInvalidOutputMax {
		t.Errorf("Expected ErrInvalidOutputMax, got %v", err)
	}
}

func TestSaveOverwrites(t *testing.T) {
	mgr, _ := newTestStorage(t)
	defer mgr.Close()

	mgr.SaveDevice(&config.DeviceConfig{OutputMax: 100})
	mgr.SaveDevice(&config.DeviceConfig{OutputMax: 200})

	var loaded config.DeviceConfig
	mgr.LoadDevice(&loaded)

	if loaded.OutputMax != 200 {
		t.Errorf("Expected OutputMax 200, got %d", loaded.OutputMax)
	}
}

func TestBootCleanupRemovesTempFiles(t *testing.T) {
	blockDev := tinyfs.NewMemoryDevice(256, 4096, 64)

	mgr, err := New(blockDev, true)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	mgr.SaveDevice(&config.DeviceConfig{OutputMax: 300})

	writeTemp(t, mgr, []byte{1, 2, 3})
	mgr.Close()

	mgr2, err := New(blockDev, false)
	if err != nil {
		t.Fatalf("Failed to reopen storage: %v", err)
	}
	defer mgr2.Close()

	if f, err := mgr2.fs.Open(deviceFile + tempSuffix); err == nil {
		f.Close()
		t.Error("Temp file should be removed at boot")
	}

	var loaded config.DeviceConfig
	if err := mgr2.LoadDevice(&loaded); err != nil {
		t.Fatalf("Device config should survive cleanup: %v", err)
	}
	if loaded.OutputMax != 300 {
		t.Errorf("Expected OutputMax 300, got %d", loaded.OutputMax)
	}
}

// writeTemp leaves data in the record's temp file, as a write cut off
// before its rename would.
func writeTemp(t *testing.T, mgr *Manager, data []byte) {
	t.Helper()
	f, err := mgr.fs.OpenFile(deviceFile+tempSuffix, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
	if err != nil {
		t.Fatalf("OpenFile failed: %v", err)
	}
	f.Write(data)
	f.Close()
}

func TestBootPromotesCompleteTemp(t *testing.T) {
	blockDev := tinyfs.NewMemoryDevice(256, 4096, 64)

	mgr, err := New(blockDev, true)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	if err := mgr.SaveDevice(&config.DeviceConfig{OutputMax: 1000}); err != nil {
		t.Fatalf("SaveDevice failed: %v", err)
	}

	// Power lost with the new record written and the old one gone
	next := config.DeviceConfig{Version: config.CurrentVersion, Flags: config.FlagDiagnostics, OutputMax: 1500}
	data, _ := next.MarshalBinary()
	writeTemp(t, mgr, data)
	if err := mgr.fs.Remove(deviceFile); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	mgr.Close()

	mgr2, err := New(blockDev, false)
	if err != nil {
		t.Fatalf("Failed to reopen storage: %v", err)
	}
	defer mgr2.Close()

	cfg, err := mgr2.LoadOrDefault()
	if err != nil {
		t.Fatalf("LoadOrDefault failed: %v", err)
	}
	if cfg != next {
		t.Errorf("Expected promoted record %+v, got %+v", next, cfg)
	}
	if mgr2.exists(deviceFile + tempSuffix) {
		t.Error("Temp file should be gone after promotion")
	}
}

func TestBootDropsPartialTemp(t *testing.T) {
	blockDev := tinyfs.NewMemoryDevice(256, 4096, 64)

	mgr, err := New(blockDev, true)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	mgr.SaveDevice(&config.DeviceConfig{OutputMax: 1000})
	writeTemp(t, mgr, []byte{1, 2, 3})
	mgr.fs.Remove(deviceFile)
	mgr.Close()

	mgr2, err := New(blockDev, false)
	if err != nil {
		t.Fatalf("Failed to reopen storage: %v", err)
	}
	defer mgr2.Close()

	var cfg config.DeviceConfig
	if err := mgr2.LoadDevice(&cfg); err != ErrNotFound {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if mgr2.exists(deviceFile + tempSuffix) {
		t.Error("Partial temp file should be removed")
	}
}

func TestVersionMismatchWipe(t *testing.T) {
	blockDev := tinyfs.NewMemoryDevice(256, 4096, 64)

	mgr, err := New(blockDev, true)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	// Record from another firmware
	writeRecord(t, mgr, config.DeviceConfig{Version: config.CurrentVersion + 1, OutputMax: 999})
	mgr.Close()

	mgr2, err := New(blockDev, false)
	if err != nil {
		t.Fatalf("Failed to reopen storage: %v", err)
	}
	defer mgr2.Close()

	var device config.DeviceConfig
	if err := mgr2.LoadDevice(&device); err != ErrNotFound {
		t.Errorf("Expected mismatched config to be wiped, got %v", err)
	}
}

func TestVersionMatchKeeps(t *testing.T) {
	blockDev := tinyfs.NewMemoryDevice(256, 4096, 64)

	mgr, err := New(blockDev, true)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	mgr.SaveDevice(&config.DeviceConfig{OutputMax: 777})
	mgr.Close()

	mgr2, err := New(blockDev, false)
	if err != nil {
		t.Fatalf("Failed to reopen storage: %v", err)
	}
	defer mgr2.Close()

	var device config.DeviceConfig
	if err := mgr2.LoadDevice(&device); err != nil {
		t.Fatalf("Device config should exist: %v", err)
	}
	if device.OutputMax != 777 {
		t.Errorf("Expected OutputMax 777, got %d", device.OutputMax)
	}
}

func TestFactoryReset(t *testing.T) {
	mgr, _ := newTestStorage(t)
	defer mgr.Close()

	mgr.SaveDevice(&config.DeviceConfig{OutputMax: 10})

	if err := mgr.ForceWipe(); err != nil {
		t.Fatalf("ForceWipe failed: %v", err)
	}

	var device config.DeviceConfig
	if err := mgr.LoadDevice(&device); err != ErrNotFound {
		t.Errorf("Expected device config to be wiped, got %v", err)
	}

	// Wiping an empty store is not an error
	if err := mgr.ForceWipe(); err != nil {
		t.Errorf("Second ForceWipe failed: %v", err)
	}
}

func TestStorageStats(t *testing.T) {
	mgr, blockDev := newTestStorage(t)
	defer mgr.Close()

	stats1, err := mgr.GetStats()
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats1.HasDevice {
		t.Error("Expected no device config on fresh storage")
	}
	if stats1.TotalSpace != blockDev.Size() {
		t.Errorf("TotalSpace: expected %d, got %d", blockDev.Size(), stats1.TotalSpace)
	}

	mgr.SaveDevice(&config.DeviceConfig{OutputMax: 10})

	stats2, err := mgr.GetStats()
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if !stats2.HasDevice {
		t.Error("Expected device config after save")
	}
	if stats2.UsedSpace <= stats1.UsedSpace {
		t.Errorf("UsedSpace should grow: %d -> %d", stats1.UsedSpace, stats2.UsedSpace)
	}
	if stats2.FreeSpace != stats2.TotalSpace-stats2.UsedSpace {
		t.Error("FreeSpace should equal TotalSpace - UsedSpace")
	}
}

func BenchmarkDeviceSave(b *testing.B) {
	blockDev := tinyfs.NewMemoryDevice(256, 4096, 64)
	mgr, err := New(blockDev, true)
	if err != nil {
		b.Fatalf("Failed to create storage: %v", err)
	}
	defer mgr.Close()

	cfg := config.Default()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		mgr.SaveDevice(&cfg)
	}
}
