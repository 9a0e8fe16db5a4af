//go:build !tinygo

// zaxisctl talks to the joystick over its USB CDC serial port.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/tarm/serial"

	"github.com/tuffrabit/tinygo-zaxis-rp2040/pkg/config"
	"github.com/tuffrabit/tinygo-zaxis-rp2040/pkg/link"
	"github.com/tuffrabit/tinygo-zaxis-rp2040/pkg/protocol"
	"github.com/tuffrabit/tinygo-zaxis-rp2040/pkg/report"
)

var (
	device  = flag.String("device", "/dev/ttyACM0", "Serial device path")
	baud    = flag.Int("baud", 115200, "Baud rate (ignored for USB CDC)")
	timeout = flag.Duration("timeout", 2*time.Second, "Reply timeout")
)

func main() {
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	port, err := serial.OpenPort(&serial.Config{
		Name:        *device,
		Baud:        *baud,
		ReadTimeout: 100 * time.Millisecond,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open serial port %s: %v\n", *device, err)
		os.Exit(1)
	}
	defer port.Close()

	client := NewClient(port, *timeout)

	cmd, args := flag.Arg(0), flag.Args()[1:]
	if cmd == "watch" {
		err = watch(&deadlineReader{r: port, timeout: *timeout})
	} else {
		err = run(client, cmd, args)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: zaxisctl [flags] <command> [args]\n\n")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  ping           - Check the device answers")
	fmt.Fprintln(os.Stderr, "  discover       - Check the device runs this firmware")
	fmt.Fprintln(os.Stderr, "  version        - Show firmware and config versions")
	fmt.Fprintln(os.Stderr, "  status         - Show reading, calibration range and link state")
	fmt.Fprintln(os.Stderr, "  watch          - Print the diagnostic stream")
	fmt.Fprintln(os.Stderr, "  get-config     - Show stored settings")
	fmt.Fprintln(os.Stderr, "  set-config     - Store settings (see set-config -h)")
	fmt.Fprintln(os.Stderr, "  stats          - Show flash usage")
	fmt.Fprintln(os.Stderr, "  reset          - Erase stored settings")
	fmt.Fprintln(os.Stderr, "\nFlags:")
	flag.PrintDefaults()
}

func run(c *Client, cmd string, args []string) error {
	switch cmd {
	case "ping":
		if err := c.Ping([]byte("zaxis")); err != nil {
			return fmt.Errorf("ping failed: %w", err)
		}
		fmt.Println("pong")

	case "discover":
		ok, err := c.Discover()
		if err != nil {
			return fmt.Errorf("discover failed: %w", err)
		}
		fmt.Println(ok)

	case "version":
		major, minor, cfgVersion, err := c.Version()
		if err != nil {
			return fmt.Errorf("version failed: %w", err)
		}
		fmt.Printf("firmware %d.%d, config v%d\n", major, minor, cfgVersion)

	case "status":
		snap, err := c.Status()
		if err != nil {
			return fmt.Errorf("status failed: %w", err)
		}
		printStatus(snap)

	case "get-config":
		cfg, err := c.GetConfig()
		if err != nil {
			return fmt.Errorf("get-config failed: %w", err)
		}
		printConfig(cfg)

	case "set-config":
		return setConfig(c, args)

	case "stats":
		stats, err := c.Stats()
		if err != nil {
			return fmt.Errorf("stats failed: %w", err)
		}
		fmt.Printf("total %d, used %d, free %d, config stored: %v\n",
			stats.Total, stats.Used, stats.Free, stats.HasConfig)

	case "reset":
		if err := c.FactoryReset(); err != nil {
			return fmt.Errorf("reset failed: %w", err)
		}
		fmt.Println("settings erased; defaults apply after reboot")

	default:
		return fmt.Errorf("unknown command: %s", cmd)
	}
	return nil
}

// setConfig starts from the stored settings (or defaults) and applies the
// given flags.
func setConfig(c *Client, args []string) error {
	fs := flag.NewFlagSet("set-config", flag.ContinueOnError)
	outputMax := fs.Uint("output-max", uint(config.DefaultOutputMax), "Logical maximum of the Z axis (1..32767)")
	diag := fs.Bool("diag", true, "Write the diagnostic stream")
	caps := fs.Bool("caps", true, "Mirror capslock on the LED")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *outputMax == 0 || *outputMax > uint(config.MaxOutputMax) {
		return fmt.Errorf("output-max %d out of range 1..%d", *outputMax, config.MaxOutputMax)
	}

	cfg, err := c.GetConfig()
	if err == StatusError(protocol.StatusNotFound) {
		cfg = config.Default()
	} else if err != nil {
		return fmt.Errorf("get-config failed: %w", err)
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "output-max":
			cfg.OutputMax = uint16(*outputMax)
		case "diag":
			cfg.Flags = setFlag(cfg.Flags, config.FlagDiagnostics, *diag)
		case "caps":
			cfg.Flags = setFlag(cfg.Flags, config.FlagCapsLockLED, *caps)
		}
	})

	if err := c.SetConfig(cfg); err != nil {
		return fmt.Errorf("set-config failed: %w", err)
	}
	printConfig(cfg)
	fmt.Println("stored; applies after reboot")
	return nil
}

func setFlag(flags, bit uint32, on bool) uint32 {
	if on {
		return flags | bit
	}
	return flags &^ bit
}

// watch copies the diagnostic stream to stdout. It stops when the stream
// goes quiet for longer than the reply timeout.
func watch(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fmt.Println(scanner.Text())
	}
	return scanner.Err()
}

func printStatus(snap protocol.Snapshot) {
	fmt.Printf("raw       %d\n", snap.Raw)
	fmt.Printf("scaled    %d\n", snap.Scaled)
	fmt.Printf("range     %d..%d\n", snap.Min, snap.Max)
	fmt.Printf("last sent %d\n", snap.LastSent)
	fmt.Printf("link      %s\n", link.State(snap.Link))
	fmt.Printf("dispatch  %s\n", report.Outcome(snap.Outcome))
}

func printConfig(cfg config.DeviceConfig) {
	fmt.Printf("version      %d\n", cfg.Version)
	fmt.Printf("output max   %d\n", cfg.OutputMax)
	fmt.Printf("diagnostics  %v\n", cfg.Diagnostics())
	fmt.Printf("capslock LED %v\n", cfg.CapsLockLED())
}
