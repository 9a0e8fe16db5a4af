// Package sampler reads a power-of-two burst of conversions from a streaming
// ADC and averages them into a single reading.
package sampler

import "time"

const (
	// MaxPow is the largest supported burst exponent.
	// 4096 samples of 12 bits sum to at most 0xFFF000, well inside uint32.
	MaxPow = 12

	// DefaultPow is the burst exponent used by the firmware (64 samples).
	DefaultPow = 6

	// conversionTime is one RP2040 ADC conversion: 96 cycles of the 48MHz ADC clock.
	conversionTime = 2 * time.Microsecond
)

// Converter is an ADC running in free-running mode with a sample FIFO.
type Converter interface {
	// Start configures the FIFO and starts free-running conversions.
	Start()

	// Next blocks until the FIFO holds a sample and returns it.
	Next() uint16

	// Stop halts conversions and drains the FIFO.
	Stop()
}

// Capture collects 2^pow samples from c and returns their mean.
//
// The converter is started on entry and always stopped and drained before
// returning, so no samples carry over between calls. pow values above
// MaxPow are clamped. Capture blocks for Latency(pow).
func Capture(c Converter, pow uint8) uint16 {
	if pow > MaxPow {
		pow = MaxPow
	}

	count := uint16(1)<<pow - 1
	var total uint32

	c.Start()
	defer c.Stop()

	for i := 0; i <= int(count); i++ {
		total += uint32(c.Next())
	}

	return uint16(total >> pow)
}

// Latency returns the worst-case duration of Capture for the given pow.
func Latency(pow uint8) time.Duration {
	if pow > MaxPow {
		pow = MaxPow
	}
	return time.Duration(1<<pow) * conversionTime
}
