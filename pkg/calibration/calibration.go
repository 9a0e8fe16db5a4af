// Package calibration tracks the observed span of raw readings and rescales
// readings into the joystick's output range.
package calibration

// Range holds the smallest and largest readings seen since boot.
// It only ever widens.
type Range struct {
	Min uint16
	Max uint16
}

// NewRange returns a range with inverted sentinels, so the first Update
// narrows both bounds onto that reading.
func NewRange() Range {
	return Range{Min: 0xFFFF, Max: 0}
}

// Update widens the range to include reading and returns the new bounds.
func (r *Range) Update(reading uint16) (min, max uint16) {
	if reading < r.Min {
		r.Min = reading
	}
	if reading > r.Max {
		r.Max = reading
	}
	return r.Min, r.Max
}

// Degenerate reports whether the range has zero width (or no readings yet).
func (r *Range) Degenerate() bool {
	return r.Min >= r.Max
}

// Scale maps reading into [0, outMax] using the current bounds.
func (r *Range) Scale(reading uint16, outMax int32) int32 {
	if r.Degenerate() {
		return 0
	}
	return Scale(int32(reading), int32(r.Min), int32(r.Max), 0, outMax)
}

// Scale linearly interpolates x from [inMin, inMax] to [outMin, outMax]
// with truncating integer division.
//
// A zero-width input range returns outMin.
func Scale(x, inMin, inMax, outMin, outMax int32) int32 {
	if inMax == inMin {
		return outMin
	}
	return (x-inMin)*(outMax-outMin)/(inMax-inMin) + outMin
}
