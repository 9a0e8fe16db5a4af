package display

// flushInterval is the shortest time in ms between two panel pushes. A
// full-panel I2C write takes a few ms and must not starve the report
// dispatcher.
const flushInterval = 250

// flushSchedule batches row changes into at most one panel push per
// flushInterval.
type flushSchedule struct {
	last  uint32
	dirty bool
}

// mark records that the frame buffer differs from the panel.
func (s *flushSchedule) mark() {
	s.dirty = true
}

// tick reports whether a new window starts at now.
func (s *flushSchedule) tick(now uint32) bool {
	if now-s.last < flushInterval {
		return false
	}
	s.last = now
	return true
}

// take reports whether a push is pending and clears it.
func (s *flushSchedule) take() bool {
	dirty := s.dirty
	s.dirty = false
	return dirty
}
