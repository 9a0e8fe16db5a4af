package link

// Edges turns sampled USB controller state into lifecycle events.
type Edges struct {
	mounted   bool
	suspended bool
}

// Update compares the sampled state with the previous sample and passes
// the resulting events to handle. Suspend is only tracked while mounted.
// It reports whether the mount state changed; transfers in flight are lost
// on such an edge.
func (e *Edges) Update(mounted, suspended, wakeAllowed bool, handle func(Event)) (remounted bool) {
	if mounted != e.mounted {
		e.mounted = mounted
		e.suspended = false
		remounted = true
		if mounted {
			handle(Mounted())
		} else {
			handle(Unmounted())
		}
	}
	if !mounted || suspended == e.suspended {
		return remounted
	}

	e.suspended = suspended
	if suspended {
		handle(Suspended(wakeAllowed))
	} else {
		handle(Resumed())
	}
	return remounted
}
