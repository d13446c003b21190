package monitor

// Detector holds the baseline status. It starts awaiting a baseline; the
// first observation is adopted silently and later ones are compared to the
// one before.
//
// Not safe for concurrent use; it belongs to the poll loop.
type Detector struct {
	baseline Status
	ready    bool
}

// Observe records cur as the new baseline and reports the previous one and
// whether cur differs from it. The first call never reports a change.
func (d *Detector) Observe(cur Status) (prev Status, changed bool) {
	prev, ready := d.baseline, d.ready
	d.baseline, d.ready = cur, true
	if !ready {
		return cur, false
	}
	return prev, cur != prev
}

// Baseline returns the current baseline; ok is false until the first
// observation.
func (d *Detector) Baseline() (s Status, ok bool) {
	return d.baseline, d.ready
}
