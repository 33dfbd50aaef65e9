package app

// Interval gates work to at most once per Period milliseconds. The first
// call is always due. Late calls do not accumulate debt.
type Interval struct {
	Period  int64
	last    int64
	started bool
}

func (i *Interval) Due(nowMs int64) bool {
	if i.started && nowMs-i.last < i.Period {
		return false
	}
	i.started = true
	i.last = nowMs
	return true
}

// Reset makes the next call due.
func (i *Interval) Reset() { i.started = false }
