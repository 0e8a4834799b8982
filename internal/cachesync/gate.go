package cachesync

import "time"

// Gate permits sync runs only during configured hours of the day.
type Gate struct {
	hours map[int]struct{}
}

// NewGate creates a gate for the given hours (0-23). No hours means always permitted.
func NewGate(hours []int) Gate {
	if len(hours) == 0 {
		return Gate{}
	}
	g := Gate{hours: make(map[int]struct{}, len(hours))}
	for _, h := range hours {
		g.hours[h] = struct{}{}
	}
	return g
}

// Permits reports whether a run may start at now, judged on the local hour of now.
func (g Gate) Permits(now time.Time) bool {
	if len(g.hours) == 0 {
		return true
	}
	_, ok := g.hours[now.Hour()]
	return ok
}
