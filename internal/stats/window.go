package stats

import "github.com/ehrlich-behrlich/diskbench/internal/constants"

// MovingWindow implements the sweep driver's adaptive early-termination
// rule: keep the last constants.MinTests throughput values; once the
// window is full, a new observation that is no better than their mean
// signals the dimension should stop growing.
type MovingWindow struct {
	values []float64
}

// Observe records v and reports whether the dimension should terminate:
// true once the window holds MinTests values and v is less than or equal
// to their mean.
func (m *MovingWindow) Observe(v float64) bool {
	m.values = append(m.values, v)
	if len(m.values) > constants.MinTests {
		m.values = m.values[len(m.values)-constants.MinTests:]
	}
	if len(m.values) < constants.MinTests {
		return false
	}

	var sum float64
	for _, x := range m.values {
		sum += x
	}
	mean := sum / float64(len(m.values))
	return v <= mean
}
