// Package clock reconciles the debugger's monotonic timestamps with its
// less-reliable wall-clock samples.
package clock

import (
	"fmt"
	"time"
)

// TimeLord observes (monotonic, wall) sample pairs and produces a stable
// mapping from monotonic time to wall time. The wall-minus-monotonic offset
// at the smallest observed timestamp anchors every estimate, so estimates
// are monotonic in the input timestamp even when the raw wall-clock samples
// are not. The min/max offsets seen across all samples are kept only to
// report skew magnitude.
type TimeLord struct {
	samples      int
	anchorTS     float64
	anchorOffset float64
	minOffset    float64
	maxOffset    float64
}

func New() *TimeLord { return &TimeLord{} }

// Record observes one sample pair. Pairs may arrive in any order.
func (t *TimeLord) Record(timestamp, wallTime float64) {
	offset := wallTime - timestamp
	if t.samples == 0 {
		t.anchorTS, t.anchorOffset = timestamp, offset
		t.minOffset, t.maxOffset = offset, offset
	} else {
		if timestamp < t.anchorTS {
			t.anchorTS, t.anchorOffset = timestamp, offset
		}
		if offset < t.minOffset {
			t.minOffset = offset
		}
		if offset > t.maxOffset {
			t.maxOffset = offset
		}
	}
	t.samples++
}

// EstimateWallTime converts a monotonic timestamp to estimated epoch
// seconds. With no recorded samples the timestamp is returned unchanged.
// For any t1 < t2, EstimateWallTime(t1) <= EstimateWallTime(t2).
func (t *TimeLord) EstimateWallTime(timestamp float64) float64 {
	if t.samples == 0 {
		return timestamp
	}
	return t.anchorOffset + timestamp
}

// EstimateTime is EstimateWallTime as a time.Time in UTC.
func (t *TimeLord) EstimateTime(timestamp float64) time.Time {
	wall := t.EstimateWallTime(timestamp)
	sec := int64(wall)
	nsec := int64((wall - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec).UTC()
}

// SkewReport summarizes the observed clock skew for the archive comment.
func (t *TimeLord) SkewReport() string {
	if t.samples == 0 {
		return "no clock samples observed"
	}
	spread := t.maxOffset - t.minOffset
	return fmt.Sprintf("monotonic/wall clock skew spread %.3fms across %d samples", spread*1000, t.samples)
}
