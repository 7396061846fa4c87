package domain

import (
	"fmt"
	"time"
)

// Interval is the half-open range [Start, End).
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (iv Interval) Validate() error {
	if !iv.Start.Before(iv.End) {
		return fmt.Errorf("%w: start %s is not before end %s", ErrInvalidInterval,
			iv.Start.Format(time.RFC3339), iv.End.Format(time.RFC3339))
	}
	return nil
}

// Overlaps reports whether the two intervals share any instant.
func (iv Interval) Overlaps(o Interval) bool {
	return iv.Start.Before(o.End) && o.Start.Before(iv.End)
}

// Nights is the stay length rounded up to whole 24h periods, at least 1.
func (iv Interval) Nights() int {
	d := iv.End.Sub(iv.Start)
	n := int(d / (24 * time.Hour))
	if d%(24*time.Hour) != 0 {
		n++
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Extend returns the interval with its end pushed out by d.
func (iv Interval) Extend(d time.Duration) Interval {
	return Interval{Start: iv.Start, End: iv.End.Add(d)}
}
