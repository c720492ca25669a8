package viewport

import "fmt"

// TimeUnit selects how axis labels are printed.
type TimeUnit int

const (
	Seconds TimeUnit = iota
	Minutes
)

func ParseTimeUnit(s string) (TimeUnit, error) {
	switch s {
	case "", "s", "seconds":
		return Seconds, nil
	case "m", "minutes":
		return Minutes, nil
	}
	return Seconds, fmt.Errorf("unknown time unit %q", s)
}

func (u TimeUnit) String() string {
	if u == Minutes {
		return "minutes"
	}
	return "seconds"
}

func (u TimeUnit) Toggle() TimeUnit {
	if u == Minutes {
		return Seconds
	}
	return Minutes
}

// Scale converts seconds into the unit.
func (u TimeUnit) Scale(seconds float64) float64 {
	if u == Minutes {
		return seconds / 60
	}
	return seconds
}

// Format prints a time in seconds using the unit.
func (u TimeUnit) Format(seconds float64) string {
	if u == Minutes {
		return fmt.Sprintf("%.2fm", seconds/60)
	}
	return fmt.Sprintf("%.1fs", seconds)
}
