package monitor

// Comparator is the direction in which a reading crosses its threshold.
type Comparator int

const (
	// Above alerts when the reading exceeds the limit (freezer temperature,
	// humidity, tank depth-empty, device offline duration).
	Above Comparator = iota
	// Below alerts when the reading drops under the limit (tank depth-full).
	Below
)

// Exceeds reports whether value crosses limit in the alert direction.
func (c Comparator) Exceeds(value, limit float64) bool {
	if c == Below {
		return value < limit
	}
	return value > limit
}

// Transition classifies the change between two consecutive evaluations of
// one alert.
type Transition int

const (
	// Steady: inactive before and after. The stored record may be refreshed
	// with a new last-check timestamp but stays inactive.
	Steady Transition = iota
	// Raised: the condition just started holding. Notify once, persist an
	// active record with the start time.
	Raised
	// Cleared: the condition just stopped holding. Notify recovery once,
	// persist an inactive record.
	Cleared
	// Sustained: still active. No notification; the record is left alone so
	// the alert duration accumulates from the original raise.
	Sustained
)

// Classify derives the transition from the stored state and the current
// evaluation. Pure; callers decide persistence and notification.
func Classify(wasActive, isActive bool) Transition {
	switch {
	case !wasActive && isActive:
		return Raised
	case wasActive && !isActive:
		return Cleared
	case wasActive && isActive:
		return Sustained
	default:
		return Steady
	}
}

func (t Transition) String() string {
	switch t {
	case Raised:
		return "raised"
	case Cleared:
		return "cleared"
	case Sustained:
		return "sustained"
	default:
		return "steady"
	}
}
