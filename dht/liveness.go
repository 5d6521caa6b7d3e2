package dht

import "time"

// Liveness is derived from the time since a node last answered us, it is never stored.
type Liveness uint8

const (
	Live Liveness = iota
	Stale
)

func (l Liveness) String() string {
	switch l {
	case Live:
		return "live"
	case Stale:
		return "stale"
	default:
		return "unknown"
	}
}

// Classify returns Stale iff more than threshold has passed between lastContact and now.
func Classify(lastContact, now time.Time, threshold time.Duration) Liveness {
	if now.Sub(lastContact) > threshold {
		return Stale
	}
	return Live
}
