package domain

import "time"

// DefaultStaleAfter is how long a details, stageflow or historical forecast row stays usable.
const DefaultStaleAfter = 15 * time.Minute

// Freshness is the outcome of a cache lookup.
type Freshness int

const (
	Absent Freshness = iota
	Stale
	Fresh
)

func (f Freshness) String() string {
	switch f {
	case Fresh:
		return "fresh"
	case Stale:
		return "stale"
	default:
		return "absent"
	}
}

// NeedsFetch reports whether the lookup result must be replaced by a new fetch.
func (f Freshness) NeedsFetch() bool {
	return f != Fresh
}

// Classify decides whether a cached snapshot can be reused at time now.
// A row is stale when now - FetchedAt is strictly greater than staleAfter
// and its kind expires at all.
func Classify(snap Snapshot, found bool, now time.Time, staleAfter time.Duration) Freshness {
	if !found {
		return Absent
	}
	if snap.Kind.Expires() && now.Sub(snap.FetchedAt) > staleAfter {
		return Stale
	}
	return Fresh
}
