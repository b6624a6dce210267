package flight

import (
	"context"

	"github.com/warp/flight-engine/logger"
)

// SearchResult lists itineraries in ordinal order.
type SearchResult struct {
	Itineraries []Itinerary
}

// NoMatches reports an empty search.
func (r SearchResult) NoMatches() bool { return len(r.Itineraries) == 0 }

// Search fetches direct flights first, then (unless DirectOnly) one-stop
// pairs to fill the remaining budget, and numbers them in fetch order.
// Direct results are never re-sorted against one-stop results.
//
// On success the session cache is replaced, even when nothing matched.
// On store failure the cache is left untouched.
func (e *Engine) Search(ctx context.Context, s *Session, q SearchQuery) (SearchResult, error) {
	if q.Limit <= 0 {
		s.itineraries.replace(nil)
		return SearchResult{}, nil
	}

	directs, err := e.store.DirectFlights(ctx, q.Origin, q.Destination, q.DayOfMonth, q.Limit)
	if err != nil {
		return SearchResult{}, e.fail(OpSearch, s, err)
	}
	if len(directs) > q.Limit {
		directs = directs[:q.Limit]
	}

	// Sized from what was fetched; Limit is caller input and may be huge.
	items := make([]Itinerary, 0, len(directs))
	for _, f := range directs {
		items = append(items, newItinerary(len(items), f))
	}

	if remaining := q.Limit - len(items); !q.DirectOnly && remaining > 0 {
		pairs, err := e.store.OneStopFlights(ctx, q.Origin, q.Destination, q.DayOfMonth, remaining)
		if err != nil {
			return SearchResult{}, e.fail(OpSearch, s, err)
		}
		if len(pairs) > remaining {
			pairs = pairs[:remaining]
		}
		for _, p := range pairs {
			items = append(items, newItinerary(len(items), p[0], p[1]))
		}
	}

	s.itineraries.replace(items)
	e.log.Debug("search completed",
		logger.F("origin", q.Origin),
		logger.F("dest", q.Destination),
		logger.F("day", q.DayOfMonth),
		logger.F("direct_only", q.DirectOnly),
		logger.F("results", s.itineraries.len()),
	)
	return SearchResult{Itineraries: s.itineraries.all()}, nil
}
