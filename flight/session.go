/*
session.go - Caller-owned session state

PURPOSE:
  A Session holds the identity of the logged-in customer and the
  itinerary cache of its latest search. It is created empty by the
  caller and passed into every engine operation; the engine keeps no
  per-customer state of its own.

LIFECYCLE:
  - NewSession(): unbound, empty cache
  - Login: binds the username exactly once (no logout)
  - Search: replaces the whole cache; older ordinals become invalid

CONCURRENCY:
  A Session belongs to one caller and is not safe for concurrent use.
  Run one Session per goroutine; the Engine itself may be shared.
*/
package flight

// Session is the per-customer state threaded through engine calls.
type Session struct {
	username    string
	itineraries itineraryCache
}

func NewSession() *Session {
	return &Session{}
}

// Username is empty until a successful login.
func (s *Session) Username() string { return s.username }

func (s *Session) LoggedIn() bool { return s.username != "" }

// Itinerary looks up an ordinal from the latest search.
func (s *Session) Itinerary(ordinal int) (Itinerary, bool) {
	return s.itineraries.get(ordinal)
}

// Itineraries returns a copy of the current search results.
func (s *Session) Itineraries() []Itinerary {
	return s.itineraries.all()
}

// =============================================================================
// ITINERARY CACHE
// =============================================================================

// itineraryCache is the ordered result list of one search. Ordinals are
// slice positions, so two itineraries with equal duration never collide.
type itineraryCache struct {
	items []Itinerary
}

func (c *itineraryCache) replace(items []Itinerary) {
	c.items = items
}

func (c *itineraryCache) get(ordinal int) (Itinerary, bool) {
	if ordinal < 0 || ordinal >= len(c.items) {
		return Itinerary{}, false
	}
	return c.items[ordinal], true
}

func (c *itineraryCache) all() []Itinerary {
	out := make([]Itinerary, len(c.items))
	copy(out, c.items)
	return out
}

func (c *itineraryCache) len() int { return len(c.items) }
