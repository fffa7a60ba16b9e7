package socialgraph

import (
	"maps"
	"slices"

	"github.com/Amaan-N-K/suitemate/backend/internal/user"
)

// Vertex wraps one user and its three relation sets. Requests hold incoming
// proposals; suggestions and matches are kept symmetric by the Graph.
type Vertex struct {
	Record user.Record

	suggestions map[int]*Vertex
	requests    map[int]*Vertex
	matches     map[int]*Vertex
}

func newVertex(u user.Record) *Vertex {
	return &Vertex{
		Record:      u,
		suggestions: make(map[int]*Vertex),
		requests:    make(map[int]*Vertex),
		matches:     make(map[int]*Vertex),
	}
}

// ID returns the wrapped user's id
func (v *Vertex) ID() int {
	return v.Record.ID
}

func (v *Vertex) HasSuggestion(id int) bool {
	_, ok := v.suggestions[id]
	return ok
}

// HasRequestFrom reports whether id has a pending request to v
func (v *Vertex) HasRequestFrom(id int) bool {
	_, ok := v.requests[id]
	return ok
}

func (v *Vertex) HasMatch(id int) bool {
	_, ok := v.matches[id]
	return ok
}

// SuggestionIDs, RequestIDs and MatchIDs return neighbor ids in ascending order
func (v *Vertex) SuggestionIDs() []int { return sortedKeys(v.suggestions) }
func (v *Vertex) RequestIDs() []int    { return sortedKeys(v.requests) }
func (v *Vertex) MatchIDs() []int      { return sortedKeys(v.matches) }

func sortedKeys(m map[int]*Vertex) []int {
	return slices.Sorted(maps.Keys(m))
}

func records(m map[int]*Vertex) []user.Record {
	out := make([]user.Record, 0, len(m))
	for _, id := range sortedKeys(m) {
		out = append(out, m[id].Record)
	}
	return out
}
