package socialgraph

import (
	"cmp"
	"iter"
	"slices"

	"go.uber.org/zap"

	"github.com/Amaan-N-K/suitemate/backend/internal/user"
	apperrors "github.com/Amaan-N-K/suitemate/backend/pkg/errors"
)

// ErrNoCandidates is returned when a random suggestion has nobody to pick
var ErrNoCandidates = apperrors.NewBaseError(apperrors.ErrorTypeGraph, "no candidate users to suggest", nil)

// CreateNetworkSingleCommunity suggests every pair of users to each other.
// Every pair not involving excludeID then simulates a request from the first
// user to the second, accepted according to the graph's policy.
func (g *Graph) CreateNetworkSingleCommunity(users []user.Record, excludeID int) error {
	return g.seedCommunity(users, func(id int) bool { return id == excludeID })
}

func (g *Graph) seedCommunity(users []user.Record, excluded func(int) bool) error {
	for _, u := range users {
		g.ensure(u)
	}
	for i, u1 := range users {
		for _, u2 := range users[i+1:] {
			if u1.ID == u2.ID {
				continue
			}
			if err := g.AddSuggestion(u1, u2); err != nil {
				return err
			}
			if excluded(u1.ID) || excluded(u2.ID) || g.CheckRequest(u1.ID, u2.ID) {
				continue
			}
			if err := g.simulate(u1.ID, u2.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

// simulate sends a request from id1 to id2 and lets the policy decide
// whether id2 accepts it
func (g *Graph) simulate(id1, id2 int) error {
	if err := g.SendRequest(id1, id2); err != nil {
		return err
	}
	if !g.policy.accepts(g.rng) {
		return nil
	}
	return g.AcceptRequest(id2, id1)
}

// CreateNetworkAll seeds every community, then adds n random suggestion edges
// across the whole graph so separate communities can still meet
func (g *Graph) CreateNetworkAll(communities iter.Seq[[]user.Record], excludeID, n int) error {
	return g.CreateNetworkAllExcept(communities, map[int]bool{excludeID: true}, n)
}

// CreateNetworkAllExcept is CreateNetworkAll with a set of users who never
// send or receive simulated requests. They still get suggestion edges.
func (g *Graph) CreateNetworkAllExcept(communities iter.Seq[[]user.Record], excluded map[int]bool, n int) error {
	skip := func(id int) bool { return excluded[id] }
	seeded := 0
	for users := range communities {
		if err := g.seedCommunity(users, skip); err != nil {
			return err
		}
		if len(users) > 0 {
			seeded++
		}
	}
	added, err := g.RandomSuggestions(n)
	if err != nil {
		return err
	}

	g.logger.Info("Network seeded",
		zap.Int("communities", seeded),
		zap.Int("users", g.Len()),
		zap.Int("excluded", len(excluded)),
		zap.Int("random_suggestions", added),
		zap.String("accept_policy", string(g.policy)),
	)
	return nil
}

// RandomSuggestions draws n pairs uniformly from all vertices and suggests
// them to each other. Self-pairs are redrawn. It returns the number of draws
// that produced a new edge.
func (g *Graph) RandomSuggestions(n int) (int, error) {
	ids := g.ids()
	if len(ids) < 2 {
		return 0, nil
	}
	added := 0
	for range n {
		a := ids[g.rng.IntN(len(ids))]
		b := ids[g.rng.IntN(len(ids))]
		for b == a {
			b = ids[g.rng.IntN(len(ids))]
		}
		if g.CheckSuggestion(a, b) {
			continue
		}
		if err := g.AddSuggestion(g.vertices[a].Record, g.vertices[b].Record); err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}

// RandomSuggestionForUser suggests one random user to id and returns the
// chosen id. With crossCommunity set the candidate is drawn from outside
// id's match component.
func (g *Graph) RandomSuggestionForUser(id int, crossCommunity bool) (int, error) {
	v, err := g.lookup(id)
	if err != nil {
		return 0, err
	}

	exclude := map[int]struct{}{id: {}}
	if crossCommunity {
		exclude, _ = g.component(v, map[int]struct{}{})
	}
	candidates := make([]int, 0, len(g.vertices))
	for _, other := range g.ids() {
		if _, skip := exclude[other]; !skip {
			candidates = append(candidates, other)
		}
	}
	if len(candidates) == 0 {
		return 0, ErrNoCandidates
	}

	pick := candidates[g.rng.IntN(len(candidates))]
	if err := g.AddSuggestion(v.Record, g.vertices[pick].Record); err != nil {
		return 0, err
	}
	return pick, nil
}

// Relation names an edge kind in a graph snapshot
type Relation string

const (
	RelationSuggested Relation = "SUGGESTED"
	RelationRequested Relation = "REQUESTED"
	RelationMatched   Relation = "MATCHED"
)

// Edge is one relation in a graph snapshot. Suggestions and matches appear
// once with From < To; requests point from the sender to the recipient.
type Edge struct {
	From     int
	To       int
	Relation Relation
}

// Edges returns every relation in the graph ordered by From, then To
func (g *Graph) Edges() []Edge {
	var edges []Edge
	for _, id := range g.ids() {
		v := g.vertices[id]
		for _, other := range v.SuggestionIDs() {
			if id < other {
				edges = append(edges, Edge{From: id, To: other, Relation: RelationSuggested})
			}
		}
		for _, other := range v.MatchIDs() {
			if id < other {
				edges = append(edges, Edge{From: id, To: other, Relation: RelationMatched})
			}
		}
		for _, sender := range v.RequestIDs() {
			edges = append(edges, Edge{From: sender, To: id, Relation: RelationRequested})
		}
	}
	slices.SortStableFunc(edges, func(a, b Edge) int {
		if a.From != b.From {
			return cmp.Compare(a.From, b.From)
		}
		return cmp.Compare(a.To, b.To)
	})
	return edges
}
