// Package socialgraph tracks suggestions, requests and matches between users.
//
// Suggestions and matches are undirected; a request is an arrow from the
// sender to the recipient. A pair of users is in at most one of those states
// at a time and moves strictly forward: suggested, requested, matched.
//
// A Graph is not safe for concurrent use.
package socialgraph

import (
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/Amaan-N-K/suitemate/backend/internal/user"
	apperrors "github.com/Amaan-N-K/suitemate/backend/pkg/errors"
	"github.com/Amaan-N-K/suitemate/backend/pkg/logger"
)

// Transition names used in InvalidTransitionError
const (
	transitionSuggest = "suggest"
	transitionRequest = "request"
	transitionAccept  = "accept"
)

// Graph owns every vertex it holds
type Graph struct {
	vertices map[int]*Vertex
	rng      *rand.Rand
	logger   *zap.Logger
	policy   AcceptPolicy
}

// Option configures a Graph
type Option func(*Graph)

// WithRand injects the random source used for simulated accepts and random
// suggestions
func WithRand(rng *rand.Rand) Option {
	return func(g *Graph) {
		g.rng = rng
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(g *Graph) {
		g.logger = l
	}
}

func WithAcceptPolicy(p AcceptPolicy) Option {
	return func(g *Graph) {
		g.policy = p
	}
}

// New creates an empty graph. Without options it accepts simulated requests
// on a coin flip drawn from a clock-seeded source.
func New(opts ...Option) *Graph {
	g := &Graph{
		vertices: make(map[int]*Vertex),
		policy:   AcceptCoinFlip,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.rng == nil {
		seed := uint64(time.Now().UnixNano())
		g.rng = rand.New(rand.NewPCG(seed, seed>>1))
	}
	if g.logger == nil {
		g.logger = logger.Named("socialgraph")
	}
	return g
}

// Len returns the number of vertices
func (g *Graph) Len() int {
	return len(g.vertices)
}

// AddUser creates an isolated vertex
func (g *Graph) AddUser(u user.Record) error {
	if _, ok := g.vertices[u.ID]; ok {
		return apperrors.NewDuplicateUser(u.ID)
	}
	g.vertices[u.ID] = newVertex(u)
	return nil
}

// UpdateUser replaces the record held by an existing vertex. Relations are
// kept.
func (g *Graph) UpdateUser(u user.Record) error {
	v, err := g.lookup(u.ID)
	if err != nil {
		return err
	}
	v.Record = u
	return nil
}

// GetUser returns the vertex for id. A missing id is reported through the
// second result, never as an error.
func (g *Graph) GetUser(id int) (*Vertex, bool) {
	v, ok := g.vertices[id]
	return v, ok
}

func (g *Graph) ensure(u user.Record) *Vertex {
	v, ok := g.vertices[u.ID]
	if !ok {
		v = newVertex(u)
		g.vertices[u.ID] = v
	}
	return v
}

func (g *Graph) lookup(id int) (*Vertex, error) {
	v, ok := g.vertices[id]
	if !ok {
		return nil, apperrors.NewUserNotFound(id)
	}
	return v, nil
}

// AddSuggestion adds an undirected suggestion edge, creating either vertex if
// needed. Repeating it is a no-op, as is suggesting a pair that has already
// moved on to a request or match.
func (g *Graph) AddSuggestion(u1, u2 user.Record) error {
	if u1.ID == u2.ID {
		return apperrors.NewInvalidTransition(transitionSuggest, u1.ID, u2.ID, "a user cannot be suggested to itself")
	}
	v1, v2 := g.ensure(u1), g.ensure(u2)
	if g.related(v1, v2) {
		return nil
	}
	v1.suggestions[v2.ID()] = v2
	v2.suggestions[v1.ID()] = v1
	return nil
}

// related reports a request or match between the pair in either direction
func (g *Graph) related(v1, v2 *Vertex) bool {
	return v1.HasMatch(v2.ID()) || v1.HasRequestFrom(v2.ID()) || v2.HasRequestFrom(v1.ID())
}

// CheckSuggestion reports a live suggestion between the pair, or any stronger
// relation that implies one
func (g *Graph) CheckSuggestion(id1, id2 int) bool {
	v1, ok := g.vertices[id1]
	if !ok {
		return false
	}
	return v1.HasSuggestion(id2) || g.CheckRequest(id1, id2)
}

// CheckRequest reports a request or match between the pair in either direction
func (g *Graph) CheckRequest(id1, id2 int) bool {
	v1, ok1 := g.vertices[id1]
	v2, ok2 := g.vertices[id2]
	if !ok1 || !ok2 {
		return false
	}
	return g.related(v1, v2)
}

// SendRequest turns the suggestion between id1 and id2 into a request from
// id1 to id2
func (g *Graph) SendRequest(id1, id2 int) error {
	v1, err := g.lookup(id1)
	if err != nil {
		return err
	}
	v2, err := g.lookup(id2)
	if err != nil {
		return err
	}
	if !v1.HasSuggestion(id2) {
		return apperrors.NewInvalidTransition(transitionRequest, id1, id2, "no suggestion between the pair")
	}

	delete(v1.suggestions, id2)
	delete(v2.suggestions, id1)
	v2.requests[id1] = v1

	g.logger.Debug("Request sent", zap.Int("from", id1), zap.Int("to", id2))
	return nil
}

// AcceptRequest lets id1 accept the pending request from id2, making the pair
// a mutual match
func (g *Graph) AcceptRequest(id1, id2 int) error {
	v1, err := g.lookup(id1)
	if err != nil {
		return err
	}
	v2, err := g.lookup(id2)
	if err != nil {
		return err
	}
	if !v1.HasRequestFrom(id2) {
		return apperrors.NewInvalidTransition(transitionAccept, id1, id2, "no pending request from the other user")
	}

	delete(v1.requests, id2)
	v1.matches[id2] = v2
	v2.matches[id1] = v1

	g.logger.Debug("Request accepted", zap.Int("user_id", id1), zap.Int("requester", id2))
	return nil
}

// Suggestions returns the users suggested to id, ordered by id
func (g *Graph) Suggestions(id int) ([]user.Record, error) {
	v, err := g.lookup(id)
	if err != nil {
		return nil, err
	}
	return records(v.suggestions), nil
}

// Requests returns the users with a pending request to id, ordered by id
func (g *Graph) Requests(id int) ([]user.Record, error) {
	v, err := g.lookup(id)
	if err != nil {
		return nil, err
	}
	return records(v.requests), nil
}

// Matches returns the users matched with id, ordered by id
func (g *Graph) Matches(id int) ([]user.Record, error) {
	v, err := g.lookup(id)
	if err != nil {
		return nil, err
	}
	return records(v.matches), nil
}

// ids returns every vertex id in ascending order
func (g *Graph) ids() []int {
	return sortedKeys(g.vertices)
}
