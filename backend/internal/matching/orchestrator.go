package matching

import (
	"context"
	"errors"
	"maps"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/Amaan-N-K/suitemate/backend/internal/constants"
	"github.com/Amaan-N-K/suitemate/backend/internal/metrics"
	"github.com/Amaan-N-K/suitemate/backend/internal/preftree"
	"github.com/Amaan-N-K/suitemate/backend/internal/socialgraph"
	"github.com/Amaan-N-K/suitemate/backend/internal/user"
	apperrors "github.com/Amaan-N-K/suitemate/backend/pkg/errors"
	"github.com/Amaan-N-K/suitemate/backend/pkg/logger"
)

// Query kinds reported to metrics
const (
	kindSuggestions = "suggestions"
	kindExact       = "exact"
	kindClosest     = "closest"
)

// UserSource supplies the population to match
type UserSource interface {
	LoadUsers(ctx context.Context) ([]user.Record, error)
}

// Mirror receives copies of users and graph relations for persistence
type Mirror interface {
	SaveUser(ctx context.Context, u user.Record) error
	RecordEdge(ctx context.Context, e socialgraph.Edge) error
	SyncNetwork(ctx context.Context, edges []socialgraph.Edge) error
}

// Orchestrator owns one preference tree and one social graph and serializes
// every operation on them
type Orchestrator struct {
	mu sync.Mutex

	source  UserSource
	tree    *preftree.Tree
	graph   *socialgraph.Graph
	mirror  Mirror
	metrics *metrics.Metrics
	logger  *zap.Logger

	rng               *rand.Rand
	randomSuggestions int
	extraPickChance   float64
	users             map[int]user.Record
	seededFor         map[int]bool
	nextID            int
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithMirror copies users and relations to m as they change
func WithMirror(m Mirror) Option {
	return func(o *Orchestrator) {
		o.mirror = m
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = l
	}
}

// WithRandomSuggestions sets how many cross-community suggestions each
// network seeding injects
func WithRandomSuggestions(n int) Option {
	return func(o *Orchestrator) {
		o.randomSuggestions = n
	}
}

// WithRand sets the source for the extra random suggestion draw. Sharing the
// graph's source keeps a seeded run reproducible.
func WithRand(rng *rand.Rand) Option {
	return func(o *Orchestrator) {
		o.rng = rng
	}
}

// WithExtraPickChance sets the probability that a user who already has
// suggestions gets one more random pick per Suggestions call
func WithExtraPickChance(p float64) Option {
	return func(o *Orchestrator) {
		o.extraPickChance = p
	}
}

// NewOrchestrator creates a new matching orchestrator
func NewOrchestrator(source UserSource, tree *preftree.Tree, graph *socialgraph.Graph, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		source:            source,
		tree:              tree,
		graph:             graph,
		randomSuggestions: constants.DefaultRandomSuggestions,
		extraPickChance:   constants.DefaultExtraPickChance,
		users:             make(map[int]user.Record),
		seededFor:         make(map[int]bool),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.metrics == nil {
		o.metrics = metrics.New(prometheus.NewRegistry())
	}
	if o.logger == nil {
		o.logger = logger.Named("matching")
	}
	if o.rng == nil {
		seed := uint64(time.Now().UnixNano())
		o.rng = rand.New(rand.NewPCG(seed, seed>>3))
	}
	return o
}

// Load pulls the population from the source into the tree and the graph
func (o *Orchestrator) Load(ctx context.Context) error {
	users, err := o.source.LoadUsers(ctx)
	if err != nil {
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	for _, u := range users {
		if err := o.admit(u); err != nil {
			o.logger.Error("Failed to load user", zap.Int("user_id", u.ID), zap.Error(err))
			return err
		}
	}
	o.refreshGauges()

	o.logger.Info("Users loaded",
		zap.Int("users", len(users)),
		zap.Int("tree_size", o.tree.Len()),
		zap.Int("leaves", o.tree.CountLeaves()),
	)
	return nil
}

// admit inserts a user into the tree and the graph
func (o *Orchestrator) admit(u user.Record) error {
	if _, ok := o.users[u.ID]; ok {
		return apperrors.NewDuplicateUser(u.ID)
	}
	if err := o.tree.Insert(u); err != nil {
		return err
	}
	if err := o.graph.AddUser(u); err != nil {
		if _, removeErr := o.tree.Remove(u); removeErr != nil {
			o.logger.Error("Failed to roll back tree insert", zap.Int("user_id", u.ID), zap.Error(removeErr))
		}
		return err
	}
	o.users[u.ID] = u
	if u.ID >= o.nextID {
		o.nextID = u.ID + 1
	}
	return nil
}

// Register adds a new user under a freshly assigned id and returns it
func (o *Orchestrator) Register(ctx context.Context, u user.Record) (user.Record, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	u.ID = o.nextID
	if err := o.admit(u); err != nil {
		return user.Record{}, err
	}
	o.metrics.UsersLoaded.Set(float64(o.tree.Len()))
	o.logger.Info("User registered", zap.Int("user_id", u.ID))

	if o.mirror != nil {
		o.mirrorErr("save user", o.mirror.SaveUser(ctx, u))
	}
	return u, nil
}

// User returns a loaded user
func (o *Orchestrator) User(id int) (user.Record, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lookup(id)
}

// UpdatePreferences replaces id's profile and moves it to the leaf its new
// preferences select. Graph relations are kept and the network is not
// reseeded.
func (o *Orchestrator) UpdatePreferences(ctx context.Context, id int, u user.Record) (user.Record, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	old, err := o.lookup(id)
	if err != nil {
		return user.Record{}, err
	}
	u.ID = id
	if err := u.Validate(); err != nil {
		return user.Record{}, err
	}

	if err := o.graph.UpdateUser(u); err != nil {
		return user.Record{}, err
	}
	if err := o.move(old, u); err != nil {
		if restoreErr := o.graph.UpdateUser(old); restoreErr != nil {
			o.logger.Error("Failed to restore graph record", zap.Int("user_id", id), zap.Error(restoreErr))
		}
		return user.Record{}, err
	}
	o.users[id] = u
	o.logger.Info("User preferences updated", zap.Int("user_id", id))

	if o.mirror != nil {
		o.mirrorErr("save user", o.mirror.SaveUser(ctx, u))
	}
	return u, nil
}

// move swaps old for u in the tree. old is put back when u cannot be placed.
func (o *Orchestrator) move(old, u user.Record) error {
	if _, err := o.tree.Remove(old); err != nil {
		return err
	}
	err := o.tree.Insert(u)
	if err == nil {
		return nil
	}
	if restoreErr := o.tree.Insert(old); restoreErr != nil {
		o.logger.Error("Failed to restore user", zap.Int("user_id", old.ID), zap.Error(restoreErr))
	}
	return err
}

func (o *Orchestrator) lookup(id int) (user.Record, error) {
	u, ok := o.users[id]
	if !ok {
		return user.Record{}, apperrors.NewUserNotFound(id)
	}
	return u, nil
}

// Suggestions returns the users suggested to id. The first call for a user
// seeds the network from the tree's communities. Users who have asked for
// suggestions before never take part in simulated requests. A user with no
// suggestions gets one random pick, and one with suggestions gets another on
// a coin flip.
func (o *Orchestrator) Suggestions(ctx context.Context, id int) ([]user.Record, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	suggestions, err := o.suggestions(ctx, id)
	o.metrics.RecordQuery(kindSuggestions, len(suggestions), err)
	return suggestions, err
}

func (o *Orchestrator) suggestions(ctx context.Context, id int) ([]user.Record, error) {
	if _, err := o.lookup(id); err != nil {
		return nil, err
	}

	if !o.seededFor[id] {
		if err := o.seed(ctx, id); err != nil {
			return nil, err
		}
	}

	suggestions, err := o.graph.Suggestions(id)
	if err != nil {
		return nil, err
	}
	if len(suggestions) > 0 && o.rng.Float64() >= o.extraPickChance {
		return suggestions, nil
	}
	if err := o.randomPick(ctx, id, len(suggestions)); err != nil {
		return nil, err
	}
	return o.graph.Suggestions(id)
}

// randomPick suggests one random user to id, preferring users outside id's
// match community. had is id's suggestion count before the pick.
func (o *Orchestrator) randomPick(ctx context.Context, id, had int) error {
	picked, err := o.graph.RandomSuggestionForUser(id, true)
	if errors.Is(err, socialgraph.ErrNoCandidates) {
		picked, err = o.graph.RandomSuggestionForUser(id, false)
	}
	switch {
	case errors.Is(err, socialgraph.ErrNoCandidates):
		return nil
	case err != nil:
		return err
	}
	if v, _ := o.graph.GetUser(id); len(v.SuggestionIDs()) > had {
		o.record(ctx, socialgraph.Edge{From: min(id, picked), To: max(id, picked), Relation: socialgraph.RelationSuggested})
	}
	return nil
}

// seed builds the network around id from the tree's leaves. id and every
// user seeded for earlier are left out of simulated requests.
func (o *Orchestrator) seed(ctx context.Context, id int) error {
	start := time.Now()
	excluded := maps.Clone(o.seededFor)
	excluded[id] = true
	if err := o.graph.CreateNetworkAllExcept(o.tree.AllLeaves(), excluded, o.randomSuggestions); err != nil {
		return err
	}
	o.seededFor[id] = true
	o.metrics.NetworkSeedTime.Observe(time.Since(start).Seconds())
	o.refreshGauges()

	if o.mirror != nil {
		o.mirrorErr("sync network", o.mirror.SyncNetwork(ctx, o.graph.Edges()))
	}
	return nil
}

// Exact returns the users sharing every preference with id
func (o *Orchestrator) Exact(ctx context.Context, id int) ([]user.Record, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	found, err := o.find(id, o.tree.FindExact)
	o.metrics.RecordQuery(kindExact, len(found), err)
	return found, err
}

// Closest returns the nearest non-empty group of users for id, relaxing the
// least important preferences first
func (o *Orchestrator) Closest(ctx context.Context, id int) ([]user.Record, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	found, err := o.find(id, o.tree.FindClosest)
	o.metrics.RecordQuery(kindClosest, len(found), err)
	return found, err
}

func (o *Orchestrator) find(id int, search func(user.Record) ([]user.Record, error)) ([]user.Record, error) {
	u, err := o.lookup(id)
	if err != nil {
		return nil, err
	}
	return search(u)
}

// RequestMatch has id request otherID and has otherID accept, suggesting the
// pair first when needed. It fails with InvalidTransitionError when the pair
// is already matched or id already has a pending request to otherID. It
// returns id's matches afterwards.
func (o *Orchestrator) RequestMatch(ctx context.Context, id, otherID int) ([]user.Record, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	u, err := o.lookup(id)
	if err != nil {
		return nil, err
	}
	other, err := o.lookup(otherID)
	if err != nil {
		return nil, err
	}

	if err := o.match(u, other); err != nil {
		return nil, err
	}

	o.logger.Info("Users matched", zap.Int("user_id", id), zap.Int("other_id", otherID))
	o.record(ctx, socialgraph.Edge{From: min(id, otherID), To: max(id, otherID), Relation: socialgraph.RelationMatched})
	o.refreshGauges()

	return o.graph.Matches(id)
}

// match walks the pair to a match. A pending request from other is simply
// accepted.
func (o *Orchestrator) match(u, other user.Record) error {
	if v, ok := o.graph.GetUser(u.ID); ok && v.HasRequestFrom(other.ID) {
		err := o.graph.AcceptRequest(u.ID, other.ID)
		o.metrics.RecordTransition("accept", err)
		return err
	}

	err := o.graph.AddSuggestion(other, u)
	o.metrics.RecordTransition("suggest", err)
	if err != nil {
		return err
	}
	err = o.graph.SendRequest(u.ID, other.ID)
	o.metrics.RecordTransition("request", err)
	if err != nil {
		return err
	}
	err = o.graph.AcceptRequest(other.ID, u.ID)
	o.metrics.RecordTransition("accept", err)
	return err
}

// CurrentMatches returns the users matched with id
func (o *Orchestrator) CurrentMatches(ctx context.Context, id int) ([]user.Record, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, err := o.lookup(id); err != nil {
		return nil, err
	}
	return o.graph.Matches(id)
}

// PendingRequests returns the users whose requests to id await acceptance
func (o *Orchestrator) PendingRequests(ctx context.Context, id int) ([]user.Record, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, err := o.lookup(id); err != nil {
		return nil, err
	}
	return o.graph.Requests(id)
}

// Community returns every user connected to id through matches, id first
func (o *Orchestrator) Community(ctx context.Context, id int) ([]user.Record, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, err := o.lookup(id); err != nil {
		return nil, err
	}
	_, reached, err := o.graph.FindAllConnectedMatches(id)
	if err != nil {
		return nil, err
	}
	return vertexRecords(reached), nil
}

// Communities partitions all users into match components
func (o *Orchestrator) Communities(ctx context.Context) [][]user.Record {
	o.mu.Lock()
	defer o.mu.Unlock()

	components := o.graph.FindConnectedCommunities()
	out := make([][]user.Record, len(components))
	for i, c := range components {
		out[i] = vertexRecords(c)
	}
	return out
}

// InferSuggestions suggests friends of matched friends across the graph
func (o *Orchestrator) InferSuggestions(ctx context.Context) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	added, err := o.graph.FindAllNewSuggestions()
	if err != nil {
		return added, err
	}
	if added > 0 {
		o.refreshGauges()
		if o.mirror != nil {
			o.mirrorErr("sync network", o.mirror.SyncNetwork(ctx, o.graph.Edges()))
		}
	}
	o.logger.Info("Inferred suggestions", zap.Int("added", added))
	return added, nil
}

func vertexRecords(vs []*socialgraph.Vertex) []user.Record {
	out := make([]user.Record, len(vs))
	for i, v := range vs {
		out[i] = v.Record
	}
	return out
}

func (o *Orchestrator) record(ctx context.Context, e socialgraph.Edge) {
	if o.mirror != nil {
		o.mirrorErr("record edge", o.mirror.RecordEdge(ctx, e))
	}
}

// mirrorErr logs a failed mirror write. The in-memory state stays
// authoritative, so the caller's operation still succeeds.
func (o *Orchestrator) mirrorErr(operation string, err error) {
	if err == nil {
		return
	}
	o.metrics.StoreErrors.WithLabelValues(operation).Inc()
	o.logger.Warn("Mirror write failed", zap.String("operation", operation), zap.Error(err))
}

func (o *Orchestrator) refreshGauges() {
	counts := map[socialgraph.Relation]int{
		socialgraph.RelationSuggested: 0,
		socialgraph.RelationRequested: 0,
		socialgraph.RelationMatched:   0,
	}
	for _, e := range o.graph.Edges() {
		counts[e.Relation]++
	}
	for rel, n := range counts {
		o.metrics.GraphEdges.WithLabelValues(string(rel)).Set(float64(n))
	}
	o.metrics.UsersLoaded.Set(float64(o.tree.Len()))
	o.metrics.Communities.Set(float64(len(o.graph.FindConnectedCommunities())))
}
