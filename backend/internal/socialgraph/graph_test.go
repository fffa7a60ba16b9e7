package socialgraph

import (
	"errors"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Amaan-N-K/suitemate/backend/internal/user"
	apperrors "github.com/Amaan-N-K/suitemate/backend/pkg/errors"
)

func rec(id int) user.Record {
	return user.Record{
		ID:           id,
		Gender:       "male",
		Rent:         user.RentRange{Low: 900, High: 1100},
		NumRoommates: 1,
		Cleanliness:  2,
		Noise:        2,
	}
}

func recs(ids ...int) []user.Record {
	out := make([]user.Record, len(ids))
	for i, id := range ids {
		out[i] = rec(id)
	}
	return out
}

func seeded(opts ...Option) *Graph {
	return New(append([]Option{WithRand(rand.New(rand.NewPCG(7, 11)))}, opts...)...)
}

// match drives a pair through suggestion, request and accept
func match(t *testing.T, g *Graph, a, b int) {
	t.Helper()
	require.NoError(t, g.AddSuggestion(rec(a), rec(b)))
	require.NoError(t, g.SendRequest(a, b))
	require.NoError(t, g.AcceptRequest(b, a))
}

// assertInvariants checks self-freedom, symmetry and per-pair disjointness
func assertInvariants(t *testing.T, g *Graph) {
	t.Helper()
	for id, v := range g.vertices {
		assert.False(t, v.HasSuggestion(id) || v.HasRequestFrom(id) || v.HasMatch(id), "self relation on %d", id)
		for other, n := range v.suggestions {
			assert.True(t, n.HasSuggestion(id), "suggestion %d-%d not symmetric", id, other)
			assert.False(t, g.related(v, n), "pair %d-%d both suggested and related", id, other)
		}
		for other, n := range v.matches {
			assert.True(t, n.HasMatch(id), "match %d-%d not symmetric", id, other)
			assert.False(t, v.HasRequestFrom(other) || n.HasRequestFrom(id), "pair %d-%d both matched and requested", id, other)
		}
		for other := range v.requests {
			assert.False(t, v.HasRequestFrom(other) && g.vertices[other].HasRequestFrom(id), "requests %d<->%d in both directions", id, other)
		}
	}
}

func TestAddUser_Duplicate(t *testing.T) {
	g := seeded()
	require.NoError(t, g.AddUser(rec(1)))

	err := g.AddUser(rec(1))
	var dup *apperrors.DuplicateUserError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, 1, dup.UserID)
	assert.Equal(t, 1, g.Len())
}

func TestGetUser(t *testing.T) {
	g := seeded()
	require.NoError(t, g.AddUser(rec(4)))

	v, ok := g.GetUser(4)
	require.True(t, ok)
	assert.Equal(t, 4, v.ID())

	v, ok = g.GetUser(5)
	assert.False(t, ok)
	assert.Nil(t, v)
}

func TestAddSuggestion_Idempotent(t *testing.T) {
	once := seeded()
	require.NoError(t, once.AddSuggestion(rec(1), rec(2)))

	twice := seeded()
	require.NoError(t, twice.AddSuggestion(rec(1), rec(2)))
	require.NoError(t, twice.AddSuggestion(rec(1), rec(2)))
	require.NoError(t, twice.AddSuggestion(rec(2), rec(1)))

	assert.Equal(t, once.Edges(), twice.Edges())
	assert.Equal(t, []Edge{{From: 1, To: 2, Relation: RelationSuggested}}, twice.Edges())
	assert.Equal(t, 2, twice.Len())
}

func TestAddSuggestion_Self(t *testing.T) {
	g := seeded()
	err := g.AddSuggestion(rec(1), rec(1))

	var invalid *apperrors.InvalidTransitionError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, 0, g.Len())
}

func TestAddSuggestion_LeavesStrongerRelation(t *testing.T) {
	g := seeded()
	require.NoError(t, g.AddSuggestion(rec(1), rec(2)))
	require.NoError(t, g.SendRequest(1, 2))

	require.NoError(t, g.AddSuggestion(rec(2), rec(1)))

	assert.Equal(t, []Edge{{From: 1, To: 2, Relation: RelationRequested}}, g.Edges())
	assertInvariants(t, g)
}

func TestRequestLifecycle(t *testing.T) {
	g := seeded()
	require.NoError(t, g.AddSuggestion(rec(1), rec(2)))
	assert.True(t, g.CheckSuggestion(1, 2))
	assert.False(t, g.CheckRequest(1, 2))

	require.NoError(t, g.SendRequest(1, 2))
	assert.True(t, g.CheckRequest(1, 2))
	assert.True(t, g.CheckRequest(2, 1))
	assert.True(t, g.CheckSuggestion(2, 1), "a request implies the suggestion")

	// the suggestion is consumed on both sides
	for _, tc := range []struct{ from, to int }{{1, 2}, {2, 1}} {
		err := g.SendRequest(tc.from, tc.to)
		assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeGraph), "send %d->%d: %v", tc.from, tc.to, err)
		var invalid *apperrors.InvalidTransitionError
		assert.True(t, errors.As(err, &invalid))
	}

	// only the recipient can accept
	var invalid *apperrors.InvalidTransitionError
	assert.True(t, errors.As(g.AcceptRequest(1, 2), &invalid))

	require.NoError(t, g.AcceptRequest(2, 1))
	v1, _ := g.GetUser(1)
	v2, _ := g.GetUser(2)
	assert.True(t, v1.HasMatch(2))
	assert.True(t, v2.HasMatch(1))
	assert.Empty(t, v2.RequestIDs())
	assert.True(t, g.CheckSuggestion(1, 2))

	assert.True(t, errors.As(g.AcceptRequest(2, 1), &invalid), "accepting twice")
	assertInvariants(t, g)
}

func TestSendRequest_Failures(t *testing.T) {
	g := seeded()
	require.NoError(t, g.AddUser(rec(1)))
	require.NoError(t, g.AddUser(rec(2)))

	var invalid *apperrors.InvalidTransitionError
	assert.True(t, errors.As(g.SendRequest(1, 2), &invalid), "no suggestion")

	var missing *apperrors.UserNotFoundError
	require.True(t, errors.As(g.SendRequest(1, 9), &missing))
	assert.Equal(t, 9, missing.UserID)
	assert.True(t, errors.As(g.AcceptRequest(9, 1), &missing))
}

func TestReadAccessors(t *testing.T) {
	g := seeded()
	require.NoError(t, g.AddSuggestion(rec(1), rec(5)))
	require.NoError(t, g.AddSuggestion(rec(1), rec(3)))
	require.NoError(t, g.AddSuggestion(rec(1), rec(4)))
	require.NoError(t, g.SendRequest(4, 1))
	match(t, g, 1, 2)

	suggestions, err := g.Suggestions(1)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 5}, user.IDs(suggestions))

	requests, err := g.Requests(1)
	require.NoError(t, err)
	assert.Equal(t, []int{4}, user.IDs(requests))

	matches, err := g.Matches(1)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, user.IDs(matches))

	_, err = g.Matches(42)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeGraph))
}

func TestFindNewSuggestion(t *testing.T) {
	g := seeded()
	match(t, g, 1, 2)
	match(t, g, 1, 3)
	match(t, g, 2, 4)
	match(t, g, 3, 4)

	added, err := g.FindNewSuggestion(1)
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	v1, _ := g.GetUser(1)
	assert.Equal(t, []int{4}, v1.SuggestionIDs())

	added, err = g.FindNewSuggestion(1)
	require.NoError(t, err)
	assert.Equal(t, 0, added, "already suggested")
	assertInvariants(t, g)
}

func TestFindNewSuggestion_SingleMatch(t *testing.T) {
	g := seeded()
	match(t, g, 1, 2)
	match(t, g, 2, 3)

	added, err := g.FindNewSuggestion(1)
	require.NoError(t, err)
	assert.Equal(t, 0, added)

	_, err = g.FindNewSuggestion(99)
	assert.Error(t, err)
}

func TestFindNewSuggestion_SkipsExistingMatch(t *testing.T) {
	g := seeded()
	match(t, g, 1, 2)
	match(t, g, 1, 3)
	match(t, g, 2, 4)
	match(t, g, 3, 4)
	match(t, g, 1, 4)

	added, err := g.FindNewSuggestion(1)
	require.NoError(t, err)
	assert.Equal(t, 0, added)
}

func TestFindAllNewSuggestions(t *testing.T) {
	g := seeded()
	match(t, g, 1, 2)
	match(t, g, 1, 3)
	match(t, g, 2, 4)
	match(t, g, 3, 4)

	// 1 and 4 share matches 2 and 3; 2 and 3 share matches 1 and 4
	total, err := g.FindAllNewSuggestions()
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.True(t, g.CheckSuggestion(1, 4))
	assert.True(t, g.CheckSuggestion(2, 3))
	assertInvariants(t, g)
}

func TestFindConnectedCommunities_Triangles(t *testing.T) {
	g := seeded()
	for _, base := range []int{0, 10, 20} {
		match(t, g, base+1, base+2)
		match(t, g, base+2, base+3)
		match(t, g, base+3, base+1)
	}

	communities := g.FindConnectedCommunities()
	require.Len(t, communities, 3)

	seen := map[int]int{}
	for _, c := range communities {
		assert.Len(t, c, 3)
		for _, v := range c {
			seen[v.ID()]++
		}
	}
	assert.Len(t, seen, 9)
	for id, n := range seen {
		assert.Equal(t, 1, n, "vertex %d in more than one community", id)
	}
	assert.Equal(t, 1, communities[0][0].ID())
	assert.Equal(t, 11, communities[1][0].ID())
}

func TestFindConnectedCommunities_IgnoresSuggestions(t *testing.T) {
	g := seeded()
	match(t, g, 1, 2)
	require.NoError(t, g.AddSuggestion(rec(2), rec(3)))
	require.NoError(t, g.AddSuggestion(rec(3), rec(4)))
	require.NoError(t, g.SendRequest(3, 4))

	communities := g.FindConnectedCommunities()
	require.Len(t, communities, 3)
	assert.Len(t, communities[0], 2)
}

func TestFindAllConnectedMatches_Cycle(t *testing.T) {
	g := seeded()
	match(t, g, 1, 2)
	match(t, g, 2, 3)
	match(t, g, 3, 4)
	match(t, g, 4, 1)
	require.NoError(t, g.AddUser(rec(5)))

	visited, reached, err := g.FindAllConnectedMatches(3)
	require.NoError(t, err)
	assert.Len(t, visited, 4)
	assert.NotContains(t, visited, 5)
	require.Len(t, reached, 4)
	assert.Equal(t, 3, reached[0].ID())

	_, _, err = g.FindAllConnectedMatches(8)
	var missing *apperrors.UserNotFoundError
	assert.True(t, errors.As(err, &missing))
}

func TestCreateNetworkSingleCommunity_AcceptAlways(t *testing.T) {
	g := seeded(WithAcceptPolicy(AcceptAlways))
	require.NoError(t, g.CreateNetworkSingleCommunity(recs(1, 2, 3, 4), 4))

	matches, err := g.Matches(1)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, user.IDs(matches))

	excluded, _ := g.GetUser(4)
	assert.Equal(t, []int{1, 2, 3}, excluded.SuggestionIDs())
	assert.Empty(t, excluded.MatchIDs())
	assert.Empty(t, excluded.RequestIDs())
	assertInvariants(t, g)
}

func TestCreateNetworkSingleCommunity_AcceptNever(t *testing.T) {
	g := seeded(WithAcceptPolicy(AcceptNever))
	require.NoError(t, g.CreateNetworkSingleCommunity(recs(1, 2, 3), -1))

	v2, _ := g.GetUser(2)
	v3, _ := g.GetUser(3)
	assert.Equal(t, []int{1}, v2.RequestIDs())
	assert.Equal(t, []int{1, 2}, v3.RequestIDs())
	assert.Empty(t, v3.MatchIDs())
	assertInvariants(t, g)
}

func TestCreateNetworkSingleCommunity_Singleton(t *testing.T) {
	g := seeded()
	require.NoError(t, g.CreateNetworkSingleCommunity(recs(7), 7))
	require.NoError(t, g.CreateNetworkSingleCommunity(nil, 7))

	_, ok := g.GetUser(7)
	assert.True(t, ok)
	assert.Empty(t, g.Edges())
}

func TestCreateNetworkAll(t *testing.T) {
	communities := [][]user.Record{recs(1, 2, 3), {}, recs(4, 5), recs(6, 7, 8, 9)}

	build := func() *Graph {
		g := seeded()
		require.NoError(t, g.CreateNetworkAll(slices.Values(communities), 5, 20))
		return g
	}
	g := build()

	assert.Equal(t, 9, g.Len())
	assert.Equal(t, build().Edges(), g.Edges(), "same seed gives the same network")

	for _, e := range g.Edges() {
		if e.Relation == RelationSuggested {
			continue
		}
		assert.NotEqual(t, 5, e.From)
		assert.NotEqual(t, 5, e.To)
	}
	assertInvariants(t, g)
}

func TestUpdateUser(t *testing.T) {
	g := seeded()
	match(t, g, 1, 2)

	changed := rec(1)
	changed.Noise = 3
	require.NoError(t, g.UpdateUser(changed))

	matches, err := g.Matches(2)
	require.NoError(t, err)
	assert.Equal(t, []user.Record{changed}, matches)

	var missing *apperrors.UserNotFoundError
	assert.True(t, errors.As(g.UpdateUser(rec(9)), &missing))
	_, ok := g.GetUser(9)
	assert.False(t, ok)
}

func TestCreateNetworkAllExcept(t *testing.T) {
	g := seeded(WithAcceptPolicy(AcceptAlways))
	excluded := map[int]bool{1: true, 2: true}
	require.NoError(t, g.CreateNetworkAllExcept(slices.Values([][]user.Record{recs(1, 2, 3, 4)}), excluded, 0))

	assert.Equal(t, []Edge{
		{From: 1, To: 2, Relation: RelationSuggested},
		{From: 1, To: 3, Relation: RelationSuggested},
		{From: 1, To: 4, Relation: RelationSuggested},
		{From: 2, To: 3, Relation: RelationSuggested},
		{From: 2, To: 4, Relation: RelationSuggested},
		{From: 3, To: 4, Relation: RelationMatched},
	}, g.Edges())

	// a later seeding with a wider set leaves earlier pairs alone
	excluded[3] = true
	require.NoError(t, g.CreateNetworkAllExcept(slices.Values([][]user.Record{recs(1, 2, 3, 4, 5)}), excluded, 0))
	v1, _ := g.GetUser(1)
	assert.Empty(t, v1.MatchIDs())
	assert.Empty(t, v1.RequestIDs())
	v5, _ := g.GetUser(5)
	assert.Equal(t, []int{4}, v5.MatchIDs())
	assertInvariants(t, g)
}

func TestRandomSuggestions(t *testing.T) {
	g := seeded()
	added, err := g.RandomSuggestions(10)
	require.NoError(t, err)
	assert.Equal(t, 0, added, "empty graph")

	require.NoError(t, g.AddUser(rec(1)))
	added, err = g.RandomSuggestions(10)
	require.NoError(t, err)
	assert.Equal(t, 0, added, "single vertex")

	require.NoError(t, g.AddUser(rec(2)))
	added, err = g.RandomSuggestions(10)
	require.NoError(t, err)
	assert.Equal(t, 1, added, "only one pair exists")
	assert.True(t, g.CheckSuggestion(1, 2))
	assertInvariants(t, g)
}

func TestRandomSuggestionForUser(t *testing.T) {
	g := seeded()
	match(t, g, 1, 2)
	require.NoError(t, g.AddUser(rec(3)))

	picked, err := g.RandomSuggestionForUser(1, true)
	require.NoError(t, err)
	assert.Equal(t, 3, picked)
	assert.True(t, g.CheckSuggestion(1, 3))

	picked, err = g.RandomSuggestionForUser(3, false)
	require.NoError(t, err)
	assert.NotEqual(t, 3, picked)

	match(t, g, 2, 3)
	_, err = g.RandomSuggestionForUser(1, true)
	assert.ErrorIs(t, err, ErrNoCandidates)

	_, err = g.RandomSuggestionForUser(77, false)
	assert.Error(t, err)
}

func TestParseAcceptPolicy(t *testing.T) {
	for _, s := range []string{"always", "coinflip", "never"} {
		p, err := ParseAcceptPolicy(s)
		require.NoError(t, err)
		assert.Equal(t, AcceptPolicy(s), p)
	}
	_, err := ParseAcceptPolicy("sometimes")
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeConfig))
}

func TestEdges_Ordered(t *testing.T) {
	g := seeded()
	match(t, g, 3, 1)
	require.NoError(t, g.AddSuggestion(rec(2), rec(1)))
	require.NoError(t, g.AddSuggestion(rec(4), rec(2)))
	require.NoError(t, g.SendRequest(4, 2))

	assert.Equal(t, []Edge{
		{From: 1, To: 2, Relation: RelationSuggested},
		{From: 1, To: 3, Relation: RelationMatched},
		{From: 4, To: 2, Relation: RelationRequested},
	}, g.Edges())
}
