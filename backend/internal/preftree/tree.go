// Package preftree partitions a user population into compatibility buckets
// along eight ordered preference dimensions.
//
// The tree is fully enumerated at build time: every combination of choices
// has a leaf, and users sit in the leaf matching their preferences. Levels
// run from most to least important (rent, gender preference, roommates,
// pets, cleanliness, guests, smoking, noise), so closest-match search can
// relax the least important dimensions first.
//
// A Tree is not safe for concurrent use; callers sharing one across
// goroutines must serialize access.
package preftree

import (
	"iter"
	"strings"

	"github.com/Amaan-N-K/suitemate/backend/internal/constants"
	"github.com/Amaan-N-K/suitemate/backend/internal/user"
	apperrors "github.com/Amaan-N-K/suitemate/backend/pkg/errors"
)

// node is either internal (children set) or a leaf (children nil)
type node struct {
	category string
	choices  []Choice // declaration order, drives iteration
	children map[Choice]*node
	users    []user.Record
}

func (n *node) isLeaf() bool {
	return n.children == nil
}

// Tree is the preference-partitioning tree
type Tree struct {
	root   *node
	schema Schema
	bands  []Band
	size   int
}

// Build constructs an empty tree with one leaf per combination of choices
func Build(schema Schema) (*Tree, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	return &Tree{
		root:   buildNode(schema),
		schema: schema,
		bands:  schema.bands(),
	}, nil
}

func buildNode(schema Schema) *node {
	if len(schema) == 0 {
		return &node{users: []user.Record{}}
	}
	cat := schema[0]
	n := &node{
		category: cat.Name,
		choices:  cat.Choices,
		children: make(map[Choice]*node, len(cat.Choices)),
	}
	for _, c := range cat.Choices {
		n.children[c] = buildNode(schema[1:])
	}
	return n
}

// Len returns the number of users in the tree
func (t *Tree) Len() int {
	return t.size
}

// PreferencesOf maps a user to its eight preference values in schema order.
// The gender slot holds whether the user cares about roommate gender; it is
// resolved to a concrete branch while descending.
func (t *Tree) PreferencesOf(u user.Record) (Path, error) {
	band, err := t.rentBucket(u)
	if err != nil {
		return nil, err
	}
	return Path{
		BandChoice(band.Low, band.High),
		BoolChoice(u.GenderPrefCares),
		IntChoice(u.NumRoommates),
		BoolChoice(u.PetsOK),
		IntChoice(u.Cleanliness),
		BoolChoice(u.GuestsOK),
		BoolChoice(u.SmokingOK),
		IntChoice(u.Noise),
	}, nil
}

// rentBucket finds the band holding the rent midpoint. Midpoints above every
// band land in the topmost one.
func (t *Tree) rentBucket(u user.Record) (Band, error) {
	mid := u.Rent.Midpoint()
	if mid < 0 {
		return Band{}, apperrors.NewBucketError(u.ID, mid)
	}

	top := t.bands[0]
	for _, b := range t.bands {
		if b.Contains(mid) {
			return b, nil
		}
		if b.High > top.High {
			top = b
		}
	}
	if mid > top.High {
		return top, nil
	}
	return Band{}, apperrors.NewBucketError(u.ID, mid)
}

// route returns the concrete branch keys from the root to the user's leaf
func (t *Tree) route(u user.Record) (Path, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}
	path, err := t.PreferencesOf(u)
	if err != nil {
		return nil, err
	}
	gender := constants.GenderAny
	if u.GenderPrefCares {
		gender = strings.ToLower(u.Gender)
	}
	path[constants.GenderSplitDepth] = GenderChoice(gender)
	return path, nil
}

// child looks up a branch, failing loudly when the schema has no such value
func (n *node) child(u user.Record, c Choice) (*node, error) {
	next, ok := n.children[c]
	if !ok {
		return nil, apperrors.NewLookupError(u.ID, n.category, c.String())
	}
	return next, nil
}

// leafOf walks the user's route to its leaf
func (t *Tree) leafOf(u user.Record) (*node, error) {
	path, err := t.route(u)
	if err != nil {
		return nil, err
	}
	n := t.root
	for _, c := range path {
		if n, err = n.child(u, c); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// Insert adds a user to the leaf matching its preferences
func (t *Tree) Insert(u user.Record) error {
	leaf, err := t.leafOf(u)
	if err != nil {
		return err
	}
	leaf.users = append(leaf.users, u)
	t.size++
	return nil
}

// Remove drops a user (matched by id) from its leaf. It reports whether the
// user was present.
func (t *Tree) Remove(u user.Record) (bool, error) {
	leaf, err := t.leafOf(u)
	if err != nil {
		return false, err
	}
	for i, other := range leaf.users {
		if other.ID == u.ID {
			leaf.users = append(leaf.users[:i], leaf.users[i+1:]...)
			t.size--
			return true, nil
		}
	}
	return false, nil
}

// FindExact returns the users sharing all eight preference values with u,
// excluding u itself, in insertion order
func (t *Tree) FindExact(u user.Record) ([]user.Record, error) {
	leaf, err := t.leafOf(u)
	if err != nil {
		return nil, err
	}
	return without(leaf.users, u.ID), nil
}

// frame is one pending subtree in the closest-match search
type frame struct {
	n     *node
	depth int
}

// FindClosest returns the exact matches for u when there are any. Otherwise
// it backtracks, trying sibling branches of the deepest levels first and
// following u's own preferences inside each sibling subtree. Rent and gender
// preference are hard filters: no backtracking happens at or above the gender
// split.
func (t *Tree) FindClosest(u user.Record) ([]user.Record, error) {
	path, err := t.route(u)
	if err != nil {
		return nil, err
	}

	n := t.root
	for depth := 0; depth <= constants.GenderSplitDepth; depth++ {
		if n, err = n.child(u, path[depth]); err != nil {
			return nil, err
		}
	}

	// Depth-first over the subtree below the gender split. At every level the
	// preferred branch is explored first, then its siblings in schema order.
	stack := []frame{{n: n, depth: constants.GenderSplitDepth + 1}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.n.isLeaf() {
			if found := without(f.n.users, u.ID); len(found) > 0 {
				return found, nil
			}
			continue
		}

		preferred := path[f.depth]
		if _, err := f.n.child(u, preferred); err != nil {
			return nil, err
		}
		for i := len(f.n.choices) - 1; i >= 0; i-- {
			c := f.n.choices[i]
			if c != preferred {
				stack = append(stack, frame{n: f.n.children[c], depth: f.depth + 1})
			}
		}
		stack = append(stack, frame{n: f.n.children[preferred], depth: f.depth + 1})
	}
	return []user.Record{}, nil
}

// AllLeaves yields every leaf's users in schema order, including empty
// leaves. The sequence can be ranged over repeatedly; each pass sees the
// tree as it is at that moment.
func (t *Tree) AllLeaves() iter.Seq[[]user.Record] {
	return func(yield func([]user.Record) bool) {
		t.walkLeaves(func(_ Path, leaf *node) bool {
			return yield(append([]user.Record{}, leaf.users...))
		})
	}
}

// walkLeaves visits leaves in schema order with the path that reaches them
func (t *Tree) walkLeaves(visit func(Path, *node) bool) {
	type pending struct {
		n    *node
		path Path
	}
	stack := []pending{{n: t.root}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.n.isLeaf() {
			if !visit(p.path, p.n) {
				return
			}
			continue
		}
		for i := len(p.n.choices) - 1; i >= 0; i-- {
			c := p.n.choices[i]
			next := make(Path, len(p.path), len(p.path)+1)
			copy(next, p.path)
			stack = append(stack, pending{n: p.n.children[c], path: append(next, c)})
		}
	}
}

// CountLeaves counts nodes without children
func (t *Tree) CountLeaves() int {
	return countLeaves(t.root)
}

func countLeaves(n *node) int {
	if n.isLeaf() {
		return 1
	}
	count := 0
	for _, c := range n.choices {
		count += countLeaves(n.children[c])
	}
	return count
}

func without(users []user.Record, id int) []user.Record {
	out := make([]user.Record, 0, len(users))
	for _, u := range users {
		if u.ID != id {
			out = append(out, u)
		}
	}
	return out
}
