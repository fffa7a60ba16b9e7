// Package store mirrors users and social graph relations into Neo4j.
//
// Users are (:Roommate) nodes keyed by id. Relations are SUGGESTED,
// REQUESTED or MATCHED relationships; a pair carries at most one of them.
package store

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Amaan-N-K/suitemate/backend/internal/socialgraph"
	"github.com/Amaan-N-K/suitemate/backend/internal/user"
	apperrors "github.com/Amaan-N-K/suitemate/backend/pkg/errors"
	"github.com/Amaan-N-K/suitemate/backend/pkg/logger"
)

const (
	// DefaultWorkers bounds concurrent write transactions
	DefaultWorkers = 4
	batchSize      = 200
)

const userProjection = `
	u.id AS id, u.name AS name, u.username AS username, u.contact AS contact,
	u.location AS location, u.age AS age, u.gender AS gender,
	u.gender_pref AS gender_pref, u.rent_low AS rent_low, u.rent_high AS rent_high,
	u.num_roommates AS num_roommates, u.pets AS pets, u.smoking AS smoking,
	u.guests AS guests, u.cleanliness AS cleanliness, u.noise AS noise
`

const mergeUser = `
	MERGE (u:Roommate {id: $id})
	SET u.name = $name,
		u.username = $username,
		u.contact = $contact,
		u.location = $location,
		u.age = $age,
		u.gender = $gender,
		u.gender_pref = $gender_pref,
		u.rent_low = $rent_low,
		u.rent_high = $rent_high,
		u.num_roommates = $num_roommates,
		u.pets = $pets,
		u.smoking = $smoking,
		u.guests = $guests,
		u.cleanliness = $cleanliness,
		u.noise = $noise,
		u.updated_at = datetime($now)
`

// Repository handles all Neo4j operations
type Repository struct {
	driver  neo4j.DriverWithContext
	logger  *zap.Logger
	workers int
}

// Connect opens a driver and verifies the server answers
func Connect(ctx context.Context, uri, username, password string) (neo4j.DriverWithContext, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, apperrors.NewStoreConnectionFailed(uri, err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, apperrors.NewStoreConnectionFailed(uri, err)
	}
	return driver, nil
}

// NewRepository creates a new store repository
func NewRepository(driver neo4j.DriverWithContext) *Repository {
	return &Repository{
		driver:  driver,
		logger:  logger.Named("store"),
		workers: DefaultWorkers,
	}
}

// WithWorkers sets how many write transactions may run at once
func (r *Repository) WithWorkers(n int) *Repository {
	if n > 0 {
		r.workers = n
	}
	return r
}

// Close closes the Neo4j driver connection
func (r *Repository) Close(ctx context.Context) error {
	return r.driver.Close(ctx)
}

// EnsureConstraints creates the uniqueness constraint on user ids
func (r *Repository) EnsureConstraints(ctx context.Context) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `CREATE CONSTRAINT roommate_id IF NOT EXISTS FOR (u:Roommate) REQUIRE u.id IS UNIQUE`
	if _, err := session.Run(ctx, query, nil); err != nil {
		return apperrors.NewStoreQueryFailed("ensure constraints", err)
	}
	return nil
}

// LoadUsers returns every stored user ordered by id
func (r *Repository) LoadUsers(ctx context.Context) ([]user.Record, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `MATCH (u:Roommate) RETURN ` + userProjection + ` ORDER BY u.id`

	result, err := session.Run(ctx, query, nil)
	if err != nil {
		return nil, apperrors.NewStoreQueryFailed("load users", err)
	}

	users := []user.Record{}
	for result.Next(ctx) {
		users = append(users, recordToUser(result.Record()))
	}
	if err := result.Err(); err != nil {
		return nil, apperrors.NewStoreQueryFailed("load users", err)
	}

	r.logger.Info("Loaded users", zap.Int("count", len(users)))
	return users, nil
}

// SaveUser creates or updates one user node
func (r *Repository) SaveUser(ctx context.Context, u user.Record) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	params := userParams(u)
	params["now"] = time.Now().UTC().Format(time.RFC3339)

	if _, err := session.Run(ctx, mergeUser, params); err != nil {
		return apperrors.NewStoreQueryFailed("save user", err)
	}
	return nil
}

// SaveUsers writes users in batches, running up to the configured number of
// transactions concurrently
func (r *Repository) SaveUsers(ctx context.Context, users []user.Record) error {
	query := `UNWIND $users AS row ` + unwindUser

	now := time.Now().UTC().Format(time.RFC3339)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for batch := range slices.Chunk(users, batchSize) {
		rows := make([]interface{}, len(batch))
		for i, u := range batch {
			rows[i] = userParams(u)
		}
		g.Go(func() error {
			return r.write(ctx, "save users", query, map[string]interface{}{"users": rows, "now": now})
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	r.logger.Info("Saved users", zap.Int("count", len(users)))
	return nil
}

const unwindUser = `
	MERGE (u:Roommate {id: row.id})
	SET u += row, u.updated_at = datetime($now)
`

// RecordEdge replaces whatever relation the pair had with e
func (r *Repository) RecordEdge(ctx context.Context, e socialgraph.Edge) error {
	query, err := edgeQuery(e.Relation, false)
	if err != nil {
		return err
	}
	return r.write(ctx, "record edge", query, map[string]interface{}{
		"from": int64(e.From),
		"to":   int64(e.To),
		"now":  time.Now().UTC().Format(time.RFC3339),
	})
}

// SyncNetwork writes a graph snapshot, grouped by relation and batched
func (r *Repository) SyncNetwork(ctx context.Context, edges []socialgraph.Edge) error {
	byRelation := map[socialgraph.Relation][]interface{}{}
	for _, e := range edges {
		byRelation[e.Relation] = append(byRelation[e.Relation], map[string]interface{}{
			"from": int64(e.From),
			"to":   int64(e.To),
		})
	}

	now := time.Now().UTC().Format(time.RFC3339)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for _, rel := range []socialgraph.Relation{socialgraph.RelationSuggested, socialgraph.RelationRequested, socialgraph.RelationMatched} {
		query, err := edgeQuery(rel, true)
		if err != nil {
			return err
		}
		for batch := range slices.Chunk(byRelation[rel], batchSize) {
			g.Go(func() error {
				return r.write(ctx, "sync network", query, map[string]interface{}{"edges": batch, "now": now})
			})
		}
	}
	if err := g.Wait(); err != nil {
		return err
	}

	r.logger.Info("Synced network", zap.Int("edges", len(edges)))
	return nil
}

// edgeQuery builds the write for one relation. Relationship types cannot be
// parameterized, so rel is checked against the known set.
func edgeQuery(rel socialgraph.Relation, unwind bool) (string, error) {
	switch rel {
	case socialgraph.RelationSuggested, socialgraph.RelationRequested, socialgraph.RelationMatched:
	default:
		return "", apperrors.NewStoreQueryFailed("record edge", fmt.Errorf("unknown relation %q", rel))
	}

	from, to, prefix := "$from", "$to", ""
	if unwind {
		from, to, prefix = "e.from", "e.to", "UNWIND $edges AS e "
	}
	return prefix + fmt.Sprintf(`
		MATCH (a:Roommate {id: %s}), (b:Roommate {id: %s})
		OPTIONAL MATCH (a)-[old:SUGGESTED|REQUESTED|MATCHED]-(b)
		DELETE old
		WITH DISTINCT a, b
		MERGE (a)-[rel:%s]->(b)
		SET rel.updated_at = datetime($now)
	`, from, to, rel), nil
}

// write runs query in a managed write transaction, which the driver retries
// on transient failures such as deadlocks
func (r *Repository) write(ctx context.Context, operation, query string, params map[string]interface{}) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})
	if err != nil {
		r.logger.Error("Write failed", zap.String("operation", operation), zap.Error(err))
		return apperrors.NewStoreQueryFailed(operation, err)
	}
	return nil
}

// Reset deletes every user and relation and returns the number of nodes
// removed
func (r *Repository) Reset(ctx context.Context) (int, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	result, err := session.Run(ctx, `MATCH (u:Roommate) DETACH DELETE u`, nil)
	if err != nil {
		return 0, apperrors.NewStoreQueryFailed("reset", err)
	}
	summary, err := result.Consume(ctx)
	if err != nil {
		return 0, apperrors.NewStoreQueryFailed("reset", err)
	}

	deleted := summary.Counters().NodesDeleted()
	r.logger.Info("Store reset", zap.Int("nodes_deleted", deleted))
	return deleted, nil
}
