package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/Amaan-N-K/suitemate/backend/internal/preftree"
	"github.com/Amaan-N-K/suitemate/backend/internal/socialgraph"
	"github.com/Amaan-N-K/suitemate/backend/internal/store"
	"github.com/Amaan-N-K/suitemate/backend/internal/user"
	"github.com/Amaan-N-K/suitemate/backend/pkg/config"
	"github.com/Amaan-N-K/suitemate/backend/pkg/logger"
)

func main() {
	count := flag.Int("users", 0, "Number of users to generate (defaults to SEED_USERS)")
	reset := flag.Bool("reset", false, "Delete all stored users and relations first")
	network := flag.Bool("network", false, "Also simulate and store a seeded social network")
	seed := flag.Int64("seed", 0, "Random seed (defaults to RANDOM_SEED, 0 uses the clock)")
	workers := flag.Int("workers", store.DefaultWorkers, "Concurrent write transactions")
	flag.Parse()

	// Initialize logger
	if err := logger.Init("development", ""); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	runID := uuid.NewString()
	log := logger.Get().With(zap.String("run_id", runID))
	log.Info("Starting database seeding...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}
	if *count == 0 {
		*count = cfg.SeedUsers
	}
	if *seed == 0 {
		*seed = cfg.RandomSeed
	}
	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}

	ctx := context.Background()
	driver, err := store.Connect(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
	if err != nil {
		log.Fatal("Failed to connect to Neo4j", zap.Error(err))
	}
	repo := store.NewRepository(driver).WithWorkers(*workers)
	defer repo.Close(context.Background())

	if *reset {
		deleted, err := repo.Reset(ctx)
		if err != nil {
			log.Fatal("Failed to reset store", zap.Error(err))
		}
		log.Info("Store cleared", zap.Int("nodes_deleted", deleted))
	}

	// Create constraints
	log.Info("Creating constraints...")
	if err := repo.EnsureConstraints(ctx); err != nil {
		log.Fatal("Failed to create constraints", zap.Error(err))
	}

	// Create indexes for the preference lookups
	log.Info("Creating indexes...")
	if err := createIndexes(ctx, driver); err != nil {
		log.Warn("Failed to create some indexes (may already exist)", zap.Error(err))
	}

	firstID, err := nextID(ctx, repo)
	if err != nil {
		log.Fatal("Failed to read existing users", zap.Error(err))
	}

	rng := rand.New(rand.NewPCG(uint64(*seed), uint64(*seed)>>7))
	users := user.Generate(rng, *count, firstID, user.DefaultNames)
	if err := repo.SaveUsers(ctx, users); err != nil {
		log.Fatal("Failed to save users", zap.Error(err))
	}
	log.Info("Users generated", zap.Int("count", len(users)), zap.Int("first_id", firstID), zap.Int64("seed", *seed))

	if *network {
		if err := seedNetwork(ctx, repo, cfg, rng, log); err != nil {
			log.Fatal("Failed to seed network", zap.Error(err))
		}
	}

	log.Info("Seeding complete")
}

// nextID returns one past the highest stored user id
func nextID(ctx context.Context, repo *store.Repository) (int, error) {
	existing, err := repo.LoadUsers(ctx)
	if err != nil {
		return 0, err
	}
	next := 0
	for _, u := range existing {
		if u.ID >= next {
			next = u.ID + 1
		}
	}
	return next, nil
}

// seedNetwork builds the tree from every stored user, simulates the network
// and writes its relations back
func seedNetwork(ctx context.Context, repo *store.Repository, cfg *config.Config, rng *rand.Rand, log *zap.Logger) error {
	users, err := repo.LoadUsers(ctx)
	if err != nil {
		return err
	}
	tree, err := preftree.Build(preftree.DefaultSchema())
	if err != nil {
		return err
	}
	for _, u := range users {
		if err := tree.Insert(u); err != nil {
			return err
		}
	}

	policy, err := socialgraph.ParseAcceptPolicy(cfg.AcceptPolicy)
	if err != nil {
		return err
	}
	graph := socialgraph.New(
		socialgraph.WithRand(rng),
		socialgraph.WithLogger(log.Named("socialgraph")),
		socialgraph.WithAcceptPolicy(policy),
	)
	for _, u := range users {
		if err := graph.AddUser(u); err != nil {
			return err
		}
	}
	if err := graph.CreateNetworkAll(tree.AllLeaves(), -1, cfg.RandomSuggestions); err != nil {
		return err
	}
	inferred, err := graph.FindAllNewSuggestions()
	if err != nil {
		return err
	}

	edges := graph.Edges()
	if err := repo.SyncNetwork(ctx, edges); err != nil {
		return err
	}
	log.Info("Network stored",
		zap.Int("edges", len(edges)),
		zap.Int("inferred_suggestions", inferred),
		zap.Int("communities", len(graph.FindConnectedCommunities())),
	)
	return nil
}

func createIndexes(ctx context.Context, driver neo4j.DriverWithContext) error {
	session := driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	indexes := []string{
		"CREATE INDEX roommate_rent IF NOT EXISTS FOR (u:Roommate) ON (u.rent_low, u.rent_high)",
		"CREATE INDEX roommate_gender IF NOT EXISTS FOR (u:Roommate) ON (u.gender)",
		"CREATE INDEX roommate_username IF NOT EXISTS FOR (u:Roommate) ON (u.username)",
	}

	for _, index := range indexes {
		if _, err := session.Run(ctx, index, nil); err != nil {
			return err
		}
	}
	return nil
}
