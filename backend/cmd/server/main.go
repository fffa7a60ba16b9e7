package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/Amaan-N-K/suitemate/backend/internal/api"
	"github.com/Amaan-N-K/suitemate/backend/internal/matching"
	"github.com/Amaan-N-K/suitemate/backend/internal/metrics"
	"github.com/Amaan-N-K/suitemate/backend/internal/preftree"
	"github.com/Amaan-N-K/suitemate/backend/internal/socialgraph"
	"github.com/Amaan-N-K/suitemate/backend/internal/store"
	"github.com/Amaan-N-K/suitemate/backend/internal/user"
	"github.com/Amaan-N-K/suitemate/backend/pkg/config"
	"github.com/Amaan-N-K/suitemate/backend/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}

	// Initialize logger
	if err := logger.Init(cfg.Env, cfg.LogLevel); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting matching server...")

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	app, err := setup(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to set up server", zap.Error(err))
	}
	defer app.close()

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: app.router,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started", zap.String("port", cfg.Port))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}

// application is the wired server ready to serve
type application struct {
	router *gin.Engine
	orch   *matching.Orchestrator
	close  func()
}

// setup wires the tree, graph, user source and HTTP routes from cfg
func setup(ctx context.Context, cfg *config.Config, log *zap.Logger) (*application, error) {
	schema := preftree.DefaultSchema()
	if cfg.SchemaFile != "" {
		loaded, err := preftree.LoadSchema(cfg.SchemaFile)
		if err != nil {
			return nil, err
		}
		schema = loaded
	}
	tree, err := preftree.Build(schema)
	if err != nil {
		return nil, err
	}
	log.Info("Preference tree built", zap.Int("leaves", tree.CountLeaves()))

	policy, err := socialgraph.ParseAcceptPolicy(cfg.AcceptPolicy)
	if err != nil {
		return nil, err
	}
	rng := newRand(cfg.RandomSeed)
	graph := socialgraph.New(
		socialgraph.WithRand(rng),
		socialgraph.WithLogger(log.Named("socialgraph")),
		socialgraph.WithAcceptPolicy(policy),
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	opts := []matching.Option{
		matching.WithMetrics(m),
		matching.WithLogger(log.Named("matching")),
		matching.WithRandomSuggestions(cfg.RandomSuggestions),
		matching.WithRand(rng),
	}

	var source matching.UserSource
	closeFn := func() {}
	if cfg.StoreEnabled {
		driver, err := store.Connect(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
		if err != nil {
			return nil, err
		}
		repo := store.NewRepository(driver)
		if err := repo.EnsureConstraints(ctx); err != nil {
			_ = repo.Close(ctx)
			return nil, err
		}
		source = repo
		opts = append(opts, matching.WithMirror(repo))
		closeFn = func() { _ = repo.Close(context.Background()) }
		log.Info("Using Neo4j user store", zap.String("uri", cfg.Neo4jURI))
	} else {
		source = user.NewStaticSource(user.Generate(rng, cfg.SeedUsers, 0, user.DefaultNames))
		log.Info("Using generated population", zap.Int("users", cfg.SeedUsers))
	}

	orch := matching.NewOrchestrator(source, tree, graph, opts...)
	if err := orch.Load(ctx); err != nil {
		closeFn()
		return nil, err
	}

	return &application{
		router: api.NewRouter(orch, m, reg, log),
		orch:   orch,
		close:  closeFn,
	}, nil
}

// newRand returns a PCG source seeded from seed, or from the clock when seed
// is zero
func newRand(seed int64) *rand.Rand {
	s := uint64(seed)
	if seed == 0 {
		s = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(s, s^0x9e3779b97f4a7c15))
}
