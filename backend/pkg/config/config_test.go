package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Amaan-N-K/suitemate/backend/internal/socialgraph"
	apperrors "github.com/Amaan-N-K/suitemate/backend/pkg/errors"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "ENV", "STORE_ENABLED", "ACCEPT_POLICY", "RANDOM_SUGGESTIONS", "SEED_USERS", "RANDOM_SEED"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.StoreEnabled)
	assert.Equal(t, string(socialgraph.AcceptCoinFlip), cfg.AcceptPolicy)
	assert.Equal(t, 50, cfg.RandomSuggestions)
	assert.Equal(t, 500, cfg.SeedUsers)
	assert.Equal(t, int64(0), cfg.RandomSeed)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("STORE_ENABLED", "true")
	t.Setenv("ACCEPT_POLICY", "ALWAYS")
	t.Setenv("RANDOM_SUGGESTIONS", "7")
	t.Setenv("RANDOM_SEED", "42")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.True(t, cfg.StoreEnabled)
	assert.Equal(t, string(socialgraph.AcceptAlways), cfg.AcceptPolicy)
	assert.Equal(t, 7, cfg.RandomSuggestions)
	assert.Equal(t, int64(42), cfg.RandomSeed)
}

func TestValidate_UnknownPolicy(t *testing.T) {
	cfg := &Config{Port: "8080", AcceptPolicy: "sometimes", SeedUsers: 10}

	err := cfg.Validate()
	var vErr *apperrors.ErrConfigValidationFailed
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "ACCEPT_POLICY", vErr.Field)
}

func TestValidate_StoreNeedsCredentials(t *testing.T) {
	cfg := &Config{Port: "8080", AcceptPolicy: string(socialgraph.AcceptNever), StoreEnabled: true, Neo4jURI: "bolt://x"}

	err := cfg.Validate()
	var missing *apperrors.ErrConfigMissingRequired
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "NEO4J_USER", missing.Field)
}

func TestValidate_PopulationRequiredWithoutStore(t *testing.T) {
	cfg := &Config{Port: "8080", AcceptPolicy: string(socialgraph.AcceptNever)}
	assert.True(t, apperrors.IsErrorType(cfg.Validate(), apperrors.ErrorTypeConfig))
}
