package socialgraph

import (
	"fmt"
	"math/rand/v2"

	apperrors "github.com/Amaan-N-K/suitemate/backend/pkg/errors"
)

// AcceptPolicy decides whether a simulated request is accepted while the
// network is being seeded
type AcceptPolicy string

const (
	AcceptAlways   AcceptPolicy = "always"
	AcceptCoinFlip AcceptPolicy = "coinflip"
	AcceptNever    AcceptPolicy = "never"
)

// ParseAcceptPolicy maps a configuration value to a policy
func ParseAcceptPolicy(s string) (AcceptPolicy, error) {
	switch p := AcceptPolicy(s); p {
	case AcceptAlways, AcceptCoinFlip, AcceptNever:
		return p, nil
	}
	return "", apperrors.NewConfigValidationFailed("ACCEPT_POLICY", fmt.Sprintf("unknown policy %q", s))
}

func (p AcceptPolicy) accepts(rng *rand.Rand) bool {
	switch p {
	case AcceptAlways:
		return true
	case AcceptNever:
		return false
	default:
		return rng.IntN(2) == 0
	}
}
