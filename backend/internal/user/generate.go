package user

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"

	"github.com/Amaan-N-K/suitemate/backend/internal/constants"
)

// Name is a seed name with the gender it is usually given to
type Name struct {
	Name   string
	Gender string
}

// DefaultNames is the name pool used when generating a population
var DefaultNames = []Name{
	{"James", "Male"}, {"Mary", "Female"}, {"Derek", "Male"}, {"Andrew", "Male"},
	{"Linda", "Female"}, {"Amaan", "Male"}, {"Sofia", "Female"}, {"Wei", "Male"},
	{"Priya", "Female"}, {"Omar", "Male"}, {"Chloe", "Female"}, {"Noah", "Male"},
	{"Aisha", "Female"}, {"Lucas", "Male"}, {"Emma", "Female"}, {"Hiro", "Male"},
}

// Generate builds n random users with ids starting at firstID. Rent lower
// bounds follow a normal distribution around 1100; a third of users get
// gender "other".
func Generate(rng *rand.Rand, n, firstID int, names []Name) []Record {
	if len(names) == 0 {
		names = DefaultNames
	}

	users := make([]Record, 0, n)
	for i := 0; i < n; i++ {
		pick := names[rng.IntN(len(names))]

		gender := pick.Gender
		if rng.IntN(3) == 2 {
			gender = "other"
		}

		low := int(math.Round(math.Abs(rng.NormFloat64()*300 + 1100)))
		if low > 10000 {
			low = 10000
		}
		high := int(math.Round(float64(low) + rng.Float64()*200))

		id := firstID + i
		users = append(users, Record{
			ID:              id,
			Name:            pick.Name,
			Username:        fmt.Sprintf("%s_%d", strings.ToLower(pick.Name), rng.IntN(10000)+1),
			Contact:         fmt.Sprintf("%s%d@gmail.com", strings.ToLower(pick.Name), rng.IntN(1001)),
			Location:        "Toronto, Ontario",
			Age:             17 + rng.IntN(84),
			Gender:          gender,
			GenderPrefCares: rng.IntN(2) == 0,
			Rent:            RentRange{Low: low, High: high},
			NumRoommates:    1 + rng.IntN(constants.MaxRoommates),
			PetsOK:          rng.IntN(2) == 0,
			SmokingOK:       rng.IntN(2) == 0,
			GuestsOK:        rng.IntN(2) == 0,
			Cleanliness:     1 + rng.IntN(3),
			Noise:           1 + rng.IntN(3),
		})
	}
	return users
}

// StaticSource serves a fixed population, typically a generated one
type StaticSource struct {
	users []Record
}

// NewStaticSource wraps users as a source
func NewStaticSource(users []Record) *StaticSource {
	return &StaticSource{users: users}
}

// LoadUsers returns a copy of the population
func (s *StaticSource) LoadUsers(ctx context.Context) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]Record, len(s.users))
	copy(out, s.users)
	return out, nil
}
