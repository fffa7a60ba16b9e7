package constants

// Preference categories, root to leaf, most important first
const (
	CategoryRent        = "rent"
	CategoryGender      = "gender"
	CategoryRoommates   = "roommates"
	CategoryPets        = "pets"
	CategoryCleanliness = "cleanliness"
	CategoryGuests      = "guests"
	CategorySmoking     = "smoking"
	CategoryNoise       = "noise"
)

// PreferenceDepth is the number of categories in every preference schema
const PreferenceDepth = 8

// GenderSplitDepth is the depth of the gender-preference split. Closest-match
// search only backtracks at nodes deeper than this level.
const GenderSplitDepth = 1

// Gender keys used as tree branches
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
	GenderAny    = "any"
)

// RentBands are the default rent buckets; the last one doubles as the
// open-ended overflow bucket.
var RentBands = [][2]int{
	{0, 800}, {801, 1100}, {1101, 1400}, {1401, 1700}, {1701, 2000},
	{2001, 2300}, {2301, 2600}, {2601, 2900}, {2901, 3200}, {3201, 12000},
}

// Matching defaults
const (
	// DefaultRandomSuggestions is how many cross-community suggestions are
	// injected each time the network is seeded
	DefaultRandomSuggestions = 50

	// DefaultExtraPickChance is the probability that a user who already has
	// suggestions is shown one more random user
	DefaultExtraPickChance = 0.5

	// MaxRoommates is the largest roommate count a user may ask for
	MaxRoommates = 4
)
