package preftree

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/Amaan-N-K/suitemate/backend/internal/constants"
	apperrors "github.com/Amaan-N-K/suitemate/backend/pkg/errors"
)

// Category is one level of the tree and the branches it fans out into
type Category struct {
	Name    string
	Kind    Kind
	Choices []Choice
}

// Schema is the ordered list of categories, most important first
type Schema []Category

// mandated is the fixed category order every schema must follow
var mandated = []struct {
	name string
	kind Kind
}{
	{constants.CategoryRent, KindBand},
	{constants.CategoryGender, KindGender},
	{constants.CategoryRoommates, KindInt},
	{constants.CategoryPets, KindBool},
	{constants.CategoryCleanliness, KindInt},
	{constants.CategoryGuests, KindBool},
	{constants.CategorySmoking, KindBool},
	{constants.CategoryNoise, KindInt},
}

// DefaultSchema returns the canonical eight-level schema
func DefaultSchema() Schema {
	bands := make([]Choice, 0, len(constants.RentBands))
	for _, b := range constants.RentBands {
		bands = append(bands, BandChoice(b[0], b[1]))
	}
	bools := []Choice{BoolChoice(true), BoolChoice(false)}
	ints := func(values ...int) []Choice {
		out := make([]Choice, len(values))
		for i, v := range values {
			out[i] = IntChoice(v)
		}
		return out
	}

	return Schema{
		{Name: constants.CategoryRent, Kind: KindBand, Choices: bands},
		{Name: constants.CategoryGender, Kind: KindGender, Choices: []Choice{
			GenderChoice(constants.GenderMale),
			GenderChoice(constants.GenderFemale),
			GenderChoice(constants.GenderOther),
			GenderChoice(constants.GenderAny),
		}},
		{Name: constants.CategoryRoommates, Kind: KindInt, Choices: ints(1, 2, 3, 4)},
		{Name: constants.CategoryPets, Kind: KindBool, Choices: bools},
		{Name: constants.CategoryCleanliness, Kind: KindInt, Choices: ints(1, 2, 3)},
		{Name: constants.CategoryGuests, Kind: KindBool, Choices: bools},
		{Name: constants.CategorySmoking, Kind: KindBool, Choices: bools},
		{Name: constants.CategoryNoise, Kind: KindInt, Choices: ints(1, 2, 3)},
	}
}

// Validate checks the schema against the mandated category order
func (s Schema) Validate() error {
	if len(s) != constants.PreferenceDepth {
		return apperrors.NewSchemaError("", fmt.Sprintf("expected %d categories, got %d", constants.PreferenceDepth, len(s)))
	}
	for i, cat := range s {
		want := mandated[i]
		if cat.Name != want.name {
			return apperrors.NewSchemaError(cat.Name, fmt.Sprintf("position %d must be %q", i, want.name))
		}
		if cat.Kind != want.kind {
			return apperrors.NewSchemaError(cat.Name, fmt.Sprintf("kind must be %s, got %s", want.kind, cat.Kind))
		}
		if len(cat.Choices) == 0 {
			return apperrors.NewSchemaError(cat.Name, "no choices")
		}
		seen := make(map[Choice]struct{}, len(cat.Choices))
		for _, c := range cat.Choices {
			if c.Kind != cat.Kind {
				return apperrors.NewSchemaError(cat.Name, fmt.Sprintf("choice %s is a %s", c, c.Kind))
			}
			if c.Kind == KindBand && c.Band.Low > c.Band.High {
				return apperrors.NewSchemaError(cat.Name, fmt.Sprintf("band %s is inverted", c))
			}
			if _, dup := seen[c]; dup {
				return apperrors.NewSchemaError(cat.Name, fmt.Sprintf("duplicate choice %s", c))
			}
			seen[c] = struct{}{}
		}
	}
	return nil
}

// LeafCount is the product of every level's branching factor
func (s Schema) LeafCount() int {
	n := 1
	for _, cat := range s {
		n *= len(cat.Choices)
	}
	return n
}

// bands returns the rent buckets of a validated schema
func (s Schema) bands() []Band {
	out := make([]Band, len(s[0].Choices))
	for i, c := range s[0].Choices {
		out[i] = c.Band
	}
	return out
}

type schemaFile struct {
	Categories []struct {
		Name   string   `yaml:"name"`
		Bands  [][]int  `yaml:"bands"`
		Values []string `yaml:"values"`
	} `yaml:"categories"`
}

// LoadSchema reads a YAML schema file:
//
//	categories:
//	  - name: rent
//	    bands: [[0, 800], [801, 1100]]
//	  - name: gender
//	    values: [male, female, other, any]
//	  - name: roommates
//	    values: [1, 2, 3, 4]
//
// The category kind comes from its position, so values are parsed as ints,
// bools or gender keys accordingly.
func LoadSchema(path string) (Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	return ParseSchema(data)
}

// ParseSchema decodes and validates a YAML schema document
func ParseSchema(data []byte) (Schema, error) {
	var file schemaFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, apperrors.NewSchemaError("", fmt.Sprintf("malformed yaml: %v", err))
	}
	if len(file.Categories) != constants.PreferenceDepth {
		return nil, apperrors.NewSchemaError("", fmt.Sprintf("expected %d categories, got %d", constants.PreferenceDepth, len(file.Categories)))
	}

	schema := make(Schema, 0, len(file.Categories))
	for i, fc := range file.Categories {
		kind := mandated[i].kind
		cat := Category{Name: fc.Name, Kind: kind}
		if kind == KindBand {
			for _, b := range fc.Bands {
				if len(b) != 2 {
					return nil, apperrors.NewSchemaError(fc.Name, fmt.Sprintf("band %v must have a low and a high", b))
				}
				cat.Choices = append(cat.Choices, BandChoice(b[0], b[1]))
			}
		} else {
			for _, v := range fc.Values {
				c, err := parseChoice(kind, v)
				if err != nil {
					return nil, apperrors.NewSchemaError(fc.Name, err.Error())
				}
				cat.Choices = append(cat.Choices, c)
			}
		}
		schema = append(schema, cat)
	}

	if err := schema.Validate(); err != nil {
		return nil, err
	}
	return schema, nil
}

func parseChoice(kind Kind, v string) (Choice, error) {
	switch kind {
	case KindInt:
		i, err := strconv.Atoi(v)
		if err != nil {
			return Choice{}, fmt.Errorf("value %q is not an integer", v)
		}
		return IntChoice(i), nil
	case KindBool:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Choice{}, fmt.Errorf("value %q is not a boolean", v)
		}
		return BoolChoice(b), nil
	default:
		return GenderChoice(v), nil
	}
}
