package preftree

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Amaan-N-K/suitemate/backend/pkg/errors"
)

const smallSchema = `
categories:
  - name: rent
    bands: [[0, 1000], [1001, 3000]]
  - name: gender
    values: [male, female, other, any]
  - name: roommates
    values: [1, 2]
  - name: pets
    values: [true, false]
  - name: cleanliness
    values: [1, 2, 3]
  - name: guests
    values: [true, false]
  - name: smoking
    values: [true, false]
  - name: noise
    values: [1, 2, 3]
`

func TestParseSchema(t *testing.T) {
	schema, err := ParseSchema([]byte(smallSchema))
	require.NoError(t, err)

	assert.Equal(t, []Choice{BandChoice(0, 1000), BandChoice(1001, 3000)}, schema[0].Choices)
	assert.Equal(t, GenderChoice("any"), schema[1].Choices[3])
	assert.Equal(t, []Choice{IntChoice(1), IntChoice(2)}, schema[2].Choices)
	assert.Equal(t, []Choice{BoolChoice(true), BoolChoice(false)}, schema[3].Choices)

	tree, err := Build(schema)
	require.NoError(t, err)
	assert.Equal(t, 2*4*2*2*3*2*2*3, tree.CountLeaves())
}

func TestParseSchema_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"malformed", "categories: ["},
		{"too few", "categories:\n  - name: rent\n    bands: [[0, 1]]\n"},
		{"bad int", strings.Replace(smallSchema, "values: [1, 2]", "values: [one, 2]", 1)},
		{"bad bool", strings.Replace(smallSchema, "name: pets\n    values: [true, false]", "name: pets\n    values: [maybe]", 1)},
		{"bad band", strings.Replace(smallSchema, "[[0, 1000], [1001, 3000]]", "[[0, 1000, 5]]", 1)},
		{"empty category", strings.Replace(smallSchema, "values: [1, 2]", "values: []", 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSchema([]byte(tt.doc))
			assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeSchema), "got %v", err)
		})
	}
}

func TestLoadSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte(smallSchema), 0o600))

	schema, err := LoadSchema(path)
	require.NoError(t, err)
	assert.Len(t, schema, 8)

	_, err = LoadSchema(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestChoiceKeysDoNotCollide(t *testing.T) {
	assert.NotEqual(t, IntChoice(1), BoolChoice(true))
	assert.NotEqual(t, GenderChoice("1"), IntChoice(1))
	assert.Equal(t, "801-1100", BandChoice(801, 1100).String())
	assert.Equal(t, "801-1100/any/2", Path{BandChoice(801, 1100), GenderChoice("any"), IntChoice(2)}.String())
}
