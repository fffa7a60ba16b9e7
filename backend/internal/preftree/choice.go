package preftree

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind tags which dimension a Choice belongs to
type Kind uint8

const (
	KindBand Kind = iota + 1
	KindGender
	KindInt
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindBand:
		return "band"
	case KindGender:
		return "gender"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Band is a closed rent interval used as a bucket
type Band struct {
	Low  int
	High int
}

// Contains reports whether v lies inside the band
func (b Band) Contains(v int) bool {
	return b.Low <= v && v <= b.High
}

// Choice is one branch key of the tree. Only the field matching Kind is
// meaningful, so a bool true never collides with an int 1.
type Choice struct {
	Kind Kind
	Band Band
	Str  string
	Int  int
	Bool bool
}

func BandChoice(low, high int) Choice { return Choice{Kind: KindBand, Band: Band{Low: low, High: high}} }
func GenderChoice(g string) Choice    { return Choice{Kind: KindGender, Str: g} }
func IntChoice(i int) Choice          { return Choice{Kind: KindInt, Int: i} }
func BoolChoice(b bool) Choice        { return Choice{Kind: KindBool, Bool: b} }

func (c Choice) String() string {
	switch c.Kind {
	case KindBand:
		return fmt.Sprintf("%d-%d", c.Band.Low, c.Band.High)
	case KindGender:
		return c.Str
	case KindInt:
		return strconv.Itoa(c.Int)
	case KindBool:
		return strconv.FormatBool(c.Bool)
	}
	return "?"
}

// Path is the ordered list of choices from the root to a leaf
type Path []Choice

func (p Path) String() string {
	parts := make([]string, len(p))
	for i, c := range p {
		parts[i] = c.String()
	}
	return strings.Join(parts, "/")
}
