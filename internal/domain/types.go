package domain

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

type Kind string

const (
	KindItem Kind = "item"
	KindMob  Kind = "mob"
)

func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "item", "items":
		return KindItem, nil
	case "mob", "mobs":
		return KindMob, nil
	default:
		return "", fmt.Errorf("unknown entity kind %q (expected items|mobs)", s)
	}
}

// Variant selects one of the three score sums.
type Variant string

const (
	VariantPessimistic Variant = "min"
	VariantExpected    Variant = "avg"
	VariantOptimistic  Variant = "max"
)

// Variants lists the score variants in report order.
var Variants = []Variant{VariantPessimistic, VariantExpected, VariantOptimistic}

// Attribute is one parsed capability line, e.g. "+10-20 Damage".
type Attribute struct {
	Name string
	Min  int
	Max  int
}

type Enchantment struct {
	ID    string
	Level int
}

// Equipment is a sub-item worn by a mob. ItemID is the in-game numeric id used as weight key.
type Equipment struct {
	ID           string
	ItemID       int
	Enchantments []Enchantment
}

type Scores struct {
	Pessimistic float64
	Expected    float64
	Optimistic  float64
}

func (s Scores) Get(v Variant) float64 {
	switch v {
	case VariantPessimistic:
		return s.Pessimistic
	case VariantOptimistic:
		return s.Optimistic
	default:
		return s.Expected
	}
}

// Entity is a ranked item or mob. Display, Health, Damage and Equipment are only set for mobs.
type Entity struct {
	ID         string
	Kind       Kind
	Level      int
	Attributes []Attribute

	Display   string
	Health    int
	Damage    int
	Equipment []Equipment

	Scores Scores
}

// Equal reports whether two entities have the same id and attribute list. Scores are derived and ignored.
func (e Entity) Equal(o Entity) bool {
	return e.ID == o.ID && slices.Equal(e.Attributes, o.Attributes)
}

// CompareExpected orders entities by expected score ascending.
func CompareExpected(a, b Entity) int {
	return cmp.Compare(a.Scores.Expected, b.Scores.Expected)
}

// SortForReport orders entities by level, then expected score, then id.
func SortForReport(entities []Entity) {
	slices.SortStableFunc(entities, func(a, b Entity) int {
		if c := cmp.Compare(a.Level, b.Level); c != 0 {
			return c
		}
		if c := CompareExpected(a, b); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

type LevelBucket struct {
	Level   int
	Mean    float64
	Samples int
}

type TrendPoint struct {
	Level         int
	PercentChange float64
}

// VariantSummary holds the emitted buckets and their trend for one score variant.
// Skipped lists bucket levels whose trend point was dropped because the previous mean was zero.
type VariantSummary struct {
	Variant Variant
	Buckets []LevelBucket
	Trend   []TrendPoint
	Skipped []int
}
