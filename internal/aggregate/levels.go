// Package aggregate groups ranked entities by level and derives percent-change trends.
package aggregate

import (
	"sort"

	"github.com/helheim/content_ranker/internal/domain"
)

// LevelRange bounds the levels taken into account. A zero bound is open.
type LevelRange struct {
	Min int
	Max int
}

func (r LevelRange) Contains(level int) bool {
	if r.Min != 0 && level < r.Min {
		return false
	}
	if r.Max != 0 && level > r.Max {
		return false
	}
	return true
}

// Buckets groups entities by level and returns the mean score of variant per level,
// keeping only levels with at least threshold samples. Levels are ascending.
func Buckets(entities []domain.Entity, variant domain.Variant, threshold int, rng LevelRange) []domain.LevelBucket {
	if threshold < 1 {
		threshold = 1
	}
	type acc struct {
		sum   float64
		count int
	}
	byLevel := make(map[int]*acc)
	for _, e := range entities {
		if e.Scores.Expected <= 0 || !rng.Contains(e.Level) {
			continue
		}
		a := byLevel[e.Level]
		if a == nil {
			a = &acc{}
			byLevel[e.Level] = a
		}
		a.sum += e.Scores.Get(variant)
		a.count++
	}

	levels := make([]int, 0, len(byLevel))
	for lvl := range byLevel {
		levels = append(levels, lvl)
	}
	sort.Ints(levels)

	out := make([]domain.LevelBucket, 0, len(levels))
	for _, lvl := range levels {
		a := byLevel[lvl]
		if a.count < threshold {
			continue
		}
		out = append(out, domain.LevelBucket{Level: lvl, Mean: a.sum / float64(a.count), Samples: a.count})
	}
	return out
}

// Trend returns the percent change of each bucket's mean against the preceding emitted bucket.
func Trend(buckets []domain.LevelBucket) []domain.TrendPoint {
	points, _ := trend(buckets)
	return points
}

// trend also reports the levels whose point could not be computed because the
// preceding emitted bucket has a zero mean.
func trend(buckets []domain.LevelBucket) ([]domain.TrendPoint, []int) {
	if len(buckets) < 2 {
		return nil, nil
	}
	var (
		points  []domain.TrendPoint
		skipped []int
	)
	for i := 1; i < len(buckets); i++ {
		base, b := buckets[i-1], buckets[i]
		if base.Mean == 0 {
			skipped = append(skipped, b.Level)
			continue
		}
		points = append(points, domain.TrendPoint{Level: b.Level, PercentChange: b.Mean/base.Mean*100 - 100})
	}
	return points, skipped
}

// Report computes buckets and trend for every score variant.
func Report(entities []domain.Entity, threshold int, rng LevelRange) []domain.VariantSummary {
	out := make([]domain.VariantSummary, 0, len(domain.Variants))
	for _, v := range domain.Variants {
		buckets := Buckets(entities, v, threshold, rng)
		points, skipped := trend(buckets)
		out = append(out, domain.VariantSummary{Variant: v, Buckets: buckets, Trend: points, Skipped: skipped})
	}
	return out
}
