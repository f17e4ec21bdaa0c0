// Package rank scores items and mobs against the weight table.
package rank

import (
	"log/slog"
	"strconv"

	"github.com/helheim/content_ranker/internal/domain"
	"github.com/helheim/content_ranker/internal/weights"
)

// Ranker computes entity scores. Lookups of unseen keys grow Weights.
type Ranker struct {
	Weights *weights.Table
	Logger  *slog.Logger
}

func New(w *weights.Table, logger *slog.Logger) *Ranker {
	return &Ranker{Weights: w, Logger: logger}
}

func (r *Ranker) log() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

// weight resolves key, reporting ok=false when the stored value is unusable.
func (r *Ranker) weight(entityID, key string, def float64) (float64, bool) {
	isNew := !r.Weights.Has(key)
	w, err := r.Weights.GetOrDefault(key, def)
	if err != nil {
		r.log().Error("invalid weight, term skipped", "entity", entityID, "key", key, "error", err)
		return 0, false
	}
	if isNew {
		if similar := r.Weights.Similar(key); len(similar) > 0 {
			r.log().Warn("new weight key resembles existing keys", "key", key, "default", def, "similar", similar)
		} else {
			r.log().Debug("new weight key", "key", key, "default", def)
		}
	}
	return w, true
}

// ScoreItem sums weighted attribute ranges into e.Scores.
// It returns false when the expected score is not positive.
func (r *Ranker) ScoreItem(e *domain.Entity) bool {
	var s domain.Scores
	for _, a := range e.Attributes {
		w, ok := r.weight(e.ID, a.Name, weights.AttributeDefault)
		if !ok {
			continue
		}
		s.Pessimistic += w * float64(a.Min)
		s.Expected += w * (float64(a.Min) + float64(a.Max)) / 2
		s.Optimistic += w * float64(a.Max)
	}
	e.Scores = s
	return s.Expected > 0
}

// ScoreMob adds equipment weights, enchantment weight*level, health and damage.
// All three variants carry the same value.
func (r *Ranker) ScoreMob(e *domain.Entity) bool {
	total := 0.0
	for _, eq := range e.Equipment {
		if w, ok := r.weight(e.ID, strconv.Itoa(eq.ItemID), weights.EquipmentDefault); ok {
			total += w
		}
		for _, ench := range eq.Enchantments {
			if w, ok := r.weight(e.ID, ench.ID, weights.EquipmentDefault); ok {
				total += w * float64(ench.Level)
			}
		}
	}
	total += float64(e.Health)
	total += float64(e.Damage)
	e.Scores = domain.Scores{Pessimistic: total, Expected: total, Optimistic: total}
	return total > 0
}

// Score dispatches on the entity kind.
func (r *Ranker) Score(e *domain.Entity) bool {
	if e.Kind == domain.KindMob {
		return r.ScoreMob(e)
	}
	return r.ScoreItem(e)
}

// Rank scores every entity and returns those with a positive expected score in report order,
// plus the ids that were dropped.
func (r *Ranker) Rank(entities []domain.Entity) (kept []domain.Entity, excluded []string) {
	kept = make([]domain.Entity, 0, len(entities))
	for _, e := range entities {
		if !r.Score(&e) {
			r.log().Info("excluded: no measurable score", "entity", e.ID, "expected", e.Scores.Expected)
			excluded = append(excluded, e.ID)
			continue
		}
		kept = append(kept, e)
	}
	domain.SortForReport(kept)
	return kept, excluded
}
