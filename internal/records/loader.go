package records

import (
	"fmt"
	"log/slog"

	"github.com/helheim/content_ranker/internal/domain"
	"github.com/helheim/content_ranker/internal/extract"
)

// DefaultMobDisplay is used for mobs without a Display field.
const DefaultMobDisplay = "No mob name"

// Excluder decides whether a record id is filtered out before it is decoded.
type Excluder interface {
	Excludes(id string) bool
}

type Stats struct {
	Read        int
	Blacklisted int
	Invalid     int
}

func (s Stats) String() string {
	return fmt.Sprintf("read=%d blacklisted=%d invalid=%d", s.Read, s.Blacklisted, s.Invalid)
}

type itemRecord struct {
	Lore []string `yaml:"lore"`
}

type mobRecord struct {
	Display   *string  `yaml:"Display"`
	Health    int      `yaml:"Health"`
	Damage    int      `yaml:"Damage"`
	Equipment []string `yaml:"Equipment"`
}

type equipmentRecord struct {
	ID           int      `yaml:"Id"`
	Enchantments []string `yaml:"Enchantments"`
}

// Loader turns definition directories into unscored entities.
type Loader struct {
	Extractor *extract.Extractor
	Exclude   Excluder
	Logger    *slog.Logger
}

func (l *Loader) log() *slog.Logger {
	if l.Logger == nil {
		return slog.Default()
	}
	return l.Logger
}

func (l *Loader) excluded(id string) bool {
	return l.Exclude != nil && l.Exclude.Excludes(id)
}

// Items reads item records from dir.
func (l *Loader) Items(dir string) ([]domain.Entity, Stats, error) {
	recs, err := ReadDir(dir)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("load items: %w", err)
	}
	ents, st := l.DecodeItems(recs)
	return ents, st, nil
}

// DecodeItems validates and extracts item records. Blacklisted ids are dropped first.
func (l *Loader) DecodeItems(recs []Record) ([]domain.Entity, Stats) {
	ex := l.Extractor
	if ex == nil {
		ex = extract.NewExtractor("")
	}
	var st Stats
	out := make([]domain.Entity, 0, len(recs))
	for _, r := range recs {
		st.Read++
		if l.excluded(r.ID) {
			st.Blacklisted++
			l.log().Debug("blacklisted", "item", r.ID)
			continue
		}
		if err := validate(itemSchema, r.Node); err != nil {
			st.Invalid++
			l.log().Debug("invalid item record, skipped", "item", r.ID, "file", r.Path, "error", err)
			continue
		}
		var rec itemRecord
		if err := r.Node.Decode(&rec); err != nil {
			st.Invalid++
			l.log().Debug("invalid item record, skipped", "item", r.ID, "file", r.Path, "error", err)
			continue
		}
		attrs, level := ex.ExtractLore(rec.Lore)
		out = append(out, domain.Entity{
			ID:         r.ID,
			Kind:       domain.KindItem,
			Level:      level,
			Attributes: attrs,
		})
	}
	return out, st
}

// Mobs reads the equipment catalog from equipmentDir and the mobs from mobDir.
func (l *Loader) Mobs(mobDir, equipmentDir string) ([]domain.Entity, Stats, error) {
	eqRecs, err := ReadDir(equipmentDir)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("load mob equipment: %w", err)
	}
	catalog := l.DecodeEquipment(eqRecs)

	recs, err := ReadDir(mobDir)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("load mobs: %w", err)
	}
	ents, st := l.DecodeMobs(recs, catalog)
	return ents, st, nil
}

// DecodeEquipment builds the equipment catalog keyed by equipment id.
func (l *Loader) DecodeEquipment(recs []Record) map[string]domain.Equipment {
	out := make(map[string]domain.Equipment, len(recs))
	for _, r := range recs {
		if err := validate(equipmentSchema, r.Node); err != nil {
			l.log().Debug("invalid equipment record, skipped", "equipment", r.ID, "file", r.Path, "error", err)
			continue
		}
		var rec equipmentRecord
		if err := r.Node.Decode(&rec); err != nil {
			l.log().Debug("invalid equipment record, skipped", "equipment", r.ID, "file", r.Path, "error", err)
			continue
		}
		eq := domain.Equipment{ID: r.ID, ItemID: rec.ID}
		for _, s := range rec.Enchantments {
			ench, ok := extract.EnchantmentRef(s)
			if !ok {
				l.log().Debug("unrecognized enchantment", "equipment", r.ID, "value", s)
				continue
			}
			eq.Enchantments = append(eq.Enchantments, ench)
		}
		out[r.ID] = eq
	}
	return out
}

// DecodeMobs validates mob records and resolves their equipment against catalog.
// Unknown equipment references are dropped from the mob.
func (l *Loader) DecodeMobs(recs []Record, catalog map[string]domain.Equipment) ([]domain.Entity, Stats) {
	var st Stats
	out := make([]domain.Entity, 0, len(recs))
	for _, r := range recs {
		st.Read++
		if l.excluded(r.ID) {
			st.Blacklisted++
			l.log().Debug("blacklisted", "mob", r.ID)
			continue
		}
		if err := validate(mobSchema, r.Node); err != nil {
			st.Invalid++
			l.log().Debug("invalid mob record, skipped", "mob", r.ID, "file", r.Path, "error", err)
			continue
		}
		var rec mobRecord
		if err := r.Node.Decode(&rec); err != nil {
			st.Invalid++
			l.log().Debug("invalid mob record, skipped", "mob", r.ID, "file", r.Path, "error", err)
			continue
		}

		display := DefaultMobDisplay
		if rec.Display != nil {
			display = *rec.Display
		}
		e := domain.Entity{
			ID:      r.ID,
			Kind:    domain.KindMob,
			Level:   extract.MobLevel(display),
			Display: display,
			Health:  rec.Health,
			Damage:  rec.Damage,
		}
		for _, s := range rec.Equipment {
			ref, ok := extract.EquipmentRef(s)
			if !ok {
				l.log().Debug("unrecognized equipment reference", "mob", r.ID, "value", s)
				continue
			}
			eq, ok := catalog[ref]
			if !ok {
				l.log().Debug("unknown equipment", "mob", r.ID, "equipment", ref)
				continue
			}
			e.Equipment = append(e.Equipment, eq)
		}
		out = append(out, e)
	}
	return out, st
}
