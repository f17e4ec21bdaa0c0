package rank_test

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/helheim/content_ranker/internal/domain"
	"github.com/helheim/content_ranker/internal/rank"
	"github.com/helheim/content_ranker/internal/weights"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustParse(t *testing.T, in string) *weights.Table {
	t.Helper()
	tbl, err := weights.Parse([]byte(in))
	if err != nil {
		t.Fatalf("parse weights: %v", err)
	}
	return tbl
}

func TestScoreItem_Scenario(t *testing.T) {
	r := rank.New(mustParse(t, "Damage: 2\nVitality: 1\n"), quietLogger())
	e := domain.Entity{ID: "sword", Kind: domain.KindItem, Attributes: []domain.Attribute{
		{Name: "Damage", Min: 10, Max: 20},
		{Name: "Vitality", Min: 5, Max: 5},
	}}
	if !r.ScoreItem(&e) {
		t.Fatalf("expected entity to be kept")
	}
	want := domain.Scores{Pessimistic: 25, Expected: 35, Optimistic: 45}
	if e.Scores != want {
		t.Fatalf("expected %#v, got %#v", want, e.Scores)
	}
}

func TestScoreItem_OrderedVariants(t *testing.T) {
	r := rank.New(mustParse(t, "A: 0.5\nB: 3\nC: 0\n"), quietLogger())
	e := domain.Entity{ID: "x", Attributes: []domain.Attribute{
		{Name: "A", Min: 1, Max: 9},
		{Name: "B", Min: 2, Max: 4},
		{Name: "C", Min: 100, Max: 200},
		{Name: "D", Min: 0, Max: 7},
	}}
	r.ScoreItem(&e)
	s := e.Scores
	if !(s.Pessimistic <= s.Expected && s.Expected <= s.Optimistic) {
		t.Fatalf("expected pessimistic <= expected <= optimistic, got %#v", s)
	}
}

func TestScoreItem_NewAttributeGetsDefaultWeight(t *testing.T) {
	tbl := weights.New()
	r := rank.New(tbl, quietLogger())
	e := domain.Entity{ID: "x", Attributes: []domain.Attribute{{Name: "Luck", Min: 4, Max: 4}}}
	r.ScoreItem(&e)
	if e.Scores.Expected != 4 {
		t.Fatalf("expected 4 with default weight, got %v", e.Scores.Expected)
	}
	if w, ok := tbl.Get("Luck"); !ok || w != 1.0 {
		t.Fatalf("expected Luck to be added with 1.0, got %v ok=%v", w, ok)
	}
}

func TestScoreItem_InvalidWeightSkipsTerm(t *testing.T) {
	r := rank.New(mustParse(t, "Damage: many\nArmor: 2\n"), quietLogger())
	e := domain.Entity{ID: "x", Attributes: []domain.Attribute{
		{Name: "Damage", Min: 10, Max: 10},
		{Name: "Armor", Min: 3, Max: 3},
	}}
	if !r.ScoreItem(&e) {
		t.Fatalf("expected entity to be kept")
	}
	if e.Scores.Expected != 6 {
		t.Fatalf("expected only Armor to count, got %v", e.Scores.Expected)
	}
}

func TestScoreItem_NonPositiveExcluded(t *testing.T) {
	r := rank.New(mustParse(t, "Curse: -1\n"), quietLogger())
	e := domain.Entity{ID: "cursed", Attributes: []domain.Attribute{{Name: "Curse", Min: 5, Max: 5}}}
	if r.ScoreItem(&e) {
		t.Fatalf("expected negative score to be excluded")
	}
	empty := domain.Entity{ID: "empty"}
	if r.ScoreItem(&empty) {
		t.Fatalf("expected entity without attributes to be excluded")
	}
}

func TestScoreMob(t *testing.T) {
	tbl := mustParse(t, "\"267\": 10\nDAMAGE_ALL: 2\n")
	r := rank.New(tbl, quietLogger())
	e := domain.Entity{ID: "goblin", Kind: domain.KindMob, Health: 20, Damage: 4, Equipment: []domain.Equipment{
		{ID: "goblin_sword", ItemID: 267, Enchantments: []domain.Enchantment{{ID: "DAMAGE_ALL", Level: 3}, {ID: "FIRE_ASPECT", Level: 2}}},
		{ID: "goblin_cap", ItemID: 298},
	}}
	if !r.Score(&e) {
		t.Fatalf("expected mob to be kept")
	}
	// 10 + 2*3 + 0*2 + 0 + 20 + 4
	if e.Scores.Expected != 40 || e.Scores.Pessimistic != 40 || e.Scores.Optimistic != 40 {
		t.Fatalf("expected all variants 40, got %#v", e.Scores)
	}
	for _, key := range []string{"FIRE_ASPECT", "298"} {
		if w, ok := tbl.Get(key); !ok || w != 0 {
			t.Fatalf("expected %s to be added with 0.0, got %v ok=%v", key, w, ok)
		}
	}
}

func TestRank_SortsAndExcludes(t *testing.T) {
	r := rank.New(weights.New(), quietLogger())
	in := []domain.Entity{
		{ID: "b", Level: 2, Attributes: []domain.Attribute{{Name: "A", Min: 1, Max: 1}}},
		{ID: "zero", Level: 1},
		{ID: "a", Level: 1, Attributes: []domain.Attribute{{Name: "A", Min: 9, Max: 9}}},
		{ID: "c", Level: 1, Attributes: []domain.Attribute{{Name: "A", Min: 3, Max: 3}}},
	}
	kept, excluded := r.Rank(in)
	if len(excluded) != 1 || excluded[0] != "zero" {
		t.Fatalf("expected [zero] excluded, got %#v", excluded)
	}
	want := []string{"c", "a", "b"}
	if len(kept) != len(want) {
		t.Fatalf("expected %d kept, got %d", len(want), len(kept))
	}
	for i := range want {
		if kept[i].ID != want[i] {
			t.Fatalf("expected[%d]=%q, got %q", i, want[i], kept[i].ID)
		}
		if kept[i].Scores.Expected <= 0 {
			t.Fatalf("expected positive scores only, got %#v", kept[i])
		}
	}
}

func TestBlacklist_CaseInsensitiveSubstring(t *testing.T) {
	b := rank.NewBlacklist([]string{"sword", "  ", "TEST_"})
	if !b.Excludes("Epic_Sword") {
		t.Fatalf("expected Epic_Sword to be excluded by 'sword'")
	}
	if !b.Excludes("my_test_item") {
		t.Fatalf("expected substring match for TEST_")
	}
	if b.Excludes("Epic_Axe") {
		t.Fatalf("expected Epic_Axe to pass")
	}
	if b.Len() != 2 {
		t.Fatalf("expected blank entries to be dropped, got %d", b.Len())
	}
}

func TestLoadBlacklist(t *testing.T) {
	dir := t.TempDir()

	b, err := rank.LoadBlacklist(filepath.Join(dir, "missing.yml"))
	if err != nil || b.Len() != 0 {
		t.Fatalf("expected empty blacklist for missing file, got len=%d err=%v", b.Len(), err)
	}

	empty := filepath.Join(dir, "empty.yml")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	b, err = rank.LoadBlacklist(empty)
	if err != nil || b.Len() != 0 {
		t.Fatalf("expected empty blacklist for empty file, got len=%d err=%v", b.Len(), err)
	}

	path := filepath.Join(dir, "items-blacklist.yml")
	if err := os.WriteFile(path, []byte("blacklist:\n  - test\n  - Debug\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	b, err = rank.LoadBlacklist(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !b.Excludes("DEBUG_WAND") || !b.Excludes("Test1") {
		t.Fatalf("expected loaded entries to match")
	}
}
