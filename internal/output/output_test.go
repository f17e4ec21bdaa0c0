package output_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/helheim/content_ranker/internal/domain"
	"github.com/helheim/content_ranker/internal/output"
)

func sampleEntities() []domain.Entity {
	return []domain.Entity{
		{ID: "Rune_Axe", Kind: domain.KindItem, Level: 10,
			Attributes: []domain.Attribute{{Name: "Damage", Min: 10, Max: 20}},
			Scores:     domain.Scores{Pessimistic: 10, Expected: 15, Optimistic: 20}},
		{ID: "Ash_Bow", Kind: domain.KindItem, Level: 11,
			Attributes: []domain.Attribute{{Name: "Damage", Min: 30, Max: 30}},
			Scores:     domain.Scores{Pessimistic: 30, Expected: 30, Optimistic: 30}},
	}
}

func sampleSummaries() []domain.VariantSummary {
	var out []domain.VariantSummary
	for _, v := range domain.Variants {
		out = append(out, domain.VariantSummary{
			Variant: v,
			Buckets: []domain.LevelBucket{{Level: 10, Mean: 70, Samples: 5}, {Level: 11, Mean: 140, Samples: 5}},
			Trend:   []domain.TrendPoint{{Level: 11, PercentChange: 100}},
		})
	}
	return out
}

func TestReportName(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	name := output.ReportName(domain.KindItem, now)
	if name != "items-1700000000123" {
		t.Fatalf("unexpected name %q", name)
	}
	if got := output.ReportPath("/out", name, true); got != filepath.Join("/out", "items-1700000000123.yml.zst") {
		t.Fatalf("unexpected compressed path %q", got)
	}
}

func TestWriteReport_RoundTrip(t *testing.T) {
	for _, compress := range []bool{false, true} {
		dir := t.TempDir()
		path := output.ReportPath(dir, "items-1", compress)
		if err := output.WriteReport(path, sampleEntities()); err != nil {
			t.Fatalf("compress=%v: WriteReport: %v", compress, err)
		}

		ids, recs, err := output.ReadReport(path)
		if err != nil {
			t.Fatalf("compress=%v: ReadReport: %v", compress, err)
		}
		if strings.Join(ids, ",") != "Rune_Axe,Ash_Bow" {
			t.Fatalf("compress=%v: expected ranked order, got %v", compress, ids)
		}
		axe := recs["Rune_Axe"]
		if axe.Level != 10 || axe.Scores.Expected != 15 || len(axe.Attributes) != 1 {
			t.Fatalf("compress=%v: unexpected record %#v", compress, axe)
		}
	}
}

func TestWriteReport_NeverOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items-1.yml")
	if err := os.WriteFile(path, []byte("keep: me\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := output.WriteReport(path, sampleEntities()); err == nil {
		t.Fatalf("expected existing report to be left alone")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(b) != "keep: me\n" {
		t.Fatalf("existing file was modified: %q", string(b))
	}
}

func TestMarshalReport_MobFields(t *testing.T) {
	b, err := output.MarshalReport([]domain.Entity{{
		ID: "goblin", Kind: domain.KindMob, Level: 25, Display: "Goblin", Health: 20, Damage: 4,
		Equipment: []domain.Equipment{{ID: "goblin_sword", ItemID: 267, Enchantments: []domain.Enchantment{{ID: "DAMAGE_ALL", Level: 3}}}},
		Scores:    domain.Scores{Pessimistic: 40, Expected: 40, Optimistic: 40},
	}})
	if err != nil {
		t.Fatalf("MarshalReport: %v", err)
	}
	s := string(b)
	for _, want := range []string{"goblin:", "kind: mob", "health: 20", "item_id: 267", "id: DAMAGE_ALL", "expected: 40"} {
		if !strings.Contains(s, want) {
			t.Fatalf("expected %q in report:\n%s", want, s)
		}
	}
}

func TestWriteWorkbook(t *testing.T) {
	path := output.WorkbookPath(t.TempDir(), "items-1")
	if err := output.WriteWorkbook(path, domain.KindItem, sampleEntities(), sampleSummaries()); err != nil {
		t.Fatalf("WriteWorkbook: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != output.SheetRanking || sheets[1] != output.SheetLevels {
		t.Fatalf("unexpected sheets %v", sheets)
	}
	if v, _ := f.GetCellValue(output.SheetRanking, "B2"); v != "Rune_Axe" {
		t.Fatalf("expected first ranked id in B2, got %q", v)
	}
	if v, _ := f.GetCellValue(output.SheetLevels, "A3"); v != "11" {
		t.Fatalf("expected level 11 in A3, got %q", v)
	}
	if v, _ := f.GetCellValue(output.SheetLevels, "H1"); v != "Samples" {
		t.Fatalf("expected samples header in H1, got %q", v)
	}
}

func TestWriteWorkbook_NoBuckets(t *testing.T) {
	path := output.WorkbookPath(t.TempDir(), "mobs-1")
	if err := output.WriteWorkbook(path, domain.KindMob, nil, nil); err != nil {
		t.Fatalf("WriteWorkbook: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected workbook to exist: %v", err)
	}
}

type prevMeans map[int]float64

func (p prevMeans) Get(v domain.Variant, level int) (float64, bool) {
	if v != domain.VariantExpected {
		return 0, false
	}
	m, ok := p[level]
	return m, ok
}

func TestLevelTable(t *testing.T) {
	s := output.LevelTable(sampleSummaries(), prevMeans{10: 65})
	for _, want := range []string{"Level", "Expected", "70.00", "140.00", "+100.00%", "65.00"} {
		if !strings.Contains(s, want) {
			t.Fatalf("expected %q in table:\n%s", want, s)
		}
	}
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	output.PrintSummary(&buf, output.Summary{Kind: domain.KindMob, Loaded: 3, Kept: 2, Excluded: 1})
	s := buf.String()
	if !strings.Contains(s, "mobs: 2 ranked, 1 excluded of 3 loaded") {
		t.Fatalf("unexpected header:\n%s", s)
	}
	if !strings.Contains(s, "No level has enough samples") {
		t.Fatalf("expected empty hint:\n%s", s)
	}
}
