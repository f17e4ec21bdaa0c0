// Package output writes ranking results: the YAML report, the XLSX workbook and the console summary.
package output

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	"gopkg.in/yaml.v3"

	"github.com/helheim/content_ranker/internal/domain"
)

const zstdExt = ".zst"

type attributeRecord struct {
	Name string `yaml:"name"`
	Min  int    `yaml:"min"`
	Max  int    `yaml:"max"`
}

type enchantmentRecord struct {
	ID    string `yaml:"id"`
	Level int    `yaml:"level"`
}

type equipmentRecord struct {
	ID           string              `yaml:"id"`
	ItemID       int                 `yaml:"item_id"`
	Enchantments []enchantmentRecord `yaml:"enchantments,omitempty"`
}

type scoresRecord struct {
	Pessimistic float64 `yaml:"pessimistic"`
	Expected    float64 `yaml:"expected"`
	Optimistic  float64 `yaml:"optimistic"`
}

// EntityRecord is the report form of a ranked entity.
type EntityRecord struct {
	Kind       domain.Kind       `yaml:"kind"`
	Level      int               `yaml:"level"`
	Display    string            `yaml:"display,omitempty"`
	Health     int               `yaml:"health,omitempty"`
	Damage     int               `yaml:"damage,omitempty"`
	Attributes []attributeRecord `yaml:"attributes,omitempty"`
	Equipment  []equipmentRecord `yaml:"equipment,omitempty"`
	Scores     scoresRecord      `yaml:"scores"`
}

func toRecord(e domain.Entity) EntityRecord {
	r := EntityRecord{
		Kind:    e.Kind,
		Level:   e.Level,
		Display: e.Display,
		Health:  e.Health,
		Damage:  e.Damage,
		Scores: scoresRecord{
			Pessimistic: e.Scores.Pessimistic,
			Expected:    e.Scores.Expected,
			Optimistic:  e.Scores.Optimistic,
		},
	}
	for _, a := range e.Attributes {
		r.Attributes = append(r.Attributes, attributeRecord{Name: a.Name, Min: a.Min, Max: a.Max})
	}
	for _, eq := range e.Equipment {
		er := equipmentRecord{ID: eq.ID, ItemID: eq.ItemID}
		for _, en := range eq.Enchantments {
			er.Enchantments = append(er.Enchantments, enchantmentRecord{ID: en.ID, Level: en.Level})
		}
		r.Equipment = append(r.Equipment, er)
	}
	return r
}

// ReportName returns "<kind>s-<unix millis>" used for every artifact of one run.
func ReportName(kind domain.Kind, now time.Time) string {
	return fmt.Sprintf("%ss-%d", kind, now.UnixMilli())
}

// ReportPath is the report file for name inside dir.
func ReportPath(dir, name string, compress bool) string {
	p := filepath.Join(dir, name+".yml")
	if compress {
		p += zstdExt
	}
	return p
}

// MarshalReport renders entities as an ordered mapping of id to record.
func MarshalReport(entities []domain.Entity) ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, e := range entities {
		var val yaml.Node
		if err := val.Encode(toRecord(e)); err != nil {
			return nil, fmt.Errorf("encode %s: %w", e.ID, err)
		}
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.ID},
			&val,
		)
	}
	doc := &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteReport creates path and writes the report into it. An existing file is never replaced.
// Paths ending in .zst are zstd-compressed.
func WriteReport(path string, entities []domain.Entity) (err error) {
	b, err := MarshalReport(entities)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create report %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()

	if !strings.HasSuffix(path, zstdExt) {
		if _, err := f.Write(b); err != nil {
			return fmt.Errorf("write report %s: %w", path, err)
		}
		return nil
	}

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	if _, err := enc.Write(b); err != nil {
		_ = enc.Close()
		return fmt.Errorf("write report %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("flush report %s: %w", path, err)
	}
	return nil
}

// ReadReport loads a report written by WriteReport, keeping the entity order.
func ReadReport(path string) ([]string, map[string]EntityRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, zstdExt) {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, nil, err
		}
		defer dec.Close()
		r = dec
	}

	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, map[string]EntityRecord{}, nil
		}
		return nil, nil, fmt.Errorf("parse report %s: %w", path, err)
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, nil, fmt.Errorf("parse report %s: expected a mapping", path)
	}

	root := doc.Content[0]
	ids := make([]string, 0, len(root.Content)/2)
	out := make(map[string]EntityRecord, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		var rec EntityRecord
		if err := root.Content[i+1].Decode(&rec); err != nil {
			return nil, nil, fmt.Errorf("decode %s: %w", root.Content[i].Value, err)
		}
		kind, err := domain.ParseKind(string(rec.Kind))
		if err != nil {
			return nil, nil, fmt.Errorf("decode %s: %w", root.Content[i].Value, err)
		}
		rec.Kind = kind
		ids = append(ids, root.Content[i].Value)
		out[root.Content[i].Value] = rec
	}
	return ids, out, nil
}
