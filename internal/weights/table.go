// Package weights holds the self-extending weight table used for ranking.
package weights

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// AttributeDefault is the weight of a newly seen attribute name.
	AttributeDefault = 1.0
	// EquipmentDefault is the weight of a newly seen equipment or enchantment id.
	// Equipment has no measured value until it is tuned by hand.
	EquipmentDefault = 0.0
)

// InvalidWeightError is returned when a stored weight is not a number.
type InvalidWeightError struct {
	Key string
	Raw string
}

func (e *InvalidWeightError) Error() string {
	return fmt.Sprintf("weight for %q is not a number: %q", e.Key, e.Raw)
}

type entry struct {
	key   *yaml.Node
	value *yaml.Node
	num   float64
	valid bool
}

// Table maps attribute, equipment and enchantment keys to weights.
// Entries keep their file order; new keys are appended and never overwrite existing ones.
// A Table is not safe for concurrent use.
type Table struct {
	entries    []entry
	index      map[string]int
	discovered []string
}

func New() *Table {
	return &Table{index: make(map[string]int)}
}

// Load reads a weight file. A missing file yields an empty table.
func Load(path string) (*Table, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return New(), nil
		}
		return nil, fmt.Errorf("read weights %s: %w", path, err)
	}
	t, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("parse weights %s: %w", path, err)
	}
	return t, nil
}

// Parse decodes a YAML mapping of key -> number.
func Parse(b []byte) (*Table, error) {
	t := New()
	var doc yaml.Node
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	if len(doc.Content) == 0 {
		return t, nil
	}
	root := doc.Content[0]
	if root.Kind == yaml.ScalarNode && root.Tag == "!!null" {
		return t, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("expected a mapping of key -> weight, got %s", kindName(root.Kind))
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		k, v := root.Content[i], root.Content[i+1]
		e := entry{key: k, value: v}
		if v.Kind == yaml.ScalarNode && (v.Tag == "!!int" || v.Tag == "!!float") {
			if f, err := strconv.ParseFloat(strings.ReplaceAll(v.Value, "_", ""), 64); err == nil {
				e.num = f
				e.valid = true
			} else if err := v.Decode(&f); err == nil {
				e.num = f
				e.valid = true
			}
		}
		if idx, dup := t.index[k.Value]; dup {
			t.entries[idx] = e
			continue
		}
		t.index[k.Value] = len(t.entries)
		t.entries = append(t.entries, e)
	}
	return t, nil
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.SequenceNode:
		return "a sequence"
	case yaml.ScalarNode:
		return "a scalar"
	case yaml.AliasNode:
		return "an alias"
	default:
		return "an unsupported node"
	}
}

// GetOrDefault returns the weight for key, inserting def when the key is new.
// A stored value that is not a number yields *InvalidWeightError and is left untouched.
func (t *Table) GetOrDefault(key string, def float64) (float64, error) {
	if idx, ok := t.index[key]; ok {
		e := t.entries[idx]
		if !e.valid {
			return 0, &InvalidWeightError{Key: key, Raw: rawValue(e.value)}
		}
		return e.num, nil
	}
	t.index[key] = len(t.entries)
	t.entries = append(t.entries, entry{
		key:   &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		value: &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: formatWeight(def)},
		num:   def,
		valid: true,
	})
	t.discovered = append(t.discovered, key)
	return def, nil
}

// Attribute looks up an attribute weight, defaulting to AttributeDefault.
func (t *Table) Attribute(key string) (float64, error) {
	return t.GetOrDefault(key, AttributeDefault)
}

// Equipment looks up an equipment or enchantment weight, defaulting to EquipmentDefault.
func (t *Table) Equipment(key string) (float64, error) {
	return t.GetOrDefault(key, EquipmentDefault)
}

// Get returns a stored weight without inserting anything.
func (t *Table) Get(key string) (value float64, ok bool) {
	idx, ok := t.index[key]
	if !ok || !t.entries[idx].valid {
		return 0, false
	}
	return t.entries[idx].num, true
}

func (t *Table) Has(key string) bool {
	_, ok := t.index[key]
	return ok
}

func (t *Table) Len() int {
	return len(t.entries)
}

// Keys returns all keys in table order.
func (t *Table) Keys() []string {
	out := make([]string, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, e.key.Value)
	}
	return out
}

// Discovered returns the keys added since the table was loaded, in insertion order.
func (t *Table) Discovered() []string {
	return append([]string(nil), t.discovered...)
}

// Marshal encodes the table as a YAML mapping in insertion order.
func (t *Table) Marshal() ([]byte, error) {
	m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, e := range t.entries {
		m.Content = append(m.Content, e.key, e.value)
	}
	doc := &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{m}}

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

// Save rewrites the weight file in full. The write goes through a temp file so a failed
// save leaves the previous table in place.
func (t *Table) Save(path string) error {
	b, err := t.Marshal()
	if err != nil {
		return fmt.Errorf("encode weights: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write weights %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace weights %s: %w", path, err)
	}
	return nil
}

func formatWeight(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

func rawValue(n *yaml.Node) string {
	if n == nil {
		return ""
	}
	if n.Kind == yaml.ScalarNode {
		return n.Value
	}
	b, err := yaml.Marshal(n)
	if err != nil {
		return kindName(n.Kind)
	}
	return strings.TrimSpace(string(b))
}
