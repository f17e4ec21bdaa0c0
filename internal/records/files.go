// Package records reads item and mob definitions from YAML files.
package records

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Record is one top-level entry of a definition file: its id and the raw value node.
type Record struct {
	ID   string
	Path string
	Node *yaml.Node
}

func isYAML(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yml" || ext == ".yaml"
}

// ReadDir reads every *.yml/*.yaml file under dir in lexical path order. A record id seen
// again in a later file replaces the earlier value but keeps its position. A missing dir
// yields no records.
func ReadDir(dir string) ([]Record, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isYAML(d.Name()) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}

	var out []Record
	index := make(map[string]int)
	for _, path := range paths {
		recs, err := ReadFile(path)
		if err != nil {
			return nil, err
		}
		for _, r := range recs {
			if i, ok := index[r.ID]; ok {
				out[i] = r
				continue
			}
			index[r.ID] = len(out)
			out = append(out, r)
		}
	}
	return out, nil
}

// ReadFile parses a single definition file. The document must be a mapping of id to record.
func ReadFile(path string) ([]Record, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return nil, nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, nil
	}
	root := doc.Content[0]
	if root.Kind == yaml.ScalarNode && root.Tag == "!!null" {
		return nil, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parse %s: expected a mapping of id to record", path)
	}

	out := make([]Record, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		out = append(out, Record{
			ID:   root.Content[i].Value,
			Path: path,
			Node: root.Content[i+1],
		})
	}
	return out, nil
}
