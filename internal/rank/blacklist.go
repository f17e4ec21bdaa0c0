package rank

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Blacklist excludes entities whose id contains any of its substrings, ignoring case.
type Blacklist struct {
	needles []string
}

func NewBlacklist(entries []string) Blacklist {
	b := Blacklist{needles: make([]string, 0, len(entries))}
	for _, s := range entries {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		b.needles = append(b.needles, s)
	}
	return b
}

// Excludes reports whether id matches an entry.
func (b Blacklist) Excludes(id string) bool {
	lower := strings.ToLower(id)
	for _, n := range b.needles {
		if strings.Contains(lower, n) {
			return true
		}
	}
	return false
}

func (b Blacklist) Len() int {
	return len(b.needles)
}

type blacklistFile struct {
	Blacklist []string `yaml:"blacklist"`
}

// LoadBlacklist reads {blacklist: [...]} from path. A missing file, an empty file or a
// missing key give an empty blacklist.
func LoadBlacklist(path string) (Blacklist, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Blacklist{}, nil
		}
		return Blacklist{}, fmt.Errorf("read blacklist %s: %w", path, err)
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return Blacklist{}, nil
	}
	var f blacklistFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return Blacklist{}, fmt.Errorf("parse blacklist %s: %w", path, err)
	}
	return NewBlacklist(f.Blacklist), nil
}
