// Package extract turns free-form lore and equipment lines into typed values.
package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/helheim/content_ranker/internal/domain"
)

// DefaultLevelLabel is the attribute name that carries an item's level requirement.
// It is a Czech label from the game's lore; override it through level_label in ranker_config.yaml.
const DefaultLevelLabel = "Potřebný Lvl"

var (
	// &a+10-20 Damage, +5% Crit. Not anchored: text before the range is ignored.
	reValueFirst = regexp.MustCompile(`(?:&.)?\+(\d+)%?(?:-(\d+))?%? (.*)`)
	// &7Vitality: 5-15
	reNameFirst = regexp.MustCompile(`^(?:&.)?(.+): (\d+)%?(?:-(\d+))?%?`)
)

type linePattern struct {
	re    *regexp.Regexp
	parse func(m []string) (domain.Attribute, bool)
}

var linePatterns = []linePattern{
	{re: reValueFirst, parse: func(m []string) (domain.Attribute, bool) {
		return buildAttribute(m[3], m[1], m[2])
	}},
	{re: reNameFirst, parse: func(m []string) (domain.Attribute, bool) {
		return buildAttribute(m[1], m[2], m[3])
	}},
}

func buildAttribute(name, minStr, maxStr string) (domain.Attribute, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Attribute{}, false
	}
	lo, err := strconv.Atoi(minStr)
	if err != nil {
		return domain.Attribute{}, false
	}
	hi := lo
	if maxStr != "" {
		hi, err = strconv.Atoi(maxStr)
		if err != nil {
			return domain.Attribute{}, false
		}
	}
	if hi < lo {
		lo, hi = hi, lo
	}
	return domain.Attribute{Name: name, Min: lo, Max: hi}, true
}

// Extractor parses lore lines. The zero value uses DefaultLevelLabel.
type Extractor struct {
	LevelLabel string
}

func NewExtractor(levelLabel string) *Extractor {
	return &Extractor{LevelLabel: strings.TrimSpace(levelLabel)}
}

func (x *Extractor) levelLabel() string {
	if x == nil || x.LevelLabel == "" {
		return DefaultLevelLabel
	}
	return x.LevelLabel
}

// Extract parses a single line. Patterns are tried in order and the first match wins;
// ok=false means the line carries no attribute.
func (x *Extractor) Extract(line string) (attr domain.Attribute, ok bool) {
	if strings.TrimSpace(line) == "" {
		return domain.Attribute{}, false
	}
	for _, p := range linePatterns {
		m := p.re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if attr, ok := p.parse(m); ok {
			return attr, true
		}
	}
	return domain.Attribute{}, false
}

// IsLevel reports whether attr is the level requirement line.
func (x *Extractor) IsLevel(attr domain.Attribute) bool {
	return strings.EqualFold(attr.Name, x.levelLabel())
}

// ExtractLore parses every line of an item's lore. The level requirement stays in the
// attribute list and its min value is returned as level (0 when absent, last line wins).
func (x *Extractor) ExtractLore(lines []string) (attrs []domain.Attribute, level int) {
	for _, line := range lines {
		attr, ok := x.Extract(line)
		if !ok {
			continue
		}
		if x.IsLevel(attr) {
			level = attr.Min
		}
		attrs = append(attrs, attr)
	}
	return attrs, level
}
