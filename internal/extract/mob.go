package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/helheim/content_ranker/internal/domain"
)

var (
	// &8[&4Lv. 25&8]&c Efrít
	reMobLevel    = regexp.MustCompile(`\[.*&.Lv\. (\d+)&.\]&. `)
	reEquipment   = regexp.MustCompile(`^\s*(.+?):\d+\s*$`)
	reEnchantment = regexp.MustCompile(`^\s*(.+):(\d+)\s*$`)
)

// MobLevel reads the level out of a mob display name, 0 when the name has no level tag.
func MobLevel(display string) int {
	m := reMobLevel.FindStringSubmatch(display)
	if m == nil {
		return 0
	}
	lvl, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return lvl
}

// EquipmentRef parses "equipmentId:slot" and returns the equipment id.
func EquipmentRef(line string) (string, bool) {
	m := reEquipment.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	id := strings.TrimSpace(m[1])
	return id, id != ""
}

// EnchantmentRef parses "enchantmentId:level".
func EnchantmentRef(line string) (domain.Enchantment, bool) {
	m := reEnchantment.FindStringSubmatch(line)
	if m == nil {
		return domain.Enchantment{}, false
	}
	id := strings.TrimSpace(m[1])
	if id == "" {
		return domain.Enchantment{}, false
	}
	lvl, err := strconv.Atoi(m[2])
	if err != nil {
		return domain.Enchantment{}, false
	}
	return domain.Enchantment{ID: id, Level: lvl}, true
}
