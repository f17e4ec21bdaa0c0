package output

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/helheim/content_ranker/internal/domain"
)

// PreviousMeans gives the mean a level had in an earlier run.
type PreviousMeans interface {
	Get(v domain.Variant, level int) (float64, bool)
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5FAFD7"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C6C6C")).Italic(true)
)

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

func formatPercent(f float64) string {
	return fmt.Sprintf("%+.2f%%", f)
}

// LevelTable renders one row per level with the mean of every variant, the expected trend
// and, when prev knows the level, the expected mean of the previous run.
func LevelTable(summaries []domain.VariantSummary, prev PreviousMeans) string {
	type row struct {
		samples int
		means   map[domain.Variant]float64
		change  *float64
	}
	rows := make(map[int]*row)
	get := func(level int) *row {
		r := rows[level]
		if r == nil {
			r = &row{means: make(map[domain.Variant]float64)}
			rows[level] = r
		}
		return r
	}
	for _, s := range summaries {
		for _, b := range s.Buckets {
			r := get(b.Level)
			r.means[s.Variant] = b.Mean
			if s.Variant == domain.VariantExpected {
				r.samples = b.Samples
			}
		}
		if s.Variant != domain.VariantExpected {
			continue
		}
		for _, p := range s.Trend {
			pc := p.PercentChange
			get(p.Level).change = &pc
		}
	}

	levels := make([]int, 0, len(rows))
	for l := range rows {
		levels = append(levels, l)
	}
	sort.Ints(levels)

	headers := []string{"Level", "Samples"}
	for _, s := range summaries {
		headers = append(headers, variantTitles[s.Variant])
	}
	headers = append(headers, "Δ expected", "Previous")

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	for _, l := range levels {
		r := rows[l]
		cells := []string{strconv.Itoa(l), strconv.Itoa(r.samples)}
		for _, s := range summaries {
			if m, ok := r.means[s.Variant]; ok {
				cells = append(cells, formatFloat(m))
			} else {
				cells = append(cells, "")
			}
		}
		if r.change != nil {
			cells = append(cells, formatPercent(*r.change))
		} else {
			cells = append(cells, "")
		}
		if prev != nil {
			if m, ok := prev.Get(domain.VariantExpected, l); ok {
				cells = append(cells, formatFloat(m))
			} else {
				cells = append(cells, "")
			}
		} else {
			cells = append(cells, "")
		}
		t.Row(cells...)
	}
	return t.String()
}

// Summary is what a run prints to the console for one entity kind.
type Summary struct {
	Kind       domain.Kind
	Loaded     int
	Kept       int
	Excluded   int
	Discovered []string
	Variants   []domain.VariantSummary
	Previous   PreviousMeans
}

func PrintSummary(w io.Writer, s Summary) {
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%ss: %d ranked, %d excluded of %d loaded", s.Kind, s.Kept, s.Excluded, s.Loaded)))
	if len(s.Discovered) > 0 {
		fmt.Fprintln(w, hintStyle.Render(fmt.Sprintf("%d new weight keys added", len(s.Discovered))))
	}
	if !hasBuckets(s.Variants) {
		fmt.Fprintln(w, hintStyle.Render("No level has enough samples for a trend"))
		return
	}
	fmt.Fprintln(w, LevelTable(s.Variants, s.Previous))
}

func hasBuckets(summaries []domain.VariantSummary) bool {
	for _, s := range summaries {
		if len(s.Buckets) > 0 {
			return true
		}
	}
	return false
}
