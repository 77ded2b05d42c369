package analysis

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// ChartKind is the visual form of a chart.
type ChartKind string

const (
	KindPie        ChartKind = "pie"
	KindBar        ChartKind = "bar"
	KindLine       ChartKind = "line"
	KindGroupedBar ChartKind = "grouped-bar"
)

// Default color palette for chart series.
var defaultColors = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

// Point is one labelled value of a series.
type Point struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Series is a named sequence of points.
type Series struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
	Color  string  `json:"color"`
}

// ChartSpec describes a chart independently of how it gets drawn.
type ChartSpec struct {
	Kind   ChartKind `json:"kind"`
	Title  string    `json:"title"`
	XAxis  string    `json:"x_axis"`
	YAxis  string    `json:"y_axis"`
	Series []Series  `json:"series"`
	Colors []string  `json:"colors"`
}

// Points returns the total number of points across all series.
func (c ChartSpec) Points() int {
	n := 0
	for _, s := range c.Series {
		n += len(s.Points)
	}
	return n
}

type keywordRule struct {
	kind     ChartKind
	keywords []string
}

// Checked in order; the first rule with a matching keyword wins.
var keywordRules = []keywordRule{
	{KindGroupedBar, []string{"comparison", "compare", "versus", "vs", "比较", "对比"}},
	{KindLine, []string{"trend", "over time", "daily", "weekly", "趋势", "走势", "变化"}},
	{KindPie, []string{"distribution", "share", "proportion", "breakdown", "占比", "分布", "构成", "类别", "分类"}},
}

var weekKeywords = []string{"week", "weekly", "周"}

// Choice is the chart kind and dimension picked for an analysis need.
type Choice struct {
	Kind      ChartKind
	Dimension Dimension
}

// Dispatch maps a free-form analysis need onto a chart kind and dimension.
// Unrecognised needs get a bar chart by category.
func Dispatch(need string) Choice {
	text := cases.Fold().String(need)

	for _, rule := range keywordRules {
		if !containsAny(text, rule.keywords) {
			continue
		}
		switch rule.kind {
		case KindGroupedBar:
			return Choice{Kind: KindGroupedBar, Dimension: ByCategoryComparison}
		case KindLine:
			if containsAny(text, weekKeywords) {
				return Choice{Kind: KindLine, Dimension: ByWeek}
			}
			return Choice{Kind: KindLine, Dimension: ByDay}
		default:
			return Choice{Kind: rule.kind, Dimension: ByCategory}
		}
	}
	return Choice{Kind: KindBar, Dimension: ByCategory}
}

// InferDimension returns the aggregation dimension for need.
func InferDimension(need string) Dimension {
	return Dispatch(need).Dimension
}

// SelectChart builds the chart for need from an aggregation result.
func SelectChart(need string, result Result) ChartSpec {
	kind := Dispatch(need).Kind
	if kind == KindGroupedBar && result.Dimension != ByCategoryComparison {
		kind = KindBar
	}

	spec := ChartSpec{
		Kind:  kind,
		Title: strings.TrimSpace(need),
		XAxis: axisLabel(result.Dimension),
		YAxis: "Amount",
	}

	groups := result.Groups
	if kind == KindLine {
		groups = chronological(groups)
	}

	current := Series{Name: "Amount", Points: make([]Point, 0, len(groups))}
	for _, g := range groups {
		current.Points = append(current.Points, Point{Label: g.Key, Value: g.Total.InexactFloat64()})
	}

	if kind == KindGroupedBar {
		current.Name = "Current period"
		previous := Series{Name: "Previous period", Points: make([]Point, 0, len(groups))}
		for _, g := range groups {
			v := 0.0
			if g.Previous != nil {
				v = g.Previous.InexactFloat64()
			}
			previous.Points = append(previous.Points, Point{Label: g.Key, Value: v})
		}
		spec.Series = []Series{current, previous}
	} else {
		spec.Series = []Series{current}
	}

	if kind == KindPie {
		// one color per slice
		spec.Colors = assignColors(len(current.Points))
	} else {
		spec.Colors = assignColors(len(spec.Series))
	}
	for i := range spec.Series {
		spec.Series[i].Color = defaultColors[i%len(defaultColors)]
	}
	return spec
}

func axisLabel(dim Dimension) string {
	switch dim {
	case ByDay:
		return "Day"
	case ByWeek:
		return "Week"
	default:
		return "Category"
	}
}

// chronological orders date-keyed groups oldest first without touching the input.
func chronological(groups []Group) []Group {
	out := make([]Group, len(groups))
	copy(out, groups)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func assignColors(count int) []string {
	colors := make([]string, count)
	for i := 0; i < count; i++ {
		colors[i] = defaultColors[i%len(defaultColors)]
	}
	return colors
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if containsKeyword(text, cases.Fold().String(kw)) {
			return true
		}
	}
	return false
}

// containsKeyword matches Latin keywords at the start of a word, so "trend"
// fires in "trends" but "vs" does not fire inside "canvas". Other scripts
// match as substrings.
func containsKeyword(text, kw string) bool {
	if !isLatin(kw) {
		return strings.Contains(text, kw)
	}
	for from := 0; from <= len(text)-len(kw); {
		i := strings.Index(text[from:], kw)
		if i < 0 {
			return false
		}
		i += from
		if !wordRuneBefore(text, i) {
			return true
		}
		from = i + 1
	}
	return false
}

func isLatin(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return true
}

func wordRuneBefore(s string, i int) bool {
	if i == 0 {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return isWordRune(r)
}

func isWordRune(r rune) bool {
	return r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r))
}
