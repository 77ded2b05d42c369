// Package charts draws analysis chart specs as PNG files.
package charts

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"consumptionanalysis/analysis"

	"github.com/golang/freetype/truetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrNoData is returned for a spec with nothing to draw.
var ErrNoData = errors.New("chart has no data points")

// Options configures a Renderer.
type Options struct {
	Dir      string // where PNG files are written
	BaseURL  string // URL prefix the files are served under
	Width    int
	Height   int
	FontPath string // optional TTF with CJK glyphs
}

// Renderer writes charts into a directory served over HTTP.
type Renderer struct {
	dir     string
	baseURL string
	width   int
	height  int
	font    *truetype.Font
}

type renderable interface {
	Render(rp chart.RendererProvider, w io.Writer) error
}

// NewRenderer creates the output directory and loads the optional font.
func NewRenderer(opts Options) (*Renderer, error) {
	if opts.Width <= 0 {
		opts.Width = 800
	}
	if opts.Height <= 0 {
		opts.Height = 500
	}
	if opts.BaseURL == "" {
		opts.BaseURL = "/charts"
	}

	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create chart directory: %w", err)
	}

	r := &Renderer{
		dir:     opts.Dir,
		baseURL: strings.TrimSuffix(opts.BaseURL, "/"),
		width:   opts.Width,
		height:  opts.Height,
	}

	if opts.FontPath != "" {
		data, err := os.ReadFile(opts.FontPath)
		if err != nil {
			return nil, fmt.Errorf("read chart font: %w", err)
		}
		font, err := truetype.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("parse chart font: %w", err)
		}
		r.font = font
	}
	return r, nil
}

// Dir is the directory charts are written to.
func (r *Renderer) Dir() string {
	return r.dir
}

// Render draws spec and returns the URL of the written PNG.
func (r *Renderer) Render(spec analysis.ChartSpec) (string, error) {
	if spec.Points() == 0 {
		return "", ErrNoData
	}

	var buf bytes.Buffer
	if err := r.build(spec).Render(chart.PNG, &buf); err != nil {
		return "", fmt.Errorf("render %s chart: %w", spec.Kind, err)
	}

	name := fmt.Sprintf("%s-%s.png", spec.Kind, uuid.NewString())
	if err := os.WriteFile(filepath.Join(r.dir, name), buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write chart: %w", err)
	}

	log.Debug().Str("kind", string(spec.Kind)).Str("file", name).Int("bytes", buf.Len()).Msg("Chart rendered")
	return path.Join(r.baseURL, name), nil
}

func (r *Renderer) build(spec analysis.ChartSpec) renderable {
	switch spec.Kind {
	case analysis.KindPie:
		return r.pie(spec)
	case analysis.KindLine:
		if line, ok := r.line(spec); ok {
			return line
		}
		return r.bar(spec)
	default:
		return r.bar(spec)
	}
}

func (r *Renderer) pie(spec analysis.ChartSpec) renderable {
	points := spec.Series[0].Points
	values := make([]chart.Value, 0, len(points))
	for i, p := range points {
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s %.2f", p.Label, p.Value),
			Value: p.Value,
			Style: fill(colorAt(spec.Colors, i)),
		})
	}

	return &chart.PieChart{
		Title:      spec.Title,
		Width:      r.height,
		Height:     r.height,
		Font:       r.font,
		Background: padded(),
		Values:     values,
	}
}

// bar draws every series side by side, so a two-series spec becomes a
// grouped bar with alternating colors.
func (r *Renderer) bar(spec analysis.ChartSpec) renderable {
	var bars []chart.Value
	peak := 0.0

	labels := spec.Series[0].Points
	for i := range labels {
		for _, s := range spec.Series {
			if i >= len(s.Points) {
				continue
			}
			p := s.Points[i]
			label := p.Label
			if len(spec.Series) > 1 {
				label = fmt.Sprintf("%s (%s)", p.Label, shortName(s.Name))
			}
			bars = append(bars, chart.Value{Label: label, Value: p.Value, Style: fill(s.Color)})
			if p.Value > peak {
				peak = p.Value
			}
		}
	}

	barWidth := clamp(r.width/(2*len(bars)+1), 12, 60)
	width := r.width
	if need := len(bars)*(barWidth+barWidth/2) + 120; need > width {
		width = need
	}

	return &chart.BarChart{
		Title:      spec.Title,
		Width:      width,
		Height:     r.height,
		Font:       r.font,
		Background: padded(),
		BarWidth:   barWidth,
		BarSpacing: barWidth / 2,
		YAxis: chart.YAxis{
			Name:  spec.YAxis,
			Range: valueRange(peak),
		},
		Bars: bars,
	}
}

// line plots date-keyed points; ok is false when the labels are not dates or
// there are too few points for a line.
func (r *Renderer) line(spec analysis.ChartSpec) (renderable, bool) {
	points := spec.Series[0].Points
	if len(points) < 2 {
		return nil, false
	}

	xs := make([]time.Time, 0, len(points))
	ys := make([]float64, 0, len(points))
	peak := 0.0
	for _, p := range points {
		t, err := time.Parse(analysis.DateLayout, p.Label)
		if err != nil {
			return nil, false
		}
		xs = append(xs, t)
		ys = append(ys, p.Value)
		if p.Value > peak {
			peak = p.Value
		}
	}

	color := parseColor(spec.Series[0].Color)
	return &chart.Chart{
		Title:      spec.Title,
		Width:      r.width,
		Height:     r.height,
		Font:       r.font,
		Background: padded(),
		XAxis: chart.XAxis{
			Name:           spec.XAxis,
			ValueFormatter: chart.TimeValueFormatterWithFormat("01-02"),
		},
		YAxis: chart.YAxis{
			Name:  spec.YAxis,
			Range: valueRange(peak),
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    spec.Series[0].Name,
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: color,
					StrokeWidth: 2,
					DotColor:    color,
					DotWidth:    3,
				},
			},
		},
	}, true
}

func padded() chart.Style {
	return chart.Style{Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20}}
}

// valueRange pins the y axis at zero so a flat series still has a range.
func valueRange(peak float64) *chart.ContinuousRange {
	if peak <= 0 {
		peak = 1
	}
	return &chart.ContinuousRange{Min: 0, Max: peak * 1.1}
}

func fill(hex string) chart.Style {
	c := parseColor(hex)
	return chart.Style{FillColor: c, StrokeColor: c}
}

func parseColor(hex string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}

func colorAt(colors []string, i int) string {
	if len(colors) == 0 {
		return "#4F46E5"
	}
	return colors[i%len(colors)]
}

func shortName(series string) string {
	if i := strings.IndexByte(series, ' '); i > 0 {
		return series[:i]
	}
	return series
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
