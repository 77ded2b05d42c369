package charts

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"consumptionanalysis/analysis"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer(Options{Dir: filepath.Join(t.TempDir(), "charts"), Width: 640, Height: 400})
	require.NoError(t, err)
	return r
}

func assertPNG(t *testing.T, r *Renderer, url string) {
	t.Helper()
	require.True(t, strings.HasPrefix(url, "/charts/"), "unexpected url %q", url)

	data, err := os.ReadFile(filepath.Join(r.Dir(), strings.TrimPrefix(url, "/charts/")))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, pngMagic), "file is not a PNG")
}

func categoryResult() analysis.Result {
	prev := decimal.NewFromInt(120)
	zero := decimal.Zero
	return analysis.Result{
		Dimension: analysis.ByCategoryComparison,
		Groups: []analysis.Group{
			{Key: "transport", Total: decimal.NewFromInt(200), Count: 1, Previous: &prev},
			{Key: "food", Total: decimal.NewFromInt(150), Count: 2, Previous: &zero},
		},
	}
}

func dayResult(days ...string) analysis.Result {
	result := analysis.Result{Dimension: analysis.ByDay}
	for i, d := range days {
		result.Groups = append(result.Groups, analysis.Group{Key: d, Total: decimal.NewFromInt(int64(10 * (i + 1))), Count: 1})
	}
	return result
}

func TestRenderer(t *testing.T) {
	t.Run("should render a pie chart", func(t *testing.T) {
		r := newTestRenderer(t)
		result := categoryResult()
		result.Dimension = analysis.ByCategory

		url, err := r.Render(analysis.SelectChart("spending distribution", result))
		require.NoError(t, err)
		assert.Contains(t, url, "pie-")
		assertPNG(t, r, url)
	})

	t.Run("should render a bar chart", func(t *testing.T) {
		r := newTestRenderer(t)
		result := categoryResult()
		result.Dimension = analysis.ByCategory

		url, err := r.Render(analysis.SelectChart("top categories", result))
		require.NoError(t, err)
		assertPNG(t, r, url)
	})

	t.Run("should render a grouped bar chart", func(t *testing.T) {
		r := newTestRenderer(t)

		url, err := r.Render(analysis.SelectChart("compare periods", categoryResult()))
		require.NoError(t, err)
		assert.Contains(t, url, "grouped-bar-")
		assertPNG(t, r, url)
	})

	t.Run("should render a line chart", func(t *testing.T) {
		r := newTestRenderer(t)

		url, err := r.Render(analysis.SelectChart("daily trend", dayResult("2024-01-03", "2024-01-01", "2024-01-02")))
		require.NoError(t, err)
		assert.Contains(t, url, "line-")
		assertPNG(t, r, url)
	})

	t.Run("should draw a single-point trend as a bar", func(t *testing.T) {
		r := newTestRenderer(t)
		spec := analysis.SelectChart("daily trend", dayResult("2024-01-03"))

		_, isLine := r.line(spec)
		assert.False(t, isLine)

		url, err := r.Render(spec)
		require.NoError(t, err)
		assertPNG(t, r, url)
	})

	t.Run("should refuse a spec without points", func(t *testing.T) {
		r := newTestRenderer(t)

		_, err := r.Render(analysis.SelectChart("anything", analysis.Result{Dimension: analysis.ByCategory, Empty: true}))
		assert.ErrorIs(t, err, ErrNoData)
	})

	t.Run("should fail on a missing font file", func(t *testing.T) {
		_, err := NewRenderer(Options{Dir: t.TempDir(), FontPath: filepath.Join(t.TempDir(), "missing.ttf")})
		assert.Error(t, err)
	})
}

func TestValueRange(t *testing.T) {
	r := valueRange(0)
	assert.Equal(t, 0.0, r.Min)
	assert.InDelta(t, 1.1, r.Max, 1e-9)

	r = valueRange(200)
	assert.InDelta(t, 220.0, r.Max, 1e-9)
}
