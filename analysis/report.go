package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"consumptionanalysis/store"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// ChartRenderer turns a chart spec into a retrievable artifact and returns
// its reference.
type ChartRenderer interface {
	Render(spec ChartSpec) (string, error)
}

// Request asks for one chart per analysis need over a date window.
type Request struct {
	UserID          uuid.UUID
	Window          Window
	Needs           []string
	TransactionType string
}

// Validate checks the request before anything is fetched.
func (r Request) Validate() error {
	if r.UserID == uuid.Nil {
		return store.Invalid("user_id", "is required")
	}
	if r.Window.Start.IsZero() || r.Window.End.IsZero() {
		return store.Invalid("start_date", "date range is required")
	}
	if !r.Window.Start.Before(r.Window.End) {
		return store.Invalid("end_date", "must not be before start_date")
	}
	if len(r.Needs) == 0 {
		return store.Invalid("analysis_needs", "at least one analysis need is required")
	}
	for i, need := range r.Needs {
		if strings.TrimSpace(need) == "" {
			return store.Invalid("analysis_needs", "entry %d is blank", i)
		}
	}
	switch r.TransactionType {
	case "", store.TypeExpense, store.TypeIncome:
	default:
		return store.Invalid("transaction_type", "must be %q or %q", store.TypeExpense, store.TypeIncome)
	}
	return nil
}

func (r Request) wantsComparison() bool {
	for _, need := range r.Needs {
		if InferDimension(need) == ByCategoryComparison {
			return true
		}
	}
	return false
}

// Entry is the analysis of a single need.
type Entry struct {
	Need      string    `json:"need"`
	Dimension Dimension `json:"dimension"`
	Result    Result    `json:"result"`
	Chart     ChartSpec `json:"chart"`
	ChartURL  string    `json:"chart_url,omitempty"`
	Summary   string    `json:"summary"`
	Empty     bool      `json:"empty"`
}

// Report is the assembled analysis of every need in a request.
type Report struct {
	UserID      uuid.UUID       `json:"user_id"`
	UserName    string          `json:"user_name"`
	StartDate   string          `json:"start_date"`
	EndDate     string          `json:"end_date"`
	Entries     []Entry         `json:"entries"`
	Total       decimal.Decimal `json:"total"`
	Count       int             `json:"count"`
	Summary     string          `json:"summary"`
	GeneratedAt time.Time       `json:"generated_at"`
	MarkdownURL string          `json:"markdown_url,omitempty"`
	PDFURL      string          `json:"pdf_url,omitempty"`
}

// Reporter runs the fetch, aggregate, chart pipeline for analysis requests.
type Reporter struct {
	store    store.Store
	renderer ChartRenderer
	now      func() time.Time
}

// NewReporter creates a Reporter. A nil renderer leaves chart references empty.
func NewReporter(s store.Store, renderer ChartRenderer) *Reporter {
	return &Reporter{store: s, renderer: renderer, now: time.Now}
}

// Analyze produces one entry per need, in request order.
func (r *Reporter) Analyze(ctx context.Context, req Request) ([]Entry, error) {
	_, entries, _, err := r.run(ctx, req)
	return entries, err
}

// BuildReport produces the entries plus an overall summary of the period.
func (r *Reporter) BuildReport(ctx context.Context, req Request) (*Report, error) {
	user, entries, period, err := r.run(ctx, req)
	if err != nil {
		return nil, err
	}

	report := &Report{
		UserID:      user.ID,
		UserName:    user.Name,
		StartDate:   req.Window.Start.Format(DateLayout),
		EndDate:     req.Window.LastDay().Format(DateLayout),
		Entries:     entries,
		Total:       period.Total,
		Count:       period.Count,
		GeneratedAt: r.now().UTC(),
	}
	report.Summary = overallSummary(user.Name, req.Window, period, len(entries))
	return report, nil
}

func (r *Reporter) run(ctx context.Context, req Request) (*store.User, []Entry, Result, error) {
	if err := req.Validate(); err != nil {
		return nil, nil, Result{}, err
	}

	user, err := r.store.GetUser(ctx, req.UserID)
	if err != nil {
		return nil, nil, Result{}, err
	}

	analyzer := NewAnalyzer(r.store)
	records, err := analyzer.fetch(ctx, req.UserID, req.Window, req.TransactionType)
	if err != nil {
		return nil, nil, Result{}, err
	}
	if req.wantsComparison() {
		previous, err := analyzer.fetch(ctx, req.UserID, req.Window.Previous(), req.TransactionType)
		if err != nil {
			return nil, nil, Result{}, err
		}
		records = append(records, previous...)
	}

	entries := make([]Entry, 0, len(req.Needs))
	for _, need := range req.Needs {
		entries = append(entries, r.analyzeNeed(need, records, req.Window))
	}

	period := Aggregate(records, req.Window, ByCategory)
	return user, entries, period, nil
}

func (r *Reporter) analyzeNeed(need string, records []*store.Consumption, w Window) Entry {
	dim := InferDimension(need)
	result := Aggregate(records, w, dim)

	entry := Entry{
		Need:      need,
		Dimension: dim,
		Result:    result,
		Chart:     SelectChart(need, result),
		Empty:     result.Empty,
		Summary:   summarize(result),
	}

	if result.Empty || r.renderer == nil {
		return entry
	}

	url, err := r.renderer.Render(entry.Chart)
	if err != nil {
		log.Warn().Err(err).Str("need", need).Str("kind", string(entry.Chart.Kind)).Msg("Chart rendering failed")
		return entry
	}
	entry.ChartURL = url
	return entry
}

// summarize writes the one-line takeaway for a result.
func summarize(result Result) string {
	if result.Empty {
		return "No data for this period"
	}
	top := result.Groups[0]

	switch result.Dimension {
	case ByDay:
		return fmt.Sprintf("Peak day: %s, total %s across %d days", top.Key, top.Total.StringFixed(2), len(result.Groups))
	case ByWeek:
		return fmt.Sprintf("Peak week starting %s, total %s across %d weeks", top.Key, top.Total.StringFixed(2), len(result.Groups))
	case ByCategoryComparison:
		prev := decimal.Zero
		if top.Previous != nil {
			prev = *top.Previous
		}
		return fmt.Sprintf("Top category: %s, total %s (previous period %s, %s)",
			top.Key, top.Total.StringFixed(2), prev.StringFixed(2), change(top.Total, prev))
	default:
		share := decimal.Zero
		if !result.Total.IsZero() {
			share = top.Total.Div(result.Total).Mul(decimal.NewFromInt(100))
		}
		return fmt.Sprintf("Top category: %s, total %s (%s%% of %s)",
			top.Key, top.Total.StringFixed(2), share.StringFixed(1), result.Total.StringFixed(2))
	}
}

func change(current, previous decimal.Decimal) string {
	if previous.IsZero() {
		if current.IsZero() {
			return "unchanged"
		}
		return "new this period"
	}
	pct := current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100))
	if pct.IsPositive() {
		return "up " + pct.StringFixed(1) + "%"
	}
	if pct.IsNegative() {
		return "down " + pct.Abs().StringFixed(1) + "%"
	}
	return "unchanged"
}

func overallSummary(name string, w Window, period Result, needs int) string {
	if period.Empty {
		return fmt.Sprintf("%s had no records from %s; %d analyses produced no data",
			name, w, needs)
	}
	return fmt.Sprintf("%s recorded %d transactions totalling %s from %s; %d analyses generated",
		name, period.Count, period.Total.StringFixed(2), w, needs)
}
