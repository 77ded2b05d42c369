package analysis

import (
	"context"
	"fmt"
	"sort"
	"time"

	"consumptionanalysis/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DateLayout is the wire format of report dates.
const DateLayout = "2006-01-02"

// Uncategorized is the group key used for records without a category.
const Uncategorized = "uncategorized"

// Dimension is the grouping key of an aggregation.
type Dimension string

const (
	ByCategory           Dimension = "by-category"
	ByDay                Dimension = "by-day"
	ByWeek               Dimension = "by-week"
	ByCategoryComparison Dimension = "by-category-comparison"
)

// Window is a span of whole UTC days. Start is inclusive, End exclusive.
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow covers the calendar days from start through end inclusive.
func NewWindow(start, end time.Time) Window {
	s := truncateDay(start)
	e := truncateDay(end).AddDate(0, 0, 1)
	return Window{Start: s, End: e}
}

// ParseWindow parses two YYYY-MM-DD dates.
func ParseWindow(start, end string) (Window, error) {
	s, err := time.Parse(DateLayout, start)
	if err != nil {
		return Window{}, store.Invalid("start_date", "must be formatted as YYYY-MM-DD")
	}
	e, err := time.Parse(DateLayout, end)
	if err != nil {
		return Window{}, store.Invalid("end_date", "must be formatted as YYYY-MM-DD")
	}
	if e.Before(s) {
		return Window{}, store.Invalid("end_date", "must not be before start_date")
	}
	return NewWindow(s, e), nil
}

// MaxRecentDays bounds RecentWindow.
const MaxRecentDays = 366

// RecentWindow covers the last days calendar days up to and including now's day.
func RecentWindow(days int, now time.Time) (Window, error) {
	if days < 1 || days > MaxRecentDays {
		return Window{}, store.Invalid("days", "must be between 1 and %d", MaxRecentDays)
	}
	today := truncateDay(now)
	return NewWindow(today.AddDate(0, 0, 1-days), today), nil
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Days is the number of calendar days covered.
func (w Window) Days() int {
	return int(w.End.Sub(w.Start).Hours() / 24)
}

// Previous is the window of equal length ending where w starts.
func (w Window) Previous() Window {
	return Window{Start: w.Start.AddDate(0, 0, -w.Days()), End: w.Start}
}

// LastDay is the inclusive end date.
func (w Window) LastDay() time.Time {
	return w.End.AddDate(0, 0, -1)
}

func (w Window) String() string {
	return fmt.Sprintf("%s to %s", w.Start.Format(DateLayout), w.LastDay().Format(DateLayout))
}

// Filter converts the window into an inclusive store filter for userID.
func (w Window) Filter(userID uuid.UUID, transactionType string) store.ConsumptionFilter {
	start := w.Start
	end := w.End.Add(-time.Nanosecond)
	return store.ConsumptionFilter{
		UserID:          userID,
		Start:           &start,
		End:             &end,
		TransactionType: transactionType,
	}
}

// Group is one bucket of an aggregation.
type Group struct {
	Key      string           `json:"key"`
	Total    decimal.Decimal  `json:"total"`
	Count    int              `json:"count"`
	Previous *decimal.Decimal `json:"previous,omitempty"`
}

// Result is the outcome of grouping a window's records along one dimension.
// Total and Count cover the current window only.
type Result struct {
	Dimension Dimension       `json:"dimension"`
	Groups    []Group         `json:"groups"`
	Total     decimal.Decimal `json:"total"`
	Count     int             `json:"count"`
	Empty     bool            `json:"empty"`
}

// Aggregate groups the records inside w by dim and sums their amounts.
// Records outside w are ignored, except that ByCategoryComparison also reads
// records in w.Previous() to fill each group's Previous total. A window
// without records of its own is empty even when the previous one has some.
func Aggregate(records []*store.Consumption, w Window, dim Dimension) Result {
	if dim == "" {
		dim = ByCategory
	}

	groups := make(map[string]*Group)
	var order []string
	bucket := func(key string) *Group {
		g, ok := groups[key]
		if !ok {
			g = &Group{Key: key, Total: decimal.Zero}
			groups[key] = g
			order = append(order, key)
		}
		return g
	}

	result := Result{Dimension: dim, Total: decimal.Zero}
	previous := w.Previous()

	for _, r := range records {
		switch {
		case w.Contains(r.TransactionTime):
			g := bucket(groupKey(r, dim))
			g.Total = g.Total.Add(r.Amount)
			g.Count++
			result.Total = result.Total.Add(r.Amount)
			result.Count++
		case dim == ByCategoryComparison && previous.Contains(r.TransactionTime):
			g := bucket(groupKey(r, dim))
			prev := decimal.Zero
			if g.Previous != nil {
				prev = *g.Previous
			}
			prev = prev.Add(r.Amount)
			g.Previous = &prev
		}
	}

	result.Groups = make([]Group, 0, len(order))
	for _, key := range order {
		g := groups[key]
		if dim == ByCategoryComparison && g.Previous == nil {
			zero := decimal.Zero
			g.Previous = &zero
		}
		result.Groups = append(result.Groups, *g)
	}

	sort.SliceStable(result.Groups, func(i, j int) bool {
		a, b := result.Groups[i], result.Groups[j]
		if c := a.Total.Cmp(b.Total); c != 0 {
			return c > 0
		}
		return a.Key < b.Key
	})

	// emptiness is judged on the current window alone
	if result.Count == 0 {
		result.Groups = []Group{}
	}
	result.Empty = result.Count == 0
	return result
}

func groupKey(r *store.Consumption, dim Dimension) string {
	switch dim {
	case ByDay:
		return r.TransactionTime.UTC().Format(DateLayout)
	case ByWeek:
		return weekStart(r.TransactionTime).Format(DateLayout)
	default:
		if r.Category == "" {
			return Uncategorized
		}
		return r.Category
	}
}

// weekStart returns the Monday of t's ISO week.
func weekStart(t time.Time) time.Time {
	d := truncateDay(t)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Analyzer fetches records from a store and aggregates them.
type Analyzer struct {
	store store.Store
}

// NewAnalyzer creates an Analyzer over s.
func NewAnalyzer(s store.Store) *Analyzer {
	return &Analyzer{store: s}
}

// Aggregate fetches userID's records for w and groups them by dim.
func (a *Analyzer) Aggregate(ctx context.Context, userID uuid.UUID, w Window, dim Dimension, transactionType string) (Result, error) {
	records, err := a.fetch(ctx, userID, w, transactionType)
	if err != nil {
		return Result{}, err
	}
	if dim == ByCategoryComparison {
		prev, err := a.fetch(ctx, userID, w.Previous(), transactionType)
		if err != nil {
			return Result{}, err
		}
		records = append(records, prev...)
	}
	return Aggregate(records, w, dim), nil
}

func (a *Analyzer) fetch(ctx context.Context, userID uuid.UUID, w Window, transactionType string) ([]*store.Consumption, error) {
	records, _, err := a.store.ListConsumptions(ctx, w.Filter(userID, transactionType))
	if err != nil {
		return nil, fmt.Errorf("fetch records for %s: %w", w, err)
	}
	return records, nil
}
