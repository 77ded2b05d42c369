package main

import (
	"time"

	"consumptionanalysis/analysis"
	"consumptionanalysis/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User represents a person who owns consumption records
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Gender    string    `json:"gender"`
	Phone     string    `json:"phone"`
	Email     *string   `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserRequest is the body of a user create or update. Update applies only
// the fields that are present.
type UserRequest struct {
	Name   *string `json:"name"`
	Gender *string `json:"gender"`
	Phone  *string `json:"phone"`
	Email  *string `json:"email"`
}

// UserList is a page of users
type UserList struct {
	Items    []User `json:"items"`
	Total    int    `json:"total"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
}

// Consumption represents a single consumption record. Amount carries two
// fraction digits.
type Consumption struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	Amount          string    `json:"amount"`
	Category        string    `json:"category"`
	Description     string    `json:"description"`
	MerchantName    string    `json:"merchant_name"`
	TransactionType string    `json:"transaction_type"`
	TransactionTime time.Time `json:"transaction_time"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ConsumptionRequest is the body of a record create or update. Amount accepts a
// JSON number or string; TransactionTime accepts RFC 3339, "YYYY-MM-DD HH:MM:SS"
// or a bare date.
type ConsumptionRequest struct {
	UserID          *string          `json:"user_id"`
	Amount          *decimal.Decimal `json:"amount" swaggertype:"string" example:"12.50"`
	Category        *string          `json:"category"`
	Description     *string          `json:"description"`
	MerchantName    *string          `json:"merchant_name"`
	TransactionType *string          `json:"transaction_type" example:"expense"`
	TransactionTime *string          `json:"transaction_time" example:"2024-01-02 12:30:00"`
}

// ConsumptionList is a page of consumption records
type ConsumptionList struct {
	Items    []Consumption `json:"items"`
	Total    int           `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
}

// ImportResult reports the outcome of a CSV import
type ImportResult struct {
	Message     string        `json:"message"`
	Imported    []Consumption `json:"imported"`
	SkippedRows int           `json:"skipped_rows"`
}

// CategoryStat is the share of one category within a period
type CategoryStat struct {
	Category   string  `json:"category"`
	Total      string  `json:"total"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// Statistics summarises a user's records for a period by category
type Statistics struct {
	UserID          string         `json:"user_id"`
	StartDate       string         `json:"start_date"`
	EndDate         string         `json:"end_date"`
	TransactionType string         `json:"transaction_type"`
	TotalAmount     string         `json:"total_amount"`
	TotalCount      int            `json:"total_count"`
	Categories      []CategoryStat `json:"categories"`
}

// CategorySummary describes a category a user has recorded spending under
type CategorySummary struct {
	Name     string    `json:"name"`
	Total    string    `json:"total"`
	Count    int       `json:"count"`
	LastUsed time.Time `json:"last_used"`
}

// AnalysisRequest is the body shared by the analysis endpoints. Days selects
// the most recent days ending today instead of an explicit date range.
type AnalysisRequest struct {
	UserID          string   `json:"user_id"`
	StartDate       string   `json:"start_date,omitempty" example:"2024-01-01"`
	EndDate         string   `json:"end_date,omitempty" example:"2024-01-31"`
	Days            int      `json:"days,omitempty" example:"30"`
	AnalysisNeeds   []string `json:"analysis_needs" example:"category distribution,daily trend"`
	TransactionType string   `json:"transaction_type,omitempty" example:"expense"`
}

func toUser(u *store.User) User {
	return User{
		ID:        u.ID.String(),
		Name:      u.Name,
		Gender:    u.Gender,
		Phone:     u.Phone,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func toConsumption(c *store.Consumption) Consumption {
	return Consumption{
		ID:              c.ID.String(),
		UserID:          c.UserID.String(),
		Amount:          c.Amount.StringFixed(2),
		Category:        c.Category,
		Description:     c.Description,
		MerchantName:    c.MerchantName,
		TransactionType: c.TransactionType,
		TransactionTime: c.TransactionTime,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

// AnalysisResult is the per-need outcome of a custom analysis
type AnalysisResult struct {
	UserID    string           `json:"user_id"`
	StartDate string           `json:"start_date"`
	EndDate   string           `json:"end_date"`
	Entries   []analysis.Entry `json:"entries"`
}

// toRequest converts the body into an analysis request, validating its shape
func (r AnalysisRequest) toRequest() (analysis.Request, error) {
	userID, err := uuid.Parse(r.UserID)
	if err != nil {
		return analysis.Request{}, store.Invalid("user_id", "must be a valid UUID")
	}
	window, err := r.window(time.Now())
	if err != nil {
		return analysis.Request{}, err
	}
	req := analysis.Request{
		UserID:          userID,
		Window:          window,
		Needs:           r.AnalysisNeeds,
		TransactionType: r.TransactionType,
	}
	return req, req.Validate()
}

func (r AnalysisRequest) window(now time.Time) (analysis.Window, error) {
	if r.Days == 0 {
		return analysis.ParseWindow(r.StartDate, r.EndDate)
	}
	if r.StartDate != "" || r.EndDate != "" {
		return analysis.Window{}, store.Invalid("days", "cannot be combined with start_date or end_date")
	}
	return analysis.RecentWindow(r.Days, now)
}
