package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=store.go -destination=store_mock.go -package=store

// Transaction types
const (
	TypeExpense = "expense"
	TypeIncome  = "income"
)

// Genders accepted on a user profile
const (
	GenderMale    = "male"
	GenderFemale  = "female"
	GenderUnknown = "unknown"
)

var (
	// ErrNotFound is returned when a user or record does not exist or was deleted.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique field is already taken.
	ErrConflict = errors.New("already exists")
)

// MaxAmount is the largest amount a NUMERIC(12,2) column holds.
var MaxAmount = decimal.RequireFromString("9999999999.99")

// ValidationError reports a bad input value.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Invalid builds a ValidationError for field.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// User is a person owning consumption records
type User struct {
	ID        uuid.UUID
	Name      string
	Gender    string
	Phone     string
	Email     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserPatch holds the fields to change on a user; nil fields are left alone.
type UserPatch struct {
	Name   *string
	Gender *string
	Phone  *string
	Email  *string
}

// Consumption is a single consumption record
type Consumption struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	Amount          decimal.Decimal
	Category        string
	Description     string
	MerchantName    string
	TransactionType string
	TransactionTime time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ConsumptionPatch holds the fields to change on a record; nil fields are left alone.
type ConsumptionPatch struct {
	UserID          *uuid.UUID
	Amount          *decimal.Decimal
	Category        *string
	Description     *string
	MerchantName    *string
	TransactionType *string
	TransactionTime *time.Time
}

// ConsumptionFilter selects records for listing. Start and End are inclusive
// instants; Limit 0 means no limit.
type ConsumptionFilter struct {
	UserID          uuid.UUID
	Start           *time.Time
	End             *time.Time
	Category        string
	TransactionType string
	Limit           int
	Offset          int
}

// Matches reports whether c passes the filter.
func (f ConsumptionFilter) Matches(c *Consumption) bool {
	if f.UserID != uuid.Nil && c.UserID != f.UserID {
		return false
	}
	if f.Start != nil && c.TransactionTime.Before(*f.Start) {
		return false
	}
	if f.End != nil && c.TransactionTime.After(*f.End) {
		return false
	}
	if f.Category != "" && c.Category != f.Category {
		return false
	}
	if f.TransactionType != "" && c.TransactionType != f.TransactionType {
		return false
	}
	return true
}

// Page is a limit/offset window over a listing.
type Page struct {
	Limit  int
	Offset int
}

// Store defines the persistence operations used by the API and analysis layers
type Store interface {
	// User operations
	CreateUser(ctx context.Context, user User) (*User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, patch UserPatch) (*User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
	ListUsers(ctx context.Context, page Page) ([]*User, int, error)

	// Consumption operations
	CreateConsumption(ctx context.Context, record Consumption) (*Consumption, error)
	GetConsumption(ctx context.Context, id uuid.UUID) (*Consumption, error)
	UpdateConsumption(ctx context.Context, id uuid.UUID, patch ConsumptionPatch) (*Consumption, error)
	DeleteConsumption(ctx context.Context, id uuid.UUID) error
	ListConsumptions(ctx context.Context, filter ConsumptionFilter) ([]*Consumption, int, error)

	Ping(ctx context.Context) error
}

// ValidateConsumption checks the record-level invariants shared by every
// backend and trims the category so that grouping sees one spelling.
func ValidateConsumption(c *Consumption) error {
	if c.UserID == uuid.Nil {
		return Invalid("user_id", "user reference is required")
	}
	if c.Amount.IsNegative() {
		return Invalid("amount", "must not be negative")
	}
	if !c.Amount.Equal(c.Amount.Round(2)) {
		return Invalid("amount", "must have at most two decimal places")
	}
	if c.Amount.GreaterThan(MaxAmount) {
		return Invalid("amount", "must not exceed %s", MaxAmount.StringFixed(2))
	}
	c.Category = strings.TrimSpace(c.Category)
	if c.TransactionType == "" {
		c.TransactionType = TypeExpense
	}
	if c.TransactionType != TypeExpense && c.TransactionType != TypeIncome {
		return Invalid("transaction_type", "must be %q or %q", TypeExpense, TypeIncome)
	}
	if c.TransactionTime.IsZero() {
		return Invalid("transaction_time", "is required")
	}
	if utf8.RuneCountInString(c.Category) > 50 {
		return Invalid("category", "must be at most 50 characters")
	}
	if utf8.RuneCountInString(c.MerchantName) > 100 {
		return Invalid("merchant_name", "must be at most 100 characters")
	}
	return nil
}

// ValidateGender normalises an empty gender to unknown and rejects anything else.
func ValidateGender(g string) (string, error) {
	switch g {
	case "":
		return GenderUnknown, nil
	case GenderMale, GenderFemale, GenderUnknown:
		return g, nil
	default:
		return "", Invalid("gender", "must be one of %s, %s, %s", GenderMale, GenderFemale, GenderUnknown)
	}
}

// Apply copies the set fields of p onto u and revalidates the result.
func (p UserPatch) Apply(u *User) error {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Gender != nil {
		u.Gender = *p.Gender
	}
	if p.Phone != nil {
		u.Phone = *p.Phone
	}
	if p.Email != nil {
		if *p.Email == "" {
			u.Email = nil
		} else {
			email := *p.Email
			u.Email = &email
		}
	}
	return ValidateUser(u)
}

// Apply copies the set fields of p onto c and revalidates the result.
func (p ConsumptionPatch) Apply(c *Consumption) error {
	if p.UserID != nil {
		c.UserID = *p.UserID
	}
	if p.Amount != nil {
		c.Amount = *p.Amount
	}
	if p.Category != nil {
		c.Category = *p.Category
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.MerchantName != nil {
		c.MerchantName = *p.MerchantName
	}
	if p.TransactionType != nil {
		c.TransactionType = *p.TransactionType
	}
	if p.TransactionTime != nil {
		c.TransactionTime = *p.TransactionTime
	}
	return ValidateConsumption(c)
}

// ValidateUser checks the user-level invariants shared by every backend.
func ValidateUser(u *User) error {
	if strings.TrimSpace(u.Name) == "" {
		return Invalid("name", "cannot be empty")
	}
	if utf8.RuneCountInString(u.Name) > 50 {
		return Invalid("name", "must be at most 50 characters")
	}
	if strings.TrimSpace(u.Phone) == "" {
		return Invalid("phone", "cannot be empty")
	}
	if len(u.Phone) > 20 {
		return Invalid("phone", "must be at most 20 characters")
	}
	g, err := ValidateGender(u.Gender)
	if err != nil {
		return err
	}
	u.Gender = g
	return nil
}
