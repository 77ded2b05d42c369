package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"consumptionanalysis/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Validation functions

// validateName validates that a name is not empty or just whitespace
func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("name cannot be empty")
	}
	return nil
}

// handleDatabaseError converts store errors to appropriate HTTP responses
func handleDatabaseError(err error) (statusCode int, message string) {
	var validation *store.ValidationError
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, validation.Error()
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "Resource not found"
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict, "Resource already exists"
	}

	// Default to internal server error
	return http.StatusInternalServerError, "Internal server error"
}

// respondError logs err and answers with the mapped status, naming resource in
// not-found and conflict messages
func respondError(c *gin.Context, err error, logMessage, resource string) {
	statusCode, message := handleDatabaseError(err)
	if resource != "" {
		switch statusCode {
		case http.StatusNotFound:
			message = resource + " not found"
		case http.StatusConflict:
			message = resource + " already exists"
		}
	}

	event := log.Warn()
	if statusCode >= http.StatusInternalServerError {
		event = log.Error()
	}
	event.Err(err).Str("path", c.FullPath()).Msg(logMessage)

	c.JSON(statusCode, gin.H{"error": message})
}

// parseUUIDParam reads a UUID path parameter, answering 400 when malformed
func parseUUIDParam(c *gin.Context, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid %s ID", label)})
		return uuid.Nil, false
	}
	return id, true
}

// parsePagination reads page (1-based) and page_size query parameters
func parsePagination(c *gin.Context) (page, pageSize int, err error) {
	page, pageSize = 1, defaultPageSize

	if v := c.Query("page"); v != "" {
		if page, err = strconv.Atoi(v); err != nil || page < 1 {
			return 0, 0, store.Invalid("page", "must be a positive integer")
		}
	}
	if v := c.Query("page_size"); v != "" {
		if pageSize, err = strconv.Atoi(v); err != nil || pageSize < 1 || pageSize > maxPageSize {
			return 0, 0, store.Invalid("page_size", "must be between 1 and %d", maxPageSize)
		}
	}
	return page, pageSize, nil
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006-01-02",
	"2006/01/02",
}

// parseTransactionTime accepts the timestamp formats seen in bank and wallet
// exports. Values without a zone are read as UTC.
func parseTransactionTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, store.Invalid("transaction_time", "unrecognised time %q", s)
}

// parseOptionalDate parses a YYYY-MM-DD query parameter; empty means unset.
// end moves the instant to the last nanosecond of the day.
func parseOptionalDate(value, field string, end bool) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, store.Invalid(field, "must be formatted as YYYY-MM-DD")
	}
	if end {
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return &t, nil
}

// validateTransactionType accepts an empty filter or a known type
func validateTransactionType(t string) error {
	switch t {
	case "", store.TypeExpense, store.TypeIncome:
		return nil
	}
	return store.Invalid("transaction_type", "must be %q or %q", store.TypeExpense, store.TypeIncome)
}
