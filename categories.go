package main

import (
	"net/http"
	"sort"

	"consumptionanalysis/analysis"
	"consumptionanalysis/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Category handler functions

// @Summary Get categories of a user
// @Description List the categories a user has recorded consumptions under, with totals. Records without a category are reported as uncategorized.
// @Tags categories
// @Produce json
// @Param user_id query string true "User ID"
// @Param transaction_type query string false "expense or income; both when omitted"
// @Success 200 {array} CategorySummary "Categories ordered by name"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Failure 404 {object} map[string]interface{} "User not found"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/categories [get]
func getCategories(c *gin.Context) {
	userID, err := uuid.Parse(c.Query("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	txType := c.Query("transaction_type")
	if err := validateTransactionType(txType); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	if _, err := appStore.GetUser(ctx, userID); err != nil {
		respondError(c, err, "Error fetching user for categories", "User")
		return
	}

	records, _, err := appStore.ListConsumptions(ctx, store.ConsumptionFilter{UserID: userID, TransactionType: txType})
	if err != nil {
		respondError(c, err, "Error fetching categories", "")
		return
	}

	c.JSON(http.StatusOK, summarizeCategories(records))
}

// summarizeCategories groups records by category name, ordered by name
func summarizeCategories(records []*store.Consumption) []CategorySummary {
	type bucket struct {
		summary CategorySummary
		total   decimal.Decimal
	}

	buckets := make(map[string]*bucket)
	for _, r := range records {
		name := r.Category
		if name == "" {
			name = analysis.Uncategorized
		}

		b, ok := buckets[name]
		if !ok {
			b = &bucket{summary: CategorySummary{Name: name}}
			buckets[name] = b
		}
		b.total = b.total.Add(r.Amount)
		b.summary.Count++
		if r.TransactionTime.After(b.summary.LastUsed) {
			b.summary.LastUsed = r.TransactionTime
		}
	}

	categories := make([]CategorySummary, 0, len(buckets))
	for _, b := range buckets {
		b.summary.Total = b.total.StringFixed(2)
		categories = append(categories, b.summary)
	}
	sort.Slice(categories, func(i, j int) bool {
		return categories[i].Name < categories[j].Name
	})
	return categories
}
