package main

import (
	"net/http"

	"consumptionanalysis/analysis"
	"consumptionanalysis/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// @Summary Consumption statistics by category
// @Description Totals, counts and shares per category for one user over a date range
// @Tags consumptions
// @Produce json
// @Param user_id query string true "User ID"
// @Param start_date query string true "First day (YYYY-MM-DD, inclusive)"
// @Param end_date query string true "Last day (YYYY-MM-DD, inclusive)"
// @Param transaction_type query string false "expense (default) or income"
// @Success 200 {object} Statistics "Category statistics"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Failure 404 {object} map[string]interface{} "User not found"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/consumptions/statistics [get]
func getStatistics(c *gin.Context) {
	userID, err := uuid.Parse(c.Query("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	window, err := analysis.ParseWindow(c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	txType := c.DefaultQuery("transaction_type", store.TypeExpense)
	if err := validateTransactionType(txType); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	if _, err := appStore.GetUser(ctx, userID); err != nil {
		respondError(c, err, "Error fetching user for statistics", "User")
		return
	}

	result, err := analysis.NewAnalyzer(appStore).Aggregate(ctx, userID, window, analysis.ByCategory, txType)
	if err != nil {
		respondError(c, err, "Error calculating statistics", "")
		return
	}

	c.JSON(http.StatusOK, buildStatistics(userID, window, txType, result))
}

func buildStatistics(userID uuid.UUID, window analysis.Window, txType string, result analysis.Result) Statistics {
	stats := Statistics{
		UserID:          userID.String(),
		StartDate:       window.Start.Format(analysis.DateLayout),
		EndDate:         window.LastDay().Format(analysis.DateLayout),
		TransactionType: txType,
		TotalAmount:     result.Total.StringFixed(2),
		TotalCount:      result.Count,
		Categories:      make([]CategoryStat, 0, len(result.Groups)),
	}

	for _, g := range result.Groups {
		var percentage float64
		if !result.Total.IsZero() {
			percentage = g.Total.Mul(hundred).Div(result.Total).Round(2).InexactFloat64()
		}
		stats.Categories = append(stats.Categories, CategoryStat{
			Category:   g.Key,
			Total:      g.Total.StringFixed(2),
			Count:      g.Count,
			Percentage: percentage,
		})
	}
	return stats
}
