package main

import (
	"encoding/csv"
	"errors"
	"net/http"
	"strings"

	"consumptionanalysis/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Consumption handler functions

// @Summary List consumption records
// @Description Retrieve a page of consumption records, newest first
// @Tags consumptions
// @Produce json
// @Param user_id query string false "Owner user ID"
// @Param start_date query string false "First day (YYYY-MM-DD, inclusive)"
// @Param end_date query string false "Last day (YYYY-MM-DD, inclusive)"
// @Param category query string false "Exact category"
// @Param transaction_type query string false "expense or income"
// @Param page query int false "Page number (1-based)"
// @Param page_size query int false "Page size (max 100)"
// @Success 200 {object} ConsumptionList "Page of records"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/consumptions [get]
func listConsumptions(c *gin.Context) {
	filter, page, pageSize, err := consumptionFilterFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dbRecords, total, err := appStore.ListConsumptions(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err, "Error fetching consumption records", "")
		return
	}

	records := make([]Consumption, 0, len(dbRecords))
	for _, r := range dbRecords {
		records = append(records, toConsumption(r))
	}

	c.JSON(http.StatusOK, ConsumptionList{Items: records, Total: total, Page: page, PageSize: pageSize})
}

// @Summary Create consumption record
// @Description Record a consumption for an existing user. user_id, amount and transaction_time are required; transaction_type defaults to expense.
// @Tags consumptions
// @Accept json
// @Produce json
// @Param consumption body ConsumptionRequest true "Record data"
// @Success 201 {object} Consumption "Created record"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/consumptions [post]
func createConsumption(c *gin.Context) {
	var request ConsumptionRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	// Validate required fields
	if request.UserID == nil || request.Amount == nil || request.TransactionTime == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id, amount and transaction_time are required"})
		return
	}

	patch, err := request.patch()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var record store.Consumption
	if err := patch.Apply(&record); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := appStore.CreateConsumption(c.Request.Context(), record)
	if err != nil {
		respondError(c, err, "Error creating consumption record", "Consumption record")
		return
	}

	c.JSON(http.StatusCreated, toConsumption(created))
}

// @Summary Get consumption record
// @Description Retrieve a single consumption record by ID
// @Tags consumptions
// @Produce json
// @Param id path string true "Record ID"
// @Success 200 {object} Consumption "Record"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Failure 404 {object} map[string]interface{} "Consumption record not found"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/consumptions/{id} [get]
func getConsumption(c *gin.Context) {
	recordID, ok := parseUUIDParam(c, "id", "consumption")
	if !ok {
		return
	}

	record, err := appStore.GetConsumption(c.Request.Context(), recordID)
	if err != nil {
		respondError(c, err, "Error fetching consumption record", "Consumption record")
		return
	}

	c.JSON(http.StatusOK, toConsumption(record))
}

// @Summary Update consumption record
// @Description Update the fields present in the body; absent fields keep their value
// @Tags consumptions
// @Accept json
// @Produce json
// @Param id path string true "Record ID"
// @Param consumption body ConsumptionRequest true "Fields to change"
// @Success 200 {object} Consumption "Updated record"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Failure 404 {object} map[string]interface{} "Consumption record not found"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/consumptions/{id} [put]
func updateConsumption(c *gin.Context) {
	recordID, ok := parseUUIDParam(c, "id", "consumption")
	if !ok {
		return
	}

	var request ConsumptionRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	patch, err := request.patch()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := appStore.UpdateConsumption(c.Request.Context(), recordID, patch)
	if err != nil {
		respondError(c, err, "Error updating consumption record", "Consumption record")
		return
	}

	c.JSON(http.StatusOK, toConsumption(updated))
}

// @Summary Delete consumption record
// @Description Delete a consumption record. Deleting an unknown or already deleted record answers 404.
// @Tags consumptions
// @Produce json
// @Param id path string true "Record ID"
// @Success 200 {object} map[string]interface{} "Consumption record deleted successfully"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Failure 404 {object} map[string]interface{} "Consumption record not found"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/consumptions/{id} [delete]
func deleteConsumption(c *gin.Context) {
	recordID, ok := parseUUIDParam(c, "id", "consumption")
	if !ok {
		return
	}

	if err := appStore.DeleteConsumption(c.Request.Context(), recordID); err != nil {
		respondError(c, err, "Error deleting consumption record", "Consumption record")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Consumption record deleted successfully"})
}

// @Summary Import consumption records from CSV
// @Description Import a wallet or bank export for one user. Columns: trade time, type (收入/支出/income/expense), amount, merchant, category and an optional description. Rows that are malformed, zero-valued or already recorded are skipped.
// @Tags consumptions
// @Accept multipart/form-data
// @Produce json
// @Param user_id formData string true "Owner user ID"
// @Param file formData file true "CSV file to import"
// @Success 200 {object} ImportResult "Import summary"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Failure 404 {object} map[string]interface{} "User not found"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/consumptions/import [post]
func importConsumptions(c *gin.Context) {
	userID, err := uuid.Parse(c.PostForm("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	defer file.Close()

	ctx := c.Request.Context()
	if _, err := appStore.GetUser(ctx, userID); err != nil {
		respondError(c, err, "Error fetching user for import", "User")
		return
	}

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error reading CSV file"})
		return
	}

	imported := make([]Consumption, 0)
	skippedRows := 0

	// Skip header row if present
	start := 0
	if len(rows) > 0 && isImportHeader(rows[0]) {
		start = 1
	}

	for i := start; i < len(rows); i++ {
		record, err := parseImportRow(rows[i])
		if err != nil {
			log.Debug().Err(err).Int("row", i+1).Str("file", header.Filename).Msg("Skipping CSV row")
			skippedRows++
			continue
		}
		record.UserID = userID

		duplicate, err := isDuplicateConsumption(c, record)
		if err != nil {
			log.Error().Err(err).Int("row", i+1).Msg("Error checking for duplicate consumption record")
			skippedRows++
			continue
		}
		if duplicate {
			log.Info().Int("row", i+1).Str("amount", record.Amount.String()).Msg("Skipping duplicate consumption record")
			skippedRows++
			continue
		}

		created, err := appStore.CreateConsumption(ctx, record)
		if err != nil {
			log.Error().Err(err).Int("row", i+1).Msg("Error inserting consumption record")
			skippedRows++
			continue
		}

		imported = append(imported, toConsumption(created))
	}

	c.JSON(http.StatusOK, ImportResult{
		Message:     "CSV imported successfully",
		Imported:    imported,
		SkippedRows: skippedRows,
	})
}

// patch converts the request body into a store patch, parsing the IDs and time
func (r ConsumptionRequest) patch() (store.ConsumptionPatch, error) {
	patch := store.ConsumptionPatch{
		Amount:       r.Amount,
		Category:     r.Category,
		Description:  r.Description,
		MerchantName: r.MerchantName,
	}

	if r.UserID != nil {
		id, err := uuid.Parse(*r.UserID)
		if err != nil {
			return patch, store.Invalid("user_id", "must be a valid UUID")
		}
		patch.UserID = &id
	}
	if r.TransactionType != nil {
		t := strings.ToLower(strings.TrimSpace(*r.TransactionType))
		if err := validateTransactionType(t); err != nil {
			return patch, err
		}
		patch.TransactionType = &t
	}
	if r.TransactionTime != nil {
		t, err := parseTransactionTime(*r.TransactionTime)
		if err != nil {
			return patch, err
		}
		patch.TransactionTime = &t
	}
	return patch, nil
}

func consumptionFilterFromQuery(c *gin.Context) (store.ConsumptionFilter, int, int, error) {
	var filter store.ConsumptionFilter

	page, pageSize, err := parsePagination(c)
	if err != nil {
		return filter, 0, 0, err
	}
	filter.Limit = pageSize
	filter.Offset = (page - 1) * pageSize

	if v := c.Query("user_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return filter, 0, 0, store.Invalid("user_id", "must be a valid UUID")
		}
		filter.UserID = id
	}
	if filter.Start, err = parseOptionalDate(c.Query("start_date"), "start_date", false); err != nil {
		return filter, 0, 0, err
	}
	if filter.End, err = parseOptionalDate(c.Query("end_date"), "end_date", true); err != nil {
		return filter, 0, 0, err
	}
	if filter.Start != nil && filter.End != nil && filter.End.Before(*filter.Start) {
		return filter, 0, 0, store.Invalid("end_date", "must not be before start_date")
	}

	filter.Category = c.Query("category")
	filter.TransactionType = c.Query("transaction_type")
	if err := validateTransactionType(filter.TransactionType); err != nil {
		return filter, 0, 0, err
	}

	return filter, page, pageSize, nil
}

func isImportHeader(row []string) bool {
	if len(row) == 0 {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(row[0], "\ufeff"))) {
	case "交易时间", "trade_time", "transaction_time", "time", "date":
		return true
	}
	return false
}

// importType maps the type column of wallet exports to a transaction type
func importType(s string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "支出", "转账支出", store.TypeExpense:
		return store.TypeExpense, true
	case "收入", "转账收入", store.TypeIncome:
		return store.TypeIncome, true
	}
	return "", false
}

var (
	errShortRow    = errors.New("row has fewer than 5 columns")
	errUnknownType = errors.New("unknown transaction type")
	errZeroAmount  = errors.New("zero amount")
)

// parseImportRow reads one export row: time, type, amount, merchant, category[, description]
func parseImportRow(row []string) (store.Consumption, error) {
	var record store.Consumption
	if len(row) < 5 {
		return record, errShortRow
	}

	at, err := parseTransactionTime(row[0])
	if err != nil {
		return record, err
	}

	txType, ok := importType(row[1])
	if !ok {
		return record, errUnknownType
	}

	amount, err := parseImportAmount(row[2])
	if err != nil {
		return record, err
	}
	if amount.IsZero() {
		return record, errZeroAmount
	}

	record = store.Consumption{
		Amount:          amount,
		MerchantName:    strings.TrimSpace(row[3]),
		Category:        strings.TrimSpace(row[4]),
		TransactionType: txType,
		TransactionTime: at,
	}
	if len(row) > 5 {
		record.Description = strings.TrimSpace(row[5])
	}
	if record.Description == "" {
		record.Description = record.MerchantName
	}
	return record, nil
}

// parseImportAmount strips currency marks and thousands separators. Exports
// sign expenses negatively, so the absolute value is kept.
func parseImportAmount(s string) (decimal.Decimal, error) {
	cleaned := strings.NewReplacer("¥", "", "￥", "", ",", "", " ", "").Replace(strings.TrimSpace(s))
	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, store.Invalid("amount", "unrecognised amount %q", s)
	}
	return amount.Abs().Round(2), nil
}

// isDuplicateConsumption reports whether the user already has a record with the
// same time, amount, merchant and description
func isDuplicateConsumption(c *gin.Context, record store.Consumption) (bool, error) {
	at := record.TransactionTime
	existing, _, err := appStore.ListConsumptions(c.Request.Context(), store.ConsumptionFilter{
		UserID:          record.UserID,
		Start:           &at,
		End:             &at,
		TransactionType: record.TransactionType,
	})
	if err != nil {
		return false, err
	}

	for _, e := range existing {
		if e.Amount.Equal(record.Amount) &&
			e.MerchantName == record.MerchantName &&
			e.Description == record.Description &&
			e.TransactionTime.Equal(at) {
			return true, nil
		}
	}
	return false, nil
}
