package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"consumptionanalysis/analysis"
	"consumptionanalysis/charts"
	"consumptionanalysis/export"
	"consumptionanalysis/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var (
	testRouter   *gin.Engine
	testRenderer *charts.Renderer
	testWorkDir  string
)

// TestMain sets up the test environment
func TestMain(m *testing.M) {
	// Set gin to test mode
	gin.SetMode(gin.TestMode)
	zerolog.SetGlobalLevel(zerolog.Disabled)

	var err error
	testWorkDir, err = os.MkdirTemp("", "consumption-api-test")
	if err != nil {
		log.Fatalf("Failed to create test directory: %v", err)
	}

	if err := setupTestRouter(); err != nil {
		log.Fatalf("Failed to setup test router: %v", err)
	}

	// Run tests
	code := m.Run()

	// Cleanup
	if err := os.RemoveAll(testWorkDir); err != nil {
		log.Printf("Failed to cleanup test directory: %v", err)
	}

	os.Exit(code)
}

// setupTestRouter configures the test router with all routes
func setupTestRouter() error {
	cfg := &Config{
		AllowOrigins: []string{"http://localhost:3000"},
		ChartDir:     testWorkDir + "/charts",
		ReportDir:    testWorkDir + "/reports",
	}

	var err error
	testRenderer, err = charts.NewRenderer(charts.Options{Dir: cfg.ChartDir, Width: 400, Height: 300})
	if err != nil {
		return fmt.Errorf("failed to create chart renderer: %w", err)
	}
	pdf, err := export.NewPDFRenderer(export.PDFOptions{ChartDir: cfg.ChartDir})
	if err != nil {
		return fmt.Errorf("failed to create pdf renderer: %w", err)
	}
	reportWriter, err = export.NewReportWriter(cfg.ReportDir, "/reports", pdf)
	if err != nil {
		return fmt.Errorf("failed to create report writer: %w", err)
	}

	if err := cleanupTestData(); err != nil {
		return err
	}

	testRouter = setupRouter(cfg)
	return nil
}

// cleanupTestData swaps in an empty store
func cleanupTestData() error {
	appStore = store.NewMemoryStore()
	reporter = analysis.NewReporter(appStore, testRenderer)
	return nil
}

// createTestUser creates a test user and returns the ID
func createTestUser(name, phone string) (string, error) {
	user, err := appStore.CreateUser(context.Background(), store.User{Name: name, Phone: phone})
	if err != nil {
		return "", err
	}
	return user.ID.String(), nil
}

// createTestConsumption creates a test record and returns the ID
func createTestConsumption(userID, amount, category string, at time.Time) (string, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return "", err
	}

	record, err := appStore.CreateConsumption(context.Background(), store.Consumption{
		UserID:          id,
		Amount:          decimal.RequireFromString(amount),
		Category:        category,
		TransactionType: store.TypeExpense,
		TransactionTime: at,
	})
	if err != nil {
		return "", err
	}
	return record.ID.String(), nil
}

// jsonBody marshals v for a request body
func jsonBody(t *testing.T, v interface{}) io.Reader {
	t.Helper()
	body, err := json.Marshal(v)
	assertNoError(t, err)
	return bytes.NewBuffer(body)
}

// makeRequest helper function for making HTTP requests
func makeRequest(method, url string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, url, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	recorder := httptest.NewRecorder()
	testRouter.ServeHTTP(recorder, req)

	return recorder
}

// makeMultipartRequest helper function for making multipart requests (file uploads)
func makeMultipartRequest(url string, fields map[string]string, fieldName, fileName string, fileContent []byte) *httptest.ResponseRecorder {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			panic(err)
		}
	}

	if fieldName != "" {
		part, err := writer.CreateFormFile(fieldName, fileName)
		if err != nil {
			panic(err)
		}
		part.Write(fileContent)
	}
	writer.Close()

	req := httptest.NewRequest("POST", url, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	recorder := httptest.NewRecorder()
	testRouter.ServeHTTP(recorder, req)

	return recorder
}

// parseJSONResponse helper function to parse JSON response
func parseJSONResponse(recorder *httptest.ResponseRecorder, target interface{}) error {
	return json.Unmarshal(recorder.Body.Bytes(), target)
}

// assertStatusCode helper function to assert HTTP status code
func assertStatusCode(t *testing.T, expected, actual int) {
	t.Helper()
	if expected != actual {
		t.Errorf("Expected status code %d, got %d", expected, actual)
	}
}

// assertNoError helper function to assert no error occurred
func assertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
}

// assertErrorResponse checks that a failed response carries an error message
func assertErrorResponse(t *testing.T, recorder *httptest.ResponseRecorder) string {
	t.Helper()
	var errorResp map[string]interface{}
	assertNoError(t, parseJSONResponse(recorder, &errorResp))

	msg, _ := errorResp["error"].(string)
	if msg == "" {
		t.Error("Expected error message in response")
	}
	return msg
}
