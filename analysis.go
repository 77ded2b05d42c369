package main

import (
	"fmt"
	"net/http"

	"consumptionanalysis/analysis"
	"consumptionanalysis/export"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Analysis handler functions

// bindAnalysisRequest reads and validates the shared analysis body, answering
// 400 itself when it is unusable
func bindAnalysisRequest(c *gin.Context) (analysis.Request, bool) {
	var body AnalysisRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return analysis.Request{}, false
	}

	req, err := body.toRequest()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return analysis.Request{}, false
	}
	return req, true
}

// @Summary Custom analysis
// @Description Aggregate a user's records once per analysis need and render a chart for each. Needs are matched by keyword: comparison/比较 gives a grouped bar, trend/趋势 a line, distribution/占比 a pie, anything else a bar. Needs without data are marked empty.
// @Tags analysis
// @Accept json
// @Produce json
// @Param request body AnalysisRequest true "User, date range and analysis needs"
// @Success 200 {object} AnalysisResult "One entry per need, in request order"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Failure 404 {object} map[string]interface{} "User not found"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/analysis/custom [post]
func customAnalysis(c *gin.Context) {
	req, ok := bindAnalysisRequest(c)
	if !ok {
		return
	}

	entries, err := reporter.Analyze(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "Error running custom analysis", "User")
		return
	}

	c.JSON(http.StatusOK, AnalysisResult{
		UserID:    req.UserID.String(),
		StartDate: req.Window.Start.Format(analysis.DateLayout),
		EndDate:   req.Window.LastDay().Format(analysis.DateLayout),
		Entries:   entries,
	})
}

// @Summary Analysis report
// @Description Build a full report: one entry per need plus an overall summary. When report storage is configured the report is also written as markdown and PDF, and markdown_url and pdf_url are set.
// @Tags analysis
// @Accept json
// @Produce json
// @Param request body AnalysisRequest true "User, date range and analysis needs"
// @Success 200 {object} analysis.Report "Report"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Failure 404 {object} map[string]interface{} "User not found"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/analysis/report [post]
func analysisReport(c *gin.Context) {
	req, ok := bindAnalysisRequest(c)
	if !ok {
		return
	}

	report, err := reporter.BuildReport(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "Error building report", "User")
		return
	}

	if reportWriter != nil {
		files, err := reportWriter.Write(report)
		if err != nil {
			log.Warn().Err(err).Str("user_id", req.UserID.String()).Msg("Error writing report files")
		}
		report.MarkdownURL = files.MarkdownURL
		report.PDFURL = files.PDFURL
	}

	c.JSON(http.StatusOK, report)
}

// @Summary Export analysis report
// @Description Build the report and download it as an XLSX workbook with a summary sheet, one sheet per need and the underlying records
// @Tags analysis
// @Accept json
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param request body AnalysisRequest true "User, date range and analysis needs"
// @Success 200 {file} file "XLSX workbook"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Failure 404 {object} map[string]interface{} "User not found"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/analysis/report/export [post]
func exportAnalysisReport(c *gin.Context) {
	req, ok := bindAnalysisRequest(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	report, err := reporter.BuildReport(ctx, req)
	if err != nil {
		respondError(c, err, "Error building report for export", "User")
		return
	}

	records, _, err := appStore.ListConsumptions(ctx, req.Window.Filter(req.UserID, req.TransactionType))
	if err != nil {
		respondError(c, err, "Error fetching records for export", "")
		return
	}

	data, err := export.Workbook(report, records)
	if err != nil {
		log.Error().Err(err).Str("user_id", req.UserID.String()).Msg("Error generating workbook")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error generating workbook"})
		return
	}

	filename := fmt.Sprintf("consumption-report-%s-%s.xlsx", report.StartDate, report.EndDate)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}
