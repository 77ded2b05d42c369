// Package export turns analysis reports into files a user can download.
package export

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"text/template"

	"consumptionanalysis/analysis"
)

var markdownTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"money": func(v interface{ StringFixed(int32) string }) string { return v.StringFixed(2) },
	"cell":  func(s string) string { return strings.ReplaceAll(s, "|", `\|`) },
	"inc":   func(i int) int { return i + 1 },
}).Parse(`# Consumption report: {{.UserName}}

- Period: {{.StartDate}} to {{.EndDate}}
- Records: {{.Count}}
- Total: {{money .Total}}
- Generated: {{.GeneratedAt.Format "2006-01-02 15:04:05 MST"}}

{{.Summary}}
{{range $i, $e := .Entries}}
## {{inc $i}}. {{$e.Need}}

{{if $e.Empty -}}
_No data for this period._
{{- else -}}
{{$e.Summary}}
{{if $e.ChartURL}}
![{{$e.Need}}]({{$e.ChartURL}})
{{end}}
| {{$e.Chart.XAxis}} | Total | Count |{{if eq (print $e.Dimension) "by-category-comparison"}} Previous |{{end}}
|---|---:|---:|{{if eq (print $e.Dimension) "by-category-comparison"}}---:|{{end}}
{{range $e.Result.Groups -}}
| {{cell .Key}} | {{money .Total}} | {{.Count}} |{{if .Previous}} {{money .Previous}} |{{end}}
{{end -}}
{{- end}}
{{end}}`))

// Markdown writes report as a markdown document.
func Markdown(w io.Writer, report *analysis.Report) error {
	if err := markdownTemplate.Execute(w, report); err != nil {
		return fmt.Errorf("render markdown report: %w", err)
	}
	return nil
}

// ReportWriter stores markdown and PDF reports in a directory served over HTTP.
type ReportWriter struct {
	dir     string
	baseURL string
	pdf     *PDFRenderer
}

// ReportFiles are the URLs of a written report.
type ReportFiles struct {
	MarkdownURL string
	PDFURL      string
}

// NewReportWriter creates dir if needed. A nil pdf renderer writes markdown only.
func NewReportWriter(dir, baseURL string, pdf *PDFRenderer) (*ReportWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report directory: %w", err)
	}
	if baseURL == "" {
		baseURL = "/reports"
	}
	return &ReportWriter{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/"), pdf: pdf}, nil
}

// Dir is the directory reports are written to.
func (rw *ReportWriter) Dir() string {
	return rw.dir
}

// Write saves report as markdown, then as PDF. When only the PDF fails the
// markdown URL is still returned alongside the error.
func (rw *ReportWriter) Write(report *analysis.Report) (ReportFiles, error) {
	var files ReportFiles
	base := fmt.Sprintf("report-%s-%s", report.UserID.String()[:8], report.GeneratedAt.Format("20060102-150405.000"))

	var buf bytes.Buffer
	if err := Markdown(&buf, report); err != nil {
		return files, err
	}
	if err := os.WriteFile(filepath.Join(rw.dir, base+".md"), buf.Bytes(), 0o644); err != nil {
		return files, fmt.Errorf("write markdown report: %w", err)
	}
	files.MarkdownURL = path.Join(rw.baseURL, base+".md")

	if rw.pdf == nil {
		return files, nil
	}

	buf.Reset()
	if err := rw.pdf.Write(&buf, report); err != nil {
		return files, err
	}
	if err := os.WriteFile(filepath.Join(rw.dir, base+".pdf"), buf.Bytes(), 0o644); err != nil {
		return files, fmt.Errorf("write pdf report: %w", err)
	}
	files.PDFURL = path.Join(rw.baseURL, base+".pdf")
	return files, nil
}
