package app

import (
	"bytes"
	"html/template"
	"strconv"
	"time"

	"liveclass-admin/internal/domain"
)

const reportTimeLayout = "1/2/2006, 3:04:05 PM"

var reportTemplate = template.Must(template.New("report").Parse(`<html>
<head>
<title>Student Results</title>
<style>
body { font-family: Arial, sans-serif; margin: 20px; }
table { width: 100%; border-collapse: collapse; }
th, td { border: 1px solid #555; padding: 8px; text-align: left; }
th { background-color: #f0f0f0; }
h2 { text-align: center; margin-bottom: 20px; }
</style>
</head>
<body>
<h2>Student Results</h2>
<table>
<thead>
<tr><th>Name</th><th>Phone</th><th>Batch</th><th>Score</th><th>Date</th></tr>
</thead>
<tbody>
{{- range .}}
<tr><td>{{.Name}}</td><td>{{.Phone}}</td><td>{{.Batch}}</td><td>{{.Score}}</td><td>{{.Date}}</td></tr>
{{- end}}
</tbody>
</table>
</body>
</html>
`))

type reportRow struct {
	Name  string
	Phone string
	Batch string
	Score string
	Date  string
}

// RenderPrintableReport formats already-curated results as a printable HTML table.
// The output depends only on results and loc.
func RenderPrintableReport(results []domain.StudentResult, loc *time.Location) (string, error) {
	if loc == nil {
		loc = time.UTC
	}
	rows := make([]reportRow, 0, len(results))
	for _, r := range results {
		rows = append(rows, reportRow{
			Name:  r.Name,
			Phone: orNA(r.PhoneNumber),
			Batch: orNA(r.BatchTime),
			Score: reportScore(r),
			Date:  formatReportTime(r.Timestamp, loc),
		})
	}

	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, rows); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func orNA(v string) string {
	if v == "" {
		return "N/A"
	}
	return v
}

func reportScore(r domain.StudentResult) string {
	if r.ScoreText != "" {
		return r.ScoreText
	}
	return strconv.FormatFloat(r.Score, 'f', -1, 64)
}

func formatReportTime(ts *domain.Timestamp, loc *time.Location) string {
	if !ts.Known() {
		return "No timestamp"
	}
	return ts.Time.In(loc).Format(reportTimeLayout)
}
