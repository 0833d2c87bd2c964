package export

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-analyze/charts"
	"github.com/shopspring/decimal"

	errors "github.com/frahmantamala/club-ledger/internal"
	"github.com/frahmantamala/club-ledger/internal/category"
	"github.com/frahmantamala/club-ledger/internal/core/fiscal"
	"github.com/frahmantamala/club-ledger/internal/reporting"
)

// ReportPayload is everything the PDF report shows for one fiscal year.
type ReportPayload struct {
	ClubName    string
	GeneratedAt time.Time
	Dashboard   *reporting.Dashboard
}

// PDFRenderer converts the report HTML to PDF through Gotenberg.
type PDFRenderer struct {
	Endpoint string
	Client   *http.Client
	Currency *CurrencyFormatter
}

func (p *PDFRenderer) Render(ctx context.Context, payload ReportPayload) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("pdf renderer not initialised")
	}
	if payload.Dashboard == nil {
		return nil, fmt.Errorf("report payload requires a dashboard")
	}
	endpoint := strings.TrimRight(p.Endpoint, "/")
	if endpoint == "" {
		return nil, fmt.Errorf("gotenberg endpoint required")
	}
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}

	html := buildHTML(payload, p.Currency, categoryChart(payload.Dashboard.ByCategory, payload.Dashboard.FiscalYear))
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("files", "index.html")
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(part, html); err != nil {
		return nil, err
	}
	if err := writer.WriteField("waitDelay", "500ms"); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"/forms/chromium/convert/html", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.NewExternalError("pdf renderer unavailable", errors.ErrCodeRenderFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, errors.NewExternalError(
			fmt.Sprintf("pdf renderer responded %d", resp.StatusCode),
			errors.ErrCodeRenderFailed,
			fmt.Errorf("gotenberg response %d: %s", resp.StatusCode, string(data)))
	}

	return io.ReadAll(resp.Body)
}

// categoryChart renders the category split as a PNG pie chart. An empty
// year or a chart failure yields nil and the report goes without it.
func categoryChart(rollups []reporting.Rollup, fiscalYear string) []byte {
	values := make([]float64, 0, len(rollups))
	names := make([]string, 0, len(rollups))
	for _, r := range rollups {
		if !r.TotalAmount.IsPositive() {
			continue
		}
		values = append(values, r.TotalAmount.InexactFloat64())
		names = append(names, category.Label(r.GroupKey))
	}
	if len(values) == 0 {
		return nil
	}

	p, err := charts.PieRender(
		values,
		charts.TitleOptionFunc(charts.TitleOption{
			Text: "Expenses by category " + fiscalYear,
		}),
		charts.LegendLabelsOptionFunc(names),
	)
	if err != nil {
		return nil
	}
	buf, err := p.Bytes()
	if err != nil {
		return nil
	}
	return buf
}

func buildHTML(payload ReportPayload, money *CurrencyFormatter, chart []byte) string {
	dash := payload.Dashboard
	format := func(d decimal.Decimal) string {
		if money != nil {
			return money.Format(d)
		}
		return d.StringFixed(2)
	}

	var b strings.Builder
	b.WriteString("<html><head><meta charset=\"utf-8\"><style>")
	b.WriteString("body{font-family:sans-serif;margin:24px;}h1{font-size:20px;}table{width:100%;border-collapse:collapse;margin-bottom:16px;}th,td{border:1px solid #ddd;padding:6px;text-align:right;}th{text-align:left;background:#f5f5f5;}section{margin-bottom:24px;}.label{text-align:left;}.overspent{color:#b00020;}img{max-width:480px;}")
	b.WriteString("</style></head><body>")
	title := "Financial report"
	if payload.ClubName != "" {
		title = payload.ClubName + " financial report"
	}
	b.WriteString(fmt.Sprintf("<h1>%s – %s</h1>", templateEscape(title), templateEscape(dash.FiscalYear)))
	if year, err := fiscal.Parse(dash.FiscalYear); err == nil {
		from, to := year.Bounds(time.UTC)
		b.WriteString("<p>Period " + from.Format("02 Jan 2006") + " to " + to.AddDate(0, 0, -1).Format("02 Jan 2006") + "</p>")
	}
	if !payload.GeneratedAt.IsZero() {
		b.WriteString("<p>Generated " + templateEscape(payload.GeneratedAt.Format("02 Jan 2006 15:04")) + "</p>")
	}

	s := dash.Summary
	b.WriteString("<section><h2>Summary</h2><table><tbody>")
	writeRow(&b, "Total expenses", format(s.TotalExpenses))
	writeRow(&b, "Approved", format(s.TotalApproved))
	writeRow(&b, "Reimbursed", format(s.TotalReimbursed))
	writeRow(&b, "Paid", format(s.TotalPaid))
	writeRow(&b, "Pending", format(s.TotalPending))
	writeRow(&b, "Rejected", format(s.TotalRejected))
	writeRow(&b, "Records", strconv.Itoa(s.Count))
	b.WriteString("</tbody></table></section>")

	if len(dash.ByCategory) > 0 {
		b.WriteString("<section><h2>By category</h2>")
		if len(chart) > 0 {
			b.WriteString("<img alt=\"category split\" src=\"data:image/png;base64,")
			b.WriteString(base64.StdEncoding.EncodeToString(chart))
			b.WriteString("\">")
		}
		b.WriteString("<table><thead><tr><th>Category</th><th>Expenses</th><th>Total</th></tr></thead><tbody>")
		for _, r := range dash.ByCategory {
			writeRow(&b, category.Label(r.GroupKey), strconv.Itoa(r.Count), format(r.TotalAmount))
		}
		b.WriteString("</tbody></table></section>")
	}

	if len(dash.ByMonth) > 0 {
		b.WriteString("<section><h2>By month</h2><table><thead><tr><th>Month</th><th>Expenses</th><th>Total</th></tr></thead><tbody>")
		for _, r := range dash.ByMonth {
			writeRow(&b, r.GroupKey, strconv.Itoa(r.Count), format(r.TotalAmount))
		}
		b.WriteString("</tbody></table></section>")
	}

	if len(dash.TopContributors) > 0 {
		b.WriteString("<section><h2>Top contributors</h2><table><thead><tr><th>Rank</th><th>Member</th><th>Total</th></tr></thead><tbody>")
		for _, c := range dash.TopContributors {
			name := c.Name
			if name == "" {
				name = "Member " + strconv.FormatInt(c.MemberID, 10)
			}
			writeRow(&b, strconv.Itoa(c.Rank), name, format(c.Total))
		}
		b.WriteString("</tbody></table></section>")
	}

	if len(dash.BudgetVariance) > 0 {
		b.WriteString("<section><h2>Budget variance</h2><table><thead><tr><th>Event</th><th>Budget</th><th>Spent</th><th>Variance</th></tr></thead><tbody>")
		for _, v := range dash.BudgetVariance {
			b.WriteString("<tr")
			if v.Overspent() {
				b.WriteString(" class=\"overspent\"")
			}
			b.WriteString("><td class=\"label\">")
			b.WriteString(templateEscape(v.Name))
			b.WriteString("</td><td>")
			b.WriteString(templateEscape(format(v.EstimatedBudget)))
			b.WriteString("</td><td>")
			b.WriteString(templateEscape(format(v.Spent)))
			b.WriteString("</td><td>")
			b.WriteString(templateEscape(format(v.Variance)))
			b.WriteString("</td></tr>")
		}
		b.WriteString("</tbody></table></section>")
	}

	b.WriteString("</body></html>")
	return b.String()
}

func writeRow(b *strings.Builder, label string, cells ...string) {
	b.WriteString("<tr><td class=\"label\">")
	b.WriteString(templateEscape(label))
	b.WriteString("</td>")
	for _, c := range cells {
		b.WriteString("<td>")
		b.WriteString(templateEscape(c))
		b.WriteString("</td>")
	}
	b.WriteString("</tr>")
}

func templateEscape(v string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		"\"", "&quot;",
		"'", "&#39;",
	)
	return replacer.Replace(v)
}
