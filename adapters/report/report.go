// Package report renders attribution results as Markdown and HTML.
package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"gomix/domain/attribution"
)

// Renderer implements ports.ReportRenderer.
type Renderer struct {
	Title string
}

// NewRenderer creates a renderer with the default title.
func NewRenderer() *Renderer {
	return &Renderer{Title: "Marketing Mix Attribution"}
}

// Markdown renders the result as a Markdown document.
func (r *Renderer) Markdown(res attribution.Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", r.Title)
	if res.RunID != "" {
		fmt.Fprintf(&b, "Run `%s`", res.RunID)
		if !res.DatasetHash.IsEmpty() {
			fmt.Fprintf(&b, " on dataset `%s`", res.DatasetHash.Short())
		}
		b.WriteString("\n\n")
	}

	b.WriteString("## Setup\n\n")
	fmt.Fprintf(&b, "- Target: `%s`\n", res.Roles.Target)
	if res.Roles.HasDate() {
		fmt.Fprintf(&b, "- Date: `%s`\n", res.Roles.Date)
	}
	fmt.Fprintf(&b, "- Channels: %s\n", codeList(res.Roles.Spend))
	fmt.Fprintf(&b, "- Adstock decay: %.2f, saturation: %s\n", res.Params.Decay, onOff(res.Params.Saturation))
	fmt.Fprintf(&b, "- Rows: %d used of %d", res.UsedRows, res.InputRows)
	if res.DroppedDate > 0 || res.DroppedTarget > 0 {
		fmt.Fprintf(&b, " (%d without a date, %d without a numeric target)", res.DroppedDate, res.DroppedTarget)
	}
	b.WriteString("\n\n")

	m := res.Model
	b.WriteString("## Model fit\n\n")
	b.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| R² | %.4f |\n", m.R2)
	fmt.Fprintf(&b, "| Adjusted R² | %.4f |\n", m.AdjR2)
	fmt.Fprintf(&b, "| RMSE | %s |\n", num(m.RMSE))
	fmt.Fprintf(&b, "| Rank | %d of %d |\n", m.Rank, len(m.Features))
	if m.FStatistic != nil && m.FPValue != nil {
		fmt.Fprintf(&b, "| F-statistic | %.3f (p = %.4g) |\n", *m.FStatistic, *m.FPValue)
	}
	b.WriteString("\n")

	b.WriteString("## Channel ROI\n\n")
	b.WriteString("| Channel | Spend | Contribution | ROI | Share |\n|---|---:|---:|---:|---:|\n")
	for _, row := range res.ROI {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			row.Channel, num(row.TotalSpend), num(row.TotalContribution), ratio(row.ROI), percent(row.ContributionShare))
	}
	fmt.Fprintf(&b, "\nBaseline (intercept) contribution: %s\n\n", num(res.BaselineContribution))

	b.WriteString("## Coefficients\n\n")
	b.WriteString("| Feature | Coefficient |\n|---|---:|\n")
	for i, f := range m.Features {
		fmt.Fprintf(&b, "| %s | %.6g |\n", f, m.Coefficients[i])
	}

	if m.Rank < len(m.Features) {
		b.WriteString("\n> Some channels are collinear; their split of the contribution is not identifiable.\n")
	}
	return b.String()
}

// HTML renders the Markdown report to an HTML fragment.
func (r *Renderer) HTML(res attribution.Result) ([]byte, error) {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.ToHTML([]byte(r.Markdown(res)), p, renderer), nil
}

func codeList(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = "`" + s + "`"
	}
	return strings.Join(quoted, ", ")
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func num(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", v)
}

func ratio(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return fmt.Sprintf("%.3f", v)
}

func percent(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", 100*v)
}
