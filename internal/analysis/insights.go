package analysis

import (
	"fmt"
	"html/template"
	"strings"

	"hrattrition/domain/attrition"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// SignificanceLevel is the alpha used when describing associations.
const SignificanceLevel = 0.05

var printer = message.NewPrinter(language.Korean)

// FormatCount renders n with thousands separators, e.g. 1,470.
func FormatCount(n int) string {
	return printer.Sprintf("%d", n)
}

// FormatPct renders a rate with one decimal and a percent sign.
func FormatPct(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

// Insights writes a short markdown summary: the headline rates and, per
// dimension, the group with the highest attrition.
func Insights(kpis attrition.KPISet, rates map[attrition.DimensionKey]*attrition.GroupedRate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## 요약\n\n")
	fmt.Fprintf(&b, "- 전체 직원 **%s명** 중 **%s명**이 퇴직했습니다 (퇴직율 %s, 유지율 %s).\n",
		FormatCount(kpis.Count), FormatCount(kpis.Departed),
		FormatPct(kpis.AttritionRatePct), FormatPct(kpis.RetentionRatePct))

	for _, dim := range attrition.Dimensions() {
		rate, ok := rates[dim.Key]
		if !ok {
			continue
		}
		peak, ok := rate.Peak()
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "- %s: `%s` 그룹의 퇴직율이 %s로 가장 높습니다 (%s명 중 %s명).",
			dim.Column, codeSpanText(peak.Key), FormatPct(peak.RatePct), FormatCount(peak.Total), FormatCount(peak.Departed))
		if a := rate.Association; a != nil {
			verdict := "유의하지 않음"
			if a.Significant(SignificanceLevel) {
				verdict = "유의함"
			}
			fmt.Fprintf(&b, " χ²=%.2f, p=%.4f (%s)", a.ChiSquare, a.PValue, verdict)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// codeSpanText keeps a data value inside its code span.
func codeSpanText(s string) string {
	s = strings.ReplaceAll(s, "`", "'")
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}

// InsightsHTML renders Insights to HTML. Raw HTML in the markdown is dropped.
func InsightsHTML(kpis attrition.KPISet, rates map[attrition.DimensionKey]*attrition.GroupedRate) template.HTML {
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags | mdhtml.SkipHTML})
	return template.HTML(markdown.ToHTML([]byte(Insights(kpis, rates)), nil, renderer))
}
