// Package charts draws grouped attrition rates with go-chart.
package charts

import (
	"bytes"
	"fmt"
	"html"
	"math"

	"hrattrition/domain/attrition"
	"hrattrition/internal/errors"

	"github.com/golang/freetype/truetype"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Format is an output image format.
type Format string

const (
	SVG Format = "svg"
	PNG Format = "png"
)

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	if f == PNG {
		return "image/png"
	}
	return "image/svg+xml"
}

// ParseFormat accepts "svg" or "png".
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case SVG, PNG:
		return Format(s), nil
	}
	return "", errors.InvalidInput(fmt.Sprintf("unsupported chart format %q", s))
}

// FontSource supplies the face used for all chart text; nil means the
// go-chart default.
type FontSource interface {
	Font() *truetype.Font
}

var (
	lineColor = drawing.ColorFromHex("1f77b4")
	areaColor = drawing.ColorFromHex("3cb371")
	barColor  = drawing.ColorFromHex("2ca02c")
	textColor = drawing.ColorFromHex("333333")
)

const (
	labelFontSize = 10.0
	maxBarWidth   = 60
	maxBarSpacing = 40
	minBarSlot    = 3
	barMargin     = 120
)

// Renderer turns a GroupedRate into an image.
type Renderer struct {
	fonts FontSource
}

// NewRenderer creates a renderer. fonts may be nil.
func NewRenderer(fonts FontSource) *Renderer {
	return &Renderer{fonts: fonts}
}

// Render draws rate as the chart kind named in labels. Every point or bar
// carries its rate formatted as %.1f%%.
func (r *Renderer) Render(rate *attrition.GroupedRate, labels attrition.ChartLabels, format Format) ([]byte, error) {
	if rate == nil || len(rate.Groups) == 0 {
		return nil, errors.InvalidInput(fmt.Sprintf("no groups to chart for %s", labels.Title))
	}

	// go-chart writes SVG text nodes verbatim, so data-derived labels are
	// escaped there and left raw for raster output.
	provider, text := chart.SVG, html.EscapeString
	if format == PNG {
		provider, text = chart.PNG, func(s string) string { return s }
	}

	var buf bytes.Buffer
	var err error
	switch labels.Kind {
	case attrition.ChartBar:
		if n, limit := len(rate.Groups), maxBars(labels.Width); n > limit {
			return nil, errors.InvalidInput(fmt.Sprintf("%d groups do not fit in %s (at most %d)", n, labels.Title, limit))
		}
		err = r.barChart(rate, labels, text).Render(provider, &buf)
	case attrition.ChartLine, attrition.ChartArea:
		err = r.lineChart(rate, labels, text).Render(provider, &buf)
	default:
		return nil, errors.InvalidInput(fmt.Sprintf("unsupported chart kind %q", labels.Kind))
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to render %s", labels.Title)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) font() *truetype.Font {
	if r.fonts == nil {
		return nil
	}
	return r.fonts.Font()
}

// yMax leaves headroom above the tallest value for its label.
func yMax(groups []attrition.GroupRate) float64 {
	peak := 0.0
	for _, g := range groups {
		peak = math.Max(peak, g.RatePct)
	}
	return math.Min(100, math.Max(10, math.Ceil(peak*1.15/5)*5))
}

func yTicks(max float64) []chart.Tick {
	step := 10.0
	if max > 50 {
		step = 20
	}
	var ticks []chart.Tick
	for v := 0.0; v <= max+1e-9; v += step {
		ticks = append(ticks, chart.Tick{Value: v, Label: fmt.Sprintf("%.0f", v)})
	}
	return ticks
}

func (r *Renderer) lineChart(rate *attrition.GroupedRate, labels attrition.ChartLabels, text func(string) string) chart.Chart {
	n := len(rate.Groups)
	xs := make([]float64, n)
	ys := make([]float64, n)
	ticks := make([]chart.Tick, n)
	annotations := make([]chart.Value2, n)
	for i, g := range rate.Groups {
		xs[i] = g.Position
		ys[i] = g.RatePct
		ticks[i] = chart.Tick{Value: g.Position, Label: text(g.Key)}
		annotations[i] = chart.Value2{XValue: g.Position, YValue: g.RatePct, Label: text(fmt.Sprintf("%.1f%%", g.RatePct))}
	}

	pad := 0.5
	if span := xs[n-1] - xs[0]; span > 0 {
		pad = math.Max(0.5, span*0.05)
	}
	ymax := yMax(rate.Groups)

	color := lineColor
	if labels.Kind == attrition.ChartArea {
		color = areaColor
	}
	style := chart.Style{
		StrokeColor: color,
		StrokeWidth: 2,
		DotColor:    color,
		DotWidth:    4,
	}
	if labels.Kind == attrition.ChartArea {
		style.FillColor = color.WithAlpha(64)
	}

	return chart.Chart{
		Title:      text(labels.Title),
		Width:      labels.Width,
		Height:     labels.Height,
		Font:       r.font(),
		Background: chart.Style{Padding: chart.Box{Top: 48, Left: 16, Right: 16, Bottom: 16}},
		XAxis: chart.XAxis{
			Name:  text(labels.XLabel),
			Ticks: ticks,
			Range: &chart.ContinuousRange{Min: xs[0] - pad, Max: xs[n-1] + pad},
		},
		YAxis: chart.YAxis{
			Name:  text(labels.YLabel),
			Range: &chart.ContinuousRange{Min: 0, Max: ymax},
			Ticks: yTicks(ymax),
		},
		Series: []chart.Series{
			chart.ContinuousSeries{Name: text(labels.YLabel), XValues: xs, YValues: ys, Style: style},
			chart.AnnotationSeries{
				Annotations: annotations,
				Style:       chart.Style{FontSize: labelFontSize, FontColor: textColor, StrokeColor: color, FillColor: drawing.ColorWhite},
			},
		},
	}
}

// maxBars is the most bars that fit width with at least one pixel per bar.
func maxBars(width int) int {
	return (width - barMargin) / minBarSlot
}

func (r *Renderer) barChart(rate *attrition.GroupedRate, labels attrition.ChartLabels, text func(string) string) chart.BarChart {
	n := len(rate.Groups)
	per := (labels.Width - barMargin) / n
	barWidth := maxInt(1, minInt(maxBarWidth, per*3/5))
	spacing := maxInt(2, minInt(maxBarSpacing, per-barWidth))

	bars := make([]chart.Value, n)
	for i, g := range rate.Groups {
		bars[i] = chart.Value{
			Value: g.RatePct,
			Label: text(g.Key),
			Style: chart.Style{FillColor: barColor, StrokeColor: barColor, StrokeWidth: 1},
		}
	}
	ymax := yMax(rate.Groups)

	bc := chart.BarChart{
		Title:      text(labels.Title),
		Width:      labels.Width,
		Height:     labels.Height,
		Font:       r.font(),
		BarWidth:   barWidth,
		BarSpacing: spacing,
		Background: chart.Style{Padding: chart.Box{Top: 48, Left: 16, Right: 16, Bottom: 36}},
		YAxis: chart.YAxis{
			Name:  text(labels.YLabel),
			Range: &chart.ContinuousRange{Min: 0, Max: ymax},
			Ticks: yTicks(ymax),
		},
		Bars: bars,
	}
	bc.Elements = []chart.Renderable{barLabels(rate.Groups, barWidth, spacing, ymax), axisName(text(labels.XLabel))}
	return bc
}

// barLabels writes each bar's rate just above it. Bars start half a
// spacing into the canvas and advance by width+spacing.
func barLabels(groups []attrition.GroupRate, width, spacing int, ymax float64) chart.Renderable {
	return func(r chart.Renderer, canvasBox chart.Box, defaults chart.Style) {
		chart.Style{FontSize: labelFontSize, FontColor: textColor}.InheritFrom(defaults).WriteToRenderer(r)
		for i, g := range groups {
			label := fmt.Sprintf("%.1f%%", g.RatePct)
			tb := r.MeasureText(label)
			center := canvasBox.Left + spacing/2 + i*(width+spacing) + width/2
			top := canvasBox.Bottom - int(g.RatePct/ymax*float64(canvasBox.Height()))
			r.Text(label, center-tb.Width()/2, top-4)
		}
	}
}

// axisName writes the x axis title under the bar labels; BarChart has no
// axis name of its own.
func axisName(name string) chart.Renderable {
	return func(r chart.Renderer, canvasBox chart.Box, defaults chart.Style) {
		if name == "" {
			return
		}
		chart.Style{FontSize: labelFontSize + 1, FontColor: textColor}.InheritFrom(defaults).WriteToRenderer(r)
		tb := r.MeasureText(name)
		r.Text(name, canvasBox.Left+(canvasBox.Width()-tb.Width())/2, canvasBox.Bottom+32)
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
