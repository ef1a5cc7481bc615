package app

import (
	"context"
	"fmt"
	"html/template"
	"log"
	"time"

	"hrattrition/domain/attrition"
	"hrattrition/internal/analysis"
	"hrattrition/internal/charts"
	"hrattrition/internal/dataset"
	"hrattrition/internal/errors"
	"hrattrition/ports"
)

// Panel is one dimension's chart, or the reason it could not be drawn.
type Panel struct {
	Dimension attrition.Dimension
	Rate      *attrition.GroupedRate
	SVG       template.HTML
	Error     string
}

// Dashboard is everything a page needs, derived from one dataset.
type Dashboard struct {
	Dataset          *dataset.Dataset
	KPIs             attrition.KPISet
	Rates            map[attrition.DimensionKey]*attrition.GroupedRate
	Panels           []Panel
	InsightsMarkdown string
	Insights         template.HTML
	GeneratedAt      time.Time
}

// DashboardService runs Loader → Aggregator → Renderer for the configured file
type DashboardService struct {
	datasets ports.DatasetProvider
	renderer ports.ChartRenderer
	path     string
	now      func() time.Time
}

// NewDashboardService creates the pipeline for path
func NewDashboardService(datasets ports.DatasetProvider, renderer ports.ChartRenderer, path string) *DashboardService {
	return &DashboardService{
		datasets: datasets,
		renderer: renderer,
		path:     path,
		now:      time.Now,
	}
}

// Path returns the input file path.
func (s *DashboardService) Path() string {
	return s.path
}

// Dataset returns the memoized dataset. Load failures carry LOAD_ERROR or
// EMPTY_DATASET codes and halt every view.
func (s *DashboardService) Dataset(ctx context.Context) (*dataset.Dataset, error) {
	ds, err := s.datasets.Get(ctx, s.path)
	if err != nil {
		return nil, err
	}
	if ds.IsEmpty() {
		return nil, errors.EmptyDataset(s.path)
	}
	return ds, nil
}

// Build loads (or reuses) the dataset and derives the full dashboard.
func (s *DashboardService) Build(ctx context.Context) (*Dashboard, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	return s.BuildFrom(ds)
}

// BuildFrom derives the dashboard from ds without touching shared state,
// so it is safe to call repeatedly and concurrently.
func (s *DashboardService) BuildFrom(ds *dataset.Dataset) (*Dashboard, error) {
	start := s.now()

	kpis, err := analysis.ComputeKPIs(ds)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		Dataset:     ds,
		KPIs:        kpis,
		Rates:       make(map[attrition.DimensionKey]*attrition.GroupedRate),
		GeneratedAt: start,
	}

	for _, dim := range attrition.Dimensions() {
		rate, err := analysis.ComputeGroupedRate(ds, dim)
		if errors.IsMissingColumn(err) {
			log.Printf("[DashboardService] Skipping %s: column %s not present", dim.Key, dim.Column)
			continue
		}

		panel := Panel{Dimension: dim, Rate: rate}
		if err != nil {
			panel.Error = errors.UserMessage(err)
			d.Panels = append(d.Panels, panel)
			continue
		}
		d.Rates[dim.Key] = rate

		svg, err := s.renderer.Render(rate, dim.Chart, charts.SVG)
		if err != nil {
			log.Printf("[DashboardService] Failed to render %s: %v", dim.Key, err)
			panel.Error = errors.UserMessage(err)
		} else {
			panel.SVG = template.HTML(svg)
		}
		d.Panels = append(d.Panels, panel)
	}

	d.InsightsMarkdown = analysis.Insights(kpis, d.Rates)
	d.Insights = analysis.InsightsHTML(kpis, d.Rates)

	log.Printf("[DashboardService] Built dashboard for %s (%d rows, %d panels) in %v",
		ds.Source, kpis.Count, len(d.Panels), s.now().Sub(start))
	return d, nil
}

// Rate computes one dimension. Unknown keys are NOT_FOUND; an absent column
// is MISSING_COLUMN.
func (s *DashboardService) Rate(ctx context.Context, key attrition.DimensionKey) (*attrition.GroupedRate, error) {
	dim, ok := attrition.LookupDimension(key)
	if !ok {
		return nil, errors.NotFound(fmt.Sprintf("dimension %q", key))
	}
	ds, err := s.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	return analysis.ComputeGroupedRate(ds, dim)
}

// Chart renders one dimension in the requested format.
func (s *DashboardService) Chart(ctx context.Context, key attrition.DimensionKey, format charts.Format) ([]byte, error) {
	rate, err := s.Rate(ctx, key)
	if err != nil {
		return nil, err
	}
	dim, _ := attrition.LookupDimension(key)
	return s.renderer.Render(rate, dim.Chart, format)
}

// Reload forgets the memoized dataset; the next request reads the file again.
func (s *DashboardService) Reload() {
	s.datasets.Invalidate(s.path)
}
