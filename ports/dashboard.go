package ports

import (
	"context"

	"hrattrition/domain/attrition"
	"hrattrition/internal/charts"
	"hrattrition/internal/dataset"
)

// DatasetProvider returns the loaded dataset for a path, memoized across
// calls until invalidated.
type DatasetProvider interface {
	Get(ctx context.Context, path string) (*dataset.Dataset, error)
	Invalidate(path string)
}

// ChartRenderer draws one grouped rate as an image
type ChartRenderer interface {
	Render(rate *attrition.GroupedRate, labels attrition.ChartLabels, format charts.Format) ([]byte, error)
}
