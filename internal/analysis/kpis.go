// Package analysis derives headline figures and per-dimension attrition
// rates from a loaded dataset. Every function here is pure.
package analysis

import (
	"math"

	"hrattrition/domain/attrition"
	"hrattrition/internal/dataset"
	"hrattrition/internal/errors"

	"github.com/montanaflynn/stats"
)

// ComputeKPIs returns headcount, departures and the two complementary rates.
func ComputeKPIs(ds *dataset.Dataset) (attrition.KPISet, error) {
	if ds.IsEmpty() {
		source := "dataset"
		if ds != nil {
			source = ds.Source
		}
		return attrition.KPISet{}, errors.EmptyDataset(source)
	}

	flags := ds.Flags()
	mean, err := stats.Mean(flags)
	if err != nil {
		return attrition.KPISet{}, errors.Wrap(err, "failed to average attrition flags")
	}
	departed, err := stats.Sum(flags)
	if err != nil {
		return attrition.KPISet{}, errors.Wrap(err, "failed to count departures")
	}

	attritionPct := 100 * mean
	return attrition.KPISet{
		Count:            len(flags),
		Departed:         int(math.Round(departed)),
		AttritionRatePct: attritionPct,
		RetentionRatePct: 100 - attritionPct,
	}, nil
}
