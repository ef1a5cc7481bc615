package analysis

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"hrattrition/domain/attrition"
	"hrattrition/internal/dataset"
	"hrattrition/internal/errors"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/montanaflynn/stats"
)

const (
	keyColumn  = "key"
	flagColumn = "flag"
)

// ComputeGroupedRate groups rows by the dimension's coerced value and returns
// the share of departures per group. An absent column yields a
// MISSING_COLUMN error; a cell that cannot be coerced yields INVALID_INPUT.
func ComputeGroupedRate(ds *dataset.Dataset, dim attrition.Dimension) (*attrition.GroupedRate, error) {
	if ds.IsEmpty() {
		return nil, errors.EmptyDataset("dataset")
	}

	col, err := ds.Column(dim.Column)
	if err != nil {
		return nil, err
	}

	keys, flags, dropped, err := coerce(col, ds.Flags(), dim.Coercion)
	if err != nil {
		return nil, errors.InvalidInput(fmt.Sprintf("%s: %v", dim.Column, err))
	}

	result := &attrition.GroupedRate{
		Dimension: dim.Key,
		Column:    dim.Column,
		Groups:    []attrition.GroupRate{},
		Dropped:   dropped,
	}
	if len(keys) == 0 {
		return result, nil
	}

	frame := dataframe.New(
		series.New(keys, series.String, keyColumn),
		series.New(flags, series.Float, flagColumn),
	)
	groups := frame.GroupBy(keyColumn)
	if groups.Err != nil {
		return nil, errors.Wrapf(groups.Err, "failed to group by %s", dim.Column)
	}

	for _, grp := range groups.GetGroups() {
		rate, err := groupRate(grp)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to aggregate %s", dim.Column)
		}
		result.Groups = append(result.Groups, rate)
	}

	sortGroups(result.Groups, dim.Coercion)
	result.Association = chiSquare(result.Groups)
	return result, nil
}

// coerce turns raw cells into group keys. Rows whose cell is missing are
// dropped, except for fill-zero dimensions.
func coerce(col series.Series, rowFlags []float64, mode attrition.Coercion) ([]string, []float64, int, error) {
	keys := make([]string, 0, col.Len())
	flags := make([]float64, 0, col.Len())
	dropped := 0

	for i := 0; i < col.Len(); i++ {
		elem := col.Elem(i)
		raw := ""
		if !elem.IsNA() {
			raw = strings.TrimSpace(elem.String())
		}

		var key string
		switch mode {
		case attrition.CoerceFillZeroInt:
			v := 0.0
			if raw != "" {
				parsed, err := parseNumber(raw, i)
				if err != nil {
					return nil, nil, 0, err
				}
				if !math.IsNaN(parsed) {
					v = parsed
				}
			}
			key = strconv.Itoa(int(v))
		case attrition.CoerceRoundedInt:
			if raw == "" {
				dropped++
				continue
			}
			parsed, err := parseNumber(raw, i)
			if err != nil {
				return nil, nil, 0, err
			}
			if math.IsNaN(parsed) {
				dropped++
				continue
			}
			key = strconv.Itoa(int(math.RoundToEven(parsed)))
		default:
			if raw == "" {
				dropped++
				continue
			}
			key = raw
		}

		keys = append(keys, key)
		flags = append(flags, rowFlags[i])
	}
	return keys, flags, dropped, nil
}

// parseNumber parses a cell of data row i. NaN passes through as missing;
// infinities have no integer group and are rejected.
func parseNumber(raw string, i int) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(v, 0) {
		return 0, fmt.Errorf("row %d: %q is not a number", i+2, raw)
	}
	return v, nil
}

func groupRate(grp dataframe.DataFrame) (attrition.GroupRate, error) {
	flags := grp.Col(flagColumn).Float()
	departed, err := stats.Sum(flags)
	if err != nil {
		return attrition.GroupRate{}, err
	}
	mean, err := stats.Mean(flags)
	if err != nil {
		return attrition.GroupRate{}, err
	}

	return attrition.GroupRate{
		Key:      grp.Col(keyColumn).Elem(0).String(),
		Total:    len(flags),
		Departed: int(math.Round(departed)),
		RatePct:  100 * mean,
	}, nil
}

// sortGroups orders groups ascending and assigns x positions: the numeric
// key for numeric dimensions, the ordinal otherwise.
func sortGroups(groups []attrition.GroupRate, mode attrition.Coercion) {
	if mode.Numeric() {
		for i := range groups {
			n, _ := strconv.Atoi(groups[i].Key)
			groups[i].Position = float64(n)
		}
		sort.Slice(groups, func(i, j int) bool { return groups[i].Position < groups[j].Position })
		return
	}

	sort.Slice(groups, func(i, j int) bool { return groups[i].Key < groups[j].Key })
	for i := range groups {
		groups[i].Position = float64(i)
	}
}

// ComputeAll computes every catalogued dimension present in ds. Missing
// dimensions are omitted; other failures are returned per dimension.
func ComputeAll(ds *dataset.Dataset) (map[attrition.DimensionKey]*attrition.GroupedRate, map[attrition.DimensionKey]error) {
	rates := make(map[attrition.DimensionKey]*attrition.GroupedRate)
	failures := make(map[attrition.DimensionKey]error)
	for _, dim := range attrition.Dimensions() {
		rate, err := ComputeGroupedRate(ds, dim)
		switch {
		case errors.IsMissingColumn(err):
			continue
		case err != nil:
			failures[dim.Key] = err
		default:
			rates[dim.Key] = rate
		}
	}
	return rates, failures
}
