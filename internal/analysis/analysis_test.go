package analysis

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"hrattrition/domain/attrition"
	"hrattrition/internal/dataset"
	"hrattrition/internal/errors"
	"hrattrition/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, records [][]string) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.NewLoader(attrition.DefaultSchema()).FromRecords("test", records)
	require.NoError(t, err)
	return ds
}

func dimension(t *testing.T, key attrition.DimensionKey) attrition.Dimension {
	t.Helper()
	dim, ok := attrition.LookupDimension(key)
	require.True(t, ok)
	return dim
}

func TestComputeKPIs_ThreeRows(t *testing.T) {
	ds := load(t, [][]string{
		{"직원ID", "퇴직여부"},
		{"1", "Yes"},
		{"2", "No"},
		{"3", "No"},
	})

	kpis, err := ComputeKPIs(ds)
	require.NoError(t, err)
	assert.Equal(t, 3, kpis.Count)
	assert.Equal(t, 1, kpis.Departed)
	assert.InDelta(t, 33.3, kpis.AttritionRatePct, 0.05)
	assert.InDelta(t, 66.7, kpis.RetentionRatePct, 0.05)
}

func TestComputeKPIs_Empty(t *testing.T) {
	_, err := ComputeKPIs(nil)
	require.Error(t, err)
	assert.Equal(t, errors.CodeEmptyDataset, errors.GetCode(err))
}

func TestComputeKPIs_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 25; trial++ {
		records := [][]string{{"직원ID", "퇴직여부"}}
		yes := 0
		n := 1 + rng.Intn(200)
		for i := 0; i < n; i++ {
			label := "No"
			if rng.Intn(4) == 0 {
				label = "Yes"
				yes++
			}
			records = append(records, []string{fmt.Sprint(i), label})
		}

		kpis, err := ComputeKPIs(load(t, records))
		require.NoError(t, err)
		assert.InDelta(t, 100, kpis.AttritionRatePct+kpis.RetentionRatePct, 1e-9)
		assert.Equal(t, yes, kpis.Departed)
		assert.InDelta(t, float64(kpis.Departed), float64(kpis.Count)*kpis.AttritionRatePct/100, 1e-6)
	}
}

func TestComputeGroupedRate_StockOptionFillsZero(t *testing.T) {
	ds := load(t, [][]string{
		{"직원ID", "퇴직여부", "스톡옵션정도"},
		{"1", "Yes", "0"},
		{"2", "No", ""},
		{"3", "No", "1"},
	})

	rate, err := ComputeGroupedRate(ds, dimension(t, attrition.StockOption))
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "1"}, rate.Keys())

	r0, ok := rate.Rate("0")
	require.True(t, ok)
	assert.InDelta(t, 50.0, r0, 1e-9)
	r1, ok := rate.Rate("1")
	require.True(t, ok)
	assert.InDelta(t, 0.0, r1, 1e-9)
	assert.Equal(t, 0, rate.Dropped)
}

func TestComputeGroupedRate_SalaryRoundsBeforeGrouping(t *testing.T) {
	ds := load(t, [][]string{
		{"직원ID", "퇴직여부", "급여증가분백분율"},
		{"1", "Yes", "11.4"},
		{"2", "No", "11.6"},
		{"3", "Yes", "12.0"},
		{"4", "No", ""},
	})

	rate, err := ComputeGroupedRate(ds, dimension(t, attrition.SalaryIncrease))
	require.NoError(t, err)
	assert.Equal(t, []string{"11", "12"}, rate.Keys())

	r11, _ := rate.Rate("11")
	r12, _ := rate.Rate("12")
	assert.InDelta(t, 100.0, r11, 1e-9)
	assert.InDelta(t, 50.0, r12, 1e-9)
	assert.Equal(t, 1, rate.Dropped)
	assert.Equal(t, 11.0, rate.Groups[0].Position)
}

func TestComputeGroupedRate_RoundHalfToEven(t *testing.T) {
	ds := load(t, [][]string{
		{"직원ID", "퇴직여부", "급여증가분백분율"},
		{"1", "Yes", "12.5"},
		{"2", "No", "13.5"},
	})

	rate, err := ComputeGroupedRate(ds, dimension(t, attrition.SalaryIncrease))
	require.NoError(t, err)
	assert.Equal(t, []string{"12", "14"}, rate.Keys())
}

func TestComputeGroupedRate_NumericKeysSortNumerically(t *testing.T) {
	ds := load(t, [][]string{
		{"직원ID", "퇴직여부", "급여증가분백분율"},
		{"1", "Yes", "25"},
		{"2", "No", "9"},
		{"3", "No", "11"},
	})

	rate, err := ComputeGroupedRate(ds, dimension(t, attrition.SalaryIncrease))
	require.NoError(t, err)
	assert.Equal(t, []string{"9", "11", "25"}, rate.Keys())
}

func TestComputeGroupedRate_OvertimeCategories(t *testing.T) {
	ds := load(t, [][]string{
		{"직원ID", "퇴직여부", "야근정도"},
		{"1", "Yes", "Yes"},
		{"2", "No", " Yes"},
		{"3", "No", "No"},
		{"4", "No", ""},
	})

	rate, err := ComputeGroupedRate(ds, dimension(t, attrition.Overtime))
	require.NoError(t, err)
	assert.Equal(t, []string{"No", "Yes"}, rate.Keys())
	assert.Equal(t, 0.0, rate.Groups[0].Position)
	assert.Equal(t, 1.0, rate.Groups[1].Position)
	assert.Equal(t, 2, rate.Groups[1].Total)
	assert.Equal(t, 1, rate.Dropped)
}

func TestComputeGroupedRate_MissingColumn(t *testing.T) {
	ds := load(t, [][]string{{"직원ID", "퇴직여부"}, {"1", "Yes"}})

	_, err := ComputeGroupedRate(ds, dimension(t, attrition.Overtime))
	require.Error(t, err)
	assert.True(t, errors.IsMissingColumn(err))
}

func TestComputeGroupedRate_InvalidNumber(t *testing.T) {
	ds := load(t, [][]string{
		{"직원ID", "퇴직여부", "스톡옵션정도"},
		{"1", "Yes", "high"},
	})

	_, err := ComputeGroupedRate(ds, dimension(t, attrition.StockOption))
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
	assert.Contains(t, err.Error(), "스톡옵션정도")
}

func TestComputeGroupedRate_NonFiniteNumbers(t *testing.T) {
	cases := []struct {
		key  attrition.DimensionKey
		col  string
		cell string
	}{
		{attrition.StockOption, "스톡옵션정도", "Inf"},
		{attrition.StockOption, "스톡옵션정도", "-inf"},
		{attrition.SalaryIncrease, "급여증가분백분율", "+Inf"},
		{attrition.SalaryIncrease, "급여증가분백분율", "Infinity"},
	}

	for _, tc := range cases {
		t.Run(string(tc.key)+"/"+tc.cell, func(t *testing.T) {
			ds := load(t, [][]string{
				{"직원ID", "퇴직여부", tc.col},
				{"1", "Yes", tc.cell},
				{"2", "No", "1"},
			})

			_, err := ComputeGroupedRate(ds, dimension(t, tc.key))
			require.Error(t, err)
			assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
			assert.Contains(t, err.Error(), "row 2")
		})
	}
}

func TestComputeGroupedRate_StockOptionNaNFillsZero(t *testing.T) {
	ds := load(t, [][]string{
		{"직원ID", "퇴직여부", "스톡옵션정도"},
		{"1", "Yes", "NAN"},
		{"2", "No", "1"},
	})

	rate, err := ComputeGroupedRate(ds, dimension(t, attrition.StockOption))
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "1"}, rate.Keys())
}

func TestComputeGroupedRate_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	levels := []string{"0", "1", "2", "3", ""}
	records := [][]string{{"직원ID", "퇴직여부", "스톡옵션정도", "야근정도"}}
	for i := 0; i < 300; i++ {
		label := "No"
		if rng.Intn(3) == 0 {
			label = "Yes"
		}
		overtime := []string{"Yes", "No", ""}[rng.Intn(3)]
		records = append(records, []string{fmt.Sprint(i), label, levels[rng.Intn(len(levels))], overtime})
	}
	ds := load(t, records)

	for _, key := range []attrition.DimensionKey{attrition.StockOption, attrition.Overtime} {
		rate, err := ComputeGroupedRate(ds, dimension(t, key))
		require.NoError(t, err)

		total := rate.Dropped
		for _, g := range rate.Groups {
			assert.GreaterOrEqual(t, g.RatePct, 0.0)
			assert.LessOrEqual(t, g.RatePct, 100.0)
			total += g.Total
		}
		assert.Equal(t, ds.Len(), total)

		again, err := ComputeGroupedRate(ds, dimension(t, key))
		require.NoError(t, err)
		assert.Equal(t, rate, again)
	}
}

func TestComputeAll_SkipsMissingDimensions(t *testing.T) {
	ds := load(t, [][]string{
		{"직원ID", "퇴직여부", "야근정도"},
		{"1", "Yes", "Yes"},
		{"2", "No", "No"},
	})

	rates, failures := ComputeAll(ds)
	assert.Empty(t, failures)
	assert.Len(t, rates, 1)
	assert.Contains(t, rates, attrition.Overtime)
}

func TestAssociation(t *testing.T) {
	t.Run("strong dependence", func(t *testing.T) {
		a := chiSquare([]attrition.GroupRate{
			{Key: "No", Total: 100, Departed: 5},
			{Key: "Yes", Total: 100, Departed: 60},
		})
		require.NotNil(t, a)
		assert.Equal(t, 1, a.DegreesOfFreedom)
		assert.Greater(t, a.ChiSquare, 10.0)
		assert.True(t, a.Significant(SignificanceLevel))
	})

	t.Run("identical rates", func(t *testing.T) {
		a := chiSquare([]attrition.GroupRate{
			{Key: "0", Total: 50, Departed: 10},
			{Key: "1", Total: 50, Departed: 10},
			{Key: "2", Total: 50, Departed: 10},
		})
		require.NotNil(t, a)
		assert.Equal(t, 2, a.DegreesOfFreedom)
		assert.InDelta(t, 0.0, a.ChiSquare, 1e-9)
		assert.InDelta(t, 1.0, a.PValue, 1e-9)
	})

	t.Run("undefined", func(t *testing.T) {
		assert.Nil(t, chiSquare([]attrition.GroupRate{{Key: "0", Total: 3, Departed: 1}}))
		assert.Nil(t, chiSquare([]attrition.GroupRate{{Key: "0", Total: 3}, {Key: "1", Total: 2}}))
	})
}

func TestInsights(t *testing.T) {
	kpis := attrition.KPISet{Count: 1470, Departed: 237, AttritionRatePct: 16.12, RetentionRatePct: 83.88}
	rates := map[attrition.DimensionKey]*attrition.GroupedRate{
		attrition.Overtime: {
			Dimension: attrition.Overtime,
			Column:    "야근정도",
			Groups: []attrition.GroupRate{
				{Key: "No", Total: 1054, Departed: 110, RatePct: 10.4},
				{Key: "Yes", Total: 416, Departed: 127, RatePct: 30.5},
			},
		},
	}

	md := Insights(kpis, rates)
	assert.Contains(t, md, "1,470명")
	assert.Contains(t, md, "16.1%")
	assert.Contains(t, md, "`Yes`")
	assert.Contains(t, md, "30.5%")

	html := string(InsightsHTML(kpis, rates))
	assert.True(t, strings.Contains(html, "<li>"))
	assert.Contains(t, html, "<code>Yes</code>")
}

func TestInsightsHTML_GroupKeysStayText(t *testing.T) {
	kpis := attrition.KPISet{Count: 2, Departed: 1, AttritionRatePct: 50, RetentionRatePct: 50}
	keys := []string{
		"a` <img src=x onerror=alert(1)> `b",
		"<img src=x onerror=alert(1)>",
		"R&D",
	}

	for _, key := range keys {
		t.Run(key, func(t *testing.T) {
			rates := map[attrition.DimensionKey]*attrition.GroupedRate{
				attrition.Overtime: {
					Dimension: attrition.Overtime,
					Column:    "야근정도",
					Groups:    []attrition.GroupRate{{Key: key, Total: 2, Departed: 1, RatePct: 50}},
				},
			}

			md := Insights(kpis, rates)
			assert.Equal(t, 2, strings.Count(md, "`"), "one code span per dimension line")

			html := string(InsightsHTML(kpis, rates))
			assert.NotContains(t, html, "<img")
			assert.Contains(t, html, "<code>")
		})
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "1,470", FormatCount(1470))
	assert.Equal(t, "12", FormatCount(12))
	assert.Equal(t, "33.3%", FormatPct(100.0/3))
}

func TestGeneratedSample(t *testing.T) {
	cfg := testkit.DefaultHRConfig()
	ds := load(t, testkit.NewHRDataGenerator(cfg).Records())

	kpis, err := ComputeKPIs(ds)
	require.NoError(t, err)
	assert.Equal(t, cfg.EmployeeCount, kpis.Count)
	assert.False(t, ds.HasColumn("직원수"))

	rates, failures := ComputeAll(ds)
	require.Empty(t, failures)
	require.Len(t, rates, 3)

	overtime := rates[attrition.Overtime]
	no, _ := overtime.Rate("No")
	yes, _ := overtime.Rate("Yes")
	assert.Greater(t, yes, no)
	require.NotNil(t, overtime.Association)
	assert.True(t, overtime.Association.Significant(SignificanceLevel))

	stock := rates[attrition.StockOption]
	assert.Equal(t, []string{"0", "1", "2", "3"}, stock.Keys())
	assert.Zero(t, stock.Dropped)
	assert.Greater(t, rates[attrition.SalaryIncrease].Dropped, 0)
}
