package app

import (
	"context"
	"strings"
	"testing"

	"hrattrition/domain/attrition"
	"hrattrition/internal/charts"
	"hrattrition/internal/dataset"
	"hrattrition/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockDatasetProvider struct {
	mock.Mock
}

func (m *MockDatasetProvider) Get(ctx context.Context, path string) (*dataset.Dataset, error) {
	args := m.Called(ctx, path)
	ds, _ := args.Get(0).(*dataset.Dataset)
	return ds, args.Error(1)
}

func (m *MockDatasetProvider) Invalidate(path string) {
	m.Called(path)
}

func fixture(t *testing.T, records [][]string) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.NewLoader(attrition.DefaultSchema()).FromRecords("hr.csv", records)
	require.NoError(t, err)
	return ds
}

var fullRecords = [][]string{
	{"직원ID", "퇴직여부", "직원수", "스톡옵션정도", "급여증가분백분율", "야근정도"},
	{"1", "Yes", "1", "0", "11.4", "Yes"},
	{"2", "No", "1", "0", "11.6", "No"},
	{"3", "No", "1", "1", "12.0", "No"},
	{"4", "Yes", "1", "", "", "Yes"},
}

func TestDashboardService_Build(t *testing.T) {
	ds := fixture(t, fullRecords)
	provider := new(MockDatasetProvider)
	provider.On("Get", mock.Anything, "hr.csv").Return(ds, nil)

	svc := NewDashboardService(provider, charts.NewRenderer(nil), "hr.csv")
	d, err := svc.Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, d.KPIs.Count)
	assert.Equal(t, 2, d.KPIs.Departed)
	assert.InDelta(t, 50.0, d.KPIs.AttritionRatePct, 1e-9)

	require.Len(t, d.Panels, 3)
	for i, dim := range attrition.Dimensions() {
		panel := d.Panels[i]
		assert.Equal(t, dim.Key, panel.Dimension.Key)
		assert.Empty(t, panel.Error)
		assert.True(t, strings.Contains(string(panel.SVG), "<svg"), dim.Key)
	}

	stock := d.Rates[attrition.StockOption]
	require.NotNil(t, stock)
	assert.Equal(t, []string{"0", "1"}, stock.Keys())
	assert.Equal(t, 3, stock.Groups[0].Total)

	assert.Contains(t, d.InsightsMarkdown, "야근정도")
	assert.NotEmpty(t, d.Insights)
	provider.AssertExpectations(t)
}

func TestDashboardService_SkipsMissingColumns(t *testing.T) {
	ds := fixture(t, [][]string{
		{"직원ID", "퇴직여부", "야근정도"},
		{"1", "Yes", "Yes"},
		{"2", "No", "No"},
	})
	provider := new(MockDatasetProvider)
	provider.On("Get", mock.Anything, "hr.csv").Return(ds, nil)

	d, err := NewDashboardService(provider, charts.NewRenderer(nil), "hr.csv").Build(context.Background())
	require.NoError(t, err)
	require.Len(t, d.Panels, 1)
	assert.Equal(t, attrition.Overtime, d.Panels[0].Dimension.Key)
}

func TestDashboardService_InvalidColumnKeepsOtherPanels(t *testing.T) {
	ds := fixture(t, [][]string{
		{"직원ID", "퇴직여부", "스톡옵션정도", "야근정도"},
		{"1", "Yes", "lots", "Yes"},
		{"2", "No", "0", "No"},
	})
	provider := new(MockDatasetProvider)
	provider.On("Get", mock.Anything, "hr.csv").Return(ds, nil)

	d, err := NewDashboardService(provider, charts.NewRenderer(nil), "hr.csv").Build(context.Background())
	require.NoError(t, err)
	require.Len(t, d.Panels, 2)
	assert.Contains(t, d.Panels[0].Error, "lots")
	assert.Empty(t, d.Panels[0].SVG)
	assert.Empty(t, d.Panels[1].Error)
	assert.NotContains(t, d.Rates, attrition.StockOption)
}

func TestDashboardService_LoadFailureHalts(t *testing.T) {
	provider := new(MockDatasetProvider)
	provider.On("Get", mock.Anything, "hr.csv").Return(nil, errors.LoadError("데이터 로드 오류: hr.csv", nil))

	d, err := NewDashboardService(provider, charts.NewRenderer(nil), "hr.csv").Build(context.Background())
	require.Error(t, err)
	assert.Nil(t, d)
	assert.True(t, errors.IsLoadFailure(err))
}

func TestDashboardService_BuildFromIsDeterministic(t *testing.T) {
	ds := fixture(t, fullRecords)
	svc := NewDashboardService(new(MockDatasetProvider), charts.NewRenderer(nil), "hr.csv")

	first, err := svc.BuildFrom(ds)
	require.NoError(t, err)
	second, err := svc.BuildFrom(ds)
	require.NoError(t, err)

	assert.Equal(t, first.KPIs, second.KPIs)
	assert.Equal(t, first.Rates, second.Rates)
	assert.Equal(t, first.InsightsMarkdown, second.InsightsMarkdown)
}

func TestDashboardService_Rate(t *testing.T) {
	ds := fixture(t, [][]string{{"직원ID", "퇴직여부"}, {"1", "Yes"}})
	provider := new(MockDatasetProvider)
	provider.On("Get", mock.Anything, "hr.csv").Return(ds, nil)
	svc := NewDashboardService(provider, charts.NewRenderer(nil), "hr.csv")

	_, err := svc.Rate(context.Background(), "tenure")
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))

	_, err = svc.Rate(context.Background(), attrition.Overtime)
	assert.True(t, errors.IsMissingColumn(err))
}

func TestDashboardService_Chart(t *testing.T) {
	ds := fixture(t, fullRecords)
	provider := new(MockDatasetProvider)
	provider.On("Get", mock.Anything, "hr.csv").Return(ds, nil)
	svc := NewDashboardService(provider, charts.NewRenderer(nil), "hr.csv")

	out, err := svc.Chart(context.Background(), attrition.Overtime, charts.SVG)
	require.NoError(t, err)
	assert.Contains(t, string(out), "<svg")
}

func TestDashboardService_Reload(t *testing.T) {
	provider := new(MockDatasetProvider)
	provider.On("Invalidate", "hr.csv").Return().Once()

	NewDashboardService(provider, charts.NewRenderer(nil), "hr.csv").Reload()
	provider.AssertExpectations(t)
}
