package attrition

// DimensionKey identifies one grouping dimension in URLs and the CLI.
type DimensionKey string

const (
	StockOption    DimensionKey = "stock-option"
	SalaryIncrease DimensionKey = "salary-increase"
	Overtime       DimensionKey = "overtime"
)

// Coercion is how raw cells become group keys.
type Coercion int

const (
	// CoerceFillZeroInt fills missing cells with 0 and truncates to an integer.
	CoerceFillZeroInt Coercion = iota
	// CoerceRoundedInt drops missing cells and rounds half to even.
	CoerceRoundedInt
	// CoerceCategory drops missing cells and groups on the trimmed text.
	CoerceCategory
)

// Numeric reports whether keys are ordered numerically.
func (c Coercion) Numeric() bool {
	return c != CoerceCategory
}

// ChartKind selects the chart drawn for a dimension.
type ChartKind string

const (
	ChartLine ChartKind = "line"
	ChartArea ChartKind = "area"
	ChartBar  ChartKind = "bar"
)

// ChartLabels are the static strings and size of a dimension's chart.
type ChartLabels struct {
	Kind    ChartKind
	Heading string
	Title   string
	XLabel  string
	YLabel  string
	Width   int
	Height  int
}

// Dimension describes one optional analysis.
type Dimension struct {
	Key      DimensionKey
	Column   string
	Coercion Coercion
	Chart    ChartLabels
}

const rateAxisLabel = "퇴직율(%)"

// Dimensions returns the dashboard's analyses in display order.
func Dimensions() []Dimension {
	return []Dimension{
		{
			Key:      StockOption,
			Column:   "스톡옵션정도",
			Coercion: CoerceFillZeroInt,
			Chart: ChartLabels{
				Kind:    ChartLine,
				Heading: "스톡옵션정도별 퇴직율",
				Title:   "스톡옵션정도별 퇴직율 (선 그래프)",
				XLabel:  "스톡옵션정도",
				YLabel:  rateAxisLabel,
				Width:   750,
				Height:  380,
			},
		},
		{
			Key:      SalaryIncrease,
			Column:   "급여증가분백분율",
			Coercion: CoerceRoundedInt,
			Chart: ChartLabels{
				Kind:    ChartArea,
				Heading: "급여인상률별 퇴직율",
				Title:   "급여인상율과 퇴직율 (영역 강조 선 그래프)",
				XLabel:  "급여인상율(%)",
				YLabel:  rateAxisLabel,
				Width:   650,
				Height:  350,
			},
		},
		{
			Key:      Overtime,
			Column:   "야근정도",
			Coercion: CoerceCategory,
			Chart: ChartLabels{
				Kind:    ChartBar,
				Heading: "야근정도별 퇴직율",
				Title:   "야근정도별 퇴직율",
				XLabel:  "야근정도",
				YLabel:  rateAxisLabel,
				Width:   650,
				Height:  350,
			},
		},
	}
}

// LookupDimension finds a dimension by key.
func LookupDimension(key DimensionKey) (Dimension, bool) {
	for _, d := range Dimensions() {
		if d.Key == key {
			return d, true
		}
	}
	return Dimension{}, false
}
