// Package attrition holds the value types shared by the loader, the
// aggregator and the presentation layers.
package attrition

import "math"

// Schema names the columns the pipeline depends on.
type Schema struct {
	IDColumn    string
	LabelColumn string
	FlagColumn  string
	DropColumns []string
}

// DefaultSchema matches the column names of the HR attrition export.
func DefaultSchema() Schema {
	return Schema{
		IDColumn:    "직원ID",
		LabelColumn: "퇴직여부",
		FlagColumn:  "퇴직",
		DropColumns: []string{"직원수", "18세이상"},
	}
}

// LabelFlags is the only accepted label vocabulary.
var LabelFlags = map[string]int{
	"Yes": 1,
	"No":  0,
}

// KPISet is computed once per dataset.
type KPISet struct {
	Count            int     `json:"count"`
	Departed         int     `json:"departed_count"`
	AttritionRatePct float64 `json:"attrition_rate_pct"`
	RetentionRatePct float64 `json:"retention_rate_pct"`
}

// GroupRate is the attrition rate of one observed dimension value.
type GroupRate struct {
	Key      string  `json:"key"`
	Position float64 `json:"position"`
	Total    int     `json:"total"`
	Departed int     `json:"departed"`
	RatePct  float64 `json:"rate_pct"`
}

// GroupedRate maps every observed value of a dimension to its attrition rate.
// Groups are sorted ascending by key.
type GroupedRate struct {
	Dimension   DimensionKey `json:"dimension"`
	Column      string       `json:"column"`
	Groups      []GroupRate  `json:"groups"`
	Dropped     int          `json:"dropped_rows"`
	Association *Association `json:"association,omitempty"`
}

// Keys returns the group keys in order.
func (g *GroupedRate) Keys() []string {
	keys := make([]string, len(g.Groups))
	for i, grp := range g.Groups {
		keys[i] = grp.Key
	}
	return keys
}

// Rate returns the rate for key and whether the group exists.
func (g *GroupedRate) Rate(key string) (float64, bool) {
	for _, grp := range g.Groups {
		if grp.Key == key {
			return grp.RatePct, true
		}
	}
	return math.NaN(), false
}

// Peak returns the group with the highest rate; ties keep the first key.
func (g *GroupedRate) Peak() (GroupRate, bool) {
	if len(g.Groups) == 0 {
		return GroupRate{}, false
	}
	best := g.Groups[0]
	for _, grp := range g.Groups[1:] {
		if grp.RatePct > best.RatePct {
			best = grp
		}
	}
	return best, true
}

// Association is a chi-square test of independence between a dimension and
// the attrition flag.
type Association struct {
	ChiSquare        float64 `json:"chi_square"`
	DegreesOfFreedom int     `json:"degrees_of_freedom"`
	PValue           float64 `json:"p_value"`
}

// Significant reports p < alpha.
func (a *Association) Significant(alpha float64) bool {
	return a != nil && a.PValue < alpha
}
