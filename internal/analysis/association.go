package analysis

import (
	"hrattrition/domain/attrition"

	"gonum.org/v1/gonum/stat/distuv"
)

// chiSquare tests independence of group membership and departure over the
// 2×k contingency table. Nil when it is undefined: fewer than two groups or
// a constant flag.
func chiSquare(groups []attrition.GroupRate) *attrition.Association {
	if len(groups) < 2 {
		return nil
	}

	total, departed := 0, 0
	for _, g := range groups {
		total += g.Total
		departed += g.Departed
	}
	retained := total - departed
	if departed == 0 || retained == 0 {
		return nil
	}

	n := float64(total)
	chi2 := 0.0
	for _, g := range groups {
		rowTotal := float64(g.Total)
		expDeparted := rowTotal * float64(departed) / n
		expRetained := rowTotal * float64(retained) / n

		d := float64(g.Departed) - expDeparted
		r := float64(g.Total-g.Departed) - expRetained
		chi2 += d*d/expDeparted + r*r/expRetained
	}

	df := len(groups) - 1
	dist := distuv.ChiSquared{K: float64(df)}
	return &attrition.Association{
		ChiSquare:        chi2,
		DegreesOfFreedom: df,
		PValue:           1 - dist.CDF(chi2),
	}
}
