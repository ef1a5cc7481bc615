package testkit

import (
	"fmt"
	"math/rand"
	"strconv"
)

// HRGeneratorConfig configures the synthetic attrition export
type HRGeneratorConfig struct {
	EmployeeCount int     `json:"employee_count"`
	BaseAttrition float64 `json:"base_attrition"` // departure probability before adjustments
	OvertimeLift  float64 `json:"overtime_lift"`  // added for employees working overtime
	StockDiscount float64 `json:"stock_discount"` // subtracted per stock-option level
	MissingRate   float64 `json:"missing_rate"`   // share of blank stock/salary cells
	Seed          int64   `json:"seed"`
}

// DefaultHRConfig mirrors the proportions of the usual HR attrition sample
func DefaultHRConfig() HRGeneratorConfig {
	return HRGeneratorConfig{
		EmployeeCount: 1470,
		BaseAttrition: 0.12,
		OvertimeLift:  0.18,
		StockDiscount: 0.03,
		MissingRate:   0.02,
		Seed:          42,
	}
}

// HRHeader is the column layout of generated files
var HRHeader = []string{"직원ID", "나이", "퇴직여부", "부서", "직원수", "18세이상", "스톡옵션정도", "급여증가분백분율", "야근정도"}

var departments = []string{"영업", "연구개발", "인사"}

// HRDataGenerator produces deterministic employee rows for a seed
type HRDataGenerator struct {
	config HRGeneratorConfig
	rng    *rand.Rand
}

// NewHRDataGenerator creates a new generator
func NewHRDataGenerator(config HRGeneratorConfig) *HRDataGenerator {
	return &HRDataGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Records returns the header followed by one row per employee
func (g *HRDataGenerator) Records() [][]string {
	records := make([][]string, 0, g.config.EmployeeCount+1)
	records = append(records, append([]string(nil), HRHeader...))
	for i := 0; i < g.config.EmployeeCount; i++ {
		records = append(records, g.employee(i+1))
	}
	return records
}

func (g *HRDataGenerator) employee(id int) []string {
	stock := g.rng.Intn(4)
	overtime := g.rng.Float64() < 0.28
	salary := 11 + g.rng.Float64()*14

	p := g.config.BaseAttrition - float64(stock)*g.config.StockDiscount
	if overtime {
		p += g.config.OvertimeLift
	}
	label := "No"
	if g.rng.Float64() < p {
		label = "Yes"
	}

	overtimeLabel := "No"
	if overtime {
		overtimeLabel = "Yes"
	}

	stockCell := strconv.Itoa(stock)
	if g.rng.Float64() < g.config.MissingRate {
		stockCell = ""
	}
	salaryCell := fmt.Sprintf("%.1f", salary)
	if g.rng.Float64() < g.config.MissingRate {
		salaryCell = ""
	}

	return []string{
		strconv.Itoa(id),
		strconv.Itoa(18 + g.rng.Intn(43)),
		label,
		departments[g.rng.Intn(len(departments))],
		"1",
		"Y",
		stockCell,
		salaryCell,
		overtimeLabel,
	}
}
