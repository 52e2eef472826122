package models

// CauseShares is the share, in percent, of each cause within a loss total.
type CauseShares struct {
	RawMaterial float64 `json:"rawMaterial"`
	Absence     float64 `json:"absence"`
	YieldLoss   float64 `json:"yieldLoss"`
	Maintenance float64 `json:"maintenance"`
	Quality     float64 `json:"quality"`
}

// StatsGroup aggregates planning records sharing a grouping key.
type StatsGroup struct {
	Key                string      `json:"key"`
	Records            int         `json:"records"`
	QuantitySource     int         `json:"quantitySource"`
	DeclaredProduction int         `json:"declaredProduction"`
	ProductionPercent  float64     `json:"productionPercent"`
	PlannedHours       float64     `json:"plannedHours"`
	OperatorCount      float64     `json:"operatorCount"`
	Causes             Causes      `json:"causes"`
	NonConformityTotal float64     `json:"nonConformityTotal"`
	LossPercent        float64     `json:"lossPercent"`
	CauseShares        CauseShares `json:"causeShares"`
}

// LineWeekStats is the line total of a week with its per-reference breakdown.
type LineWeekStats struct {
	Week       string       `json:"week"`
	Line       string       `json:"line"`
	Total      StatsGroup   `json:"total"`
	References []StatsGroup `json:"references"`
}

// WeekCausesStats is the week total with its per-line breakdown.
type WeekCausesStats struct {
	Week  string       `json:"week"`
	Total StatsGroup   `json:"total"`
	Lines []StatsGroup `json:"lines"`
}

// LineCausesStats is the line total over one week, or over every week when
// Week is empty, with its per-week breakdown.
type LineCausesStats struct {
	Line  string       `json:"line"`
	Week  string       `json:"week,omitempty"`
	Total StatsGroup   `json:"total"`
	Weeks []StatsGroup `json:"weeks"`
}

// AverageLoss is the unweighted mean of per-reference loss percentages.
type AverageLoss struct {
	Week           string             `json:"week"`
	Line           string             `json:"line"`
	AveragePercent float64            `json:"averagePercent"`
	PerReference   map[string]float64 `json:"perReference"`
}
