package models

import "time"

// LineSummary condenses one line of a weekly report.
type LineSummary struct {
	Line               string  `bson:"line" json:"line"`
	QuantitySource     int     `bson:"quantity_source" json:"quantitySource"`
	DeclaredProduction int     `bson:"declared_production" json:"declaredProduction"`
	ProductionPercent  float64 `bson:"production_percent" json:"productionPercent"`
	NonConformityTotal float64 `bson:"non_conformity_total" json:"nonConformityTotal"`
	LossPercent        float64 `bson:"loss_percent" json:"lossPercent"`
	DominantCause      string  `bson:"dominant_cause" json:"dominantCause"`
}

// WeeklyReport is the archived snapshot of a week's production statistics.
type WeeklyReport struct {
	ID                 string        `bson:"_id" json:"id"`
	Week               string        `bson:"week" json:"week"`
	QuantitySource     int           `bson:"quantity_source" json:"quantitySource"`
	DeclaredProduction int           `bson:"declared_production" json:"declaredProduction"`
	ProductionPercent  float64       `bson:"production_percent" json:"productionPercent"`
	LossPercent        float64       `bson:"loss_percent" json:"lossPercent"`
	Lines              []LineSummary `bson:"lines" json:"lines"`
	Text               string        `bson:"text" json:"text"`
	CreatedAt          time.Time     `bson:"created_at" json:"createdAt"`
}
