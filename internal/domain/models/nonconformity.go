package models

import "time"

// Causes is the 5M breakdown of a production shortfall.
type Causes struct {
	RawMaterial float64 `gorm:"column:raw_material;not null;default:0" json:"rawMaterial"`
	Absence     float64 `gorm:"column:absence;not null;default:0" json:"absence"`
	YieldLoss   float64 `gorm:"column:yield_loss;not null;default:0" json:"yieldLoss"`
	Maintenance float64 `gorm:"column:maintenance;not null;default:0" json:"maintenance"`
	Quality     float64 `gorm:"column:quality;not null;default:0" json:"quality"`
}

// Total sums the five causes.
func (c Causes) Total() float64 {
	return c.RawMaterial + c.Absence + c.YieldLoss + c.Maintenance + c.Quality
}

// Add returns the field-wise sum of c and o.
func (c Causes) Add(o Causes) Causes {
	return Causes{
		RawMaterial: c.RawMaterial + o.RawMaterial,
		Absence:     c.Absence + o.Absence,
		YieldLoss:   c.YieldLoss + o.YieldLoss,
		Maintenance: c.Maintenance + o.Maintenance,
		Quality:     c.Quality + o.Quality,
	}
}

// NonConformity attributes the shortfall of one planning record to the 5M
// causes. A planning record owns at most one.
type NonConformity struct {
	ID             uint `gorm:"primaryKey" json:"id"`
	PlanningID     uint `gorm:"not null;uniqueIndex" json:"planningId"`
	Causes         `gorm:"embedded"`
	RawMaterialRef *string   `gorm:"size:128" json:"rawMaterialRef"`
	Total          float64   `gorm:"not null;default:0" json:"total"`
	Comment        *string   `gorm:"type:text" json:"comment"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (NonConformity) TableName() string { return "non_conformites" }

// ReconcileAction tells what a reconciliation did to the stored report.
type ReconcileAction string

const (
	ActionCreated ReconcileAction = "created"
	ActionUpdated ReconcileAction = "updated"
	ActionDeleted ReconcileAction = "deleted"
)

// ReconcileResult echoes the figures a reconciliation was validated against.
type ReconcileResult struct {
	Action             ReconcileAction `json:"action"`
	Key                PlanningKey     `json:"key"`
	QuantitySource     int             `json:"quantitySource"`
	DeclaredProduction int             `json:"declaredProduction"`
	Delta              int             `json:"delta"`
	Report             *NonConformity  `json:"report,omitempty"`
}
