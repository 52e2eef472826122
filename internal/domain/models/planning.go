package models

import (
	"regexp"
	"time"
)

// Day is a working day of the planning week. Sunday is never planned.
type Day string

const (
	Monday    Day = "lundi"
	Tuesday   Day = "mardi"
	Wednesday Day = "mercredi"
	Thursday  Day = "jeudi"
	Friday    Day = "vendredi"
	Saturday  Day = "samedi"
)

// WorkingDays lists the planned days in week order.
var WorkingDays = []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

// Valid reports whether d is one of WorkingDays.
func (d Day) Valid() bool {
	for _, wd := range WorkingDays {
		if d == wd {
			return true
		}
	}
	return false
}

// Week numbers are ISO weeks, always two digits.
var weekNamePattern = regexp.MustCompile(`^semaine(0[1-9]|[1-4]\d|5[0-3])$`)

// ValidWeekName reports whether name follows the semaineNN convention.
func ValidWeekName(name string) bool {
	return weekNamePattern.MatchString(name)
}

// Week is a named planning cycle owning every planning record of its span.
type Week struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:32;not null;uniqueIndex" json:"name"`
	StartDate time.Time `gorm:"type:date;not null" json:"startDate"`
	EndDate   time.Time `gorm:"type:date;not null" json:"endDate"`
	CreatedBy string    `gorm:"size:64" json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Records []PlanningRecord `gorm:"foreignKey:WeekID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Week) TableName() string { return "semaines" }

// PlanningKey is the natural identity of a planning record.
type PlanningKey struct {
	Week      string `json:"week" validate:"required,weekname"`
	Day       Day    `json:"day" validate:"required,day"`
	Line      string `json:"line" validate:"required,max=64"`
	Reference string `json:"reference" validate:"required,max=64"`
}

// PlanningRecord holds the planned, modified and declared quantities of one
// reference on one line for one day, with the fields derived from them.
type PlanningRecord struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	WeekID             uint      `gorm:"not null;index" json:"-"`
	WeekName           string    `gorm:"size:32;not null;uniqueIndex:idx_planification_key,priority:1" json:"week"`
	Day                Day       `gorm:"size:16;not null;uniqueIndex:idx_planification_key,priority:2" json:"day"`
	Line               string    `gorm:"size:64;not null;uniqueIndex:idx_planification_key,priority:3" json:"line"`
	Reference          string    `gorm:"size:64;not null;uniqueIndex:idx_planification_key,priority:4" json:"reference"`
	OrderRef           string    `gorm:"size:128" json:"orderRef"`
	PlannedQty         int       `gorm:"not null;default:0" json:"plannedQty"`
	ModifiedQty        int       `gorm:"not null;default:0" json:"modifiedQty"`
	Packaging          string    `gorm:"size:64" json:"packaging"`
	OperatorCount      float64   `gorm:"not null;default:0" json:"operatorCount"`
	PlannedHours       float64   `gorm:"not null;default:0" json:"plannedHours"`
	DeclaredProduction int       `gorm:"not null;default:0" json:"declaredProduction"`
	DeclaredWarehouse  int       `gorm:"not null;default:0" json:"declaredWarehouse"`
	Delta              int       `gorm:"not null;default:0" json:"delta"`
	ProductionPercent  float64   `gorm:"not null;default:0" json:"productionPercent"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`

	NonConformity *NonConformity `gorm:"foreignKey:PlanningID;constraint:OnDelete:CASCADE" json:"-"`
}

func (PlanningRecord) TableName() string { return "planifications" }

// Key returns the natural identity of the record.
func (p PlanningRecord) Key() PlanningKey {
	return PlanningKey{Week: p.WeekName, Day: p.Day, Line: p.Line, Reference: p.Reference}
}

// QuantitySource is the effective demand: the modified quantity when it is
// positive, the planned quantity otherwise.
func (p PlanningRecord) QuantitySource() int {
	if p.ModifiedQty > 0 {
		return p.ModifiedQty
	}
	return p.PlannedQty
}

// PlanningState is inferred from the quantities, the sign of the delta and the
// presence of a non-conformity report. It is never stored.
type PlanningState string

const (
	StateUninitialized PlanningState = "uninitialized"
	StatePlanned       PlanningState = "planned"
	StateDeclared      PlanningState = "declared"
	StateReconciled    PlanningState = "reconciled"
	StateOverTarget    PlanningState = "over_target"
)

// State infers the lifecycle position of p. hasReport tells whether a
// non-conformity report exists for it.
func (p PlanningRecord) State(hasReport bool) PlanningState {
	source := p.QuantitySource()
	switch {
	case source == 0 && p.DeclaredProduction == 0:
		return StateUninitialized
	case p.DeclaredProduction == 0:
		return StatePlanned
	case p.Delta >= 0:
		return StateOverTarget
	case hasReport:
		return StateReconciled
	default:
		return StateDeclared
	}
}

// PlanningFilter narrows planning listings. Empty fields match everything.
type PlanningFilter struct {
	Week      string
	Day       Day
	Line      string
	Reference string
}
