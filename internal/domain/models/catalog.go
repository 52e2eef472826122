package models

// CatalogReference is a product reference manufactured on a line, with the
// time it takes to produce one unit.
type CatalogReference struct {
	ID               uint    `gorm:"primaryKey" json:"id"`
	Line             string  `gorm:"size:64;not null;uniqueIndex:idx_catalog_reference,priority:1" json:"line"`
	Reference        string  `gorm:"size:64;not null;uniqueIndex:idx_catalog_reference,priority:2" json:"reference"`
	CycleTimeSeconds float64 `gorm:"not null;default:0" json:"cycleTimeSeconds"`
}

func (CatalogReference) TableName() string { return "catalog_references" }

// CatalogPhase is a work phase available on a line.
type CatalogPhase struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Line  string `gorm:"size:64;not null;uniqueIndex:idx_catalog_phase,priority:1" json:"line"`
	Phase string `gorm:"size:64;not null;uniqueIndex:idx_catalog_phase,priority:2" json:"phase"`
}

func (CatalogPhase) TableName() string { return "catalog_phases" }

// CatalogPair identifies a reference on a line.
type CatalogPair struct {
	Line      string `json:"line" validate:"required,max=64"`
	Reference string `json:"reference" validate:"required,max=64"`
}
