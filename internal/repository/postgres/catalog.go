package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mamadbah2/prodtrack/internal/domain/apperror"
	"github.com/mamadbah2/prodtrack/internal/domain/models"
	"github.com/mamadbah2/prodtrack/internal/repository"
)

// Catalog reads the catalog tables maintained by the catalog service.
type Catalog struct {
	db *gorm.DB
}

var _ repository.CatalogLookup = (*Catalog)(nil)

func NewCatalog(db *gorm.DB) *Catalog {
	return &Catalog{db: db}
}

func (c *Catalog) CycleTime(ctx context.Context, line, reference string) (float64, error) {
	var ref models.CatalogReference
	err := c.db.WithContext(ctx).
		Where("line = ? AND reference = ?", line, reference).
		First(&ref).Error
	if err != nil {
		return 0, translate(err, apperror.NotFound("no cycle time for reference %s on line %s", reference, line), "find cycle time")
	}
	return ref.CycleTimeSeconds, nil
}

func (c *Catalog) PhaseExists(ctx context.Context, line, phase string) (bool, error) {
	var count int64
	err := c.db.WithContext(ctx).
		Model(&models.CatalogPhase{}).
		Where("line = ? AND phase = ?", line, phase).
		Count(&count).Error
	if err != nil {
		return false, apperror.Internal(err, "count catalog phases")
	}
	return count > 0, nil
}

func (c *Catalog) Pairs(ctx context.Context) ([]models.CatalogPair, error) {
	var pairs []models.CatalogPair
	err := c.db.WithContext(ctx).
		Model(&models.CatalogReference{}).
		Select("line", "reference").
		Order("line ASC, reference ASC").
		Scan(&pairs).Error
	if err != nil {
		return nil, apperror.Internal(err, "list catalog pairs")
	}
	return pairs, nil
}

// SeedCatalog upserts a catalog snapshot, updating cycle times of known references.
func SeedCatalog(ctx context.Context, db *gorm.DB, seed *repository.CatalogSeed) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(seed.References) > 0 {
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "line"}, {Name: "reference"}},
				DoUpdates: clause.AssignmentColumns([]string{"cycle_time_seconds"}),
			}).Create(&seed.References).Error
			if err != nil {
				return fmt.Errorf("seed catalog references: %w", err)
			}
		}
		if len(seed.Phases) > 0 {
			err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed.Phases).Error
			if err != nil {
				return fmt.Errorf("seed catalog phases: %w", err)
			}
		}
		return nil
	})
}
