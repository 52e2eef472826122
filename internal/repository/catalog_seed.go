package repository

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mamadbah2/prodtrack/internal/domain/models"
)

// CatalogSeed is the on-disk shape of a catalog snapshot.
type CatalogSeed struct {
	References []models.CatalogReference `json:"references"`
	Phases     []models.CatalogPhase     `json:"phases"`
}

// LoadCatalogSeed reads and checks a catalog snapshot file.
func LoadCatalogSeed(path string) (*CatalogSeed, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog seed %s: %w", path, err)
	}

	var seed CatalogSeed
	if err := json.Unmarshal(raw, &seed); err != nil {
		return nil, fmt.Errorf("decode catalog seed %s: %w", path, err)
	}

	seen := make(map[models.CatalogPair]struct{}, len(seed.References))
	for i, ref := range seed.References {
		pair := models.CatalogPair{Line: strings.TrimSpace(ref.Line), Reference: strings.TrimSpace(ref.Reference)}
		if pair.Line == "" || pair.Reference == "" {
			return nil, fmt.Errorf("catalog seed reference %d: line and reference are required", i)
		}
		if ref.CycleTimeSeconds < 0 {
			return nil, fmt.Errorf("catalog seed reference %s/%s: negative cycle time", pair.Line, pair.Reference)
		}
		if _, dup := seen[pair]; dup {
			return nil, fmt.Errorf("catalog seed reference %s/%s: duplicate", pair.Line, pair.Reference)
		}
		seen[pair] = struct{}{}
		seed.References[i].Line, seed.References[i].Reference = pair.Line, pair.Reference
	}
	for i, ph := range seed.Phases {
		if strings.TrimSpace(ph.Line) == "" || strings.TrimSpace(ph.Phase) == "" {
			return nil, fmt.Errorf("catalog seed phase %d: line and phase are required", i)
		}
	}

	return &seed, nil
}
