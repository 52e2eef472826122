package memory

import (
	"context"
	"sort"

	"github.com/mamadbah2/prodtrack/internal/domain/apperror"
	"github.com/mamadbah2/prodtrack/internal/domain/models"
	"github.com/mamadbah2/prodtrack/internal/repository"
)

// Catalog is a fixed catalog snapshot.
type Catalog struct {
	cycleTimes map[models.CatalogPair]float64
	phases     map[[2]string]struct{}
}

var _ repository.CatalogLookup = (*Catalog)(nil)

// NewCatalog indexes the given references and phases.
func NewCatalog(refs []models.CatalogReference, phases []models.CatalogPhase) *Catalog {
	c := &Catalog{
		cycleTimes: make(map[models.CatalogPair]float64, len(refs)),
		phases:     make(map[[2]string]struct{}, len(phases)),
	}
	for _, r := range refs {
		c.cycleTimes[models.CatalogPair{Line: r.Line, Reference: r.Reference}] = r.CycleTimeSeconds
	}
	for _, p := range phases {
		c.phases[[2]string{p.Line, p.Phase}] = struct{}{}
	}
	return c
}

func (c *Catalog) CycleTime(_ context.Context, line, reference string) (float64, error) {
	ct, ok := c.cycleTimes[models.CatalogPair{Line: line, Reference: reference}]
	if !ok {
		return 0, apperror.NotFound("no cycle time for reference %s on line %s", reference, line)
	}
	return ct, nil
}

func (c *Catalog) PhaseExists(_ context.Context, line, phase string) (bool, error) {
	_, ok := c.phases[[2]string{line, phase}]
	return ok, nil
}

func (c *Catalog) Pairs(_ context.Context) ([]models.CatalogPair, error) {
	pairs := make([]models.CatalogPair, 0, len(c.cycleTimes))
	for p := range c.cycleTimes {
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Line != pairs[j].Line {
			return pairs[i].Line < pairs[j].Line
		}
		return pairs[i].Reference < pairs[j].Reference
	})
	return pairs, nil
}
