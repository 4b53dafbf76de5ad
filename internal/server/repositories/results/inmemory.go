package results

import (
	"context"
	"sync"

	"github.com/clinivault/screenauth/internal/server/models"
)

// InMemoryRepository keeps results in insertion order; reads return the
// most recent first.
type InMemoryRepository struct {
	mu      sync.RWMutex
	records []*models.ScreeningResult
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{}
}

func (r *InMemoryRepository) Create(ctx context.Context, res *models.ScreeningResult) (*models.ScreeningResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *res
	stored.Recommendations = append([]string(nil), res.Recommendations...)
	r.records = append(r.records, &stored)

	out := stored
	return &out, nil
}

func (r *InMemoryRepository) List(ctx context.Context) ([]*models.ScreeningResult, error) {
	return r.collect(func(*models.ScreeningResult) bool { return true })
}

func (r *InMemoryRepository) ListByCode(ctx context.Context, code string) ([]*models.ScreeningResult, error) {
	return r.collect(func(res *models.ScreeningResult) bool { return res.AccessCode == code })
}

func (r *InMemoryRepository) collect(keep func(*models.ScreeningResult) bool) ([]*models.ScreeningResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*models.ScreeningResult
	for i := len(r.records) - 1; i >= 0; i-- {
		if !keep(r.records[i]) {
			continue
		}
		out := *r.records[i]
		out.Recommendations = append([]string(nil), r.records[i].Recommendations...)
		result = append(result, &out)
	}

	return result, nil
}
