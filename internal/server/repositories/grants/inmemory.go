package grants

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/clinivault/screenauth/internal/common"
	"github.com/clinivault/screenauth/internal/server/models"
)

// InMemoryRepository keeps grants in a map keyed by code.
type InMemoryRepository struct {
	mu     sync.RWMutex
	byCode map[string]*models.AccessGrant
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{byCode: make(map[string]*models.AccessGrant)}
}

func (r *InMemoryRepository) Create(ctx context.Context, g *models.AccessGrant) (*models.AccessGrant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *g
	r.byCode[g.Code] = &stored

	out := stored
	return &out, nil
}

func (r *InMemoryRepository) FindByCode(ctx context.Context, code string) (*models.AccessGrant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.byCode[code]
	if !ok {
		return nil, common.ErrorNotFound
	}

	out := *g
	return &out, nil
}

func (r *InMemoryRepository) ListByClinician(ctx context.Context, clinicianID string) ([]*models.AccessGrant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*models.AccessGrant
	for _, g := range r.byCode {
		if g.ClinicianID != clinicianID {
			continue
		}
		out := *g
		result = append(result, &out)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })

	return result, nil
}

func (r *InMemoryRepository) MarkRedeemed(ctx context.Context, code string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.byCode[code]
	if !ok {
		return common.ErrorNotFound
	}

	g.Active = false
	if g.RedeemedAt == nil {
		stamp := at
		g.RedeemedAt = &stamp
	}

	return nil
}

func (r *InMemoryRepository) ConsumeForResult(ctx context.Context, code string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.byCode[code]
	if !ok {
		return common.ErrorNotFound
	}

	g.Active = false
	if g.RedeemedAt == nil {
		stamp := at
		g.RedeemedAt = &stamp
	}
	g.ResultCount++

	return nil
}
