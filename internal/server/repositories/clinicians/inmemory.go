package clinicians

import (
	"context"
	"sort"
	"sync"

	"github.com/clinivault/screenauth/internal/common"
	"github.com/clinivault/screenauth/internal/server/models"
)

// InMemoryRepository keeps clinician records in a map keyed by normalized
// email. Used in tests and for running the server without a database.
type InMemoryRepository struct {
	mu      sync.RWMutex
	byEmail map[string]*models.Clinician
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{byEmail: make(map[string]*models.Clinician)}
}

func (r *InMemoryRepository) Create(ctx context.Context, c *models.Clinician) (*models.Clinician, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := NormalizeEmail(c.Email)
	if _, ok := r.byEmail[email]; ok {
		return nil, common.ErrorDuplicateEmail
	}

	stored := *c
	stored.Email = email
	r.byEmail[email] = &stored

	out := stored
	return &out, nil
}

func (r *InMemoryRepository) FindByEmail(ctx context.Context, email string) (*models.Clinician, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.byEmail[NormalizeEmail(email)]
	if !ok {
		return nil, common.ErrorNotFound
	}

	out := *c
	return &out, nil
}

func (r *InMemoryRepository) List(ctx context.Context) ([]*models.Clinician, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*models.Clinician, 0, len(r.byEmail))
	for _, c := range r.byEmail {
		out := *c
		result = append(result, &out)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })

	return result, nil
}
