package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinivault/screenauth/internal/clock"
	"github.com/clinivault/screenauth/internal/codes"
	"github.com/clinivault/screenauth/internal/common"
	"github.com/clinivault/screenauth/internal/dbx"
	"github.com/clinivault/screenauth/internal/logging"
	"github.com/clinivault/screenauth/internal/server/models"
	"github.com/clinivault/screenauth/internal/server/repositories/repomanager"
)

// GrantService issues access grants and records the screening results that
// consume them.
type GrantService struct {
	manager repomanager.RepositoryManager
	clock   clock.Clock
	codes   codes.Generator
	logger  logging.Logger

	grantTTL time.Duration
}

func NewGrantService(m repomanager.RepositoryManager, clk clock.Clock, gen codes.Generator,
	l logging.Logger, grantTTL time.Duration) *GrantService {
	return &GrantService{
		manager:  m,
		clock:    clk,
		codes:    gen,
		logger:   l.With("module", "grants"),
		grantTTL: grantTTL,
	}
}

// IssueGrant creates an active grant for the given patient, bound to the
// issuing clinician, expiring after the configured TTL.
func (s *GrantService) IssueGrant(ctx context.Context, clinicianID, patientName string) (*models.AccessGrant, error) {
	patientName = strings.TrimSpace(patientName)
	if patientName == "" {
		verrs := common.ValidationErrors{}
		verrs.Add("patient_name", "enter the patient name")
		return nil, verrs
	}

	code, err := s.codes.AccessCode()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", common.ErrorInternal, err)
	}

	now := s.clock.Now()
	g := &models.AccessGrant{
		Code:        code,
		PatientName: patientName,
		ClinicianID: clinicianID,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.grantTTL),
		Active:      true,
	}

	created, err := s.manager.Grants(s.manager.Conn()).Create(ctx, g)
	if err != nil {
		return nil, fmt.Errorf("create grant: %w", err)
	}

	s.logger.Info(ctx, "access grant issued", "code", code, "clinician", clinicianID)
	return created, nil
}

// ListGrants returns the grants a clinician has issued, newest first.
func (s *GrantService) ListGrants(ctx context.Context, clinicianID string) ([]*models.AccessGrant, error) {
	return s.manager.Grants(s.manager.Conn()).ListByClinician(ctx, clinicianID)
}

// FindGrant looks up a single grant by code.
func (s *GrantService) FindGrant(ctx context.Context, code string) (*models.AccessGrant, error) {
	return s.manager.Grants(s.manager.Conn()).FindByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
}

// RecordResult assigns the result its identity and creation date, stores it
// and finalizes consumption of the matching grant, all atomically. After this
// the grant can never again authorize a session.
func (s *GrantService) RecordResult(ctx context.Context, r *models.ScreeningResult) (*models.ScreeningResult, error) {
	if strings.TrimSpace(r.AccessCode) == "" {
		verrs := common.ValidationErrors{}
		verrs.Add("access_code", "result must reference an access code")
		return nil, verrs
	}

	r.ID = uuid.NewString()
	r.CreatedAt = s.clock.Now()
	r.AccessCode = strings.ToUpper(strings.TrimSpace(r.AccessCode))

	var created *models.ScreeningResult
	err := s.manager.WithinTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		created, err = s.manager.Results(tx).Create(ctx, r)
		if err != nil {
			return fmt.Errorf("store result: %w", err)
		}
		if err := s.manager.Grants(tx).ConsumeForResult(ctx, r.AccessCode, r.CreatedAt); err != nil {
			return fmt.Errorf("consume grant: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "screening result recorded", "code", r.AccessCode, "test", r.TestType)
	return created, nil
}

// ListResults returns every recorded result, most recent first.
func (s *GrantService) ListResults(ctx context.Context) ([]*models.ScreeningResult, error) {
	return s.manager.Results(s.manager.Conn()).List(ctx)
}

// ListResultsByCode returns the results recorded against one access code,
// most recent first.
func (s *GrantService) ListResultsByCode(ctx context.Context, code string) ([]*models.ScreeningResult, error) {
	return s.manager.Results(s.manager.Conn()).ListByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
}

// ListClinicians exposes the committed clinician directory.
func (s *GrantService) ListClinicians(ctx context.Context) ([]*models.Clinician, error) {
	return s.manager.Clinicians(s.manager.Conn()).List(ctx)
}
