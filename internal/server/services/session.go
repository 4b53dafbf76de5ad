package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/clinivault/screenauth/internal/clock"
	"github.com/clinivault/screenauth/internal/common"
	"github.com/clinivault/screenauth/internal/cryptox"
	"github.com/clinivault/screenauth/internal/logging"
	"github.com/clinivault/screenauth/internal/server/auth"
	"github.com/clinivault/screenauth/internal/server/mailer"
	"github.com/clinivault/screenauth/internal/server/models"
	"github.com/clinivault/screenauth/internal/server/repositories/clinicians"
	"github.com/clinivault/screenauth/internal/server/repositories/repomanager"
)

// SessionService authenticates clinicians and patients against the
// credential store and the grant registry, producing token-backed identities.
type SessionService struct {
	manager repomanager.RepositoryManager
	clock   clock.Clock
	mailer  mailer.Mailer
	logger  logging.Logger

	secretKey     []byte
	tokenValidity time.Duration
}

func NewSessionService(m repomanager.RepositoryManager, clk clock.Clock, ml mailer.Mailer,
	l logging.Logger, secretKey []byte, tokenValidity time.Duration) *SessionService {
	return &SessionService{
		manager:       m,
		clock:         clk,
		mailer:        ml,
		logger:        l.With("module", "session"),
		secretKey:     secretKey,
		tokenValidity: tokenValidity,
	}
}

// Session is an authenticated identity plus its bearer token.
type Session struct {
	Identity *models.Identity
	Token    string
}

// Login validates clinician credentials. Email matching is case-insensitive.
// Fails with common.ErrorNotFound for an unknown email, common.ErrorUnverified
// for an account that never completed verification and
// common.ErrorInvalidCredential for a wrong secret.
func (s *SessionService) Login(ctx context.Context, email, secret string) (*Session, error) {
	email = clinicians.NormalizeEmail(email)

	c, err := s.manager.Clinicians(s.manager.Conn()).FindByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("login lookup: %w", err)
	}

	if !c.Verified {
		return nil, common.ErrorUnverified
	}
	if !cryptox.CheckPassword([]byte(secret), c.PasswordHash) {
		return nil, common.ErrorInvalidCredential
	}

	id := &models.Identity{Role: models.RoleClinician, Name: c.Name, Ref: c.ID}
	token, err := auth.GenerateToken(id, s.secretKey, s.tokenValidity)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", common.ErrorInternal, err)
	}

	s.logger.Info(ctx, "clinician login", "email", email)
	return &Session{Identity: id, Token: token}, nil
}

// RedeemAccessCode turns a valid access code into a patient session and marks
// the grant redeemed. Missing, inactive and expired codes all collapse to
// common.ErrorInvalidOrExpiredCode so the caller cannot tell which. The grant
// is only finally consumed when a result is recorded against it.
func (s *SessionService) RedeemAccessCode(ctx context.Context, displayName, code string) (*Session, error) {
	displayName = strings.TrimSpace(displayName)
	code = strings.ToUpper(strings.TrimSpace(code))

	verrs := common.ValidationErrors{}
	if displayName == "" {
		verrs.Add("name", "enter your name")
	}
	if code == "" {
		verrs.Add("code", "enter your access code")
	}
	if verrs.Any() {
		return nil, verrs
	}

	now := s.clock.Now()

	g, err := s.manager.Grants(s.manager.Conn()).FindByCode(ctx, code)
	if err != nil {
		if isNotFound(err) {
			return nil, common.ErrorInvalidOrExpiredCode
		}
		return nil, fmt.Errorf("grant lookup: %w", err)
	}
	if !g.Redeemable(now) {
		return nil, common.ErrorInvalidOrExpiredCode
	}

	if err := s.manager.Grants(s.manager.Conn()).MarkRedeemed(ctx, code, now); err != nil {
		return nil, fmt.Errorf("mark redeemed: %w", err)
	}

	id := &models.Identity{Role: models.RolePatient, Name: displayName, Ref: code}
	token, err := auth.GenerateToken(id, s.secretKey, s.tokenValidity)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", common.ErrorInternal, err)
	}

	s.logger.Info(ctx, "access code redeemed", "code", code)
	return &Session{Identity: id, Token: token}, nil
}

// ForgotPassword dispatches a recovery notice for a known account. It is a
// stub: no reset capability exists and the secret is never revealed. Fails
// with common.ErrorNotFound for an unknown email.
func (s *SessionService) ForgotPassword(ctx context.Context, email string) error {
	email = clinicians.NormalizeEmail(email)

	c, err := s.manager.Clinicians(s.manager.Conn()).FindByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("recovery lookup: %w", err)
	}

	if err := s.mailer.Send(ctx, mailer.RecoveryMessage(c.Email, c.Name)); err != nil {
		s.logger.Warn(ctx, "recovery notice dispatch failed", "email", email, "error", err)
	}
	return nil
}
