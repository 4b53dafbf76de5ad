// Package services implements the business logic of screenauth: the
// registration verification flow, session authentication, access-grant
// issuance and screening-result linkage. Services own no storage; they work
// through the repository manager and stay agnostic of the transport in front
// of them.
package services

import (
	"context"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clinivault/screenauth/internal/clock"
	"github.com/clinivault/screenauth/internal/codes"
	"github.com/clinivault/screenauth/internal/common"
	"github.com/clinivault/screenauth/internal/cryptox"
	"github.com/clinivault/screenauth/internal/logging"
	"github.com/clinivault/screenauth/internal/server/mailer"
	"github.com/clinivault/screenauth/internal/server/models"
	"github.com/clinivault/screenauth/internal/server/repositories/clinicians"
	"github.com/clinivault/screenauth/internal/server/repositories/repomanager"
)

// emailPattern is deliberately loose: one @, something on each side, a dot in
// the domain. Real deliverability is the transport's problem.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// FlowState is the position of a registration flow in its lifecycle.
type FlowState int

const (
	// StateForm accepts registration input. Also the state a flow returns
	// to on abandonment.
	StateForm FlowState = iota
	// StateAwaitingCode means a pending verification exists and the flow
	// accepts code submissions and resend requests.
	StateAwaitingCode
	// StateVerified is terminal: the clinician record is committed.
	StateVerified
)

func (s FlowState) String() string {
	switch s {
	case StateForm:
		return "form"
	case StateAwaitingCode:
		return "awaiting_code"
	case StateVerified:
		return "verified"
	default:
		return "unknown"
	}
}

// RegistrationInput is the raw form submission starting a registration.
type RegistrationInput struct {
	Name      string
	Email     string
	Specialty string
	Secret    string
}

// RegistrationService creates and tracks registration flows. Each flow is an
// independent state machine; the service supplies the shared collaborators
// and the expiry policy.
type RegistrationService struct {
	manager repomanager.RepositoryManager
	clock   clock.Clock
	codes   codes.Generator
	mailer  mailer.Mailer
	logger  logging.Logger

	codeTTL        time.Duration
	resendCooldown time.Duration

	// syncDispatch makes email dispatch run inline instead of in a
	// goroutine. Tests flip this to observe dispatch outcomes
	// deterministically.
	syncDispatch bool

	mu    sync.Mutex
	flows map[string]*RegistrationFlow
}

func NewRegistrationService(m repomanager.RepositoryManager, clk clock.Clock, gen codes.Generator,
	ml mailer.Mailer, l logging.Logger, codeTTL, resendCooldown time.Duration) *RegistrationService {
	return &RegistrationService{
		manager:        m,
		clock:          clk,
		codes:          gen,
		mailer:         ml,
		logger:         l.With("module", "registration"),
		codeTTL:        codeTTL,
		resendCooldown: resendCooldown,
		flows:          make(map[string]*RegistrationFlow),
	}
}

// staleFlowAfter is how long an untouched flow survives before eviction.
// Generous compared to the code TTL: an evicted flow loses nothing that a
// fresh registration cannot redo.
const staleFlowAfter = time.Hour

// NewFlow creates a registration flow in the Form state and registers it
// under a fresh ID. The ID doubles as the caller's handle for submitting
// codes, so it is an unguessable 128-bit hex token rather than a sequence
// number. Flows untouched for longer than staleFlowAfter are evicted on the
// way, so abandoned registrations do not accumulate.
func (s *RegistrationService) NewFlow() *RegistrationFlow {
	s.purgeStale()

	f := &RegistrationFlow{
		id:      hex.EncodeToString(common.GenerateRandByteArray(16)),
		svc:     s,
		state:   StateForm,
		touched: s.clock.Now(),
	}
	s.mu.Lock()
	s.flows[f.id] = f
	s.mu.Unlock()
	return f
}

// AbandonFlow discards a flow entirely: pending state is wiped and the flow
// is forgotten, so its ID stops resolving. Fails with common.ErrorNotFound
// for an unknown ID.
func (s *RegistrationService) AbandonFlow(id string) error {
	f, err := s.Flow(id)
	if err != nil {
		return err
	}
	f.Abandon()
	s.drop(id)
	return nil
}

// purgeStale abandons and forgets flows that have not been touched for
// staleFlowAfter. Flow locks are only taken after the service lock is
// released.
func (s *RegistrationService) purgeStale() {
	now := s.clock.Now()

	s.mu.Lock()
	candidates := make([]*RegistrationFlow, 0, len(s.flows))
	for _, f := range s.flows {
		candidates = append(candidates, f)
	}
	s.mu.Unlock()

	for _, f := range candidates {
		if now.Sub(f.lastTouched()) > staleFlowAfter {
			f.Abandon()
			s.drop(f.id)
		}
	}
}

// Flow returns a live flow by ID, or common.ErrorNotFound.
func (s *RegistrationService) Flow(id string) (*RegistrationFlow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.flows[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return f, nil
}

func (s *RegistrationService) drop(id string) {
	s.mu.Lock()
	delete(s.flows, id)
	s.mu.Unlock()
}

// RegistrationFlow walks one registration through Form, AwaitingCode and
// Verified. At most one pending verification is live at a time; a resend
// replaces its code and expiry atomically. All methods are safe for
// concurrent use.
type RegistrationFlow struct {
	id  string
	svc *RegistrationService

	mu      sync.Mutex
	state   FlowState
	pending *models.PendingVerification
	touched time.Time

	// generation increments on every reset. Dispatch outcomes arriving
	// from a goroutine compare their captured generation against the
	// current one and discard themselves when stale.
	generation uint64

	dispatchFailed bool
	preview        string
}

func (f *RegistrationFlow) ID() string { return f.id }

func (f *RegistrationFlow) lastTouched() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.touched
}

func (f *RegistrationFlow) State() FlowState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// DispatchFallback reports whether the last email dispatch failed, and if so
// the composed message body so the caller can surface the code anyway.
func (f *RegistrationFlow) DispatchFallback() (bool, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dispatchFailed, f.preview
}

// CooldownRemaining reports how long until a resend is accepted again. Zero
// means a resend would be honored now.
func (f *RegistrationFlow) CooldownRemaining() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pending == nil {
		return 0
	}
	rem := f.svc.resendCooldown - f.svc.clock.Now().Sub(f.pending.LastSentAt)
	if rem < 0 {
		return 0
	}
	return rem
}

// Begin validates the registration input and, on success, generates a
// verification code, dispatches it and moves to AwaitingCode. Validation
// failures for every field are collected and returned together. A duplicate
// email is reported as common.ErrorDuplicateEmail and the flow stays in Form.
//
// The flow enters AwaitingCode regardless of the dispatch outcome: a failed
// delivery is degraded to the preview fallback, never a flow failure.
func (f *RegistrationFlow) Begin(ctx context.Context, input RegistrationInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != StateForm {
		return fmt.Errorf("%w: registration already in progress", common.ErrorInternal)
	}

	name := strings.TrimSpace(input.Name)
	email := clinicians.NormalizeEmail(input.Email)

	verrs := common.ValidationErrors{}
	if len(name) < 2 {
		verrs.Add("name", "name must be at least 2 characters")
	}
	if !emailPattern.MatchString(email) {
		verrs.Add("email", "enter a valid email address")
	}
	if !cryptox.ValidSecret(input.Secret) {
		verrs.Add("password", "password must be at least 6 characters and contain a letter and a digit")
	}
	if verrs.Any() {
		return verrs
	}

	_, err := f.svc.manager.Clinicians(f.svc.manager.Conn()).FindByEmail(ctx, email)
	switch {
	case err == nil:
		return common.ErrorDuplicateEmail
	case !isNotFound(err):
		return fmt.Errorf("email lookup: %w", err)
	}

	code, err := f.svc.codes.OTP()
	if err != nil {
		return fmt.Errorf("%w: %s", common.ErrorInternal, err)
	}

	now := f.svc.clock.Now()
	f.touched = now
	f.pending = &models.PendingVerification{
		Name:       name,
		Email:      email,
		Specialty:  strings.TrimSpace(input.Specialty),
		Secret:     []byte(input.Secret),
		Code:       code,
		ExpiresAt:  now.Add(f.svc.codeTTL),
		LastSentAt: now,
	}
	f.state = StateAwaitingCode
	f.dispatchFailed = false
	f.preview = ""

	f.dispatchLocked(ctx, false)
	return nil
}

// Resend replaces the pending code and expiry with fresh values and
// re-dispatches. It is a no-op while the cooldown from the previous send has
// not elapsed. Without a pending verification it fails with
// common.ErrorNoPendingVerification.
func (f *RegistrationFlow) Resend(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != StateAwaitingCode || f.pending == nil {
		return common.ErrorNoPendingVerification
	}

	now := f.svc.clock.Now()
	f.touched = now
	if now.Sub(f.pending.LastSentAt) < f.svc.resendCooldown {
		return nil
	}

	code, err := f.svc.codes.OTP()
	if err != nil {
		return fmt.Errorf("%w: %s", common.ErrorInternal, err)
	}

	f.pending.Code = code
	f.pending.ExpiresAt = now.Add(f.svc.codeTTL)
	f.pending.LastSentAt = now
	f.dispatchFailed = false
	f.preview = ""
	// The previous dispatch, if still in flight, reports against a code
	// that no longer exists.
	f.generation++

	f.dispatchLocked(ctx, true)
	return nil
}

// Verify checks the submitted code against the pending verification and, on
// match, hashes the secret and commits the clinician record. A duplicate
// email discovered at this late stage (two registrations racing on the same
// address) is rejected explicitly and the flow resets to Form.
func (f *RegistrationFlow) Verify(ctx context.Context, submitted string) (*models.Clinician, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != StateAwaitingCode || f.pending == nil {
		return nil, common.ErrorNoPendingVerification
	}

	submitted = strings.TrimSpace(submitted)
	if len(submitted) != codes.OTPDigits || !codes.IsNumeric(submitted) {
		return nil, common.ErrorCodeFormat
	}

	now := f.svc.clock.Now()
	f.touched = now
	if now.After(f.pending.ExpiresAt) {
		return nil, common.ErrorCodeExpired
	}
	if submitted != f.pending.Code {
		return nil, common.ErrorCodeMismatch
	}

	hash, err := cryptox.HashPassword(f.pending.Secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", common.ErrorInternal, err)
	}

	c := &models.Clinician{
		ID:           uuid.NewString(),
		Email:        f.pending.Email,
		Name:         f.pending.Name,
		Specialty:    f.pending.Specialty,
		PasswordHash: hash,
		Verified:     true,
		CreatedAt:    now,
	}

	created, err := f.svc.manager.Clinicians(f.svc.manager.Conn()).Create(ctx, c)
	if err != nil {
		if isDuplicateEmail(err) {
			// Another registration with the same email won the race.
			f.resetLocked()
			return nil, fmt.Errorf("%w: registration was completed elsewhere", common.ErrorDuplicateEmail)
		}
		return nil, fmt.Errorf("commit clinician: %w", err)
	}

	common.WipeByteArray(f.pending.Secret)
	f.pending = nil
	f.state = StateVerified
	f.generation++
	f.svc.drop(f.id)

	f.svc.logger.Info(ctx, "clinician verified", "email", created.Email)
	return created, nil
}

// Abandon discards any pending verification and returns the flow to Form.
// Dispatch outcomes still in flight become no-ops.
func (f *RegistrationFlow) Abandon() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetLocked()
}

func (f *RegistrationFlow) resetLocked() {
	if f.pending != nil {
		common.WipeByteArray(f.pending.Secret)
	}
	f.pending = nil
	f.state = StateForm
	f.dispatchFailed = false
	f.preview = ""
	f.generation++
}

// dispatchLocked sends the verification email for the current pending
// verification. The caller holds f.mu. The send itself runs outside the lock
// so a slow transport never stalls the flow; its outcome is applied only if
// the flow has not been reset in the meantime.
func (f *RegistrationFlow) dispatchLocked(ctx context.Context, resend bool) {
	gen := f.generation
	msg := mailer.VerificationMessage(f.pending.Email, f.pending.Name, f.pending.Code, f.svc.codeTTL, resend)

	deliver := func() {
		err := f.svc.mailer.Send(context.WithoutCancel(ctx), msg)

		f.mu.Lock()
		defer f.mu.Unlock()
		if f.generation != gen {
			return
		}
		if err != nil {
			f.dispatchFailed = true
			f.preview = msg.Body
			f.svc.logger.Warn(ctx, "verification email dispatch failed", "email", msg.To, "error", err)
		}
	}

	if f.svc.syncDispatch {
		f.mu.Unlock()
		deliver()
		f.mu.Lock()
		return
	}
	go deliver()
}
