package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/clinivault/screenauth/internal/common"
	"github.com/clinivault/screenauth/internal/server/models"
	"github.com/clinivault/screenauth/internal/server/obs"
	"github.com/clinivault/screenauth/internal/server/services"
)

// --- Structs for Request Binding ---

type RegisterRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Specialty string `json:"specialty"`
	Password  string `json:"password"`
}

type FlowRequest struct {
	FlowID string `json:"flow_id" binding:"required"`
}

type VerifyRequest struct {
	FlowID string `json:"flow_id" binding:"required"`
	Code   string `json:"code"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

type RedeemRequest struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

type IssueGrantRequest struct {
	PatientName string `json:"patient_name"`
}

type RecordResultRequest struct {
	TestType        string   `json:"test_type" binding:"required"`
	Score           int      `json:"score"`
	Severity        string   `json:"severity"`
	Analysis        string   `json:"analysis"`
	Recommendations []string `json:"recommendations"`
}

// writeError maps service errors onto HTTP status codes. Validation failures
// carry the per-field messages so the caller can surface all of them at once.
func (s *Server) writeError(c *gin.Context, err error) {
	var verrs common.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": verrs})
	case errors.Is(err, common.ErrorDuplicateEmail):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, common.ErrorNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, common.ErrorUnverified),
		errors.Is(err, common.ErrorInvalidCredential),
		errors.Is(err, common.ErrorInvalidOrExpiredCode):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, common.ErrorNoPendingVerification),
		errors.Is(err, common.ErrorCodeFormat),
		errors.Is(err, common.ErrorCodeExpired),
		errors.Is(err, common.ErrorCodeMismatch):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		s.logger.Error(c.Request.Context(), "unexpected handler error", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// --- Registration ---

// flowStatus renders the registration flow state. When the last email
// dispatch failed, the composed message is included so the code can still
// reach the user through an out-of-band channel.
func flowStatus(flow *services.RegistrationFlow) gin.H {
	out := gin.H{
		"flow_id":          flow.ID(),
		"state":            flow.State().String(),
		"cooldown_seconds": int(flow.CooldownRemaining().Seconds()),
	}
	if failed, preview := flow.DispatchFallback(); failed {
		out["delivery_degraded"] = true
		out["preview"] = preview
	}
	return out
}

func (s *Server) handleRegister(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	flow := s.registration.NewFlow()
	err := flow.Begin(c.Request.Context(), services.RegistrationInput{
		Name:      req.Name,
		Email:     req.Email,
		Specialty: req.Specialty,
		Secret:    req.Password,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, flowStatus(flow))
}

func (s *Server) handleResend(c *gin.Context) {
	var req FlowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	flow, err := s.registration.Flow(req.FlowID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if err := flow.Resend(c.Request.Context()); err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, flowStatus(flow))
}

// handleAbandon discards an in-flight registration. The flow ID stops
// resolving afterwards; a new registration starts from scratch.
func (s *Server) handleAbandon(c *gin.Context) {
	var req FlowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.registration.AbandonFlow(req.FlowID); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "registration abandoned"})
}

func (s *Server) handleVerify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	flow, err := s.registration.Flow(req.FlowID)
	if err != nil {
		s.writeError(c, err)
		return
	}

	clinician, err := flow.Verify(c.Request.Context(), req.Code)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorCodeExpired):
			obs.CountVerification("expired")
		case errors.Is(err, common.ErrorCodeMismatch):
			obs.CountVerification("mismatch")
		case errors.Is(err, common.ErrorCodeFormat):
			obs.CountVerification("format")
		}
		s.writeError(c, err)
		return
	}
	obs.CountVerification("ok")

	c.JSON(http.StatusCreated, gin.H{
		"id":       clinician.ID,
		"email":    clinician.Email,
		"name":     clinician.Name,
		"verified": clinician.Verified,
	})
}

// --- Sessions ---

func (s *Server) handleLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess, err := s.session.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": sess.Token,
		"role":  sess.Identity.Role,
		"name":  sess.Identity.Name,
	})
}

func (s *Server) handleForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.session.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "recovery instructions dispatched"})
}

func (s *Server) handleRedeem(c *gin.Context) {
	var req RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess, err := s.session.RedeemAccessCode(c.Request.Context(), req.Name, req.Code)
	if err != nil {
		if errors.Is(err, common.ErrorInvalidOrExpiredCode) {
			obs.CountRedemption("rejected")
		}
		s.writeError(c, err)
		return
	}
	obs.CountRedemption("ok")

	c.JSON(http.StatusOK, gin.H{
		"token": sess.Token,
		"role":  sess.Identity.Role,
		"name":  sess.Identity.Name,
		"code":  sess.Identity.Ref,
	})
}

// --- Grants and results ---

func grantJSON(g *models.AccessGrant) gin.H {
	out := gin.H{
		"code":         g.Code,
		"patient_name": g.PatientName,
		"created_at":   g.CreatedAt.Format(time.RFC3339),
		"expires_at":   g.ExpiresAt.Format(time.RFC3339),
		"active":       g.Active,
		"result_count": g.ResultCount,
	}
	if g.RedeemedAt != nil {
		out["redeemed_at"] = g.RedeemedAt.Format(time.RFC3339)
	}
	return out
}

func resultJSON(r *models.ScreeningResult) gin.H {
	return gin.H{
		"id":              r.ID,
		"patient_name":    r.PatientName,
		"access_code":     r.AccessCode,
		"test_type":       r.TestType,
		"score":           r.Score,
		"severity":        r.Severity,
		"analysis":        r.Analysis,
		"recommendations": r.Recommendations,
		"created_at":      r.CreatedAt.Format(time.RFC3339),
	}
}

func (s *Server) handleIssueGrant(c *gin.Context) {
	var req IssueGrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id := identityFrom(c)
	g, err := s.grants.IssueGrant(c.Request.Context(), id.Ref, req.PatientName)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, grantJSON(g))
}

func (s *Server) handleListGrants(c *gin.Context) {
	id := identityFrom(c)
	list, err := s.grants.ListGrants(c.Request.Context(), id.Ref)
	if err != nil {
		s.writeError(c, err)
		return
	}

	out := make([]gin.H, 0, len(list))
	for _, g := range list {
		out = append(out, grantJSON(g))
	}
	c.JSON(http.StatusOK, gin.H{"grants": out})
}

func (s *Server) handleListClinicians(c *gin.Context) {
	list, err := s.grants.ListClinicians(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}

	out := make([]gin.H, 0, len(list))
	for _, cl := range list {
		out = append(out, gin.H{
			"id":        cl.ID,
			"email":     cl.Email,
			"name":      cl.Name,
			"specialty": cl.Specialty,
			"verified":  cl.Verified,
		})
	}
	c.JSON(http.StatusOK, gin.H{"clinicians": out})
}

// handleRecordResult stores the screening outcome for the calling patient
// session. The result is always recorded against the session's own access
// code; the grant is consumed in the same transaction.
func (s *Server) handleRecordResult(c *gin.Context) {
	var req RecordResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id := identityFrom(c)
	r, err := s.grants.RecordResult(c.Request.Context(), &models.ScreeningResult{
		PatientName:     id.Name,
		AccessCode:      id.Ref,
		TestType:        req.TestType,
		Score:           req.Score,
		Severity:        req.Severity,
		Analysis:        req.Analysis,
		Recommendations: req.Recommendations,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resultJSON(r))
}

func (s *Server) handleListResults(c *gin.Context) {
	list, err := s.grants.ListResults(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}

	out := make([]gin.H, 0, len(list))
	for _, r := range list {
		out = append(out, resultJSON(r))
	}
	c.JSON(http.StatusOK, gin.H{"results": out})
}

func (s *Server) handleListResultsByCode(c *gin.Context) {
	code := c.Param("code")
	list, err := s.grants.ListResultsByCode(c.Request.Context(), code)
	if err != nil {
		s.writeError(c, err)
		return
	}

	out := make([]gin.H, 0, len(list))
	for _, r := range list {
		out = append(out, resultJSON(r))
	}
	c.JSON(http.StatusOK, gin.H{"results": out})
}

// --- Report archive ---

func (s *Server) handleReportUploadURL(c *gin.Context) {
	key, url, err := s.reports.PresignedUploadURL(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "url": url})
}

func (s *Server) handleReportDownloadURL(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "key is required"})
		return
	}

	url, err := s.reports.PresignedDownloadURL(c.Request.Context(), key)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
