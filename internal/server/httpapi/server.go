// Package httpapi is the HTTP transport of screenauth. It translates JSON
// requests into service calls and sentinel errors into status codes; all
// business rules live in the services layer.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/clinivault/screenauth/internal/logging"
	sc "github.com/clinivault/screenauth/internal/server/config"
	"github.com/clinivault/screenauth/internal/server/models"
	"github.com/clinivault/screenauth/internal/server/obs"
	"github.com/clinivault/screenauth/internal/server/services"
)

type Server struct {
	config *sc.Config
	logger logging.Logger

	registration *services.RegistrationService
	session      *services.SessionService
	grants       *services.GrantService
	reports      *services.ReportService

	engine *gin.Engine
	srv    *http.Server
}

func NewServer(cfg *sc.Config, l logging.Logger, reg *services.RegistrationService,
	sess *services.SessionService, gr *services.GrantService, rep *services.ReportService) *Server {
	s := &Server{
		config:       cfg,
		logger:       l.With("module", "httpapi"),
		registration: reg,
		session:      sess,
		grants:       gr,
		reports:      rep,
	}
	s.engine = s.buildEngine()
	return s
}

func (s *Server) buildEngine() *gin.Engine {
	obs.Init()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(instrument())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.GET("/metrics", gin.WrapH(obs.Handler()))

	secretKey := []byte(s.config.SecretKey)
	credLimiter := newIPLimiter(rate.Every(time.Second), 10)

	api := r.Group("/api")
	{
		public := api.Group("", rateLimit(credLimiter))
		public.POST("/register", s.handleRegister)
		public.POST("/register/resend", s.handleResend)
		public.POST("/register/verify", s.handleVerify)
		public.POST("/register/abandon", s.handleAbandon)
		public.POST("/login", s.handleLogin)
		public.POST("/forgot-password", s.handleForgotPassword)
		public.POST("/patient/redeem", s.handleRedeem)

		clinician := api.Group("", authRequired(secretKey, models.RoleClinician))
		clinician.POST("/grants", s.handleIssueGrant)
		clinician.GET("/grants", s.handleListGrants)
		clinician.GET("/grants/:code/results", s.handleListResultsByCode)
		clinician.GET("/clinicians", s.handleListClinicians)
		clinician.GET("/results", s.handleListResults)
		clinician.GET("/reports/download-url", s.handleReportDownloadURL)

		patient := api.Group("", authRequired(secretKey, models.RolePatient))
		patient.POST("/results", s.handleRecordResult)

		anyRole := api.Group("", authRequired(secretKey, models.RoleClinician, models.RolePatient))
		anyRole.POST("/reports/upload-url", s.handleReportUploadURL)
	}

	return r
}

// Engine exposes the router for tests.
func (s *Server) Engine() *gin.Engine { return s.engine }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.srv = &http.Server{
		Addr:    s.config.EndpointAddr,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "http server listening", "addr", s.config.EndpointAddr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.logger.Info(ctx, "http server shutting down")
	return s.srv.Shutdown(shutdownCtx)
}
