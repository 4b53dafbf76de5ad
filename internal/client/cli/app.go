// Package cli implements the interactive terminal client for screenauth.
package cli

import (
	"bufio"
	"context"
	"log"
	"os"
	"time"

	"github.com/clinivault/screenauth/internal/client/api"
	"github.com/clinivault/screenauth/internal/client/config"
)

type Mode string

const (
	ModeOffline  Mode = "offline"
	ModeOnline   Mode = "online"
	ModeDisabled Mode = "disabled"
)

// apiClient is the server surface the CLI needs. The real api.Client
// satisfies it; tests provide a stub.
type apiClient interface {
	Ping(ctx context.Context) error
	Register(ctx context.Context, name, email, specialty string, password []byte) (*api.RegistrationStatus, error)
	Resend(ctx context.Context, flowID string) (*api.RegistrationStatus, error)
	Verify(ctx context.Context, flowID, code string) error
	Abandon(ctx context.Context, flowID string) error
	Login(ctx context.Context, email string, password []byte) (*api.Session, error)
	ForgotPassword(ctx context.Context, email string) error
	Redeem(ctx context.Context, name, code string) (*api.Session, error)
	IssueGrant(ctx context.Context, token, patientName string) (*api.Grant, error)
	ListGrants(ctx context.Context, token string) ([]api.Grant, error)
	RecordResult(ctx context.Context, token string, in api.RecordResultInput) (*api.Result, error)
	ListResults(ctx context.Context, token string) ([]api.Result, error)
	ReportUploadURL(ctx context.Context, token string) (key, url string, err error)
	ReportDownloadURL(ctx context.Context, token, key string) (string, error)
}

type App struct {
	config *config.Config
	api    apiClient

	token    string
	role     string
	userName string

	Mode   Mode
	reader *bufio.Reader
}

func NewApp(c *config.Config) (*App, error) {
	return &App{
		config: c,
		api:    api.NewClient(c.ServerEndpointAddr),
		reader: bufio.NewReader(os.Stdin),
	}, nil
}

func (a *App) setMode(mode Mode) {
	if a.Mode != mode {
		a.Mode = mode
		log.Printf("Switched to %s mode\n", mode)
	}
}

func (a *App) Run(ctx context.Context) {
	log.Println("Welcome to screenauth CLI (type 'help' for commands)")

	go func() {
		a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)
	}()

	runREPL(ctx, a, a.getStatus, bufio.NewScanner(os.Stdin))
}

func (a *App) isLoggedIn() bool {
	return a.token != ""
}

func (a *App) isClinician() bool {
	return a.role == "clinician"
}

func (a *App) getStatus() string {
	s := ""
	if a.userName != "" {
		s = a.userName + " "
	}
	if a.Mode != "" {
		s = s + string(a.Mode)
	}
	if s != "" {
		s = "(" + s + ")"
	}
	return s
}

func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			err := a.api.Ping(pingCtx)
			cancel()

			if err != nil {
				if a.Mode == ModeOnline {
					a.setMode(ModeOffline)
				}
			} else {
				if a.Mode != ModeOnline {
					a.setMode(ModeOnline)
				}
			}

		case <-ctx.Done():
			return
		}
	}
}
