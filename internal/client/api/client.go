// Package api is the HTTP client for the screenauth server. It speaks the
// JSON API and maps error payloads back onto the shared sentinel errors.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"strings"
	"time"

	"github.com/clinivault/screenauth/internal/common"
)

// Client talks to one screenauth server.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// APIError is a non-validation error reported by the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.Status, e.Message)
}

// Unwrap maps well-known server messages back to sentinel errors so callers
// can keep using errors.Is across the wire.
func (e *APIError) Unwrap() error {
	for _, sentinel := range []error{
		common.ErrorDuplicateEmail,
		common.ErrorNotFound,
		common.ErrorUnverified,
		common.ErrorInvalidCredential,
		common.ErrorInvalidOrExpiredCode,
		common.ErrorNoPendingVerification,
		common.ErrorCodeFormat,
		common.ErrorCodeExpired,
		common.ErrorCodeMismatch,
	} {
		if e.Message == sentinel.Error() || strings.HasPrefix(e.Message, sentinel.Error()+":") {
			return sentinel
		}
	}
	return nil
}

type errorPayload struct {
	Error  string            `json:"error"`
	Errors map[string]string `json:"errors"`
}

// do sends a JSON request and decodes a JSON response into out (when out is
// non-nil). Error payloads become ValidationErrors or APIError.
func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var ep errorPayload
		data, _ := io.ReadAll(resp.Body)
		if err := json.Unmarshal(data, &ep); err != nil {
			return &APIError{Status: resp.StatusCode, Message: string(data)}
		}
		if len(ep.Errors) > 0 {
			return common.ValidationErrors(ep.Errors)
		}
		return &APIError{Status: resp.StatusCode, Message: ep.Error}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Ping probes server reachability.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/ping", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}
	return nil
}

// RegistrationStatus describes an in-flight registration flow.
type RegistrationStatus struct {
	FlowID          string `json:"flow_id"`
	State           string `json:"state"`
	CooldownSeconds int    `json:"cooldown_seconds"`
}

func (c *Client) Register(ctx context.Context, name, email, specialty string, password []byte) (*RegistrationStatus, error) {
	var out RegistrationStatus
	err := c.do(ctx, http.MethodPost, "/api/register", "", map[string]string{
		"name":      name,
		"email":     email,
		"specialty": specialty,
		"password":  string(password),
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Resend(ctx context.Context, flowID string) (*RegistrationStatus, error) {
	var out RegistrationStatus
	err := c.do(ctx, http.MethodPost, "/api/register/resend", "", map[string]string{
		"flow_id": flowID,
	}, &out)
	if err != nil {
		return nil, err
	}
	out.FlowID = flowID
	return &out, nil
}

// Abandon discards an in-flight registration flow on the server.
func (c *Client) Abandon(ctx context.Context, flowID string) error {
	return c.do(ctx, http.MethodPost, "/api/register/abandon", "", map[string]string{
		"flow_id": flowID,
	}, nil)
}

func (c *Client) Verify(ctx context.Context, flowID, code string) error {
	return c.do(ctx, http.MethodPost, "/api/register/verify", "", map[string]string{
		"flow_id": flowID,
		"code":    code,
	}, nil)
}

// Session is the authenticated state returned by login or redemption.
type Session struct {
	Token string `json:"token"`
	Role  string `json:"role"`
	Name  string `json:"name"`
	Code  string `json:"code"`
}

func (c *Client) Login(ctx context.Context, email string, password []byte) (*Session, error) {
	var out Session
	err := c.do(ctx, http.MethodPost, "/api/login", "", map[string]string{
		"email":    email,
		"password": string(password),
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/api/forgot-password", "", map[string]string{"email": email}, nil)
}

func (c *Client) Redeem(ctx context.Context, name, code string) (*Session, error) {
	var out Session
	err := c.do(ctx, http.MethodPost, "/api/patient/redeem", "", map[string]string{
		"name": name,
		"code": code,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Grant mirrors the server's access grant representation.
type Grant struct {
	Code        string `json:"code"`
	PatientName string `json:"patient_name"`
	CreatedAt   string `json:"created_at"`
	ExpiresAt   string `json:"expires_at"`
	Active      bool   `json:"active"`
	RedeemedAt  string `json:"redeemed_at"`
	ResultCount int    `json:"result_count"`
}

func (c *Client) IssueGrant(ctx context.Context, token, patientName string) (*Grant, error) {
	var out Grant
	err := c.do(ctx, http.MethodPost, "/api/grants", token, map[string]string{
		"patient_name": patientName,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListGrants(ctx context.Context, token string) ([]Grant, error) {
	var out struct {
		Grants []Grant `json:"grants"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/grants", token, nil, &out); err != nil {
		return nil, err
	}
	return out.Grants, nil
}

// Result mirrors the server's screening result representation.
type Result struct {
	ID              string   `json:"id"`
	PatientName     string   `json:"patient_name"`
	AccessCode      string   `json:"access_code"`
	TestType        string   `json:"test_type"`
	Score           int      `json:"score"`
	Severity        string   `json:"severity"`
	Analysis        string   `json:"analysis"`
	Recommendations []string `json:"recommendations"`
	CreatedAt       string   `json:"created_at"`
}

// RecordResultInput is the payload for submitting a screening outcome.
type RecordResultInput struct {
	TestType        string   `json:"test_type"`
	Score           int      `json:"score"`
	Severity        string   `json:"severity"`
	Analysis        string   `json:"analysis"`
	Recommendations []string `json:"recommendations"`
}

func (c *Client) RecordResult(ctx context.Context, token string, in RecordResultInput) (*Result, error) {
	var out Result
	if err := c.do(ctx, http.MethodPost, "/api/results", token, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListResults(ctx context.Context, token string) ([]Result, error) {
	var out struct {
		Results []Result `json:"results"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/results", token, nil, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// ReportUploadURL asks the server for a presigned PUT target in the report
// archive.
func (c *Client) ReportUploadURL(ctx context.Context, token string) (key, url string, err error) {
	var out struct {
		Key string `json:"key"`
		URL string `json:"url"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/reports/upload-url", token, nil, &out); err != nil {
		return "", "", err
	}
	return out.Key, out.URL, nil
}

// ReportDownloadURL asks the server for a presigned GET URL for an archived
// report.
func (c *Client) ReportDownloadURL(ctx context.Context, token, key string) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/reports/download-url?key="+neturl.QueryEscape(key), token, nil, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}
