package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/clinivault/screenauth/internal/client/api"
	"github.com/clinivault/screenauth/internal/common"
)

// stubInputs replaces the interactive input seams with queued answers. Each
// call to getSimpleText pops the next line; getPassword always returns pw.
func stubInputs(t *testing.T, lines []string, pw []byte) func() {
	t.Helper()
	origST, origGP := getSimpleText, getPassword
	i := 0
	getSimpleText = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) {
		if i >= len(lines) {
			t.Fatalf("unexpected extra prompt (already consumed %d answers)", i)
		}
		line := lines[i]
		i++
		return line, nil
	}
	getPassword = func(_ io.Writer) ([]byte, error) { return append([]byte(nil), pw...), nil }
	return func() {
		getSimpleText = origST
		getPassword = origGP
	}
}

func capturePrintln(t *testing.T) (*[]string, func()) {
	t.Helper()
	var out []string
	orig := printlnFn
	printlnFn = func(args ...any) (int, error) {
		line := ""
		for i, a := range args {
			if i > 0 {
				line += " "
			}
			line += toString(a)
		}
		out = append(out, line)
		return 0, nil
	}
	return &out, func() { printlnFn = orig }
}

func toString(a any) string {
	if s, ok := a.(string); ok {
		return s
	}
	return ""
}

// fakeAPI scripts the server surface for CLI tests.
type fakeAPI struct {
	registerStatus *api.RegistrationStatus
	registerErr    error

	resendStatus *api.RegistrationStatus
	resendErr    error

	verifyErrs   []error
	verifyCalls  int
	verifiedCode string

	abandonedFlow string
	abandonErr    error

	loginSess *api.Session
	loginErr  error

	forgotErr error

	redeemSess *api.Session
	redeemErr  error

	grant     *api.Grant
	grantErr  error
	grants    []api.Grant
	results   []api.Result
	recorded  *api.RecordResultInput
	recordRes *api.Result

	uploadKey, uploadURL string
	uploadedData         []byte
	downloadURL          string
}

func (f *fakeAPI) Ping(context.Context) error { return nil }

func (f *fakeAPI) Register(_ context.Context, name, email, specialty string, password []byte) (*api.RegistrationStatus, error) {
	return f.registerStatus, f.registerErr
}

func (f *fakeAPI) Resend(_ context.Context, flowID string) (*api.RegistrationStatus, error) {
	return f.resendStatus, f.resendErr
}

func (f *fakeAPI) Verify(_ context.Context, flowID, code string) error {
	idx := f.verifyCalls
	f.verifyCalls++
	if idx < len(f.verifyErrs) {
		return f.verifyErrs[idx]
	}
	f.verifiedCode = code
	return nil
}

func (f *fakeAPI) Abandon(_ context.Context, flowID string) error {
	f.abandonedFlow = flowID
	return f.abandonErr
}

func (f *fakeAPI) Login(_ context.Context, email string, password []byte) (*api.Session, error) {
	return f.loginSess, f.loginErr
}

func (f *fakeAPI) ForgotPassword(context.Context, string) error { return f.forgotErr }

func (f *fakeAPI) Redeem(_ context.Context, name, code string) (*api.Session, error) {
	return f.redeemSess, f.redeemErr
}

func (f *fakeAPI) IssueGrant(_ context.Context, token, patientName string) (*api.Grant, error) {
	return f.grant, f.grantErr
}

func (f *fakeAPI) ListGrants(context.Context, string) ([]api.Grant, error) { return f.grants, nil }

func (f *fakeAPI) RecordResult(_ context.Context, token string, in api.RecordResultInput) (*api.Result, error) {
	f.recorded = &in
	return f.recordRes, nil
}

func (f *fakeAPI) ListResults(context.Context, string) ([]api.Result, error) { return f.results, nil }

func (f *fakeAPI) ReportUploadURL(context.Context, string) (string, string, error) {
	return f.uploadKey, f.uploadURL, nil
}

func (f *fakeAPI) ReportDownloadURL(_ context.Context, token, key string) (string, error) {
	return f.downloadURL, nil
}

func TestRegister_VerifiesAfterMismatch(t *testing.T) {
	f := &fakeAPI{
		registerStatus: &api.RegistrationStatus{FlowID: "f-1", State: "awaiting_code", CooldownSeconds: 60},
		verifyErrs:     []error{common.ErrorCodeMismatch},
	}
	a := &App{api: f}

	restore := stubInputs(t, []string{"Dr. Who", "doc@clinic.com", "Psychiatry", "999999", "111111"}, []byte("secret1"))
	defer restore()
	out, restoreOut := capturePrintln(t)
	defer restoreOut()

	if err := a.Register(context.Background()); err != nil {
		t.Fatalf("Register err: %v", err)
	}
	if f.verifiedCode != "111111" {
		t.Fatalf("verified code = %q, want 111111", f.verifiedCode)
	}
	found := false
	for _, line := range *out {
		if line == "Account verified, you can log in now" {
			found = true
		}
	}
	if !found {
		t.Fatalf("success message not printed, got %v", *out)
	}
}

func TestRegister_ResendAndCancel(t *testing.T) {
	f := &fakeAPI{
		registerStatus: &api.RegistrationStatus{FlowID: "f-1", State: "awaiting_code", CooldownSeconds: 60},
		resendStatus:   &api.RegistrationStatus{FlowID: "f-1", State: "awaiting_code", CooldownSeconds: 60},
	}
	a := &App{api: f}

	restore := stubInputs(t, []string{"Dr. Who", "doc@clinic.com", "", "resend", "cancel"}, []byte("secret1"))
	defer restore()
	_, restoreOut := capturePrintln(t)
	defer restoreOut()

	if err := a.Register(context.Background()); err != nil {
		t.Fatalf("Register err: %v", err)
	}
	if f.verifyCalls != 0 {
		t.Fatalf("verify should not have been called, got %d calls", f.verifyCalls)
	}
	if f.abandonedFlow != "f-1" {
		t.Fatalf("cancel must abandon the server-side flow, got %q", f.abandonedFlow)
	}
}

func TestRegister_ValidationErrorsPrinted(t *testing.T) {
	f := &fakeAPI{registerErr: common.ValidationErrors{"email": "enter a valid email address"}}
	a := &App{api: f}

	restore := stubInputs(t, []string{"Dr. Who", "bad", ""}, []byte("secret1"))
	defer restore()
	out, restoreOut := capturePrintln(t)
	defer restoreOut()

	if err := a.Register(context.Background()); err == nil {
		t.Fatalf("want validation error")
	}
	if len(*out) == 0 {
		t.Fatalf("field errors not printed")
	}
}

func TestLogin_SetsSession(t *testing.T) {
	f := &fakeAPI{loginSess: &api.Session{Token: "tok-1", Role: "clinician", Name: "Dr. Who"}}
	a := &App{api: f}

	restore := stubInputs(t, []string{"doc@clinic.com"}, []byte("secret1"))
	defer restore()

	if err := a.Login(context.Background()); err != nil {
		t.Fatalf("Login err: %v", err)
	}
	if !a.isLoggedIn() || !a.isClinician() {
		t.Fatalf("session not set: token=%q role=%q", a.token, a.role)
	}
	if a.Mode != ModeOnline {
		t.Fatalf("mode = %q, want online", a.Mode)
	}
}

func TestLogin_ErrorLeavesLoggedOut(t *testing.T) {
	f := &fakeAPI{loginErr: errors.New("boom")}
	a := &App{api: f}

	restore := stubInputs(t, []string{"doc@clinic.com"}, []byte("secret1"))
	defer restore()

	if err := a.Login(context.Background()); err == nil {
		t.Fatalf("want login error")
	}
	if a.isLoggedIn() {
		t.Fatalf("should not be logged in")
	}
}

func TestRedeem_InvalidCodeIsFriendly(t *testing.T) {
	f := &fakeAPI{redeemErr: common.ErrorInvalidOrExpiredCode}
	a := &App{api: f}

	restore := stubInputs(t, []string{"Alex", "ZZZ9-9Z9Z"}, nil)
	defer restore()
	out, restoreOut := capturePrintln(t)
	defer restoreOut()

	if err := a.Redeem(context.Background()); err != nil {
		t.Fatalf("Redeem should swallow the rejection, got %v", err)
	}
	if a.isLoggedIn() {
		t.Fatalf("should not be logged in")
	}
	if len(*out) == 0 {
		t.Fatalf("rejection message not printed")
	}
}

func TestRedeem_Success(t *testing.T) {
	f := &fakeAPI{redeemSess: &api.Session{Token: "tok-p", Role: "patient", Name: "Alex", Code: "PSY9-3N6R"}}
	a := &App{api: f}

	restore := stubInputs(t, []string{"Alex", "PSY9-3N6R"}, nil)
	defer restore()
	_, restoreOut := capturePrintln(t)
	defer restoreOut()

	if err := a.Redeem(context.Background()); err != nil {
		t.Fatalf("Redeem err: %v", err)
	}
	if a.role != "patient" || a.token != "tok-p" {
		t.Fatalf("session not set: %+v", a)
	}
}

func TestLogout(t *testing.T) {
	a := &App{token: "tok", role: "clinician", userName: "Dr. Who"}
	if err := a.Logout(context.Background()); err != nil {
		t.Fatalf("Logout err: %v", err)
	}
	if a.isLoggedIn() {
		t.Fatalf("still logged in")
	}
}

func TestIssueGrant_PrintsCode(t *testing.T) {
	f := &fakeAPI{grant: &api.Grant{Code: "PSY9-3N6R", PatientName: "Alex", ExpiresAt: "2026-09-04T09:00:00Z", Active: true}}
	a := &App{api: f, token: "tok"}

	restore := stubInputs(t, []string{"Alex"}, nil)
	defer restore()
	out, restoreOut := capturePrintln(t)
	defer restoreOut()

	if err := a.IssueGrant(context.Background()); err != nil {
		t.Fatalf("IssueGrant err: %v", err)
	}
	if len(*out) != 1 {
		t.Fatalf("want one output line, got %v", *out)
	}
}

func TestSubmitResult(t *testing.T) {
	f := &fakeAPI{recordRes: &api.Result{ID: "r-1", AccessCode: "PSY9-3N6R"}}
	a := &App{api: f, token: "tok-p", reader: bufio.NewReader(&emptyReader{})}

	restore := stubInputs(t, []string{"PHQ-9", "14", "moderate", "rest; follow up in two weeks"}, nil)
	defer restore()
	_, restoreOut := capturePrintln(t)
	defer restoreOut()

	if err := a.SubmitResult(context.Background()); err != nil {
		t.Fatalf("SubmitResult err: %v", err)
	}
	if f.recorded == nil || f.recorded.TestType != "PHQ-9" || f.recorded.Score != 14 {
		t.Fatalf("recorded = %+v", f.recorded)
	}
	if len(f.recorded.Recommendations) != 2 {
		t.Fatalf("recommendations = %v", f.recorded.Recommendations)
	}
}

// emptyReader feeds GetMultiline an immediate empty line.
type emptyReader struct{ done bool }

func (r *emptyReader) Read(p []byte) (int, error) {
	if r.done {
		return 0, io.EOF
	}
	r.done = true
	p[0] = '\n'
	return 1, nil
}

func TestUploadReport(t *testing.T) {
	f := &fakeAPI{uploadKey: "reports/1/k", uploadURL: "http://signed/put"}
	a := &App{api: f, token: "tok"}

	restore := stubInputs(t, []string{"/tmp/report.pdf"}, nil)
	defer restore()
	_, restoreOut := capturePrintln(t)
	defer restoreOut()

	origRead, origUpload := readFile, uploadToPresignedURL
	defer func() { readFile, uploadToPresignedURL = origRead, origUpload }()

	readFile = func(string) ([]byte, error) { return []byte("pdf-bytes"), nil }
	var uploaded []byte
	uploadToPresignedURL = func(url string, data []byte) error {
		if url != "http://signed/put" {
			t.Fatalf("url = %q", url)
		}
		uploaded = data
		return nil
	}

	if err := a.UploadReport(context.Background()); err != nil {
		t.Fatalf("UploadReport err: %v", err)
	}
	if string(uploaded) != "pdf-bytes" {
		t.Fatalf("uploaded = %q", uploaded)
	}
}
