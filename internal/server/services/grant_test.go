package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/clinivault/screenauth/internal/clock"
	"github.com/clinivault/screenauth/internal/common"
	"github.com/clinivault/screenauth/internal/logging"
	"github.com/clinivault/screenauth/internal/server/models"
	"github.com/clinivault/screenauth/internal/server/repositories/repomanager"
)

func newGrantFixture(t *testing.T) (*GrantService, *clock.Manual, repomanager.RepositoryManager) {
	t.Helper()
	m := repomanager.NewInMemoryManager()
	clk := clock.NewManual(regStart)
	svc := NewGrantService(m, clk, &seqGenerator{otps: []string{"111111"}},
		logging.NewDefault(), 7*24*time.Hour)
	return svc, clk, m
}

func TestIssueGrant(t *testing.T) {
	svc, clk, _ := newGrantFixture(t)

	g, err := svc.IssueGrant(context.Background(), "c-1", "Alex")
	require.NoError(t, err)
	require.Equal(t, "PSY9-3N6R", g.Code)
	require.Equal(t, "c-1", g.ClinicianID)
	require.True(t, g.Active)
	require.Equal(t, clk.Now().Add(7*24*time.Hour), g.ExpiresAt)

	_, err = svc.IssueGrant(context.Background(), "c-1", "   ")
	var verrs common.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	require.Contains(t, verrs, "patient_name")
}

func TestListGrants_NewestFirst(t *testing.T) {
	svc, clk, _ := newGrantFixture(t)

	first, err := svc.IssueGrant(context.Background(), "c-1", "Alex")
	require.NoError(t, err)
	clk.Advance(time.Minute)
	// Second issue reuses the stub code, so store it under another one.
	second, err := svc.manager.Grants(nil).Create(context.Background(), &models.AccessGrant{
		Code: "MED7-4K9P", PatientName: "Sam", ClinicianID: "c-1",
		CreatedAt: clk.Now(), ExpiresAt: clk.Now().Add(time.Hour), Active: true,
	})
	require.NoError(t, err)

	got, err := svc.ListGrants(context.Background(), "c-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, second.Code, got[0].Code)
	require.Equal(t, first.Code, got[1].Code)
}

func TestRecordResult_ConsumesGrant(t *testing.T) {
	svc, clk, m := newGrantFixture(t)
	_, err := svc.IssueGrant(context.Background(), "c-1", "Alex")
	require.NoError(t, err)

	r, err := svc.RecordResult(context.Background(), &models.ScreeningResult{
		PatientName:     "Alex",
		AccessCode:      "psy9-3n6r",
		TestType:        "PHQ-9",
		Score:           14,
		Severity:        "moderate",
		Analysis:        "elevated",
		Recommendations: []string{"follow up in two weeks"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, r.ID)
	require.Equal(t, clk.Now(), r.CreatedAt)
	require.Equal(t, "PSY9-3N6R", r.AccessCode)

	g, err := m.Grants(nil).FindByCode(context.Background(), "PSY9-3N6R")
	require.NoError(t, err)
	require.False(t, g.Active)
	require.NotNil(t, g.RedeemedAt)
	require.Equal(t, 1, g.ResultCount)
}

func TestRecordResult_RequiresAccessCode(t *testing.T) {
	svc, _, _ := newGrantFixture(t)

	_, err := svc.RecordResult(context.Background(), &models.ScreeningResult{PatientName: "Alex"})
	var verrs common.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	require.Contains(t, verrs, "access_code")
}

func TestRecordResult_BlocksSecondRedemption(t *testing.T) {
	grantSvc, clk, m := newGrantFixture(t)
	sessSvc := NewSessionService(m, clk, &captureMailer{}, logging.NewDefault(), sessionSecret, time.Hour)

	_, err := grantSvc.IssueGrant(context.Background(), "c-1", "Alex")
	require.NoError(t, err)

	_, err = sessSvc.RedeemAccessCode(context.Background(), "Alex", "PSY9-3N6R")
	require.NoError(t, err)

	_, err = grantSvc.RecordResult(context.Background(), &models.ScreeningResult{
		PatientName: "Alex", AccessCode: "PSY9-3N6R", TestType: "PHQ-9",
	})
	require.NoError(t, err)

	_, err = sessSvc.RedeemAccessCode(context.Background(), "Alex", "PSY9-3N6R")
	require.ErrorIs(t, err, common.ErrorInvalidOrExpiredCode)
}

func TestListResults_MostRecentFirst(t *testing.T) {
	svc, clk, _ := newGrantFixture(t)
	_, err := svc.IssueGrant(context.Background(), "c-1", "Alex")
	require.NoError(t, err)

	first, err := svc.RecordResult(context.Background(), &models.ScreeningResult{
		PatientName: "Alex", AccessCode: "PSY9-3N6R", TestType: "PHQ-9",
	})
	require.NoError(t, err)
	clk.Advance(time.Hour)
	second, err := svc.RecordResult(context.Background(), &models.ScreeningResult{
		PatientName: "Alex", AccessCode: "PSY9-3N6R", TestType: "GAD-7",
	})
	require.NoError(t, err)

	all, err := svc.ListResults(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, second.ID, all[0].ID)
	require.Equal(t, first.ID, all[1].ID)

	byCode, err := svc.ListResultsByCode(context.Background(), "psy9-3n6r")
	require.NoError(t, err)
	require.Len(t, byCode, 2)
}
