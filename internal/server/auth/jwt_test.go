package auth

import (
	"testing"
	"time"

	"github.com/clinivault/screenauth/internal/common"
	"github.com/clinivault/screenauth/internal/server/models"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func TestGenerateAndParse_Clinician(t *testing.T) {
	id := &models.Identity{Role: models.RoleClinician, Name: "Dr. Who", Ref: "c-1"}

	token, err := GenerateToken(id, testSecret, time.Hour)
	require.NoError(t, err)

	got, err := IdentityFromToken(token, testSecret)
	require.NoError(t, err)
	require.Equal(t, id, got)
}

func TestGenerateAndParse_Patient(t *testing.T) {
	id := &models.Identity{Role: models.RolePatient, Name: "Alex", Ref: "PSY9-3N6R"}

	token, err := GenerateToken(id, testSecret, time.Hour)
	require.NoError(t, err)

	got, err := IdentityFromToken(token, testSecret)
	require.NoError(t, err)
	require.Equal(t, models.RolePatient, got.Role)
	require.Equal(t, "PSY9-3N6R", got.Ref)
}

func TestIdentityFromToken_WrongKey(t *testing.T) {
	id := &models.Identity{Role: models.RoleClinician, Name: "Dr. Who", Ref: "c-1"}

	token, err := GenerateToken(id, testSecret, time.Hour)
	require.NoError(t, err)

	_, err = IdentityFromToken(token, []byte("other-key"))
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestIdentityFromToken_Expired(t *testing.T) {
	id := &models.Identity{Role: models.RoleClinician, Name: "Dr. Who", Ref: "c-1"}

	token, err := GenerateToken(id, testSecret, -time.Minute)
	require.NoError(t, err)

	_, err = IdentityFromToken(token, testSecret)
	require.ErrorIs(t, err, common.ErrTokenExpired)
}

func TestIdentityFromToken_Garbage(t *testing.T) {
	_, err := IdentityFromToken("not.a.token", testSecret)
	require.ErrorIs(t, err, common.ErrInvalidToken)
}
