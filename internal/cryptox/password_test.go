package cryptox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword([]byte("secret1"))
	require.NoError(t, err)
	require.NotEqual(t, "secret1", hash)

	require.True(t, CheckPassword([]byte("secret1"), hash))
	require.False(t, CheckPassword([]byte("secret2"), hash))
	require.False(t, CheckPassword([]byte(""), hash))
}

func TestHashPassword_DistinctSalts(t *testing.T) {
	h1, err := HashPassword([]byte("secret1"))
	require.NoError(t, err)
	h2, err := HashPassword([]byte("secret1"))
	require.NoError(t, err)
	require.NotEqual(t, h1, h2)
}

func TestValidSecret(t *testing.T) {
	tests := []struct {
		secret string
		want   bool
	}{
		{"secret1", true},
		{"a1b2c3", true},
		{"short1", true},
		{"abc1", false},        // too short
		{"abcdef", false},      // no digit
		{"123456", false},      // no letter
		{"", false},
		{"pass word 1", true},
	}
	for _, tc := range tests {
		require.Equal(t, tc.want, ValidSecret(tc.secret), "secret %q", tc.secret)
	}
}
