package credential

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yazin123/nesa/internal/testutil"
)

func TestInspect(t *testing.T) {
	token := testutil.MintToken(t, "user-7", time.Hour)

	claims, err := Inspect(token)
	require.NoError(t, err)
	assert.Equal(t, "user-7", claims.Subject)
	assert.Equal(t, testutil.FakeEmail, claims.Email)
	assert.Equal(t, "admin", claims.Role)
	assert.False(t, claims.Expired(time.Now()))
	assert.True(t, claims.Expired(time.Now().Add(2*time.Hour)))
}

func TestInspect_ExpiredTokenStillReadable(t *testing.T) {
	token := testutil.MintToken(t, "user-7", -time.Minute)

	claims, err := Inspect(token)
	require.NoError(t, err)
	assert.True(t, claims.Expired(time.Now()))
}

func TestInspect_Garbage(t *testing.T) {
	_, err := Inspect("not-a-jwt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a readable JWT")
}

func TestClaims_NoExpiry(t *testing.T) {
	c := &Claims{}
	assert.False(t, c.Expired(time.Now()))
}
