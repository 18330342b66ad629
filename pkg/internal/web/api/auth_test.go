package api

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signTestToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestParseTokenAcceptsValidSignature(t *testing.T) {
	viper.Set("auth.secret", "test-secret")

	tk := signTestToken(t, "test-secret", jwt.MapClaims{
		"user_id": "alice",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	claims, err := parseToken(tk)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims["user_id"])
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	viper.Set("auth.secret", "test-secret")

	tk := signTestToken(t, "another-secret", jwt.MapClaims{"user_id": "alice"})
	_, err := parseToken(tk)
	assert.Error(t, err)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	viper.Set("auth.secret", "test-secret")

	tk := signTestToken(t, "test-secret", jwt.MapClaims{
		"user_id": "alice",
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})
	_, err := parseToken(tk)
	assert.Error(t, err)
}

func TestFirstClaimOrder(t *testing.T) {
	claims := jwt.MapClaims{
		"sub":     "from-sub",
		"user_id": "from-user-id",
	}
	assert.Equal(t, "from-user-id", firstClaim(claims, []string{"user_id", "sub"}))
	assert.Equal(t, "from-sub", firstClaim(claims, []string{"nameid", "sub"}))
	assert.Equal(t, "", firstClaim(claims, []string{"nameid"}))
}

func TestFirstClaimHandlesNumericIdentity(t *testing.T) {
	// JSON numbers decode as float64
	claims := jwt.MapClaims{"uid": float64(42)}
	assert.Equal(t, "42", firstClaim(claims, []string{"user_id", "uid"}))
}

func TestClaimNamesConfigurable(t *testing.T) {
	viper.Set("auth.claim_names", []string{"custom_id"})
	defer viper.Set("auth.claim_names", []string{})

	assert.Equal(t, []string{"custom_id"}, claimNames())

	viper.Set("auth.claim_names", []string{})
	assert.Equal(t, []string{"user_id", "sub", "uid", "nameid"}, claimNames())
}
