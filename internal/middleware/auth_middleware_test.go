package middleware

import (
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func TestIssueAndValidateToken(t *testing.T) {
	key := testKey(t)
	partnerID := uuid.NewString()

	tokenStr, err := IssueToken(key, partnerID, 42, time.Hour)
	require.NoError(t, err)

	tok, err := ValidateToken(tokenStr, &key.PublicKey)
	require.NoError(t, err)
	claims := tok.Claims.(jwt.MapClaims)
	assert.Equal(t, partnerID, claims["sub"])
	assert.Equal(t, TokenIssuer, claims["iss"])
}

func TestValidateToken_WrongKey(t *testing.T) {
	key := testKey(t)
	other := testKey(t)

	tokenStr, err := IssueToken(key, uuid.NewString(), 42, time.Hour)
	require.NoError(t, err)

	_, err = ValidateToken(tokenStr, &other.PublicKey)
	assert.Error(t, err)
}

func TestValidateToken_Expired(t *testing.T) {
	key := testKey(t)

	tokenStr, err := IssueToken(key, uuid.NewString(), 42, -time.Minute)
	require.NoError(t, err)

	_, err = ValidateToken(tokenStr, &key.PublicKey)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestAuthMiddleware(t *testing.T) {
	key := testKey(t)
	partnerID := uuid.NewString()

	var gotUserID any
	handler := AuthMiddleware(&key.PublicKey)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = r.Context().Value(ContextKeyUserID)
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("valid bearer token passes through", func(t *testing.T) {
		gotUserID = nil
		tokenStr, err := IssueToken(key, partnerID, 42, time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/api/bookings", nil)
		req.Header.Set("Authorization", "Bearer "+tokenStr)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, partnerID, gotUserID)
	})

	t.Run("missing header is a 401", func(t *testing.T) {
		gotUserID = nil
		req := httptest.NewRequest(http.MethodPost, "/api/bookings", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Nil(t, gotUserID)
	})

	t.Run("garbage token is a 401", func(t *testing.T) {
		gotUserID = nil
		req := httptest.NewRequest(http.MethodPost, "/api/bookings", nil)
		req.Header.Set("Authorization", "Bearer not.a.token")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Nil(t, gotUserID)
	})

	t.Run("expired token is a 401", func(t *testing.T) {
		gotUserID = nil
		tokenStr, err := IssueToken(key, partnerID, 42, -time.Minute)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/api/bookings", nil)
		req.Header.Set("Authorization", "Bearer "+tokenStr)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Nil(t, gotUserID)
	})
}
