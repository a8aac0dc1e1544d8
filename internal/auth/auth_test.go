package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jabiru-analytics/jabiru/internal/models"
	"github.com/jabiru-analytics/jabiru/internal/store"
)

type mapUsers map[string]*models.User

func (m mapUsers) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	if u, ok := m[username]; ok {
		return u, nil
	}
	return nil, store.ErrNotFound
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("securepassword123", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "securepassword123", hash)
	assert.True(t, VerifyPassword("securepassword123", hash))
	assert.False(t, VerifyPassword("wrong", hash))
	assert.False(t, VerifyPassword("securepassword123", "not-a-hash"))
}

func TestTokenRoundTrip(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	iss := NewTokenIssuer("secret", 30*time.Minute, clock)

	tok, err := iss.Issue("johndoe")
	require.NoError(t, err)
	sub, err := iss.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "johndoe", sub)

	now = now.Add(31 * time.Minute)
	_, err = iss.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken, "expired")

	other := NewTokenIssuer("other-secret", time.Hour, clock)
	tok, err = other.Issue("johndoe")
	require.NoError(t, err)
	_, err = iss.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken, "wrong signature")

	_, err = iss.Parse("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthenticate(t *testing.T) {
	hash, err := HashPassword("pw-12345678", bcrypt.MinCost)
	require.NoError(t, err)
	users := mapUsers{"alice": {ID: "1", Username: "alice", PasswordHash: hash}}

	u, err := Authenticate(context.Background(), users, "alice", "pw-12345678")
	require.NoError(t, err)
	assert.Equal(t, "1", u.ID)

	_, err = Authenticate(context.Background(), users, "alice", "nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = Authenticate(context.Background(), users, "bob", "pw-12345678")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestMiddleware(t *testing.T) {
	iss := NewTokenIssuer("secret", time.Hour, nil)
	users := mapUsers{"alice": {ID: "1", Username: "alice"}}
	h := Middleware(iss, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := UserFromContext(r.Context())
		if !ok {
			http.Error(w, "no user", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(u.ID))
	}))

	good, err := iss.Issue("alice")
	require.NoError(t, err)
	ghost, err := iss.Issue("ghost")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid token", "Bearer " + good, http.StatusOK},
		{"lowercase scheme", "bearer " + good, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + good, http.StatusUnauthorized},
		{"bad token", "Bearer nonsense", http.StatusUnauthorized},
		{"unknown user", "Bearer " + ghost, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusUnauthorized {
				assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
				var body map[string]string
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
				assert.NotEmpty(t, body["detail"])
			} else {
				assert.Equal(t, "1", rec.Body.String())
			}
		})
	}
}
