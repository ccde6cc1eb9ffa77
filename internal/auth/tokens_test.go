package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestTokenVerifier_HS256(t *testing.T) {
	v, err := NewTokenVerifier(testSecret, "", "https://id.example.com/", "training-api")
	require.NoError(t, err)

	identity := Identity{Subject: "auth0|42", Email: "op@example.com", Name: "Operator"}
	raw, err := SignHS256(testSecret, identity, "https://id.example.com/", "training-api", time.Hour)
	require.NoError(t, err)

	got, expiresAt, err := v.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, identity, *got)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)
}

func TestTokenVerifier_Rejects(t *testing.T) {
	v, err := NewTokenVerifier(testSecret, "", "https://id.example.com/", "training-api")
	require.NoError(t, err)
	identity := Identity{Subject: "auth0|42"}

	tests := []struct {
		name  string
		token func() (string, error)
	}{
		{"wrong secret", func() (string, error) {
			return SignHS256("other-secret", identity, "https://id.example.com/", "training-api", time.Hour)
		}},
		{"expired", func() (string, error) {
			return SignHS256(testSecret, identity, "https://id.example.com/", "training-api", -time.Minute)
		}},
		{"wrong issuer", func() (string, error) {
			return SignHS256(testSecret, identity, "https://evil.example.com/", "training-api", time.Hour)
		}},
		{"wrong audience", func() (string, error) {
			return SignHS256(testSecret, identity, "https://id.example.com/", "another-api", time.Hour)
		}},
		{"missing subject", func() (string, error) {
			return SignHS256(testSecret, Identity{Email: "x@example.com"}, "https://id.example.com/", "training-api", time.Hour)
		}},
		{"garbage", func() (string, error) { return "not.a.jwt", nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := tt.token()
			require.NoError(t, err)
			_, _, err = v.Verify(raw)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestNewTokenVerifier_RequiresKey(t *testing.T) {
	_, err := NewTokenVerifier("", "", "")
	assert.Error(t, err)

	_, err = NewTokenVerifier("", "-----BEGIN PUBLIC KEY-----\nnope\n-----END PUBLIC KEY-----", "")
	assert.Error(t, err)
}
