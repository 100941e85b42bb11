package security

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenManager(t *testing.T, now func() time.Time) *TokenManager {
	t.Helper()
	tm, err := NewTokenManager("test-secret", "test-issuer", time.Hour, WithClock(now))
	require.NoError(t, err)
	return tm
}

func TestTokenManager_IssueAndVerify(t *testing.T) {
	tm := newTestTokenManager(t, time.Now)

	token, err := tm.Issue("user-1")
	require.NoError(t, err)

	userID, err := tm.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestTokenManager_ClaimsCarryIssuedAndExpiry(t *testing.T) {
	issuedAt := time.Now().Truncate(time.Second)
	tm := newTestTokenManager(t, func() time.Time { return issuedAt })

	token, err := tm.Issue("user-1")
	require.NoError(t, err)

	claims := &Claims{}
	_, _, err = jwt.NewParser().ParseUnverified(token, claims)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.True(t, claims.IssuedAt.Time.Equal(issuedAt))
	assert.True(t, claims.ExpiresAt.Time.Equal(issuedAt.Add(time.Hour)))
}

func TestTokenManager_Expired(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	tm := newTestTokenManager(t, func() time.Time { return clock() })

	token, err := tm.Issue("user-1")
	require.NoError(t, err)

	clock = func() time.Time { return now.Add(2 * time.Hour) }

	_, err = tm.Verify(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestTokenManager_TamperedSignature(t *testing.T) {
	tm := newTestTokenManager(t, time.Now)

	token, err := tm.Issue("user-1")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	_, err = tm.Verify(tampered)
	assert.ErrorIs(t, err, ErrMalformedToken)
}

func TestTokenManager_WrongSecret(t *testing.T) {
	issuer := newTestTokenManager(t, time.Now)
	other, err := NewTokenManager("other-secret", "test-issuer", time.Hour)
	require.NoError(t, err)

	token, err := issuer.Issue("user-1")
	require.NoError(t, err)

	_, err = other.Verify(token)
	assert.ErrorIs(t, err, ErrMalformedToken)
}

func TestTokenManager_Garbage(t *testing.T) {
	tm := newTestTokenManager(t, time.Now)

	_, err := tm.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrMalformedToken)
}

func TestTokenManager_RejectsNoneAlgorithm(t *testing.T) {
	tm := newTestTokenManager(t, time.Now)

	claims := Claims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = tm.Verify(token)
	assert.ErrorIs(t, err, ErrMalformedToken)
}

func TestNewTokenManager_Validation(t *testing.T) {
	_, err := NewTokenManager("", "issuer", time.Hour)
	assert.Error(t, err)

	_, err = NewTokenManager("secret", "issuer", 0)
	assert.Error(t, err)
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr bool
	}{
		{header: "Bearer abc.def.ghi", want: "abc.def.ghi"},
		{header: "bearer abc", want: "abc"},
		{header: "  Bearer   abc  ", want: "abc"},
		{header: "", wantErr: true},
		{header: "Bearer", wantErr: true},
		{header: "Bearer ", wantErr: true},
		{header: "Basic abc", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ExtractBearerToken(tt.header)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrMissingToken, "header %q", tt.header)
			continue
		}
		assert.NoError(t, err, "header %q", tt.header)
		assert.Equal(t, tt.want, got)
	}
}
