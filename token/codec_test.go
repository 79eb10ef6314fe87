package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var (
	testAccessSecret  = []byte("unit-test-access-secret")
	testRefreshSecret = []byte("unit-test-refresh-secret")
)

func newTestCodec(t *testing.T, secret []byte, ttl time.Duration) *Codec {
	t.Helper()

	c, err := NewCodec(Config{Secret: secret, TTL: ttl, Issuer: "authgate-test"})
	require.NoError(t, err)
	return c
}

// signAt mints a token with explicit issued-at/expiry instants, bypassing the
// codec TTL, so tests can produce already-expired tokens without sleeping.
func signAt(t *testing.T, secret []byte, subject, email string, issuedAt, expiresAt time.Time) string {
	t.Helper()

	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Issuer:    "authgate-test",
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return signed
}

func TestSignVerifyRoundtrip(t *testing.T) {
	c := newTestCodec(t, testAccessSecret, 15*time.Minute)

	signed, err := c.Sign("user-1", "alice@example.com")
	require.NoError(t, err)

	claims, err := c.Verify(signed)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, "alice@example.com", claims.Email)
	require.NotEmpty(t, claims.ID)
}

func TestVerifyRejectsOtherPurposeSecret(t *testing.T) {
	access := newTestCodec(t, testAccessSecret, 15*time.Minute)
	refresh := newTestCodec(t, testRefreshSecret, 7*24*time.Hour)

	signed, err := access.Sign("user-1", "alice@example.com")
	require.NoError(t, err)

	_, err = refresh.Verify(signed)
	require.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestVerifyExpired(t *testing.T) {
	c := newTestCodec(t, testAccessSecret, 15*time.Minute)

	signed := signAt(t, testAccessSecret, "user-1", "alice@example.com",
		time.Now().Add(-time.Hour), time.Now().Add(-30*time.Minute))

	_, err := c.Verify(signed)
	require.ErrorIs(t, err, ErrExpired)
}

func TestVerifyExpiryBoundaryInclusive(t *testing.T) {
	c := newTestCodec(t, testAccessSecret, 15*time.Minute)

	// Expiry set to the current instant: already expired, not still valid.
	now := time.Now()
	signed := signAt(t, testAccessSecret, "user-1", "", now.Add(-time.Minute), now)

	_, err := c.Verify(signed)
	require.ErrorIs(t, err, ErrExpired)
}

func TestVerifyMalformed(t *testing.T) {
	c := newTestCodec(t, testAccessSecret, 15*time.Minute)

	for _, tokenStr := range []string{"", "garbage", "a.b", "a.b.c.d"} {
		_, err := c.Verify(tokenStr)
		require.ErrorIs(t, err, ErrMalformed, "token %q", tokenStr)
	}
}

func TestVerifyRejectsMissingSubject(t *testing.T) {
	c := newTestCodec(t, testAccessSecret, 15*time.Minute)

	signed := signAt(t, testAccessSecret, "", "alice@example.com",
		time.Now(), time.Now().Add(time.Hour))

	_, err := c.Verify(signed)
	require.ErrorIs(t, err, ErrMalformed)
}

func TestDecodeSubjectUnverified(t *testing.T) {
	c := newTestCodec(t, testRefreshSecret, 7*24*time.Hour)

	signed, err := c.Sign("user-9", "bob@example.com")
	require.NoError(t, err)

	// Decoding needs no secret and succeeds even for expired tokens.
	subject, err := DecodeSubjectUnverified(signed)
	require.NoError(t, err)
	require.Equal(t, "user-9", subject)

	expired := signAt(t, testRefreshSecret, "user-9", "",
		time.Now().Add(-2*time.Hour), time.Now().Add(-time.Hour))
	subject, err = DecodeSubjectUnverified(expired)
	require.NoError(t, err)
	require.Equal(t, "user-9", subject)

	_, err = DecodeSubjectUnverified("not-a-token")
	require.ErrorIs(t, err, ErrMalformed)
}

func TestNewCodecValidation(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{"missing secret", Config{TTL: time.Minute}},
		{"zero TTL", Config{Secret: testAccessSecret}},
		{"negative leeway", Config{Secret: testAccessSecret, TTL: time.Minute, Leeway: -time.Second}},
		{"excessive leeway", Config{Secret: testAccessSecret, TTL: time.Minute, Leeway: time.Hour}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewCodec(tc.cfg)
			require.Error(t, err)
		})
	}
}
