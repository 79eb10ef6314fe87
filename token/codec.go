package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrExpired is returned by Verify when the token's expiry has passed.
	// The boundary is inclusive: a token verified at exactly its expiry
	// instant is expired.
	ErrExpired = errors.New("token expired")
	// ErrSignatureInvalid is returned by Verify when the signature does not
	// match the codec's secret.
	ErrSignatureInvalid = errors.New("token signature invalid")
	// ErrMalformed is returned when the token structure or claims do not parse.
	ErrMalformed = errors.New("token malformed")
)

// Config defines codec construction parameters.
//
// Config instances are intended to be configured during initialization and
// then treated as immutable.
type Config struct {
	Secret []byte
	TTL    time.Duration
	Issuer string
	Leeway time.Duration
}

// Claims is the claim set carried by every authgate token: the subject
// identity plus the registered issued-at/expiry/jti claims.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Codec signs and verifies tokens for a single purpose (access or refresh).
type Codec struct {
	config Config
}

// NewCodec validates cfg and returns a codec bound to it.
func NewCodec(cfg Config) (*Codec, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("signing secret required")
	}
	if cfg.TTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}

	return &Codec{config: cfg}, nil
}

// TTL reports the validity window applied to signed tokens.
func (c *Codec) TTL() time.Duration {
	return c.config.TTL
}

// Sign mints a token for the given subject. The signature is deterministic
// over {identity, issuedAt, expiresAt} with the codec's secret; the jti claim
// makes consecutive tokens for the same subject distinct.
func (c *Codec) Sign(subjectID, email string) (string, error) {
	if subjectID == "" {
		return "", errors.New("subject id required")
	}

	now := time.Now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.config.TTL)),
			Issuer:    c.config.Issuer,
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.config.Secret)
}

// Verify parses and verifies a token, classifying failures into [ErrExpired],
// [ErrSignatureInvalid], and [ErrMalformed].
func (c *Codec) Verify(tokenStr string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if c.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(c.config.Leeway))
	}
	if c.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(c.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	parsed, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return c.config.Secret, nil
	})
	if err != nil {
		return nil, classify(err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrMalformed
	}
	if claims.Subject == "" {
		return nil, ErrMalformed
	}

	return claims, nil
}

// DecodeSubjectUnverified extracts the subject claim without verifying the
// signature. Callers use it only as a lookup key, never as a trust decision;
// the token must still pass Verify before anything is issued for it.
func DecodeSubjectUnverified(tokenStr string) (string, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if claims.Subject == "" {
		return "", ErrMalformed
	}

	return claims.Subject, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrSignatureInvalid
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}
