package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	authgate "github.com/aryadevs/authgate"
)

type identityContextKey struct{}

// IdentityFromContext returns the authenticated identity injected by
// [Gatekeeper], if the request passed the gate.
func IdentityFromContext(ctx context.Context) (authgate.Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(authgate.Identity)
	return id, ok
}

// Gatekeeper returns middleware enforcing authentication on every request
// whose path does not match a configured public prefix.
//
// Credentials are read from the Authorization bearer header or the access
// cookie, and from the refresh header or the refresh cookie; headers win over
// cookies. On a seamless renewal the new access token is set on the response
// Authorization header and both tokens are re-issued as httpOnly cookies
// before the protected handler runs.
func Gatekeeper(engine *authgate.Engine) func(http.Handler) http.Handler {
	var cfg authgate.GateConfig
	var refreshTTL time.Duration
	if engine != nil {
		cfg = engine.GateConfig()
		refreshTTL = engine.RefreshTTL()
	}

	accessExtractors := []Extractor{FromBearerHeader()}
	if cfg.AccessCookieName != "" {
		accessExtractors = append(accessExtractors, FromCookie(cfg.AccessCookieName))
	}

	var refreshExtractors []Extractor
	if cfg.RefreshHeader != "" {
		refreshExtractors = append(refreshExtractors, FromHeader(cfg.RefreshHeader))
	}
	if cfg.RefreshCookieName != "" {
		refreshExtractors = append(refreshExtractors, FromCookie(cfg.RefreshCookieName))
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublicPath(r.URL.Path, cfg.PublicPrefixes) {
				next.ServeHTTP(w, r)
				return
			}

			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			creds := authgate.Credentials{
				AccessToken:  extractFirst(r, accessExtractors...),
				RefreshToken: extractFirst(r, refreshExtractors...),
			}

			ctx := authgate.WithClientIP(r.Context(), clientIP(r))
			res, err := engine.Authenticate(ctx, creds)
			if err != nil {
				http.Error(w, http.StatusText(statusForError(err)), statusForError(err))
				return
			}

			if res.Outcome == authgate.OutcomeRotated {
				deliverTokens(w, cfg, res.Tokens, refreshTTL)
			}

			ctx = context.WithValue(ctx, identityContextKey{}, res.Identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func isPublicPath(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// statusForError maps engine rejections onto HTTP statuses. Absent or expired
// credentials are 401 (retryable with fresh tokens), replay and unknown
// sessions are 403 (terminal), and everything else fails closed as 500.
func statusForError(err error) int {
	switch {
	case errors.Is(err, authgate.ErrMissingAccessToken),
		errors.Is(err, authgate.ErrMissingRefreshToken),
		errors.Is(err, authgate.ErrRefreshTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, authgate.ErrStaleRefreshToken),
		errors.Is(err, authgate.ErrUnknownSession):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func deliverTokens(w http.ResponseWriter, cfg authgate.GateConfig, tokens authgate.TokenPair, refreshTTL time.Duration) {
	w.Header().Set("Authorization", "Bearer "+tokens.AccessToken)

	if cfg.AccessCookieName != "" {
		http.SetCookie(w, &http.Cookie{
			Name:     cfg.AccessCookieName,
			Value:    tokens.AccessToken,
			Path:     "/",
			HttpOnly: true,
			Secure:   cfg.SecureCookies,
			SameSite: cfg.SameSitePolicy,
		})
	}
	if cfg.RefreshCookieName != "" {
		cookie := &http.Cookie{
			Name:     cfg.RefreshCookieName,
			Value:    tokens.RefreshToken,
			Path:     "/",
			HttpOnly: true,
			Secure:   cfg.SecureCookies,
			SameSite: cfg.SameSitePolicy,
		}
		if refreshTTL > 0 {
			cookie.MaxAge = int(refreshTTL / time.Second)
		}
		http.SetCookie(w, cookie)
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
