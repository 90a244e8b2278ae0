package middleware

import (
	"crypto/subtle"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/sendgate/sendgate/pkg/crypto"
	"github.com/sendgate/sendgate/pkg/logger"
	"github.com/sendgate/sendgate/pkg/ratelimiter"
)

// opsAuthNamespace keys failed-attempt counters in the rate limiter
const opsAuthNamespace = "ops_auth"

// BasicAuthConfig holds the configuration for the ops auth middleware
type BasicAuthConfig struct {
	Username     string
	PasswordHash string // bcrypt hash of the ops password
	Limiter      *ratelimiter.RateLimiter
	Logger       logger.Logger
}

// BasicAuth guards the operator endpoints. Credentials come from
// configuration; failed attempts are rate limited per client address so the
// hash cannot be brute forced online.
type BasicAuth struct {
	username     string
	passwordHash []byte
	limiter      *ratelimiter.RateLimiter
	logger       logger.Logger
}

// NewBasicAuth creates the middleware and registers its failure policy with
// the shared rate limiter
func NewBasicAuth(cfg BasicAuthConfig) *BasicAuth {
	cfg.Limiter.SetPolicy(opsAuthNamespace, 10, time.Minute)
	if cfg.PasswordHash == "" {
		cfg.Logger.Warn("Ops auth: no password hash configured - operator endpoints are unauthenticated")
	}
	return &BasicAuth{
		username:     cfg.Username,
		passwordHash: []byte(cfg.PasswordHash),
		limiter:      cfg.Limiter,
		logger:       cfg.Logger,
	}
}

// RequireAuth wraps a handler with basic auth verification. Without a
// configured password hash the wrapper is a pass-through, which only makes
// sense in development.
func (a *BasicAuth) RequireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(a.passwordHash) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientAddr := clientIP(r)

			if !a.limiter.Allow(opsAuthNamespace, clientAddr) {
				retryAfter := a.limiter.GetRemainingWindow(opsAuthNamespace, clientAddr)
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				a.logger.WithField("client", clientAddr).Warn("Ops auth: too many failed attempts")
				http.Error(w, "Too many failed attempts", http.StatusTooManyRequests)
				return
			}

			username, password, ok := r.BasicAuth()
			if !ok || !a.verify(username, password) {
				a.logger.WithFields(map[string]interface{}{
					"client":   clientAddr,
					"username": username,
				}).Warn("Ops auth: invalid credentials")
				w.Header().Set("WWW-Authenticate", `Basic realm="sendgate ops"`)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			// A successful login clears the client's failure window
			a.limiter.Reset(opsAuthNamespace, clientAddr)
			next.ServeHTTP(w, r)
		})
	}
}

func (a *BasicAuth) verify(username, password string) bool {
	if subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) != 1 {
		return false
	}
	return crypto.CheckPasswordHash(password, string(a.passwordHash))
}

// clientIP extracts the remote address without the port
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
