package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"log/slog"
	"net/http"
)

// MetricsAuthMiddleware gates /metrics behind basic auth. With no
// credentials configured the endpoint is open.
type MetricsAuthMiddleware struct {
	digest  [sha256.Size]byte
	enabled bool
	logger  *slog.Logger
}

func NewMetricsAuthMiddleware(username, password string, logger *slog.Logger) *MetricsAuthMiddleware {
	return &MetricsAuthMiddleware{
		digest:  credentialDigest(username, password),
		enabled: username != "" || password != "",
		logger:  logger,
	}
}

// Enabled reports whether credentials are required.
func (m *MetricsAuthMiddleware) Enabled() bool {
	return m.enabled
}

// credentialDigest hashes the pair so the comparison runs over equal
// length inputs.
func credentialDigest(username, password string) [sha256.Size]byte {
	return sha256.Sum256([]byte(username + "\x00" + password))
}

func (m *MetricsAuthMiddleware) authorized(r *http.Request) bool {
	user, pass, ok := r.BasicAuth()
	if !ok {
		return false
	}
	got := credentialDigest(user, pass)
	if subtle.ConstantTimeCompare(got[:], m.digest[:]) == 1 {
		return true
	}
	m.logger.Warn("metrics auth failed", "ip", getClientIP(r))
	return false
}

func (m *MetricsAuthMiddleware) Handler(next http.Handler) http.Handler {
	if !m.enabled {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.authorized(r) {
			w.Header().Set("WWW-Authenticate", `Basic realm="metrics"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
