package middleware

import (
	"log/slog"
	"net/http"

	"github.com/DukeRupert/fleetintake/internal/csrf"
	"github.com/DukeRupert/fleetintake/internal/domain"
	"github.com/DukeRupert/fleetintake/internal/handler"
)

// CSRFMiddleware enforces the double-submit token on state-changing
// requests.
type CSRFMiddleware struct {
	logger   *slog.Logger
	isSecure bool
}

// NewCSRFMiddleware creates a new CSRFMiddleware.
func NewCSRFMiddleware(logger *slog.Logger, isSecure bool) *CSRFMiddleware {
	return &CSRFMiddleware{
		logger:   logger,
		isSecure: isSecure,
	}
}

// Protect issues a token on safe requests and rejects unsafe requests whose
// submitted token does not match the cookie. The token is stored in the
// request context for templates (csrf.TokenFromContext).
func (m *CSRFMiddleware) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		const op = "middleware.csrf"

		if isSafeMethod(r.Method) {
			token := csrf.EnsureToken(w, r, m.isSecure)
			next.ServeHTTP(w, r.WithContext(csrf.WithToken(r.Context(), token)))
			return
		}

		if !csrf.ValidateRequest(r) {
			m.logger.WarnContext(r.Context(), "csrf token rejected",
				"path", r.URL.Path,
				"method", r.Method,
				"ip", getClientIP(r),
			)
			handler.ErrorResponse(w, r, m.logger, domain.Forbidden(op, "Your form has expired. Reload the page and try again."))
			return
		}

		token := csrf.GetTokenFromRequest(r)
		next.ServeHTTP(w, r.WithContext(csrf.WithToken(r.Context(), token)))
	})
}

var _ func(http.Handler) http.Handler = (&CSRFMiddleware{}).Protect
