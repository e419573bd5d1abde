package middleware

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/DukeRupert/fleetintake/internal/session"
)

// SessionLookup reports whether a session is still held in memory.
type SessionLookup interface {
	Exists(id string) bool
}

// SessionMiddleware gives every browser a session id cookie.
type SessionMiddleware struct {
	sessions SessionLookup
	logger   *slog.Logger
	isSecure bool // Whether to set Secure flag on cookies (true in production)
}

// NewSessionMiddleware creates a new SessionMiddleware.
func NewSessionMiddleware(sessions SessionLookup, logger *slog.Logger, isSecure bool) *SessionMiddleware {
	return &SessionMiddleware{
		sessions: sessions,
		logger:   logger,
		isSecure: isSecure,
	}
}

// WithSession resolves the session cookie and stores the id in the request
// context (see session.IDFromContext).
//
// A missing or malformed cookie is replaced by a fresh uuid. A well-formed
// id whose session has been evicted is kept; the store starts a blank
// session under it on the next event.
func (m *SessionMiddleware) WithSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if cookie, err := r.Cookie(session.CookieName); err == nil {
			if parsed, err := uuid.Parse(cookie.Value); err == nil {
				id = parsed.String()
			}
		}

		switch {
		case id == "":
			id = uuid.NewString()
			SetSessionCookie(w, id, m.isSecure)
		case !m.sessions.Exists(id):
			m.logger.DebugContext(r.Context(), "session not found, starting over", "session_id", id)
		}

		next.ServeHTTP(w, r.WithContext(session.WithID(r.Context(), id)))
	})
}

// SetSessionCookie sets the session cookie on the response.
//
// The cookie has no Max-Age and ends with the browser session; idle
// sessions are evicted server side. HttpOnly keeps it away from scripts and
// SameSite=Lax keeps it off cross-site POSTs.
func SetSessionCookie(w http.ResponseWriter, id string, isSecure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    id,
		Path:     session.CookiePath,
		HttpOnly: true,
		Secure:   isSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

var _ func(http.Handler) http.Handler = (&SessionMiddleware{}).WithSession
