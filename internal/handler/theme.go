package handler

import (
	"net/http"
)

// ThemeCookieName stores the colour scheme preference. It is not tied to
// the session, so it survives resets and session expiry.
const ThemeCookieName = "intake_theme"

const (
	ThemeLight = "light"
	ThemeDark  = "dark"

	themeCookieMaxAge = 365 * 24 * 60 * 60
)

// themeFromRequest returns the stored theme, light when unset or unknown.
func themeFromRequest(r *http.Request) string {
	if c, err := r.Cookie(ThemeCookieName); err == nil && c.Value == ThemeDark {
		return ThemeDark
	}
	return ThemeLight
}

// =============================================================================
// POST /theme
// =============================================================================

// ToggleTheme flips between the light and dark scheme. The session itself
// is left alone.
func (h *IntakeHandler) ToggleTheme(w http.ResponseWriter, r *http.Request) {
	next := ThemeDark
	if themeFromRequest(r) == ThemeDark {
		next = ThemeLight
	}

	http.SetCookie(w, &http.Cookie{
		Name:     ThemeCookieName,
		Value:    next,
		Path:     "/",
		MaxAge:   themeCookieMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	switch {
	case acceptsJSON(r):
		writeJSON(w, http.StatusOK, map[string]string{"theme": next})
	case isHTMX(r):
		// The class lives on <body>, outside the swapped #screen.
		w.Header().Set("HX-Refresh", "true")
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}
