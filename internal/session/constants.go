// Package session holds intake sessions in process memory and the cookie
// constants shared by the handler and middleware packages.
package session

const (
	// CookieName is the name of the cookie that stores the session id.
	CookieName = "fleetintake_session"

	// CookiePath ensures the cookie is sent with all requests.
	CookiePath = "/"
)
