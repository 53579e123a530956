package auth

import "time"

// Cookie names.
const (
	CookieToken     = "VCLAUTH"
	CookieSelection = "VCLAUTHSEL"
	CookieSkin      = "VCLSKIN"
)

const (
	selectionLifetime = 365 * 24 * time.Hour
	skinLifetime      = 31 * 24 * time.Hour
)

// Cookie is a cookie instruction for the web layer. A zero Expires means a
// session cookie. Clear instructs the web layer to expire the cookie.
type Cookie struct {
	Name     string
	Value    string
	Expires  time.Time
	HTTPOnly bool
	Clear    bool
}

// TokenCookie carries the auth token. It has no expiry of its own, the token's
// embedded expiry governs validity.
func TokenCookie(t *AuthToken) Cookie {
	return Cookie{Name: CookieToken, Value: t.Value, HTTPOnly: true}
}

// SkinCookie carries the theme of the user's affiliation.
func SkinCookie(theme string, now time.Time) Cookie {
	return Cookie{Name: CookieSkin, Value: theme, Expires: now.Add(skinLifetime)}
}

// SelectionCookie remembers the selected mechanism key.
func SelectionCookie(key string, now time.Time) Cookie {
	return Cookie{Name: CookieSelection, Value: key, Expires: now.Add(selectionLifetime)}
}

// ClearCookie expires the cookie called name.
func ClearCookie(name string) Cookie {
	return Cookie{Name: name, Clear: true}
}
