package auth

import (
	"net/http"
	"time"
)

// SessionCookieName is the cookie carrying the encoded session token.
const SessionCookieName = "session"

// SessionManager bridges the token codec to the cookie transport. It is
// stateless per request; the only shared state is the codec's static secret.
type SessionManager struct {
	codec  *SessionCodec
	secure bool
}

// NewSessionManager builds a manager. secure controls the cookie's Secure
// attribute and should be true everywhere except local development.
func NewSessionManager(codec *SessionCodec, secure bool) *SessionManager {
	return &SessionManager{codec: codec, secure: secure}
}

// Codec exposes the underlying codec, mainly for the request gate which
// needs decode-only access.
func (m *SessionManager) Codec() *SessionCodec {
	return m.codec
}

// FromRequest reads and verifies the session cookie. Absent cookie or any
// decode failure collapses to nil: callers never distinguish "no cookie"
// from "bad cookie".
func (m *SessionManager) FromRequest(r *http.Request) *SessionClaims {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}

	claims, err := m.codec.Decode(cookie.Value)
	if err != nil {
		return nil
	}

	return claims
}

// Issue encodes a fresh session and sets the cookie on the response. The
// cookie expiry always matches the token expiry.
func (m *SessionManager) Issue(w http.ResponseWriter, userID int64, email string, role Role) (time.Time, error) {
	token, expiresAt, err := m.codec.Encode(userID, email, role)
	if err != nil {
		return time.Time{}, err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Expires:  expiresAt,
		HttpOnly: true,
		Path:     "/",
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})

	return expiresAt, nil
}

// Revoke clears the session cookie. Idempotent: revoking an absent session
// produces the same observable state.
func (m *SessionManager) Revoke(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Path:     "/",
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
