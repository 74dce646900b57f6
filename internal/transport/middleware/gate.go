package middleware

import (
	"net/http"
	"strings"

	"github.com/timeR3/ToolCTV/internal/auth"
)

// publicPaths are reachable without a session. Everything else under the
// gate is protected.
var publicPaths = []string{
	"/login",
	"/register",
}

// skipPrefixes bypass the gate entirely. API routes carry their own session
// middleware and answer 401 instead of redirecting; the rest are
// infrastructure endpoints.
var skipPrefixes = []string{
	"/api/",
	"/swagger/",
	"/openapi",
	"/favicon",
	"/static/",
}

// Gate guards page navigation. It only decodes the session cookie, never
// touching the store: a syntactically valid, unexpired token passes, and the
// handler behind it resolves the real user. Unauthenticated requests to
// protected paths are redirected to /login with the stale cookie cleared;
// authenticated requests to the public auth pages bounce back to /.
func Gate(sessions *auth.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path

			for _, prefix := range skipPrefixes {
				if strings.HasPrefix(path, prefix) {
					next.ServeHTTP(w, r)
					return
				}
			}

			claims := sessions.FromRequest(r)

			if isPublicPath(path) {
				if claims != nil {
					http.Redirect(w, r, "/", http.StatusSeeOther)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			if claims == nil {
				sessions.Revoke(w)
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// isPublicPath matches / exactly and other entries by prefix, so nested
// routes under a public page stay public.
func isPublicPath(path string) bool {
	for _, public := range publicPaths {
		if public == "/" {
			if path == "/" {
				return true
			}
			continue
		}
		if path == public || strings.HasPrefix(path, public+"/") {
			return true
		}
	}
	return false
}
