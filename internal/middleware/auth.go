package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/organcare/webapp/internal/domain/session"
)

type contextKey string

const (
	sessionKey   contextKey = "session"
	browserIDKey contextKey = "browser_id"
)

// Claims is the token payload issued by the external auth service.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

// SessionAuth extracts the auth token from the "token" cookie (preferred) or
// the Authorization Bearer header and, when valid, injects the session into
// the request context. Invalid or missing tokens are ignored here — the
// submission workflow and RequireSession enforce authentication where it is
// actually required.
func SessionAuth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := tokenFromRequest(r)
			if tokenStr == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := parseToken(secret, tokenStr)
			if err != nil {
				// Clear the stale cookie so the browser stops sending it.
				http.SetCookie(w, &http.Cookie{Name: "token", MaxAge: -1, Path: "/"})
				next.ServeHTTP(w, r)
				return
			}

			sess := &session.Session{
				Token: tokenStr,
				User: session.User{
					ID:    claims.UserID,
					Email: claims.Email,
					Name:  claims.Name,
				},
			}
			if claims.IssuedAt != nil {
				sess.IssuedAt = claims.IssuedAt.Time
			}
			if claims.ExpiresAt != nil {
				sess.ExpiresAt = claims.ExpiresAt.Time
			}

			ctx := context.WithValue(r.Context(), sessionKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func tokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie("token"); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

// parseToken validates the token with the signing method pinned to HS256.
func parseToken(secret []byte, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// SessionFrom returns the authenticated session from the context, or nil.
func SessionFrom(ctx context.Context) *session.Session {
	s, _ := ctx.Value(sessionKey).(*session.Session)
	return s
}

// RequireSession redirects unauthenticated requests to the sign-in route.
func RequireSession(signinURL string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if SessionFrom(r.Context()) == nil {
				http.Redirect(w, r, signinURL, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// BrowserID gives every visitor a stable "sid" cookie so staging can start
// before sign-in. The id keys the per-session form workspace.
func BrowserID(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sid := ""
			if c, err := r.Cookie("sid"); err == nil && c.Value != "" {
				sid = c.Value
			} else {
				sid = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     "sid",
					Value:    sid,
					Path:     "/",
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
					Secure:   secure,
				})
			}
			ctx := context.WithValue(r.Context(), browserIDKey, sid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BrowserIDFrom returns the visitor id set by BrowserID.
func BrowserIDFrom(ctx context.Context) string {
	sid, _ := ctx.Value(browserIDKey).(string)
	return sid
}

// ClearSessionCookies removes the auth and visitor cookies on signout.
func ClearSessionCookies(w http.ResponseWriter, domain string) {
	for _, name := range []string{"token", "sid"} {
		c := &http.Cookie{Name: name, Value: "", Path: "/", MaxAge: -1, HttpOnly: true}
		if domain != "" {
			c.Domain = domain
		}
		http.SetCookie(w, c)
	}
}
