package auth

import (
	"context"
	"net/http"
	"strings"
	"time"
)

const cookieName = "auth_token"

func (h *AuthHandler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 1. Bearer header
		tokenString, fromCookie := "", false
		if header := r.Header.Get("Authorization"); header != "" {
			bearer, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				http.Error(w, "Unauthorized: Malformed authorization header", http.StatusUnauthorized)
				return
			}
			tokenString = strings.TrimSpace(bearer)
		} else {
			// 2. Fallback to JWT Cookie
			cookie, err := r.Cookie(cookieName)
			if err != nil {
				http.Error(w, "Unauthorized: No token found", http.StatusUnauthorized)
				return
			}
			tokenString, fromCookie = cookie.Value, true
		}

		claims, err := h.parse(tokenString)
		if err != nil {
			http.Error(w, "Unauthorized: Invalid token", http.StatusUnauthorized)
			return
		}

		subject, _ := claims["sub"].(string)
		if subject == "" {
			http.Error(w, "Unauthorized: Invalid token claims", http.StatusUnauthorized)
			return
		}
		username, _ := claims["name"].(string)

		user, err := h.users.EnsureUser(r.Context(), subject, username)
		if err != nil {
			h.log.Error("failed to provision user", "subject", subject, "error", err)
			http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
			return
		}

		// Sliding session: refresh cookie tokens past half their lifetime
		if exp, ok := claims["exp"].(float64); ok && fromCookie {
			remaining := time.Until(time.Unix(int64(exp), 0))
			if remaining < TokenDuration/2 {
				if newToken, err := h.GenerateToken(subject, user.Username); err == nil {
					http.SetCookie(w, &http.Cookie{
						Name:     cookieName,
						Value:    newToken,
						Expires:  time.Now().Add(TokenDuration),
						HttpOnly: true,
						Path:     "/",
					})
				}
			}
		}

		ctx := context.WithValue(r.Context(), UserIDKey, user.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
