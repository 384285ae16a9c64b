package web

import (
	"context"
	"net/http"
	"strings"
	"time"

	"glass-shop/internal/app"
	"glass-shop/internal/auth"
	"glass-shop/internal/core"
)

type (
	claimsKey  struct{}
	sessionKey struct{}
)

// claimsFromContext returns the verified token claims stored in ctx, or nil.
func claimsFromContext(ctx context.Context) *auth.Claims {
	v, _ := ctx.Value(claimsKey{}).(*auth.Claims)
	return v
}

// sessionFromContext returns the caller's session set by LoadShop.
func sessionFromContext(ctx context.Context) (app.Session, bool) {
	v, ok := ctx.Value(sessionKey{}).(app.Session)
	return v, ok
}

// RequireAuth validates the "Authorization: Bearer <token>" header and injects the
// claims into the request context. Returns 401 if the token is absent or invalid.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			writeError(w, r, "authentication required", "UNAUTHORIZED", http.StatusUnauthorized)
			return
		}

		claims, err := h.tokens.Parse(strings.TrimSpace(raw))
		if err != nil {
			writeError(w, r, "invalid or expired token", "UNAUTHORIZED", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// LoadShop resolves the token subject to an active user and their shop.
// It must run after RequireAuth.
func (h *Handler) LoadShop(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFromContext(r.Context())
		if claims == nil {
			writeError(w, r, "authentication required", "UNAUTHORIZED", http.StatusUnauthorized)
			return
		}
		sess, err := h.svc.ResolveSession(r.Context(), claims.Username)
		if err != nil {
			h.handleError(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), sessionKey{}, *sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole rejects callers whose role is not in allowed with 403. Both the role
// carried in the token and the user's current stored role must be allowed.
// Role names are compared after normalization, so "ROLE_ADMIN" and "admin" match.
func RequireRole(allowed ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := claimsFromContext(r.Context())
			sess, ok := sessionFromContext(r.Context())
			if claims == nil || !ok {
				writeError(w, r, "authentication required", "UNAUTHORIZED", http.StatusUnauthorized)
				return
			}
			if !auth.HasRole(claims.Role, allowed...) || !auth.HasRole(sess.Role, allowed...) {
				writeError(w, r, "insufficient role for this action", "FORBIDDEN", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type loginResponse struct {
	Token     string     `json:"token"`
	TokenType string     `json:"token_type"`
	ExpiresAt time.Time  `json:"expires_at"`
	User      *core.User `json:"user"`
	Shop      *core.Shop `json:"shop"`
}

func newLoginResponse(res *app.LoginResult) loginResponse {
	return loginResponse{
		Token:     res.Token,
		TokenType: "Bearer",
		ExpiresAt: res.ExpiresAt,
		User:      res.User,
		Shop:      res.Shop,
	}
}

// login handles POST /auth/login.
func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.svc.Login(r.Context(), app.LoginRequest{Username: req.Username, Password: req.Password})
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, newLoginResponse(res))
}

// registerShop handles POST /auth/register-shop.
func (h *Handler) registerShop(w http.ResponseWriter, r *http.Request) {
	var req struct {
		shopBody
		Username string `json:"username"`
		FullName string `json:"full_name"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.svc.RegisterShop(r.Context(), app.RegisterShopRequest{
		Shop:     req.shopBody.input(),
		Username: req.Username,
		FullName: req.FullName,
		Password: req.Password,
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, newLoginResponse(res))
}

// me handles GET /auth/me.
func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFromContext(r.Context())
	user, err := h.svc.Me(r.Context(), sess)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, user)
}

// changePassword handles PUT /auth/password.
func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	sess, _ := sessionFromContext(r.Context())
	err := h.svc.ChangePassword(r.Context(), sess, app.ChangePasswordRequest{
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
