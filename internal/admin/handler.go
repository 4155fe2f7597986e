package admin

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// Handler exposes the admin login endpoint and the auth middleware for
// blog mutations.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid payload"})
		return
	}

	if err := h.svc.Authenticate(req.Username, req.Password); err != nil {
		h.logger.Debugw("admin login failed", "username", req.Username)
		h.writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "error": "Invalid credentials"})
		return
	}

	token, err := h.svc.IssueToken(req.Username)
	if err != nil {
		h.logger.Errorw("token issue failed", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "login failed"})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"token":   token,
		"user": map[string]string{
			"id":       "1",
			"username": req.Username,
			"role":     "admin",
		},
	})
}

// RequireAdmin guards mutating endpoints with the session token.
func (h *Handler) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := BearerToken(r.Header.Get("Authorization"))
		if token == "" {
			h.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing token"})
			return
		}
		if _, err := h.svc.ValidateToken(token); err != nil {
			h.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
			return
		}
		next(w, r)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
