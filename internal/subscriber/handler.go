package subscriber

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// Handler exposes the subscription endpoint.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// SubscribeRequest is the POST /api/subscribe body.
type SubscribeRequest struct {
	Email string `json:"email"`
}

func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req SubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid email"})
		return
	}

	err := h.svc.Subscribe(r.Context(), req.Email)
	switch {
	case err == nil:
		h.writeJSON(w, http.StatusCreated, map[string]string{"message": "Subscribed successfully!"})
	case errors.Is(err, ErrInvalidEmail):
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid email"})
	case errors.Is(err, ErrAlreadySubscribed):
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Email already subscribed"})
	default:
		// includes ErrWelcomeNotSent: the row is committed but the caller
		// still sees a server error
		h.logger.Warnw("subscribe failed", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Subscription failed"})
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
