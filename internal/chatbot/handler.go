package chatbot

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// Handler exposes the chat endpoint.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

type chatRequest struct {
	Message string `json:"message"`
}

func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"reply": "I'm sorry, I couldn't read that message."})
		return
	}

	reply, err := h.svc.Reply(r.Context(), req.Message)
	if err != nil {
		switch {
		case errors.Is(err, ErrNoAPIKey):
			h.logger.Error("generative api key is not configured")
			h.writeJSON(w, http.StatusInternalServerError, map[string]string{
				"reply": "I'm sorry, my API key is not configured. Please contact the administrator.",
			})
		default:
			h.logger.Errorw("chat reply failed", "err", err)
			h.writeJSON(w, http.StatusInternalServerError, map[string]string{
				"reply": "I'm sorry, I couldn't process that request right now. Please try again later.",
			})
		}
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
