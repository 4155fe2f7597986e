package blog

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/digitalindian/service-site-api/internal/blog/entity"
	blogrepo "github.com/digitalindian/service-site-api/internal/blog/repo"
)

// Handler exposes public post reads and admin-only post mutations.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	posts, err := h.svc.List(r.Context())
	if err != nil {
		h.logger.Errorw("list posts failed", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load posts"})
		return
	}
	if posts == nil {
		posts = []entity.Post{}
	}
	h.writeJSON(w, http.StatusOK, posts)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	post, err := h.svc.Get(r.Context(), slug)
	if err != nil {
		if errors.Is(err, blogrepo.ErrPostNotFound) {
			h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "post not found"})
			return
		}
		h.logger.Errorw("get post failed", "slug", slug, "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load post"})
		return
	}
	h.writeJSON(w, http.StatusOK, post)
}

type postRequest struct {
	Title   string `json:"title"`
	Slug    string `json:"slug"`
	Summary string `json:"summary"`
	Content string `json:"content"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	post, err := h.svc.Create(r.Context(), &entity.Post{
		Title:   req.Title,
		Slug:    req.Slug,
		Summary: req.Summary,
		Content: req.Content,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyTitle):
			h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "title is required"})
		case errors.Is(err, blogrepo.ErrDuplicateSlug):
			h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "slug already in use"})
		default:
			h.logger.Errorw("create post failed", "err", err)
			h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create post"})
		}
		return
	}
	h.writeJSON(w, http.StatusCreated, post)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	post, err := h.svc.Update(r.Context(), slug, &entity.Post{
		Title:   req.Title,
		Summary: req.Summary,
		Content: req.Content,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyTitle):
			h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "title is required"})
		case errors.Is(err, blogrepo.ErrPostNotFound):
			h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "post not found"})
		default:
			h.logger.Errorw("update post failed", "slug", slug, "err", err)
			h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update post"})
		}
		return
	}
	h.writeJSON(w, http.StatusOK, post)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	if err := h.svc.Delete(r.Context(), slug); err != nil {
		if errors.Is(err, blogrepo.ErrPostNotFound) {
			h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "post not found"})
			return
		}
		h.logger.Errorw("delete post failed", "slug", slug, "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete post"})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
