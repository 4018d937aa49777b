package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/devconnector/internal/model"
	"github.com/sakif/devconnector/internal/service"
)

// PostService is what PostHandler needs from the service layer.
type PostService interface {
	Create(ctx context.Context, author, text string) (*model.Post, error)
	Get(ctx context.Context, id string) (*model.Post, error)
	ListAll(ctx context.Context) ([]model.Post, error)
	ListByAuthor(ctx context.Context, author string) ([]model.Post, error)
	UpdateText(ctx context.Context, actor, id, text string) (*model.Post, error)
	Delete(ctx context.Context, actor, id string) error
	ToggleLike(ctx context.Context, actor, id string) ([]model.Like, error)
	AddComment(ctx context.Context, actor, id, text string) ([]model.Comment, error)
	RemoveComment(ctx context.Context, actor, postID, commentID string) ([]model.Comment, error)
	UpdateComment(ctx context.Context, actor, postID, commentID, text string) (*model.Post, error)
}

var _ PostService = (*service.PostService)(nil)

type PostHandler struct {
	service PostService
	logger  *slog.Logger
}

func NewPostHandler(svc PostService, logger *slog.Logger) *PostHandler {
	return &PostHandler{service: svc, logger: logger}
}

// textRequest is the body of every post and comment write.
type textRequest struct {
	Text string `json:"text"`
}

func (h *PostHandler) decodeText(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req textRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.Warn("invalid post JSON", slog.String("error", err.Error()))
		writeError(w, err)
		return "", false
	}
	return req.Text, true
}

// HandleCreate handles POST /api/posts.
func (h *PostHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	author, ok := actor(w, r)
	if !ok {
		return
	}
	text, ok := h.decodeText(w, r)
	if !ok {
		return
	}

	post, err := h.service.Create(r.Context(), author, text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

// HandleList handles GET /api/posts.
func (h *PostHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	posts, err := h.service.ListAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// HandleListMine handles GET /api/posts/me.
func (h *PostHandler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	author, ok := actor(w, r)
	if !ok {
		return
	}
	posts, err := h.service.ListByAuthor(r.Context(), author)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// HandleGet handles GET /api/posts/{id}.
func (h *PostHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	post, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// HandleUpdate handles PUT /api/posts/{id}.
func (h *PostHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	who, ok := actor(w, r)
	if !ok {
		return
	}
	text, ok := h.decodeText(w, r)
	if !ok {
		return
	}

	post, err := h.service.UpdateText(r.Context(), who, chi.URLParam(r, "id"), text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// HandleDelete handles DELETE /api/posts/{id}.
func (h *PostHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	who, ok := actor(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), who, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Post removed"})
}

// HandleToggleLike handles PUT /api/posts/{id}/like and returns the likes.
func (h *PostHandler) HandleToggleLike(w http.ResponseWriter, r *http.Request) {
	who, ok := actor(w, r)
	if !ok {
		return
	}
	likes, err := h.service.ToggleLike(r.Context(), who, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, likes)
}

// HandleAddComment handles POST /api/posts/{id}/comments and returns the
// comments.
func (h *PostHandler) HandleAddComment(w http.ResponseWriter, r *http.Request) {
	who, ok := actor(w, r)
	if !ok {
		return
	}
	text, ok := h.decodeText(w, r)
	if !ok {
		return
	}

	comments, err := h.service.AddComment(r.Context(), who, chi.URLParam(r, "id"), text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, comments)
}

// HandleUpdateComment handles PUT /api/posts/{id}/comments/{commentID}.
func (h *PostHandler) HandleUpdateComment(w http.ResponseWriter, r *http.Request) {
	who, ok := actor(w, r)
	if !ok {
		return
	}
	text, ok := h.decodeText(w, r)
	if !ok {
		return
	}

	post, err := h.service.UpdateComment(r.Context(), who,
		chi.URLParam(r, "id"), chi.URLParam(r, "commentID"), text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// HandleRemoveComment handles DELETE /api/posts/{id}/comments/{commentID}.
func (h *PostHandler) HandleRemoveComment(w http.ResponseWriter, r *http.Request) {
	who, ok := actor(w, r)
	if !ok {
		return
	}
	comments, err := h.service.RemoveComment(r.Context(), who,
		chi.URLParam(r, "id"), chi.URLParam(r, "commentID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}
