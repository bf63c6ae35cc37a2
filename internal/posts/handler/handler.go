package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"postgate/internal/authz"
	"postgate/internal/posts/models"
	dErrors "postgate/pkg/domain-errors"
	"postgate/pkg/platform/httputil"
	"postgate/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks

// Service defines the post operations the handler needs.
type Service interface {
	Create(ctx context.Context, identity authz.Identity, req *models.CreatePostRequest) (*models.Post, error)
	Get(ctx context.Context, identity authz.Identity, id int64) (*models.Post, error)
	List(ctx context.Context, identity authz.Identity, filter models.ListFilter) ([]*models.Post, error)
	Update(ctx context.Context, identity authz.Identity, id int64, req *models.UpdatePostRequest) (*models.Post, error)
	Delete(ctx context.Context, identity authz.Identity, id int64) error
}

type Handler struct {
	posts  Service
	logger *slog.Logger
}

func New(posts Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{posts: posts, logger: logger}
}

// Register mounts the post routes. They expect an authenticated request context.
func (h *Handler) Register(r chi.Router) {
	r.Route("/posts", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Get("/", h.HandleList)
		r.Get("/{id}", h.HandleGet)
		r.Put("/{id}", h.HandleUpdate)
		r.Delete("/{id}", h.HandleDelete)
	})
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[models.CreatePostRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	post, err := h.posts.Create(ctx, identity, req)
	if err != nil {
		h.writeError(ctx, w, "create post failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, models.NewPostResponse(post))
}

// HandleList accepts author_id any number of times.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}

	var filter models.ListFilter
	for _, raw := range r.URL.Query()["author_id"] {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "author_id must be an integer"))
			return
		}
		filter.AuthorIDs = append(filter.AuthorIDs, id)
	}

	posts, err := h.posts.List(ctx, identity, filter)
	if err != nil {
		h.writeError(ctx, w, "list posts failed", err)
		return
	}
	resp := make([]models.PostResponse, 0, len(posts))
	for _, p := range posts {
		resp = append(resp, models.NewPostResponse(p))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}
	id, ok := postID(w, r)
	if !ok {
		return
	}

	post, err := h.posts.Get(ctx, identity, id)
	if err != nil {
		h.writeError(ctx, w, "get post failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.NewPostResponse(post))
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}
	id, ok := postID(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[models.UpdatePostRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	post, err := h.posts.Update(ctx, identity, id, req)
	if err != nil {
		h.writeError(ctx, w, "update post failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.NewPostResponse(post))
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}
	id, ok := postID(w, r)
	if !ok {
		return
	}

	if err := h.posts.Delete(ctx, identity, id); err != nil {
		h.writeError(ctx, w, "delete post failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.DeleteResponse{Message: "Post deleted successfully"})
}

// identity builds the authorization identity from the authenticated context.
func (h *Handler) identity(w http.ResponseWriter, r *http.Request) (authz.Identity, bool) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)
	if userID == 0 {
		h.logger.WarnContext(ctx, "post route reached without an authenticated user",
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "not authenticated"))
		return authz.Identity{}, false
	}
	return authz.UserIdentity(userID, requestcontext.Role(ctx)), true
}

func postID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "post id must be a positive integer"))
		return 0, false
	}
	return id, true
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	requestID := requestcontext.RequestID(ctx)
	switch dErrors.CodeOf(err) {
	case dErrors.CodeInternal:
		h.logger.ErrorContext(ctx, msg, "error", err, "request_id", requestID)
	case dErrors.CodeForbidden:
		h.logger.InfoContext(ctx, msg, "reason", "forbidden", "request_id", requestID)
	default:
		h.logger.DebugContext(ctx, msg, "error", err, "request_id", requestID)
	}
	httputil.WriteError(w, err)
}
