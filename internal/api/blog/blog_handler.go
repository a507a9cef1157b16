package blog

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	appMiddleware "github.com/gritfit/gritfit-api/app/middleware"
	"github.com/gritfit/gritfit-api/internal/api"
	"github.com/gritfit/gritfit-api/internal/types"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	ListPosts(w http.ResponseWriter, r *http.Request)
	GetPost(w http.ResponseWriter, r *http.Request)
	CreatePost(w http.ResponseWriter, r *http.Request)
	UpdatePost(w http.ResponseWriter, r *http.Request)
	DeletePost(w http.ResponseWriter, r *http.Request)
	ToggleLike(w http.ResponseWriter, r *http.Request)
	ListComments(w http.ResponseWriter, r *http.Request)
	AddComment(w http.ResponseWriter, r *http.Request)
	DeleteComment(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	blogService BlogService
	logger      *slog.Logger
}

func NewHandlerImpl(blogService BlogService, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		blogService: blogService,
		logger:      logger,
	}
}

type commentRequest struct {
	Content string `json:"content"`
}

// ListPosts godoc
// @Summary      List Blog Posts
// @Tags         Blog
// @Produce      json
// @Param        category query string false "Filter by category"
// @Success      200 {array} types.BlogPost "Posts"
// @Router       /blog/posts [get]
func (h *HandlerImpl) ListPosts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "ListPosts"))

	posts, err := h.blogService.ListPosts(ctx, types.BlogCategory(r.URL.Query().Get("category")))
	if err != nil {
		l.ErrorContext(ctx, "Failed to list posts", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to list posts")
		return
	}
	if posts == nil {
		posts = []types.BlogPost{}
	}
	api.WriteJSONResponse(w, r, http.StatusOK, posts)
}

// GetPost godoc
// @Summary      Get Blog Post
// @Description  Returns the post and counts the view.
// @Tags         Blog
// @Produce      json
// @Param        postID path string true "Post ID"
// @Success      200 {object} types.BlogPost "Post"
// @Failure      404 {object} types.Response "Not found"
// @Router       /blog/posts/{postID} [get]
func (h *HandlerImpl) GetPost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "GetPost"))

	postID, err := uuid.Parse(chi.URLParam(r, "postID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid post ID")
		return
	}

	post, err := h.blogService.GetPost(ctx, postID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, "Post not found")
			return
		}
		l.ErrorContext(ctx, "Failed to get post", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to retrieve post")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, post)
}

// CreatePost godoc
// @Summary      Create Blog Post
// @Tags         Blog
// @Accept       json
// @Produce      json
// @Param        body body types.UpsertBlogPostParams true "Post"
// @Success      201 {object} types.BlogPost "Created"
// @Security     BearerAuth
// @Router       /blog/posts [post]
func (h *HandlerImpl) CreatePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "CreatePost"))

	authorID, ok := requesterID(r)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var params types.UpsertBlogPostParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	post, err := h.blogService.CreatePost(ctx, authorID, params)
	if err != nil {
		if errors.Is(err, types.ErrValidation) {
			api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
			return
		}
		l.ErrorContext(ctx, "Failed to create post", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to create post")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusCreated, post)
}

// UpdatePost godoc
// @Summary      Update Blog Post
// @Tags         Blog
// @Accept       json
// @Produce      json
// @Param        postID path string true "Post ID"
// @Param        body body types.UpsertBlogPostParams true "Post"
// @Success      200 {object} types.BlogPost "Updated"
// @Failure      403 {object} types.Response "Not yours"
// @Security     BearerAuth
// @Router       /blog/posts/{postID} [put]
func (h *HandlerImpl) UpdatePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "UpdatePost"))

	userID, ok := requesterID(r)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	postID, err := uuid.Parse(chi.URLParam(r, "postID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid post ID")
		return
	}

	var params types.UpsertBlogPostParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	role, _ := appMiddleware.GetUserRoleFromContext(ctx)
	post, err := h.blogService.UpdatePost(ctx, userID, types.UserRole(role), postID, params)
	if err != nil {
		switch {
		case errors.Is(err, types.ErrValidation):
			api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		case errors.Is(err, types.ErrNotFound):
			api.ErrorResponse(w, r, http.StatusNotFound, "Post not found")
		case errors.Is(err, types.ErrForbidden):
			api.ErrorResponse(w, r, http.StatusForbidden, "You cannot edit this post")
		default:
			l.ErrorContext(ctx, "Failed to update post", slog.Any("error", err))
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to update post")
		}
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, post)
}

// DeletePost godoc
// @Summary      Delete Blog Post
// @Tags         Blog
// @Produce      json
// @Param        postID path string true "Post ID"
// @Success      200 {object} types.Response "Deleted"
// @Failure      403 {object} types.Response "Not yours"
// @Security     BearerAuth
// @Router       /blog/posts/{postID} [delete]
func (h *HandlerImpl) DeletePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "DeletePost"))

	userID, ok := requesterID(r)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	postID, err := uuid.Parse(chi.URLParam(r, "postID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid post ID")
		return
	}

	role, _ := appMiddleware.GetUserRoleFromContext(ctx)
	if err := h.blogService.DeletePost(ctx, userID, types.UserRole(role), postID); err != nil {
		switch {
		case errors.Is(err, types.ErrNotFound):
			api.ErrorResponse(w, r, http.StatusNotFound, "Post not found")
		case errors.Is(err, types.ErrForbidden):
			api.ErrorResponse(w, r, http.StatusForbidden, "You cannot delete this post")
		default:
			l.ErrorContext(ctx, "Failed to delete post", slog.Any("error", err))
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to delete post")
		}
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{Success: true, Message: "Post deleted"})
}

// ToggleLike godoc
// @Summary      Toggle Post Like
// @Tags         Blog
// @Produce      json
// @Param        postID path string true "Post ID"
// @Success      200 {object} LikeResult "New like state"
// @Security     BearerAuth
// @Router       /blog/posts/{postID}/like [post]
func (h *HandlerImpl) ToggleLike(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "ToggleLike"))

	userID, ok := requesterID(r)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	postID, err := uuid.Parse(chi.URLParam(r, "postID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid post ID")
		return
	}

	result, err := h.blogService.ToggleLike(ctx, postID, userID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to toggle like", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to toggle like")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, result)
}

// ListComments godoc
// @Summary      List Post Comments
// @Tags         Blog
// @Produce      json
// @Param        postID path string true "Post ID"
// @Success      200 {array} types.BlogComment "Comments"
// @Router       /blog/posts/{postID}/comments [get]
func (h *HandlerImpl) ListComments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "ListComments"))

	postID, err := uuid.Parse(chi.URLParam(r, "postID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid post ID")
		return
	}

	comments, err := h.blogService.ListComments(ctx, postID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to list comments", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to list comments")
		return
	}
	if comments == nil {
		comments = []types.BlogComment{}
	}
	api.WriteJSONResponse(w, r, http.StatusOK, comments)
}

// AddComment godoc
// @Summary      Comment on Post
// @Tags         Blog
// @Accept       json
// @Produce      json
// @Param        postID path string true "Post ID"
// @Param        body body commentRequest true "Comment"
// @Success      201 {object} types.BlogComment "Created"
// @Security     BearerAuth
// @Router       /blog/posts/{postID}/comments [post]
func (h *HandlerImpl) AddComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "AddComment"))

	userID, ok := requesterID(r)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	postID, err := uuid.Parse(chi.URLParam(r, "postID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid post ID")
		return
	}

	var req commentRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	comment, err := h.blogService.AddComment(ctx, postID, userID, req.Content)
	if err != nil {
		if errors.Is(err, types.ErrValidation) {
			api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
			return
		}
		l.ErrorContext(ctx, "Failed to add comment", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to add comment")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusCreated, comment)
}

// DeleteComment godoc
// @Summary      Delete Comment
// @Description  Removes the user's own comment; admins can remove any.
// @Tags         Blog
// @Produce      json
// @Param        commentID path string true "Comment ID"
// @Success      200 {object} types.Response "Deleted"
// @Failure      403 {object} types.Response "Not yours"
// @Security     BearerAuth
// @Router       /blog/comments/{commentID} [delete]
func (h *HandlerImpl) DeleteComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "DeleteComment"))

	userID, ok := requesterID(r)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	commentID, err := uuid.Parse(chi.URLParam(r, "commentID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid comment ID")
		return
	}

	role, _ := appMiddleware.GetUserRoleFromContext(ctx)
	if err := h.blogService.DeleteComment(ctx, userID, types.UserRole(role), commentID); err != nil {
		switch {
		case errors.Is(err, types.ErrNotFound):
			api.ErrorResponse(w, r, http.StatusNotFound, "Comment not found")
		case errors.Is(err, types.ErrForbidden):
			api.ErrorResponse(w, r, http.StatusForbidden, "You cannot delete this comment")
		default:
			l.ErrorContext(ctx, "Failed to delete comment", slog.Any("error", err))
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to delete comment")
		}
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{Success: true, Message: "Comment deleted"})
}

func requesterID(r *http.Request) (uuid.UUID, bool) {
	userIDStr, ok := appMiddleware.GetUserIDFromContext(r.Context())
	if !ok || userIDStr == "" {
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, false
	}
	return userID, true
}
