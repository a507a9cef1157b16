package blog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/gritfit/gritfit-api/internal/types"
)

var _ BlogService = (*BlogServiceImpl)(nil)

// LikeResult is the outcome of a like toggle.
type LikeResult struct {
	Liked bool `json:"liked"`
	Likes int  `json:"likes"`
}

// BlogService defines the business logic contract for blog content.
type BlogService interface {
	ListPosts(ctx context.Context, category types.BlogCategory) ([]types.BlogPost, error)
	// GetPost returns the post and counts the view.
	GetPost(ctx context.Context, postID uuid.UUID) (*types.BlogPost, error)
	CreatePost(ctx context.Context, authorID uuid.UUID, params types.UpsertBlogPostParams) (*types.BlogPost, error)
	// UpdatePost edits the requester's own post; admins can edit any.
	UpdatePost(ctx context.Context, requesterID uuid.UUID, requesterRole types.UserRole, postID uuid.UUID, params types.UpsertBlogPostParams) (*types.BlogPost, error)
	// DeletePost removes the requester's own post; admins can remove any.
	DeletePost(ctx context.Context, requesterID uuid.UUID, requesterRole types.UserRole, postID uuid.UUID) error

	ToggleLike(ctx context.Context, postID, userID uuid.UUID) (*LikeResult, error)

	ListComments(ctx context.Context, postID uuid.UUID) ([]types.BlogComment, error)
	AddComment(ctx context.Context, postID, userID uuid.UUID, content string) (*types.BlogComment, error)
	// DeleteComment removes the user's own comment; admins can remove any.
	DeleteComment(ctx context.Context, requesterID uuid.UUID, requesterRole types.UserRole, commentID uuid.UUID) error
}

type BlogServiceImpl struct {
	logger *slog.Logger
	repo   BlogRepo
}

func NewBlogService(repo BlogRepo, logger *slog.Logger) *BlogServiceImpl {
	return &BlogServiceImpl{
		logger: logger,
		repo:   repo,
	}
}

func (s *BlogServiceImpl) ListPosts(ctx context.Context, category types.BlogCategory) ([]types.BlogPost, error) {
	return s.repo.ListPosts(ctx, category)
}

func (s *BlogServiceImpl) GetPost(ctx context.Context, postID uuid.UUID) (*types.BlogPost, error) {
	return s.repo.GetAndBumpViews(ctx, postID)
}

func (s *BlogServiceImpl) CreatePost(ctx context.Context, authorID uuid.UUID, params types.UpsertBlogPostParams) (*types.BlogPost, error) {
	l := s.logger.With(slog.String("method", "CreatePost"), slog.String("authorID", authorID.String()))

	if err := validatePostParams(params); err != nil {
		return nil, err
	}
	post, err := s.repo.CreatePost(ctx, authorID, params)
	if err != nil {
		return nil, err
	}
	l.InfoContext(ctx, "Blog post created", slog.String("postID", post.ID.String()))
	return post, nil
}

func (s *BlogServiceImpl) UpdatePost(ctx context.Context, requesterID uuid.UUID, requesterRole types.UserRole, postID uuid.UUID, params types.UpsertBlogPostParams) (*types.BlogPost, error) {
	if err := validatePostParams(params); err != nil {
		return nil, err
	}
	if err := s.authorizePostMutation(ctx, requesterID, requesterRole, postID); err != nil {
		return nil, err
	}
	return s.repo.UpdatePost(ctx, postID, params)
}

func (s *BlogServiceImpl) DeletePost(ctx context.Context, requesterID uuid.UUID, requesterRole types.UserRole, postID uuid.UUID) error {
	if err := s.authorizePostMutation(ctx, requesterID, requesterRole, postID); err != nil {
		return err
	}
	return s.repo.DeletePost(ctx, postID)
}

func (s *BlogServiceImpl) authorizePostMutation(ctx context.Context, requesterID uuid.UUID, requesterRole types.UserRole, postID uuid.UUID) error {
	p, err := s.repo.GetPostByID(ctx, postID)
	if err != nil {
		return err
	}
	if p.AuthorID != requesterID && requesterRole != types.RoleAdmin {
		return types.ErrForbidden
	}
	return nil
}

func (s *BlogServiceImpl) ToggleLike(ctx context.Context, postID, userID uuid.UUID) (*LikeResult, error) {
	liked, likes, err := s.repo.ToggleLike(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	return &LikeResult{Liked: liked, Likes: likes}, nil
}

func (s *BlogServiceImpl) ListComments(ctx context.Context, postID uuid.UUID) ([]types.BlogComment, error) {
	return s.repo.ListComments(ctx, postID)
}

func (s *BlogServiceImpl) AddComment(ctx context.Context, postID, userID uuid.UUID, content string) (*types.BlogComment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: comment cannot be empty", types.ErrValidation)
	}
	return s.repo.CreateComment(ctx, postID, userID, content)
}

func (s *BlogServiceImpl) DeleteComment(ctx context.Context, requesterID uuid.UUID, requesterRole types.UserRole, commentID uuid.UUID) error {
	c, err := s.repo.GetComment(ctx, commentID)
	if err != nil {
		return err
	}
	if c.UserID != requesterID && requesterRole != types.RoleAdmin {
		return types.ErrForbidden
	}
	return s.repo.DeleteComment(ctx, commentID)
}

func validatePostParams(params types.UpsertBlogPostParams) error {
	if strings.TrimSpace(params.Title) == "" {
		return fmt.Errorf("%w: title is required", types.ErrValidation)
	}
	if strings.TrimSpace(params.Content) == "" {
		return fmt.Errorf("%w: content is required", types.ErrValidation)
	}
	switch params.Category {
	case types.BlogTraining, types.BlogNutrition, types.BlogMotivation, types.BlogNews:
	default:
		return fmt.Errorf("%w: invalid category", types.ErrValidation)
	}
	return nil
}
