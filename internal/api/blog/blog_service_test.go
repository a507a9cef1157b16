package blog

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gritfit/gritfit-api/internal/types"
)

type MockBlogRepo struct {
	mock.Mock
}

func (m *MockBlogRepo) ListPosts(ctx context.Context, category types.BlogCategory) ([]types.BlogPost, error) {
	args := m.Called(ctx, category)
	p, _ := args.Get(0).([]types.BlogPost)
	return p, args.Error(1)
}

func (m *MockBlogRepo) GetAndBumpViews(ctx context.Context, postID uuid.UUID) (*types.BlogPost, error) {
	args := m.Called(ctx, postID)
	p, _ := args.Get(0).(*types.BlogPost)
	return p, args.Error(1)
}

func (m *MockBlogRepo) GetPostByID(ctx context.Context, postID uuid.UUID) (*types.BlogPost, error) {
	args := m.Called(ctx, postID)
	p, _ := args.Get(0).(*types.BlogPost)
	return p, args.Error(1)
}

func (m *MockBlogRepo) CreatePost(ctx context.Context, authorID uuid.UUID, params types.UpsertBlogPostParams) (*types.BlogPost, error) {
	args := m.Called(ctx, authorID, params)
	p, _ := args.Get(0).(*types.BlogPost)
	return p, args.Error(1)
}

func (m *MockBlogRepo) UpdatePost(ctx context.Context, postID uuid.UUID, params types.UpsertBlogPostParams) (*types.BlogPost, error) {
	args := m.Called(ctx, postID, params)
	p, _ := args.Get(0).(*types.BlogPost)
	return p, args.Error(1)
}

func (m *MockBlogRepo) DeletePost(ctx context.Context, postID uuid.UUID) error {
	args := m.Called(ctx, postID)
	return args.Error(0)
}

func (m *MockBlogRepo) ToggleLike(ctx context.Context, postID, userID uuid.UUID) (bool, int, error) {
	args := m.Called(ctx, postID, userID)
	return args.Bool(0), args.Int(1), args.Error(2)
}

func (m *MockBlogRepo) ListComments(ctx context.Context, postID uuid.UUID) ([]types.BlogComment, error) {
	args := m.Called(ctx, postID)
	c, _ := args.Get(0).([]types.BlogComment)
	return c, args.Error(1)
}

func (m *MockBlogRepo) CreateComment(ctx context.Context, postID, userID uuid.UUID, content string) (*types.BlogComment, error) {
	args := m.Called(ctx, postID, userID, content)
	c, _ := args.Get(0).(*types.BlogComment)
	return c, args.Error(1)
}

func (m *MockBlogRepo) DeleteComment(ctx context.Context, commentID uuid.UUID) error {
	args := m.Called(ctx, commentID)
	return args.Error(0)
}

func (m *MockBlogRepo) GetComment(ctx context.Context, commentID uuid.UUID) (*types.BlogComment, error) {
	args := m.Called(ctx, commentID)
	c, _ := args.Get(0).(*types.BlogComment)
	return c, args.Error(1)
}

func newTestBlogService(repo *MockBlogRepo) *BlogServiceImpl {
	return NewBlogService(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func validPost() types.UpsertBlogPostParams {
	return types.UpsertBlogPostParams{
		Title:    "Deload weeks, explained",
		Content:  "Every fourth week, drop the volume.",
		Category: types.BlogTraining,
	}
}

func TestUpdatePost_AuthorEditsOwnPost(t *testing.T) {
	repo := new(MockBlogRepo)
	svc := newTestBlogService(repo)

	authorID := uuid.New()
	postID := uuid.New()
	params := validPost()

	repo.On("GetPostByID", mock.Anything, postID).Return(&types.BlogPost{ID: postID, AuthorID: authorID}, nil).Once()
	repo.On("UpdatePost", mock.Anything, postID, params).Return(&types.BlogPost{ID: postID, AuthorID: authorID, Title: params.Title}, nil).Once()

	post, err := svc.UpdatePost(context.Background(), authorID, types.RoleTrainer, postID, params)

	require.NoError(t, err)
	assert.Equal(t, params.Title, post.Title)
	repo.AssertExpectations(t)
}

func TestUpdatePost_RejectsNonAuthor(t *testing.T) {
	repo := new(MockBlogRepo)
	svc := newTestBlogService(repo)

	postID := uuid.New()
	repo.On("GetPostByID", mock.Anything, postID).Return(&types.BlogPost{ID: postID, AuthorID: uuid.New()}, nil).Once()

	_, err := svc.UpdatePost(context.Background(), uuid.New(), types.RoleTrainer, postID, validPost())

	assert.ErrorIs(t, err, types.ErrForbidden)
	repo.AssertNotCalled(t, "UpdatePost", mock.Anything, mock.Anything, mock.Anything)
}

func TestDeletePost_AdminDeletesAnyPost(t *testing.T) {
	repo := new(MockBlogRepo)
	svc := newTestBlogService(repo)

	postID := uuid.New()
	repo.On("GetPostByID", mock.Anything, postID).Return(&types.BlogPost{ID: postID, AuthorID: uuid.New()}, nil).Once()
	repo.On("DeletePost", mock.Anything, postID).Return(nil).Once()

	err := svc.DeletePost(context.Background(), uuid.New(), types.RoleAdmin, postID)

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestDeletePost_RejectsNonAuthor(t *testing.T) {
	repo := new(MockBlogRepo)
	svc := newTestBlogService(repo)

	postID := uuid.New()
	repo.On("GetPostByID", mock.Anything, postID).Return(&types.BlogPost{ID: postID, AuthorID: uuid.New()}, nil).Once()

	err := svc.DeletePost(context.Background(), uuid.New(), types.RoleUser, postID)

	assert.ErrorIs(t, err, types.ErrForbidden)
	repo.AssertNotCalled(t, "DeletePost", mock.Anything, mock.Anything)
}

func TestDeleteComment_OwnerAndAdminOnly(t *testing.T) {
	repo := new(MockBlogRepo)
	svc := newTestBlogService(repo)

	ownerID := uuid.New()
	commentID := uuid.New()
	repo.On("GetComment", mock.Anything, commentID).Return(&types.BlogComment{ID: commentID, UserID: ownerID}, nil)
	repo.On("DeleteComment", mock.Anything, commentID).Return(nil)

	require.NoError(t, svc.DeleteComment(context.Background(), ownerID, types.RoleUser, commentID))
	assert.ErrorIs(t, svc.DeleteComment(context.Background(), uuid.New(), types.RoleUser, commentID), types.ErrForbidden)
	require.NoError(t, svc.DeleteComment(context.Background(), uuid.New(), types.RoleAdmin, commentID))
}
