package blog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gritfit/gritfit-api/internal/types"
)

var _ BlogRepo = (*PostgresBlogRepo)(nil)

// BlogRepo defines the contract for blog post, like and comment persistence.
// The like count is derived from blog_likes rather than stored on the post.
type BlogRepo interface {
	ListPosts(ctx context.Context, category types.BlogCategory) ([]types.BlogPost, error)
	GetAndBumpViews(ctx context.Context, postID uuid.UUID) (*types.BlogPost, error)
	// GetPostByID fetches without counting a view; used for ownership checks.
	GetPostByID(ctx context.Context, postID uuid.UUID) (*types.BlogPost, error)
	CreatePost(ctx context.Context, authorID uuid.UUID, params types.UpsertBlogPostParams) (*types.BlogPost, error)
	UpdatePost(ctx context.Context, postID uuid.UUID, params types.UpsertBlogPostParams) (*types.BlogPost, error)
	DeletePost(ctx context.Context, postID uuid.UUID) error

	// ToggleLike adds the user's like, or removes it if already present,
	// and reports whether the post ends up liked plus the new count.
	ToggleLike(ctx context.Context, postID, userID uuid.UUID) (liked bool, likes int, err error)

	ListComments(ctx context.Context, postID uuid.UUID) ([]types.BlogComment, error)
	CreateComment(ctx context.Context, postID, userID uuid.UUID, content string) (*types.BlogComment, error)
	DeleteComment(ctx context.Context, commentID uuid.UUID) error
	GetComment(ctx context.Context, commentID uuid.UUID) (*types.BlogComment, error)
}

type PostgresBlogRepo struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresBlogRepo(pgxpool *pgxpool.Pool, logger *slog.Logger) *PostgresBlogRepo {
	return &PostgresBlogRepo{
		logger: logger,
		pgpool: pgxpool,
	}
}

const postColumns = `p.id, p.author_id, p.title, p.content, p.category, p.image_url, p.views,
	(SELECT COUNT(*) FROM blog_likes bl WHERE bl.post_id = p.id) AS likes,
	p.created_at, p.updated_at`

func scanPost(row pgx.Row) (*types.BlogPost, error) {
	var p types.BlogPost
	err := row.Scan(&p.ID, &p.AuthorID, &p.Title, &p.Content, &p.Category, &p.ImageURL,
		&p.Views, &p.Likes, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("scanning blog post: %w", err)
	}
	return &p, nil
}

func (r *PostgresBlogRepo) ListPosts(ctx context.Context, category types.BlogCategory) ([]types.BlogPost, error) {
	query := `SELECT ` + postColumns + ` FROM blog_posts p`
	args := []interface{}{}
	if category != "" {
		query += ` WHERE p.category = $1`
		args = append(args, category)
	}
	query += ` ORDER BY p.created_at DESC`

	rows, err := r.pgpool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing blog posts: %w", err)
	}
	defer rows.Close()

	var posts []types.BlogPost
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *p)
	}
	return posts, rows.Err()
}

func (r *PostgresBlogRepo) GetAndBumpViews(ctx context.Context, postID uuid.UUID) (*types.BlogPost, error) {
	if _, err := r.pgpool.Exec(ctx, `UPDATE blog_posts SET views = views + 1 WHERE id = $1`, postID); err != nil {
		return nil, fmt.Errorf("bumping post views: %w", err)
	}
	row := r.pgpool.QueryRow(ctx, `SELECT `+postColumns+` FROM blog_posts p WHERE p.id = $1`, postID)
	return scanPost(row)
}

func (r *PostgresBlogRepo) GetPostByID(ctx context.Context, postID uuid.UUID) (*types.BlogPost, error) {
	row := r.pgpool.QueryRow(ctx, `SELECT `+postColumns+` FROM blog_posts p WHERE p.id = $1`, postID)
	return scanPost(row)
}

func (r *PostgresBlogRepo) CreatePost(ctx context.Context, authorID uuid.UUID, params types.UpsertBlogPostParams) (*types.BlogPost, error) {
	var id uuid.UUID
	err := r.pgpool.QueryRow(ctx, `
		INSERT INTO blog_posts (author_id, title, content, category, image_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		authorID, params.Title, params.Content, params.Category, params.ImageURL).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("creating blog post: %w", err)
	}
	row := r.pgpool.QueryRow(ctx, `SELECT `+postColumns+` FROM blog_posts p WHERE p.id = $1`, id)
	return scanPost(row)
}

func (r *PostgresBlogRepo) UpdatePost(ctx context.Context, postID uuid.UUID, params types.UpsertBlogPostParams) (*types.BlogPost, error) {
	tag, err := r.pgpool.Exec(ctx, `
		UPDATE blog_posts
		SET title = $2, content = $3, category = $4, image_url = $5, updated_at = now()
		WHERE id = $1`,
		postID, params.Title, params.Content, params.Category, params.ImageURL)
	if err != nil {
		return nil, fmt.Errorf("updating blog post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, types.ErrNotFound
	}
	row := r.pgpool.QueryRow(ctx, `SELECT `+postColumns+` FROM blog_posts p WHERE p.id = $1`, postID)
	return scanPost(row)
}

func (r *PostgresBlogRepo) DeletePost(ctx context.Context, postID uuid.UUID) error {
	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM blog_likes WHERE post_id = $1`, postID); err != nil {
		return fmt.Errorf("deleting post likes: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM blog_comments WHERE post_id = $1`, postID); err != nil {
		return fmt.Errorf("deleting post comments: %w", err)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM blog_posts WHERE id = $1`, postID)
	if err != nil {
		return fmt.Errorf("deleting blog post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return tx.Commit(ctx)
}

func (r *PostgresBlogRepo) ToggleLike(ctx context.Context, postID, userID uuid.UUID) (bool, int, error) {
	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		return false, 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `DELETE FROM blog_likes WHERE post_id = $1 AND user_id = $2`, postID, userID)
	if err != nil {
		return false, 0, fmt.Errorf("removing like: %w", err)
	}
	liked := false
	if tag.RowsAffected() == 0 {
		if _, err := tx.Exec(ctx, `INSERT INTO blog_likes (post_id, user_id) VALUES ($1, $2)`, postID, userID); err != nil {
			return false, 0, fmt.Errorf("adding like: %w", err)
		}
		liked = true
	}

	var likes int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM blog_likes WHERE post_id = $1`, postID).Scan(&likes); err != nil {
		return false, 0, fmt.Errorf("counting likes: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return false, 0, fmt.Errorf("committing like toggle: %w", err)
	}
	return liked, likes, nil
}

func (r *PostgresBlogRepo) ListComments(ctx context.Context, postID uuid.UUID) ([]types.BlogComment, error) {
	rows, err := r.pgpool.Query(ctx, `
		SELECT id, post_id, user_id, content, created_at
		FROM blog_comments WHERE post_id = $1 ORDER BY created_at ASC`, postID)
	if err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}
	defer rows.Close()

	var comments []types.BlogComment
	for rows.Next() {
		var c types.BlogComment
		if err := rows.Scan(&c.ID, &c.PostID, &c.UserID, &c.Content, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (r *PostgresBlogRepo) CreateComment(ctx context.Context, postID, userID uuid.UUID, content string) (*types.BlogComment, error) {
	var c types.BlogComment
	err := r.pgpool.QueryRow(ctx, `
		INSERT INTO blog_comments (post_id, user_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, post_id, user_id, content, created_at`,
		postID, userID, content).
		Scan(&c.ID, &c.PostID, &c.UserID, &c.Content, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating comment: %w", err)
	}
	return &c, nil
}

func (r *PostgresBlogRepo) DeleteComment(ctx context.Context, commentID uuid.UUID) error {
	tag, err := r.pgpool.Exec(ctx, `DELETE FROM blog_comments WHERE id = $1`, commentID)
	if err != nil {
		return fmt.Errorf("deleting comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}

func (r *PostgresBlogRepo) GetComment(ctx context.Context, commentID uuid.UUID) (*types.BlogComment, error) {
	var c types.BlogComment
	err := r.pgpool.QueryRow(ctx, `
		SELECT id, post_id, user_id, content, created_at
		FROM blog_comments WHERE id = $1`, commentID).
		Scan(&c.ID, &c.PostID, &c.UserID, &c.Content, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("fetching comment: %w", err)
	}
	return &c, nil
}
