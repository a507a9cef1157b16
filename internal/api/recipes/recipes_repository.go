package recipes

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

var _ RecipesRepo = (*PostgresRecipesRepo)(nil)

// RecipesRepo defines the contract for recipe persistence.
type RecipesRepo interface {
	List(ctx context.Context, category types.RecipeCategory) ([]types.Recipe, error)
	// GetAndBumpViews fetches the recipe and increments its view counter.
	GetAndBumpViews(ctx context.Context, recipeID uuid.UUID) (*types.Recipe, error)
	Create(ctx context.Context, authorID uuid.UUID, params types.UpsertRecipeParams) (*types.Recipe, error)
	Update(ctx context.Context, recipeID uuid.UUID, params types.UpsertRecipeParams) (*types.Recipe, error)
	Delete(ctx context.Context, recipeID uuid.UUID) error
}

type PostgresRecipesRepo struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresRecipesRepo(pgxpool *pgxpool.Pool, logger *slog.Logger) *PostgresRecipesRepo {
	return &PostgresRecipesRepo{
		logger: logger,
		pgpool: pgxpool,
	}
}

const recipeColumns = `id, author_id, title, category, difficulty, ingredients, instructions,
	calories, protein_grams, carbs_grams, fat_grams, image_url, views, created_at, updated_at`

func scanRecipe(row pgx.Row) (*types.Recipe, error) {
	var rec types.Recipe
	err := row.Scan(&rec.ID, &rec.AuthorID, &rec.Title, &rec.Category, &rec.Difficulty,
		&rec.Ingredients, &rec.Instructions, &rec.Calories, &rec.ProteinGrams, &rec.CarbsGrams,
		&rec.FatGrams, &rec.ImageURL, &rec.Views, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("scanning recipe: %w", err)
	}
	return &rec, nil
}

func (r *PostgresRecipesRepo) List(ctx context.Context, category types.RecipeCategory) ([]types.Recipe, error) {
	query := `SELECT ` + recipeColumns + ` FROM recipes`
	args := []interface{}{}
	if category != "" {
		query += ` WHERE category = $1`
		args = append(args, category)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pgpool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing recipes: %w", err)
	}
	defer rows.Close()

	var recipes []types.Recipe
	for rows.Next() {
		rec, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, *rec)
	}
	return recipes, rows.Err()
}

func (r *PostgresRecipesRepo) GetAndBumpViews(ctx context.Context, recipeID uuid.UUID) (*types.Recipe, error) {
	row := r.pgpool.QueryRow(ctx, `
		UPDATE recipes SET views = views + 1 WHERE id = $1
		RETURNING `+recipeColumns, recipeID)
	return scanRecipe(row)
}

func (r *PostgresRecipesRepo) Create(ctx context.Context, authorID uuid.UUID, params types.UpsertRecipeParams) (*types.Recipe, error) {
	row := r.pgpool.QueryRow(ctx, `
		INSERT INTO recipes (author_id, title, category, difficulty, ingredients, instructions,
			calories, protein_grams, carbs_grams, fat_grams, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+recipeColumns,
		authorID, params.Title, params.Category, params.Difficulty, params.Ingredients, params.Instructions,
		params.Calories, params.ProteinGrams, params.CarbsGrams, params.FatGrams, params.ImageURL)
	return scanRecipe(row)
}

func (r *PostgresRecipesRepo) Update(ctx context.Context, recipeID uuid.UUID, params types.UpsertRecipeParams) (*types.Recipe, error) {
	row := r.pgpool.QueryRow(ctx, `
		UPDATE recipes
		SET title = $2, category = $3, difficulty = $4, ingredients = $5, instructions = $6,
		    calories = $7, protein_grams = $8, carbs_grams = $9, fat_grams = $10, image_url = $11,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+recipeColumns,
		recipeID, params.Title, params.Category, params.Difficulty, params.Ingredients, params.Instructions,
		params.Calories, params.ProteinGrams, params.CarbsGrams, params.FatGrams, params.ImageURL)
	return scanRecipe(row)
}

func (r *PostgresRecipesRepo) Delete(ctx context.Context, recipeID uuid.UUID) error {
	tag, err := r.pgpool.Exec(ctx, `DELETE FROM recipes WHERE id = $1`, recipeID)
	if err != nil {
		return fmt.Errorf("deleting recipe: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}
