package recipes

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/gritfit/gritfit-api/internal/types"
)

var _ RecipesService = (*RecipesServiceImpl)(nil)

// RecipesService defines the business logic contract for the recipe catalog.
type RecipesService interface {
	ListRecipes(ctx context.Context, category types.RecipeCategory) ([]types.Recipe, error)
	// GetRecipe returns the recipe and counts the view.
	GetRecipe(ctx context.Context, recipeID uuid.UUID) (*types.Recipe, error)
	CreateRecipe(ctx context.Context, authorID uuid.UUID, params types.UpsertRecipeParams) (*types.Recipe, error)
	UpdateRecipe(ctx context.Context, recipeID uuid.UUID, params types.UpsertRecipeParams) (*types.Recipe, error)
	DeleteRecipe(ctx context.Context, recipeID uuid.UUID) error
}

type RecipesServiceImpl struct {
	logger *slog.Logger
	repo   RecipesRepo
}

func NewRecipesService(repo RecipesRepo, logger *slog.Logger) *RecipesServiceImpl {
	return &RecipesServiceImpl{
		logger: logger,
		repo:   repo,
	}
}

func (s *RecipesServiceImpl) ListRecipes(ctx context.Context, category types.RecipeCategory) ([]types.Recipe, error) {
	return s.repo.List(ctx, category)
}

func (s *RecipesServiceImpl) GetRecipe(ctx context.Context, recipeID uuid.UUID) (*types.Recipe, error) {
	return s.repo.GetAndBumpViews(ctx, recipeID)
}

func (s *RecipesServiceImpl) CreateRecipe(ctx context.Context, authorID uuid.UUID, params types.UpsertRecipeParams) (*types.Recipe, error) {
	l := s.logger.With(slog.String("method", "CreateRecipe"), slog.String("authorID", authorID.String()))

	if err := validateRecipeParams(params); err != nil {
		return nil, err
	}
	rec, err := s.repo.Create(ctx, authorID, params)
	if err != nil {
		return nil, err
	}
	l.InfoContext(ctx, "Recipe created", slog.String("recipeID", rec.ID.String()))
	return rec, nil
}

func (s *RecipesServiceImpl) UpdateRecipe(ctx context.Context, recipeID uuid.UUID, params types.UpsertRecipeParams) (*types.Recipe, error) {
	if err := validateRecipeParams(params); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, recipeID, params)
}

func (s *RecipesServiceImpl) DeleteRecipe(ctx context.Context, recipeID uuid.UUID) error {
	return s.repo.Delete(ctx, recipeID)
}

func validateRecipeParams(params types.UpsertRecipeParams) error {
	if strings.TrimSpace(params.Title) == "" {
		return fmt.Errorf("%w: title is required", types.ErrValidation)
	}
	switch params.Category {
	case types.RecipeBreakfast, types.RecipeLunch, types.RecipeDinner, types.RecipeSnack:
	default:
		return fmt.Errorf("%w: invalid category", types.ErrValidation)
	}
	switch params.Difficulty {
	case types.DifficultyEasy, types.DifficultyMedium, types.DifficultyHard:
	default:
		return fmt.Errorf("%w: invalid difficulty", types.ErrValidation)
	}
	if len(params.Ingredients) == 0 {
		return fmt.Errorf("%w: at least one ingredient is required", types.ErrValidation)
	}
	return nil
}
