package recipes

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
	ListRecipes(w http.ResponseWriter, r *http.Request)
	GetRecipe(w http.ResponseWriter, r *http.Request)
	CreateRecipe(w http.ResponseWriter, r *http.Request)
	UpdateRecipe(w http.ResponseWriter, r *http.Request)
	DeleteRecipe(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	recipesService RecipesService
	logger         *slog.Logger
}

func NewHandlerImpl(recipesService RecipesService, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		recipesService: recipesService,
		logger:         logger,
	}
}

// ListRecipes godoc
// @Summary      List Recipes
// @Tags         Recipes
// @Produce      json
// @Param        category query string false "Filter by category"
// @Success      200 {array} types.Recipe "Recipes"
// @Router       /recipes [get]
func (h *HandlerImpl) ListRecipes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "ListRecipes"))

	recipes, err := h.recipesService.ListRecipes(ctx, types.RecipeCategory(r.URL.Query().Get("category")))
	if err != nil {
		l.ErrorContext(ctx, "Failed to list recipes", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to list recipes")
		return
	}
	if recipes == nil {
		recipes = []types.Recipe{}
	}
	api.WriteJSONResponse(w, r, http.StatusOK, recipes)
}

// GetRecipe godoc
// @Summary      Get Recipe
// @Description  Returns the recipe and counts the view.
// @Tags         Recipes
// @Produce      json
// @Param        recipeID path string true "Recipe ID"
// @Success      200 {object} types.Recipe "Recipe"
// @Failure      404 {object} types.Response "Not found"
// @Router       /recipes/{recipeID} [get]
func (h *HandlerImpl) GetRecipe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "GetRecipe"))

	recipeID, err := uuid.Parse(chi.URLParam(r, "recipeID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid recipe ID")
		return
	}

	rec, err := h.recipesService.GetRecipe(ctx, recipeID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, "Recipe not found")
			return
		}
		l.ErrorContext(ctx, "Failed to get recipe", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to retrieve recipe")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, rec)
}

// CreateRecipe godoc
// @Summary      Create Recipe
// @Tags         Recipes
// @Accept       json
// @Produce      json
// @Param        body body types.UpsertRecipeParams true "Recipe"
// @Success      201 {object} types.Recipe "Created"
// @Security     BearerAuth
// @Router       /recipes [post]
func (h *HandlerImpl) CreateRecipe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "CreateRecipe"))

	userIDStr, ok := appMiddleware.GetUserIDFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	authorID, err := uuid.Parse(userIDStr)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var params types.UpsertRecipeParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := h.recipesService.CreateRecipe(ctx, authorID, params)
	if err != nil {
		if errors.Is(err, types.ErrValidation) {
			api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
			return
		}
		l.ErrorContext(ctx, "Failed to create recipe", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to create recipe")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusCreated, rec)
}

// UpdateRecipe godoc
// @Summary      Update Recipe
// @Tags         Recipes
// @Accept       json
// @Produce      json
// @Param        recipeID path string true "Recipe ID"
// @Param        body body types.UpsertRecipeParams true "Recipe"
// @Success      200 {object} types.Recipe "Updated"
// @Security     BearerAuth
// @Router       /recipes/{recipeID} [put]
func (h *HandlerImpl) UpdateRecipe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "UpdateRecipe"))

	recipeID, err := uuid.Parse(chi.URLParam(r, "recipeID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid recipe ID")
		return
	}

	var params types.UpsertRecipeParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := h.recipesService.UpdateRecipe(ctx, recipeID, params)
	if err != nil {
		switch {
		case errors.Is(err, types.ErrValidation):
			api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		case errors.Is(err, types.ErrNotFound):
			api.ErrorResponse(w, r, http.StatusNotFound, "Recipe not found")
		default:
			l.ErrorContext(ctx, "Failed to update recipe", slog.Any("error", err))
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to update recipe")
		}
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, rec)
}

// DeleteRecipe godoc
// @Summary      Delete Recipe
// @Tags         Recipes
// @Produce      json
// @Param        recipeID path string true "Recipe ID"
// @Success      200 {object} types.Response "Deleted"
// @Security     BearerAuth
// @Router       /recipes/{recipeID} [delete]
func (h *HandlerImpl) DeleteRecipe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "DeleteRecipe"))

	recipeID, err := uuid.Parse(chi.URLParam(r, "recipeID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid recipe ID")
		return
	}

	if err := h.recipesService.DeleteRecipe(ctx, recipeID); err != nil {
		if errors.Is(err, types.ErrNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, "Recipe not found")
			return
		}
		l.ErrorContext(ctx, "Failed to delete recipe", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to delete recipe")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{Success: true, Message: "Recipe deleted"})
}
