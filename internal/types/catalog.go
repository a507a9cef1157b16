package types

import (
	"time"

	"github.com/google/uuid"
)

type RecipeCategory string

const (
	RecipeBreakfast RecipeCategory = "breakfast"
	RecipeLunch     RecipeCategory = "lunch"
	RecipeDinner    RecipeCategory = "dinner"
	RecipeSnack     RecipeCategory = "snack"
)

type RecipeDifficulty string

const (
	DifficultyEasy   RecipeDifficulty = "easy"
	DifficultyMedium RecipeDifficulty = "medium"
	DifficultyHard   RecipeDifficulty = "hard"
)

type Recipe struct {
	ID           uuid.UUID        `json:"id"`
	AuthorID     uuid.UUID        `json:"author_id"`
	Title        string           `json:"title"`
	Category     RecipeCategory   `json:"category"`
	Difficulty   RecipeDifficulty `json:"difficulty"`
	Ingredients  []string         `json:"ingredients"`
	Instructions []string         `json:"instructions"`
	Calories     *int             `json:"calories,omitempty"`
	ProteinGrams *int             `json:"protein_grams,omitempty"`
	CarbsGrams   *int             `json:"carbs_grams,omitempty"`
	FatGrams     *int             `json:"fat_grams,omitempty"`
	ImageURL     *string          `json:"image_url,omitempty"`
	Views        int              `json:"views"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

type UpsertRecipeParams struct {
	Title        string           `json:"title"`
	Category     RecipeCategory   `json:"category"`
	Difficulty   RecipeDifficulty `json:"difficulty"`
	Ingredients  []string         `json:"ingredients"`
	Instructions []string         `json:"instructions"`
	Calories     *int             `json:"calories,omitempty"`
	ProteinGrams *int             `json:"protein_grams,omitempty"`
	CarbsGrams   *int             `json:"carbs_grams,omitempty"`
	FatGrams     *int             `json:"fat_grams,omitempty"`
	ImageURL     *string          `json:"image_url,omitempty"`
}

type BlogCategory string

const (
	BlogTraining   BlogCategory = "training"
	BlogNutrition  BlogCategory = "nutrition"
	BlogMotivation BlogCategory = "motivation"
	BlogNews       BlogCategory = "news"
)

type BlogPost struct {
	ID        uuid.UUID    `json:"id"`
	AuthorID  uuid.UUID    `json:"author_id"`
	Title     string       `json:"title"`
	Content   string       `json:"content"`
	Category  BlogCategory `json:"category"`
	ImageURL  *string      `json:"image_url,omitempty"`
	Views     int          `json:"views"`
	Likes     int          `json:"likes"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

type UpsertBlogPostParams struct {
	Title    string       `json:"title"`
	Content  string       `json:"content"`
	Category BlogCategory `json:"category"`
	ImageURL *string      `json:"image_url,omitempty"`
}

type BlogComment struct {
	ID        uuid.UUID `json:"id"`
	PostID    uuid.UUID `json:"post_id"`
	UserID    uuid.UUID `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
