package types

import (
	"time"

	"github.com/google/uuid"
)

// FitnessPlan is an AI-generated workout + diet program. A user has at most
// one active plan; generating a new one deactivates the rest.
type FitnessPlan struct {
	ID          uuid.UUID   `json:"id"`
	UserID      uuid.UUID   `json:"user_id"`
	Name        string      `json:"name"`
	WorkoutPlan WorkoutPlan `json:"workout_plan"`
	DietPlan    DietPlan    `json:"diet_plan"`
	IsActive    bool        `json:"is_active"`
	CreatedAt   time.Time   `json:"created_at"`
}

// WorkoutPlan is the strict schema the model output is validated against.
// Unknown fields are dropped and set/rep values coerced to integers before
// persisting.
type WorkoutPlan struct {
	Schedule  []string     `json:"schedule"`
	Exercises []WorkoutDay `json:"exercises"`
}

type WorkoutDay struct {
	Day      string    `json:"day"`
	Routines []Routine `json:"routines"`
}

type Routine struct {
	Name string `json:"name"`
	Sets int    `json:"sets"`
	Reps int    `json:"reps"`
}

type DietPlan struct {
	DailyCalories int    `json:"daily_calories"`
	Meals         []Meal `json:"meals"`
}

type Meal struct {
	Name  string   `json:"name"`
	Foods []string `json:"foods"`
}

// GenerateProgramRequest carries the biometric/preference inputs for plan
// generation.
type GenerateProgramRequest struct {
	Age           int     `json:"age"`
	HeightCm      float64 `json:"height_cm"`
	WeightKg      float64 `json:"weight_kg"`
	InjuryHistory string  `json:"injury_history,omitempty"`
	WorkoutDays   int     `json:"workout_days"`
	FitnessGoal   string  `json:"fitness_goal"`
	FitnessLevel  string  `json:"fitness_level"`
	DietaryNeeds  string  `json:"dietary_needs,omitempty"`
}
