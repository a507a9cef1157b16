package fitplan

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"google.golang.org/genai"

	"github.com/gritfit/gritfit-api/internal/types"
)

// ContentGenerator is the slice of the AI client the plan flow needs.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (string, error)
}

var _ FitplanService = (*FitplanServiceImpl)(nil)

// FitplanService defines the business logic contract for AI-generated
// fitness programs.
type FitplanService interface {
	// GenerateProgram produces a workout and diet plan for the user's
	// profile, validates the model output, and stores it as the user's
	// single active plan.
	GenerateProgram(ctx context.Context, userID uuid.UUID, req types.GenerateProgramRequest) (*types.FitnessPlan, error)
	GetActivePlan(ctx context.Context, userID uuid.UUID) (*types.FitnessPlan, error)
	ListMyPlans(ctx context.Context, userID uuid.UUID) ([]types.FitnessPlan, error)
}

type FitplanServiceImpl struct {
	logger    *slog.Logger
	repo      FitplanRepo
	generator ContentGenerator
}

func NewFitplanService(repo FitplanRepo, generator ContentGenerator, logger *slog.Logger) *FitplanServiceImpl {
	return &FitplanServiceImpl{
		logger:    logger,
		repo:      repo,
		generator: generator,
	}
}

const generateAttempts = 2

func (s *FitplanServiceImpl) GenerateProgram(ctx context.Context, userID uuid.UUID, req types.GenerateProgramRequest) (*types.FitnessPlan, error) {
	l := s.logger.With(slog.String("method", "GenerateProgram"), slog.String("userID", userID.String()))

	if err := validateRequest(req); err != nil {
		return nil, err
	}

	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0.4),
		ResponseMIMEType: "application/json",
	}

	// Workout and diet prompts are independent, so they run concurrently.
	var workout *types.WorkoutPlan
	var diet *types.DietPlan
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.generateWithRetry(gctx, workoutPrompt(req), config, func(raw string) (any, error) {
			return ParseWorkoutPlan(raw)
		})
		if err != nil {
			return fmt.Errorf("workout plan: %w", err)
		}
		workout = p.(*types.WorkoutPlan)
		return nil
	})
	g.Go(func() error {
		p, err := s.generateWithRetry(gctx, dietPrompt(req), config, func(raw string) (any, error) {
			return ParseDietPlan(raw)
		})
		if err != nil {
			return fmt.Errorf("diet plan: %w", err)
		}
		diet = p.(*types.DietPlan)
		return nil
	})
	if err := g.Wait(); err != nil {
		l.ErrorContext(ctx, "Plan generation failed", slog.Any("error", err))
		return nil, err
	}

	plan, err := s.repo.CreateActive(ctx, types.FitnessPlan{
		UserID:      userID,
		Name:        fmt.Sprintf("%s program - %s", req.FitnessGoal, time.Now().Format("Jan 2006")),
		WorkoutPlan: *workout,
		DietPlan:    *diet,
	})
	if err != nil {
		return nil, err
	}
	l.InfoContext(ctx, "Fitness plan generated", slog.String("planID", plan.ID.String()))
	return plan, nil
}

// generateWithRetry reprompts once when the model output fails validation.
func (s *FitplanServiceImpl) generateWithRetry(ctx context.Context, prompt string, config *genai.GenerateContentConfig, parse func(string) (any, error)) (any, error) {
	var lastErr error
	for attempt := 1; attempt <= generateAttempts; attempt++ {
		raw, err := s.generator.GenerateContent(ctx, prompt, config)
		if err != nil {
			return nil, err
		}
		parsed, err := parse(raw)
		if err == nil {
			return parsed, nil
		}
		lastErr = err
		s.logger.WarnContext(ctx, "Model output failed validation, retrying",
			slog.Int("attempt", attempt), slog.Any("error", err))
	}
	return nil, lastErr
}

func (s *FitplanServiceImpl) GetActivePlan(ctx context.Context, userID uuid.UUID) (*types.FitnessPlan, error) {
	return s.repo.GetActiveForUser(ctx, userID)
}

func (s *FitplanServiceImpl) ListMyPlans(ctx context.Context, userID uuid.UUID) ([]types.FitnessPlan, error) {
	return s.repo.ListForUser(ctx, userID)
}

func validateRequest(req types.GenerateProgramRequest) error {
	if req.Age < 13 || req.Age > 100 {
		return fmt.Errorf("%w: age out of range", types.ErrValidation)
	}
	if req.HeightCm <= 0 || req.WeightKg <= 0 {
		return fmt.Errorf("%w: height and weight are required", types.ErrValidation)
	}
	if req.WorkoutDays < 1 || req.WorkoutDays > 7 {
		return fmt.Errorf("%w: workout days must be between 1 and 7", types.ErrValidation)
	}
	if req.FitnessGoal == "" || req.FitnessLevel == "" {
		return fmt.Errorf("%w: fitness goal and level are required", types.ErrValidation)
	}
	return nil
}

func workoutPrompt(req types.GenerateProgramRequest) string {
	return fmt.Sprintf(`You are an experienced fitness coach creating a personalized workout plan based on:
Age: %d
Height: %.0f cm
Weight: %.0f kg
Injuries or limitations: %s
Available days for workout: %d
Fitness goal: %s
Fitness level: %s

As a professional coach:
- Consider muscle group splits that allow adequate recovery
- Design exercises that match the fitness level and account for any injuries
- Structure the workouts to achieve the stated fitness goal

CRITICAL SCHEMA INSTRUCTIONS:
- Your output MUST contain ONLY the fields shown below, NO ADDITIONAL FIELDS
- "sets" and "reps" MUST ALWAYS be NUMBERS, never strings
- NEVER add extra fields like description, rest, weight or notes
- Your response must be valid JSON exactly matching this structure:
{
  "schedule": ["Monday", "Wednesday", "Friday"],
  "exercises": [
    {
      "day": "Monday",
      "routines": [
        {"name": "Exercise Name", "sets": 3, "reps": 10}
      ]
    }
  ]
}

DO NOT add any fields. Return valid JSON only.`,
		req.Age, req.HeightCm, req.WeightKg, orNone(req.InjuryHistory),
		req.WorkoutDays, req.FitnessGoal, req.FitnessLevel)
}

func dietPrompt(req types.GenerateProgramRequest) string {
	return fmt.Sprintf(`You are an experienced nutrition coach creating a personalized diet plan based on:
Age: %d
Height: %.0f cm
Weight: %.0f kg
Fitness goal: %s
Dietary restrictions: %s

As a professional nutrition coach:
- Calculate appropriate daily calorie intake for the stated goal
- Create a balanced meal plan respecting the dietary restrictions
- Suggest whole-food options where possible

CRITICAL SCHEMA INSTRUCTIONS:
- Your output MUST contain ONLY the fields shown below, NO ADDITIONAL FIELDS
- "daily_calories" MUST be a NUMBER, not a string
- NEVER add extra fields like macros, portions or timing
- Your response must be valid JSON exactly matching this structure:
{
  "daily_calories": 2000,
  "meals": [
    {"name": "Breakfast", "foods": ["Oatmeal with berries", "Greek yogurt"]}
  ]
}

DO NOT add any fields. Return valid JSON only.`,
		req.Age, req.HeightCm, req.WeightKg, req.FitnessGoal, orNone(req.DietaryNeeds))
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
