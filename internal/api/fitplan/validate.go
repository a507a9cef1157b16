package fitplan

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/gritfit/gritfit-api/internal/types"
)

// The model is prompted for strict JSON but still drifts: numbers arrive as
// strings or ranges ("8-10"), and extra fields show up. Parsing goes through
// a loose intermediate so unknown fields are dropped and numerics coerced
// before anything touches the database.

type rawWorkoutPlan struct {
	Schedule  []string `json:"schedule"`
	Exercises []struct {
		Day      string `json:"day"`
		Routines []struct {
			Name string          `json:"name"`
			Sets json.RawMessage `json:"sets"`
			Reps json.RawMessage `json:"reps"`
		} `json:"routines"`
	} `json:"exercises"`
}

type rawDietPlan struct {
	DailyCalories json.RawMessage `json:"daily_calories"`
	Meals         []struct {
		Name  string   `json:"name"`
		Foods []string `json:"foods"`
	} `json:"meals"`
}

// ParseWorkoutPlan validates raw model output against the workout schema.
func ParseWorkoutPlan(raw string) (*types.WorkoutPlan, error) {
	var loose rawWorkoutPlan
	if err := json.Unmarshal([]byte(stripFences(raw)), &loose); err != nil {
		return nil, fmt.Errorf("workout plan is not valid JSON: %w", err)
	}
	if len(loose.Schedule) == 0 {
		return nil, fmt.Errorf("workout plan has no schedule")
	}
	if len(loose.Exercises) == 0 {
		return nil, fmt.Errorf("workout plan has no exercises")
	}

	plan := &types.WorkoutPlan{Schedule: loose.Schedule}
	for _, day := range loose.Exercises {
		if day.Day == "" {
			return nil, fmt.Errorf("workout day missing name")
		}
		wd := types.WorkoutDay{Day: day.Day}
		for _, routine := range day.Routines {
			if routine.Name == "" {
				return nil, fmt.Errorf("routine missing name on %s", day.Day)
			}
			sets, err := coerceInt(routine.Sets)
			if err != nil {
				return nil, fmt.Errorf("routine %q: invalid sets: %w", routine.Name, err)
			}
			reps, err := coerceInt(routine.Reps)
			if err != nil {
				return nil, fmt.Errorf("routine %q: invalid reps: %w", routine.Name, err)
			}
			wd.Routines = append(wd.Routines, types.Routine{Name: routine.Name, Sets: sets, Reps: reps})
		}
		if len(wd.Routines) == 0 {
			return nil, fmt.Errorf("workout day %s has no routines", day.Day)
		}
		plan.Exercises = append(plan.Exercises, wd)
	}
	return plan, nil
}

// ParseDietPlan validates raw model output against the diet schema.
func ParseDietPlan(raw string) (*types.DietPlan, error) {
	var loose rawDietPlan
	if err := json.Unmarshal([]byte(stripFences(raw)), &loose); err != nil {
		return nil, fmt.Errorf("diet plan is not valid JSON: %w", err)
	}

	calories, err := coerceInt(loose.DailyCalories)
	if err != nil || calories <= 0 {
		return nil, fmt.Errorf("diet plan has invalid daily_calories")
	}
	if len(loose.Meals) == 0 {
		return nil, fmt.Errorf("diet plan has no meals")
	}

	plan := &types.DietPlan{DailyCalories: calories}
	for _, meal := range loose.Meals {
		if meal.Name == "" || len(meal.Foods) == 0 {
			return nil, fmt.Errorf("diet plan has an incomplete meal")
		}
		plan.Meals = append(plan.Meals, types.Meal{Name: meal.Name, Foods: meal.Foods})
	}
	return plan, nil
}

// coerceInt accepts a JSON number, a numeric string, or a range like "8-10"
// (the lower bound wins).
func coerceInt(raw json.RawMessage) (int, error) {
	if len(raw) == 0 {
		return 0, fmt.Errorf("missing value")
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return int(n), nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("neither number nor string")
	}
	s = strings.TrimSpace(s)
	if lo, _, found := strings.Cut(s, "-"); found {
		s = strings.TrimSpace(lo)
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("unparseable value %q", s)
	}
	return v, nil
}

// stripFences removes a surrounding markdown code fence if present.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
