package fitplan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWorkoutPlan_Valid(t *testing.T) {
	raw := `{
		"schedule": ["Monday", "Thursday"],
		"exercises": [
			{"day": "Monday", "routines": [{"name": "Squat", "sets": 3, "reps": 10}]},
			{"day": "Thursday", "routines": [{"name": "Bench Press", "sets": 4, "reps": 8}]}
		]
	}`

	plan, err := ParseWorkoutPlan(raw)

	require.NoError(t, err)
	assert.Equal(t, []string{"Monday", "Thursday"}, plan.Schedule)
	require.Len(t, plan.Exercises, 2)
	assert.Equal(t, 3, plan.Exercises[0].Routines[0].Sets)
	assert.Equal(t, 10, plan.Exercises[0].Routines[0].Reps)
}

func TestParseWorkoutPlan_CoercesStringNumbers(t *testing.T) {
	raw := `{
		"schedule": ["Monday"],
		"exercises": [
			{"day": "Monday", "routines": [{"name": "Deadlift", "sets": "5", "reps": "8-10"}]}
		]
	}`

	plan, err := ParseWorkoutPlan(raw)

	require.NoError(t, err)
	assert.Equal(t, 5, plan.Exercises[0].Routines[0].Sets)
	assert.Equal(t, 8, plan.Exercises[0].Routines[0].Reps)
}

func TestParseWorkoutPlan_DropsUnknownFields(t *testing.T) {
	raw := `{
		"schedule": ["Monday"],
		"exercises": [
			{"day": "Monday", "routines": [
				{"name": "Squat", "sets": 3, "reps": 10, "rest": "90s", "notes": "go deep"}
			]}
		],
		"description": "extra"
	}`

	plan, err := ParseWorkoutPlan(raw)

	require.NoError(t, err)
	assert.Equal(t, "Squat", plan.Exercises[0].Routines[0].Name)
}

func TestParseWorkoutPlan_StripsMarkdownFences(t *testing.T) {
	raw := "```json\n{\"schedule\": [\"Monday\"], \"exercises\": [{\"day\": \"Monday\", \"routines\": [{\"name\": \"Row\", \"sets\": 3, \"reps\": 12}]}]}\n```"

	plan, err := ParseWorkoutPlan(raw)

	require.NoError(t, err)
	assert.Equal(t, "Row", plan.Exercises[0].Routines[0].Name)
}

func TestParseWorkoutPlan_Invalid(t *testing.T) {
	cases := map[string]string{
		"not json":         `plan: squats`,
		"empty schedule":   `{"schedule": [], "exercises": [{"day": "Monday", "routines": [{"name": "Squat", "sets": 3, "reps": 10}]}]}`,
		"no exercises":     `{"schedule": ["Monday"], "exercises": []}`,
		"missing day name": `{"schedule": ["Monday"], "exercises": [{"routines": [{"name": "Squat", "sets": 3, "reps": 10}]}]}`,
		"no routines":      `{"schedule": ["Monday"], "exercises": [{"day": "Monday", "routines": []}]}`,
		"bad sets":         `{"schedule": ["Monday"], "exercises": [{"day": "Monday", "routines": [{"name": "Squat", "sets": "heavy", "reps": 10}]}]}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseWorkoutPlan(raw)
			assert.Error(t, err)
		})
	}
}

func TestParseDietPlan_Valid(t *testing.T) {
	raw := `{
		"daily_calories": 2200,
		"meals": [
			{"name": "Breakfast", "foods": ["Oatmeal", "Greek yogurt"]},
			{"name": "Dinner", "foods": ["Salmon", "Rice"]}
		]
	}`

	plan, err := ParseDietPlan(raw)

	require.NoError(t, err)
	assert.Equal(t, 2200, plan.DailyCalories)
	require.Len(t, plan.Meals, 2)
}

func TestParseDietPlan_CoercesStringCalories(t *testing.T) {
	raw := `{"daily_calories": "1800", "meals": [{"name": "Lunch", "foods": ["Salad"]}]}`

	plan, err := ParseDietPlan(raw)

	require.NoError(t, err)
	assert.Equal(t, 1800, plan.DailyCalories)
}

func TestParseDietPlan_Invalid(t *testing.T) {
	cases := map[string]string{
		"no meals":        `{"daily_calories": 2000, "meals": []}`,
		"zero calories":   `{"daily_calories": 0, "meals": [{"name": "Lunch", "foods": ["Salad"]}]}`,
		"incomplete meal": `{"daily_calories": 2000, "meals": [{"name": "", "foods": []}]}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseDietPlan(raw)
			assert.Error(t, err)
		})
	}
}
