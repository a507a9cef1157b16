package trainer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/gritfit/gritfit-api/internal/types"
)

var _ TrainerService = (*TrainerServiceImpl)(nil)

// TrainerService defines the business logic contract for trainer profiles,
// availability and bookable slots.
type TrainerService interface {
	ListTrainers(ctx context.Context) ([]types.TrainerProfile, error)
	GetTrainer(ctx context.Context, trainerID uuid.UUID) (*types.TrainerProfile, error)
	// UpdateMyProfile updates the profile belonging to the trainer-role
	// user, creating the row on first use.
	UpdateMyProfile(ctx context.Context, userID uuid.UUID, params types.UpdateTrainerProfileParams) (*types.TrainerProfile, error)

	GetWeeklyAvailability(ctx context.Context, userID uuid.UUID) ([]types.AvailabilityRule, error)
	// SetWeeklyAvailability replaces the trainer's recurring schedule.
	SetWeeklyAvailability(ctx context.Context, userID uuid.UUID, rules []types.AvailabilityRule) error
	AddOverride(ctx context.Context, userID uuid.UUID, override types.AvailabilityOverride) (*types.AvailabilityOverride, error)
	RemoveOverride(ctx context.Context, userID, overrideID uuid.UUID) error

	// GetAvailableSlots derives the bookable slots for one trainer and
	// date. Overrides win over weekly rules; a blocked override empties
	// the day. A trainer with no declared availability yields an empty
	// slice, not an error.
	GetAvailableSlots(ctx context.Context, trainerID uuid.UUID, date string, durationMinutes int) ([]types.TimeSlot, error)
}

type TrainerServiceImpl struct {
	logger *slog.Logger
	repo   TrainerRepo
	cache  *cache.Cache
}

const trainerListCacheKey = "trainers:list"

func NewTrainerService(repo TrainerRepo, logger *slog.Logger) *TrainerServiceImpl {
	return &TrainerServiceImpl{
		logger: logger,
		repo:   repo,
		cache:  cache.New(5*time.Minute, 10*time.Minute),
	}
}

func (s *TrainerServiceImpl) ListTrainers(ctx context.Context) ([]types.TrainerProfile, error) {
	if cached, found := s.cache.Get(trainerListCacheKey); found {
		if profiles, ok := cached.([]types.TrainerProfile); ok {
			return profiles, nil
		}
	}

	profiles, err := s.repo.ListProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching trainers: %w", err)
	}
	s.cache.Set(trainerListCacheKey, profiles, cache.DefaultExpiration)
	return profiles, nil
}

func (s *TrainerServiceImpl) GetTrainer(ctx context.Context, trainerID uuid.UUID) (*types.TrainerProfile, error) {
	return s.repo.GetProfileByID(ctx, trainerID)
}

func (s *TrainerServiceImpl) UpdateMyProfile(ctx context.Context, userID uuid.UUID, params types.UpdateTrainerProfileParams) (*types.TrainerProfile, error) {
	l := s.logger.With(slog.String("method", "UpdateMyProfile"), slog.String("userID", userID.String()))

	profile, err := s.repo.EnsureProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ensuring trainer profile: %w", err)
	}
	updated, err := s.repo.UpdateProfile(ctx, profile.ID, params)
	if err != nil {
		return nil, err
	}
	s.cache.Delete(trainerListCacheKey)
	l.InfoContext(ctx, "Trainer profile updated", slog.String("trainerID", updated.ID.String()))
	return updated, nil
}

func (s *TrainerServiceImpl) GetWeeklyAvailability(ctx context.Context, userID uuid.UUID) ([]types.AvailabilityRule, error) {
	profile, err := s.repo.GetProfileByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListRules(ctx, profile.ID)
}

func (s *TrainerServiceImpl) SetWeeklyAvailability(ctx context.Context, userID uuid.UUID, rules []types.AvailabilityRule) error {
	l := s.logger.With(slog.String("method", "SetWeeklyAvailability"), slog.String("userID", userID.String()))

	for _, rule := range rules {
		if err := validateWindow(rule.StartMinutes, rule.EndMinutes); err != nil {
			return fmt.Errorf("%w: %s", types.ErrValidation, err.Error())
		}
		if rule.Weekday < time.Sunday || rule.Weekday > time.Saturday {
			return fmt.Errorf("%w: weekday out of range", types.ErrValidation)
		}
	}

	profile, err := s.repo.EnsureProfile(ctx, userID)
	if err != nil {
		return fmt.Errorf("ensuring trainer profile: %w", err)
	}
	if err := s.repo.ReplaceRules(ctx, profile.ID, rules); err != nil {
		return err
	}
	l.InfoContext(ctx, "Weekly availability replaced", slog.Int("rules", len(rules)))
	return nil
}

func (s *TrainerServiceImpl) AddOverride(ctx context.Context, userID uuid.UUID, override types.AvailabilityOverride) (*types.AvailabilityOverride, error) {
	if _, err := time.Parse("2006-01-02", override.Date); err != nil {
		return nil, fmt.Errorf("%w: invalid date", types.ErrValidation)
	}
	if !override.Blocked {
		if err := validateWindow(override.StartMinutes, override.EndMinutes); err != nil {
			return nil, fmt.Errorf("%w: %s", types.ErrValidation, err.Error())
		}
	}

	profile, err := s.repo.GetProfileByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	override.TrainerID = profile.ID
	return s.repo.CreateOverride(ctx, override)
}

func (s *TrainerServiceImpl) RemoveOverride(ctx context.Context, userID, overrideID uuid.UUID) error {
	profile, err := s.repo.GetProfileByUserID(ctx, userID)
	if err != nil {
		return err
	}
	return s.repo.DeleteOverride(ctx, profile.ID, overrideID)
}

func (s *TrainerServiceImpl) GetAvailableSlots(ctx context.Context, trainerID uuid.UUID, date string, durationMinutes int) ([]types.TimeSlot, error) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date", types.ErrValidation)
	}
	if durationMinutes <= 0 || durationMinutes > 240 {
		return nil, fmt.Errorf("%w: invalid duration", types.ErrValidation)
	}

	overrides, err := s.repo.ListOverridesForDate(ctx, trainerID, date)
	if err != nil {
		return nil, err
	}

	windows, blocked := windowsFromOverrides(overrides)
	if blocked {
		return []types.TimeSlot{}, nil
	}
	if len(windows) == 0 {
		rules, err := s.repo.ListRules(ctx, trainerID)
		if err != nil {
			return nil, err
		}
		windows = windowsForWeekday(rules, day.Weekday())
	}
	if len(windows) == 0 {
		return []types.TimeSlot{}, nil
	}

	booked, err := s.repo.ListBookedIntervals(ctx, trainerID, date)
	if err != nil {
		return nil, err
	}

	slots := ComputeSlots(windows, booked, durationMinutes)
	if slots == nil {
		slots = []types.TimeSlot{}
	}
	return slots, nil
}

// windowsFromOverrides reports the override windows for a date. Any blocked
// override takes the whole day off regardless of other rows.
func windowsFromOverrides(overrides []types.AvailabilityOverride) ([]Window, bool) {
	var windows []Window
	for _, o := range overrides {
		if o.Blocked {
			return nil, true
		}
		windows = append(windows, Window{StartMinutes: o.StartMinutes, EndMinutes: o.EndMinutes})
	}
	return windows, false
}

func windowsForWeekday(rules []types.AvailabilityRule, weekday time.Weekday) []Window {
	var windows []Window
	for _, rule := range rules {
		if rule.Weekday == weekday {
			windows = append(windows, Window{StartMinutes: rule.StartMinutes, EndMinutes: rule.EndMinutes})
		}
	}
	return windows
}

func validateWindow(start, end int) error {
	if start < 0 || end > 24*60 || end <= start {
		return fmt.Errorf("window %d-%d out of range", start, end)
	}
	return nil
}
