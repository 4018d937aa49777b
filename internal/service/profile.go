package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/devconnector/internal/apperror"
	"github.com/sakif/devconnector/internal/collection"
	"github.com/sakif/devconnector/internal/metrics"
	"github.com/sakif/devconnector/internal/model"
	"github.com/sakif/devconnector/internal/repository"
)

// ProfileInput carries the fields of a create-or-update request.
//
// A nil pointer means "not supplied": the stored value is kept. A non-nil
// pointer replaces the stored value, even with an empty string, which is how
// a caller clears a field.
type ProfileInput struct {
	Company        *string
	Website        *string
	Location       *string
	Bio            *string
	Status         *string
	GitHubUsername *string
	// Skills is a comma-separated list, e.g. "go, sql ,docker".
	Skills *string
	Social SocialInput
}

type SocialInput struct {
	YouTube   *string
	Facebook  *string
	Twitter   *string
	Instagram *string
	LinkedIn  *string
}

// ProfileService owns the Profile aggregate and its experience/education
// collections.
type ProfileService struct {
	profiles repository.ProfileRepository
	users    repository.UserRepository
	metrics  metrics.Recorder
	logger   *slog.Logger
}

func NewProfileService(
	profiles repository.ProfileRepository,
	users repository.UserRepository,
	rec metrics.Recorder,
	logger *slog.Logger,
) *ProfileService {
	return &ProfileService{
		profiles: profiles,
		users:    users,
		metrics:  rec,
		logger:   logger,
	}
}

// Upsert creates the owner's profile on first call and merges supplied fields
// on later calls. Experience and education are never touched here.
//
// Creating a profile requires status and skills; an update may supply any
// subset of fields.
func (s *ProfileService) Upsert(ctx context.Context, owner string, in ProfileInput) (*model.Profile, error) {
	owner, err := requireID("user", owner)
	if err != nil {
		return nil, err
	}

	// A profile always belongs to an existing user. The check runs before the
	// upsert because the store does not allow nested calls during one.
	if _, err := s.users.GetUserByID(ctx, owner); err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}

	created := false
	profile, err := s.profiles.UpsertProfile(ctx, owner, func(existing *model.Profile) (*model.Profile, error) {
		if existing == nil {
			if in.Status == nil || strings.TrimSpace(*in.Status) == "" {
				return nil, apperror.ValidationFailed("status", "Status is required")
			}
			if in.Skills == nil || len(normalizeSkills(*in.Skills)) == 0 {
				return nil, apperror.ValidationFailed("skills", "Skills is required")
			}
			created = true
			existing = &model.Profile{
				Skills:     []string{},
				Experience: []model.Experience{},
				Education:  []model.Education{},
			}
		}
		in.applyTo(existing)
		return existing, nil
	})
	if err != nil {
		if !isExpected(err) {
			s.logger.Error("failed to upsert profile",
				slog.String("owner", owner),
				slog.String("error", err.Error()),
			)
		}
		return nil, fmt.Errorf("upserting profile: %w", err)
	}

	s.logger.Info("profile saved",
		slog.String("owner", owner),
		slog.Bool("created", created),
	)
	return profile, nil
}

func (in ProfileInput) applyTo(p *model.Profile) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&p.Company, in.Company)
	set(&p.Website, in.Website)
	set(&p.Location, in.Location)
	set(&p.Bio, in.Bio)
	set(&p.Status, in.Status)
	set(&p.GitHubUsername, in.GitHubUsername)
	if in.Skills != nil {
		p.Skills = normalizeSkills(*in.Skills)
	}

	set(&p.Social.YouTube, in.Social.YouTube)
	set(&p.Social.Facebook, in.Social.Facebook)
	set(&p.Social.Twitter, in.Social.Twitter)
	set(&p.Social.Instagram, in.Social.Instagram)
	set(&p.Social.LinkedIn, in.Social.LinkedIn)
}

// Get returns the caller's own profile.
func (s *ProfileService) Get(ctx context.Context, owner string) (*model.Profile, error) {
	owner, err := requireID("user", owner)
	if err != nil {
		return nil, err
	}
	return s.profiles.GetProfileByOwner(ctx, owner)
}

// GetByUser returns the public profile of any user.
func (s *ProfileService) GetByUser(ctx context.Context, userID string) (*model.Profile, error) {
	return s.Get(ctx, userID)
}

// ListAll returns every profile, newest first.
func (s *ProfileService) ListAll(ctx context.Context) ([]model.Profile, error) {
	profiles, err := s.profiles.ListProfiles(ctx)
	if err != nil {
		s.logger.Error("failed to list profiles", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing profiles: %w", err)
	}
	return profiles, nil
}

// AddExperience puts entry at the head of the owner's experience list.
// Fails with apperror.ErrCapacityExceeded when 4 entries already exist.
func (s *ProfileService) AddExperience(ctx context.Context, owner string, entry model.Experience) (*model.Profile, error) {
	entry, err := cleanExperience(entry)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, owner, collection.Experience.Name, "add", func(p *model.Profile) error {
		next, err := collection.InsertFront(collection.Experience, p.Experience, entry)
		if err != nil {
			return err
		}
		p.Experience = next
		return nil
	})
}

// UpdateExperience replaces every field of the entry with the given id,
// keeping the id and the entry's position.
func (s *ProfileService) UpdateExperience(ctx context.Context, owner, id string, entry model.Experience) (*model.Profile, error) {
	entry, err := cleanExperience(entry)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, owner, collection.Experience.Name, "update", func(p *model.Profile) error {
		next, err := collection.ReplaceByID(collection.Experience, p.Experience, id, func(e *model.Experience) {
			*e = entry
		})
		if err != nil {
			return err
		}
		p.Experience = next
		return nil
	})
}

func (s *ProfileService) RemoveExperience(ctx context.Context, owner, id string) (*model.Profile, error) {
	return s.mutate(ctx, owner, collection.Experience.Name, "remove", func(p *model.Profile) error {
		next, err := collection.RemoveByID(collection.Experience, p.Experience, id)
		if err != nil {
			return err
		}
		p.Experience = next
		return nil
	})
}

// AddEducation mirrors AddExperience with a cap of 3.
func (s *ProfileService) AddEducation(ctx context.Context, owner string, entry model.Education) (*model.Profile, error) {
	entry, err := cleanEducation(entry)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, owner, collection.Education.Name, "add", func(p *model.Profile) error {
		next, err := collection.InsertFront(collection.Education, p.Education, entry)
		if err != nil {
			return err
		}
		p.Education = next
		return nil
	})
}

func (s *ProfileService) UpdateEducation(ctx context.Context, owner, id string, entry model.Education) (*model.Profile, error) {
	entry, err := cleanEducation(entry)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, owner, collection.Education.Name, "update", func(p *model.Profile) error {
		next, err := collection.ReplaceByID(collection.Education, p.Education, id, func(e *model.Education) {
			*e = entry
		})
		if err != nil {
			return err
		}
		p.Education = next
		return nil
	})
}

func (s *ProfileService) RemoveEducation(ctx context.Context, owner, id string) (*model.Profile, error) {
	return s.mutate(ctx, owner, collection.Education.Name, "remove", func(p *model.Profile) error {
		next, err := collection.RemoveByID(collection.Education, p.Education, id)
		if err != nil {
			return err
		}
		p.Education = next
		return nil
	})
}

// DeleteOwner removes the owner's profile and then the owner's user record.
//
// The two deletes are independent writes. If the second one fails the
// profile is already gone and the user record stays behind; the error is
// returned as-is and nothing is rolled back. An owner without a profile can
// still be deleted.
func (s *ProfileService) DeleteOwner(ctx context.Context, owner string) error {
	owner, err := requireID("user", owner)
	if err != nil {
		return err
	}

	if err := s.profiles.DeleteProfile(ctx, owner); err != nil && !errors.Is(err, apperror.ErrNotFound) {
		s.logger.Error("failed to delete profile",
			slog.String("owner", owner),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("deleting profile: %w", err)
	}

	if err := s.users.DeleteUser(ctx, owner); err != nil {
		s.logger.Error("profile deleted but user record remains",
			slog.String("owner", owner),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("deleting user: %w", err)
	}

	s.logger.Info("owner deleted", slog.String("owner", owner))
	return nil
}

// mutate runs fn against the owner's stored profile and records the outcome.
func (s *ProfileService) mutate(ctx context.Context, owner, coll, op string, fn func(p *model.Profile) error) (*model.Profile, error) {
	owner, err := requireID("user", owner)
	if err != nil {
		return nil, err
	}

	profile, err := s.profiles.MutateProfile(ctx, owner, fn)
	observe(s.metrics, coll, op, err)
	if err != nil {
		if isExpected(err) {
			s.logger.Info("profile change rejected",
				slog.String("owner", owner),
				slog.String("collection", coll),
				slog.String("op", op),
				slog.String("reason", err.Error()),
			)
			return nil, err
		}
		s.logger.Error("failed to change profile",
			slog.String("owner", owner),
			slog.String("collection", coll),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("changing %s: %w", coll, err)
	}

	s.logger.Info(coll+" "+op,
		slog.String("owner", owner),
		slog.String("profile", profile.ID),
	)
	return profile, nil
}

func cleanExperience(e model.Experience) (model.Experience, error) {
	e.ID = ""
	e.Title = strings.TrimSpace(e.Title)
	e.Company = strings.TrimSpace(e.Company)
	e.Location = strings.TrimSpace(e.Location)
	e.From = strings.TrimSpace(e.From)
	e.To = strings.TrimSpace(e.To)
	e.Description = strings.TrimSpace(e.Description)

	switch {
	case e.Title == "":
		return e, apperror.ValidationFailed("title", "Title is required")
	case e.Company == "":
		return e, apperror.ValidationFailed("company", "Company is required")
	case e.From == "":
		return e, apperror.ValidationFailed("from", "From date is required")
	}
	if e.Current {
		e.To = ""
	}
	return e, nil
}

func cleanEducation(e model.Education) (model.Education, error) {
	e.ID = ""
	e.School = strings.TrimSpace(e.School)
	e.Degree = strings.TrimSpace(e.Degree)
	e.FieldOfStudy = strings.TrimSpace(e.FieldOfStudy)
	e.From = strings.TrimSpace(e.From)
	e.To = strings.TrimSpace(e.To)
	e.Description = strings.TrimSpace(e.Description)

	switch {
	case e.School == "":
		return e, apperror.ValidationFailed("school", "School is required")
	case e.Degree == "":
		return e, apperror.ValidationFailed("degree", "Degree is required")
	case e.FieldOfStudy == "":
		return e, apperror.ValidationFailed("fieldofstudy", "Field of study is required")
	case e.From == "":
		return e, apperror.ValidationFailed("from", "From date is required")
	}
	if e.Current {
		e.To = ""
	}
	return e, nil
}
