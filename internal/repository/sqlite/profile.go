package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/devconnector/internal/apperror"
	"github.com/sakif/devconnector/internal/model"
	"github.com/sakif/devconnector/internal/repository"
)

var _ repository.ProfileRepository = (*DB)(nil)

// The owner's display name and avatar are joined live for reads; a profile
// whose user was already deleted still loads, with empty name/avatar.
const profileSelect = `
	SELECT p.id, p.user_id, p.company, p.website, p.location, p.bio, p.status,
	       p.githubusername, p.skills, p.social, p.experience, p.education,
	       p.created_at, p.updated_at,
	       COALESCE(u.name, ''), COALESCE(u.avatar_url, '')
	FROM profiles p
	LEFT JOIN users u ON u.id = p.user_id`

func scanProfile(row scanner) (*model.Profile, error) {
	var (
		p                                    model.Profile
		skills, social, experience, education string
	)
	err := row.Scan(
		&p.ID, &p.Owner, &p.Company, &p.Website, &p.Location, &p.Bio, &p.Status,
		&p.GitHubUsername, &skills, &social, &experience, &education,
		&p.CreatedAt, &p.UpdatedAt,
		&p.OwnerName, &p.OwnerAvatar,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(skills), &p.Skills); err != nil {
		return nil, fmt.Errorf("decoding skills: %w", err)
	}
	if err := json.Unmarshal([]byte(social), &p.Social); err != nil {
		return nil, fmt.Errorf("decoding social: %w", err)
	}
	if err := json.Unmarshal([]byte(experience), &p.Experience); err != nil {
		return nil, fmt.Errorf("decoding experience: %w", err)
	}
	if err := json.Unmarshal([]byte(education), &p.Education); err != nil {
		return nil, fmt.Errorf("decoding education: %w", err)
	}
	return &p, nil
}

func getProfileByOwner(ctx context.Context, q querier, owner string) (*model.Profile, error) {
	p, err := scanProfile(q.QueryRowContext(ctx, profileSelect+` WHERE p.user_id = ?`, owner))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("profile", owner)
		}
		return nil, fmt.Errorf("sqlite: getting profile for %s: %w", owner, err)
	}
	return p, nil
}

// GetProfileByOwner retrieves the profile owned by the given user.
// Returns apperror.ErrNotFound if that user has no profile.
func (db *DB) GetProfileByOwner(ctx context.Context, owner string) (*model.Profile, error) {
	return getProfileByOwner(ctx, db.conn, owner)
}

// ListProfiles returns every profile, newest first.
func (db *DB) ListProfiles(ctx context.Context) ([]model.Profile, error) {
	rows, err := db.conn.QueryContext(ctx, profileSelect+` ORDER BY p.created_at DESC, p.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing profiles: %w", err)
	}
	defer rows.Close()

	profiles := []model.Profile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning profile row: %w", err)
		}
		profiles = append(profiles, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating profiles: %w", err)
	}

	return profiles, nil
}

// UpsertProfile is "create or update" as a single operation. The lookup and
// the write share one transaction, so two first writes for the same owner
// cannot both insert.
func (db *DB) UpsertProfile(
	ctx context.Context,
	owner string,
	fn func(existing *model.Profile) (*model.Profile, error),
) (*model.Profile, error) {
	err := db.inTx(ctx, func(tx *sql.Tx) error {
		existing, err := getProfileByOwner(ctx, tx, owner)
		if err != nil && !errors.Is(err, apperror.ErrNotFound) {
			return err
		}

		next, err := fn(existing)
		if err != nil {
			return err
		}
		next.Owner = owner

		if existing == nil {
			return insertProfile(ctx, tx, next)
		}
		next.ID = existing.ID
		next.CreatedAt = existing.CreatedAt
		return writeProfile(ctx, tx, next)
	})
	if err != nil {
		return nil, err
	}

	return db.GetProfileByOwner(ctx, owner)
}

// MutateProfile loads the owner's profile, hands it to fn and writes the
// result back in one transaction. If fn fails nothing is written.
func (db *DB) MutateProfile(ctx context.Context, owner string, fn func(p *model.Profile) error) (*model.Profile, error) {
	var out *model.Profile
	err := db.inTx(ctx, func(tx *sql.Tx) error {
		p, err := getProfileByOwner(ctx, tx, owner)
		if err != nil {
			return err
		}
		if err := fn(p); err != nil {
			return err
		}
		if err := writeProfile(ctx, tx, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteProfile removes the profile owned by owner.
func (db *DB) DeleteProfile(ctx context.Context, owner string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM profiles WHERE user_id = ?`, owner)
	if err != nil {
		return fmt.Errorf("sqlite: deleting profile for %s: %w", owner, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("profile", owner)
	}
	return nil
}

type profileDoc struct {
	skills, social, experience, education string
}

func encodeProfile(p *model.Profile) (profileDoc, error) {
	var (
		d   profileDoc
		err error
	)
	if d.skills, err = encodeJSON(orEmpty(p.Skills)); err != nil {
		return d, fmt.Errorf("sqlite: encoding skills: %w", err)
	}
	if d.social, err = encodeJSON(p.Social); err != nil {
		return d, fmt.Errorf("sqlite: encoding social: %w", err)
	}
	if d.experience, err = encodeJSON(orEmpty(p.Experience)); err != nil {
		return d, fmt.Errorf("sqlite: encoding experience: %w", err)
	}
	if d.education, err = encodeJSON(orEmpty(p.Education)); err != nil {
		return d, fmt.Errorf("sqlite: encoding education: %w", err)
	}
	return d, nil
}

func insertProfile(ctx context.Context, q querier, p *model.Profile) error {
	d, err := encodeProfile(p)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	p.ID = xid.New().String()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err = q.ExecContext(ctx,
		`INSERT INTO profiles (id, user_id, company, website, location, bio, status,
		     githubusername, skills, social, experience, education, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Owner, p.Company, p.Website, p.Location, p.Bio, p.Status,
		p.GitHubUsername, d.skills, d.social, d.experience, d.education,
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting profile for %s: %w", p.Owner, err)
	}
	return nil
}

// writeProfile replaces the whole stored document for p.Owner.
func writeProfile(ctx context.Context, q querier, p *model.Profile) error {
	d, err := encodeProfile(p)
	if err != nil {
		return err
	}
	p.UpdatedAt = time.Now().UTC()

	result, err := q.ExecContext(ctx,
		`UPDATE profiles
		 SET company = ?, website = ?, location = ?, bio = ?, status = ?, githubusername = ?,
		     skills = ?, social = ?, experience = ?, education = ?, updated_at = ?
		 WHERE user_id = ?`,
		p.Company, p.Website, p.Location, p.Bio, p.Status, p.GitHubUsername,
		d.skills, d.social, d.experience, d.education, p.UpdatedAt,
		p.Owner,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating profile for %s: %w", p.Owner, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("profile", p.Owner)
	}
	return nil
}
