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

var _ repository.PostRepository = (*DB)(nil)

const postSelect = `
	SELECT id, user_id, name, avatar, text, likes, comments, created_at, updated_at
	FROM posts`

func scanPost(row scanner) (*model.Post, error) {
	var (
		p               model.Post
		likes, comments string
	)
	err := row.Scan(
		&p.ID, &p.Author, &p.AuthorName, &p.AuthorAvatar, &p.Text,
		&likes, &comments, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(likes), &p.Likes); err != nil {
		return nil, fmt.Errorf("decoding likes: %w", err)
	}
	if err := json.Unmarshal([]byte(comments), &p.Comments); err != nil {
		return nil, fmt.Errorf("decoding comments: %w", err)
	}
	return &p, nil
}

func getPost(ctx context.Context, q querier, id string) (*model.Post, error) {
	p, err := scanPost(q.QueryRowContext(ctx, postSelect+` WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("post", id)
		}
		return nil, fmt.Errorf("sqlite: getting post %s: %w", id, err)
	}
	return p, nil
}

// CreatePost inserts a new post, filling in ID and timestamps.
func (db *DB) CreatePost(ctx context.Context, post *model.Post) error {
	post.Likes = orEmpty(post.Likes)
	post.Comments = orEmpty(post.Comments)

	likes, err := encodeJSON(post.Likes)
	if err != nil {
		return fmt.Errorf("sqlite: encoding likes: %w", err)
	}
	comments, err := encodeJSON(post.Comments)
	if err != nil {
		return fmt.Errorf("sqlite: encoding comments: %w", err)
	}

	now := time.Now().UTC()
	post.ID = xid.New().String()
	post.CreatedAt = now
	post.UpdatedAt = now

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO posts (id, user_id, name, avatar, text, likes, comments, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		post.ID, post.Author, post.AuthorName, post.AuthorAvatar, post.Text,
		likes, comments, post.CreatedAt, post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating post: %w", err)
	}
	return nil
}

// GetPost retrieves a single post by its ID.
func (db *DB) GetPost(ctx context.Context, id string) (*model.Post, error) {
	return getPost(ctx, db.conn, id)
}

// ListPosts returns posts newest first, optionally filtered by author.
// xid ids sort by creation time, so they break created_at ties.
func (db *DB) ListPosts(ctx context.Context, opts repository.ListOptions) ([]model.Post, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	query := postSelect
	args := []any{}
	if opts.Author != "" {
		query += ` WHERE user_id = ?`
		args = append(args, opts.Author)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing posts: %w", err)
	}
	defer rows.Close()

	posts := []model.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning post row: %w", err)
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating posts: %w", err)
	}

	return posts, nil
}

// MutatePost loads the post, hands it to fn and writes text, likes and
// comments back in one transaction. If fn fails nothing is written.
func (db *DB) MutatePost(ctx context.Context, id string, fn func(p *model.Post) error) (*model.Post, error) {
	var out *model.Post
	err := db.inTx(ctx, func(tx *sql.Tx) error {
		p, err := getPost(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := fn(p); err != nil {
			return err
		}

		likes, err := encodeJSON(orEmpty(p.Likes))
		if err != nil {
			return fmt.Errorf("sqlite: encoding likes: %w", err)
		}
		comments, err := encodeJSON(orEmpty(p.Comments))
		if err != nil {
			return fmt.Errorf("sqlite: encoding comments: %w", err)
		}
		p.UpdatedAt = time.Now().UTC()

		_, err = tx.ExecContext(ctx,
			`UPDATE posts SET text = ?, likes = ?, comments = ?, updated_at = ? WHERE id = ?`,
			p.Text, likes, comments, p.UpdatedAt, p.ID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: updating post %s: %w", id, err)
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeletePost removes a post by its ID.
func (db *DB) DeletePost(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting post %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("post", id)
	}
	return nil
}
