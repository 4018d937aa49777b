package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/devconnector/internal/apperror"
	"github.com/sakif/devconnector/internal/collection"
	"github.com/sakif/devconnector/internal/metrics"
	"github.com/sakif/devconnector/internal/model"
	"github.com/sakif/devconnector/internal/repository"
)

// PostService owns the Post aggregate and its likes and comments.
type PostService struct {
	posts   repository.PostRepository
	users   repository.UserRepository
	metrics metrics.Recorder
	logger  *slog.Logger
}

func NewPostService(
	posts repository.PostRepository,
	users repository.UserRepository,
	rec metrics.Recorder,
	logger *slog.Logger,
) *PostService {
	return &PostService{
		posts:   posts,
		users:   users,
		metrics: rec,
		logger:  logger,
	}
}

// Create publishes a new post. The author's current name and avatar are
// copied onto the post and never refreshed afterwards.
func (s *PostService) Create(ctx context.Context, author, text string) (*model.Post, error) {
	text, err := requireText("text", text, MaxPostTextLength)
	if err != nil {
		return nil, err
	}
	user, err := s.lookupUser(ctx, author)
	if err != nil {
		return nil, err
	}

	post := &model.Post{
		Author:       user.ID,
		AuthorName:   user.Name,
		AuthorAvatar: user.AvatarURL,
		Text:         text,
		Likes:        []model.Like{},
		Comments:     []model.Comment{},
	}
	if err := s.posts.CreatePost(ctx, post); err != nil {
		s.logger.Error("failed to create post",
			slog.String("author", user.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating post: %w", err)
	}

	s.logger.Info("post created",
		slog.String("id", post.ID),
		slog.String("author", post.Author),
	)
	return post, nil
}

func (s *PostService) Get(ctx context.Context, id string) (*model.Post, error) {
	id, err := requireID("post", id)
	if err != nil {
		return nil, err
	}
	return s.posts.GetPost(ctx, id)
}

// ListAll returns every post, newest first.
func (s *PostService) ListAll(ctx context.Context) ([]model.Post, error) {
	return s.list(ctx, repository.ListOptions{})
}

// ListByAuthor returns the posts written by author, newest first.
func (s *PostService) ListByAuthor(ctx context.Context, author string) ([]model.Post, error) {
	author, err := requireID("user", author)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, repository.ListOptions{Author: author})
}

func (s *PostService) list(ctx context.Context, opts repository.ListOptions) ([]model.Post, error) {
	posts, err := s.posts.ListPosts(ctx, opts)
	if err != nil {
		s.logger.Error("failed to list posts",
			slog.String("author", opts.Author),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	return posts, nil
}

// UpdateText replaces the body of a post. Only its author may do so.
func (s *PostService) UpdateText(ctx context.Context, actor, id, text string) (*model.Post, error) {
	text, err := requireText("text", text, MaxPostTextLength)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, actor, id, "post", "update", func(p *model.Post) error {
		if p.Author != actor {
			return apperror.Unauthorized("User not authorized")
		}
		p.Text = text
		return nil
	})
}

// Delete removes a post. Only its author may do so.
func (s *PostService) Delete(ctx context.Context, actor, id string) error {
	actor, err := requireID("user", actor)
	if err != nil {
		return err
	}
	id, err = requireID("post", id)
	if err != nil {
		return err
	}

	post, err := s.posts.GetPost(ctx, id)
	if err != nil {
		return err
	}
	if post.Author != actor {
		s.logger.Info("post delete rejected",
			slog.String("id", id),
			slog.String("actor", actor),
		)
		return apperror.Unauthorized("User not authorized")
	}

	if err := s.posts.DeletePost(ctx, id); err != nil {
		if !isExpected(err) {
			s.logger.Error("failed to delete post",
				slog.String("id", id),
				slog.String("error", err.Error()),
			)
		}
		return fmt.Errorf("deleting post: %w", err)
	}

	s.logger.Info("post deleted", slog.String("id", id))
	return nil
}

// ToggleLike likes the post for actor, or removes actor's like if there is
// one already. It returns the resulting likes, most recent first.
func (s *PostService) ToggleLike(ctx context.Context, actor, id string) ([]model.Like, error) {
	op := "toggle"
	post, err := s.mutate(ctx, actor, id, collection.Likes.Name, op, func(p *model.Post) error {
		next, added, err := collection.Toggle(collection.Likes, p.Likes,
			func(l model.Like) bool { return l.Actor == actor },
			model.Like{Actor: actor},
		)
		if err != nil {
			return err
		}
		if added {
			op = "add"
		} else {
			op = "remove"
		}
		p.Likes = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("like toggled",
		slog.String("post", post.ID),
		slog.String("actor", actor),
		slog.String("result", op),
	)
	return post.Likes, nil
}

// AddComment prepends a comment by actor. The actor's current name and
// avatar are copied onto the comment.
func (s *PostService) AddComment(ctx context.Context, actor, id, text string) ([]model.Comment, error) {
	text, err := requireText("text", text, MaxCommentTextLength)
	if err != nil {
		return nil, err
	}
	// The user lookup happens before the mutation starts: the store serializes
	// mutations and must not be re-entered from inside one.
	user, err := s.lookupUser(ctx, actor)
	if err != nil {
		return nil, err
	}

	comment := model.Comment{
		Actor:        user.ID,
		Text:         text,
		AuthorName:   user.Name,
		AuthorAvatar: user.AvatarURL,
	}
	post, err := s.mutate(ctx, actor, id, collection.Comments.Name, "add", func(p *model.Post) error {
		comment.CreatedAt = now()
		next, err := collection.InsertFront(collection.Comments, p.Comments, comment)
		if err != nil {
			return err
		}
		p.Comments = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return post.Comments, nil
}

// RemoveComment deletes a comment. Only the comment's author may do so; the
// author of the post has no say over other people's comments.
func (s *PostService) RemoveComment(ctx context.Context, actor, postID, commentID string) ([]model.Comment, error) {
	post, err := s.mutate(ctx, actor, postID, collection.Comments.Name, "remove", func(p *model.Post) error {
		if err := authorizeComment(p.Comments, commentID, actor); err != nil {
			return err
		}
		next, err := collection.RemoveByID(collection.Comments, p.Comments, commentID)
		if err != nil {
			return err
		}
		p.Comments = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return post.Comments, nil
}

// UpdateComment replaces a comment's text. The comment keeps its id, author,
// snapshots and creation time.
func (s *PostService) UpdateComment(ctx context.Context, actor, postID, commentID, text string) (*model.Post, error) {
	text, err := requireText("text", text, MaxCommentTextLength)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, actor, postID, collection.Comments.Name, "update", func(p *model.Post) error {
		if err := authorizeComment(p.Comments, commentID, actor); err != nil {
			return err
		}
		next, err := collection.ReplaceByID(collection.Comments, p.Comments, commentID, func(c *model.Comment) {
			c.Text = text
		})
		if err != nil {
			return err
		}
		p.Comments = next
		return nil
	})
}

// authorizeComment checks that commentID exists and was written by actor.
func authorizeComment(comments []model.Comment, commentID, actor string) error {
	c, err := collection.FindByID(collection.Comments, comments, commentID)
	if err != nil {
		return err
	}
	if c.Actor != actor {
		return apperror.Unauthorized("User not authorized")
	}
	return nil
}

func (s *PostService) lookupUser(ctx context.Context, id string) (*model.User, error) {
	id, err := requireID("user", id)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		if !isExpected(err) {
			s.logger.Error("failed to load user",
				slog.String("user", id),
				slog.String("error", err.Error()),
			)
		}
		return nil, fmt.Errorf("loading user: %w", err)
	}
	return user, nil
}

// mutate runs fn against the stored post and records the outcome.
func (s *PostService) mutate(ctx context.Context, actor, id, coll, op string, fn func(p *model.Post) error) (*model.Post, error) {
	actor, err := requireID("user", actor)
	if err != nil {
		return nil, err
	}
	id, err = requireID("post", id)
	if err != nil {
		return nil, err
	}

	post, err := s.posts.MutatePost(ctx, id, fn)
	observe(s.metrics, coll, op, err)
	if err != nil {
		if isExpected(err) {
			s.logger.Info("post change rejected",
				slog.String("post", id),
				slog.String("actor", actor),
				slog.String("collection", coll),
				slog.String("op", op),
				slog.String("reason", err.Error()),
			)
			return nil, err
		}
		s.logger.Error("failed to change post",
			slog.String("post", id),
			slog.String("collection", coll),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("changing %s: %w", coll, err)
	}
	return post, nil
}
