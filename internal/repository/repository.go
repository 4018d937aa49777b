// Package repository declares the storage contracts the services depend on.
//
// READ-MODIFY-WRITE:
// Collection operations are load → mutate in memory → write. The Mutate*
// methods run that whole sequence as one unit against the store, so two
// concurrent mutations of the same aggregate cannot lose each other's
// update. The mutate callback receives the loaded aggregate; returning an
// error from it aborts the write and leaves the stored document unchanged.
package repository

import (
	"context"

	"github.com/sakif/devconnector/internal/model"
)

type ListOptions struct {
	Author string // filter by author id; "" means all authors
	Limit  int    // 0 means no limit
	Offset int
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	DeleteUser(ctx context.Context, id string) error
}

type ProfileRepository interface {
	GetProfileByOwner(ctx context.Context, owner string) (*model.Profile, error)
	ListProfiles(ctx context.Context) ([]model.Profile, error)
	// UpsertProfile loads the owner's profile (nil when absent), lets fn
	// build the next version and writes it back, inserting on first write.
	UpsertProfile(ctx context.Context, owner string, fn func(existing *model.Profile) (*model.Profile, error)) (*model.Profile, error)
	MutateProfile(ctx context.Context, owner string, fn func(p *model.Profile) error) (*model.Profile, error)
	DeleteProfile(ctx context.Context, owner string) error
}

type PostRepository interface {
	CreatePost(ctx context.Context, post *model.Post) error
	GetPost(ctx context.Context, id string) (*model.Post, error)
	ListPosts(ctx context.Context, opts ListOptions) ([]model.Post, error)
	MutatePost(ctx context.Context, id string, fn func(p *model.Post) error) (*model.Post, error)
	DeletePost(ctx context.Context, id string) error
}
