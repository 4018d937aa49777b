package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/sakif/devconnector/internal/apperror"
	"github.com/sakif/devconnector/internal/model"
	"github.com/sakif/devconnector/internal/repository"
)

// =========================================================================
// IN-MEMORY FAKES
// =========================================================================
//
// The fakes store copies and hand out copies, like a real store would, so a
// test can never observe a mutation that was not written back.

type fakeUsers struct {
	mu        sync.Mutex
	users     map[string]model.User
	deleteErr error
}

func newFakeUsers(users ...model.User) *fakeUsers {
	f := &fakeUsers{users: make(map[string]model.User)}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUsers) CreateUser(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u.ID == "" {
		u.ID = fmt.Sprintf("user-%d", len(f.users)+1)
	}
	f.users[u.ID] = *u
	return nil
}

func (f *fakeUsers) GetUserByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	return &u, nil
}

func (f *fakeUsers) DeleteUser(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.users[id]; !ok {
		return apperror.NotFound("user", id)
	}
	delete(f.users, id)
	return nil
}

type fakeProfiles struct {
	mu       sync.Mutex
	profiles map[string]model.Profile // keyed by owner
	nextID   int
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{profiles: make(map[string]model.Profile)}
}

func cloneProfile(p model.Profile) model.Profile {
	p.Skills = slices.Clone(p.Skills)
	p.Experience = slices.Clone(p.Experience)
	p.Education = slices.Clone(p.Education)
	return p
}

func (f *fakeProfiles) GetProfileByOwner(_ context.Context, owner string) (*model.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[owner]
	if !ok {
		return nil, apperror.NotFound("profile", owner)
	}
	p = cloneProfile(p)
	return &p, nil
}

func (f *fakeProfiles) ListProfiles(_ context.Context) ([]model.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Profile, 0, len(f.profiles))
	for _, p := range f.profiles {
		out = append(out, cloneProfile(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeProfiles) UpsertProfile(
	_ context.Context,
	owner string,
	fn func(existing *model.Profile) (*model.Profile, error),
) (*model.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var existing *model.Profile
	if p, ok := f.profiles[owner]; ok {
		p = cloneProfile(p)
		existing = &p
	}
	next, err := fn(existing)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		f.nextID++
		next.ID = fmt.Sprintf("profile-%d", f.nextID)
		next.CreatedAt = time.Now().Add(time.Duration(f.nextID) * time.Second)
	}
	next.Owner = owner
	f.profiles[owner] = cloneProfile(*next)

	out := cloneProfile(*next)
	return &out, nil
}

func (f *fakeProfiles) MutateProfile(_ context.Context, owner string, fn func(p *model.Profile) error) (*model.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[owner]
	if !ok {
		return nil, apperror.NotFound("profile", owner)
	}
	p = cloneProfile(p)
	if err := fn(&p); err != nil {
		return nil, err
	}
	f.profiles[owner] = cloneProfile(p)
	return &p, nil
}

func (f *fakeProfiles) DeleteProfile(_ context.Context, owner string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.profiles[owner]; !ok {
		return apperror.NotFound("profile", owner)
	}
	delete(f.profiles, owner)
	return nil
}

type fakePosts struct {
	mu     sync.Mutex
	posts  map[string]model.Post
	nextID int
}

func newFakePosts() *fakePosts {
	return &fakePosts{posts: make(map[string]model.Post)}
}

func clonePost(p model.Post) model.Post {
	p.Likes = slices.Clone(p.Likes)
	p.Comments = slices.Clone(p.Comments)
	return p
}

func (f *fakePosts) CreatePost(_ context.Context, p *model.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	p.ID = fmt.Sprintf("post-%d", f.nextID)
	// Strictly increasing so ordering by creation time is deterministic.
	p.CreatedAt = time.Date(2024, 1, 1, 0, 0, f.nextID, 0, time.UTC)
	p.UpdatedAt = p.CreatedAt
	f.posts[p.ID] = clonePost(*p)
	return nil
}

func (f *fakePosts) GetPost(_ context.Context, id string) (*model.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[id]
	if !ok {
		return nil, apperror.NotFound("post", id)
	}
	p = clonePost(p)
	return &p, nil
}

func (f *fakePosts) ListPosts(_ context.Context, opts repository.ListOptions) ([]model.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Post, 0, len(f.posts))
	for _, p := range f.posts {
		if opts.Author != "" && p.Author != opts.Author {
			continue
		}
		out = append(out, clonePost(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakePosts) MutatePost(_ context.Context, id string, fn func(p *model.Post) error) (*model.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[id]
	if !ok {
		return nil, apperror.NotFound("post", id)
	}
	p = clonePost(p)
	if err := fn(&p); err != nil {
		return nil, err
	}
	f.posts[id] = clonePost(p)
	return &p, nil
}

func (f *fakePosts) DeletePost(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.posts[id]; !ok {
		return apperror.NotFound("post", id)
	}
	delete(f.posts, id)
	return nil
}

// fakeRecorder counts metric events as "collection/op" and
// "collection/reason" keys.
type fakeRecorder struct {
	mu         sync.Mutex
	mutations  map[string]int
	rejections map[string]int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{mutations: map[string]int{}, rejections: map[string]int{}}
}

func (r *fakeRecorder) RecordMutation(collection, op string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mutations[collection+"/"+op]++
}

func (r *fakeRecorder) RecordRejection(collection, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejections[collection+"/"+reason]++
}

// =========================================================================
// TEST HELPERS
// =========================================================================

var (
	alice = model.User{ID: "user-a", Name: "Alice", AvatarURL: "https://img.example/a.png"}
	bob   = model.User{ID: "user-b", Name: "Bob", AvatarURL: "https://img.example/b.png"}
)

var errStoreDown = errors.New("store unavailable")

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testDeps struct {
	users    *fakeUsers
	profiles *fakeProfiles
	posts    *fakePosts
	metrics  *fakeRecorder
}

func newTestDeps(t *testing.T) *testDeps {
	t.Helper()
	return &testDeps{
		users:    newFakeUsers(alice, bob),
		profiles: newFakeProfiles(),
		posts:    newFakePosts(),
		metrics:  newFakeRecorder(),
	}
}

func (d *testDeps) profileService() *ProfileService {
	return NewProfileService(d.profiles, d.users, d.metrics, testLogger())
}

func (d *testDeps) postService() *PostService {
	return NewPostService(d.posts, d.users, d.metrics, testLogger())
}

func ptr(s string) *string { return &s }
