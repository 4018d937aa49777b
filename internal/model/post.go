package model

import "time"

// Post is the post aggregate.
//
// AuthorName and AuthorAvatar are snapshots taken when the post is created.
// They are never refreshed from the user record afterwards; the same holds
// for the name/avatar stored on each comment.
type Post struct {
	ID           string    `json:"id"`
	Author       string    `json:"user"`
	AuthorName   string    `json:"name"`
	AuthorAvatar string    `json:"avatar"`
	Text         string    `json:"text"`
	Likes        []Like    `json:"likes"`
	Comments     []Comment `json:"comments"`
	CreatedAt    time.Time `json:"date"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Like records that Actor likes the post. An actor appears at most once.
type Like struct {
	ID    string `json:"id"`
	Actor string `json:"user"`
}

func (l Like) EntryID() string       { return l.ID }
func (l *Like) SetEntryID(id string) { l.ID = id }

// Comment is a reply on a post. Only Actor may edit or remove it.
type Comment struct {
	ID           string    `json:"id"`
	Actor        string    `json:"user"`
	Text         string    `json:"text"`
	AuthorName   string    `json:"name"`
	AuthorAvatar string    `json:"avatar"`
	CreatedAt    time.Time `json:"date"`
}

func (c Comment) EntryID() string       { return c.ID }
func (c *Comment) SetEntryID(id string) { c.ID = id }
