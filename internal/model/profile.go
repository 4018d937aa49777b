package model

import "time"

// Profile is the per-user profile aggregate. There is at most one per owner.
//
// Scalar fields are replaced by Upsert; the Experience and Education
// collections are only changed through their dedicated operations and are
// kept most-recent-first.
type Profile struct {
	ID             string       `json:"id"`
	Owner          string       `json:"user"`
	Company        string       `json:"company,omitempty"`
	Website        string       `json:"website,omitempty"`
	Location       string       `json:"location,omitempty"`
	Bio            string       `json:"bio,omitempty"`
	Status         string       `json:"status,omitempty"`
	GitHubUsername string       `json:"githubusername,omitempty"`
	Skills         []string     `json:"skills"`
	Social         Social       `json:"social"`
	Experience     []Experience `json:"experience"`
	Education      []Education  `json:"education"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`

	// OwnerName and OwnerAvatar are joined from the users table on reads.
	// They are never persisted on the profile row.
	OwnerName   string `json:"name,omitempty"`
	OwnerAvatar string `json:"avatar,omitempty"`
}

// Social holds optional named links. An empty string means "not set".
type Social struct {
	YouTube   string `json:"youtube,omitempty"`
	Facebook  string `json:"facebook,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
	Instagram string `json:"instagram,omitempty"`
	LinkedIn  string `json:"linkedin,omitempty"`
}

// Experience is one job entry. From/To are kept as the caller entered them
// (e.g. "2020" or "2020-03-01").
type Experience struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location,omitempty"`
	From        string `json:"from"`
	To          string `json:"to,omitempty"`
	Current     bool   `json:"current"`
	Description string `json:"description,omitempty"`
}

func (e Experience) EntryID() string       { return e.ID }
func (e *Experience) SetEntryID(id string) { e.ID = id }

// Education is one school entry.
type Education struct {
	ID           string `json:"id"`
	School       string `json:"school"`
	Degree       string `json:"degree"`
	FieldOfStudy string `json:"fieldofstudy"`
	From         string `json:"from"`
	To           string `json:"to,omitempty"`
	Current      bool   `json:"current"`
	Description  string `json:"description,omitempty"`
}

func (e Education) EntryID() string       { return e.ID }
func (e *Education) SetEntryID(id string) { e.ID = id }
