// Package collection implements the ordered, id-addressable sub-entity lists
// embedded in the Profile and Post aggregates (experience, education, likes,
// comments).
//
// THE RULES EVERY COLLECTION FOLLOWS:
//   - New entries go to the HEAD of the list (most recent first).
//   - Each entry gets a fresh id on insertion and keeps it for its lifetime.
//   - Entries are addressed by id, never by position.
//   - A capped collection rejects an insert when it is full; nothing is evicted.
//
// PURE FUNCTIONS:
// Every operation returns a NEW slice and leaves its input untouched. A
// failed call therefore cannot leave a half-mutated collection behind: the
// caller simply keeps the slice it already had and does not persist anything.
package collection

import (
	"github.com/rs/xid"

	"github.com/sakif/devconnector/internal/apperror"
)

// Entry is implemented by every sub-record type in internal/model.
type Entry interface {
	EntryID() string
}

// entryPtr lets the generic functions below assign ids through a pointer
// while storing plain values in the slice.
type entryPtr[E any] interface {
	*E
	Entry
	SetEntryID(id string)
}

// Policy names a collection and sets its cap. Limit 0 means uncapped.
type Policy struct {
	Name  string
	Limit int
}

var (
	Experience = Policy{Name: "experience", Limit: 4}
	Education  = Policy{Name: "education", Limit: 3}
	Likes      = Policy{Name: "like"}
	Comments   = Policy{Name: "comment"}
)

// newID generates sub-entity ids. xid ids are unique and time-sortable.
var newID = func() string { return xid.New().String() }

// InsertFront assigns item a fresh id and prepends it.
//
// The cap is checked against the current live count BEFORE inserting, so a
// collection capped at 4 accepts a 4th entry and rejects a 5th.
func InsertFront[E any, P entryPtr[E]](p Policy, items []E, item E) ([]E, error) {
	if p.Limit > 0 && len(items) >= p.Limit {
		return items, apperror.CapacityExceeded(p.Name, p.Limit)
	}

	P(&item).SetEntryID(newID())

	out := make([]E, 0, len(items)+1)
	out = append(out, item)
	out = append(out, items...)
	return out, nil
}

// RemoveByID removes exactly the entry with the given id. The relative order
// of the remaining entries is preserved.
func RemoveByID[E any, P entryPtr[E]](p Policy, items []E, id string) ([]E, error) {
	i := indexOf[E, P](items, id)
	if i < 0 {
		return items, apperror.NotFound(p.Name, id)
	}

	return removeAt(items, i), nil
}

// ReplaceByID applies update to a copy of the entry with the given id.
// The entry keeps its id whatever update does; any other field the caller
// wants retained (a comment's author or timestamp) is simply left alone by
// update. No cap is checked: the live count does not change.
func ReplaceByID[E any, P entryPtr[E]](p Policy, items []E, id string, update func(P)) ([]E, error) {
	i := indexOf[E, P](items, id)
	if i < 0 {
		return items, apperror.NotFound(p.Name, id)
	}

	out := make([]E, len(items))
	copy(out, items)
	update(P(&out[i]))
	P(&out[i]).SetEntryID(id)
	return out, nil
}

// FindByID returns a copy of the entry with the given id.
func FindByID[E any, P entryPtr[E]](p Policy, items []E, id string) (E, error) {
	i := indexOf[E, P](items, id)
	if i < 0 {
		var zero E
		return zero, apperror.NotFound(p.Name, id)
	}
	return items[i], nil
}

// Toggle removes the first entry matching member, or prepends item when none
// matches. It reports whether item was added.
//
// Two identical toggles in a row return the collection to its original set
// of members; a single toggle is not idempotent.
func Toggle[E any, P entryPtr[E]](p Policy, items []E, member func(E) bool, item E) ([]E, bool, error) {
	for i := range items {
		if member(items[i]) {
			return removeAt(items, i), false, nil
		}
	}

	out, err := InsertFront[E, P](p, items, item)
	if err != nil {
		return items, false, err
	}
	return out, true, nil
}

func indexOf[E any, P entryPtr[E]](items []E, id string) int {
	if id == "" {
		return -1
	}
	for i := range items {
		if P(&items[i]).EntryID() == id {
			return i
		}
	}
	return -1
}

func removeAt[E any](items []E, i int) []E {
	out := make([]E, 0, len(items)-1)
	out = append(out, items[:i]...)
	return append(out, items[i+1:]...)
}
