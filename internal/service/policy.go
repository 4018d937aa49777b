// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces ownership, mutates collections
//	Repository (Data layer)  → loads and writes whole aggregates
//
// Services take an already-authenticated Identity Reference (a user id
// string) as the actor of every operation. They never look at tokens or
// HTTP requests.
//
// AUTHORIZATION AT THE POINT OF MUTATION:
// Ownership checks that depend on the stored document (is this your post?
// did you write this comment?) run INSIDE the repository's Mutate callback,
// against the version of the document that is about to be written. A check
// made on an earlier read could be stale by the time the write happens.
package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sakif/devconnector/internal/apperror"
	"github.com/sakif/devconnector/internal/metrics"
)

// Validation constants.
const (
	MaxPostTextLength    = 5000
	MaxCommentTextLength = 2000
)

// now is swapped in tests that need deterministic timestamps.
var now = func() time.Time { return time.Now().UTC() }

// observe reports the outcome of a collection operation to the metrics
// recorder. Errors that are not one of the expected kinds (store failures)
// are not counted as rejections.
func observe(rec metrics.Recorder, collection, op string, err error) {
	if err == nil {
		rec.RecordMutation(collection, op)
		return
	}
	if reason := rejectionReason(err); reason != "" {
		rec.RecordRejection(collection, reason)
	}
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, apperror.ErrCapacityExceeded):
		return "capacity_exceeded"
	case errors.Is(err, apperror.ErrNotFound):
		return "not_found"
	case errors.Is(err, apperror.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, apperror.ErrValidation):
		return "validation"
	}
	return ""
}

// isExpected reports whether err is a normal outcome rather than a failure
// worth logging at Error level.
func isExpected(err error) bool {
	return rejectionReason(err) != "" || errors.Is(err, apperror.ErrConflict)
}

func requireID(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", apperror.ValidationFailed(field, field+" is required")
	}
	return value, nil
}

// requireText trims s and checks it is non-empty and at most max bytes.
func requireText(field, s string, max int) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", apperror.ValidationFailed(field, field+" is required")
	}
	if len(s) > max {
		return "", apperror.ValidationFailed(field,
			fmt.Sprintf("%s must be %d characters or less", field, max))
	}
	return s, nil
}

// normalizeSkills splits a comma-separated list, trims and upper-cases each
// skill and keeps the order they were entered in. Blank items are dropped.
func normalizeSkills(raw string) []string {
	parts := strings.Split(raw, ",")
	skills := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.ToUpper(strings.TrimSpace(p)); p != "" {
			skills = append(skills, p)
		}
	}
	return skills
}
