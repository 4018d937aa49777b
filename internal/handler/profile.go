package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/devconnector/internal/model"
	"github.com/sakif/devconnector/internal/service"
)

// ProfileService is what ProfileHandler needs from the service layer.
// *service.ProfileService implements it.
type ProfileService interface {
	Upsert(ctx context.Context, owner string, in service.ProfileInput) (*model.Profile, error)
	Get(ctx context.Context, owner string) (*model.Profile, error)
	GetByUser(ctx context.Context, userID string) (*model.Profile, error)
	ListAll(ctx context.Context) ([]model.Profile, error)
	AddExperience(ctx context.Context, owner string, entry model.Experience) (*model.Profile, error)
	UpdateExperience(ctx context.Context, owner, id string, entry model.Experience) (*model.Profile, error)
	RemoveExperience(ctx context.Context, owner, id string) (*model.Profile, error)
	AddEducation(ctx context.Context, owner string, entry model.Education) (*model.Profile, error)
	UpdateEducation(ctx context.Context, owner, id string, entry model.Education) (*model.Profile, error)
	RemoveEducation(ctx context.Context, owner, id string) (*model.Profile, error)
	DeleteOwner(ctx context.Context, owner string) error
}

var _ ProfileService = (*service.ProfileService)(nil)

type ProfileHandler struct {
	service ProfileService
	logger  *slog.Logger
}

func NewProfileHandler(svc ProfileService, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{service: svc, logger: logger}
}

// profileRequest is the body of POST /api/profile. Social links sit at the
// top level, as the web client sends them. Absent keys decode to nil and
// leave the stored value alone.
type profileRequest struct {
	Company        *string `json:"company"`
	Website        *string `json:"website"`
	Location       *string `json:"location"`
	Bio            *string `json:"bio"`
	Status         *string `json:"status"`
	GitHubUsername *string `json:"githubusername"`
	Skills         *string `json:"skills"`
	YouTube        *string `json:"youtube"`
	Facebook       *string `json:"facebook"`
	Twitter        *string `json:"twitter"`
	Instagram      *string `json:"instagram"`
	LinkedIn       *string `json:"linkedin"`
}

func (req profileRequest) input() service.ProfileInput {
	return service.ProfileInput{
		Company:        req.Company,
		Website:        req.Website,
		Location:       req.Location,
		Bio:            req.Bio,
		Status:         req.Status,
		GitHubUsername: req.GitHubUsername,
		Skills:         req.Skills,
		Social: service.SocialInput{
			YouTube:   req.YouTube,
			Facebook:  req.Facebook,
			Twitter:   req.Twitter,
			Instagram: req.Instagram,
			LinkedIn:  req.LinkedIn,
		},
	}
}

// HandleList handles GET /api/profile.
func (h *ProfileHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.service.ListAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profiles)
}

// HandleGetByUser handles GET /api/profile/user/{userID}.
func (h *ProfileHandler) HandleGetByUser(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.GetByUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// HandleMe handles GET /api/profile/me.
func (h *ProfileHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	owner, ok := actor(w, r)
	if !ok {
		return
	}
	profile, err := h.service.Get(r.Context(), owner)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// HandleUpsert handles POST /api/profile.
func (h *ProfileHandler) HandleUpsert(w http.ResponseWriter, r *http.Request) {
	owner, ok := actor(w, r)
	if !ok {
		return
	}

	var req profileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.Warn("invalid profile JSON", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	profile, err := h.service.Upsert(r.Context(), owner, req.input())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// HandleDelete handles DELETE /api/profile: the profile and then the user.
func (h *ProfileHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	owner, ok := actor(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteOwner(r.Context(), owner); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "User deleted"})
}

// HandleAddExperience handles PUT /api/profile/experience.
func (h *ProfileHandler) HandleAddExperience(w http.ResponseWriter, r *http.Request) {
	owner, ok := actor(w, r)
	if !ok {
		return
	}
	var entry model.Experience
	if err := decodeJSON(w, r, &entry); err != nil {
		writeError(w, err)
		return
	}
	h.respond(w, func() (*model.Profile, error) {
		return h.service.AddExperience(r.Context(), owner, entry)
	})
}

// HandleUpdateExperience handles PUT /api/profile/experience/{entryID}.
func (h *ProfileHandler) HandleUpdateExperience(w http.ResponseWriter, r *http.Request) {
	owner, ok := actor(w, r)
	if !ok {
		return
	}
	var entry model.Experience
	if err := decodeJSON(w, r, &entry); err != nil {
		writeError(w, err)
		return
	}
	h.respond(w, func() (*model.Profile, error) {
		return h.service.UpdateExperience(r.Context(), owner, chi.URLParam(r, "entryID"), entry)
	})
}

// HandleRemoveExperience handles DELETE /api/profile/experience/{entryID}.
func (h *ProfileHandler) HandleRemoveExperience(w http.ResponseWriter, r *http.Request) {
	owner, ok := actor(w, r)
	if !ok {
		return
	}
	h.respond(w, func() (*model.Profile, error) {
		return h.service.RemoveExperience(r.Context(), owner, chi.URLParam(r, "entryID"))
	})
}

// HandleAddEducation handles PUT /api/profile/education.
func (h *ProfileHandler) HandleAddEducation(w http.ResponseWriter, r *http.Request) {
	owner, ok := actor(w, r)
	if !ok {
		return
	}
	var entry model.Education
	if err := decodeJSON(w, r, &entry); err != nil {
		writeError(w, err)
		return
	}
	h.respond(w, func() (*model.Profile, error) {
		return h.service.AddEducation(r.Context(), owner, entry)
	})
}

// HandleUpdateEducation handles PUT /api/profile/education/{entryID}.
func (h *ProfileHandler) HandleUpdateEducation(w http.ResponseWriter, r *http.Request) {
	owner, ok := actor(w, r)
	if !ok {
		return
	}
	var entry model.Education
	if err := decodeJSON(w, r, &entry); err != nil {
		writeError(w, err)
		return
	}
	h.respond(w, func() (*model.Profile, error) {
		return h.service.UpdateEducation(r.Context(), owner, chi.URLParam(r, "entryID"), entry)
	})
}

// HandleRemoveEducation handles DELETE /api/profile/education/{entryID}.
func (h *ProfileHandler) HandleRemoveEducation(w http.ResponseWriter, r *http.Request) {
	owner, ok := actor(w, r)
	if !ok {
		return
	}
	h.respond(w, func() (*model.Profile, error) {
		return h.service.RemoveEducation(r.Context(), owner, chi.URLParam(r, "entryID"))
	})
}

func (h *ProfileHandler) respond(w http.ResponseWriter, fn func() (*model.Profile, error)) {
	profile, err := fn()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}
