// Package handler is the HTTP surface of the registration wizard.
package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"jiran/internal/signup/businesstype"
	"jiran/internal/signup/models"
	"jiran/internal/signup/wizard"
	id "jiran/pkg/domain"
	dErrors "jiran/pkg/domain-errors"
	"jiran/pkg/platform/httputil"
)

// maxUploadBytes bounds one staging request; documents are scans or
// photos, not archives.
const maxUploadBytes = 32 << 20

// Handler exposes the wizard over HTTP.
type Handler struct {
	wizard *wizard.Service
	logger *slog.Logger
}

// New creates the signup handler.
func New(wizardService *wizard.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{wizard: wizardService, logger: logger}
}

// Register mounts the signup routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/signup", func(r chi.Router) {
		r.Get("/business-types", h.handleBusinessTypes)
		r.Post("/sessions", h.handleOpenSession)
		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", h.handleGetSession)
			r.Put("/draft", h.handleUpdateDraft)
			r.Post("/next", h.handleNext)
			r.Post("/back", h.handleBack)
			r.Put("/documents/{documentType}", h.handleStageDocuments)
			r.Delete("/documents/{documentType}/{fileName}", h.handleUnstageDocument)
			r.Post("/submit", h.handleSubmit)
		})
	})
}

type businessTypeView struct {
	Type   string              `json:"type"`
	Config businesstype.Config `json:"config"`
}

func (h *Handler) handleBusinessTypes(w http.ResponseWriter, _ *http.Request) {
	types := businesstype.Types()
	out := make([]businessTypeView, 0, len(types))
	for _, businessType := range types {
		out = append(out, businessTypeView{Type: businessType, Config: businesstype.ConfigFor(businessType)})
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	session := h.wizard.Open(r.Context())
	httputil.WriteJSON(w, http.StatusCreated, renderSession(session))
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID, err := h.sessionID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	session, err := h.wizard.Get(r.Context(), sessionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, renderSession(session))
}

// draftPatchRequest is the wire form of a partial draft update. IDs
// travel as strings and are parsed into typed IDs here, at the edge.
type draftPatchRequest struct {
	FullName            *string `json:"full_name"`
	Phone               *string `json:"phone"`
	DistrictID          *string `json:"district_id"`
	CommunityID         *string `json:"community_id"`
	Address             *string `json:"address"`
	BusinessName        *string `json:"business_name"`
	BusinessType        *string `json:"business_type"`
	BusinessDescription *string `json:"business_description"`
	Email               *string `json:"email"`
	Password            *string `json:"password"`
	ExperienceYears     *int    `json:"experience_years"`
	Language            *string `json:"language"`
	PDPAAccepted        *bool   `json:"pdpa_accepted"`
}

func (req draftPatchRequest) toPatch() (wizard.DraftPatch, error) {
	patch := wizard.DraftPatch{
		FullName:            req.FullName,
		Phone:               req.Phone,
		Address:             req.Address,
		BusinessName:        req.BusinessName,
		BusinessType:        req.BusinessType,
		BusinessDescription: req.BusinessDescription,
		Email:               req.Email,
		Password:            req.Password,
		ExperienceYears:     req.ExperienceYears,
		Language:            req.Language,
		PDPAAccepted:        req.PDPAAccepted,
	}
	if req.DistrictID != nil {
		districtID, err := id.ParseDistrictID(*req.DistrictID)
		if err != nil {
			return wizard.DraftPatch{}, err
		}
		patch.DistrictID = &districtID
	}
	if req.CommunityID != nil {
		communityID, err := id.ParseCommunityID(*req.CommunityID)
		if err != nil {
			return wizard.DraftPatch{}, err
		}
		patch.CommunityID = &communityID
	}
	return patch, nil
}

func (h *Handler) handleUpdateDraft(w http.ResponseWriter, r *http.Request) {
	sessionID, err := h.sessionID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req draftPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	session, issues, err := h.wizard.UpdateDraft(r.Context(), sessionID, patch)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	response := renderSession(session)
	response.Issues = issues
	httputil.WriteJSON(w, http.StatusOK, response)
}

func (h *Handler) handleNext(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.wizard.Next)
}

func (h *Handler) handleBack(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.wizard.Back)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, sessionID id.SessionID) (*wizard.Session, error)) {
	sessionID, err := h.sessionID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	session, err := op(r.Context(), sessionID)
	if err != nil {
		// Validation failures still return the session so the client
		// can render the new state alongside the message.
		if session != nil {
			httputil.WriteJSON(w, httputil.StatusFor(dErrors.CodeOf(err)), renderSession(session))
			return
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, renderSession(session))
}

func (h *Handler) handleStageDocuments(w http.ResponseWriter, r *http.Request) {
	sessionID, err := h.sessionID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	documentType := chi.URLParam(r, "documentType")

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid multipart upload"))
		return
	}
	var files []models.File
	for _, header := range r.MultipartForm.File["files"] {
		file, err := header.Open()
		if err != nil {
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "unreadable upload"))
			return
		}
		content, err := io.ReadAll(file)
		_ = file.Close()
		if err != nil {
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "unreadable upload"))
			return
		}
		files = append(files, models.File{
			Name:        header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Content:     content,
		})
	}

	session, err := h.wizard.Stage(r.Context(), sessionID, documentType, files)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, renderSession(session))
}

func (h *Handler) handleUnstageDocument(w http.ResponseWriter, r *http.Request) {
	sessionID, err := h.sessionID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	documentType := chi.URLParam(r, "documentType")
	fileName := chi.URLParam(r, "fileName")

	session, err := h.wizard.Unstage(r.Context(), sessionID, documentType, fileName)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, renderSession(session))
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	sessionID, err := h.sessionID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	attemptKey := r.Header.Get("Idempotency-Key")

	session, err := h.wizard.Submit(r.Context(), sessionID, attemptKey)
	if err != nil {
		if session != nil {
			httputil.WriteJSON(w, httputil.StatusFor(dErrors.CodeOf(err)), renderSession(session))
			return
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, renderSession(session))
}

func (h *Handler) sessionID(r *http.Request) (id.SessionID, error) {
	return id.ParseSessionID(chi.URLParam(r, "sessionID"))
}
