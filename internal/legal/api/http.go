package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/spazaafy/platform/internal/legal"
	"github.com/spazaafy/platform/internal/legal/domain"
	"github.com/spazaafy/platform/internal/shared/errors"
	"github.com/spazaafy/platform/internal/shared/types"
)

// Handler provides HTTP handlers for the legal module
type Handler struct {
	service *legal.Service
}

// NewHandler creates a new legal handler
func NewHandler(service *legal.Service) *Handler {
	return &Handler{service: service}
}

// PublicRoutes registers the unauthenticated intake and amendment routes
func (h *Handler) PublicRoutes() chi.Router {
	r := chi.NewRouter()

	r.Post("/submit", h.SubmitRequest)
	r.Put("/amend/{token}", h.SubmitAmendment)

	return r
}

// AdminRoutes registers the staff-only review routes
func (h *Handler) AdminRoutes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListRequests)
	r.Route("/{requestID}", func(r chi.Router) {
		r.Get("/", h.GetRequest)
		r.Post("/status", h.UpdateStatus)
		r.Post("/notes", h.AddNote)
	})

	return r
}

// --- Request types ---

type UpdateStatusRequest struct {
	Status        domain.Status `json:"status"`
	Note          string        `json:"note"`
	AmendmentDays int           `json:"amendment_days"`
}

type AddNoteRequest struct {
	Note string `json:"note"`
}

// --- Handlers ---

// SubmitRequest accepts the public multipart intake form. Documents
// arrive under the "documents" field.
func (h *Handler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(legal.MaxUploadSize); err != nil {
		writeError(w, errors.BadRequest("invalid multipart form"))
		return
	}

	input := legal.SubmitInput{
		Category:       domain.Category(r.FormValue("category")),
		Urgency:        domain.Urgency(r.FormValue("urgency")),
		Title:          r.FormValue("title"),
		Description:    r.FormValue("description"),
		SubmitterName:  r.FormValue("submitter_name"),
		SubmitterEmail: r.FormValue("submitter_email"),
		Department:     r.FormValue("department"),
	}

	if r.MultipartForm != nil {
		for _, fh := range r.MultipartForm.File["documents"] {
			if fh.Size > legal.MaxUploadSize {
				writeError(w, errors.BadRequest("File too large. Size should not exceed 10 MB."))
				return
			}
			f, err := fh.Open()
			if err != nil {
				writeError(w, errors.BadRequest("unreadable upload"))
				return
			}
			defer f.Close()
			input.Documents = append(input.Documents, legal.Upload{FileName: fh.Filename, Content: f})
		}
	}

	req, err := h.service.SubmitRequest(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, req)
}

// SubmitAmendment redeems an amendment token with the revised document
// under the "revision_file" field.
func (h *Handler) SubmitAmendment(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	if err := r.ParseMultipartForm(legal.MaxUploadSize); err != nil {
		writeError(w, errors.BadRequest("invalid multipart form"))
		return
	}

	f, fh, err := r.FormFile("revision_file")
	if err != nil {
		writeError(w, errors.BadRequest("File is required"))
		return
	}
	defer f.Close()

	if fh.Size > legal.MaxUploadSize {
		writeError(w, errors.BadRequest("File too large. Size should not exceed 10 MB."))
		return
	}

	if _, err := h.service.SubmitAmendment(r.Context(), token, legal.Upload{FileName: fh.Filename, Content: f}); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"detail": "Amendment uploaded successfully."})
}

func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	filter := domain.ListFilter{
		Search: r.URL.Query().Get("search"),
	}

	if c := r.URL.Query().Get("category"); c != "" {
		category := domain.Category(c)
		filter.Category = &category
	}
	if u := r.URL.Query().Get("urgency"); u != "" {
		urgency := domain.Urgency(u)
		filter.Urgency = &urgency
	}
	if s := r.URL.Query().Get("status"); s != "" {
		status := domain.Status(s)
		filter.Status = &status
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil {
			filter.Limit = n
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if n, err := strconv.Atoi(o); err == nil {
			filter.Offset = n
		}
	}

	requests, total, err := h.service.ListRequests(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  requests,
		"total": total,
	})
}

func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "requestID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid request ID"))
		return
	}

	req, err := h.service.GetRequest(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, req)
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "requestID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid request ID"))
		return
	}

	var body UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}
	if body.Status == "" {
		writeError(w, errors.BadRequest("Status required"))
		return
	}

	req, err := h.service.ChangeStatus(r.Context(), id, body.Status, body.Note, body.AmendmentDays)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, req)
}

func (h *Handler) AddNote(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "requestID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid request ID"))
		return
	}

	var body AddNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Note == "" {
		writeError(w, errors.BadRequest("Note required"))
		return
	}

	req, err := h.service.AddNote(r.Context(), id, body.Note)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, req)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")

	if appErr, ok := err.(*errors.AppError); ok {
		w.WriteHeader(appErr.HTTPStatus)
		json.NewEncoder(w).Encode(map[string]any{
			"error":   appErr.Message,
			"code":    appErr.Code,
			"details": appErr.Details,
		})
		return
	}

	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{"error": "internal server error"})
}
