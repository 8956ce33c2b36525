package hr

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/spazaafy/platform/internal/shared/errors"
	"github.com/spazaafy/platform/internal/shared/types"
)

// Handler provides HTTP handlers for the HR module
type Handler struct {
	service *Service
}

// NewHandler creates a new HR handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// AdminRoutes registers the staff-only HR routes
func (h *Handler) AdminRoutes() chi.Router {
	r := chi.NewRouter()

	r.Get("/employees", h.ListEmployees)
	r.Post("/employees", h.CreateEmployee)
	r.Route("/employees/{employeeID}", func(r chi.Router) {
		r.Get("/", h.GetEmployee)
		r.Patch("/status", h.UpdateStatus)
		r.Post("/initiate-termination", h.InitiateTermination)
		r.Post("/finalize-termination", h.FinalizeTermination)
	})

	return r
}

type updateStatusRequest struct {
	Status EmployeeStatus `json:"status"`
}

type initiateTerminationRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{
		Search: r.URL.Query().Get("search"),
	}
	if d := r.URL.Query().Get("department"); d != "" {
		filter.Department = &d
	}
	if s := r.URL.Query().Get("status"); s != "" {
		status := EmployeeStatus(s)
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

	employees, total, err := h.service.ListEmployees(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  employees,
		"total": total,
	})
}

func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var input CreateEmployeeInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	e, err := h.service.CreateEmployee(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, e)
}

func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "employeeID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid employee ID"))
		return
	}

	e, err := h.service.GetEmployee(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, e)
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "employeeID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid employee ID"))
		return
	}

	var body updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Status == "" {
		writeError(w, errors.BadRequest("status required"))
		return
	}

	e, err := h.service.UpdateStatus(r.Context(), id, body.Status)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, e)
}

func (h *Handler) InitiateTermination(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "employeeID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid employee ID"))
		return
	}

	var body initiateTerminationRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	e, req, err := h.service.InitiateTermination(r.Context(), id, body.Reason)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"employee":      e,
		"legal_request": req,
	})
}

func (h *Handler) FinalizeTermination(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "employeeID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid employee ID"))
		return
	}

	e, err := h.service.FinalizeTermination(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, e)
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
