package shops

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/spazaafy/platform/internal/shared/auth"
	"github.com/spazaafy/platform/internal/shared/errors"
	"github.com/spazaafy/platform/internal/shared/types"
)

// Handler provides HTTP handlers for shops, documents, and tickets
type Handler struct {
	service *Service
}

// NewHandler creates a new shops handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes registers the authenticated shop routes. Visibility is enforced
// by the scope resolver, so owners and admins share the same surface;
// document review additionally requires staff.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/shops", h.ListShops)
	r.Post("/shops", h.CreateShop)
	r.Get("/shops/{shopID}", h.GetShop)
	r.Post("/shops/{shopID}/documents", h.UploadDocument)
	r.Get("/documents", h.ListDocuments)
	r.With(auth.RequireStaff).Post("/documents/{documentID}/review", h.ReviewDocument)

	r.Get("/tickets", h.ListTickets)
	r.Post("/tickets", h.CreateTicket)
	r.Patch("/tickets/{ticketID}/status", h.UpdateTicketStatus)

	return r
}

func (h *Handler) ListShops(w http.ResponseWriter, r *http.Request) {
	filter := ShopFilter{
		Search: r.URL.Query().Get("search"),
	}
	if v := r.URL.Query().Get("verified"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			filter.Verified = &b
		}
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

	shops, total, err := h.service.ListShops(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  shops,
		"total": total,
	})
}

func (h *Handler) CreateShop(w http.ResponseWriter, r *http.Request) {
	var input CreateShopInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	shop, err := h.service.CreateShop(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, shop)
}

func (h *Handler) GetShop(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "shopID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid shop ID"))
		return
	}

	shop, err := h.service.GetShop(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, shop)
}

func (h *Handler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	shopID, err := types.ParseID(chi.URLParam(r, "shopID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid shop ID"))
		return
	}

	if err := r.ParseMultipartForm(MaxDocumentSize); err != nil {
		writeError(w, errors.BadRequest("invalid multipart form"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, errors.BadRequest("File is required"))
		return
	}
	defer file.Close()

	if header.Size > MaxDocumentSize {
		writeError(w, errors.BadRequest("File too large. Size should not exceed 10 MB."))
		return
	}

	docType := DocType(r.FormValue("type"))
	doc, err := h.service.UploadDocument(r.Context(), shopID, docType, header.Filename, file)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, doc)
}

func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	filter := DocumentFilter{}
	if s := r.URL.Query().Get("shop_id"); s != "" {
		id, err := types.ParseID(s)
		if err != nil {
			writeError(w, errors.BadRequest("invalid shop ID"))
			return
		}
		filter.ShopID = &id
	}
	if s := r.URL.Query().Get("status"); s != "" {
		status := DocStatus(s)
		filter.Status = &status
	}

	documents, total, err := h.service.ListDocuments(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  documents,
		"total": total,
	})
}

type reviewDocumentRequest struct {
	Approved bool `json:"approved"`
}

func (h *Handler) ReviewDocument(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "documentID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid document ID"))
		return
	}

	var body reviewDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	doc, err := h.service.ReviewDocument(r.Context(), id, body.Approved)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

func (h *Handler) ListTickets(w http.ResponseWriter, r *http.Request) {
	filter := TicketFilter{}
	if s := r.URL.Query().Get("status"); s != "" {
		status := TicketStatus(s)
		filter.Status = &status
	}

	tickets, total, err := h.service.ListTickets(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  tickets,
		"total": total,
	})
}

type createTicketRequest struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func (h *Handler) CreateTicket(w http.ResponseWriter, r *http.Request) {
	var body createTicketRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	ticket, err := h.service.CreateTicket(r.Context(), body.Subject, body.Body)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, ticket)
}

type updateTicketStatusRequest struct {
	Status TicketStatus `json:"status"`
}

func (h *Handler) UpdateTicketStatus(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "ticketID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid ticket ID"))
		return
	}

	var body updateTicketStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Status == "" {
		writeError(w, errors.BadRequest("status required"))
		return
	}

	ticket, err := h.service.UpdateTicketStatus(r.Context(), id, body.Status)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ticket)
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
