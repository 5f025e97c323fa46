package handler

import (
	"log/slog"
	"net/http"

	"github.com/expertauto/expertise/internal/domain"
	"github.com/expertauto/expertise/internal/service"
)

// OfficeHandler handles HTTP requests for claims offices.
type OfficeHandler struct {
	offices service.OfficeService
	logger  *slog.Logger
}

// NewOfficeHandler creates a new OfficeHandler.
func NewOfficeHandler(offices service.OfficeService, logger *slog.Logger) *OfficeHandler {
	return &OfficeHandler{
		offices: offices,
		logger:  logger,
	}
}

// RegisterRoutes registers office routes on the provided mux. Any
// authenticated actor may read offices; admins and experts may create and
// edit them; only admins may delete them.
func (h *OfficeHandler) RegisterRoutes(mux *http.ServeMux, requireActor func(http.Handler) http.Handler, requireRole func(roles ...domain.Role) func(http.Handler) http.Handler) {
	editors := requireRole(domain.RoleAdmin, domain.RoleExpert)
	admins := requireRole(domain.RoleAdmin)

	mux.Handle("POST /api/bureaux", editors(http.HandlerFunc(h.Create)))
	mux.Handle("GET /api/bureaux", requireActor(http.HandlerFunc(h.List)))
	mux.Handle("GET /api/bureaux/code/{code}", requireActor(http.HandlerFunc(h.GetByCode)))
	mux.Handle("GET /api/bureaux/{id}", requireActor(http.HandlerFunc(h.Get)))
	mux.Handle("PUT /api/bureaux/{id}", editors(http.HandlerFunc(h.Update)))
	mux.Handle("DELETE /api/bureaux/{id}", admins(http.HandlerFunc(h.Delete)))
}

// Create registers an office.
func (h *OfficeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOfficeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestResponse(w, r, h.logger, err.Error())
		return
	}

	office, err := h.offices.Create(r.Context(), req.params())
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOfficeResponse(office))
}

// List returns offices ordered by agency name. Query: search.
func (h *OfficeHandler) List(w http.ResponseWriter, r *http.Request) {
	offices, err := h.offices.List(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	resp := listOfficesResponse{Bureaux: make([]officeResponse, 0, len(offices))}
	for i := range offices {
		resp.Bureaux = append(resp.Bureaux, toOfficeResponse(&offices[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *OfficeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		BadRequestResponse(w, r, h.logger, "Invalid office ID")
		return
	}

	office, err := h.offices.GetByID(r.Context(), id)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toOfficeResponse(office))
}

func (h *OfficeHandler) GetByCode(w http.ResponseWriter, r *http.Request) {
	office, err := h.offices.GetByCode(r.Context(), r.PathValue("code"))
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toOfficeResponse(office))
}

// Update changes the fields present in the body.
func (h *OfficeHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		BadRequestResponse(w, r, h.logger, "Invalid office ID")
		return
	}

	var req updateOfficeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestResponse(w, r, h.logger, err.Error())
		return
	}

	office, err := h.offices.Update(r.Context(), id, req.params())
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toOfficeResponse(office))
}

func (h *OfficeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		BadRequestResponse(w, r, h.logger, "Invalid office ID")
		return
	}

	if err := h.offices.Delete(r.Context(), id); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
