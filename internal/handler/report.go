// Package handler contains the HTTP JSON handlers of the assessment service.
//
// This file implements the report aggregate endpoints.
//
// Routes handled:
//   - POST   /api/rapports              -> Create
//   - GET    /api/rapports              -> List
//   - GET    /api/rapports/{id}         -> Get
//   - PATCH  /api/rapports/{id}/statut  -> UpdateStatus
//   - POST   /api/rapports/{id}/recalcul -> Recalculate
//   - DELETE /api/rapports/{id}         -> Delete
package handler

import (
	"log/slog"
	"net/http"

	"github.com/expertauto/expertise/internal/auth"
	"github.com/expertauto/expertise/internal/domain"
	"github.com/expertauto/expertise/internal/service"
)

// ReportHandler handles HTTP requests for report aggregates.
type ReportHandler struct {
	reports service.ReportService
	logger  *slog.Logger
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reports service.ReportService, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{
		reports: reports,
		logger:  logger,
	}
}

// RegisterRoutes registers report routes on the provided mux. limitCreate
// wraps the create endpoint only.
func (h *ReportHandler) RegisterRoutes(mux *http.ServeMux, requireActor, limitCreate func(http.Handler) http.Handler) {
	mux.Handle("POST /api/rapports", requireActor(limitCreate(http.HandlerFunc(h.Create))))
	mux.Handle("GET /api/rapports", requireActor(http.HandlerFunc(h.List)))
	mux.Handle("GET /api/rapports/{id}", requireActor(http.HandlerFunc(h.Get)))
	mux.Handle("PUT /api/rapports/{id}", requireActor(http.HandlerFunc(h.Update)))
	mux.Handle("PATCH /api/rapports/{id}/statut", requireActor(http.HandlerFunc(h.UpdateStatus)))
	mux.Handle("POST /api/rapports/{id}/recalcul", requireActor(http.HandlerFunc(h.Recalculate)))
	mux.Handle("DELETE /api/rapports/{id}", requireActor(http.HandlerFunc(h.Delete)))
}

// Create writes a report with its vehicle, insured party, damage zones and
// parts, and responds with the stored aggregate. The acting user becomes the
// report's owner; any client-supplied total is ignored.
func (h *ReportHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor := auth.GetActorFromRequest(r)
	if actor == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	var req createReportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestResponse(w, r, h.logger, err.Error())
		return
	}

	report, err := h.reports.Create(r.Context(), req.params(actor.UserID))
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, toReportResponse(report))
}

// List returns a page of reports.
// Query: search, statut, typeRapport, page, limit.
func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	params := domain.ListReportsParams{
		Search: q.Get("search"),
		Status: domain.ReportStatus(q.Get("statut")),
		Type:   domain.ReportType(q.Get("typeRapport")),
		Page:   queryInt(r, "page", 1),
		Limit:  queryInt(r, "limit", 0),
	}
	result, err := h.reports.List(r.Context(), params)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	resp := listReportsResponse{
		Rapports:   make([]reportResponse, 0, len(result.Reports)),
		Total:      result.Total,
		Page:       result.Page,
		Limit:      result.Limit,
		TotalPages: result.TotalPages(),
	}
	for i := range result.Reports {
		resp.Rapports = append(resp.Rapports, toReportResponse(&result.Reports[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get returns the full aggregate.
func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		BadRequestResponse(w, r, h.logger, "Invalid report ID")
		return
	}

	report, err := h.reports.GetByID(r.Context(), id)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toReportResponse(report))
}

// Update edits the fields present in the body. Sending vehicule or chocs
// recomputes the settlement.
func (h *ReportHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		BadRequestResponse(w, r, h.logger, "Invalid report ID")
		return
	}

	var req updateReportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestResponse(w, r, h.logger, err.Error())
		return
	}

	report, err := h.reports.Update(r.Context(), id, req.params())
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toReportResponse(report))
}

// UpdateStatus moves the report through its lifecycle.
func (h *ReportHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		BadRequestResponse(w, r, h.logger, "Invalid report ID")
		return
	}

	var req updateStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestResponse(w, r, h.logger, err.Error())
		return
	}

	report, err := h.reports.UpdateStatus(r.Context(), id, req.Statut)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toReportResponse(report))
}

// Recalculate recomputes the settlement from the stored zones.
func (h *ReportHandler) Recalculate(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		BadRequestResponse(w, r, h.logger, "Invalid report ID")
		return
	}

	report, err := h.reports.Recalculate(r.Context(), id)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toReportResponse(report))
}

// Delete removes the report and everything it owns.
func (h *ReportHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		BadRequestResponse(w, r, h.logger, "Invalid report ID")
		return
	}

	if err := h.reports.Delete(r.Context(), id); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
