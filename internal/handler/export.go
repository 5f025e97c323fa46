package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/expertauto/expertise/internal/auth"
	"github.com/expertauto/expertise/internal/service"
)

// ExportHandler handles settlement statement requests.
type ExportHandler struct {
	exports service.ExportService
	logger  *slog.Logger
}

// NewExportHandler creates a new ExportHandler.
func NewExportHandler(exports service.ExportService, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{
		exports: exports,
		logger:  logger,
	}
}

// RegisterRoutes registers export routes on the provided mux.
func (h *ExportHandler) RegisterRoutes(mux *http.ServeMux, requireActor func(http.Handler) http.Handler) {
	mux.Handle("POST /api/rapports/{id}/exports", requireActor(http.HandlerFunc(h.Request)))
	mux.Handle("GET /api/rapports/{id}/exports", requireActor(http.HandlerFunc(h.List)))
}

// Request queues generation of a statement and responds 202 with the job ID.
// The body is optional; the format defaults to pdf.
func (h *ExportHandler) Request(w http.ResponseWriter, r *http.Request) {
	actor := auth.GetActorFromRequest(r)
	if actor == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	id, err := pathUUID(r, "id")
	if err != nil {
		BadRequestResponse(w, r, h.logger, "Invalid report ID")
		return
	}

	var req requestExportRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		BadRequestResponse(w, r, h.logger, err.Error())
		return
	}

	jobID, err := h.exports.Request(r.Context(), id, actor, req.Format)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusAccepted, exportRequestedResponse{JobID: jobID})
}

// List returns the report's statements with download URLs.
func (h *ExportHandler) List(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		BadRequestResponse(w, r, h.logger, "Invalid report ID")
		return
	}

	exports, err := h.exports.List(r.Context(), id)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	resp := listExportsResponse{Exports: make([]exportResponse, 0, len(exports))}
	for _, e := range exports {
		resp.Exports = append(resp.Exports, toExportResponse(e))
	}
	writeJSON(w, http.StatusOK, resp)
}
