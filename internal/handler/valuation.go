package handler

import (
	"log/slog"
	"net/http"

	"github.com/expertauto/expertise/internal/service"
)

// ValuationHandler computes settlements for unsaved zone data, so that a
// client can preview the total while a report is being drafted.
type ValuationHandler struct {
	reports service.ReportService
	logger  *slog.Logger
}

// NewValuationHandler creates a new ValuationHandler.
func NewValuationHandler(reports service.ReportService, logger *slog.Logger) *ValuationHandler {
	return &ValuationHandler{
		reports: reports,
		logger:  logger,
	}
}

// RegisterRoutes registers the valuation route on the provided mux.
func (h *ValuationHandler) RegisterRoutes(mux *http.ServeMux, requireActor func(http.Handler) http.Handler) {
	mux.Handle("POST /api/valuations", requireActor(http.HandlerFunc(h.Settle)))
}

// Settle responds with the settlement breakdown of the submitted zones.
// Nothing is stored.
func (h *ValuationHandler) Settle(w http.ResponseWriter, r *http.Request) {
	var req settleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestResponse(w, r, h.logger, err.Error())
		return
	}

	settlement := h.reports.Settle(zoneParams(req.Chocs), req.DateMiseCirculation.timePtr())
	writeJSON(w, http.StatusOK, settlement)
}
