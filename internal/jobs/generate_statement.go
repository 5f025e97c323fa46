// Package jobs contains the background job handlers run by the worker.
package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/expertauto/expertise/internal/domain"
	"github.com/expertauto/expertise/internal/metrics"
	"github.com/expertauto/expertise/internal/report"
	"github.com/expertauto/expertise/internal/repository"
	"github.com/expertauto/expertise/internal/service"
	"github.com/expertauto/expertise/internal/storage"
	"github.com/expertauto/expertise/internal/worker"
	"github.com/google/uuid"
)

// maxStatementSize bounds a rendered statement.
const maxStatementSize = 20 << 20

// GenerateStatementHandler renders a report's settlement statement, stores
// the document and records the export.
type GenerateStatementHandler struct {
	reports   service.ReportService
	queries   repository.Querier
	storage   storage.Storage
	generator report.Generator
	now       func() time.Time
	logger    *slog.Logger
}

// NewGenerateStatementHandler creates a handler using the PDF generator.
func NewGenerateStatementHandler(
	reports service.ReportService,
	queries repository.Querier,
	store storage.Storage,
	logger *slog.Logger,
) *GenerateStatementHandler {
	return &GenerateStatementHandler{
		reports:   reports,
		queries:   queries,
		storage:   store,
		generator: report.NewPDFGenerator(),
		now:       time.Now,
		logger:    logger,
	}
}

// Type returns the job type identifier.
func (h *GenerateStatementHandler) Type() string {
	return worker.JobTypeGenerateStatement
}

// Handle executes the statement job. The settlement is recomputed first so
// the document and the stored total agree.
func (h *GenerateStatementHandler) Handle(ctx context.Context, payload []byte) error {
	var p worker.GenerateStatementPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return worker.NewPermanentError(fmt.Errorf("invalid payload: %w", err))
	}

	format := domain.ExportFormat(p.Format)
	if format != h.generator.Format() {
		return worker.NewPermanentError(fmt.Errorf("unsupported format: %s", p.Format))
	}

	logger := h.logger.With("report_id", p.ReportID, "user_id", p.UserID, "format", format)
	logger.Info("Generating statement")

	rpt, err := h.reports.Recalculate(ctx, p.ReportID)
	if err != nil {
		if domain.ErrorCode(err) == domain.ENOTFOUND {
			return worker.NewPermanentError(fmt.Errorf("report not found: %s", p.ReportID))
		}
		return fmt.Errorf("recalculate settlement: %w", err)
	}
	if rpt.Settlement == nil {
		return fmt.Errorf("report %s has no settlement after recalculation", p.ReportID)
	}

	var buf bytes.Buffer
	size, err := h.generator.Generate(ctx, &report.StatementData{
		Report:      rpt,
		Settlement:  *rpt.Settlement,
		GeneratedAt: h.now(),
	}, &buf)
	if err != nil {
		if errors.Is(err, report.ErrNoReport) {
			return worker.NewPermanentError(err)
		}
		return fmt.Errorf("generate %s: %w", format, err)
	}

	exportID := uuid.New()
	key := storage.StatementKey(p.ReportID, exportID, format.FileExtension())
	if err := h.storage.Put(ctx, key, &buf, storage.PutOptions{
		ContentType: format.ContentType(),
		MaxSize:     maxStatementSize,
	}); err != nil {
		if errors.Is(err, storage.ErrTooLarge) || errors.Is(err, storage.ErrInvalidKey) {
			return worker.NewPermanentError(fmt.Errorf("upload statement: %w", err))
		}
		return fmt.Errorf("upload statement: %w", err)
	}

	export, err := h.queries.CreateRapportExport(ctx, repository.CreateRapportExportParams{
		ID:           exportID,
		RapportID:    p.ReportID,
		UserID:       p.UserID,
		Format:       format.String(),
		StorageKey:   key,
		SizeBytes:    size,
		MontantTotal: rpt.Settlement.Total,
	})
	if err != nil {
		// The report may have been deleted while rendering
		if delErr := h.storage.Delete(ctx, key); delErr != nil {
			logger.Warn("Failed to remove orphaned statement", "key", key, "error", delErr)
		}
		return fmt.Errorf("record export: %w", err)
	}

	metrics.StatementStored(format.String(), size)
	logger.Info("Statement generated",
		"export_id", export.ID,
		"storage_key", key,
		"size_bytes", size,
		"total", rpt.Settlement.Total,
	)
	return nil
}
