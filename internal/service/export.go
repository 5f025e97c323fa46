package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/expertauto/expertise/internal/domain"
	"github.com/expertauto/expertise/internal/repository"
	"github.com/expertauto/expertise/internal/storage"
	"github.com/expertauto/expertise/internal/worker"
	"github.com/google/uuid"
)

// exportURLExpiry is how long download links of listed statements stay valid.
const exportURLExpiry = 15 * time.Minute

// ExportService requests and lists settlement statement documents.
type ExportService interface {
	// Request queues generation of a statement and returns the job ID.
	// Returns domain.ENOTFOUND if the report does not exist and
	// domain.EINVALID for an unsupported format.
	Request(ctx context.Context, reportID uuid.UUID, actor *domain.Actor, format domain.ExportFormat) (uuid.UUID, error)

	// List returns the report's statements, newest first, with download URLs.
	List(ctx context.Context, reportID uuid.UUID) ([]domain.StatementExport, error)
}

type exportService struct {
	store   repository.Store
	storage storage.Storage
	logger  *slog.Logger
}

// NewExportService creates a new ExportService.
func NewExportService(store repository.Store, files storage.Storage, logger *slog.Logger) ExportService {
	return &exportService{
		store:   store,
		storage: files,
		logger:  logger,
	}
}

func (s *exportService) Request(ctx context.Context, reportID uuid.UUID, actor *domain.Actor, format domain.ExportFormat) (uuid.UUID, error) {
	const op = "export.request"

	if actor == nil {
		return uuid.Nil, domain.Unauthorized(op, "authentication required")
	}
	if format == "" {
		format = domain.ExportFormatPDF
	}
	if !format.IsValid() {
		return uuid.Nil, domain.NewValidationError(op, "format", "must be pdf")
	}

	var jobID uuid.UUID
	err := s.store.ExecTx(ctx, func(q repository.Querier) error {
		if _, err := q.GetRapportByID(ctx, reportID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.NotFound(op, "report", reportID.String())
			}
			return err
		}
		job, err := worker.EnqueueGenerateStatement(ctx, q, reportID, actor.UserID, format.String())
		if err != nil {
			return err
		}
		jobID = job.ID
		return nil
	})
	if err != nil {
		return uuid.Nil, classifyStorageError(op, err)
	}

	s.logger.Info("statement requested", "report_id", reportID, "user_id", actor.UserID, "job_id", jobID)
	return jobID, nil
}

func (s *exportService) List(ctx context.Context, reportID uuid.UUID) ([]domain.StatementExport, error) {
	const op = "export.list"

	if _, err := s.store.GetRapportByID(ctx, reportID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "report", reportID.String())
		}
		return nil, classifyStorageError(op, err)
	}

	rows, err := s.store.ListRapportExportsByRapportID(ctx, reportID)
	if err != nil {
		return nil, classifyStorageError(op, err)
	}

	exports := make([]domain.StatementExport, 0, len(rows))
	for _, row := range rows {
		e := rowToExport(row)
		url, err := s.storage.URL(ctx, e.StorageKey, exportURLExpiry)
		if err != nil {
			s.logger.Warn("failed to resolve statement URL", "export_id", e.ID, "key", e.StorageKey, "error", err)
		} else {
			e.URL = url
		}
		exports = append(exports, e)
	}
	return exports, nil
}
