// Package service contains the business logic layer.
//
// This file implements the report service: the transactional writer of report
// aggregates and its sibling read, status, recalculation and delete
// operations.
package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/expertauto/expertise/internal/domain"
	"github.com/expertauto/expertise/internal/metrics"
	"github.com/expertauto/expertise/internal/repository"
	"github.com/expertauto/expertise/internal/storage"
	"github.com/expertauto/expertise/internal/valuation"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sqlc-dev/pqtype"
)

// =============================================================================
// Interface Definition
// =============================================================================

// ReportService defines the operations on report aggregates.
type ReportService interface {
	// Create validates the submission, writes the report, its vehicle,
	// insured party, damage zones and parts in one transaction, and returns
	// the aggregate as re-read after commit.
	// Returns *domain.ValidationError listing every missing or invalid field,
	// *domain.ConstraintError when the database rejects a row and
	// *domain.TransientStorageError when the transaction could not complete.
	// Nothing is persisted when an error is returned.
	Create(ctx context.Context, params domain.CreateReportParams) (*domain.Report, error)

	// GetByID returns the full aggregate.
	// Returns domain.ENOTFOUND if the report does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Report, error)

	// List returns a page of reports, newest first.
	List(ctx context.Context, params domain.ListReportsParams) (*domain.ListReportsResult, error)

	// Update edits the report in one transaction. Replacing the vehicle or
	// the zones recomputes the settlement.
	// Returns *domain.ValidationError for invalid fields, domain.EINVALID for
	// a disallowed status change and domain.ENOTFOUND if the report does not
	// exist.
	Update(ctx context.Context, id uuid.UUID, params domain.UpdateReportParams) (*domain.Report, error)

	// UpdateStatus moves the report through its lifecycle.
	// Returns domain.EINVALID if the transition is not allowed.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ReportStatus) (*domain.Report, error)

	// Recalculate recomputes the settlement from the stored zones and writes
	// the new total and breakdown.
	Recalculate(ctx context.Context, id uuid.UUID) (*domain.Report, error)

	// Delete removes the report and everything it owns in one transaction,
	// then the stored statement files.
	// Returns domain.ENOTFOUND if the report does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// Settle computes a settlement for unsaved zone data. Nothing is stored.
	Settle(zones []domain.DamageZoneParams, firstRegistration *time.Time) valuation.Settlement
}

// =============================================================================
// Implementation
// =============================================================================

// ReportServiceConfig holds the tunables of the report service.
type ReportServiceConfig struct {
	Engine            valuation.Engine
	DefaultHourlyRate decimal.Decimal
	TxTimeout         time.Duration    // Zero disables the per-transaction deadline
	Now               func() time.Time // Clock used to age vehicles
}

// DefaultReportServiceConfig returns the standard engine, the default hourly
// rate and a 10 second transaction deadline.
func DefaultReportServiceConfig() ReportServiceConfig {
	return ReportServiceConfig{
		Engine:            valuation.DefaultEngine(),
		DefaultHourlyRate: decimal.NewFromInt(domain.DefaultHourlyRate),
		TxTimeout:         10 * time.Second,
		Now:               time.Now,
	}
}

type reportService struct {
	store             repository.Store
	files             storage.Storage
	engine            valuation.Engine
	defaultHourlyRate decimal.Decimal
	txTimeout         time.Duration
	now               func() time.Time
	logger            *slog.Logger
}

// NewReportService creates a new ReportService.
func NewReportService(store repository.Store, files storage.Storage, cfg ReportServiceConfig, logger *slog.Logger) ReportService {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if len(cfg.Engine.Schedule.Brackets) == 0 {
		cfg.Engine.Schedule = valuation.StandardSchedule
	}
	return &reportService{
		store:             store,
		files:             files,
		engine:            cfg.Engine,
		defaultHourlyRate: cfg.DefaultHourlyRate,
		txTimeout:         cfg.TxTimeout,
		now:               cfg.Now,
		logger:            logger,
	}
}

// inTx runs fn in one transaction bounded by the configured deadline.
func (s *reportService) inTx(ctx context.Context, fn func(q repository.Querier) error) error {
	if s.txTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.txTimeout)
		defer cancel()
	}
	return s.store.ExecTx(ctx, fn)
}

// =============================================================================
// Create
// =============================================================================

func (s *reportService) Create(ctx context.Context, params domain.CreateReportParams) (*domain.Report, error) {
	const op = "report.create"

	report, err := s.buildAggregate(op, params)
	if err != nil {
		s.createFailed(op, params, err)
		return nil, err
	}

	settlement := s.engine.Compute(report.ValuationZones(), report.FirstRegistration(), s.now())
	report.Settlement = &settlement
	report.TotalAmount = settlement.Total

	breakdown, err := marshalSettlement(settlement)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to encode settlement")
	}

	err = s.inTx(ctx, func(q repository.Querier) error {
		return insertAggregate(ctx, q, report, breakdown)
	})
	if err != nil {
		err = classifyStorageError(op, err)
		s.createFailed(op, params, err)
		return nil, err
	}

	metrics.ReportsCreated.WithLabelValues(report.Type.String()).Inc()
	metrics.SettlementComputed("create", settlement.DepreciationRate)

	// The write is committed. A failed read-back must not make the caller
	// retry and store a second copy.
	created, err := s.load(ctx, s.store, report.ID)
	if err != nil {
		s.logger.Warn("report created but read-back failed",
			"report_id", report.ID,
			"error", err,
		)
		created = report
	}

	s.logger.Info("report created",
		"report_id", created.ID,
		"user_id", params.UserID,
		"claim_number", created.ClaimNumber,
		"zones", len(created.Zones),
		"parts", created.PartCount(),
		"total", created.TotalAmount,
	)
	return created, nil
}

func (s *reportService) createFailed(op string, params domain.CreateReportParams, err error) {
	code := domain.ErrorCode(err)
	metrics.ReportCreateFailures.WithLabelValues(code).Inc()

	attrs := []any{
		"op", op,
		"code", code,
		"user_id", params.UserID,
		"claim_number", params.ClaimNumber,
		"error", err,
	}
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		attrs = append(attrs, "fields", strings.Join(ve.FieldNames(), ","))
		s.logger.Info("report rejected", attrs...)
		return
	}
	s.logger.Warn("report creation rolled back", attrs...)
}

// insertAggregate writes the aggregate in parent-to-child order: report,
// vehicle, insured party, then each zone followed by its parts.
func insertAggregate(ctx context.Context, q repository.Querier, r *domain.Report, breakdown pqtype.NullRawMessage) error {
	if err := q.CreateRapport(ctx, repository.CreateRapportParams{
		ID:                 r.ID,
		TypeRapport:        r.Type.String(),
		NumeroOrdreService: r.ServiceOrderNumber,
		BureauID:           r.OfficeID,
		NumeroSinistre:     r.ClaimNumber,
		DateSinistre:       r.IncidentDate,
		DateVisite:         domain.ToNullTime(r.VisitDate),
		Statut:             r.Status.String(),
		MontantTotal:       r.TotalAmount,
		Valuation:          breakdown,
		UserID:             r.UserID,
	}); err != nil {
		return fmt.Errorf("insert report: %w", err)
	}

	if err := insertVehicle(ctx, q, r.ID, r.Vehicle); err != nil {
		return err
	}
	if err := insertInsured(ctx, q, r.ID, r.Insured); err != nil {
		return err
	}
	return insertZones(ctx, q, r.ID, r.Zones)
}

func insertVehicle(ctx context.Context, q repository.Querier, reportID uuid.UUID, v *domain.Vehicle) error {
	if v != nil {
		if err := q.CreateVehicule(ctx, repository.CreateVehiculeParams{
			ID:                  v.ID,
			RapportID:           reportID,
			Marque:              v.Make,
			Type:                v.Model,
			Genre:               v.Category,
			Immatriculation:     v.Registration,
			NumeroChassis:       v.VIN,
			Kilometrage:         int32(v.Mileage),
			DateMiseCirculation: v.FirstRegistration,
			Couleur:             v.Color,
			SourceEnergie:       v.FuelType,
			PuissanceFiscale:    int32(v.FiscalPower),
			ValeurNeuve:         v.NewValue,
			ChargeUtile:         domain.ToNullDecimal(v.Payload),
		}); err != nil {
			return fmt.Errorf("insert vehicle: %w", err)
		}
	}
	return nil
}

func insertInsured(ctx context.Context, q repository.Querier, reportID uuid.UUID, a *domain.InsuredParty) error {
	if a != nil {
		if err := q.CreateAssure(ctx, repository.CreateAssureParams{
			ID:        a.ID,
			RapportID: reportID,
			Nom:       a.LastName,
			Prenom:    a.FirstName,
			Telephone: a.Phone,
			Email:     domain.ToNullString(a.Email),
			Adresse:   a.Address,
		}); err != nil {
			return fmt.Errorf("insert insured party: %w", err)
		}
	}
	return nil
}

// insertZones writes each zone followed by its parts.
func insertZones(ctx context.Context, q repository.Querier, reportID uuid.UUID, zones []domain.DamageZone) error {
	for _, z := range zones {
		if err := q.CreateChoc(ctx, repository.CreateChocParams{
			ID:                z.ID,
			RapportID:         reportID,
			NomChoc:           z.Name,
			Description:       z.Description,
			ModeleVehiculeSvg: domain.ToNullString(z.DiagramSVG),
			TempsReparation:   z.Hours,
			TauxHoraire:       z.HourlyRate,
			MontantPeinture:   z.Paint,
			Ordre:             int32(z.Order),
		}); err != nil {
			return fmt.Errorf("insert zone %d: %w", z.Order, err)
		}

		for i, p := range z.Parts {
			if err := q.CreateFourniture(ctx, repository.CreateFournitureParams{
				ID:           p.ID,
				ChocID:       z.ID,
				Designation:  p.Designation,
				Reference:    domain.ToNullString(p.Reference),
				Quantite:     int32(p.Quantity),
				PrixUnitaire: p.UnitPrice,
				PrixTotal:    p.LineTotal,
				Ordre:        int32(i + 1),
			}); err != nil {
				return fmt.Errorf("insert zone %d part %d: %w", z.Order, i+1, err)
			}
		}
	}
	return nil
}

func marshalSettlement(st valuation.Settlement) (pqtype.NullRawMessage, error) {
	raw, err := json.Marshal(st)
	if err != nil {
		return pqtype.NullRawMessage{}, err
	}
	return pqtype.NullRawMessage{RawMessage: raw, Valid: true}, nil
}

// =============================================================================
// GetByID / List
// =============================================================================

func (s *reportService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Report, error) {
	const op = "report.get"

	report, err := s.load(ctx, s.store, id)
	if err != nil {
		return nil, classifyStorageError(op, err)
	}
	return report, nil
}

// load reads the full aggregate through q.
func (s *reportService) load(ctx context.Context, q repository.Querier, id uuid.UUID) (*domain.Report, error) {
	row, err := q.GetRapportByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("report.load", "report", id.String())
		}
		return nil, fmt.Errorf("get report: %w", err)
	}
	report := s.rowToReport(row)

	office, err := q.GetBureauByID(ctx, row.BureauID)
	switch {
	case err == nil:
		report.Office = rowToOffice(office)
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("get office: %w", err)
	}

	vehicle, err := q.GetVehiculeByRapportID(ctx, id)
	switch {
	case err == nil:
		report.Vehicle = rowToVehicle(vehicle)
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("get vehicle: %w", err)
	}

	insured, err := q.GetAssureByRapportID(ctx, id)
	switch {
	case err == nil:
		report.Insured = rowToInsured(insured)
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("get insured party: %w", err)
	}

	zones, err := q.ListChocsByRapportID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list zones: %w", err)
	}
	parts, err := q.ListFournituresByRapportID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list parts: %w", err)
	}

	byZone := make(map[uuid.UUID][]domain.Part, len(zones))
	for _, p := range parts {
		byZone[p.ChocID] = append(byZone[p.ChocID], rowToPart(p))
	}
	report.Zones = make([]domain.DamageZone, 0, len(zones))
	for _, z := range zones {
		zone := rowToZone(z)
		zone.Parts = byZone[z.ID]
		if zone.Parts == nil {
			zone.Parts = []domain.Part{}
		}
		report.Zones = append(report.Zones, zone)
	}

	return report, nil
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func (s *reportService) List(ctx context.Context, params domain.ListReportsParams) (*domain.ListReportsResult, error) {
	const op = "report.list"

	if params.Status != "" && !params.Status.IsValid() {
		return nil, domain.NewValidationError(op, "statut", "must be one of brouillon, en_cours, termine, archive")
	}
	if params.Type != "" && !params.Type.IsValid() {
		return nil, domain.NewValidationError(op, "typeRapport", "must be one of estimatif_reparation, valeur_venale, tierce_expertise")
	}
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 {
		params.Limit = defaultPageSize
	}
	if params.Limit > maxPageSize {
		params.Limit = maxPageSize
	}
	search := strings.TrimSpace(params.Search)

	rows, err := s.store.ListRapports(ctx, repository.ListRapportsParams{
		Search:      search,
		Statut:      params.Status.String(),
		TypeRapport: params.Type.String(),
		Limit:       int32(params.Limit),
		Offset:      int32((params.Page - 1) * params.Limit),
	})
	if err != nil {
		return nil, classifyStorageError(op, err)
	}

	total, err := s.store.CountRapports(ctx, repository.CountRapportsParams{
		Search:      search,
		Statut:      params.Status.String(),
		TypeRapport: params.Type.String(),
	})
	if err != nil {
		return nil, classifyStorageError(op, err)
	}

	reports := make([]domain.Report, 0, len(rows))
	for _, row := range rows {
		r := s.rowToReport(row.Rapport)
		r.Office = &domain.Office{ID: row.BureauID, Code: row.BureauCode, AgencyName: row.BureauNomAgence}
		if row.VehiculeMarque.Valid {
			r.Vehicle = &domain.Vehicle{
				ReportID:     row.ID,
				Make:         row.VehiculeMarque.String,
				Model:        row.VehiculeType.String,
				Registration: row.VehiculeImmatriculation.String,
			}
		}
		reports = append(reports, *r)
	}

	return &domain.ListReportsResult{
		Reports: reports,
		Total:   total,
		Page:    params.Page,
		Limit:   params.Limit,
	}, nil
}

// =============================================================================
// Update
// =============================================================================

// Update rewrites the report row and replaces the dependents named in params.
// The settlement is recomputed when the vehicle or the zones change, since
// both feed the engine.
func (s *reportService) Update(ctx context.Context, id uuid.UUID, params domain.UpdateReportParams) (*domain.Report, error) {
	const op = "report.update"

	revalue := params.Vehicle != nil || params.ReplaceZones
	var settlement valuation.Settlement
	err := s.inTx(ctx, func(q repository.Querier) error {
		report, err := s.load(ctx, q, id)
		if err != nil {
			return err
		}
		if err := s.applyEdit(op, report, params); err != nil {
			return err
		}
		if params.Status != nil && *params.Status != report.Status {
			if err := report.TransitionTo(*params.Status); err != nil {
				return domain.Invalid(op, err.Error())
			}
		}

		if _, err := q.UpdateRapport(ctx, repository.UpdateRapportParams{
			ID:                 id,
			TypeRapport:        report.Type.String(),
			NumeroOrdreService: report.ServiceOrderNumber,
			BureauID:           report.OfficeID,
			NumeroSinistre:     report.ClaimNumber,
			DateSinistre:       report.IncidentDate,
			DateVisite:         domain.ToNullTime(report.VisitDate),
			Statut:             report.Status.String(),
		}); err != nil {
			return fmt.Errorf("update report: %w", err)
		}

		if params.Vehicle != nil {
			if _, err := q.DeleteVehiculeByRapportID(ctx, id); err != nil {
				return fmt.Errorf("delete vehicle: %w", err)
			}
			if err := insertVehicle(ctx, q, id, report.Vehicle); err != nil {
				return err
			}
		}
		if params.Insured != nil {
			if _, err := q.DeleteAssureByRapportID(ctx, id); err != nil {
				return fmt.Errorf("delete insured party: %w", err)
			}
			if err := insertInsured(ctx, q, id, report.Insured); err != nil {
				return err
			}
		}
		if params.ReplaceZones {
			if err := deleteZones(ctx, q, id); err != nil {
				return err
			}
			if err := insertZones(ctx, q, id, report.Zones); err != nil {
				return err
			}
		}

		if !revalue {
			return nil
		}
		settlement = s.engine.Compute(report.ValuationZones(), report.FirstRegistration(), s.now())
		breakdown, err := marshalSettlement(settlement)
		if err != nil {
			return domain.Internal(err, op, "failed to encode settlement")
		}
		_, err = q.UpdateRapportValuation(ctx, repository.UpdateRapportValuationParams{
			ID:           id,
			MontantTotal: settlement.Total,
			Valuation:    breakdown,
		})
		return err
	})
	if err != nil {
		return nil, classifyStorageError(op, err)
	}

	attrs := []any{"report_id", id, "revalued", revalue}
	if revalue {
		metrics.SettlementComputed("update", settlement.DepreciationRate)
		attrs = append(attrs, "total", settlement.Total)
	}
	s.logger.Info("report updated", attrs...)
	return s.GetByID(ctx, id)
}

// =============================================================================
// UpdateStatus / Recalculate
// =============================================================================

func (s *reportService) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ReportStatus) (*domain.Report, error) {
	const op = "report.update_status"

	if !status.IsValid() {
		return nil, domain.NewValidationError(op, "statut", "must be one of brouillon, en_cours, termine, archive")
	}

	var from domain.ReportStatus
	err := s.inTx(ctx, func(q repository.Querier) error {
		row, err := q.GetRapportByID(ctx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.NotFound(op, "report", id.String())
			}
			return err
		}
		report := s.rowToReport(row)
		from = report.Status
		if err := report.TransitionTo(status); err != nil {
			return domain.Invalid(op, err.Error())
		}
		_, err = q.UpdateRapportStatut(ctx, repository.UpdateRapportStatutParams{
			ID:     id,
			Statut: status.String(),
		})
		return err
	})
	if err != nil {
		return nil, classifyStorageError(op, err)
	}

	s.logger.Info("report status updated", "report_id", id, "from", from, "to", status)
	return s.GetByID(ctx, id)
}

func (s *reportService) Recalculate(ctx context.Context, id uuid.UUID) (*domain.Report, error) {
	const op = "report.recalculate"

	var settlement valuation.Settlement
	err := s.inTx(ctx, func(q repository.Querier) error {
		report, err := s.load(ctx, q, id)
		if err != nil {
			return err
		}
		settlement = s.engine.Compute(report.ValuationZones(), report.FirstRegistration(), s.now())
		breakdown, err := marshalSettlement(settlement)
		if err != nil {
			return domain.Internal(err, op, "failed to encode settlement")
		}
		_, err = q.UpdateRapportValuation(ctx, repository.UpdateRapportValuationParams{
			ID:           id,
			MontantTotal: settlement.Total,
			Valuation:    breakdown,
		})
		return err
	})
	if err != nil {
		return nil, classifyStorageError(op, err)
	}

	metrics.SettlementComputed("recalculate", settlement.DepreciationRate)
	s.logger.Info("report settlement recalculated",
		"report_id", id,
		"total", settlement.Total,
		"depreciation_rate", settlement.DepreciationRate,
	)
	return s.GetByID(ctx, id)
}

// =============================================================================
// Delete
// =============================================================================

// Delete removes dependents explicitly, deepest first, so that a failure at
// any step rolls back the whole aggregate.
func (s *reportService) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "report.delete"

	var keys []string
	err := s.inTx(ctx, func(q repository.Querier) error {
		if _, err := q.GetRapportByID(ctx, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.NotFound(op, "report", id.String())
			}
			return fmt.Errorf("get report: %w", err)
		}

		if err := deleteZones(ctx, q, id); err != nil {
			return err
		}
		if _, err := q.DeleteAssureByRapportID(ctx, id); err != nil {
			return fmt.Errorf("delete insured party: %w", err)
		}
		if _, err := q.DeleteVehiculeByRapportID(ctx, id); err != nil {
			return fmt.Errorf("delete vehicle: %w", err)
		}
		exports, err := q.ListRapportExportsByRapportID(ctx, id)
		if err != nil {
			return fmt.Errorf("list exports: %w", err)
		}
		keys = keys[:0]
		for _, e := range exports {
			keys = append(keys, e.StorageKey)
		}
		if _, err := q.DeleteRapportExportsByRapportID(ctx, id); err != nil {
			return fmt.Errorf("delete exports: %w", err)
		}
		n, err := q.DeleteRapport(ctx, id)
		if err != nil {
			return fmt.Errorf("delete report: %w", err)
		}
		if n == 0 {
			return domain.NotFound(op, "report", id.String())
		}
		return nil
	})
	if err != nil {
		return classifyStorageError(op, err)
	}

	metrics.ReportsDeleted.Inc()
	s.logger.Info("report deleted", "report_id", id, "files", len(keys))
	s.removeFiles(ctx, id, keys)
	return nil
}

// deleteZones removes every part then every zone of the report.
func deleteZones(ctx context.Context, q repository.Querier, reportID uuid.UUID) error {
	zones, err := q.ListChocsByRapportID(ctx, reportID)
	if err != nil {
		return fmt.Errorf("list zones: %w", err)
	}
	for _, z := range zones {
		if _, err := q.DeleteFournituresByChocID(ctx, z.ID); err != nil {
			return fmt.Errorf("delete parts of zone %d: %w", z.Ordre, err)
		}
	}
	if _, err := q.DeleteChocsByRapportID(ctx, reportID); err != nil {
		return fmt.Errorf("delete zones: %w", err)
	}
	return nil
}

// removeFiles deletes committed statement files. A file left behind is
// logged and never fails the delete.
func (s *reportService) removeFiles(ctx context.Context, reportID uuid.UUID, keys []string) {
	if s.files == nil {
		return
	}
	for _, key := range keys {
		if err := s.files.Delete(ctx, key); err != nil {
			s.logger.Warn("failed to remove statement file",
				"report_id", reportID,
				"key", key,
				"error", err,
			)
		}
	}
}

// =============================================================================
// Settle
// =============================================================================

func (s *reportService) Settle(zones []domain.DamageZoneParams, firstRegistration *time.Time) valuation.Settlement {
	input := make([]valuation.Zone, 0, len(zones))
	for _, zp := range zones {
		z := s.normalizeZone(zp)
		input = append(input, z.ValuationZone())
	}

	var reg time.Time
	if firstRegistration != nil {
		reg = *firstRegistration
	}
	settlement := s.engine.Compute(input, reg, s.now())
	metrics.SettlementComputed("preview", settlement.DepreciationRate)
	return settlement
}
