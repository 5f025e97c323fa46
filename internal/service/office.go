package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/expertauto/expertise/internal/domain"
	"github.com/expertauto/expertise/internal/repository"
	"github.com/google/uuid"
)

// OfficeService manages the claims offices that commission reports.
type OfficeService interface {
	// Create registers an office.
	// Returns domain.ECONFLICT if the code is already used.
	Create(ctx context.Context, params domain.CreateOfficeParams) (*domain.Office, error)

	// GetByID returns domain.ENOTFOUND if the office does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Office, error)

	// GetByCode looks an office up by its code, case-insensitively.
	// Returns domain.ENOTFOUND if no office has that code.
	GetByCode(ctx context.Context, code string) (*domain.Office, error)

	// Update changes the given fields of an office.
	// Returns domain.ENOTFOUND if the office does not exist and
	// domain.ECONFLICT if the new code is already used.
	Update(ctx context.Context, id uuid.UUID, params domain.UpdateOfficeParams) (*domain.Office, error)

	// List returns offices matching search on code or agency name.
	List(ctx context.Context, search string) ([]domain.Office, error)

	// Delete removes an office. Offices still referenced by reports cannot
	// be deleted (domain.ECONFLICT).
	Delete(ctx context.Context, id uuid.UUID) error
}

type officeService struct {
	queries repository.Querier
	logger  *slog.Logger
}

// NewOfficeService creates a new OfficeService.
func NewOfficeService(queries repository.Querier, logger *slog.Logger) OfficeService {
	return &officeService{
		queries: queries,
		logger:  logger,
	}
}

func (s *officeService) Create(ctx context.Context, params domain.CreateOfficeParams) (*domain.Office, error) {
	const op = "office.create"

	fields, err := validateOffice(op, params)
	if err != nil {
		return nil, err
	}

	row, err := s.queries.CreateBureau(ctx, repository.CreateBureauParams{
		ID:                   uuid.New(),
		Code:                 fields.Code,
		NomAgence:            fields.AgencyName,
		ResponsableSinistres: domain.ToNullString(fields.ClaimsManager),
		Telephone:            domain.ToNullString(fields.Phone),
		Email:                domain.ToNullString(fields.Email),
		Adresse:              domain.ToNullString(fields.Address),
	})
	if err != nil {
		return nil, officeWriteError(op, err)
	}

	s.logger.Info("office created", "office_id", row.ID, "code", row.Code)
	return rowToOffice(row), nil
}

// validateOffice trims every field and uppercases the code.
func validateOffice(op string, params domain.CreateOfficeParams) (domain.CreateOfficeParams, error) {
	errs := fieldErrors{}
	out := domain.CreateOfficeParams{
		Code:          strings.ToUpper(errs.require("code", params.Code)),
		AgencyName:    errs.require("nomAgence", params.AgencyName),
		ClaimsManager: strings.TrimSpace(params.ClaimsManager),
		Phone:         strings.TrimSpace(params.Phone),
		Email:         strings.TrimSpace(params.Email),
		Address:       strings.TrimSpace(params.Address),
	}
	errs.maxLength("code", out.Code, 20)
	errs.maxLength("nomAgence", out.AgencyName, 255)
	if out.Email != "" && !strings.Contains(out.Email, "@") {
		errs.add("email", "must be a valid email address")
	}
	return out, errs.err(op)
}

func officeWriteError(op string, err error) error {
	err = classifyStorageError(op, err)
	var ce *domain.ConstraintError
	if errors.As(err, &ce) && ce.Constraint == "bureaux_code_key" {
		return domain.Conflict(op, "an office with this code already exists")
	}
	return err
}

func (s *officeService) Update(ctx context.Context, id uuid.UUID, params domain.UpdateOfficeParams) (*domain.Office, error) {
	const op = "office.update"

	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	merged := domain.CreateOfficeParams{
		Code:          pick(params.Code, current.Code),
		AgencyName:    pick(params.AgencyName, current.AgencyName),
		ClaimsManager: pick(params.ClaimsManager, current.ClaimsManager),
		Phone:         pick(params.Phone, current.Phone),
		Email:         pick(params.Email, current.Email),
		Address:       pick(params.Address, current.Address),
	}
	fields, err := validateOffice(op, merged)
	if err != nil {
		return nil, err
	}

	row, err := s.queries.UpdateBureau(ctx, repository.UpdateBureauParams{
		ID:                   id,
		Code:                 fields.Code,
		NomAgence:            fields.AgencyName,
		ResponsableSinistres: domain.ToNullString(fields.ClaimsManager),
		Telephone:            domain.ToNullString(fields.Phone),
		Email:                domain.ToNullString(fields.Email),
		Adresse:              domain.ToNullString(fields.Address),
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "office", id.String())
		}
		return nil, officeWriteError(op, err)
	}

	s.logger.Info("office updated", "office_id", row.ID, "code", row.Code)
	return rowToOffice(row), nil
}

func pick(value *string, current string) string {
	if value == nil {
		return current
	}
	return *value
}

func (s *officeService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Office, error) {
	const op = "office.get"

	row, err := s.queries.GetBureauByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "office", id.String())
		}
		return nil, classifyStorageError(op, err)
	}
	return rowToOffice(row), nil
}

func (s *officeService) GetByCode(ctx context.Context, code string) (*domain.Office, error) {
	const op = "office.get_by_code"

	code = strings.ToUpper(strings.TrimSpace(code))
	row, err := s.queries.GetBureauByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &domain.Error{
				Code:    domain.ENOTFOUND,
				Op:      op,
				Message: fmt.Sprintf("office with code %q not found", code),
			}
		}
		return nil, classifyStorageError(op, err)
	}
	return rowToOffice(row), nil
}

func (s *officeService) List(ctx context.Context, search string) ([]domain.Office, error) {
	const op = "office.list"

	rows, err := s.queries.ListBureaux(ctx, strings.TrimSpace(search))
	if err != nil {
		return nil, classifyStorageError(op, err)
	}
	offices := make([]domain.Office, 0, len(rows))
	for _, row := range rows {
		offices = append(offices, *rowToOffice(row))
	}
	return offices, nil
}

func (s *officeService) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "office.delete"

	n, err := s.queries.DeleteBureau(ctx, id)
	if err != nil {
		err = classifyStorageError(op, err)
		var ce *domain.ConstraintError
		if errors.As(err, &ce) {
			return domain.Conflict(op, "the office still has reports")
		}
		return err
	}
	if n == 0 {
		return domain.NotFound(op, "office", id.String())
	}

	s.logger.Info("office deleted", "office_id", id)
	return nil
}
