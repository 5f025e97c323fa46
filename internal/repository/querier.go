package repository

import (
	"context"

	"github.com/google/uuid"
)

type Querier interface {
	CountRapports(ctx context.Context, arg CountRapportsParams) (int64, error)
	CreateAssure(ctx context.Context, arg CreateAssureParams) error
	CreateBureau(ctx context.Context, arg CreateBureauParams) (Bureau, error)
	CreateChoc(ctx context.Context, arg CreateChocParams) error
	CreateFourniture(ctx context.Context, arg CreateFournitureParams) error
	CreateRapport(ctx context.Context, arg CreateRapportParams) error
	CreateRapportExport(ctx context.Context, arg CreateRapportExportParams) (RapportExport, error)
	CreateVehicule(ctx context.Context, arg CreateVehiculeParams) error
	DeleteAssureByRapportID(ctx context.Context, rapportID uuid.UUID) (int64, error)
	DeleteBureau(ctx context.Context, id uuid.UUID) (int64, error)
	DeleteChocsByRapportID(ctx context.Context, rapportID uuid.UUID) (int64, error)
	DeleteFournituresByChocID(ctx context.Context, chocID uuid.UUID) (int64, error)
	DeleteRapport(ctx context.Context, id uuid.UUID) (int64, error)
	DeleteRapportExportsByRapportID(ctx context.Context, rapportID uuid.UUID) (int64, error)
	DeleteVehiculeByRapportID(ctx context.Context, rapportID uuid.UUID) (int64, error)
	DequeueJob(ctx context.Context) (Job, error)
	EnqueueJob(ctx context.Context, arg EnqueueJobParams) (Job, error)
	GetAssureByRapportID(ctx context.Context, rapportID uuid.UUID) (Assure, error)
	GetBureauByCode(ctx context.Context, code string) (Bureau, error)
	GetBureauByID(ctx context.Context, id uuid.UUID) (Bureau, error)
	GetRapportByID(ctx context.Context, id uuid.UUID) (Rapport, error)
	GetVehiculeByRapportID(ctx context.Context, rapportID uuid.UUID) (Vehicule, error)
	ListBureaux(ctx context.Context, search string) ([]Bureau, error)
	ListChocsByRapportID(ctx context.Context, rapportID uuid.UUID) ([]Choc, error)
	ListFournituresByRapportID(ctx context.Context, rapportID uuid.UUID) ([]Fourniture, error)
	ListRapportExportsByRapportID(ctx context.Context, rapportID uuid.UUID) ([]RapportExport, error)
	ListRapports(ctx context.Context, arg ListRapportsParams) ([]ListRapportsRow, error)
	RecoverStaleJobs(ctx context.Context, thresholdSeconds float64) (int64, error)
	UpdateBureau(ctx context.Context, arg UpdateBureauParams) (Bureau, error)
	UpdateJobCompleted(ctx context.Context, id uuid.UUID) error
	UpdateJobFailed(ctx context.Context, arg UpdateJobFailedParams) error
	UpdateJobStarted(ctx context.Context, id uuid.UUID) error
	UpdateRapport(ctx context.Context, arg UpdateRapportParams) (int64, error)
	UpdateRapportStatut(ctx context.Context, arg UpdateRapportStatutParams) (int64, error)
	UpdateRapportValuation(ctx context.Context, arg UpdateRapportValuationParams) (int64, error)
}

var _ Querier = (*Queries)(nil)
