package repository

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sqlc-dev/pqtype"
)

type Bureau struct {
	ID                   uuid.UUID
	Code                 string
	NomAgence            string
	ResponsableSinistres sql.NullString
	Telephone            sql.NullString
	Email                sql.NullString
	Adresse              sql.NullString
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

type Rapport struct {
	ID                 uuid.UUID
	TypeRapport        string
	NumeroOrdreService string
	BureauID           uuid.UUID
	NumeroSinistre     string
	DateSinistre       time.Time
	DateVisite         sql.NullTime
	Statut             string
	MontantTotal       int64
	Valuation          pqtype.NullRawMessage
	UserID             uuid.UUID
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type Vehicule struct {
	ID                  uuid.UUID
	RapportID           uuid.UUID
	Marque              string
	Type                string
	Genre               string
	Immatriculation     string
	NumeroChassis       string
	Kilometrage         int32
	DateMiseCirculation time.Time
	Couleur             string
	SourceEnergie       string
	PuissanceFiscale    int32
	ValeurNeuve         decimal.Decimal
	ChargeUtile         decimal.NullDecimal
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type Assure struct {
	ID        uuid.UUID
	RapportID uuid.UUID
	Nom       string
	Prenom    string
	Telephone string
	Email     sql.NullString
	Adresse   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Choc struct {
	ID                uuid.UUID
	RapportID         uuid.UUID
	NomChoc           string
	Description       string
	ModeleVehiculeSvg sql.NullString
	TempsReparation   decimal.Decimal
	TauxHoraire       decimal.Decimal
	MontantPeinture   decimal.Decimal
	Ordre             int32
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type Fourniture struct {
	ID           uuid.UUID
	ChocID       uuid.UUID
	Designation  string
	Reference    sql.NullString
	Quantite     int32
	PrixUnitaire decimal.Decimal
	PrixTotal    decimal.Decimal
	Ordre        int32
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type RapportExport struct {
	ID           uuid.UUID
	RapportID    uuid.UUID
	UserID       uuid.UUID
	Format       string
	StorageKey   string
	SizeBytes    int64
	MontantTotal int64
	GeneratedAt  time.Time
}

type Job struct {
	ID           uuid.UUID
	JobType      string
	Payload      json.RawMessage
	Status       string
	Priority     int32
	Attempts     int32
	MaxAttempts  int32
	ErrorMessage sql.NullString
	ScheduledAt  time.Time
	StartedAt    sql.NullTime
	CompletedAt  sql.NullTime
	CreatedAt    time.Time
}
