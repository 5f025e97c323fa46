package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const createVehicule = `-- name: CreateVehicule :exec
INSERT INTO vehicules (
    id, rapport_id, marque, type, genre, immatriculation, numero_chassis, kilometrage,
    date_mise_circulation, couleur, source_energie, puissance_fiscale, valeur_neuve, charge_utile
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
`

type CreateVehiculeParams struct {
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
}

func (q *Queries) CreateVehicule(ctx context.Context, arg CreateVehiculeParams) error {
	_, err := q.db.ExecContext(ctx, createVehicule,
		arg.ID,
		arg.RapportID,
		arg.Marque,
		arg.Type,
		arg.Genre,
		arg.Immatriculation,
		arg.NumeroChassis,
		arg.Kilometrage,
		arg.DateMiseCirculation,
		arg.Couleur,
		arg.SourceEnergie,
		arg.PuissanceFiscale,
		arg.ValeurNeuve,
		arg.ChargeUtile,
	)
	return err
}

const getVehiculeByRapportID = `-- name: GetVehiculeByRapportID :one
SELECT id, rapport_id, marque, type, genre, immatriculation, numero_chassis, kilometrage,
       date_mise_circulation, couleur, source_energie, puissance_fiscale, valeur_neuve, charge_utile,
       created_at, updated_at
FROM vehicules
WHERE rapport_id = $1
`

func (q *Queries) GetVehiculeByRapportID(ctx context.Context, rapportID uuid.UUID) (Vehicule, error) {
	row := q.db.QueryRowContext(ctx, getVehiculeByRapportID, rapportID)
	var i Vehicule
	err := row.Scan(
		&i.ID,
		&i.RapportID,
		&i.Marque,
		&i.Type,
		&i.Genre,
		&i.Immatriculation,
		&i.NumeroChassis,
		&i.Kilometrage,
		&i.DateMiseCirculation,
		&i.Couleur,
		&i.SourceEnergie,
		&i.PuissanceFiscale,
		&i.ValeurNeuve,
		&i.ChargeUtile,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const deleteVehiculeByRapportID = `-- name: DeleteVehiculeByRapportID :execrows
DELETE FROM vehicules
WHERE rapport_id = $1
`

func (q *Queries) DeleteVehiculeByRapportID(ctx context.Context, rapportID uuid.UUID) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteVehiculeByRapportID, rapportID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
