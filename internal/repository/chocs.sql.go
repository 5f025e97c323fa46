package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const createChoc = `-- name: CreateChoc :exec
INSERT INTO chocs (
    id, rapport_id, nom_choc, description, modele_vehicule_svg,
    temps_reparation, taux_horaire, montant_peinture, ordre
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`

type CreateChocParams struct {
	ID                uuid.UUID
	RapportID         uuid.UUID
	NomChoc           string
	Description       string
	ModeleVehiculeSvg sql.NullString
	TempsReparation   decimal.Decimal
	TauxHoraire       decimal.Decimal
	MontantPeinture   decimal.Decimal
	Ordre             int32
}

func (q *Queries) CreateChoc(ctx context.Context, arg CreateChocParams) error {
	_, err := q.db.ExecContext(ctx, createChoc,
		arg.ID,
		arg.RapportID,
		arg.NomChoc,
		arg.Description,
		arg.ModeleVehiculeSvg,
		arg.TempsReparation,
		arg.TauxHoraire,
		arg.MontantPeinture,
		arg.Ordre,
	)
	return err
}

const listChocsByRapportID = `-- name: ListChocsByRapportID :many
SELECT id, rapport_id, nom_choc, description, modele_vehicule_svg,
       temps_reparation, taux_horaire, montant_peinture, ordre, created_at, updated_at
FROM chocs
WHERE rapport_id = $1
ORDER BY ordre ASC
`

func (q *Queries) ListChocsByRapportID(ctx context.Context, rapportID uuid.UUID) ([]Choc, error) {
	rows, err := q.db.QueryContext(ctx, listChocsByRapportID, rapportID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Choc
	for rows.Next() {
		var i Choc
		if err := rows.Scan(
			&i.ID,
			&i.RapportID,
			&i.NomChoc,
			&i.Description,
			&i.ModeleVehiculeSvg,
			&i.TempsReparation,
			&i.TauxHoraire,
			&i.MontantPeinture,
			&i.Ordre,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteChocsByRapportID = `-- name: DeleteChocsByRapportID :execrows
DELETE FROM chocs
WHERE rapport_id = $1
`

func (q *Queries) DeleteChocsByRapportID(ctx context.Context, rapportID uuid.UUID) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteChocsByRapportID, rapportID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
