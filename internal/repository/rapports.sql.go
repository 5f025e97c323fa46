package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

const createRapport = `-- name: CreateRapport :exec
INSERT INTO rapports (
    id, type_rapport, numero_ordre_service, bureau_id, numero_sinistre,
    date_sinistre, date_visite, statut, montant_total, valuation, user_id
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
`

type CreateRapportParams struct {
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
}

func (q *Queries) CreateRapport(ctx context.Context, arg CreateRapportParams) error {
	_, err := q.db.ExecContext(ctx, createRapport,
		arg.ID,
		arg.TypeRapport,
		arg.NumeroOrdreService,
		arg.BureauID,
		arg.NumeroSinistre,
		arg.DateSinistre,
		arg.DateVisite,
		arg.Statut,
		arg.MontantTotal,
		arg.Valuation,
		arg.UserID,
	)
	return err
}

const getRapportByID = `-- name: GetRapportByID :one
SELECT id, type_rapport, numero_ordre_service, bureau_id, numero_sinistre,
       date_sinistre, date_visite, statut, montant_total, valuation, user_id,
       created_at, updated_at
FROM rapports
WHERE id = $1
`

func (q *Queries) GetRapportByID(ctx context.Context, id uuid.UUID) (Rapport, error) {
	row := q.db.QueryRowContext(ctx, getRapportByID, id)
	var i Rapport
	err := row.Scan(
		&i.ID,
		&i.TypeRapport,
		&i.NumeroOrdreService,
		&i.BureauID,
		&i.NumeroSinistre,
		&i.DateSinistre,
		&i.DateVisite,
		&i.Statut,
		&i.MontantTotal,
		&i.Valuation,
		&i.UserID,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listRapports = `-- name: ListRapports :many
SELECT r.id, r.type_rapport, r.numero_ordre_service, r.bureau_id, r.numero_sinistre,
       r.date_sinistre, r.date_visite, r.statut, r.montant_total, r.valuation, r.user_id,
       r.created_at, r.updated_at,
       b.code AS bureau_code, b.nom_agence AS bureau_nom_agence,
       v.marque AS vehicule_marque, v.type AS vehicule_type, v.immatriculation AS vehicule_immatriculation
FROM rapports r
JOIN bureaux b ON b.id = r.bureau_id
LEFT JOIN vehicules v ON v.rapport_id = r.id
WHERE ($1::text = '' OR r.numero_sinistre ILIKE '%' || $1::text || '%' OR r.numero_ordre_service ILIKE '%' || $1::text || '%')
  AND ($2::text = '' OR r.statut::text = $2::text)
  AND ($3::text = '' OR r.type_rapport::text = $3::text)
ORDER BY r.created_at DESC, r.id
LIMIT $4 OFFSET $5
`

type ListRapportsParams struct {
	Search      string
	Statut      string
	TypeRapport string
	Limit       int32
	Offset      int32
}

type ListRapportsRow struct {
	Rapport
	BureauCode              string
	BureauNomAgence         string
	VehiculeMarque          sql.NullString
	VehiculeType            sql.NullString
	VehiculeImmatriculation sql.NullString
}

func (q *Queries) ListRapports(ctx context.Context, arg ListRapportsParams) ([]ListRapportsRow, error) {
	rows, err := q.db.QueryContext(ctx, listRapports,
		arg.Search,
		arg.Statut,
		arg.TypeRapport,
		arg.Limit,
		arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListRapportsRow
	for rows.Next() {
		var i ListRapportsRow
		if err := rows.Scan(
			&i.ID,
			&i.TypeRapport,
			&i.NumeroOrdreService,
			&i.BureauID,
			&i.NumeroSinistre,
			&i.DateSinistre,
			&i.DateVisite,
			&i.Statut,
			&i.MontantTotal,
			&i.Valuation,
			&i.UserID,
			&i.CreatedAt,
			&i.UpdatedAt,
			&i.BureauCode,
			&i.BureauNomAgence,
			&i.VehiculeMarque,
			&i.VehiculeType,
			&i.VehiculeImmatriculation,
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

const countRapports = `-- name: CountRapports :one
SELECT count(*)
FROM rapports r
WHERE ($1::text = '' OR r.numero_sinistre ILIKE '%' || $1::text || '%' OR r.numero_ordre_service ILIKE '%' || $1::text || '%')
  AND ($2::text = '' OR r.statut::text = $2::text)
  AND ($3::text = '' OR r.type_rapport::text = $3::text)
`

type CountRapportsParams struct {
	Search      string
	Statut      string
	TypeRapport string
}

func (q *Queries) CountRapports(ctx context.Context, arg CountRapportsParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, countRapports, arg.Search, arg.Statut, arg.TypeRapport)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const updateRapport = `-- name: UpdateRapport :execrows
UPDATE rapports
SET type_rapport = $2, numero_ordre_service = $3, bureau_id = $4, numero_sinistre = $5,
    date_sinistre = $6, date_visite = $7, statut = $8, updated_at = now()
WHERE id = $1
`

type UpdateRapportParams struct {
	ID                 uuid.UUID
	TypeRapport        string
	NumeroOrdreService string
	BureauID           uuid.UUID
	NumeroSinistre     string
	DateSinistre       time.Time
	DateVisite         sql.NullTime
	Statut             string
}

func (q *Queries) UpdateRapport(ctx context.Context, arg UpdateRapportParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateRapport,
		arg.ID,
		arg.TypeRapport,
		arg.NumeroOrdreService,
		arg.BureauID,
		arg.NumeroSinistre,
		arg.DateSinistre,
		arg.DateVisite,
		arg.Statut,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const updateRapportStatut = `-- name: UpdateRapportStatut :execrows
UPDATE rapports
SET statut = $2, updated_at = now()
WHERE id = $1
`

type UpdateRapportStatutParams struct {
	ID     uuid.UUID
	Statut string
}

func (q *Queries) UpdateRapportStatut(ctx context.Context, arg UpdateRapportStatutParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateRapportStatut, arg.ID, arg.Statut)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const updateRapportValuation = `-- name: UpdateRapportValuation :execrows
UPDATE rapports
SET montant_total = $2, valuation = $3, updated_at = now()
WHERE id = $1
`

type UpdateRapportValuationParams struct {
	ID           uuid.UUID
	MontantTotal int64
	Valuation    pqtype.NullRawMessage
}

func (q *Queries) UpdateRapportValuation(ctx context.Context, arg UpdateRapportValuationParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateRapportValuation, arg.ID, arg.MontantTotal, arg.Valuation)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteRapport = `-- name: DeleteRapport :execrows
DELETE FROM rapports
WHERE id = $1
`

func (q *Queries) DeleteRapport(ctx context.Context, id uuid.UUID) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteRapport, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
