package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const createFourniture = `-- name: CreateFourniture :exec
INSERT INTO fournitures (id, choc_id, designation, reference, quantite, prix_unitaire, prix_total, ordre)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`

type CreateFournitureParams struct {
	ID           uuid.UUID
	ChocID       uuid.UUID
	Designation  string
	Reference    sql.NullString
	Quantite     int32
	PrixUnitaire decimal.Decimal
	PrixTotal    decimal.Decimal
	Ordre        int32
}

func (q *Queries) CreateFourniture(ctx context.Context, arg CreateFournitureParams) error {
	_, err := q.db.ExecContext(ctx, createFourniture,
		arg.ID,
		arg.ChocID,
		arg.Designation,
		arg.Reference,
		arg.Quantite,
		arg.PrixUnitaire,
		arg.PrixTotal,
		arg.Ordre,
	)
	return err
}

const listFournituresByRapportID = `-- name: ListFournituresByRapportID :many
SELECT f.id, f.choc_id, f.designation, f.reference, f.quantite, f.prix_unitaire, f.prix_total,
       f.ordre, f.created_at, f.updated_at
FROM fournitures f
JOIN chocs c ON c.id = f.choc_id
WHERE c.rapport_id = $1
ORDER BY c.ordre ASC, f.ordre ASC
`

func (q *Queries) ListFournituresByRapportID(ctx context.Context, rapportID uuid.UUID) ([]Fourniture, error) {
	rows, err := q.db.QueryContext(ctx, listFournituresByRapportID, rapportID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Fourniture
	for rows.Next() {
		var i Fourniture
		if err := rows.Scan(
			&i.ID,
			&i.ChocID,
			&i.Designation,
			&i.Reference,
			&i.Quantite,
			&i.PrixUnitaire,
			&i.PrixTotal,
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

const deleteFournituresByChocID = `-- name: DeleteFournituresByChocID :execrows
DELETE FROM fournitures
WHERE choc_id = $1
`

func (q *Queries) DeleteFournituresByChocID(ctx context.Context, chocID uuid.UUID) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteFournituresByChocID, chocID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
