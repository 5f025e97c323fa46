package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

const createBureau = `-- name: CreateBureau :one
INSERT INTO bureaux (id, code, nom_agence, responsable_sinistres, telephone, email, adresse)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, code, nom_agence, responsable_sinistres, telephone, email, adresse, created_at, updated_at
`

type CreateBureauParams struct {
	ID                   uuid.UUID
	Code                 string
	NomAgence            string
	ResponsableSinistres sql.NullString
	Telephone            sql.NullString
	Email                sql.NullString
	Adresse              sql.NullString
}

func (q *Queries) CreateBureau(ctx context.Context, arg CreateBureauParams) (Bureau, error) {
	row := q.db.QueryRowContext(ctx, createBureau,
		arg.ID,
		arg.Code,
		arg.NomAgence,
		arg.ResponsableSinistres,
		arg.Telephone,
		arg.Email,
		arg.Adresse,
	)
	var i Bureau
	err := row.Scan(
		&i.ID,
		&i.Code,
		&i.NomAgence,
		&i.ResponsableSinistres,
		&i.Telephone,
		&i.Email,
		&i.Adresse,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getBureauByID = `-- name: GetBureauByID :one
SELECT id, code, nom_agence, responsable_sinistres, telephone, email, adresse, created_at, updated_at
FROM bureaux
WHERE id = $1
`

func (q *Queries) GetBureauByID(ctx context.Context, id uuid.UUID) (Bureau, error) {
	row := q.db.QueryRowContext(ctx, getBureauByID, id)
	var i Bureau
	err := row.Scan(
		&i.ID,
		&i.Code,
		&i.NomAgence,
		&i.ResponsableSinistres,
		&i.Telephone,
		&i.Email,
		&i.Adresse,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getBureauByCode = `-- name: GetBureauByCode :one
SELECT id, code, nom_agence, responsable_sinistres, telephone, email, adresse, created_at, updated_at
FROM bureaux
WHERE code = $1
`

func (q *Queries) GetBureauByCode(ctx context.Context, code string) (Bureau, error) {
	row := q.db.QueryRowContext(ctx, getBureauByCode, code)
	var i Bureau
	err := row.Scan(
		&i.ID,
		&i.Code,
		&i.NomAgence,
		&i.ResponsableSinistres,
		&i.Telephone,
		&i.Email,
		&i.Adresse,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const updateBureau = `-- name: UpdateBureau :one
UPDATE bureaux
SET code = $2, nom_agence = $3, responsable_sinistres = $4, telephone = $5,
    email = $6, adresse = $7, updated_at = now()
WHERE id = $1
RETURNING id, code, nom_agence, responsable_sinistres, telephone, email, adresse, created_at, updated_at
`

type UpdateBureauParams struct {
	ID                   uuid.UUID
	Code                 string
	NomAgence            string
	ResponsableSinistres sql.NullString
	Telephone            sql.NullString
	Email                sql.NullString
	Adresse              sql.NullString
}

func (q *Queries) UpdateBureau(ctx context.Context, arg UpdateBureauParams) (Bureau, error) {
	row := q.db.QueryRowContext(ctx, updateBureau,
		arg.ID,
		arg.Code,
		arg.NomAgence,
		arg.ResponsableSinistres,
		arg.Telephone,
		arg.Email,
		arg.Adresse,
	)
	var i Bureau
	err := row.Scan(
		&i.ID,
		&i.Code,
		&i.NomAgence,
		&i.ResponsableSinistres,
		&i.Telephone,
		&i.Email,
		&i.Adresse,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listBureaux = `-- name: ListBureaux :many
SELECT id, code, nom_agence, responsable_sinistres, telephone, email, adresse, created_at, updated_at
FROM bureaux
WHERE $1::text = '' OR code ILIKE '%' || $1::text || '%' OR nom_agence ILIKE '%' || $1::text || '%'
ORDER BY nom_agence ASC
`

func (q *Queries) ListBureaux(ctx context.Context, search string) ([]Bureau, error) {
	rows, err := q.db.QueryContext(ctx, listBureaux, search)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Bureau
	for rows.Next() {
		var i Bureau
		if err := rows.Scan(
			&i.ID,
			&i.Code,
			&i.NomAgence,
			&i.ResponsableSinistres,
			&i.Telephone,
			&i.Email,
			&i.Adresse,
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

const deleteBureau = `-- name: DeleteBureau :execrows
DELETE FROM bureaux
WHERE id = $1
`

func (q *Queries) DeleteBureau(ctx context.Context, id uuid.UUID) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteBureau, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
