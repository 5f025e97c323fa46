package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

const createAssure = `-- name: CreateAssure :exec
INSERT INTO assures (id, rapport_id, nom, prenom, telephone, email, adresse)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`

type CreateAssureParams struct {
	ID        uuid.UUID
	RapportID uuid.UUID
	Nom       string
	Prenom    string
	Telephone string
	Email     sql.NullString
	Adresse   string
}

func (q *Queries) CreateAssure(ctx context.Context, arg CreateAssureParams) error {
	_, err := q.db.ExecContext(ctx, createAssure,
		arg.ID,
		arg.RapportID,
		arg.Nom,
		arg.Prenom,
		arg.Telephone,
		arg.Email,
		arg.Adresse,
	)
	return err
}

const getAssureByRapportID = `-- name: GetAssureByRapportID :one
SELECT id, rapport_id, nom, prenom, telephone, email, adresse, created_at, updated_at
FROM assures
WHERE rapport_id = $1
`

func (q *Queries) GetAssureByRapportID(ctx context.Context, rapportID uuid.UUID) (Assure, error) {
	row := q.db.QueryRowContext(ctx, getAssureByRapportID, rapportID)
	var i Assure
	err := row.Scan(
		&i.ID,
		&i.RapportID,
		&i.Nom,
		&i.Prenom,
		&i.Telephone,
		&i.Email,
		&i.Adresse,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const deleteAssureByRapportID = `-- name: DeleteAssureByRapportID :execrows
DELETE FROM assures
WHERE rapport_id = $1
`

func (q *Queries) DeleteAssureByRapportID(ctx context.Context, rapportID uuid.UUID) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteAssureByRapportID, rapportID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
