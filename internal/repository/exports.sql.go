package repository

import (
	"context"

	"github.com/google/uuid"
)

const createRapportExport = `-- name: CreateRapportExport :one
INSERT INTO rapport_exports (id, rapport_id, user_id, format, storage_key, size_bytes, montant_total)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, rapport_id, user_id, format, storage_key, size_bytes, montant_total, generated_at
`

type CreateRapportExportParams struct {
	ID           uuid.UUID
	RapportID    uuid.UUID
	UserID       uuid.UUID
	Format       string
	StorageKey   string
	SizeBytes    int64
	MontantTotal int64
}

func (q *Queries) CreateRapportExport(ctx context.Context, arg CreateRapportExportParams) (RapportExport, error) {
	row := q.db.QueryRowContext(ctx, createRapportExport,
		arg.ID,
		arg.RapportID,
		arg.UserID,
		arg.Format,
		arg.StorageKey,
		arg.SizeBytes,
		arg.MontantTotal,
	)
	var i RapportExport
	err := row.Scan(
		&i.ID,
		&i.RapportID,
		&i.UserID,
		&i.Format,
		&i.StorageKey,
		&i.SizeBytes,
		&i.MontantTotal,
		&i.GeneratedAt,
	)
	return i, err
}

const listRapportExportsByRapportID = `-- name: ListRapportExportsByRapportID :many
SELECT id, rapport_id, user_id, format, storage_key, size_bytes, montant_total, generated_at
FROM rapport_exports
WHERE rapport_id = $1
ORDER BY generated_at DESC
`

func (q *Queries) ListRapportExportsByRapportID(ctx context.Context, rapportID uuid.UUID) ([]RapportExport, error) {
	rows, err := q.db.QueryContext(ctx, listRapportExportsByRapportID, rapportID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []RapportExport
	for rows.Next() {
		var i RapportExport
		if err := rows.Scan(
			&i.ID,
			&i.RapportID,
			&i.UserID,
			&i.Format,
			&i.StorageKey,
			&i.SizeBytes,
			&i.MontantTotal,
			&i.GeneratedAt,
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

const deleteRapportExportsByRapportID = `-- name: DeleteRapportExportsByRapportID :execrows
DELETE FROM rapport_exports
WHERE rapport_id = $1
`

func (q *Queries) DeleteRapportExportsByRapportID(ctx context.Context, rapportID uuid.UUID) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteRapportExportsByRapportID, rapportID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
