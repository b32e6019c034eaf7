package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// PgAdminDirectory resolves the users holding the admin capability from
// the users table.
type PgAdminDirectory struct {
	db *sqlx.DB
}

func NewPgAdminDirectory(db *sqlx.DB) *PgAdminDirectory {
	return &PgAdminDirectory{db: db}
}

func (d *PgAdminDirectory) ListAdminIDs(ctx context.Context) ([]uuid.UUID, error) {
	query := `SELECT id FROM users WHERE role = 'admin'`
	var ids []uuid.UUID
	if err := d.db.SelectContext(ctx, &ids, query); err != nil {
		return nil, err
	}
	return ids, nil
}
