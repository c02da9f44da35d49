package history

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository stores transfer records in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a transfer record.
func (r *PostgresRepository) Create(ctx context.Context, rec Record) error {
	_, err := r.db.Exec(ctx, `INSERT INTO transfers
        (id, from_wallet_id, to_wallet_id, amount, converted_amount, fee, escrow_id, status, reason, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		rec.ID, rec.FromWalletID, rec.ToWalletID, rec.Amount, rec.ConvertedAmount, rec.Fee,
		rec.EscrowID, rec.Status, rec.Reason, rec.CreatedAt.UTC(), rec.UpdatedAt.UTC())
	return err
}

// Update overwrites the mutable fields of a transfer record.
func (r *PostgresRepository) Update(ctx context.Context, rec Record) error {
	tag, err := r.db.Exec(ctx, `UPDATE transfers
        SET converted_amount = $2, fee = $3, status = $4, reason = $5, updated_at = $6
        WHERE id = $1`,
		rec.ID, rec.ConvertedAmount, rec.Fee, rec.Status, rec.Reason, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Get fetches a transfer record by id.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Record, error) {
	row := r.db.QueryRow(ctx, `SELECT id, from_wallet_id, to_wallet_id, amount, converted_amount, fee,
        escrow_id, status, reason, created_at, updated_at
        FROM transfers WHERE id = $1`, id)

	var rec Record
	err := row.Scan(&rec.ID, &rec.FromWalletID, &rec.ToWalletID, &rec.Amount, &rec.ConvertedAmount,
		&rec.Fee, &rec.EscrowID, &rec.Status, &rec.Reason, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.UpdatedAt = rec.UpdatedAt.UTC()
	return rec, nil
}
