package postgres

import (
	"context"
	"database/sql"

	"github.com/futureproof-labs/futureproof-core/internal/core/domain"
	"github.com/futureproof-labs/futureproof-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.TransactionStore = (*TransactionStore)(nil)

// TransactionStore implements driven.TransactionStore using PostgreSQL
type TransactionStore struct {
	db *DB
}

// NewTransactionStore creates a new TransactionStore
func NewTransactionStore(db *DB) *TransactionStore {
	return &TransactionStore{db: db}
}

const transactionColumns = `id, vault_id, user_id, amount_cents, currency, category, note, occurred_at, created_at, updated_at`

// Save creates or updates a transaction
func (s *TransactionStore) Save(ctx context.Context, txn *domain.Transaction) error {
	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			amount_cents = EXCLUDED.amount_cents,
			currency = EXCLUDED.currency,
			category = EXCLUDED.category,
			note = EXCLUDED.note,
			occurred_at = EXCLUDED.occurred_at,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		txn.ID,
		txn.VaultID,
		txn.UserID,
		txn.AmountCents,
		txn.Currency,
		txn.Category,
		txn.Note,
		txn.OccurredAt,
		txn.CreatedAt,
		txn.UpdatedAt,
	)
	return err
}

// Get retrieves a transaction by ID
func (s *TransactionStore) Get(ctx context.Context, id string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	var txn domain.Transaction
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&txn.ID,
		&txn.VaultID,
		&txn.UserID,
		&txn.AmountCents,
		&txn.Currency,
		&txn.Category,
		&txn.Note,
		&txn.OccurredAt,
		&txn.CreatedAt,
		&txn.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &txn, nil
}

// ListByVault retrieves all transactions in a vault, newest first
func (s *TransactionStore) ListByVault(ctx context.Context, vaultID string) ([]*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE vault_id = $1
		ORDER BY occurred_at DESC
	`
	return s.queryTransactions(ctx, query, vaultID)
}

// ListByUser retrieves all transactions owned by a user, newest first
func (s *TransactionStore) ListByUser(ctx context.Context, userID string) ([]*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = $1
		ORDER BY occurred_at DESC
	`
	return s.queryTransactions(ctx, query, userID)
}

// Delete deletes a transaction
func (s *TransactionStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// ReplaceAll atomically replaces every transaction a user owns
func (s *TransactionStore) ReplaceAll(ctx context.Context, userID string, txns []*domain.Transaction) error {
	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE user_id = $1`, userID); err != nil {
			return err
		}

		query := `
			INSERT INTO transactions (` + transactionColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`
		for _, txn := range txns {
			_, err := tx.ExecContext(ctx, query,
				txn.ID,
				txn.VaultID,
				txn.UserID,
				txn.AmountCents,
				txn.Currency,
				txn.Category,
				txn.Note,
				txn.OccurredAt,
				txn.CreatedAt,
				txn.UpdatedAt,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *TransactionStore) queryTransactions(ctx context.Context, query string, arg any) ([]*domain.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []*domain.Transaction
	for rows.Next() {
		var txn domain.Transaction
		err := rows.Scan(
			&txn.ID,
			&txn.VaultID,
			&txn.UserID,
			&txn.AmountCents,
			&txn.Currency,
			&txn.Category,
			&txn.Note,
			&txn.OccurredAt,
			&txn.CreatedAt,
			&txn.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		txns = append(txns, &txn)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return txns, nil
}
