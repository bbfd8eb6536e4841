package postgres

import (
	"context"
	"database/sql"

	"github.com/futureproof-labs/futureproof-core/internal/core/domain"
	"github.com/futureproof-labs/futureproof-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.VaultStore = (*VaultStore)(nil)

// VaultStore implements driven.VaultStore using PostgreSQL
type VaultStore struct {
	db *DB
}

// NewVaultStore creates a new VaultStore
func NewVaultStore(db *DB) *VaultStore {
	return &VaultStore{db: db}
}

// Save creates or updates a vault
func (s *VaultStore) Save(ctx context.Context, vault *domain.Vault) error {
	query := `
		INSERT INTO vaults (id, user_id, name, currency, icon, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			currency = EXCLUDED.currency,
			icon = EXCLUDED.icon,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		vault.ID,
		vault.UserID,
		vault.Name,
		vault.Currency,
		vault.Icon,
		vault.CreatedAt,
		vault.UpdatedAt,
	)
	return err
}

// Get retrieves a vault by ID
func (s *VaultStore) Get(ctx context.Context, id string) (*domain.Vault, error) {
	query := `
		SELECT id, user_id, name, currency, icon, created_at, updated_at
		FROM vaults
		WHERE id = $1
	`

	var vault domain.Vault
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&vault.ID,
		&vault.UserID,
		&vault.Name,
		&vault.Currency,
		&vault.Icon,
		&vault.CreatedAt,
		&vault.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &vault, nil
}

// ListByUser retrieves all vaults owned by a user
func (s *VaultStore) ListByUser(ctx context.Context, userID string) ([]*domain.Vault, error) {
	query := `
		SELECT id, user_id, name, currency, icon, created_at, updated_at
		FROM vaults
		WHERE user_id = $1
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vaults []*domain.Vault
	for rows.Next() {
		var vault domain.Vault
		err := rows.Scan(
			&vault.ID,
			&vault.UserID,
			&vault.Name,
			&vault.Currency,
			&vault.Icon,
			&vault.CreatedAt,
			&vault.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		vaults = append(vaults, &vault)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return vaults, nil
}

// Delete deletes a vault; its transactions cascade
func (s *VaultStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM vaults WHERE id = $1`, id)
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

// ReplaceAll atomically replaces every vault a user owns
func (s *VaultStore) ReplaceAll(ctx context.Context, userID string, vaults []*domain.Vault) error {
	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM vaults WHERE user_id = $1`, userID); err != nil {
			return err
		}

		query := `
			INSERT INTO vaults (id, user_id, name, currency, icon, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`
		for _, vault := range vaults {
			_, err := tx.ExecContext(ctx, query,
				vault.ID,
				vault.UserID,
				vault.Name,
				vault.Currency,
				vault.Icon,
				vault.CreatedAt,
				vault.UpdatedAt,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
}
