package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Transaction is a single income or expense entry inside a vault.
// Amounts are stored as integer cents to avoid float drift.
type Transaction struct {
	ID          string    `json:"id"`
	VaultID     string    `json:"vault_id"`
	UserID      string    `json:"user_id"`
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
	Category    string    `json:"category,omitempty"`
	Note        string    `json:"note,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewTransaction creates a transaction with a fresh ID and timestamps.
func NewTransaction(userID, vaultID string, amountCents int64, currency string, occurredAt time.Time) *Transaction {
	now := time.Now()
	if occurredAt.IsZero() {
		occurredAt = now
	}
	return &Transaction{
		ID:          uuid.NewString(),
		VaultID:     vaultID,
		UserID:      userID,
		AmountCents: amountCents,
		Currency:    currency,
		OccurredAt:  occurredAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Validate checks transaction fields before persistence.
func (t *Transaction) Validate() error {
	if t.VaultID == "" {
		return fmt.Errorf("%w: transaction vault id is required", ErrInvalidInput)
	}
	if t.UserID == "" {
		return fmt.Errorf("%w: transaction user id is required", ErrInvalidInput)
	}
	if t.AmountCents == 0 {
		return fmt.Errorf("%w: transaction amount must be non-zero", ErrInvalidInput)
	}
	return nil
}

// Touch bumps the updated-at timestamp.
func (t *Transaction) Touch() {
	t.UpdatedAt = time.Now()
}
