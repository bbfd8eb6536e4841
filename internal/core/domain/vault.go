package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Vault is a user-defined named container of transactions, e.g.
// "Personal" or "Business". Vaults are the unit the backup assembler
// serializes; they carry no sync state of their own.
type Vault struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Currency  string    `json:"currency"`
	Icon      string    `json:"icon,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewVault creates a vault with a fresh ID and timestamps.
func NewVault(userID, name, currency string) *Vault {
	now := time.Now()
	return &Vault{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		Currency:  currency,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks vault fields before persistence.
func (v *Vault) Validate() error {
	if strings.TrimSpace(v.Name) == "" {
		return fmt.Errorf("%w: vault name is required", ErrInvalidInput)
	}
	if len(v.Name) > 100 {
		return fmt.Errorf("%w: vault name too long", ErrInvalidInput)
	}
	if v.UserID == "" {
		return fmt.Errorf("%w: vault user id is required", ErrInvalidInput)
	}
	return nil
}

// Touch bumps the updated-at timestamp.
func (v *Vault) Touch() {
	v.UpdatedAt = time.Now()
}
