package models

import (
	"hbs/src/types"

	"github.com/google/uuid"
)

// Transaction rows are append-only. Replaying them in order reconstructs the
// user's balance, which is the reconciliation check the ledger relies on.
type Transaction struct {
	ID uuid.UUID `gorm:"primarykey;type:uuid;default:gen_random_uuid()" json:"id"`

	UserID        uint                    `json:"user_id"`
	Type          types.TransactionType   `json:"type"`
	Amount        int64                   `json:"amount"`
	BalanceBefore int64                   `json:"balance_before"`
	BalanceAfter  int64                   `json:"balance_after"`
	Currency      string                  `json:"currency,omitempty"`
	Status        types.TransactionStatus `gorm:"default:'pending'" json:"status"`
	ReferenceID   string                  `json:"reference_id,omitempty"`

	// ProviderBatchID holds the PayPal payout batch id when the transaction
	// moved money externally. RefTransactionID links a reversal to the debit
	// it compensates.
	ProviderBatchID  *string     `json:"provider_batch_id,omitempty"`
	RefTransactionID *uuid.UUID  `gorm:"type:uuid" json:"ref_transaction_id,omitempty"`
	Metadata         types.JSONB `json:"metadata,omitempty"`

	User User `gorm:"foreignKey:user_id" json:"-"`

	types.Timestamps
}
