package models

import (
	"time"

	"github.com/google/uuid"
)

type CreditTxType string

const (
	CreditTxPurchase CreditTxType = "PURCHASE"
	CreditTxBidSpent CreditTxType = "BID_SPENT"
	CreditTxRefund   CreditTxType = "REFUND"
)

// CreditAccount holds one provider's spendable bid credits. Balance is only
// ever changed together with a new ledger entry, in the same transaction.
type CreditAccount struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProviderID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"provider_id"`
	Balance    int64     `gorm:"not null;default:0" json:"balance"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreditLedgerEntry is append-only. BalanceAfter snapshots the account
// balance right after this entry was applied, so replaying entries in
// creation order and summing Amount reproduces the current balance.
type CreditLedgerEntry struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProviderID uuid.UUID `gorm:"type:uuid;index;not null" json:"provider_id"`

	Amount          int64        `gorm:"not null" json:"amount"` // signed
	TransactionType CreditTxType `gorm:"type:varchar(20);not null" json:"transaction_type"`
	RelatedID       *uuid.UUID   `gorm:"type:uuid;index" json:"related_id,omitempty"` // bid id
	Description     string       `gorm:"type:text" json:"description"`
	BalanceAfter    int64        `gorm:"not null" json:"balance_after"`

	CreatedAt time.Time `json:"created_at"`
}
