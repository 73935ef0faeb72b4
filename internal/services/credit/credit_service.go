// Package credit owns provider bid-credit balances and the append-only
// ledger behind them. Every balance change in the system goes through
// ApplyDelta so the BalanceAfter snapshots stay a consistent, replayable
// history.
package credit

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ustaconnect/backend/internal/apperr"
	"github.com/ustaconnect/backend/internal/models"
	"github.com/ustaconnect/backend/internal/store"
)

// BidCost is the flat credit price of placing one bid.
const BidCost int64 = 1

type Service struct{}

func NewService() *Service {
	return &Service{}
}

// ApplyDelta applies a signed amount to the provider's balance and appends
// the matching ledger entry. st must be a transaction-scoped store; the
// caller owns the transactional boundary.
func (s *Service) ApplyDelta(ctx context.Context, st store.Store, providerID uuid.UUID, amount int64, txType models.CreditTxType, relatedID *uuid.UUID, description string) (*models.CreditLedgerEntry, error) {
	account, err := st.Credits().GetAccountForUpdate(ctx, providerID)
	if errors.Is(err, store.ErrNotFound) {
		account = &models.CreditAccount{ProviderID: providerID}
		if err := st.Credits().CreateAccount(ctx, account); err != nil {
			return nil, fmt.Errorf("create credit account: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("load credit account: %w", err)
	}

	newBalance := account.Balance + amount
	if newBalance < 0 {
		return nil, apperr.Validation("insufficient credit")
	}

	account.Balance = newBalance
	if err := st.Credits().SaveAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("save credit account: %w", err)
	}

	entry := &models.CreditLedgerEntry{
		ProviderID:      providerID,
		Amount:          amount,
		TransactionType: txType,
		RelatedID:       relatedID,
		Description:     description,
		BalanceAfter:    newBalance,
	}
	if err := st.Credits().AppendEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("append ledger entry: %w", err)
	}
	return entry, nil
}

// Refund credits one bid cost back to the provider. It is idempotent on
// (provider, REFUND, relatedID): retrying a partially-failed bulk refund
// never double-refunds.
func (s *Service) Refund(ctx context.Context, st store.Store, providerID, bidID uuid.UUID, description string) (refunded bool, err error) {
	exists, err := st.Credits().HasEntry(ctx, providerID, models.CreditTxRefund, bidID)
	if err != nil {
		return false, fmt.Errorf("refund dedup lookup: %w", err)
	}
	if exists {
		return false, nil
	}
	if _, err := s.ApplyDelta(ctx, st, providerID, BidCost, models.CreditTxRefund, &bidID, description); err != nil {
		return false, err
	}
	return true, nil
}

// Purchase adds purchased credits in its own transaction. The checkout flow
// itself lives outside this core; this is the ledger end of it.
func (s *Service) Purchase(ctx context.Context, st store.Store, providerID uuid.UUID, amount int64, description string) (*models.CreditLedgerEntry, error) {
	if amount <= 0 {
		return nil, apperr.Validation("purchase amount must be positive")
	}
	var entry *models.CreditLedgerEntry
	err := st.Transact(ctx, func(tx store.Store) error {
		var err error
		entry, err = s.ApplyDelta(ctx, tx, providerID, amount, models.CreditTxPurchase, nil, description)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// GetBalance is a pure read; a provider with no account yet has balance 0.
func (s *Service) GetBalance(ctx context.Context, st store.Store, providerID uuid.UUID) (int64, error) {
	account, err := st.Credits().GetAccount(ctx, providerID)
	if errors.Is(err, store.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return account.Balance, nil
}

// History returns the provider's ledger entries in creation order.
func (s *Service) History(ctx context.Context, st store.Store, providerID uuid.UUID) ([]models.CreditLedgerEntry, error) {
	return st.Credits().ListEntries(ctx, providerID)
}
