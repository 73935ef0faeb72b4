package credit

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/ustaconnect/backend/internal/apperr"
	"github.com/ustaconnect/backend/internal/models"
	"github.com/ustaconnect/backend/internal/store"
)

func TestPurchaseAndBalance(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore("")
	svc := NewService()
	provider := uuid.New()

	// no account yet reads as zero
	balance, err := svc.GetBalance(ctx, st, provider)
	if err != nil || balance != 0 {
		t.Fatalf("GetBalance before purchase = %d, %v; want 0, nil", balance, err)
	}

	entry, err := svc.Purchase(ctx, st, provider, 5, "starter pack")
	if err != nil {
		t.Fatalf("Purchase: %v", err)
	}
	if entry.Amount != 5 || entry.BalanceAfter != 5 || entry.TransactionType != models.CreditTxPurchase {
		t.Errorf("unexpected purchase entry: %+v", entry)
	}

	balance, err = svc.GetBalance(ctx, st, provider)
	if err != nil || balance != 5 {
		t.Fatalf("GetBalance after purchase = %d, %v; want 5, nil", balance, err)
	}
}

func TestPurchaseRejectsNonPositive(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore("")
	svc := NewService()

	for _, amount := range []int64{0, -3} {
		_, err := svc.Purchase(ctx, st, uuid.New(), amount, "bad")
		if !apperr.IsKind(err, apperr.KindValidation) {
			t.Errorf("Purchase(%d) error = %v, want validation", amount, err)
		}
	}
}

func TestApplyDeltaRejectsOverdraft(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore("")
	svc := NewService()
	provider := uuid.New()

	if _, err := svc.Purchase(ctx, st, provider, 2, "topup"); err != nil {
		t.Fatalf("Purchase: %v", err)
	}

	err := st.Transact(ctx, func(tx store.Store) error {
		_, err := svc.ApplyDelta(ctx, tx, provider, -3, models.CreditTxBidSpent, nil, "too much")
		return err
	})
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("overdraft error = %v, want validation", err)
	}

	// balance and ledger untouched
	balance, _ := svc.GetBalance(ctx, st, provider)
	if balance != 2 {
		t.Errorf("balance after rejected overdraft = %d, want 2", balance)
	}
	entries, _ := svc.History(ctx, st, provider)
	if len(entries) != 1 {
		t.Errorf("ledger has %d entries after rejected overdraft, want 1", len(entries))
	}
}

func TestLedgerReplaysToBalance(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore("")
	svc := NewService()
	provider := uuid.New()
	bidID := uuid.New()

	if _, err := svc.Purchase(ctx, st, provider, 3, "topup"); err != nil {
		t.Fatalf("Purchase: %v", err)
	}
	err := st.Transact(ctx, func(tx store.Store) error {
		_, err := svc.ApplyDelta(ctx, tx, provider, -BidCost, models.CreditTxBidSpent, &bidID, "bid")
		return err
	})
	if err != nil {
		t.Fatalf("ApplyDelta: %v", err)
	}

	entries, err := svc.History(ctx, st, provider)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	var sum int64
	for _, e := range entries {
		sum += e.Amount
		if e.BalanceAfter != sum {
			t.Errorf("entry %s: BalanceAfter = %d, running sum = %d", e.TransactionType, e.BalanceAfter, sum)
		}
	}
	balance, _ := svc.GetBalance(ctx, st, provider)
	if sum != balance {
		t.Errorf("ledger sum %d != balance %d", sum, balance)
	}
}

func TestRefundIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore("")
	svc := NewService()
	provider := uuid.New()
	bidID := uuid.New()

	if _, err := svc.Purchase(ctx, st, provider, 1, "topup"); err != nil {
		t.Fatalf("Purchase: %v", err)
	}
	err := st.Transact(ctx, func(tx store.Store) error {
		_, err := svc.ApplyDelta(ctx, tx, provider, -BidCost, models.CreditTxBidSpent, &bidID, "bid")
		return err
	})
	if err != nil {
		t.Fatalf("ApplyDelta: %v", err)
	}

	for i, wantRefunded := range []bool{true, false, false} {
		var refunded bool
		err := st.Transact(ctx, func(tx store.Store) error {
			var err error
			refunded, err = svc.Refund(ctx, tx, provider, bidID, "cancelled")
			return err
		})
		if err != nil {
			t.Fatalf("Refund attempt %d: %v", i, err)
		}
		if refunded != wantRefunded {
			t.Errorf("Refund attempt %d: refunded = %v, want %v", i, refunded, wantRefunded)
		}
	}

	balance, _ := svc.GetBalance(ctx, st, provider)
	if balance != 1 {
		t.Errorf("balance after repeated refunds = %d, want 1", balance)
	}
}
