package bid

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/ustaconnect/backend/internal/apperr"
	"github.com/ustaconnect/backend/internal/models"
	"github.com/ustaconnect/backend/internal/services/credit"
	"github.com/ustaconnect/backend/internal/store"
)

type userNote struct {
	userID uuid.UUID
	event  string
}

type stubNotifier struct {
	users []userNote
}

func (n *stubNotifier) NotifyUser(_ context.Context, userID uuid.UUID, event, _, _ string, _ interface{}) {
	n.users = append(n.users, userNote{userID, event})
}

func (n *stubNotifier) NotifyArea(_ context.Context, _, _, _, _ string, _ interface{}) {}

func newFixture() (*Service, *store.MemoryStore, *credit.Service, *stubNotifier) {
	st := store.NewMemoryStore("")
	credits := credit.NewService()
	notifier := &stubNotifier{}
	return NewService(st, credits, notifier), st, credits, notifier
}

func seedOpenJob(t *testing.T, st store.Store, requesterID uuid.UUID) *models.JobPost {
	t.Helper()
	j := &models.JobPost{
		RequesterID: requesterID,
		Title:       "Fix kitchen sink",
		Description: "Leaking under the counter",
		Category:    "plumbing",
		Location:    models.Location{Address: "Main St 4", City: "Ankara", District: "Cankaya"},
		Status:      models.JobStatusOpen,
	}
	if err := st.Jobs().Create(context.Background(), j); err != nil {
		t.Fatalf("seed job: %v", err)
	}
	return j
}

func fund(t *testing.T, credits *credit.Service, st store.Store, provider uuid.UUID, amount int64) {
	t.Helper()
	if _, err := credits.Purchase(context.Background(), st, provider, amount, "test topup"); err != nil {
		t.Fatalf("fund provider: %v", err)
	}
}

func validInput(jobID uuid.UUID) CreateBidInput {
	return CreateBidInput{
		JobID:             jobID,
		Amount:            1500,
		EstimatedDuration: 4,
		Message:           "I can start tomorrow morning.",
	}
}

func TestCreateBid(t *testing.T) {
	svc, st, credits, notifier := newFixture()
	ctx := context.Background()
	requester := uuid.New()
	provider := uuid.New()
	job := seedOpenJob(t, st, requester)
	fund(t, credits, st, provider, 3)

	b, err := svc.Create(ctx, provider, validInput(job.ID))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if b.Status != models.BidStatusPending {
		t.Errorf("bid status = %s, want PENDING", b.Status)
	}

	got, err := st.Jobs().GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("reload job: %v", err)
	}
	if got.Status != models.JobStatusBidding {
		t.Errorf("job status = %s, want BIDDING", got.Status)
	}
	if got.BidCount != 1 {
		t.Errorf("bid count = %d, want 1", got.BidCount)
	}

	balance, _ := credits.GetBalance(ctx, st, provider)
	if balance != 3-credit.BidCost {
		t.Errorf("balance = %d, want %d", balance, 3-credit.BidCost)
	}

	if len(notifier.users) != 1 || notifier.users[0].userID != requester || notifier.users[0].event != "bid_received" {
		t.Errorf("requester notification = %+v", notifier.users)
	}
}

func TestCreateBidInsufficientCredit(t *testing.T) {
	svc, st, credits, _ := newFixture()
	ctx := context.Background()
	provider := uuid.New()
	job := seedOpenJob(t, st, uuid.New())

	_, err := svc.Create(ctx, provider, validInput(job.ID))
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("error = %v, want validation", err)
	}

	// nothing written: no bid, no counter bump, no ledger entry
	bids, _ := st.Bids().ListByJob(ctx, job.ID)
	if len(bids) != 0 {
		t.Errorf("bids written despite rejected create: %d", len(bids))
	}
	got, _ := st.Jobs().GetByID(ctx, job.ID)
	if got.BidCount != 0 || got.Status != models.JobStatusOpen {
		t.Errorf("job mutated despite rejected create: count=%d status=%s", got.BidCount, got.Status)
	}
	entries, _ := credits.History(ctx, st, provider)
	if len(entries) != 0 {
		t.Errorf("ledger written despite rejected create: %d entries", len(entries))
	}
}

func TestCreateBidRejectsPhoneNumbers(t *testing.T) {
	svc, st, credits, _ := newFixture()
	provider := uuid.New()
	job := seedOpenJob(t, st, uuid.New())
	fund(t, credits, st, provider, 3)

	for _, msg := range []string{
		"Call me at +90 532 123 45 67",
		"my number is 05321234567",
		"reach me: (555) 123-4567 thanks",
	} {
		in := validInput(job.ID)
		in.Message = msg
		if _, err := svc.Create(context.Background(), provider, in); !apperr.IsKind(err, apperr.KindValidation) {
			t.Errorf("message %q: error = %v, want validation", msg, err)
		}
	}

	// plain prices and small numbers pass
	in := validInput(job.ID)
	in.Message = "I charge 1500 for this, done in 4 hours."
	if _, err := svc.Create(context.Background(), provider, in); err != nil {
		t.Errorf("clean message rejected: %v", err)
	}
}

func TestCreateBidOwnJobForbidden(t *testing.T) {
	svc, st, credits, _ := newFixture()
	requester := uuid.New()
	job := seedOpenJob(t, st, requester)
	fund(t, credits, st, requester, 3)

	_, err := svc.Create(context.Background(), requester, validInput(job.ID))
	if !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("error = %v, want forbidden", err)
	}
}

func TestCreateBidDuplicateActive(t *testing.T) {
	svc, st, credits, _ := newFixture()
	ctx := context.Background()
	provider := uuid.New()
	job := seedOpenJob(t, st, uuid.New())
	fund(t, credits, st, provider, 3)

	if _, err := svc.Create(ctx, provider, validInput(job.ID)); err != nil {
		t.Fatalf("first bid: %v", err)
	}
	if _, err := svc.Create(ctx, provider, validInput(job.ID)); !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("second bid error = %v, want validation", err)
	}

	// a withdrawn bid no longer blocks a new one
	bids, _ := st.Bids().ListByJob(ctx, job.ID)
	if _, err := svc.Withdraw(ctx, bids[0].ID, provider); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if _, err := svc.Create(ctx, provider, validInput(job.ID)); err != nil {
		t.Errorf("bid after withdrawal rejected: %v", err)
	}
}

func TestAcceptRejectsSiblings(t *testing.T) {
	svc, st, credits, notifier := newFixture()
	ctx := context.Background()
	requester := uuid.New()
	winner := uuid.New()
	loser := uuid.New()
	job := seedOpenJob(t, st, requester)
	fund(t, credits, st, winner, 1)
	fund(t, credits, st, loser, 1)

	winning, err := svc.Create(ctx, winner, validInput(job.ID))
	if err != nil {
		t.Fatalf("winner bid: %v", err)
	}
	losing, err := svc.Create(ctx, loser, validInput(job.ID))
	if err != nil {
		t.Fatalf("loser bid: %v", err)
	}
	notifier.users = nil

	accepted, err := svc.Accept(ctx, winning.ID, requester)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if accepted.Status != models.BidStatusAccepted || accepted.AcceptedAt == nil {
		t.Errorf("accepted bid = %+v", accepted)
	}

	reloaded, _ := st.Bids().GetByID(ctx, losing.ID)
	if reloaded.Status != models.BidStatusRejected || reloaded.RejectedAt == nil {
		t.Errorf("sibling bid not rejected: %+v", reloaded)
	}

	got, _ := st.Jobs().GetByID(ctx, job.ID)
	if got.Status != models.JobStatusInProgress {
		t.Errorf("job status = %s, want IN_PROGRESS", got.Status)
	}
	if got.AssignedProviderID == nil || *got.AssignedProviderID != winner {
		t.Errorf("assigned provider = %v, want %s", got.AssignedProviderID, winner)
	}
	if got.AcceptedBidID == nil || *got.AcceptedBidID != winning.ID {
		t.Errorf("accepted bid id = %v, want %s", got.AcceptedBidID, winning.ID)
	}

	events := map[uuid.UUID]string{}
	for _, n := range notifier.users {
		events[n.userID] = n.event
	}
	if events[winner] != "bid_accepted" || events[loser] != "bid_rejected" {
		t.Errorf("notifications = %+v", notifier.users)
	}

	// a second accept on the settled job fails
	if _, err := svc.Accept(ctx, losing.ID, requester); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("accept on settled job error = %v, want validation", err)
	}
}

func TestAcceptOnlyOwner(t *testing.T) {
	svc, st, credits, _ := newFixture()
	ctx := context.Background()
	provider := uuid.New()
	job := seedOpenJob(t, st, uuid.New())
	fund(t, credits, st, provider, 1)

	b, err := svc.Create(ctx, provider, validInput(job.ID))
	if err != nil {
		t.Fatalf("bid: %v", err)
	}
	if _, err := svc.Accept(ctx, b.ID, uuid.New()); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("error = %v, want forbidden", err)
	}
}

func TestWithdrawKeepsDebit(t *testing.T) {
	svc, st, credits, _ := newFixture()
	ctx := context.Background()
	provider := uuid.New()
	job := seedOpenJob(t, st, uuid.New())
	fund(t, credits, st, provider, 2)

	b, err := svc.Create(ctx, provider, validInput(job.ID))
	if err != nil {
		t.Fatalf("bid: %v", err)
	}
	withdrawn, err := svc.Withdraw(ctx, b.ID, provider)
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if withdrawn.Status != models.BidStatusWithdrawn {
		t.Errorf("status = %s, want WITHDRAWN", withdrawn.Status)
	}

	// voluntary withdrawal does not refund
	balance, _ := credits.GetBalance(ctx, st, provider)
	if balance != 1 {
		t.Errorf("balance after withdraw = %d, want 1", balance)
	}
	got, _ := st.Jobs().GetByID(ctx, job.ID)
	if got.BidCount != 0 {
		t.Errorf("bid count after withdraw = %d, want 0", got.BidCount)
	}
}

func TestUpdateOnlyPending(t *testing.T) {
	svc, st, credits, _ := newFixture()
	ctx := context.Background()
	requester := uuid.New()
	provider := uuid.New()
	job := seedOpenJob(t, st, requester)
	fund(t, credits, st, provider, 1)

	b, err := svc.Create(ctx, provider, validInput(job.ID))
	if err != nil {
		t.Fatalf("bid: %v", err)
	}

	updated, err := svc.Update(ctx, b.ID, provider, UpdateBidInput{
		Amount:            2000,
		EstimatedDuration: 6,
		Message:           "Revised after a closer look.",
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Amount != 2000 || updated.EstimatedDuration != 6 {
		t.Errorf("updated bid = %+v", updated)
	}

	if _, err := svc.Accept(ctx, b.ID, requester); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	_, err = svc.Update(ctx, b.ID, provider, UpdateBidInput{
		Amount:            2500,
		EstimatedDuration: 8,
		Message:           "Too late for this.",
	})
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("update after accept error = %v, want validation", err)
	}
}

func TestListByJobUnknownJob(t *testing.T) {
	svc, _, _, _ := newFixture()
	if _, err := svc.ListByJob(context.Background(), uuid.New()); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("error = %v, want not found", err)
	}
}
