// Package bid implements the bid lifecycle: PENDING → ACCEPTED | REJECTED |
// WITHDRAWN, gated by the credit ledger.
package bid

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ustaconnect/backend/internal/apperr"
	"github.com/ustaconnect/backend/internal/models"
	"github.com/ustaconnect/backend/internal/notify"
	"github.com/ustaconnect/backend/internal/services/credit"
	"github.com/ustaconnect/backend/internal/store"
)

// phonePattern catches phone-number-looking digit runs (with optional +,
// spaces, dashes, dots, parens) so parties cannot swap contact details
// before a bid is accepted.
var phonePattern = regexp.MustCompile(`\+?\d[\d\s\-.()]{7,14}\d`)

type Service struct {
	store    store.Store
	credits  *credit.Service
	notifier notify.Notifier
}

func NewService(st store.Store, credits *credit.Service, notifier notify.Notifier) *Service {
	return &Service{store: st, credits: credits, notifier: notifier}
}

type CreateBidInput struct {
	JobID             uuid.UUID
	Amount            int64
	EstimatedDuration int
	EstimatedStartAt  *time.Time
	Message           string
}

func validateBidTerms(amount int64, duration int, message string) error {
	if amount <= 0 {
		return apperr.Validation("amount must be positive")
	}
	if duration <= 0 {
		return apperr.Validation("estimated duration must be positive")
	}
	if strings.TrimSpace(message) == "" {
		return apperr.Validation("message is required")
	}
	if phonePattern.MatchString(message) {
		return apperr.Validation("message must not contain a phone number")
	}
	return nil
}

// Create places a bid: validates terms and job state, checks the credit
// balance, then applies bid insert + job counters + credit debit as one
// transaction. The requester is notified after commit.
func (s *Service) Create(ctx context.Context, providerID uuid.UUID, in CreateBidInput) (*models.Bid, error) {
	if err := validateBidTerms(in.Amount, in.EstimatedDuration, in.Message); err != nil {
		return nil, err
	}

	var (
		created     *models.Bid
		requesterID uuid.UUID
	)
	err := s.store.Transact(ctx, func(tx store.Store) error {
		job, err := tx.Jobs().GetByIDForUpdate(ctx, in.JobID)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("job not found")
		}
		if err != nil {
			return err
		}
		if job.Status != models.JobStatusOpen && job.Status != models.JobStatusBidding {
			return apperr.Validation("job is not accepting bids")
		}
		if job.RequesterID == providerID {
			return apperr.Forbidden("cannot bid on your own job")
		}

		if _, err := tx.Bids().FindActive(ctx, job.ID, providerID); err == nil {
			return apperr.Validation("you already have an active bid on this job")
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		// Balance check up front: the fallback store cannot roll back, so
		// nothing is written before the only fallible business condition.
		balance, err := s.credits.GetBalance(ctx, tx, providerID)
		if err != nil {
			return err
		}
		if balance < credit.BidCost {
			return apperr.Validation("insufficient credit")
		}

		b := &models.Bid{
			JobID:             job.ID,
			ProviderID:        providerID,
			Amount:            in.Amount,
			EstimatedDuration: in.EstimatedDuration,
			EstimatedStartAt:  in.EstimatedStartAt,
			Message:           strings.TrimSpace(in.Message),
			Status:            models.BidStatusPending,
		}
		if err := tx.Bids().Create(ctx, b); err != nil {
			return err
		}

		job.BidCount++
		if job.Status == models.JobStatusOpen {
			job.Status = models.JobStatusBidding
		}
		if err := tx.Jobs().Save(ctx, job); err != nil {
			return err
		}

		if _, err := s.credits.ApplyDelta(ctx, tx, providerID, -credit.BidCost,
			models.CreditTxBidSpent, &b.ID, "bid placed on job "+job.Title); err != nil {
			return err
		}

		created = b
		requesterID = job.RequesterID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyUser(ctx, requesterID, "bid_received",
		"New bid on your job", "A provider placed a bid on your job.",
		map[string]interface{}{"job_id": created.JobID, "bid_id": created.ID, "amount": created.Amount})

	return created, nil
}

// Accept accepts one bid and, in the same transaction, rejects every other
// pending bid on the job and moves the job to IN_PROGRESS with the winning
// provider assigned. A concurrent Accept on the same job observes either a
// still-pending bid or a fully applied prior acceptance, never a partially
// rejected sibling set.
func (s *Service) Accept(ctx context.Context, bidID, requesterID uuid.UUID) (*models.Bid, error) {
	var (
		accepted          *models.Bid
		rejectedProviders []uuid.UUID
		jobID             uuid.UUID
	)
	err := s.store.Transact(ctx, func(tx store.Store) error {
		b, err := tx.Bids().GetByIDForUpdate(ctx, bidID)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("bid not found")
		}
		if err != nil {
			return err
		}
		job, err := tx.Jobs().GetByIDForUpdate(ctx, b.JobID)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("job not found")
		}
		if err != nil {
			return err
		}
		if job.RequesterID != requesterID {
			return apperr.Forbidden("only the job owner can accept bids")
		}
		if b.Status != models.BidStatusPending {
			return apperr.Validation("bid is no longer pending")
		}
		if job.Status != models.JobStatusOpen && job.Status != models.JobStatusBidding {
			return apperr.Validation("job is not accepting bids")
		}

		now := time.Now()

		siblings, err := tx.Bids().ListByJob(ctx, job.ID)
		if err != nil {
			return err
		}
		for i := range siblings {
			sib := &siblings[i]
			if sib.ID == b.ID || sib.Status != models.BidStatusPending {
				continue
			}
			sib.Status = models.BidStatusRejected
			sib.RejectedAt = &now
			if err := tx.Bids().Save(ctx, sib); err != nil {
				return err
			}
			rejectedProviders = append(rejectedProviders, sib.ProviderID)
		}

		b.Status = models.BidStatusAccepted
		b.AcceptedAt = &now
		if err := tx.Bids().Save(ctx, b); err != nil {
			return err
		}

		job.Status = models.JobStatusInProgress
		job.AssignedProviderID = &b.ProviderID
		job.AcceptedBidID = &b.ID
		if err := tx.Jobs().Save(ctx, job); err != nil {
			return err
		}

		accepted = b
		jobID = job.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyUser(ctx, accepted.ProviderID, "bid_accepted",
		"Your bid was accepted", "The requester accepted your bid. The job is now in progress.",
		map[string]interface{}{"job_id": jobID, "bid_id": accepted.ID})
	for _, pid := range rejectedProviders {
		s.notifier.NotifyUser(ctx, pid, "bid_rejected",
			"Your bid was not selected", "The requester chose another bid for this job.",
			map[string]interface{}{"job_id": jobID})
	}

	return accepted, nil
}

// Reject rejects a single pending bid without touching its siblings.
func (s *Service) Reject(ctx context.Context, bidID, requesterID uuid.UUID) (*models.Bid, error) {
	var rejected *models.Bid
	err := s.store.Transact(ctx, func(tx store.Store) error {
		b, job, err := s.loadBidAndJob(ctx, tx, bidID)
		if err != nil {
			return err
		}
		if job.RequesterID != requesterID {
			return apperr.Forbidden("only the job owner can reject bids")
		}
		if b.Status != models.BidStatusPending {
			return apperr.Validation("bid is no longer pending")
		}
		now := time.Now()
		b.Status = models.BidStatusRejected
		b.RejectedAt = &now
		if err := tx.Bids().Save(ctx, b); err != nil {
			return err
		}
		rejected = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyUser(ctx, rejected.ProviderID, "bid_rejected",
		"Your bid was rejected", "The requester rejected your bid.",
		map[string]interface{}{"job_id": rejected.JobID, "bid_id": rejected.ID})

	return rejected, nil
}

// Withdraw lets a provider pull their own pending bid. The spent credit is
// intentionally not refunded: only requester-initiated cancellation refunds.
func (s *Service) Withdraw(ctx context.Context, bidID, providerID uuid.UUID) (*models.Bid, error) {
	var withdrawn *models.Bid
	err := s.store.Transact(ctx, func(tx store.Store) error {
		b, job, err := s.loadBidAndJob(ctx, tx, bidID)
		if err != nil {
			return err
		}
		if b.ProviderID != providerID {
			return apperr.Forbidden("only the bid owner can withdraw it")
		}
		if b.Status != models.BidStatusPending {
			return apperr.Validation("only pending bids can be withdrawn")
		}
		b.Status = models.BidStatusWithdrawn
		if err := tx.Bids().Save(ctx, b); err != nil {
			return err
		}
		if job.BidCount > 0 {
			job.BidCount--
		}
		if err := tx.Jobs().Save(ctx, job); err != nil {
			return err
		}
		withdrawn = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return withdrawn, nil
}

// Delete hard-deletes the owner's pending bid.
func (s *Service) Delete(ctx context.Context, bidID, providerID uuid.UUID) error {
	return s.store.Transact(ctx, func(tx store.Store) error {
		b, job, err := s.loadBidAndJob(ctx, tx, bidID)
		if err != nil {
			return err
		}
		if b.ProviderID != providerID {
			return apperr.Forbidden("only the bid owner can delete it")
		}
		if b.Status != models.BidStatusPending {
			return apperr.Validation("only pending bids can be deleted")
		}
		if err := tx.Bids().Delete(ctx, b.ID); err != nil {
			return err
		}
		if job.BidCount > 0 {
			job.BidCount--
		}
		return tx.Jobs().Save(ctx, job)
	})
}

type UpdateBidInput struct {
	Amount            int64
	EstimatedDuration int
	EstimatedStartAt  *time.Time
	Message           string
}

// Update revises the terms of the owner's still-pending bid.
func (s *Service) Update(ctx context.Context, bidID, providerID uuid.UUID, in UpdateBidInput) (*models.Bid, error) {
	if err := validateBidTerms(in.Amount, in.EstimatedDuration, in.Message); err != nil {
		return nil, err
	}
	var updated *models.Bid
	err := s.store.Transact(ctx, func(tx store.Store) error {
		b, err := tx.Bids().GetByIDForUpdate(ctx, bidID)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("bid not found")
		}
		if err != nil {
			return err
		}
		if b.ProviderID != providerID {
			return apperr.Forbidden("only the bid owner can update it")
		}
		if b.Status != models.BidStatusPending {
			return apperr.Validation("only pending bids can be updated")
		}
		b.Amount = in.Amount
		b.EstimatedDuration = in.EstimatedDuration
		b.EstimatedStartAt = in.EstimatedStartAt
		b.Message = strings.TrimSpace(in.Message)
		if err := tx.Bids().Save(ctx, b); err != nil {
			return err
		}
		updated = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ListByJob returns all bids on a job, oldest first.
func (s *Service) ListByJob(ctx context.Context, jobID uuid.UUID) ([]models.Bid, error) {
	if _, err := s.store.Jobs().GetByID(ctx, jobID); errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("job not found")
	} else if err != nil {
		return nil, err
	}
	return s.store.Bids().ListByJob(ctx, jobID)
}

// ListMine returns the provider's bids, newest first.
func (s *Service) ListMine(ctx context.Context, providerID uuid.UUID) ([]models.Bid, error) {
	return s.store.Bids().ListByProvider(ctx, providerID)
}

func (s *Service) loadBidAndJob(ctx context.Context, tx store.Store, bidID uuid.UUID) (*models.Bid, *models.JobPost, error) {
	b, err := tx.Bids().GetByIDForUpdate(ctx, bidID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, apperr.NotFound("bid not found")
	}
	if err != nil {
		return nil, nil, err
	}
	job, err := tx.Jobs().GetByIDForUpdate(ctx, b.JobID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, apperr.NotFound("job not found")
	}
	if err != nil {
		return nil, nil, err
	}
	return b, job, nil
}
