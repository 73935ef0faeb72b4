// Package job implements the job lifecycle from posting through completion
// and review, including bulk credit refunds on requester cancellation.
package job

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ustaconnect/backend/internal/apperr"
	"github.com/ustaconnect/backend/internal/models"
	"github.com/ustaconnect/backend/internal/notify"
	"github.com/ustaconnect/backend/internal/services/credit"
	"github.com/ustaconnect/backend/internal/store"
)

type Service struct {
	store    store.Store
	credits  *credit.Service
	notifier notify.Notifier
}

func NewService(st store.Store, credits *credit.Service, notifier notify.Notifier) *Service {
	return &Service{store: st, credits: credits, notifier: notifier}
}

type CreateJobInput struct {
	Title           string
	Description     string
	Category        string
	Subcategory     string
	Location        models.Location
	UrgencyLevel    models.UrgencyLevel
	EstimatedBudget *int64
}

// Create validates and persists a new OPEN job, then fans the posting out
// to the providers watching the job's area and category.
func (s *Service) Create(ctx context.Context, requesterID uuid.UUID, in CreateJobInput) (*models.JobPost, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, apperr.Validation("title is required")
	}
	if strings.TrimSpace(in.Description) == "" {
		return nil, apperr.Validation("description is required")
	}
	if strings.TrimSpace(in.Category) == "" {
		return nil, apperr.Validation("category is required")
	}
	if strings.TrimSpace(in.Location.Address) == "" ||
		strings.TrimSpace(in.Location.City) == "" ||
		strings.TrimSpace(in.Location.District) == "" {
		return nil, apperr.Validation("location address, city and district are required")
	}
	urgency := in.UrgencyLevel
	switch urgency {
	case "":
		urgency = models.UrgencyMedium
	case models.UrgencyLow, models.UrgencyMedium, models.UrgencyHigh:
	default:
		return nil, apperr.Validation("invalid urgency level")
	}
	if in.EstimatedBudget != nil && *in.EstimatedBudget <= 0 {
		return nil, apperr.Validation("estimated budget must be positive")
	}

	j := &models.JobPost{
		RequesterID:     requesterID,
		Title:           strings.TrimSpace(in.Title),
		Description:     strings.TrimSpace(in.Description),
		Category:        strings.TrimSpace(in.Category),
		Subcategory:     strings.TrimSpace(in.Subcategory),
		Location:        in.Location,
		UrgencyLevel:    urgency,
		EstimatedBudget: in.EstimatedBudget,
		Status:          models.JobStatusOpen,
	}
	if err := s.store.Jobs().Create(ctx, j); err != nil {
		return nil, err
	}

	s.notifier.NotifyArea(ctx, j.Location.City, j.Location.District, j.Category, "job_posted",
		map[string]interface{}{
			"job_id":   j.ID,
			"title":    j.Title,
			"category": j.Category,
			"city":     j.Location.City,
			"district": j.Location.District,
			"urgency":  j.UrgencyLevel,
		})

	return j, nil
}

type UpdateJobInput struct {
	Title           string
	Description     string
	Subcategory     string
	UrgencyLevel    models.UrgencyLevel
	EstimatedBudget *int64
}

// Update edits a job that has not started collecting committed work yet.
func (s *Service) Update(ctx context.Context, jobID, requesterID uuid.UUID, in UpdateJobInput) (*models.JobPost, error) {
	var updated *models.JobPost
	err := s.store.Transact(ctx, func(tx store.Store) error {
		j, err := s.ownedJobForUpdate(ctx, tx, jobID, requesterID)
		if err != nil {
			return err
		}
		if j.Status != models.JobStatusOpen && j.Status != models.JobStatusDraft {
			return apperr.Validation("only draft or open jobs can be updated")
		}
		if strings.TrimSpace(in.Title) != "" {
			j.Title = strings.TrimSpace(in.Title)
		}
		if strings.TrimSpace(in.Description) != "" {
			j.Description = strings.TrimSpace(in.Description)
		}
		if strings.TrimSpace(in.Subcategory) != "" {
			j.Subcategory = strings.TrimSpace(in.Subcategory)
		}
		if in.UrgencyLevel != "" {
			switch in.UrgencyLevel {
			case models.UrgencyLow, models.UrgencyMedium, models.UrgencyHigh:
				j.UrgencyLevel = in.UrgencyLevel
			default:
				return apperr.Validation("invalid urgency level")
			}
		}
		if in.EstimatedBudget != nil {
			if *in.EstimatedBudget <= 0 {
				return apperr.Validation("estimated budget must be positive")
			}
			j.EstimatedBudget = in.EstimatedBudget
		}
		if err := tx.Jobs().Save(ctx, j); err != nil {
			return err
		}
		updated = j
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Cancel cancels a job that has not started. Every provider holding a
// PENDING or ACCEPTED bid gets their credit back (deduped on the bid id, so
// a retried cancellation never refunds twice), then each is notified.
func (s *Service) Cancel(ctx context.Context, jobID, requesterID uuid.UUID, reason string) (*models.JobPost, error) {
	var (
		cancelled         *models.JobPost
		refundedProviders []uuid.UUID
	)
	err := s.store.Transact(ctx, func(tx store.Store) error {
		j, err := s.ownedJobForUpdate(ctx, tx, jobID, requesterID)
		if err != nil {
			return err
		}
		if !models.IsCancellable(j.Status) {
			return apperr.Validation("job can no longer be cancelled")
		}

		bids, err := tx.Bids().ListByJob(ctx, j.ID)
		if err != nil {
			return err
		}
		for i := range bids {
			b := &bids[i]
			if !models.IsActiveBidStatus(b.Status) {
				continue
			}
			refunded, err := s.credits.Refund(ctx, tx, b.ProviderID, b.ID,
				"refund for cancelled job "+j.Title)
			if err != nil {
				return err
			}
			if refunded {
				refundedProviders = append(refundedProviders, b.ProviderID)
			}
		}

		now := time.Now()
		j.Status = models.JobStatusCancelled
		j.CancelledAt = &now
		j.CancellationReason = strings.TrimSpace(reason)
		if err := tx.Jobs().Save(ctx, j); err != nil {
			return err
		}
		cancelled = j
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, pid := range refundedProviders {
		s.notifier.NotifyUser(ctx, pid, "job_cancelled",
			"Job cancelled", "The requester cancelled the job. Your bid credit was refunded.",
			map[string]interface{}{"job_id": cancelled.ID})
	}

	return cancelled, nil
}

// MarkComplete is the assigned provider declaring the work done; the job
// waits for the requester's confirmation.
func (s *Service) MarkComplete(ctx context.Context, jobID, providerID uuid.UUID) (*models.JobPost, error) {
	var (
		marked      *models.JobPost
		requesterID uuid.UUID
	)
	err := s.store.Transact(ctx, func(tx store.Store) error {
		j, err := tx.Jobs().GetByIDForUpdate(ctx, jobID)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("job not found")
		}
		if err != nil {
			return err
		}
		if j.AssignedProviderID == nil || *j.AssignedProviderID != providerID {
			return apperr.Forbidden("only the assigned provider can mark the job complete")
		}
		if j.Status != models.JobStatusInProgress {
			return apperr.Validation("only in-progress jobs can be marked complete")
		}
		j.Status = models.JobStatusPendingConfirmation
		if err := tx.Jobs().Save(ctx, j); err != nil {
			return err
		}
		marked = j
		requesterID = j.RequesterID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyUser(ctx, requesterID, "job_marked_complete",
		"Work marked complete", "The provider marked the job as complete. Please confirm.",
		map[string]interface{}{"job_id": marked.ID})

	return marked, nil
}

// ConfirmComplete is the requester's confirmation; it finalizes the job and
// bumps the provider's completed-job counter.
func (s *Service) ConfirmComplete(ctx context.Context, jobID, requesterID uuid.UUID) (*models.JobPost, error) {
	var (
		confirmed  *models.JobPost
		providerID uuid.UUID
	)
	err := s.store.Transact(ctx, func(tx store.Store) error {
		j, err := s.ownedJobForUpdate(ctx, tx, jobID, requesterID)
		if err != nil {
			return err
		}
		if j.Status != models.JobStatusInProgress && j.Status != models.JobStatusPendingConfirmation {
			return apperr.Validation("job is not awaiting completion confirmation")
		}
		now := time.Now()
		j.Status = models.JobStatusCompleted
		j.CompletedAt = &now
		if err := tx.Jobs().Save(ctx, j); err != nil {
			return err
		}

		if j.AssignedProviderID != nil {
			providerID = *j.AssignedProviderID
			profile, err := tx.Providers().GetByUserID(ctx, providerID)
			if err == nil {
				profile.CompletedJobs++
				if err := tx.Providers().Save(ctx, profile); err != nil {
					return err
				}
			} else if !errors.Is(err, store.ErrNotFound) {
				return err
			}
		}

		confirmed = j
		return nil
	})
	if err != nil {
		return nil, err
	}

	if providerID != uuid.Nil {
		s.notifier.NotifyUser(ctx, providerID, "job_completed",
			"Job completed", "The requester confirmed the job is complete.",
			map[string]interface{}{"job_id": confirmed.ID})
	}

	return confirmed, nil
}

// Delete soft-deletes the owner's job; it disappears from all listings.
func (s *Service) Delete(ctx context.Context, jobID, requesterID uuid.UUID) error {
	return s.store.Transact(ctx, func(tx store.Store) error {
		j, err := s.ownedJobForUpdate(ctx, tx, jobID, requesterID)
		if err != nil {
			return err
		}
		now := time.Now()
		j.Status = models.JobStatusCancelled
		j.DeletedAt = &now
		return tx.Jobs().Save(ctx, j)
	})
}

type CreateReviewInput struct {
	Rating  int
	Comment string
}

// CreateReview records the requester's single review of a completed job and
// recomputes the provider's running average rating.
func (s *Service) CreateReview(ctx context.Context, jobID, requesterID uuid.UUID, in CreateReviewInput) (*models.Review, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, apperr.Validation("rating must be between 1 and 5")
	}

	var (
		review     *models.Review
		providerID uuid.UUID
	)
	err := s.store.Transact(ctx, func(tx store.Store) error {
		j, err := s.ownedJobForUpdate(ctx, tx, jobID, requesterID)
		if err != nil {
			return err
		}
		if j.Status != models.JobStatusCompleted {
			return apperr.Validation("only completed jobs can be reviewed")
		}
		if j.AssignedProviderID == nil {
			return apperr.Validation("job has no assigned provider")
		}

		if _, err := tx.Reviews().GetByJobID(ctx, j.ID); err == nil {
			return apperr.Conflict("job already has a review")
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		rv := &models.Review{
			JobID:       j.ID,
			RequesterID: requesterID,
			ProviderID:  *j.AssignedProviderID,
			Rating:      in.Rating,
			Comment:     strings.TrimSpace(in.Comment),
		}
		if err := tx.Reviews().Create(ctx, rv); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return apperr.Conflict("job already has a review")
			}
			return err
		}

		profile, err := tx.Providers().GetByUserID(ctx, rv.ProviderID)
		if err == nil {
			total := profile.AverageRating*float64(profile.ReviewCount) + float64(in.Rating)
			profile.ReviewCount++
			profile.AverageRating = total / float64(profile.ReviewCount)
			if err := tx.Providers().Save(ctx, profile); err != nil {
				return err
			}
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		review = rv
		providerID = rv.ProviderID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyUser(ctx, providerID, "review_received",
		"New review", "The requester left a review on your completed job.",
		map[string]interface{}{"job_id": review.JobID, "rating": review.Rating})

	return review, nil
}

// Get returns one job and counts the view.
func (s *Service) Get(ctx context.Context, jobID uuid.UUID) (*models.JobPost, error) {
	j, err := s.store.Jobs().GetByID(ctx, jobID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("job not found")
	}
	if err != nil {
		return nil, err
	}
	if err := s.store.Jobs().IncrementViewCount(ctx, jobID); err == nil {
		j.ViewCount++
	}
	return j, nil
}

// List returns jobs matching the filter, newest first.
func (s *Service) List(ctx context.Context, f store.JobFilter) ([]models.JobPost, error) {
	return s.store.Jobs().List(ctx, f)
}

// AutoConfirmStale confirms jobs that sat in PENDING_CONFIRMATION longer
// than maxAge on the requester's behalf. Called by the scheduler; returns
// how many jobs were confirmed.
func (s *Service) AutoConfirmStale(ctx context.Context, maxAge time.Duration) (int, error) {
	stale, err := s.store.Jobs().List(ctx, store.JobFilter{Status: models.JobStatusPendingConfirmation})
	if err != nil {
		return 0, err
	}
	cutoff := time.Now().Add(-maxAge)
	confirmed := 0
	for i := range stale {
		j := &stale[i]
		if j.UpdatedAt.After(cutoff) {
			continue
		}
		if _, err := s.ConfirmComplete(ctx, j.ID, j.RequesterID); err != nil {
			// another request may have moved the job already
			continue
		}
		confirmed++
	}
	return confirmed, nil
}

func (s *Service) ownedJobForUpdate(ctx context.Context, tx store.Store, jobID, requesterID uuid.UUID) (*models.JobPost, error) {
	j, err := tx.Jobs().GetByIDForUpdate(ctx, jobID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("job not found")
	}
	if err != nil {
		return nil, err
	}
	if j.RequesterID != requesterID {
		return nil, apperr.Forbidden("only the job owner can do this")
	}
	return j, nil
}
