// Package store is the repository facade in front of the durable Postgres
// store and the ephemeral in-memory fallback. Business logic only ever sees
// these interfaces and cannot tell which backend is active.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/ustaconnect/backend/internal/models"
)

// ErrNotFound is returned by Get* methods when the row does not exist.
// Services wrap it into the apperr taxonomy at their boundary.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when a uniqueness constraint would be violated
// (e.g. a second review for the same job).
var ErrDuplicate = errors.New("duplicate record")

type Store interface {
	Users() UserRepo
	Providers() ProviderRepo
	Jobs() JobRepo
	Bids() BidRepo
	Credits() CreditRepo
	Reviews() ReviewRepo
	Notifications() NotificationRepo

	// Transact runs fn against a transaction-scoped view of the store.
	// On the durable backend this is a real database transaction; the
	// fallback backend only serializes transactions within the process.
	Transact(ctx context.Context, fn func(Store) error) error
}

type UserRepo interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

type ProviderRepo interface {
	Create(ctx context.Context, p *models.ProviderProfile) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.ProviderProfile, error)
	Save(ctx context.Context, p *models.ProviderProfile) error
}

// JobFilter narrows job listings. Zero values mean "any". Soft-deleted jobs
// are always excluded.
type JobFilter struct {
	City        string
	District    string
	Category    string
	Status      models.JobStatus
	RequesterID *uuid.UUID
}

type JobRepo interface {
	Create(ctx context.Context, j *models.JobPost) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.JobPost, error)
	// GetByIDForUpdate locks the row for the rest of the transaction.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.JobPost, error)
	Save(ctx context.Context, j *models.JobPost) error
	List(ctx context.Context, f JobFilter) ([]models.JobPost, error)
	IncrementViewCount(ctx context.Context, id uuid.UUID) error
}

type BidRepo interface {
	Create(ctx context.Context, b *models.Bid) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Bid, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Bid, error)
	Save(ctx context.Context, b *models.Bid) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByJob(ctx context.Context, jobID uuid.UUID) ([]models.Bid, error)
	ListByProvider(ctx context.Context, providerID uuid.UUID) ([]models.Bid, error)
	// FindActive returns the provider's PENDING or ACCEPTED bid on the job,
	// or ErrNotFound.
	FindActive(ctx context.Context, jobID, providerID uuid.UUID) (*models.Bid, error)
}

type CreditRepo interface {
	CreateAccount(ctx context.Context, a *models.CreditAccount) error
	GetAccount(ctx context.Context, providerID uuid.UUID) (*models.CreditAccount, error)
	GetAccountForUpdate(ctx context.Context, providerID uuid.UUID) (*models.CreditAccount, error)
	SaveAccount(ctx context.Context, a *models.CreditAccount) error
	AppendEntry(ctx context.Context, e *models.CreditLedgerEntry) error
	// ListEntries returns the provider's ledger in creation order.
	ListEntries(ctx context.Context, providerID uuid.UUID) ([]models.CreditLedgerEntry, error)
	// HasEntry reports whether an entry with this type and related id already
	// exists for the provider. Used for refund idempotency.
	HasEntry(ctx context.Context, providerID uuid.UUID, txType models.CreditTxType, relatedID uuid.UUID) (bool, error)
}

type ReviewRepo interface {
	Create(ctx context.Context, r *models.Review) error
	GetByJobID(ctx context.Context, jobID uuid.UUID) (*models.Review, error)
	ListByProvider(ctx context.Context, providerID uuid.UUID) ([]models.Review, error)
}

type NotificationRepo interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)
}
