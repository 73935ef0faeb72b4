package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ustaconnect/backend/internal/models"
)

// GormStore is the durable-store implementation backed by Postgres.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

var _ Store = (*GormStore)(nil)

func (s *GormStore) Users() UserRepo                 { return gormUsers{s.db} }
func (s *GormStore) Providers() ProviderRepo         { return gormProviders{s.db} }
func (s *GormStore) Jobs() JobRepo                   { return gormJobs{s.db} }
func (s *GormStore) Bids() BidRepo                   { return gormBids{s.db} }
func (s *GormStore) Credits() CreditRepo             { return gormCredits{s.db} }
func (s *GormStore) Reviews() ReviewRepo             { return gormReviews{s.db} }
func (s *GormStore) Notifications() NotificationRepo { return gormNotifications{s.db} }

func (s *GormStore) Transact(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

func wrapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// --- users

type gormUsers struct{ db *gorm.DB }

func (r gormUsers) Create(ctx context.Context, u *models.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r gormUsers) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &u, nil
}

func (r gormUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).First(&u, "email = ?", email).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &u, nil
}

// --- providers

type gormProviders struct{ db *gorm.DB }

func (r gormProviders) Create(ctx context.Context, p *models.ProviderProfile) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r gormProviders) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.ProviderProfile, error) {
	var p models.ProviderProfile
	if err := r.db.WithContext(ctx).First(&p, "user_id = ?", userID).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &p, nil
}

func (r gormProviders) Save(ctx context.Context, p *models.ProviderProfile) error {
	return r.db.WithContext(ctx).Save(p).Error
}

// --- jobs

type gormJobs struct{ db *gorm.DB }

func (r gormJobs) Create(ctx context.Context, j *models.JobPost) error {
	return r.db.WithContext(ctx).Create(j).Error
}

func (r gormJobs) get(ctx context.Context, id uuid.UUID, lock bool) (*models.JobPost, error) {
	var j models.JobPost
	q := r.db.WithContext(ctx)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.First(&j, "id = ? AND deleted_at IS NULL", id).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &j, nil
}

func (r gormJobs) GetByID(ctx context.Context, id uuid.UUID) (*models.JobPost, error) {
	return r.get(ctx, id, false)
}

func (r gormJobs) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.JobPost, error) {
	return r.get(ctx, id, true)
}

func (r gormJobs) Save(ctx context.Context, j *models.JobPost) error {
	return r.db.WithContext(ctx).Save(j).Error
}

func (r gormJobs) List(ctx context.Context, f JobFilter) ([]models.JobPost, error) {
	q := r.db.WithContext(ctx).Where("deleted_at IS NULL")
	if f.City != "" {
		q = q.Where("loc_city = ?", f.City)
	}
	if f.District != "" {
		q = q.Where("loc_district = ?", f.District)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.RequesterID != nil {
		q = q.Where("requester_id = ?", *f.RequesterID)
	}
	var jobs []models.JobPost
	if err := q.Order("created_at DESC").Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r gormJobs) IncrementViewCount(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&models.JobPost{}).
		Where("id = ?", id).
		Update("view_count", gorm.Expr("view_count + 1")).Error
}

// --- bids

type gormBids struct{ db *gorm.DB }

func (r gormBids) Create(ctx context.Context, b *models.Bid) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r gormBids) get(ctx context.Context, id uuid.UUID, lock bool) (*models.Bid, error) {
	var b models.Bid
	q := r.db.WithContext(ctx)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.First(&b, "id = ?", id).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &b, nil
}

func (r gormBids) GetByID(ctx context.Context, id uuid.UUID) (*models.Bid, error) {
	return r.get(ctx, id, false)
}

func (r gormBids) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Bid, error) {
	return r.get(ctx, id, true)
}

func (r gormBids) Save(ctx context.Context, b *models.Bid) error {
	return r.db.WithContext(ctx).Save(b).Error
}

func (r gormBids) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Bid{}, "id = ?", id).Error
}

func (r gormBids) ListByJob(ctx context.Context, jobID uuid.UUID) ([]models.Bid, error) {
	var bids []models.Bid
	err := r.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("created_at ASC").
		Find(&bids).Error
	return bids, err
}

func (r gormBids) ListByProvider(ctx context.Context, providerID uuid.UUID) ([]models.Bid, error) {
	var bids []models.Bid
	err := r.db.WithContext(ctx).
		Where("provider_id = ?", providerID).
		Order("created_at DESC").
		Find(&bids).Error
	return bids, err
}

func (r gormBids) FindActive(ctx context.Context, jobID, providerID uuid.UUID) (*models.Bid, error) {
	var b models.Bid
	err := r.db.WithContext(ctx).
		Where("job_id = ? AND provider_id = ? AND status IN ?",
			jobID, providerID, []models.BidStatus{models.BidStatusPending, models.BidStatusAccepted}).
		First(&b).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &b, nil
}

// --- credits

type gormCredits struct{ db *gorm.DB }

func (r gormCredits) CreateAccount(ctx context.Context, a *models.CreditAccount) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r gormCredits) getAccount(ctx context.Context, providerID uuid.UUID, lock bool) (*models.CreditAccount, error) {
	var a models.CreditAccount
	q := r.db.WithContext(ctx)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.First(&a, "provider_id = ?", providerID).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &a, nil
}

func (r gormCredits) GetAccount(ctx context.Context, providerID uuid.UUID) (*models.CreditAccount, error) {
	return r.getAccount(ctx, providerID, false)
}

func (r gormCredits) GetAccountForUpdate(ctx context.Context, providerID uuid.UUID) (*models.CreditAccount, error) {
	return r.getAccount(ctx, providerID, true)
}

func (r gormCredits) SaveAccount(ctx context.Context, a *models.CreditAccount) error {
	return r.db.WithContext(ctx).Save(a).Error
}

func (r gormCredits) AppendEntry(ctx context.Context, e *models.CreditLedgerEntry) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r gormCredits) ListEntries(ctx context.Context, providerID uuid.UUID) ([]models.CreditLedgerEntry, error) {
	var entries []models.CreditLedgerEntry
	err := r.db.WithContext(ctx).
		Where("provider_id = ?", providerID).
		Order("created_at ASC").
		Find(&entries).Error
	return entries, err
}

func (r gormCredits) HasEntry(ctx context.Context, providerID uuid.UUID, txType models.CreditTxType, relatedID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.CreditLedgerEntry{}).
		Where("provider_id = ? AND transaction_type = ? AND related_id = ?", providerID, txType, relatedID).
		Count(&count).Error
	return count > 0, err
}

// --- reviews

type gormReviews struct{ db *gorm.DB }

func (r gormReviews) Create(ctx context.Context, rv *models.Review) error {
	return r.db.WithContext(ctx).Create(rv).Error
}

func (r gormReviews) GetByJobID(ctx context.Context, jobID uuid.UUID) (*models.Review, error) {
	var rv models.Review
	if err := r.db.WithContext(ctx).First(&rv, "job_id = ?", jobID).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &rv, nil
}

func (r gormReviews) ListByProvider(ctx context.Context, providerID uuid.UUID) ([]models.Review, error) {
	var reviews []models.Review
	err := r.db.WithContext(ctx).
		Where("provider_id = ?", providerID).
		Order("created_at DESC").
		Find(&reviews).Error
	return reviews, err
}

// --- notifications

type gormNotifications struct{ db *gorm.DB }

func (r gormNotifications) Create(ctx context.Context, n *models.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r gormNotifications) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error) {
	var out []models.Notification
	q := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

func (r gormNotifications) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	now := time.Now()
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]interface{}{"is_read": true, "read_at": &now})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r gormNotifications) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = false", userID).
		Count(&count).Error
	return count, err
}
