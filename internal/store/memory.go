package store

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ustaconnect/backend/internal/models"
)

// MemoryStore is the ephemeral fallback used when Postgres is unreachable:
// keyed in-memory maps with a best-effort JSON snapshot on disk. It is
// single-process only and Transact merely serializes transactions — there is
// no rollback. That weaker isolation is an accepted limitation of the
// fallback, not of the business logic built on top.
type MemoryStore struct {
	mu           sync.Mutex
	txMu         sync.Mutex
	data         *memData
	snapshotPath string
}

type memData struct {
	Users         map[uuid.UUID]*models.User              `json:"users"`
	Providers     map[uuid.UUID]*models.ProviderProfile   `json:"providers"` // keyed by user id
	Jobs          map[uuid.UUID]*models.JobPost           `json:"jobs"`
	Bids          map[uuid.UUID]*models.Bid               `json:"bids"`
	Accounts      map[uuid.UUID]*models.CreditAccount     `json:"accounts"` // keyed by provider id
	Ledger        []*models.CreditLedgerEntry             `json:"ledger"`   // append-only, creation order
	Reviews       map[uuid.UUID]*models.Review            `json:"reviews"`  // keyed by job id
	Notifications map[uuid.UUID]*models.Notification      `json:"notifications"`
}

func newMemData() *memData {
	return &memData{
		Users:         make(map[uuid.UUID]*models.User),
		Providers:     make(map[uuid.UUID]*models.ProviderProfile),
		Jobs:          make(map[uuid.UUID]*models.JobPost),
		Bids:          make(map[uuid.UUID]*models.Bid),
		Accounts:      make(map[uuid.UUID]*models.CreditAccount),
		Reviews:       make(map[uuid.UUID]*models.Review),
		Notifications: make(map[uuid.UUID]*models.Notification),
	}
}

// NewMemoryStore creates the fallback store. snapshotPath may be empty to
// disable disk snapshotting (tests). An existing snapshot is loaded.
func NewMemoryStore(snapshotPath string) *MemoryStore {
	s := &MemoryStore{data: newMemData(), snapshotPath: snapshotPath}
	if snapshotPath != "" {
		if raw, err := os.ReadFile(snapshotPath); err == nil {
			if err := json.Unmarshal(raw, s.data); err != nil {
				log.Printf("memory store: snapshot %s unreadable, starting empty: %v", snapshotPath, err)
				s.data = newMemData()
			}
		}
	}
	return s
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) Users() UserRepo                 { return memUsers{s} }
func (s *MemoryStore) Providers() ProviderRepo         { return memProviders{s} }
func (s *MemoryStore) Jobs() JobRepo                   { return memJobs{s} }
func (s *MemoryStore) Bids() BidRepo                   { return memBids{s} }
func (s *MemoryStore) Credits() CreditRepo             { return memCredits{s} }
func (s *MemoryStore) Reviews() ReviewRepo             { return memReviews{s} }
func (s *MemoryStore) Notifications() NotificationRepo { return memNotifications{s} }

func (s *MemoryStore) Transact(_ context.Context, fn func(Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	err := fn(s)
	if err == nil {
		s.snapshot()
	}
	return err
}

// snapshot writes the current state to disk, best-effort.
func (s *MemoryStore) snapshot() {
	if s.snapshotPath == "" {
		return
	}
	s.mu.Lock()
	raw, err := json.Marshal(s.data)
	s.mu.Unlock()
	if err != nil {
		log.Printf("memory store: snapshot marshal failed: %v", err)
		return
	}
	if err := os.WriteFile(s.snapshotPath, raw, 0644); err != nil {
		log.Printf("memory store: snapshot write failed: %v", err)
	}
}

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// --- users

type memUsers struct{ s *MemoryStore }

func (r memUsers) Create(_ context.Context, u *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ensureID(&u.ID)
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	r.s.data.Users[u.ID] = &cp
	return nil
}

func (r memUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.data.Users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.data.Users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

// --- providers

type memProviders struct{ s *MemoryStore }

func (r memProviders) Create(_ context.Context, p *models.ProviderProfile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ensureID(&p.ID)
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	r.s.data.Providers[p.UserID] = &cp
	return nil
}

func (r memProviders) GetByUserID(_ context.Context, userID uuid.UUID) (*models.ProviderProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.data.Providers[userID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r memProviders) Save(_ context.Context, p *models.ProviderProfile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p.UpdatedAt = time.Now()
	cp := *p
	r.s.data.Providers[p.UserID] = &cp
	return nil
}

// --- jobs

type memJobs struct{ s *MemoryStore }

func (r memJobs) Create(_ context.Context, j *models.JobPost) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ensureID(&j.ID)
	j.CreatedAt = time.Now()
	j.UpdatedAt = j.CreatedAt
	cp := *j
	r.s.data.Jobs[j.ID] = &cp
	return nil
}

func (r memJobs) get(id uuid.UUID) (*models.JobPost, error) {
	j, ok := r.s.data.Jobs[id]
	if !ok || j.DeletedAt != nil {
		return nil, ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (r memJobs) GetByID(_ context.Context, id uuid.UUID) (*models.JobPost, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.get(id)
}

// Row locks do not exist here; Transact's serialization is all the isolation
// the fallback provides.
func (r memJobs) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.JobPost, error) {
	return r.GetByID(ctx, id)
}

func (r memJobs) Save(_ context.Context, j *models.JobPost) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	j.UpdatedAt = time.Now()
	cp := *j
	r.s.data.Jobs[j.ID] = &cp
	return nil
}

func (r memJobs) List(_ context.Context, f JobFilter) ([]models.JobPost, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.JobPost
	for _, j := range r.s.data.Jobs {
		if j.DeletedAt != nil {
			continue
		}
		if f.City != "" && j.Location.City != f.City {
			continue
		}
		if f.District != "" && j.Location.District != f.District {
			continue
		}
		if f.Category != "" && j.Category != f.Category {
			continue
		}
		if f.Status != "" && j.Status != f.Status {
			continue
		}
		if f.RequesterID != nil && j.RequesterID != *f.RequesterID {
			continue
		}
		out = append(out, *j)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt.After(out[k].CreatedAt) })
	return out, nil
}

func (r memJobs) IncrementViewCount(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	j, ok := r.s.data.Jobs[id]
	if !ok {
		return ErrNotFound
	}
	j.ViewCount++
	return nil
}

// --- bids

type memBids struct{ s *MemoryStore }

func (r memBids) Create(_ context.Context, b *models.Bid) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ensureID(&b.ID)
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	cp := *b
	r.s.data.Bids[b.ID] = &cp
	return nil
}

func (r memBids) GetByID(_ context.Context, id uuid.UUID) (*models.Bid, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.data.Bids[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (r memBids) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Bid, error) {
	return r.GetByID(ctx, id)
}

func (r memBids) Save(_ context.Context, b *models.Bid) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b.UpdatedAt = time.Now()
	cp := *b
	r.s.data.Bids[b.ID] = &cp
	return nil
}

func (r memBids) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.data.Bids, id)
	return nil
}

func (r memBids) ListByJob(_ context.Context, jobID uuid.UUID) ([]models.Bid, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Bid
	for _, b := range r.s.data.Bids {
		if b.JobID == jobID {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt.Before(out[k].CreatedAt) })
	return out, nil
}

func (r memBids) ListByProvider(_ context.Context, providerID uuid.UUID) ([]models.Bid, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Bid
	for _, b := range r.s.data.Bids {
		if b.ProviderID == providerID {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt.After(out[k].CreatedAt) })
	return out, nil
}

func (r memBids) FindActive(_ context.Context, jobID, providerID uuid.UUID) (*models.Bid, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, b := range r.s.data.Bids {
		if b.JobID == jobID && b.ProviderID == providerID && models.IsActiveBidStatus(b.Status) {
			cp := *b
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

// --- credits

type memCredits struct{ s *MemoryStore }

func (r memCredits) CreateAccount(_ context.Context, a *models.CreditAccount) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ensureID(&a.ID)
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	cp := *a
	r.s.data.Accounts[a.ProviderID] = &cp
	return nil
}

func (r memCredits) GetAccount(_ context.Context, providerID uuid.UUID) (*models.CreditAccount, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.data.Accounts[providerID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r memCredits) GetAccountForUpdate(ctx context.Context, providerID uuid.UUID) (*models.CreditAccount, error) {
	return r.GetAccount(ctx, providerID)
}

func (r memCredits) SaveAccount(_ context.Context, a *models.CreditAccount) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a.UpdatedAt = time.Now()
	cp := *a
	r.s.data.Accounts[a.ProviderID] = &cp
	return nil
}

func (r memCredits) AppendEntry(_ context.Context, e *models.CreditLedgerEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ensureID(&e.ID)
	e.CreatedAt = time.Now()
	cp := *e
	r.s.data.Ledger = append(r.s.data.Ledger, &cp)
	return nil
}

func (r memCredits) ListEntries(_ context.Context, providerID uuid.UUID) ([]models.CreditLedgerEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.CreditLedgerEntry
	for _, e := range r.s.data.Ledger {
		if e.ProviderID == providerID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r memCredits) HasEntry(_ context.Context, providerID uuid.UUID, txType models.CreditTxType, relatedID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.data.Ledger {
		if e.ProviderID == providerID && e.TransactionType == txType &&
			e.RelatedID != nil && *e.RelatedID == relatedID {
			return true, nil
		}
	}
	return false, nil
}

// --- reviews

type memReviews struct{ s *MemoryStore }

func (r memReviews) Create(_ context.Context, rv *models.Review) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.data.Reviews[rv.JobID]; exists {
		// mirrors the unique index on job_id
		return ErrDuplicate
	}
	ensureID(&rv.ID)
	rv.CreatedAt = time.Now()
	rv.UpdatedAt = rv.CreatedAt
	cp := *rv
	r.s.data.Reviews[rv.JobID] = &cp
	return nil
}

func (r memReviews) GetByJobID(_ context.Context, jobID uuid.UUID) (*models.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rv, ok := r.s.data.Reviews[jobID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rv
	return &cp, nil
}

func (r memReviews) ListByProvider(_ context.Context, providerID uuid.UUID) ([]models.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Review
	for _, rv := range r.s.data.Reviews {
		if rv.ProviderID == providerID {
			out = append(out, *rv)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt.After(out[k].CreatedAt) })
	return out, nil
}

// --- notifications

type memNotifications struct{ s *MemoryStore }

func (r memNotifications) Create(_ context.Context, n *models.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ensureID(&n.ID)
	n.CreatedAt = time.Now()
	cp := *n
	r.s.data.Notifications[n.ID] = &cp
	return nil
}

func (r memNotifications) ListByUser(_ context.Context, userID uuid.UUID, limit int) ([]models.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Notification
	for _, n := range r.s.data.Notifications {
		if n.UserID == userID {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt.After(out[k].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memNotifications) MarkRead(_ context.Context, id, userID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.data.Notifications[id]
	if !ok || n.UserID != userID {
		return ErrNotFound
	}
	now := time.Now()
	n.IsRead = true
	n.ReadAt = &now
	return nil
}

func (r memNotifications) CountUnread(_ context.Context, userID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var count int64
	for _, n := range r.s.data.Notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}
