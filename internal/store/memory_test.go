package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/ustaconnect/backend/internal/models"
)

func TestMemoryStoreSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "snapshot.json")

	st := NewMemoryStore(path)
	requester := uuid.New()
	var jobID uuid.UUID
	err := st.Transact(ctx, func(tx Store) error {
		j := &models.JobPost{
			RequesterID: requester,
			Title:       "Mount shelves",
			Description: "Three shelves in the study",
			Category:    "carpentry",
			Location:    models.Location{Address: "Pine St 3", City: "Izmir", District: "Konak"},
			Status:      models.JobStatusOpen,
		}
		if err := tx.Jobs().Create(ctx, j); err != nil {
			return err
		}
		jobID = j.ID
		return tx.Credits().AppendEntry(ctx, &models.CreditLedgerEntry{
			ProviderID:      uuid.New(),
			Amount:          5,
			TransactionType: models.CreditTxPurchase,
			BalanceAfter:    5,
		})
	})
	if err != nil {
		t.Fatalf("Transact: %v", err)
	}

	// a fresh store on the same path sees the committed state
	reopened := NewMemoryStore(path)
	j, err := reopened.Jobs().GetByID(ctx, jobID)
	if err != nil {
		t.Fatalf("job lost across restart: %v", err)
	}
	if j.Title != "Mount shelves" || j.Location.City != "Izmir" {
		t.Errorf("reloaded job = %+v", j)
	}
}

func TestMemoryStoreDuplicateReview(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore("")
	jobID := uuid.New()

	first := &models.Review{JobID: jobID, RequesterID: uuid.New(), ProviderID: uuid.New(), Rating: 5}
	if err := st.Reviews().Create(ctx, first); err != nil {
		t.Fatalf("first review: %v", err)
	}
	second := &models.Review{JobID: jobID, RequesterID: uuid.New(), ProviderID: uuid.New(), Rating: 1}
	if err := st.Reviews().Create(ctx, second); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("second review error = %v, want ErrDuplicate", err)
	}
}

func TestMemoryStoreJobFilter(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore("")
	requester := uuid.New()

	seed := func(city, district, category string, status models.JobStatus) {
		t.Helper()
		err := st.Jobs().Create(ctx, &models.JobPost{
			RequesterID: requester,
			Title:       "t",
			Description: "d",
			Category:    category,
			Location:    models.Location{Address: "a", City: city, District: district},
			Status:      status,
		})
		if err != nil {
			t.Fatalf("seed job: %v", err)
		}
	}
	seed("Istanbul", "Kadikoy", "plumbing", models.JobStatusOpen)
	seed("Istanbul", "Sisli", "plumbing", models.JobStatusOpen)
	seed("Ankara", "Cankaya", "electrical", models.JobStatusBidding)

	cases := []struct {
		name string
		f    JobFilter
		want int
	}{
		{"all", JobFilter{}, 3},
		{"by city", JobFilter{City: "Istanbul"}, 2},
		{"by district", JobFilter{City: "Istanbul", District: "Sisli"}, 1},
		{"by category", JobFilter{Category: "electrical"}, 1},
		{"by status", JobFilter{Status: models.JobStatusBidding}, 1},
		{"by requester", JobFilter{RequesterID: &requester}, 3},
		{"no match", JobFilter{City: "Bursa"}, 0},
	}
	for _, c := range cases {
		got, err := st.Jobs().List(ctx, c.f)
		if err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
		if len(got) != c.want {
			t.Errorf("%s: %d jobs, want %d", c.name, len(got), c.want)
		}
	}
}
