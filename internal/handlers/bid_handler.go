package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/ustaconnect/backend/internal/services/bid"
)

type BidHandler struct {
	Bids *bid.Service
}

func NewBidHandler(bids *bid.Service) *BidHandler {
	return &BidHandler{Bids: bids}
}

type bidTermsRequest struct {
	JobID             string `json:"job_id"`
	Amount            int64  `json:"amount"`
	EstimatedDuration int    `json:"estimated_duration"`
	EstimatedStartAt  string `json:"estimated_start_at"` // ISO date: 2026-09-05
	Message           string `json:"message"`
}

func parseStartDate(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil
	}
	return &t
}

// Create handles POST /bids.
func (h *BidHandler) Create(c *fiber.Ctx) error {
	uid, err := currentUserID(c)
	if err != nil {
		return fail(c, err)
	}

	var req bidTermsRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	jobID, err := uuid.Parse(req.JobID)
	if err != nil {
		return badRequest(c, "Invalid job ID")
	}

	created, err := h.Bids.Create(c.Context(), uid, bid.CreateBidInput{
		JobID:             jobID,
		Amount:            req.Amount,
		EstimatedDuration: req.EstimatedDuration,
		EstimatedStartAt:  parseStartDate(req.EstimatedStartAt),
		Message:           req.Message,
	})
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusCreated, created)
}

// ListByJob handles GET /bids/job/:jobId.
func (h *BidHandler) ListByJob(c *fiber.Ctx) error {
	jobID, err := uuid.Parse(c.Params("jobId"))
	if err != nil {
		return badRequest(c, "Invalid job ID")
	}
	bids, err := h.Bids.ListByJob(c.Context(), jobID)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, bids)
}

// ListMine handles GET /bids/my-bids.
func (h *BidHandler) ListMine(c *fiber.Ctx) error {
	uid, err := currentUserID(c)
	if err != nil {
		return fail(c, err)
	}
	bids, err := h.Bids.ListMine(c.Context(), uid)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, bids)
}

// Update handles PUT /bids/:id (owner, pending only).
func (h *BidHandler) Update(c *fiber.Ctx) error {
	uid, err := currentUserID(c)
	if err != nil {
		return fail(c, err)
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid bid ID")
	}

	var req bidTermsRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	updated, err := h.Bids.Update(c.Context(), id, uid, bid.UpdateBidInput{
		Amount:            req.Amount,
		EstimatedDuration: req.EstimatedDuration,
		EstimatedStartAt:  parseStartDate(req.EstimatedStartAt),
		Message:           req.Message,
	})
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, updated)
}

// Accept handles POST /bids/:id/accept (job owner).
func (h *BidHandler) Accept(c *fiber.Ctx) error {
	uid, err := currentUserID(c)
	if err != nil {
		return fail(c, err)
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid bid ID")
	}
	accepted, err := h.Bids.Accept(c.Context(), id, uid)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, accepted)
}

// Reject handles POST /bids/:id/reject (job owner).
func (h *BidHandler) Reject(c *fiber.Ctx) error {
	uid, err := currentUserID(c)
	if err != nil {
		return fail(c, err)
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid bid ID")
	}
	rejected, err := h.Bids.Reject(c.Context(), id, uid)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, rejected)
}

// Withdraw handles POST /bids/:id/withdraw (bid owner, no refund).
func (h *BidHandler) Withdraw(c *fiber.Ctx) error {
	uid, err := currentUserID(c)
	if err != nil {
		return fail(c, err)
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid bid ID")
	}
	withdrawn, err := h.Bids.Withdraw(c.Context(), id, uid)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, withdrawn)
}

// Delete handles DELETE /bids/:id (bid owner, pending only).
func (h *BidHandler) Delete(c *fiber.Ctx) error {
	uid, err := currentUserID(c)
	if err != nil {
		return fail(c, err)
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid bid ID")
	}
	if err := h.Bids.Delete(c.Context(), id, uid); err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{"deleted": true})
}
