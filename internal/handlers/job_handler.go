package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/ustaconnect/backend/internal/models"
	"github.com/ustaconnect/backend/internal/services/job"
	"github.com/ustaconnect/backend/internal/store"
)

type JobHandler struct {
	Jobs *job.Service
}

func NewJobHandler(jobs *job.Service) *JobHandler {
	return &JobHandler{Jobs: jobs}
}

type createJobRequest struct {
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	Category        string          `json:"category"`
	Subcategory     string          `json:"subcategory"`
	Location        models.Location `json:"location"`
	UrgencyLevel    string          `json:"urgency_level"`
	EstimatedBudget *int64          `json:"estimated_budget"`
}

// Create handles POST /jobs.
func (h *JobHandler) Create(c *fiber.Ctx) error {
	uid, err := currentUserID(c)
	if err != nil {
		return fail(c, err)
	}

	var req createJobRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	created, err := h.Jobs.Create(c.Context(), uid, job.CreateJobInput{
		Title:           req.Title,
		Description:     req.Description,
		Category:        req.Category,
		Subcategory:     req.Subcategory,
		Location:        req.Location,
		UrgencyLevel:    models.UrgencyLevel(req.UrgencyLevel),
		EstimatedBudget: req.EstimatedBudget,
	})
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusCreated, created)
}

// List handles GET /jobs with optional city/district/category/status/mine
// query filters.
func (h *JobHandler) List(c *fiber.Ctx) error {
	f := store.JobFilter{
		City:     c.Query("city"),
		District: c.Query("district"),
		Category: c.Query("category"),
	}
	if raw := c.Query("status"); raw != "" {
		status, err := models.ParseJobStatus(raw)
		if err != nil {
			return badRequest(c, "Invalid status filter")
		}
		f.Status = status
	}
	if c.Query("mine") == "true" {
		uid, err := currentUserID(c)
		if err != nil {
			return fail(c, err)
		}
		f.RequesterID = &uid
	}

	jobs, err := h.Jobs.List(c.Context(), f)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, jobs)
}

// Get handles GET /jobs/:id and counts the view.
func (h *JobHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid job ID")
	}
	j, err := h.Jobs.Get(c.Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, j)
}

type updateJobRequest struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	Subcategory     string `json:"subcategory"`
	UrgencyLevel    string `json:"urgency_level"`
	EstimatedBudget *int64 `json:"estimated_budget"`
}

// Update handles PUT /jobs/:id.
func (h *JobHandler) Update(c *fiber.Ctx) error {
	uid, err := currentUserID(c)
	if err != nil {
		return fail(c, err)
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid job ID")
	}

	var req updateJobRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	updated, err := h.Jobs.Update(c.Context(), id, uid, job.UpdateJobInput{
		Title:           req.Title,
		Description:     req.Description,
		Subcategory:     req.Subcategory,
		UrgencyLevel:    models.UrgencyLevel(req.UrgencyLevel),
		EstimatedBudget: req.EstimatedBudget,
	})
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, updated)
}

// Cancel handles POST /jobs/:id/cancel.
func (h *JobHandler) Cancel(c *fiber.Ctx) error {
	uid, err := currentUserID(c)
	if err != nil {
		return fail(c, err)
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid job ID")
	}

	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.BodyParser(&req)

	cancelled, err := h.Jobs.Cancel(c.Context(), id, uid, req.Reason)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, cancelled)
}

// MarkComplete handles POST /jobs/:id/mark-complete (assigned provider).
func (h *JobHandler) MarkComplete(c *fiber.Ctx) error {
	uid, err := currentUserID(c)
	if err != nil {
		return fail(c, err)
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid job ID")
	}
	j, err := h.Jobs.MarkComplete(c.Context(), id, uid)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, j)
}

// ConfirmComplete handles POST /jobs/:id/confirm-complete (requester).
func (h *JobHandler) ConfirmComplete(c *fiber.Ctx) error {
	uid, err := currentUserID(c)
	if err != nil {
		return fail(c, err)
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid job ID")
	}
	j, err := h.Jobs.ConfirmComplete(c.Context(), id, uid)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, j)
}

// Delete handles DELETE /jobs/:id (owner soft delete).
func (h *JobHandler) Delete(c *fiber.Ctx) error {
	uid, err := currentUserID(c)
	if err != nil {
		return fail(c, err)
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid job ID")
	}
	if err := h.Jobs.Delete(c.Context(), id, uid); err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{"deleted": true})
}

type createReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// CreateReview handles POST /jobs/:id/review.
func (h *JobHandler) CreateReview(c *fiber.Ctx) error {
	uid, err := currentUserID(c)
	if err != nil {
		return fail(c, err)
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid job ID")
	}

	var req createReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	review, err := h.Jobs.CreateReview(c.Context(), id, uid, job.CreateReviewInput{
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusCreated, review)
}
