package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/ustaconnect/backend/internal/store"
)

type NotificationHandler struct {
	Store store.Store
}

func NewNotificationHandler(st store.Store) *NotificationHandler {
	return &NotificationHandler{Store: st}
}

// List handles GET /notifications?limit=n.
func (h *NotificationHandler) List(c *fiber.Ctx) error {
	uid, err := currentUserID(c)
	if err != nil {
		return fail(c, err)
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	notifications, err := h.Store.Notifications().ListByUser(c.Context(), uid, limit)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, notifications)
}

// MarkRead handles POST /notifications/:id/read.
func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	uid, err := currentUserID(c)
	if err != nil {
		return fail(c, err)
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid notification ID")
	}

	if err := h.Store.Notifications().MarkRead(c.Context(), id, uid); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "Notification not found",
			})
		}
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{"read": true})
}

// UnreadCount handles GET /notifications/unread-count.
func (h *NotificationHandler) UnreadCount(c *fiber.Ctx) error {
	uid, err := currentUserID(c)
	if err != nil {
		return fail(c, err)
	}
	count, err := h.Store.Notifications().CountUnread(c.Context(), uid)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{"unread": count})
}
