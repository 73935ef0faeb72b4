package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"

	"github.com/ustaconnect/backend/internal/models"
	"github.com/ustaconnect/backend/internal/notify"
	"github.com/ustaconnect/backend/internal/store"
)

type ProviderHandler struct {
	Store  store.Store
	Router *notify.Router
}

func NewProviderHandler(st store.Store, router *notify.Router) *ProviderHandler {
	return &ProviderHandler{Store: st, Router: router}
}

// Me handles GET /provider/me.
func (h *ProviderHandler) Me(c *fiber.Ctx) error {
	uid, err := currentUserID(c)
	if err != nil {
		return fail(c, err)
	}
	profile, err := h.Store.Providers().GetByUserID(c.Context(), uid)
	if errors.Is(err, store.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Provider profile not found",
		})
	}
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, profile)
}

type updateProfileRequest struct {
	Category         string                   `json:"category"`
	About            string                   `json:"about"`
	ServiceLocations []models.ServiceLocation `json:"service_locations"`
}

// UpdateProfile handles PUT /provider/profile. Changing category or service
// locations resynchronizes the provider's area-room membership so the next
// fan-out reaches them in the right rooms.
func (h *ProviderHandler) UpdateProfile(c *fiber.Ctx) error {
	uid, err := currentUserID(c)
	if err != nil {
		return fail(c, err)
	}

	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if strings.TrimSpace(req.Category) == "" {
		return badRequest(c, "Category is required")
	}
	for _, loc := range req.ServiceLocations {
		if strings.TrimSpace(loc.City) == "" {
			return badRequest(c, "Each service location needs a city")
		}
	}

	profile, err := h.Store.Providers().GetByUserID(c.Context(), uid)
	if errors.Is(err, store.ErrNotFound) {
		profile = &models.ProviderProfile{UserID: uid}
		if err := h.Store.Providers().Create(c.Context(), profile); err != nil {
			return fail(c, err)
		}
	} else if err != nil {
		return fail(c, err)
	}

	profile.Category = strings.ToLower(strings.TrimSpace(req.Category))
	profile.About = strings.TrimSpace(req.About)
	profile.ServiceLocations = datatypes.NewJSONSlice(req.ServiceLocations)
	if err := h.Store.Providers().Save(c.Context(), profile); err != nil {
		return fail(c, err)
	}

	h.Router.SyncProviderRooms(uid, req.ServiceLocations, profile.Category)

	return ok(c, fiber.StatusOK, profile)
}

type pushTokenRequest struct {
	Token string `json:"token"`
}

// RegisterPushToken handles POST /provider/push-token. An empty token
// unregisters the device.
func (h *ProviderHandler) RegisterPushToken(c *fiber.Ctx) error {
	uid, err := currentUserID(c)
	if err != nil {
		return fail(c, err)
	}

	var req pushTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	profile, err := h.Store.Providers().GetByUserID(c.Context(), uid)
	if errors.Is(err, store.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Provider profile not found",
		})
	}
	if err != nil {
		return fail(c, err)
	}

	profile.PushToken = strings.TrimSpace(req.Token)
	if err := h.Store.Providers().Save(c.Context(), profile); err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{"registered": profile.PushToken != ""})
}
