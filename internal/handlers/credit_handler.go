package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ustaconnect/backend/internal/services/credit"
	"github.com/ustaconnect/backend/internal/store"
)

type CreditHandler struct {
	Store   store.Store
	Credits *credit.Service
}

func NewCreditHandler(st store.Store, credits *credit.Service) *CreditHandler {
	return &CreditHandler{Store: st, Credits: credits}
}

type purchaseRequest struct {
	Amount int64 `json:"amount"`
}

// Purchase handles POST /credits/purchase. The payment processor itself is
// external; by the time this is called the purchase is settled and only the
// ledger credit remains.
func (h *CreditHandler) Purchase(c *fiber.Ctx) error {
	uid, err := currentUserID(c)
	if err != nil {
		return fail(c, err)
	}

	var req purchaseRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	entry, err := h.Credits.Purchase(c.Context(), h.Store, uid, req.Amount, "credit package purchase")
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusCreated, entry)
}

// Balance handles GET /credits/balance.
func (h *CreditHandler) Balance(c *fiber.Ctx) error {
	uid, err := currentUserID(c)
	if err != nil {
		return fail(c, err)
	}
	balance, err := h.Credits.GetBalance(c.Context(), h.Store, uid)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{"balance": balance})
}

// History handles GET /credits/history.
func (h *CreditHandler) History(c *fiber.Ctx) error {
	uid, err := currentUserID(c)
	if err != nil {
		return fail(c, err)
	}
	entries, err := h.Credits.History(c.Context(), h.Store, uid)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, entries)
}
