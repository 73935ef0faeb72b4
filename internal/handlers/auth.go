package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/ustaconnect/backend/internal/models"
	"github.com/ustaconnect/backend/internal/store"
	"github.com/ustaconnect/backend/internal/utils"
)

type AuthHandler struct {
	Store     store.Store
	JWTSecret string
	Expires   int // minutes
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	Role     string `json:"role"` // requester | provider
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" || len(req.Password) < 8 {
		return badRequest(c, "Name, email and a password of at least 8 characters are required")
	}

	role := models.Role(strings.ToLower(strings.TrimSpace(req.Role)))
	if role != models.RoleRequester && role != models.RoleProvider {
		return badRequest(c, "Role must be requester or provider")
	}

	if _, err := h.Store.Users().GetByEmail(c.Context(), req.Email); err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"message": "Email already registered",
		})
	} else if !errors.Is(err, store.ErrNotFound) {
		return fail(c, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return fail(c, err)
	}

	u := &models.User{
		Name:     strings.TrimSpace(req.Name),
		Email:    req.Email,
		Phone:    strings.TrimSpace(req.Phone),
		Password: string(hash),
		Role:     role,
		IsActive: true,
	}
	if err := h.Store.Users().Create(c.Context(), u); err != nil {
		return fail(c, err)
	}

	// Providers get an empty profile up front so the room projection and
	// rating aggregates always have a row to work with.
	if role == models.RoleProvider {
		profile := &models.ProviderProfile{UserID: u.ID}
		if err := h.Store.Providers().Create(c.Context(), profile); err != nil {
			return fail(c, err)
		}
	}

	return ok(c, fiber.StatusCreated, fiber.Map{
		"id":    u.ID,
		"name":  u.Name,
		"email": u.Email,
		"role":  u.Role,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	u, err := h.Store.Users().GetByEmail(c.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if errors.Is(err, store.ErrNotFound) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Invalid email or password",
		})
	}
	if err != nil {
		return fail(c, err)
	}

	if !u.IsActive {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "Account is disabled",
		})
	}

	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(req.Password)) != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Invalid email or password",
		})
	}

	token, err := utils.SignJWT(h.JWTSecret, u.ID.String(), string(u.Role), h.Expires)
	if err != nil {
		return fail(c, err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     "uc_token",
		Value:    token,
		Expires:  time.Now().Add(time.Duration(h.Expires) * time.Minute),
		HTTPOnly: true,
		SameSite: "Lax",
		Path:     "/",
	})

	return ok(c, fiber.StatusOK, fiber.Map{
		"token": token,
		"user": fiber.Map{
			"id":    u.ID,
			"name":  u.Name,
			"email": u.Email,
			"role":  u.Role,
		},
	})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     "uc_token",
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		Path:     "/",
	})
	return ok(c, fiber.StatusOK, fiber.Map{"message": "logged out"})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	uid, err := currentUserID(c)
	if err != nil {
		return fail(c, err)
	}
	u, err := h.Store.Users().GetByID(c.Context(), uid)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{
		"id":    u.ID,
		"name":  u.Name,
		"email": u.Email,
		"role":  u.Role,
	})
}
