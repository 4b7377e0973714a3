package auth

import (
	"errors"

	"backend-gpstracker/internal/shared/apperr"
	"backend-gpstracker/pkg/response"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service) {
	r.Post("/register", func(c *fiber.Ctx) error {
		var req RegisterRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		user, err := svc.Register(c.Context(), req)
		if errors.Is(err, ErrEmailTaken) || errors.Is(err, ErrPhoneTaken) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err != nil {
			return apperr.Fiber(err)
		}
		return response.Created(c, "User registered successfully", user)
	})

	r.Post("/login", func(c *fiber.Ctx) error {
		var req LoginRequest
		if err := c.BodyParser(&req); err != nil || req.Email == "" || req.Password == "" {
			return fiber.NewError(fiber.StatusBadRequest, "email and password required")
		}
		resp, err := svc.Login(c.Context(), req)
		if errors.Is(err, ErrInvalidCredentials) {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}
		if err != nil {
			return apperr.Fiber(err)
		}
		return response.OK(c, "Login successful", resp)
	})

	r.Get("/check-email", func(c *fiber.Ctx) error {
		email := c.Query("email")
		if email == "" {
			return fiber.NewError(fiber.StatusBadRequest, "email required")
		}
		taken, err := svc.EmailTaken(c.Context(), email)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Error checking email availability")
		}
		msg := "Email is available"
		if taken {
			msg = "Email is already taken"
		}
		return response.OK(c, msg, fiber.Map{"available": !taken})
	})

	r.Get("/check-phone", func(c *fiber.Ctx) error {
		phone := c.Query("phone")
		if phone == "" {
			return fiber.NewError(fiber.StatusBadRequest, "phone required")
		}
		taken, err := svc.PhoneTaken(c.Context(), phone)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Error checking phone availability")
		}
		msg := "Phone number is available"
		if taken {
			msg = "Phone number is already taken"
		}
		return response.OK(c, msg, fiber.Map{"available": !taken})
	})

	// Tokens are stateless; the client discards its copy.
	r.Post("/logout", func(c *fiber.Ctx) error {
		return response.OK(c, "Logout successful", nil)
	})

	r.Get("/jwt/verify", func(c *fiber.Ctx) error {
		token := parseBearer(c.Get("Authorization"))
		if token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		userID, err := svc.ValidateToken(token)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}
		return response.OK(c, "Token valid", fiber.Map{"user_id": userID})
	})
}
