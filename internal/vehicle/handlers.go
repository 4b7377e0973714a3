package vehicle

import (
	"backend-gpstracker/internal/auth"
	"backend-gpstracker/internal/shared/apperr"
	"backend-gpstracker/pkg/response"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Use(authMiddleware)

	r.Post("/", func(c *fiber.Ctx) error {
		var req Request
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		v, err := svc.Create(c.Context(), auth.UserID(c), req)
		if err != nil {
			return apperr.Fiber(err)
		}
		return response.Created(c, "Vehicle created successfully", v)
	})

	r.Get("/", func(c *fiber.Ctx) error {
		page, err := svc.List(c.Context(), auth.UserID(c), c.QueryInt("page", 0), c.QueryInt("size", 10))
		if err != nil {
			return apperr.Fiber(err)
		}
		return response.OK(c, "Vehicles retrieved successfully", page)
	})

	r.Get("/search", func(c *fiber.Ctx) error {
		name := c.Query("name")
		if name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name required")
		}
		vehicles, err := svc.Search(c.Context(), auth.UserID(c), name)
		if err != nil {
			return apperr.Fiber(err)
		}
		return response.List(c, "Vehicles found", vehicles, len(vehicles))
	})

	r.Get("/count", func(c *fiber.Ctx) error {
		count, err := svc.Count(c.Context(), auth.UserID(c))
		if err != nil {
			return apperr.Fiber(err)
		}
		return response.OK(c, "Vehicle count retrieved successfully", fiber.Map{"count": count})
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		v, err := svc.Get(c.Context(), auth.UserID(c), c.Params("id"))
		if err != nil {
			return apperr.Fiber(err)
		}
		return response.OK(c, "Vehicle retrieved successfully", v)
	})

	r.Put("/:id", func(c *fiber.Ctx) error {
		var req Request
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		v, err := svc.Update(c.Context(), auth.UserID(c), c.Params("id"), req)
		if err != nil {
			return apperr.Fiber(err)
		}
		return response.OK(c, "Vehicle updated successfully", v)
	})

	r.Delete("/:id", func(c *fiber.Ctx) error {
		if err := svc.Delete(c.Context(), auth.UserID(c), c.Params("id")); err != nil {
			return apperr.Fiber(err)
		}
		return response.OK(c, "Vehicle deleted successfully", nil)
	})
}
