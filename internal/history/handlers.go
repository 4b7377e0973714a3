package history

import (
	"time"

	"backend-gpstracker/internal/auth"
	"backend-gpstracker/internal/shared/apperr"
	"backend-gpstracker/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// localDateTime is accepted besides RFC 3339 for startDate/endDate.
const localDateTime = "2006-01-02T15:04:05"

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Use(authMiddleware)

	r.Get("/vehicle/:vehicleId", func(c *fiber.Ctx) error {
		page, err := svc.VehicleHistory(c.Context(), auth.UserID(c), c.Params("vehicleId"), c.QueryInt("page", 0), c.QueryInt("size", 10))
		if err != nil {
			return apperr.Fiber(err)
		}
		return response.OK(c, "Vehicle history retrieved successfully", page)
	})

	r.Get("/vehicle/:vehicleId/range", func(c *fiber.Ctx) error {
		start, end, err := parseWindow(c)
		if err != nil {
			return err
		}
		samples, err := svc.HistoryRange(c.Context(), auth.UserID(c), c.Params("vehicleId"), start, end)
		if err != nil {
			return apperr.Fiber(err)
		}
		return response.List(c, "Vehicle history retrieved successfully", samples, len(samples))
	})

	r.Get("/vehicle/:vehicleId/last-week", func(c *fiber.Ctx) error {
		samples, err := svc.LastWeek(c.Context(), auth.UserID(c), c.Params("vehicleId"))
		if err != nil {
			return apperr.Fiber(err)
		}
		return response.List(c, "Last week vehicle history retrieved successfully", samples, len(samples))
	})

	r.Get("/vehicle/:vehicleId/last-month", func(c *fiber.Ctx) error {
		samples, err := svc.LastMonth(c.Context(), auth.UserID(c), c.Params("vehicleId"))
		if err != nil {
			return apperr.Fiber(err)
		}
		return response.List(c, "Last month vehicle history retrieved successfully", samples, len(samples))
	})

	r.Get("/vehicle/:vehicleId/stats", func(c *fiber.Ctx) error {
		stats, err := svc.ComputeStats(c.Context(), auth.UserID(c), c.Params("vehicleId"), StatsWindowDays)
		if err != nil {
			return apperr.Fiber(err)
		}
		return response.OK(c, "Vehicle statistics retrieved successfully", stats)
	})

	r.Get("/vehicle/:vehicleId/route", func(c *fiber.Ctx) error {
		start, end, err := parseWindow(c)
		if err != nil {
			return err
		}
		points, err := svc.ComputeRoute(c.Context(), auth.UserID(c), c.Params("vehicleId"), start, end)
		if err != nil {
			return apperr.Fiber(err)
		}
		return response.List(c, "Vehicle route retrieved successfully", points, len(points))
	})

	r.Get("/recent", func(c *fiber.Ctx) error {
		days := RecentDays(c.QueryInt("days", DefaultRecentDays))
		samples, err := svc.RecentForOwner(c.Context(), auth.UserID(c), days)
		if err != nil {
			return apperr.Fiber(err)
		}
		return response.List(c, "Recent history retrieved successfully", samples, len(samples))
	})
}

func parseWindow(c *fiber.Ctx) (time.Time, time.Time, error) {
	start, err := parseTime(c.Query("startDate"))
	if err != nil {
		return time.Time{}, time.Time{}, fiber.NewError(fiber.StatusBadRequest, "startDate must be an ISO date-time")
	}
	end, err := parseTime(c.Query("endDate"))
	if err != nil {
		return time.Time{}, time.Time{}, fiber.NewError(fiber.StatusBadRequest, "endDate must be an ISO date-time")
	}
	return start, end, nil
}

func parseTime(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.ParseInLocation(localDateTime, v, time.Local)
}
