package server

import (
	"backend-gpstracker/internal/auth"
	"backend-gpstracker/internal/config"
	"backend-gpstracker/internal/db"
	"backend-gpstracker/internal/history"
	"backend-gpstracker/internal/lock"
	"backend-gpstracker/internal/refresh"
	"backend-gpstracker/internal/retention"
	"backend-gpstracker/internal/telemetry"
	"backend-gpstracker/internal/vehicle"
	"backend-gpstracker/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App   *fiber.App
	Cfg   config.Config
	DB    *pgxpool.Pool
	Redis *redis.Client

	Vehicles  *vehicle.Store
	History   *history.Store
	Refresh   *refresh.Scheduler
	Retention *retention.Sweeper
}

func NewServer(cfg config.Config, pool *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New(fiber.Config{ErrorHandler: response.ErrorHandler})
	app.Use(recover.New())
	app.Use(logger.New())

	q := querier(pool)
	locker := lock.New(redisClient)
	sim := telemetry.NewSimulator(cfg.SimulatorSeed)

	s := &Server{
		App:      app,
		Cfg:      cfg,
		DB:       pool,
		Redis:    redisClient,
		Vehicles: vehicle.NewStore(q),
		History:  history.NewStore(q),
	}
	s.Refresh = refresh.NewScheduler(s.Vehicles, s.History, sim, locker, cfg.RefreshInterval, cfg.RefreshTimeout)
	s.Retention = retention.NewSweeper(s.History, locker, cfg.RetentionMonths, cfg.RetentionCron)

	registerRoutes(s, sim)
	return s
}

func registerRoutes(s *Server, sim vehicle.Simulator) {
	api := s.App.Group("/api")

	health := func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	}
	s.App.Get("/health", health)
	api.Get("/health", health)

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)

	auth.RegisterRoutes(api.Group("/auth"), auth.NewService(s.Cfg.JWTSecret, s.Cfg.JWTTTL, querier(s.DB)))
	vehicle.RegisterRoutes(api.Group("/vehicles"), vehicle.NewService(querier(s.DB), sim), jwtMiddleware)
	history.RegisterRoutes(api.Group("/history"), history.NewService(s.History, s.Vehicles, s.Cfg.RetentionMonths), jwtMiddleware)
}

// querier keeps a missing pool a true nil interface.
func querier(pool *pgxpool.Pool) db.Querier {
	if pool == nil {
		return nil
	}
	return pool
}
