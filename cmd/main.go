package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/Abraxas-365/propcore/pkg/config"
	"github.com/Abraxas-365/propcore/pkg/errx/errxfiber"
	"github.com/Abraxas-365/propcore/pkg/logx"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

func main() {
	// 1. Logger
	logx.SetDefaultLogger(logx.NewLogger(logx.LoadFromEnv()))
	defer func() { _ = logx.Sync() }()

	logx.Info("Starting propcore API server...")

	// 2. Configuration
	cfg, err := config.Load()
	if err != nil {
		logx.Fatalf("Invalid configuration: %v", err)
	}

	// 3. Dependency container
	ctx, stop := context.WithCancel(context.Background())
	container := NewContainer(ctx, cfg)

	// 4. Fiber app
	app := fiber.New(fiber.Config{
		AppName:               "propcore",
		DisableStartupMessage: true,
		ErrorHandler:          errxfiber.ErrorHandler,
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		IdleTimeout:           120 * time.Second,
	})

	app.Use(recover.New(recover.Config{EnableStackTrace: !cfg.IsProduction()}))
	app.Use(requestid.New(requestid.Config{
		Header:    fiber.HeaderXRequestID,
		Generator: uuid.NewString,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Request-ID",
		AllowMethods:     "GET, POST, DELETE, OPTIONS",
		AllowCredentials: cfg.Server.AllowedOrigins != "*",
		ExposeHeaders:    "X-Request-ID",
	}))
	app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path} | ${ip} | ${respHeader:X-Request-ID}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	// 5. Routes
	app.Get("/health", healthCheckHandler(container))
	container.IAM.RegisterRoutes(app)
	app.Use(errxfiber.NotFound)

	// 6. Background services and server
	container.StartBackgroundServices(ctx)
	startServer(app, cfg.Server.Port)

	// 7. Shutdown
	stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	container.Cleanup(shutdownCtx)
	logx.Info("Server exited successfully")
}

func healthCheckHandler(container *Container) fiber.Handler {
	return func(c *fiber.Ctx) error {
		checks := container.Health(c.UserContext())
		status, code := "healthy", fiber.StatusOK
		for _, v := range checks {
			if v == "unhealthy" {
				status, code = "degraded", fiber.StatusServiceUnavailable
			}
		}
		return c.Status(code).JSON(fiber.Map{
			"status":  status,
			"service": "propcore",
			"checks":  checks,
		})
	}
}

// startServer listens until SIGINT or SIGTERM, then drains connections.
func startServer(app *fiber.App, port int) {
	addr := ":" + strconv.Itoa(port)
	go func() {
		logx.Infof("Server listening on %s", addr)
		if err := app.Listen(addr); err != nil {
			logx.Fatalf("Server error: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	logx.Infof("Received signal: %v", sig)
	logx.Info("Shutting down gracefully...")

	if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
		logx.Errorf("Server forced to shutdown: %v", err)
	}
}
