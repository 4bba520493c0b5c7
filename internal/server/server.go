// Package server wires configuration, storage, and the HTTP surface
// together and runs the process until it is signalled to stop.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mealgrid/mealgrid/app/controllers"
	"github.com/mealgrid/mealgrid/app/jobs"
	"github.com/mealgrid/mealgrid/app/models"
	"github.com/mealgrid/mealgrid/app/repositories"
	"github.com/mealgrid/mealgrid/app/routes"
	"github.com/mealgrid/mealgrid/app/services"
	"github.com/mealgrid/mealgrid/config"
	"github.com/mealgrid/mealgrid/database"
	"github.com/mealgrid/mealgrid/pkg/auth"
	"github.com/mealgrid/mealgrid/pkg/cache"
	"github.com/mealgrid/mealgrid/pkg/logger"
	"github.com/mealgrid/mealgrid/pkg/metrics"
	"github.com/mealgrid/mealgrid/pkg/middleware"
	"github.com/mealgrid/mealgrid/pkg/payment"
	"github.com/mealgrid/mealgrid/pkg/queue"
	"github.com/mealgrid/mealgrid/pkg/reqid"
	"github.com/mealgrid/mealgrid/pkg/router"
	"github.com/mealgrid/mealgrid/pkg/session"
	"github.com/mealgrid/mealgrid/pkg/storage"
)

const workerCount = 2

// Start boots every dependency and serves HTTP until SIGINT/SIGTERM.
func Start() error {
	if err := config.Load(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Application logs also land in Mongo in production.
	if config.AppEnv() == "production" {
		if mh, err := logger.NewMongoHandler(config.MongoURI(), config.MongoDatabase(), "logs"); err == nil {
			defer mh.Close()
			logger.SetHandler(logger.NewMultiHandler(
				slog.NewJSONHandler(os.Stdout, nil), mh,
			))
		} else {
			logger.Warn("server: mongo log handler unavailable", "error", err)
		}
	}

	db, err := database.Connect(ctx)
	if err != nil {
		return err
	}
	defer database.Disconnect(context.Background(), db) //nolint:errcheck

	if err := database.EnsureIndexes(ctx, db); err != nil {
		return err
	}

	// A dead Redis degrades caching to pass-through instead of failing boot.
	c, err := cache.Connect(config.RedisAddr(), config.RedisPassword())
	if err != nil {
		logger.Warn("server: redis unavailable, caching disabled", "error", err)
	}

	disk, err := storage.Open()
	if err != nil {
		return err
	}

	if config.QueueDriver() == "redis" && c.Client() != nil {
		queue.SetDriver(queue.NewRedisDriver(c.Client()))
	}
	queue.UseDB(db.Collection("failed_jobs"))

	// Repositories.
	userRepo := repositories.NewPrincipalRepository(db, models.UsersCollection)
	adminRepo := repositories.NewPrincipalRepository(db, models.AdminsCollection)
	foodRepo := repositories.NewFoodRepository(db)
	orderRepo := repositories.NewOrderRepository(db)

	// Background jobs.
	jobs.Configure(orderRepo)
	queue.StartWorkers(ctx, workerCount)

	// Token issuers, one per principal kind.
	userIssuer := auth.NewIssuer(auth.RoleUser, config.UserJWTSecret())
	adminIssuer := auth.NewIssuer(auth.RoleAdmin, config.AdminJWTSecret())

	// Services.
	userAuthSvc := services.NewAuthService(userRepo, userIssuer, "User")
	adminAuthSvc := services.NewAuthService(adminRepo, adminIssuer, "Admin")
	foodSvc := services.NewFoodService(foodRepo, disk, c)
	paymentSvc := services.NewPaymentService(foodRepo, userRepo, payment.NewStripeClient(config.StripeSecret()))
	orderSvc := services.NewOrderService(orderRepo, foodRepo)

	cookieOpts := session.DefaultOptions()
	cookieOpts.Secure = config.AppEnv() == "production"

	r := router.New()
	r.Use(
		middleware.Recovery,
		reqid.Middleware(),
		middleware.Logger,
		middleware.CORS(middleware.DefaultCORSOptions()),
		metrics.Middleware(),
	)

	routes.RegisterAPI(r, routes.Controllers{
		UserAuth:   controllers.NewAuthController(userAuthSvc, "User", cookieOpts),
		AdminAuth:  controllers.NewAuthController(adminAuthSvc, "Admin", cookieOpts),
		Food:       controllers.NewFoodController(foodSvc, paymentSvc),
		Order:      controllers.NewOrderController(orderSvc),
		UserGuard:  middleware.NewGuard(userIssuer),
		AdminGuard: middleware.NewGuard(adminIssuer),
		Foods:      foodSvc,
	})

	srv := &http.Server{
		Addr:         ":" + config.AppPort(),
		Handler:      r.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server: listening", "addr", srv.Addr, "env", config.AppEnv())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("server: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server: forced shutdown", "error", err)
		return err
	}

	logger.Info("server: exited")
	return nil
}

// BuildRouter assembles the route table without opening any connections.
// Used by the route:list CLI command.
func BuildRouter() *router.Router {
	userIssuer := auth.NewIssuer(auth.RoleUser, config.UserJWTSecret())
	adminIssuer := auth.NewIssuer(auth.RoleAdmin, config.AdminJWTSecret())

	r := router.New()
	routes.RegisterAPI(r, routes.Controllers{
		UserAuth:   controllers.NewAuthController(nil, "User", session.DefaultOptions()),
		AdminAuth:  controllers.NewAuthController(nil, "Admin", session.DefaultOptions()),
		Food:       controllers.NewFoodController(nil, nil),
		Order:      controllers.NewOrderController(nil),
		UserGuard:  middleware.NewGuard(userIssuer),
		AdminGuard: middleware.NewGuard(adminIssuer),
		Foods:      nil,
	})
	return r
}
