// Package routes declares the HTTP surface of the application.
package routes

import (
	"time"

	"github.com/mealgrid/mealgrid/app/controllers"
	appgraphql "github.com/mealgrid/mealgrid/app/graphql"
	"github.com/mealgrid/mealgrid/app/services"
	"github.com/mealgrid/mealgrid/pkg/logger"
	"github.com/mealgrid/mealgrid/pkg/metrics"
	"github.com/mealgrid/mealgrid/pkg/middleware"
	"github.com/mealgrid/mealgrid/pkg/router"
)

// Controllers carries everything RegisterAPI mounts.
type Controllers struct {
	UserAuth  *controllers.AuthController
	AdminAuth *controllers.AuthController
	Food      *controllers.FoodController
	Order     *controllers.OrderController

	UserGuard  *middleware.Guard
	AdminGuard *middleware.Guard

	Foods *services.FoodService
}

// RegisterAPI mounts the full API route table onto r.
func RegisterAPI(r *router.Router, c Controllers) {
	api := r.Group("/api/v1")

	// Credential endpoints are rate limited per client IP.
	authLimit := middleware.RateLimit(20, time.Minute)

	user := api.Group("/user")
	user.Post("/signup", "user.signup", c.UserAuth.Signup, authLimit)
	user.Post("/login", "user.login", c.UserAuth.Login, authLimit)
	user.Get("/logout", "user.logout", c.UserAuth.Logout)
	user.Get("/purchases", "user.purchases", c.Order.Purchases, c.UserGuard.Handler)

	admin := api.Group("/admin")
	admin.Post("/signup", "admin.signup", c.AdminAuth.Signup, authLimit)
	admin.Post("/login", "admin.login", c.AdminAuth.Login, authLimit)
	admin.Get("/logout", "admin.logout", c.AdminAuth.Logout)

	food := api.Group("/food")
	food.Post("/create", "food.create", c.Food.Create, c.AdminGuard.Handler)
	food.Put("/update/{foodId}", "food.update", c.Food.Update, c.AdminGuard.Handler)
	food.Delete("/delete/{foodId}", "food.delete", c.Food.Delete, c.AdminGuard.Handler)
	food.Get("/foods", "food.index", c.Food.Index)
	food.Post("/buy/{foodId}", "food.buy", c.Food.Buy, c.UserGuard.Handler)
	food.Get("/{foodId}", "food.show", c.Food.Show)

	api.Post("/order", "order.record", c.Order.Record)

	if schema, err := appgraphql.NewSchema(c.Foods); err == nil {
		api.Post("/graphql", "graphql", appgraphql.Handler(schema))
	} else {
		logger.Error("routes: graphql schema init failed", "error", err)
	}

	r.Get("/metrics", "metrics", metrics.Handler())
}
