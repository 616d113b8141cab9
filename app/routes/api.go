package routes

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/diner/app/controllers"
	"github.com/shashiranjanraj/diner/app/services"
	"github.com/shashiranjanraj/diner/config"
	"github.com/shashiranjanraj/diner/pkg/auth"
	"github.com/shashiranjanraj/diner/pkg/cache"
	"github.com/shashiranjanraj/diner/pkg/event"
	"github.com/shashiranjanraj/diner/pkg/graphql"
	"github.com/shashiranjanraj/diner/pkg/middleware"
	"github.com/shashiranjanraj/diner/pkg/rbac"
	"github.com/shashiranjanraj/diner/pkg/router"
	"github.com/shashiranjanraj/diner/pkg/storage"
	"github.com/shashiranjanraj/diner/pkg/ws"
)

// Deps carries everything the API handlers need. Zero values are enough to
// register routes for listing. Hub must already be running; without one the
// order events route answers 503.
type Deps struct {
	DB       *gorm.DB
	Tokens   *auth.Issuer
	Cache    *cache.Store
	Disk     storage.Disk
	Provider services.PaymentProvider
	Bus      *event.Bus
	Hub      *ws.Hub

	LoyaltyMode   string
	MenuCacheTTL  time.Duration
	WebhookSecret string
}

// DepsFromConfig fills the config-derived fields of d.
func DepsFromConfig(d Deps) Deps {
	d.LoyaltyMode = config.LoyaltyMode()
	d.MenuCacheTTL = config.MenuCacheTTL()
	d.WebhookSecret = config.PaymentWebhookSecret()
	return d
}

// RegisterAPI mounts the /v1 API on r. When d.Bus and d.Hub are set, order
// status events are relayed to WebSocket subscribers until stop is called.
func RegisterAPI(r *router.Router, d Deps) (stop func(), err error) {
	menuService := services.NewMenuService(d.DB, d.Cache, d.MenuCacheTTL, d.Disk)
	orderService := services.NewOrderService(d.DB, d.LoyaltyMode, d.Bus)

	authController := controllers.NewAuthController(services.NewAuthService(d.DB, d.Tokens))
	menuController := controllers.NewMenuController(menuService)
	orderController := controllers.NewOrderController(orderService, services.NewPaymentService(d.DB, d.LoyaltyMode, d.Bus), d.Hub)
	checkoutController := controllers.NewCheckoutController(services.NewCheckoutService(d.DB, d.Provider))

	schema, err := graphql.NewMenuSchema(menuService)
	if err != nil {
		return nil, fmt.Errorf("routes: graphql schema: %w", err)
	}

	stop = func() {}
	if d.Bus != nil && d.Hub != nil {
		stop = orderController.Relay(d.Bus)
	}

	authenticated := middleware.Authenticate(d.Tokens)

	v1 := r.Group("/v1")
	v1.Post("/auth/register", "auth.register", authController.Register)
	v1.Post("/auth/login", "auth.login", authController.Login)

	v1.Get("/menu", "menu.index", menuController.Index)
	v1.Post("/graphql", "graphql", graphql.Handler(schema))

	v1.Post("/orders", "orders.store", orderController.Store, middleware.OptionalAuth(d.Tokens))
	v1.Post("/orders/{orderId}/confirm-payment", "orders.confirm-payment", orderController.ConfirmPayment,
		middleware.RequireSignature(d.WebhookSecret))
	v1.Get("/orders/{orderId}/events", "orders.events", orderController.Events)
	v1.Post("/initiate-checkout", "checkout.initiate", checkoutController.Initiate)

	users := v1.Group("/users", authenticated)
	users.Get("/profile", "users.profile", authController.Profile)
	users.Get("/{userId}/orders", "users.orders", orderController.UserOrders)

	admin := v1.Group("/admin/menu", authenticated, rbac.Admin)
	admin.Post("/", "admin.menu.store", menuController.Store)
	admin.Put("/{id}", "admin.menu.update", menuController.Update)
	admin.Delete("/{id}", "admin.menu.destroy", menuController.Destroy)
	admin.Post("/{id}/image", "admin.menu.image", menuController.UploadImage)

	return stop, nil
}
