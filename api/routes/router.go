package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/greentradehq/greentrade-backend/api/controllers"
	"github.com/greentradehq/greentrade-backend/api/middleware"
	checkoutsvc "github.com/greentradehq/greentrade-backend/internal/checkout"
	"github.com/greentradehq/greentrade-backend/internal/orders"
	"github.com/greentradehq/greentrade-backend/pkg/config"
	"github.com/greentradehq/greentrade-backend/pkg/db"
	"github.com/greentradehq/greentrade-backend/pkg/logger"
	pkgredis "github.com/greentradehq/greentrade-backend/pkg/redis"
)

// NewRouter wires the HTTP surface: liveness probes, a public ping, and the
// authenticated order endpoints.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *pkgredis.Client,
	checkoutService checkoutsvc.Service,
	ordersService orders.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	var redisP pkgredis.Pinger
	var idempotencyStore pkgredis.IdempotencyStore
	if redisClient != nil {
		redisP = redisClient
		idempotencyStore = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Post("/checkout", controllers.Checkout(checkoutService, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListOrders(ordersService, logg))
			r.Route("/{orderNumber}", func(r chi.Router) {
				r.Get("/", controllers.GetOrder(ordersService, logg))
				r.Post("/status", controllers.UpdateOrderStatus(ordersService, logg))
				r.Post("/cancel", controllers.CancelOrder(ordersService, logg))
				r.Post("/return", controllers.RequestReturn(ordersService, logg))
				r.Post("/payment", controllers.RecordPayment(ordersService, logg))
			})
		})
	})

	return r
}
