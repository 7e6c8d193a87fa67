package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vitrinehub/storefront-backend/api/controllers"
	"github.com/vitrinehub/storefront-backend/api/middleware"
	"github.com/vitrinehub/storefront-backend/internal/orders"
	"github.com/vitrinehub/storefront-backend/internal/pricing"
	"github.com/vitrinehub/storefront-backend/internal/webhooks"
	"github.com/vitrinehub/storefront-backend/pkg/config"
	"github.com/vitrinehub/storefront-backend/pkg/db/models"
	"github.com/vitrinehub/storefront-backend/pkg/logger"

	"github.com/google/uuid"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type orderCanceller interface {
	Cancel(ctx context.Context, orderID uuid.UUID, reason string) (*models.Order, error)
}

// RouterParams carry everything the HTTP surface needs.
type RouterParams struct {
	Config           *config.Config
	Logger           *logger.Logger
	DB               pinger
	Redis            pinger
	Orders           orders.Service
	Settlement       orderCanceller
	Pricing          pricing.Service
	PaymentProcessor *webhooks.PaymentProcessor
}

// NewRouter builds the API's route tree.
func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": params.DB,
			"redis":    params.Redis,
		}))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/payment", controllers.PaymentWebhook(params.PaymentProcessor, logg))
	})

	r.Route("/api/v1/stores/{storeID}", func(r chi.Router) {
		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.OrderCreate(params.Orders, logg))
			r.Get("/", controllers.OrderList(params.Orders, logg))
			r.Get("/{orderID}", controllers.OrderGet(params.Orders, logg))
			r.Post("/{orderID}/cancel", controllers.OrderCancel(params.Orders, params.Settlement, logg))
		})

		r.Route("/price-model", func(r chi.Router) {
			r.Get("/", controllers.PriceModelGet(params.Pricing, logg))
			r.Put("/", controllers.PriceModelUpdate(params.Pricing, logg))
		})

		r.Post("/price-quote", controllers.PriceQuote(params.Pricing, logg))
	})

	return r
}
