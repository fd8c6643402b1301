package http

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type Services struct {
	Catalog   CatalogService
	Cart      CartService
	Addresses AddressService
	Checkout  CheckoutService
	Orders    OrderService
}

type RouterConfig struct {
	JWTSecret      []byte
	RequestTimeout time.Duration
	MaxRequestBody int64
	// HealthChecks are probed by GET /health, keyed by component name.
	HealthChecks map[string]func(context.Context) error
}

func NewRouter(svc Services, cfg RouterConfig, logger *zap.Logger) chi.Router {
	catalogHandler := NewCatalogHandler(svc.Catalog)
	cartHandler := NewCartHandler(svc.Cart)
	addressHandler := NewAddressHandler(svc.Addresses)
	checkoutHandler := NewCheckoutHandler(svc.Checkout)
	ordersHandler := NewOrdersHandler(svc.Orders)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}
	if cfg.MaxRequestBody > 0 {
		r.Use(middleware.RequestSize(cfg.MaxRequestBody))
	}

	r.Get("/health", healthHandler(cfg.HealthChecks))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler(cfg.HealthChecks))

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(cfg.JWTSecret))

			r.Route("/catalog", func(r chi.Router) {
				r.Get("/", catalogHandler.ListItems)
				r.Get("/{item_id}", catalogHandler.GetItem)
			})

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartHandler.GetCart)
				r.Delete("/", cartHandler.ClearCart)
				r.Post("/items", cartHandler.AddItem)
				r.Put("/items/{item_id}", cartHandler.UpdateQuantity)
				r.Delete("/items/{item_id}", cartHandler.RemoveItem)
			})

			r.Route("/addresses", func(r chi.Router) {
				r.Get("/", addressHandler.ListAddresses)
				r.Post("/", addressHandler.CreateAddress)
				r.Get("/{address_id}", addressHandler.GetAddress)
			})

			r.Post("/checkout", checkoutHandler.Checkout)

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", ordersHandler.ListOrders)
				r.Get("/{order_id}", ordersHandler.GetOrder)
				r.Post("/{order_id}/cancel", ordersHandler.CancelOrder)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(RequireRole(RoleAdmin))
				r.Patch("/orders/{order_id}/status", ordersHandler.UpdateStatus)
			})
		})
	})

	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthHandler(checks map[string]func(context.Context) error) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok"}
		status := http.StatusOK
		if len(names) > 0 {
			resp.Checks = make(map[string]string, len(names))
		}
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		respondJSON(w, r, status, resp)
	}
}
