package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Lixing-Zhang/campus-queue/internal/config"
	"github.com/Lixing-Zhang/campus-queue/internal/middleware"
)

// Handlers groups every HTTP handler served by the API
type Handlers struct {
	Health  *HealthHandler
	Catalog *CatalogHandler
	Basket  *BasketHandler
	Order   *OrderHandler
	Profile *ProfileHandler
}

// NewRouter registers all routes and the shared middleware stack
func NewRouter(h Handlers, auth config.AuthConfig, log *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "api_key", middleware.UserIDHeader},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", h.Health.ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		// Catalog is public
		r.Get("/vendors", h.Catalog.ListVendors)
		r.Get("/vendors/{vendorId}", h.Catalog.GetVendor)

		// Vendor-side fulfillment events
		r.With(middleware.APIKeyAuth(auth)).Post("/orders/{orderId}/advance", h.Order.AdvanceOrder)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUser)

			r.Get("/basket", h.Basket.GetBasket)
			r.Delete("/basket", h.Basket.ClearBasket)
			r.Post("/basket/items", h.Basket.AddItem)
			r.Post("/basket/items/{itemId}/decrease", h.Basket.DecreaseItem)
			r.Delete("/basket/items/{itemId}", h.Basket.RemoveItem)

			r.Post("/orders", h.Order.PlaceOrder)
			r.Get("/orders", h.Order.ListOrders)
			r.Get("/orders/{orderId}", h.Order.GetOrder)
			r.Post("/orders/{orderId}/retry", h.Order.RetryOrder)

			r.Get("/profile", h.Profile.GetProfile)
			r.Put("/profile", h.Profile.UpdateProfile)
			r.Post("/profile/favorites/{vendorId}", h.Profile.ToggleFavorite)
		})
	})

	return r
}
