package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers bundles the per-domain handlers the router mounts.
type Handlers struct {
	Auth    *AuthHandler
	Profile *ProfileHandler
	Offer   *OfferHandler
	Order   *OrderHandler
	Review  *ReviewHandler
	Stats   *StatsHandler
}

// NewRouter assembles the full route table. Offer reads are public (an
// actor is attached when a token is present), everything below the auth
// group requires a valid token.
func NewRouter(h Handlers, tokens tokenParser, accounts actorResolver) *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.StripSlashes)
	router.Use(metricsMiddleware)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	router.Post("/registration", h.Auth.Register)
	router.Post("/login", h.Auth.Login)
	router.Get("/base-info", h.Stats.BaseInfo)

	router.Group(func(r chi.Router) {
		r.Use(optionalAuth(tokens, accounts))

		r.Get("/offers", h.Offer.List)
		r.Get("/offers/{id}", h.Offer.Get)
		r.Get("/offerdetails/{id}", h.Offer.GetVariant)
	})

	router.Group(func(r chi.Router) {
		r.Use(requireAuth(tokens, accounts))

		r.Get("/profile/{pk}", h.Profile.Get)
		r.Patch("/profile/{pk}", h.Profile.Update)
		r.Get("/profiles/business", h.Profile.ListBusiness)
		r.Get("/profiles/business/{pk}", h.Profile.GetBusiness)
		r.Patch("/profiles/business/{pk}", h.Profile.UpdateBusiness)
		r.Get("/profiles/customer", h.Profile.ListCustomer)
		r.Get("/profiles/customer/{pk}", h.Profile.GetCustomer)
		r.Patch("/profiles/customer/{pk}", h.Profile.UpdateCustomer)

		r.Post("/offers", h.Offer.Create)
		r.Patch("/offers/{id}", h.Offer.Update)
		r.Delete("/offers/{id}", h.Offer.Delete)

		r.Get("/orders", h.Order.List)
		r.Post("/orders", h.Order.Create)
		r.Get("/orders/{id}", h.Order.Get)
		r.Patch("/orders/{id}", h.Order.UpdateStatus)
		r.Delete("/orders/{id}", h.Order.Delete)
		r.Get("/order-count/{id}", h.Order.CountInProgress)
		r.Get("/completed-order-count/{id}", h.Order.CountCompleted)

		r.Get("/reviews", h.Review.List)
		r.Post("/reviews", h.Review.Create)
		r.Get("/reviews/{id}", h.Review.Get)
		r.Patch("/reviews/{id}", h.Review.Update)
		r.Delete("/reviews/{id}", h.Review.Delete)
	})

	return router
}
