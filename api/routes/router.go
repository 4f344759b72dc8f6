package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rpalomino/storefront-backend/api/controllers"
	"github.com/rpalomino/storefront-backend/api/middleware"
	authsvc "github.com/rpalomino/storefront-backend/internal/auth"
	cartsvc "github.com/rpalomino/storefront-backend/internal/cart"
	"github.com/rpalomino/storefront-backend/internal/catalog"
	ordersvc "github.com/rpalomino/storefront-backend/internal/orders"
	ratingsvc "github.com/rpalomino/storefront-backend/internal/ratings"
	recentsvc "github.com/rpalomino/storefront-backend/internal/recent"
	wishlistsvc "github.com/rpalomino/storefront-backend/internal/wishlist"
	"github.com/rpalomino/storefront-backend/pkg/auth/session"
	"github.com/rpalomino/storefront-backend/pkg/config"
	"github.com/rpalomino/storefront-backend/pkg/logger"
	"github.com/rpalomino/storefront-backend/pkg/metrics"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type rateLimiterStore interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
}

// Deps bundles everything the router needs. Collecting them in a struct keeps
// the constructor signature stable as surfaces are added.
type Deps struct {
	Config         *config.Config
	Logger         *logger.Logger
	DB             pinger
	Cache          pinger
	RateLimiter    rateLimiterStore
	SessionChecker session.AccessSessionChecker
	HTTPMetrics    *metrics.HTTPMetrics
	MetricsHandler http.Handler

	Auth     authsvc.Service
	Catalog  catalog.Service
	Cart     cartsvc.Service
	Wishlist wishlistsvc.Service
	Ratings  ratingsvc.Service
	Recent   recentsvc.Service
	Orders   ordersvc.Service
}

func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	logg := d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(d.HTTPMetrics),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	requireAuth := middleware.Auth(cfg.JWT, d.SessionChecker, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, d.DB, d.Cache, logg))
	})

	if d.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", d.MetricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(registerPolicy, d.RateLimiter, logg)).Post("/register", controllers.AuthRegister(d.Auth, logg))
			r.With(middleware.AuthRateLimit(loginPolicy, d.RateLimiter, logg)).Post("/login", controllers.AuthLogin(d.Auth, logg))
			r.Post("/refresh", controllers.AuthRefresh(d.Auth, logg))
			r.Post("/logout", controllers.AuthLogout(d.Auth, cfg.JWT, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(d.Catalog, logg))
			r.Get("/search", controllers.SearchProducts(d.Catalog, logg))
			r.Get("/categories", controllers.ListCategories(d.Catalog, logg))
			r.Get("/price-range", controllers.GetPriceRange(d.Catalog, logg))
			r.Get("/{productID}", controllers.GetProduct(d.Catalog, logg))
			r.Get("/{productID}/rating", controllers.GetProductRating(d.Ratings, logg))

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/{productID}/rating", controllers.RateProduct(d.Ratings, logg))
				r.Get("/{productID}/rating/me", controllers.GetUserRating(d.Ratings, logg))
				r.Post("/{productID}/view", controllers.TrackProductView(d.Recent, logg))
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.GetCart(d.Cart, logg))
				r.Delete("/", controllers.ClearCart(d.Cart, logg))
				r.Get("/count", controllers.GetCartCount(d.Cart, logg))
				r.Post("/items", controllers.AddCartItem(d.Cart, logg))
				r.Put("/items/{itemID}", controllers.UpdateCartItem(d.Cart, logg))
				r.Delete("/items/{itemID}", controllers.RemoveCartItem(d.Cart, logg))
			})

			r.Route("/wishlist", func(r chi.Router) {
				r.Get("/", controllers.GetWishlist(d.Wishlist, logg))
				r.Get("/count", controllers.GetWishlistCount(d.Wishlist, logg))
				r.Get("/{productID}", controllers.CheckWishlistItem(d.Wishlist, logg))
				r.Post("/{productID}", controllers.AddWishlistItem(d.Wishlist, logg))
				r.Delete("/{productID}", controllers.RemoveWishlistItem(d.Wishlist, logg))
				r.Post("/{productID}/toggle", controllers.ToggleWishlistItem(d.Wishlist, logg))
			})

			r.Get("/recently-viewed", controllers.GetRecentlyViewed(d.Recent, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Post("/checkout", controllers.Checkout(d.Orders, logg))
				r.Get("/", controllers.ListOrders(d.Orders, logg))
				r.Get("/count", controllers.GetOrderCount(d.Orders, logg))
				r.Get("/{orderID}", controllers.GetOrder(d.Orders, logg))
			})
		})
	})

	return r
}
