package http

import (
	"net/http"
	"time"

	"github.com/fjod/go_storefront/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type RouterOptions struct {
	Catalog        Catalog
	Sessions       *session.Manager
	Logger         *zap.Logger
	RequestTimeout time.Duration
	MaxBodySize    int64
	BadgeCap       int
}

// NewRouter wires the storefront API.
func NewRouter(opts RouterOptions) http.Handler {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if opts.MaxBodySize <= 0 {
		opts.MaxBodySize = 1 << 20
	}

	productHandler := NewProductHandler(opts.Catalog, opts.RequestTimeout)
	cartHandler := NewCartHandler(opts.Catalog, opts.Sessions, opts.RequestTimeout, opts.BadgeCap)

	r := chi.NewRouter()

	// Global middleware
	r.Use(RouteSpanName)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(RequestLogger(opts.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(opts.RequestTimeout))
	r.Use(middleware.RequestSize(opts.MaxBodySize))
	r.Use(middleware.Compress(5))

	r.NotFound(NotFound)
	r.MethodNotAllowed(MethodNotAllowed)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(SessionMiddleware(opts.Sessions))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", productHandler.List)
			r.Post("/sort", productHandler.Sort)
			r.Get("/{product_id}", productHandler.Get)
		})
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Post("/items", cartHandler.AddItem)
			r.Post("/items/{product_id}/increase", cartHandler.IncreaseQuantity)
			r.Post("/items/{product_id}/decrease", cartHandler.DecreaseQuantity)
			r.Delete("/items/{product_id}", cartHandler.RemoveItem)
		})
		r.Delete("/session", cartHandler.EndSession)
	})

	return otelhttp.NewHandler(r, "storefront")
}
