// Package kernel builds the HTTP handler: global middleware, operational
// endpoints and the API routes.
package kernel

import (
	"context"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/diner/app/routes"
	"github.com/shashiranjanraj/diner/pkg/database"
	"github.com/shashiranjanraj/diner/pkg/metrics"
	"github.com/shashiranjanraj/diner/pkg/middleware"
	"github.com/shashiranjanraj/diner/pkg/reqid"
	"github.com/shashiranjanraj/diner/pkg/response"
	"github.com/shashiranjanraj/diner/pkg/router"
)

// Options configures the HTTP kernel.
type Options struct {
	Deps            routes.Deps
	FrontendURL     string
	RateLimitMax    int
	RateLimitWindow time.Duration
	// StorageRoot, when set, is served under /storage.
	StorageRoot string
}

// HTTPKernel owns the router and the rate limiter.
type HTTPKernel struct {
	router    *router.Router
	limiter   *middleware.RateLimiter
	stopRelay func()
}

// NewHTTPKernel wires the middleware stack and registers every route.
func NewHTTPKernel(opts Options) (*HTTPKernel, error) {
	if opts.RateLimitMax <= 0 {
		opts.RateLimitMax = 200
	}
	if opts.RateLimitWindow <= 0 {
		opts.RateLimitWindow = time.Minute
	}

	k := &HTTPKernel{
		router:  router.New(),
		limiter: middleware.NewRateLimiter(opts.RateLimitMax, opts.RateLimitWindow),
	}
	r := k.router

	// Outermost first: metrics sees total latency, recovery catches panics
	// before anything else, request ids exist before the logger runs.
	r.Use(metrics.Middleware())
	r.Use(middleware.Recovery)
	r.Use(reqid.Middleware())
	r.Use(middleware.Logger)
	r.Use(middleware.CORS(middleware.FrontendCORSOptions(opts.FrontendURL)))
	r.Use(k.limiter.Middleware)

	r.Get("/metrics", "metrics", metrics.Handler())
	r.Get("/healthz", "healthz", healthz(opts.Deps.DB))
	if opts.StorageRoot != "" {
		r.Mount("/storage", http.StripPrefix("/storage", http.FileServer(http.Dir(opts.StorageRoot))))
	}

	stop, err := routes.RegisterAPI(r, opts.Deps)
	if err != nil {
		return nil, err
	}
	k.stopRelay = stop
	return k, nil
}

func (k *HTTPKernel) Handler() http.Handler { return k.router.Handler() }

func (k *HTTPKernel) Router() *router.Router { return k.router }

// Limiter is the global rate limiter; its Run loop evicts idle clients.
func (k *HTTPKernel) Limiter() *middleware.RateLimiter { return k.limiter }

// Close detaches the API from the event bus.
func (k *HTTPKernel) Close() { k.stopRelay() }

func healthz(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if db == nil {
			response.Error(w, http.StatusServiceUnavailable, "database not configured")
			return
		}
		if err := database.Ping(ctx, db); err != nil {
			response.Error(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		response.Success(w, map[string]string{"status": "ok"})
	}
}
