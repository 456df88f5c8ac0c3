package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/pkg/health"
	"github.com/utafrali/storefront/pkg/middleware"
)

// RouterConfig carries the settings the routes need beyond their services.
type RouterConfig struct {
	JWTSecret      string
	PromoRateRPS   float64
	PromoRateBurst int
	CORS           middleware.CORSConfig
	// PprofCIDRs enables /debug/pprof for these peer ranges when non-empty.
	PprofCIDRs     []string
	RequestTimeout time.Duration
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(
	storefrontService *service.StorefrontService,
	voucherService *service.VoucherService,
	healthHandler *health.Handler,
	cfg RouterConfig,
	logger *slog.Logger,
) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(cfg.RequestTimeout))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("storefront"))
	r.Use(middleware.Tracing("storefront"))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())
	if len(cfg.PprofCIDRs) > 0 {
		middleware.MountPprof(r, cfg.PprofCIDRs, logger)
	}

	storefrontHandler := NewStorefrontHandler(storefrontService, logger)
	voucherHandler := NewVoucherHandler(voucherService, logger)
	promoLimit := middleware.RateLimit(cfg.PromoRateRPS, cfg.PromoRateBurst, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(middleware.Identity(cfg.JWTSecret, logger))
		r.Use(middleware.RequestLogger(logger))

		r.Route("/storefront", func(r chi.Router) {
			r.Get("/session", storefrontHandler.GetSession)
			r.Post("/session/refresh", storefrontHandler.Refresh)

			r.Post("/items", storefrontHandler.AddItem)
			r.Delete("/items", storefrontHandler.ClearCart)
			r.Put("/items/{itemId}", storefrontHandler.UpdateQuantity)
			r.Delete("/items/{itemId}", storefrontHandler.RemoveItem)

			r.Post("/selection/{itemId}/toggle", storefrontHandler.ToggleSelect)
			r.Post("/selection/all", storefrontHandler.SelectAll)
			r.Delete("/selection", storefrontHandler.ClearSelection)

			r.With(promoLimit).Post("/promo", storefrontHandler.ApplyPromo)
			r.Delete("/promo", storefrontHandler.RemovePromo)

			r.Put("/seller-vouchers/mode", storefrontHandler.SetSellerVoucherMode)
			r.With(promoLimit).Post("/seller-vouchers", storefrontHandler.ApplySellerVoucher)
			r.Delete("/seller-vouchers/{vendorId}", storefrontHandler.RemoveSellerVoucher)

			r.Group(func(r chi.Router) {
				r.Use(middleware.CacheControl(time.Minute, true))
				r.Get("/products", storefrontHandler.ListProducts)
				r.Get("/products/{productId}", storefrontHandler.GetProduct)
			})
		})

		r.Route("/vouchers", func(r chi.Router) {
			r.Post("/", voucherHandler.CreateVoucher)
			r.Get("/", voucherHandler.ListVouchers)
			r.Get("/{id}", voucherHandler.GetVoucher)
			r.Post("/{id}/deactivate", voucherHandler.DeactivateVoucher)
		})
	})

	return r
}
