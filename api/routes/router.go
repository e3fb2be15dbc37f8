package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/retailhub/portal-gateway/api/controllers"
	"github.com/retailhub/portal-gateway/api/middleware"
	"github.com/retailhub/portal-gateway/internal/session"
	"github.com/retailhub/portal-gateway/internal/views/admin"
	"github.com/retailhub/portal-gateway/internal/views/csr"
	"github.com/retailhub/portal-gateway/internal/views/logistics"
	"github.com/retailhub/portal-gateway/internal/views/storefront"
	"github.com/retailhub/portal-gateway/internal/views/tenant"
	"github.com/retailhub/portal-gateway/pkg/config"
	"github.com/retailhub/portal-gateway/pkg/enums"
	"github.com/retailhub/portal-gateway/pkg/logger"
)

// RouterParams carry everything the HTTP surface needs.
type RouterParams struct {
	Config     *config.Config
	Logger     *logger.Logger
	Redis      controllers.Pinger
	Sessions   *session.Store
	Registrar  controllers.Registrar
	Storefront *storefront.Service
	Csr        *csr.Service
	Logistics  *logistics.Service
	Tenant     *tenant.Service
	Admin      *admin.Service
	Metrics    *prometheus.Registry
}

func NewRouter(p RouterParams) http.Handler {
	cfg, logg := p.Config, p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.Redis, p.Sessions))
	})

	if p.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/login", controllers.AuthLogin(p.Sessions, cfg.Session, logg))
		r.Post("/register", controllers.AuthRegister(p.Registrar, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.Session, p.Sessions, logg))

		r.Post("/auth/logout", controllers.AuthLogout(p.Sessions, logg,
			p.Storefront, p.Csr, p.Logistics, p.Tenant, p.Admin))
		r.Get("/portal/me", controllers.PortalMe(logg))

		r.Route("/portal/storefront", func(r chi.Router) {
			r.Use(middleware.RequirePortal(enums.PortalStorefront, logg))
			r.Get("/", controllers.StorefrontView(p.Storefront, logg))
			r.Post("/cart", controllers.StorefrontAddToCart(p.Storefront, logg))
			r.Delete("/cart/{itemId}", controllers.StorefrontRemoveFromCart(p.Storefront, logg))
			r.Post("/checkout", controllers.StorefrontCheckout(p.Storefront, logg))
			r.Post("/buy-now", controllers.StorefrontBuyNow(p.Storefront, logg))
			r.Post("/orders/{orderId}/pay", controllers.StorefrontPayOrder(p.Storefront, logg))
			r.Post("/orders/{orderId}/cancel", controllers.StorefrontCancelOrder(p.Storefront, logg))
			r.Post("/wallet/add", controllers.StorefrontAddFunds(p.Storefront, logg))
			r.Post("/notifications/dismiss", controllers.StorefrontDismissNotification(p.Storefront, logg))
		})

		r.Route("/portal/csr", func(r chi.Router) {
			r.Use(middleware.RequirePortal(enums.PortalCsrConsole, logg))
			r.Get("/", controllers.CsrView(p.Csr, logg))
			r.Post("/orders/{orderId}/approve", controllers.CsrApproveOrder(p.Csr, logg))
			r.Post("/products", controllers.CsrCreateProduct(p.Csr, logg))
			r.Put("/products/{sku}/stock", controllers.CsrUpdateStock(p.Csr, logg))
			r.Post("/notifications/dismiss", controllers.CsrDismissNotification(p.Csr, logg))
		})

		r.Route("/portal/logistics", func(r chi.Router) {
			r.Use(middleware.RequirePortal(enums.PortalLogisticsConsole, logg))
			r.Get("/", controllers.LogisticsView(p.Logistics, logg))
			r.Post("/orders/{orderId}/ship", controllers.LogisticsShipOrder(p.Logistics, logg))
			r.Post("/notifications/dismiss", controllers.LogisticsDismissNotification(p.Logistics, logg))
		})

		r.Route("/portal/tenant", func(r chi.Router) {
			r.Use(middleware.RequirePortal(enums.PortalTenantConsole, logg))
			r.Get("/", controllers.TenantView(p.Tenant, logg))
			r.Post("/staff", controllers.TenantRegisterStaff(p.Tenant, logg))
			r.Post("/notifications/dismiss", controllers.TenantDismissNotification(p.Tenant, logg))
		})

		r.Route("/portal/admin", func(r chi.Router) {
			r.Use(middleware.RequirePortal(enums.PortalAdminConsole, logg))
			r.Get("/", controllers.AdminView(p.Admin, logg))
			r.Post("/accounts", controllers.AdminRegisterInternal(p.Admin, logg))
			r.Post("/notifications/dismiss", controllers.AdminDismissNotification(p.Admin, logg))
		})
	})

	return r
}
