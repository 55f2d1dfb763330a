package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/sitestock-backend/api/controllers"
	"github.com/angelmondragon/sitestock-backend/api/middleware"
	"github.com/angelmondragon/sitestock-backend/internal/auth"
	"github.com/angelmondragon/sitestock-backend/internal/buildingsites"
	"github.com/angelmondragon/sitestock-backend/internal/clients"
	"github.com/angelmondragon/sitestock-backend/internal/deliveries"
	"github.com/angelmondragon/sitestock-backend/internal/inventory"
	"github.com/angelmondragon/sitestock-backend/internal/ledger"
	"github.com/angelmondragon/sitestock-backend/pkg/auth/session"
	"github.com/angelmondragon/sitestock-backend/pkg/config"
	"github.com/angelmondragon/sitestock-backend/pkg/db"
	"github.com/angelmondragon/sitestock-backend/pkg/enums"
	"github.com/angelmondragon/sitestock-backend/pkg/logger"
	"github.com/angelmondragon/sitestock-backend/pkg/metrics"
	pkgredis "github.com/angelmondragon/sitestock-backend/pkg/redis"
)

// RedisStore is the slice of the Redis client the HTTP layer needs.
type RedisStore interface {
	pkgredis.IdempotencyStore
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
	Ping(ctx context.Context) error
}

// Params wires the router to its services.
type Params struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    RedisStore
	Sessions session.AccessSessionChecker

	HTTPMetrics *metrics.HTTPMetrics
	Gatherer    prometheus.Gatherer

	Auth          auth.Service
	Clients       clients.Service
	BuildingSites buildingsites.Service
	Inventory     inventory.Service
	Deliveries    deliveries.Service
	Ledger        ledger.Service
}

func NewRouter(p Params) http.Handler {
	cfg, logg := p.Config, p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)
	if p.HTTPMetrics != nil {
		r.Use(middleware.Metrics(p.HTTPMetrics))
	}
	r.Use(middleware.CORS(cfg.App.AllowedOrigins()))

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	joinPolicy := middleware.NewAuthRateLimitPolicy(
		"join",
		cfg.AuthRateLimit.JoinWindow,
		cfg.AuthRateLimit.JoinIPLimit,
		cfg.AuthRateLimit.JoinEmailLimit,
	)
	requireAuth := middleware.Auth(cfg.JWT, cfg.Session.CookieName, p.Sessions, logg)
	idempotent := middleware.Idempotency(p.Redis, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DB, p.Redis))
	})
	if p.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, p.Redis, logg)).Post("/login", controllers.AuthLogin(p.Auth, cfg.Session, logg))
		r.With(middleware.AuthRateLimit(joinPolicy, p.Redis, logg)).Post("/join", controllers.AuthJoin(p.Auth, cfg.Session, logg))
		r.Post("/refresh", controllers.AuthRefresh(p.Auth, cfg.Session, logg))
		r.With(requireAuth).Post("/logout", controllers.AuthLogout(p.Auth, cfg.Session, logg))
		r.With(requireAuth).Get("/me", controllers.AuthMe(p.Auth, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(requireAuth)

		r.Route("/clients", func(r chi.Router) {
			r.Get("/", controllers.ClientList(p.Clients, logg))
			r.Post("/", controllers.ClientCreate(p.Clients, logg))
			r.Post("/actions", controllers.ClientActions(p.Clients, logg))
			r.Get("/lookup/{cnpj}", controllers.ClientLookup(p.Clients, logg))
			r.Get("/{clientId}", controllers.ClientDetail(p.Clients, logg))
			r.Patch("/{clientId}", controllers.ClientUpdate(p.Clients, logg))
			r.Delete("/{clientId}", controllers.ClientDelete(p.Clients, logg))
		})

		r.Route("/building-sites", func(r chi.Router) {
			r.Get("/", controllers.SiteList(p.BuildingSites, logg))
			r.Post("/", controllers.SiteCreate(p.BuildingSites, logg))
			r.Route("/{buildingSiteId}", func(r chi.Router) {
				r.Get("/", controllers.SiteDetail(p.BuildingSites, logg))
				r.Patch("/", controllers.SiteUpdate(p.BuildingSites, logg))
				r.Delete("/", controllers.SiteDelete(p.BuildingSites, logg))
				r.With(idempotent).Post("/actions", controllers.SiteActions(p.BuildingSites, p.Deliveries, logg))
				r.Get("/inventory", controllers.SiteInventory(p.Inventory, logg))
				r.Get("/ledger", controllers.SiteLedger(p.Ledger, logg))
				r.Get("/ledger.xlsx", controllers.SiteLedgerWorkbook(p.Ledger, cfg.Company, logg))
				r.Get("/ledger/{rentableId}", controllers.SiteItemLedger(p.Ledger, logg))
			})
		})

		r.Route("/rentables", func(r chi.Router) {
			r.Get("/", controllers.RentableList(p.Inventory, logg))
			r.Post("/", controllers.RentableCreate(p.Inventory, logg))
			r.Get("/availability", controllers.RentableAvailability(p.Inventory, logg))
			r.Get("/{rentableId}", controllers.RentableDetail(p.Inventory, logg))
			r.Patch("/{rentableId}", controllers.RentableUpdate(p.Inventory, logg))
			r.Delete("/{rentableId}", controllers.RentableDelete(p.Inventory, logg))
		})

		r.Route("/deliveries", func(r chi.Router) {
			r.Get("/", controllers.DeliveryList(p.Deliveries, logg))
			r.With(idempotent).Post("/", controllers.DeliveryCreate(p.Deliveries, logg))
			r.Get("/{deliveryId}", controllers.DeliveryDetail(p.Deliveries, logg))
			r.Patch("/{deliveryId}", controllers.DeliveryUpdate(p.Deliveries, logg))
			r.Delete("/{deliveryId}", controllers.DeliveryDelete(p.Deliveries, logg))
			r.Get("/{deliveryId}/receipt.xlsx", controllers.DeliveryReceipt(p.Deliveries, cfg.Company, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.UserRoleAdmin))
			r.Get("/users", controllers.AdminUserList(p.Auth, logg))
			r.Patch("/users/{userId}", controllers.AdminUserUpdate(p.Auth, logg))
			r.Post("/invites", controllers.AdminInvite(p.Auth, logg))
		})
	})

	return r
}
