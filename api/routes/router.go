package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/fenceops-backend/api/controllers"
	pricingcontrollers "github.com/angelmondragon/fenceops-backend/api/controllers/pricing"
	quotecontrollers "github.com/angelmondragon/fenceops-backend/api/controllers/quotes"
	"github.com/angelmondragon/fenceops-backend/api/middleware"
	"github.com/angelmondragon/fenceops-backend/internal/jobs"
	"github.com/angelmondragon/fenceops-backend/internal/pricing"
	"github.com/angelmondragon/fenceops-backend/internal/quotes"
	"github.com/angelmondragon/fenceops-backend/internal/ratesheets"
	"github.com/angelmondragon/fenceops-backend/pkg/config"
	"github.com/angelmondragon/fenceops-backend/pkg/logger"
	"github.com/angelmondragon/fenceops-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	health map[string]controllers.Pinger,
	gatherer prometheus.Gatherer,
	idempotencyStore redis.IdempotencyStore,
	pricingService pricing.Service,
	rateSheetService ratesheets.Service,
	quoteService quotes.Service,
	jobService jobs.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.AllowedOrigins),
		middleware.Actor(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, health))
	})
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	idempotent := middleware.Idempotency(idempotencyStore, logg)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/pricing", func(r chi.Router) {
			r.Post("/resolve", pricingcontrollers.Resolve(pricingService, logg))
			r.Post("/lines", pricingcontrollers.Lines(pricingService, logg))
			r.Post("/totals", pricingcontrollers.Totals(quoteService, logg))
		})

		r.Put("/rate-sheets/{rateSheetId}/active", controllers.RateSheetSetActive(rateSheetService, logg))

		r.Get("/jobs/{jobId}", controllers.JobDetail(jobService, logg))

		r.Route("/quotes", func(r chi.Router) {
			r.With(idempotent).Post("/", quotecontrollers.Create(quoteService, logg))
			r.Get("/{quoteId}", quotecontrollers.Get(quoteService, logg))
			r.Put("/{quoteId}", quotecontrollers.Save(quoteService, logg))

			r.Group(func(r chi.Router) {
				r.Use(idempotent)
				for _, action := range quotecontrollers.Actions {
					r.Post("/{quoteId}/"+action.Path, quotecontrollers.Transition(quoteService, action, logg))
				}
				r.Post("/{quoteId}/lose", quotecontrollers.Lose(quoteService, logg))
				r.Post("/{quoteId}/convert", quotecontrollers.Convert(quoteService, logg))
			})
		})
	})

	return r
}
