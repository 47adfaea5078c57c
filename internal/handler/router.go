package handler

import (
	"net/http"
	"time"

	"github.com/boddenberg/comptes-soap-go/internal/domain"
	"github.com/boddenberg/comptes-soap-go/internal/infra/observability"
	"github.com/boddenberg/comptes-soap-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// NewRouter creates the HTTP router with all routes and middleware.
// svc and hub may be nil, in which case only operational endpoints are served.
func NewRouter(svc *service.ComptesService, hub *EventHub, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(svc))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		r.Get("/metrics/soap", soapMetricsHandler(metrics))

		if svc != nil {
			r.Get("/comptes", listComptesHandler(svc))
			r.Post("/comptes", createCompteHandler(svc, logger))
			r.Get("/comptes/rows", listRowsHandler(svc))
			r.Delete("/comptes/{id}", deleteCompteHandler(svc, logger))
			r.Get("/comptes/{id}/edit", editCompteHandler(svc, logger))
		}
		if hub != nil {
			r.Handle("/comptes/events", hub)
		}
	})

	return r
}

// healthzHandler probes the SOAP service with a getComptes call. The client
// hides failures, so the probe can only report latency, not reachability.
func healthzHandler(svc *service.ComptesService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "comptes-api", Status: "healthy", LastChecked: now},
		}

		if svc != nil {
			_, latency := svc.Ping(r.Context())
			services = append(services, domain.ServiceHealth{
				Name:        "soap",
				Status:      "healthy",
				LatencyMs:   latency.Milliseconds(),
				LastChecked: now,
			})
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{Status: "healthy", Services: services})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func soapMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetSOAPSnapshot())
	}
}
